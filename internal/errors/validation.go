package errors

import "fmt"

// The five ways internal/validator's assertions can fail, matching the
// five places the AST and its SSA CFG companion can diverge: the shape
// of the graph itself, the operation cursor discipline, a name that
// should resolve but doesn't, a phi edge that doesn't line up with its
// block's recorded predecessors, and a call or leave whose value count
// doesn't match what it was declared to produce.
const (
	CategoryStructuralMismatch   = "structural mismatch"
	CategoryCursorMismatch       = "cursor mismatch"
	CategoryDictionaryLookup     = "dictionary lookup failure"
	CategoryPhiEdgeMismatch      = "phi-edge mismatch"
	CategoryReturnShapeViolation = "return-shape violation"
)

// ValidationFailure is the fatal, unrecoverable error the validator
// raises the moment it finds a point where the AST and its SSA CFG
// companion cannot be proven equivalent. Validation stops at the first
// one; there is no partial or best-effort result.
type ValidationFailure struct {
	Category  string
	Function  string
	Block     int
	Operation int
	Message   string
}

// NewValidationFailure builds a ValidationFailure with a formatted
// message, mirroring fmt.Errorf's signature.
func NewValidationFailure(category, function string, block, operation int, format string, args ...any) *ValidationFailure {
	return &ValidationFailure{
		Category:  category,
		Function:  function,
		Block:     block,
		Operation: operation,
		Message:   fmt.Sprintf(format, args...),
	}
}

func (f *ValidationFailure) Error() string {
	return fmt.Sprintf("%s: function %q, block %d, operation %d: %s",
		f.Category, f.Function, f.Block, f.Operation, f.Message)
}
