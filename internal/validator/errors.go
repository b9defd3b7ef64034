package validator

import "flowproof/internal/errors"

// The validator never recovers from a failed assertion: the first
// divergence between the AST and its SSA companion panics with a
// *errors.ValidationFailure, which the Validate entry point turns back
// into a plain error. There is deliberately no partial result.

func (v *Validator) fail(category string, format string, args ...any) {
	panic(errors.NewValidationFailure(category, v.functionName, int(v.currentBlockID), v.currentOperation, format, args...))
}

func (v *Validator) fatalStructural(format string, args ...any) {
	v.fail(errors.CategoryStructuralMismatch, format, args...)
}

func (v *Validator) fatalCursor(format string, args ...any) {
	v.fail(errors.CategoryCursorMismatch, format, args...)
}

func (v *Validator) fatalDictionary(format string, args ...any) {
	v.fail(errors.CategoryDictionaryLookup, format, args...)
}

func (v *Validator) fatalPhi(format string, args ...any) {
	v.fail(errors.CategoryPhiEdgeMismatch, format, args...)
}

func (v *Validator) fatalReturnShape(format string, args ...any) {
	v.fail(errors.CategoryReturnShapeViolation, format, args...)
}
