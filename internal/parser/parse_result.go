package parser

import "flowproof/internal/ast"

// ParseResult bundles a parse's output with every error either phase
// collected, so callers (the CLI, the language server) can report all
// of them together instead of stopping at the first.
type ParseResult struct {
	Program     *ast.Block
	ScanErrors  []ScanError
	ParseErrors []ParseError
}

// ParseResultFor runs ParseSource and packages its return values into a
// ParseResult.
func ParseResultFor(filename, source string) *ParseResult {
	program, scanErrs, parseErrs := ParseSource(filename, source)
	return &ParseResult{Program: program, ScanErrors: scanErrs, ParseErrors: parseErrs}
}

// OK reports whether parsing produced a usable program with no errors
// from either phase.
func (r *ParseResult) OK() bool {
	return r.Program != nil && len(r.ScanErrors) == 0 && len(r.ParseErrors) == 0
}
