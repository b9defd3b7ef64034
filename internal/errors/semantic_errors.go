package errors

import (
	"fmt"

	"flowproof/internal/ast"
	"flowproof/internal/parser"
)

// SemanticErrorBuilder provides a fluent interface for building a
// CompilerError.
type SemanticErrorBuilder struct {
	err CompilerError
}

// NewSemanticError starts a builder for an error-level CompilerError.
func NewSemanticError(code, message string, pos ast.Position) *SemanticErrorBuilder {
	return &SemanticErrorBuilder{
		err: CompilerError{Level: Error, Code: code, Message: message, Position: pos, Length: 1},
	}
}

func (b *SemanticErrorBuilder) WithLength(length int) *SemanticErrorBuilder {
	b.err.Length = length
	return b
}

func (b *SemanticErrorBuilder) Build() CompilerError {
	return b.err
}

func toASTPosition(filename string, pos parser.Position) ast.Position {
	return ast.Position{Filename: filename, Offset: pos.Offset, Line: pos.Line, Column: pos.Column}
}

// ScanFailure converts a scanner error into a renderable CompilerError.
func ScanFailure(filename string, se parser.ScanError) CompilerError {
	return NewSemanticError(ErrorScanFailure, se.Message, toASTPosition(filename, se.Position)).
		WithLength(se.Length).
		Build()
}

// SyntaxError converts a parser error into a renderable CompilerError.
func SyntaxError(filename string, pe parser.ParseError) CompilerError {
	return NewSemanticError(ErrorSyntaxError, pe.Message, toASTPosition(filename, pe.Position)).
		Build()
}

// FormatValidationFailure renders a *ValidationFailure the way
// ErrorReporter renders a CompilerError, without the source-framed
// snippet (a ValidationFailure carries a block/operation cursor, not a
// source position, since it is raised deep inside CFG traversal rather
// than against source text).
func FormatValidationFailure(vf *ValidationFailure) string {
	return fmt.Sprintf("validation failure [%s]: %s\n  in function %q, block %d, operation %d\n",
		vf.Category, vf.Message, vf.Function, vf.Block, vf.Operation)
}
