package errors

import (
	"strings"
	"testing"

	"flowproof/internal/ast"
	"flowproof/internal/parser"

	"github.com/stretchr/testify/assert"
)

func TestErrorReporterFormatsScanFailure(t *testing.T) {
	source := "function f() {\n  let x := 0x\n}"
	reporter := NewErrorReporter("test.flow", source)

	se := parser.ScanError{
		Message:  "invalid hex literal: expected a hex digit after 0x",
		Position: parser.Position{Line: 2, Column: 12, Offset: 0},
		Length:   2,
	}
	err := ScanFailure("test.flow", se)
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "error["+ErrorScanFailure+"]")
	assert.Contains(t, formatted, "invalid hex literal")
	assert.Contains(t, formatted, "test.flow:2:12")
}

func TestErrorReporterFormatsSyntaxError(t *testing.T) {
	source := "function f( {\n}"
	reporter := NewErrorReporter("test.flow", source)

	pe := parser.ParseError{
		Message:  "expected an identifier",
		Position: parser.Position{Line: 1, Column: 13, Offset: 12},
	}
	err := SyntaxError("test.flow", pe)
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "error["+ErrorSyntaxError+"]")
	assert.Contains(t, formatted, "expected an identifier")
}

func TestFormatValidationFailure(t *testing.T) {
	vf := NewValidationFailure(CategoryCursorMismatch, "add", 2, 1, "block %d has %d unconsumed operations", 2, 1)
	text := FormatValidationFailure(vf)

	assert.Contains(t, text, "cursor mismatch")
	assert.Contains(t, text, `function "add"`)
	assert.Contains(t, text, "block 2")
	assert.Contains(t, text, "operation 1")
}

func TestErrorMarkerCreation(t *testing.T) {
	source := `let variable := value`
	reporter := NewErrorReporter("test.flow", source)

	marker := reporter.createMarker(5, 8, Error) // "variable" is 8 chars at column 5

	spaces := strings.Count(marker, " ")
	assert.Equal(t, 4, spaces) // column 5 means 4 spaces before
	carets := strings.Count(marker, "^")
	assert.Equal(t, 8, carets) // 8 character length
}

func TestErrorLevels(t *testing.T) {
	source := `test`
	reporter := NewErrorReporter("test.flow", source)
	pos := ast.Position{Line: 1, Column: 1}

	errorErr := CompilerError{Level: Error, Message: "test error", Position: pos}
	errorFormatted := reporter.FormatError(errorErr)

	assert.Contains(t, errorFormatted, "error:")
}
