package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"flowproof/internal/errors"
	"flowproof/internal/parser"
)

// ConvertParseErrors transforms parser errors into LSP diagnostics.
func ConvertParseErrors(parseErrors []parser.ParseError) []protocol.Diagnostic {
	var diagnostics []protocol.Diagnostic
	for _, pe := range parseErrors {
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(pe.Position.Line - 1), Character: uint32(pe.Position.Column - 1)},
				End:   protocol.Position{Line: uint32(pe.Position.Line - 1), Character: uint32(pe.Position.Column + 5)},
			},
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("flowproof-parser"),
			Message:  pe.Message,
		})
	}
	return diagnostics
}

// ConvertScanErrors transforms scanner errors into LSP diagnostics.
func ConvertScanErrors(scanErrors []parser.ScanError) []protocol.Diagnostic {
	var diagnostics []protocol.Diagnostic
	for _, se := range scanErrors {
		endChar := uint32(se.Position.Column - 1 + se.Length)
		if se.Length == 0 {
			endChar = uint32(se.Position.Column + 3)
		}
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(se.Position.Line - 1), Character: uint32(se.Position.Column - 1)},
				End:   protocol.Position{Line: uint32(se.Position.Line - 1), Character: endChar},
			},
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("flowproof-scanner"),
			Message:  se.Message,
		})
	}
	return diagnostics
}

// ConvertValidationFailure renders a *errors.ValidationFailure as a
// document-level diagnostic. A ValidationFailure carries a block and
// operation cursor, not a source position - it is raised deep inside CFG
// traversal, after the AST has already been reduced to a graph - so the
// best this can do is anchor the diagnostic at the top of the file and
// let the message carry the precise function/block/operation location.
func ConvertValidationFailure(vf *errors.ValidationFailure) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: 0, Character: 1},
		},
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString("flowproof-validator"),
		Message:  errors.FormatValidationFailure(vf),
	}
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func ptrString(s string) *string {
	return &s
}
