package grammar

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"
)

var flowParser = participle.MustBuild[Program](
	participle.Lexer(FlowLexer),
	participle.Elide("Whitespace", "Comment", "DocComment"),
	participle.UseLookahead(3),
)

// ParseFile reads path and runs the editor-tooling grammar over it,
// returning a position-annotated concrete syntax tree. This is
// independent of internal/parser's compile-time parse: callers that
// need a validated semantic AST should use internal/parser.ParseSource
// instead, and reach for this one only where a CST keyed by byte
// offsets is what's wanted - internal/lsp's semantic tokens.
func ParseFile(path string) (*Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseSource(path, string(source))
}

// ParseSource is ParseFile for callers that already hold the text, such
// as a language server reading from an open editor buffer rather than
// disk.
func ParseSource(filename, source string) (*Program, error) {
	program, err := flowParser.ParseString(filename, source)
	if err != nil {
		reportParseError(source, err)
		return nil, err
	}
	return program, nil
}

// reportParseError prints a friendly caret-style parse error message.
func reportParseError(src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("Unexpected error: %s", err)
		return
	}

	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("Syntax error at unknown location: %s", err)
		return
	}

	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", pos.Column-1) + "^"

	color.Red("syntax error in %s at line %d, column %d:", pos.Filename, pos.Line, pos.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("-> %s\n", pe.Message())
}
