package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// FlowLexer tokenizes this dialect's small, keyword-driven surface
// syntax for editor tooling (semantic tokens) - a second,
// independent parse of the same text internal/parser compiles, kept
// deliberately tolerant of the things an editor sees mid-edit that a
// compile-time parse never has to.
var FlowLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"DocComment", `///[^\n]*`, nil},
		{"Comment", `//[^\n]*`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Integer", `0x[0-9a-fA-F]+|[0-9]+`, nil},
		{"Operator", `(:=|->)`, nil},
		{"Punctuation", `[{}(),]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
