package lsp

import (
	"github.com/alecthomas/participle/v2/lexer"

	"flowproof/grammar"
)

// SemanticToken is a single LSP semantic token entry. Line and StartChar
// are 0-based; TokenType indexes SemanticTokenTypes and TokenModifiers is
// a bitmask into SemanticTokenModifiers.
type SemanticToken struct {
	Line           uint32
	StartChar      uint32
	Length         uint32
	TokenType      int
	TokenModifiers int
}

func collectSemanticTokens(program *grammar.Program) []SemanticToken {
	var tokens []SemanticToken
	if program == nil {
		return tokens
	}
	for _, stmt := range program.Statements {
		tokens = append(tokens, walkStatement(stmt)...)
	}
	return tokens
}

func walkStatement(s *grammar.Statement) []SemanticToken {
	var tokens []SemanticToken
	if s == nil {
		return tokens
	}

	switch {
	case s.Function != nil:
		f := s.Function
		tokens = append(tokens, makeToken(f.Name.Pos, f.Name.EndPos, f.Name.Value, "function", 1))
		for _, p := range f.Parameters {
			tokens = append(tokens, makeToken(p.Pos, p.EndPos, p.Value, "parameter", 1))
		}
		for _, r := range f.Returns {
			tokens = append(tokens, makeToken(r.Pos, r.EndPos, r.Value, "parameter", 1))
		}
		tokens = append(tokens, walkBlock(f.Body)...)
	case s.Let != nil:
		for _, n := range s.Let.Names {
			tokens = append(tokens, makeToken(n.Pos, n.EndPos, n.Value, "variable", 1))
		}
		if s.Let.Initializer != nil {
			tokens = append(tokens, walkExpr(s.Let.Initializer)...)
		}
	case s.If != nil:
		tokens = append(tokens, walkExpr(s.If.Condition)...)
		tokens = append(tokens, walkBlock(s.If.Body)...)
	case s.Switch != nil:
		tokens = append(tokens, walkExpr(s.Switch.Expression)...)
		for _, c := range s.Switch.Cases {
			if c.Value != nil {
				tokens = append(tokens, makeToken(c.Value.Pos, c.Value.EndPos, c.Value.Value, "number", 0))
			}
			tokens = append(tokens, walkBlock(c.Body)...)
		}
	case s.For != nil:
		tokens = append(tokens, walkBlock(s.For.Pre)...)
		tokens = append(tokens, walkExpr(s.For.Condition)...)
		tokens = append(tokens, walkBlock(s.For.Post)...)
		tokens = append(tokens, walkBlock(s.For.Body)...)
	case s.Nested != nil:
		tokens = append(tokens, walkBlock(s.Nested)...)
	case s.Simple != nil:
		tokens = append(tokens, walkSimpleStmt(s.Simple)...)
	}

	return tokens
}

func walkSimpleStmt(s *grammar.SimpleStmt) []SemanticToken {
	var tokens []SemanticToken
	if s == nil {
		return tokens
	}

	isCall := s.Tail != nil && s.Tail.Call != nil
	nameTokenType := "variable"
	if isCall && len(s.Rest) == 0 {
		nameTokenType = "function"
	}
	tokens = append(tokens, makeToken(s.First.Pos, s.First.EndPos, s.First.Value, nameTokenType, 0))
	for _, n := range s.Rest {
		tokens = append(tokens, makeToken(n.Pos, n.EndPos, n.Value, "variable", 0))
	}

	if s.Tail == nil {
		return tokens
	}
	if s.Tail.Assign != nil {
		tokens = append(tokens, walkExpr(s.Tail.Assign)...)
	}
	if s.Tail.Call != nil {
		for _, arg := range s.Tail.Call.Args {
			tokens = append(tokens, walkExpr(arg)...)
		}
	}
	return tokens
}

func walkBlock(b *grammar.Block) []SemanticToken {
	var tokens []SemanticToken
	if b == nil {
		return tokens
	}
	for _, stmt := range b.Statements {
		tokens = append(tokens, walkStatement(stmt)...)
	}
	return tokens
}

func walkExpr(e *grammar.Expr) []SemanticToken {
	var tokens []SemanticToken
	if e == nil {
		return tokens
	}
	switch {
	case e.Call != nil:
		tokens = append(tokens, makeToken(e.Call.Callee.Pos, e.Call.Callee.EndPos, e.Call.Callee.Value, "function", 0))
		for _, arg := range e.Call.Args {
			tokens = append(tokens, walkExpr(arg)...)
		}
	case e.Number != nil:
		tokens = append(tokens, makeToken(e.Number.Pos, e.Number.EndPos, e.Number.Value, "number", 0))
	case e.Ident != nil:
		tokens = append(tokens, makeToken(e.Ident.Pos, e.Ident.EndPos, e.Ident.Value, "variable", 0))
	}
	return tokens
}

func makeToken(pos, endPos lexer.Position, value, tokenType string, decl int) SemanticToken {
	length := endPos.Column - pos.Column
	if length <= 0 {
		length = len(value)
	}
	return SemanticToken{
		Line:           uint32(pos.Line - 1),
		StartChar:      uint32(pos.Column - 1),
		Length:         uint32(length),
		TokenType:      indexOf(tokenType, SemanticTokenTypes),
		TokenModifiers: decl << indexOf("declaration", SemanticTokenModifiers),
	}
}

func indexOf(target string, list []string) int {
	for i, v := range list {
		if v == target {
			return i
		}
	}
	return -1
}
