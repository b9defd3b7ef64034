// Package parser turns source text into an internal/ast.Block by hand,
// scanner first and a recursive-descent parser second - no grammar
// generator, matching how this dialect's grammar is small and entirely
// keyword-driven (every statement starts with a distinct keyword or an
// identifier, so one token of lookahead decides what is being parsed;
// the exception is an identifier-led statement, where
// parseIdentifierLedStatement reads the name list and rewinds when no
// ':=' follows it).
package parser

import (
	"fmt"

	"flowproof/internal/ast"
)

// ParseError is a syntax error discovered while parsing, with enough
// position information for internal/errors.ErrorReporter to underline
// the offending span.
type ParseError struct {
	Message  string
	Position Position
}

// Parser consumes a flat token stream produced by Scanner and builds an
// internal/ast.Block. It never stops at the first error: parseStatement
// keeps going after reporting one, using synchronize to resume at the
// next statement boundary, so a single file can report every syntax
// error it contains in one pass.
type Parser struct {
	filename string
	tokens   []Token
	current  int
	errors   []ParseError
}

func NewParser(filename string, tokens []Token) *Parser {
	return &Parser{filename: filename, tokens: tokens}
}

// ParseSource scans and parses source in one call, returning the
// top-level block plus every error either phase collected.
func ParseSource(filename, source string) (*ast.Block, []ScanError, []ParseError) {
	scanner := NewScanner(source)
	tokens := scanner.ScanTokens()
	p := NewParser(filename, tokens)
	block := p.ParseProgram()
	return block, scanner.errors, p.errors
}

// ParseProgram parses the top-level program as an implicit block: zero
// or more statements with no enclosing braces.
func (p *Parser) ParseProgram() *ast.Block {
	start := p.peek()
	var statements []ast.Statement
	for !p.isAtEnd() {
		s := p.parseStatement()
		if s != nil {
			statements = append(statements, s)
		}
	}
	return &ast.Block{
		Position:   p.makePos(start),
		Statements: statements,
	}
}

// parseBlock parses a brace-delimited block, the body of every
// construct that introduces one (if, for, switch cases, functions,
// explicit nested blocks).
func (p *Parser) parseBlock() *ast.Block {
	open := p.consume(LEFT_BRACE, "expected '{' to open a block")
	var statements []ast.Statement
	for !p.check(RIGHT_BRACE) && !p.isAtEnd() {
		s := p.parseStatement()
		if s != nil {
			statements = append(statements, s)
		}
	}
	p.consume(RIGHT_BRACE, "expected '}' to close a block")
	return &ast.Block{
		Position:   p.makePos(open),
		Statements: statements,
	}
}

func (p *Parser) parseStatement() ast.Statement {
	switch {
	case p.check(FUNCTION):
		return p.parseFunctionDefinition()
	case p.check(LET):
		return p.parseVariableDeclaration()
	case p.check(IF):
		return p.parseIf()
	case p.check(SWITCH):
		return p.parseSwitch()
	case p.check(FOR):
		return p.parseForLoop()
	case p.check(BREAK):
		tok := p.advance()
		return &ast.Break{Position: p.makePos(tok)}
	case p.check(CONTINUE):
		tok := p.advance()
		return &ast.Continue{Position: p.makePos(tok)}
	case p.check(LEAVE):
		tok := p.advance()
		return &ast.Leave{Position: p.makePos(tok)}
	case p.check(LEFT_BRACE):
		return p.parseBlock()
	case p.check(IDENTIFIER):
		return p.parseIdentifierLedStatement()
	default:
		p.errorAtCurrent(fmt.Sprintf("unexpected token %q starting a statement", p.peek().Lexeme))
		p.synchronize()
		return nil
	}
}

func (p *Parser) parseFunctionDefinition() ast.Statement {
	start := p.advance() // 'function'
	name := p.consumeIdentifier("expected a function name")
	p.consume(LEFT_PAREN, "expected '(' after function name")
	params := p.parseIdentifierList(RIGHT_PAREN)
	p.consume(RIGHT_PAREN, "expected ')' after function parameters")

	var returns []string
	if p.match(ARROW) {
		returns = p.parseIdentifierList(LEFT_BRACE)
	}

	body := p.parseBlock()
	return &ast.FunctionDefinition{
		Position:   p.makePos(start),
		Name:       name,
		Parameters: params,
		Returns:    returns,
		Body:       body,
	}
}

func (p *Parser) parseVariableDeclaration() ast.Statement {
	start := p.advance() // 'let'
	names := p.parseIdentifierList(WALRUS)

	var init ast.Expression
	if p.match(WALRUS) {
		init = p.parseExpression()
	}
	return &ast.VariableDeclaration{
		Position:    p.makePos(start),
		Variables:   names,
		Initializer: init,
	}
}

// parseIdentifierLedStatement disambiguates an assignment (one or more
// comma-separated names followed by ':=') from a bare call statement,
// both of which start with an identifier.
func (p *Parser) parseIdentifierLedStatement() ast.Statement {
	start := p.peek()
	mark := p.current
	names := p.parseIdentifierList(WALRUS)

	if p.match(WALRUS) {
		value := p.parseExpression()
		return &ast.Assignment{
			Position:  p.makePos(start),
			Variables: names,
			Value:     value,
		}
	}

	// Not an assignment after all - rewind and parse a single call
	// expression statement instead.
	p.current = mark
	expr := p.parseExpression()
	return &ast.ExpressionStatement{
		Position: p.makePos(start),
		Call:     expr,
	}
}

func (p *Parser) parseIf() ast.Statement {
	start := p.advance() // 'if'
	cond := p.parseExpression()
	body := p.parseBlock()
	return &ast.If{Position: p.makePos(start), Condition: cond, Body: body}
}

func (p *Parser) parseSwitch() ast.Statement {
	start := p.advance() // 'switch'
	expr := p.parseExpression()

	var cases []*ast.Case
	for p.check(CASE) || p.check(DEFAULT) {
		if p.check(CASE) {
			caseStart := p.advance()
			lit := p.parseLiteral()
			body := p.parseBlock()
			cases = append(cases, &ast.Case{Position: p.makePos(caseStart), Value: lit, Body: body})
		} else {
			caseStart := p.advance()
			body := p.parseBlock()
			cases = append(cases, &ast.Case{Position: p.makePos(caseStart), Value: nil, Body: body})
		}
	}
	if len(cases) == 0 {
		p.errorAtCurrent("switch must have at least one case or default clause")
	}
	return &ast.Switch{Position: p.makePos(start), Expression: expr, Cases: cases}
}

func (p *Parser) parseForLoop() ast.Statement {
	start := p.advance() // 'for'
	pre := p.parseBlock()
	cond := p.parseExpression()
	post := p.parseBlock()
	body := p.parseBlock()
	return &ast.ForLoop{Position: p.makePos(start), Pre: pre, Condition: cond, Post: post, Body: body}
}

// parseExpression parses an identifier, a literal, or a function call -
// the whole of this language's expression grammar. There are no
// operators: every computation is a named builtin or user function call.
func (p *Parser) parseExpression() ast.Expression {
	if p.check(NUMBER) || p.check(HEX_NUMBER) {
		return p.parseLiteral()
	}

	start := p.peek()
	name := p.consumeIdentifier("expected an expression")
	if !p.match(LEFT_PAREN) {
		return &ast.Identifier{Position: p.makePos(start), Name: name}
	}

	var args []ast.Expression
	if !p.check(RIGHT_PAREN) {
		args = append(args, p.parseExpression())
		for p.match(COMMA) {
			args = append(args, p.parseExpression())
		}
	}
	p.consume(RIGHT_PAREN, "expected ')' to close a call's arguments")
	return &ast.FunctionCall{Position: p.makePos(start), Callee: name, Arguments: args}
}

func (p *Parser) parseLiteral() *ast.Literal {
	tok := p.peek()
	if !p.match(NUMBER) && !p.match(HEX_NUMBER) {
		p.errorAtCurrent("expected a numeric literal")
		return &ast.Literal{Position: p.makePos(tok), Value: "0"}
	}
	return &ast.Literal{Position: p.makePos(tok), Value: tok.Lexeme}
}
