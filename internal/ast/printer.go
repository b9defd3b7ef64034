package ast

import (
	"fmt"
	"strings"
)

// Print renders a Block as indented source text, mostly useful for
// debugging fixtures and the CLI's -print flag.
func Print(b *Block) string {
	var sb strings.Builder
	printBlock(&sb, b, 0)
	return sb.String()
}

func indent(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("    ", depth))
}

func printBlock(sb *strings.Builder, b *Block, depth int) {
	sb.WriteString("{\n")
	for _, stmt := range b.Statements {
		printStatement(sb, stmt, depth+1)
	}
	indent(sb, depth)
	sb.WriteString("}")
}

func printStatement(sb *strings.Builder, stmt Statement, depth int) {
	indent(sb, depth)
	switch s := stmt.(type) {
	case *ExpressionStatement:
		sb.WriteString(printExpr(s.Call))
		sb.WriteString("\n")
	case *VariableDeclaration:
		fmt.Fprintf(sb, "let %s", strings.Join(s.Variables, ", "))
		if s.Initializer != nil {
			fmt.Fprintf(sb, " := %s", printExpr(s.Initializer))
		}
		sb.WriteString("\n")
	case *Assignment:
		fmt.Fprintf(sb, "%s := %s\n", strings.Join(s.Variables, ", "), printExpr(s.Value))
	case *FunctionDefinition:
		fmt.Fprintf(sb, "function %s(%s) -> %s ", s.Name, strings.Join(s.Parameters, ", "), strings.Join(s.Returns, ", "))
		printBlock(sb, s.Body, depth)
		sb.WriteString("\n")
	case *If:
		fmt.Fprintf(sb, "if %s ", printExpr(s.Condition))
		printBlock(sb, s.Body, depth)
		sb.WriteString("\n")
	case *Switch:
		fmt.Fprintf(sb, "switch %s\n", printExpr(s.Expression))
		for _, c := range s.Cases {
			indent(sb, depth)
			if c.Value != nil {
				fmt.Fprintf(sb, "case %s ", printExpr(c.Value))
			} else {
				sb.WriteString("default ")
			}
			printBlock(sb, c.Body, depth)
			sb.WriteString("\n")
		}
	case *ForLoop:
		sb.WriteString("for ")
		printBlock(sb, s.Pre, depth)
		fmt.Fprintf(sb, " %s ", printExpr(s.Condition))
		printBlock(sb, s.Post, depth)
		sb.WriteString(" ")
		printBlock(sb, s.Body, depth)
		sb.WriteString("\n")
	case *Break:
		sb.WriteString("break\n")
	case *Continue:
		sb.WriteString("continue\n")
	case *Leave:
		sb.WriteString("leave\n")
	case *Block:
		printBlock(sb, s, depth)
		sb.WriteString("\n")
	default:
		fmt.Fprintf(sb, "<unknown statement %T>\n", s)
	}
}

func printExpr(e Expression) string {
	switch v := e.(type) {
	case *Identifier:
		return v.Name
	case *Literal:
		return v.Value
	case *FunctionCall:
		args := make([]string, len(v.Arguments))
		for i, a := range v.Arguments {
			args[i] = printExpr(a)
		}
		return fmt.Sprintf("%s(%s)", v.Callee, strings.Join(args, ", "))
	default:
		return fmt.Sprintf("<unknown expr %T>", v)
	}
}
