package parser

var keywords = map[string]TokenType{
	"function": FUNCTION,
	"let":      LET,
	"if":       IF,
	"switch":   SWITCH,
	"case":     CASE,
	"default":  DEFAULT,
	"for":      FOR,
	"break":    BREAK,
	"continue": CONTINUE,
	"leave":    LEAVE,
}

func lookupIdentifier(text string) TokenType {
	if t, ok := keywords[text]; ok {
		return t
	}
	return IDENTIFIER
}
