package ast

// Expression is implemented by Identifier, Literal and FunctionCall, the
// only three expression shapes the language has.
type Expression interface {
	Node
	exprNode()
}

// Identifier references a variable visible in the enclosing scope.
type Identifier struct {
	Position Position
	Name     string
}

func (i *Identifier) Pos() Position { return i.Position }
func (i *Identifier) End() Position { return i.Position }
func (*Identifier) exprNode()       {}

// Literal is a constant value, stored as the text it was written with.
// Literal interning and lookup key on that exact text, so distinct
// spellings of the same numeric value (1, 0x1) are distinct literals.
type Literal struct {
	Position Position
	Value    string
}

func (l *Literal) Pos() Position { return l.Position }
func (l *Literal) End() Position { return l.Position }
func (*Literal) exprNode()       {}

// FunctionCall applies a builtin or user-defined function to arguments,
// evaluated right to left (the builder lowers, and the validator
// consumes, the arguments in reverse syntactic order).
type FunctionCall struct {
	Position  Position
	Callee    string
	Arguments []Expression
}

func (c *FunctionCall) Pos() Position { return c.Position }
func (c *FunctionCall) End() Position { return c.Position }
func (*FunctionCall) exprNode()       {}
