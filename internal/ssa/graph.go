package ssa

// Graph is the SSA control-flow graph for a single function (or the
// outermost program unit, which the validator treats as a function with
// no parameters and no returns).
type Graph struct {
	Values  []Value
	Literal *LiteralTable

	Blocks []*BasicBlock
	Entry  BlockID

	// Arguments holds one ValueID per declared parameter, in order; these
	// are the values live at Entry before any operation runs.
	Arguments []ValueID

	// Returns holds one ValueID per declared return slot, in the same
	// order as the function's return variables. These are seeded by the
	// builder to the zero literal and updated by validator-observed Leave
	// statements only in the sense that the validator checks, never
	// writes, this slice.
	Returns []ValueID
}

// NewGraph creates an empty graph with a single entry block.
func NewGraph() *Graph {
	g := &Graph{Literal: newLiteralTable(), Entry: 0}
	g.Blocks = append(g.Blocks, &BasicBlock{ID: 0})
	return g
}

// Block returns the basic block for id.
func (g *Graph) Block(id BlockID) *BasicBlock {
	return g.Blocks[id]
}

// NewBlock appends a fresh, empty basic block and returns its id.
func (g *Graph) NewBlock() BlockID {
	id := BlockID(len(g.Blocks))
	g.Blocks = append(g.Blocks, &BasicBlock{ID: id})
	return id
}

// InternLiteral returns the ValueID for literal text s, creating a new
// interned Value the first time s is seen in this graph.
func (g *Graph) InternLiteral(s string) ValueID {
	if id, ok := g.Literal.Lookup(s); ok {
		return id
	}
	id := ValueID(len(g.Values))
	g.Values = append(g.Values, Value{Kind: ValueLiteral, Literal: s})
	g.Literal.byText[s] = id
	return id
}

// ZeroLiteral returns the interned literal value for "0", creating it if
// this is the first reference. Builder-only: lowering an uninitialized
// variable declaration always needs a zero value to seed it with, so the
// builder is entitled to intern one on demand. The validator must never
// call this - see LookupZeroLiteral.
func (g *Graph) ZeroLiteral() ValueID {
	return g.InternLiteral("0")
}

// LookupZeroLiteral returns the ValueID interned for "0", if the graph
// already carries one. Unlike ZeroLiteral, this never mutates the graph;
// it is what the validator uses to check that a CFG claiming to
// represent an uninitialized variable declaration actually interned the
// zero constant it depends on, rather than silently creating one to
// paper over a CFG that never did.
func (g *Graph) LookupZeroLiteral() (ValueID, bool) {
	return g.Literal.Lookup("0")
}

// NewValue allocates a fresh SSA value of the given kind not already
// present in the literal table (phi results and operation outputs).
func (g *Graph) NewValue(kind ValueKind, debugName string) ValueID {
	id := ValueID(len(g.Values))
	g.Values = append(g.Values, Value{Kind: kind, DebugName: debugName})
	return id
}

// ValueAt returns the Value record for id.
func (g *Graph) ValueAt(id ValueID) Value {
	return g.Values[id]
}

// LookupLiteral returns the ValueID interned for literal text s, if any.
func (g *Graph) LookupLiteral(s string) (ValueID, bool) {
	return g.Literal.Lookup(s)
}
