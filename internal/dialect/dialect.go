// Package dialect describes the builtin functions available to a program:
// their arity, which argument positions must be literals, and whether a
// call to them can fall through to the next operation. The validator
// treats a Dialect as an opaque external collaborator, exactly like the
// semantic analyzer's scope tables — it never constructs one itself.
package dialect

// ControlFlowSideEffects records whether control can continue past a
// call to a builtin. Builtins that never return (a trap, a revert) force
// the validator to stop consuming operations in the current block.
type ControlFlowSideEffects struct {
	CanContinue bool
}

// BuiltinFunction is one entry in a Dialect's function table.
type BuiltinFunction struct {
	Name string

	NumParameters int
	NumReturns    int

	// LiteralParameters marks argument positions (0-based) that must be
	// literal constants in the source and therefore have no corresponding
	// SSA input value - the validator skips these positions entirely when
	// matching call arguments against a CFG operation's inputs.
	LiteralParameters map[int]bool

	SideEffects ControlFlowSideEffects
}

// Dialect is the builtin registry a program is checked against.
type Dialect struct {
	name     string
	builtins map[string]*BuiltinFunction

	// EqualityBuiltin is the handle the switch-lowering convention uses
	// to encode case dispatch as a chain of equality tests; the validator's
	// consumeGhostEquality checks that each ghost equality call names this
	// builtin (it compares the operation's builtin name with Name).
	EqualityBuiltin *BuiltinFunction
}

// New builds an empty dialect.
func New(name string) *Dialect {
	return &Dialect{name: name, builtins: make(map[string]*BuiltinFunction)}
}

// Name returns the dialect's identifying name.
func (d *Dialect) Name() string { return d.name }

// Define registers a builtin function, returning it for chaining with
// AddLiteralParameter.
func (d *Dialect) Define(name string, params, returns int, canContinue bool) *BuiltinFunction {
	fn := &BuiltinFunction{
		Name:              name,
		NumParameters:     params,
		NumReturns:        returns,
		LiteralParameters: map[int]bool{},
		SideEffects:       ControlFlowSideEffects{CanContinue: canContinue},
	}
	d.builtins[name] = fn
	return fn
}

// WithLiteralParameter marks an argument position as literal-only.
func (fn *BuiltinFunction) WithLiteralParameter(position int) *BuiltinFunction {
	fn.LiteralParameters[position] = true
	return fn
}

// Lookup resolves a builtin by name.
func (d *Dialect) Lookup(name string) (*BuiltinFunction, bool) {
	fn, ok := d.builtins[name]
	return fn, ok
}

// IsLiteralParameter reports whether argument position i of fn must be a
// literal in the source (and therefore has no SSA input slot).
func (fn *BuiltinFunction) IsLiteralParameter(i int) bool {
	return fn.LiteralParameters[i]
}

// Default returns a small Yul-like dialect covering arithmetic,
// comparison, memory and control builtins, sufficient to drive the
// fixture builder and the test suite. Production use is expected to
// supply its own Dialect from an external front end, just as the source
// toolchain's EVMDialect does.
func Default() *Dialect {
	d := New("default")

	arith := []string{"add", "sub", "mul", "div", "mod", "and", "or", "xor"}
	for _, name := range arith {
		d.Define(name, 2, 1, true)
	}
	cmp := []string{"lt", "gt", "eq", "slt", "sgt"}
	for _, name := range cmp {
		d.Define(name, 2, 1, true)
	}
	d.Define("iszero", 1, 1, true)
	d.Define("not", 1, 1, true)

	d.Define("mload", 1, 1, true)
	d.Define("mstore", 2, 0, true)
	d.Define("sload", 1, 1, true)
	d.Define("sstore", 2, 0, true)

	d.Define("pop", 1, 0, true)
	d.Define("keccak256", 2, 1, true)

	d.EqualityBuiltin, _ = d.Lookup("eq")

	d.Define("invalid", 0, 0, false)
	d.Define("revert", 2, 0, false)
	d.Define("stop", 0, 0, false)
	d.Define("return", 2, 0, false)

	d.Define("datasize", 1, 1, true).WithLiteralParameter(0)
	d.Define("dataoffset", 1, 1, true).WithLiteralParameter(0)

	return d
}

// Minimal returns a dialect with just enough builtins to express
// arithmetic, the switch-dispatch equality check, and two
// non-continuing control builtins (invalid, stop) - useful for fixtures that want to
// keep their builtin surface small and explicit rather than pulling in
// the full Default registry.
func Minimal() *Dialect {
	d := New("minimal")

	d.Define("add", 2, 1, true)
	d.Define("sub", 2, 1, true)
	d.Define("eq", 2, 1, true)
	d.Define("iszero", 1, 1, true)

	d.EqualityBuiltin, _ = d.Lookup("eq")

	d.Define("invalid", 0, 0, false)
	d.Define("stop", 0, 0, false)

	return d
}

// registry lists every named dialect selectable by name, for front
// ends (the CLI's -dialect flag, the language server) that pick a
// builtin set at startup rather than constructing one in code.
var registry = map[string]func() *Dialect{
	"default": Default,
	"minimal": Minimal,
}

// ByName resolves one of the named dialects above.
func ByName(name string) (*Dialect, bool) {
	ctor, ok := registry[name]
	if !ok {
		return nil, false
	}
	return ctor(), true
}
