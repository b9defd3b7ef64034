// Package builder is a deliberately simple CFG lowering pass: it turns an
// internal/ast.Block into an internal/ssa.Graph good enough to drive
// internal/validator's test suite and the CLI demo. It is explicitly not
// a faithful or optimizing lowering - internal/validator's whole job is
// to prove (or refute) that a graph like this one matches the AST it
// claims to come from, and the test suite exercises both directions by
// feeding the validator both this builder's own output and hand-mutated
// copies of it.
package builder

import (
	"fmt"

	"flowproof/internal/ast"
	"flowproof/internal/dialect"
	"flowproof/internal/scope"
	"flowproof/internal/ssa"
)

// Build lowers root into a Graph, registering any nested function
// definitions in the returned ControlFlow. d supplies builtin arity and
// control-flow metadata; info records the scope resolved for every block
// along the way, standing in for a real semantic analysis pass.
func Build(root *ast.Block, d *dialect.Dialect, info *scope.AnalysisInfo) *ssa.ControlFlow {
	main := ssa.NewGraph()
	cfg := ssa.NewControlFlow(main)

	b := &builder{dialect: d, info: info, cfg: cfg}
	b.graph = main
	b.scope = scope.NewScope(nil)
	b.block = main.Entry
	b.vars = make(map[string]ssa.ValueID)
	b.buildBlock(root)
	b.terminateFallthrough(nil)
	return cfg
}

type builder struct {
	dialect *dialect.Dialect
	info    *scope.AnalysisInfo
	cfg     *ssa.ControlFlow

	graph           *ssa.Graph
	scope           *scope.Scope
	block           ssa.BlockID
	returnVariables []string
	returnValues    map[string]ssa.ValueID
	vars            map[string]ssa.ValueID

	loop *builderLoop
}

// builderLoop records where break and continue jump to for the loop
// currently being built, plus the running set of variable snapshots that
// have reached each of those targets so far - one entry per edge, in the
// order the edges are added, matching the order the target block's
// Predecessors slice grows in.
type builderLoop struct {
	exitBlock ssa.BlockID
	postBlock ssa.BlockID
	exitPaths *[]map[string]ssa.ValueID
	postPaths *[]map[string]ssa.ValueID
}

func (b *builder) curBlock() *ssa.BasicBlock { return b.graph.Block(b.block) }

func (b *builder) newBlock() ssa.BlockID { return b.graph.NewBlock() }

func (b *builder) addPredecessor(block ssa.BlockID, pred ssa.BlockID) {
	b.graph.Block(block).Predecessors = append(b.graph.Block(block).Predecessors, pred)
}

func (b *builder) jumpTo(target ssa.BlockID) {
	b.curBlock().Exit = ssa.Exit{Kind: ssa.ExitUnconditionalJump, Target: target}
	b.addPredecessor(target, b.block)
}

func (b *builder) branch(cond ssa.ValueID, zero, nonZero ssa.BlockID) {
	b.curBlock().Exit = ssa.Exit{Kind: ssa.ExitConditionalJump, Condition: cond, Zero: zero, NonZero: nonZero}
	b.addPredecessor(zero, b.block)
	b.addPredecessor(nonZero, b.block)
}

// terminateFallthrough closes off the current top-level block with a
// function return once control falls off the end of root's statements.
// returnValues, if non-nil, supplies the values for a nested function's
// declared return slots; nil means the top-level program, which returns
// nothing.
func (b *builder) terminateFallthrough(returnValues []ssa.ValueID) {
	if b.curBlock().Exit.Kind != ssa.ExitUnset {
		return // already terminated by break/continue/leave lowering
	}
	b.curBlock().Exit = ssa.Exit{Kind: ssa.ExitFunctionReturn, Arguments: returnValues}
}

func (b *builder) define(name string, value ssa.ValueID) {
	b.vars[name] = value
}

func (b *builder) read(name string) ssa.ValueID {
	if v, ok := b.vars[name]; ok {
		return v
	}
	panic(fmt.Sprintf("builder: variable %q read before definition - fixture AST is malformed", name))
}

// buildBlock lowers every statement of block, returning whether control
// can fall off the end of it (mirroring internal/validator.consumeBlock
// exactly, since the two must agree on every block's fall-through shape
// for the validator to ever accept this builder's output).
func (b *builder) buildBlock(block *ast.Block) bool {
	inner := scope.NewScope(b.scope)
	b.info.Bind(block, inner)
	savedScope := b.scope
	b.scope = inner
	defer func() { b.scope = savedScope }()

	for _, stmt := range block.Statements {
		if fd, ok := stmt.(*ast.FunctionDefinition); ok {
			b.buildFunctionDefinition(fd)
		}
	}
	for _, stmt := range block.Statements {
		if _, ok := stmt.(*ast.FunctionDefinition); ok {
			continue
		}
		if !b.buildStatement(stmt) {
			return false
		}
	}
	return true
}

func cloneVars(vars map[string]ssa.ValueID) map[string]ssa.ValueID {
	c := make(map[string]ssa.ValueID, len(vars))
	for k, v := range vars {
		c[k] = v
	}
	return c
}
