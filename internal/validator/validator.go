// Package validator proves that an SSA control-flow graph faithfully
// represents the source AST it was built from: every operation, every
// control-flow edge, every phi merge and every return vector. It is a
// pure checker - it never builds a graph and never repairs one; the
// first point of divergence it finds is fatal and terminates validation.
//
// The algorithm is a lock-step walk of the AST alongside a cursor into
// the CFG (current block, current operation index). Each statement or
// expression the AST names is matched against the next operation or
// control-flow edge the cursor is sitting on; consuming the AST and
// consuming the CFG always advance together.
package validator

import (
	"flowproof/internal/ast"
	"flowproof/internal/dialect"
	"flowproof/internal/errors"
	"flowproof/internal/scope"
	"flowproof/internal/ssa"
)

// Validator walks one function's (or the top-level program's) AST
// alongside its SSA graph. A FunctionDefinition spawns an independent
// nested Validator over its own graph and scope; nothing is shared
// between them except the read-only ControlFlow registry and Dialect.
type Validator struct {
	controlFlow *ssa.ControlFlow
	dialect     *dialect.Dialect
	analysis    *scope.AnalysisInfo

	functionName    string
	graph           *ssa.Graph
	scope           *scope.Scope
	returnVariables []string

	currentBlockID        ssa.BlockID
	currentOperation      int
	currentVariableValues *variableMapping

	loop *loopFrame
}

// Validate checks cfg against the AST root it is claimed to represent.
// It returns nil when the two are equivalent, and a descriptive error
// (always a *errors.ValidationFailure) at the first point where they are
// not.
func Validate(cfg *ssa.ControlFlow, root *ast.Block, analysis *scope.AnalysisInfo, d *dialect.Dialect) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if vf, ok := r.(*errors.ValidationFailure); ok {
				err = vf
				return
			}
			panic(r)
		}
	}()

	v := &Validator{
		controlFlow: cfg,
		dialect:     d,
		analysis:    analysis,
		functionName: "<main>",
		graph:       cfg.Main,
		scope:       scope.NewScope(nil),
	}
	v.currentVariableValues = newVariableMapping()
	v.advanceToBlock(cfg.Main.Entry)
	if v.consumeBlock(root) {
		args := v.expectFunctionReturn("implicit top-level fallthrough")
		if len(args) != 0 {
			v.fatalReturnShape("top-level program falls off the end, but the CFG's return carries %d argument(s)", len(args))
		}
	}
	return nil
}

func (v *Validator) currentBlock() *ssa.BasicBlock {
	return v.graph.Block(v.currentBlockID)
}

func (v *Validator) advanceToBlock(id ssa.BlockID) {
	v.currentBlockID = id
	v.currentOperation = 0
}

func (v *Validator) expectCursorAtEnd(label string) {
	remaining := len(v.currentBlock().Operations) - v.currentOperation
	if remaining != 0 {
		v.fatalCursor("%s: %d operation(s) in block %d were never consumed before its exit", label, remaining, v.currentBlockID)
	}
}

func (v *Validator) advanceOperation() ssa.Operation {
	block := v.currentBlock()
	if v.currentOperation >= len(block.Operations) {
		v.fatalCursor("attempted to consume operation %d of block %d, which only has %d operations", v.currentOperation, v.currentBlockID, len(block.Operations))
	}
	op := block.Operations[v.currentOperation]
	v.currentOperation++
	return op
}

func (v *Validator) expectUnconditionalJump(label string) ssa.BlockID {
	v.expectCursorAtEnd(label)
	exit := v.currentBlock().Exit
	if exit.Kind != ssa.ExitUnconditionalJump {
		v.fatalStructural("%s: expected an unconditional jump out of block %d, found exit kind %d", label, v.currentBlockID, exit.Kind)
	}
	return exit.Target
}

func (v *Validator) expectConditionalJump(label string, condition map[ssa.ValueID]bool) (zero, nonZero ssa.BlockID) {
	v.expectCursorAtEnd(label)
	exit := v.currentBlock().Exit
	if exit.Kind != ssa.ExitConditionalJump {
		v.fatalStructural("%s: expected a conditional jump out of block %d, found exit kind %d", label, v.currentBlockID, exit.Kind)
	}
	if !condition[exit.Condition] {
		v.fatalStructural("%s: the CFG's branch condition %s is not among the consumed expression's candidate values", label, exit.Condition)
	}
	return exit.Zero, exit.NonZero
}

func (v *Validator) expectFunctionReturn(label string) []ssa.ValueID {
	v.expectCursorAtEnd(label)
	exit := v.currentBlock().Exit
	if exit.Kind != ssa.ExitFunctionReturn {
		v.fatalStructural("%s: expected a function return out of block %d, found exit kind %d", label, v.currentBlockID, exit.Kind)
	}
	return exit.Arguments
}

// applyPhis computes the variable mapping that holds after crossing the
// edge from block `from` into block `to`'s phi nodes, without mutating
// the mapping in effect at `from` - callers that need to keep consuming
// `from` (e.g. a second outgoing edge) still have the original intact.
func (v *Validator) applyPhis(from, to ssa.BlockID) *variableMapping {
	target := v.graph.Block(to)
	offset := -1
	for i, pred := range target.Predecessors {
		if pred == from {
			offset = i
			break
		}
	}
	if offset < 0 {
		v.fatalPhi("block %d is not recorded among block %d's predecessors", from, to)
	}

	phiMap := make(map[ssa.ValueID][]ssa.ValueID, len(target.Entries))
	for _, phi := range target.Entries {
		arg := phi.Arguments[offset]
		phiMap[arg] = append(phiMap[arg], phi.Result)
	}

	applied := v.currentVariableValues.clone()
	applied.applyPhiMap(phiMap)
	return applied
}

func (v *Validator) resolveVariable(name string) *scope.Variable {
	variable, ok := v.scope.ResolveVariable(name)
	if !ok {
		v.fatalDictionary("identifier %q does not resolve to a variable in scope", name)
	}
	return variable
}

func (v *Validator) lookupIdentifier(id *ast.Identifier) map[ssa.ValueID]bool {
	v.resolveVariable(id.Name)
	values, ok := v.currentVariableValues.lookupValues(id.Name)
	if !ok {
		v.fatalDictionary("variable %q has no recorded value set at this point in the function", id.Name)
	}
	return values
}

func (v *Validator) lookupLiteral(lit *ast.Literal) ssa.ValueID {
	id, ok := v.graph.LookupLiteral(lit.Value)
	if !ok {
		v.fatalDictionary("literal %q was never interned into this graph", lit.Value)
	}
	return id
}
