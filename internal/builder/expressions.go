package builder

import (
	"fmt"

	"flowproof/internal/ast"
	"flowproof/internal/scope"
	"flowproof/internal/ssa"
)

// buildExpression lowers e in a position that may legally produce zero
// or more than one value (a statement-level call). continues is false
// when e is a call to a builtin the dialect marks as never returning -
// callers must treat the block as ended right there, matching
// internal/validator's consumeExpression.
func (b *builder) buildExpression(e ast.Expression) (outputs []ssa.ValueID, continues bool) {
	if call, ok := e.(*ast.FunctionCall); ok {
		return b.buildCall(call)
	}
	return []ssa.ValueID{b.buildUnary(e)}, true
}

// buildUnary lowers e where exactly one value is expected: a condition,
// a discriminant, a single-variable initializer, or a nested call
// argument.
func (b *builder) buildUnary(e ast.Expression) ssa.ValueID {
	switch expr := e.(type) {
	case *ast.Identifier:
		return b.read(expr.Name)
	case *ast.Literal:
		return b.graph.InternLiteral(expr.Value)
	case *ast.FunctionCall:
		outputs, continues := b.buildCall(expr)
		if !continues {
			panic(fmt.Sprintf("builder: call to %q used in a value context never returns", expr.Callee))
		}
		if len(outputs) != 1 {
			panic(fmt.Sprintf("builder: call to %q used in a single-value context produces %d value(s)", expr.Callee, len(outputs)))
		}
		return outputs[0]
	default:
		panic(fmt.Sprintf("builder: unsupported expression type %T", e))
	}
}

// buildCall lowers a call to a builtin or user function into one
// Operation, evaluating non-literal arguments in reverse syntactic order
// to match internal/validator's consumeCall. A builtin whose dialect
// entry says it never returns gets no Operation at all: its call site
// becomes the block's terminator instead of a data-flow instruction.
func (b *builder) buildCall(expr *ast.FunctionCall) (outputs []ssa.ValueID, continues bool) {
	builtin, isBuiltin := b.dialect.Lookup(expr.Callee)

	argVals := make([]ssa.ValueID, len(expr.Arguments))
	for i := len(expr.Arguments) - 1; i >= 0; i-- {
		if isBuiltin && builtin.IsLiteralParameter(i) {
			continue
		}
		argVals[i] = b.buildUnary(expr.Arguments[i])
	}

	var inputs []ssa.ValueID
	for i := range expr.Arguments {
		if isBuiltin && builtin.IsLiteralParameter(i) {
			continue
		}
		inputs = append(inputs, argVals[i])
	}

	var canContinue bool
	var numReturns int
	var kind ssa.OperationKind
	if isBuiltin {
		canContinue = builtin.SideEffects.CanContinue
		numReturns = builtin.NumReturns
		kind = ssa.OpBuiltinCall
	} else {
		fn, ok := b.cfg.FunctionGraph(expr.Callee)
		if !ok {
			panic(fmt.Sprintf("builder: call to undefined function %q", expr.Callee))
		}
		canContinue = true
		numReturns = len(fn.Returns)
		kind = ssa.OpUserCall
	}

	if !canContinue {
		b.curBlock().Exit = ssa.Exit{Kind: ssa.ExitUnreachable}
		return nil, false
	}

	outputs = make([]ssa.ValueID, numReturns)
	for i := range outputs {
		outputs[i] = b.graph.NewValue(ssa.ValueVariable, "")
	}
	op := ssa.Operation{Kind: kind, CanContinue: canContinue, Inputs: inputs, Outputs: outputs}
	if isBuiltin {
		op.BuiltinName = expr.Callee
	} else {
		op.UserFunction = expr.Callee
	}
	b.curBlock().Operations = append(b.curBlock().Operations, op)
	return outputs, true
}

// buildFunctionDefinition lowers a nested function into its own Graph,
// registered in the shared ControlFlow before its body is built so that
// recursive calls in its own body resolve. Sibling definitions are built
// one at a time in source order, so a call to a sibling defined later in
// the same block is not yet registered and the builder panics on it.
func (b *builder) buildFunctionDefinition(fd *ast.FunctionDefinition) {
	b.scope.DeclareFunction(&scope.Function{
		Name:       fd.Name,
		Parameters: fd.Parameters,
		Returns:    fd.Returns,
		Body:       fd.Body,
	})

	fnGraph := ssa.NewGraph()
	fnGraph.Arguments = make([]ssa.ValueID, len(fd.Parameters))
	fnGraph.Returns = make([]ssa.ValueID, len(fd.Returns))

	nested := &builder{dialect: b.dialect, info: b.info, cfg: b.cfg}
	nested.graph = fnGraph
	nested.scope = scope.NewScope(nil)
	nested.block = fnGraph.Entry
	nested.returnVariables = fd.Returns
	nested.vars = make(map[string]ssa.ValueID)

	for i, param := range fd.Parameters {
		v := fnGraph.NewValue(ssa.ValueVariable, param)
		fnGraph.Arguments[i] = v
		nested.define(param, v)
	}
	zero := fnGraph.ZeroLiteral()
	for i, ret := range fd.Returns {
		nested.define(ret, zero)
		fnGraph.Returns[i] = zero
	}

	b.cfg.DefineFunction(fd.Name, fnGraph)

	if nested.buildBlock(fd.Body) {
		nested.terminateReturn()
	}
}
