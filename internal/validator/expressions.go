package validator

import (
	"flowproof/internal/ast"
	"flowproof/internal/dialect"
	"flowproof/internal/ssa"
)

// consumeExpression evaluates e in a position that may legally produce
// zero or more than one value (a statement-level call). It returns one
// candidate-value set per produced value, and false for continues when e
// is a call to something that never returns control (a builtin whose
// dialect entry says CanContinue is false) - callers must treat the
// block as having ended right there.
func (v *Validator) consumeExpression(e ast.Expression) (outputs []map[ssa.ValueID]bool, continues bool) {
	if call, ok := e.(*ast.FunctionCall); ok {
		return v.consumeCall(call)
	}
	return []map[ssa.ValueID]bool{v.consumeUnaryExpression(e)}, true
}

// consumeUnaryExpression evaluates e where exactly one value is
// expected: an if condition, a switch discriminant, a single-variable
// initializer, or a nested call argument.
func (v *Validator) consumeUnaryExpression(e ast.Expression) map[ssa.ValueID]bool {
	switch expr := e.(type) {
	case *ast.Identifier:
		return v.lookupIdentifier(expr)
	case *ast.Literal:
		return singleton(v.lookupLiteral(expr))
	case *ast.FunctionCall:
		outputs, continues := v.consumeCall(expr)
		if !continues {
			v.fatalReturnShape("call to %q used in a value context never returns", expr.Callee)
		}
		if len(outputs) != 1 {
			v.fatalReturnShape("call to %q used in a single-value context produces %d value(s)", expr.Callee, len(outputs))
		}
		return outputs[0]
	default:
		v.fatalStructural("unsupported expression type %T", e)
		return nil
	}
}

// consumeCall matches a FunctionCall against the next operation the
// cursor is sitting on. Arguments are consumed in reverse syntactic
// order, mirroring the evaluation order the CFG's operations were built
// in, so any side-effecting calls nested in the arguments stay in
// lock-step with the operation cursor. Argument positions the dialect
// marks literal-only are skipped entirely - they have no SSA input slot.
func (v *Validator) consumeCall(expr *ast.FunctionCall) (outputs []map[ssa.ValueID]bool, continues bool) {
	builtin, isBuiltin := v.dialect.Lookup(expr.Callee)

	argSets := make([]map[ssa.ValueID]bool, len(expr.Arguments))
	for i := len(expr.Arguments) - 1; i >= 0; i-- {
		if isBuiltin && builtin.IsLiteralParameter(i) {
			continue
		}
		argSets[i] = v.consumeUnaryExpression(expr.Arguments[i])
	}

	var canContinue bool
	var numReturns int
	if isBuiltin {
		canContinue = builtin.SideEffects.CanContinue
		numReturns = builtin.NumReturns
	} else {
		fn, ok := v.controlFlow.FunctionGraph(expr.Callee)
		if !ok {
			v.fatalDictionary("call to undefined function %q", expr.Callee)
		}
		canContinue = true
		numReturns = len(fn.Returns)
	}

	if !canContinue {
		return nil, false
	}

	op := v.advanceOperation()
	v.validateCall(op, expr, isBuiltin, builtin, numReturns, argSets)

	outputs = make([]map[ssa.ValueID]bool, len(op.Outputs))
	for i, id := range op.Outputs {
		outputs[i] = singleton(id)
	}
	return outputs, true
}

// validateCall checks that op is truly the operation expr's call lowers
// to: same callee identity, matching non-literal argument count against
// op.Inputs, and matching declared return arity against op.Outputs. Any
// identifier argument whose candidate set has more than one member is
// narrowed in place to the single value the CFG actually used, since the
// call site resolves the ambiguity the surrounding merges left open.
func (v *Validator) validateCall(op ssa.Operation, expr *ast.FunctionCall, isBuiltin bool, builtin *dialect.BuiltinFunction, numReturns int, argSets []map[ssa.ValueID]bool) {
	if isBuiltin {
		if op.Kind != ssa.OpBuiltinCall || op.BuiltinName != expr.Callee {
			v.fatalDictionary("operation at block %d, index %d is not a call to builtin %q", v.currentBlockID, v.currentOperation-1, expr.Callee)
		}
	} else {
		if op.Kind != ssa.OpUserCall || op.UserFunction != expr.Callee {
			v.fatalDictionary("operation at block %d, index %d is not a call to function %q", v.currentBlockID, v.currentOperation-1, expr.Callee)
		}
	}

	inputIdx := 0
	for i, argExpr := range expr.Arguments {
		if isBuiltin && builtin.IsLiteralParameter(i) {
			continue
		}
		if inputIdx >= len(op.Inputs) {
			v.fatalStructural("call to %q: CFG operation has fewer inputs than non-literal arguments", expr.Callee)
		}
		actual := op.Inputs[inputIdx]
		candidates := argSets[i]
		if !candidates[actual] {
			v.fatalStructural("call to %q: argument %d's value %s is not among the expression's candidate values", expr.Callee, i, actual)
		}
		if ident, ok := argExpr.(*ast.Identifier); ok && len(candidates) > 1 {
			v.currentVariableValues.set(ident.Name, singleton(actual))
		}
		inputIdx++
	}
	if inputIdx != len(op.Inputs) {
		v.fatalStructural("call to %q: CFG operation has more inputs than non-literal arguments", expr.Callee)
	}
	if len(op.Outputs) != numReturns {
		v.fatalReturnShape("call to %q: expected %d result(s), CFG operation has %d", expr.Callee, numReturns, len(op.Outputs))
	}
}
