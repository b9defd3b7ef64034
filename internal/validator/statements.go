package validator

import (
	"flowproof/internal/ast"
	"flowproof/internal/scope"
	"flowproof/internal/ssa"
)

// consumeBlock validates every statement of block against the cursor's
// current position, in the block's own nested scope. FunctionDefinitions
// are hoisted and fully validated (spawning their own nested Validator)
// before any other statement runs, so that a call earlier in the block
// can legally reference a function defined later in it.
//
// It returns whether control can fall off the end of block into whatever
// follows it in the AST; false means some statement inside definitively
// left the block (break, continue, leave, or a call that never returns).
func (v *Validator) consumeBlock(block *ast.Block) bool {
	inner := scope.NewScope(v.scope)
	v.analysis.Bind(block, inner)
	saved := v.scope
	v.scope = inner
	defer func() { v.scope = saved }()

	for _, stmt := range block.Statements {
		if fd, ok := stmt.(*ast.FunctionDefinition); ok {
			v.hoistFunction(fd)
		}
	}

	for _, stmt := range block.Statements {
		if _, ok := stmt.(*ast.FunctionDefinition); ok {
			continue
		}
		if !v.consumeStatement(stmt) {
			return false
		}
	}
	return true
}

func (v *Validator) consumeStatement(stmt ast.Statement) bool {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		outputs, continues := v.consumeExpression(s.Call)
		if !continues {
			return false
		}
		if len(outputs) != 0 {
			v.fatalReturnShape("expression statement discards %d result value(s)", len(outputs))
		}
		return true
	case *ast.VariableDeclaration:
		return v.consumeVariableDeclaration(s)
	case *ast.Assignment:
		return v.consumeAssignment(s)
	case *ast.If:
		return v.consumeIf(s)
	case *ast.Switch:
		return v.consumeSwitch(s)
	case *ast.ForLoop:
		return v.consumeForLoop(s)
	case *ast.Break:
		return v.consumeBreak(s)
	case *ast.Continue:
		return v.consumeContinue(s)
	case *ast.Leave:
		return v.consumeLeave(s)
	case *ast.Block:
		return v.consumeBlock(s)
	case *ast.FunctionDefinition:
		return true
	default:
		v.fatalStructural("unsupported statement type %T", stmt)
		return false
	}
}

func (v *Validator) consumeVariableDeclaration(s *ast.VariableDeclaration) bool {
	if s.Initializer == nil {
		for _, name := range s.Variables {
			if v.scope.DeclaredLocally(name) {
				v.fatalStructural("variable %q redeclared in the same scope", name)
			}
			zero, ok := v.graph.LookupZeroLiteral()
			if !ok {
				v.fatalDictionary("graph never interned the zero constant, needed to initialize uninitialized variable %q", name)
			}
			v.scope.Declare(name, scope.VariableKindLocal)
			v.currentVariableValues.defineVariable(name)
			v.currentVariableValues.set(name, singleton(zero))
		}
		return true
	}

	outputs, continues := v.consumeExpression(s.Initializer)
	if !continues {
		return false
	}
	if len(outputs) != len(s.Variables) {
		v.fatalReturnShape("variable declaration binds %d name(s) but its initializer produces %d value(s)", len(s.Variables), len(outputs))
	}
	for i, name := range s.Variables {
		if v.scope.DeclaredLocally(name) {
			v.fatalStructural("variable %q redeclared in the same scope", name)
		}
		v.scope.Declare(name, scope.VariableKindLocal)
		v.currentVariableValues.defineVariable(name)
		v.currentVariableValues.set(name, outputs[i])
	}
	return true
}

func (v *Validator) consumeAssignment(s *ast.Assignment) bool {
	outputs, continues := v.consumeExpression(s.Value)
	if !continues {
		return false
	}
	if len(outputs) != len(s.Variables) {
		v.fatalReturnShape("assignment targets %d variable(s) but its expression produces %d value(s)", len(s.Variables), len(outputs))
	}
	for i, name := range s.Variables {
		v.resolveVariable(name)
		v.currentVariableValues.set(name, outputs[i])
	}
	return true
}

func (v *Validator) consumeLeave(s *ast.Leave) bool {
	args := v.expectFunctionReturn("leave")
	if len(args) != len(v.returnVariables) {
		v.fatalReturnShape("leave: function declares %d return slot(s), CFG return carries %d argument(s)", len(v.returnVariables), len(args))
	}
	for i, name := range v.returnVariables {
		values, ok := v.currentVariableValues.lookupValues(name)
		if !ok {
			v.fatalDictionary("return variable %q has no recorded value at leave", name)
		}
		if !values[args[i]] {
			v.fatalStructural("leave: return variable %q does not hold the CFG's returned value %s", name, args[i])
		}
	}
	return false
}

func (v *Validator) consumeIf(s *ast.If) bool {
	condValues := v.consumeUnaryExpression(s.Condition)
	zeroTarget, nonZeroTarget := v.expectConditionalJump("if", condValues)

	fromBlock := v.currentBlockID
	zeroValues := v.applyPhis(fromBlock, zeroTarget)
	nonZeroValues := v.applyPhis(fromBlock, nonZeroTarget)

	v.advanceToBlock(nonZeroTarget)
	v.currentVariableValues = nonZeroValues
	bodyCompletes := v.consumeBlock(s.Body)

	var mergedNonZero *variableMapping
	if bodyCompletes {
		target := v.expectUnconditionalJump("if-body fallthrough")
		if target != zeroTarget {
			v.fatalStructural("if: body falls through to block %d, expected the post-if block %d", target, zeroTarget)
		}
		mergedNonZero = v.applyPhis(v.currentBlockID, zeroTarget)
	}

	v.advanceToBlock(zeroTarget)
	v.currentVariableValues = zeroValues
	if mergedNonZero != nil {
		v.currentVariableValues.merge([]*variableMapping{zeroValues, mergedNonZero})
	}
	return true
}

// consumeGhostEquality validates one switch case's dispatch check: a
// call to the dialect's equality builtin comparing the case literal
// (first input) against the switch discriminant (second input),
// producing exactly one boolean-shaped output.
func (v *Validator) consumeGhostEquality(discriminant map[ssa.ValueID]bool, literalID ssa.ValueID) ssa.ValueID {
	eq := v.dialect.EqualityBuiltin
	if eq == nil {
		v.fatalDictionary("dialect has no equality builtin registered for switch-case dispatch")
	}
	op := v.advanceOperation()
	if op.Kind != ssa.OpBuiltinCall || op.BuiltinName != eq.Name {
		v.fatalDictionary("switch case: expected a call to equality builtin %q, found kind %d name %q", eq.Name, op.Kind, op.BuiltinName)
	}
	if len(op.Inputs) != 2 {
		v.fatalStructural("switch case: ghost equality call has %d input(s), want 2", len(op.Inputs))
	}
	if len(op.Outputs) != 1 {
		v.fatalStructural("switch case: ghost equality call has %d output(s), want 1", len(op.Outputs))
	}
	if op.Inputs[0] != literalID {
		v.fatalStructural("switch case: ghost equality's first input is not the case literal")
	}
	if !discriminant[op.Inputs[1]] {
		v.fatalStructural("switch case: ghost equality's second input is not among the switch discriminant's candidate values")
	}
	return op.Outputs[0]
}

func (v *Validator) consumeSwitch(s *ast.Switch) bool {
	discriminant := v.consumeUnaryExpression(s.Expression)

	var literalCases []*ast.Case
	var defaultCase *ast.Case
	for _, c := range s.Cases {
		if c.Value == nil {
			defaultCase = c
		} else {
			literalCases = append(literalCases, c)
		}
	}

	join := &loopFrame{} // reused purely for its hasPost/postBlock/postValues discovery protocol

	for _, c := range literalCases {
		checkFrom := v.currentBlockID
		literalID := v.lookupLiteral(c.Value)
		eqResult := v.consumeGhostEquality(discriminant, literalID)
		zeroTarget, nonZeroTarget := v.expectConditionalJump("switch-case", singleton(eqResult))

		caseValues := v.applyPhis(checkFrom, nonZeroTarget)
		nextValues := v.applyPhis(checkFrom, zeroTarget)

		v.advanceToBlock(nonZeroTarget)
		v.currentVariableValues = caseValues
		if v.consumeBlock(c.Body) {
			target := v.expectUnconditionalJump("switch-case body fallthrough")
			applied := v.applyPhis(v.currentBlockID, target)
			if join.recordPost(target, applied) {
				v.fatalPhi("switch: case bodies fall through to inconsistent join blocks (%d vs %d)", join.postBlock, target)
			}
		}

		v.advanceToBlock(zeroTarget)
		v.currentVariableValues = nextValues
	}

	if defaultCase != nil {
		if v.consumeBlock(defaultCase.Body) {
			target := v.expectUnconditionalJump("switch-default body fallthrough")
			applied := v.applyPhis(v.currentBlockID, target)
			if join.recordPost(target, applied) {
				v.fatalPhi("switch: default body falls through to a different join block than the cases (%d vs %d)", join.postBlock, target)
			}
		}
	} else if join.recordPost(v.currentBlockID, v.currentVariableValues) {
		v.fatalPhi("switch: no-match path reaches a different join block than the cases")
	}

	if !join.hasPost {
		return false
	}
	v.advanceToBlock(join.postBlock)
	v.currentVariableValues = join.postValues
	return true
}

func (v *Validator) consumeBreak(s *ast.Break) bool {
	if v.loop == nil {
		v.fatalStructural("break outside of any enclosing for-loop")
	}
	target := v.expectUnconditionalJump("break")
	applied := v.applyPhis(v.currentBlockID, target)
	if v.loop.recordExit(target, applied) {
		v.fatalPhi("break: inconsistent loop-exit target (%d vs %d)", v.loop.exitBlock, target)
	}
	return false
}

func (v *Validator) consumeContinue(s *ast.Continue) bool {
	if v.loop == nil {
		v.fatalStructural("continue outside of any enclosing for-loop")
	}
	target := v.expectUnconditionalJump("continue")
	applied := v.applyPhis(v.currentBlockID, target)
	if v.loop.recordPost(target, applied) {
		v.fatalPhi("continue: inconsistent loop-post target (%d vs %d)", v.loop.postBlock, target)
	}
	return false
}

// hoistFunction validates a nested FunctionDefinition by spawning an
// independent Validator over its own graph, scope and return-variable
// set - nested functions never share mutable validation state with their
// enclosing function, matching how the source CFG keeps each function's
// graph wholly separate.
func (v *Validator) hoistFunction(fd *ast.FunctionDefinition) {
	v.scope.DeclareFunction(&scope.Function{
		Name:       fd.Name,
		Parameters: fd.Parameters,
		Returns:    fd.Returns,
		Body:       fd.Body,
	})

	fnGraph, ok := v.controlFlow.FunctionGraph(fd.Name)
	if !ok {
		v.fatalDictionary("function %q has no corresponding graph in the control-flow registry", fd.Name)
	}
	if len(fnGraph.Arguments) != len(fd.Parameters) {
		v.fatalReturnShape("function %q declares %d parameter(s), its graph has %d", fd.Name, len(fd.Parameters), len(fnGraph.Arguments))
	}
	if len(fnGraph.Returns) != len(fd.Returns) {
		v.fatalReturnShape("function %q declares %d return slot(s), its graph has %d", fd.Name, len(fd.Returns), len(fnGraph.Returns))
	}

	nested := &Validator{
		controlFlow:     v.controlFlow,
		dialect:         v.dialect,
		analysis:        v.analysis,
		functionName:    fd.Name,
		graph:           fnGraph,
		scope:           scope.NewScope(nil),
		returnVariables: fd.Returns,
	}
	nested.currentVariableValues = newVariableMapping()
	for i, param := range fd.Parameters {
		nested.scope.Declare(param, scope.VariableKindParameter)
		nested.currentVariableValues.defineVariable(param)
		nested.currentVariableValues.set(param, singleton(fnGraph.Arguments[i]))
	}
	for _, ret := range fd.Returns {
		zero, ok := fnGraph.LookupZeroLiteral()
		if !ok {
			v.fatalDictionary("function %q's graph never interned the zero constant, needed to initialize return variable %q", fd.Name, ret)
		}
		nested.scope.Declare(ret, scope.VariableKindReturn)
		nested.currentVariableValues.defineVariable(ret)
		nested.currentVariableValues.set(ret, singleton(zero))
	}
	nested.advanceToBlock(fnGraph.Entry)

	if nested.consumeBlock(fd.Body) {
		args := nested.expectFunctionReturn("implicit function-end leave")
		if len(args) != len(fnGraph.Returns) {
			nested.fatalReturnShape("function %q: implicit return carries %d argument(s), declares %d return slot(s)", fd.Name, len(args), len(fnGraph.Returns))
		}
		for i, name := range fd.Returns {
			values, _ := nested.currentVariableValues.lookupValues(name)
			if !values[args[i]] {
				nested.fatalStructural("function %q: return variable %q does not hold the CFG's returned value %s at implicit function end", fd.Name, name, args[i])
			}
		}
	}

	for _, name := range fd.Returns {
		values, ok := nested.currentVariableValues.lookupValues(name)
		if !ok || len(values) == 0 {
			nested.fatalStructural("function %q: return variable %q holds no value at function exit", fd.Name, name)
		}
	}
}
