package builder

import (
	"fmt"

	"flowproof/internal/ast"
	"flowproof/internal/ssa"
)

func (b *builder) buildStatement(stmt ast.Statement) bool {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		_, continues := b.buildExpression(s.Call)
		return continues
	case *ast.VariableDeclaration:
		return b.buildVariableDeclaration(s)
	case *ast.Assignment:
		return b.buildAssignment(s)
	case *ast.If:
		return b.buildIf(s)
	case *ast.Switch:
		return b.buildSwitch(s)
	case *ast.ForLoop:
		return b.buildForLoop(s)
	case *ast.Break:
		return b.buildBreak(s)
	case *ast.Continue:
		return b.buildContinue(s)
	case *ast.Leave:
		return b.buildLeave(s)
	case *ast.Block:
		return b.buildBlock(s)
	case *ast.FunctionDefinition:
		return true
	default:
		panic(fmt.Sprintf("builder: unsupported statement type %T", stmt))
	}
}

func (b *builder) buildVariableDeclaration(s *ast.VariableDeclaration) bool {
	if s.Initializer == nil {
		zero := b.graph.ZeroLiteral()
		for _, name := range s.Variables {
			b.define(name, zero)
		}
		return true
	}

	outputs, continues := b.buildExpression(s.Initializer)
	if !continues {
		return false
	}
	if len(outputs) != len(s.Variables) {
		panic(fmt.Sprintf("builder: variable declaration binds %d name(s) but its initializer produces %d value(s)", len(s.Variables), len(outputs)))
	}
	for i, name := range s.Variables {
		b.define(name, outputs[i])
	}
	return true
}

func (b *builder) buildAssignment(s *ast.Assignment) bool {
	outputs, continues := b.buildExpression(s.Value)
	if !continues {
		return false
	}
	if len(outputs) != len(s.Variables) {
		panic(fmt.Sprintf("builder: assignment targets %d variable(s) but its expression produces %d value(s)", len(s.Variables), len(outputs)))
	}
	for i, name := range s.Variables {
		b.define(name, outputs[i])
	}
	return true
}

func (b *builder) buildLeave(s *ast.Leave) bool {
	b.terminateReturn()
	return false
}

func (b *builder) terminateReturn() {
	args := make([]ssa.ValueID, len(b.returnVariables))
	for i, name := range b.returnVariables {
		args[i] = b.read(name)
	}
	b.curBlock().Exit = ssa.Exit{Kind: ssa.ExitFunctionReturn, Arguments: args}
}

func (b *builder) buildBreak(s *ast.Break) bool {
	if b.loop == nil {
		panic("builder: break outside of any enclosing for-loop")
	}
	*b.loop.exitPaths = append(*b.loop.exitPaths, cloneVars(b.vars))
	b.jumpTo(b.loop.exitBlock)
	return false
}

func (b *builder) buildContinue(s *ast.Continue) bool {
	if b.loop == nil {
		panic("builder: continue outside of any enclosing for-loop")
	}
	*b.loop.postPaths = append(*b.loop.postPaths, cloneVars(b.vars))
	b.jumpTo(b.loop.postBlock)
	return false
}

// buildIf lowers a condition-guarded body with no else branch: the
// header block branches to the post-if block directly on the zero path
// and to a fresh body block on the nonzero path, and the post-if block is
// the join point for both - the body, if it falls through, jumps there
// explicitly; the skip-body path is already there.
func (b *builder) buildIf(s *ast.If) bool {
	cond := b.buildUnary(s.Condition)

	bodyBlock := b.newBlock()
	joinBlock := b.newBlock()
	b.branch(cond, joinBlock, bodyBlock)

	zeroVars := cloneVars(b.vars)

	b.block = bodyBlock
	b.vars = cloneVars(zeroVars)
	bodyCompletes := b.buildBlock(s.Body)

	joinPaths := []map[string]ssa.ValueID{zeroVars}
	if bodyCompletes {
		b.jumpTo(joinBlock)
		joinPaths = append(joinPaths, cloneVars(b.vars))
	}

	b.block = joinBlock
	b.vars = b.mergeVars(joinBlock, joinPaths...)
	return true
}

// emitGhostEquality lowers one switch-case dispatch check: a call to the
// dialect's equality builtin comparing the case literal against the
// switch discriminant.
func (b *builder) emitGhostEquality(literal, discriminant ssa.ValueID) ssa.ValueID {
	eq := b.dialect.EqualityBuiltin
	if eq == nil {
		panic("builder: dialect has no equality builtin registered for switch-case dispatch")
	}
	result := b.graph.NewValue(ssa.ValueVariable, "")
	b.curBlock().Operations = append(b.curBlock().Operations, ssa.Operation{
		Kind:        ssa.OpBuiltinCall,
		BuiltinName: eq.Name,
		CanContinue: true,
		Inputs:      []ssa.ValueID{literal, discriminant},
		Outputs:     []ssa.ValueID{result},
	})
	return result
}

// buildSwitch lowers a switch into a chain of ghost-equality checks, one
// per literal case, each branching to its case body or on to the next
// check. The last check's zero target is the join block itself when
// there is no default case, so a discriminant matching nothing falls
// straight through with no explicit jump; a default case instead gets
// its own block and an explicit jump to the join.
func (b *builder) buildSwitch(s *ast.Switch) bool {
	discriminant := b.buildUnary(s.Expression)

	var literalCases []*ast.Case
	var defaultCase *ast.Case
	for _, c := range s.Cases {
		if c.Value == nil {
			defaultCase = c
		} else {
			literalCases = append(literalCases, c)
		}
	}

	joinBlock := b.newBlock()
	var joinPaths []map[string]ssa.ValueID
	checkVars := cloneVars(b.vars)

	for i, c := range literalCases {
		literalID := b.graph.InternLiteral(c.Value.Value)
		eqResult := b.emitGhostEquality(literalID, discriminant)

		caseBlock := b.newBlock()
		isLast := i == len(literalCases)-1

		var nextBlock ssa.BlockID
		if isLast && defaultCase == nil {
			nextBlock = joinBlock
		} else {
			nextBlock = b.newBlock()
		}
		b.branch(eqResult, nextBlock, caseBlock)
		if isLast && defaultCase == nil {
			joinPaths = append(joinPaths, cloneVars(checkVars))
		}

		b.block = caseBlock
		b.vars = cloneVars(checkVars)
		if b.buildBlock(c.Body) {
			b.jumpTo(joinBlock)
			joinPaths = append(joinPaths, cloneVars(b.vars))
		}

		b.block = nextBlock
		checkVars = cloneVars(checkVars)
		b.vars = checkVars
	}

	if defaultCase != nil {
		b.vars = cloneVars(checkVars)
		if b.buildBlock(defaultCase.Body) {
			b.jumpTo(joinBlock)
			joinPaths = append(joinPaths, cloneVars(b.vars))
		}
	} else if len(literalCases) == 0 {
		b.vars = cloneVars(checkVars)
		b.jumpTo(joinBlock)
		joinPaths = append(joinPaths, cloneVars(b.vars))
	}

	if len(joinPaths) == 0 {
		return false
	}
	b.block = joinBlock
	b.vars = b.mergeVars(joinBlock, joinPaths...)
	return true
}

// mergeVars joins the variable maps live along every predecessor edge of
// block, in the same order those edges were added to block's
// Predecessors slice. A variable present and identical on every path
// needs no phi; one that differs gets a fresh phi value recorded at
// block's entry.
func (b *builder) mergeVars(block ssa.BlockID, paths ...map[string]ssa.ValueID) map[string]ssa.ValueID {
	if len(paths) == 1 {
		return paths[0]
	}
	bb := b.graph.Block(block)
	result := make(map[string]ssa.ValueID)
	for name, first := range paths[0] {
		values := make([]ssa.ValueID, len(paths))
		values[0] = first
		same := true
		present := true
		for i := 1; i < len(paths); i++ {
			v, ok := paths[i][name]
			if !ok {
				present = false
				break
			}
			values[i] = v
			if v != first {
				same = false
			}
		}
		if !present {
			continue
		}
		if same {
			result[name] = first
			continue
		}
		res := b.graph.NewValue(ssa.ValuePhi, name)
		bb.Entries = append(bb.Entries, ssa.Phi{Result: res, Arguments: values})
		result[name] = res
	}
	return result
}
