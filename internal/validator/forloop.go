package validator

import (
	"strings"

	"flowproof/internal/ast"
	"flowproof/internal/scope"
	"flowproof/internal/ssa"
)

// consumeForLoop dispatches to the constant or dynamic form depending on
// whether the loop's condition is a literal - a constant condition means
// the CFG's header block was built as an unconditional jump (the branch
// was folded away at build time), while a dynamic condition means it is
// a genuine conditional jump the validator must check against the
// consumed condition expression.
func (v *Validator) consumeForLoop(f *ast.ForLoop) bool {
	loopScope := v.pushScope()
	defer loopScope()

	fromPre := v.currentBlockID
	preCompletes := v.consumeBlock(f.Pre)
	if !preCompletes {
		v.fatalStructural("for-loop: pre clause must always fall through into the loop header")
	}
	// Names the pre clause declares stay visible to the condition, body
	// and post clause, so resolution continues through the pre's scope.
	v.scope = v.analysis.ScopeOf(f.Pre)
	headerID := v.expectUnconditionalJump("for-loop pre")
	headerValues := v.applyPhis(fromPre, headerID)

	v.advanceToBlock(headerID)
	v.currentVariableValues = headerValues

	if lit, ok := f.Condition.(*ast.Literal); ok {
		return v.consumeConstantForLoop(f, headerID, lit)
	}
	return v.consumeDynamicForLoop(f, headerID)
}

// consumeConstantForLoop handles a for-loop whose condition is a literal.
// A zero literal means the body is unreachable and the header jumps
// straight past the loop; any other literal means the header
// unconditionally enters the body, and the loop only terminates (from
// the validator's point of view) if some break inside it names an exit
// block - otherwise it is potentially infinite and everything after it
// in the AST is itself unreachable.
func (v *Validator) consumeConstantForLoop(f *ast.ForLoop, headerID ssa.BlockID, lit *ast.Literal) bool {
	target := v.expectUnconditionalJump("for-loop header (constant condition)")

	if strings.Trim(strings.TrimPrefix(strings.ToLower(lit.Value), "0x"), "0") == "" {
		applied := v.applyPhis(headerID, target)
		v.advanceToBlock(target)
		v.currentVariableValues = applied
		return true
	}

	bodyBlock := target
	bodyValues := v.applyPhis(headerID, bodyBlock)

	savedLoop := v.loop
	v.loop = &loopFrame{}

	v.advanceToBlock(bodyBlock)
	v.currentVariableValues = bodyValues
	if v.consumeBlock(f.Body) {
		t := v.expectUnconditionalJump("for-loop body fallthrough")
		applied := v.applyPhis(v.currentBlockID, t)
		if v.loop.recordPost(t, applied) {
			v.fatalPhi("for-loop: body and an earlier continue disagree on the post-clause block (%d vs %d)", v.loop.postBlock, t)
		}
	}

	frame := v.loop
	v.loop = savedLoop

	if !frame.hasPost {
		v.fatalStructural("for-loop: post clause is never reached by the body or any continue")
	}
	v.advanceToBlock(frame.postBlock)
	v.currentVariableValues = frame.postValues
	if !v.consumeBlock(f.Post) {
		v.fatalStructural("for-loop: post clause must always fall through back to the header")
	}
	back := v.expectUnconditionalJump("for-loop post")
	if back != headerID {
		v.fatalStructural("for-loop: post clause jumps to block %d, expected the header block %d", back, headerID)
	}
	_ = v.applyPhis(v.currentBlockID, headerID)

	if frame.hasExit {
		v.advanceToBlock(frame.exitBlock)
		v.currentVariableValues = frame.exitValues
		return true
	}
	return false
}

// consumeDynamicForLoop handles a for-loop whose condition is evaluated
// at runtime. The header's zero branch is statically the loop's exit, so
// - unlike the constant-nonzero case - a dynamic loop always "completes"
// from the validator's perspective: it returns true even if the loop
// itself might run forever at runtime, because the exit block is known
// and reachable in the CFG regardless.
func (v *Validator) consumeDynamicForLoop(f *ast.ForLoop, headerID ssa.BlockID) bool {
	condValues := v.consumeUnaryExpression(f.Condition)
	exitBlock, bodyBlock := v.expectConditionalJump("for-loop header", condValues)

	if ident, ok := f.Condition.(*ast.Identifier); ok && len(condValues) > 1 {
		v.currentVariableValues.set(ident.Name, condValues)
	}

	exitValues := v.applyPhis(headerID, exitBlock)
	bodyValues := v.applyPhis(headerID, bodyBlock)

	savedLoop := v.loop
	v.loop = &loopFrame{hasExit: true, exitBlock: exitBlock, exitValues: exitValues}

	v.advanceToBlock(bodyBlock)
	v.currentVariableValues = bodyValues
	if v.consumeBlock(f.Body) {
		t := v.expectUnconditionalJump("for-loop body fallthrough")
		applied := v.applyPhis(v.currentBlockID, t)
		if v.loop.recordPost(t, applied) {
			v.fatalPhi("for-loop: body and an earlier continue disagree on the post-clause block (%d vs %d)", v.loop.postBlock, t)
		}
	}

	frame := v.loop
	v.loop = savedLoop

	if !frame.hasPost {
		v.fatalStructural("for-loop: post clause is never reached by the body or any continue")
	}
	v.advanceToBlock(frame.postBlock)
	v.currentVariableValues = frame.postValues
	if !v.consumeBlock(f.Post) {
		v.fatalStructural("for-loop: post clause must always fall through back to the header")
	}
	back := v.expectUnconditionalJump("for-loop post")
	if back != headerID {
		v.fatalStructural("for-loop: post clause jumps to block %d, expected the header block %d", back, headerID)
	}
	_ = v.applyPhis(v.currentBlockID, headerID)

	v.advanceToBlock(frame.exitBlock)
	v.currentVariableValues = frame.exitValues
	return true
}

// pushScope opens a loop-scoped child scope (shared by the pre, body and
// post clauses of a single for-loop) and returns a closure that restores
// the enclosing scope.
func (v *Validator) pushScope() func() {
	saved := v.scope
	v.scope = scope.NewScope(saved)
	return func() { v.scope = saved }
}
