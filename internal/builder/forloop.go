package builder

import (
	"strings"

	"flowproof/internal/ast"
	"flowproof/internal/scope"
	"flowproof/internal/ssa"
)

// buildForLoop lowers the pre clause, then a header block carrying one
// phi per variable live entering the loop. The header's second phi
// argument (the back edge from the post clause) is a placeholder until
// the body and post clause are built and patchHeaderPhis fills in the
// real value - the loop equivalent of an incomplete phi in a streaming
// SSA construction, resolved once the loop's back edge is known.
func (b *builder) buildForLoop(f *ast.ForLoop) bool {
	saved := b.scope
	b.scope = scope.NewScope(saved)
	defer func() { b.scope = saved }()

	if !b.buildBlock(f.Pre) {
		panic("builder: for-loop pre clause must always fall through into the loop header")
	}
	preVars := cloneVars(b.vars)

	header := b.newBlock()
	b.jumpTo(header)
	b.block = header

	phiFor, headerVars := b.declareHeaderPhis(header, preVars)
	b.vars = headerVars

	if lit, ok := f.Condition.(*ast.Literal); ok {
		return b.buildConstantForLoop(f, header, phiFor, lit)
	}
	return b.buildDynamicForLoop(f, header, phiFor)
}

func (b *builder) declareHeaderPhis(header ssa.BlockID, preVars map[string]ssa.ValueID) (map[string]int, map[string]ssa.ValueID) {
	hb := b.graph.Block(header)
	phiFor := make(map[string]int, len(preVars))
	vars := make(map[string]ssa.ValueID, len(preVars))
	for name, val := range preVars {
		result := b.graph.NewValue(ssa.ValuePhi, name)
		idx := len(hb.Entries)
		hb.Entries = append(hb.Entries, ssa.Phi{Result: result, Arguments: []ssa.ValueID{val, val}})
		phiFor[name] = idx
		vars[name] = result
	}
	return phiFor, vars
}

func (b *builder) patchHeaderPhis(header ssa.BlockID, phiFor map[string]int, backEdgeVars map[string]ssa.ValueID) {
	hb := b.graph.Block(header)
	for name, idx := range phiFor {
		if v, ok := backEdgeVars[name]; ok {
			hb.Entries[idx].Arguments[1] = v
		}
	}
}

// buildConstantForLoop lowers a loop whose condition literal was folded
// at build time: a zero condition means the body is unreachable and the
// header jumps straight past it; any other literal means the header
// unconditionally enters the body, and the loop only "completes" (has
// anything reachable after it) if some break names an exit block.
func (b *builder) buildConstantForLoop(f *ast.ForLoop, header ssa.BlockID, phiFor map[string]int, lit *ast.Literal) bool {
	headerVars := cloneVars(b.vars)

	if strings.Trim(strings.TrimPrefix(strings.ToLower(lit.Value), "0x"), "0") == "" {
		exit := b.newBlock()
		b.jumpTo(exit)
		b.block = exit
		b.vars = headerVars
		return true
	}

	body := b.newBlock()
	exit := b.newBlock()
	b.jumpTo(body)

	exitPaths := []map[string]ssa.ValueID{}
	b.buildLoopBody(f, header, body, phiFor, cloneVars(headerVars), exit, &exitPaths)

	if len(exitPaths) == 0 {
		return false
	}
	b.block = exit
	b.vars = b.mergeVars(exit, exitPaths...)
	return true
}

// buildDynamicForLoop lowers a loop whose condition is evaluated at
// runtime: the header's zero branch is statically the loop's exit, so -
// unlike the constant-nonzero case - a dynamic loop always completes
// from the caller's perspective even if it could run forever at
// runtime, since the exit block is reachable in the CFG regardless.
func (b *builder) buildDynamicForLoop(f *ast.ForLoop, header ssa.BlockID, phiFor map[string]int) bool {
	headerVars := cloneVars(b.vars)
	cond := b.buildUnary(f.Condition)

	exit := b.newBlock()
	body := b.newBlock()
	b.branch(cond, exit, body)

	exitPaths := []map[string]ssa.ValueID{cloneVars(headerVars)}
	b.buildLoopBody(f, header, body, phiFor, cloneVars(headerVars), exit, &exitPaths)

	b.block = exit
	b.vars = b.mergeVars(exit, exitPaths...)
	return true
}

// buildLoopBody lowers the body clause and the post clause shared by
// both loop forms: the post block collects one variable snapshot per
// edge that reaches it (the body's own fallthrough, plus any continue
// inside it), then the post clause's fallthrough patches the header's
// back-edge phi arguments and jumps back to the header.
func (b *builder) buildLoopBody(f *ast.ForLoop, header, bodyBlock ssa.BlockID, phiFor map[string]int, bodyVars map[string]ssa.ValueID, exitBlock ssa.BlockID, exitPaths *[]map[string]ssa.ValueID) {
	post := b.newBlock()
	savedLoop := b.loop
	postPaths := []map[string]ssa.ValueID{}
	b.loop = &builderLoop{exitBlock: exitBlock, postBlock: post, exitPaths: exitPaths, postPaths: &postPaths}

	b.block = bodyBlock
	b.vars = bodyVars
	if b.buildBlock(f.Body) {
		postPaths = append(postPaths, cloneVars(b.vars))
		b.jumpTo(post)
	}

	b.loop = savedLoop

	if len(postPaths) == 0 {
		panic("builder: for-loop post clause is never reached by the body or any continue")
	}
	b.block = post
	b.vars = b.mergeVars(post, postPaths...)
	if !b.buildBlock(f.Post) {
		panic("builder: for-loop post clause must always fall through back to the header")
	}
	b.patchHeaderPhis(header, phiFor, cloneVars(b.vars))
	b.jumpTo(header)
}
