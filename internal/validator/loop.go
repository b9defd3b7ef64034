package validator

import "flowproof/internal/ssa"

// loopFrame tracks the two join points a ForLoop creates: its exit
// (reached when a dynamic condition goes false, or by break) and its
// post clause (reached by falling off the body, or by continue). Both
// slots are optional because which edge discovers them first depends on
// the loop's shape: a dynamic loop's exit is known the moment its header
// is consumed, while a constant-nonzero loop's exit - if it has one at
// all - is only known once a break statement names it.
type loopFrame struct {
	hasExit    bool
	exitBlock  ssa.BlockID
	exitValues *variableMapping

	hasPost    bool
	postBlock  ssa.BlockID
	postValues *variableMapping
}

// recordExit is break's half of the discovery protocol: the first break
// seen names the loop's exit block, and every later break asserts it
// targets the same block before folding its mapping in.
func (f *loopFrame) recordExit(target ssa.BlockID, applied *variableMapping) (mismatch bool) {
	if !f.hasExit {
		f.hasExit = true
		f.exitBlock = target
		f.exitValues = applied
		return false
	}
	if f.exitBlock != target {
		return true
	}
	f.exitValues.merge([]*variableMapping{f.exitValues, applied})
	return false
}

// recordPost is continue's (and a completing body's) half of the
// discovery protocol, using union rather than merge: two continues can
// arrive from genuinely disjoint predecessors and each contributes
// values the other knows nothing about.
func (f *loopFrame) recordPost(target ssa.BlockID, applied *variableMapping) (mismatch bool) {
	if !f.hasPost {
		f.hasPost = true
		f.postBlock = target
		f.postValues = applied
		return false
	}
	if f.postBlock != target {
		return true
	}
	f.postValues.unionFrom(applied)
	return false
}
