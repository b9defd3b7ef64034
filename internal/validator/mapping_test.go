package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowproof/internal/ssa"
)

// forwardReverseCoherent checks universal invariant 2 from the mapping's
// contract: every value recorded in a variable's forward set names that
// variable back in the value's reverse set.
func forwardReverseCoherent(t *testing.T, m *variableMapping) {
	t.Helper()
	for _, name := range m.variables() {
		values, _ := m.lookupValues(name)
		for id := range values {
			names, ok := m.lookupVariables(id)
			require.True(t, ok, "value %s has no reverse entry", id)
			assert.True(t, names[name], "value %s's reverse set is missing variable %q", id, name)
		}
	}
}

func TestDefinedVariableHasNonEmptyValueSetAfterSet(t *testing.T) {
	m := newVariableMapping()
	m.defineVariable("x")
	m.set("x", singleton(ssa.ValueID(1)))

	values, ok := m.lookupValues("x")
	require.True(t, ok)
	assert.NotEmpty(t, values)
	forwardReverseCoherent(t, m)
}

func TestForwardReverseCoherenceAcrossSetAddAndMerge(t *testing.T) {
	m := newVariableMapping()
	m.defineVariable("x")
	m.set("x", singleton(ssa.ValueID(1)))
	m.addValue("x", ssa.ValueID(2))
	forwardReverseCoherent(t, m)

	other := m.clone()
	other.set("x", singleton(ssa.ValueID(3)))
	m.merge([]*variableMapping{m, other})
	forwardReverseCoherent(t, m)
}

func TestApplyingAnEmptyPhiMapIsTheIdentity(t *testing.T) {
	m := newVariableMapping()
	m.defineVariable("x")
	m.set("x", singleton(ssa.ValueID(1)))
	before := m.DebugString()

	m.applyPhiMap(map[ssa.ValueID][]ssa.ValueID{})

	assert.Equal(t, before, m.DebugString())
}

func TestMergingAMappingWithItselfIsTheIdentity(t *testing.T) {
	m := newVariableMapping()
	m.defineVariable("x")
	m.set("x", map[ssa.ValueID]bool{1: true, 2: true})
	m.defineVariable("y")
	m.set("y", singleton(ssa.ValueID(3)))
	before := m.DebugString()

	m.merge([]*variableMapping{m, m})

	assert.Equal(t, before, m.DebugString())
}

func TestApplyPhiMapGrowsCandidatesWithoutReplacingTheArgumentValue(t *testing.T) {
	m := newVariableMapping()
	m.defineVariable("x")
	m.set("x", singleton(ssa.ValueID(1)))

	m.applyPhiMap(map[ssa.ValueID][]ssa.ValueID{1: {42}})

	values, ok := m.lookupValues("x")
	require.True(t, ok)
	assert.True(t, values[1], "phi application must keep the original candidate")
	assert.True(t, values[42], "phi application must add the phi result as a new candidate")
	forwardReverseCoherent(t, m)
}

func TestMergeUnionsValuesAcrossSourcesThatDefineTheVariable(t *testing.T) {
	m := newVariableMapping()
	m.defineVariable("x")
	m.set("x", singleton(ssa.ValueID(1)))

	a := m.clone()
	a.set("x", singleton(ssa.ValueID(10)))
	b := m.clone()
	b.set("x", singleton(ssa.ValueID(20)))

	m.merge([]*variableMapping{a, b})

	values, ok := m.lookupValues("x")
	require.True(t, ok)
	assert.True(t, values[10])
	assert.True(t, values[20])
	assert.False(t, values[1], "merge replaces the destination's candidates with the union across sources, not an accumulation")
}

func TestMergeNeverIntroducesAVariableNotAlreadyInTheDestinationsDomain(t *testing.T) {
	m := newVariableMapping()
	m.defineVariable("x")
	m.set("x", singleton(ssa.ValueID(1)))

	other := newVariableMapping()
	other.defineVariable("y")
	other.set("y", singleton(ssa.ValueID(2)))

	m.merge([]*variableMapping{other})

	assert.False(t, m.isDefined("y"), "merge must not introduce variables outside the destination's own domain")
}

func TestUnionFromGrowsDomainUnlikeMerge(t *testing.T) {
	m := newVariableMapping()
	m.defineVariable("x")
	m.set("x", singleton(ssa.ValueID(1)))

	other := newVariableMapping()
	other.defineVariable("y")
	other.set("y", singleton(ssa.ValueID(2)))

	m.unionFrom(other)

	assert.True(t, m.isDefined("y"), "unionFrom, unlike merge, introduces new variables from the source")
	values, ok := m.lookupValues("y")
	require.True(t, ok)
	assert.True(t, values[2])
}

func TestCloneIsIndependentOfItsSource(t *testing.T) {
	m := newVariableMapping()
	m.defineVariable("x")
	m.set("x", singleton(ssa.ValueID(1)))

	c := m.clone()
	c.addValue("x", ssa.ValueID(2))

	values, _ := m.lookupValues("x")
	assert.False(t, values[2], "mutating a clone must not affect the source mapping")
}

func TestStaleReverseEntriesAreToleratedNotGarbageCollected(t *testing.T) {
	m := newVariableMapping()
	m.defineVariable("x")
	m.set("x", singleton(ssa.ValueID(1)))
	m.set("x", singleton(ssa.ValueID(2)))

	// x no longer holds value 1 in its forward set, but the old reverse
	// entry for value 1 is never eagerly cleaned up - applyPhiMap only
	// ever reads through the current forward set, so this staleness is
	// harmless by construction.
	names, ok := m.lookupVariables(ssa.ValueID(1))
	require.True(t, ok)
	assert.True(t, names["x"])

	values, _ := m.lookupValues("x")
	assert.False(t, values[1])
}
