package validator

import (
	"fmt"
	"sort"
	"strings"

	"flowproof/internal/ssa"
)

// variableMapping is the bidirectional, per-block-position record of
// which SSA values each source variable currently might hold: a forward
// index (variable -> candidate values) and a reverse index (value ->
// variables currently holding it), kept in sync by update.
//
// Reverse entries are never eagerly garbage collected when a variable is
// reassigned elsewhere in the mapping's lifetime; applyPhiMap only ever
// reads through a variable's own forward set when deciding whether to
// grow it, so a stale reverse entry for a value a variable no longer
// holds is simply never visited and never causes a wrong answer.
type variableMapping struct {
	forward map[string]map[ssa.ValueID]bool
	reverse map[ssa.ValueID]map[string]bool
}

func newVariableMapping() *variableMapping {
	return &variableMapping{
		forward: make(map[string]map[ssa.ValueID]bool),
		reverse: make(map[ssa.ValueID]map[string]bool),
	}
}

// defineVariable introduces name with an empty candidate set if it is
// not already present; redefining an existing variable is a no-op.
func (m *variableMapping) defineVariable(name string) {
	if _, ok := m.forward[name]; !ok {
		m.forward[name] = make(map[ssa.ValueID]bool)
	}
}

func (m *variableMapping) isDefined(name string) bool {
	_, ok := m.forward[name]
	return ok
}

func (m *variableMapping) containsValue(id ssa.ValueID) bool {
	_, ok := m.reverse[id]
	return ok
}

// set replaces name's candidate set outright.
func (m *variableMapping) set(name string, values map[ssa.ValueID]bool) {
	m.update(name, values, false)
}

// addValues unions values into name's existing candidate set, defining
// name first if needed.
func (m *variableMapping) addValues(name string, values map[ssa.ValueID]bool) {
	m.update(name, values, true)
}

func (m *variableMapping) addValue(name string, id ssa.ValueID) {
	m.addValues(name, singleton(id))
}

func (m *variableMapping) update(name string, values map[ssa.ValueID]bool, append bool) {
	if !append {
		fresh := make(map[ssa.ValueID]bool, len(values))
		for id := range values {
			fresh[id] = true
		}
		m.forward[name] = fresh
	} else {
		if _, ok := m.forward[name]; !ok {
			m.forward[name] = make(map[ssa.ValueID]bool)
		}
		for id := range values {
			m.forward[name][id] = true
		}
	}
	for id := range values {
		if _, ok := m.reverse[id]; !ok {
			m.reverse[id] = make(map[string]bool)
		}
		m.reverse[id][name] = true
	}
}

func (m *variableMapping) lookupValues(name string) (map[ssa.ValueID]bool, bool) {
	v, ok := m.forward[name]
	return v, ok
}

func (m *variableMapping) lookupVariables(id ssa.ValueID) (map[string]bool, bool) {
	v, ok := m.reverse[id]
	return v, ok
}

func (m *variableMapping) variables() []string {
	names := make([]string, 0, len(m.forward))
	for name := range m.forward {
		names = append(names, name)
	}
	return names
}

// clone deep-copies m. Used before mutating a mapping that a caller
// still needs the pristine version of, e.g. before applying a phi map to
// the snapshot taken at a branch point.
func (m *variableMapping) clone() *variableMapping {
	c := newVariableMapping()
	for name, values := range m.forward {
		fresh := make(map[ssa.ValueID]bool, len(values))
		for id := range values {
			fresh[id] = true
		}
		c.forward[name] = fresh
	}
	for id, names := range m.reverse {
		fresh := make(map[string]bool, len(names))
		for n := range names {
			fresh[n] = true
		}
		c.reverse[id] = fresh
	}
	return c
}

// merge is the asymmetric join used wherever two or more branches rejoin
// a common successor: for every variable already live in m (the
// destination's own domain before the join), its candidate set becomes
// the union of that variable's candidates across every source that also
// defines it. A variable that isn't already part of m's domain is never
// introduced by a merge - joining narrows or grows values, never domain.
func (m *variableMapping) merge(sources []*variableMapping) {
	for _, name := range m.variables() {
		combined := make(map[ssa.ValueID]bool)
		found := false
		for _, src := range sources {
			if values, ok := src.lookupValues(name); ok {
				found = true
				for id := range values {
					combined[id] = true
				}
			}
		}
		if found {
			m.set(name, combined)
		}
	}
}

// unionFrom adds every candidate value other records, for every variable
// other defines, into m - defining the variable in m if it wasn't
// already there. Used to fuse continue edges, the body's fall-through
// and switch-case exits that converge on the same join block from
// otherwise-disjoint predecessors, where (unlike
// merge) growing the destination's domain is exactly what's wanted.
func (m *variableMapping) unionFrom(other *variableMapping) {
	for _, name := range other.variables() {
		values, _ := other.lookupValues(name)
		m.addValues(name, values)
	}
}

// applyPhiMap folds a block-entry phi map into m: for every (argument
// value, phi results) pair, every variable currently recorded as holding
// that argument value also gains each phi result as an additional
// candidate - it does not replace the argument value, since the same
// variable may still be read by code that has not yet crossed the phi.
func (m *variableMapping) applyPhiMap(phiMap map[ssa.ValueID][]ssa.ValueID) {
	for argID, phiResults := range phiMap {
		names, ok := m.lookupVariables(argID)
		if !ok {
			continue
		}
		snapshot := make([]string, 0, len(names))
		for name := range names {
			snapshot = append(snapshot, name)
		}
		results := make(map[ssa.ValueID]bool, len(phiResults))
		for _, r := range phiResults {
			results[r] = true
		}
		for _, name := range snapshot {
			if !m.forward[name][argID] {
				continue // stale reverse entry: name no longer holds argID
			}
			m.addValues(name, results)
		}
	}
}

// DebugString renders m's forward index in a stable, sorted form for
// troubleshooting - the validator itself never calls this; it exists for
// tests and diagnostic tooling that want to inspect a mapping snapshot.
func (m *variableMapping) DebugString() string {
	names := m.variables()
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		values, _ := m.lookupValues(name)
		ids := make([]int, 0, len(values))
		for id := range values {
			ids = append(ids, int(id))
		}
		sort.Ints(ids)
		fmt.Fprintf(&b, "%s -> %v\n", name, ids)
	}
	return b.String()
}

func singleton(id ssa.ValueID) map[ssa.ValueID]bool {
	return map[ssa.ValueID]bool{id: true}
}
