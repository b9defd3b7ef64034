// Package scope provides the minimal symbol tables the validator needs to
// resolve identifiers and function names against the AST they came from.
// A real front end's semantic analyzer would build these as part of a
// much larger pass; here the builder and the validator each open and
// fill their own scopes as they walk the AST.
package scope

import "flowproof/internal/ast"

// VariableKind distinguishes the few ways a name can be bound.
type VariableKind int

const (
	VariableKindLocal VariableKind = iota
	VariableKindParameter
	VariableKindReturn
)

// Variable is a resolved binding for an identifier.
type Variable struct {
	Name string
	Kind VariableKind
}

// Function is a resolved binding for a function name, recording its
// declared arity so the validator can check call shape without touching
// the CFG until it asserts SSA linkage.
type Function struct {
	Name       string
	Parameters []string
	Returns    []string
	Body       *ast.Block
}

// Scope is a lexical scope: the set of variables and functions visible
// at a point in the AST, chained to its enclosing scope.
type Scope struct {
	parent    *Scope
	variables map[string]*Variable
	functions map[string]*Function
}

// NewScope creates a scope nested inside parent. parent may be nil for
// the outermost scope of a function.
func NewScope(parent *Scope) *Scope {
	return &Scope{
		parent:    parent,
		variables: make(map[string]*Variable),
		functions: make(map[string]*Function),
	}
}

// Declare adds a new variable to this scope.
func (s *Scope) Declare(name string, kind VariableKind) *Variable {
	v := &Variable{Name: name, Kind: kind}
	s.variables[name] = v
	return v
}

// DeclareFunction adds a new function binding to this scope, visible to
// every statement in the same block per the language's hoisting rule.
func (s *Scope) DeclareFunction(fn *Function) {
	s.functions[fn.Name] = fn
}

// DeclaredLocally reports whether name is bound directly in this scope,
// ignoring any enclosing one - the redeclaration check a block needs,
// since shadowing a name from an enclosing scope is legal but declaring
// the same name twice in one block is not.
func (s *Scope) DeclaredLocally(name string) bool {
	_, ok := s.variables[name]
	return ok
}

// ResolveVariable looks up name in this scope or an enclosing one.
func (s *Scope) ResolveVariable(name string) (*Variable, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.variables[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// ResolveFunction looks up name in this scope or an enclosing one.
func (s *Scope) ResolveFunction(name string) (*Function, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if fn, ok := sc.functions[name]; ok {
			return fn, true
		}
	}
	return nil, false
}

// AnalysisInfo maps every Block in a program to the scope active inside
// it, standing in for a real analyzer's per-block scope table. The
// validator receives one of these alongside the AST root and rebinds
// every block it walks to the scope it opens for that block.
type AnalysisInfo struct {
	scopes map[*ast.Block]*Scope
}

// NewAnalysisInfo creates an empty registry.
func NewAnalysisInfo() *AnalysisInfo {
	return &AnalysisInfo{scopes: make(map[*ast.Block]*Scope)}
}

// Bind records which scope is active inside block.
func (a *AnalysisInfo) Bind(block *ast.Block, s *Scope) {
	a.scopes[block] = s
}

// ScopeOf returns the scope active inside block, or nil if unbound.
func (a *AnalysisInfo) ScopeOf(block *ast.Block) *Scope {
	return a.scopes[block]
}
