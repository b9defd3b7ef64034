package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowproof/internal/ast"
	"flowproof/internal/parser"
)

func TestParseSourceCoversEveryStatementShape(t *testing.T) {
	source := `
function add(a, b) -> result {
    result := add(a, b)
}

function main() {
    let x := 1
    let y
    y := add(x, x)
    if y {
        let z := add(y, y)
        {
            continue
        }
    }
    switch y
    case 0x2a {
        leave
    }
    default {
        pop(y)
    }
    for { let i := 0 } i { i := add(i, 1) } {
        break
    }
}
`
	program, scanErrs, parseErrs := parser.ParseSource("sample.flow", source)
	require.Empty(t, scanErrs)
	require.Empty(t, parseErrs)
	require.NotNil(t, program)
	require.Len(t, program.Statements, 2)

	add, ok := program.Statements[0].(*ast.FunctionDefinition)
	require.True(t, ok)
	assert.Equal(t, "add", add.Name)
	assert.Equal(t, []string{"a", "b"}, add.Parameters)
	assert.Equal(t, []string{"result"}, add.Returns)

	main, ok := program.Statements[1].(*ast.FunctionDefinition)
	require.True(t, ok)
	require.Len(t, main.Body.Statements, 6)

	letX, ok := main.Body.Statements[0].(*ast.VariableDeclaration)
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, letX.Variables)
	lit, ok := letX.Initializer.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, "1", lit.Value)

	letY, ok := main.Body.Statements[1].(*ast.VariableDeclaration)
	require.True(t, ok)
	assert.Nil(t, letY.Initializer)

	assign, ok := main.Body.Statements[2].(*ast.Assignment)
	require.True(t, ok)
	assert.Equal(t, []string{"y"}, assign.Variables)

	ifStmt, ok := main.Body.Statements[3].(*ast.If)
	require.True(t, ok)
	cond, ok := ifStmt.Condition.(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "y", cond.Name)

	switchStmt, ok := main.Body.Statements[4].(*ast.Switch)
	require.True(t, ok)
	require.Len(t, switchStmt.Cases, 2)
	require.NotNil(t, switchStmt.Cases[0].Value)
	assert.Equal(t, "0x2a", switchStmt.Cases[0].Value.Value)
	assert.Nil(t, switchStmt.Cases[1].Value)

	forStmt, ok := main.Body.Statements[5].(*ast.ForLoop)
	require.True(t, ok)
	require.Len(t, forStmt.Body.Statements, 1)
	_, ok = forStmt.Body.Statements[0].(*ast.Break)
	assert.True(t, ok)
}

func TestParseSourceDisambiguatesCallFromAssignment(t *testing.T) {
	program, scanErrs, parseErrs := parser.ParseSource("call.flow", `
function main() {
    pop(1)
}
`)
	require.Empty(t, scanErrs)
	require.Empty(t, parseErrs)
	stmt, ok := program.Statements[0].(*ast.FunctionDefinition).Body.Statements[0].(*ast.ExpressionStatement)
	require.True(t, ok)
	call, ok := stmt.Call.(*ast.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "pop", call.Callee)
}

func TestParseSourceCollectsMultipleErrorsWithoutStoppingAtTheFirst(t *testing.T) {
	_, _, parseErrs := parser.ParseSource("broken.flow", `
function () {
}
function also_broken( {
}
`)
	assert.GreaterOrEqual(t, len(parseErrs), 2)
}

func TestParseResultForReportsOK(t *testing.T) {
	ok := parser.ParseResultFor("ok.flow", "function f() {\n}\n")
	assert.True(t, ok.OK())

	bad := parser.ParseResultFor("bad.flow", "function ( ) {\n}\n")
	assert.False(t, bad.OK())
}
