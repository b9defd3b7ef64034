package grammar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowproof/grammar"
)

const sample = `
function add(a, b) -> result {
    result := add(a, b)
}

function main() {
    let x := 1
    let y := add(x, x)
    if y {
        let z := add(y, y)
    }
    for { let i := 0 } i { i := add(i, 1) } {
        break
    }
    switch y
    case 0x1 {
        leave
    }
    default {
        continue
    }
}
`

func TestParseSourceBuildsProgram(t *testing.T) {
	program, err := grammar.ParseSource("sample.flow", sample)
	require.NoError(t, err)
	require.NotNil(t, program)
	require.Len(t, program.Statements, 2)

	add := program.Statements[0].Function
	require.NotNil(t, add)
	assert.Equal(t, "add", add.Name.Value)
	require.Len(t, add.Parameters, 2)
	assert.Equal(t, "a", add.Parameters[0].Value)
	require.Len(t, add.Returns, 1)
	assert.Equal(t, "result", add.Returns[0].Value)

	main := program.Statements[1].Function
	require.NotNil(t, main)
	assert.Equal(t, "main", main.Name.Value)
	require.Len(t, main.Body.Statements, 5)

	letX := main.Body.Statements[0].Let
	require.NotNil(t, letX)
	assert.Equal(t, []string{"x"}, namesOf(letX.Names))

	ifStmt := main.Body.Statements[2].If
	require.NotNil(t, ifStmt)
	assert.Equal(t, "y", ifStmt.Condition.Ident.Value)

	forStmt := main.Body.Statements[3].For
	require.NotNil(t, forStmt)
	require.Len(t, forStmt.Body.Statements, 1)
	assert.NotNil(t, forStmt.Body.Statements[0].Break)

	switchStmt := main.Body.Statements[4].Switch
	require.NotNil(t, switchStmt)
	require.Len(t, switchStmt.Cases, 2)
	require.NotNil(t, switchStmt.Cases[0].Value)
	assert.Equal(t, "0x1", switchStmt.Cases[0].Value.Value)
	assert.True(t, switchStmt.Cases[1].Default)
}

func TestParseSourceReportsSyntaxErrors(t *testing.T) {
	_, err := grammar.ParseSource("broken.flow", "function ( ) { }")
	assert.Error(t, err)
}

func namesOf(idents []grammar.PosIdent) []string {
	names := make([]string, len(idents))
	for i, id := range idents {
		names[i] = id.Value
	}
	return names
}
