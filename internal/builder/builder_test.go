package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowproof/internal/builder"
	"flowproof/internal/dialect"
	"flowproof/internal/parser"
	"flowproof/internal/scope"
	"flowproof/internal/ssa"
)

func mustParse(t *testing.T, source string) *parser.ParseResult {
	t.Helper()
	result := parser.ParseResultFor("fixture.flow", source)
	require.True(t, result.OK(), "expected source to parse cleanly, scan errors: %v, parse errors: %v", result.ScanErrors, result.ParseErrors)
	return result
}

func TestBuildStraightLineBlockReturnsSingleBlock(t *testing.T) {
	result := mustParse(t, `
let x := 1
let y := add(x, x)
pop(y)
`)
	d := dialect.Default()
	info := scope.NewAnalysisInfo()
	cfg := builder.Build(result.Program, d, info)

	assert.Len(t, cfg.Main.Blocks, 1)
	entry := cfg.Main.Block(cfg.Main.Entry)
	assert.Len(t, entry.Operations, 2)
	assert.Equal(t, ssa.ExitFunctionReturn, entry.Exit.Kind)
}

func TestBuildIfIntroducesBranchAndJoinBlocks(t *testing.T) {
	result := mustParse(t, `
let x := 1
if x {
    let y := add(x, x)
}
pop(x)
`)
	d := dialect.Default()
	info := scope.NewAnalysisInfo()
	cfg := builder.Build(result.Program, d, info)

	entry := cfg.Main.Block(cfg.Main.Entry)
	require.Equal(t, ssa.ExitConditionalJump, entry.Exit.Kind)

	joinBlock := cfg.Main.Block(entry.Exit.Zero)
	bodyBlock := cfg.Main.Block(entry.Exit.NonZero)
	assert.Equal(t, ssa.ExitUnconditionalJump, bodyBlock.Exit.Kind)
	assert.Equal(t, entry.Exit.Zero, bodyBlock.Exit.Target)
	assert.Equal(t, ssa.ExitFunctionReturn, joinBlock.Exit.Kind)
	assert.Len(t, joinBlock.Predecessors, 2)
}

func TestBuildForLoopWithBreakProducesExitEdge(t *testing.T) {
	result := mustParse(t, `
for { let i := 0 } i { i := add(i, 1) } {
    if i {
        break
    }
    continue
}
`)
	d := dialect.Default()
	info := scope.NewAnalysisInfo()
	cfg := builder.Build(result.Program, d, info)

	var conditional int
	for _, b := range cfg.Main.Blocks {
		if b.Exit.Kind == ssa.ExitConditionalJump {
			conditional++
		}
	}
	assert.Equal(t, 2, conditional, "expected one conditional jump for the loop header and one for the break's guarding if")
}

func TestBuildSwitchChainsGhostEqualityChecks(t *testing.T) {
	result := mustParse(t, `
let x := 1
switch x
case 0x1 {
    pop(x)
}
case 0x2 {
    pop(x)
}
default {
    pop(x)
}
`)
	d := dialect.Default()
	info := scope.NewAnalysisInfo()
	cfg := builder.Build(result.Program, d, info)

	var eqCalls int
	for _, b := range cfg.Main.Blocks {
		for _, op := range b.Operations {
			if op.Kind == ssa.OpBuiltinCall && op.BuiltinName == "eq" {
				eqCalls++
			}
		}
	}
	assert.Equal(t, 2, eqCalls, "two literal cases should produce two ghost equality checks")
}

func TestBuildNestedFunctionRegistersItsOwnGraph(t *testing.T) {
	result := mustParse(t, `
function double(a, b) -> result {
    result := add(a, b)
}
let x := double(1, 2)
`)
	d := dialect.Default()
	info := scope.NewAnalysisInfo()
	cfg := builder.Build(result.Program, d, info)

	fn, ok := cfg.FunctionGraph("double")
	require.True(t, ok)
	assert.Len(t, fn.Arguments, 2)
	assert.Len(t, fn.Returns, 1)

	var userCalls int
	for _, b := range cfg.Main.Blocks {
		for _, op := range b.Operations {
			if op.Kind == ssa.OpUserCall && op.UserFunction == "double" {
				userCalls++
			}
		}
	}
	assert.Equal(t, 1, userCalls)
}

func TestBuildPanicsOnBreakOutsideLoop(t *testing.T) {
	result := mustParse(t, `
break
`)
	d := dialect.Default()
	info := scope.NewAnalysisInfo()
	assert.Panics(t, func() {
		builder.Build(result.Program, d, info)
	})
}
