package validator_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowproof/internal/builder"
	"flowproof/internal/dialect"
	compilererrors "flowproof/internal/errors"
	"flowproof/internal/parser"
	"flowproof/internal/scope"
	"flowproof/internal/ssa"
	"flowproof/internal/validator"
)

func buildFrom(t *testing.T, source string, d *dialect.Dialect) (*ssa.ControlFlow, *parser.ParseResult, *scope.AnalysisInfo) {
	t.Helper()
	result := parser.ParseResultFor("fixture.flow", source)
	require.True(t, result.OK(), "scan errors: %v, parse errors: %v", result.ScanErrors, result.ParseErrors)
	info := scope.NewAnalysisInfo()
	cfg := builder.Build(result.Program, d, info)
	return cfg, result, info
}

func TestValidateAcceptsStraightLineProgram(t *testing.T) {
	d := dialect.Default()
	cfg, result, info := buildFrom(t, `
let x := 1
let y := add(x, x)
pop(y)
`, d)

	err := validator.Validate(cfg, result.Program, info, d)
	assert.NoError(t, err)
}

func TestValidateAcceptsIfWithoutElse(t *testing.T) {
	d := dialect.Default()
	cfg, result, info := buildFrom(t, `
let x := 1
if x {
    let y := add(x, x)
    pop(y)
}
pop(x)
`, d)

	err := validator.Validate(cfg, result.Program, info, d)
	assert.NoError(t, err)
}

func TestValidateAcceptsSwitchWithDefault(t *testing.T) {
	d := dialect.Default()
	cfg, result, info := buildFrom(t, `
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
`, d)

	err := validator.Validate(cfg, result.Program, info, d)
	assert.NoError(t, err)
}

func TestValidateAcceptsSwitchWithoutDefault(t *testing.T) {
	d := dialect.Default()
	cfg, result, info := buildFrom(t, `
let x := 1
switch x
case 0x1 {
    pop(x)
}
pop(x)
`, d)

	err := validator.Validate(cfg, result.Program, info, d)
	assert.NoError(t, err)
}

func TestValidateAcceptsForLoopWithBreakAndContinue(t *testing.T) {
	d := dialect.Default()
	cfg, result, info := buildFrom(t, `
for { let i := 0 } i { i := add(i, 1) } {
    if i {
        continue
    }
    if i {
        break
    }
}
`, d)

	err := validator.Validate(cfg, result.Program, info, d)
	assert.NoError(t, err)
}

func TestValidateAcceptsConstantTrueForLoop(t *testing.T) {
	d := dialect.Default()
	cfg, result, info := buildFrom(t, `
let x := 1
for { } 1 {
} {
    if x {
        break
    }
    continue
}
`, d)

	err := validator.Validate(cfg, result.Program, info, d)
	assert.NoError(t, err)
}

func TestValidateAcceptsConstantFalseForLoop(t *testing.T) {
	d := dialect.Default()
	cfg, result, info := buildFrom(t, `
for { } 0 {
} {
    pop(1)
}
`, d)

	err := validator.Validate(cfg, result.Program, info, d)
	assert.NoError(t, err)
}

func TestValidateAcceptsNestedFunctionWithLeave(t *testing.T) {
	d := dialect.Default()
	cfg, result, info := buildFrom(t, `
function double(a) -> result {
    result := add(a, a)
    leave
}
let x := double(1)
pop(x)
`, d)

	err := validator.Validate(cfg, result.Program, info, d)
	assert.NoError(t, err)
}

func TestValidateRejectsGraphWithDanglingOperation(t *testing.T) {
	d := dialect.Default()
	cfg, result, info := buildFrom(t, `
let x := 1
pop(x)
`, d)

	extra := cfg.Main.NewValue(ssa.ValueVariable, "")
	entry := cfg.Main.Block(cfg.Main.Entry)
	entry.Operations = append(entry.Operations, ssa.Operation{
		Kind:        ssa.OpBuiltinCall,
		BuiltinName: "iszero",
		CanContinue: true,
		Inputs:      []ssa.ValueID{extra},
		Outputs:     []ssa.ValueID{cfg.Main.NewValue(ssa.ValueVariable, "")},
	})

	err := validator.Validate(cfg, result.Program, info, d)
	require.Error(t, err)
	var vf *compilererrors.ValidationFailure
	require.True(t, errors.As(err, &vf))
	assert.Equal(t, compilererrors.CategoryCursorMismatch, vf.Category)
}

func TestValidateRejectsRetargetedBranch(t *testing.T) {
	d := dialect.Default()
	cfg, result, info := buildFrom(t, `
let x := 1
if x {
    pop(x)
}
pop(x)
`, d)

	entry := cfg.Main.Block(cfg.Main.Entry)
	require.Equal(t, ssa.ExitConditionalJump, entry.Exit.Kind)
	entry.Exit.Zero, entry.Exit.NonZero = entry.Exit.NonZero, entry.Exit.Zero

	err := validator.Validate(cfg, result.Program, info, d)
	require.Error(t, err)
	var vf *compilererrors.ValidationFailure
	require.True(t, errors.As(err, &vf))
	assert.Equal(t, compilererrors.CategoryStructuralMismatch, vf.Category)
}

func TestValidateRejectsMissingFunctionGraph(t *testing.T) {
	d := dialect.Default()
	cfg, result, info := buildFrom(t, `
function double(a, b) -> result {
    result := add(a, b)
}
let x := double(1, 2)
pop(x)
`, d)

	delete(cfg.Functions, "double")

	err := validator.Validate(cfg, result.Program, info, d)
	require.Error(t, err)
	var vf *compilererrors.ValidationFailure
	require.True(t, errors.As(err, &vf))
	assert.Equal(t, compilererrors.CategoryDictionaryLookup, vf.Category)
}

func TestValidateRunsUnderMinimalDialect(t *testing.T) {
	d := dialect.Minimal()
	cfg, result, info := buildFrom(t, `
let x := 1
switch x
case 0x1 {
    x := add(x, x)
}
default {
    x := sub(x, x)
}
`, d)

	err := validator.Validate(cfg, result.Program, info, d)
	assert.NoError(t, err)
}

func TestValidateRejectsProgramBuiltUnderAMismatchedDialect(t *testing.T) {
	d := dialect.Default()
	cfg, result, info := buildFrom(t, `
let x := 1
pop(x)
`, d)

	err := validator.Validate(cfg, result.Program, info, dialect.Minimal())
	require.Error(t, err)
	var vf *compilererrors.ValidationFailure
	require.True(t, errors.As(err, &vf))
	assert.Equal(t, compilererrors.CategoryDictionaryLookup, vf.Category)
}
