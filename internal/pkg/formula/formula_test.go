package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluator_Eval(t *testing.T) {
	e := NewEvaluator()
	symbols := Symbols("BASE", "HRA")
	vars := map[string]float64{"BASE": 15000, "HRA": 6000, SymbolPayableDays: 29, SymbolTotalDays: 30}

	tests := []struct {
		name string
		expr string
		want float64
	}{
		{"arithmetic over components", "BASE * 0.1 + HRA", 7500},
		{"attendance ratio", "BASE * PAYABLE_DAYS / TOTAL_DAYS", 14500},
		{"int literal output", "1250", 1250},
		{"ternary", "PAYABLE_DAYS >= 28.0 ? 1000.0 : 0.0", 1000},
		{"math extension", "math.least(BASE * 0.5, 5000.0)", 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Eval(tt.expr, symbols, vars)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluator_Eval_Rejects(t *testing.T) {
	e := NewEvaluator()
	symbols := Symbols("BASE")
	vars := map[string]float64{"BASE": 15000, SymbolPayableDays: 30, SymbolTotalDays: 30}

	tests := []struct {
		name    string
		expr    string
		wantErr error
	}{
		{"empty", "  ", ErrEmptyExpression},
		{"unknown symbol", "BASE + BONUS", ErrCompile},
		{"mixed numeric types", "BASE * 2", ErrCompile},
		{"string output", "'BASE'", ErrOutputType},
		{"bool output", "BASE > 0.0", ErrOutputType},
		{"division by zero", "1 / 0", ErrEvaluation},
		{"infinite", "BASE / 0.0", ErrNonFiniteResult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Eval(tt.expr, symbols, vars)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEvaluator_Check_IntegerLiteralHint(t *testing.T) {
	e := NewEvaluator()

	err := e.Check("BASIC * 2", Symbols("BASIC"))

	assert.ErrorIs(t, err, ErrCompile)
	assert.Contains(t, err.Error(), "2.0 instead of 2")
	assert.NotContains(t, e.Check("BASIC + BONUS", Symbols("BASIC")).Error(), "2.0 instead of 2")
}

func TestEvaluator_Eval_UnboundSymbol(t *testing.T) {
	e := NewEvaluator()

	_, err := e.Eval("BASE + HRA", Symbols("BASE", "HRA"), map[string]float64{"BASE": 1})

	assert.ErrorIs(t, err, ErrEvaluation)
}

func TestEvaluator_Check(t *testing.T) {
	e := NewEvaluator()

	assert.NoError(t, e.Check("BASE * 0.4", Symbols("BASE")))
	assert.ErrorIs(t, e.Check("BASE * 0.4", Symbols("BASE", "BASE")), ErrDuplicatedSymbol)
	assert.ErrorIs(t, e.Check("1.0", []string{"math"}), ErrReservedSymbol)
}

func TestEvaluator_CachesPrograms(t *testing.T) {
	e := NewEvaluator()
	symbols := Symbols("BASE")

	_, err := e.program("BASE * 0.5", symbols)
	require.NoError(t, err)
	p1, _ := e.program("BASE * 0.5", []string{SymbolTotalDays, "BASE", SymbolPayableDays})
	p2, _ := e.program("BASE * 0.5", symbols)

	assert.Equal(t, p1, p2)
}
