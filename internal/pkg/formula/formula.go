// Package formula evaluates salary component formulas in a CEL sandbox.
//
// A formula only sees the symbols it is given (component codes plus
// PAYABLE_DAYS and TOTAL_DAYS), all typed as double, and must produce an int
// or double. There are no functions beyond the CEL standard library and the
// math extension, and every program runs under a cost limit.
package formula

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"
)

const (
	SymbolPayableDays = "PAYABLE_DAYS"
	SymbolTotalDays   = "TOTAL_DAYS"

	defaultCostLimit = 10_000
)

var (
	ErrEmptyExpression  = errors.New("formula expression is empty")
	ErrCompile          = errors.New("formula does not compile")
	ErrOutputType       = errors.New("formula must evaluate to a number")
	ErrEvaluation       = errors.New("formula evaluation failed")
	ErrNonFiniteResult  = errors.New("formula produced a non-finite number")
	ErrReservedSymbol   = errors.New("symbol name is reserved")
	ErrDuplicatedSymbol = errors.New("symbol declared twice")
)

// Evaluator caches compiled programs per (symbol set, expression). Safe for concurrent use.
type Evaluator struct {
	costLimit uint64
	envs      sync.Map
	programs  sync.Map
}

func NewEvaluator() *Evaluator {
	return &Evaluator{costLimit: defaultCostLimit}
}

// Symbols returns the declared symbol set for the given component codes.
func Symbols(componentCodes ...string) []string {
	out := make([]string, 0, len(componentCodes)+2)
	out = append(out, componentCodes...)
	return append(out, SymbolPayableDays, SymbolTotalDays)
}

// Check compiles expr against symbols without running it.
func (e *Evaluator) Check(expr string, symbols []string) error {
	_, err := e.program(expr, symbols)
	return err
}

// Eval runs expr with vars bound. Every referenced symbol must be declared
// in symbols and present in vars.
func (e *Evaluator) Eval(expr string, symbols []string, vars map[string]float64) (float64, error) {
	program, err := e.program(expr, symbols)
	if err != nil {
		return 0, err
	}

	activation := make(map[string]any, len(vars))
	for k, v := range vars {
		activation[k] = v
	}

	out, _, err := program.Eval(activation)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}

	var result float64
	switch v := out.Value().(type) {
	case float64:
		result = v
	case int64:
		result = float64(v)
	case uint64:
		result = float64(v)
	default:
		return 0, fmt.Errorf("%w: got %T", ErrOutputType, v)
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, ErrNonFiniteResult
	}
	return result, nil
}

func (e *Evaluator) program(expr string, symbols []string) (cel.Program, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, ErrEmptyExpression
	}

	signature, err := symbolSignature(symbols)
	if err != nil {
		return nil, err
	}
	key := signature + "|" + expr
	if cached, ok := e.programs.Load(key); ok {
		return cached.(cel.Program), nil
	}

	env, err := e.env(signature)
	if err != nil {
		return nil, err
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %v%s", ErrCompile, issues.Err(), compileHint(issues.Err()))
	}
	out := ast.OutputType()
	if !out.IsExactType(cel.DoubleType) && !out.IsExactType(cel.IntType) {
		return nil, fmt.Errorf("%w: got %s", ErrOutputType, out)
	}

	program, err := env.Program(ast, cel.CostLimit(e.costLimit))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}
	e.programs.Store(key, program)
	return program, nil
}

func (e *Evaluator) env(signature string) (*cel.Env, error) {
	if cached, ok := e.envs.Load(signature); ok {
		return cached.(*cel.Env), nil
	}

	opts := []cel.EnvOption{ext.Math()}
	if signature != "" {
		for _, name := range strings.Split(signature, ",") {
			opts = append(opts, cel.Variable(name, cel.DoubleType))
		}
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build formula environment: %w", err)
	}
	e.envs.Store(signature, env)
	return env, nil
}

// compileHint explains the most common type error: symbols are doubles and
// CEL does not mix them with integer literals.
func compileHint(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "no matching overload") &&
		(strings.Contains(msg, "(double, int)") || strings.Contains(msg, "(int, double)")) {
		return " (symbols are decimal numbers, write integer literals with a decimal point, e.g. 2.0 instead of 2)"
	}
	return ""
}

func symbolSignature(symbols []string) (string, error) {
	sorted := append([]string(nil), symbols...)
	sort.Strings(sorted)
	for i, s := range sorted {
		if s == "math" {
			return "", fmt.Errorf("%w: %s", ErrReservedSymbol, s)
		}
		if i > 0 && sorted[i-1] == s {
			return "", fmt.Errorf("%w: %s", ErrDuplicatedSymbol, s)
		}
	}
	return strings.Join(sorted, ","), nil
}
