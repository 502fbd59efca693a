// Package filter evaluates CEL expressions against review items, e.g.
//
//	item_type == "letter" && level <= 2 && status == "due"
package filter

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
)

var ErrInvalidFilter = errors.New("invalid filter")

// Vars are the values an expression can reference, one variable per field.
type Vars struct {
	ID                 string
	ItemType           string
	Content            string
	Level              int
	EaseFactor         float64
	IntervalDays       float64
	ConsecutiveCorrect int
	Status             string
}

func (v Vars) activation() map[string]any {
	return map[string]any{
		"id":                  v.ID,
		"item_type":           v.ItemType,
		"content":             v.Content,
		"level":               int64(v.Level),
		"ease_factor":         v.EaseFactor,
		"interval_days":       v.IntervalDays,
		"consecutive_correct": int64(v.ConsecutiveCorrect),
		"status":              v.Status,
	}
}

var (
	envOnce sync.Once
	env     *cel.Env
	envErr  error
)

func getEnv() (*cel.Env, error) {
	envOnce.Do(func() {
		env, envErr = cel.NewEnv(
			cel.Variable("id", cel.StringType),
			cel.Variable("item_type", cel.StringType),
			cel.Variable("content", cel.StringType),
			cel.Variable("level", cel.IntType),
			cel.Variable("ease_factor", cel.DoubleType),
			cel.Variable("interval_days", cel.DoubleType),
			cel.Variable("consecutive_correct", cel.IntType),
			cel.Variable("status", cel.StringType),
		)
	})
	return env, envErr
}

// Filter is a compiled boolean expression. It is safe for concurrent use.
type Filter struct {
	expr    string
	program cel.Program
}

// Compile parses and type-checks expr. Syntax errors, unknown variables and non-boolean
// expressions are reported as ErrInvalidFilter.
func Compile(expr string) (*Filter, error) {
	e, err := getEnv()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create filter environment")
	}
	ast, issues := e.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFilter, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: expression must evaluate to bool, got %s", ErrInvalidFilter, ast.OutputType())
	}
	program, err := e.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFilter, err)
	}
	return &Filter{expr: expr, program: program}, nil
}

func (f *Filter) String() string {
	return f.expr
}

// Match evaluates the filter for one item.
func (f *Filter) Match(v Vars) (bool, error) {
	out, _, err := f.program.Eval(v.activation())
	if err != nil {
		return false, errors.Wrapf(err, "failed to evaluate filter %q", f.expr)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("filter %q returned %T", f.expr, out.Value())
	}
	return matched, nil
}
