package grid

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// DeriveFunc computes a derived column's value from a row. It must be pure.
type DeriveFunc func(Row) any

// deriveOptions are shared by every compiled derive expression. Row keys are
// exposed as variables; missing keys evaluate to nil, which num() and str()
// turn into 0 and "".
var deriveOptions = []expr.Option{
	expr.AllowUndefinedVariables(),
	expr.Function("num", func(params ...any) (any, error) {
		if len(params) != 1 {
			return nil, fmt.Errorf("num: want 1 argument, got %d", len(params))
		}
		return ToNumber(params[0]), nil
	}, new(func(any) float64)),
	expr.Function("str", func(params ...any) (any, error) {
		if len(params) != 1 {
			return nil, fmt.Errorf("str: want 1 argument, got %d", len(params))
		}
		return Stringify(params[0]), nil
	}, new(func(any) string)),
}

// CompileDerive compiles an expression such as
//
//	num(rrp) == 0 ? 0 : (num(rrp) - num(sale)) / num(rrp) * 100
//
// into a DeriveFunc. Evaluation errors produce nil, which displays as empty.
func CompileDerive(source string) (DeriveFunc, error) {
	program, err := expr.Compile(source, deriveOptions...)
	if err != nil {
		return nil, fmt.Errorf("compile derive expression: %w", err)
	}
	return programDerive(program), nil
}

func programDerive(program *vm.Program) DeriveFunc {
	return func(r Row) any {
		env := map[string]any(r)
		if env == nil {
			env = map[string]any{}
		}
		out, err := expr.Run(program, env)
		if err != nil {
			return nil
		}
		return NormalizeValue(out)
	}
}

// Ratio returns a DeriveFunc computing (a - b) / base * 100 over numeric
// row fields, or 0 when base is 0. Profit margin and discount are both of
// this shape.
func Ratio(minuendKey, subtrahendKey, baseKey string) DeriveFunc {
	return func(r Row) any {
		if r == nil {
			return 0.0
		}
		base := ToNumber(r.Get(baseKey))
		if base == 0 {
			return 0.0
		}
		return (ToNumber(r.Get(minuendKey)) - ToNumber(r.Get(subtrahendKey))) / base * 100
	}
}
