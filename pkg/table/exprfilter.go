package table

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ============================================================================
// EXPRESSION FILTER - PREDICATES WITHOUT HAND-WRITTEN CLOSURES
// ============================================================================

// ExprFilter keeps rows for which a compiled boolean expression over the
// row's fields holds. Fields are addressed by name; absent fields evaluate
// as nil.
type ExprFilter struct {
	source  string
	program *vm.Program
}

// FilterExpr compiles expression into a predicate mapper, e.g.
// FilterExpr(`count > 1 && text != "the"`).
func FilterExpr(expression string) (*ExprFilter, error) {
	program, err := expr.Compile(expression,
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
		expr.DisableBuiltin("count"),
	)
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expression, err)
	}
	return &ExprFilter{source: expression, program: program}, nil
}

// MustFilterExpr is FilterExpr for expressions known good at build time
func MustFilterExpr(expression string) *ExprFilter {
	m, err := FilterExpr(expression)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *ExprFilter) Apply(row Row) ([]Row, error) {
	result, err := expr.Run(m.program, map[string]any(row))
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", m.source, err)
	}
	if keep, ok := result.(bool); ok && keep {
		return []Row{row}, nil
	}
	return nil, nil
}
