package filter

import (
	"strings"
	"sync"

	"shoptrends/domain/dataset"
	"shoptrends/internal/errors"

	"github.com/google/cel-go/cel"
)

const (
	maxCachedPrograms = 256
	exprCostLimit     = 10000
)

// Expressions compiles row expressions (CEL) over the dataset's columns and caches the
// resulting programs. Safe for concurrent use by every session.
type Expressions struct {
	env      *cel.Env
	mu       sync.RWMutex
	prgCache map[string]cel.Program
}

// NewExpressions declares one variable per column. Integer columns are int, amounts and
// ratings are double, everything else is string.
func NewExpressions(columns []string) (*Expressions, error) {
	seen := make(map[string]bool)
	opts := []cel.EnvOption{cel.CrossTypeNumericComparisons(true)}
	declare := func(col string) {
		if col == "" || seen[col] {
			return
		}
		seen[col] = true
		opts = append(opts, cel.Variable(col, columnType(col)))
	}
	for _, col := range dataset.CoreColumns {
		declare(col)
	}
	for _, col := range columns {
		declare(col)
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create expression environment")
	}
	return &Expressions{env: env, prgCache: make(map[string]cel.Program)}, nil
}

func columnType(col string) *cel.Type {
	switch col {
	case dataset.ColAge, dataset.ColPreviousPurchases:
		return cel.IntType
	case dataset.ColPurchaseAmount, dataset.ColReviewRating:
		return cel.DoubleType
	}
	return cel.StringType
}

// Compile returns the cached program for expr, compiling it on first use.
// Expressions that do not type-check to bool are INVALID_INPUT.
func (e *Expressions) Compile(expr string) (cel.Program, error) {
	expr = strings.TrimSpace(expr)

	e.mu.RLock()
	prg, hit := e.prgCache[expr]
	e.mu.RUnlock()
	if hit {
		return prg, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(issues.Err(), "invalid row expression"))
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.InvalidInput("row expression must evaluate to a bool, got " + ast.OutputType().String())
	}
	prg, err := e.env.Program(ast, cel.CostLimit(exprCostLimit))
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "invalid row expression"))
	}

	e.mu.Lock()
	if len(e.prgCache) >= maxCachedPrograms {
		e.prgCache = make(map[string]cel.Program)
	}
	e.prgCache[expr] = prg
	e.mu.Unlock()
	return prg, nil
}

// Match evaluates prg against one record. Evaluation errors (e.g. division by zero)
// exclude the row.
func Match(prg cel.Program, r *dataset.Record) bool {
	out, _, err := prg.Eval(r.Fields())
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
