package condition

import (
	"log"
	"strings"
	"sync"
)

// parse results are cached because the same catalog conditions are
// evaluated on every turn. The catalog is static after startup so the
// cache only ever grows to the number of distinct conditions.
var (
	cacheMu sync.RWMutex
	cache   = make(map[string]cached)
)

type cached struct {
	expr Expr
	err  error
}

// Evaluate evaluates a condition expression against the answers map.
// An empty condition always applies and returns true. A condition that
// fails to parse resolves to true (fail-open) and is logged as a
// data-quality issue; no error ever escapes to the caller.
func Evaluate(cond string, answers map[string]any) bool {
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return true
	}

	expr, err := parseCached(cond)
	if err != nil {
		log.Printf("[condition] unparsable condition %q treated as true: %v", cond, err)
		return true
	}
	return expr.Eval(answers)
}

func parseCached(cond string) (Expr, error) {
	cacheMu.RLock()
	c, ok := cache[cond]
	cacheMu.RUnlock()
	if ok {
		return c.expr, c.err
	}

	expr, err := Parse(cond)
	cacheMu.Lock()
	cache[cond] = cached{expr: expr, err: err}
	cacheMu.Unlock()
	return expr, err
}
