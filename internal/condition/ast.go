// Package condition implements the restricted boolean expression language
// used to gate questions and agent selection rules against the answers
// map. The language supports equality/inequality against literals,
// set membership, and and/or/not - nothing else. Expressions are parsed
// into a small AST and interpreted without any host-code execution.
package condition

// Expr is a parsed condition expression node.
type Expr interface {
	// Eval evaluates the node against the answers map.
	Eval(answers map[string]any) bool
}

// Literal is a scalar literal value in an expression: string, number
// or boolean.
type Literal struct {
	Str  string
	Num  float64
	Bool bool
	Kind LiteralKind
}

// LiteralKind discriminates the literal variants.
type LiteralKind int

const (
	// LitString is a quoted string literal.
	LitString LiteralKind = iota
	// LitNumber is a numeric literal.
	LitNumber
	// LitBool is true or false.
	LitBool
)

// equalsAnswer reports whether an answer value equals this literal.
// Answers arrive as JSON-decoded values, so numbers are float64 and
// numeric strings are compared numerically against number literals.
func (l Literal) equalsAnswer(v any) bool {
	switch l.Kind {
	case LitString:
		s, ok := v.(string)
		return ok && s == l.Str
	case LitNumber:
		switch n := v.(type) {
		case float64:
			return n == l.Num
		case int:
			return float64(n) == l.Num
		case int64:
			return float64(n) == l.Num
		}
		return false
	case LitBool:
		b, ok := v.(bool)
		return ok && b == l.Bool
	default:
		return false
	}
}

// Compare is `field == literal` or `field != literal`. A missing answer
// never equals any literal.
type Compare struct {
	Field  string
	Value  Literal
	Negate bool
}

// Eval implements Expr.
func (c Compare) Eval(answers map[string]any) bool {
	v, ok := answers[c.Field]
	eq := ok && c.Value.equalsAnswer(v)
	if c.Negate {
		return !eq
	}
	return eq
}

// Membership is `field in [a, b, c]`. For multi-select answers (slices)
// it matches when any selected element is in the literal set.
type Membership struct {
	Field  string
	Values []Literal
}

// Eval implements Expr.
func (m Membership) Eval(answers map[string]any) bool {
	v, ok := answers[m.Field]
	if !ok {
		return false
	}

	elems, isSlice := asSlice(v)
	for _, lit := range m.Values {
		if isSlice {
			for _, e := range elems {
				if lit.equalsAnswer(e) {
					return true
				}
			}
			continue
		}
		if lit.equalsAnswer(v) {
			return true
		}
	}
	return false
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	default:
		return nil, false
	}
}

// And is the conjunction of two expressions.
type And struct {
	Left, Right Expr
}

// Eval implements Expr.
func (a And) Eval(answers map[string]any) bool {
	return a.Left.Eval(answers) && a.Right.Eval(answers)
}

// Or is the disjunction of two expressions.
type Or struct {
	Left, Right Expr
}

// Eval implements Expr.
func (o Or) Eval(answers map[string]any) bool {
	return o.Left.Eval(answers) || o.Right.Eval(answers)
}

// Not negates an expression.
type Not struct {
	Inner Expr
}

// Eval implements Expr.
func (n Not) Eval(answers map[string]any) bool {
	return !n.Inner.Eval(answers)
}

// Fields returns the question IDs referenced by an expression. Used by
// catalog validation to enforce that conditions only reference
// previously-askable questions.
func Fields(e Expr) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case Compare:
			if !seen[n.Field] {
				seen[n.Field] = true
				out = append(out, n.Field)
			}
		case Membership:
			if !seen[n.Field] {
				seen[n.Field] = true
				out = append(out, n.Field)
			}
		case And:
			walk(n.Left)
			walk(n.Right)
		case Or:
			walk(n.Left)
			walk(n.Right)
		case Not:
			walk(n.Inner)
		}
	}
	walk(e)
	return out
}
