package filter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// CompileError is returned when a condition references an identifier
// outside AllowedIdents; its message lists the accepted identifiers, per
// spec §7.
type CompileError struct {
	Ident string
}

func (e *CompileError) Error() string {
	names := make([]string, 0, len(AllowedIdents))
	for name := range AllowedIdents {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("filter: unknown identifier %q, accepted identifiers: %s", e.Ident, strings.Join(names, ", "))
}

// Compile walks node, binding each Condition's evaluator against
// AllowedIdents. Unknown identifiers fail the whole compile with a
// CompileError. The returned Node's evaluators are stateless and safe for
// concurrent use after Compile returns.
func Compile(node Node) (Node, error) {
	switch n := node.(type) {
	case *Condition:
		kind, ok := AllowedIdents[n.Ident]
		if !ok {
			return nil, &CompileError{Ident: n.Ident}
		}
		eval, err := bindCondition(n, kind)
		if err != nil {
			return nil, err
		}
		n.eval = eval
		return n, nil
	case *Expression:
		left, err := Compile(n.Left)
		if err != nil {
			return nil, err
		}
		n.Left = left
		if n.Right != nil {
			right, err := Compile(n.Right)
			if err != nil {
				return nil, err
			}
			n.Right = right
		}
		return n, nil
	default:
		return nil, fmt.Errorf("filter: unknown node type %T", node)
	}
}

// bindCondition returns the closure that evaluates c against a
// PilotFields, implementing the operator-by-type matrix from spec §4.G.
func bindCondition(c *Condition, kind fieldKind) (func(PilotFields) bool, error) {
	switch kind {
	case fieldString:
		return bindStringCondition(c), nil
	case fieldInt:
		return bindIntCondition(c), nil
	case fieldFloat:
		return bindFloatCondition(c), nil
	default:
		return nil, fmt.Errorf("filter: unhandled field kind for %q", c.Ident)
	}
}

func bindStringCondition(c *Condition) func(PilotFields) bool {
	ident := c.Ident
	op := c.Op

	if c.Val.Kind != ValueString {
		// Cross-type: string field compared to a numeric literal is
		// always false, regardless of operator.
		return func(PilotFields) bool { return false }
	}

	var re *regexp.Regexp
	var reCompileFailed bool
	if op == "=~" || op == "!~" {
		compiled, err := regexp.Compile(c.Val.S)
		if err != nil {
			reCompileFailed = true
		} else {
			re = compiled
		}
	}

	return func(f PilotFields) bool {
		v, ok := f.stringField(ident)
		if !ok {
			return false
		}
		switch op {
		case "==":
			return v == c.Val.S
		case "!=":
			return v != c.Val.S
		case "=~":
			if reCompileFailed {
				return false
			}
			return re.MatchString(v)
		case "!~":
			if reCompileFailed {
				return true
			}
			return !re.MatchString(v)
		default: // <, <=, >, >= on strings always false
			return false
		}
	}
}

func bindIntCondition(c *Condition) func(PilotFields) bool {
	ident := c.Ident
	op := c.Op
	switch c.Val.Kind {
	case ValueInt:
		rhs := c.Val.I
		return func(f PilotFields) bool {
			v, ok := f.intField(ident)
			if !ok {
				return false
			}
			return compareInt(v, rhs, op)
		}
	case ValueFloat:
		rhs := c.Val.F
		return func(f PilotFields) bool {
			v, ok := f.intField(ident)
			if !ok {
				return false
			}
			return compareFloat(float64(v), rhs, op)
		}
	default: // string literal vs int field: cross-type
		return func(PilotFields) bool { return false }
	}
}

func bindFloatCondition(c *Condition) func(PilotFields) bool {
	ident := c.Ident
	op := c.Op
	switch c.Val.Kind {
	case ValueFloat:
		rhs := c.Val.F
		return func(f PilotFields) bool {
			v, ok := f.floatField(ident)
			if !ok {
				return false
			}
			return compareFloat(v, rhs, op)
		}
	case ValueInt:
		rhs := float64(c.Val.I)
		return func(f PilotFields) bool {
			v, ok := f.floatField(ident)
			if !ok {
				return false
			}
			return compareFloat(v, rhs, op)
		}
	default: // string literal vs float field: cross-type
		return func(PilotFields) bool { return false }
	}
}

func compareInt(v, rhs int64, op string) bool {
	switch op {
	case "==":
		return v == rhs
	case "!=":
		return v != rhs
	case "<":
		return v < rhs
	case "<=":
		return v <= rhs
	case ">":
		return v > rhs
	case ">=":
		return v >= rhs
	default: // =~, !~ on numeric fields: no match ever applies
		return false
	}
}

func compareFloat(v, rhs float64, op string) bool {
	switch op {
	case "==":
		return v == rhs
	case "!=":
		return v != rhs
	case "<":
		return v < rhs
	case "<=":
		return v <= rhs
	case ">":
		return v > rhs
	case ">=":
		return v >= rhs
	default:
		return false
	}
}
