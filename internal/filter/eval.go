package filter

import "fmt"

// Evaluate runs a compiled Node against fields, short-circuiting && as
// soon as its left operand is false and || as soon as its left operand is
// true. Evaluation is pure: repeated calls with the same fields return
// the same result, since conditions carry no mutable state after Compile.
func Evaluate(node Node, fields PilotFields) bool {
	switch n := node.(type) {
	case *Condition:
		if n.eval == nil {
			panic(fmt.Sprintf("filter: condition on %q evaluated before Compile", n.Ident))
		}
		return n.eval(fields)
	case *Expression:
		left := Evaluate(n.Left, fields)
		switch n.Combine {
		case "":
			return left
		case "&&":
			if !left {
				return false
			}
			return Evaluate(n.Right, fields)
		case "||":
			if left {
				return true
			}
			return Evaluate(n.Right, fields)
		default:
			panic(fmt.Sprintf("filter: unknown combine operator %q", n.Combine))
		}
	default:
		panic(fmt.Sprintf("filter: unknown node type %T", node))
	}
}

// Expr is a compiled, ready-to-evaluate filter expression.
type Expr struct {
	root Node
}

// ParseAndCompile lexes, parses and compiles query in one step — the
// shape a streaming session uses once at connect time.
func ParseAndCompile(query string) (*Expr, error) {
	node, err := Parse(query)
	if err != nil {
		return nil, err
	}
	compiled, err := Compile(node)
	if err != nil {
		return nil, err
	}
	return &Expr{root: compiled}, nil
}

// Eval applies the compiled expression to fields.
func (e *Expr) Eval(fields PilotFields) bool {
	return Evaluate(e.root, fields)
}
