// Package rules evaluates entry/exit conditions against a single row of indicator values.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pj950/ffftttt/internal/indicator"
)

var (
	// ErrUndefinedValue marks a lookup that hit a missing column or the undefined sentinel.
	ErrUndefinedValue = errors.New("undefined value")
	// ErrInvalidRule is returned when a configured rule tree is malformed.
	ErrInvalidRule = errors.New("invalid rule definition")
	// ErrUnknownTemplate is returned for template names with no predicate.
	ErrUnknownTemplate = errors.New("unknown template")
)

// Row is one position's worth of indicator columns plus raw bar fields.
type Row map[string]float64

// Lookup returns a defined value or ErrUndefinedValue.
func (r Row) Lookup(column string) (float64, error) {
	v, ok := r[column]
	if !ok || indicator.IsUndefined(v) {
		return 0, fmt.Errorf("%w: %s", ErrUndefinedValue, column)
	}
	return v, nil
}

// Operator is a comparison applied by a Condition.
type Operator string

const (
	OpEq  Operator = "=="
	OpNe  Operator = "!="
	OpGt  Operator = ">"
	OpLt  Operator = "<"
	OpGte Operator = ">="
	OpLte Operator = "<="
)

func (op Operator) valid() bool {
	switch op {
	case OpEq, OpNe, OpGt, OpLt, OpGte, OpLte:
		return true
	}
	return false
}

func (op Operator) apply(lhs, rhs float64) bool {
	switch op {
	case OpEq:
		return lhs == rhs
	case OpNe:
		return lhs != rhs
	case OpGt:
		return lhs > rhs
	case OpLt:
		return lhs < rhs
	case OpGte:
		return lhs >= rhs
	case OpLte:
		return lhs <= rhs
	}
	return false
}

// Node is a parsed rule tree: one of *Condition, *And, *Or.
type Node interface {
	evaluate(row Row) bool
	String() string
}

// Condition compares one column against a literal.
type Condition struct {
	column string
	op     Operator
	value  float64
}

// NewCondition validates and builds a Condition.
func NewCondition(column string, op Operator, value float64) (*Condition, error) {
	column = strings.TrimSpace(column)
	if column == "" {
		return nil, fmt.Errorf("%w: condition without indicator", ErrInvalidRule)
	}
	if !op.valid() {
		return nil, fmt.Errorf("%w: unsupported operator %q on %s", ErrInvalidRule, op, column)
	}
	return &Condition{column: column, op: op, value: value}, nil
}

// Column returns the column the condition reads.
func (c *Condition) Column() string { return c.column }

func (c *Condition) evaluate(row Row) bool {
	v, err := row.Lookup(c.column)
	if err != nil {
		return false
	}
	return c.op.apply(v, c.value)
}

func (c *Condition) String() string {
	return fmt.Sprintf("%s %s %g", c.column, c.op, c.value)
}

// And is true when every child is true. An empty And is true.
type And struct {
	children []Node
}

// NewAnd builds a conjunction over a private copy of children.
func NewAnd(children ...Node) *And {
	return &And{children: append([]Node(nil), children...)}
}

func (a *And) evaluate(row Row) bool {
	for _, child := range a.children {
		if !child.evaluate(row) {
			return false
		}
	}
	return true
}

func (a *And) String() string { return joinNodes("AND", a.children) }

// Or is true when at least one child is true. An empty Or is false.
type Or struct {
	children []Node
}

// NewOr builds a disjunction over a private copy of children.
func NewOr(children ...Node) *Or {
	return &Or{children: append([]Node(nil), children...)}
}

func (o *Or) evaluate(row Row) bool {
	for _, child := range o.children {
		if child.evaluate(row) {
			return true
		}
	}
	return false
}

func (o *Or) String() string { return joinNodes("OR", o.children) }

func joinNodes(op string, nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return "(" + strings.Join(parts, " "+op+" ") + ")"
}

// Evaluate walks node against row. Undefined inputs make their condition false; it never panics.
func Evaluate(node Node, row Row) bool {
	if node == nil {
		return false
	}
	return node.evaluate(row)
}

// Columns lists every column referenced by the tree, in first-seen order.
func Columns(node Node) []string {
	seen := make(map[string]struct{})
	var out []string
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case *Condition:
			if _, ok := seen[v.column]; !ok {
				seen[v.column] = struct{}{}
				out = append(out, v.column)
			}
		case *And:
			for _, c := range v.children {
				walk(c)
			}
		case *Or:
			for _, c := range v.children {
				walk(c)
			}
		}
	}
	if node != nil {
		walk(node)
	}
	return out
}
