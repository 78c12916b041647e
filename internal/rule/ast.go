package rule

import (
	"strconv"
	"strings"
)

// node is one vertex of a compiled rule AST. Canonical rendering via
// String forms cache keys; the dynamic flag marks sub-trees that read
// live portfolio state and therefore must never be cached.
type node interface {
	String() string
	isDynamic() bool
	tok() token
}

type numberNode struct {
	value float64
	token token
}

func (n *numberNode) String() string {
	return strconv.FormatFloat(n.value, 'g', -1, 64)
}
func (n *numberNode) isDynamic() bool { return false }
func (n *numberNode) tok() token      { return n.token }

// identNode resolves either to a raw price field or to a dynamic
// portfolio variable, decided at compile time.
type identNode struct {
	name    string
	dynamic bool
	token   token
}

func (n *identNode) String() string  { return n.name }
func (n *identNode) isDynamic() bool { return n.dynamic }
func (n *identNode) tok() token      { return n.token }

// callNode is an indicator invocation: name(field, args...).
type callNode struct {
	name  string // canonical upper-case
	field string // raw field the indicator reads
	args  []node // remaining positional args
	token token
}

func (n *callNode) String() string {
	var b strings.Builder
	b.WriteString(n.name)
	b.WriteByte('(')
	b.WriteString(n.field)
	for _, a := range n.args {
		b.WriteByte(',')
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	return b.String()
}

func (n *callNode) isDynamic() bool {
	for _, a := range n.args {
		if a.isDynamic() {
			return true
		}
	}
	return false
}
func (n *callNode) tok() token { return n.token }

// refNode shifts any sub-expression N bars into the past.
type refNode struct {
	expr   node
	period node
	token  token
}

func (n *refNode) String() string {
	return "REF(" + n.expr.String() + "," + n.period.String() + ")"
}
func (n *refNode) isDynamic() bool { return n.expr.isDynamic() || n.period.isDynamic() }
func (n *refNode) tok() token      { return n.token }

// unaryNode covers logical not and numeric negation.
type unaryNode struct {
	op    tokenKind
	child node
	token token
}

func (n *unaryNode) String() string  { return n.op.String() + n.child.String() }
func (n *unaryNode) isDynamic() bool { return n.child.isDynamic() }
func (n *unaryNode) tok() token      { return n.token }

// binaryNode covers arithmetic, comparison and boolean combinators.
type binaryNode struct {
	op    tokenKind
	left  node
	right node
	token token
}

func (n *binaryNode) String() string {
	return "(" + n.left.String() + n.op.String() + n.right.String() + ")"
}
func (n *binaryNode) isDynamic() bool { return n.left.isDynamic() || n.right.isDynamic() }
func (n *binaryNode) tok() token      { return n.token }
