package rule

import (
	"fmt"
	"strconv"

	"github.com/leminhbao/stock-rule-bot/internal/indicators"
	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

// DynamicProvider resolves portfolio-dynamic variables (current
// position size, average cost, cash, equity) at evaluation time. These
// reads go against live state and are re-resolved on every evaluation.
type DynamicProvider interface {
	DynamicValue(name string) (float64, error)
}

// Expression is a compiled rule bound to the evaluator that produced it.
type Expression struct {
	Text    string
	root    node
	dynamic bool
}

// Dynamic reports whether any sub-expression reads live portfolio state.
func (e *Expression) Dynamic() bool { return e.dynamic }

// value is the result of evaluating one AST node: either a number or a
// boolean, never silently converted between the two.
type value struct {
	num    float64
	b      bool
	isBool bool
}

func numVal(f float64) value { return value{num: f} }
func boolVal(b bool) value   { return value{b: b, isBool: true} }

// Evaluator compiles and evaluates rule expressions against one price
// panel. It owns the static-value cache; an evaluator must not outlive
// the panel it was built for.
type Evaluator struct {
	panel    *types.Panel
	service  *indicators.Service
	dynamics DynamicProvider

	// fieldSeries grows with the cursor; bars past the cursor are
	// never materialized here.
	fieldSeries map[string][]float64

	// valueCache memoizes static call sub-trees by canonical text and
	// bar index. Dynamic sub-trees never enter this map.
	valueCache map[string]value
}

// NewEvaluator creates an evaluator bound to a panel. The dynamics
// provider may be nil for purely static rules.
func NewEvaluator(panel *types.Panel, service *indicators.Service, dynamics DynamicProvider) *Evaluator {
	return &Evaluator{
		panel:       panel,
		service:     service,
		dynamics:    dynamics,
		fieldSeries: make(map[string][]float64),
		valueCache:  make(map[string]value),
	}
}

// evalContext implements compileContext with real name resolution.
func (ev *Evaluator) isField(name string) bool {
	_, ok := types.OHLCV{}.FieldValue(name)
	return ok
}

func (ev *Evaluator) isIndicator(name string) bool {
	return ev.service.Supported(name)
}

// Compile parses and resolves an expression once. The returned
// Expression can be evaluated at any bar at or before the panel cursor.
func (ev *Evaluator) Compile(src string) (*Expression, error) {
	if err := ValidateSyntax(src); err != nil {
		return nil, err
	}
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, ctx: ev}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return &Expression{Text: src, root: root, dynamic: root.isDynamic()}, nil
}

// EvalBool evaluates a rule at the given bar index. The expression must
// yield a boolean; a bare numeric result is a type error, not a truthy
// value.
func (ev *Evaluator) EvalBool(expr *Expression, index int) (bool, error) {
	v, err := ev.eval(expr.root, index)
	if err != nil {
		return false, evalErr(expr.Text, index, "evaluation failed", err)
	}
	if !v.isBool {
		return false, evalErr(expr.Text, index, "rule must evaluate to a boolean, got a number", nil)
	}
	return v.b, nil
}

// EvalNumber evaluates a numeric expression at the given bar index.
func (ev *Evaluator) EvalNumber(expr *Expression, index int) (float64, error) {
	v, err := ev.eval(expr.root, index)
	if err != nil {
		return 0, evalErr(expr.Text, index, "evaluation failed", err)
	}
	if v.isBool {
		return 0, evalErr(expr.Text, index, "expression must evaluate to a number, got a boolean", nil)
	}
	return v.num, nil
}

// EvalSeries evaluates a boolean rule over bars [from, to] inclusive,
// producing one result per bar. Bar-for-bar this agrees with repeated
// EvalBool calls; both paths share the same cache.
func (ev *Evaluator) EvalSeries(expr *Expression, from, to int) ([]bool, error) {
	if from < 0 || to < from {
		return nil, fmt.Errorf("invalid series range [%d,%d]", from, to)
	}
	out := make([]bool, 0, to-from+1)
	for i := from; i <= to; i++ {
		b, err := ev.EvalBool(expr, i)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// ClearCache drops all memoized values, including the indicator
// service's cache. Call between runs or when switching instruments.
func (ev *Evaluator) ClearCache() {
	ev.fieldSeries = make(map[string][]float64)
	ev.valueCache = make(map[string]value)
	ev.service.Reset()
}

func (ev *Evaluator) eval(n node, index int) (value, error) {
	switch n := n.(type) {
	case *numberNode:
		return numVal(n.value), nil

	case *identNode:
		if n.dynamic {
			if ev.dynamics == nil {
				return value{}, fmt.Errorf("dynamic variable %q: no portfolio bound to evaluator", n.name)
			}
			v, err := ev.dynamics.DynamicValue(n.name)
			if err != nil {
				return value{}, fmt.Errorf("dynamic variable %q: %w", n.name, err)
			}
			return numVal(v), nil
		}
		v, err := ev.panel.Field(n.name, index)
		if err != nil {
			return value{}, err
		}
		return numVal(v), nil

	case *callNode:
		return ev.evalCall(n, index)

	case *refNode:
		return ev.evalRef(n, index)

	case *unaryNode:
		child, err := ev.eval(n.child, index)
		if err != nil {
			return value{}, err
		}
		switch n.op {
		case tokenNot:
			if !child.isBool {
				return value{}, typeErr(n.child, "'!' requires a boolean operand")
			}
			return boolVal(!child.b), nil
		default: // tokenMinus
			if child.isBool {
				return value{}, typeErr(n.child, "unary '-' requires a numeric operand")
			}
			return numVal(-child.num), nil
		}

	case *binaryNode:
		return ev.evalBinary(n, index)

	default:
		return value{}, fmt.Errorf("unsupported AST node %T", n)
	}
}

func (ev *Evaluator) evalCall(n *callNode, index int) (value, error) {
	cacheable := !n.isDynamic()
	var key string
	if cacheable {
		key = n.String() + "@" + strconv.Itoa(index)
		if v, ok := ev.valueCache[key]; ok {
			return v, nil
		}
	}

	series, err := ev.series(n.field, index)
	if err != nil {
		return value{}, err
	}

	args := make([]float64, len(n.args))
	for i, a := range n.args {
		av, err := ev.eval(a, index)
		if err != nil {
			return value{}, err
		}
		if av.isBool {
			return value{}, typeErr(a, fmt.Sprintf("argument %d of %s must be numeric", i+2, n.name))
		}
		args[i] = av.num
	}

	// The service may be shared across panels, so the cache identity
	// must carry both the symbol and the field the series came from.
	seriesID := ev.panel.Symbol() + "." + n.field
	result, err := ev.service.Calculate(n.name, seriesID, series, index, args...)
	if err != nil {
		return value{}, err
	}

	v := numVal(result)
	if cacheable {
		ev.valueCache[key] = v
	}
	return v, nil
}

func (ev *Evaluator) evalRef(n *refNode, index int) (value, error) {
	pv, err := ev.eval(n.period, index)
	if err != nil {
		return value{}, err
	}
	if pv.isBool {
		return value{}, typeErr(n.period, "REF period must be numeric")
	}
	period := int(pv.num)
	if period < 0 {
		return value{}, typeErr(n.period, "REF period must be non-negative")
	}

	cacheable := !n.isDynamic()
	var key string
	if cacheable {
		key = n.String() + "@" + strconv.Itoa(index)
		if v, ok := ev.valueCache[key]; ok {
			return v, nil
		}
	}

	// Shift into the past, clamped at the first bar. Target is always
	// <= index, so REF can never look ahead.
	target := index - period
	if target < 0 {
		target = 0
	}
	v, err := ev.eval(n.expr, target)
	if err != nil {
		return value{}, err
	}
	if cacheable {
		ev.valueCache[key] = v
	}
	return v, nil
}

func (ev *Evaluator) evalBinary(n *binaryNode, index int) (value, error) {
	left, err := ev.eval(n.left, index)
	if err != nil {
		return value{}, err
	}
	right, err := ev.eval(n.right, index)
	if err != nil {
		return value{}, err
	}

	switch n.op {
	case tokenAnd, tokenOr:
		if !left.isBool {
			return value{}, typeErr(n.left, fmt.Sprintf("'%s' requires boolean operands", n.op))
		}
		if !right.isBool {
			return value{}, typeErr(n.right, fmt.Sprintf("'%s' requires boolean operands", n.op))
		}
		if n.op == tokenAnd {
			return boolVal(left.b && right.b), nil
		}
		return boolVal(left.b || right.b), nil

	case tokenLT, tokenGT, tokenLE, tokenGE, tokenEQ:
		if left.isBool || right.isBool {
			return value{}, typeErr(n, fmt.Sprintf("'%s' requires numeric operands", n.op))
		}
		switch n.op {
		case tokenLT:
			return boolVal(left.num < right.num), nil
		case tokenGT:
			return boolVal(left.num > right.num), nil
		case tokenLE:
			return boolVal(left.num <= right.num), nil
		case tokenGE:
			return boolVal(left.num >= right.num), nil
		default:
			return boolVal(left.num == right.num), nil
		}

	case tokenPlus, tokenMinus, tokenStar, tokenSlash:
		if left.isBool || right.isBool {
			return value{}, typeErr(n, fmt.Sprintf("'%s' requires numeric operands", n.op))
		}
		switch n.op {
		case tokenPlus:
			return numVal(left.num + right.num), nil
		case tokenMinus:
			return numVal(left.num - right.num), nil
		case tokenStar:
			return numVal(left.num * right.num), nil
		default:
			if right.num == 0 {
				return value{}, fmt.Errorf("division by zero in %q", n.String())
			}
			return numVal(left.num / right.num), nil
		}

	default:
		return value{}, fmt.Errorf("unsupported operator %s", n.op)
	}
}

// series returns the named field values for bars [0, index], growing
// the cached slice as the cursor advances.
func (ev *Evaluator) series(field string, index int) ([]float64, error) {
	cached := ev.fieldSeries[field]
	if len(cached) > index {
		return cached[:index+1], nil
	}
	history, err := ev.panel.FieldHistory(field, index)
	if err != nil {
		return nil, err
	}
	ev.fieldSeries[field] = history
	return history, nil
}

func typeErr(n node, msg string) error {
	t := n.tok()
	return fmt.Errorf("type mismatch at position %d near %q: %s", t.pos, t.text, msg)
}
