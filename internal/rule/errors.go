package rule

import "fmt"

// ParseError reports a malformed rule expression. Parse errors surface
// before a run starts: a strategy with an invalid rule never trades.
type ParseError struct {
	Pos   int
	Token string
	Msg   string
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("parse error at position %d near %q: %s", e.Pos, e.Token, e.Msg)
	}
	return fmt.Sprintf("parse error at position %d: %s", e.Pos, e.Msg)
}

// EvalError reports a failure during evaluation of a compiled rule at a
// specific bar. These are recoverable: the engine logs them and skips
// the offending strategy for that bar.
type EvalError struct {
	Expr string
	Bar  int
	Msg  string
	Err  error
}

func (e *EvalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("evaluation of %q failed at bar %d: %s: %v", e.Expr, e.Bar, e.Msg, e.Err)
	}
	return fmt.Sprintf("evaluation of %q failed at bar %d: %s", e.Expr, e.Bar, e.Msg)
}

func (e *EvalError) Unwrap() error { return e.Err }

func evalErr(expr string, bar int, msg string, err error) *EvalError {
	return &EvalError{Expr: expr, Bar: bar, Msg: msg, Err: err}
}
