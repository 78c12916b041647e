package strategy

import (
	"fmt"

	"github.com/leminhbao/stock-rule-bot/internal/event"
	"github.com/leminhbao/stock-rule-bot/internal/indicators"
	"github.com/leminhbao/stock-rule-bot/internal/rule"
	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

// RuleStrategy trades one symbol on textual buy and sell expressions.
// Rules compile once at construction, so a malformed expression fails
// the run before any bar is processed.
//
// Per bar the buy rule is checked first; if it fires the sell rule is
// not consulted. Both firing on the same bar would otherwise churn a
// position open and shut inside one bar.
type RuleStrategy struct {
	id     string
	symbol string

	eval *rule.Evaluator
	buy  *rule.Expression
	sell *rule.Expression
}

// NewRuleStrategy compiles the buy and sell rules against the panel.
// Empty rule strings are allowed; an empty rule never fires.
func NewRuleStrategy(id, symbol string, panel *types.Panel, service *indicators.Service, dynamics rule.DynamicProvider, buyRule, sellRule string) (*RuleStrategy, error) {
	s := &RuleStrategy{
		id:     id,
		symbol: symbol,
		eval:   rule.NewEvaluator(panel, service, dynamics),
	}

	var err error
	if buyRule != "" {
		if s.buy, err = s.eval.Compile(buyRule); err != nil {
			return nil, fmt.Errorf("buy rule for %s: %w", symbol, err)
		}
	}
	if sellRule != "" {
		if s.sell, err = s.eval.Compile(sellRule); err != nil {
			return nil, fmt.Errorf("sell rule for %s: %w", symbol, err)
		}
	}
	return s, nil
}

// ID implements Strategy.
func (s *RuleStrategy) ID() string { return s.id }

// OnMarketData implements Strategy. Evaluation errors propagate so the
// engine can log them and continue the run.
func (s *RuleStrategy) OnMarketData(ev event.MarketData) ([]types.Signal, error) {
	if ev.Symbol != s.symbol {
		return nil, nil
	}

	if s.buy != nil {
		fires, err := s.eval.EvalBool(s.buy, ev.Index)
		if err != nil {
			return nil, fmt.Errorf("buy rule at bar %d: %w", ev.Index, err)
		}
		if fires {
			return []types.Signal{s.signal(types.SignalBuy, ev)}, nil
		}
	}

	if s.sell != nil {
		fires, err := s.eval.EvalBool(s.sell, ev.Index)
		if err != nil {
			return nil, fmt.Errorf("sell rule at bar %d: %w", ev.Index, err)
		}
		if fires {
			return []types.Signal{s.signal(types.SignalSell, ev)}, nil
		}
	}
	return nil, nil
}

// OnSchedule implements Strategy. Rule strategies are bar-driven only.
func (s *RuleStrategy) OnSchedule(event.Schedule) ([]types.Signal, error) {
	return nil, nil
}

// ClearCache drops memoized indicator sub-expressions, for reuse of the
// evaluator across runs on the same panel.
func (s *RuleStrategy) ClearCache() {
	s.eval.ClearCache()
}

func (s *RuleStrategy) signal(kind types.SignalType, ev event.MarketData) types.Signal {
	return types.Signal{
		Symbol:     s.symbol,
		Type:       kind,
		Confidence: 1,
		StrategyID: s.id,
		Timestamp:  ev.Bar.Timestamp,
	}
}
