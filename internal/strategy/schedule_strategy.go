package strategy

import (
	"github.com/leminhbao/stock-rule-bot/internal/event"
	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

// ScheduleStrategy invests a fixed cash amount into one symbol on every
// schedule tick, the classic monthly contribution plan. It reads the
// latest close from the panel to translate the amount into shares.
type ScheduleStrategy struct {
	id      string
	symbol  string
	amount  float64
	lotSize int64
	panel   *types.Panel
}

// NewScheduleStrategy returns a fixed-amount periodic investor.
func NewScheduleStrategy(id, symbol string, amount float64, lotSize int64, panel *types.Panel) *ScheduleStrategy {
	return &ScheduleStrategy{
		id:      id,
		symbol:  symbol,
		amount:  amount,
		lotSize: lotSize,
		panel:   panel,
	}
}

// ID implements Strategy.
func (s *ScheduleStrategy) ID() string { return s.id }

// OnMarketData implements Strategy. Contribution plans ignore bars.
func (s *ScheduleStrategy) OnMarketData(event.MarketData) ([]types.Signal, error) {
	return nil, nil
}

// OnSchedule implements Strategy. The signal carries an explicit
// quantity, so the sizing strategy passes it through instead of
// applying its own fraction.
func (s *ScheduleStrategy) OnSchedule(ev event.Schedule) ([]types.Signal, error) {
	bar, err := s.panel.Current()
	if err != nil {
		return nil, err
	}
	if bar.Close <= 0 {
		return nil, nil
	}

	quantity := int64(s.amount/bar.Close/float64(s.lotSize)) * s.lotSize
	if quantity <= 0 {
		return nil, nil
	}
	return []types.Signal{{
		Symbol:     s.symbol,
		Type:       types.SignalBuy,
		Confidence: 1,
		StrategyID: s.id,
		Quantity:   quantity,
		Timestamp:  ev.Time,
	}}, nil
}
