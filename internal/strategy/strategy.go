package strategy

import (
	"github.com/leminhbao/stock-rule-bot/internal/event"
	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

// Strategy consumes engine events and emits trading signals. A strategy
// returning an error skips its signals for that bar; the engine logs the
// error and the run continues.
type Strategy interface {
	// ID identifies the strategy in signals and the trade log.
	ID() string

	// OnMarketData reacts to a new bar. Returned signals feed sizing and
	// risk validation in order.
	OnMarketData(ev event.MarketData) ([]types.Signal, error)

	// OnSchedule reacts to a periodic trigger such as a monthly tick.
	OnSchedule(ev event.Schedule) ([]types.Signal, error)
}
