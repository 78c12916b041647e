package event

import (
	"time"

	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

// Kind identifies an event variant in the simulation queue.
type Kind int

const (
	KindMarketData Kind = iota
	KindSchedule
	KindSignal
	KindOrder
	KindFill
	KindSystem
)

func (k Kind) String() string {
	switch k {
	case KindMarketData:
		return "MARKET_DATA"
	case KindSchedule:
		return "SCHEDULE"
	case KindSignal:
		return "SIGNAL"
	case KindOrder:
		return "ORDER"
	case KindFill:
		return "FILL"
	case KindSystem:
		return "SYSTEM"
	default:
		return "UNKNOWN"
	}
}

// Event is one timestamped occurrence in a simulation run.
type Event interface {
	When() time.Time
	Kind() Kind
}

// MarketData announces a new bar for a symbol.
type MarketData struct {
	Symbol string
	Bar    types.OHLCV
	Index  int
}

func (e MarketData) When() time.Time { return e.Bar.Timestamp }
func (e MarketData) Kind() Kind      { return KindMarketData }

// Schedule is a periodic trigger, e.g. a monthly fixed-investment tick.
type Schedule struct {
	Name string
	Time time.Time
}

func (e Schedule) When() time.Time { return e.Time }
func (e Schedule) Kind() Kind      { return KindSchedule }

// Signal carries a strategy's trading intent.
type Signal struct {
	Signal types.Signal
}

func (e Signal) When() time.Time { return e.Signal.Timestamp }
func (e Signal) Kind() Kind      { return KindSignal }

// Order carries a sized, risk-approved instruction.
type Order struct {
	Order types.Order
}

func (e Order) When() time.Time { return e.Order.Timestamp }
func (e Order) Kind() Kind      { return KindOrder }

// Fill carries a simulated execution result.
type Fill struct {
	Fill types.Fill
}

func (e Fill) When() time.Time { return e.Fill.Timestamp }
func (e Fill) Kind() Kind      { return KindFill }

// System carries control or error information.
type System struct {
	Message string
	Err     error
	Time    time.Time
}

func (e System) When() time.Time { return e.Time }
func (e System) Kind() Kind      { return KindSystem }
