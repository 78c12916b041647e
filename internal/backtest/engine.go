package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"

	"github.com/leminhbao/stock-rule-bot/internal/config"
	"github.com/leminhbao/stock-rule-bot/internal/event"
	"github.com/leminhbao/stock-rule-bot/internal/exchange"
	"github.com/leminhbao/stock-rule-bot/internal/indicators"
	"github.com/leminhbao/stock-rule-bot/internal/logger"
	"github.com/leminhbao/stock-rule-bot/internal/monitoring"
	"github.com/leminhbao/stock-rule-bot/internal/portfolio"
	"github.com/leminhbao/stock-rule-bot/internal/risk"
	"github.com/leminhbao/stock-rule-bot/internal/sizing"
	"github.com/leminhbao/stock-rule-bot/internal/strategy"
	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

// State is the engine's run lifecycle phase.
type State int

const (
	StateInit State = iota
	StateRunning
	StateFinished
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateRunning:
		return "RUNNING"
	case StateFinished:
		return "FINISHED"
	case StateErrored:
		return "ERRORED"
	default:
		return "UNKNOWN"
	}
}

// Handler processes one event. Handlers for the same kind run in
// registration order.
type Handler func(ev event.Event) error

// Engine drives one backtest run: it advances simulated time bar by
// bar, emits market-data and schedule events, drains the queue until
// empty, and records one equity observation per bar. A run is strictly
// sequential; the engine owns all of its state exclusively.
type Engine struct {
	cfg    *config.Config
	log    *logger.Logger
	runID  string
	panels map[string]*types.Panel

	queue    *event.Queue
	handlers map[event.Kind][]Handler

	book       *portfolio.Manager
	trader     exchange.Trader
	risk       *risk.Manager
	sizer      sizing.Sizer
	strategies []strategy.Strategy

	// budgets tracks the cash each symbol may still spend, seeded from
	// its capital allocation. Fills move cash between a symbol's budget
	// and its position; symbols never dip into each other's share.
	budgets map[string]float64

	metrics *monitoring.Metrics

	state     State
	errors    []string
	lastMonth time.Month
	lastYear  int
}

// NewEngine wires a run from configuration and fully materialized
// panels. Rule compilation happens here, so a malformed expression
// fails before the first bar.
func NewEngine(cfg *config.Config, panels map[string]*types.Panel, log *logger.Logger) (*Engine, error) {
	if log == nil {
		log = logger.NewDiscardLogger()
	}
	if len(panels) == 0 {
		return nil, fmt.Errorf("no price panels supplied")
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run id: %w", err)
	}

	sizer, err := sizing.New(cfg.Sizing, cfg.LotSize)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		log:      log,
		runID:    id.String(),
		panels:   panels,
		queue:    event.NewQueue(),
		handlers: make(map[event.Kind][]Handler),
		book:     portfolio.NewManager(cfg.InitialCapital, log),
		trader:   exchange.NewSimTrader(cfg.Commission, cfg.Slippage),
		risk:     risk.NewManager(cfg.Risk, cfg.Commission, cfg.LotSize, log),
		sizer:    sizer,
		budgets:  make(map[string]float64, len(cfg.Symbols)),
		state:    StateInit,
	}
	for i, sc := range cfg.Symbols {
		e.budgets[sc.Symbol] = cfg.Allocation(i)
	}

	if err := e.buildStrategies(); err != nil {
		return nil, err
	}

	e.RegisterHandler(event.KindMarketData, e.dispatchMarketData)
	e.RegisterHandler(event.KindSchedule, e.dispatchSchedule)
	e.RegisterHandler(event.KindSignal, e.handleSignal)
	e.RegisterHandler(event.KindOrder, e.handleOrder)
	e.RegisterHandler(event.KindFill, e.handleFill)
	return e, nil
}

func (e *Engine) buildStrategies() error {
	svc := indicators.NewService()
	for i, sc := range e.cfg.Symbols {
		panel, ok := e.panels[sc.Symbol]
		if !ok {
			return fmt.Errorf("no panel for configured symbol %s", sc.Symbol)
		}

		rs, err := strategy.NewRuleStrategy(
			fmt.Sprintf("rule-%s", sc.Symbol),
			sc.Symbol,
			panel,
			svc,
			e.book.SymbolDynamics(sc.Symbol),
			e.cfg.BuyRule,
			e.cfg.SellRule,
		)
		if err != nil {
			return err
		}
		e.strategies = append(e.strategies, rs)

		if e.cfg.MonthlyInvestment > 0 {
			amount := e.cfg.MonthlyInvestment * e.allocationShare(i)
			e.strategies = append(e.strategies, strategy.NewScheduleStrategy(
				fmt.Sprintf("monthly-%s", sc.Symbol),
				sc.Symbol,
				amount,
				e.cfg.LotSize,
				panel,
			))
		}
	}
	return nil
}

// allocationShare returns the i-th symbol's fraction of capital.
func (e *Engine) allocationShare(i int) float64 {
	if pct := e.cfg.Symbols[i].AllocationPct; pct > 0 {
		return pct
	}
	return 1 / float64(len(e.cfg.Symbols))
}

// RegisterHandler appends a handler for an event kind. Registration
// order is execution order.
func (e *Engine) RegisterHandler(kind event.Kind, h Handler) {
	e.handlers[kind] = append(e.handlers[kind], h)
}

// SetMetrics attaches run counters. Optional; a nil metrics sink is
// simply skipped.
func (e *Engine) SetMetrics(m *monitoring.Metrics) { e.metrics = m }

// State returns the engine's lifecycle phase.
func (e *Engine) State() State { return e.state }

// RunID returns the unique identifier of this run.
func (e *Engine) RunID() string { return e.runID }

// Run replays the panels chronologically and returns the results
// snapshot. A fatal data error transitions to ERRORED but still
// returns the partial results accumulated so far. Cancellation via ctx
// is honored between bars, never mid-bar.
func (e *Engine) Run(ctx context.Context) (*Results, error) {
	if e.state != StateInit {
		return nil, fmt.Errorf("engine already ran (state %s)", e.state)
	}
	e.state = StateRunning
	started := time.Now()
	e.log.Status("🚀 Run %s started: %d symbol(s), capital %.2f", e.runID, len(e.panels), e.cfg.InitialCapital)

	bars := 0
	for {
		if err := ctx.Err(); err != nil {
			e.state = StateErrored
			e.recordError(fmt.Sprintf("run cancelled: %v", err))
			return e.observe(e.results(started, bars)), err
		}

		advanced, ts, err := e.advanceClock()
		if err != nil {
			e.state = StateErrored
			e.recordError(err.Error())
			e.log.Error("💥 Fatal: %v", err)
			return e.observe(e.results(started, bars)), err
		}
		if len(advanced) == 0 {
			break // all panels exhausted
		}

		e.emitBarEvents(advanced, ts)
		e.drain()
		e.markAndRecord(advanced, ts)
		bars++
	}

	if bars == 0 {
		e.state = StateErrored
		err := fmt.Errorf("no bars to process")
		e.recordError(err.Error())
		return e.observe(e.results(started, bars)), err
	}

	e.state = StateFinished
	res := e.observe(e.results(started, bars))
	e.log.Status("✅ Run %s finished: %d bars, %d trades, return %.2f%%",
		e.runID, bars, len(res.Trades), res.TotalReturn*100)
	return res, nil
}

func (e *Engine) observe(res *Results) *Results {
	if e.metrics != nil {
		e.metrics.ObserveRun(res.Duration, len(res.Trades), e.state == StateErrored)
	}
	return res
}

// advanceClock moves every panel whose next bar carries the earliest
// pending timestamp. Returns the advanced symbols with their bars.
func (e *Engine) advanceClock() (map[string]types.OHLCV, time.Time, error) {
	var next time.Time
	found := false
	for _, panel := range e.panels {
		i := panel.Cursor() + 1
		if i >= panel.Len() {
			continue
		}
		ts, err := panel.TimestampAt(i)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("data cursor failed: %w", err)
		}
		if !found || ts.Before(next) {
			next = ts
			found = true
		}
	}
	if !found {
		return nil, time.Time{}, nil
	}

	advanced := make(map[string]types.OHLCV)
	for symbol, panel := range e.panels {
		i := panel.Cursor() + 1
		if i >= panel.Len() {
			continue
		}
		ts, err := panel.TimestampAt(i)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("data cursor failed: %w", err)
		}
		if ts.Equal(next) {
			bar, err := panel.Advance()
			if err != nil {
				return nil, time.Time{}, fmt.Errorf("data cursor failed for %s: %w", symbol, err)
			}
			advanced[symbol] = bar
		}
	}
	return advanced, next, nil
}

// emitBarEvents queues the bar's market-data events, then a schedule
// tick when the simulated month rolls over. FIFO ordering within the
// timestamp guarantees strategies see the bar before the tick.
func (e *Engine) emitBarEvents(advanced map[string]types.OHLCV, ts time.Time) {
	for _, sc := range e.cfg.Symbols {
		bar, ok := advanced[sc.Symbol]
		if !ok {
			continue
		}
		e.queue.Push(event.MarketData{
			Symbol: sc.Symbol,
			Bar:    bar,
			Index:  e.panels[sc.Symbol].Cursor(),
		})
	}

	if e.cfg.MonthlyInvestment > 0 {
		if ts.Year() != e.lastYear || ts.Month() != e.lastMonth {
			e.queue.Push(event.Schedule{Name: "monthly", Time: ts})
		}
	}
	e.lastYear, e.lastMonth = ts.Year(), ts.Month()
}

// drain processes queued events until none remain. Handler errors are
// recoverable: they go to the run's error list and processing moves on.
func (e *Engine) drain() {
	for e.queue.Len() > 0 {
		ev := e.queue.Pop()
		for _, h := range e.handlers[ev.Kind()] {
			if err := h(ev); err != nil {
				e.recordError(fmt.Sprintf("%s at %s: %v", ev.Kind(), ev.When().Format("2006-01-02"), err))
				e.log.Warning("⚠️ %s handler: %v", ev.Kind(), err)
			}
		}
	}
}

// markAndRecord revalues advanced symbols at their closes and appends
// the bar's equity observation.
func (e *Engine) markAndRecord(advanced map[string]types.OHLCV, ts time.Time) {
	for symbol, bar := range advanced {
		e.book.Mark(symbol, bar.Close, ts)
	}
	e.book.RecordEquity(ts)
}

func (e *Engine) dispatchMarketData(ev event.Event) error {
	md := ev.(event.MarketData)
	for _, s := range e.strategies {
		signals, err := s.OnMarketData(md)
		if err != nil {
			// One strategy's bad bar never stops the run or the other
			// strategies.
			e.recordError(fmt.Sprintf("strategy %s: %v", s.ID(), err))
			e.log.Warning("⚠️ Strategy %s: %v", s.ID(), err)
			continue
		}
		for _, sig := range signals {
			e.queue.Push(event.Signal{Signal: sig})
		}
	}
	return nil
}

func (e *Engine) dispatchSchedule(ev event.Event) error {
	sc := ev.(event.Schedule)
	for _, s := range e.strategies {
		signals, err := s.OnSchedule(sc)
		if err != nil {
			e.recordError(fmt.Sprintf("strategy %s: %v", s.ID(), err))
			continue
		}
		for _, sig := range signals {
			e.queue.Push(event.Signal{Signal: sig})
		}
	}
	return nil
}

// handleSignal translates intent into a sized, risk-validated order.
func (e *Engine) handleSignal(ev event.Event) error {
	sig := ev.(event.Signal).Signal
	panel, ok := e.panels[sig.Symbol]
	if !ok {
		return fmt.Errorf("signal for unknown symbol %s", sig.Symbol)
	}
	bar, err := panel.Current()
	if err != nil {
		return err
	}

	delta := e.sizer.Size(sig, e.budgetSnapshot(sig.Symbol), bar.Close)
	if delta == 0 {
		return nil
	}

	order := types.Order{
		Symbol:     sig.Symbol,
		Side:       types.SideBuy,
		Quantity:   delta,
		Price:      bar.Close,
		StrategyID: sig.StrategyID,
		Timestamp:  sig.Timestamp,
	}
	if delta < 0 {
		order.Side = types.SideSell
		order.Quantity = -delta
	}

	verdict := e.risk.Validate(order, e.book.Snapshot())
	switch verdict.Decision {
	case risk.Rejected:
		// Logged by the risk manager; a rejection is not a run error.
		return nil
	case risk.Adjusted:
		e.log.Info("📏 %s %s sized %d, risk allows %d", order.Side, order.Symbol, verdict.Original, verdict.Order.Quantity)
	}

	e.queue.Push(event.Order{Order: verdict.Order})
	return nil
}

// handleOrder simulates the fill at the current bar.
func (e *Engine) handleOrder(ev event.Event) error {
	order := ev.(event.Order).Order
	bar, err := e.panels[order.Symbol].Current()
	if err != nil {
		return err
	}
	fill, err := e.trader.Execute(order, bar)
	if err != nil {
		return err
	}
	e.queue.Push(event.Fill{Fill: fill})
	return nil
}

// budgetSnapshot caps the cash visible to the sizer at the symbol's
// remaining allocation. Portfolio-wide exposure ceilings still see the
// real snapshot in the risk manager.
func (e *Engine) budgetSnapshot(symbol string) types.Snapshot {
	snap := e.book.Snapshot()
	budget, ok := e.budgets[symbol]
	if !ok {
		return snap
	}
	if budget < 0 {
		budget = 0
	}
	if budget < snap.Cash {
		snap.Cash = budget
	}
	return snap
}

// handleFill commits the fill to the book and settles the symbol's
// cash budget.
func (e *Engine) handleFill(ev event.Event) error {
	fill := ev.(event.Fill).Fill
	if err := e.book.Apply(fill); err != nil {
		return err
	}
	if _, ok := e.budgets[fill.Order.Symbol]; ok {
		if fill.Order.Side == types.SideBuy {
			e.budgets[fill.Order.Symbol] -= fill.Value() + fill.Commission
		} else {
			e.budgets[fill.Order.Symbol] += fill.Value() - fill.Commission
		}
	}
	return nil
}

func (e *Engine) recordError(msg string) {
	e.errors = append(e.errors, msg)
}
