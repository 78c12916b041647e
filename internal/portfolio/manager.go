package portfolio

import (
	"fmt"
	"time"

	"github.com/leminhbao/stock-rule-bot/internal/logger"
	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

// Manager owns cash, positions, the equity curve and drawdown tracking
// for one run. All mutation goes through Apply and Mark; every other
// component reads immutable snapshots.
type Manager struct {
	cash           float64
	initialCapital float64
	positions      map[string]*types.Position

	peakEquity  float64
	maxDrawdown float64
	lastTime    time.Time

	equityCurve []types.EquityRecord
	trades      []types.Trade

	wins   int
	losses int

	log *logger.Logger
}

// NewManager starts a portfolio with the given capital fully in cash.
func NewManager(initialCapital float64, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.NewDiscardLogger()
	}
	return &Manager{
		cash:           initialCapital,
		initialCapital: initialCapital,
		positions:      make(map[string]*types.Position),
		peakEquity:     initialCapital,
		log:            log,
	}
}

// Apply commits a fill to the book. BUY fills blend into the weighted
// average cost; SELL fills realize P&L against it and leave the average
// cost of the remainder unchanged.
func (m *Manager) Apply(fill types.Fill) error {
	if fill.Quantity <= 0 {
		return fmt.Errorf("fill for %s has no quantity", fill.Order.Symbol)
	}
	symbol := fill.Order.Symbol
	m.lastTime = fill.Timestamp

	trade := types.Trade{
		Symbol:     symbol,
		Side:       fill.Order.Side,
		Quantity:   fill.Quantity,
		Price:      fill.Price,
		Commission: fill.Commission,
		StrategyID: fill.Order.StrategyID,
		Timestamp:  fill.Timestamp,
	}

	switch fill.Order.Side {
	case types.SideBuy:
		cost := fill.Value() + fill.Commission
		if cost > m.cash+1e-9 {
			return fmt.Errorf("fill for %s costs %.2f with only %.2f cash", symbol, cost, m.cash)
		}
		pos, ok := m.positions[symbol]
		if !ok {
			pos = &types.Position{Symbol: symbol}
			m.positions[symbol] = pos
		}
		total := float64(pos.Quantity)*pos.AvgCost + fill.Value()
		pos.Quantity += fill.Quantity
		pos.AvgCost = total / float64(pos.Quantity)
		pos.LastPrice = fill.Price
		m.cash -= cost
		m.log.Trade("💰 BUY %s %d @ %.3f (avg cost %.3f, cash %.2f)",
			symbol, fill.Quantity, fill.Price, pos.AvgCost, m.cash)

	case types.SideSell:
		pos, ok := m.positions[symbol]
		if !ok || pos.Quantity < fill.Quantity {
			return fmt.Errorf("fill sells %d %s but only %d held", fill.Quantity, symbol, m.holding(symbol))
		}
		pnl := (fill.Price-pos.AvgCost)*float64(fill.Quantity) - fill.Commission
		trade.RealizedPnL = pnl
		if pnl >= 0 {
			m.wins++
		} else {
			m.losses++
		}
		pos.Quantity -= fill.Quantity
		pos.LastPrice = fill.Price
		m.cash += fill.Value() - fill.Commission
		if pos.Quantity == 0 {
			delete(m.positions, symbol)
		}
		m.log.Trade("💵 SELL %s %d @ %.3f (pnl %.2f, cash %.2f)",
			symbol, fill.Quantity, fill.Price, pnl, m.cash)
	}

	m.trades = append(m.trades, trade)
	m.updateDrawdown()
	return nil
}

// Mark revalues a symbol's position at the latest close. Called on every
// bar so equity reflects current prices even without trades.
func (m *Manager) Mark(symbol string, price float64, at time.Time) {
	m.lastTime = at
	if pos, ok := m.positions[symbol]; ok && price > 0 {
		pos.LastPrice = price
	}
	m.updateDrawdown()
}

// RecordEquity appends one equity observation, once per simulated bar.
func (m *Manager) RecordEquity(at time.Time) types.EquityRecord {
	equity := m.Equity()
	positionsValue := equity - m.cash

	rec := types.EquityRecord{
		Timestamp:      at,
		TotalValue:     equity,
		Cash:           m.cash,
		PositionsValue: positionsValue,
		ReturnPct:      (equity - m.initialCapital) / m.initialCapital,
		DrawdownPct:    m.drawdown(equity),
		PeakValue:      m.peakEquity,
	}
	m.equityCurve = append(m.equityCurve, rec)
	return rec
}

// Snapshot returns an immutable copy of the current book for sizing and
// risk decisions.
func (m *Manager) Snapshot() types.Snapshot {
	positions := make(map[string]types.Position, len(m.positions))
	for sym, pos := range m.positions {
		positions[sym] = *pos
	}
	return types.Snapshot{
		Cash:           m.cash,
		InitialCapital: m.initialCapital,
		Positions:      positions,
		PeakEquity:     m.peakEquity,
		MaxDrawdown:    m.maxDrawdown,
		Timestamp:      m.lastTime,
	}
}

// Equity returns cash plus the mark value of all positions.
func (m *Manager) Equity() float64 {
	total := m.cash
	for _, pos := range m.positions {
		total += pos.MarkValue()
	}
	return total
}

// Cash returns the current cash balance.
func (m *Manager) Cash() float64 { return m.cash }

// InitialCapital returns the starting capital.
func (m *Manager) InitialCapital() float64 { return m.initialCapital }

// MaxDrawdown returns the deepest peak-to-trough decline seen so far.
func (m *Manager) MaxDrawdown() float64 { return m.maxDrawdown }

// EquityCurve returns the recorded equity history in bar order.
func (m *Manager) EquityCurve() []types.EquityRecord { return m.equityCurve }

// Trades returns the trade log in execution order.
func (m *Manager) Trades() []types.Trade { return m.trades }

// WinRate returns the share of closed trades with non-negative realized
// P&L. Zero when nothing closed yet.
func (m *Manager) WinRate() float64 {
	closed := m.wins + m.losses
	if closed == 0 {
		return 0
	}
	return float64(m.wins) / float64(closed)
}

// DynamicValue exposes live portfolio state to rule expressions. These
// identifiers re-resolve on every evaluation and are never cached by the
// rule engine.
func (m *Manager) DynamicValue(name string) (float64, error) {
	switch name {
	case "cash":
		return m.cash, nil
	case "equity":
		return m.Equity(), nil
	case "initial_capital":
		return m.initialCapital, nil
	default:
		return 0, fmt.Errorf("unknown dynamic variable: %q", name)
	}
}

// SymbolDynamics binds the per-symbol dynamic variables (position_size,
// avg_cost) to one symbol, layered over the portfolio-wide ones.
func (m *Manager) SymbolDynamics(symbol string) *SymbolDynamics {
	return &SymbolDynamics{manager: m, symbol: symbol}
}

// SymbolDynamics resolves dynamic rule variables in the context of one
// symbol.
type SymbolDynamics struct {
	manager *Manager
	symbol  string
}

// DynamicValue implements the rule engine's dynamic variable provider.
func (d *SymbolDynamics) DynamicValue(name string) (float64, error) {
	switch name {
	case "position_size":
		return float64(d.manager.holding(d.symbol)), nil
	case "avg_cost":
		if pos, ok := d.manager.positions[d.symbol]; ok {
			return pos.AvgCost, nil
		}
		return 0, nil
	default:
		return d.manager.DynamicValue(name)
	}
}

func (m *Manager) holding(symbol string) int64 {
	if pos, ok := m.positions[symbol]; ok {
		return pos.Quantity
	}
	return 0
}

func (m *Manager) updateDrawdown() {
	equity := m.Equity()
	if equity > m.peakEquity {
		m.peakEquity = equity
	}
	if dd := m.drawdown(equity); dd > m.maxDrawdown {
		m.maxDrawdown = dd
	}
}

func (m *Manager) drawdown(equity float64) float64 {
	if m.peakEquity <= 0 {
		return 0
	}
	dd := (m.peakEquity - equity) / m.peakEquity
	if dd < 0 {
		return 0
	}
	return dd
}
