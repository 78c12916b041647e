package risk

import (
	"github.com/leminhbao/stock-rule-bot/internal/config"
	"github.com/leminhbao/stock-rule-bot/internal/logger"
	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

// Decision classifies the outcome of validating one order.
type Decision int

const (
	Accepted Decision = iota
	Adjusted
	Rejected
)

func (d Decision) String() string {
	switch d {
	case Accepted:
		return "ACCEPTED"
	case Adjusted:
		return "ADJUSTED"
	case Rejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// Verdict is the result of risk validation. On Adjusted the Order carries
// the shrunk quantity; on Rejected the Order quantity is zero and Reason
// names the binding rule.
type Verdict struct {
	Decision Decision
	Order    types.Order
	Original int64
	Reason   string
}

// Manager validates orders against cash and exposure ceilings before they
// reach execution. It never grows an order, only shrinks it toward the
// binding constraint, so validation is deterministic.
type Manager struct {
	maxPositionPct float64
	maxExposurePct float64
	commission     float64
	lotSize        int64
	log            *logger.Logger
}

// NewManager builds a risk manager from configuration.
func NewManager(cfg config.RiskConfig, commission float64, lotSize int64, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.NewDiscardLogger()
	}
	return &Manager{
		maxPositionPct: cfg.MaxPositionPct,
		maxExposurePct: cfg.MaxExposurePct,
		commission:     commission,
		lotSize:        lotSize,
		log:            log,
	}
}

// Validate applies the risk rules in a fixed order: cash sufficiency,
// held quantity, single-symbol exposure, aggregate exposure. The snapshot
// is read only; nothing here mutates portfolio state.
func (m *Manager) Validate(order types.Order, snap types.Snapshot) Verdict {
	original := order.Quantity

	if order.Quantity <= 0 || order.Price <= 0 {
		return m.reject(order, original, "empty or unpriced order")
	}

	if order.Side == types.SideSell {
		held := snap.Holding(order.Symbol)
		if order.Quantity > held {
			// Oversells are rejected outright, never trimmed to the
			// holding. A strategy asking to sell shares it does not own
			// is a logic error worth surfacing.
			return m.reject(order, original, "sell quantity exceeds holding")
		}
		return Verdict{Decision: Accepted, Order: order, Original: original}
	}

	// Rule 1: the buy plus commission must fit in cash.
	order.Quantity = m.capByCash(order, snap.Cash)
	if order.Quantity == 0 {
		return m.reject(order, original, "insufficient cash")
	}

	// Rule 3: post-trade single-symbol exposure ceiling.
	order.Quantity = m.capByValue(order, m.maxPositionPct*snap.Equity()-snap.Positions[order.Symbol].MarkValue())
	if order.Quantity == 0 {
		return m.reject(order, original, "single-symbol exposure ceiling")
	}

	// Rule 4: post-trade aggregate exposure ceiling.
	order.Quantity = m.capByValue(order, m.maxExposurePct*snap.Equity()-snap.PositionsValue())
	if order.Quantity == 0 {
		return m.reject(order, original, "aggregate exposure ceiling")
	}

	if order.Quantity == original {
		return Verdict{Decision: Accepted, Order: order, Original: original}
	}
	m.log.Warning("⚠️ Risk adjusted %s %s: %d -> %d shares", order.Side, order.Symbol, original, order.Quantity)
	return Verdict{Decision: Adjusted, Order: order, Original: original}
}

// capByCash shrinks a buy so quantity*price*(1+commission) fits in cash.
func (m *Manager) capByCash(order types.Order, cash float64) int64 {
	need := float64(order.Quantity) * order.Price * (1 + m.commission)
	if need <= cash {
		return order.Quantity
	}
	affordable := m.lots(cash / (order.Price * (1 + m.commission)))
	if affordable > order.Quantity {
		affordable = order.Quantity
	}
	return affordable
}

// capByValue shrinks a buy so its notional stays within headroom.
func (m *Manager) capByValue(order types.Order, headroom float64) int64 {
	if headroom <= 0 {
		return 0
	}
	if float64(order.Quantity)*order.Price <= headroom {
		return order.Quantity
	}
	capped := m.lots(headroom / order.Price)
	if capped > order.Quantity {
		capped = order.Quantity
	}
	return capped
}

func (m *Manager) lots(quantity float64) int64 {
	if quantity <= 0 {
		return 0
	}
	return int64(quantity/float64(m.lotSize)) * m.lotSize
}

func (m *Manager) reject(order types.Order, original int64, reason string) Verdict {
	m.log.Warning("❌ Risk rejected %s %s x%d: %s", order.Side, order.Symbol, original, reason)
	order.Quantity = 0
	return Verdict{Decision: Rejected, Order: order, Original: original, Reason: reason}
}
