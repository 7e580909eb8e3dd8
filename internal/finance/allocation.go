package finance

import (
	"github.com/shopspring/decimal"

	"financeiro/internal/core"
)

var two = decimal.NewFromInt(2)

// Split is an amount divided between the two business units.
type Split struct {
	Store     decimal.Decimal `json:"store"`
	Transport decimal.Decimal `json:"transport"`
}

// Total is Store + Transport. It equals the allocated amount only when the
// allocation percentages add up to 100.
func (s Split) Total() decimal.Decimal {
	return s.Store.Add(s.Transport)
}

func (s Split) Add(o Split) Split {
	return Split{Store: s.Store.Add(o.Store), Transport: s.Transport.Add(o.Transport)}
}

// Allocate charges each unit its configured percentage of amount. The two
// sides are computed independently.
func Allocate(amount decimal.Decimal, a core.CostAllocation) Split {
	return Split{
		Store:     core.Percent(amount, a.Store),
		Transport: core.Percent(amount, a.Transport),
	}
}

// SplitByOrigin assigns amount fully to its own unit, or by allocation
// when the origin is shared or unknown.
func SplitByOrigin(amount decimal.Decimal, origin core.Origin, a core.CostAllocation) Split {
	switch origin {
	case core.OriginStore:
		return Split{Store: amount, Transport: decimal.Zero}
	case core.OriginTransport:
		return Split{Store: decimal.Zero, Transport: amount}
	default:
		return Allocate(amount, a)
	}
}

// splitEvenly is used for loan interest, where shared loans are always
// halved regardless of the configured allocation.
func splitEvenly(amount decimal.Decimal, origin core.Origin) Split {
	switch origin {
	case core.OriginTransport:
		return Split{Store: decimal.Zero, Transport: amount}
	case core.OriginShared:
		half := amount.Div(two)
		return Split{Store: half, Transport: half}
	default:
		return Split{Store: amount, Transport: decimal.Zero}
	}
}
