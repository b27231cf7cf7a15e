package types

import (
	"github.com/shopspring/decimal"
)

// PositionType represents the direction of a position
type PositionType string

const (
	PositionTypeLong  PositionType = "LONG"
	PositionTypeShort PositionType = "SHORT"
	PositionTypeFlat  PositionType = "FLAT"
)

// PositionRisk represents one futures position as reported by the exchange.
// PositionAmt is signed: positive for long, negative for short.
type PositionRisk struct {
	Symbol           string          `json:"symbol"`
	PositionAmt      decimal.Decimal `json:"position_amt"`
	EntryPrice       decimal.Decimal `json:"entry_price"`
	MarkPrice        decimal.Decimal `json:"mark_price"`
	UnrealizedProfit decimal.Decimal `json:"unrealized_profit"`
	Leverage         int             `json:"leverage"`
}

// NewPositionRisk creates an empty position for a symbol
func NewPositionRisk(symbol string, leverage int) *PositionRisk {
	return &PositionRisk{
		Symbol:   symbol,
		Leverage: leverage,
	}
}

// IsOpen returns true if the position holds a non-zero amount
func (p *PositionRisk) IsOpen() bool {
	return !p.PositionAmt.IsZero()
}

// Type returns the direction implied by the signed amount
func (p *PositionRisk) Type() PositionType {
	switch p.PositionAmt.Sign() {
	case 1:
		return PositionTypeLong
	case -1:
		return PositionTypeShort
	}
	return PositionTypeFlat
}

// UpdateMarkPrice updates the mark price and recalculates unrealized PnL
func (p *PositionRisk) UpdateMarkPrice(markPrice decimal.Decimal) {
	p.MarkPrice = markPrice
	p.UnrealizedProfit = markPrice.Sub(p.EntryPrice).Mul(p.PositionAmt)
}

// ApplyFill folds a fill into the position and returns the realized PnL of
// whatever part of the fill reduced the existing position.
func (p *PositionRisk) ApplyFill(side OrderSide, qty, price decimal.Decimal) decimal.Decimal {
	if !qty.IsPositive() {
		return decimal.Zero
	}

	delta := qty
	if side == OrderSideSell {
		delta = qty.Neg()
	}

	realized := decimal.Zero
	current := p.PositionAmt

	switch {
	case current.IsZero() || current.Sign() == delta.Sign():
		// Opening or adding: weighted average entry
		total := current.Add(delta)
		cost := p.EntryPrice.Mul(current.Abs()).Add(price.Mul(delta.Abs()))
		p.EntryPrice = cost.Div(total.Abs())
		p.PositionAmt = total

	default:
		closing := decimal.Min(current.Abs(), delta.Abs())
		direction := decimal.NewFromInt(int64(current.Sign()))
		realized = price.Sub(p.EntryPrice).Mul(closing).Mul(direction)

		p.PositionAmt = current.Add(delta)
		switch {
		case p.PositionAmt.IsZero():
			p.EntryPrice = decimal.Zero
		case p.PositionAmt.Sign() != current.Sign():
			// Flipped through zero; the remainder opens at the fill price
			p.EntryPrice = price
		}
	}

	p.UpdateMarkPrice(price)
	return realized
}
