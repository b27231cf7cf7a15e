package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance represents one asset of the futures wallet
type Balance struct {
	Asset            string          `json:"asset"`
	Balance          decimal.Decimal `json:"balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
}

// AccountTrade represents one executed trade on the account
type AccountTrade struct {
	ID          int64           `json:"id"`
	OrderID     string          `json:"order_id"`
	Symbol      string          `json:"symbol"`
	Side        OrderSide       `json:"side"`
	Qty         decimal.Decimal `json:"qty"`
	Price       decimal.Decimal `json:"price"`
	RealizedPnl decimal.Decimal `json:"realized_pnl"`
	Commission  decimal.Decimal `json:"commission"`
	Time        int64           `json:"time"` // epoch milliseconds
}

// Timestamp converts the exchange epoch milliseconds to a time.Time
func (t AccountTrade) Timestamp() time.Time {
	return time.UnixMilli(t.Time)
}

