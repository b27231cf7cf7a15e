package cli

import (
	"testing"
	"time"

	"futuresbot/internal/account"
	"futuresbot/internal/indicators"
	"futuresbot/internal/orders"
	"futuresbot/internal/types"
	"futuresbot/pkg/trading"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRenderOutcome(t *testing.T) {
	tests := []struct {
		status  types.OrderStatus
		verdict string
	}{
		{status: types.OrderStatusFilled, verdict: "Order executed successfully!"},
		{status: types.OrderStatusTimeout, verdict: "Order not filled within timeout"},
		{status: types.OrderStatusCancelledByCaller, verdict: "Tracking stopped"},
		{status: types.OrderStatusNew, verdict: "Order accepted with status NEW"},
		{status: types.OrderStatusRejected, verdict: "Final Status: REJECTED"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			out := RenderOutcome(types.OrderOutcome{
				OrderID:     "283194212",
				Status:      tt.status,
				ExecutedQty: decimal.RequireFromString("0.01"),
				AvgPrice:    decimal.RequireFromString("50000"),
			})

			assert.Contains(t, out, "Order Result")
			assert.Contains(t, out, "283194212")
			assert.Contains(t, out, "0.01")
			assert.Contains(t, out, "50000")
			assert.Contains(t, out, tt.verdict)
		})
	}
}

func TestRenderErrorKindsAreDistinct(t *testing.T) {
	apiErr := &trading.APIError{StatusCode: 400, Code: -2019, Message: "Margin is insufficient."}
	netErr := &trading.NetworkError{Op: "POST /fapi/v1/order", Err: errors.New("connection refused")}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "input",
			err:  &InputError{Field: "symbol", Message: "must be a valid USDT pair (e.g., BTCUSDT)"},
			want: "Validation Error: symbol: must be a valid USDT pair",
		},
		{
			name: "order validation",
			err:  &orders.Error{Kind: orders.KindValidation, Op: "validate", Err: errors.New("quantity must be positive, got 0")},
			want: "Validation Error: quantity must be positive",
		},
		{
			name: "submission rejected by exchange",
			err:  &orders.Error{Kind: orders.KindSubmission, Op: "create order", Err: apiErr},
			want: "Binance API Error: Margin is insufficient. (code -2019)",
		},
		{
			name: "submission network failure",
			err:  &orders.Error{Kind: orders.KindSubmission, Op: "create order", Err: netErr},
			want: "Network Error. Check connection.",
		},
		{
			name: "submission without id",
			err:  &orders.Error{Kind: orders.KindSubmission, Op: "create order", Err: errors.New("response has no order id")},
			want: "Order submission failed: response has no order id",
		},
		{
			name: "tracking",
			err:  &orders.Error{Kind: orders.KindTracking, Op: "get order", OrderID: "42", Err: netErr},
			want: "Order 42 was placed but its status could not be confirmed",
		},
		{
			name: "no usdt",
			err:  errors.Wrap(account.ErrNoUSDTBalance, "balance"),
			want: "No USDT balance found",
		},
		{
			name: "unexpected",
			err:  errors.New("boom"),
			want: "Unexpected error occurred. Check logs.",
		},
	}

	seen := make(map[string]bool)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderError(tt.err)
			assert.Contains(t, out, tt.want)
			assert.False(t, seen[out], "rendering collides with another kind")
			seen[out] = true
		})
	}
}

func TestRenderAccountViews(t *testing.T) {
	balance := RenderBalance(&account.USDTBalance{
		Asset:            "USDT",
		WalletBalance:    decimal.RequireFromString("1200.5"),
		AvailableBalance: decimal.RequireFromString("1100.25"),
	})
	assert.Contains(t, balance, "Futures Balance")
	assert.Contains(t, balance, "1200.5")
	assert.Contains(t, balance, "1100.25")

	assert.Contains(t, RenderPositions(nil), "No open positions.")
	positions := RenderPositions([]account.OpenPosition{{
		Symbol:           "BTCUSDT",
		Side:             types.PositionTypeShort,
		PositionAmt:      decimal.RequireFromString("-0.01"),
		EntryPrice:       decimal.RequireFromString("51000"),
		UnrealizedProfit: decimal.RequireFromString("10"),
		Leverage:         20,
	}})
	assert.Contains(t, positions, "BTCUSDT")
	assert.Contains(t, positions, "SHORT")
	assert.Contains(t, positions, "-0.01")
	assert.Contains(t, positions, "20x")

	assert.Contains(t, RenderTrades(nil), "No trades found.")
	trades := RenderTrades([]account.TradeRecord{{
		Symbol:      "ETHUSDT",
		Side:        types.OrderSideBuy,
		Quantity:    decimal.RequireFromString("0.5"),
		Price:       decimal.RequireFromString("3000"),
		RealizedPnl: decimal.Zero,
		Time:        time.Now(),
	}})
	assert.Contains(t, trades, "Trade History")
	assert.Contains(t, trades, "ETHUSDT")
	assert.Contains(t, trades, "3000")
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary(&indicators.Summary{
		Symbol:    "BTCUSDT",
		Candles:   120,
		LastClose: 62000.5,
		RSI:       55.25,
	})

	assert.Contains(t, out, "BTCUSDT Indicators")
	assert.Contains(t, out, "120")
	assert.Contains(t, out, "62000.5000")
	assert.Contains(t, out, "55.2500")
}
