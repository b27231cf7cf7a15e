package orders

import (
	"context"
	"testing"

	"futuresbot/internal/types"
	"futuresbot/pkg/trading"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestSubmitRejectsMalformedRequests(t *testing.T) {
	tests := []struct {
		name string
		req  types.OrderRequest
	}{
		{
			name: "limit without price",
			req:  types.OrderRequest{Symbol: "BTCUSDT", Side: types.OrderSideBuy, Type: types.OrderTypeLimit, Quantity: dec("0.01")},
		},
		{
			name: "limit with zero price",
			req:  types.OrderRequest{Symbol: "BTCUSDT", Side: types.OrderSideBuy, Type: types.OrderTypeLimit, Quantity: dec("0.01"), Price: decPtr("0")},
		},
		{
			name: "limit with negative price",
			req:  types.OrderRequest{Symbol: "BTCUSDT", Side: types.OrderSideSell, Type: types.OrderTypeLimit, Quantity: dec("0.01"), Price: decPtr("-1")},
		},
		{
			name: "market with price",
			req:  types.OrderRequest{Symbol: "BTCUSDT", Side: types.OrderSideBuy, Type: types.OrderTypeMarket, Quantity: dec("0.01"), Price: decPtr("50000")},
		},
		{
			name: "zero quantity",
			req:  types.OrderRequest{Symbol: "BTCUSDT", Side: types.OrderSideBuy, Type: types.OrderTypeMarket, Quantity: dec("0")},
		},
		{
			name: "negative quantity",
			req:  types.OrderRequest{Symbol: "BTCUSDT", Side: types.OrderSideSell, Type: types.OrderTypeLimit, Quantity: dec("-0.5"), Price: decPtr("100")},
		},
		{
			name: "unknown side",
			req:  types.OrderRequest{Symbol: "BTCUSDT", Side: "HOLD", Type: types.OrderTypeMarket, Quantity: dec("1")},
		},
		{
			name: "unknown type",
			req:  types.OrderRequest{Symbol: "BTCUSDT", Side: types.OrderSideBuy, Type: "STOP", Quantity: dec("1")},
		},
		{
			name: "empty symbol",
			req:  types.OrderRequest{Side: types.OrderSideBuy, Type: types.OrderTypeMarket, Quantity: dec("1")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeGateway()
			_, err := NewSubmitter(gw).Submit(context.Background(), tt.req)

			require.Error(t, err)
			assert.True(t, IsValidationError(err), "got %v", err)
			create, get := gw.counts()
			assert.Zero(t, create)
			assert.Zero(t, get)
		})
	}
}

func TestSubmitLimitOrderPayload(t *testing.T) {
	gw := newFakeGateway()
	req := types.NewLimitOrderRequest("BTCUSDT", types.OrderSideSell, dec("0.02"), dec("65000.5"))

	submitted, err := NewSubmitter(gw).Submit(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, gw.payloads, 1)
	payload := gw.payloads[0]
	assert.Equal(t, "BTCUSDT", payload.Symbol)
	assert.Equal(t, types.OrderSideSell, payload.Side)
	assert.Equal(t, types.OrderTypeLimit, payload.Type)
	assert.True(t, payload.Quantity.Equal(dec("0.02")))
	require.NotNil(t, payload.Price)
	assert.True(t, payload.Price.Equal(dec("65000.5")))
	assert.Equal(t, types.TimeInForceGTC, payload.TimeInForce)
	assert.NotEmpty(t, payload.ClientOrderID)

	assert.Equal(t, "1001", submitted.OrderID)
	assert.Equal(t, "BTCUSDT", submitted.Symbol)
	assert.Equal(t, types.OrderStatusNew, submitted.InitialStatus)
}

func TestSubmitMarketOrderSendsNoPrice(t *testing.T) {
	gw := newFakeGateway()
	req := types.NewMarketOrderRequest("btcusdt", types.OrderSideBuy, dec("0.01"))

	_, err := NewSubmitter(gw).Submit(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, gw.payloads, 1)
	assert.Nil(t, gw.payloads[0].Price)
	assert.Empty(t, gw.payloads[0].TimeInForce)
	assert.Equal(t, "BTCUSDT", gw.payloads[0].Symbol)
}

func TestSubmitUsesFreshClientOrderIDs(t *testing.T) {
	gw := newFakeGateway()
	submitter := NewSubmitter(gw)
	req := types.NewMarketOrderRequest("BTCUSDT", types.OrderSideBuy, dec("0.01"))

	_, err := submitter.Submit(context.Background(), req)
	require.NoError(t, err)
	_, err = submitter.Submit(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, gw.payloads, 2)
	assert.NotEqual(t, gw.payloads[0].ClientOrderID, gw.payloads[1].ClientOrderID)
}

func TestSubmitFailures(t *testing.T) {
	apiErr := &trading.APIError{StatusCode: 400, Code: -2019, Message: "Margin is insufficient."}

	tests := []struct {
		name      string
		ack       *types.OrderAck
		createErr error
	}{
		{name: "gateway error", createErr: apiErr},
		{name: "network error", createErr: &trading.NetworkError{Op: "POST /fapi/v1/order", Err: errors.New("connection reset")}},
		{name: "empty response", ack: nil},
		{name: "missing order id", ack: &types.OrderAck{Status: types.OrderStatusNew}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeGateway()
			gw.ack = tt.ack
			gw.createErr = tt.createErr

			_, err := NewSubmitter(gw).Submit(context.Background(), types.NewMarketOrderRequest("BTCUSDT", types.OrderSideBuy, dec("0.01")))

			require.Error(t, err)
			assert.True(t, IsSubmissionError(err), "got %v", err)
			create, _ := gw.counts()
			assert.Equal(t, 1, create, "create order must not be retried")
			if tt.createErr != nil {
				assert.ErrorIs(t, err, tt.createErr)
			}
		})
	}
}
