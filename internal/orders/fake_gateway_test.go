package orders

import (
	"context"
	"sync"

	"futuresbot/internal/types"
	"futuresbot/pkg/trading"

	"github.com/shopspring/decimal"
)

// pollResult is one scripted GetOrder answer
type pollResult struct {
	snapshot *types.OrderSnapshot
	err      error
}

// fakeGateway records calls and replays scripted answers. Once the script is
// exhausted the last answer repeats.
type fakeGateway struct {
	mu sync.Mutex

	ack       *types.OrderAck
	createErr error
	polls     []pollResult

	createCalls int
	getCalls    int
	payloads    []types.OrderPayload
}

var _ trading.Gateway = (*fakeGateway)(nil)

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		ack: &types.OrderAck{
			OrderID: "1001",
			Symbol:  "BTCUSDT",
			Status:  types.OrderStatusNew,
		},
	}
}

func (f *fakeGateway) CreateOrder(ctx context.Context, payload types.OrderPayload) (*types.OrderAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.payloads = append(f.payloads, payload)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.ack, nil
}

func (f *fakeGateway) GetOrder(ctx context.Context, symbol, orderID string) (*types.OrderSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if len(f.polls) == 0 {
		return &types.OrderSnapshot{Status: types.OrderStatusNew}, nil
	}
	idx := f.getCalls - 1
	if idx >= len(f.polls) {
		idx = len(f.polls) - 1
	}
	return f.polls[idx].snapshot, f.polls[idx].err
}

func (f *fakeGateway) GetBalances(ctx context.Context) ([]types.Balance, error) {
	return nil, nil
}

func (f *fakeGateway) GetPositions(ctx context.Context) ([]types.PositionRisk, error) {
	return nil, nil
}

func (f *fakeGateway) GetTrades(ctx context.Context, symbol string) ([]types.AccountTrade, error) {
	return nil, nil
}

func (f *fakeGateway) GetKlines(ctx context.Context, query types.KlineQuery) ([]types.OHLCV, error) {
	return nil, nil
}

func (f *fakeGateway) counts() (create, get int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls, f.getCalls
}

func pollSnapshot(status types.OrderStatus, qty, price string) pollResult {
	return pollResult{snapshot: &types.OrderSnapshot{
		Status:      status,
		ExecutedQty: decimal.RequireFromString(qty),
		AvgPrice:    decimal.RequireFromString(price),
	}}
}

func failure(err error) pollResult {
	return pollResult{err: err}
}
