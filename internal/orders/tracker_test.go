package orders

import (
	"context"
	"testing"
	"time"

	"futuresbot/internal/types"
	"futuresbot/pkg/trading"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submittedOrder() types.SubmittedOrder {
	return types.SubmittedOrder{
		OrderID:       "1001",
		Symbol:        "BTCUSDT",
		InitialStatus: types.OrderStatusNew,
	}
}

func TestTrackFillsOnThirdPoll(t *testing.T) {
	gw := newFakeGateway()
	gw.polls = []pollResult{
		pollSnapshot(types.OrderStatusNew, "0", "0"),
		pollSnapshot(types.OrderStatusPartiallyFilled, "0.004", "50010"),
		pollSnapshot(types.OrderStatusFilled, "0.01", "50005.5"),
	}

	outcome, err := NewTracker(gw, TrackerConfig{}).
		Track(context.Background(), submittedOrder(), true, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, "1001", outcome.OrderID)
	assert.Equal(t, types.OrderStatusFilled, outcome.Status)
	assert.True(t, outcome.ExecutedQty.Equal(dec("0.01")))
	assert.True(t, outcome.AvgPrice.Equal(dec("50005.5")))

	_, get := gw.counts()
	assert.Equal(t, 3, get)
}

func TestTrackTimesOut(t *testing.T) {
	gw := newFakeGateway()
	gw.polls = []pollResult{pollSnapshot(types.OrderStatusPartiallyFilled, "0.003", "49999")}

	timeout := 150 * time.Millisecond
	interval := 60 * time.Millisecond

	start := time.Now()
	outcome, err := NewTracker(gw, TrackerConfig{}).
		Track(context.Background(), submittedOrder(), true, timeout, interval)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusTimeout, outcome.Status)
	assert.True(t, outcome.ExecutedQty.IsZero())
	assert.True(t, outcome.AvgPrice.IsZero())
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+interval)
}

func TestTrackStopsOnExchangeFinalStatus(t *testing.T) {
	tests := []struct {
		name   string
		poll   pollResult
		status types.OrderStatus
		qty    string
		price  string
	}{
		{name: "rejected", poll: pollSnapshot(types.OrderStatusRejected, "0", "0"), status: types.OrderStatusRejected, qty: "0", price: "0"},
		{name: "canceled after partial fill", poll: pollSnapshot(types.OrderStatusCanceled, "0.5", "3001.2"), status: types.OrderStatusCanceled, qty: "0.5", price: "3001.2"},
		{name: "expired", poll: pollSnapshot(types.OrderStatusExpired, "0", "0"), status: types.OrderStatusExpired, qty: "0", price: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeGateway()
			gw.polls = []pollResult{tt.poll}

			start := time.Now()
			outcome, err := NewTracker(gw, TrackerConfig{}).
				Track(context.Background(), submittedOrder(), true, time.Minute, time.Second)

			require.NoError(t, err)
			assert.Less(t, time.Since(start), time.Second, "must not wait after a final status")
			assert.Equal(t, tt.status, outcome.Status)
			assert.True(t, outcome.ExecutedQty.Equal(dec(tt.qty)))
			assert.True(t, outcome.AvgPrice.Equal(dec(tt.price)))

			_, get := gw.counts()
			assert.Equal(t, 1, get)
		})
	}
}

func TestTrackWithoutWaitingUsesSubmission(t *testing.T) {
	gw := newFakeGateway()
	order := submittedOrder()
	order.InitialStatus = types.OrderStatusPartiallyFilled
	order.ExecutedQty = dec("0.002")
	order.AvgPrice = dec("50100")

	outcome, err := NewTracker(gw, TrackerConfig{}).
		Track(context.Background(), order, false, time.Minute, time.Second)

	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusPartiallyFilled, outcome.Status)
	assert.True(t, outcome.ExecutedQty.Equal(dec("0.002")))
	assert.True(t, outcome.AvgPrice.Equal(dec("50100")))

	_, get := gw.counts()
	assert.Zero(t, get)
}

func TestTrackPollFailureIsTrackingError(t *testing.T) {
	netErr := &trading.NetworkError{Op: "GET /fapi/v1/order", Err: errors.New("i/o timeout")}
	gw := newFakeGateway()
	gw.polls = []pollResult{failure(netErr)}

	_, err := NewTracker(gw, TrackerConfig{}).
		Track(context.Background(), submittedOrder(), true, time.Minute, 10*time.Millisecond)

	require.Error(t, err)
	assert.True(t, IsTrackingError(err))
	assert.True(t, trading.IsNetworkError(err))

	var orderErr *Error
	require.True(t, errors.As(err, &orderErr))
	assert.Equal(t, "1001", orderErr.OrderID)

	_, get := gw.counts()
	assert.Equal(t, 1, get)
}

func TestTrackRetriesNetworkErrors(t *testing.T) {
	netErr := &trading.NetworkError{Op: "GET /fapi/v1/order", Err: errors.New("connection reset")}
	gw := newFakeGateway()
	gw.polls = []pollResult{
		failure(netErr),
		failure(netErr),
		pollSnapshot(types.OrderStatusFilled, "1", "3000"),
	}

	outcome, err := NewTracker(gw, TrackerConfig{MaxPollRetries: 2, RetryBaseDelay: time.Millisecond}).
		Track(context.Background(), submittedOrder(), true, time.Minute, 10*time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusFilled, outcome.Status)

	_, get := gw.counts()
	assert.Equal(t, 3, get)
}

func TestTrackGivesUpAfterRetryBudget(t *testing.T) {
	netErr := &trading.NetworkError{Op: "GET /fapi/v1/order", Err: errors.New("connection reset")}
	gw := newFakeGateway()
	gw.polls = []pollResult{failure(netErr)}

	_, err := NewTracker(gw, TrackerConfig{MaxPollRetries: 2, RetryBaseDelay: time.Millisecond}).
		Track(context.Background(), submittedOrder(), true, time.Minute, 10*time.Millisecond)

	require.Error(t, err)
	assert.True(t, IsTrackingError(err))

	_, get := gw.counts()
	assert.Equal(t, 3, get)
}

func TestTrackNeverRetriesAPIErrors(t *testing.T) {
	apiErr := &trading.APIError{StatusCode: 400, Code: -2013, Message: "Order does not exist."}
	gw := newFakeGateway()
	gw.polls = []pollResult{failure(apiErr)}

	_, err := NewTracker(gw, TrackerConfig{MaxPollRetries: 5, RetryBaseDelay: time.Millisecond}).
		Track(context.Background(), submittedOrder(), true, time.Minute, 10*time.Millisecond)

	require.Error(t, err)
	assert.True(t, IsTrackingError(err))
	assert.True(t, trading.IsAPIError(err))

	_, get := gw.counts()
	assert.Equal(t, 1, get)
}

func TestTrackRetriesStopAtDeadline(t *testing.T) {
	netErr := &trading.NetworkError{Op: "GET /fapi/v1/order", Err: errors.New("connection reset")}
	gw := newFakeGateway()
	gw.polls = []pollResult{
		pollSnapshot(types.OrderStatusNew, "0", "0"),
		pollSnapshot(types.OrderStatusNew, "0", "0"),
		pollSnapshot(types.OrderStatusNew, "0", "0"),
		failure(netErr),
		failure(netErr),
		pollSnapshot(types.OrderStatusNew, "0", "0"),
	}

	timeout := 150 * time.Millisecond
	interval := 60 * time.Millisecond

	start := time.Now()
	outcome, err := NewTracker(gw, TrackerConfig{MaxPollRetries: 2}).
		Track(context.Background(), submittedOrder(), true, timeout, interval)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusTimeout, outcome.Status)
	assert.True(t, outcome.ExecutedQty.IsZero())
	assert.True(t, outcome.AvgPrice.IsZero())
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+interval)
}

func TestTrackRetryWaitIsClampedToDeadline(t *testing.T) {
	netErr := &trading.NetworkError{Op: "GET /fapi/v1/order", Err: errors.New("i/o timeout")}
	gw := newFakeGateway()
	gw.polls = []pollResult{
		pollSnapshot(types.OrderStatusNew, "0", "0"),
		failure(netErr),
	}

	timeout := 100 * time.Millisecond
	interval := 80 * time.Millisecond

	start := time.Now()
	outcome, err := NewTracker(gw, TrackerConfig{MaxPollRetries: 5, RetryBaseDelay: 70 * time.Millisecond}).
		Track(context.Background(), submittedOrder(), true, timeout, interval)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusTimeout, outcome.Status)
	assert.Less(t, elapsed, timeout+interval)
}

func TestTrackWithoutBudgetDoesNotPoll(t *testing.T) {
	gw := newFakeGateway()

	outcome, err := NewTracker(gw, TrackerConfig{}).
		Track(context.Background(), submittedOrder(), true, 0, 10*time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusTimeout, outcome.Status)
	assert.Equal(t, "1001", outcome.OrderID)

	_, get := gw.counts()
	assert.Zero(t, get)
}

func TestTrackCancelledByCaller(t *testing.T) {
	gw := newFakeGateway()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	outcome, err := NewTracker(gw, TrackerConfig{}).
		Track(ctx, submittedOrder(), true, time.Minute, 20*time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusCancelledByCaller, outcome.Status)
	assert.Equal(t, "1001", outcome.OrderID)
	assert.True(t, outcome.ExecutedQty.IsZero())
	assert.Less(t, time.Since(start), time.Second)
}

func TestTrackAlreadyCancelledMakesNoCalls(t *testing.T) {
	gw := newFakeGateway()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := NewTracker(gw, TrackerConfig{}).
		Track(ctx, submittedOrder(), true, time.Minute, time.Second)

	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusCancelledByCaller, outcome.Status)

	_, get := gw.counts()
	assert.Zero(t, get)
}

func TestRetryDelayIsCappedAtInterval(t *testing.T) {
	tracker := NewTracker(newFakeGateway(), TrackerConfig{RetryBaseDelay: 100 * time.Millisecond})

	assert.Equal(t, 100*time.Millisecond, tracker.retryDelay(0, time.Second))
	assert.Equal(t, 400*time.Millisecond, tracker.retryDelay(2, time.Second))
	assert.Equal(t, time.Second, tracker.retryDelay(5, time.Second))
	assert.Equal(t, time.Second, tracker.retryDelay(100, time.Second))
}
