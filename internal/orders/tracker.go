package orders

import (
	"context"
	"time"

	"futuresbot/internal/logging"
	"futuresbot/internal/types"
	"futuresbot/pkg/trading"

	"github.com/pkg/errors"
)

const defaultRetryBaseDelay = 250 * time.Millisecond

// errPastDeadline stops poll retries once the tracking budget is spent
var errPastDeadline = errors.New("tracking deadline passed")

// TrackerConfig controls how poll failures are handled
type TrackerConfig struct {
	// MaxPollRetries is how many times a single poll is retried after a
	// network error. API errors are never retried.
	MaxPollRetries int
	// RetryBaseDelay is the first retry delay; it doubles per retry and is
	// capped at the poll interval.
	RetryBaseDelay time.Duration
}

// Tracker polls an accepted order until it reaches a terminal state or the
// deadline passes. It holds no state between calls.
type Tracker struct {
	gateway trading.Gateway
	config  TrackerConfig
	logger  *logging.Logger
}

// NewTracker creates a fill tracker
func NewTracker(gateway trading.Gateway, config TrackerConfig) *Tracker {
	if config.MaxPollRetries < 0 {
		config.MaxPollRetries = 0
	}
	if config.RetryBaseDelay <= 0 {
		config.RetryBaseDelay = defaultRetryBaseDelay
	}
	return &Tracker{
		gateway: gateway,
		config:  config,
		logger:  logging.CreateOrderLogger(),
	}
}

// Track resolves a submitted order into an outcome.
//
// Without waitForFill the outcome comes straight from the submission. With it,
// the order is polled every interval until FILLED, CANCELED, REJECTED or
// EXPIRED is seen, or until timeout elapses, which yields TIMEOUT. The final
// wait is clamped to the time left so expiry is detected on schedule, and
// network retries never wait past the deadline. A timeout <= 0 yields TIMEOUT
// without polling. Cancelling ctx yields CANCELLED_BY_CALLER with a nil error.
func (t *Tracker) Track(ctx context.Context, order types.SubmittedOrder, waitForFill bool, timeout, interval time.Duration) (types.OrderOutcome, error) {
	if !waitForFill {
		return types.OrderOutcome{
			OrderID:     order.OrderID,
			Status:      order.InitialStatus,
			ExecutedQty: order.ExecutedQty,
			AvgPrice:    order.AvgPrice,
		}, nil
	}

	if timeout <= 0 {
		return localOutcome(order.OrderID, types.OrderStatusTimeout), nil
	}
	deadline := time.Now().Add(timeout)

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return localOutcome(order.OrderID, types.OrderStatusCancelledByCaller), nil
		}

		snapshot, err := t.poll(ctx, order, interval, deadline)
		if err != nil {
			if ctx.Err() != nil {
				return localOutcome(order.OrderID, types.OrderStatusCancelledByCaller), nil
			}
			if errors.Is(err, errPastDeadline) {
				return localOutcome(order.OrderID, types.OrderStatusTimeout), nil
			}
			return types.OrderOutcome{}, trackingError(order.OrderID, err)
		}
		t.logger.LogOrderPoll(order.OrderID, attempt, *snapshot)

		if snapshot.Status.IsTerminal() {
			return types.OrderOutcome{
				OrderID:     order.OrderID,
				Status:      snapshot.Status,
				ExecutedQty: snapshot.ExecutedQty,
				AvgPrice:    snapshot.AvgPrice,
			}, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return localOutcome(order.OrderID, types.OrderStatusTimeout), nil
		}
		if !sleep(ctx, min(interval, remaining)) {
			return localOutcome(order.OrderID, types.OrderStatusCancelledByCaller), nil
		}
	}
}

// poll reads the order once, retrying network failures up to MaxPollRetries
// while the deadline has not passed
func (t *Tracker) poll(ctx context.Context, order types.SubmittedOrder, interval time.Duration, deadline time.Time) (*types.OrderSnapshot, error) {
	for retry := 0; ; retry++ {
		snapshot, err := t.gateway.GetOrder(ctx, order.Symbol, order.OrderID)
		if err == nil {
			if snapshot == nil {
				return nil, errors.New("empty order status response")
			}
			return snapshot, nil
		}

		if !trading.IsNetworkError(err) || retry >= t.config.MaxPollRetries {
			return nil, err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, errPastDeadline
		}

		t.logger.WithError(err).WithField("order_id", order.OrderID).
			Warnf("Order poll failed, retry %d/%d", retry+1, t.config.MaxPollRetries)
		if !sleep(ctx, min(t.retryDelay(retry, interval), remaining)) {
			return nil, ctx.Err()
		}
	}
}

// retryDelay doubles from RetryBaseDelay, capped at limit
func (t *Tracker) retryDelay(retry int, limit time.Duration) time.Duration {
	if retry > 16 {
		retry = 16
	}
	delay := t.config.RetryBaseDelay * time.Duration(1<<retry)
	if limit > 0 && delay > limit {
		return limit
	}
	return delay
}

func localOutcome(orderID string, status types.OrderStatus) types.OrderOutcome {
	return types.OrderOutcome{OrderID: orderID, Status: status}
}

// sleep waits for d or until ctx is done. It reports whether the full wait
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
