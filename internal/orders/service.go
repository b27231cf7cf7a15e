package orders

import (
	"context"
	"time"

	"futuresbot/internal/config"
	"futuresbot/internal/logging"
	"futuresbot/internal/types"
	"futuresbot/pkg/trading"
)

// ServiceConfig holds the defaults applied to requests that leave them unset
type ServiceConfig struct {
	PollInterval   time.Duration
	DefaultTimeout time.Duration
	MaxPollRetries int
}

// DefaultServiceConfig returns a 2s poll interval, a 20s timeout and no retries
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		PollInterval:   2 * time.Second,
		DefaultTimeout: 20 * time.Second,
	}
}

// ServiceConfigFrom converts the file configuration
func ServiceConfigFrom(cfg config.OrdersConfig) ServiceConfig {
	return ServiceConfig{
		PollInterval:   cfg.PollInterval,
		DefaultTimeout: cfg.DefaultTimeout,
		MaxPollRetries: cfg.MaxPollRetries,
	}
}

// Service places an order and tracks it to a normalized outcome
type Service struct {
	submitter *Submitter
	tracker   *Tracker
	config    ServiceConfig
	logger    *logging.Logger
}

// NewService creates an order service on top of gateway
func NewService(gateway trading.Gateway, cfg ServiceConfig) *Service {
	defaults := DefaultServiceConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = defaults.DefaultTimeout
	}

	return &Service{
		submitter: NewSubmitter(gateway),
		tracker:   NewTracker(gateway, TrackerConfig{MaxPollRetries: cfg.MaxPollRetries}),
		config:    cfg,
		logger:    logging.CreateOrderLogger(),
	}
}

// PlaceOrder submits req and, if requested, waits for it to settle.
//
// If tracking fails after the exchange accepted the order, the error carries
// the order id and the order is left as is on the exchange.
func (s *Service) PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderOutcome, error) {
	start := time.Now()

	submitted, err := s.submitter.Submit(ctx, req)
	if err != nil {
		s.logger.LogError("submit order", err, map[string]interface{}{
			"symbol": req.Symbol,
			"side":   req.Side,
			"type":   req.Type,
		})
		return types.OrderOutcome{}, err
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = s.config.DefaultTimeout
	}
	interval := req.PollInterval
	if interval <= 0 {
		interval = s.config.PollInterval
	}

	outcome, err := s.tracker.Track(ctx, submitted, req.WaitForFill, timeout, interval)
	if err != nil {
		s.logger.LogError("track order", err, map[string]interface{}{
			"order_id": submitted.OrderID,
			"symbol":   submitted.Symbol,
		})
		return types.OrderOutcome{}, err
	}

	s.logger.LogOrderOutcome(outcome, time.Since(start))
	return outcome, nil
}
