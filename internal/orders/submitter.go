package orders

import (
	"context"
	"strings"

	"futuresbot/internal/logging"
	"futuresbot/internal/types"
	"futuresbot/pkg/trading"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Submitter validates order requests and sends them to the exchange
type Submitter struct {
	gateway trading.Gateway
	logger  *logging.Logger
	newID   func() string
}

// NewSubmitter creates a submitter for the given gateway
func NewSubmitter(gateway trading.Gateway) *Submitter {
	return &Submitter{
		gateway: gateway,
		logger:  logging.CreateOrderLogger(),
		newID:   func() string { return uuid.NewString() },
	}
}

// Validate checks the domain-level shape of a request
func Validate(req types.OrderRequest) error {
	if strings.TrimSpace(req.Symbol) == "" {
		return validationError("symbol is required")
	}
	if !req.Side.Valid() {
		return validationError("invalid side %q", req.Side)
	}
	if !req.Type.Valid() {
		return validationError("invalid order type %q", req.Type)
	}
	if !req.Quantity.IsPositive() {
		return validationError("quantity must be positive, got %s", req.Quantity)
	}

	switch req.Type {
	case types.OrderTypeLimit:
		if req.Price == nil {
			return validationError("price is required for LIMIT orders")
		}
		if !req.Price.IsPositive() {
			return validationError("price must be positive, got %s", req.Price)
		}
	case types.OrderTypeMarket:
		if req.Price != nil {
			return validationError("price must not be set for MARKET orders")
		}
	}
	if req.Timeout < 0 || req.PollInterval < 0 {
		return validationError("timeout and poll interval must not be negative")
	}
	return nil
}

// Submit validates req and calls the gateway's create-order operation exactly
// once. A failed submission is never retried.
func (s *Submitter) Submit(ctx context.Context, req types.OrderRequest) (types.SubmittedOrder, error) {
	if err := Validate(req); err != nil {
		return types.SubmittedOrder{}, err
	}

	payload := types.OrderPayload{
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          req.Type,
		Quantity:      req.Quantity,
		ClientOrderID: s.newID(),
	}
	if req.Type == types.OrderTypeLimit {
		payload.Price = req.Price
		payload.TimeInForce = types.TimeInForceGTC
	}

	s.logger.LogOrderRequest(payload)

	ack, err := s.gateway.CreateOrder(ctx, payload)
	if err != nil {
		return types.SubmittedOrder{}, submissionError(err)
	}
	if ack == nil {
		return types.SubmittedOrder{}, submissionError(errors.New("empty response"))
	}
	if ack.OrderID == "" {
		return types.SubmittedOrder{}, submissionError(errors.New("response has no order id"))
	}

	submitted := types.SubmittedOrder{
		OrderID:       ack.OrderID,
		ClientOrderID: ack.ClientOrderID,
		Symbol:        req.Symbol,
		InitialStatus: ack.Status,
		ExecutedQty:   ack.ExecutedQty,
		AvgPrice:      ack.AvgPrice,
	}
	s.logger.LogOrderSubmitted(submitted)
	return submitted, nil
}
