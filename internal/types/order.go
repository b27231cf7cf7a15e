package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide represents the side of an order
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Valid reports whether the side is one the exchange accepts
func (s OrderSide) Valid() bool {
	return s == OrderSideBuy || s == OrderSideSell
}

// OrderType represents the type of order
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// Valid reports whether the order type is supported
func (t OrderType) Valid() bool {
	return t == OrderTypeMarket || t == OrderTypeLimit
}

// OrderStatus represents the status of an order. Exchange statuses are passed
// through verbatim, so values outside the constants below can appear.
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusExpired         OrderStatus = "EXPIRED"

	// Declared locally, never reported by the exchange.
	OrderStatusTimeout           OrderStatus = "TIMEOUT"
	OrderStatusCancelledByCaller OrderStatus = "CANCELLED_BY_CALLER"
)

// IsFilled returns true if the order is completely filled
func (s OrderStatus) IsFilled() bool {
	return s == OrderStatusFilled
}

// IsFailed returns true for exchange-final statuses other than FILLED
func (s OrderStatus) IsFailed() bool {
	switch s {
	case OrderStatusCanceled, OrderStatusRejected, OrderStatusExpired:
		return true
	}
	return false
}

// IsTerminal returns true once the exchange will no longer mutate the order
func (s OrderStatus) IsTerminal() bool {
	return s.IsFilled() || s.IsFailed()
}

// TimeInForceGTC marks a limit order as good-til-canceled
const TimeInForceGTC = "GTC"

// OrderRequest is what a caller asks the order service to place
type OrderRequest struct {
	Symbol       string           `json:"symbol"`
	Side         OrderSide        `json:"side"`
	Type         OrderType        `json:"type"`
	Quantity     decimal.Decimal  `json:"quantity"`
	Price        *decimal.Decimal `json:"price,omitempty"` // LIMIT only
	WaitForFill  bool             `json:"wait_for_fill"`
	Timeout      time.Duration    `json:"timeout"`       // zero means service default
	PollInterval time.Duration    `json:"poll_interval"` // zero means service default
}

// NewMarketOrderRequest creates a market order request that waits for the fill
func NewMarketOrderRequest(symbol string, side OrderSide, quantity decimal.Decimal) OrderRequest {
	return OrderRequest{
		Symbol:      strings.ToUpper(symbol),
		Side:        side,
		Type:        OrderTypeMarket,
		Quantity:    quantity,
		WaitForFill: true,
	}
}

// NewLimitOrderRequest creates a limit order request that waits for the fill
func NewLimitOrderRequest(symbol string, side OrderSide, quantity, price decimal.Decimal) OrderRequest {
	req := NewMarketOrderRequest(symbol, side, quantity)
	req.Type = OrderTypeLimit
	req.Price = &price
	return req
}

// OrderPayload is the create-order call sent to a gateway
type OrderPayload struct {
	Symbol        string
	Side          OrderSide
	Type          OrderType
	Quantity      decimal.Decimal
	Price         *decimal.Decimal
	TimeInForce   string
	ClientOrderID string
}

// OrderAck is a gateway's answer to a create-order call
type OrderAck struct {
	OrderID       string          `json:"order_id"`
	ClientOrderID string          `json:"client_order_id"`
	Symbol        string          `json:"symbol"`
	Status        OrderStatus     `json:"status"`
	ExecutedQty   decimal.Decimal `json:"executed_qty"`
	AvgPrice      decimal.Decimal `json:"avg_price"`
}

// OrderSnapshot is a point-in-time read of an order from the gateway
type OrderSnapshot struct {
	Status      OrderStatus     `json:"status"`
	ExecutedQty decimal.Decimal `json:"executed_qty"`
	AvgPrice    decimal.Decimal `json:"avg_price"`
}

// SubmittedOrder is an order the exchange has acknowledged
type SubmittedOrder struct {
	OrderID       string
	ClientOrderID string
	Symbol        string
	InitialStatus OrderStatus
	ExecutedQty   decimal.Decimal
	AvgPrice      decimal.Decimal
}

// OrderOutcome is the final, normalized result of placing an order
type OrderOutcome struct {
	OrderID     string          `json:"order_id"`
	Status      OrderStatus     `json:"status"`
	ExecutedQty decimal.Decimal `json:"executed_qty"`
	AvgPrice    decimal.Decimal `json:"avg_price"`
}

// IsFilled returns true if the outcome reports a complete fill
func (o OrderOutcome) IsFilled() bool {
	return o.Status.IsFilled()
}

// GetFilledNotionalValue returns the value of the filled portion
func (o OrderOutcome) GetFilledNotionalValue() decimal.Decimal {
	return o.ExecutedQty.Mul(o.AvgPrice)
}
