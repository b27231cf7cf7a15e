package cli

import (
	"fmt"
	"strings"
	"time"

	"futuresbot/internal/types"

	"github.com/shopspring/decimal"
)

// InputError reports a malformed command-line or prompt value
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// OrderInput holds raw order fields as typed by the user
type OrderInput struct {
	Symbol   string
	Side     string
	Type     string
	Quantity string
	Price    string
	Timeout  time.Duration
	NoWait   bool
}

// ValidateSymbol upper-cases symbol and checks it is a USDT pair
func ValidateSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if len(symbol) <= len("USDT") || !strings.HasSuffix(symbol, "USDT") {
		return "", &InputError{Field: "symbol", Message: "must be a valid USDT pair (e.g., BTCUSDT)"}
	}
	return symbol, nil
}

// ValidateSide parses BUY or SELL
func ValidateSide(side string) (types.OrderSide, error) {
	s := types.OrderSide(strings.ToUpper(strings.TrimSpace(side)))
	if !s.Valid() {
		return "", &InputError{Field: "side", Message: "must be BUY or SELL"}
	}
	return s, nil
}

// ValidateOrderType parses MARKET or LIMIT
func ValidateOrderType(orderType string) (types.OrderType, error) {
	t := types.OrderType(strings.ToUpper(strings.TrimSpace(orderType)))
	if !t.Valid() {
		return "", &InputError{Field: "type", Message: "must be MARKET or LIMIT"}
	}
	return t, nil
}

// ValidateQuantity parses a strictly positive quantity
func ValidateQuantity(quantity string) (decimal.Decimal, error) {
	q, err := decimal.NewFromString(strings.TrimSpace(quantity))
	if err != nil {
		return decimal.Zero, &InputError{Field: "quantity", Message: "must be a number"}
	}
	if !q.IsPositive() {
		return decimal.Zero, &InputError{Field: "quantity", Message: "must be greater than 0"}
	}
	return q, nil
}

// ValidatePrice parses the price for LIMIT orders. MARKET orders must not carry one.
func ValidatePrice(price string, orderType types.OrderType) (*decimal.Decimal, error) {
	price = strings.TrimSpace(price)

	if orderType != types.OrderTypeLimit {
		if price != "" {
			return nil, &InputError{Field: "price", Message: "only LIMIT orders take a price"}
		}
		return nil, nil
	}

	if price == "" {
		return nil, &InputError{Field: "price", Message: "is required for LIMIT orders"}
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return nil, &InputError{Field: "price", Message: "must be a number"}
	}
	if !p.IsPositive() {
		return nil, &InputError{Field: "price", Message: "must be greater than 0 for LIMIT orders"}
	}
	return &p, nil
}

// ParseOrderRequest validates raw input into an order request
func ParseOrderRequest(in OrderInput) (types.OrderRequest, error) {
	symbol, err := ValidateSymbol(in.Symbol)
	if err != nil {
		return types.OrderRequest{}, err
	}
	side, err := ValidateSide(in.Side)
	if err != nil {
		return types.OrderRequest{}, err
	}
	orderType, err := ValidateOrderType(in.Type)
	if err != nil {
		return types.OrderRequest{}, err
	}
	quantity, err := ValidateQuantity(in.Quantity)
	if err != nil {
		return types.OrderRequest{}, err
	}
	price, err := ValidatePrice(in.Price, orderType)
	if err != nil {
		return types.OrderRequest{}, err
	}
	if in.Timeout < 0 {
		return types.OrderRequest{}, &InputError{Field: "timeout", Message: "must not be negative"}
	}

	return types.OrderRequest{
		Symbol:      symbol,
		Side:        side,
		Type:        orderType,
		Quantity:    quantity,
		Price:       price,
		WaitForFill: !in.NoWait,
		Timeout:     in.Timeout,
	}, nil
}
