package trading

import (
	"context"
	"time"

	"futuresbot/internal/types"
)

// Gateway defines the interface for exchange gateways. Implementations must
// be safe for concurrent use.
type Gateway interface {
	// Order management
	CreateOrder(ctx context.Context, payload types.OrderPayload) (*types.OrderAck, error)
	GetOrder(ctx context.Context, symbol, orderID string) (*types.OrderSnapshot, error)

	// Account information
	GetBalances(ctx context.Context) ([]types.Balance, error)
	GetPositions(ctx context.Context) ([]types.PositionRisk, error)
	GetTrades(ctx context.Context, symbol string) ([]types.AccountTrade, error)

	// Market data
	GetKlines(ctx context.Context, query types.KlineQuery) ([]types.OHLCV, error)
}

// ExecutionConfig holds configuration shared by all gateway providers
type ExecutionConfig struct {
	ProviderType string `json:"provider_type"` // "simulation", "binance"
	Exchange     string `json:"exchange"`
	Testnet      bool   `json:"testnet"`
}

// SimulationConfig holds specific configuration for the paper gateway
type SimulationConfig struct {
	ExecutionConfig
	InitialBalance   float64            `json:"initial_balance"`
	MarkPrices       map[string]float64 `json:"mark_prices"`
	DefaultMarkPrice float64            `json:"default_mark_price"`
	Commission       float64            `json:"commission"`
	Slippage         float64            `json:"slippage"` // applied against the taker
	Leverage         int                `json:"leverage"`
	Latency          time.Duration      `json:"latency"`          // before a limit order may fill
	FillProbability  float64            `json:"fill_probability"` // probability a limit order fills
	RejectionRate    float64            `json:"rejection_rate"`   // order rejection rate
	Seed             int64              `json:"seed"`             // zero seeds from the clock
}

// LiveConfig holds specific configuration for the Binance futures gateway
type LiveConfig struct {
	ExecutionConfig
	APIKey          string        `json:"-"`
	APISecret       string        `json:"-"`
	RESTURL         string        `json:"rest_url"`
	Timeout         time.Duration `json:"timeout"`
	RecvWindow      time.Duration `json:"recv_window"`
	RateLimitPerSec int           `json:"rate_limit_per_sec"`
}
