package account

import (
	"context"
	"time"

	"futuresbot/internal/logging"
	"futuresbot/internal/types"
	"futuresbot/pkg/trading"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrNoUSDTBalance is returned when the wallet holds no USDT entry
var ErrNoUSDTBalance = errors.New("no USDT balance on the futures wallet")

const usdtAsset = "USDT"

// USDTBalance is the USDT entry of the futures wallet
type USDTBalance struct {
	Asset            string          `json:"asset"`
	WalletBalance    decimal.Decimal `json:"wallet_balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
}

// OpenPosition is a position with a non-zero amount
type OpenPosition struct {
	Symbol           string             `json:"symbol"`
	PositionAmt      decimal.Decimal    `json:"position_amt"`
	Side             types.PositionType `json:"side"`
	EntryPrice       decimal.Decimal    `json:"entry_price"`
	UnrealizedProfit decimal.Decimal    `json:"unrealized_profit"`
	Leverage         int                `json:"leverage"`
}

// TradeRecord is one account trade, formatted for display
type TradeRecord struct {
	Symbol      string          `json:"symbol"`
	Side        types.OrderSide `json:"side"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	RealizedPnl decimal.Decimal `json:"realized_pnl"`
	Time        time.Time       `json:"time"`
}

// Service answers account queries through the exchange gateway
type Service struct {
	gateway trading.Gateway
	logger  *logging.Logger
}

// NewService creates an account service
func NewService(gateway trading.Gateway) *Service {
	return &Service{
		gateway: gateway,
		logger:  logging.CreateAccountLogger(),
	}
}

// USDTBalance returns the wallet and available USDT balance
func (s *Service) USDTBalance(ctx context.Context) (*USDTBalance, error) {
	s.logger.Info("Fetching futures account balance")

	balances, err := s.gateway.GetBalances(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch balances")
	}

	for _, b := range balances {
		if b.Asset == usdtAsset {
			return &USDTBalance{
				Asset:            usdtAsset,
				WalletBalance:    b.Balance,
				AvailableBalance: b.AvailableBalance,
			}, nil
		}
	}
	return nil, ErrNoUSDTBalance
}

// OpenPositions returns the positions that hold a non-zero amount
func (s *Service) OpenPositions(ctx context.Context) ([]OpenPosition, error) {
	s.logger.Info("Fetching futures positions")

	positions, err := s.gateway.GetPositions(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch positions")
	}

	open := make([]OpenPosition, 0)
	for _, p := range positions {
		if !p.IsOpen() {
			continue
		}
		open = append(open, OpenPosition{
			Symbol:           p.Symbol,
			PositionAmt:      p.PositionAmt,
			Side:             p.Type(),
			EntryPrice:       p.EntryPrice,
			UnrealizedProfit: p.UnrealizedProfit,
			Leverage:         p.Leverage,
		})
	}
	return open, nil
}

// TradeHistory returns the account trades, for one symbol or all of them
func (s *Service) TradeHistory(ctx context.Context, symbol string) ([]TradeRecord, error) {
	s.logger.WithField("symbol", symbol).Info("Fetching trade history")

	trades, err := s.gateway.GetTrades(ctx, symbol)
	if err != nil {
		return nil, errors.Wrap(err, "fetch trade history")
	}

	records := make([]TradeRecord, 0, len(trades))
	for _, t := range trades {
		records = append(records, TradeRecord{
			Symbol:      t.Symbol,
			Side:        t.Side,
			Quantity:    t.Qty,
			Price:       t.Price,
			RealizedPnl: t.RealizedPnl,
			Time:        t.Timestamp(),
		})
	}
	return records, nil
}
