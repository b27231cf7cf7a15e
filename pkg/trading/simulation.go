package trading

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"futuresbot/internal/types"

	"github.com/shopspring/decimal"
)

// Simulated exchange error codes, mirroring the Binance ones
const (
	codeMandatoryParam = -1102
	codeUnknownOrder   = -2013
	codeBadSymbol      = -1121
)

// paperOrder is the exchange-side record of a simulated order
type paperOrder struct {
	id          string
	payload     types.OrderPayload
	status      types.OrderStatus
	executedQty decimal.Decimal
	avgPrice    decimal.Decimal
	createTime  time.Time
}

func (o *paperOrder) snapshot() *types.OrderSnapshot {
	return &types.OrderSnapshot{
		Status:      o.status,
		ExecutedQty: o.executedQty,
		AvgPrice:    o.avgPrice,
	}
}

// PaperGateway provides simulated order execution against configured mark
// prices, with an in-memory wallet, positions and trade list.
type PaperGateway struct {
	config       SimulationConfig
	balance      decimal.Decimal
	positions    map[string]*types.PositionRisk
	orders       map[string]*paperOrder
	trades       []types.AccountTrade
	mu           sync.RWMutex
	rng          *rand.Rand
	orderCounter int64
	tradeCounter int64
	now          func() time.Time
}

// NewPaperGateway creates a new simulated gateway
func NewPaperGateway(config SimulationConfig) *PaperGateway {
	if config.InitialBalance <= 0 {
		config.InitialBalance = 10000.0
	}
	if config.DefaultMarkPrice <= 0 {
		config.DefaultMarkPrice = 100.0
	}
	if config.Leverage <= 0 {
		config.Leverage = 20
	}
	if config.Latency < 0 {
		config.Latency = 0
	}
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &PaperGateway{
		config:    config,
		balance:   decimal.NewFromFloat(config.InitialBalance),
		positions: make(map[string]*types.PositionRisk),
		orders:    make(map[string]*paperOrder),
		rng:       rand.New(rand.NewSource(seed)),
		now:       time.Now,
	}
}

// CreateOrder places a simulated order
func (pg *PaperGateway) CreateOrder(ctx context.Context, payload types.OrderPayload) (*types.OrderAck, error) {
	if err := ctx.Err(); err != nil {
		return nil, &NetworkError{Op: "paper create order", Err: err}
	}
	if payload.Symbol == "" {
		return nil, &APIError{StatusCode: 400, Code: codeBadSymbol, Message: "Invalid symbol."}
	}
	if payload.Type == types.OrderTypeLimit && payload.Price == nil {
		return nil, &APIError{StatusCode: 400, Code: codeMandatoryParam, Message: "Mandatory parameter 'price' was not sent, was empty/null, or malformed."}
	}

	pg.mu.Lock()
	defer pg.mu.Unlock()

	pg.orderCounter++
	order := &paperOrder{
		id:         strconv.FormatInt(pg.orderCounter, 10),
		payload:    payload,
		status:     types.OrderStatusNew,
		createTime: pg.now(),
	}
	pg.orders[order.id] = order

	switch {
	case pg.rng.Float64() < pg.config.RejectionRate:
		order.status = types.OrderStatusRejected

	case payload.Type == types.OrderTypeMarket:
		pg.fill(order, pg.takerPrice(payload.Symbol, payload.Side))

	default:
		// Limit orders rest until the latency elapses, then fill or stay NEW
		time.AfterFunc(pg.config.Latency, func() { pg.settleLimitOrder(order.id) })
	}

	return &types.OrderAck{
		OrderID:       order.id,
		ClientOrderID: payload.ClientOrderID,
		Symbol:        payload.Symbol,
		Status:        order.status,
		ExecutedQty:   order.executedQty,
		AvgPrice:      order.avgPrice,
	}, nil
}

// GetOrder retrieves an order by ID
func (pg *PaperGateway) GetOrder(ctx context.Context, symbol, orderID string) (*types.OrderSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, &NetworkError{Op: "paper get order", Err: err}
	}

	pg.mu.RLock()
	defer pg.mu.RUnlock()

	order, exists := pg.orders[orderID]
	if !exists || order.payload.Symbol != symbol {
		return nil, &APIError{StatusCode: 400, Code: codeUnknownOrder, Message: "Order does not exist."}
	}
	return order.snapshot(), nil
}

// GetBalances returns the simulated USDT wallet
func (pg *PaperGateway) GetBalances(ctx context.Context) ([]types.Balance, error) {
	pg.mu.RLock()
	defer pg.mu.RUnlock()

	usedMargin := decimal.Zero
	leverage := decimal.NewFromInt(int64(pg.config.Leverage))
	for _, position := range pg.positions {
		notional := position.PositionAmt.Abs().Mul(position.EntryPrice)
		usedMargin = usedMargin.Add(notional.Div(leverage))
	}

	return []types.Balance{{
		Asset:            "USDT",
		Balance:          pg.balance,
		AvailableBalance: pg.balance.Sub(usedMargin),
	}}, nil
}

// GetPositions retrieves all positions, open or flat
func (pg *PaperGateway) GetPositions(ctx context.Context) ([]types.PositionRisk, error) {
	pg.mu.RLock()
	defer pg.mu.RUnlock()

	symbols := make([]string, 0, len(pg.positions))
	for symbol := range pg.positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	positions := make([]types.PositionRisk, 0, len(symbols))
	for _, symbol := range symbols {
		// Return a copy to avoid external modification
		positions = append(positions, *pg.positions[symbol])
	}
	return positions, nil
}

// GetTrades retrieves the trade history
func (pg *PaperGateway) GetTrades(ctx context.Context, symbol string) ([]types.AccountTrade, error) {
	pg.mu.RLock()
	defer pg.mu.RUnlock()

	trades := make([]types.AccountTrade, 0, len(pg.trades))
	for _, trade := range pg.trades {
		if symbol == "" || trade.Symbol == symbol {
			trades = append(trades, trade)
		}
	}
	return trades, nil
}

// GetKlines generates a deterministic random walk around the mark price
func (pg *PaperGateway) GetKlines(ctx context.Context, query types.KlineQuery) ([]types.OHLCV, error) {
	interval, err := IntervalDuration(query.Interval)
	if err != nil {
		return nil, &APIError{StatusCode: 400, Code: -1120, Message: err.Error()}
	}

	end := query.End
	if end.IsZero() {
		end = pg.now()
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 500
	}

	// first open time at or after Start, like the exchange
	start := query.Start.Truncate(interval)
	if start.Before(query.Start) {
		start = start.Add(interval)
	}
	walk := rand.New(rand.NewSource(start.UnixNano() ^ int64(len(query.Symbol))))
	price, _ := pg.markPrice(query.Symbol).Float64()

	candles := make([]types.OHLCV, 0, limit)
	for open := start; open.Before(end) && len(candles) < limit; open = open.Add(interval) {
		change := walk.NormFloat64() * 0.01
		closePrice := price * (1 + change)
		high := math.Max(price, closePrice) * (1 + walk.Float64()*0.005)
		low := math.Min(price, closePrice) * (1 - walk.Float64()*0.005)
		volume := 100 + walk.Float64()*900

		candle := types.NewOHLCV(query.Symbol, open.UTC(), price, high, low, closePrice, volume)
		candle.CloseTime = open.Add(interval - time.Millisecond).UTC()
		candles = append(candles, candle)
		price = closePrice
	}
	return candles, nil
}

// settleLimitOrder decides the fate of a resting limit order
func (pg *PaperGateway) settleLimitOrder(orderID string) {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	order, exists := pg.orders[orderID]
	if !exists || order.status != types.OrderStatusNew {
		return
	}

	if pg.rng.Float64() > pg.config.FillProbability {
		return // Don't fill
	}

	pg.fill(order, *order.payload.Price)
}

// fill executes the whole order at price. Callers hold pg.mu.
func (pg *PaperGateway) fill(order *paperOrder, price decimal.Decimal) {
	qty := order.payload.Quantity
	symbol := order.payload.Symbol

	position, exists := pg.positions[symbol]
	if !exists {
		position = types.NewPositionRisk(symbol, pg.config.Leverage)
		pg.positions[symbol] = position
	}
	realized := position.ApplyFill(order.payload.Side, qty, price)

	commission := qty.Mul(price).Mul(decimal.NewFromFloat(pg.config.Commission))
	pg.balance = pg.balance.Add(realized).Sub(commission)

	order.status = types.OrderStatusFilled
	order.executedQty = qty
	order.avgPrice = price

	pg.tradeCounter++
	pg.trades = append(pg.trades, types.AccountTrade{
		ID:          pg.tradeCounter,
		OrderID:     order.id,
		Symbol:      symbol,
		Side:        order.payload.Side,
		Qty:         qty,
		Price:       price,
		RealizedPnl: realized,
		Commission:  commission,
		Time:        pg.now().UnixMilli(),
	})
}

// takerPrice applies slippage against the taker
func (pg *PaperGateway) takerPrice(symbol string, side types.OrderSide) decimal.Decimal {
	slippage := decimal.NewFromFloat(pg.config.Slippage)
	mark := pg.markPrice(symbol)
	if side == types.OrderSideBuy {
		return mark.Mul(decimal.NewFromInt(1).Add(slippage))
	}
	return mark.Mul(decimal.NewFromInt(1).Sub(slippage))
}

func (pg *PaperGateway) markPrice(symbol string) decimal.Decimal {
	if price, ok := pg.config.MarkPrices[symbol]; ok && price > 0 {
		return decimal.NewFromFloat(price)
	}
	return decimal.NewFromFloat(pg.config.DefaultMarkPrice)
}

// IntervalDuration converts a Binance kline interval ("1m", "4h", "1d", "1w")
// into a duration. Months are not supported.
func IntervalDuration(interval string) (time.Duration, error) {
	if len(interval) < 2 {
		return 0, fmt.Errorf("invalid interval: %q", interval)
	}

	n, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid interval: %q", interval)
	}

	var unit time.Duration
	switch interval[len(interval)-1] {
	case 'm':
		unit = time.Minute
	case 'h':
		unit = time.Hour
	case 'd':
		unit = 24 * time.Hour
	case 'w':
		unit = 7 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("invalid interval: %q", interval)
	}
	return time.Duration(n) * unit, nil
}
