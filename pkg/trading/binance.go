package trading

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"futuresbot/internal/logging"
	"futuresbot/internal/types"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Binance USDⓈ-M futures REST paths
const (
	pathOrder        = "/fapi/v1/order"
	pathBalance      = "/fapi/v2/balance"
	pathPositionRisk = "/fapi/v2/positionRisk"
	pathUserTrades   = "/fapi/v1/userTrades"
	pathKlines       = "/fapi/v1/klines"

	headerAPIKey = "X-MBX-APIKEY"
)

// BinanceGateway talks to the Binance futures REST API
type BinanceGateway struct {
	client       *resty.Client
	signer       *Signer
	recvWindow   time.Duration
	readLimiter  *rate.Limiter
	writeLimiter *rate.Limiter
	logger       *logging.Logger
	now          func() time.Time
}

// NewBinanceGateway creates a gateway for the configured endpoint. The
// underlying client never retries; poll retries belong to the fill tracker.
func NewBinanceGateway(config LiveConfig) (*BinanceGateway, error) {
	if config.RESTURL == "" {
		return nil, errors.New("binance gateway: REST URL is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RecvWindow <= 0 {
		config.RecvWindow = 5 * time.Second
	}
	if config.RateLimitPerSec <= 0 {
		config.RateLimitPerSec = 10
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(config.RESTURL, "/")).
		SetTimeout(config.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &BinanceGateway{
		client:       client,
		signer:       NewSigner(config.APIKey, config.APISecret),
		recvWindow:   config.RecvWindow,
		readLimiter:  rate.NewLimiter(rate.Limit(config.RateLimitPerSec*2), config.RateLimitPerSec*2),
		writeLimiter: rate.NewLimiter(rate.Limit(config.RateLimitPerSec), config.RateLimitPerSec),
		logger:       logging.CreateGatewayLogger(),
		now:          time.Now,
	}, nil
}

// binanceOrder is the order shape returned by POST and GET /fapi/v1/order
type binanceOrder struct {
	OrderID       int64           `json:"orderId"`
	ClientOrderID string          `json:"clientOrderId"`
	Symbol        string          `json:"symbol"`
	Status        string          `json:"status"`
	ExecutedQty   decimal.Decimal `json:"executedQty"`
	AvgPrice      decimal.Decimal `json:"avgPrice"`
}

type binanceBalance struct {
	Asset            string          `json:"asset"`
	Balance          decimal.Decimal `json:"balance"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
}

type binancePosition struct {
	Symbol           string          `json:"symbol"`
	PositionAmt      decimal.Decimal `json:"positionAmt"`
	EntryPrice       decimal.Decimal `json:"entryPrice"`
	MarkPrice        decimal.Decimal `json:"markPrice"`
	UnRealizedProfit decimal.Decimal `json:"unRealizedProfit"`
	Leverage         string          `json:"leverage"`
}

type binanceTrade struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"orderId"`
	Symbol      string          `json:"symbol"`
	Side        string          `json:"side"`
	Price       decimal.Decimal `json:"price"`
	Qty         decimal.Decimal `json:"qty"`
	RealizedPnl decimal.Decimal `json:"realizedPnl"`
	Commission  decimal.Decimal `json:"commission"`
	Time        int64           `json:"time"`
}

// CreateOrder places a new order
func (g *BinanceGateway) CreateOrder(ctx context.Context, payload types.OrderPayload) (*types.OrderAck, error) {
	params := url.Values{}
	params.Set("symbol", payload.Symbol)
	params.Set("side", string(payload.Side))
	params.Set("type", string(payload.Type))
	params.Set("quantity", payload.Quantity.String())
	params.Set("newOrderRespType", "RESULT")
	if payload.Price != nil {
		params.Set("price", payload.Price.String())
	}
	if payload.TimeInForce != "" {
		params.Set("timeInForce", payload.TimeInForce)
	}
	if payload.ClientOrderID != "" {
		params.Set("newClientOrderId", payload.ClientOrderID)
	}

	var resp binanceOrder
	if err := g.do(ctx, http.MethodPost, pathOrder, params, true, &resp); err != nil {
		return nil, err
	}

	ack := &types.OrderAck{
		ClientOrderID: resp.ClientOrderID,
		Symbol:        resp.Symbol,
		Status:        types.OrderStatus(resp.Status),
		ExecutedQty:   resp.ExecutedQty,
		AvgPrice:      resp.AvgPrice,
	}
	if resp.OrderID != 0 {
		ack.OrderID = strconv.FormatInt(resp.OrderID, 10)
	}
	return ack, nil
}

// GetOrder queries the current state of an order
func (g *BinanceGateway) GetOrder(ctx context.Context, symbol, orderID string) (*types.OrderSnapshot, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", orderID)

	var resp binanceOrder
	if err := g.do(ctx, http.MethodGet, pathOrder, params, true, &resp); err != nil {
		return nil, err
	}

	return &types.OrderSnapshot{
		Status:      types.OrderStatus(resp.Status),
		ExecutedQty: resp.ExecutedQty,
		AvgPrice:    resp.AvgPrice,
	}, nil
}

// GetBalances returns the futures wallet balances
func (g *BinanceGateway) GetBalances(ctx context.Context) ([]types.Balance, error) {
	var resp []binanceBalance
	if err := g.do(ctx, http.MethodGet, pathBalance, url.Values{}, true, &resp); err != nil {
		return nil, err
	}

	balances := make([]types.Balance, 0, len(resp))
	for _, b := range resp {
		balances = append(balances, types.Balance{
			Asset:            b.Asset,
			Balance:          b.Balance,
			AvailableBalance: b.AvailableBalance,
		})
	}
	return balances, nil
}

// GetPositions returns position risk for every symbol
func (g *BinanceGateway) GetPositions(ctx context.Context) ([]types.PositionRisk, error) {
	var resp []binancePosition
	if err := g.do(ctx, http.MethodGet, pathPositionRisk, url.Values{}, true, &resp); err != nil {
		return nil, err
	}

	positions := make([]types.PositionRisk, 0, len(resp))
	for _, p := range resp {
		leverage, _ := strconv.Atoi(p.Leverage)
		positions = append(positions, types.PositionRisk{
			Symbol:           p.Symbol,
			PositionAmt:      p.PositionAmt,
			EntryPrice:       p.EntryPrice,
			MarkPrice:        p.MarkPrice,
			UnrealizedProfit: p.UnRealizedProfit,
			Leverage:         leverage,
		})
	}
	return positions, nil
}

// GetTrades returns the account trade list, optionally for one symbol
func (g *BinanceGateway) GetTrades(ctx context.Context, symbol string) ([]types.AccountTrade, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}

	var resp []binanceTrade
	if err := g.do(ctx, http.MethodGet, pathUserTrades, params, true, &resp); err != nil {
		return nil, err
	}

	trades := make([]types.AccountTrade, 0, len(resp))
	for _, t := range resp {
		trades = append(trades, types.AccountTrade{
			ID:          t.ID,
			OrderID:     strconv.FormatInt(t.OrderID, 10),
			Symbol:      t.Symbol,
			Side:        types.OrderSide(t.Side),
			Qty:         t.Qty,
			Price:       t.Price,
			RealizedPnl: t.RealizedPnl,
			Commission:  t.Commission,
			Time:        t.Time,
		})
	}
	return trades, nil
}

// GetKlines returns one page of historical klines
func (g *BinanceGateway) GetKlines(ctx context.Context, query types.KlineQuery) ([]types.OHLCV, error) {
	params := url.Values{}
	params.Set("symbol", query.Symbol)
	params.Set("interval", query.Interval)
	if !query.Start.IsZero() {
		params.Set("startTime", strconv.FormatInt(query.Start.UnixMilli(), 10))
	}
	if !query.End.IsZero() {
		params.Set("endTime", strconv.FormatInt(query.End.UnixMilli(), 10))
	}
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}

	var rows [][]json.RawMessage
	if err := g.do(ctx, http.MethodGet, pathKlines, params, false, &rows); err != nil {
		return nil, err
	}

	candles := make([]types.OHLCV, 0, len(rows))
	for i, row := range rows {
		candle, err := parseKline(query.Symbol, row)
		if err != nil {
			return nil, errors.Wrapf(err, "kline %d", i)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// parseKline decodes [openTime, open, high, low, close, volume, closeTime, ...]
func parseKline(symbol string, row []json.RawMessage) (types.OHLCV, error) {
	if len(row) < 7 {
		return types.OHLCV{}, errors.Errorf("expected at least 7 fields, got %d", len(row))
	}

	var openTime, closeTime int64
	if err := json.Unmarshal(row[0], &openTime); err != nil {
		return types.OHLCV{}, errors.Wrap(err, "open time")
	}
	if err := json.Unmarshal(row[6], &closeTime); err != nil {
		return types.OHLCV{}, errors.Wrap(err, "close time")
	}

	values := make([]float64, 5)
	for i := range values {
		var raw string
		if err := json.Unmarshal(row[i+1], &raw); err != nil {
			return types.OHLCV{}, errors.Wrapf(err, "field %d", i+1)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return types.OHLCV{}, errors.Wrapf(err, "field %d", i+1)
		}
		values[i] = v
	}

	candle := types.NewOHLCV(symbol, time.UnixMilli(openTime).UTC(), values[0], values[1], values[2], values[3], values[4])
	candle.CloseTime = time.UnixMilli(closeTime).UTC()
	return candle, nil
}

// do sends one request and decodes a successful JSON answer into out.
// Transport failures come back as *NetworkError, exchange errors as *APIError.
func (g *BinanceGateway) do(ctx context.Context, method, path string, params url.Values, signed bool, out any) error {
	lim := g.readLimiter
	if method != http.MethodGet {
		lim = g.writeLimiter
	}
	if err := lim.Wait(ctx); err != nil {
		return &NetworkError{Op: method + " " + path, Err: errors.Wrap(err, "rate limit wait")}
	}

	req := g.client.R().SetContext(ctx)

	if signed {
		params.Set("recvWindow", strconv.FormatInt(g.recvWindow.Milliseconds(), 10))
		params.Set("timestamp", strconv.FormatInt(g.now().UnixMilli(), 10))
		req.SetHeader(headerAPIKey, g.signer.APIKey())
	}
	query := params.Encode()
	if signed {
		// Signature must be computed over, and sent after, the exact query text
		query += "&signature=" + g.signer.Sign(query)
	}

	target := path
	if query != "" {
		target += "?" + query
	}

	start := time.Now()
	resp, err := req.Execute(method, target)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}

	g.logger.WithFields(map[string]interface{}{
		"method":  method,
		"path":    path,
		"status":  resp.StatusCode(),
		"latency": time.Since(start).String(),
	}).Debug("binance request")

	if !resp.IsSuccess() {
		return parseAPIError(resp)
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrapf(err, "decode %s %s response", method, path)
	}
	return nil
}

func parseAPIError(resp *resty.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if err := json.Unmarshal(resp.Body(), apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(resp.Body()))
		if apiErr.Message == "" {
			apiErr.Message = resp.Status()
		}
	}
	return apiErr
}
