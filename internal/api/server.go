package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"futuresbot/internal/account"
	"futuresbot/internal/cli"
	"futuresbot/internal/config"
	"futuresbot/internal/indicators"
	"futuresbot/internal/logging"
	"futuresbot/internal/market"
	"futuresbot/internal/orders"
	"futuresbot/pkg/trading"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

const (
	defaultInterval     = "1h"
	defaultKlinesWindow = 24 * time.Hour
)

// Server exposes the bot over a small JSON API
type Server struct {
	cfg     config.ServerConfig
	orders  cli.OrderPlacer
	account cli.AccountReader
	gateway trading.Gateway
	logger  *logging.Logger
}

// NewServer creates the dashboard API server
func NewServer(cfg config.ServerConfig, placer cli.OrderPlacer, reader cli.AccountReader, gateway trading.Gateway) *Server {
	return &Server{
		cfg:     cfg,
		orders:  placer,
		account: reader,
		gateway: gateway,
		logger:  logging.CreateServerLogger(),
	}
}

// Router builds the HTTP routes
func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/balance", s.handleBalance)
	api.GET("/positions", s.handlePositions)
	api.GET("/trades", s.handleTrades)
	api.POST("/orders", s.handlePlaceOrder)
	api.GET("/klines", s.handleKlines)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.LogSystem("server_start", "Dashboard API listening", map[string]interface{}{"addr": s.cfg.ListenAddr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.LogSystem("server_stop", "Dashboard API shutting down", nil)
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithFields(map[string]interface{}{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("http request")
	}
}

// orderBody is the JSON accepted by POST /api/orders
type orderBody struct {
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	Quantity    string `json:"quantity"`
	Price       string `json:"price"`
	WaitForFill *bool  `json:"wait_for_fill"`
	TimeoutMs   int64  `json:"timeout_ms"`
}

func (s *Server) handlePlaceOrder(c *gin.Context) {
	var body orderBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order payload", "kind": "validation"})
		return
	}

	req, err := cli.ParseOrderRequest(cli.OrderInput{
		Symbol:   body.Symbol,
		Side:     body.Side,
		Type:     body.Type,
		Quantity: body.Quantity,
		Price:    body.Price,
		Timeout:  time.Duration(body.TimeoutMs) * time.Millisecond,
		NoWait:   body.WaitForFill != nil && !*body.WaitForFill,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	outcome, err := s.orders.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) handleBalance(c *gin.Context) {
	balance, err := s.account.USDTBalance(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

func (s *Server) handlePositions(c *gin.Context) {
	positions, err := s.account.OpenPositions(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions})
}

func (s *Server) handleTrades(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Query("symbol")))

	trades, err := s.account.TradeHistory(c.Request.Context(), symbol)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

func (s *Server) handleKlines(c *gin.Context) {
	symbol, err := cli.ValidateSymbol(c.Query("symbol"))
	if err != nil {
		s.fail(c, err)
		return
	}
	interval := c.DefaultQuery("interval", defaultInterval)
	if _, err := trading.IntervalDuration(interval); err != nil {
		s.fail(c, &cli.InputError{Field: "interval", Message: err.Error()})
		return
	}
	start, err := parseStart(c.Query("start"))
	if err != nil {
		s.fail(c, err)
		return
	}

	candles, err := market.FetchKlines(c.Request.Context(), s.gateway, symbol, interval, start)
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := gin.H{"symbol": symbol, "interval": interval, "candles": candles}
	if summary, err := indicators.Summarize(candles); err == nil {
		resp["summary"] = summary
	}
	c.JSON(http.StatusOK, resp)
}

// parseStart accepts RFC 3339 or a plain date; empty means the last day
func parseStart(value string) (time.Time, error) {
	if value == "" {
		return time.Now().Add(-defaultKlinesWindow), nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &cli.InputError{Field: "start", Message: "must be RFC 3339 or YYYY-MM-DD"}
}

// fail maps an error to its HTTP status and JSON body
func (s *Server) fail(c *gin.Context, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		s.logger.LogError(c.Request.Method+" "+c.FullPath(), err, nil)
	}
	c.JSON(status, body)
}

func errorResponse(err error) (int, gin.H) {
	var (
		inputErr *cli.InputError
		orderErr *orders.Error
	)

	switch {
	case errors.As(err, &inputErr):
		return http.StatusBadRequest, gin.H{"error": inputErr.Error(), "kind": "validation"}

	case errors.As(err, &orderErr):
		body := gin.H{"error": err.Error(), "kind": orderErr.Kind.String()}
		switch orderErr.Kind {
		case orders.KindValidation:
			return http.StatusBadRequest, body
		case orders.KindSubmission:
			return http.StatusBadGateway, body
		case orders.KindTracking:
			body["order_id"] = orderErr.OrderID
			return http.StatusGatewayTimeout, body
		}

	case errors.Is(err, account.ErrNoUSDTBalance), errors.Is(err, market.ErrNoKlines):
		return http.StatusNotFound, gin.H{"error": err.Error(), "kind": "not_found"}

	case trading.IsAPIError(err), trading.IsNetworkError(err):
		return http.StatusBadGateway, gin.H{"error": err.Error(), "kind": "gateway"}
	}

	return http.StatusInternalServerError, gin.H{"error": "internal error", "kind": "internal"}
}
