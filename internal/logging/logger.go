package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"futuresbot/internal/config"
	"futuresbot/internal/types"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileName is the rotating log file written under LoggingConfig.Directory
const LogFileName = "trading_bot.log"

// Logger wraps a logrus entry with the component it logs for
type Logger struct {
	*logrus.Entry
	component string
}

// Log levels
const (
	InfoLevel = logrus.InfoLevel
	WarnLevel = logrus.WarnLevel
)

var (
	globalLogger *Logger
	globalMu     sync.Mutex
)

// NewLogger creates a new logger with the given configuration
func NewLogger(cfg config.LoggingConfig) *Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	var output io.Writer
	switch cfg.Output {
	case "file":
		output = createFileWriter(cfg)
	case "both":
		output = io.MultiWriter(os.Stdout, createFileWriter(cfg))
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}
	logger.SetOutput(output)

	return &Logger{Entry: logrus.NewEntry(logger)}
}

// createFileWriter creates a rotating file writer
func createFileWriter(cfg config.LoggingConfig) io.Writer {
	if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to create log directory: %v\n", err)
		return os.Stdout
	}

	return &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Directory, LogFileName),
		MaxSize:    cfg.MaxSize, // MB
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge, // days
		Compress:   cfg.Compress,
	}
}

// InitGlobalLogger initializes the global logger
func InitGlobalLogger(cfg config.LoggingConfig) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = NewLogger(cfg)
}

// SetGlobalLogger replaces the global logger, mostly for tests
func SetGlobalLogger(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalLogger == nil {
		globalLogger = NewLogger(config.LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		})
	}
	return globalLogger
}

// NewComponentLogger creates a logger for a specific component
func NewComponentLogger(component string) *Logger {
	base := GetGlobalLogger()
	return &Logger{
		Entry:     base.Entry.WithField("component", component),
		component: component,
	}
}

// Component returns the component name, empty for the root logger
func (l *Logger) Component() string {
	return l.component
}

// WithFields adds multiple fields to the logger
func (l *Logger) WithFields(fields logrus.Fields) *Logger {
	return &Logger{Entry: l.Entry.WithFields(fields), component: l.component}
}

// WithField adds a single field to the logger
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{Entry: l.Entry.WithField(key, value), component: l.component}
}

// WithError adds an error field to the logger
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Entry: l.Entry.WithError(err), component: l.component}
}

// Order-specific logging methods

// LogOrderRequest logs an order payload before it is sent
func (l *Logger) LogOrderRequest(payload types.OrderPayload) {
	fields := logrus.Fields{
		"event":           "order_request",
		"symbol":          payload.Symbol,
		"side":            payload.Side,
		"type":            payload.Type,
		"quantity":        payload.Quantity.String(),
		"client_order_id": payload.ClientOrderID,
	}
	if payload.Price != nil {
		fields["price"] = payload.Price.String()
		fields["time_in_force"] = payload.TimeInForce
	}
	l.WithFields(fields).Info("Sending order request")
}

// LogOrderSubmitted logs an order the exchange acknowledged
func (l *Logger) LogOrderSubmitted(order types.SubmittedOrder) {
	l.WithFields(logrus.Fields{
		"event":           "order_submitted",
		"order_id":        order.OrderID,
		"client_order_id": order.ClientOrderID,
		"symbol":          order.Symbol,
		"status":          order.InitialStatus,
	}).Info("Order placed")
}

// LogOrderPoll logs one status poll of the fill tracker
func (l *Logger) LogOrderPoll(orderID string, attempt int, snapshot types.OrderSnapshot) {
	l.WithFields(logrus.Fields{
		"event":        "order_poll",
		"order_id":     orderID,
		"attempt":      attempt,
		"status":       snapshot.Status,
		"executed_qty": snapshot.ExecutedQty.String(),
		"avg_price":    snapshot.AvgPrice.String(),
	}).Debug("Order status polled")
}

// LogOrderOutcome logs the final outcome of an order
func (l *Logger) LogOrderOutcome(outcome types.OrderOutcome, elapsed time.Duration) {
	level := InfoLevel
	if !outcome.IsFilled() {
		level = WarnLevel
	}

	l.WithFields(logrus.Fields{
		"event":        "order_outcome",
		"order_id":     outcome.OrderID,
		"status":       outcome.Status,
		"executed_qty": outcome.ExecutedQty.String(),
		"avg_price":    outcome.AvgPrice.String(),
		"elapsed":      elapsed.String(),
	}).Log(level, "Order finished")
}

// LogError logs an error with context
func (l *Logger) LogError(operation string, err error, context map[string]interface{}) {
	fields := logrus.Fields{
		"event":     "error",
		"operation": operation,
		"error":     err.Error(),
	}
	for k, v := range context {
		fields[k] = v
	}

	l.WithFields(fields).Error("Operation failed")
}

// LogSystem logs system-level events
func (l *Logger) LogSystem(event string, message string, details map[string]interface{}) {
	fields := logrus.Fields{
		"event":        "system_event",
		"system_event": event,
	}
	for k, v := range details {
		fields[k] = v
	}

	l.WithFields(fields).Info(message)
}

// CreateOrderLogger creates a logger for order submission and tracking
func CreateOrderLogger() *Logger {
	return NewComponentLogger("orders")
}

// CreateGatewayLogger creates a logger for exchange gateway traffic
func CreateGatewayLogger() *Logger {
	return NewComponentLogger("gateway")
}

// CreateAccountLogger creates a logger for account queries
func CreateAccountLogger() *Logger {
	return NewComponentLogger("account")
}

// CreateServerLogger creates a logger for the HTTP dashboard
func CreateServerLogger() *Logger {
	return NewComponentLogger("server")
}
