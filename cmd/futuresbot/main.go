package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"futuresbot/internal/account"
	"futuresbot/internal/api"
	"futuresbot/internal/cli"
	"futuresbot/internal/config"
	"futuresbot/internal/indicators"
	"futuresbot/internal/logging"
	"futuresbot/internal/market"
	"futuresbot/internal/orders"
	"futuresbot/internal/types"
	"futuresbot/pkg/trading"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// Application constants
	AppName           = "Futures Trading Bot"
	AppVersion        = "1.0.0"
	DefaultConfigPath = "./config.yaml"
)

var (
	// Command line flags
	configPath = flag.String("config", DefaultConfigPath, "Path to configuration file (.yaml or .json)")
	debugMode  = flag.Bool("debug", false, "Enable debug logging")
	version    = flag.Bool("version", false, "Show version information")
)

// Application holds the wired services for one command
type Application struct {
	cfg     *config.Config
	logger  *logging.Logger
	gateway trading.Gateway
	orders  *orders.Service
	account *account.Service
	out     io.Writer
}

func init() {
	flag.Usage = printUsage
}

func main() {
	flag.Parse()

	if *version {
		printVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := initializeApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderError(err))
		os.Exit(1)
	}
}

// initializeApplication loads configuration and builds the services
func initializeApplication() (*Application, error) {
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	cfg.LoadEnv()

	if *debugMode || config.GetEnvBool(config.EnvDebug, false) {
		cfg.App.Debug = true
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return nil, err
	}

	logging.InitGlobalLogger(cfg.Logging)
	logger := logging.NewComponentLogger("main")
	logger.WithFields(logrus.Fields{
		"version":     AppVersion,
		"environment": cfg.App.Environment,
		"provider":    cfg.Exchange.Provider,
		"config_path": *configPath,
	}).Debug("Starting futures trading bot")

	gateway, err := createGateway(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create exchange gateway")
	}

	return &Application{
		cfg:     cfg,
		logger:  logger,
		gateway: gateway,
		orders:  orders.NewService(gateway, orders.ServiceConfigFrom(cfg.Orders)),
		account: account.NewService(gateway),
		out:     os.Stdout,
	}, nil
}

// createGateway creates the configured exchange gateway
func createGateway(cfg *config.Config) (trading.Gateway, error) {
	factory := trading.NewGatewayFactory()

	if cfg.Exchange.Provider == trading.ProviderSimulation {
		sim := cfg.Simulation
		return factory.CreateGateway(trading.SimulationConfig{
			ExecutionConfig: trading.ExecutionConfig{
				ProviderType: trading.ProviderSimulation,
				Exchange:     "binance-futures",
			},
			InitialBalance:   sim.InitialBalance,
			MarkPrices:       sim.MarkPrices,
			DefaultMarkPrice: sim.DefaultMarkPrice,
			Commission:       sim.Commission,
			Slippage:         sim.Slippage,
			Leverage:         sim.Leverage,
			Latency:          sim.Latency,
			FillProbability:  sim.FillProbability,
			RejectionRate:    sim.RejectionRate,
			Seed:             sim.Seed,
		})
	}

	ex := cfg.Exchange
	return factory.CreateGateway(trading.LiveConfig{
		ExecutionConfig: trading.ExecutionConfig{
			ProviderType: trading.ProviderBinance,
			Exchange:     "binance-futures",
			Testnet:      ex.Testnet,
		},
		APIKey:          ex.APIKey,
		APISecret:       ex.APISecret,
		RESTURL:         ex.ResolveBaseURL(),
		Timeout:         ex.Timeout,
		RecvWindow:      ex.RecvWindow,
		RateLimitPerSec: ex.RateLimitPerSec,
	})
}

// run dispatches a subcommand
func (app *Application) run(ctx context.Context, command string, args []string) error {
	app.logger.WithField("command", command).Debug("Running command")

	switch command {
	case "trade":
		return app.runTrade(ctx, args)
	case "balance":
		return app.runBalance(ctx)
	case "positions":
		return app.runPositions(ctx)
	case "history":
		return app.runHistory(ctx, args)
	case "klines":
		return app.runKlines(ctx, args)
	case "interactive":
		return cli.NewInteractive(os.Stdin, app.out, app.orders, app.account).Run(ctx)
	case "serve":
		return api.NewServer(app.cfg.Server, app.orders, app.account, app.gateway).Run(ctx)
	}

	printUsage()
	return &cli.InputError{Field: "command", Message: fmt.Sprintf("unknown command %q", command)}
}

func (app *Application) runTrade(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("trade", flag.ContinueOnError)
	var in cli.OrderInput
	fs.StringVar(&in.Symbol, "symbol", app.cfg.Orders.DefaultSymbol, "Trading pair, e.g. BTCUSDT")
	fs.StringVar(&in.Side, "side", "", "BUY or SELL")
	fs.StringVar(&in.Type, "type", "MARKET", "MARKET or LIMIT")
	fs.StringVar(&in.Quantity, "quantity", "", "Order quantity")
	fs.StringVar(&in.Price, "price", "", "Limit price (LIMIT orders only)")
	fs.DurationVar(&in.Timeout, "timeout", 0, "How long to wait for a fill (default from config)")
	fs.BoolVar(&in.NoWait, "no-wait", false, "Return right after submission")
	if err := fs.Parse(args); err != nil {
		return &cli.InputError{Field: "flags", Message: err.Error()}
	}

	req, err := cli.ParseOrderRequest(in)
	if err != nil {
		return err
	}

	fmt.Fprintln(app.out, cli.RenderPlacing())
	outcome, err := app.orders.PlaceOrder(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.out, cli.RenderOutcome(outcome))
	return nil
}

func (app *Application) runBalance(ctx context.Context) error {
	balance, err := app.account.USDTBalance(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.out, cli.RenderBalance(balance))
	return nil
}

func (app *Application) runPositions(ctx context.Context) error {
	positions, err := app.account.OpenPositions(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.out, cli.RenderPositions(positions))
	return nil
}

func (app *Application) runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	symbol := fs.String("symbol", "", "Only show trades for this symbol")
	if err := fs.Parse(args); err != nil {
		return &cli.InputError{Field: "flags", Message: err.Error()}
	}

	trades, err := app.account.TradeHistory(ctx, strings.ToUpper(strings.TrimSpace(*symbol)))
	if err != nil {
		return err
	}
	fmt.Fprintln(app.out, cli.RenderTrades(trades))
	return nil
}

func (app *Application) runKlines(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("klines", flag.ContinueOnError)
	symbolFlag := fs.String("symbol", app.cfg.Orders.DefaultSymbol, "Trading pair, e.g. BTCUSDT")
	interval := fs.String("interval", "1h", "Kline interval (1m, 5m, 1h, 4h, 1d, ...)")
	startFlag := fs.String("start", time.Now().AddDate(0, 0, -7).Format(time.DateOnly), "Start date, YYYY-MM-DD")
	out := fs.String("out", "", "Write candles to this CSV file")
	if err := fs.Parse(args); err != nil {
		return &cli.InputError{Field: "flags", Message: err.Error()}
	}

	symbol, err := cli.ValidateSymbol(*symbolFlag)
	if err != nil {
		return err
	}
	start, err := time.Parse(time.DateOnly, *startFlag)
	if err != nil {
		return &cli.InputError{Field: "start", Message: "must be YYYY-MM-DD"}
	}

	candles, err := market.FetchKlines(ctx, app.gateway, symbol, *interval, start)
	if err != nil {
		return err
	}

	if *out != "" {
		if err := saveCSV(*out, candles); err != nil {
			return err
		}
		fmt.Fprintln(app.out, cli.RenderSaved(*out, len(candles)))
	}

	summary, err := indicators.Summarize(candles)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.out, cli.RenderSummary(summary))
	return nil
}

func saveCSV(path string, candles []types.OHLCV) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create csv file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close csv file")
		}
	}()

	return market.WriteCSV(f, candles)
}

// printUsage prints command line usage information
func printUsage() {
	fmt.Printf(`%s - %s

Usage: %s [options] <command> [command options]

Options:
`, AppName, AppVersion, os.Args[0])
	flag.PrintDefaults()
	fmt.Printf(`
Commands:
  trade        Place an order and wait for it to settle
  balance      Show the USDT futures balance
  positions    Show open positions
  history      Show trade history (-symbol to filter)
  klines       Download klines, optionally to CSV, and summarize indicators
  interactive  Menu-driven session
  serve        Run the dashboard JSON API

Examples:
  %s trade -symbol BTCUSDT -side BUY -type MARKET -quantity 0.01
  %s trade -symbol ETHUSDT -side SELL -type LIMIT -quantity 0.5 -price 3500 -timeout 30s
  %s klines -symbol BTCUSDT -interval 15m -start 2024-01-01 -out btc.csv
  %s -config ./config.json serve

Environment Variables:
  %s / %s   API credentials (a .env file is loaded if present)
  %s        Override exchange provider (binance, simulation)
  %s       Override log level (debug, info, warn, error)
  %s          Enable debug mode
  %s         Override the dashboard listen address

A configuration file is created with default values if it doesn't exist.
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0],
		config.EnvAPIKey, config.EnvSecretKey, config.EnvProvider, config.EnvLogLevel, config.EnvDebug, config.EnvListen)
}

// printVersion prints version information
func printVersion() {
	fmt.Printf(`%s %s

Go Version: %s
GOOS: %s
GOARCH: %s
`, AppName, AppVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
