package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"futuresbot/internal/account"
	"futuresbot/internal/types"
)

// OrderPlacer places an order and reports its outcome
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderOutcome, error)
}

// AccountReader answers the account queries shown by the menu
type AccountReader interface {
	USDTBalance(ctx context.Context) (*account.USDTBalance, error)
	OpenPositions(ctx context.Context) ([]account.OpenPosition, error)
	TradeHistory(ctx context.Context, symbol string) ([]account.TradeRecord, error)
}

const menuText = `
1) Place trade
2) Show balance
3) Show open positions
4) Show trade history
5) Exit`

// Interactive is a line-oriented menu over the order and account services
type Interactive struct {
	in      *bufio.Scanner
	lines   chan string
	readErr error // set before lines is closed
	out     io.Writer
	orders  OrderPlacer
	account AccountReader
}

// NewInteractive creates a menu reading from in and writing to out
func NewInteractive(in io.Reader, out io.Writer, orders OrderPlacer, account AccountReader) *Interactive {
	return &Interactive{
		in:      bufio.NewScanner(in),
		lines:   make(chan string),
		out:     out,
		orders:  orders,
		account: account,
	}
}

// Run shows the menu until the user exits, input ends or ctx is cancelled.
// Cancellation is noticed while waiting at a prompt and returns nil.
func (m *Interactive) Run(ctx context.Context) error {
	go m.readLines(ctx)

	m.println(titleStyle.Render("Binance Futures Trading Bot"))

	for ctx.Err() == nil {
		m.println(menuText)
		choice, ok := m.prompt(ctx, "Select an option")
		if !ok {
			if ctx.Err() != nil {
				return nil
			}
			return m.readErr
		}

		switch choice {
		case "1":
			m.placeTrade(ctx)
		case "2":
			m.showBalance(ctx)
		case "3":
			m.showPositions(ctx)
		case "4":
			m.showHistory(ctx)
		case "5", "q", "exit":
			m.println("Goodbye!")
			return nil
		default:
			m.println(warningStyle.Render("Invalid choice."))
		}
	}
	return nil
}

func (m *Interactive) placeTrade(ctx context.Context) {
	var in OrderInput
	var ok bool

	if in.Symbol, ok = m.prompt(ctx, "Enter Symbol (e.g. BTCUSDT)"); !ok {
		return
	}
	if in.Side, ok = m.prompt(ctx, "Enter Side (BUY/SELL)"); !ok {
		return
	}
	if in.Type, ok = m.prompt(ctx, "Order Type (MARKET/LIMIT)"); !ok {
		return
	}
	if in.Quantity, ok = m.prompt(ctx, "Quantity"); !ok {
		return
	}
	if strings.EqualFold(strings.TrimSpace(in.Type), string(types.OrderTypeLimit)) {
		if in.Price, ok = m.prompt(ctx, "Limit Price"); !ok {
			return
		}
	}

	req, err := ParseOrderRequest(in)
	if err != nil {
		m.println(RenderError(err))
		return
	}

	m.println(RenderPlacing())
	outcome, err := m.orders.PlaceOrder(ctx, req)
	if err != nil {
		m.println(RenderError(err))
		return
	}
	m.println(RenderOutcome(outcome))
}

func (m *Interactive) showBalance(ctx context.Context) {
	balance, err := m.account.USDTBalance(ctx)
	if err != nil {
		m.println(RenderError(err))
		return
	}
	m.println(RenderBalance(balance))
}

func (m *Interactive) showPositions(ctx context.Context) {
	positions, err := m.account.OpenPositions(ctx)
	if err != nil {
		m.println(RenderError(err))
		return
	}
	m.println(RenderPositions(positions))
}

func (m *Interactive) showHistory(ctx context.Context) {
	symbol, ok := m.prompt(ctx, "Symbol filter (blank for all)")
	if !ok {
		return
	}
	symbol = strings.ToUpper(symbol)

	trades, err := m.account.TradeHistory(ctx, symbol)
	if err != nil {
		m.println(RenderError(err))
		return
	}
	m.println(RenderTrades(trades))
}

// readLines feeds input lines to prompt until input ends or ctx is done
func (m *Interactive) readLines(ctx context.Context) {
	defer close(m.lines)
	for m.in.Scan() {
		select {
		case m.lines <- m.in.Text():
		case <-ctx.Done():
			return
		}
	}
	m.readErr = m.in.Err()
}

// prompt reads one trimmed line; false means input is exhausted or ctx is done
func (m *Interactive) prompt(ctx context.Context, label string) (string, bool) {
	fmt.Fprintf(m.out, "%s: ", label)
	select {
	case line, ok := <-m.lines:
		if !ok {
			return "", false
		}
		return strings.TrimSpace(line), true
	case <-ctx.Done():
		return "", false
	}
}

func (m *Interactive) println(s string) {
	fmt.Fprintln(m.out, s)
}
