package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"futuresbot/internal/account"
	"futuresbot/internal/indicators"
	"futuresbot/internal/orders"
	"futuresbot/internal/types"
	"futuresbot/pkg/trading"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pkg/errors"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))

	infoStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

func renderTable(title string, headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), t.Render())
}

// RenderPlacing is shown while an order is being sent
func RenderPlacing() string {
	return infoStyle.Render("Placing Order...")
}

// RenderOutcome renders an order outcome and a one-line verdict
func RenderOutcome(outcome types.OrderOutcome) string {
	rows := [][]string{
		{"Order ID", outcome.OrderID},
		{"Status", string(outcome.Status)},
		{"Executed Qty", outcome.ExecutedQty.String()},
		{"Avg Price", outcome.AvgPrice.String()},
	}

	var verdict string
	switch outcome.Status {
	case types.OrderStatusFilled:
		verdict = successStyle.Render("Order executed successfully!")
	case types.OrderStatusTimeout:
		verdict = warningStyle.Render("Order not filled within timeout. It may still fill on the exchange.")
	case types.OrderStatusCancelledByCaller:
		verdict = warningStyle.Render("Tracking stopped before the order settled. Check it on the exchange.")
	case types.OrderStatusNew, types.OrderStatusPartiallyFilled:
		verdict = infoStyle.Render(fmt.Sprintf("Order accepted with status %s.", outcome.Status))
	default:
		verdict = errorStyle.Render(fmt.Sprintf("Final Status: %s", outcome.Status))
	}

	return lipgloss.JoinVertical(lipgloss.Left, renderTable("Order Result", []string{"Field", "Value"}, rows), verdict)
}

// RenderBalance renders the USDT wallet
func RenderBalance(balance *account.USDTBalance) string {
	return renderTable("Futures Balance",
		[]string{"Asset", "Wallet Balance", "Available Balance"},
		[][]string{{balance.Asset, balance.WalletBalance.String(), balance.AvailableBalance.String()}})
}

// RenderPositions renders open positions
func RenderPositions(positions []account.OpenPosition) string {
	if len(positions) == 0 {
		return warningStyle.Render("No open positions.")
	}

	rows := make([][]string, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, []string{
			p.Symbol,
			string(p.Side),
			p.PositionAmt.String(),
			p.EntryPrice.String(),
			p.UnrealizedProfit.String(),
			strconv.Itoa(p.Leverage) + "x",
		})
	}
	return renderTable("Open Positions",
		[]string{"Symbol", "Side", "Position Amt", "Entry Price", "Unrealized PnL", "Leverage"}, rows)
}

// RenderTrades renders the trade history
func RenderTrades(trades []account.TradeRecord) string {
	if len(trades) == 0 {
		return warningStyle.Render("No trades found.")
	}

	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, []string{
			t.Time.Local().Format(time.DateTime),
			t.Symbol,
			string(t.Side),
			t.Quantity.String(),
			t.Price.String(),
			t.RealizedPnl.String(),
		})
	}
	return renderTable("Trade History",
		[]string{"Time", "Symbol", "Side", "Quantity", "Price", "Realized PnL"}, rows)
}

// RenderSummary renders an indicator summary
func RenderSummary(summary *indicators.Summary) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }

	rows := [][]string{
		{"Candles", strconv.Itoa(summary.Candles)},
		{"From", summary.From.UTC().Format(time.RFC3339)},
		{"To", summary.To.UTC().Format(time.RFC3339)},
		{"Last Close", f(summary.LastClose)},
		{"SMA", f(summary.SMA)},
		{"EMA", f(summary.EMA)},
		{"RSI", f(summary.RSI)},
		{"MACD", f(summary.MACD)},
		{"MACD Signal", f(summary.MACDSignal)},
		{"MACD Hist", f(summary.MACDHist)},
		{"ATR", f(summary.ATR)},
		{"Bollinger Upper", f(summary.BollingerUpper)},
		{"Bollinger Middle", f(summary.BollingerMiddle)},
		{"Bollinger Lower", f(summary.BollingerLower)},
		{"Volume SMA", f(summary.VolumeSMA)},
	}
	return renderTable(summary.Symbol+" Indicators", []string{"Indicator", "Value"}, rows)
}

// RenderSaved confirms a file export
func RenderSaved(path string, count int) string {
	return successStyle.Render(fmt.Sprintf("Saved %d candles to %s", count, path))
}

// RenderError renders err according to its kind, so a rejected input, an
// exchange rejection, a lost connection and an order in unknown state never
// look alike.
func RenderError(err error) string {
	var (
		inputErr *InputError
		orderErr *orders.Error
		apiErr   *trading.APIError
		netErr   *trading.NetworkError
	)

	switch {
	case errors.As(err, &inputErr):
		return errorStyle.Render("Validation Error: " + inputErr.Error())

	case errors.As(err, &orderErr) && orderErr.Kind == orders.KindValidation:
		return errorStyle.Render("Validation Error: " + causeText(orderErr))

	case errors.As(err, &orderErr) && orderErr.Kind == orders.KindTracking:
		return warningStyle.Render(fmt.Sprintf(
			"Order %s was placed but its status could not be confirmed: %s\nCheck the order on the exchange before retrying.",
			orderErr.OrderID, causeText(orderErr)))

	case errors.Is(err, account.ErrNoUSDTBalance):
		return warningStyle.Render("No USDT balance found on the futures wallet.")

	case errors.As(err, &apiErr):
		return errorStyle.Render(fmt.Sprintf("Binance API Error: %s (code %d)", apiErr.Message, apiErr.Code))

	case errors.As(err, &netErr):
		return errorStyle.Render("Network Error. Check connection.")

	case errors.As(err, &orderErr) && orderErr.Kind == orders.KindSubmission:
		return errorStyle.Render("Order submission failed: " + causeText(orderErr))
	}

	return errorStyle.Render("Unexpected error occurred. Check logs.")
}

func causeText(err *orders.Error) string {
	if err.Err == nil {
		return err.Op
	}
	return strings.TrimSpace(err.Err.Error())
}
