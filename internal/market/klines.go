package market

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"futuresbot/internal/logging"
	"futuresbot/internal/types"
	"futuresbot/pkg/trading"

	"github.com/pkg/errors"
)

// MaxKlinesPerPage is the largest page the futures klines endpoint serves
const MaxKlinesPerPage = 1500

// ErrNoKlines is returned when the exchange has no data for the range
var ErrNoKlines = errors.New("no klines returned")

// CSVHeader lists the exported kline columns
var CSVHeader = []string{"open_time", "open", "high", "low", "close", "volume", "close_time"}

// FetchKlines downloads every kline from start up to now, one page at a time
func FetchKlines(ctx context.Context, gateway trading.Gateway, symbol, interval string, start time.Time) ([]types.OHLCV, error) {
	logger := logging.NewComponentLogger("market").WithFields(map[string]interface{}{
		"symbol":   symbol,
		"interval": interval,
		"start":    start.Format(time.RFC3339),
	})
	logger.Info("Fetching futures klines")

	var candles []types.OHLCV
	cursor := start
	for {
		page, err := gateway.GetKlines(ctx, types.KlineQuery{
			Symbol:   symbol,
			Interval: interval,
			Start:    cursor,
			Limit:    MaxKlinesPerPage,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "fetch klines from %s", cursor.Format(time.RFC3339))
		}
		candles = append(candles, page...)

		if len(page) < MaxKlinesPerPage {
			break
		}
		cursor = page[len(page)-1].Timestamp.Add(time.Millisecond)
	}

	if len(candles) == 0 {
		return nil, ErrNoKlines
	}

	logger.WithField("count", len(candles)).Info("Futures klines fetched")
	return candles, nil
}

// WriteCSV writes candles with a header row. Times are RFC 3339 in UTC.
func WriteCSV(w io.Writer, candles []types.OHLCV) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return errors.Wrap(err, "write csv header")
	}

	for _, c := range candles {
		record := []string{
			c.Timestamp.UTC().Format(time.RFC3339),
			formatFloat(c.Open),
			formatFloat(c.High),
			formatFloat(c.Low),
			formatFloat(c.Close),
			formatFloat(c.Volume),
			c.CloseTime.UTC().Format(time.RFC3339Nano),
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, "write csv record")
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
