package types

import (
	"time"
)

// OHLCV represents one futures kline: Open, High, Low, Close, Volume
type OHLCV struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`  // open time
	CloseTime time.Time `json:"close_time"` // close time
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// NewOHLCV creates a new OHLCV instance
func NewOHLCV(symbol string, timestamp time.Time, open, high, low, close, volume float64) OHLCV {
	return OHLCV{
		Symbol:    symbol,
		Timestamp: timestamp,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
	}
}

// KlineQuery selects a range of historical klines
type KlineQuery struct {
	Symbol   string
	Interval string // "1m", "1h", "1d", ...
	Start    time.Time
	End      time.Time // zero means now
	Limit    int       // zero means exchange default
}
