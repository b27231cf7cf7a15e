package indicators

import (
	"math"
	"time"

	"futuresbot/internal/types"

	"github.com/cinar/indicator"
	"github.com/pkg/errors"
)

// MinCandles is the least history Summarize accepts
const MinCandles = 2

// ErrNotEnoughCandles is returned for histories shorter than MinCandles
var ErrNotEnoughCandles = errors.Errorf("at least %d candles are required", MinCandles)

// AnalyzerConfig holds the indicator periods
type AnalyzerConfig struct {
	SMAPeriod       int `json:"sma_period"`
	EMAPeriod       int `json:"ema_period"`
	ATRPeriod       int `json:"atr_period"`
	VolumeSMAPeriod int `json:"volume_sma_period"`
}

// DefaultAnalyzerConfig returns 20-period averages and a 14-period ATR
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		SMAPeriod:       20,
		EMAPeriod:       20,
		ATRPeriod:       14,
		VolumeSMAPeriod: 20,
	}
}

// Summary holds the latest indicator values over a kline history
type Summary struct {
	Symbol  string    `json:"symbol"`
	Candles int       `json:"candles"`
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`

	LastClose float64 `json:"last_close"`

	// Trend indicators
	SMA float64 `json:"sma"`
	EMA float64 `json:"ema"`

	// Momentum indicators
	RSI        float64 `json:"rsi"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	MACDHist   float64 `json:"macd_hist"`

	// Volatility indicators
	ATR             float64 `json:"atr"`
	BollingerUpper  float64 `json:"bollinger_upper"`
	BollingerMiddle float64 `json:"bollinger_middle"`
	BollingerLower  float64 `json:"bollinger_lower"`

	VolumeSMA float64 `json:"volume_sma"`
}

// Summarize computes the indicator summary with the default periods
func Summarize(candles []types.OHLCV) (*Summary, error) {
	return SummarizeWith(DefaultAnalyzerConfig(), candles)
}

// SummarizeWith computes the indicator summary for candles in time order
func SummarizeWith(config AnalyzerConfig, candles []types.OHLCV) (*Summary, error) {
	if len(candles) < MinCandles {
		return nil, ErrNotEnoughCandles
	}
	config = withDefaults(config)

	closes := extract(candles, func(c types.OHLCV) float64 { return c.Close })
	highs := extract(candles, func(c types.OHLCV) float64 { return c.High })
	lows := extract(candles, func(c types.OHLCV) float64 { return c.Low })
	volumes := extract(candles, func(c types.OHLCV) float64 { return c.Volume })

	_, rsi := indicator.Rsi(closes)
	macdLine, signalLine := indicator.Macd(closes)
	_, atr := indicator.Atr(config.ATRPeriod, highs, lows, closes)
	bbMiddle, bbUpper, bbLower := indicator.BollingerBands(closes)

	summary := &Summary{
		Symbol:          candles[0].Symbol,
		Candles:         len(candles),
		From:            candles[0].Timestamp,
		To:              candles[len(candles)-1].Timestamp,
		LastClose:       closes[len(closes)-1],
		SMA:             lastValue(indicator.Sma(config.SMAPeriod, closes)),
		EMA:             lastValue(indicator.Ema(config.EMAPeriod, closes)),
		RSI:             lastValue(rsi),
		MACD:            lastValue(macdLine),
		MACDSignal:      lastValue(signalLine),
		ATR:             lastValue(atr),
		BollingerUpper:  lastValue(bbUpper),
		BollingerMiddle: lastValue(bbMiddle),
		BollingerLower:  lastValue(bbLower),
		VolumeSMA:       lastValue(indicator.Sma(config.VolumeSMAPeriod, volumes)),
	}
	summary.MACDHist = summary.MACD - summary.MACDSignal

	return summary, nil
}

func withDefaults(config AnalyzerConfig) AnalyzerConfig {
	defaults := DefaultAnalyzerConfig()
	if config.SMAPeriod <= 0 {
		config.SMAPeriod = defaults.SMAPeriod
	}
	if config.EMAPeriod <= 0 {
		config.EMAPeriod = defaults.EMAPeriod
	}
	if config.ATRPeriod <= 0 {
		config.ATRPeriod = defaults.ATRPeriod
	}
	if config.VolumeSMAPeriod <= 0 {
		config.VolumeSMAPeriod = defaults.VolumeSMAPeriod
	}
	return config
}

func extract(candles []types.OHLCV, field func(types.OHLCV) float64) []float64 {
	values := make([]float64, len(candles))
	for i, candle := range candles {
		values[i] = field(candle)
	}
	return values
}

// lastValue returns the last finite value, skipping the warm-up NaNs some
// indicators emit
func lastValue(values []float64) float64 {
	for i := len(values) - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) && !math.IsInf(values[i], 0) {
			return values[i]
		}
	}
	return 0
}
