package mocks

import (
	"iter"
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-marketdata/internal/types"
)

// DataGenerator generates realistic broker candles for tests.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how candles are generated.
type GeneratorConfig struct {
	// StartTime is the open time of the first candle
	StartTime time.Time
	// Interval is the duration between candles
	Interval time.Duration
	// Count is the number of candles to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% per candle)
	Volatility float64
	// Trend is the drift factor (-0.01 to 0.01 for bearish to bullish)
	Trend float64
	// VolumeBase is the average lot volume per candle
	VolumeBase int64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultConfig returns a week of daily candles around a typical blue-chip price.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartTime:      time.Date(2023, 1, 1, 7, 0, 0, 0, time.UTC),
		Interval:       24 * time.Hour,
		Count:          7,
		InitialPrice:   150.0,
		Volatility:     0.02,
		Trend:          0.0,
		VolumeBase:     100000,
		VolumeVariance: 0.3,
	}
}

// Generate creates candles following a geometric Brownian motion.
// Prices are rounded to 4 decimals and carried as quotations, the way brokers send them.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.RawCandle {
	candles := make([]types.RawCandle, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for a normal sample
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		priceChange := config.Volatility * z
		drift := config.Trend / float64(config.Count)

		close := open * (1 + priceChange + drift)
		if close <= 0 {
			close = open * 0.99
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, close) + highExtension
		low := math.Min(open, close) - lowExtension
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		volumeVariation := 1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance
		volume := int64(float64(config.VolumeBase) * volumeVariation)
		if volume < 0 {
			volume = config.VolumeBase / 10
		}

		candles[i] = types.RawCandle{
			Time:       currentTime,
			Open:       quotation(open),
			High:       quotation(high),
			Low:        quotation(low),
			Close:      quotation(close),
			Volume:     volume,
			IsComplete: true,
		}

		currentPrice = close
		currentTime = currentTime.Add(config.Interval)
	}

	return candles
}

// Seq yields the candles in order, like a CandleSource iterator.
func Seq(candles []types.RawCandle) iter.Seq2[types.RawCandle, error] {
	return func(yield func(types.RawCandle, error) bool) {
		for _, c := range candles {
			if !yield(c, nil) {
				return
			}
		}
	}
}

// FailingSeq yields the candles and then fails with err.
func FailingSeq(candles []types.RawCandle, err error) iter.Seq2[types.RawCandle, error] {
	return func(yield func(types.RawCandle, error) bool) {
		for _, c := range candles {
			if !yield(c, nil) {
				return
			}
		}

		yield(types.RawCandle{}, err)
	}
}

func quotation(price float64) *types.Quotation {
	q := types.QuotationFromFloat(roundToDecimals(price, 4))
	return &q
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
