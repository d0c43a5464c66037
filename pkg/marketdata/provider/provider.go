package provider

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
)

// ProviderType defines the type of candle provider.
type ProviderType string

const (
	ProviderTInvest ProviderType = "tinvest"
	ProviderBinance ProviderType = "binance"
	ProviderPolygon ProviderType = "polygon"
)

// Query describes one historical candle request. The range is half-open: [From, To).
type Query struct {
	InstrumentID string            `validate:"required"`
	From         time.Time         `validate:"required"`
	To           time.Time         `validate:"required,gtfield=From"`
	Granularity  types.Granularity `validate:"required"`
}

// CandleSource yields the candles of a query.
type CandleSource interface {
	// Candles returns an iterator over the candles of the query, in the order the provider returns them.
	// Pagination over provider-side limits happens inside the iterator.
	// The iterator yields a zero RawCandle with a non-nil error once and then stops on failure.
	// Cancel the context to stop the download.
	Candles(ctx context.Context, query Query) iter.Seq2[types.RawCandle, error]
}

// Config holds what a provider needs to authenticate.
type Config struct {
	ProviderType  ProviderType `validate:"required,oneof=tinvest binance polygon"`
	Token         string       `validate:"required_if=ProviderType tinvest"`
	PolygonApiKey string       `validate:"required_if=ProviderType polygon"`
	// BaseURL overrides the T-Invest REST endpoint. Empty means production.
	BaseURL string
	// RequestsPerSecond paces T-Invest requests. Zero means the default.
	RequestsPerSecond float64 `validate:"gte=0"`
}

// NewCandleSource creates a candle source based on the provider type.
func NewCandleSource(config Config) (CandleSource, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid provider configuration", err)
	}

	switch config.ProviderType {
	case ProviderTInvest:
		return NewTInvestClient(config.Token, WithBaseURL(config.BaseURL), WithRequestsPerSecond(config.RequestsPerSecond))
	case ProviderBinance:
		return NewBinanceClient()
	case ProviderPolygon:
		return NewPolygonClient(config.PolygonApiKey)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported candle provider: %s", config.ProviderType)
	}
}

func validateQuery(query Query) error {
	if err := validator.New().Struct(query); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid candle query", err)
	}

	if !query.Granularity.Valid() {
		return errors.Newf(errors.ErrCodeUnsupportedGranularity, "unsupported granularity %q", query.Granularity)
	}

	return nil
}

// failed returns an iterator that yields err once.
func failed(err error) iter.Seq2[types.RawCandle, error] {
	return func(yield func(types.RawCandle, error) bool) {
		yield(types.RawCandle{}, err)
	}
}

// windows splits [from, to) into consecutive chunks no wider than size.
func windows(from, to time.Time, size time.Duration) [][2]time.Time {
	var out [][2]time.Time

	for start := from; start.Before(to); {
		end := start.Add(size)
		if end.After(to) {
			end = to
		}

		out = append(out, [2]time.Time{start, end})
		start = end
	}

	return out
}

func describe(query Query) string {
	return fmt.Sprintf("%s %s [%s, %s)", query.InstrumentID, query.Granularity,
		query.From.UTC().Format(time.RFC3339), query.To.UTC().Format(time.RFC3339))
}
