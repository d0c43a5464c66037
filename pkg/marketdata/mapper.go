package marketdata

import (
	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
)

// MapCandle converts a raw candle into a CandleRecord, normalizing the four prices.
// A candle without a timestamp or with an absent price fails with ErrCodeMalformedRecord.
func MapCandle(raw types.RawCandle) (types.CandleRecord, error) {
	if raw.Time.IsZero() {
		return types.CandleRecord{}, errors.New(errors.ErrCodeMalformedRecord, "candle is missing time")
	}

	prices := []struct {
		name  string
		value *types.Quotation
	}{
		{"open", raw.Open},
		{"high", raw.High},
		{"low", raw.Low},
		{"close", raw.Close},
	}

	for _, p := range prices {
		if p.value == nil {
			return types.CandleRecord{}, errors.Newf(errors.ErrCodeMalformedRecord, "candle at %s is missing %s",
				raw.Time.UTC().Format("2006-01-02T15:04:05Z"), p.name)
		}
	}

	return types.CandleRecord{
		Time:   raw.Time.UTC(),
		Open:   raw.Open.Float64(),
		High:   raw.High.Float64(),
		Low:    raw.Low.Float64(),
		Close:  raw.Close.Float64(),
		Volume: raw.Volume,
	}, nil
}
