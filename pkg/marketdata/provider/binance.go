package provider

import (
	"context"
	"fmt"
	"iter"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/shopspring/decimal"
)

// binancePageSize is the maximum number of klines Binance returns per request.
const binancePageSize = 1000

var binanceIntervals = map[types.Granularity]string{
	types.GranularityOneMinute:      "1m",
	types.GranularityFiveMinutes:    "5m",
	types.GranularityFifteenMinutes: "15m",
	types.GranularityOneHour:        "1h",
	types.GranularityOneDay:         "1d",
	types.GranularityOneWeek:        "1w",
	types.GranularityOneMonth:       "1M",
}

// BinanceKlinesService is the subset of *binance.KlinesService used by BinanceClient.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Limit(limit int) BinanceKlinesService
	Do(ctx context.Context, opts ...binance.RequestOption) ([]*binance.Kline, error)
}

// BinanceAPIClient creates klines services.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

type binanceAPIClient struct {
	client *binance.Client
}

func (c *binanceAPIClient) NewKlinesService() BinanceKlinesService {
	return &binanceKlinesService{service: c.client.NewKlinesService()}
}

type binanceKlinesService struct {
	service *binance.KlinesService
}

func (s *binanceKlinesService) Symbol(symbol string) BinanceKlinesService {
	s.service.Symbol(symbol)

	return s
}

func (s *binanceKlinesService) Interval(interval string) BinanceKlinesService {
	s.service.Interval(interval)

	return s
}

func (s *binanceKlinesService) StartTime(startTime int64) BinanceKlinesService {
	s.service.StartTime(startTime)

	return s
}

func (s *binanceKlinesService) EndTime(endTime int64) BinanceKlinesService {
	s.service.EndTime(endTime)

	return s
}

func (s *binanceKlinesService) Limit(limit int) BinanceKlinesService {
	s.service.Limit(limit)

	return s
}

func (s *binanceKlinesService) Do(ctx context.Context, opts ...binance.RequestOption) ([]*binance.Kline, error) {
	return s.service.Do(ctx, opts...)
}

// BinanceClient reads klines from the Binance public market data API. No credential is needed.
type BinanceClient struct {
	client BinanceAPIClient
}

func NewBinanceClient() (CandleSource, error) {
	return &BinanceClient{
		client: &binanceAPIClient{client: binance.NewClient("", "")},
	}, nil
}

// NewBinanceClientWithAPI creates a BinanceClient over a custom API client.
func NewBinanceClientWithAPI(client BinanceAPIClient) *BinanceClient {
	return &BinanceClient{client: client}
}

// Candles pages through the range using the close time of the last kline + 1ms as the next start.
func (c *BinanceClient) Candles(ctx context.Context, query Query) iter.Seq2[types.RawCandle, error] {
	if err := validateQuery(query); err != nil {
		return failed(err)
	}

	interval := binanceIntervals[query.Granularity]
	endTimeMillis := query.To.UnixMilli() - 1

	return func(yield func(types.RawCandle, error) bool) {
		currentStartTime := query.From.UnixMilli()

		for currentStartTime <= endTimeMillis {
			klines, err := c.client.NewKlinesService().
				Symbol(query.InstrumentID).
				Interval(interval).
				StartTime(currentStartTime).
				EndTime(endTimeMillis).
				Limit(binancePageSize).
				Do(ctx)
			if err != nil {
				yield(types.RawCandle{}, fmt.Errorf("fetch klines for %s: %w", describe(query), err))

				return
			}

			for _, k := range klines {
				raw, err := klineToRawCandle(k)
				if err != nil {
					yield(types.RawCandle{}, err)

					return
				}

				if !yield(raw, nil) {
					return
				}
			}

			if len(klines) < binancePageSize {
				return
			}

			currentStartTime = klines[len(klines)-1].CloseTime + 1
		}
	}
}

// klineToRawCandle converts decimal strings into quotations. Fractional volume is truncated to whole lots.
func klineToRawCandle(k *binance.Kline) (types.RawCandle, error) {
	raw := types.RawCandle{
		Time:       time.UnixMilli(k.OpenTime).UTC(),
		IsComplete: true,
	}

	prices := []struct {
		name  string
		value string
		out   **types.Quotation
	}{
		{"open", k.Open, &raw.Open},
		{"high", k.High, &raw.High},
		{"low", k.Low, &raw.Low},
		{"close", k.Close, &raw.Close},
	}

	for _, p := range prices {
		if p.value == "" {
			continue
		}

		q, err := types.ParseQuotation(p.value)
		if err != nil {
			return types.RawCandle{}, errors.Wrapf(errors.ErrCodeMalformedRecord, err, "kline at %s has invalid %s", raw.Time, p.name)
		}

		*p.out = &q
	}

	if k.Volume != "" {
		volume, err := decimal.NewFromString(k.Volume)
		if err != nil {
			return types.RawCandle{}, errors.Wrapf(errors.ErrCodeMalformedRecord, err, "kline at %s has invalid volume", raw.Time)
		}

		raw.Volume = volume.IntPart()
	}

	return raw, nil
}
