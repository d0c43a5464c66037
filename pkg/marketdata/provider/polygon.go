package provider

import (
	"context"
	"fmt"
	"iter"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
)

type polygonTimespan struct {
	multiplier int
	timespan   models.Timespan
}

var polygonTimespans = map[types.Granularity]polygonTimespan{
	types.GranularityOneMinute:      {1, models.Minute},
	types.GranularityFiveMinutes:    {5, models.Minute},
	types.GranularityFifteenMinutes: {15, models.Minute},
	types.GranularityOneHour:        {1, models.Hour},
	types.GranularityOneDay:         {1, models.Day},
	types.GranularityOneWeek:        {1, models.Week},
	types.GranularityOneMonth:       {1, models.Month},
}

// PolygonAggsIterator is satisfied by the client-go aggregates iterator.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient lists aggregates.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, opts ...models.RequestOption) PolygonAggsIterator
}

type polygonAPIClient struct {
	client *polygon.Client
}

func (c *polygonAPIClient) ListAggs(ctx context.Context, params *models.ListAggsParams, opts ...models.RequestOption) PolygonAggsIterator {
	return c.client.ListAggs(ctx, params, opts...)
}

// PolygonClient reads aggregates from Polygon.io. The client-go iterator follows next_url pages.
type PolygonClient struct {
	client PolygonAPIClient
}

func NewPolygonClient(apiKey string) (CandleSource, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "polygon apiKey is required")
	}

	return &PolygonClient{
		client: &polygonAPIClient{client: polygon.New(apiKey)},
	}, nil
}

// NewPolygonClientWithAPI creates a PolygonClient over a custom API client.
func NewPolygonClientWithAPI(client PolygonAPIClient) *PolygonClient {
	return &PolygonClient{client: client}
}

func (c *PolygonClient) Candles(ctx context.Context, query Query) iter.Seq2[types.RawCandle, error] {
	if err := validateQuery(query); err != nil {
		return failed(err)
	}

	return func(yield func(types.RawCandle, error) bool) {
		aggs := c.client.ListAggs(ctx, listAggsParams(query))

		for aggs.Next() {
			if !yield(aggToRawCandle(aggs.Item()), nil) {
				return
			}
		}

		if aggs.Err() != nil {
			yield(types.RawCandle{}, fmt.Errorf("iterate polygon aggregates for %s: %w", describe(query), aggs.Err()))
		}
	}
}

func listAggsParams(query Query) *models.ListAggsParams {
	span := polygonTimespans[query.Granularity]

	//nolint:exhaustruct // third-party struct with many optional fields
	return models.ListAggsParams{
		Ticker:     query.InstrumentID,
		Multiplier: span.multiplier,
		Timespan:   span.timespan,
		From:       models.Millis(query.From),
		To:         models.Millis(query.To.Add(-time.Millisecond)),
	}.WithLimit(50000)
}

func aggToRawCandle(agg models.Agg) types.RawCandle {
	open := types.QuotationFromFloat(agg.Open)
	high := types.QuotationFromFloat(agg.High)
	low := types.QuotationFromFloat(agg.Low)
	closePrice := types.QuotationFromFloat(agg.Close)

	return types.RawCandle{
		Time:       time.Time(agg.Timestamp).UTC(),
		Open:       &open,
		High:       &high,
		Low:        &low,
		Close:      &closePrice,
		Volume:     int64(agg.Volume),
		IsComplete: true,
	}
}
