package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"golang.org/x/time/rate"
)

const (
	// DefaultTInvestBaseURL is the production REST gateway of the T-Invest API.
	DefaultTInvestBaseURL = "https://invest-public-api.tinkoff.ru"

	getCandlesPath = "/rest/tinkoff.public.invest.api.contract.v1.MarketDataService/GetCandles"

	// The market data service allows 600 unary calls per minute.
	defaultRequestsPerSecond = 10
	maxErrorBodyBytes        = 4096
)

var tinvestIntervals = map[types.Granularity]string{
	types.GranularityOneMinute:      "CANDLE_INTERVAL_1_MIN",
	types.GranularityFiveMinutes:    "CANDLE_INTERVAL_5_MIN",
	types.GranularityFifteenMinutes: "CANDLE_INTERVAL_15_MIN",
	types.GranularityOneHour:        "CANDLE_INTERVAL_HOUR",
	types.GranularityOneDay:         "CANDLE_INTERVAL_DAY",
	types.GranularityOneWeek:        "CANDLE_INTERVAL_WEEK",
	types.GranularityOneMonth:       "CANDLE_INTERVAL_MONTH",
}

// TInvestClient reads historical candles from the T-Invest REST gateway.
type TInvestClient struct {
	token      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// TInvestOption configures a TInvestClient.
type TInvestOption func(*TInvestClient)

// WithBaseURL overrides the gateway URL. An empty url keeps the default.
func WithBaseURL(url string) TInvestOption {
	return func(c *TInvestClient) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(client *http.Client) TInvestOption {
	return func(c *TInvestClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRequestsPerSecond sets the request pacing. Values <= 0 keep the default.
func WithRequestsPerSecond(rps float64) TInvestOption {
	return func(c *TInvestClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func NewTInvestClient(token string, opts ...TInvestOption) (CandleSource, error) {
	if token == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "T-Invest token is required")
	}

	client := &TInvestClient{
		token:      token,
		baseURL:    DefaultTInvestBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), 1),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

type getCandlesRequest struct {
	InstrumentID string `json:"instrumentId"`
	From         string `json:"from"`
	To           string `json:"to"`
	Interval     string `json:"interval"`
}

type wireQuotation struct {
	Units json.Number `json:"units"`
	Nano  int32       `json:"nano"`
}

type wireCandle struct {
	Open       *wireQuotation `json:"open"`
	High       *wireQuotation `json:"high"`
	Low        *wireQuotation `json:"low"`
	Close      *wireQuotation `json:"close"`
	Volume     json.Number    `json:"volume"`
	Time       *time.Time     `json:"time"`
	IsComplete bool           `json:"isComplete"`
}

type getCandlesResponse struct {
	Candles []wireCandle `json:"candles"`
}

// Candles pages through [From, To) in windows of the granularity's maximum range.
func (c *TInvestClient) Candles(ctx context.Context, query Query) iter.Seq2[types.RawCandle, error] {
	if err := validateQuery(query); err != nil {
		return failed(err)
	}

	interval := tinvestIntervals[query.Granularity]

	return func(yield func(types.RawCandle, error) bool) {
		for _, window := range windows(query.From, query.To, query.Granularity.MaxRange()) {
			candles, err := c.getCandles(ctx, getCandlesRequest{
				InstrumentID: query.InstrumentID,
				From:         window[0].UTC().Format(time.RFC3339Nano),
				To:           window[1].UTC().Format(time.RFC3339Nano),
				Interval:     interval,
			})
			if err != nil {
				yield(types.RawCandle{}, fmt.Errorf("get candles for %s: %w", describe(query), err))

				return
			}

			for _, wc := range candles {
				raw, err := wc.toRawCandle()
				if err != nil {
					yield(types.RawCandle{}, err)

					return
				}

				if !yield(raw, nil) {
					return
				}
			}
		}
	}
}

func (c *TInvestClient) getCandles(ctx context.Context, body getCandlesRequest) ([]wireCandle, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+getCandlesPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

		return nil, &errors.HTTPStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}

	var decoded getCandlesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode GetCandles response: %w", err)
	}

	return decoded.Candles, nil
}

// toRawCandle keeps absent prices as nil so the mapper can reject the record.
// Only undecodable numbers are rejected here.
func (wc wireCandle) toRawCandle() (types.RawCandle, error) {
	raw := types.RawCandle{IsComplete: wc.IsComplete}
	if wc.Time != nil {
		raw.Time = *wc.Time
	}

	prices := []struct {
		name string
		in   *wireQuotation
		out  **types.Quotation
	}{
		{"open", wc.Open, &raw.Open},
		{"high", wc.High, &raw.High},
		{"low", wc.Low, &raw.Low},
		{"close", wc.Close, &raw.Close},
	}

	for _, p := range prices {
		if p.in == nil {
			continue
		}

		q, err := p.in.toQuotation()
		if err != nil {
			return types.RawCandle{}, errors.Wrapf(errors.ErrCodeMalformedRecord, err, "candle at %s has invalid %s", raw.Time, p.name)
		}

		*p.out = &q
	}

	if wc.Volume != "" {
		volume, err := strconv.ParseInt(wc.Volume.String(), 10, 64)
		if err != nil {
			return types.RawCandle{}, errors.Wrapf(errors.ErrCodeMalformedRecord, err, "candle at %s has invalid volume", raw.Time)
		}

		raw.Volume = volume
	}

	return raw, nil
}

func (wq wireQuotation) toQuotation() (types.Quotation, error) {
	units := int64(0)

	if wq.Units != "" {
		parsed, err := strconv.ParseInt(wq.Units.String(), 10, 64)
		if err != nil {
			return types.Quotation{}, err
		}

		units = parsed
	}

	return types.Quotation{Units: units, Nano: wq.Nano}, nil
}
