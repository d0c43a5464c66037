package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-marketdata/internal/logger"
	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/provider"
	"go.uber.org/zap"
)

// OnDownloadProgress receives the covered share of the requested range.
type OnDownloadProgress = func(current float64, total float64, message string)

// DownloadRequest describes one historical download. Either Lookback or Start must be set;
// End defaults to the downloader's clock.
type DownloadRequest struct {
	InstrumentID string            `validate:"required"`
	Lookback     time.Duration     `validate:"gte=0"`
	Start        optional.Option[time.Time]
	End          optional.Option[time.Time]
	Granularity  types.Granularity `validate:"required"`
}

// Result is a non-empty download: the derived filename, the requested range and the table.
type Result struct {
	Filename     string
	InstrumentID string
	Granularity  types.Granularity
	Start        time.Time
	End          time.Time
	Table        types.CandleTable
}

// Downloader turns a DownloadRequest into a CandleTable by draining a CandleSource.
// It holds no per-request state, so one Downloader can serve concurrent requests.
type Downloader struct {
	source     provider.CandleSource
	logger     *logger.Logger
	now        func() time.Time
	onProgress OnDownloadProgress
	extension  string
	validate   *validator.Validate
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithClock overrides time.Now for range computation.
func WithClock(now func() time.Time) DownloaderOption {
	return func(d *Downloader) {
		d.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) DownloaderOption {
	return func(d *Downloader) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithProgress sets a progress callback, invoked once per candle.
func WithProgress(onProgress OnDownloadProgress) DownloaderOption {
	return func(d *Downloader) {
		d.onProgress = onProgress
	}
}

// WithExtension sets the extension used in derived filenames.
func WithExtension(ext string) DownloaderOption {
	return func(d *Downloader) {
		d.extension = ext
	}
}

func NewDownloader(source provider.CandleSource, opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		source:    source,
		logger:    logger.NewNopLogger(),
		now:       time.Now,
		extension: DefaultExtension,
		validate:  validator.New(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// ResolveRange returns the [start, end) range of a request.
func (d *Downloader) ResolveRange(req DownloadRequest) (time.Time, time.Time, error) {
	end := req.End.TakeOr(d.now()).UTC()

	if req.Start.IsNone() && req.Lookback <= 0 {
		return time.Time{}, time.Time{}, errors.New(errors.ErrCodeMissingParameter, "either a lookback or an explicit start is required")
	}

	start := req.Start.TakeOr(end.Add(-req.Lookback)).UTC()
	if !start.Before(end) {
		return time.Time{}, time.Time{}, errors.Newf(errors.ErrCodeInvalidParameter,
			"range start %s is not before end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	return start, end, nil
}

// Download drains the source for the request's range and maps every candle.
// An empty stream yields None and no error: the caller should skip persistence.
// Source failures are wrapped as ErrCodeSourceUnavailable and never retried here.
func (d *Downloader) Download(ctx context.Context, req DownloadRequest) (optional.Option[Result], error) {
	if err := d.validate.Struct(req); err != nil {
		return optional.None[Result](), errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download request", err)
	}

	if !req.Granularity.Valid() {
		return optional.None[Result](), errors.Newf(errors.ErrCodeUnsupportedGranularity, "unsupported granularity %q", req.Granularity)
	}

	start, end, err := d.ResolveRange(req)
	if err != nil {
		return optional.None[Result](), err
	}

	log := d.logger.With(
		zap.String("instrument", req.InstrumentID),
		zap.String("granularity", string(req.Granularity)),
		zap.Time("start", start),
		zap.Time("end", end),
	)
	log.Info("Downloading candles")

	query := provider.Query{
		InstrumentID: req.InstrumentID,
		From:         start,
		To:           end,
		Granularity:  req.Granularity,
	}

	var table types.CandleTable

	total := end.Sub(start).Seconds()
	message := fmt.Sprintf("Downloading %s", req.InstrumentID)

	for raw, err := range d.source.Candles(ctx, query) {
		if err != nil {
			if errors.HasCode(err, errors.ErrCodeMalformedRecord) {
				return optional.None[Result](), err
			}

			return optional.None[Result](), errors.Wrapf(errors.ErrCodeSourceUnavailable, err,
				"candle source failed after %d candles", len(table))
		}

		record, err := MapCandle(raw)
		if err != nil {
			return optional.None[Result](), errors.Wrapf(errors.ErrCodeMalformedRecord, err,
				"candle %d of %s", len(table), req.InstrumentID)
		}

		table = append(table, record)

		if d.onProgress != nil {
			d.onProgress(record.Time.Sub(start).Seconds(), total, message)
		}
	}

	if table.IsEmpty() {
		log.Info("No data received")

		return optional.None[Result](), nil
	}

	log.Info("Downloaded candles", zap.Int("records", table.Len()))

	return optional.Some(Result{
		Filename:     DeriveFilename(req.InstrumentID, start, end, req.Granularity, d.extension),
		InstrumentID: req.InstrumentID,
		Granularity:  req.Granularity,
		Start:        start,
		End:          end,
		Table:        table,
	}), nil
}
