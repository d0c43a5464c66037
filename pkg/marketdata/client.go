package marketdata

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-marketdata/internal/logger"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/writer"
	"go.uber.org/zap"
)

// SinkType defines where downloaded candles are persisted.
type SinkType string

const (
	SinkFile     SinkType = "file"
	SinkDatabase SinkType = "db"
)

// DefaultDataPath is the directory parquet files are written to when none is configured.
const DefaultDataPath = "data/candles"

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	Provider    provider.Config
	SinkType    SinkType `validate:"required,oneof=file db"`
	DataPath    string
	DatabaseURL string `validate:"required_if=SinkType db"`
	// Migrate creates the tdata table when it is missing. Database sink only.
	Migrate bool
}

// RunResult describes one finished download.
type RunResult struct {
	// Filename is the derived name, set even when Skipped.
	Filename string
	// Location is where the sink put the data.
	Location string
	Records  int
	// Skipped is true when the source returned no candles and nothing was persisted.
	Skipped bool
}

// Client downloads candles from a provider and stores them using a sink.
type Client struct {
	downloader *Downloader
	sink       writer.Sink
	logger     *logger.Logger
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig, opts ...DownloaderOption) (*Client, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	source, err := provider.NewCandleSource(config.Provider)
	if err != nil {
		return nil, err
	}

	d := NewDownloader(source, opts...)

	sink, err := newSink(config, d.logger)
	if err != nil {
		return nil, err
	}

	return &Client{
		downloader: d,
		sink:       sink,
		logger:     d.logger,
	}, nil
}

// NewClientWith creates a client from an already built source and sink.
func NewClientWith(source provider.CandleSource, sink writer.Sink, opts ...DownloaderOption) *Client {
	d := NewDownloader(source, opts...)

	return &Client{
		downloader: d,
		sink:       sink,
		logger:     d.logger,
	}
}

func newSink(config ClientConfig, l *logger.Logger) (writer.Sink, error) {
	switch config.SinkType {
	case SinkFile:
		dataPath := config.DataPath
		if dataPath == "" {
			dataPath = DefaultDataPath
		}

		return writer.NewParquetSink(dataPath, l), nil
	case SinkDatabase:
		return writer.NewDatabaseSink(config.DatabaseURL,
			writer.WithMigrate(config.Migrate),
			writer.WithSinkLogger(l),
		)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidSink, "unsupported sink type: %s", config.SinkType)
	}
}

// Run downloads the request and persists it. An empty download is not an error:
// the sink is not called and the result is marked Skipped.
// Sink failures are always returned.
func (c *Client) Run(ctx context.Context, req DownloadRequest) (RunResult, error) {
	result, err := c.downloader.Download(ctx, req)
	if err != nil {
		return RunResult{}, err
	}

	if result.IsNone() {
		start, end, _ := c.downloader.ResolveRange(req)

		return RunResult{
			Filename: DeriveFilename(req.InstrumentID, start, end, req.Granularity, c.downloader.extension),
			Skipped:  true,
		}, nil
	}

	downloaded := result.Unwrap()
	started := time.Now()

	written, err := c.sink.Persist(ctx, downloaded.Filename, downloaded.Table)
	if err != nil {
		c.logger.Error("Failed to persist candles",
			zap.String("instrument", downloaded.InstrumentID),
			zap.String("filename", downloaded.Filename),
			zap.Error(err),
		)

		return RunResult{Filename: downloaded.Filename}, err
	}

	c.logger.Info("Persisted candles",
		zap.String("location", c.sink.Location(downloaded.Filename)),
		zap.Int("records", written),
		zap.Duration("elapsed", time.Since(started)),
	)

	return RunResult{
		Filename: downloaded.Filename,
		Location: c.sink.Location(downloaded.Filename),
		Records:  written,
	}, nil
}

// RunAll runs requests one after another and stops at the first error.
func (c *Client) RunAll(ctx context.Context, reqs []DownloadRequest) ([]RunResult, error) {
	results := make([]RunResult, 0, len(reqs))

	for _, req := range reqs {
		result, err := c.Run(ctx, req)
		if err != nil {
			return results, err
		}

		results = append(results, result)
	}

	return results, nil
}
