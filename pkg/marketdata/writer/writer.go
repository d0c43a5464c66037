package writer

import (
	"context"

	"github.com/rxtech-lab/argo-marketdata/internal/types"
)

// MarketDataWriter defines the interface for writing candle records to a destination.
type MarketDataWriter interface {
	// Initialize sets up the writer, potentially creating tables or files.
	Initialize() error
	// Write persists a single candle record.
	Write(record types.CandleRecord) error
	// Finalize completes the writing process (e.g., commits transactions, exports files).
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}

// Sink persists a whole candle table in one call.
type Sink interface {
	// Persist writes every record of the table and returns the number of records written.
	// A failed Persist never reports success: the error is always returned to the caller.
	Persist(ctx context.Context, name string, table types.CandleTable) (int, error)
	// Location describes where a table with the given derived name ends up.
	Location(name string) string
}
