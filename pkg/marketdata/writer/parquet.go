package writer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-marketdata/internal/logger"
	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"go.uber.org/zap"
)

// ParquetSink writes each table to a parquet file under a base directory.
// Files are exported under a temporary name and renamed into place, so a failed
// export never leaves a partial file at the final path.
type ParquetSink struct {
	baseDir string
	logger  *logger.Logger
}

func NewParquetSink(baseDir string, log *logger.Logger) *ParquetSink {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &ParquetSink{
		baseDir: baseDir,
		logger:  log,
	}
}

// Location returns the final path of the file for the given name.
func (s *ParquetSink) Location(name string) string {
	return filepath.Join(s.baseDir, name)
}

// Persist writes the table to baseDir/name, creating baseDir when needed.
// An existing file with the same name is replaced.
func (s *ParquetSink) Persist(ctx context.Context, name string, table types.CandleTable) (written int, err error) {
	if name == "" {
		return 0, errors.New(errors.ErrCodeInvalidParameter, "file name is required")
	}

	if err := ctx.Err(); err != nil {
		return 0, errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "write canceled", err)
	}

	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to create directory %s", s.baseDir)
	}

	finalPath := s.Location(name)
	tmpPath := filepath.Join(s.baseDir, fmt.Sprintf(".%s.%s.tmp", name, uuid.New().String()))

	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	w := NewDuckDBWriter(tmpPath)
	if err := w.Initialize(); err != nil {
		return 0, errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to initialize parquet writer", err)
	}

	defer func() {
		if closeErr := w.Close(); closeErr != nil && err == nil {
			written = 0
			err = errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to close parquet writer", closeErr)
		}
	}()

	for _, record := range table {
		if err := w.Write(record); err != nil {
			return 0, errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to write record at %s", record.Time)
		}
	}

	if err := ctx.Err(); err != nil {
		return 0, errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "write canceled", err)
	}

	if _, err := w.Finalize(); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to export %s", name)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to move parquet file to %s", finalPath)
	}

	s.logger.Info("Saved candles",
		zap.String("path", finalPath),
		zap.Int("records", table.Len()),
	)

	return table.Len(), nil
}
