package writer

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
)

// Column is one column of a parquet file's schema.
type Column struct {
	Name string
	Type string
}

// Stats summarizes a candle file.
type Stats struct {
	Rows  int
	First optional.Option[time.Time]
	Last  optional.Option[time.Time]
}

// ParquetReader reads candle files written by ParquetSink.
type ParquetReader struct {
	db   *sql.DB
	path string
	sq   squirrel.StatementBuilderType
}

// OpenParquet opens an in-memory DuckDB and exposes the file as the candles view.
func OpenParquet(path string) (*ParquetReader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataReadFailed, err, "parquet file %s is not readable", path)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataReadFailed, "failed to open DuckDB connection", err)
	}

	// squirrel does not build CREATE VIEW
	_, err = db.Exec(fmt.Sprintf(`CREATE VIEW candles AS SELECT * FROM read_parquet('%s');`, quoteLiteral(path)))
	if err != nil {
		db.Close()

		return nil, errors.Wrapf(errors.ErrCodeMarketDataReadFailed, err, "failed to create view from %s", path)
	}

	return &ParquetReader{
		db:   db,
		path: path,
		sq:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// ReadAll returns the rows within the optional inclusive bounds, in file order.
func (r *ParquetReader) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) (types.CandleTable, error) {
	builder := r.sq.
		Select("time", "open", "high", "low", "close", "volume").
		From("candles")

	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"time": start.Unwrap().UTC()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"time": end.Unwrap().UTC()})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataReadFailed, "failed to build SQL query", err)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataReadFailed, err, "failed to query %s", r.path)
	}
	defer rows.Close()

	var table types.CandleTable

	for rows.Next() {
		var record types.CandleRecord
		if err := rows.Scan(&record.Time, &record.Open, &record.High, &record.Low, &record.Close, &record.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMarketDataReadFailed, "failed to scan candle row", err)
		}

		record.Time = record.Time.UTC()
		table = append(table, record)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataReadFailed, "error iterating candle rows", err)
	}

	return table, nil
}

// Stats returns the row count and the time bounds of the file.
func (r *ParquetReader) Stats() (Stats, error) {
	query, args, err := r.sq.
		Select("COUNT(*)", "MIN(time)", "MAX(time)").
		From("candles").
		ToSql()
	if err != nil {
		return Stats{}, errors.Wrap(errors.ErrCodeMarketDataReadFailed, "failed to build SQL query", err)
	}

	var (
		count       int
		first, last sql.NullTime
	)

	if err := r.db.QueryRow(query, args...).Scan(&count, &first, &last); err != nil {
		return Stats{}, errors.Wrapf(errors.ErrCodeMarketDataReadFailed, err, "failed to read stats of %s", r.path)
	}

	stats := Stats{
		Rows:  count,
		First: optional.None[time.Time](),
		Last:  optional.None[time.Time](),
	}

	if first.Valid {
		stats.First = optional.Some(first.Time.UTC())
	}

	if last.Valid {
		stats.Last = optional.Some(last.Time.UTC())
	}

	return stats, nil
}

// Schema returns the column names and DuckDB types of the file.
func (r *ParquetReader) Schema() ([]Column, error) {
	rows, err := r.db.Query(`DESCRIBE SELECT * FROM candles`)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataReadFailed, err, "failed to describe %s", r.path)
	}
	defer rows.Close()

	columnNames, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataReadFailed, "failed to read describe columns", err)
	}

	var columns []Column

	for rows.Next() {
		values := make([]any, len(columnNames))
		targets := make([]any, len(columnNames))

		for i := range values {
			targets[i] = &values[i]
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMarketDataReadFailed, "failed to scan describe row", err)
		}

		// column_name and column_type lead the DESCRIBE output
		columns = append(columns, Column{
			Name: fmt.Sprint(values[0]),
			Type: fmt.Sprint(values[1]),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataReadFailed, "error iterating describe rows", err)
	}

	return columns, nil
}

func (r *ParquetReader) Close() error {
	return r.db.Close()
}
