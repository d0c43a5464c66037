package writer

import (
	"context"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-marketdata/internal/logger"
	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// CandleTableName is the relational table the database sink appends to.
const CandleTableName = "tdata"

const defaultBatchSize = 500

// CandleRow is the gorm model for one row of the tdata table.
type CandleRow struct {
	Date   time.Time `gorm:"column:date;not null;index"`
	Open   float64   `gorm:"column:open;not null"`
	High   float64   `gorm:"column:high;not null"`
	Low    float64   `gorm:"column:low;not null"`
	Close  float64   `gorm:"column:close;not null"`
	Volume int64     `gorm:"column:volume;not null"`
}

func (CandleRow) TableName() string {
	return CandleTableName
}

// Opener opens a gorm connection for a DSN.
type Opener func(dsn string) (*gorm.DB, error)

// Dialector picks the gorm driver for a DSN. DSNs starting with "sqlite://" or "file:"
// or ending in ".db" use SQLite, everything else is handed to PostgreSQL.
func Dialector(dsn string) gorm.Dialector {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "file:"), strings.HasSuffix(dsn, ".db"):
		return sqlite.Open(dsn)
	default:
		return postgres.Open(dsn)
	}
}

// OpenDatabase is the default Opener.
func OpenDatabase(dsn string) (*gorm.DB, error) {
	return gorm.Open(Dialector(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

// DatabaseSink appends tables to the tdata table of a relational database.
// Every Persist opens its own connection and releases it before returning.
type DatabaseSink struct {
	dsn       string
	open      Opener
	batchSize int
	migrate   bool
	logger    *logger.Logger
}

// DatabaseSinkOption configures a DatabaseSink.
type DatabaseSinkOption func(*DatabaseSink)

// WithOpener replaces the connection opener.
func WithOpener(open Opener) DatabaseSinkOption {
	return func(s *DatabaseSink) {
		s.open = open
	}
}

// WithBatchSize sets how many rows are sent per INSERT.
func WithBatchSize(size int) DatabaseSinkOption {
	return func(s *DatabaseSink) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithMigrate creates the tdata table before writing when it does not exist yet.
func WithMigrate(migrate bool) DatabaseSinkOption {
	return func(s *DatabaseSink) {
		s.migrate = migrate
	}
}

// WithSinkLogger sets the logger.
func WithSinkLogger(l *logger.Logger) DatabaseSinkOption {
	return func(s *DatabaseSink) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewDatabaseSink(dsn string, opts ...DatabaseSinkOption) (*DatabaseSink, error) {
	if dsn == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "database url is not configured")
	}

	s := &DatabaseSink{
		dsn:       dsn,
		open:      OpenDatabase,
		batchSize: defaultBatchSize,
		logger:    logger.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Location names the destination table. The derived file name is not used.
func (s *DatabaseSink) Location(string) string {
	return CandleTableName
}

// Persist appends every record inside one transaction. On failure nothing is committed
// and the error carries ErrCodePersistFailed. The connection is closed on every path.
func (s *DatabaseSink) Persist(ctx context.Context, _ string, table types.CandleTable) (written int, err error) {
	if table.IsEmpty() {
		return 0, nil
	}

	db, err := s.open(s.dsn)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodePersistFailed, "failed to connect to database", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodePersistFailed, "failed to get database handle", err)
	}

	defer func() {
		if closeErr := sqlDB.Close(); closeErr != nil {
			s.logger.Warn("Failed to close database connection", zap.Error(closeErr))

			if err == nil {
				written = 0
				err = errors.Wrap(errors.ErrCodePersistFailed, "failed to close database connection", closeErr)
			}
		}
	}()

	db = db.WithContext(ctx)

	if s.migrate {
		if err := db.AutoMigrate(&CandleRow{}); err != nil {
			return 0, errors.Wrap(errors.ErrCodePersistFailed, "failed to migrate tdata table", err)
		}
	}

	rows := make([]CandleRow, 0, table.Len())
	for _, record := range table {
		rows = append(rows, CandleRow{
			Date:   record.Time.UTC(),
			Open:   record.Open,
			High:   record.High,
			Low:    record.Low,
			Close:  record.Close,
			Volume: record.Volume,
		})
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, s.batchSize).Error
	})
	if err != nil {
		s.logger.Error("Failed to insert candles", zap.Int("records", len(rows)), zap.Error(err))

		return 0, errors.Wrapf(errors.ErrCodePersistFailed, err, "failed to insert %d candles into %s", len(rows), CandleTableName)
	}

	s.logger.Info("Saved candles", zap.String("table", CandleTableName), zap.Int("records", len(rows)))

	return len(rows), nil
}
