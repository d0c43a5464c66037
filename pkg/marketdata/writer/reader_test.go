package writer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	argoErrors "github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ParquetReaderTestSuite struct {
	suite.Suite
	reader *ParquetReader
}

func TestParquetReaderSuite(t *testing.T) {
	suite.Run(t, new(ParquetReaderTestSuite))
}

func (suite *ParquetReaderTestSuite) SetupTest() {
	sink := NewParquetSink(suite.T().TempDir(), nil)

	_, err := sink.Persist(context.Background(), "week.parquet", weekOfCandles())
	suite.Require().NoError(err)

	suite.reader, err = OpenParquet(sink.Location("week.parquet"))
	suite.Require().NoError(err)
}

func (suite *ParquetReaderTestSuite) TearDownTest() {
	suite.reader.Close()
}

func (suite *ParquetReaderTestSuite) TestReadAllWithBounds() {
	start := time.Date(2023, 1, 4, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 1, 6, 7, 0, 0, 0, time.UTC)

	got, err := suite.reader.ReadAll(optional.Some(start), optional.Some(end))
	suite.Require().NoError(err)
	suite.Len(got, 3)
	suite.Equal(4, got[0].Time.Day())
	suite.Equal(6, got[2].Time.Day())

	got, err = suite.reader.ReadAll(optional.Some(start), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Len(got, 4)
}

func (suite *ParquetReaderTestSuite) TestStats() {
	stats, err := suite.reader.Stats()
	suite.Require().NoError(err)
	suite.Equal(5, stats.Rows)
	suite.Equal(time.Date(2023, 1, 3, 7, 0, 0, 0, time.UTC), stats.First.Unwrap())
	suite.Equal(time.Date(2023, 1, 7, 7, 0, 0, 0, time.UTC), stats.Last.Unwrap())
}

func (suite *ParquetReaderTestSuite) TestOpenMissingFile() {
	_, err := OpenParquet(filepath.Join(suite.T().TempDir(), "missing.parquet"))
	suite.Error(err)
	suite.True(argoErrors.HasCode(err, argoErrors.ErrCodeMarketDataReadFailed))
}
