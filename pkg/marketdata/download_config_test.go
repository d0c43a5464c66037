package marketdata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/internal/version"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type DownloadConfigTestSuite struct {
	suite.Suite
}

func TestDownloadConfigTestSuite(t *testing.T) {
	suite.Run(t, new(DownloadConfigTestSuite))
}

const sampleJobFile = `
provider: tinvest
sink: file
dataPath: data/candles
jobs:
  - instrument: BBG004730N88
    yearsBack: 5
    granularities: [1d, 1w, 1m]
  - instrument: BBG004731032
    start: "2023-01-01T00:00:00Z"
    end: "2023-01-08T00:00:00Z"
    granularities: [1h]
`

func (suite *DownloadConfigTestSuite) TestParseJobFile() {
	file, err := ParseJobFile([]byte(sampleJobFile))
	suite.Require().NoError(err)

	suite.Equal("tinvest", file.Provider)
	suite.Equal("data/candles", file.DataPath)
	suite.Len(file.Jobs, 2)

	requests, err := file.ToRequests()
	suite.Require().NoError(err)
	suite.Require().Len(requests, 4)

	suite.Equal("BBG004730N88", requests[0].InstrumentID)
	suite.Equal(types.GranularityOneDay, requests[0].Granularity)
	suite.Equal(types.GranularityOneWeek, requests[1].Granularity)
	suite.Equal(types.GranularityOneMonth, requests[2].Granularity)
	suite.Equal(5*365*24*time.Hour, requests[0].Lookback)
	suite.True(requests[0].Start.IsNone())

	last := requests[3]
	suite.Equal("BBG004731032", last.InstrumentID)
	suite.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), last.Start.Unwrap())
	suite.Equal(time.Date(2023, 1, 8, 0, 0, 0, 0, time.UTC), last.End.Unwrap())
}

func (suite *DownloadConfigTestSuite) TestParseJobFileErrors() {
	tests := []struct {
		name string
		yaml string
		code errors.ErrorCode
	}{
		{
			name: "no jobs",
			yaml: "provider: tinvest\n",
			code: errors.ErrCodeInvalidConfiguration,
		},
		{
			name: "unknown provider",
			yaml: "provider: yahoo\njobs:\n  - instrument: X\n    yearsBack: 1\n    granularities: [1d]\n",
			code: errors.ErrCodeInvalidConfiguration,
		},
		{
			name: "unsupported granularity",
			yaml: "jobs:\n  - instrument: X\n    yearsBack: 1\n    granularities: [2h]\n",
			code: errors.ErrCodeInvalidConfiguration,
		},
		{
			name: "missing range",
			yaml: "jobs:\n  - instrument: X\n    granularities: [1d]\n",
			code: errors.ErrCodeMissingParameter,
		},
		{
			name: "bad start",
			yaml: "jobs:\n  - instrument: X\n    start: 2023-01-01\n    granularities: [1d]\n",
			code: errors.ErrCodeInvalidParameter,
		},
		{
			name: "unknown field",
			yaml: "jobs:\n  - instrument: X\n    yearsBack: 1\n    interval: 1d\n    granularities: [1d]\n",
			code: errors.ErrCodeInvalidConfiguration,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := ParseJobFile([]byte(tc.yaml))
			suite.Error(err)
			suite.True(errors.HasCode(err, tc.code), err.Error())
		})
	}
}

func (suite *DownloadConfigTestSuite) TestLoadJobFile() {
	path := filepath.Join(suite.T().TempDir(), "jobs.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte(sampleJobFile), 0o644))

	file, err := LoadJobFile(path)
	suite.Require().NoError(err)
	suite.Len(file.Jobs, 2)

	_, err = LoadJobFile(filepath.Join(suite.T().TempDir(), "missing.yaml"))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *DownloadConfigTestSuite) TestLookback() {
	suite.Equal(365*24*time.Hour, LookbackYears(1))
	suite.Equal(3*24*time.Hour, LookbackDays(3))
	suite.Zero(LookbackYears(0))
}

func (suite *DownloadConfigTestSuite) TestParseJobFileVersion() {
	original := version.Version
	suite.T().Cleanup(func() { version.Version = original })

	version.Version = "1.2.0"

	_, err := ParseJobFile([]byte("version: 1.2.3\n" + sampleJobFile))
	suite.NoError(err)

	_, err = ParseJobFile([]byte("version: 1.3.0\n" + sampleJobFile))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration), "%v", err)

	_, err = ParseJobFile([]byte("version: 2.0.0\n" + sampleJobFile))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration), "%v", err)
}
