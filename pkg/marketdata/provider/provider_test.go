package provider

import (
	"testing"
	"time"

	argoErrors "github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ProviderTestSuite struct {
	suite.Suite
}

func TestProviderSuite(t *testing.T) {
	suite.Run(t, new(ProviderTestSuite))
}

func (suite *ProviderTestSuite) TestNewCandleSource() {
	tests := []struct {
		name     string
		config   Config
		wantType any
		wantCode argoErrors.ErrorCode
	}{
		{
			name:     "tinvest",
			config:   Config{ProviderType: ProviderTInvest, Token: "t.token"},
			wantType: &TInvestClient{},
		},
		{
			name:     "tinvest without token",
			config:   Config{ProviderType: ProviderTInvest},
			wantCode: argoErrors.ErrCodeInvalidConfiguration,
		},
		{
			name:     "binance needs no credential",
			config:   Config{ProviderType: ProviderBinance},
			wantType: &BinanceClient{},
		},
		{
			name:     "polygon",
			config:   Config{ProviderType: ProviderPolygon, PolygonApiKey: "key"},
			wantType: &PolygonClient{},
		},
		{
			name:     "polygon without key",
			config:   Config{ProviderType: ProviderPolygon},
			wantCode: argoErrors.ErrCodeInvalidConfiguration,
		},
		{
			name:     "unknown provider",
			config:   Config{ProviderType: "yahoo"},
			wantCode: argoErrors.ErrCodeInvalidConfiguration,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			source, err := NewCandleSource(tc.config)
			if tc.wantCode != 0 {
				suite.Error(err)
				suite.True(argoErrors.HasCode(err, tc.wantCode), err.Error())

				return
			}

			suite.NoError(err)
			suite.IsType(tc.wantType, source)
		})
	}
}

func (suite *ProviderTestSuite) TestWindows() {
	from := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(50 * time.Hour)

	chunks := windows(from, to, 24*time.Hour)
	suite.Len(chunks, 3)
	suite.Equal(from, chunks[0][0])
	suite.Equal(from.Add(24*time.Hour), chunks[0][1])
	suite.Equal(chunks[0][1], chunks[1][0])
	suite.Equal(to, chunks[2][1])

	suite.Empty(windows(to, from, time.Hour))
}
