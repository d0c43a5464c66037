package marketdata

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/mocks"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type MapperTestSuite struct {
	suite.Suite
}

func TestMapperSuite(t *testing.T) {
	suite.Run(t, new(MapperTestSuite))
}

func q(units int64, nano int32) *types.Quotation {
	return &types.Quotation{Units: units, Nano: nano}
}

func (suite *MapperTestSuite) TestMapCandle() {
	moscow := time.FixedZone("MSK", 3*60*60)
	raw := types.RawCandle{
		Time:   time.Date(2023, 1, 3, 10, 0, 0, 0, moscow),
		Open:   q(271, 350000000),
		High:   q(275, 0),
		Low:    q(270, 10000000),
		Close:  q(274, 990000000),
		Volume: 1234,
	}

	record, err := MapCandle(raw)
	suite.Require().NoError(err)

	suite.Equal(time.Date(2023, 1, 3, 7, 0, 0, 0, time.UTC), record.Time)
	suite.Equal(time.UTC, record.Time.Location())
	suite.InDelta(271.35, record.Open, 1e-9)
	suite.InDelta(275.0, record.High, 1e-9)
	suite.InDelta(270.01, record.Low, 1e-9)
	suite.InDelta(274.99, record.Close, 1e-9)
	suite.Equal(int64(1234), record.Volume)
}

func (suite *MapperTestSuite) TestMapCandleNegativePrice() {
	record, err := MapCandle(types.RawCandle{
		Time:  time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC),
		Open:  q(-1, -500000000),
		High:  q(0, 0),
		Low:   q(-2, 0),
		Close: q(0, -250000000),
	})
	suite.Require().NoError(err)
	suite.InDelta(-1.5, record.Open, 1e-9)
	suite.InDelta(-0.25, record.Close, 1e-9)
}

func (suite *MapperTestSuite) TestMapCandleMalformed() {
	valid := types.RawCandle{
		Time:  time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC),
		Open:  q(1, 0),
		High:  q(2, 0),
		Low:   q(1, 0),
		Close: q(2, 0),
	}

	tests := []struct {
		name    string
		mutate  func(c *types.RawCandle)
		message string
	}{
		{name: "missing time", mutate: func(c *types.RawCandle) { c.Time = time.Time{} }, message: "missing time"},
		{name: "missing open", mutate: func(c *types.RawCandle) { c.Open = nil }, message: "missing open"},
		{name: "missing high", mutate: func(c *types.RawCandle) { c.High = nil }, message: "missing high"},
		{name: "missing low", mutate: func(c *types.RawCandle) { c.Low = nil }, message: "missing low"},
		{name: "missing close", mutate: func(c *types.RawCandle) { c.Close = nil }, message: "missing close"},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			raw := valid
			tc.mutate(&raw)

			_, err := MapCandle(raw)
			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeMalformedRecord))
			suite.Contains(err.Error(), tc.message)
		})
	}
}

func (suite *MapperTestSuite) TestMapCandleGenerated() {
	candles := mocks.NewDataGenerator(3).Generate(mocks.DefaultConfig())

	for _, raw := range candles {
		record, err := MapCandle(raw)
		suite.Require().NoError(err)
		suite.Equal(raw.Close.Float64(), record.Close)
		suite.GreaterOrEqual(record.High, record.Low)
	}
}
