package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// RawCandle is one candle as yielded by a candle source, prices still in fixed-point form.
// Prices are pointers so a source can report an absent field.
type RawCandle struct {
	Time       time.Time
	Open       *Quotation
	High       *Quotation
	Low        *Quotation
	Close      *Quotation
	Volume     int64
	IsComplete bool
}

// CandleRecord is a normalized OHLCV row.
// low <= open,close <= high is expected of the source but not enforced.
type CandleRecord struct {
	Time   time.Time `json:"time" csv:"time"`
	Open   float64   `json:"open" csv:"open"`
	High   float64   `json:"high" csv:"high"`
	Low    float64   `json:"low" csv:"low"`
	Close  float64   `json:"close" csv:"close"`
	Volume int64     `json:"volume" csv:"volume"`
}

// CandleTable holds records in the order the source yielded them.
// It is never re-sorted: sources do not guarantee monotonic time across pages.
type CandleTable []CandleRecord

func (t CandleTable) Len() int {
	return len(t)
}

func (t CandleTable) IsEmpty() bool {
	return len(t) == 0
}

// First returns the first record in arrival order.
func (t CandleTable) First() optional.Option[CandleRecord] {
	if len(t) == 0 {
		return optional.None[CandleRecord]()
	}

	return optional.Some(t[0])
}

// Last returns the last record in arrival order.
func (t CandleTable) Last() optional.Option[CandleRecord] {
	if len(t) == 0 {
		return optional.None[CandleRecord]()
	}

	return optional.Some(t[len(t)-1])
}
