package types

import (
	"strings"
	"time"

	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
)

// Granularity is the bucket size of a candle series. The values are the CLI short codes.
type Granularity string

const (
	GranularityOneMinute      Granularity = "1min"
	GranularityFiveMinutes    Granularity = "5min"
	GranularityFifteenMinutes Granularity = "15min"
	GranularityOneHour        Granularity = "1h"
	GranularityOneDay         Granularity = "1d"
	GranularityOneWeek        Granularity = "1w"
	// GranularityOneMonth keeps the "1m" code of the downloader CLI; minutes use "1min".
	GranularityOneMonth Granularity = "1m"
)

type granularitySpec struct {
	label    string
	bucket   time.Duration
	maxRange time.Duration
}

const day = 24 * time.Hour

// maxRange is the widest [from, to) window the broker accepts in one GetCandles call.
var granularities = map[Granularity]granularitySpec{
	GranularityOneMinute:      {label: "1MIN", bucket: time.Minute, maxRange: day},
	GranularityFiveMinutes:    {label: "5MIN", bucket: 5 * time.Minute, maxRange: day},
	GranularityFifteenMinutes: {label: "15MIN", bucket: 15 * time.Minute, maxRange: day},
	GranularityOneHour:        {label: "HOUR", bucket: time.Hour, maxRange: 7 * day},
	GranularityOneDay:         {label: "DAY", bucket: day, maxRange: 365 * day},
	GranularityOneWeek:        {label: "WEEK", bucket: 7 * day, maxRange: 730 * day},
	GranularityOneMonth:       {label: "MONTH", bucket: 31 * day, maxRange: 3650 * day},
}

// Granularities returns every supported granularity, finest first.
func Granularities() []Granularity {
	return []Granularity{
		GranularityOneMinute,
		GranularityFiveMinutes,
		GranularityFifteenMinutes,
		GranularityOneHour,
		GranularityOneDay,
		GranularityOneWeek,
		GranularityOneMonth,
	}
}

// ParseGranularity maps a short code to a Granularity.
// Unknown codes fail with ErrCodeUnsupportedGranularity.
func ParseGranularity(code string) (Granularity, error) {
	g := Granularity(strings.TrimSpace(code))
	if _, ok := granularities[g]; !ok {
		return "", errors.Newf(errors.ErrCodeUnsupportedGranularity,
			"unsupported granularity %q (supported: %s)", code, supportedCodes())
	}

	return g, nil
}

func supportedCodes() string {
	codes := make([]string, 0, len(granularities))
	for _, g := range Granularities() {
		codes = append(codes, string(g))
	}

	return strings.Join(codes, ", ")
}

// Valid reports whether g is one of the supported granularities.
func (g Granularity) Valid() bool {
	_, ok := granularities[g]

	return ok
}

// Label is the short upper-case name used in derived filenames, e.g. "DAY" or "5MIN".
func (g Granularity) Label() string {
	return granularities[g].label
}

// Duration is the nominal bucket size. Months report 31 days.
func (g Granularity) Duration() time.Duration {
	return granularities[g].bucket
}

// MaxRange is the widest window the broker serves per request for this granularity.
func (g Granularity) MaxRange() time.Duration {
	return granularities[g].maxRange
}
