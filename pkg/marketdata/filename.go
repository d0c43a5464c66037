package marketdata

import (
	"fmt"
	"time"

	"github.com/rxtech-lab/argo-marketdata/internal/types"
)

// DefaultExtension is the extension of files written by the parquet sink.
const DefaultExtension = "parquet"

const filenameDateLayout = "20060102"

// DeriveFilename builds the output name of a download:
// {instrument}_{start:YYYYMMDD}_{end:YYYYMMDD}_{LABEL}.{ext}, dates in UTC.
func DeriveFilename(instrumentID string, start, end time.Time, granularity types.Granularity, ext string) string {
	if ext == "" {
		ext = DefaultExtension
	}

	return fmt.Sprintf("%s_%s_%s_%s.%s",
		instrumentID,
		start.UTC().Format(filenameDateLayout),
		end.UTC().Format(filenameDateLayout),
		granularity.Label(),
		ext)
}
