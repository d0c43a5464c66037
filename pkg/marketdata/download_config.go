package marketdata

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/internal/version"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DaysPerYear converts a years-back argument into a lookback window.
const DaysPerYear = 365

// LookbackYears returns the lookback window of a years-back argument.
func LookbackYears(years int) time.Duration {
	return LookbackDays(years * DaysPerYear)
}

// LookbackDays returns the lookback window of a days-back argument.
func LookbackDays(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}

// JobConfig is one instrument of a job file, downloaded once per granularity.
type JobConfig struct {
	Instrument    string   `yaml:"instrument" json:"instrument" jsonschema:"title=Instrument,description=Broker instrument identifier (FIGI or instrument uid for T-Invest; symbol for Binance and Polygon),required" validate:"required"`
	YearsBack     int      `yaml:"yearsBack,omitempty" json:"yearsBack,omitempty" jsonschema:"title=Years Back,description=Lookback window in years of 365 days,minimum=0" validate:"gte=0"`
	DaysBack      int      `yaml:"daysBack,omitempty" json:"daysBack,omitempty" jsonschema:"title=Days Back,description=Lookback window in days; added to yearsBack,minimum=0" validate:"gte=0"`
	Granularities []string `yaml:"granularities" json:"granularities" jsonschema:"title=Granularities,description=Candle granularities to download,required,minItems=1" validate:"required,min=1,dive,oneof=1min 5min 15min 1h 1d 1w 1m"`
	Start         string   `yaml:"start,omitempty" json:"start,omitempty" jsonschema:"title=Start,description=Explicit range start (RFC3339); overrides the lookback,format=date-time"`
	End           string   `yaml:"end,omitempty" json:"end,omitempty" jsonschema:"title=End,description=Explicit range end (RFC3339); defaults to now,format=date-time"`
}

// JobFile describes a batch of downloads sharing one provider and one sink.
type JobFile struct {
	Version     string      `yaml:"version,omitempty" json:"version,omitempty" jsonschema:"title=Version,description=Downloader version the file was written for (semver)"`
	Provider    string      `yaml:"provider,omitempty" json:"provider,omitempty" jsonschema:"title=Provider,description=Candle provider,enum=tinvest,enum=binance,enum=polygon,default=tinvest" validate:"omitempty,oneof=tinvest binance polygon"`
	Sink        string      `yaml:"sink,omitempty" json:"sink,omitempty" jsonschema:"title=Sink,description=Where candles are stored,enum=file,enum=db,default=file" validate:"omitempty,oneof=file db"`
	DataPath    string      `yaml:"dataPath,omitempty" json:"dataPath,omitempty" jsonschema:"title=Data Path,description=Directory for parquet files"`
	DatabaseURL string      `yaml:"databaseUrl,omitempty" json:"databaseUrl,omitempty" jsonschema:"title=Database URL,description=DSN of the database sink; falls back to DATABASE_URL"`
	Jobs        []JobConfig `yaml:"jobs" json:"jobs" jsonschema:"title=Jobs,required,minItems=1" validate:"required,min=1,dive"`
}

// Validate checks the struct tags and that every job has a range.
func (f *JobFile) Validate() error {
	if err := validator.New().Struct(f); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid job file", err)
	}

	if f.Version != "" {
		if err := version.CheckJobFileVersion(version.GetVersion(), f.Version); err != nil {
			return err
		}
	}

	for i, job := range f.Jobs {
		if job.Start == "" && job.YearsBack == 0 && job.DaysBack == 0 {
			return errors.Newf(errors.ErrCodeMissingParameter, "job %d (%s): set yearsBack, daysBack or start", i, job.Instrument)
		}

		for _, field := range []struct{ name, value string }{{"start", job.Start}, {"end", job.End}} {
			if field.value == "" {
				continue
			}

			if _, err := time.Parse(time.RFC3339, field.value); err != nil {
				return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "job %d (%s): invalid %s, expected RFC3339", i, job.Instrument, field.name)
			}
		}
	}

	return nil
}

// ToRequests expands every job into one DownloadRequest per granularity, in file order.
func (f *JobFile) ToRequests() ([]DownloadRequest, error) {
	var requests []DownloadRequest

	for _, job := range f.Jobs {
		start, err := parseOptionalTime(job.Start)
		if err != nil {
			return nil, err
		}

		end, err := parseOptionalTime(job.End)
		if err != nil {
			return nil, err
		}

		for _, code := range job.Granularities {
			granularity, err := types.ParseGranularity(code)
			if err != nil {
				return nil, err
			}

			requests = append(requests, DownloadRequest{
				InstrumentID: job.Instrument,
				Lookback:     LookbackYears(job.YearsBack) + LookbackDays(job.DaysBack),
				Start:        start,
				End:          end,
				Granularity:  granularity,
			})
		}
	}

	return requests, nil
}

func parseOptionalTime(value string) (optional.Option[time.Time], error) {
	if value == "" {
		return optional.None[time.Time](), nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return optional.None[time.Time](), errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid time %q", value)
	}

	return optional.Some(t.UTC()), nil
}

// ParseJobFile parses and validates a YAML job file.
func ParseJobFile(data []byte) (*JobFile, error) {
	var file JobFile

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&file); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse job file", err)
	}

	if err := file.Validate(); err != nil {
		return nil, err
	}

	return &file, nil
}

// LoadJobFile reads and parses a YAML job file from disk.
func LoadJobFile(path string) (*JobFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read job file %s", path)
	}

	file, err := ParseJobFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return file, nil
}
