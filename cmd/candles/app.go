package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-marketdata/internal/config"
	"github.com/rxtech-lab/argo-marketdata/internal/logger"
	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/internal/version"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/writer"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:      "candles",
		Version:   version.GetVersion(),
		Usage:     "Download historical candles to a parquet file or the tdata table",
		ArgsUsage: "<instrument_id> <years_back> <granularity>",
		Description: fmt.Sprintf("Granularity is one of %v. The output file is named "+
			"{instrument}_{start}_{end}_{LABEL}.parquet.", types.Granularities()),
		Flags:  downloadFlags(),
		Action: downloadAction,
		Commands: []*cli.Command{
			{
				Name:      "batch",
				Usage:     "Run every download of a YAML job file",
				ArgsUsage: "<jobs.yaml>",
				Action:    batchAction,
			},
			{
				Name:      "inspect",
				Usage:     "Print row count, date range and schema of a parquet candle file",
				ArgsUsage: "<file.parquet>",
				Action:    inspectAction,
			},
			{
				Name:  "schema",
				Usage: "Print the JSON schema of the batch job file, or write it and a sample job file to a directory",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Directory to write " + schemaFileName + " and a sample " + sampleJobFileName + " to",
					},
				},
				Action: schemaAction,
			},
			{
				Name:   "providers",
				Usage:  "List supported candle providers",
				Action: providersAction,
			},
		},
	}
}

func downloadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "provider",
			Aliases: []string{"p"},
			Usage:   fmt.Sprintf("Candle provider (%s, %s, %s)", provider.ProviderTInvest, provider.ProviderBinance, provider.ProviderPolygon),
			Value:   string(provider.ProviderTInvest),
		},
		&cli.StringFlag{
			Name:    "sink",
			Aliases: []string{"s"},
			Usage:   fmt.Sprintf("Where to store candles (%s, %s)", marketdata.SinkFile, marketdata.SinkDatabase),
			Value:   string(marketdata.SinkFile),
		},
		&cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "Directory for parquet files",
			Value:   marketdata.DefaultDataPath,
		},
		&cli.StringFlag{
			Name:  "token",
			Usage: "Provider credential. Defaults to TINKOFF_TOKEN, INVEST_TOKEN or POLYGON_API_KEY",
		},
		&cli.StringFlag{
			Name:  "dsn",
			Usage: "Database URL. Defaults to the --db-* flags, DATABASE_URL or DB_URL",
		},
		&cli.StringFlag{Name: "db-host", Usage: "Database host"},
		&cli.StringFlag{Name: "db-port", Usage: "Database port"},
		&cli.StringFlag{Name: "db-name", Usage: "Database name"},
		&cli.StringFlag{Name: "db-user", Usage: "Database user"},
		&cli.StringFlag{Name: "db-password", Usage: "Database password"},
		&cli.BoolFlag{
			Name:  "migrate",
			Usage: "Create the tdata table when it does not exist",
		},
		&cli.TimestampFlag{
			Name:  "start",
			Usage: "Explicit range start in `YYYY-MM-DD` format; overrides years_back",
			Config: cli.TimestampConfig{
				Layouts: []string{"2006-01-02", time.RFC3339},
			},
		},
		&cli.TimestampFlag{
			Name:  "end",
			Usage: "Explicit range end in `YYYY-MM-DD` format. Defaults to now",
			Config: cli.TimestampConfig{
				Layouts: []string{"2006-01-02", time.RFC3339},
			},
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "Show a progress bar",
			Value: true,
		},
		&cli.StringFlag{
			Name:  "config-dir",
			Usage: "Directory settings files are discovered from. Defaults to the working directory",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error)",
			Value: "info",
		},
	}
}

// parseDownloadArgs turns the positional arguments into a request.
func parseDownloadArgs(args []string) (marketdata.DownloadRequest, error) {
	if len(args) != 3 {
		return marketdata.DownloadRequest{}, errors.Newf(errors.ErrCodeMissingParameter,
			"expected <instrument_id> <years_back> <granularity>, got %d arguments", len(args))
	}

	years, err := strconv.Atoi(args[1])
	if err != nil || years < 0 {
		return marketdata.DownloadRequest{}, errors.Newf(errors.ErrCodeInvalidParameter,
			"years_back must be a non-negative integer, got %q", args[1])
	}

	granularity, err := types.ParseGranularity(args[2])
	if err != nil {
		return marketdata.DownloadRequest{}, err
	}

	return marketdata.DownloadRequest{
		InstrumentID: args[0],
		Lookback:     marketdata.LookbackYears(years),
		Start:        optional.None[time.Time](),
		End:          optional.None[time.Time](),
		Granularity:  granularity,
	}, nil
}

// clientSettings are the flag values a client is built from. Job files fill in what flags leave unset.
type clientSettings struct {
	provider    string
	sink        string
	dataPath    string
	databaseURL string
}

func settingsFromFlags(cmd *cli.Command) clientSettings {
	return clientSettings{
		provider:    cmd.String("provider"),
		sink:        cmd.String("sink"),
		dataPath:    cmd.String("data"),
		databaseURL: cmd.String("dsn"),
	}
}

// buildClientConfig resolves credentials and the database URL. Resolution failures
// surface as ConfigurationError before any connection is attempted.
func buildClientConfig(cmd *cli.Command, settings clientSettings) (marketdata.ClientConfig, error) {
	configDir := cmd.String("config-dir")

	token, err := config.ResolveToken(cmd.String("token"), settings.provider, configDir)
	if err != nil {
		return marketdata.ClientConfig{}, err
	}

	providerConfig := provider.Config{ProviderType: provider.ProviderType(settings.provider)}

	switch providerConfig.ProviderType {
	case provider.ProviderPolygon:
		providerConfig.PolygonApiKey = token
	default:
		providerConfig.Token = token
	}

	clientConfig := marketdata.ClientConfig{
		Provider: providerConfig,
		SinkType: marketdata.SinkType(settings.sink),
		DataPath: settings.dataPath,
		Migrate:  cmd.Bool("migrate"),
	}

	if clientConfig.SinkType == marketdata.SinkDatabase {
		dsn, err := config.ResolveDatabaseDSN(settings.databaseURL, config.DatabaseParams{
			Host:     cmd.String("db-host"),
			Port:     cmd.String("db-port"),
			Database: cmd.String("db-name"),
			User:     cmd.String("db-user"),
			Password: cmd.String("db-password"),
		}, configDir)
		if err != nil {
			return marketdata.ClientConfig{}, err
		}

		clientConfig.DatabaseURL = dsn
	}

	return clientConfig, nil
}

func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	level := cmd.String("log-level")
	if _, err := zapcore.ParseLevel(level); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid log level", err)
	}

	return logger.NewLoggerWithLevel(level)
}

// progressOption wires a progress bar to the downloader when --progress is set.
func progressOption(cmd *cli.Command) (marketdata.DownloaderOption, func()) {
	if !cmd.Bool("progress") {
		return marketdata.WithProgress(nil), func() {}
	}

	var bar *progressbar.ProgressBar

	onProgress := func(current float64, total float64, message string) {
		if bar == nil {
			bar = progressbar.NewOptions(100,
				progressbar.OptionSetDescription(message),
				progressbar.OptionSetWriter(cmd.Root().ErrWriter),
				progressbar.OptionClearOnFinish(),
			)
		}

		if total > 0 {
			bar.Set(int(current / total * 100))
		}
	}

	done := func() {
		if bar != nil {
			bar.Finish()
			bar = nil
		}
	}

	return marketdata.WithProgress(onProgress), done
}

func newClient(cmd *cli.Command, settings clientSettings, log *logger.Logger) (*marketdata.Client, func(), error) {
	clientConfig, err := buildClientConfig(cmd, settings)
	if err != nil {
		return nil, nil, err
	}

	progress, done := progressOption(cmd)

	client, err := marketdata.NewClient(clientConfig, marketdata.WithLogger(log), progress)
	if err != nil {
		return nil, nil, err
	}

	return client, done, nil
}

func applyRangeFlags(cmd *cli.Command, req *marketdata.DownloadRequest) {
	if cmd.IsSet("start") {
		req.Start = optional.Some(cmd.Timestamp("start").UTC())
	}

	if cmd.IsSet("end") {
		req.End = optional.Some(cmd.Timestamp("end").UTC())
	}
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	req, err := parseDownloadArgs(cmd.Args().Slice())
	if err != nil {
		return err
	}

	applyRangeFlags(cmd, &req)

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	client, done, err := newClient(cmd, settingsFromFlags(cmd), log)
	if err != nil {
		return err
	}

	result, err := client.Run(ctx, req)
	done()

	if err != nil {
		return err
	}

	printResult(cmd, result)

	return nil
}

func batchAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "expected <jobs.yaml>")
	}

	jobFile, err := marketdata.LoadJobFile(cmd.Args().First())
	if err != nil {
		return err
	}

	requests, err := jobFile.ToRequests()
	if err != nil {
		return err
	}

	settings := settingsFromFlags(cmd)
	if !cmd.IsSet("provider") && jobFile.Provider != "" {
		settings.provider = jobFile.Provider
	}

	if !cmd.IsSet("sink") && jobFile.Sink != "" {
		settings.sink = jobFile.Sink
	}

	if !cmd.IsSet("data") && jobFile.DataPath != "" {
		settings.dataPath = jobFile.DataPath
	}

	if settings.databaseURL == "" {
		settings.databaseURL = jobFile.DatabaseURL
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	client, done, err := newClient(cmd, settings, log)
	if err != nil {
		return err
	}

	for _, req := range requests {
		result, err := client.Run(ctx, req)
		done()

		if err != nil {
			return err
		}

		printResult(cmd, result)
	}

	return nil
}

func printResult(cmd *cli.Command, result marketdata.RunResult) {
	out := cmd.Root().Writer

	if result.Skipped {
		fmt.Fprintf(out, "No data received for %s\n", result.Filename)
		return
	}

	fmt.Fprintf(out, "Saved %d candles to %s\n", result.Records, result.Location)
}

func inspectAction(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "expected <file.parquet>")
	}

	reader, err := writer.OpenParquet(cmd.Args().First())
	if err != nil {
		return err
	}
	defer reader.Close()

	stats, err := reader.Stats()
	if err != nil {
		return err
	}

	columns, err := reader.Schema()
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	fmt.Fprintf(out, "Rows: %d\n", stats.Rows)

	if stats.First.IsSome() && stats.Last.IsSome() {
		fmt.Fprintf(out, "Range: %s to %s\n",
			stats.First.Unwrap().Format(time.RFC3339),
			stats.Last.Unwrap().Format(time.RFC3339))
	}

	fmt.Fprintln(out, "Columns:")

	for _, column := range columns {
		fmt.Fprintf(out, "  %s %s\n", column.Name, column.Type)
	}

	return nil
}

const (
	schemaFileName    = "jobs-schema.json"
	sampleJobFileName = "jobs.yaml"
)

// sampleJobFile downloads the daily, weekly and monthly history of one instrument.
func sampleJobFile() marketdata.JobFile {
	return marketdata.JobFile{
		Version:  version.GetVersion(),
		Provider: string(provider.ProviderTInvest),
		Sink:     string(marketdata.SinkFile),
		DataPath: marketdata.DefaultDataPath,
		Jobs: []marketdata.JobConfig{
			{
				Instrument:    "BBG004730N88",
				YearsBack:     5,
				Granularities: []string{"1d", "1w", "1m"},
			},
		},
	}
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	schema, err := marketdata.JobFileSchema()
	if err != nil {
		return err
	}

	outputDir := cmd.String("output")
	if outputDir == "" {
		fmt.Fprintln(cmd.Root().Writer, schema)
		return nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	schemaPath := filepath.Join(outputDir, schemaFileName)
	if err := os.WriteFile(schemaPath, []byte(schema), 0o644); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	fmt.Fprintf(cmd.Root().Writer, "Wrote %s\n", schemaPath)

	// an existing sample is left untouched
	samplePath := filepath.Join(outputDir, sampleJobFileName)
	if _, err := os.Stat(samplePath); err == nil {
		return nil
	}

	sample := sampleJobFile()

	yamlBytes, err := yaml.Marshal(&sample)
	if err != nil {
		return fmt.Errorf("failed to marshal sample job file: %w", err)
	}

	yamlBytes = append([]byte("# yaml-language-server: $schema="+schemaFileName+"\n"), yamlBytes...)

	if err := os.WriteFile(samplePath, yamlBytes, 0o644); err != nil {
		return fmt.Errorf("failed to write sample job file: %w", err)
	}

	fmt.Fprintf(cmd.Root().Writer, "Wrote %s\n", samplePath)

	return nil
}

func providersAction(_ context.Context, cmd *cli.Command) error {
	out := cmd.Root().Writer

	for _, name := range marketdata.GetSupportedProviders() {
		info, err := marketdata.GetProviderInfo(name)
		if err != nil {
			return err
		}

		auth := "no credential"
		if info.RequiresAuth {
			auth = fmt.Sprintf("credential from %v", info.CredentialEnv)
		}

		fmt.Fprintf(out, "%-8s %s: %s (%s)\n", info.Name, info.DisplayName, info.Description, auth)
	}

	return nil
}
