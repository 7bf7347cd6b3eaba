// Command mars_export loads a TrackMate session file and exports its visible
// tracks as a Mars MoleculeArchive.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/marsarchive/trackmate-export/internal/action"
	"github.com/marsarchive/trackmate-export/internal/config"
	"github.com/marsarchive/trackmate-export/internal/dispatcher"
	"github.com/marsarchive/trackmate-export/internal/host"
	"github.com/marsarchive/trackmate-export/internal/host/trackmate"
	"github.com/marsarchive/trackmate-export/internal/influx"
	"github.com/marsarchive/trackmate-export/internal/logging"
	intOtel "github.com/marsarchive/trackmate-export/internal/otel"
	"github.com/marsarchive/trackmate-export/internal/storage"
	"github.com/marsarchive/trackmate-export/pkg/core"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// BuildDate and Version can be set at build time via ldflags
var (
	Version   = "0.0.1"
	BuildDate = "unknown"

	AppName = "mars_export"
)

// summaryCommand prints a one-line description of the exported archive
const summaryCommand = "archive.summary"

var (
	SlogManager  *logging.SlogManager
	Logger       *slog.Logger
	OTelProvider *intOtel.Provider

	SessionStartTime = time.Now()
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	flags.String("config-dir", ".", "directory holding "+config.FileName)
	flags.StringP("output", "o", "", "archive destination; asks interactively when empty")
	flags.BoolP("yes", "y", false, "accept the suggested destination without asking")
	flags.Bool("summary", false, "print a summary of the exported archive")
	flags.Bool("version", false, "print version and exit")

	flags.String("storage", "", "storage backend: memory, xml, sqlite or postgres")
	flags.String("shape-policy", "", "how mixed outline and point tracks are handled: reject or per-record")
	flags.Int("workers", 0, "tracks processed concurrently")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	return flags
}

// bindFlags maps command line flags onto configuration keys
func bindFlags(flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"storage.type":       "storage",
		"export.shapePolicy": "shape-policy",
		"export.workers":     "workers",
		"logLevel":           "log-level",
	}
	for key, name := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		return err
	}
	if v, _ := flags.GetBool("version"); v {
		fmt.Fprintf(stdout, "%s %s (%s)\n", AppName, Version, BuildDate)
		return nil
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: %s [flags] <trackmate.xml>", AppName)
	}
	input := flags.Arg(0)

	configDir, _ := flags.GetString("config-dir")
	configErr := config.Load(configDir)
	if err := bindFlags(flags); err != nil {
		return err
	}
	if s, _ := flags.GetBool("summary"); s {
		viper.Set("export.publishCommand", summaryCommand)
	}

	logFile, closeLogs := setupLogging()
	defer closeLogs()
	if configErr != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", configErr)
	} else {
		Logger.Info("Loaded config", "dir", configDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	zlog := zerolog.New(zerolog.ConsoleWriter{
		Out:        logFile,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}).With().Timestamp().Logger()

	storageCfg := config.GetStorageConfig()
	backend, err := storage.NewBackend(storageCfg, zlog.With().Str("component", "storage").Logger())
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("initializing %s storage: %w", storageCfg.Type, err)
	}
	defer backend.Close()

	telemetry := setupTelemetry(ctx, zlog.With().Str("component", "influx").Logger())
	if telemetry != nil {
		defer telemetry.Close()
	}

	d, err := dispatcher.New(logging.NewDispatcherLogger(Logger))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	registerSummary(d, stdout)

	deps := action.Dependencies{
		Backend:     backend,
		BackendType: storageCfg.Type,
		OutputDir:   storage.OutputDir(storageCfg),
		Export:      config.GetExportConfig(),
		Logger:      host.NewSlogLogger(Logger.With("component", "host")),
		Prompt:      newPrompt(flags, stdin, stdout),
		Runner:      dispatcher.NewRunner(d),
		Context:     SlogManager,
	}
	if telemetry != nil {
		deps.Telemetry = telemetry
	}
	a, err := action.New(deps)
	if err != nil {
		return err
	}
	a.Register(d)

	Logger.Info("Loading TrackMate session", "path", input)
	model, err := trackmate.ReadFile(input)
	if err != nil {
		return err
	}

	out, err := dispatcher.NewRunner(d).Run(ctx, action.Info.Key, map[string]any{action.InputModel: model})
	if err != nil {
		return err
	}
	if fb, ok := backend.(storage.FileBacked); ok && out[action.OutputArchive] != nil {
		fmt.Fprintln(stdout, fb.GetExportedFilePath())
	}
	return nil
}

// setupLogging opens the session log file and installs the slog handlers.
// The returned writer receives the zerolog output of the storage layer.
func setupLogging() (io.Writer, func()) {
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, viper.GetString("logLevel"), nil)
	Logger = SlogManager.Logger()

	logFile, err := logging.OpenLogFile(viper.GetString("logsDir"), AppName, SessionStartTime)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err)
		return io.Discard, func() {}
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		OTelProvider, err = intOtel.New(intOtel.FromSettings(otelCfg, logFile, Version))
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		}
	}

	var extra []slog.Handler
	var closers []func() error
	graylogCfg := config.GetGraylogConfig()
	if graylogCfg.Enabled {
		h, w, err := logging.NewGraylogHandler(graylogCfg.Address, viper.GetString("logLevel"))
		if err != nil {
			Logger.Error("Failed to connect to Graylog", "error", err, "address", graylogCfg.Address)
		} else {
			extra = append(extra, h)
			closers = append(closers, w.Close)
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	SlogManager.Setup(logFile, viper.GetString("logLevel"), otelLogProvider, extra...)
	Logger = SlogManager.Logger()
	slog.SetDefault(Logger)
	Logger.Info("Logging to file", "path", logFile.Name(), "version", Version)

	return logFile, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if OTelProvider != nil {
			if err := OTelProvider.Shutdown(ctx); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}
		for _, c := range closers {
			_ = c()
		}
		_ = logFile.Close()
	}
}

// setupTelemetry connects the influx manager, or returns nil when disabled
func setupTelemetry(ctx context.Context, log zerolog.Logger) *influx.Manager {
	influxCfg := config.GetInfluxConfig()
	backupPath := logging.LogFilePath(viper.GetString("logsDir"), AppName+"_influx", SessionStartTime) + ".gz"

	m := influx.NewManager(influxCfg, log, backupPath)
	if err := m.Connect(ctx); err != nil {
		if !errors.Is(err, influx.ErrDisabled) {
			Logger.Error("Failed to set up InfluxDB telemetry", "error", err)
		}
		return nil
	}
	return m
}

func newPrompt(flags *pflag.FlagSet, stdin io.Reader, stdout io.Writer) host.SavePrompt {
	output, _ := flags.GetString("output")
	yes, _ := flags.GetBool("yes")
	if output != "" || yes {
		return host.FixedPrompt{Path: output}
	}
	return host.LinePrompt{In: stdin, Out: stdout}
}

func registerSummary(d *dispatcher.Dispatcher, stdout io.Writer) {
	d.Register(summaryCommand, func(_ context.Context, e dispatcher.Event) (any, error) {
		archive, ok := e.Inputs[action.OutputArchive].(*core.Archive)
		if !ok {
			return nil, fmt.Errorf("%s: no archive in inputs", summaryCommand)
		}
		p := archive.Properties
		fmt.Fprintf(stdout, "%s: %d %s records, %s / %g %s\n",
			p.UID, p.NumberOfRecords, p.Kind, p.SpaceUnits, p.FrameInterval, p.TimeUnits)
		return nil, nil
	})
}
