package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/tradebias/config"
	"github.com/alejandrodnm/tradebias/internal/adapters/classifier"
	"github.com/alejandrodnm/tradebias/internal/adapters/notify"
	"github.com/alejandrodnm/tradebias/internal/adapters/storage"
	"github.com/alejandrodnm/tradebias/internal/application/analysis"
	"github.com/alejandrodnm/tradebias/internal/ports"
)

type options struct {
	output  string
	save    bool
	url     string
	account string
	sheet   string
	watch   bool
	history bool
	report  string
	days    int
	batch   bool
	workers int
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	datasets := flag.String("datasets", "", "classifier training CSV directory (overrides config)")

	var opts options
	flag.StringVar(&opts.output, "output", "json", "report output: json|table|compact")
	flag.BoolVar(&opts.save, "save", false, "persist reports to the SQLite history")
	flag.StringVar(&opts.url, "url", "", "ledger API base URL (overrides config)")
	flag.StringVar(&opts.account, "account", "", "account to fetch from the ledger API")
	flag.StringVar(&opts.sheet, "sheet", "", "sheet name for .xlsx ledgers (default: first sheet)")
	flag.BoolVar(&opts.watch, "watch", false, "re-analyze the ledger every analysis.watch_interval_seconds")
	flag.BoolVar(&opts.history, "history", false, "print saved reports instead of analyzing")
	flag.StringVar(&opts.report, "report", "", "print a saved report by ID instead of analyzing")
	flag.IntVar(&opts.days, "days", 30, "history window in days")
	flag.BoolVar(&opts.batch, "batch", false, "analyze every ledger argument in parallel")
	flag.IntVar(&opts.workers, "workers", 0, "batch workers (overrides config)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: biasreport [flags] <ledger.csv|ledger.xlsx|-> ...\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *datasets != "" {
		cfg.Classifier.DatasetsDir = *datasets
	}
	if opts.url != "" {
		cfg.Ledger.BaseURL = opts.url
	}
	if opts.workers > 0 {
		cfg.Analysis.Workers = opts.workers
	}
	setupLogger(os.Stderr, cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, opts, flag.Args()); err != nil {
		slog.Error("biasreport failed", "err", err)
		if opts.output == "json" {
			writeError(os.Stdout, err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, args []string) error {
	switch opts.output {
	case "json", "table", "compact":
	default:
		return fmt.Errorf("unknown -output %q (json|table|compact)", opts.output)
	}

	var store *storage.SQLiteStorage
	if opts.save || opts.history || opts.report != "" {
		s, err := storage.NewSQLiteStorage(cfg.Storage.DSN, cfg.Retention())
		if err != nil {
			return fmt.Errorf("open storage %q: %w", cfg.Storage.DSN, err)
		}
		defer s.Close()
		store = s
	}

	console := notify.NewConsole(opts.output == "table")

	var reportStore ports.ReportStorage
	if store != nil {
		reportStore = store
	}

	svcCfg := analysis.Config{
		ClassifierMaxRows: cfg.Analysis.ClassifierMaxRows,
		Workers:           cfg.Analysis.Workers,
	}

	if opts.report != "" {
		_, err := analysis.New(svcCfg, nil, reportStore, reportNotifier(opts.output, console)).Report(ctx, opts.report)
		return err
	}

	if opts.history {
		return runHistory(ctx, analysis.New(svcCfg, nil, reportStore, nil), console, opts.output, args, opts.days)
	}

	sources, err := openSources(cfg, opts, args)
	if err != nil {
		return err
	}

	var cls ports.Classifier
	if cfg.Classifier.DatasetsDir != "" {
		cls = classifier.NewLazy(classifier.DirTrainer(cfg.Classifier.DatasetsDir))
	} else {
		slog.Debug("no classifier datasets configured, bias ratios will be null")
	}

	slog.Info("biasreport starting",
		"sources", len(sources),
		"output", opts.output,
		"save", opts.save,
		"watch", opts.watch,
		"batch", opts.batch,
	)

	switch {
	case opts.batch:
		// en table/compact el lote se resume en una sola tabla al final
		var notifier ports.Notifier
		if opts.output == "json" {
			notifier = notify.NewJSON(false)
		}
		svc := analysis.New(svcCfg, cls, reportStore, notifier)
		return runBatch(ctx, svc, console, sources, opts.output)

	case opts.watch:
		if len(sources) != 1 {
			return fmt.Errorf("-watch takes exactly one ledger, got %d", len(sources))
		}
		svc := analysis.New(svcCfg, cls, reportStore, reportNotifier(opts.output, console))
		return svc.Watch(ctx, sources[0], cfg.WatchInterval())

	default:
		if len(sources) != 1 {
			return fmt.Errorf("expected one ledger, got %d (use -batch for several)", len(sources))
		}
		svc := analysis.New(svcCfg, cls, reportStore, reportNotifier(opts.output, console))
		_, err := svc.Analyze(ctx, sources[0])
		return err
	}
}

func reportNotifier(output string, console *notify.Console) ports.Notifier {
	if output == "json" {
		return notify.NewJSON(true)
	}
	return console
}

// writeError imprime {"error": "..."} para que un consumidor del JSON vea el fallo.
func writeError(w io.Writer, err error) {
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func setupLogger(w io.Writer, cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}
