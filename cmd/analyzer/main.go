package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"SMARespect/internal/api"
	"SMARespect/internal/collector"
	"SMARespect/internal/config"
	"SMARespect/internal/logging"
	"SMARespect/internal/metrics"
	"SMARespect/internal/model"
	"SMARespect/internal/notifier"
	"SMARespect/internal/render"
	"SMARespect/internal/scheduler"
	"SMARespect/internal/store"
)

const usage = `usage: analyzer <command> [flags]

commands:
  report     run the SMA respect report once and print it
  serve      run the scheduler, Telegram bot and HTTP API
  watchlist  list|add SYMBOL|remove SYMBOL
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Pretty)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("config validation")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "report":
		err = runReport(ctx, cfg, logger, args, os.Stdout)
	case "serve":
		err = runServe(ctx, cfg, logger)
	case "watchlist":
		err = runWatchlist(ctx, cfg, logger, args, os.Stdout)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		if errors.Is(err, model.ErrInvalidInput) || errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		logger.Fatal().Err(err).Msg(os.Args[1] + " failed")
	}
}

func newFetcher(cfg *config.Config, logger zerolog.Logger) collector.Fetcher {
	if cfg.DataSource.BaseURL != "" {
		return collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, logger)
	}
	return collector.NewYahooFetcher(cfg.Proxy)
}

func newCollector(cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) *collector.Collector {
	fetcher := newFetcher(cfg, logger)
	logger.Info().Str("source", fetcher.Name()).Msg("data source selected")
	return collector.NewCollector(fetcher, collector.Options{
		Concurrency:     cfg.Analysis.Concurrency,
		MinLookbackDays: cfg.Analysis.LookbackDays,
	}, m, logger)
}

// openWatchlist opens the SQLite watchlist, seeded from the configured
// symbols, and falls back to an in-memory one if the database is unusable.
func openWatchlist(cfg *config.Config, logger zerolog.Logger) store.Watchlist {
	if cfg.Database.SQLitePath != "" {
		wl, err := store.NewSQLiteWatchlist(cfg.Database.SQLitePath, cfg.Analysis.Symbols, logger)
		if err == nil {
			return wl
		}
		logger.Warn().Err(err).Msg("open sqlite watchlist failed, using in-memory list")
	}
	return store.NewStaticWatchlist(cfg.Analysis.Symbols)
}

func runReport(ctx context.Context, cfg *config.Config, logger zerolog.Logger, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	symbols := fs.String("symbols", "", "comma separated symbols (default: watchlist)")
	start := fs.String("start", cfg.Analysis.StartDate, "first date of the window, YYYY-MM-DD (default: Jan 1 this year)")
	end := fs.String("end", "", "last date of the window, YYYY-MM-DD (default: today)")
	interval := fs.String("interval", cfg.Analysis.Interval, "candle interval: 1d, 1wk or 1mo")
	periods := fs.String("periods", "", "comma separated SMA periods (default: configured periods)")
	onlyRespected := fs.Bool("only-respected", cfg.Analysis.OnlyRespected, "show only respected periods")
	format := fs.String("format", "table", "output format: table, text or json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	switch *format {
	case "table", "text", "json":
	default:
		return fmt.Errorf("%w: unknown format %q", model.ErrInvalidInput, *format)
	}

	syms := config.SplitList(*symbols)
	if len(syms) == 0 {
		wl := openWatchlist(cfg, logger)
		defer wl.Close()
		var err error
		if syms, err = wl.List(ctx); err != nil {
			return fmt.Errorf("load watchlist: %w", err)
		}
	}

	c := *cfg
	c.Analysis.StartDate = *start
	c.Analysis.Interval = *interval
	req, err := c.Request(syms, time.Now())
	if err != nil {
		return err
	}
	if *end != "" {
		day, err := config.ParseDate(*end)
		if err != nil {
			return err
		}
		req.End = config.EndOfDay(day)
	}
	if *periods != "" {
		if req.Periods, err = config.ParsePeriods(*periods); err != nil {
			return err
		}
	}

	report, err := newCollector(cfg, nil, logger).Collect(ctx, req)
	if err != nil {
		return err
	}

	switch *format {
	case "table":
		fmt.Fprintln(out, render.Table(report, *onlyRespected))
	case "text":
		fmt.Fprint(out, render.Text(report))
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(render.View(report, *onlyRespected))
	}
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	logger.Info().Msg("SMA respect analyzer starting")

	m := metrics.New()
	col := newCollector(cfg, m, logger)
	wl := openWatchlist(cfg, logger)
	defer wl.Close()

	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)
		sender = tn
	} else {
		logger.Warn().Msg("telegram not configured, notifications disabled")
	}

	sched := scheduler.NewScheduler(ctx, cfg, col, wl, sender, logger)
	if err := sched.RegisterAll(cfg.Schedule.ReportCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info().Msg("telegram polling started")
	}

	srv := api.New(cfg, col, wl, m, logger)
	srv.Start()

	if os.Getenv("RUN_ON_START") == "true" {
		logger.Info().Msg("RUN_ON_START enabled, executing report now")
		go sched.RunReportNow()
	}

	logger.Info().Str("cron", cfg.Schedule.ReportCron).Msg("running, press Ctrl+C to stop")
	<-ctx.Done()

	logger.Info().Msg("shutdown signal received, stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("API shutdown")
	}
	return nil
}

func runWatchlist(ctx context.Context, cfg *config.Config, logger zerolog.Logger, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: watchlist needs list, add or remove", model.ErrInvalidInput)
	}
	wl := openWatchlist(cfg, logger)
	defer wl.Close()

	switch args[0] {
	case "list":
		symbols, err := wl.List(ctx)
		if err != nil {
			return err
		}
		for _, s := range symbols {
			fmt.Fprintln(out, s)
		}
	case "add", "remove":
		if len(args) < 2 {
			return fmt.Errorf("%w: watchlist %s needs at least one symbol", model.ErrInvalidInput, args[0])
		}
		for _, sym := range args[1:] {
			var changed bool
			var err error
			if args[0] == "add" {
				changed, err = wl.Add(ctx, sym)
			} else {
				changed, err = wl.Remove(ctx, sym)
			}
			if err != nil {
				return err
			}
			logger.Info().Str("symbol", model.NormalizeSymbol(sym)).Bool("changed", changed).Msg("watchlist " + args[0])
		}
	default:
		return fmt.Errorf("%w: unknown watchlist command %q", model.ErrInvalidInput, args[0])
	}
	return nil
}
