package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"SMARespect/internal/collector"
	"SMARespect/internal/config"
	"SMARespect/internal/model"
	"SMARespect/internal/notifier"
	"SMARespect/internal/store"
)

// Sender delivers formatted reports. *notifier.TelegramNotifier satisfies it.
type Sender interface {
	SendLong(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs reports on a cron schedule and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Watchlist store.Watchlist
	Sender    Sender // nil disables notifications
	Config    *config.Config
	Ctx       context.Context

	logger zerolog.Logger
	now    func() time.Time
}

// NewScheduler creates a new Scheduler. Overlapping scheduled runs are skipped.
func NewScheduler(ctx context.Context, cfg *config.Config, col *collector.Collector, wl store.Watchlist, sender Sender, logger zerolog.Logger) *Scheduler {
	logger = logger.With().Str("component", "scheduler").Logger()
	cl := cronLogger{logger}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		Collector: col,
		Watchlist: wl,
		Sender:    sender,
		Config:    cfg,
		Ctx:       ctx,
		logger:    logger,
		now:       time.Now,
	}
}

// RegisterAll registers the scheduled report task.
func (s *Scheduler) RegisterAll(reportCron string) error {
	if _, err := s.Cron.AddFunc(reportCron, s.reportTask); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunReportNow executes the report task immediately (for RUN_ON_START).
func (s *Scheduler) RunReportNow() {
	s.reportTask()
}

func (s *Scheduler) reportTask() {
	s.logger.Info().Msg("running scheduled report")
	report, err := s.RunReport(s.Ctx, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduled report failed")
		s.trySend(fmt.Sprintf("❌ SMA report failed: %v", err))
		return
	}
	s.trySend(notifier.FormatReport(report, s.Config.Analysis.OnlyRespected))
}

// RunReport analyses symbols, or the watchlist when symbols is empty, with
// the configured periods, interval and start date.
func (s *Scheduler) RunReport(ctx context.Context, symbols []string) (*model.Report, error) {
	if len(symbols) == 0 {
		var err error
		if symbols, err = s.Watchlist.List(ctx); err != nil {
			return nil, fmt.Errorf("load watchlist: %w", err)
		}
	}
	req, err := s.Config.Request(symbols, s.now())
	if err != nil {
		return nil, err
	}
	return s.Collector.Collect(ctx, req)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "/report":
		var symbols []string
		for _, a := range args {
			symbols = append(symbols, config.SplitList(a)...)
		}
		report, err := s.RunReport(ctx, symbols)
		if err != nil {
			return "❌ " + userError(err)
		}
		return notifier.FormatReport(report, s.Config.Analysis.OnlyRespected)
	case "/symbols":
		symbols, err := s.Watchlist.List(ctx)
		if err != nil {
			return "❌ " + err.Error()
		}
		return notifier.FormatWatchlist(symbols)
	case "/watch", "/unwatch":
		if len(args) == 0 {
			return "usage: " + cmd + " SYMBOL [SYMBOL...]"
		}
		return s.editWatchlist(ctx, cmd == "/watch", args)
	default:
		return helpText
	}
}

const helpText = "Available commands:\n" +
	"• /report [SYMBOL,...] run the SMA respect report\n" +
	"• /symbols show the watchlist\n" +
	"• /watch SYMBOL add to the watchlist\n" +
	"• /unwatch SYMBOL remove from the watchlist"

func (s *Scheduler) editWatchlist(ctx context.Context, add bool, symbols []string) string {
	var b strings.Builder
	for _, sym := range symbols {
		var changed bool
		var err error
		if add {
			changed, err = s.Watchlist.Add(ctx, sym)
		} else {
			changed, err = s.Watchlist.Remove(ctx, sym)
		}
		name := model.NormalizeSymbol(sym)
		switch {
		case err != nil:
			fmt.Fprintf(&b, "❌ %s: %s\n", name, userError(err))
		case changed && add:
			fmt.Fprintf(&b, "➕ %s added\n", name)
		case changed:
			fmt.Fprintf(&b, "➖ %s removed\n", name)
		case add:
			fmt.Fprintf(&b, "%s already watched\n", name)
		default:
			fmt.Fprintf(&b, "%s was not watched\n", name)
		}
	}
	return b.String()
}

func userError(err error) string {
	if errors.Is(err, model.ErrInvalidInput) {
		return err.Error()
	}
	return "internal error: " + err.Error()
}

func (s *Scheduler) trySend(text string) {
	if s.Sender == nil {
		return
	}
	if err := s.Sender.SendLong(s.Ctx, text, 3); err != nil {
		s.logger.Error().Err(err).Msg("send notification")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
