package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dtnitsch/vacancy-watch/internal/monitor"
	"github.com/dtnitsch/vacancy-watch/internal/setup"
	"github.com/dtnitsch/vacancy-watch/internal/watch"
	"github.com/dtnitsch/vacancy-watch/pkg/logger"
	"github.com/urfave/cli/v2"
)

// RunAction performs a single pass. Run outcomes, including a failed page
// fetch, exit 0; only setup errors are returned.
func RunAction(c *cli.Context) error {
	cfg, err := setup.LoadConfig(c)
	if err != nil {
		return err
	}
	log, err := setup.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	m, cleanup, err := buildMonitor(c.Context, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Fprintf(os.Stderr, "Checking %s\n", cfg.Target.URL)
	r := m.Run(c.Context)
	printReport(os.Stdout, r)

	if c.Bool("summary") {
		return writeSummary(os.Stdout, r)
	}
	return nil
}

// WatchAction runs immediately and then on the configured schedule until
// interrupted.
func WatchAction(c *cli.Context) error {
	cfg, err := setup.LoadConfig(c)
	if err != nil {
		return err
	}
	if err := watch.Validate(cfg.Watch.Schedule); err != nil {
		return err
	}
	log, err := setup.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, cleanup, err := buildMonitor(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Fprintf(os.Stderr, "Watching %s (%s), Ctrl+C to stop\n", cfg.Target.URL, cfg.Watch.Schedule)
	return watch.Run(ctx, cfg.Watch.Schedule, log, func(ctx context.Context) {
		r := m.Run(ctx)
		printReport(os.Stdout, r)
		logRun(log, r)
	})
}

func logRun(log logger.Logger, r *monitor.Report) {
	log.Info("run finished",
		logger.String("state", r.State.String()),
		logger.Int("candidates", r.Candidates),
		logger.Int("new", r.New),
		logger.Int("matched", r.Matched),
		logger.Int("notified", r.Notified),
		logger.Bool("saved", r.Saved),
		logger.Duration("took", r.FinishedAt.Sub(r.StartedAt)),
	)
}
