package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dtnitsch/vacancy-watch/internal/monitor"
	"github.com/dtnitsch/vacancy-watch/internal/setup"
	"github.com/dtnitsch/vacancy-watch/models"
	"github.com/dtnitsch/vacancy-watch/pkg/fetcher"
	"github.com/dtnitsch/vacancy-watch/pkg/lock"
	"github.com/dtnitsch/vacancy-watch/pkg/logger"
	"github.com/dtnitsch/vacancy-watch/pkg/matcher"
	"github.com/dtnitsch/vacancy-watch/pkg/notifier"
	"github.com/dtnitsch/vacancy-watch/pkg/parser"
	"gopkg.in/yaml.v3"
)

// buildMonitor wires every component from cfg. The returned cleanup closes
// the state backend and the lock client.
func buildMonitor(ctx context.Context, cfg *models.Config, log logger.Logger) (*monitor.Monitor, func(), error) {
	state, err := setup.OpenState(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	locker, closeLock, err := lock.New(ctx, cfg.Lock)
	if err != nil {
		_ = state.Close()
		return nil, nil, fmt.Errorf("failed to set up run lock: %w", err)
	}

	cleanup := func() {
		if err := closeLock(); err != nil {
			log.Warn("failed to close lock client", logger.Error(err))
		}
		if err := state.Close(); err != nil {
			log.Warn("failed to close state backend", logger.Error(err))
		}
	}

	m := matcher.Compile(cfg.Keywords)
	if lits := m.Literals(); len(lits) > 0 {
		log.Warn("keyword patterns did not compile, matching as plain text", logger.Strings("patterns", lits))
	}

	var recorder monitor.RunRecorder
	if state.DB != nil {
		recorder = state.DB
	}

	mon, err := monitor.New(monitor.Deps{
		TargetURL: cfg.Target.URL,
		Subject:   cfg.Notify.Email.Subject,
		DryRun:    cfg.DryRun,
		Fetcher: fetcher.NewFetcher(
			fetcher.WithUserAgent(cfg.Target.UserAgent),
			fetcher.WithTimeouts(cfg.Target.PageTimeout, cfg.Target.DocumentTimeout),
			fetcher.WithMaxBytes(cfg.Target.MaxDocumentBytes),
			fetcher.WithLogger(log),
		),
		Extractor: parser.New(cfg.Target.DocumentExtensions, cfg.Target.RepositoryFragments),
		Matcher:   m,
		Store:     state.Store,
		Channels: []notifier.Channel{
			notifier.NewTelegram(cfg.Notify.Telegram, log),
			notifier.NewEmail(cfg.Notify.Email, log),
		},
		Lock:     locker,
		Recorder: recorder,
		Log:      log,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	log.Debug("monitor ready",
		logger.String("target", cfg.Target.URL),
		logger.String("backend", cfg.State.Backend),
		logger.String("state", state.Where),
		logger.Bool("telegram", cfg.Notify.Telegram.Configured()),
		logger.Bool("email", cfg.Notify.Email.Configured()),
		logger.Bool("dry_run", cfg.DryRun),
	)
	return mon, cleanup, nil
}

// printReport writes the human-readable status lines for one run.
func printReport(w io.Writer, r *monitor.Report) {
	if r.Err != nil {
		if errors.Is(r.Err, lock.ErrLockNotAcquired) {
			fmt.Fprintln(w, "Another run holds the lock, skipping.")
			return
		}
		fmt.Fprintf(w, "Run aborted: %v\n", r.Err)
		return
	}

	fmt.Fprintf(w, "Candidate links found: %d (%d new)\n", r.Candidates, r.New)
	for _, res := range r.Matches {
		fmt.Fprintf(w, "  match [%s] %s\n", strings.Join(res.StageNames(), ","), res.Candidate.URL)
	}

	switch {
	case r.Added() == 0:
		fmt.Fprintln(w, "No new entries.")
	case r.DryRun:
		fmt.Fprintf(w, "Dry run: %d entries would be added.\n", r.Added())
	case r.Saved:
		fmt.Fprintf(w, "Seen entries updated: +%d\n", r.Added())
	default:
		fmt.Fprintf(w, "Seen entries NOT saved (+%d pending), see logs.\n", r.Added())
	}
}

// writeSummary emits the run summary as YAML.
func writeSummary(w io.Writer, r *monitor.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r.Summary()); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return enc.Close()
}
