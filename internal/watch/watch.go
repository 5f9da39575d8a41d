// Package watch repeats a job on a cron schedule until its context ends.
package watch

import (
	"context"
	"fmt"
	"sync"

	"github.com/dtnitsch/vacancy-watch/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Parser accepts five-field expressions and descriptors such as
// "@hourly" or "@every 30m".
var Parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate reports whether spec parses.
func Validate(spec string) error {
	if _, err := Parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Run executes job once immediately, then on every tick of spec, until ctx
// is cancelled. A tick that fires while the previous job is still running
// is skipped. Run waits for an in-flight job before returning.
func Run(ctx context.Context, spec string, log logger.Logger, job func(ctx context.Context)) error {
	if log == nil {
		log = logger.NewNop()
	}
	if err := Validate(spec); err != nil {
		return err
	}

	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithParser(Parser),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	id, err := c.AddFunc(spec, func() { job(ctx) })
	if err != nil {
		return fmt.Errorf("schedule job: %w", err)
	}

	// The first run goes through the same chain so it cannot overlap a tick.
	first := c.Entry(id).WrappedJob
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		first.Run()
	}()

	log.Info("watch started", logger.String("schedule", spec))
	c.Start()

	<-ctx.Done()
	log.Info("watch stopping, waiting for running job")
	<-c.Stop().Done()
	wg.Wait()
	return nil
}

type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, fields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(fields(keysAndValues), logger.Error(err))...)
}

func fields(kv []any) []logger.Field {
	out := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		out = append(out, logger.Any(key, kv[i+1]))
	}
	return out
}
