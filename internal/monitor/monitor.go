// Package monitor runs one pass over the watched page: fetch, extract,
// evaluate unseen candidates, notify on matches and persist the seen set.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dtnitsch/vacancy-watch/models"
	"github.com/dtnitsch/vacancy-watch/pkg/lock"
	"github.com/dtnitsch/vacancy-watch/pkg/logger"
	"github.com/dtnitsch/vacancy-watch/pkg/matcher"
	"github.com/dtnitsch/vacancy-watch/pkg/notifier"
)

// PageFetcher downloads the watched page and candidate documents.
type PageFetcher interface {
	GetPage(ctx context.Context, url string) ([]byte, error)
	FetchText(ctx context.Context, url string) string
}

// Extractor turns page HTML into candidate document links.
type Extractor interface {
	ExtractCandidates(rawHTML, baseURL string) ([]models.Candidate, error)
}

// SeenStore persists the seen set between runs.
type SeenStore interface {
	Load(ctx context.Context) models.SeenSet
	Save(ctx context.Context, set models.SeenSet) error
}

// RunRecorder stores run summaries. Optional.
type RunRecorder interface {
	RecordRun(ctx context.Context, r models.RunSummary) (int64, error)
}

// Deps wires a Monitor. Fetcher, Extractor, Matcher and Store are required.
type Deps struct {
	TargetURL string
	Subject   string
	DryRun    bool

	Fetcher   PageFetcher
	Extractor Extractor
	Matcher   *matcher.Matcher
	Store     SeenStore
	Channels  []notifier.Channel
	Lock      lock.Locker
	Recorder  RunRecorder
	Log       logger.Logger
	Now       func() time.Time
}

type Monitor struct {
	d Deps
}

func New(d Deps) (*Monitor, error) {
	switch {
	case d.TargetURL == "":
		return nil, errors.New("monitor: target url is required")
	case d.Fetcher == nil:
		return nil, errors.New("monitor: fetcher is required")
	case d.Extractor == nil:
		return nil, errors.New("monitor: extractor is required")
	case d.Matcher == nil:
		return nil, errors.New("monitor: matcher is required")
	case d.Store == nil:
		return nil, errors.New("monitor: seen store is required")
	}
	if d.Subject == "" {
		d.Subject = models.DefaultEmailSubject
	}
	if d.Lock == nil {
		d.Lock = lock.Nop{}
	}
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Monitor{d: d}, nil
}

// Run performs one full pass. Only a lock or page failure ends it early,
// and in both cases the seen set is left untouched.
func (m *Monitor) Run(ctx context.Context) *Report {
	r := &Report{State: StateIdle, TargetURL: m.d.TargetURL, DryRun: m.d.DryRun, StartedAt: m.d.Now()}
	log := m.d.Log.With(logger.String("target", m.d.TargetURL))
	defer m.record(ctx, r)

	if err := m.d.Lock.Lock(ctx); err != nil {
		r.fail(m.d.Now(), fmt.Errorf("acquire run lock: %w", err))
		log.Warn("run skipped, lock unavailable", logger.Error(err))
		return r
	}
	defer func() {
		if err := m.d.Lock.Unlock(context.WithoutCancel(ctx)); err != nil {
			log.Warn("failed to release run lock", logger.Error(err))
		}
	}()

	seen := m.d.Store.Load(ctx)
	before := seen.Clone()
	known := seen.Index()
	r.SeenBefore = before.Len()

	page, err := m.d.Fetcher.GetPage(ctx, m.d.TargetURL)
	if err != nil {
		r.fail(m.d.Now(), fmt.Errorf("fetch page: %w", err))
		log.Error("page fetch failed", logger.Error(err))
		return r
	}
	r.State = StatePageFetched

	candidates, err := m.d.Extractor.ExtractCandidates(string(page), m.d.TargetURL)
	if err != nil {
		r.fail(m.d.Now(), fmt.Errorf("extract candidates: %w", err))
		log.Error("candidate extraction failed", logger.Error(err))
		return r
	}
	r.State = StateCandidatesExtracted
	r.Candidates = len(candidates)
	log.Info("candidates extracted", logger.Int("count", len(candidates)))

	for _, c := range candidates {
		key := models.LinkKey(c.URL)
		if known.Has(key) {
			continue
		}
		if ctx.Err() != nil {
			log.Warn("run interrupted, remaining candidates left for next run", logger.Error(ctx.Err()))
			break
		}

		res := m.Evaluate(ctx, c)
		if ctx.Err() != nil {
			// An interrupted document fetch reads as empty text; do not
			// let it mark the candidate seen.
			break
		}
		r.New++

		if res.Matched {
			r.Matched++
			r.Matches = append(r.Matches, res)
			m.notify(ctx, log, r, res)
		}
		seen.Add(c.URL)
		known.Add(key)
	}

	if !seen.Equal(before) {
		m.save(ctx, log, r, seen)
	} else {
		log.Info("no new candidates")
	}
	r.SeenAfter = seen.Len()
	r.State = StateStateUpdated

	r.FinishedAt = m.d.Now()
	r.State = StateDone
	return r
}

// Evaluate runs the checks cheapest first and stops at the first match.
// The document is downloaded only when anchor text and URL both miss.
func (m *Monitor) Evaluate(ctx context.Context, c models.Candidate) models.MatchResult {
	res := models.MatchResult{Candidate: c}

	switch {
	case m.d.Matcher.Matches(c.AnchorText):
		res.Stages = []models.Stage{models.StageAnchorText}
	case m.d.Matcher.Matches(c.URL):
		res.Stages = []models.Stage{models.StageURL}
	default:
		text := m.d.Fetcher.FetchText(ctx, c.URL)
		res.Candidate.ExtractedText = text
		if m.d.Matcher.Matches(text) {
			res.Stages = []models.Stage{models.StageDocumentText}
		}
	}
	res.Matched = len(res.Stages) > 0
	return res
}

func (m *Monitor) notify(ctx context.Context, log logger.Logger, r *Report, res models.MatchResult) {
	log = log.With(logger.String("url", res.Candidate.URL), logger.Strings("stages", res.StageNames()))
	if m.d.DryRun {
		log.Info("match found, dry run, not notifying")
		return
	}

	msg := notifier.Message{Subject: m.d.Subject, Body: FormatMessage(res)}
	ds := notifier.Broadcast(ctx, log, m.d.Channels, msg)
	n := notifier.Delivered(ds)
	if n > 0 {
		r.Notified++
	}
	log.Info("match notified", logger.Int("delivered", n), logger.Int("channels", len(ds)))
}

func (m *Monitor) save(ctx context.Context, log logger.Logger, r *Report, seen models.SeenSet) {
	added := seen.Len() - r.SeenBefore
	if m.d.DryRun {
		log.Info("dry run, seen set not saved", logger.Int("added", added))
		return
	}
	if err := m.d.Store.Save(ctx, seen); err != nil {
		log.Error("failed to save seen set", logger.Error(err))
		return
	}
	r.Saved = true
	log.Info("seen set updated", logger.Int("added", added), logger.Int("total", seen.Len()))
}

func (m *Monitor) record(ctx context.Context, r *Report) {
	if m.d.Recorder == nil || m.d.DryRun {
		return
	}
	if _, err := m.d.Recorder.RecordRun(context.WithoutCancel(ctx), r.Summary()); err != nil {
		m.d.Log.Warn("failed to record run", logger.Error(err))
	}
}
