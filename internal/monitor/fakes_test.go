package monitor

import (
	"context"
	"errors"
	"sync"

	"github.com/dtnitsch/vacancy-watch/models"
	"github.com/dtnitsch/vacancy-watch/pkg/notifier"
)

type fakeFetcher struct {
	page    []byte
	pageErr error
	texts   map[string]string
	fetched []string
}

func (f *fakeFetcher) GetPage(context.Context, string) ([]byte, error) {
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	return f.page, nil
}

func (f *fakeFetcher) FetchText(_ context.Context, url string) string {
	f.fetched = append(f.fetched, url)
	return f.texts[url]
}

type memStore struct {
	set     models.SeenSet
	loads   int
	saves   int
	saveErr error
}

func newMemStore(links ...string) *memStore {
	return &memStore{set: models.NewSeenSet(links...)}
}

func (s *memStore) Load(context.Context) models.SeenSet {
	s.loads++
	return s.set.Clone()
}

func (s *memStore) Save(_ context.Context, set models.SeenSet) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.set = set.Clone()
	return nil
}

type recordingChannel struct {
	name string
	ok   bool
	mu   sync.Mutex
	msgs []notifier.Message
}

func (c *recordingChannel) Name() string { return c.name }

func (c *recordingChannel) Notify(_ context.Context, msg notifier.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return c.ok
}

type busyLock struct{}

func (busyLock) Lock(context.Context) error   { return errors.New("lock not acquired") }
func (busyLock) Unlock(context.Context) error { return nil }

type fakeRecorder struct {
	runs []models.RunSummary
}

func (r *fakeRecorder) RecordRun(_ context.Context, s models.RunSummary) (int64, error) {
	r.runs = append(r.runs, s)
	return int64(len(r.runs)), nil
}
