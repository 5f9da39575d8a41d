package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/dtnitsch/vacancy-watch/internal/monitor"
	"github.com/dtnitsch/vacancy-watch/models"
	dbpkg "github.com/dtnitsch/vacancy-watch/pkg/db"
	"github.com/dtnitsch/vacancy-watch/pkg/lock"
	"github.com/dtnitsch/vacancy-watch/pkg/logger"
	"github.com/dtnitsch/vacancy-watch/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestPrintReport(t *testing.T) {
	tests := []struct {
		name string
		r    monitor.Report
		want string
	}{
		{
			name: "aborted",
			r:    monitor.Report{Err: errors.New("fetch page: timeout")},
			want: "Run aborted: fetch page: timeout\n",
		},
		{
			name: "locked",
			r:    monitor.Report{Err: fmt.Errorf("acquire run lock: %w", lock.ErrLockNotAcquired)},
			want: "Another run holds the lock, skipping.\n",
		},
		{
			name: "nothing new",
			r:    monitor.Report{Candidates: 4, SeenBefore: 4, SeenAfter: 4},
			want: "Candidate links found: 4 (0 new)\nNo new entries.\n",
		},
		{
			name: "saved with match",
			r: monitor.Report{
				Candidates: 2, New: 1, SeenBefore: 1, SeenAfter: 2, Saved: true,
				Matches: []models.MatchResult{{
					Candidate: models.Candidate{URL: "https://x.example/a.pdf"},
					Matched:   true,
					Stages:    []models.Stage{models.StageAnchorText},
				}},
			},
			want: "Candidate links found: 2 (1 new)\n  match [anchor_text] https://x.example/a.pdf\nSeen entries updated: +1\n",
		},
		{
			name: "dry run",
			r:    monitor.Report{Candidates: 1, New: 1, SeenAfter: 1, DryRun: true},
			want: "Candidate links found: 1 (1 new)\nDry run: 1 entries would be added.\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printReport(&buf, &tt.r)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestBuildMonitor_RunsAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<a href="/portal_documentos/files/bases.pdf">Practicante de Archivo</a>`))
	}))
	defer srv.Close()

	seenPath := filepath.Join(t.TempDir(), "seen.json")
	cfg := &models.Config{Target: models.TargetConfig{URL: srv.URL}, State: models.StateConfig{File: seenPath}}
	cfg.SetDefaults()

	m, cleanup, err := buildMonitor(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	defer cleanup()

	r := m.Run(context.Background())
	require.NoError(t, r.Err)
	assert.Equal(t, 1, r.Matched)
	assert.True(t, r.Saved)
	assert.True(t, storage.NewSeenFile(seenPath, nil).Load(context.Background()).Has(srv.URL+"/portal_documentos/files/bases.pdf"))

	var buf bytes.Buffer
	require.NoError(t, writeSummary(&buf, r))
	var got models.RunSummary
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "done", got.FinalState)
	assert.Equal(t, 1, got.Matched)
}

func TestBuildMonitor_SQLiteRecordsRuns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<p>sin enlaces</p>`))
	}))
	defer srv.Close()

	dbPath := filepath.Join(t.TempDir(), "state.db")
	cfg := &models.Config{
		Target: models.TargetConfig{URL: srv.URL},
		State:  models.StateConfig{Backend: models.BackendSQLite, DBPath: dbPath},
	}
	cfg.SetDefaults()

	m, cleanup, err := buildMonitor(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	r := m.Run(context.Background())
	cleanup()
	require.NoError(t, r.Err)
	assert.Equal(t, 0, r.Candidates)

	m, cleanup, err = buildMonitor(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	m.Run(context.Background())
	cleanup()

	database, err := dbpkg.Open(dbPath)
	require.NoError(t, err)
	defer database.Close()
	runs, err := database.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "done", runs[0].FinalState)
	assert.Equal(t, srv.URL, runs[0].TargetURL)
}
