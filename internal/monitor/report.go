package monitor

import (
	"time"

	"github.com/dtnitsch/vacancy-watch/models"
)

// State is the furthest point a run reached.
type State int

const (
	StateIdle State = iota
	StatePageFetched
	StateCandidatesExtracted
	StateStateUpdated
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePageFetched:
		return "page_fetched"
	case StateCandidatesExtracted:
		return "candidates_extracted"
	case StateStateUpdated:
		return "state_updated"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Report describes what one run did.
type Report struct {
	State      State
	TargetURL  string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time

	Candidates int
	New        int
	Matched    int
	Notified   int
	SeenBefore int
	SeenAfter  int
	Saved      bool

	Matches []models.MatchResult
	Err     error
}

func (r *Report) fail(at time.Time, err error) {
	r.Err = err
	r.FinishedAt = at
}

// Added is the number of links the run put into the seen set.
func (r *Report) Added() int {
	if r.SeenAfter < r.SeenBefore {
		return 0
	}
	return r.SeenAfter - r.SeenBefore
}

func (r *Report) Summary() models.RunSummary {
	s := models.RunSummary{
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		TargetURL:  r.TargetURL,
		FinalState: r.State.String(),
		Candidates: r.Candidates,
		New:        r.New,
		Matched:    r.Matched,
		Notified:   r.Notified,
		Saved:      r.Saved,
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
	}
	return s
}
