package models

import "time"

// RunSummary is the persisted outline of one monitor run.
type RunSummary struct {
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	TargetURL  string    `json:"target_url" yaml:"target_url"`
	FinalState string    `json:"final_state" yaml:"final_state"`
	Candidates int       `json:"candidates" yaml:"candidates"`
	New        int       `json:"new" yaml:"new"`
	Matched    int       `json:"matched" yaml:"matched"`
	Notified   int       `json:"notified" yaml:"notified"`
	Saved      bool      `json:"saved" yaml:"saved"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
}
