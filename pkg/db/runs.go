package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dtnitsch/vacancy-watch/models"
)

// RecordRun stores a run summary and returns its run_id.
func (db *DB) RecordRun(ctx context.Context, r models.RunSummary) (int64, error) {
	var errText sql.NullString
	if r.Error != "" {
		errText = sql.NullString{String: r.Error, Valid: true}
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO runs (started_at, finished_at, target_url, final_state,
			candidate_count, new_count, matched_count, notified_count, saved, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.StartedAt.UTC(), r.FinishedAt.UTC(), r.TargetURL, r.FinalState,
		r.Candidates, r.New, r.Matched, r.Notified, r.Saved, errText)
	if err != nil {
		return 0, fmt.Errorf("failed to record run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}
	return runID, nil
}

// RunRow is a stored run summary.
type RunRow struct {
	RunID int64
	models.RunSummary
}

// ListRuns returns the most recent runs first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.QueryContext(ctx, `
		SELECT run_id, started_at, finished_at, target_url, final_state,
			candidate_count, new_count, matched_count, notified_count, saved, error
		FROM runs
		ORDER BY run_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		var errText sql.NullString
		if err := rows.Scan(&r.RunID, &r.StartedAt, &r.FinishedAt, &r.TargetURL, &r.FinalState,
			&r.Candidates, &r.New, &r.Matched, &r.Notified, &r.Saved, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Error = errText.String
		out = append(out, r)
	}
	return out, rows.Err()
}
