package db

import (
	"context"
	"fmt"
	"time"

	"github.com/dtnitsch/vacancy-watch/models"
	"github.com/dtnitsch/vacancy-watch/pkg/logger"
)

// SeenEntry is one stored link.
type SeenEntry struct {
	Link        string
	FirstSeenAt time.Time
}

// SeenStore keeps the seen set in the seen_links table.
type SeenStore struct {
	db  *DB
	log logger.Logger
	now func() time.Time
}

func NewSeenStore(db *DB, log logger.Logger) *SeenStore {
	if log == nil {
		log = logger.NewNop()
	}
	return &SeenStore{db: db, log: log, now: time.Now}
}

// Load returns every stored link. Query failures yield an empty set.
func (s *SeenStore) Load(ctx context.Context) models.SeenSet {
	set := models.NewSeenSet()

	rows, err := s.db.QueryContext(ctx, "SELECT link FROM seen_links")
	if err != nil {
		s.log.Warn("seen table unreadable, starting empty", logger.String("path", s.db.Path()), logger.Error(err))
		return set
	}
	defer rows.Close()

	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			s.log.Warn("seen table unreadable, starting empty", logger.String("path", s.db.Path()), logger.Error(err))
			return models.NewSeenSet()
		}
		set.Add(link)
	}
	if err := rows.Err(); err != nil {
		s.log.Warn("seen table unreadable, starting empty", logger.String("path", s.db.Path()), logger.Error(err))
		return models.NewSeenSet()
	}
	return set
}

// Save inserts links not stored yet. Existing rows keep their first_seen_at.
func (s *SeenStore) Save(ctx context.Context, set models.SeenSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO seen_links (link, first_seen_at) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := s.now().UTC()
	for _, link := range set.Sorted() {
		if _, err := stmt.ExecContext(ctx, link, now); err != nil {
			return fmt.Errorf("failed to insert seen link: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seen links: %w", err)
	}
	return nil
}

// ListSeen returns stored links, newest first. limit <= 0 returns all.
func (db *DB) ListSeen(ctx context.Context, limit int) ([]SeenEntry, error) {
	query := "SELECT link, first_seen_at FROM seen_links ORDER BY first_seen_at DESC, link"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list seen links: %w", err)
	}
	defer rows.Close()

	var entries []SeenEntry
	for rows.Next() {
		var e SeenEntry
		if err := rows.Scan(&e.Link, &e.FirstSeenAt); err != nil {
			return nil, fmt.Errorf("failed to scan seen link: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
