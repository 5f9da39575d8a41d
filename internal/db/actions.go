package db

import (
	"fmt"
	"strings"

	"github.com/dtnitsch/vacancy-watch/models"
	"github.com/dtnitsch/vacancy-watch/pkg/logger"
	"github.com/dtnitsch/vacancy-watch/pkg/storage"
	"github.com/urfave/cli/v2"
)

// SeenListAction prints the stored links. The SQLite backend also shows when
// each link was first seen, newest first.
func SeenListAction(c *cli.Context) error {
	st, err := openState(c)
	if err != nil {
		return err
	}
	defer st.Close()
	w := c.App.Writer
	limit := c.Int("limit")

	if st.DB == nil {
		links := st.Store.Load(c.Context).Sorted()
		if len(links) == 0 {
			fmt.Fprintf(w, "No seen links in %s\n", st.Where)
			return nil
		}
		shown := links
		if limit > 0 && len(shown) > limit {
			shown = shown[:limit]
		}
		for _, l := range shown {
			fmt.Fprintln(w, l)
		}
		fmt.Fprintf(w, "\nTotal: %d links\n", len(links))
		return nil
	}

	entries, err := st.DB.ListSeen(c.Context, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(w, "No seen links in %s\n", st.Where)
		return nil
	}

	fmt.Fprintf(w, "%-20s %s\n", "First seen", "Link")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, e := range entries {
		fmt.Fprintf(w, "%-20s %s\n", e.FirstSeenAt.Local().Format("2006-01-02 15:04:05"), e.Link)
	}
	fmt.Fprintf(w, "\nShown: %d links\n", len(entries))
	return nil
}

// SeenImportAction merges a seen JSON file into the configured backend.
// Existing links are kept; the backend is written only if it grows.
func SeenImportAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: %s seen import <file.json>", c.App.Name)
	}
	src := c.Args().First()
	if !storage.HasFile(src) {
		return fmt.Errorf("import file not found: %s", src)
	}

	st, err := openState(c)
	if err != nil {
		return err
	}
	defer st.Close()
	w := c.App.Writer

	incoming := storage.NewSeenFile(src, logger.NewNop()).Load(c.Context)
	current := st.Store.Load(c.Context)
	merged := mergeSeen(current, incoming)

	added := merged.Len() - current.Len()
	if added == 0 {
		fmt.Fprintf(w, "Nothing to import: all %d links already in %s\n", incoming.Len(), st.Where)
		return nil
	}
	if err := st.Store.Save(c.Context, merged); err != nil {
		return fmt.Errorf("failed to save imported links: %w", err)
	}
	fmt.Fprintf(w, "Imported %d new links into %s (total %d)\n", added, st.Where, merged.Len())
	return nil
}

// RunsAction lists recorded runs. Only the SQLite backend keeps history.
func RunsAction(c *cli.Context) error {
	st, err := openState(c)
	if err != nil {
		return err
	}
	defer st.Close()
	if st.DB == nil {
		return fmt.Errorf("run history needs the %s backend (use --backend %s)", models.BackendSQLite, models.BackendSQLite)
	}
	w := c.App.Writer

	runs, err := st.DB.ListRuns(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return nil
	}

	fmt.Fprintf(w, "%-6s %-20s %-22s %-6s %-5s %-8s %-9s %-6s %s\n",
		"ID", "Started", "State", "Links", "New", "Matched", "Notified", "Saved", "Error")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, r := range runs {
		fmt.Fprintf(w, "%-6d %-20s %-22s %-6d %-5d %-8d %-9d %-6t %s\n",
			r.RunID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.FinalState,
			r.Candidates,
			r.New,
			r.Matched,
			r.Notified,
			r.Saved,
			r.Error,
		)
	}
	fmt.Fprintf(w, "\nTotal: %d runs\n", len(runs))
	return nil
}
