// Package setup turns command-line flags into the configured components
// shared by every command.
package setup

import (
	"context"
	"fmt"

	"github.com/dtnitsch/vacancy-watch/internal/common"
	"github.com/dtnitsch/vacancy-watch/models"
	"github.com/dtnitsch/vacancy-watch/pkg/config"
	dbpkg "github.com/dtnitsch/vacancy-watch/pkg/db"
	"github.com/dtnitsch/vacancy-watch/pkg/logger"
	"github.com/dtnitsch/vacancy-watch/pkg/storage"
	"github.com/urfave/cli/v2"
)

// Flags are the global flags. Each one overrides the matching config value
// when set.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: config.DefaultPath, Usage: "YAML config file (missing file is ignored)"},
		&cli.StringFlag{Name: "target", Usage: "page to watch"},
		&cli.StringFlag{Name: "backend", Usage: "seen-set backend: json or sqlite"},
		&cli.StringFlag{Name: "seen-file", Usage: "seen-set JSON file"},
		&cli.StringFlag{Name: "state-db", Usage: "SQLite database for the sqlite backend"},
		&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		&cli.StringFlag{Name: "log-format", Usage: "json or console"},
		&cli.BoolFlag{Name: "dry-run", Usage: "evaluate and log matches without notifying or saving"},
	}
}

// LoadConfig reads the config file and environment, then applies flags.
func LoadConfig(c *cli.Context) (*models.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	overrides := []struct {
		flag string
		dst  *string
	}{
		{"target", &cfg.Target.URL},
		{"backend", &cfg.State.Backend},
		{"seen-file", &cfg.State.File},
		{"state-db", &cfg.State.DBPath},
		{"log-level", &cfg.Logging.Level},
		{"log-format", &cfg.Logging.Format},
		{"schedule", &cfg.Watch.Schedule},
	}
	for _, o := range overrides {
		if c.IsSet(o.flag) {
			*o.dst = c.String(o.flag)
		}
	}
	cfg.Target.URL = common.SanitizeURL(cfg.Target.URL)
	if c.IsSet("dry-run") {
		cfg.DryRun = c.Bool("dry-run")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func NewLogger(cfg *models.Config) (logger.Logger, error) {
	return logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
}

// SeenStore is the persistence contract shared by both backends.
type SeenStore interface {
	Load(ctx context.Context) models.SeenSet
	Save(ctx context.Context, set models.SeenSet) error
}

// State is the opened seen-set backend. DB is nil for the JSON backend.
type State struct {
	Store SeenStore
	DB    *dbpkg.DB
	Where string
}

// OpenState opens the backend selected by cfg.State.Backend.
func OpenState(cfg *models.Config, log logger.Logger) (*State, error) {
	switch cfg.State.Backend {
	case models.BackendSQLite:
		database, err := dbpkg.Open(cfg.State.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return &State{Store: dbpkg.NewSeenStore(database, log), DB: database, Where: database.Path()}, nil
	case models.BackendJSON, "":
		return &State{Store: storage.NewSeenFile(cfg.State.File, log), Where: cfg.State.File}, nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.State.Backend)
	}
}

func (s *State) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
