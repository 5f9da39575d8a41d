package db

import (
	"github.com/dtnitsch/vacancy-watch/internal/setup"
	"github.com/dtnitsch/vacancy-watch/models"
	"github.com/dtnitsch/vacancy-watch/pkg/logger"
	"github.com/urfave/cli/v2"
)

// openState loads the configuration and opens the seen-set backend. These
// commands only read or merge state, so logging stays on stderr at warn.
func openState(c *cli.Context) (*setup.State, error) {
	cfg, err := setup.LoadConfig(c)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(logger.Config{Level: "warn", Format: cfg.Logging.Format})
	if err != nil {
		return nil, err
	}
	return setup.OpenState(cfg, log)
}

// mergeSeen returns the union of both sets without touching either. An
// incoming link whose LinkKey is already present is not added again.
func mergeSeen(a, b models.SeenSet) models.SeenSet {
	out := a.Clone()
	idx := a.Index()
	for l := range b {
		if k := models.LinkKey(l); !idx.Has(k) {
			idx.Add(k)
			out.Add(l)
		}
	}
	return out
}
