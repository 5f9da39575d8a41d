package main

import (
	"fmt"
	"os"

	dbcmd "github.com/dtnitsch/vacancy-watch/internal/db"
	"github.com/dtnitsch/vacancy-watch/internal/run"
	"github.com/dtnitsch/vacancy-watch/internal/setup"
	"github.com/dtnitsch/vacancy-watch/models"
	"github.com/dtnitsch/vacancy-watch/pkg/help"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "vacancy-watch",
		Usage:   "watch a public vacancy page for new documents and notify on keyword matches",
		Version: version,
		Flags:   setup.Flags(),
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "check the page once",
				Action: run.RunAction,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "summary", Usage: "print a YAML run summary after the status lines"},
				},
			},
			{
				Name:   "watch",
				Usage:  "check now and then on a schedule until interrupted",
				Action: run.WatchAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "schedule", Usage: fmt.Sprintf("cron spec or descriptor (default %q)", models.DefaultWatchSchedule)},
				},
			},
			{
				Name:  "seen",
				Usage: "inspect or seed the seen set",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "print stored links",
						Action: dbcmd.SeenListAction,
						Flags:  []cli.Flag{&cli.IntFlag{Name: "limit", Value: 0, Usage: "max links to print (0 = all)"}},
					},
					{
						Name:      "import",
						Usage:     "merge a seen JSON file into the configured backend",
						ArgsUsage: "<file.json>",
						Action:    dbcmd.SeenImportAction,
					},
				},
			},
			{
				Name:  "config",
				Usage: "configuration helpers",
				Subcommands: []*cli.Command{
					{
						Name:  "example",
						Usage: "print an example config.yaml",
						Action: func(c *cli.Context) error {
							_, err := fmt.Fprint(c.App.Writer, help.ExampleConfigYAML)
							return err
						},
					},
				},
			},
			{
				Name:   "runs",
				Usage:  "list recorded runs (sqlite backend)",
				Action: dbcmd.RunsAction,
				Flags:  []cli.Flag{&cli.IntFlag{Name: "limit", Value: 20, Usage: "max runs to print"}},
			},
		},
		DefaultCommand: "run",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
