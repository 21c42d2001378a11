// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func envFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "env",
		Usage: "Path to a .env file with CLIENT_ID and CLIENT_SECRET",
		Value: ".env",
	}
}

// runCommand executes the collect, aggregate and validate pipeline once.
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Collect tracks per genre and write the summary CSV",
		Flags: []cli.Flag{
			configFlag(),
			envFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Summary CSV destination (overrides pipeline.output)",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Tracks to request per genre (overrides pipeline.limit)",
			},
			&cli.StringSliceFlag{
				Name:  "category",
				Usage: "Genre to search; repeat for several (overrides pipeline.categories)",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write the validation report as JSON to this path",
			},
			&cli.BoolFlag{
				Name:    "interactive",
				Aliases: []string{"i"},
				Usage:   "Show progress and results in a terminal UI",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only log warnings and errors; skip the rendered report",
			},
		},
		Action: r.Run,
	}
}

// historyCommand lists recorded runs from the ledger.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded pipeline runs",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only show runs with this status (succeeded or failed)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
		},
		Action: r.History,
	}
}

// setupCommand handles configuration and database setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the run ledger and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}
