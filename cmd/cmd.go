// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func rangeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "range",
		Aliases: []string{"r"},
		Usage:   "Time range: short, medium or long (default from config)",
	}
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

// setupCommand handles config and database initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file with the default settings",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "status",
						Usage: "List pending migrations without applying them",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Revert the most recent migration",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles the backend session.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the backend session",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Log in through the browser and store the session",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check the stored session against /api/status",
				Flags:  jsonFlags(),
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "End the session and forget the stored token",
				Action: r.AuthLogout,
			},
		},
	}
}

// analyzeCommand loads the full dashboard once and prints it.
func analyzeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "analyze",
		Usage:  "Fetch genre analysis, top tracks and top artists",
		Flags:  append([]cli.Flag{rangeFlag()}, jsonFlags()...),
		Action: r.Analyze,
	}
}

func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tracks",
		Usage: "List your top tracks",
		Flags: append([]cli.Flag{
			rangeFlag(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of tracks to print (0 for all)",
			},
		}, jsonFlags()...),
		Action: r.Tracks,
	}
}

func artistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "artists",
		Usage: "List your top artists",
		Flags: append([]cli.Flag{
			rangeFlag(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of artists to print (0 for all)",
			},
		}, jsonFlags()...),
		Action: r.Artists,
	}
}

// historyCommand manages saved dashboard snapshots.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "history",
		Aliases: []string{"snapshots"},
		Usage:   "Browse saved dashboard snapshots",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List snapshots, newest first",
				Flags: append([]cli.Flag{
					rangeFlag(),
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of snapshots",
						Value:   20,
					},
				}, jsonFlags()...),
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Print one snapshot, or the latest of --range",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "sequence"},
				},
				Flags:  append([]cli.Flag{rangeFlag()}, jsonFlags()...),
				Action: r.HistoryShow,
			},
			{
				Name:  "delete",
				Usage: "Delete one snapshot",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "sequence"},
				},
				Action: r.HistoryDelete,
			},
			{
				Name:  "prune",
				Usage: "Keep only the newest snapshots of each time range",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "keep",
						Usage: "Snapshots to keep per time range",
						Value: 10,
					},
				},
				Action: r.HistoryPrune,
			},
		},
	}
}

// exportCommand writes the dashboard to files.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the dashboard as json, csv, markdown or txt",
		Flags: []cli.Flag{
			rangeFlag(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: json, csv, markdown or txt",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory",
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "Markdown report heading",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Export every time range and write a manifest",
			},
			&cli.IntFlag{
				Name:  "snapshot",
				Usage: "Export a saved snapshot by sequence instead of loading",
			},
		},
		Action: r.Export,
	}
}

// apiCommand handles direct backend calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET with the session attached, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
		},
	}
}

// dashboardCommand returns the interactive dashboard.
func dashboardCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "dashboard",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch the interactive dashboard",
		Flags: []cli.Flag{
			rangeFlag(),
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where the dashboard writes its logs (default from config)",
			},
		},
		Action: r.Dashboard,
	}
}
