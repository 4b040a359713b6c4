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

// assetsCommand handles review queue operations on individual assets.
func assetsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "assets",
		Aliases: []string{"a"},
		Usage:   "Review queue operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List assets in the review queue",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "state",
						Usage: "Filter by state (DECISION_PENDING, DECIDED_KEEP, DECIDED_REJECT)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of assets to return",
						Value: 50,
					},
					&cli.StringFlag{
						Name:  "cursor",
						Usage: "Pagination cursor from a previous page",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AssetsList,
			},
			{
				Name:  "show",
				Usage: "Show full detail for one asset",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AssetsShow,
			},
			{
				Name:  "decide",
				Usage: "Record a keep, reject, or clear decision",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "action"},
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.AssetsDecide,
			},
			{
				Name:  "bulk",
				Usage: "Apply one decision to several assets",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "action"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringSliceFlag{
						Name:     "id",
						Usage:    "Asset ID, repeatable",
						Required: true,
					},
				},
				Action: r.AssetsBulk,
			},
			{
				Name:  "tag",
				Usage: "Update an asset's tags or notes",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Tag value, repeatable; replaces the full tag list",
					},
					&cli.StringFlag{
						Name:  "notes",
						Usage: "Notes text; replaces existing notes",
					},
				},
				Action: r.AssetsTag,
			},
			{
				Name:  "refresh",
				Usage: "Reload server state for an asset after a conflict",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.AssetsRefresh,
			},
			{
				Name:  "purge",
				Usage: "Preview and permanently delete a rejected asset",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "confirm",
						Usage: "Execute the purge after previewing",
					},
				},
				Action: r.AssetsPurge,
			},
		},
	}
}

// batchCommand handles batch move operations.
func batchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "batch",
		Aliases: []string{"b"},
		Usage:   "Batch move operations",
		Commands: []*cli.Command{
			{
				Name:  "preview",
				Usage: "Dry-run validation of a batch move selection",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringSliceFlag{
						Name:     "id",
						Usage:    "Asset ID, repeatable",
						Required: true,
					},
				},
				Action: r.BatchPreview,
			},
			{
				Name:  "run",
				Usage: "Queue and execute a batch move with an undo window",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringSliceFlag{
						Name:     "id",
						Usage:    "Asset ID, repeatable",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Move mode",
						Value: "move",
					},
					&cli.BoolFlag{
						Name:  "now",
						Usage: "Skip the undo window and execute immediately",
					},
				},
				Action: r.BatchRun,
			},
			{
				Name:  "report",
				Usage: "Fetch the report for a completed batch",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "batch-id"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.BatchReport,
			},
		},
	}
}

// policyCommand handles server policy operations.
func policyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "policy",
		Usage: "Server policy and feature flags",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Fetch and display current feature flags",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PolicyShow,
			},
			{
				Name:   "watch",
				Usage:  "Poll policy continuously, printing flag changes",
				Flags:  []cli.Flag{configFlag()},
				Action: r.PolicyWatch,
			},
		},
	}
}

// sessionCommand handles authentication and backend selection.
func sessionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Manage authentication and backend selection",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate with the review backend using OAuth2",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SessionLogin,
			},
			{
				Name:  "token",
				Usage: "Store a bearer token directly",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "token"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.SessionToken,
			},
			{
				Name:  "backend",
				Usage: "Set the review backend base URL",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "url"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.SessionBackend,
			},
			{
				Name:   "status",
				Usage:  "Show current session state",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SessionStatus,
			},
			{
				Name:   "logout",
				Usage:  "Clear stored credentials",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SessionLogout,
			},
		},
	}
}

// mockCommand runs the local mock review backend.
func mockCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "mock",
		Usage: "Local mock review backend",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Serve a mock review backend for development",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "port",
						Usage: "Port to listen on",
						Value: 8080,
					},
					&cli.IntFlag{
						Name:  "seed",
						Usage: "Number of pending assets to seed",
						Value: 25,
					},
					&cli.StringSliceFlag{
						Name:  "flag",
						Usage: "Feature flag to enable, repeatable",
					},
				},
				Action: r.MockServe,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for the interactive review queue.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive review queue",
		Flags:   []cli.Flag{configFlag()},
		Action:  r.TUI,
	}
}

// setupCommand handles configuration and session store initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the session store",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}
