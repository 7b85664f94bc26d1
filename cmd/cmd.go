// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for the database and provider headers.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize snapshot database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "headers",
				Usage: "Configure report card portal headers from browser cURL",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output path for headers file (default: ~/.nvenr/headers.sh)",
					},
				},
				Action: r.SetupHeaders,
			},
		},
	}
}

// yearsCommand reports the range of school years the provider publishes.
func yearsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "years",
		Usage: "Show the range of available school years",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Years,
	}
}

// fetchCommand handles single and multi-year enrollment fetches.
func fetchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch enrollment data for one or more school years",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "year",
				Aliases: []string{"y"},
				Usage:   "School year to fetch (end year, e.g. 2024 for 2023-24)",
			},
			&cli.IntSliceFlag{
				Name:  "years",
				Usage: "Multiple school years to fetch and stack",
			},
			&cli.BoolFlag{
				Name:  "tidy",
				Usage: "Reshape to long format (one row per subgroup)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
			&cli.BoolFlag{
				Name:  "refresh",
				Usage: "Bypass cached snapshots and re-fetch from the provider",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write JSON to a file instead of stdout",
			},
		},
		Action: r.Fetch,
	}
}

// exportCommand handles concurrent multi-year exports to disk.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export enrollment data for multiple years to disk",
		Flags: []cli.Flag{
			&cli.IntSliceFlag{
				Name:     "years",
				Usage:    "School years to export",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: json, csv, markdown, txt",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent export workers",
				Value: 5,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Provider requests per second",
				Value: 5.0,
			},
			&cli.BoolFlag{
				Name:  "tidy",
				Usage: "Export long-format rows (csv and json)",
			},
			&cli.BoolFlag{
				Name:  "refresh",
				Usage: "Bypass cached snapshots and re-fetch from the provider",
			},
		},
		Action: r.Export,
	}
}

// compareCommand reports district-level enrollment change between two years.
func compareCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "compare",
		Usage: "Compare district totals between two school years",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:     "from",
				Usage:    "Baseline school year",
				Required: true,
			},
			&cli.IntFlag{
				Name:     "to",
				Usage:    "Comparison school year",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Compare,
	}
}

// cacheCommand manages locally cached year snapshots.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage cached enrollment snapshots",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List cached snapshots",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.CacheList,
			},
			{
				Name:   "clear",
				Usage:  "Delete all cached snapshots",
				Action: r.CacheClear,
			},
		},
	}
}

// serveCommand runs the local enrollment HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve enrollment data over a local HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind (overrides config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to bind (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the health endpoint in a browser",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for browsing enrollment data",
		Action:  r.TUI,
	}
}
