// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// serveCommand runs the session proxy gateway.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the browser-facing session proxy gateway",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize config file, database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// analyzeCommand handles batch analysis operations
func analyzeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Batch image analysis operations",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Analyze media items sequentially and store the run report",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "media",
						Aliases: []string{"m"},
						Usage:   "Media ID to analyze (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Analyze every image in the library",
					},
					&cli.StringFlag{
						Name:  "model",
						Usage: "Model ID to analyze with (backend default when omitted)",
					},
					&cli.BoolFlag{
						Name:  "tags",
						Usage: "Generate tags",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "categories",
						Usage: "Generate categories",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "title",
						Usage: "Generate a title",
					},
					&cli.BoolFlag{
						Name:  "description",
						Usage: "Generate a description",
					},
					&cli.IntFlag{
						Name:  "max-tags",
						Usage: "Maximum tags per item",
					},
					&cli.IntFlag{
						Name:  "max-categories",
						Usage: "Maximum categories per item",
					},
					&cli.FloatFlag{
						Name:  "confidence",
						Usage: "Confidence threshold for generated labels",
					},
					&cli.StringFlag{
						Name:  "scenario",
						Usage: "Named analysis scenario passed through to the backend",
					},
					&cli.StringFlag{
						Name:  "report",
						Usage: "Report format to write (csv or text)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Report output path (default: run ID)",
					},
				},
				Action: r.AnalyzeRun,
			},
			{
				Name:    "ui",
				Aliases: []string{"interactive"},
				Usage:   "Interactive TUI for batch analysis",
				Action:  r.TUI,
			},
			{
				Name:  "history",
				Usage: "List past analysis runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum runs to list",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "model",
						Usage: "Filter by model ID",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AnalyzeHistory,
			},
			{
				Name:  "show",
				Usage: "Show one run's report",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AnalyzeShow,
			},
		},
	}
}

// apiCommand handles direct backend API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the media backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET against the backend, prints raw JSON",
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
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// modelsCommand lists models from the backend and the local endpoint
func modelsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "models",
		Usage: "Model registry operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List models registered with the backend",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ModelsList,
			},
			{
				Name:    "local",
				Aliases: []string{"installed"},
				Usage:   "List models installed on the local endpoint",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ModelsLocal,
			},
		},
	}
}
