package main

import (
	"os"

	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func newApp() *cli.App {
	return &cli.App{
		Name:     "fitpaper",
		Usage:    "Fit curves to measurements and scale them for graph paper",
		Version:  version,
		Metadata: make(map[string]interface{}),
		Description: `fitpaper fits linear, exponential, logarithmic and saturation
(Michaelis-Menten) models to (x, y) data, picks the best one by r², and
computes round axis scales for drawing the data on a sheet of paper.

Datasets: CSV, JSON or YAML, optionally compressed (.gz, .zst, .lz4).`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"FITPAPER_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			fitCmd(),
			compareCmd(),
			scaleCmd(),
			curveCmd(),
			batchCmd(),
			watchCmd(),
			mcpCmd(),
			cacheCmd(),
			configCmd(),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		errorf("Error: %v", err)
		os.Exit(1)
	}
}
