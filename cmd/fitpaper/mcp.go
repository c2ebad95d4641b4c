package main

import (
	"fmt"

	"github.com/panbanda/fitpaper/internal/mcpserver"
	"github.com/urfave/cli/v2"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes fitpaper's
fitting and scaling as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "fitpaper": {
        "command": "fitpaper",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - fit_curve         Fit a model and compute paper scales
  - compare_models    Rank every model family by r²
  - paper_scale       Nice-step scales and point placements
  - fit_batch         Fit every dataset file under some paths`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the server.json manifest for MCP registries",
				Action: runMCPManifestCmd,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	server, err := mcpserver.NewServer(version, cfg)
	if err != nil {
		return err
	}
	return server.Run(c.Context)
}

func runMCPManifestCmd(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}
