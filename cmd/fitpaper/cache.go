package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/panbanda/fitpaper/internal/cache"
	"github.com/urfave/cli/v2"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the decoded dataset cache",
		Description: `Decoded datasets are cached under cache.dir when cache.enabled is set.
Entries are keyed by file path and dropped when the file content changes.`,
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cache size and entry ages",
				Action: runCacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cache entry",
				Action: runCacheClear,
			},
		},
	}
}

func openCache(c *cli.Context) (*cache.Cache, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return cache.New(cfg.Cache.Dir, cfg.Cache.TTL, cfg.Cache.Enabled)
}

func runCacheStats(c *cli.Context) error {
	dc, err := openCache(c)
	if err != nil {
		return err
	}
	if !dc.Enabled() {
		color.Yellow("Cache is disabled (set cache.enabled = true)")
		return nil
	}

	stats, err := dc.GetStats()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Dir:     %s\n", stats.Dir)
	fmt.Fprintf(c.App.Writer, "Entries: %d\n", stats.Entries)
	fmt.Fprintf(c.App.Writer, "Size:    %d bytes\n", stats.TotalSize)
	if stats.Entries > 0 {
		fmt.Fprintf(c.App.Writer, "Oldest:  %s\n", stats.OldestAge.Round(1e9))
		fmt.Fprintf(c.App.Writer, "Newest:  %s\n", stats.NewestAge.Round(1e9))
	}
	return nil
}

func runCacheClear(c *cli.Context) error {
	dc, err := openCache(c)
	if err != nil {
		return err
	}
	if err := dc.Clear(); err != nil {
		return err
	}
	color.Green("Cache cleared")
	return nil
}
