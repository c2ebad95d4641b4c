package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/panbanda/fitpaper/internal/progress"
	"github.com/panbanda/fitpaper/internal/scanner"
	"github.com/panbanda/fitpaper/internal/service/fitting"
	"github.com/panbanda/fitpaper/pkg/watch"
	"github.com/urfave/cli/v2"
)

func batchCmd() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "Fit every dataset file under the given paths",
		ArgsUsage: "[path...]",
		Flags: flags(
			[]cli.Flag{
				modeFlag(),
				&cli.BoolFlag{
					Name:  "quiet",
					Usage: "Hide the progress bar",
				},
			},
			outputFlags(),
		),
		Action: runBatchCmd,
	}
}

func runBatchCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	req, err := buildRequest(c, svc)
	if err != nil {
		return err
	}

	quiet := c.Bool("quiet")

	var spinner *progress.Tracker
	if !quiet {
		spinner = progress.NewSpinner("Scanning for datasets...")
	}
	files, err := scanner.NewScanner(svc.Config()).ScanPaths(getPaths(c))
	if err != nil {
		if spinner != nil {
			spinner.FinishError(err)
		}
		return err
	}
	if len(files) == 0 {
		if spinner != nil {
			spinner.FinishSkipped("no dataset files found")
		} else {
			warnf("No dataset files found")
		}
		return nil
	}
	if spinner != nil {
		spinner.FinishSuccess()
	}

	var tick func()
	var tracker *progress.Tracker
	if !quiet {
		tracker = progress.NewTracker("Fitting datasets...", len(files))
		tick = tracker.Tick
	}
	results, errs := svc.FitFiles(c.Context, files, req, tick)
	if tracker != nil {
		tracker.FinishSuccess()
	}

	if errs != nil && errs.HasErrors() {
		warnf("Warning: %d of %d files could not be fitted", len(errs.Errors), len(files))
	}
	return render(c, svc.Config(), fitting.NewBatch(results, errs))
}

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Refit a dataset file or directory whenever it changes",
		ArgsUsage: "[path]",
		Flags: flags(
			[]cli.Flag{
				modeFlag(),
				&cli.DurationFlag{
					Name:  "debounce",
					Usage: "Wait this long after the last change before refitting",
				},
			},
			scaleFlags(),
			outputFlags(),
		),
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	req, err := buildRequest(c, svc)
	if err != nil {
		return err
	}
	cfg := svc.Config()

	absPath, err := filepath.Abs(getPaths(c)[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	debounce := time.Duration(cfg.Watch.DebounceMS) * time.Millisecond
	if c.IsSet("debounce") {
		debounce = c.Duration("debounce")
	}

	watcher, err := watch.NewWatcher(absPath, cfg, debounce)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	watcher.SetCallback(func(changedPath string) {
		res, err := svc.FitFile(changedPath, req)
		if err != nil {
			errorf("Fit error: %v", err)
			return
		}
		if err := formatter.Output(res); err != nil {
			errorf("Output error: %v", err)
		}
	})

	// A single file is fitted once before waiting for changes.
	if info, err := os.Stat(absPath); err == nil && !info.IsDir() {
		if res, err := svc.FitFile(absPath, req); err == nil {
			_ = formatter.Output(res)
		}
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			fmt.Println("\nStopping watch...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
