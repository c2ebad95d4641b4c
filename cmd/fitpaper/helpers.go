package main

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/fatih/color"
	"github.com/panbanda/fitpaper/internal/cache"
	"github.com/panbanda/fitpaper/internal/output"
	"github.com/panbanda/fitpaper/internal/service/fitting"
	"github.com/panbanda/fitpaper/pkg/config"
	"github.com/panbanda/fitpaper/pkg/models"
	"github.com/urfave/cli/v2"
)

var errNoData = errors.New(`no data: pass a dataset file or --points "x,y ..."`)

// warnf and errorf print status lines to stderr so that stdout stays
// parseable for json and toon output.
func warnf(format string, a ...any) {
	fmt.Fprintln(color.Error, color.YellowString(format, a...))
}

func errorf(format string, a ...any) {
	fmt.Fprintln(color.Error, color.RedString(format, a...))
}

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

// outputFlags are shared by every command that prints a report.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, json, markdown, toon (default from config)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to file",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "Disable colored output",
		},
	}
}

// dataFlags edit the dataset after it is loaded.
func dataFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "points",
			Aliases: []string{"p"},
			Usage:   `Add points as "x,y x,y ..." (space or ; separated)`,
		},
		&cli.IntSliceFlag{
			Name:  "remove",
			Usage: "Remove the point at this 0-based index (repeatable)",
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "Dataset name shown in reports",
		},
	}
}

// scaleFlags control how data is laid out on paper.
func scaleFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "orientation",
			Usage: "Sheet orientation: landscape or portrait",
		},
		&cli.Float64Flag{
			Name:  "paper-width",
			Usage: "Usable long edge of the paper in cm",
		},
		&cli.Float64Flag{
			Name:  "paper-height",
			Usage: "Usable short edge of the paper in cm",
		},
		&cli.Float64Flag{
			Name:  "start-x",
			Usage: "Pin the x axis origin",
		},
		&cli.Float64Flag{
			Name:  "start-y",
			Usage: "Pin the y axis origin",
		},
		&cli.Float64Flag{
			Name:  "x-per-cm",
			Usage: "Custom x scale in data units per cm (needs --y-per-cm)",
		},
		&cli.Float64Flag{
			Name:  "y-per-cm",
			Usage: "Custom y scale in data units per cm (needs --x-per-cm)",
		},
	}
}

func modeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "mode",
		Aliases: []string{"m"},
		Usage:   "Model: optimal, linear, exponential, logarithmic, saturation",
	}
}

func flags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// loadConfig loads the file named by --config, or searches the default locations.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	result, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

func newService(c *cli.Context) (*fitting.Service, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	dc, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, cfg.Cache.Enabled)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return fitting.New(fitting.WithConfig(cfg), fitting.WithCache(dc)), nil
}

func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	format := cfg.Output.Format
	if c.IsSet("format") {
		format = c.String("format")
	}
	colored := cfg.Output.Color && !c.Bool("no-color")
	return output.NewFormatter(output.ParseFormat(format), c.String("output"), c.App.Writer, colored)
}

// render writes data with the formatter configured by the output flags.
func render(c *cli.Context, cfg *config.Config, data any) error {
	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()
	return formatter.Output(data)
}

// parsePoint parses "x,y".
func parsePoint(s string) (models.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return models.Point{}, fmt.Errorf("invalid point %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return models.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return models.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	p := models.Point{X: x, Y: y}
	if !p.Finite() {
		return models.Point{}, fmt.Errorf("invalid point %q: not finite", s)
	}
	return p, nil
}

// parsePoints parses a list of "x,y" pairs.
func parsePoints(s string) ([]models.Point, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || unicode.IsSpace(r)
	})
	points := make([]models.Point, 0, len(fields))
	for _, f := range fields {
		p, err := parsePoint(f)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

// loadDataset reads the dataset named by the first argument, then applies
// --points and --remove. Removal indices refer to the dataset after points
// are added.
func loadDataset(c *cli.Context, svc *fitting.Service) (models.Dataset, string, error) {
	path := c.Args().First()

	var ds models.Dataset
	if path != "" {
		var err error
		if ds, err = svc.Load(path); err != nil {
			return ds, path, err
		}
	}

	points, err := parsePoints(c.String("points"))
	if err != nil {
		return ds, path, err
	}
	for _, p := range points {
		ds = ds.Add(p)
	}

	remove := slices.Clone(c.IntSlice("remove"))
	slices.Sort(remove)
	remove = slices.Compact(remove)
	for i := len(remove) - 1; i >= 0; i-- {
		if ds, err = ds.Remove(remove[i]); err != nil {
			return ds, path, err
		}
	}

	if name := c.String("name"); name != "" {
		ds.Name = name
	}
	if path == "" && ds.Len() == 0 {
		return ds, path, errNoData
	}
	return ds, path, nil
}

// buildRequest applies command flags over the configured defaults.
func buildRequest(c *cli.Context, svc *fitting.Service) (fitting.Request, error) {
	req := svc.DefaultRequest()

	if c.IsSet("mode") {
		m, err := models.ParseFitMode(c.String("mode"))
		if err != nil {
			return req, err
		}
		req.Mode = m
	}
	if c.IsSet("orientation") {
		o, err := models.ParseOrientation(c.String("orientation"))
		if err != nil {
			return req, err
		}
		req.Orientation = o
	}
	if c.IsSet("paper-width") {
		if req.Paper.Width = c.Float64("paper-width"); req.Paper.Width <= 0 {
			return req, fmt.Errorf("--paper-width must be positive (got %g)", req.Paper.Width)
		}
	}
	if c.IsSet("paper-height") {
		if req.Paper.Height = c.Float64("paper-height"); req.Paper.Height <= 0 {
			return req, fmt.Errorf("--paper-height must be positive (got %g)", req.Paper.Height)
		}
	}
	if c.IsSet("start-x") {
		v := c.Float64("start-x")
		req.StartX = &v
	}
	if c.IsSet("start-y") {
		v := c.Float64("start-y")
		req.StartY = &v
	}
	if c.IsSet("x-per-cm") || c.IsSet("y-per-cm") {
		x, y := c.Float64("x-per-cm"), c.Float64("y-per-cm")
		req.CustomXPerCm, req.CustomYPerCm = &x, &y
	}
	if c.IsSet("steps") {
		req.CurveSteps = c.Int("steps")
	}
	return req, nil
}
