package mcpserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/fitpaper/internal/output"
	"github.com/panbanda/fitpaper/internal/scanner"
	"github.com/panbanda/fitpaper/internal/service/fitting"
	"github.com/panbanda/fitpaper/pkg/models"
)

// Common input structures for tools

// DataInput identifies the dataset a tool works on.
type DataInput struct {
	Points [][]float64 `json:"points,omitempty" jsonschema:"Data points as [x, y] pairs. Ignored when path is set."`
	Path   string      `json:"path,omitempty" jsonschema:"Dataset file: csv, json or yaml, optionally compressed (.gz, .zst, .lz4)."`
	Name   string      `json:"name,omitempty" jsonschema:"Optional dataset name used in the output."`
	Format string      `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// ScaleOptions tunes how data is laid out on paper.
type ScaleOptions struct {
	Orientation string   `json:"orientation,omitempty" jsonschema:"Sheet orientation: landscape (default) or portrait."`
	PaperWidth  float64  `json:"paper_width,omitempty" jsonschema:"Usable long edge of the paper in cm. Default 26."`
	PaperHeight float64  `json:"paper_height,omitempty" jsonschema:"Usable short edge of the paper in cm. Default 16."`
	StartX      *float64 `json:"start_x,omitempty" jsonschema:"Pin the x axis origin instead of starting at the smallest x."`
	StartY      *float64 `json:"start_y,omitempty" jsonschema:"Pin the y axis origin instead of starting at the smallest y."`
	XPerCm      *float64 `json:"x_per_cm,omitempty" jsonschema:"Custom x scale in data units per cm. Needs y_per_cm too."`
	YPerCm      *float64 `json:"y_per_cm,omitempty" jsonschema:"Custom y scale in data units per cm. Needs x_per_cm too."`
}

// FitCurveInput fits one model to a dataset.
type FitCurveInput struct {
	DataInput
	ScaleOptions
	Mode       string `json:"mode,omitempty" jsonschema:"Model: optimal (default), linear, exponential, logarithmic, or saturation."`
	Curve      bool   `json:"curve,omitempty" jsonschema:"Return sampled points of the fitted curve instead of the fit summary."`
	CurveSteps int    `json:"curve_steps,omitempty" jsonschema:"Number of sampling intervals across the data range. Default 50."`
}

// CompareInput compares all model families.
type CompareInput struct {
	DataInput
}

// PaperScaleInput computes paper scales.
type PaperScaleInput struct {
	DataInput
	ScaleOptions
}

// BatchInput fits every dataset found under some paths.
type BatchInput struct {
	Paths  []string `json:"paths,omitempty" jsonschema:"Files or directories to scan for datasets. Defaults to current directory if empty."`
	Mode   string   `json:"mode,omitempty" jsonschema:"Model: optimal (default), linear, exponential, logarithmic, or saturation."`
	Format string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// Helper functions

func getPaths(paths []string) []string {
	if len(paths) == 0 {
		return []string{"."}
	}
	return paths
}

func getFormat(format string) output.Format {
	switch strings.ToLower(format) {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

// formatOutput renders data with the shared formatter.
func formatOutput(data any, format output.Format) (string, error) {
	var buf bytes.Buffer
	if err := output.NewFormatterTo(format, &buf, false).Output(data); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

var errNoData = errors.New("provide either points or path")

// dataset resolves the input to a dataset, preferring the file.
func (s *Server) dataset(in DataInput) (models.Dataset, error) {
	if in.Path != "" {
		ds, err := s.svc.Load(in.Path)
		if err != nil {
			return models.Dataset{}, err
		}
		if in.Name != "" {
			ds.Name = in.Name
		}
		return ds, nil
	}
	if len(in.Points) == 0 {
		return models.Dataset{}, errNoData
	}

	points := make([]models.Point, len(in.Points))
	for i, pair := range in.Points {
		if len(pair) != 2 {
			return models.Dataset{}, fmt.Errorf("point %d: want [x, y], got %d values", i, len(pair))
		}
		points[i] = models.Point{X: pair[0], Y: pair[1]}
	}
	return models.NewDataset(in.Name, points...), nil
}

// request applies tool options over the configured defaults.
func (s *Server) request(mode string, opts ScaleOptions) (fitting.Request, error) {
	req := s.svc.DefaultRequest()
	if mode != "" {
		m, err := models.ParseFitMode(mode)
		if err != nil {
			return req, err
		}
		req.Mode = m
	}
	if opts.Orientation != "" {
		o, err := models.ParseOrientation(opts.Orientation)
		if err != nil {
			return req, err
		}
		req.Orientation = o
	}
	if opts.PaperWidth > 0 {
		req.Paper.Width = opts.PaperWidth
	}
	if opts.PaperHeight > 0 {
		req.Paper.Height = opts.PaperHeight
	}
	if opts.StartX != nil {
		req.StartX = opts.StartX
	}
	if opts.StartY != nil {
		req.StartY = opts.StartY
	}
	if opts.XPerCm != nil || opts.YPerCm != nil {
		req.CustomXPerCm = opts.XPerCm
		req.CustomYPerCm = opts.YPerCm
	}
	return req, nil
}

// Tool handlers

func (s *Server) handleFitCurve(ctx context.Context, req *mcp.CallToolRequest, input FitCurveInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.Format)

	ds, err := s.dataset(input.DataInput)
	if err != nil {
		return toolError(err.Error())
	}
	fitReq, err := s.request(input.Mode, input.ScaleOptions)
	if err != nil {
		return toolError(err.Error())
	}
	if input.CurveSteps > 0 {
		fitReq.CurveSteps = input.CurveSteps
	}

	res := s.svc.Fit(ds, fitReq)
	res.Path = input.Path
	if !res.Fitted() {
		return toolError(fmt.Sprintf("could not fit a %s model to %d points", fitReq.Mode, ds.Len()))
	}
	if input.Curve {
		return toolResult(fitting.CurveView{Result: res}, format)
	}
	return toolResult(res, format)
}

func (s *Server) handleCompareModels(ctx context.Context, req *mcp.CallToolRequest, input CompareInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.Format)

	ds, err := s.dataset(input.DataInput)
	if err != nil {
		return toolError(err.Error())
	}
	c := s.svc.Compare(ds)
	c.Path = input.Path
	if len(c.Candidates) == 0 {
		return toolError(fmt.Sprintf("need at least 2 points, got %d", ds.Len()))
	}
	return toolResult(c, format)
}

func (s *Server) handlePaperScale(ctx context.Context, req *mcp.CallToolRequest, input PaperScaleInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.Format)

	ds, err := s.dataset(input.DataInput)
	if err != nil {
		return toolError(err.Error())
	}
	fitReq, err := s.request("", input.ScaleOptions)
	if err != nil {
		return toolError(err.Error())
	}

	res := &fitting.Result{
		Path:        input.Path,
		Dataset:     ds,
		Orientation: fitReq.Orientation,
		Scales:      s.svc.Scales(ds, fitReq),
	}
	if _, ok := res.Scale(); !ok {
		return toolError("no scale: the data needs at least 2 points and a positive range on both axes")
	}
	return toolResult(fitting.ScaleView{Result: res}, format)
}

func (s *Server) handleFitBatch(ctx context.Context, req *mcp.CallToolRequest, input BatchInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.Format)

	fitReq, err := s.request(input.Mode, ScaleOptions{})
	if err != nil {
		return toolError(err.Error())
	}

	files, err := scanner.NewScanner(s.svc.Config()).ScanPaths(getPaths(input.Paths))
	if err != nil {
		return toolError(err.Error())
	}
	if len(files) == 0 {
		return toolError("no dataset files found")
	}

	results, errs := s.svc.FitFiles(ctx, files, fitReq, nil)
	return toolResult(fitting.NewBatch(results, errs), format)
}
