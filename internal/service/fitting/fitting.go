// Package fitting orchestrates dataset loading, model selection and
// scale computation for the CLI, the watcher and the MCP server.
package fitting

import (
	"context"
	"fmt"

	"github.com/panbanda/fitpaper/internal/cache"
	"github.com/panbanda/fitpaper/internal/fileproc"
	"github.com/panbanda/fitpaper/pkg/config"
	"github.com/panbanda/fitpaper/pkg/dataset"
	"github.com/panbanda/fitpaper/pkg/fit"
	"github.com/panbanda/fitpaper/pkg/models"
	"github.com/panbanda/fitpaper/pkg/scale"
)

// LoadFunc reads a dataset from a path.
type LoadFunc func(path string) (models.Dataset, error)

// Service runs fits with configured defaults.
type Service struct {
	config *config.Config
	load   LoadFunc
	cache  *cache.Cache
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithLoader replaces the dataset loader (for testing).
func WithLoader(load LoadFunc) Option {
	return func(s *Service) {
		s.load = load
	}
}

// WithCache serves repeated loads of unchanged files from c.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// New creates a new fitting service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault(),
		load:   dataset.Load,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.config
}

// Request describes one fit. Nil pointers mean "not set".
type Request struct {
	Mode        models.FitMode
	Paper       scale.Paper
	Orientation models.Orientation

	StartX *float64
	StartY *float64

	CustomXPerCm *float64
	CustomYPerCm *float64

	CurveSteps int
}

// DefaultRequest builds a request from the service configuration.
func (s *Service) DefaultRequest() Request {
	cfg := s.config
	req := Request{
		Mode:        cfg.Mode(),
		Paper:       scale.Paper{Width: cfg.Paper.Width, Height: cfg.Paper.Height},
		Orientation: cfg.Orientation(),
		StartX:      clone(cfg.Axis.StartX),
		StartY:      clone(cfg.Axis.StartY),
		CurveSteps:  cfg.Fit.CurveSteps,
	}
	if cfg.Custom.Enabled {
		x, y := cfg.Custom.XPerCm, cfg.Custom.YPerCm
		req.CustomXPerCm = &x
		req.CustomYPerCm = &y
	}
	return req
}

func clone(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Result is the outcome of fitting one dataset.
type Result struct {
	Path        string
	Dataset     models.Dataset
	Mode        models.FitMode
	Orientation models.Orientation

	// Model is nil when no model could be fitted.
	Model  *models.FittedModel
	Scales models.ScaleReport
	Curve  []models.Point
}

// Fitted reports whether a model was produced.
func (r *Result) Fitted() bool {
	return r.Model != nil
}

// Scale returns the scale that applies to this result: the custom scale
// when one is active, otherwise the one for the chosen orientation.
func (r *Result) Scale() (models.ScaleResult, bool) {
	return r.Scales.Active(r.Orientation, true)
}

// Placement is a data point located on paper.
type Placement struct {
	X  float64 `json:"x" toon:"x"`
	Y  float64 `json:"y" toon:"y"`
	DX float64 `json:"dx_cm" toon:"dx_cm"`
	DY float64 `json:"dy_cm" toon:"dy_cm"`
}

// Placements locates every data point on paper using the active scale.
func (r *Result) Placements() []Placement {
	sc, ok := r.Scale()
	if !ok {
		return nil
	}
	out := make([]Placement, len(r.Dataset.Points))
	for i, p := range r.Dataset.Points {
		dx, dy := sc.Distance(p.X, p.Y)
		out[i] = Placement{X: p.X, Y: p.Y, DX: dx, DY: dy}
	}
	return out
}

// Fit selects a model for ds and computes its scales. It never fails:
// datasets too small to fit produce a Result without a model.
func (s *Service) Fit(ds models.Dataset, req Request) *Result {
	if req.Mode == "" {
		req.Mode = models.ModeOptimal
	}
	if req.Orientation == "" {
		req.Orientation = models.Landscape
	}

	res := &Result{
		Dataset:     ds,
		Mode:        req.Mode,
		Orientation: req.Orientation,
		Scales:      s.Scales(ds, req),
	}
	if m, ok := fit.Select(ds.Points, req.Mode); ok {
		res.Model = m
		res.Curve = fit.SampleCurve(m, ds.Points, req.CurveSteps)
	}
	return res
}

// Scales computes landscape, portrait and custom scales for ds.
func (s *Service) Scales(ds models.Dataset, req Request) models.ScaleReport {
	return scale.Compute(ds.Points, scale.Options{
		Paper:        req.Paper,
		StartX:       req.StartX,
		StartY:       req.StartY,
		CustomXPerCm: req.CustomXPerCm,
		CustomYPerCm: req.CustomYPerCm,
	})
}

// FitFile loads a dataset file and fits it.
func (s *Service) FitFile(path string, req Request) (*Result, error) {
	ds, err := s.Load(path)
	if err != nil {
		return nil, err
	}
	res := s.Fit(ds, req)
	res.Path = path
	return res, nil
}

// Load reads a dataset with the configured loader, through the cache
// when one is set.
func (s *Service) Load(path string) (models.Dataset, error) {
	ds, err := s.cache.Load(path, cache.LoadFunc(s.load))
	if err != nil {
		return models.Dataset{}, fmt.Errorf("load %s: %w", path, err)
	}
	return ds, nil
}

// FitFiles fits many dataset files concurrently. Results keep the order
// of paths; files that fail to load are reported in the returned errors.
func (s *Service) FitFiles(ctx context.Context, paths []string, req Request, onProgress func()) ([]*Result, *fileproc.ProcessingErrors) {
	return fileproc.MapFiles(ctx, paths, s.config.Batch.Workers, func(path string) (*Result, error) {
		return s.FitFile(path, req)
	}, onProgress)
}

// Comparison holds every model family's outcome for one dataset.
type Comparison struct {
	Path       string
	Dataset    models.Dataset
	Candidates []fit.Candidate
	// Best is nil when no family produced a fit.
	Best *models.FittedModel
}

// Compare fits every model family to ds.
func (s *Service) Compare(ds models.Dataset) *Comparison {
	c := &Comparison{Dataset: ds}
	if len(ds.Points) < fit.MinPoints {
		return c
	}
	c.Candidates = fit.FitAll(ds.Points)
	c.Best = fit.Best(c.Candidates)
	return c
}
