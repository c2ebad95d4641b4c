package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/panbanda/fitpaper/pkg/models"
)

// Config holds all configuration options for fitpaper.
type Config struct {
	// Model selection
	Fit FitConfig `koanf:"fit" toml:"fit"`

	// Drawing area and orientation
	Paper PaperConfig `koanf:"paper" toml:"paper"`

	// Axis origin overrides
	Axis AxisConfig `koanf:"axis" toml:"axis"`

	// Literal scale that bypasses nice-step selection
	Custom CustomConfig `koanf:"custom" toml:"custom"`

	// Directory scanning for batch and watch
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	Batch BatchConfig `koanf:"batch" toml:"batch"`
	Watch WatchConfig `koanf:"watch" toml:"watch"`

	// Decoded dataset cache
	Cache CacheConfig `koanf:"cache" toml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`
}

// FitConfig controls which model is fitted.
type FitConfig struct {
	Mode       string `koanf:"mode" toml:"mode"` // optimal, linear, exponential, logarithmic, saturation
	CurveSteps int    `koanf:"curve_steps" toml:"curve_steps"`
}

// PaperConfig is the usable drawing area in centimetres, given in
// landscape (width is the long edge).
type PaperConfig struct {
	Width       float64 `koanf:"width" toml:"width"`
	Height      float64 `koanf:"height" toml:"height"`
	Orientation string  `koanf:"orientation" toml:"orientation"`
}

// AxisConfig pins the axis origins. Unset means "start at the data minimum".
type AxisConfig struct {
	StartX *float64 `koanf:"start_x" toml:"start_x,omitempty"`
	StartY *float64 `koanf:"start_y" toml:"start_y,omitempty"`
}

// CustomConfig defines a literal scale in data units per centimetre.
type CustomConfig struct {
	Enabled bool    `koanf:"enabled" toml:"enabled"`
	XPerCm  float64 `koanf:"x_per_cm" toml:"x_per_cm"`
	YPerCm  float64 `koanf:"y_per_cm" toml:"y_per_cm"`
}

// ExcludeConfig defines file exclusion patterns for directory scans.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
}

// BatchConfig controls concurrent fitting of many files.
type BatchConfig struct {
	Workers int `koanf:"workers" toml:"workers"` // 0 means 2x NumCPU
}

// WatchConfig controls the file watcher.
type WatchConfig struct {
	DebounceMS int `koanf:"debounce_ms" toml:"debounce_ms"`
}

// CacheConfig controls caching of decoded datasets.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format"` // text, json, markdown, toon
	Color  bool   `koanf:"color" toml:"color"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Fit: FitConfig{
			Mode:       string(models.ModeOptimal),
			CurveSteps: 50,
		},
		Paper: PaperConfig{
			Width:       26,
			Height:      16,
			Orientation: string(models.Landscape),
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.tmp",
				"*~",
			},
			Dirs: []string{
				".git",
				".fitpaper",
				"node_modules",
				"vendor",
			},
			Gitignore: true,
		},
		Watch: WatchConfig{
			DebounceMS: 500,
		},
		Cache: CacheConfig{
			Enabled: false,
			Dir:     ".fitpaper/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// configNames are searched, in order, in each search directory.
var configNames = []string{
	"fitpaper.toml",
	"fitpaper.yaml",
	"fitpaper.yml",
	"fitpaper.json",
	".fitpaper.toml",
	".fitpaper.yaml",
	".fitpaper.yml",
	".fitpaper.json",
}

var defaultSearchDirs = []string{".", ".fitpaper"}

// LoadResult is a loaded configuration and the file it came from.
// Source is empty when no file was found and defaults apply.
type LoadResult struct {
	Config *Config
	Source string
}

type loadOptions struct {
	path string
	dirs []string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads exactly this file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithSearchDirs replaces the directories searched for a config file.
func WithSearchDirs(dirs ...string) LoadOption {
	return func(o *loadOptions) {
		o.dirs = dirs
	}
}

// LoadConfig loads and validates configuration. With WithPath the file
// must exist; otherwise the first file found in the search directories
// is used, falling back to defaults.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := loadOptions{dirs: defaultSearchDirs}
	for _, opt := range opts {
		opt(&o)
	}

	if o.path != "" {
		cfg, err := Load(o.path)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Source: o.path}, nil
	}

	if path := find(o.dirs); path != "" {
		cfg, err := Load(path)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Source: path}, nil
	}

	return &LoadResult{Config: DefaultConfig()}, nil
}

// Load loads configuration from a file over the defaults and validates it.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
// A config file that fails to load or validate is skipped.
func LoadOrDefault() *Config {
	for _, dir := range defaultSearchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if cfg, err := Load(path); err == nil {
				return cfg
			}
		}
	}
	return DefaultConfig()
}

func find(dirs []string) string {
	for _, dir := range dirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// Validate reports every invalid value, joined into one error.
func (c *Config) Validate() error {
	var errs []error

	if _, err := models.ParseFitMode(c.Fit.Mode); err != nil {
		errs = append(errs, fmt.Errorf("fit.mode: %w", err))
	}
	if c.Fit.CurveSteps < 0 {
		errs = append(errs, fmt.Errorf("fit.curve_steps: must not be negative, got %d", c.Fit.CurveSteps))
	}

	if !positive(c.Paper.Width) || !positive(c.Paper.Height) {
		errs = append(errs, fmt.Errorf("paper: width and height must be positive, got %gx%g", c.Paper.Width, c.Paper.Height))
	}
	if _, err := models.ParseOrientation(c.Paper.Orientation); err != nil {
		errs = append(errs, fmt.Errorf("paper.orientation: %w", err))
	}

	if c.Custom.Enabled && (!positive(c.Custom.XPerCm) || !positive(c.Custom.YPerCm)) {
		errs = append(errs, errors.New("custom: x_per_cm and y_per_cm must be positive when enabled"))
	}

	if c.Batch.Workers < 0 {
		errs = append(errs, fmt.Errorf("batch.workers: must not be negative, got %d", c.Batch.Workers))
	}
	if c.Watch.DebounceMS < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce_ms: must not be negative, got %d", c.Watch.DebounceMS))
	}

	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl: must be positive when enabled, got %d", c.Cache.TTL))
	}

	switch strings.ToLower(c.Output.Format) {
	case "", "text", "json", "markdown", "md", "toon":
	default:
		errs = append(errs, fmt.Errorf("output.format: unknown format %q", c.Output.Format))
	}

	return errors.Join(errs...)
}

// Mode returns the parsed fit mode, falling back to optimal.
func (c *Config) Mode() models.FitMode {
	m, err := models.ParseFitMode(c.Fit.Mode)
	if err != nil {
		return models.ModeOptimal
	}
	return m
}

// Orientation returns the parsed paper orientation, falling back to landscape.
func (c *Config) Orientation() models.Orientation {
	o, err := models.ParseOrientation(c.Paper.Orientation)
	if err != nil {
		return models.Landscape
	}
	return o
}

// ShouldExclude checks if a path should be skipped by directory scans.
func (c *Config) ShouldExclude(path string) bool {
	sep := string(filepath.Separator)
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, sep+dir+sep) || strings.HasPrefix(path, dir+sep) {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
