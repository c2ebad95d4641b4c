package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/fitpaper/internal/cache"
	"github.com/panbanda/fitpaper/internal/service/fitting"
	"github.com/panbanda/fitpaper/pkg/config"
)

// Tool names, shared by registration and the prompt checks.
const (
	toolFitCurve      = "fit_curve"
	toolCompareModels = "compare_models"
	toolPaperScale    = "paper_scale"
	toolFitBatch      = "fit_batch"
)

var toolNames = []string{toolFitCurve, toolCompareModels, toolPaperScale, toolFitBatch}

// Server wraps the MCP server and registers the fitpaper tools.
type Server struct {
	server *mcp.Server
	svc    *fitting.Service
}

// NewServer creates a new MCP server with all fitpaper tools registered.
// A nil cfg loads configuration from the standard locations.
func NewServer(version string, cfg *config.Config) (*Server, error) {
	if version == "" {
		version = "dev"
	}
	if cfg == nil {
		cfg = config.LoadOrDefault()
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "fitpaper",
			Version: version,
		},
		nil,
	)

	opts := []fitting.Option{fitting.WithConfig(cfg)}
	// An unusable cache directory only disables caching.
	if dc, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, cfg.Cache.Enabled); err == nil {
		opts = append(opts, fitting.WithCache(dc))
	}

	s := &Server{server: server, svc: fitting.New(opts...)}
	s.registerTools()
	if err := s.registerPrompts(); err != nil {
		return nil, fmt.Errorf("register prompts: %w", err)
	}
	return s, nil
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// registerTools adds the fitting and scaling tools to the server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        toolFitCurve,
		Description: describeFitCurve(),
	}, s.handleFitCurve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        toolCompareModels,
		Description: describeCompareModels(),
	}, s.handleCompareModels)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        toolPaperScale,
		Description: describePaperScale(),
	}, s.handlePaperScale)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        toolFitBatch,
		Description: describeFitBatch(),
	}, s.handleFitBatch)
}
