package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/fitpaper/internal/output"
	"github.com/panbanda/fitpaper/pkg/config"
	"github.com/panbanda/fitpaper/pkg/models"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	server, err := NewServer("1.0.0-test", config.DefaultConfig())
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	return server
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("handler returned nil result")
	}
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content is not TextContent: %T", result.Content[0])
	}
	return text.Text
}

func linePoints() [][]float64 {
	return [][]float64{{0, 1}, {1, 3}, {2, 5}, {3, 7}, {4, 9}}
}

func f64(v float64) *float64 { return &v }

// TestServerCreation verifies the MCP server can be created without panicking.
func TestServerCreation(t *testing.T) {
	server := newTestServer(t)
	if server.server == nil {
		t.Fatal("NewServer().server is nil")
	}
	if server.svc == nil {
		t.Fatal("NewServer().svc is nil")
	}
}

// TestServerCreationEmptyVersion verifies empty version defaults to "dev".
func TestServerCreationEmptyVersion(t *testing.T) {
	server, err := NewServer("", config.DefaultConfig())
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	if server == nil {
		t.Fatal("NewServer(\"\") returned nil")
	}
}

// TestToolDescriptions verifies all description functions return non-empty strings.
func TestToolDescriptions(t *testing.T) {
	descriptions := map[string]func() string{
		"fit_curve":      describeFitCurve,
		"compare_models": describeCompareModels,
		"paper_scale":    describePaperScale,
		"fit_batch":      describeFitBatch,
	}

	for name, fn := range descriptions {
		t.Run(name, func(t *testing.T) {
			desc := fn()
			if desc == "" {
				t.Errorf("%s description is empty", name)
			}
			for _, section := range []string{"USE WHEN:", "INTERPRETING RESULTS:", "METRICS RETURNED:"} {
				if !strings.Contains(desc, section) {
					t.Errorf("%s description missing %s section", name, section)
				}
			}
		})
	}
}

func TestGetPaths(t *testing.T) {
	if got := getPaths(nil); len(got) != 1 || got[0] != "." {
		t.Errorf("getPaths(nil) = %v, want [.]", got)
	}
	in := []string{"a", "b"}
	if got := getPaths(in); len(got) != 2 {
		t.Errorf("getPaths(%v) = %v", in, got)
	}
}

func TestGetFormat(t *testing.T) {
	tests := []struct {
		format   string
		expected output.Format
	}{
		{"", output.FormatTOON},
		{"toon", output.FormatTOON},
		{"json", output.FormatJSON},
		{"JSON", output.FormatJSON},
		{"markdown", output.FormatMarkdown},
		{"md", output.FormatMarkdown},
		{"unknown", output.FormatTOON},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			if result := getFormat(tt.format); result != tt.expected {
				t.Errorf("getFormat(%q) = %v, want %v", tt.format, result, tt.expected)
			}
		})
	}
}

// TestToolError verifies error result formatting.
func TestToolError(t *testing.T) {
	result, _, err := toolError("test error message")
	if err != nil {
		t.Fatalf("toolError returned unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("toolError result.IsError should be true")
	}
	if got := resultText(t, result); got != "Error: test error message" {
		t.Errorf("toolError text = %q, want %q", got, "Error: test error message")
	}
}

// TestToolResult verifies successful result formatting.
func TestToolResult(t *testing.T) {
	data := map[string]any{
		"key": "value",
		"num": 42,
	}
	result, _, err := toolResult(data, output.FormatJSON)
	if err != nil {
		t.Fatalf("toolResult returned error: %v", err)
	}
	if result.IsError {
		t.Error("toolResult.IsError should be false")
	}
	text := resultText(t, result)
	if strings.HasSuffix(text, "\n") {
		t.Error("toolResult text should not end with a newline")
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		t.Fatalf("toolResult json is invalid: %v", err)
	}
	if decoded["key"] != "value" {
		t.Errorf("decoded = %v", decoded)
	}
}

// TestInputStructTags verifies all input structs can be marshaled.
func TestInputStructTags(t *testing.T) {
	inputs := map[string]any{
		"FitCurveInput":   FitCurveInput{},
		"CompareInput":    CompareInput{},
		"PaperScaleInput": PaperScaleInput{},
		"BatchInput":      BatchInput{},
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			data, err := json.Marshal(input)
			if err != nil {
				t.Errorf("failed to marshal: %v", err)
			}
			if len(data) == 0 {
				t.Error("marshaled to empty data")
			}
		})
	}
}

func TestDataset(t *testing.T) {
	s := newTestServer(t)

	ds, err := s.dataset(DataInput{Points: linePoints(), Name: "line"})
	if err != nil {
		t.Fatalf("dataset() error = %v", err)
	}
	if ds.Len() != 5 || ds.Name != "line" {
		t.Errorf("dataset() = %+v", ds)
	}
	if ds.Points[1] != (models.Point{X: 1, Y: 3}) {
		t.Errorf("Points[1] = %+v", ds.Points[1])
	}

	if _, err := s.dataset(DataInput{}); err != errNoData {
		t.Errorf("dataset(empty) error = %v, want errNoData", err)
	}
	if _, err := s.dataset(DataInput{Points: [][]float64{{1, 2}, {3}}}); err == nil {
		t.Error("dataset() should reject a pair with one value")
	}
	if _, err := s.dataset(DataInput{Path: filepath.Join(t.TempDir(), "missing.csv")}); err == nil {
		t.Error("dataset() should fail for a missing file")
	}
}

func TestRequest(t *testing.T) {
	s := newTestServer(t)

	req, err := s.request("log", ScaleOptions{
		Orientation: "portrait",
		PaperWidth:  20,
		StartX:      f64(0),
		XPerCm:      f64(1),
		YPerCm:      f64(2),
	})
	if err != nil {
		t.Fatalf("request() error = %v", err)
	}
	if req.Mode != models.ModeLogarithmic {
		t.Errorf("Mode = %v, want logarithmic", req.Mode)
	}
	if req.Orientation != models.Portrait {
		t.Errorf("Orientation = %v, want portrait", req.Orientation)
	}
	if req.Paper.Width != 20 || req.Paper.Height != 16 {
		t.Errorf("Paper = %+v, want 20x16", req.Paper)
	}
	if req.StartX == nil || *req.StartX != 0 {
		t.Errorf("StartX = %v, want 0", req.StartX)
	}
	if req.CustomXPerCm == nil || *req.CustomYPerCm != 2 {
		t.Errorf("custom scale not applied: %v %v", req.CustomXPerCm, req.CustomYPerCm)
	}

	if _, err := s.request("cubic", ScaleOptions{}); err == nil {
		t.Error("request() should reject an unknown mode")
	}
	if _, err := s.request("", ScaleOptions{Orientation: "diagonal"}); err == nil {
		t.Error("request() should reject an unknown orientation")
	}
}

// TestHandleFitCurve tests the fit tool handler.
func TestHandleFitCurve(t *testing.T) {
	s := newTestServer(t)

	input := FitCurveInput{DataInput: DataInput{Points: linePoints(), Format: "json"}}
	result, _, err := s.handleFitCurve(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("handleFitCurve returned error: %v", err)
	}
	text := resultText(t, result)
	if result.IsError {
		t.Fatalf("handleFitCurve returned error: %s", text)
	}

	var decoded struct {
		Model struct {
			Type     string  `json:"type"`
			Equation string  `json:"equation"`
			R2       float64 `json:"r2"`
		} `json:"model"`
		Active *models.ScaleResult `json:"active_scale"`
	}
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if decoded.Model.Type != "linear" {
		t.Errorf("model type = %q, want linear", decoded.Model.Type)
	}
	if decoded.Model.Equation != "y = 2.0000x + 1.0000" {
		t.Errorf("equation = %q", decoded.Model.Equation)
	}
	if decoded.Active == nil || decoded.Active.XPerCm != 0.2 || decoded.Active.YPerCm != 0.5 {
		t.Errorf("active scale = %+v, want 0.2 and 0.5", decoded.Active)
	}
}

func TestHandleFitCurve_Curve(t *testing.T) {
	s := newTestServer(t)

	input := FitCurveInput{
		DataInput:  DataInput{Points: linePoints(), Format: "json"},
		Curve:      true,
		CurveSteps: 4,
	}
	result, _, err := s.handleFitCurve(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("handleFitCurve returned error: %v", err)
	}
	text := resultText(t, result)
	if result.IsError {
		t.Fatalf("handleFitCurve returned error: %s", text)
	}

	var decoded struct {
		Points []models.Point `json:"points"`
	}
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(decoded.Points) != 5 {
		t.Errorf("curve points = %d, want 5", len(decoded.Points))
	}
}

func TestHandleFitCurve_Errors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		input FitCurveInput
	}{
		{"no data", FitCurveInput{}},
		{"single point", FitCurveInput{DataInput: DataInput{Points: [][]float64{{1, 1}}}}},
		{"bad mode", FitCurveInput{DataInput: DataInput{Points: linePoints()}, Mode: "spline"}},
		{"exponential with negative y", FitCurveInput{
			DataInput: DataInput{Points: [][]float64{{0, -1}, {1, 2}, {2, 4}}},
			Mode:      "exponential",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, _, err := s.handleFitCurve(context.Background(), nil, tt.input)
			if err != nil {
				t.Fatalf("handleFitCurve returned error: %v", err)
			}
			if !result.IsError {
				t.Errorf("expected a tool error, got %s", resultText(t, result))
			}
		})
	}
}

func TestHandleFitCurve_File(t *testing.T) {
	s := newTestServer(t)
	path := filepath.Join(t.TempDir(), "growth.csv")
	if err := os.WriteFile(path, []byte("x,y\n0,2\n1,3.2974\n2,5.4366\n3,8.9634\n"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	input := FitCurveInput{DataInput: DataInput{Path: path, Format: "markdown"}}
	result, _, err := s.handleFitCurve(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("handleFitCurve returned error: %v", err)
	}
	text := resultText(t, result)
	if result.IsError {
		t.Fatalf("handleFitCurve returned error: %s", text)
	}
	if !strings.Contains(text, "Exponential") {
		t.Errorf("markdown output should name the exponential model:\n%s", text)
	}
}

// TestHandleCompareModels tests the comparison tool handler.
func TestHandleCompareModels(t *testing.T) {
	s := newTestServer(t)

	input := CompareInput{DataInput: DataInput{Points: linePoints(), Format: "json"}}
	result, _, err := s.handleCompareModels(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("handleCompareModels returned error: %v", err)
	}
	text := resultText(t, result)
	if result.IsError {
		t.Fatalf("handleCompareModels returned error: %s", text)
	}

	var decoded struct {
		Best       string `json:"best"`
		Candidates []struct {
			Type string `json:"type"`
			OK   bool   `json:"ok"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if decoded.Best != "linear" {
		t.Errorf("best = %q, want linear", decoded.Best)
	}
	if len(decoded.Candidates) != 4 {
		t.Errorf("candidates = %d, want 4", len(decoded.Candidates))
	}

	result, _, _ = s.handleCompareModels(context.Background(), nil, CompareInput{DataInput: DataInput{Points: [][]float64{{1, 1}}}})
	if !result.IsError {
		t.Error("a single point should be a tool error")
	}
}

// TestHandlePaperScale tests the scale tool handler.
func TestHandlePaperScale(t *testing.T) {
	s := newTestServer(t)

	input := PaperScaleInput{
		DataInput:    DataInput{Points: linePoints(), Format: "json"},
		ScaleOptions: ScaleOptions{XPerCm: f64(1), YPerCm: f64(2)},
	}
	result, _, err := s.handlePaperScale(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("handlePaperScale returned error: %v", err)
	}
	text := resultText(t, result)
	if result.IsError {
		t.Fatalf("handlePaperScale returned error: %s", text)
	}

	var decoded struct {
		Active     *models.ScaleResult `json:"active_scale"`
		Placements []struct {
			DX float64 `json:"dx_cm"`
			DY float64 `json:"dy_cm"`
		} `json:"placements"`
	}
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if decoded.Active == nil || decoded.Active.XPerCm != 1 || decoded.Active.YPerCm != 2 {
		t.Errorf("active scale = %+v, want custom 1 and 2", decoded.Active)
	}
	if len(decoded.Placements) != 5 || decoded.Placements[4].DX != 4 || decoded.Placements[4].DY != 4 {
		t.Errorf("placements = %+v", decoded.Placements)
	}
}

func TestHandlePaperScale_NoRange(t *testing.T) {
	s := newTestServer(t)

	input := PaperScaleInput{DataInput: DataInput{Points: [][]float64{{1, 5}, {2, 5}}}}
	result, _, err := s.handlePaperScale(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("handlePaperScale returned error: %v", err)
	}
	if !result.IsError {
		t.Errorf("flat data should have no scale, got %s", resultText(t, result))
	}
}

// TestHandleFitBatch tests the batch tool handler.
func TestHandleFitBatch(t *testing.T) {
	s := newTestServer(t)
	tmpDir := t.TempDir()
	files := map[string]string{
		"run1.csv":     "0,1\n1,3\n2,5\n",
		"run2.csv":     "0,2\n1,4\n2,6\n",
		"broken.csv":   "x,y\n",
		"notes.txt":    "not a dataset",
		"vendor/a.csv": "0,1\n1,2\n",
	}
	for name, content := range files {
		path := filepath.Join(tmpDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write test file: %v", err)
		}
	}

	input := BatchInput{Paths: []string{tmpDir}, Format: "json"}
	result, _, err := s.handleFitBatch(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("handleFitBatch returned error: %v", err)
	}
	text := resultText(t, result)
	if result.IsError {
		t.Fatalf("handleFitBatch returned error: %s", text)
	}

	var decoded struct {
		Results []struct {
			Path string `json:"path"`
		} `json:"results"`
		Errors []struct {
			Path string `json:"path"`
		} `json:"errors"`
	}
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(decoded.Results) != 2 {
		t.Errorf("results = %d, want 2", len(decoded.Results))
	}
	if len(decoded.Errors) != 1 || filepath.Base(decoded.Errors[0].Path) != "broken.csv" {
		t.Errorf("errors = %+v, want broken.csv", decoded.Errors)
	}
}

func TestHandleFitBatch_NoFiles(t *testing.T) {
	s := newTestServer(t)

	result, _, err := s.handleFitBatch(context.Background(), nil, BatchInput{Paths: []string{t.TempDir()}})
	if err != nil {
		t.Fatalf("handleFitBatch returned error: %v", err)
	}
	if !result.IsError {
		t.Error("an empty directory should be a tool error")
	}
}

// TestFormatOutput verifies the default format renders TOON.
func TestFormatOutput(t *testing.T) {
	s := newTestServer(t)
	result, _, err := s.handleFitCurve(context.Background(), nil, FitCurveInput{DataInput: DataInput{Points: linePoints()}})
	if err != nil {
		t.Fatalf("handleFitCurve returned error: %v", err)
	}
	text := resultText(t, result)
	if strings.HasPrefix(text, "{") {
		t.Errorf("default output should be TOON, got JSON:\n%s", text)
	}
	if !strings.Contains(text, "equation") {
		t.Errorf("TOON output should contain the equation field:\n%s", text)
	}
}

func TestParsePrompt(t *testing.T) {
	valid := "---\ndescription: Fit things\narguments:\n  - name: data\n    required: true\ntools: [fit_curve]\n---\nCall `fit_curve` on {{data}}.\n"

	p, err := parsePrompt("fit", []byte(valid), toolNames)
	if err != nil {
		t.Fatalf("parsePrompt() error = %v", err)
	}
	if p.name != "fit" || p.Description != "Fit things" {
		t.Errorf("prompt = %+v", p)
	}
	if p.body != "Call `fit_curve` on {{data}}.\n" {
		t.Errorf("body = %q", p.body)
	}

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"no frontmatter", "Just a body", "missing frontmatter"},
		{"unterminated", "---\ndescription: x\nBody", "missing frontmatter"},
		{"unknown field", "---\ndescription: x\ntitle: y\n---\nBody\n", "frontmatter"},
		{"empty description", "---\ntools: []\n---\nBody\n", "description is empty"},
		{"empty body", "---\ndescription: x\n---\n", "body is empty"},
		{"unnamed argument", "---\ndescription: x\narguments:\n  - required: true\n---\nBody\n", "without a name"},
		{"duplicate argument", "---\ndescription: x\narguments:\n  - name: a\n  - name: a\n---\n{{a}}\n", "declared twice"},
		{"required with default", "---\ndescription: x\narguments:\n  - name: a\n    required: true\n    default: b\n---\n{{a}}\n", "cannot have a default"},
		{"undeclared placeholder", "---\ndescription: x\n---\nUse {{path}}\n", `undeclared argument "path"`},
		{"unused argument", "---\ndescription: x\narguments:\n  - name: a\n---\nBody\n", `"a" is never used`},
		{"unknown tool", "---\ndescription: x\ntools: [plot]\n---\nCall `plot`\n", `unknown tool "plot"`},
		{"unmentioned tool", "---\ndescription: x\ntools: [fit_batch]\n---\nBody\n", "never mentioned"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parsePrompt("p", []byte(tt.content), toolNames)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("parsePrompt() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestPromptRender(t *testing.T) {
	p, err := parsePrompt("plot", []byte("---\ndescription: x\narguments:\n  - name: data\n    required: true\n  - name: mode\n    default: optimal\n---\nFit {{data}} with {{ mode }}.\n"), toolNames)
	if err != nil {
		t.Fatalf("parsePrompt() error = %v", err)
	}

	got, err := p.render(map[string]string{"data": "1,2 2,4"})
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}
	if got != "Fit 1,2 2,4 with optimal.\n" {
		t.Errorf("render() = %q", got)
	}

	got, _ = p.render(map[string]string{"data": "run.csv", "mode": "exp"})
	if got != "Fit run.csv with exp.\n" {
		t.Errorf("render() with mode = %q", got)
	}

	if _, err := p.render(map[string]string{"mode": "exp"}); err == nil {
		t.Error("render() without a required argument should fail")
	}
}

// TestPromptFiles verifies every embedded prompt passes validation and
// renders with only its required arguments filled in.
func TestPromptFiles(t *testing.T) {
	prompts, err := loadPrompts(promptFiles, toolNames)
	if err != nil {
		t.Fatalf("loadPrompts() error = %v", err)
	}
	if len(prompts) != 3 {
		t.Fatalf("loaded %d prompts, want 3", len(prompts))
	}

	for _, p := range prompts {
		t.Run(p.name, func(t *testing.T) {
			args := map[string]string{}
			for _, a := range p.Arguments {
				if a.Required {
					args[a.Name] = "0,1 1,3 2,5"
				}
			}
			req := &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: p.name, Arguments: args}}
			result, err := p.handler()(context.Background(), req)
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if len(result.Messages) != 1 || result.Messages[0].Role != "user" {
				t.Fatalf("unexpected messages: %+v", result.Messages)
			}
			text := result.Messages[0].Content.(*mcp.TextContent).Text
			if placeholder.MatchString(text) {
				t.Errorf("rendered prompt still has placeholders:\n%s", text)
			}

			mp := p.mcpPrompt()
			if mp.Name != p.name || len(mp.Arguments) != len(p.Arguments) {
				t.Errorf("mcpPrompt() = %+v", mp)
			}
		})
	}
}

func TestGenerateManifest(t *testing.T) {
	data, err := GenerateManifest("1.2.3")
	if err != nil {
		t.Fatalf("GenerateManifest() error = %v", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("invalid manifest json: %v", err)
	}
	if m.Name != "io.github.panbanda/fitpaper" {
		t.Errorf("Name = %q", m.Name)
	}
	if m.Version != "1.2.3" {
		t.Errorf("Version = %q", m.Version)
	}
	if len(m.Packages) != 1 || m.Packages[0].Identifier != "ghcr.io/panbanda/fitpaper:1.2.3" {
		t.Errorf("Packages = %+v", m.Packages)
	}

	for _, tool := range toolNames {
		if !strings.Contains(m.Description, tool) {
			t.Errorf("Description %q should list %s", m.Description, tool)
		}
	}
	args := m.Packages[0].PackageArguments
	if len(args) != 2 || args[0].Name != "--config" || args[0].IsRequired || args[1].Value != "mcp" {
		t.Errorf("PackageArguments = %+v, want optional --config then mcp", args)
	}

	for _, v := range []string{"", "dev"} {
		data, _ = GenerateManifest(v)
		if !strings.Contains(string(data), `"version": "0.0.0"`) {
			t.Errorf("version %q should default to 0.0.0:\n%s", v, data)
		}
	}
	data, _ = GenerateManifest("v2.0.1")
	if !strings.Contains(string(data), `"identifier": "ghcr.io/panbanda/fitpaper:2.0.1"`) {
		t.Errorf("v prefix should be dropped from the image tag:\n%s", data)
	}
}
