package mcpserver

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.md
var promptFiles embed.FS

// placeholder matches {{name}} in a prompt body.
var placeholder = regexp.MustCompile(`\{\{\s*([a-z][a-z0-9_]*)\s*\}\}`)

var errNoFrontmatter = errors.New("missing frontmatter")

// promptArg is one argument a client fills in before the prompt is sent.
type promptArg struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
	Default     string `yaml:"default"`
}

// promptFrontmatter is the YAML header of a prompt file.
type promptFrontmatter struct {
	Description string      `yaml:"description"`
	Arguments   []promptArg `yaml:"arguments"`
	Tools       []string    `yaml:"tools"`
}

// prompt is a parsed and validated prompt file.
type prompt struct {
	name string
	promptFrontmatter
	body string
}

// loadPrompts parses every markdown file in the prompts directory of fsys.
// A prompt may only call tools in tools and must mention each one it lists.
func loadPrompts(fsys fs.FS, tools []string) ([]prompt, error) {
	entries, err := fs.ReadDir(fsys, "prompts")
	if err != nil {
		return nil, err
	}

	var prompts []prompt
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".md" {
			continue
		}
		content, err := fs.ReadFile(fsys, path.Join("prompts", entry.Name()))
		if err != nil {
			return nil, err
		}
		p, err := parsePrompt(strings.TrimSuffix(entry.Name(), ".md"), content, tools)
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", entry.Name(), err)
		}
		prompts = append(prompts, p)
	}
	return prompts, nil
}

// parseFrontmatter splits content into its YAML header and body.
func parseFrontmatter(content []byte) (promptFrontmatter, string, error) {
	var fm promptFrontmatter
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return fm, "", errNoFrontmatter
	}
	rest := content[4:]
	end := bytes.Index(rest, []byte("\n---\n"))
	if end == -1 {
		return fm, "", errNoFrontmatter
	}

	dec := yaml.NewDecoder(bytes.NewReader(rest[:end]))
	dec.KnownFields(true)
	if err := dec.Decode(&fm); err != nil {
		return fm, "", fmt.Errorf("frontmatter: %w", err)
	}
	return fm, strings.TrimPrefix(string(rest[end+5:]), "\n"), nil
}

func parsePrompt(name string, content []byte, tools []string) (prompt, error) {
	fm, body, err := parseFrontmatter(content)
	if err != nil {
		return prompt{}, err
	}
	if strings.TrimSpace(fm.Description) == "" {
		return prompt{}, errors.New("description is empty")
	}
	if strings.TrimSpace(body) == "" {
		return prompt{}, errors.New("body is empty")
	}

	declared := make(map[string]bool, len(fm.Arguments))
	for _, arg := range fm.Arguments {
		switch {
		case arg.Name == "":
			return prompt{}, errors.New("argument without a name")
		case declared[arg.Name]:
			return prompt{}, fmt.Errorf("argument %q declared twice", arg.Name)
		case arg.Required && arg.Default != "":
			return prompt{}, fmt.Errorf("required argument %q cannot have a default", arg.Name)
		}
		declared[arg.Name] = true
	}

	used := make(map[string]bool)
	for _, m := range placeholder.FindAllStringSubmatch(body, -1) {
		if !declared[m[1]] {
			return prompt{}, fmt.Errorf("body uses undeclared argument %q", m[1])
		}
		used[m[1]] = true
	}
	for _, arg := range fm.Arguments {
		if !used[arg.Name] {
			return prompt{}, fmt.Errorf("argument %q is never used in the body", arg.Name)
		}
	}

	for _, tool := range fm.Tools {
		if !slices.Contains(tools, tool) {
			return prompt{}, fmt.Errorf("unknown tool %q", tool)
		}
		if !strings.Contains(body, "`"+tool+"`") {
			return prompt{}, fmt.Errorf("tool %q is listed but never mentioned", tool)
		}
	}

	return prompt{name: name, promptFrontmatter: fm, body: body}, nil
}

// render fills the body placeholders from args, falling back to defaults.
func (p prompt) render(args map[string]string) (string, error) {
	values := make(map[string]string, len(p.Arguments))
	for _, arg := range p.Arguments {
		v := strings.TrimSpace(args[arg.Name])
		if v == "" {
			if arg.Required {
				return "", fmt.Errorf("prompt %s: missing required argument %q", p.name, arg.Name)
			}
			v = arg.Default
		}
		values[arg.Name] = v
	}
	return placeholder.ReplaceAllStringFunc(p.body, func(m string) string {
		return values[placeholder.FindStringSubmatch(m)[1]]
	}), nil
}

func (p prompt) mcpPrompt() *mcp.Prompt {
	args := make([]*mcp.PromptArgument, len(p.Arguments))
	for i, a := range p.Arguments {
		args[i] = &mcp.PromptArgument{Name: a.Name, Description: a.Description, Required: a.Required}
	}
	return &mcp.Prompt{Name: p.name, Description: p.Description, Arguments: args}
}

func (p prompt) handler() mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		var args map[string]string
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		text, err := p.render(args)
		if err != nil {
			return nil, err
		}
		return &mcp.GetPromptResult{
			Description: p.Description,
			Messages: []*mcp.PromptMessage{
				{Role: "user", Content: &mcp.TextContent{Text: text}},
			},
		}, nil
	}
}

// registerPrompts adds the embedded prompts to the server.
func (s *Server) registerPrompts() error {
	prompts, err := loadPrompts(promptFiles, toolNames)
	if err != nil {
		return err
	}
	for _, p := range prompts {
		s.server.AddPrompt(p.mcpPrompt(), p.handler())
	}
	return nil
}
