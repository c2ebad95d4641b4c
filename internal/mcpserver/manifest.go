package mcpserver

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
	manifestName   = "io.github.panbanda/fitpaper"
	imageRepo      = "ghcr.io/panbanda/fitpaper"
)

// Manifest is the server.json document MCP registries read.
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
}

// Repository points at the source.
type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package describes how a registry client starts the server.
type Package struct {
	RegistryType     string     `json:"registryType"`
	Identifier       string     `json:"identifier"`
	RuntimeHint      string     `json:"runtimeHint,omitempty"`
	PackageArguments []Argument `json:"packageArguments,omitempty"`
	Transport        Transport  `json:"transport"`
}

// Argument is one command-line argument passed to the image entrypoint.
type Argument struct {
	Type        string `json:"type"`
	Name        string `json:"name,omitempty"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
	Format      string `json:"format,omitempty"`
	IsRequired  bool   `json:"isRequired,omitempty"`
}

// Transport describes the communication method.
type Transport struct {
	Type string `json:"type"`
}

// GenerateManifest builds server.json for version. The description lists
// the registered tools so registry listings show what the server does.
// The optional --config argument lets clients mount a fitpaper config
// file with paper, axis and cache settings.
func GenerateManifest(version string) ([]byte, error) {
	version = strings.TrimPrefix(version, "v")
	if version == "" || version == "dev" {
		version = "0.0.0"
	}

	manifest := Manifest{
		Schema:      manifestSchema,
		Name:        manifestName,
		Description: fmt.Sprintf("Curve fitting and graph paper scales (%s)", strings.Join(toolNames, ", ")),
		Version:     version,
		Repository: &Repository{
			URL:    "https://github.com/panbanda/fitpaper",
			Source: "github",
		},
		Packages: []Package{
			{
				RegistryType: "oci",
				Identifier:   imageRepo + ":" + version,
				RuntimeHint:  "docker",
				PackageArguments: []Argument{
					{
						Type:        "named",
						Name:        "--config",
						Description: "fitpaper config file (TOML, YAML or JSON)",
						Format:      "filepath",
					},
					{Type: "positional", Value: "mcp"},
				},
				Transport: Transport{Type: "stdio"},
			},
		},
	}
	return json.MarshalIndent(manifest, "", "  ")
}
