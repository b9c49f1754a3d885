// Package mcpconfig loads MCP server definitions from the conventional
// mcpServers config file in JSON or YAML form and converts them into
// mcpmgr.ServerConfig values.
package mcpconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/webpilot-ai/agentmcp/pkg/mcpmgr"
)

// Server is one entry under the "mcpServers" key.
type Server struct {
	Command      string            `json:"command" yaml:"command"`
	Args         []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env          map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Capabilities map[string]bool   `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
}

// File is the top-level config document, keyed by server name.
type File struct {
	MCPServers map[string]Server `json:"mcpServers" yaml:"mcpServers"`
}

// Load reads and parses the config file at path. The format follows the
// extension: .json parses as JSON, .yaml and .yml as YAML; anything else
// tries JSON first and falls back to YAML.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mcpconfig: read %s: %w", path, err)
	}
	file, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Parse decodes data using the format implied by name's extension.
func Parse(data []byte, name string) (*File, error) {
	var file File
	switch {
	case strings.HasSuffix(name, ".json"):
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("mcpconfig: parse %s: %w", name, err)
		}
	case strings.HasSuffix(name, ".yaml"), strings.HasSuffix(name, ".yml"):
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("mcpconfig: parse %s: %w", name, err)
		}
	default:
		jsonErr := json.Unmarshal(data, &file)
		if jsonErr == nil {
			break
		}
		if yamlErr := yaml.Unmarshal(data, &file); yamlErr != nil {
			return nil, fmt.Errorf("mcpconfig: parse %s: JSON: %v; YAML: %v", name, jsonErr, yamlErr)
		}
	}
	if file.MCPServers == nil {
		file.MCPServers = make(map[string]Server)
	}
	return &file, nil
}

// Validate checks every server entry for the fields a stdio launch needs.
func (f *File) Validate() error {
	for name, server := range f.MCPServers {
		if name == "" {
			return fmt.Errorf("mcpconfig: server with empty name")
		}
		if server.Command == "" {
			return fmt.Errorf("mcpconfig: server %q is missing a command", name)
		}
	}
	return nil
}

// ServerConfigs converts the file into manager configs, sorted by name so
// callers connect in a stable order.
func (f *File) ServerConfigs() []mcpmgr.ServerConfig {
	configs := make([]mcpmgr.ServerConfig, 0, len(f.MCPServers))
	for name, server := range f.MCPServers {
		configs = append(configs, mcpmgr.ServerConfig{
			Name:         name,
			Command:      server.Command,
			Args:         server.Args,
			Env:          server.Env,
			Capabilities: server.Capabilities,
		})
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })
	return configs
}
