package mcpmgr

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Capability flags a server may declare in ServerConfig.Capabilities.
const (
	CapabilityTools     = "tools"
	CapabilityResources = "resources"
	CapabilityPrompts   = "prompts"
)

// ServerConfig describes one MCP server launched via stdio. The Name is the
// server's identity everywhere in the Manager API; two configs with the same
// Name address the same connection. Treat values as immutable once passed to
// Connect.
type ServerConfig struct {
	Name         string            `json:"name" yaml:"name" validate:"required"`
	Command      string            `json:"command" yaml:"command" validate:"required"`
	Args         []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env          map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Capabilities map[string]bool   `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
}

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate reports whether the config can be used to spawn a server. A
// missing name or command is a caller error and wraps ErrInvalidConfig.
func (c ServerConfig) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("mcpmgr: %w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// HasCapability reports whether the server declared the named capability.
func (c ServerConfig) HasCapability(name string) bool {
	return c.Capabilities[name]
}

// command converts the config into process-spawn parameters. The child
// inherits the parent environment with the config's entries appended.
func (c ServerConfig) command() *exec.Cmd {
	cmd := exec.Command(c.Command, c.Args...)
	if len(c.Env) > 0 {
		env := os.Environ()
		for k, v := range c.Env {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
		cmd.Env = env
	}
	return cmd
}

// stdioTransport is the default TransportFunc: it spawns the configured
// command and speaks MCP over its stdio.
func stdioTransport(cfg ServerConfig) (mcp.Transport, error) {
	return &mcp.CommandTransport{Command: cfg.command()}, nil
}
