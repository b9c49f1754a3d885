package mcptools

import (
	"context"
	"strings"

	"github.com/webpilot-ai/agentmcp/pkg/mcpmgr"
)

// FilesystemServerName is the registry name the filesystem facade connects
// under.
const FilesystemServerName = "filesystem"

// Filesystem wraps the official @modelcontextprotocol/server-filesystem
// server, sandboxed to a single workspace root.
type Filesystem struct {
	invoker Invoker
	opts    Options
	cfg     mcpmgr.ServerConfig
}

// NewFilesystem builds a filesystem facade on top of invoker.
func NewFilesystem(invoker Invoker, opts *Options) *Filesystem {
	normalized := opts.normalized()
	return &Filesystem{
		invoker: invoker,
		opts:    normalized,
		cfg: mcpmgr.ServerConfig{
			Name:    FilesystemServerName,
			Command: normalized.Command,
			Args: []string{
				"-y",
				"@modelcontextprotocol/server-filesystem",
				normalized.WorkspaceRoot,
			},
			Capabilities: map[string]bool{
				mcpmgr.CapabilityTools:     true,
				mcpmgr.CapabilityResources: true,
			},
		},
	}
}

// ToolDefinitions lists the operations this facade exposes.
func (f *Filesystem) ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{Name: "filesystem.read_file", Args: "path", Description: "Read file content"},
		{Name: "filesystem.list_files", Args: "path", Description: "List directory contents"},
		{Name: "filesystem.write_file", Args: "path, content", Description: "Write content to file"},
		{Name: "filesystem.create_directory", Args: "path", Description: "Create directory"},
	}
}

// EnsureConnected connects the filesystem server if it is not already live.
func (f *Filesystem) EnsureConnected(ctx context.Context) error {
	return ensureConnected(ctx, f.invoker, f.cfg, f.opts.ConnectAttempts)
}

func (f *Filesystem) call(ctx context.Context, tool string, args map[string]any) (mcpmgr.ToolCallResult, error) {
	if err := f.EnsureConnected(ctx); err != nil {
		return mcpmgr.ToolCallResult{}, err
	}
	f.opts.Logger.Debug("filesystem tool call", "tool", tool, "args", args)
	res := f.invoker.CallTool(ctx, f.cfg.Name, tool, args)
	if !res.Success {
		return res, resultErr(f.cfg.Name, tool, res)
	}
	return res, nil
}

// ReadFile returns the content of path, relative to the workspace root.
func (f *Filesystem) ReadFile(ctx context.Context, path string) (string, error) {
	res, err := f.call(ctx, "read_file", map[string]any{"path": path})
	if err != nil {
		return "", err
	}
	return res.Text(), nil
}

// WriteFile writes content to path inside the workspace.
func (f *Filesystem) WriteFile(ctx context.Context, path, content string) error {
	_, err := f.call(ctx, "write_file", map[string]any{"path": path, "content": content})
	return err
}

// ListFiles lists the entries under path. An empty path lists the workspace
// root. Entries come back one per line from the server.
func (f *Filesystem) ListFiles(ctx context.Context, path string) ([]string, error) {
	if path == "" {
		path = "."
	}
	res, err := f.call(ctx, "list_directory", map[string]any{"path": path})
	if err != nil {
		return nil, err
	}
	var entries []string
	for _, line := range strings.Split(res.Text(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			entries = append(entries, line)
		}
	}
	return entries, nil
}

// CreateDirectory creates path inside the workspace, including parents.
func (f *Filesystem) CreateDirectory(ctx context.Context, path string) error {
	_, err := f.call(ctx, "create_directory", map[string]any{"path": path})
	return err
}
