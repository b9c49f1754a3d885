// Package mcptools provides typed facades over well-known MCP servers.
// Each facade owns the server's launch configuration, connects lazily
// through an Invoker (usually a *mcpmgr.Manager), and turns raw tool-call
// results into plain Go values.
package mcptools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/cenkalti/backoff/v5"

	"github.com/webpilot-ai/agentmcp/pkg/mcpmgr"
)

// Invoker is the subset of mcpmgr.Manager the facades need.
type Invoker interface {
	Connect(ctx context.Context, cfg mcpmgr.ServerConfig) error
	IsConnected(name string) bool
	CallTool(ctx context.Context, server, tool string, args map[string]any) mcpmgr.ToolCallResult
}

// ToolDefinition is a facade-level tool summary suitable for handing to an
// agent as part of its tool catalog.
type ToolDefinition struct {
	Name        string `json:"name"`
	Args        string `json:"args"`
	Description string `json:"description"`
}

// Options tunes a facade. The zero value works.
type Options struct {
	// WorkspaceRoot is the directory the filesystem server is sandboxed to.
	// Defaults to $MCP_WORKSPACE_ROOT, then "workspace".
	WorkspaceRoot string

	// Command overrides the npx launcher, mainly for tests.
	Command string

	// ConnectAttempts bounds the connect retries performed by
	// EnsureConnected. Defaults to 3.
	ConnectAttempts uint

	Logger *slog.Logger
}

func (o *Options) normalized() Options {
	var opts Options
	if o != nil {
		opts = *o
	}
	if opts.WorkspaceRoot == "" {
		opts.WorkspaceRoot = os.Getenv("MCP_WORKSPACE_ROOT")
	}
	if opts.WorkspaceRoot == "" {
		opts.WorkspaceRoot = "workspace"
	}
	if opts.Command == "" {
		opts.Command = npxCommand()
	}
	if opts.ConnectAttempts == 0 {
		opts.ConnectAttempts = 3
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}

// npxCommand picks the npm launcher for the host platform.
func npxCommand() string {
	if runtime.GOOS == "windows" {
		return "npx.cmd"
	}
	return "npx"
}

// ensureConnected connects cfg through inv unless it is already live,
// retrying transient failures with exponential backoff. Invalid configs are
// not retried.
func ensureConnected(ctx context.Context, inv Invoker, cfg mcpmgr.ServerConfig, attempts uint) error {
	if inv.IsConnected(cfg.Name) {
		return nil
	}
	operation := func() (struct{}, error) {
		err := inv.Connect(ctx, cfg)
		if errors.Is(err, mcpmgr.ErrInvalidConfig) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}
	if _, err := backoff.Retry(ctx, operation, backoff.WithMaxTries(attempts)); err != nil {
		return fmt.Errorf("mcptools: connect %s: %w", cfg.Name, err)
	}
	return nil
}

// resultErr converts a failed tool-call result into an error.
func resultErr(server, tool string, res mcpmgr.ToolCallResult) error {
	msg := res.Error
	if msg == "" {
		msg = res.Text()
	}
	if msg == "" {
		msg = "tool reported failure"
	}
	return fmt.Errorf("mcptools: %s/%s: %s", server, tool, msg)
}
