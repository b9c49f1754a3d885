package mcpmgr

import (
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TransportFunc builds the transport for one server from its config. The
// default spawns the configured command and speaks MCP over its stdio;
// embedders and tests substitute in-memory or instrumented transports here.
type TransportFunc func(cfg ServerConfig) (mcp.Transport, error)

// ManagerOptions configures a Manager instance.
type ManagerOptions struct {
	// ClientName is the client name advertised during the MCP handshake.
	ClientName string
	// ClientVersion is the semantic version reported to servers.
	ClientVersion string
	// ConnectTimeout bounds how long Connect waits for spawn plus handshake.
	ConnectTimeout time.Duration
	// ShutdownTimeout bounds how long Disconnect waits for a supervisor to
	// stop before forcing cancellation.
	ShutdownTimeout time.Duration
	// Logger receives structured diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
	// Transport overrides how server transports are built.
	Transport TransportFunc
}

func (o *ManagerOptions) normalized() ManagerOptions {
	var opts ManagerOptions
	if o != nil {
		opts = *o
	}
	if opts.ClientName == "" {
		opts.ClientName = "agentmcp"
	}
	if opts.ClientVersion == "" {
		opts.ClientVersion = "1.0.0"
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 30 * time.Second
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Transport == nil {
		opts.Transport = stdioTransport
	}
	return opts
}
