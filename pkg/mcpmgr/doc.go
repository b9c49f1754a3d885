// Package mcpmgr manages connections to multiple Model Context Protocol (MCP)
// tool servers from a single Go process. Each server is an independently
// spawned subprocess reached over stdio; mcpmgr owns the spawn, the
// initialization handshake, and the keep-alive lifetime of every connection,
// and exposes request helpers for querying tool catalogs and invoking tools.
//
// # Core entry points
//
//   - Manager is the long-lived orchestration type. Construct it with
//     NewManager, then call Connect / Disconnect per server, and ListTools /
//     CallTool to talk to connected servers.
//   - ServerConfig declares how one MCP server is launched: name, command,
//     arguments, environment, and declared capabilities. It is immutable once
//     handed to Connect.
//   - ManagerOptions tune the client identity, the connect and shutdown
//     timeouts, the logger, and the transport seam used by tests.
//
// Connect is idempotent per server name: reconnecting an already-connected
// name is a no-op success and never spawns a second process. Disconnecting an
// unknown name is an error, so callers can tell "nothing to clean up" from
// "cleanup succeeded". CallTool never returns an error value; transport
// failures and tool-reported failures both surface inside ToolCallResult so
// call sites present errors uniformly.
//
// ListTools and CallTool may be issued concurrently against the same
// connection only if the underlying server tolerates concurrent requests;
// mcpmgr does not serialize them.
package mcpmgr
