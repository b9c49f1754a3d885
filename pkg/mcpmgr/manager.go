package mcpmgr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Manager orchestrates connections to multiple MCP servers, keyed by server
// name. All connect/disconnect activity for a given name is serialized by a
// per-name lock; request methods read the registry without it.
type Manager struct {
	mu    sync.RWMutex
	conns map[string]*connection
	locks map[string]*sync.Mutex

	opts ManagerOptions
	log  *slog.Logger
}

// connection is the registry value for one live server. It is immutable once
// stored; the supervisor owns the session's lifetime and the Manager only
// reads it to issue requests.
type connection struct {
	config  ServerConfig
	session *mcp.ClientSession
	sup     *supervisor
}

// NewManager constructs a Manager. Pass nil options for defaults.
func NewManager(opts *ManagerOptions) *Manager {
	options := opts.normalized()
	return &Manager{
		conns: make(map[string]*connection),
		locks: make(map[string]*sync.Mutex),
		opts:  options,
		log:   options.Logger.With("component", "mcpmgr"),
	}
}

// lockFor returns the mutex serializing connect/disconnect for name, creating
// it on first use. Locks are never evicted; server names are a small,
// caller-controlled set.
func (m *Manager) lockFor(name string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lk, ok := m.locks[name]
	if !ok {
		lk = &sync.Mutex{}
		m.locks[name] = lk
	}
	return lk
}

func (m *Manager) lookup(name string) (*connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conn, ok := m.conns[name]
	return conn, ok
}

// Connect spawns the configured server, performs the handshake, and registers
// the connection. Connecting a name that is already connected is a no-op
// success: at most one live process exists per server name. On failure
// nothing is registered and a *ConnectError wraps the cause.
func (m *Manager) Connect(ctx context.Context, cfg ServerConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	lk := m.lockFor(cfg.Name)
	lk.Lock()
	defer lk.Unlock()

	if _, ok := m.lookup(cfg.Name); ok {
		m.log.Info("already connected", "server", cfg.Name)
		return nil
	}

	m.log.Info("connecting", "server", cfg.Name,
		"command", cfg.Command+" "+strings.Join(cfg.Args, " "))

	sup := newSupervisor(cfg, &mcp.Implementation{
		Name:    m.opts.ClientName,
		Version: m.opts.ClientVersion,
	}, m.opts.Transport, m.log)
	sup.start()

	waitCtx, cancel := context.WithTimeout(ctx, m.opts.ConnectTimeout)
	defer cancel()
	session, err := sup.awaitReady(waitCtx)
	if err != nil {
		sup.abort()
		return &ConnectError{Server: cfg.Name, Err: err}
	}

	m.mu.Lock()
	m.conns[cfg.Name] = &connection{config: cfg, session: session, sup: sup}
	m.mu.Unlock()

	// The monitor starts only after the registry insert, so a session that
	// dies immediately after the handshake is still reaped rather than
	// lingering as a dead entry.
	go m.monitorSession(sup)

	m.log.Info("connected", "server", cfg.Name)
	return nil
}

// monitorSession reaps the registry entry once the supervisor exits, whatever
// the reason. Entries already removed by Disconnect are left alone.
func (m *Manager) monitorSession(sup *supervisor) {
	<-sup.done
	m.reap(sup)
}

// Disconnect stops the named server's supervisor and removes it from the
// registry. Disconnecting a name with no live connection is an error wrapping
// ErrNotConnected. A supervisor that ignores the stop signal is forcibly
// cancelled after ShutdownTimeout; the registry entry is removed either way,
// so a stuck shutdown never makes the name unconnectable. Cancelling ctx
// shortens the graceful window: the supervisor is forced immediately and
// Disconnect still returns nil with the entry removed.
func (m *Manager) Disconnect(ctx context.Context, name string) error {
	lk := m.lockFor(name)
	lk.Lock()
	defer lk.Unlock()

	conn, ok := m.lookup(name)
	if !ok {
		return fmt.Errorf("mcpmgr: disconnect %q: %w", name, ErrNotConnected)
	}
	m.log.Info("disconnecting", "server", name)

	defer func() {
		m.mu.Lock()
		if cur, ok := m.conns[name]; ok && cur == conn {
			delete(m.conns, name)
		}
		m.mu.Unlock()
	}()

	conn.sup.signalStop()
	timer := time.NewTimer(m.opts.ShutdownTimeout)
	defer timer.Stop()
	select {
	case <-conn.sup.done:
		m.log.Info("disconnected", "server", name)
		return nil
	case <-ctx.Done():
	case <-timer.C:
	}

	m.log.Warn("shutdown timed out, forcing cancellation",
		"server", name, "timeout", m.opts.ShutdownTimeout)
	conn.sup.forceStop()
	grace := time.NewTimer(time.Second)
	defer grace.Stop()
	select {
	case <-conn.sup.done:
	case <-grace.C:
		m.log.Warn("supervisor did not acknowledge cancellation", "server", name)
	}
	return nil
}

// DisconnectAll disconnects every registered server, best-effort: one
// server's failure does not prevent attempting the others. Servers that
// disappear concurrently are not failures.
func (m *Manager) DisconnectAll(ctx context.Context) error {
	var errs []error
	for _, name := range m.ConnectedServers() {
		if err := m.Disconnect(ctx, name); err != nil && !errors.Is(err, ErrNotConnected) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ListTools queries the named server's tool catalog. Returns an error
// wrapping ErrNotConnected when the server has no live connection.
func (m *Manager) ListTools(ctx context.Context, name string) ([]ToolDescriptor, error) {
	conn, ok := m.lookup(name)
	if !ok {
		return nil, fmt.Errorf("mcpmgr: list tools %q: %w", name, ErrNotConnected)
	}
	res, err := conn.session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpmgr: list tools %q: %w", name, err)
	}
	tools := make([]ToolDescriptor, 0, len(res.Tools))
	for _, tool := range res.Tools {
		tools = append(tools, ToolDescriptor{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		})
	}
	m.log.Debug("listed tools", "server", name, "count", len(tools))
	return tools, nil
}

// CallTool invokes a tool on the named server and normalizes the response.
// It never returns an error value: unknown servers, transport failures, and
// tool-reported failures all surface as a failed ToolCallResult, leaving
// retry/abort policy to the caller.
func (m *Manager) CallTool(ctx context.Context, name, tool string, args map[string]any) ToolCallResult {
	conn, ok := m.lookup(name)
	if !ok {
		return toolCallFailure("Server %s not connected", name)
	}
	if args == nil {
		args = map[string]any{}
	}
	m.log.Info("calling tool", "server", name, "tool", tool)
	res, err := conn.session.CallTool(ctx, &mcp.CallToolParams{Name: tool, Arguments: args})
	if err != nil {
		m.log.Error("tool call failed", "server", name, "tool", tool, "error", err)
		return toolCallFailure("%v", err)
	}
	out := normalizeResult(res)
	if out.IsError {
		m.log.Error("tool reported failure", "server", name, "tool", tool)
	} else {
		m.log.Debug("tool call completed", "server", name, "tool", tool)
	}
	return out
}

// IsConnected reports whether the named server has a live connection.
func (m *Manager) IsConnected(name string) bool {
	_, ok := m.lookup(name)
	return ok
}

// ConnectedServers returns the names of all live connections, sorted.
func (m *Manager) ConnectedServers() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.conns))
	for name := range m.conns {
		names = append(names, name)
	}
	m.mu.RUnlock()
	sort.Strings(names)
	return names
}

// reap removes a connection whose session died without a disconnect. The
// identity check keeps it from clobbering a newer connection that reused the
// name.
func (m *Manager) reap(sup *supervisor) {
	name := sup.cfg.Name
	m.mu.Lock()
	conn, ok := m.conns[name]
	if ok && conn.sup == sup {
		delete(m.conns, name)
		ok = true
	} else {
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	select {
	case <-sup.stop:
		// Stop was requested; the supervisor exiting is the expected outcome.
		m.log.Debug("connection reaped", "server", name)
	default:
		m.log.Warn("connection lost", "server", name)
	}
}
