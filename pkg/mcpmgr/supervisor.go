package mcpmgr

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// supervisor owns one connection for its whole lifetime: it spawns the server
// process, performs the initialization handshake, and keeps the session alive
// until told to stop. Exactly one supervisor goroutine exists per live
// connection.
//
// Rendezvous with the caller happens through the one-shot ready channel: it
// is closed exactly once, after either session or err has been set, so a
// waiting Connect is never left blocked by a failed handshake.
type supervisor struct {
	cfg  ServerConfig
	impl *mcp.Implementation
	dial TransportFunc
	log  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	stop     chan struct{}
	stopOnce sync.Once
	ready    chan struct{}
	done     chan struct{}

	session *mcp.ClientSession
	err     error
}

func newSupervisor(cfg ServerConfig, impl *mcp.Implementation, dial TransportFunc, log *slog.Logger) *supervisor {
	ctx, cancel := context.WithCancel(context.Background())
	return &supervisor{
		cfg:    cfg,
		impl:   impl,
		dial:   dial,
		log:    log.With("server", cfg.Name, "conn", uuid.NewString()),
		ctx:    ctx,
		cancel: cancel,
		stop:   make(chan struct{}),
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (s *supervisor) start() {
	go s.run()
}

func (s *supervisor) run() {
	defer close(s.done)

	transport, err := s.dial(s.cfg)
	if err != nil {
		s.fail(fmt.Errorf("build transport: %w", err))
		return
	}
	client := mcp.NewClient(s.impl, nil)
	session, err := client.Connect(s.ctx, transport, nil)
	if err != nil {
		s.fail(fmt.Errorf("handshake: %w", err))
		return
	}
	s.session = session
	close(s.ready)
	s.log.Debug("session ready")

	sessionDone := make(chan struct{})
	go func() {
		_ = session.Wait()
		close(sessionDone)
	}()

	select {
	case <-s.stop:
		if err := session.Close(); err != nil {
			s.log.Warn("session close", "error", err)
		}
	case <-sessionDone:
		// The server process died on its own. Closing done wakes the
		// manager's monitor, which clears the registry entry.
		s.log.Warn("session ended unexpectedly")
	case <-s.ctx.Done():
		_ = session.Close()
	}
}

func (s *supervisor) fail(err error) {
	s.err = err
	close(s.ready)
	s.log.Warn("server loop failed", "error", err)
}

// awaitReady blocks until the handshake outcome is known or ctx expires.
func (s *supervisor) awaitReady(ctx context.Context) (*mcp.ClientSession, error) {
	select {
	case <-s.ready:
		if s.err != nil {
			return nil, s.err
		}
		return s.session, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// signalStop asks the supervisor to shut the session down. Safe to call more
// than once.
func (s *supervisor) signalStop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// forceStop cancels the supervisor's context, aborting an in-flight handshake
// or keep-alive wait.
func (s *supervisor) forceStop() {
	s.cancel()
}

// abort stops a supervisor whose session was never registered, so a timed-out
// or failed connect does not leak the process.
func (s *supervisor) abort() {
	s.signalStop()
	s.cancel()
}
