package mcpmgr

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig marks a malformed ServerConfig. Connect fails fast and
// never retries these.
var ErrInvalidConfig = errors.New("invalid server config")

// ErrNotConnected marks an operation against a server name with no live
// connection.
var ErrNotConnected = errors.New("server not connected")

// ConnectError reports a spawn or handshake failure during Connect. Nothing
// is registered when it is returned; retrying is the caller's decision.
type ConnectError struct {
	Server string
	Err    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("mcpmgr: connect %q: %v", e.Server, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }
