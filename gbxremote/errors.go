package gbxremote

import (
	"github.com/pkg/errors"
)

// Error taxonomy for the dispatch engine (spec §7). Transport errors wrap
// their root cause with github.com/pkg/errors so callers can unwrap to the
// underlying net/socket failure while logs keep an annotated message.

// ErrNotConnected is returned by call() when no live connection exists and
// no reconnection was requested or possible.
var ErrNotConnected = errors.New("gbxremote: not connected to remote server")

// ErrTimeout is returned by call() when resultTimeout elapses with no
// result delivered for the request's handle.
var ErrTimeout = errors.New("gbxremote: timed out waiting for result")

// ErrInvalidHeader is returned by connect() when the handshake header is
// not in the configured allow-list.
type ErrInvalidHeader struct {
	Header string
}

func (e *ErrInvalidHeader) Error() string {
	return "gbxremote: invalid handshake header: " + e.Header
}

// ErrAuthFailed is returned by authenticate() when Authenticate returns
// a fault or anything other than boolean true (as opposed to a transport
// error reaching the call).
var ErrAuthFailed = errors.New("gbxremote: authentication failed")

// wrapTransport annotates a transport-layer error (DNS, dial, handshake,
// broken pipe) with context while preserving the original cause for
// errors.Cause / errors.Unwrap.
func wrapTransport(err error, context string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, context)
}
