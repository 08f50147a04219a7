package gbxremote

import (
	"encoding/hex"
	"sync"

	"github.com/armon/circbuf"
)

// wireTrace keeps a bounded, overwrite-oldest record of recent wire
// traffic for post-mortem diagnostics, the way armon/circbuf is used
// elsewhere in the corpus to cap an unbounded stream to a fixed memory
// footprint. It never participates in protocol logic -- draining it is
// purely observational, so its lock is never held alongside the socket
// write lock or any handler/callback/game-state lock.
type wireTrace struct {
	mu  sync.Mutex
	buf *circbuf.Buffer
}

func newWireTrace(capacity int64) *wireTrace {
	if capacity <= 0 {
		return nil
	}
	buf, err := circbuf.NewBuffer(capacity)
	if err != nil {
		return nil
	}
	return &wireTrace{buf: buf}
}

func (t *wireTrace) record(direction byte, payload []byte) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Write([]byte{direction, '\n'})
	t.buf.Write([]byte(hex.EncodeToString(payload)))
	t.buf.Write([]byte{'\n'})
}

// Dump returns a copy of the current trace contents.
func (t *wireTrace) Dump() []byte {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.buf.Bytes()...)
}
