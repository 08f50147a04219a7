package gbxremote

import (
	"sync"

	"github.com/snixtho/clifga/frame"
	"github.com/snixtho/clifga/rpcvalue"
)

// handleAllocator assigns 32-bit request handles. Per spec, handles never
// fall below 0x80000000 and wrap from 0xFFFFFFFF back to 0x80000000 by
// construction rather than by a conditional reset, so the invariant is
// syntactically obvious at the call site.
type handleAllocator struct {
	mu      sync.Mutex
	counter uint32
}

func (a *handleAllocator) next() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	h := frame.RequestBit | (a.counter & 0x7fffffff)
	a.counter++
	return h
}

func (a *handleAllocator) reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counter = 0
}

// callResult is delivered to a pending call's completion slot.
type callResult struct {
	value rpcvalue.Value
	err   error
}

// pendingCall is a one-shot completion slot for a single in-flight
// request, installed under the handler table lock and torn down when its
// result is delivered or the connection resets.
type pendingCall struct {
	done chan callResult
	seq  uint64
}

func newPendingCall(seq uint64) *pendingCall {
	return &pendingCall{done: make(chan callResult, 1), seq: seq}
}

// handlerTable tracks every in-flight request's pendingCall, keyed by its
// 32-bit handle.
type handlerTable struct {
	mu      sync.Mutex
	seq     uint64
	pending map[uint32]*pendingCall
}

func newHandlerTable() *handlerTable {
	return &handlerTable{pending: make(map[uint32]*pendingCall)}
}

func (t *handlerTable) install(handle uint32) *pendingCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	pc := newPendingCall(t.seq)
	t.pending[handle] = pc
	return pc
}

func (t *handlerTable) resolve(handle uint32, res callResult) {
	t.mu.Lock()
	pc, ok := t.pending[handle]
	if ok {
		delete(t.pending, handle)
	}
	t.mu.Unlock()

	if ok {
		pc.done <- res
	}
}

func (t *handlerTable) abandon(handle uint32) {
	t.mu.Lock()
	delete(t.pending, handle)
	t.mu.Unlock()
}

// failAll delivers a connection-lost error to every outstanding call and
// clears the table. Used on teardown so requests blocked past resultTimeout
// never leak a goroutine past stop() -- spec.md's open question on
// abandoned waiters is resolved this way; see DESIGN.md.
func (t *handlerTable) failAll(err error) {
	t.mu.Lock()
	pending := t.pending
	t.pending = make(map[uint32]*pendingCall)
	t.mu.Unlock()

	for _, pc := range pending {
		pc.done <- callResult{err: err}
	}
}

func (t *handlerTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
