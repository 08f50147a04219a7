// Package gbxremote implements the GbxRemote 2 connection and dispatch
// engine: handshake, authentication, request/response correlation over a
// length-prefixed XML-RPC transport, server-pushed callback fan-out, and
// automatic reconnection.
package gbxremote

import (
	"bytes"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	uuid "github.com/hashicorp/go-uuid"

	"github.com/snixtho/clifga/frame"
	"github.com/snixtho/clifga/rpcvalue"
)

// AttemptFunc is invoked once per connection attempt inside connect(),
// receiving the current retry number and the configured ceiling (-1 for
// unbounded). It lets a UI glue layer surface "retrying 2 of 5..." without
// the engine depending on any UI type.
type AttemptFunc func(retry, maxRetries int)

// Remote is a GbxRemote 2 client: one TCP connection, one receive loop,
// and the request/callback dispatch machinery built on top of it.
type Remote struct {
	cfg    *Config
	logger *log.Logger

	allocator *handleAllocator
	handles   *handlerTable
	registry  *Registry
	metrics   *metricsSink
	trace     *wireTrace

	aliveMu sync.Mutex
	alive   bool

	connMu sync.Mutex // guards conn and sessionID
	conn   net.Conn

	writeMu sync.Mutex

	recvDoneMu sync.Mutex
	recvDone   chan struct{}

	sessionID string
}

// New constructs a Remote from cfg. Nil fields in cfg are not defaulted;
// callers typically start from DefaultConfig() and override fields.
func New(cfg *Config, logger *log.Logger) *Remote {
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Remote{
		cfg:       cfg,
		logger:    logger,
		allocator: &handleAllocator{},
		handles:   newHandlerTable(),
		registry:  NewRegistry(),
		metrics:   newMetricsSink(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		trace:     newWireTrace(cfg.TraceBytes),
	}
}

func (r *Remote) isAlive() bool {
	r.aliveMu.Lock()
	defer r.aliveMu.Unlock()
	return r.alive
}

func (r *Remote) setAlive(v bool) {
	r.aliveMu.Lock()
	r.alive = v
	r.aliveMu.Unlock()
}

// IsConnected reports whether the engine currently considers itself
// connected (a receive loop is running against a live socket).
func (r *Remote) IsConnected() bool {
	return r.isAlive()
}

// SessionID returns the identifier minted for the current connection
// generation, or "" if never connected.
func (r *Remote) SessionID() string {
	r.connMu.Lock()
	defer r.connMu.Unlock()
	return r.sessionID
}

func (r *Remote) reset() {
	r.setAlive(false)
	r.connMu.Lock()
	old := r.conn
	r.conn = nil
	r.sessionID = ""
	r.connMu.Unlock()
	if old != nil {
		old.Close()
	}
	r.handles.failAll(ErrNotConnected)
	r.handles = newHandlerTable()
	r.allocator.reset()
}

// Connect establishes the TCP connection, verifies the handshake header,
// authenticates, sets the API version, and enables server callbacks. It
// retries up to maxRetries times with a 1-second gap; maxRetries < 0 means
// retry forever. attemptCB, if non-nil, is invoked before each attempt.
func (r *Remote) Connect(maxRetries int, attemptCB AttemptFunc) bool {
	// wait for any previous receive loop to end before resetting state.
	r.recvDoneMu.Lock()
	prevDone := r.recvDone
	r.recvDoneMu.Unlock()
	if prevDone != nil {
		r.setAlive(false)
		<-prevDone
	}

	r.reset()

	retries := 1
	for {
		if attemptCB != nil {
			attemptCB(retries, maxRetries)
		}

		if r.attemptConnection() {
			r.logger.Printf("[DEBUG] gbxremote: connected to %s:%d", r.cfg.Host, r.cfg.Port)
			r.setAlive(true)

			done := make(chan struct{})
			r.recvDoneMu.Lock()
			r.recvDone = done
			r.recvDoneMu.Unlock()
			go r.recvLoop(done)

			if err := r.authenticate(); err != nil {
				r.logger.Printf("[ERR] gbxremote: authentication failed: %v", err)
				r.setAlive(false)
				<-done
				r.connMu.Lock()
				if r.conn != nil {
					r.conn.Close()
					r.conn = nil
				}
				r.connMu.Unlock()
				return false
			}

			sid, err := uuid.GenerateUUID()
			if err == nil {
				r.connMu.Lock()
				r.sessionID = sid
				r.connMu.Unlock()
			}

			if _, err := r.Call("SetApiVersion", rpcvalue.String(r.cfg.APIVersion)); err != nil {
				r.logger.Printf("[WARN] gbxremote: SetApiVersion failed: %v", err)
			}
			if _, err := r.Call("EnableCallbacks", rpcvalue.Bool(true)); err != nil {
				r.logger.Printf("[WARN] gbxremote: EnableCallbacks failed: %v", err)
			}

			return true
		}

		r.logger.Printf("[ERR] gbxremote: connection attempt %d of %d failed", retries, maxRetries)

		if maxRetries >= 0 && retries >= maxRetries {
			break
		}
		retries++
		time.Sleep(1 * time.Second)
	}

	return false
}

func (r *Remote) attemptConnection() bool {
	addr := net.JoinHostPort(r.cfg.Host, strconv.Itoa(r.cfg.Port))
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		r.logger.Printf("[ERR] gbxremote: %v", wrapTransport(err, "dial "+addr))
		return false
	}

	header, err := frame.ReadHeader(conn)
	if err != nil {
		conn.Close()
		r.logger.Printf("[ERR] gbxremote: %v", wrapTransport(err, "read handshake header"))
		return false
	}

	if !headerAllowed(header, r.cfg.ValidHeaders) {
		conn.Close()
		r.logger.Printf("[ERR] gbxremote: %v", &ErrInvalidHeader{Header: header})
		return false
	}

	r.connMu.Lock()
	r.conn = conn
	r.connMu.Unlock()
	return true
}

func headerAllowed(header string, allowed []string) bool {
	for _, h := range allowed {
		if h == header {
			return true
		}
	}
	return false
}

// authenticate issues the Authenticate call and distinguishes a transport
// failure from a well-formed rejection: both count as not-authenticated to
// the caller, but only a fault or a result other than boolean true is
// ErrAuthFailed.
func (r *Remote) authenticate() error {
	result, err := r.Call("Authenticate", rpcvalue.String(r.cfg.Username), rpcvalue.String(r.cfg.Password))
	if err != nil {
		return wrapTransport(err, "authenticate")
	}
	if f, ok := result.AsFault(); ok {
		r.logger.Printf("[ERR] gbxremote: authentication faulted: %s", f.String)
		return ErrAuthFailed
	}
	ok, isBool := result.Bool()
	if !isBool || !ok {
		return ErrAuthFailed
	}
	return nil
}

// Stop signals the receive loop to end and joins it, abandoning any
// in-flight requests with a connection-lost error so no caller of Call
// blocks past shutdown.
func (r *Remote) Stop() {
	r.recvDoneMu.Lock()
	done := r.recvDone
	r.recvDoneMu.Unlock()

	r.setAlive(false)
	if done != nil {
		<-done
	}

	r.handles.failAll(ErrNotConnected)

	r.connMu.Lock()
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
	r.connMu.Unlock()
}

// recvLoop owns the only read access to the socket. It polls the alive
// flag between bounded reads so Stop() takes effect within ~1 second
// without requiring the socket to be put in non-blocking mode.
func (r *Remote) recvLoop(done chan struct{}) {
	defer close(done)

	connLost := false

	for r.isAlive() {
		r.connMu.Lock()
		conn := r.conn
		r.connMu.Unlock()
		if conn == nil {
			break
		}

		conn.SetReadDeadline(time.Now().Add(1 * time.Second))
		handle, payload, err := frame.Read(conn)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			// if alive is already false, this teardown was requested (Stop,
			// or Connect() abandoning a failed authentication) rather than
			// an unexpected disconnect, so it must not trigger a reconnect.
			if r.isAlive() {
				r.logger.Printf("[ERR] gbxremote: receive loop: %v", err)
				connLost = true
			}
			break
		}

		r.trace.record('<', payload)

		decoded, derr := rpcvalue.Decode(bytes.NewReader(payload))
		if derr != nil {
			r.logger.Printf("[DEBUG] gbxremote: malformed frame for handle %#x: %v", handle, derr)
			if frame.IsRequest(handle) {
				r.handles.resolve(handle, callResult{err: derr})
			}
			continue
		}

		r.handleDecoded(handle, decoded)
	}

	r.logger.Printf("[DEBUG] gbxremote: receive loop ended")

	if connLost {
		r.setAlive(false)
		go r.internalReconnect()
	}
}

func (r *Remote) handleDecoded(handle uint32, d *rpcvalue.Decoded) {
	if d.IsCall() {
		r.metrics.callback()
		r.registry.Dispatch(d.Method, d.Params, r.logger)
		return
	}
	if d.Fault != nil {
		r.metrics.fault()
		r.handles.resolve(handle, callResult{value: rpcvalue.FaultValue(d.Fault.Code, d.Fault.String)})
		return
	}
	r.handles.resolve(handle, callResult{value: d.Result})
}

func (r *Remote) internalReconnect() {
	r.logger.Printf("[DEBUG] gbxremote: internal reconnect started")
	for {
		if r.isAlive() {
			return
		}
		r.logger.Printf("[INFO] gbxremote: attempting to reconnect")
		r.metrics.reconnect()
		if r.Connect(-1, nil) {
			return
		}
		r.logger.Printf("[ERR] gbxremote: reconnect failed, retrying")
		time.Sleep(1 * time.Second)
	}
}

// Call sends method with args and blocks for its result (or resultTimeout,
// or a connection error). A well-formed XML-RPC fault is returned as a
// Value of KindFault, not as a Go error.
func (r *Remote) Call(method string, args ...rpcvalue.Value) (rpcvalue.Value, error) {
	return r.call(method, args, true)
}

// CallAsync sends method with args without blocking, returning a channel
// the caller may receive from (or select on, with its own timeout).
func (r *Remote) CallAsync(method string, args ...rpcvalue.Value) (<-chan callResult, error) {
	if !r.isAlive() {
		return nil, ErrNotConnected
	}
	handle := r.allocator.next()
	pc := r.handles.install(handle)

	payload, err := rpcvalue.EncodeCall(method, args)
	if err != nil {
		r.handles.abandon(handle)
		return nil, err
	}

	if err := r.writeFrame(frame.Encode(handle, payload)); err != nil {
		r.handles.abandon(handle)
		return nil, err
	}
	r.trace.record('>', payload)
	return pc.done, nil
}

func (r *Remote) call(method string, args []rpcvalue.Value, retry bool) (rpcvalue.Value, error) {
	if !r.isAlive() {
		return rpcvalue.Nil(), ErrNotConnected
	}

	handle := r.allocator.next()
	pc := r.handles.install(handle)

	payload, err := rpcvalue.EncodeCall(method, args)
	if err != nil {
		r.handles.abandon(handle)
		return rpcvalue.Nil(), err
	}

	start := r.metrics.callStarted(method)
	r.trace.record('>', payload)

	if err := r.writeFrame(frame.Encode(handle, payload)); err != nil {
		r.handles.abandon(handle)
		return r.handleTransportError(method, args, err, retry)
	}

	select {
	case res := <-pc.done:
		r.metrics.callFinished(method, start)
		return res.value, res.err
	case <-time.After(r.cfg.ResultTimeout):
		r.handles.abandon(handle)
		r.metrics.timeout()
		return rpcvalue.Nil(), ErrTimeout
	}
}

func (r *Remote) handleTransportError(method string, args []rpcvalue.Value, cause error, retry bool) (rpcvalue.Value, error) {
	r.logger.Printf("[ERR] gbxremote: connection lost during call %q: %v", method, cause)

	if !retry {
		return rpcvalue.Nil(), cause
	}

	r.logger.Printf("[INFO] gbxremote: attempting to reconnect before retrying %q", method)
	if r.Connect(r.cfg.ConnRetries, nil) {
		return r.call(method, args, false)
	}
	r.logger.Printf("[ERR] gbxremote: reconnection failed")
	return rpcvalue.Nil(), cause
}

func (r *Remote) writeFrame(b []byte) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.connMu.Lock()
	conn := r.conn
	r.connMu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	_, err := conn.Write(b)
	return wrapTransport(err, "write frame")
}

// MethodCall is one call within a Multicall batch.
type MethodCall struct {
	Method string
	Args   []rpcvalue.Value
}

// Multicall batches calls via system.multicall, returning one Value per
// call in the same order. A fault in any individual call is surfaced as a
// KindFault Value at that position, and every such fault is also
// aggregated into the returned error via go-multierror so a caller
// inspecting the error sees every failed sub-call, not just the first.
func (r *Remote) Multicall(calls ...MethodCall) ([]rpcvalue.Value, error) {
	batch := make([]rpcvalue.Value, len(calls))
	for i, c := range calls {
		batch[i] = rpcvalue.Struct([]rpcvalue.Member{
			{Name: "methodName", Value: rpcvalue.String(c.Method)},
			{Name: "params", Value: rpcvalue.Array(c.Args)},
		})
	}

	result, err := r.Call("system.multicall", rpcvalue.Array(batch))
	if err != nil {
		return nil, err
	}

	arr, ok := result.Array()
	if !ok {
		return nil, fmt.Errorf("gbxremote: multicall response is not an array")
	}

	results := make([]rpcvalue.Value, len(arr))
	var merr *multierror.Error
	for i, elem := range arr {
		switch {
		case elemIsFault(elem):
			f := faultFromStruct(elem)
			results[i] = rpcvalue.FaultValue(f.Code, f.String)
			merr = multierror.Append(merr, fmt.Errorf("call %d (%s): %s", i, calls[i].Method, f.String))
		default:
			if sub, ok := elem.Array(); ok && len(sub) == 1 {
				results[i] = sub[0]
			} else {
				results[i] = elem
			}
		}
	}

	if merr != nil {
		return results, merr.ErrorOrNil()
	}
	return results, nil
}

func elemIsFault(v rpcvalue.Value) bool {
	members, ok := v.StructMembers()
	if !ok {
		return false
	}
	for _, m := range members {
		if m.Name == "faultCode" {
			return true
		}
	}
	return false
}

func faultFromStruct(v rpcvalue.Value) rpcvalue.Fault {
	var f rpcvalue.Fault
	members, _ := v.StructMembers()
	for _, m := range members {
		switch m.Name {
		case "faultCode":
			if n, ok := m.Value.Int(); ok {
				f.Code = n
			}
		case "faultString":
			if s, ok := m.Value.String(); ok {
				f.String = s
			}
		}
	}
	return f
}

// RegisterCallback subscribes fn to method (or Wildcard for every
// callback). Wildcard subscribers receive the callback's method name in the
// method parameter; the argument vector is passed to them unchanged.
func (r *Remote) RegisterCallback(method string, fn CallbackFunc, mode DeliveryMode) {
	r.registry.Register(method, fn, mode)
	r.logger.Printf("[DEBUG] gbxremote: registered callback for %q", method)
}

// Trace returns a snapshot of the diagnostic wire trace buffer.
func (r *Remote) Trace() []byte {
	return r.trace.Dump()
}

// PendingCount reports the number of in-flight requests, exposed for tests
// asserting the "no handle leaks" invariant.
func (r *Remote) PendingCount() int {
	return r.handles.len()
}
