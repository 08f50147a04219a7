package gbxremote

import (
	"log"
	"sync"

	"github.com/snixtho/clifga/rpcvalue"
)

// DeliveryMode selects whether a subscriber runs on the receive loop
// (Inline) or on a freshly spawned goroutine (Detached).
type DeliveryMode int

const (
	Inline DeliveryMode = iota
	Detached
)

// Wildcard is the method pattern that subscribes to every callback.
const Wildcard = "*"

// CallbackFunc receives a dispatched callback's method name and argument
// vector. Exact-method subscribers may ignore method; wildcard subscribers
// use it to tell callbacks apart.
type CallbackFunc func(method string, args []rpcvalue.Value)

type subscription struct {
	fn   CallbackFunc
	mode DeliveryMode
}

// Registry is the callback registry of spec §4.6: a mapping from method
// name (or Wildcard) to an ordered list of subscriptions. Registration is
// additive; the core never deregisters a subscriber.
type Registry struct {
	mu   sync.Mutex
	subs map[string][]subscription
}

func NewRegistry() *Registry {
	return &Registry{subs: make(map[string][]subscription)}
}

// Register adds a subscription for pattern (an exact method name or
// Wildcard). Delivery preserves registration order for a given pattern.
func (r *Registry) Register(pattern string, fn CallbackFunc, mode DeliveryMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[pattern] = append(r.subs[pattern], subscription{fn: fn, mode: mode})
}

// Dispatch delivers a decoded callback to its subscribers: exact-method
// subscribers first, in registration order, then wildcard subscribers, in
// registration order. A panicking subscriber is recovered and logged; it
// never kills the caller (the receive loop).
func (r *Registry) Dispatch(method string, args []rpcvalue.Value, logger *log.Logger) {
	r.mu.Lock()
	exact := append([]subscription(nil), r.subs[method]...)
	wild := append([]subscription(nil), r.subs[Wildcard]...)
	r.mu.Unlock()

	for _, s := range exact {
		invoke(s, method, args, logger)
	}
	for _, s := range wild {
		invoke(s, method, args, logger)
	}
}

func invoke(s subscription, method string, args []rpcvalue.Value, logger *log.Logger) {
	if s.mode == Detached {
		go safeCall(s.fn, method, args, logger)
		return
	}
	safeCall(s.fn, method, args, logger)
}

func safeCall(fn CallbackFunc, method string, args []rpcvalue.Value, logger *log.Logger) {
	defer func() {
		if r := recover(); r != nil {
			if logger != nil {
				logger.Printf("[ERR] gbxremote: callback for %q panicked: %v", method, r)
			}
		}
	}()
	fn(method, args)
}
