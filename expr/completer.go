package expr

import (
	"sort"
	"sync"

	"github.com/armon/go-radix"
)

// Completer indexes known XML-RPC method names in a radix tree for
// prefix completion, the way an interactive command box would offer
// suggestions as the operator types. It is additive to the expression
// grammar and never participates in parsing.
type Completer struct {
	mu   sync.RWMutex
	tree *radix.Tree
}

// NewCompleter builds a Completer from an initial set of method names,
// typically the result of a system.listMethods call.
func NewCompleter(methods []string) *Completer {
	c := &Completer{tree: radix.New()}
	for _, m := range methods {
		c.tree.Insert(m, struct{}{})
	}
	return c
}

// Add indexes an additional method name.
func (c *Completer) Add(method string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tree.Insert(method, struct{}{})
}

// Complete returns every indexed method name starting with prefix, sorted
// lexicographically.
func (c *Completer) Complete(prefix string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var matches []string
	c.tree.WalkPrefix(prefix, func(key string, _ interface{}) bool {
		matches = append(matches, key)
		return false
	})
	sort.Strings(matches)
	return matches
}
