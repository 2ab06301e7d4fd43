package orchestrator

import (
	"sync"

	"github.com/nidhogg/atrium/internal/subagent"
)

// agentCache reuses agent instances per (source, contextID) so repeated
// requests against the same workspace share connection state. Creation is
// serialized under the lock so concurrent first-use cannot race into
// duplicate instances. Bounded: the oldest entry is evicted when full.
type agentCache struct {
	mu      sync.Mutex
	entries map[string]subagent.Agent
	keys    []string // insertion order, for eviction
	max     int
}

func newAgentCache(max int) *agentCache {
	if max <= 0 {
		max = 128
	}
	return &agentCache{
		entries: make(map[string]subagent.Agent),
		max:     max,
	}
}

func cacheKey(source, contextID string) string {
	return source + "|" + contextID
}

// getOrCreate returns the cached agent or builds one via the factory.
func (c *agentCache) getOrCreate(source, contextID string, factory subagent.Factory) subagent.Agent {
	key := cacheKey(source, contextID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if a, ok := c.entries[key]; ok {
		return a
	}

	a := factory(source, contextID)
	if len(c.keys) >= c.max {
		oldest := c.keys[0]
		c.keys = c.keys[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = a
	c.keys = append(c.keys, key)
	return a
}

// len reports the number of cached agents.
func (c *agentCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
