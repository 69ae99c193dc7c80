package engine

import "sync"

// idCache is the path↔remote-id association, owned by the Orchestrator.
// It is rebuilt from the local store at the start of every pass and mutated
// only through the orchestrator's write paths.
type idCache struct {
	mu     sync.RWMutex
	byPath map[string]string
	byID   map[string]string
}

func newIDCache() *idCache {
	return &idCache{
		byPath: make(map[string]string),
		byID:   make(map[string]string),
	}
}

func (c *idCache) reset() {
	c.mu.Lock()
	c.byPath = make(map[string]string)
	c.byID = make(map[string]string)
	c.mu.Unlock()
}

func (c *idCache) set(path, remoteID string) {
	c.mu.Lock()
	c.byPath[path] = remoteID
	c.byID[remoteID] = path
	c.mu.Unlock()
}

func (c *idCache) remoteID(path string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byPath[path]
	return id, ok
}

func (c *idCache) hasRemote(remoteID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byID[remoteID]
	return ok
}

func (c *idCache) drop(path string) {
	c.mu.Lock()
	if id, ok := c.byPath[path]; ok {
		delete(c.byID, id)
	}
	delete(c.byPath, path)
	c.mu.Unlock()
}
