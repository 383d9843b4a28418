package llm

import "sync"

// Cache maps each ModelType to its constructed client. Entries are never
// evicted; once a type has a client, that client is kept for the cache's
// lifetime.
type Cache struct {
	mu      sync.RWMutex
	clients map[ModelType]*Client
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{clients: make(map[ModelType]*Client)}
}

// Get returns the cached client for t.
func (c *Cache) Get(t ModelType) (*Client, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	client, ok := c.clients[t]
	return client, ok
}

// Add stores client under t unless an entry already exists, and returns
// whichever client is now cached.
func (c *Cache) Add(t ModelType, client *Client) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.clients[t]; ok {
		return existing
	}
	c.clients[t] = client
	return client
}

// Len returns the number of cached clients.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.clients)
}
