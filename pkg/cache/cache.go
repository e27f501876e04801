// Package cache holds the process-lifetime mapping from a verified partial
// key's (fullId, serverObjectId) to its recovered G1 point.
package cache

import (
	"sync"

	"github.com/mystenlabs/seal-go/pkg/curve"
)

// Key identifies one cached partial key.
type Key struct {
	FullIDHex      string
	ServerObjectID [32]byte
}

// KeyCache is a mutex-guarded map; keys are only inserted after the caller
// has verified the partial key against the issuing server's public key.
type KeyCache struct {
	mu   sync.RWMutex
	data map[Key]*curve.G1
}

// New returns an empty cache.
func New() *KeyCache {
	return &KeyCache{data: make(map[Key]*curve.G1)}
}

// Get returns the cached partial key for (fullIDHex, serverObjectID), if present.
func (c *KeyCache) Get(fullIDHex string, serverObjectID [32]byte) (*curve.G1, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[Key{FullIDHex: fullIDHex, ServerObjectID: serverObjectID}]
	return v, ok
}

// Put inserts a verified partial key.
func (c *KeyCache) Put(fullIDHex string, serverObjectID [32]byte, usk *curve.G1) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[Key{FullIDHex: fullIDHex, ServerObjectID: serverObjectID}] = usk
}

// Has reports whether a key is cached, without returning it.
func (c *KeyCache) Has(fullIDHex string, serverObjectID [32]byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.data[Key{FullIDHex: fullIDHex, ServerObjectID: serverObjectID}]
	return ok
}

// Len reports the number of cached entries, mostly for tests.
func (c *KeyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
