// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocache keeps reverse geocoding results between runs.
package geocache

import (
	"log"
	"strings"
	"sync"

	"github.com/jcodagnone/geoconv/spatial"
)

// Placeholders stored instead of an address. Failed lookups are stored as
// ErrorAddress followed by ": " and the failure message.
const (
	NotFoundAddress = "Not found"
	ErrorAddress    = "Error"
)

// Store persists the whole cache snapshot at once.
type Store interface {
	// Load returns the persisted snapshot. A missing snapshot is not an
	// error and yields an empty map.
	Load() (map[string]string, error)

	// Save replaces the persisted snapshot.
	Save(entries map[string]string) error

	// Name describes the store in log lines
	Name() string
}

// Cache maps a rounded coordinate to its address (or error marker). Entries
// are only added or overwritten, never removed.
type Cache struct {
	store   Store
	mu      sync.RWMutex
	entries map[string]string
}

// New creates an empty cache backed by store. Call Load to read the snapshot.
func New(store Store) *Cache {
	return &Cache{
		store:   store,
		entries: make(map[string]string),
	}
}

// Open creates a cache and loads the persisted snapshot.
func Open(store Store) *Cache {
	c := New(store)
	c.Load()

	return c
}

// Load replaces the in-memory entries with the persisted snapshot. Failures
// are logged and leave the cache empty.
func (c *Cache) Load() {
	entries, err := c.store.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		log.Printf("⚠️  Cache loading failed (%s): %v", c.store.Name(), err)

		c.entries = make(map[string]string)

		return
	}

	if entries == nil {
		entries = make(map[string]string)
	}

	c.entries = entries
}

// Save writes every entry to the store. Failures are logged only.
func (c *Cache) Save() {
	c.mu.RLock()
	snapshot := make(map[string]string, len(c.entries))

	for k, v := range c.entries {
		snapshot[k] = v
	}
	c.mu.RUnlock()

	if err := c.store.Save(snapshot); err != nil {
		log.Printf("⚠️  Cache saving failed (%s): %v", c.store.Name(), err)
	}
}

// Close flushes the cache. It is meant to be deferred right after Open.
func (c *Cache) Close() {
	c.Save()
}

// Get returns the address stored for key.
func (c *Cache) Get(key spatial.Key) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.entries[key.String()]

	return v, ok
}

// Set stores the address for key, overwriting any previous value.
func (c *Cache) Set(key spatial.Key, address string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key.String()] = address
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Entries returns a copy of the cache contents.
func (c *Cache) Entries() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]string, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}

	return out
}

// Stats summarizes the cache contents.
type Stats struct {
	Entries  int `json:"entries"`
	NotFound int `json:"not_found"`
	Errors   int `json:"errors"`
}

// Stats counts entries by kind.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{Entries: len(c.entries)}

	for _, v := range c.entries {
		switch {
		case v == NotFoundAddress:
			stats.NotFound++
		case strings.HasPrefix(v, ErrorAddress):
			stats.Errors++
		}
	}

	return stats
}
