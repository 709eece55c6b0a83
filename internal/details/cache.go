// Package details caches package details and runs the workers that fetch
// them: batched details lookups, PKGBUILD text and AUR comments.
package details

import (
	"github.com/papapumpkin/pacsea/internal/persist"
	"github.com/papapumpkin/pacsea/internal/pkginfo"
)

// Cache maps package name to details. It is owned by the reducer and is
// not safe for concurrent use.
type Cache struct {
	entries map[string]pkginfo.PackageDetails
	dirty   bool
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]pkginfo.PackageDetails)}
}

// Load reads a persisted cache. A missing file yields an empty cache.
func Load(path string) (*Cache, error) {
	c := NewCache()
	if _, err := persist.LoadJSON(path, &c.entries); err != nil {
		return NewCache(), err
	}
	if c.entries == nil {
		c.entries = make(map[string]pkginfo.PackageDetails)
	}
	for name, d := range c.entries {
		if d.Name != name {
			delete(c.entries, name)
		}
	}
	return c, nil
}

// Get returns the cached details for name.
func (c *Cache) Get(name string) (pkginfo.PackageDetails, bool) {
	d, ok := c.entries[name]
	return d, ok
}

// Has reports whether name is cached.
func (c *Cache) Has(name string) bool {
	_, ok := c.entries[name]
	return ok
}

// Put stores d under d.Name and marks the cache dirty.
func (c *Cache) Put(d pkginfo.PackageDetails) {
	if d.Name == "" {
		return
	}
	c.entries[d.Name] = d
	c.dirty = true
}

// Len returns the number of entries.
func (c *Cache) Len() int { return len(c.entries) }

// Dirty reports unsaved changes.
func (c *Cache) Dirty() bool { return c.dirty }

// MarkClean clears the dirty flag after a successful save.
func (c *Cache) MarkClean() { c.dirty = false }

// Snapshot returns the persistable form of the cache.
func (c *Cache) Snapshot(path string) persist.Snapshot {
	return persist.Snapshot{
		Name:  "details cache",
		Path:  path,
		Dirty: c.Dirty,
		Value: func() any { return c.entries },
		Clean: c.MarkClean,
	}
}
