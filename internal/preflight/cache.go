package preflight

import (
	"path/filepath"

	"github.com/papapumpkin/pacsea/internal/persist"
)

// Entry is a resolved tab payload with the signature it was computed for.
type Entry[T any] struct {
	Signature string `json:"signature"`
	Items     T      `json:"items"`
}

// Cache keeps the latest result of one tab and persists it as JSON.
type Cache[T any] struct {
	entry Entry[T]
	set   bool
	dirty bool
}

// Get returns the cached items when they were computed for signature.
func (c *Cache[T]) Get(signature string) (T, bool) {
	if !c.set || c.entry.Signature != signature {
		var zero T
		return zero, false
	}
	return c.entry.Items, true
}

// Put replaces the cached result and marks the cache dirty.
func (c *Cache[T]) Put(signature string, items T) {
	c.entry = Entry[T]{Signature: signature, Items: items}
	c.set = true
	c.dirty = true
}

// Signature returns the signature of the cached result, if any.
func (c *Cache[T]) Signature() string { return c.entry.Signature }

func (c *Cache[T]) load(path string) error {
	found, err := persist.LoadJSON(path, &c.entry)
	if err != nil {
		c.entry = Entry[T]{}
		return err
	}
	c.set = found && c.entry.Signature != ""
	return nil
}

func (c *Cache[T]) snapshot(name, path string) persist.Snapshot {
	return persist.Snapshot{
		Name:  name,
		Path:  path,
		Dirty: func() bool { return c.dirty },
		Value: func() any { return c.entry },
		Clean: func() { c.dirty = false },
	}
}

// Caches holds the persisted per-transaction results. The summary is cheap
// and always recomputed.
type Caches struct {
	Dir      string
	Deps     Cache[[]DependencyInfo]
	Files    Cache[FilesResult]
	Services Cache[[]ServiceImpact]
	Sandbox  Cache[[]SandboxInfo]
}

// LoadCaches reads the caches under dir. Unreadable files are reported but
// leave the remaining caches usable.
func LoadCaches(dir string) (*Caches, error) {
	c := &Caches{Dir: dir}
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	keep(c.Deps.load(filepath.Join(dir, "deps.json")))
	keep(c.Files.load(filepath.Join(dir, "files.json")))
	keep(c.Services.load(filepath.Join(dir, "services.json")))
	keep(c.Sandbox.load(filepath.Join(dir, "sandbox.json")))
	return c, first
}

// Snapshots returns the persistable form of every cache.
func (c *Caches) Snapshots() []persist.Snapshot {
	return []persist.Snapshot{
		c.Deps.snapshot("preflight deps", filepath.Join(c.Dir, "deps.json")),
		c.Files.snapshot("preflight files", filepath.Join(c.Dir, "files.json")),
		c.Services.snapshot("preflight services", filepath.Join(c.Dir, "services.json")),
		c.Sandbox.snapshot("preflight sandbox", filepath.Join(c.Dir, "sandbox.json")),
	}
}
