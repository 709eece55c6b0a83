// Package installed caches which packages are installed (`pacman -Qq`) and
// which were installed explicitly (`pacman -Qqe`), and decides when those
// sets must be re-read after a transaction.
package installed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/papapumpkin/pacsea/internal/pacman"
)

// Refresh timing after a mutation request.
const (
	WindowMin    = 8 * time.Second
	WindowMax    = 12 * time.Second
	PollInterval = time.Second
)

// Snapshot is one reading of the installed and explicit sets.
type Snapshot struct {
	Installed map[string]struct{}
	Explicit  map[string]struct{}
}

// Fetch reads both sets from pacman.
func Fetch(ctx context.Context, c *pacman.Client) (Snapshot, error) {
	inst, err := c.Installed(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("installed: query installed: %w", err)
	}
	expl, err := c.Explicit(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("installed: query explicit: %w", err)
	}
	return Snapshot{Installed: inst, Explicit: expl}, nil
}

// Cache holds the latest Snapshot for readers outside the reducer
// (preflight resolvers, the details worker). It is safe for concurrent use.
type Cache struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{snap: Snapshot{Installed: map[string]struct{}{}, Explicit: map[string]struct{}{}}}
}

// Replace installs a new snapshot.
func (c *Cache) Replace(s Snapshot) {
	if s.Installed == nil {
		s.Installed = map[string]struct{}{}
	}
	if s.Explicit == nil {
		s.Explicit = map[string]struct{}{}
	}
	c.mu.Lock()
	c.snap = s
	c.mu.Unlock()
}

// IsInstalled reports whether name is installed.
func (c *Cache) IsInstalled(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.snap.Installed[name]
	return ok
}

// IsExplicit reports whether name was installed explicitly.
func (c *Cache) IsExplicit(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.snap.Explicit[name]
	return ok
}

// InstalledSet returns a copy of the installed set.
func (c *Cache) InstalledSet() map[string]struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]struct{}, len(c.snap.Installed))
	for k := range c.snap.Installed {
		out[k] = struct{}{}
	}
	return out
}

// ExplicitNames returns the explicit set sorted by name.
func (c *Cache) ExplicitNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.snap.Explicit))
	for k := range c.snap.Explicit {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// WindowEnd returns the end of the post-mutation refresh window: now plus a
// uniformly jittered 8 to 12 seconds.
func WindowEnd(now time.Time) time.Time {
	span := int64(WindowMax - WindowMin)
	return now.Add(WindowMin + time.Duration(rand.Int64N(span+1)))
}

// AllPresent reports whether every name is in set. An empty list is never
// "all present" so that an idle refresh does not emit a summary.
func AllPresent(names []string, set map[string]struct{}) bool {
	if len(names) == 0 {
		return false
	}
	for _, n := range names {
		if _, ok := set[n]; !ok {
			return false
		}
	}
	return true
}

// AllAbsent reports whether no name is in set. An empty list is never "all
// absent".
func AllAbsent(names []string, set map[string]struct{}) bool {
	if len(names) == 0 {
		return false
	}
	for _, n := range names {
		if _, ok := set[n]; ok {
			return false
		}
	}
	return true
}
