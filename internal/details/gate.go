package details

import "sync"

// Gate is the set of package names the details worker may fetch. An unset
// gate allows everything. The reducer narrows it during fast scrolling and
// the worker consults it right before each fetch.
type Gate struct {
	mu      sync.RWMutex
	allowed map[string]struct{} // nil means unrestricted
}

// NewGate returns an unrestricted gate.
func NewGate() *Gate { return &Gate{} }

// AllowAll removes every restriction.
func (g *Gate) AllowAll() {
	g.mu.Lock()
	g.allowed = nil
	g.mu.Unlock()
}

// AllowOnly restricts fetching to names.
func (g *Gate) AllowOnly(names []string) {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	g.mu.Lock()
	g.allowed = set
	g.mu.Unlock()
}

// Allowed reports whether name may be fetched.
func (g *Gate) Allowed(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.allowed == nil {
		return true
	}
	_, ok := g.allowed[name]
	return ok
}

// Restricted reports whether an allowed set is in effect.
func (g *Gate) Restricted() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.allowed != nil
}
