// Package recent keeps the bounded, case-insensitive list of recent search
// queries shown in the Recent pane.
package recent

import "strings"

// DefaultCapacity is the number of queries retained when no capacity is configured.
const DefaultCapacity = 20

// List is an LRU of queries keyed by their lowercase form. The first entry is
// the most recent. The zero value is not usable; call New.
type List struct {
	capacity int
	entries  []string // original case, most recent first
	dirty    bool
}

// New returns an empty list bounded by capacity (DefaultCapacity if <= 0).
func New(capacity int) *List {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &List{capacity: capacity}
}

// FromSlice restores a list from its persisted form, dropping blank and
// duplicate entries and trimming to capacity.
func FromSlice(capacity int, items []string) *List {
	l := New(capacity)
	for i := len(items) - 1; i >= 0; i-- {
		l.Add(items[i])
	}
	l.dirty = false
	return l
}

// Add records q as the most recent query. An existing entry with the same
// lowercase key is promoted and takes q's casing. Blank queries are ignored.
func (l *List) Add(q string) {
	q = strings.TrimSpace(q)
	if q == "" {
		return
	}
	l.remove(strings.ToLower(q))
	l.entries = append([]string{q}, l.entries...)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
	l.dirty = true
}

// Remove deletes the entry matching q case-insensitively.
func (l *List) Remove(q string) bool {
	if l.remove(strings.ToLower(strings.TrimSpace(q))) {
		l.dirty = true
		return true
	}
	return false
}

func (l *List) remove(key string) bool {
	for i, e := range l.entries {
		if strings.ToLower(e) == key {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Items returns a copy of the entries, most recent first.
func (l *List) Items() []string {
	return append([]string(nil), l.entries...)
}

// Len returns the number of entries.
func (l *List) Len() int { return len(l.entries) }

// At returns the i-th most recent entry.
func (l *List) At(i int) (string, bool) {
	if i < 0 || i >= len(l.entries) {
		return "", false
	}
	return l.entries[i], true
}

// Dirty reports whether the list changed since the last MarkClean.
func (l *List) Dirty() bool { return l.dirty }

// MarkClean clears the dirty flag after a successful save.
func (l *List) MarkClean() { l.dirty = false }
