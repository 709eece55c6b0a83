package state

import (
	"strings"

	"github.com/papapumpkin/pacsea/internal/persist"
	"github.com/papapumpkin/pacsea/internal/pkginfo"
)

// PackageList is an ordered list of packages with a name set kept in step
// with it. New entries go to the front; names are unique case-insensitively.
type PackageList struct {
	items []pkginfo.PackageItem
	names map[string]struct{} // lowercase
	dirty bool
}

// NewPackageList returns an empty list.
func NewPackageList() *PackageList {
	return &PackageList{names: make(map[string]struct{})}
}

// Add inserts it at the front. It reports false when a package with the
// same lowercase name is already listed.
func (l *PackageList) Add(it pkginfo.PackageItem) bool {
	k := it.Key()
	if _, ok := l.names[k]; ok {
		return false
	}
	l.items = append([]pkginfo.PackageItem{it}, l.items...)
	l.names[k] = struct{}{}
	l.dirty = true
	return true
}

// Delete removes name and reports whether it was listed.
func (l *PackageList) Delete(name string) bool {
	k := strings.ToLower(name)
	if _, ok := l.names[k]; !ok {
		return false
	}
	for i, it := range l.items {
		if it.Key() == k {
			l.items = append(l.items[:i], l.items[i+1:]...)
			break
		}
	}
	delete(l.names, k)
	l.dirty = true
	return true
}

// Contains reports whether name is listed.
func (l *PackageList) Contains(name string) bool {
	_, ok := l.names[strings.ToLower(name)]
	return ok
}

// Clear empties the list.
func (l *PackageList) Clear() {
	if len(l.items) == 0 {
		return
	}
	l.items = nil
	l.names = make(map[string]struct{})
	l.dirty = true
}

// Items returns a copy of the entries in order.
func (l *PackageList) Items() []pkginfo.PackageItem {
	return append([]pkginfo.PackageItem(nil), l.items...)
}

// At returns the i-th entry.
func (l *PackageList) At(i int) (pkginfo.PackageItem, bool) {
	if i < 0 || i >= len(l.items) {
		return pkginfo.PackageItem{}, false
	}
	return l.items[i], true
}

// Names returns the names in order.
func (l *PackageList) Names() []string { return pkginfo.Names(l.items) }

// Len returns the number of entries.
func (l *PackageList) Len() int { return len(l.items) }

// Dirty reports unsaved changes.
func (l *PackageList) Dirty() bool { return l.dirty }

// Snapshot returns the persistable form of the list.
func (l *PackageList) Snapshot(name, path string) persist.Snapshot {
	return persist.Snapshot{
		Name:  name,
		Path:  path,
		Dirty: l.Dirty,
		Value: func() any {
			if l.items == nil {
				return []pkginfo.PackageItem{}
			}
			return l.items
		},
		Clean: func() { l.dirty = false },
	}
}

// LoadPackageList restores a persisted list, keeping its order.
func LoadPackageList(path string) (*PackageList, error) {
	var items []pkginfo.PackageItem
	l := NewPackageList()
	if _, err := persist.LoadJSON(path, &items); err != nil {
		return l, err
	}
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Name != "" {
			l.Add(items[i])
		}
	}
	l.dirty = false
	return l, nil
}

// AddToInstall adds the selected result (or it) to the install list.
func (a *App) AddToInstall(it pkginfo.PackageItem) {
	if a.Install.Add(it) {
		a.SetToast("Added " + it.Name + " to install list")
	}
}

// AddToRemove adds an installed package to the remove list.
func (a *App) AddToRemove(it pkginfo.PackageItem) {
	if !a.Installed.IsInstalled(it.Name) {
		a.SetToast(it.Name + " is not installed")
		return
	}
	if a.Remove.Add(it) {
		a.SetToast("Added " + it.Name + " to remove list")
	}
}

// AddToDowngrade adds an installed package to the downgrade list.
func (a *App) AddToDowngrade(it pkginfo.PackageItem) {
	if !a.Installed.IsInstalled(it.Name) {
		a.SetToast(it.Name + " is not installed")
		return
	}
	if a.Downgrade.Add(it) {
		a.SetToast("Added " + it.Name + " to downgrade list")
	}
}

// DeleteFromRight removes the selected entry of the right pane list.
func (a *App) DeleteFromRight() {
	l := a.RightList()
	it, ok := l.At(a.ListSelected)
	if !ok {
		return
	}
	l.Delete(it.Name)
	if a.ListSelected >= l.Len() && a.ListSelected > 0 {
		a.ListSelected = l.Len() - 1
	}
}

// CycleRightPane switches Install → Remove → Downgrade.
func (a *App) CycleRightPane() {
	a.Right = (a.Right + 1) % 3
	a.ListSelected = 0
}
