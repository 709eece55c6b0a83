package state

import (
	"strings"
	"time"

	"github.com/papapumpkin/pacsea/internal/installed"
)

// MarkMutation opens the installed-state refresh window after a request
// that installs or removes packages.
func (a *App) MarkMutation(install, remove []string) {
	a.PendingInstall = appendUnique(a.PendingInstall, install)
	a.PendingRemove = appendUnique(a.PendingRemove, remove)
	a.RefreshInstalledUntil = installed.WindowEnd(a.now())
	a.NextInstalledRefreshAt = time.Time{}
}

func appendUnique(dst, names []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, n := range dst {
		seen[n] = struct{}{}
	}
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		dst = append(dst, n)
	}
	return dst
}

// InstalledRefreshDue reports whether the installed sets should be re-read
// now, and schedules the following poll.
func (a *App) InstalledRefreshDue(now time.Time) bool {
	if a.RefreshInstalledUntil.IsZero() {
		return false
	}
	if !now.Before(a.RefreshInstalledUntil) {
		a.RefreshInstalledUntil = time.Time{}
		a.NextInstalledRefreshAt = time.Time{}
		return false
	}
	if !a.NextInstalledRefreshAt.IsZero() && now.Before(a.NextInstalledRefreshAt) {
		return false
	}
	a.NextInstalledRefreshAt = now.Add(installed.PollInterval)
	return true
}

// InstalledChange lists the pending packages a refresh confirmed.
type InstalledChange struct {
	Installed []string
	Removed   []string
}

// Empty reports whether nothing was confirmed.
func (c InstalledChange) Empty() bool { return len(c.Installed) == 0 && len(c.Removed) == 0 }

// ApplyInstalled adopts fresh installed sets. When every pending install is
// now present (or every pending removal absent) the pending set and the
// matching list entries are cleared, and the confirmed names returned.
func (a *App) ApplyInstalled(snap installed.Snapshot) InstalledChange {
	a.Installed.Replace(snap)
	set := a.Installed.InstalledSet()

	var change InstalledChange
	if installed.AllPresent(a.PendingInstall, set) {
		change.Installed = a.PendingInstall
		for _, n := range a.PendingInstall {
			a.Install.Delete(n)
		}
		a.PendingInstall = nil
	}
	if installed.AllAbsent(a.PendingRemove, set) {
		change.Removed = a.PendingRemove
		for _, n := range a.PendingRemove {
			a.Remove.Delete(n)
		}
		a.PendingRemove = nil
	}
	if len(a.PendingInstall) == 0 && len(a.PendingRemove) == 0 {
		a.RefreshInstalledUntil = time.Time{}
		a.NextInstalledRefreshAt = time.Time{}
	}
	if a.InstalledOnly {
		a.AllResults = a.restrictInstalled(a.AllResults, a.resultsQuery)
		a.ApplyFiltersAndSortPreserveSelection()
	}
	switch {
	case len(change.Installed) > 0 && len(change.Removed) > 0:
		a.SetToast("Installed " + strings.Join(change.Installed, ", ") + "; removed " + strings.Join(change.Removed, ", "))
	case len(change.Installed) > 0:
		a.SetToast("Installed " + strings.Join(change.Installed, ", "))
	case len(change.Removed) > 0:
		a.SetToast("Removed " + strings.Join(change.Removed, ", "))
	}
	return change
}
