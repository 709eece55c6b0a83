package state

import (
	"strings"
	"time"

	"github.com/papapumpkin/pacsea/internal/index"
	"github.com/papapumpkin/pacsea/internal/pkginfo"
	"github.com/papapumpkin/pacsea/internal/search"
)

// SetInput records an edit of the search box. The query is sent once the
// input has been quiet for InputDebounce (see MaybeSendQuery).
func (a *App) SetInput(text string) {
	if text == a.Input {
		return
	}
	a.Input = text
	a.LastInputChange = a.now()
}

// SendQuery allocates the next query id, marks it as the latest and emits
// the current input to the search worker.
func (a *App) SendQuery() uint64 {
	id := a.NextQueryID
	a.NextQueryID++
	a.LatestQueryID = id
	a.LastSentInput = a.Input
	send(a.l, a.Out.Query, "query", search.Query{ID: id, Text: a.Input})
	return id
}

// MaybeSendQuery sends the input when it changed since the last query and
// has been stable for InputDebounce.
func (a *App) MaybeSendQuery(now time.Time) bool {
	if a.Input == a.LastSentInput || now.Sub(a.LastInputChange) < InputDebounce {
		return false
	}
	a.SendQuery()
	return true
}

// ApplySearchResults adopts res when it answers the latest query. Stale
// results are dropped and reported as false.
func (a *App) ApplySearchResults(res search.Results) bool {
	if res.ID != a.LatestQueryID {
		a.l.Trace("stale results dropped", "id", res.ID, "latest", a.LatestQueryID)
		return false
	}
	a.SearchErr = ""
	if res.Err != nil {
		a.SearchErr = res.Err.Error()
		a.l.Warn("search failed", "err", res.Err)
		a.SetToast("AUR search unavailable: showing official results")
	}
	a.resultsQuery = a.LastSentInput
	a.AllResults = a.restrictInstalled(res.Items, a.resultsQuery)
	if q := strings.TrimSpace(a.resultsQuery); q != "" {
		a.Recent.Add(q)
	}
	a.ApplyFiltersAndSortPreserveSelection()
	a.reopenSelection()
	return true
}

// restrictInstalled applies installed-only mode. A non-empty query keeps the
// explicitly installed results; an empty one lists every explicit package,
// described from the index where possible.
func (a *App) restrictInstalled(items []pkginfo.PackageItem, query string) []pkginfo.PackageItem {
	if !a.InstalledOnly {
		return append([]pkginfo.PackageItem(nil), items...)
	}
	if strings.TrimSpace(query) != "" {
		out := make([]pkginfo.PackageItem, 0, len(items))
		for _, it := range items {
			if a.Installed.IsExplicit(it.Name) {
				out = append(out, it)
			}
		}
		return out
	}
	names := a.Installed.ExplicitNames()
	out := make([]pkginfo.PackageItem, 0, len(names))
	for _, n := range names {
		if a.lookup != nil {
			if it, ok := a.lookup(n); ok {
				out = append(out, it)
				continue
			}
		}
		out = append(out, pkginfo.PackageItem{Name: n, Source: unindexedSource(n)})
	}
	return out
}

// unindexedSource labels an explicit package the index does not know:
// EndeavourOS by name, the AUR otherwise.
func unindexedSource(name string) pkginfo.Source {
	if index.IsEOSName(name) {
		return pkginfo.Official("EOS", "")
	}
	return pkginfo.AUR()
}

// ApplyFiltersAndSortPreserveSelection recomputes Results from AllResults
// with the current filters and sort mode. The selected package stays
// selected when it survives, otherwise the first row is.
func (a *App) ApplyFiltersAndSortPreserveSelection() {
	prev, hadPrev := a.SelectedItem()

	out := make([]pkginfo.PackageItem, 0, len(a.AllResults))
	for _, it := range a.AllResults {
		if a.Filters.Allows(it) {
			out = append(out, it)
		}
	}
	sortItems(out, a.SortMode, a.resultsQuery)
	a.Results = out

	a.Selected = 0
	if hadPrev {
		for i, it := range a.Results {
			if it.Name == prev.Name {
				a.Selected = i
				break
			}
		}
	}
	a.clampSelection()
}

func (a *App) clampSelection() {
	switch {
	case len(a.Results) == 0:
		a.Selected = 0
	case a.Selected >= len(a.Results):
		a.Selected = len(a.Results) - 1
	case a.Selected < 0:
		a.Selected = 0
	}
}

// ToggleFilter flips a repository filter and refilters the last results.
func (a *App) ToggleFilter(name string) {
	if !a.Filters.Toggle(name) {
		return
	}
	a.ApplyFiltersAndSortPreserveSelection()
	a.reopenSelection()
}

// CycleSort switches to the next sort mode and reorders the results.
func (a *App) CycleSort() {
	a.SortMode = a.SortMode.Next()
	a.ApplyFiltersAndSortPreserveSelection()
	a.SetToast("Sort: " + a.SortMode.Label())
}

// SetInstalledOnly switches installed-only mode and re-runs the query.
func (a *App) SetInstalledOnly(on bool) {
	if a.InstalledOnly == on {
		return
	}
	a.InstalledOnly = on
	a.SendQuery()
}

// RerunRecent loads the selected recent search into the input and runs it.
func (a *App) RerunRecent() {
	q, ok := a.Recent.At(a.RecentSelected)
	if !ok {
		return
	}
	a.Input = q
	a.LastInputChange = a.now()
	a.Focus = FocusSearch
	a.SendQuery()
}

// DeleteRecent removes the selected recent search.
func (a *App) DeleteRecent() {
	q, ok := a.Recent.At(a.RecentSelected)
	if !ok {
		return
	}
	a.Recent.Remove(q)
	if a.RecentSelected >= a.Recent.Len() && a.RecentSelected > 0 {
		a.RecentSelected = a.Recent.Len() - 1
	}
}
