package state

import (
	"time"

	"github.com/papapumpkin/pacsea/internal/details"
	"github.com/papapumpkin/pacsea/internal/pkginfo"
)

// MoveSelCached moves the selection by delta and keeps the details pane
// and the prefetch ring in step with it.
//
// Fast scrolling (more than FastScroll accumulated moves) restricts fetching
// to the selected row until the selection has rested for RingResume.
func (a *App) MoveSelCached(delta int) {
	if len(a.Results) == 0 {
		return
	}
	a.Selected += delta
	a.clampSelection()
	it := a.Results[a.Selected]
	a.Preview()

	now := a.now()
	if a.PKGBUILDOpen && a.PKGBUILDName != it.Name {
		a.PKGBUILDText = ""
		a.PKGBUILDReloadAt = now.Add(ReloadDebounce)
	}
	if a.CommentsOpen && it.Source.IsAUR() && a.CommentsName != it.Name {
		a.CommentsReloadAt = now.Add(ReloadDebounce)
	}

	if delta < 0 {
		delta = -delta
	}
	a.ScrollMoves += delta

	if a.NeedRingPrefetch {
		a.SetAllowedOnlySelected()
		a.RingResumeAt = now.Add(RingResume)
		return
	}
	if a.ScrollMoves > FastScroll {
		a.NeedRingPrefetch = true
		a.SetAllowedOnlySelected()
		a.RingResumeAt = now.Add(RingResume)
		return
	}
	a.SetAllowedRing(RingRadius)
	a.RingPrefetch(RingRadius)
}

// Preview shows the selected row: cached details when present, otherwise
// a placeholder built from the row while the real details are requested.
func (a *App) Preview() {
	it, ok := a.SelectedItem()
	if !ok {
		a.Details = pkginfo.PackageDetails{}
		return
	}
	if d, ok := a.Cache.Get(it.Name); ok {
		a.Details = d
		return
	}
	a.Details = pkginfo.Placeholder(it)
	send(a.l, a.Out.Details, "details", it)
}

// ApplyDetails merges a details response into the result rows and the
// cache. Failed lookups are logged and leave the rows untouched.
func (a *App) ApplyDetails(res details.Result) {
	if res.Err != nil {
		a.l.Debug("details unavailable", "package", res.Name, "err", res.Err)
		return
	}
	d := res.Details
	if d.Name == "" {
		d.Name = res.Name
	}
	a.Cache.Put(d)
	for i := range a.Results {
		if a.Results[i].Name == d.Name {
			d.MergeInto(&a.Results[i])
		}
	}
	for i := range a.AllResults {
		if a.AllResults[i].Name == d.Name {
			d.MergeInto(&a.AllResults[i])
		}
	}
	if it, ok := a.SelectedItem(); ok && it.Name == d.Name {
		a.Details = d
	}
}

// ringIndices returns the indices around the selection out to radius,
// alternating above and below.
func (a *App) ringIndices(radius int) []int {
	out := make([]int, 0, 2*radius)
	for k := 1; k <= radius; k++ {
		if i := a.Selected - k; i >= 0 {
			out = append(out, i)
		}
		if i := a.Selected + k; i < len(a.Results) {
			out = append(out, i)
		}
	}
	return out
}

// SetAllowedRing lets the details worker fetch the selection and its
// neighbours within radius.
func (a *App) SetAllowedRing(radius int) {
	if len(a.Results) == 0 {
		a.Gate.AllowAll()
		return
	}
	names := []string{a.Results[a.Selected].Name}
	for _, i := range a.ringIndices(radius) {
		names = append(names, a.Results[i].Name)
	}
	a.Gate.AllowOnly(names)
}

// reopenSelection runs after the result rows were replaced: the gate is
// widened to the ring around the new selection, which is previewed, and its
// neighbours are prefetched unless a fast scroll is still settling.
func (a *App) reopenSelection() {
	a.SetAllowedRing(RingRadius)
	a.Preview()
	if !a.NeedRingPrefetch {
		a.RingPrefetch(RingRadius)
	}
}

// SetAllowedOnlySelected restricts the details worker to the selection.
func (a *App) SetAllowedOnlySelected() {
	it, ok := a.SelectedItem()
	if !ok {
		return
	}
	a.Gate.AllowOnly([]string{it.Name})
}

// RingPrefetch requests details for uncached allowed neighbours and asks
// the index to describe official packages that lack a description.
func (a *App) RingPrefetch(radius int) {
	for _, i := range a.ringIndices(radius) {
		it := a.Results[i]
		if a.Cache.Has(it.Name) || !a.Gate.Allowed(it.Name) {
			continue
		}
		send(a.l, a.Out.Details, "details", it)
	}
	a.RequestEnrichment(radius)
}

// RequestEnrichment sends the official packages within radius that have no
// description to the index enricher. Each name is asked for once.
func (a *App) RequestEnrichment(radius int) {
	if len(a.Results) == 0 {
		return
	}
	if a.enrichAsked == nil {
		a.enrichAsked = make(map[string]struct{})
	}
	idx := append([]int{a.Selected}, a.ringIndices(radius)...)
	var names []string
	for _, i := range idx {
		it := a.Results[i]
		if it.Source.IsAUR() || it.Description != "" {
			continue
		}
		if _, asked := a.enrichAsked[it.Name]; asked {
			continue
		}
		a.enrichAsked[it.Name] = struct{}{}
		names = append(names, it.Name)
	}
	if len(names) > 0 {
		send(a.l, a.Out.Enrich, "enrich", names)
	}
}

// ApplyIndexUpdate refreshes descriptions of displayed rows from lookup
// after the index changed.
func (a *App) ApplyIndexUpdate() {
	if a.lookup == nil {
		return
	}
	refresh := func(items []pkginfo.PackageItem) {
		for i := range items {
			if items[i].Source.IsAUR() || items[i].Description != "" {
				continue
			}
			if it, ok := a.lookup(items[i].Name); ok && it.Description != "" {
				items[i].Description = it.Description
				if items[i].Version == "" {
					items[i].Version = it.Version
				}
			}
		}
	}
	refresh(a.Results)
	refresh(a.AllResults)
}

// TogglePKGBUILD opens the PKGBUILD viewer for the selection, or closes it.
func (a *App) TogglePKGBUILD() {
	if a.PKGBUILDOpen {
		a.PKGBUILDOpen = false
		a.PKGBUILDName, a.PKGBUILDText = "", ""
		a.PKGBUILDReloadAt = time.Time{}
		return
	}
	it, ok := a.SelectedItem()
	if !ok {
		return
	}
	a.PKGBUILDOpen = true
	a.requestPKGBUILD(it)
}

func (a *App) requestPKGBUILD(it pkginfo.PackageItem) {
	a.PKGBUILDName = it.Name
	a.PKGBUILDText = ""
	send(a.l, a.Out.PKGBUILD, "pkgbuild", it)
}

// ApplyPKGBUILD shows a fetched PKGBUILD if it belongs to the package the
// viewer is showing.
func (a *App) ApplyPKGBUILD(t details.Text) {
	if !a.PKGBUILDOpen || t.Name != a.PKGBUILDName {
		return
	}
	if t.Err != nil {
		a.PKGBUILDText = "Failed to load PKGBUILD: " + t.Err.Error()
		return
	}
	a.PKGBUILDText = t.Text
}

// ToggleComments opens the AUR comments pane for the selection, or closes
// it. Official packages have no comments.
func (a *App) ToggleComments() {
	if a.CommentsOpen {
		a.CommentsOpen = false
		a.CommentsName, a.Comments = "", nil
		a.CommentsReloadAt = time.Time{}
		return
	}
	it, ok := a.SelectedItem()
	if !ok {
		return
	}
	if !it.Source.IsAUR() {
		a.SetToast("Comments are only available for AUR packages")
		return
	}
	a.CommentsOpen = true
	a.requestComments(it.Name)
}

func (a *App) requestComments(name string) {
	a.CommentsName = name
	a.Comments = nil
	a.CommentsLoading = true
	send(a.l, a.Out.Comments, "comments", name)
}

// ApplyComments shows fetched comments for the package the pane is showing.
func (a *App) ApplyComments(r details.CommentsResult) {
	if !a.CommentsOpen || r.Name != a.CommentsName {
		return
	}
	a.CommentsLoading = false
	if r.Err != nil {
		a.Comments = []CommentLine{{Text: "Failed to load comments: " + r.Err.Error()}}
		return
	}
	a.Comments = make([]CommentLine, 0, len(r.Comments))
	for _, c := range r.Comments {
		a.Comments = append(a.Comments, CommentLine{Author: c.Author, Date: c.Date, Pinned: c.Pinned, Text: c.Content})
	}
}
