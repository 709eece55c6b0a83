package state

import "time"

// TickResult tells the caller which blocking work the tick asks for.
type TickResult struct {
	RefreshInstalled bool
}

// Tick advances every timer held in the state: the search debounce, ring
// resume, PKGBUILD and comments reloads, toast expiry and the installed
// refresh poll.
func (a *App) Tick(now time.Time) TickResult {
	a.MaybeSendQuery(now)

	if a.NeedRingPrefetch && !a.RingResumeAt.IsZero() && !now.Before(a.RingResumeAt) {
		a.NeedRingPrefetch = false
		a.ScrollMoves = 0
		a.RingResumeAt = time.Time{}
		a.SetAllowedRing(RingRadius)
		a.RingPrefetch(RingRadius)
	}

	if !a.PKGBUILDReloadAt.IsZero() && !now.Before(a.PKGBUILDReloadAt) {
		a.PKGBUILDReloadAt = time.Time{}
		if it, ok := a.SelectedItem(); ok && a.PKGBUILDOpen {
			a.requestPKGBUILD(it)
		}
	}
	if !a.CommentsReloadAt.IsZero() && !now.Before(a.CommentsReloadAt) {
		a.CommentsReloadAt = time.Time{}
		if it, ok := a.SelectedItem(); ok && a.CommentsOpen && it.Source.IsAUR() {
			a.requestComments(it.Name)
		}
	}

	if a.Toast != "" && !now.Before(a.ToastUntil) {
		a.Toast = ""
	}

	return TickResult{RefreshInstalled: a.InstalledRefreshDue(now)}
}
