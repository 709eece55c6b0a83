package state

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/papapumpkin/pacsea/internal/details"
	"github.com/papapumpkin/pacsea/internal/index"
	"github.com/papapumpkin/pacsea/internal/installed"
	"github.com/papapumpkin/pacsea/internal/persist"
	"github.com/papapumpkin/pacsea/internal/pkginfo"
	"github.com/papapumpkin/pacsea/internal/search"
)

// clock is a settable time source.
type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestApp(t *testing.T) (*App, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	a := New(Options{Out: NewOutbox(), Now: c.now})
	t.Cleanup(a.Out.Close)
	return a, c
}

func off(name, repo string) pkginfo.PackageItem {
	return pkginfo.PackageItem{Name: name, Version: "1.0-1", Description: name + " package", Source: pkginfo.Official(repo, "x86_64")}
}

func aurPkg(name string, pop float64) pkginfo.PackageItem {
	return pkginfo.PackageItem{Name: name, Version: "1.0-1", Description: name, Source: pkginfo.AUR(), Popularity: &pop}
}

func drainNames(q interface {
	Drain() []pkginfo.PackageItem
}) []string {
	return pkginfo.Names(q.Drain())
}

func TestStaleResultsIgnored(t *testing.T) {
	t.Parallel()
	a, _ := newTestApp(t)
	a.Input = "vim"
	a.SendQuery()
	a.Input = "vim-x"
	latest := a.SendQuery()

	if a.ApplySearchResults(search.Results{ID: latest - 1, Items: []pkginfo.PackageItem{off("vim", "extra")}}) {
		t.Fatal("stale results adopted")
	}
	if len(a.Results) != 0 {
		t.Errorf("Results = %v, want none", a.Results)
	}
	if a.Out.Details.Len() != 0 {
		t.Errorf("stale results requested details")
	}
}

func TestQueryIDsMonotonic(t *testing.T) {
	t.Parallel()
	a, _ := newTestApp(t)
	var prev uint64
	for range 5 {
		id := a.SendQuery()
		if id <= prev || id != a.LatestQueryID {
			t.Fatalf("id %d after %d, latest %d", id, prev, a.LatestQueryID)
		}
		prev = id
	}
	if got := len(a.Out.Query.Drain()); got != 5 {
		t.Errorf("queries sent = %d, want 5", got)
	}
}

func TestInputDebounce(t *testing.T) {
	t.Parallel()
	a, c := newTestApp(t)
	a.SetInput("fire")
	if a.MaybeSendQuery(c.t) {
		t.Fatal("sent before debounce")
	}
	c.advance(InputDebounce)
	if !a.MaybeSendQuery(c.t) {
		t.Fatal("not sent after debounce")
	}
	if a.MaybeSendQuery(c.t.Add(time.Second)) {
		t.Error("unchanged input sent twice")
	}
	q, ok := a.Out.Query.TryRecv()
	if !ok || q.Text != "fire" || q.ID != a.LatestQueryID {
		t.Errorf("query = %+v, %v", q, ok)
	}
}

func TestAdoptRequestsDetailsOnlyWhenUncached(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cached  bool
		wantReq []string
	}{
		{"uncached", false, []string{"ripgrep"}},
		{"cached", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, _ := newTestApp(t)
			if tt.cached {
				a.Cache.Put(pkginfo.PackageDetails{Name: "ripgrep", Version: "14.1.0-1", URL: "https://example.org"})
			}
			a.Input = "ripgrep"
			id := a.SendQuery()
			ok := a.ApplySearchResults(search.Results{ID: id, Items: []pkginfo.PackageItem{off("ripgrep", "extra")}})
			if !ok {
				t.Fatal("matching results dropped")
			}
			if got := drainNames(a.Out.Details); len(got) != len(tt.wantReq) || (len(got) > 0 && got[0] != tt.wantReq[0]) {
				t.Errorf("details requests = %v, want %v", got, tt.wantReq)
			}
			if a.Details.Name != "ripgrep" {
				t.Errorf("details pane shows %q", a.Details.Name)
			}
			if tt.cached && a.Details.URL == "" {
				t.Error("cached details not shown")
			}
		})
	}
}

func TestSelectionPreservedByName(t *testing.T) {
	t.Parallel()
	a, _ := newTestApp(t)
	id := a.SendQuery()
	a.ApplySearchResults(search.Results{ID: id, Items: []pkginfo.PackageItem{off("a", "core"), off("b", "extra"), off("c", "extra")}})
	a.MoveSelCached(2)
	if it, _ := a.SelectedItem(); it.Name != "c" {
		t.Fatalf("selected %q", it.Name)
	}

	id = a.SendQuery()
	a.ApplySearchResults(search.Results{ID: id, Items: []pkginfo.PackageItem{off("c", "extra"), off("d", "extra")}})
	if it, _ := a.SelectedItem(); it.Name != "c" {
		t.Errorf("selection not preserved: %q", it.Name)
	}

	id = a.SendQuery()
	a.ApplySearchResults(search.Results{ID: id, Items: []pkginfo.PackageItem{off("x", "extra")}})
	if a.Selected != 0 {
		t.Errorf("fallback selection = %d", a.Selected)
	}
	id = a.SendQuery()
	a.ApplySearchResults(search.Results{ID: id})
	if a.Selected != 0 || len(a.Results) != 0 {
		t.Errorf("empty results: selected %d, %d rows", a.Selected, len(a.Results))
	}
}

func TestApplyDetailsMergesRowsAndDirtiesCache(t *testing.T) {
	t.Parallel()
	a, _ := newTestApp(t)
	id := a.SendQuery()
	a.ApplySearchResults(search.Results{ID: id, Items: []pkginfo.PackageItem{
		{Name: "zoxide", Source: pkginfo.Official("", "")},
	}})
	a.Cache.MarkClean()

	a.ApplyDetails(details.Result{Name: "zoxide", Details: pkginfo.PackageDetails{
		Name: "zoxide", Version: "0.9.4-1", Description: "smarter cd", Repository: "extra", Architecture: "x86_64",
	}})

	for _, rows := range [][]pkginfo.PackageItem{a.Results, a.AllResults} {
		got := rows[0]
		if got.Version != "0.9.4-1" || got.Description != "smarter cd" || got.Source.Repo != "extra" || got.Source.Arch != "x86_64" {
			t.Errorf("row not merged: %+v", got)
		}
	}
	if !a.Cache.Dirty() || !a.Cache.Has("zoxide") {
		t.Error("cache not updated")
	}
	if a.Details.Version != "0.9.4-1" {
		t.Errorf("pane not refreshed: %+v", a.Details)
	}

	a.Cache.MarkClean()
	a.ApplyDetails(details.Result{Name: "zoxide", Err: errors.New("boom")})
	if a.Cache.Dirty() {
		t.Error("failed lookup dirtied cache")
	}
}

func TestFiltersAndUnknownRepos(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		toggle string
		item   pkginfo.PackageItem
		want   bool
	}{
		{"aur off", "aur", aurPkg("yay", 1), false},
		{"core off", "core", off("glibc", "core"), false},
		{"extra on with core off", "core", off("vim", "extra"), true},
		{"cachyos variant", "cachyos", off("linux-cachyos", "cachyos-v3"), false},
		{"manjaro by name", "manjaro", off("manjaro-settings", "extra"), false},
		{"unknown repo hidden when any official off", "artix", off("thing", "chaotic-aur"), false},
		{"unknown repo shown when only aur off", "aur", off("thing", "chaotic-aur"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := AllFilters()
			if !f.Toggle(tt.toggle) {
				t.Fatalf("unknown filter %q", tt.toggle)
			}
			if got := f.Allows(tt.item); got != tt.want {
				t.Errorf("Allows(%s/%s) = %v, want %v", tt.item.Source.Label(), tt.item.Name, got, tt.want)
			}
		})
	}
}

func TestToggleFilterIsIdempotentOnAllResults(t *testing.T) {
	t.Parallel()
	a, _ := newTestApp(t)
	id := a.SendQuery()
	a.ApplySearchResults(search.Results{ID: id, Items: []pkginfo.PackageItem{off("a", "core"), aurPkg("b", 2), off("c", "extra")}})
	a.MoveSelCached(2)

	a.ToggleFilter("aur")
	if len(a.Results) != 2 || len(a.AllResults) != 3 {
		t.Fatalf("results %d/%d", len(a.Results), len(a.AllResults))
	}
	first := pkginfo.Names(a.Results)
	a.ApplyFiltersAndSortPreserveSelection()
	if again := pkginfo.Names(a.Results); len(again) != len(first) || again[0] != first[0] || again[1] != first[1] {
		t.Errorf("refilter changed rows: %v then %v", first, again)
	}
	a.ToggleFilter("aur")
	if len(a.Results) != 3 {
		t.Errorf("re-enabled filter shows %d rows", len(a.Results))
	}
}

func TestSortModes(t *testing.T) {
	t.Parallel()
	items := []pkginfo.PackageItem{
		aurPkg("vim-plug", 5), off("gvim", "extra"), off("vim", "extra"), aurPkg("vim-git", 9), off("vi", "core"),
	}

	tests := []struct {
		mode SortMode
		want []string
	}{
		{SortRepoThenName, []string{"vi", "gvim", "vim", "vim-git", "vim-plug"}},
		{SortAURPopularity, []string{"vim-git", "vim-plug", "vi", "gvim", "vim"}},
		{SortBestMatches, []string{"vim", "vim-git", "vim-plug", "gvim", "vi"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			t.Parallel()
			got := append([]pkginfo.PackageItem(nil), items...)
			sortItems(got, tt.mode, "vim")
			names := pkginfo.Names(got)
			for i := range tt.want {
				if names[i] != tt.want[i] {
					t.Fatalf("order = %v, want %v", names, tt.want)
				}
			}
		})
	}
}

func TestParseSortModeAliases(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]SortMode{
		"alphabetical": SortRepoThenName, "pacman": SortRepoThenName, "repo_then_name": SortRepoThenName,
		"popularity": SortAURPopularity, "relevance": SortBestMatches, "BEST_MATCHES": SortBestMatches,
	} {
		if got, ok := ParseSortMode(in); !ok || got != want {
			t.Errorf("ParseSortMode(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseSortMode("random"); ok {
		t.Error("unknown mode accepted")
	}
	if SortBestMatches.Next() != SortRepoThenName {
		t.Error("cycle does not wrap")
	}
}

func TestInstalledOnly(t *testing.T) {
	t.Parallel()
	c := &clock{t: time.Now()}
	inst := installed.NewCache()
	inst.Replace(installed.Snapshot{
		Installed: map[string]struct{}{"vim": {}, "zlib": {}, "my-local": {}, "eos-hooks": {}},
		Explicit:  map[string]struct{}{"vim": {}, "my-local": {}, "eos-hooks": {}},
	})
	lookup := func(name string) (pkginfo.PackageItem, bool) {
		if name == "vim" {
			return off("vim", "extra"), true
		}
		return pkginfo.PackageItem{}, false
	}
	a := New(Options{Out: NewOutbox(), Now: c.now, Installed: inst, Lookup: lookup, InstalledOnly: true, SortMode: SortRepoThenName})
	t.Cleanup(a.Out.Close)

	a.Input = "v"
	id := a.SendQuery()
	a.ApplySearchResults(search.Results{ID: id, Items: []pkginfo.PackageItem{off("vim", "extra"), off("vifm", "extra"), off("zlib", "core")}})
	if got := pkginfo.Names(a.Results); len(got) != 1 || got[0] != "vim" {
		t.Errorf("non-empty query rows = %v, want [vim]", got)
	}

	a.Input = ""
	id = a.SendQuery()
	a.ApplySearchResults(search.Results{ID: id, Items: []pkginfo.PackageItem{off("bash", "core")}})
	if len(a.Results) != 3 {
		t.Fatalf("empty query rows = %v", pkginfo.Names(a.Results))
	}
	for _, it := range a.Results {
		switch it.Name {
		case "vim":
			if it.Source.Repo != "extra" || it.Description == "" {
				t.Errorf("vim not described from the index: %+v", it)
			}
		case "my-local":
			if !it.Source.IsAUR() {
				t.Errorf("my-local source = %+v, want AUR", it.Source)
			}
		case "eos-hooks":
			if it.Source.IsAUR() || !index.IsEOSRepo(it.Source.Repo) {
				t.Errorf("eos-hooks source = %+v, want EOS", it.Source)
			}
			f := AllFilters()
			f.Toggle("eos")
			if f.Allows(it) {
				t.Error("eos filter does not hide eos-hooks")
			}
		default:
			t.Errorf("unexpected row %q", it.Name)
		}
	}
}

func TestNewRestoresLists(t *testing.T) {
	t.Parallel()
	install := NewPackageList()
	install.Add(off("fd", "extra"))
	a := New(Options{Out: NewOutbox(), RecentCapacity: 5, Recent: []string{"zsh", "vim"}, Install: install})
	t.Cleanup(a.Out.Close)

	if q, _ := a.Recent.At(0); q != "zsh" || a.Recent.Len() != 2 || a.Recent.Dirty() {
		t.Errorf("recent = %q (len %d, dirty %v), want zsh first and clean", q, a.Recent.Len(), a.Recent.Dirty())
	}
	if !a.Install.Contains("fd") {
		t.Error("install list not restored")
	}
	b := New(Options{Out: NewOutbox()})
	t.Cleanup(b.Out.Close)
	if b.Install == nil || b.Recent.Len() != 0 {
		t.Error("defaults not empty lists")
	}
}

func TestPackageList(t *testing.T) {
	t.Parallel()
	l := NewPackageList()
	l.Add(off("a", "core"))
	l.Add(off("B", "core"))
	if l.Add(off("b", "extra")) {
		t.Error("case-insensitive duplicate added")
	}
	if got := l.Names(); len(got) != 2 || got[0] != "B" {
		t.Errorf("Names = %v, want newest first", got)
	}
	if !l.Contains("b") || !l.Delete("b") || l.Contains("B") {
		t.Error("membership out of step with list")
	}
	if l.Len() != 1 {
		t.Errorf("Len = %d", l.Len())
	}
}

func TestPackageListPersist(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "install_list.json")
	l := NewPackageList()
	l.Add(off("a", "core"))
	l.Add(aurPkg("b", 1))

	snap := l.Snapshot("install list", path)
	if !snap.Dirty() {
		t.Fatal("new list not dirty")
	}
	if err := persist.Flush([]persist.Snapshot{snap}); err != nil {
		t.Fatal(err)
	}
	if l.Dirty() {
		t.Error("flush left list dirty")
	}

	got, err := LoadPackageList(path)
	if err != nil {
		t.Fatalf("LoadPackageList: %v", err)
	}
	if names := got.Names(); len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Errorf("restored order = %v", names)
	}
	if got.Dirty() {
		t.Error("restored list dirty")
	}
}

func TestInstalledRefreshWindow(t *testing.T) {
	t.Parallel()
	a, c := newTestApp(t)
	a.Install.Add(off("vim", "extra"))
	a.Install.Add(off("git", "extra"))

	a.MarkMutation([]string{"vim"}, nil)
	until := a.RefreshInstalledUntil.Sub(c.t)
	if until < installed.WindowMin || until > installed.WindowMax {
		t.Fatalf("window = %v", until)
	}

	if !a.InstalledRefreshDue(c.t) {
		t.Fatal("first poll not due")
	}
	if a.InstalledRefreshDue(c.t.Add(500 * time.Millisecond)) {
		t.Error("poll due before interval")
	}
	c.advance(installed.PollInterval)
	if !a.InstalledRefreshDue(c.t) {
		t.Error("poll not due after interval")
	}

	change := a.ApplyInstalled(installed.Snapshot{Installed: map[string]struct{}{"git": {}}})
	if !change.Empty() || len(a.PendingInstall) != 1 {
		t.Fatalf("premature confirmation: %+v", change)
	}

	change = a.ApplyInstalled(installed.Snapshot{Installed: map[string]struct{}{"vim": {}}})
	if len(change.Installed) != 1 || change.Installed[0] != "vim" {
		t.Errorf("change = %+v", change)
	}
	if a.Install.Contains("vim") || !a.Install.Contains("git") {
		t.Errorf("install list = %v", a.Install.Names())
	}
	if !a.RefreshInstalledUntil.IsZero() {
		t.Error("window kept open with nothing pending")
	}
}

func TestInstalledRefreshExpires(t *testing.T) {
	t.Parallel()
	a, c := newTestApp(t)
	a.MarkMutation(nil, []string{"vim"})
	c.advance(installed.WindowMax + time.Second)
	if a.InstalledRefreshDue(c.t) {
		t.Error("poll due after window")
	}
}

func TestPKGBUILDReloadDebounced(t *testing.T) {
	t.Parallel()
	a, c := newTestApp(t)
	id := a.SendQuery()
	a.ApplySearchResults(search.Results{ID: id, Items: []pkginfo.PackageItem{aurPkg("a", 1), aurPkg("b", 1)}})
	a.TogglePKGBUILD()
	if it, ok := a.Out.PKGBUILD.TryRecv(); !ok || it.Name != "a" {
		t.Fatalf("open request = %v, %v", it.Name, ok)
	}

	a.MoveSelCached(1)
	if a.Out.PKGBUILD.Len() != 0 {
		t.Fatal("reload sent without debounce")
	}
	a.Tick(c.t.Add(ReloadDebounce - time.Millisecond))
	if a.Out.PKGBUILD.Len() != 0 {
		t.Fatal("reload sent early")
	}
	a.Tick(c.t.Add(ReloadDebounce))
	if it, ok := a.Out.PKGBUILD.TryRecv(); !ok || it.Name != "b" {
		t.Errorf("reload = %v, %v", it.Name, ok)
	}

	a.ApplyPKGBUILD(details.Text{Name: "a", Text: "stale"})
	if a.PKGBUILDText != "" {
		t.Error("PKGBUILD for another package shown")
	}
	a.ApplyPKGBUILD(details.Text{Name: "b", Text: "pkgname=b"})
	if a.PKGBUILDText != "pkgname=b" {
		t.Errorf("text = %q", a.PKGBUILDText)
	}
}

func TestCommentsOnlyForAUR(t *testing.T) {
	t.Parallel()
	a, _ := newTestApp(t)
	id := a.SendQuery()
	a.ApplySearchResults(search.Results{ID: id, Items: []pkginfo.PackageItem{off("vim", "extra")}})
	a.ToggleComments()
	if a.CommentsOpen || a.Out.Comments.Len() != 0 {
		t.Error("comments opened for an official package")
	}
	if a.Toast == "" {
		t.Error("no feedback toast")
	}
}

func TestToastExpires(t *testing.T) {
	t.Parallel()
	a, c := newTestApp(t)
	a.SetToast("hello")
	a.Tick(c.t.Add(ToastDuration - time.Millisecond))
	if a.Toast == "" {
		t.Fatal("toast expired early")
	}
	a.Tick(c.t.Add(ToastDuration))
	if a.Toast != "" {
		t.Error("toast not expired")
	}
}

func TestRecentFromAdoptedQueries(t *testing.T) {
	t.Parallel()
	a, _ := newTestApp(t)
	for _, q := range []string{"vim", "git", "Vim"} {
		a.Input = q
		id := a.SendQuery()
		a.ApplySearchResults(search.Results{ID: id})
	}
	if got := a.Recent.Items(); len(got) != 2 || got[0] != "Vim" {
		t.Errorf("recent = %v", got)
	}

	a.RecentSelected = 1
	a.RerunRecent()
	if a.Input != "git" || a.Focus != FocusSearch {
		t.Errorf("rerun input %q focus %v", a.Input, a.Focus)
	}
}
