package details

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/papapumpkin/pacsea/internal/aur"
	"github.com/papapumpkin/pacsea/internal/bus"
	"github.com/papapumpkin/pacsea/internal/pacman"
	"github.com/papapumpkin/pacsea/internal/persist"
	"github.com/papapumpkin/pacsea/internal/pkginfo"
)

func TestCachePutMarksDirty(t *testing.T) {
	t.Parallel()

	c := NewCache()
	if c.Dirty() {
		t.Fatal("new cache is dirty")
	}
	c.Put(pkginfo.PackageDetails{Name: "x", Version: "1.0"})
	if !c.Dirty() || !c.Has("x") {
		t.Fatal("Put should store and mark dirty")
	}
	c.MarkClean()
	c.Put(pkginfo.PackageDetails{Name: "x", Version: "1.0"})
	if !c.Dirty() {
		t.Error("Put of identical details must still mark dirty")
	}
	c.Put(pkginfo.PackageDetails{})
	if c.Len() != 1 {
		t.Errorf("nameless details stored: Len = %d", c.Len())
	}
}

func TestCachePersistRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "details_cache.json")
	size := uint64(2048)
	c := NewCache()
	c.Put(pkginfo.PackageDetails{Name: "ripgrep", Version: "14.1-1", Depends: []string{"gcc-libs", "pcre2"}, InstallSize: &size})
	if err := persist.Flush([]persist.Snapshot{c.Snapshot(path)}); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if c.Dirty() {
		t.Error("flush should clear the dirty flag")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d, ok := loaded.Get("ripgrep")
	if !ok || d.Version != "14.1-1" || len(d.Depends) != 2 || d.InstallSize == nil || *d.InstallSize != size {
		t.Errorf("loaded = %+v", d)
	}
	if loaded.Dirty() {
		t.Error("loaded cache should be clean")
	}
}

func TestLoadDropsMismatchedKeys(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "details_cache.json")
	if err := os.WriteFile(path, []byte(`{"a":{"name":"a"},"b":{"name":"c"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Has("a") || c.Has("b") {
		t.Errorf("entries = %v", c.entries)
	}

	missing, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil || missing.Len() != 0 {
		t.Errorf("missing file: %v, %d", err, missing.Len())
	}
}

func TestGate(t *testing.T) {
	t.Parallel()

	g := NewGate()
	if !g.Allowed("anything") || g.Restricted() {
		t.Fatal("new gate must allow everything")
	}
	g.AllowOnly([]string{"a"})
	if !g.Allowed("a") || g.Allowed("b") || !g.Restricted() {
		t.Error("AllowOnly mismatch")
	}
	g.AllowAll()
	if !g.Allowed("b") {
		t.Error("AllowAll should lift restrictions")
	}
}

type fakeOfficial struct {
	mu        sync.Mutex
	sync      map[string]pacman.Record
	local     map[string]pacman.Record
	syncCalls [][]string
}

func (f *fakeOfficial) SyncInfo(_ context.Context, specs []string) map[string]pacman.Record {
	f.mu.Lock()
	f.syncCalls = append(f.syncCalls, specs)
	f.mu.Unlock()
	out := map[string]pacman.Record{}
	for _, s := range specs {
		if r, ok := f.sync[s]; ok {
			out[s] = r
		}
	}
	return out
}

func (f *fakeOfficial) LocalInfo(_ context.Context, names []string) map[string]pacman.Record {
	out := map[string]pacman.Record{}
	for _, n := range names {
		if r, ok := f.local[n]; ok {
			out[n] = r
		}
	}
	return out
}

type fakeAUR struct {
	info map[string]pkginfo.PackageDetails
	err  error
}

func (f *fakeAUR) Info(context.Context, []string) (map[string]pkginfo.PackageDetails, error) {
	return f.info, f.err
}

func (f *fakeAUR) PKGBUILD(_ context.Context, name string) (string, error) {
	return "pkgname=" + name, nil
}

func (f *fakeAUR) OfficialPKGBUILD(context.Context, string) (string, error) {
	return "", aur.ErrNotFound
}

func (f *fakeAUR) Comments(_ context.Context, name string) ([]aur.Comment, error) {
	return []aur.Comment{{ID: "1", Author: "alice", Content: name}}, nil
}

func TestFetch(t *testing.T) {
	t.Parallel()

	off := &fakeOfficial{
		sync:  map[string]pacman.Record{"bash": {"Name": "bash", "Repository": "core", "Version": "5.2-1"}},
		local: map[string]pacman.Record{"oldpkg": {"Name": "oldpkg", "Version": "0.9-1"}},
	}
	pop := 4.2
	au := &fakeAUR{info: map[string]pkginfo.PackageDetails{"yay": {Name: "yay", Repository: "AUR", Popularity: &pop}}}
	gate := NewGate()
	gate.AllowOnly([]string{"bash", "oldpkg", "yay", "ghost", "missing-aur"})
	w := NewWorker(off, au, gate, nil)

	items := []pkginfo.PackageItem{
		{Name: "bash", Source: pkginfo.Official("core", "x86_64")},
		{Name: "oldpkg", Source: pkginfo.Official("extra", "x86_64")},
		{Name: "ghost", Source: pkginfo.Official("extra", "")},
		{Name: "hidden", Source: pkginfo.Official("extra", "")},
		{Name: "yay", Source: pkginfo.AUR()},
		{Name: "missing-aur", Source: pkginfo.AUR()},
	}
	got := map[string]Result{}
	for _, r := range w.Fetch(context.Background(), items) {
		got[r.Name] = r
	}

	if _, ok := got["hidden"]; ok {
		t.Error("gated package was fetched")
	}
	if got["bash"].Details.Version != "5.2-1" {
		t.Errorf("bash = %+v", got["bash"])
	}
	if d := got["oldpkg"].Details; d.Version != "0.9-1" || d.Repository != "extra" {
		t.Errorf("local fallback = %+v", d)
	}
	if got["ghost"].Err == nil {
		t.Error("unresolvable official package should report an error")
	}
	if got["yay"].Details.Popularity == nil {
		t.Errorf("yay = %+v", got["yay"])
	}
	if !errors.Is(got["missing-aur"].Err, aur.ErrNotFound) {
		t.Errorf("missing-aur err = %v", got["missing-aur"].Err)
	}
}

func TestRunBatchesAndDeduplicates(t *testing.T) {
	t.Parallel()

	off := &fakeOfficial{sync: map[string]pacman.Record{
		"a": {"Name": "a"},
		"b": {"Name": "b"},
	}}
	w := NewWorker(off, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reqs := bus.NewQueue[pkginfo.PackageItem]()
	out := bus.NewQueue[Result]()
	for _, n := range []string{"a", "b", "a"} {
		reqs.Send(pkginfo.PackageItem{Name: n, Source: pkginfo.Official("extra", "")})
	}
	go w.Run(ctx, reqs, out)

	recvCtx, recvCancel := context.WithTimeout(ctx, 2*time.Second)
	defer recvCancel()
	for i := 0; i < 2; i++ {
		if _, err := out.Recv(recvCtx); err != nil {
			t.Fatalf("result %d: %v", i, err)
		}
	}
	off.mu.Lock()
	defer off.mu.Unlock()
	if len(off.syncCalls) != 1 || len(off.syncCalls[0]) != 2 {
		t.Errorf("sync calls = %v", off.syncCalls)
	}
}

func TestRunPKGBUILDAndComments(t *testing.T) {
	t.Parallel()

	w := NewWorker(nil, &fakeAUR{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pkReqs := bus.NewQueue[pkginfo.PackageItem]()
	pkOut := bus.NewQueue[Text]()
	go w.RunPKGBUILD(ctx, pkReqs, pkOut)
	pkReqs.Send(pkginfo.PackageItem{Name: "yay", Source: pkginfo.AUR()})
	pkReqs.Send(pkginfo.PackageItem{Name: "bash", Source: pkginfo.Official("core", "")})

	cmReqs := bus.NewQueue[string]()
	cmOut := bus.NewQueue[CommentsResult]()
	go w.RunComments(ctx, cmReqs, cmOut)
	cmReqs.Send("yay")

	recvCtx, recvCancel := context.WithTimeout(ctx, 2*time.Second)
	defer recvCancel()
	first, err := pkOut.Recv(recvCtx)
	if err != nil || first.Text != "pkgname=yay" {
		t.Errorf("aur pkgbuild = %+v, %v", first, err)
	}
	second, err := pkOut.Recv(recvCtx)
	if err != nil || !errors.Is(second.Err, aur.ErrNotFound) {
		t.Errorf("official pkgbuild = %+v, %v", second, err)
	}
	cm, err := cmOut.Recv(recvCtx)
	if err != nil || len(cm.Comments) != 1 || cm.Comments[0].Content != "yay" {
		t.Errorf("comments = %+v, %v", cm, err)
	}
}
