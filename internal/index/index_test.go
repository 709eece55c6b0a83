package index

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/papapumpkin/pacsea/internal/bus"
	"github.com/papapumpkin/pacsea/internal/pacman"
)

type fakeRunner struct {
	mu    sync.Mutex
	out   map[string]string
	calls []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key)
	out, ok := f.out[key]
	if !ok {
		return "", errors.New("exit status 1")
	}
	return out, nil
}

func testIndex(t *testing.T, out map[string]string) (*Index, *fakeRunner) {
	t.Helper()
	r := &fakeRunner{out: out}
	return New(filepath.Join(t.TempDir(), "official_index.json"), pacman.NewClient(r), nil), r
}

func TestUpdateSearchAndPersist(t *testing.T) {
	t.Parallel()

	x, _ := testIndex(t, map[string]string{
		"pacman -Sl core":  "core bash 5.2-1 [installed]\ncore glibc 2.39-1\n",
		"pacman -Sl extra": "extra ripgrep 14.1-1\nextra bash-completion 2.11-1\n",
	})
	ctx := context.Background()
	changed, err := x.Update(ctx, []string{"core", "extra", "multilib"})
	if err != nil || !changed {
		t.Fatalf("Update = %v, %v", changed, err)
	}
	if x.Len() != 4 {
		t.Errorf("Len = %d, want 4", x.Len())
	}

	got := x.Search("BASH")
	if len(got) != 2 {
		t.Fatalf("Search(BASH) = %v", got)
	}
	if got[0].Source.Repo != "core" || got[0].Source.IsAUR() {
		t.Errorf("source = %+v", got[0].Source)
	}
	if x.Search("  ") != nil {
		t.Error("blank search should match nothing")
	}

	// A second update with the same names reports no change.
	changed, err = x.Update(ctx, []string{"core", "extra"})
	if err != nil || changed {
		t.Errorf("second Update = %v, %v", changed, err)
	}

	reloaded := New(x.path, nil, nil)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.Len() != 4 {
		t.Errorf("reloaded Len = %d", reloaded.Len())
	}
}

func TestUpdateNothingListed(t *testing.T) {
	t.Parallel()

	x, _ := testIndex(t, nil)
	if _, err := x.Update(context.Background(), []string{"core"}); err == nil {
		t.Error("expected error when no repo lists packages")
	}
}

func TestEnrich(t *testing.T) {
	t.Parallel()

	x, r := testIndex(t, map[string]string{
		"pacman -Sl core": "core bash 5.2-1\ncore manjaro-release 1-1\n",
		"pacman -Si bash manjaro-release": "Repository : core\nName : bash\nVersion : 5.2-2\nDescription : The GNU shell\nArchitecture : x86_64\n\n" +
			"Repository : core\nName : manjaro-release\nVersion : 1-1\nDescription : release files\nArchitecture : any\nPackager : Manjaro Build Server\n",
	})
	ctx := context.Background()
	if _, err := x.Update(ctx, []string{"core"}); err != nil {
		t.Fatal(err)
	}
	n, err := x.Enrich(ctx, []string{"bash", "manjaro-release", "bash"})
	if err != nil || n != 2 {
		t.Fatalf("Enrich = %d, %v; calls %v", n, err, r.calls)
	}
	bash, _ := x.Lookup("bash")
	if bash.Description != "The GNU shell" || bash.Arch != "x86_64" || bash.Version != "5.2-2" {
		t.Errorf("bash = %+v", bash)
	}
	rel, _ := x.Lookup("manjaro-release")
	if rel.Repo != "manjaro" {
		t.Errorf("manjaro-release repo = %q", rel.Repo)
	}
	if got := x.MissingDescription([]string{"bash", "ghost"}); len(got) != 0 {
		t.Errorf("MissingDescription = %v", got)
	}
}

func TestRunEnricherNotifies(t *testing.T) {
	t.Parallel()

	x, _ := testIndex(t, map[string]string{
		"pacman -Sl core": "core bash 5.2-1\n",
		"pacman -Si bash": "Repository : core\nName : bash\nDescription : shell\n",
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := x.Update(ctx, []string{"core"}); err != nil {
		t.Fatal(err)
	}

	reqs := bus.NewQueue[[]string]()
	notify := bus.NewQueue[Notice]()
	done := make(chan struct{})
	go func() {
		x.RunEnricher(ctx, reqs, notify)
		close(done)
	}()

	reqs.Send([]string{"bash"})
	recvCtx, recvCancel := context.WithTimeout(ctx, 2*time.Second)
	defer recvCancel()
	got, err := notify.Recv(recvCtx)
	if err != nil {
		t.Fatalf("no notice: %v", err)
	}
	if got.Updated != 1 || got.Err != nil {
		t.Errorf("notice = %+v", got)
	}

	reqs.Close()
	<-done
}

func TestDistroRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  bool
		want bool
	}{
		{"eos repo", IsEOSRepo("EndeavourOS"), true},
		{"core not eos", IsEOSRepo("core"), false},
		{"cachyos variant", IsCachyOSRepo("CachyOS-extra-v3"), true},
		{"artix world", IsArtixRepo("world"), true},
		{"manjaro by name", IsManjaro("Manjaro-alsa", ""), true},
		{"manjaro by packager", IsManjaro("alsa", "Manjaro Team"), true},
		{"arch packager", IsManjaro("alsa", "Arch Linux"), false},
		{"eos name", IsEOSName("eos-hooks"), true},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}
