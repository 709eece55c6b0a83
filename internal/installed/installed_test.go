package installed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/papapumpkin/pacsea/internal/pacman"
)

type mapRunner map[string]string

func (m mapRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	return m[name+" "+strings.Join(args, " ")], nil
}

func TestFetchAndCache(t *testing.T) {
	t.Parallel()

	c := pacman.NewClient(mapRunner{
		"pacman -Qq":  "bash\nglibc\nvim\n",
		"pacman -Qqe": "vim\n",
	})
	snap, err := Fetch(context.Background(), c)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	cache := NewCache()
	cache.Replace(snap)

	if !cache.IsInstalled("glibc") || cache.IsInstalled("emacs") {
		t.Error("IsInstalled mismatch")
	}
	if !cache.IsExplicit("vim") || cache.IsExplicit("bash") {
		t.Error("IsExplicit mismatch")
	}
	if got := cache.ExplicitNames(); len(got) != 1 || got[0] != "vim" {
		t.Errorf("ExplicitNames = %v", got)
	}
	set := cache.InstalledSet()
	delete(set, "bash")
	if !cache.IsInstalled("bash") {
		t.Error("InstalledSet must return a copy")
	}
}

func TestWindowEnd(t *testing.T) {
	t.Parallel()

	now := time.Now()
	for i := 0; i < 100; i++ {
		end := WindowEnd(now)
		if d := end.Sub(now); d < WindowMin || d > WindowMax {
			t.Fatalf("window %v outside [%v, %v]", d, WindowMin, WindowMax)
		}
	}
}

func TestAllPresentAbsent(t *testing.T) {
	t.Parallel()

	set := map[string]struct{}{"a": {}, "b": {}}
	tests := []struct {
		name    string
		names   []string
		present bool
		absent  bool
	}{
		{"empty", nil, false, false},
		{"all present", []string{"a", "b"}, true, false},
		{"mixed", []string{"a", "c"}, false, false},
		{"all absent", []string{"c", "d"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := AllPresent(tt.names, set); got != tt.present {
				t.Errorf("AllPresent = %v, want %v", got, tt.present)
			}
			if got := AllAbsent(tt.names, set); got != tt.absent {
				t.Errorf("AllAbsent = %v, want %v", got, tt.absent)
			}
		})
	}
}

func TestWatcher_DetectsLocalDBChange(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	// pacman creates one directory per installed package.
	if err := os.Mkdir(filepath.Join(dir, "ripgrep-14.1.0-1"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	select {
	case <-w.Changes:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

func TestWatcher_QuietDirectory(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	select {
	case <-w.Changes:
		t.Error("unexpected change event")
	case <-time.After(700 * time.Millisecond):
	}
}
