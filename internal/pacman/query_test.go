package pacman

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeRunner answers commands from a table keyed by the joined argv.
type fakeRunner struct {
	mu    sync.Mutex
	out   map[string]string
	fail  map[string]bool
	calls []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()
	if f.fail[key] {
		return "", errors.New("exit status 1")
	}
	return f.out[key], nil
}

func TestVersionsFallsBackPerPackage(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{
		out: map[string]string{
			"pacman -Q bash": "bash 5.2-1\n",
			"pacman -Q vim":  "vim 9.1-1\n",
		},
		fail: map[string]bool{
			"pacman -Q bash ghost vim": true,
			"pacman -Q ghost":          true,
		},
	}
	c := NewClient(r)
	got := c.Versions(context.Background(), []string{"bash", "ghost", "vim"})
	if len(got) != 2 || got["bash"] != "5.2-1" || got["vim"] != "9.1-1" {
		t.Errorf("Versions = %v", got)
	}
	if len(r.calls) != 4 {
		t.Errorf("calls = %v, want batch plus three singles", r.calls)
	}
}

func TestSyncInfoBatch(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{out: map[string]string{"pacman -Si ripgrep bash": siOutput}}
	got := NewClient(r).SyncInfo(context.Background(), []string{"ripgrep", "bash"})
	if len(got) != 2 {
		t.Fatalf("SyncInfo returned %d records", len(got))
	}
	if got["bash"]["Repository"] != "core" {
		t.Errorf("bash repo = %q", got["bash"]["Repository"])
	}
}

func TestProvided(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{out: map[string]string{
		"pacman -Qi": "Name : pipewire-pulse\nProvides : pulseaudio=17.0  pulseaudio-bluetooth\n\nName : bash\nProvides : sh\n",
	}}
	got, err := NewClient(r).Provided(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"pulseaudio", "pulseaudio-bluetooth", "sh"} {
		if _, ok := got[want]; !ok {
			t.Errorf("Provided missing %q: %v", want, got)
		}
	}
}

func TestBackup(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{out: map[string]string{
		"pacman -Qii pacman": "Name : pacman\nBackup Files : /etc/pacman.conf\tUNMODIFIED\n               /etc/makepkg.conf\tMODIFIED\n",
	}}
	got, err := NewClient(r).Backup(context.Background(), "pacman")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "/etc/pacman.conf" || got[1] != "/etc/makepkg.conf" {
		t.Errorf("Backup = %v", got)
	}
}

func TestUpgradableTreatsExitAsEmpty(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{fail: map[string]bool{"pacman -Qu": true}}
	if got := NewClient(r).Upgradable(context.Background()); len(got) != 0 {
		t.Errorf("Upgradable = %v", got)
	}
}

func TestFileDBAge(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, ok := FileDBAge(dir, time.Now()); ok {
		t.Error("empty dir should report no database")
	}
	path := filepath.Join(dir, "core.files")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-10 * 24 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
	age, ok := FileDBAge(dir, time.Now())
	if !ok || age < 9*24*time.Hour {
		t.Errorf("FileDBAge = %v, %v", age, ok)
	}
}
