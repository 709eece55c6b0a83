package faillock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type stubRunner struct {
	out  string
	err  error
	last string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	s.last = name + " " + strings.Join(args, " ")
	return s.out, s.err
}

func TestReadConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "faillock.conf")
	conf := "# comment\ndeny = 5 # inline\n fail_interval=600\nunlock_time = 900\nbogus\n"
	if err := os.WriteFile(path, []byte(conf), 0o644); err != nil {
		t.Fatal(err)
	}
	got := ReadConfig(path)
	if got.Deny != 5 || got.FailInterval != 10*time.Minute {
		t.Errorf("ReadConfig = %+v", got)
	}
	if def := ReadConfig(filepath.Join(dir, "missing")); def != DefaultConfig() {
		t.Errorf("missing file = %+v, want defaults", def)
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 10, 0, 0, time.Local)
	out := `alice:
When                Type  Source                                           Valid
2024-03-01 12:00:00 TTY   /dev/pts/1                                           V
2024-03-01 12:01:00 TTY   /dev/pts/1                                           V
2024-03-01 12:02:00 TTY   /dev/pts/1                                           I
2024-03-01 12:03:00 TTY   /dev/pts/1                                           V
bob:
2024-03-01 12:03:00 TTY   /dev/pts/1                                           V
`
	tests := []struct {
		name       string
		user       string
		cfg        Config
		wantCount  int
		wantLocked bool
	}{
		{"locked within interval", "alice", Config{Deny: 3, FailInterval: 15 * time.Minute}, 3, true},
		{"interval elapsed", "alice", Config{Deny: 3, FailInterval: 5 * time.Minute}, 3, false},
		{"below deny", "alice", Config{Deny: 4, FailInterval: 15 * time.Minute}, 3, false},
		{"other user", "bob", DefaultConfig(), 1, false},
		{"unknown user", "carol", DefaultConfig(), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			st := ParseStatus(out, tt.user, tt.cfg, now)
			if st.Attempts != tt.wantCount || st.Locked != tt.wantLocked {
				t.Errorf("ParseStatus = attempts %d locked %v, want %d %v", st.Attempts, st.Locked, tt.wantCount, tt.wantLocked)
			}
		})
	}
}

func TestRemainingRoundsUp(t *testing.T) {
	t.Parallel()

	last := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	st := Status{Locked: true, Attempts: 3, Interval: 15 * time.Minute, LastFailed: last}
	now := last.Add(10*time.Minute + 30*time.Second)
	if got := st.Remaining(now); got != 5*time.Minute {
		t.Errorf("Remaining = %v, want 5m", got)
	}
	if msg := st.Message("alice", now); !strings.Contains(msg, "5 minute") {
		t.Errorf("Message = %q", msg)
	}
	if got := st.Remaining(last.Add(time.Hour)); got != 0 {
		t.Errorf("Remaining after expiry = %v", got)
	}
}

func TestCheckerCommands(t *testing.T) {
	t.Parallel()

	r := &stubRunner{err: errors.New("exit 1")}
	c := NewChecker(r)
	c.ConfigPath = filepath.Join(t.TempDir(), "none")
	ctx := context.Background()

	if st := c.Check(ctx, "alice"); st.Locked || st.Max != 3 {
		t.Errorf("Check on failure = %+v", st)
	}
	if r.last != "faillock --user alice" {
		t.Errorf("faillock argv = %q", r.last)
	}
	if c.Passwordless(ctx) {
		t.Error("Passwordless should be false when sudo -n fails")
	}
	if err := c.ValidatePassword(ctx, "it's"); !errors.Is(err, ErrBadPassword) {
		t.Errorf("ValidatePassword err = %v", err)
	}
	if !strings.Contains(r.last, `'it'\''s'`) {
		t.Errorf("password not quoted: %q", r.last)
	}
	if !strings.HasPrefix(r.last, "bash -c sudo -k ;") {
		t.Errorf("validation script = %q", r.last)
	}
}
