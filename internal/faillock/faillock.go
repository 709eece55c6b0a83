// Package faillock inspects pam_faillock state and sudo credentials before a
// privileged operation is started.
package faillock

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/papapumpkin/pacsea/internal/pacman"
)

// ErrBadPassword is returned when sudo rejects the supplied password.
var ErrBadPassword = errors.New("faillock: incorrect sudo password")

// ConfigPath is the system faillock configuration file.
const ConfigPath = "/etc/security/faillock.conf"

// Config holds the two faillock.conf settings that decide a lockout.
type Config struct {
	Deny         int
	FailInterval time.Duration
}

// DefaultConfig is used when faillock.conf is missing or silent.
func DefaultConfig() Config {
	return Config{Deny: 3, FailInterval: 15 * time.Minute}
}

// ReadConfig parses deny and fail_interval from path. Missing files and
// unparsable values fall back to the defaults.
func ReadConfig(path string) Config {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line, _, _ := strings.Cut(sc.Text(), "#")
		k, v, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			continue
		}
		switch strings.TrimSpace(k) {
		case "deny":
			cfg.Deny = n
		case "fail_interval":
			// faillock.conf stores seconds.
			cfg.FailInterval = time.Duration(n) * time.Second
		}
	}
	return cfg
}

// Status is the faillock state of one user.
type Status struct {
	Attempts   int
	Max        int
	Locked     bool
	Interval   time.Duration
	LastFailed time.Time
}

// Remaining returns how long the lockout still lasts, rounded up to whole
// minutes, or zero when the account is not locked.
func (s Status) Remaining(now time.Time) time.Duration {
	if !s.Locked {
		return 0
	}
	if s.LastFailed.IsZero() {
		return s.Interval
	}
	left := s.LastFailed.Add(s.Interval).Sub(now)
	if left <= 0 {
		return 0
	}
	return (left + time.Minute - 1) / time.Minute * time.Minute
}

// Message is the alert text for a locked account.
func (s Status) Message(user string, now time.Time) string {
	mins := int(s.Remaining(now) / time.Minute)
	return fmt.Sprintf("Account %s is locked by faillock after %d failed attempts. Try again in %d minute(s).", user, s.Attempts, mins)
}

// ParseStatus counts valid failure records of user in `faillock --user`
// output. A record line starts with a date and carries the " V" validity
// flag.
func ParseStatus(out, user string, cfg Config, now time.Time) Status {
	st := Status{Max: cfg.Deny, Interval: cfg.FailInterval}
	inUser := false
	for _, line := range strings.Split(out, "\n") {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		if strings.HasSuffix(t, ":") {
			inUser = strings.TrimSuffix(t, ":") == user
			continue
		}
		if !inUser || t[0] < '0' || t[0] > '9' {
			continue
		}
		if !strings.Contains(t, " V") && !strings.HasSuffix(t, "V") {
			continue
		}
		st.Attempts++
		if len(t) >= 19 {
			if ts, err := time.ParseInLocation("2006-01-02 15:04:05", t[:19], time.Local); err == nil && ts.After(st.LastFailed) {
				st.LastFailed = ts
			}
		}
	}
	if cfg.Deny > 0 && st.Attempts >= cfg.Deny {
		st.Locked = st.LastFailed.IsZero() || now.Sub(st.LastFailed) < cfg.FailInterval
	}
	return st
}

// Checker queries faillock and sudo through a pacman.Runner.
type Checker struct {
	Runner     pacman.Runner
	ConfigPath string
	Now        func() time.Time
}

// NewChecker returns a Checker reading the system configuration.
func NewChecker(r pacman.Runner) *Checker {
	if r == nil {
		r = pacman.ExecRunner{}
	}
	return &Checker{Runner: r, ConfigPath: ConfigPath, Now: time.Now}
}

// Check returns the faillock status of user. A failing faillock command is
// treated as "not locked".
func (c *Checker) Check(ctx context.Context, user string) Status {
	cfg := ReadConfig(c.ConfigPath)
	out, err := c.Runner.Run(ctx, "faillock", "--user", user)
	if err != nil {
		return Status{Max: cfg.Deny, Interval: cfg.FailInterval}
	}
	return ParseStatus(out, user, cfg, c.Now())
}

// Passwordless reports whether sudo currently needs no password.
func (c *Checker) Passwordless(ctx context.Context) bool {
	_, err := c.Runner.Run(ctx, "sudo", "-n", "true")
	return err == nil
}

// ValidatePassword drops cached credentials and checks pw with `sudo -S -v`.
func (c *Checker) ValidatePassword(ctx context.Context, pw string) error {
	script := "sudo -k ; printf '%s\\n' " + pacman.ShellQuote(pw) + " | sudo -S -v 2>/dev/null"
	if _, err := c.Runner.Run(ctx, "bash", "-c", script); err != nil {
		return ErrBadPassword
	}
	return nil
}

// CurrentUser returns $USER, falling back to $LOGNAME.
func CurrentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return os.Getenv("LOGNAME")
}
