package executor

import (
	"fmt"
	"os"
	"strings"

	"github.com/papapumpkin/pacsea/internal/pacman"
	"github.com/papapumpkin/pacsea/internal/pkginfo"
)

// HoldTail keeps a spawned terminal open after the command finishes. The
// PTY path omits it because the TUI owns the close key.
const HoldTail = "; echo; echo 'Finished.'; echo 'Press any key to close...'; read -rn1 -s _ || (echo; echo 'Press Ctrl+C to close'; sleep infinity)"

const yesAnswer = `[ "$ans" = "y" ] || [ "$ans" = "Y" ]`

// Built is a synthesized command. Display is the same command built
// without the password; it is what gets logged and recorded in history.
type Built struct {
	Command string
	Display string
	cleanup func()
}

// Cleanup removes temporary files created for the command.
func (b Built) Cleanup() {
	if b.cleanup != nil {
		b.cleanup()
	}
}

// InstalledFunc reports whether a package is currently installed.
type InstalledFunc func(name string) bool

// Build synthesizes the shell command for r.
func Build(r Request, installed InstalledFunc) (Built, error) {
	if installed == nil {
		installed = func(string) bool { return false }
	}
	if r.DryRun {
		display := command(r, "", installed)
		if display == "" {
			return Built{}, fmt.Errorf("executor: nothing to do for %s", r.Kind)
		}
		dry := DryRun(display)
		return Built{Command: dry, Display: dry}, nil
	}
	if r.Kind == KindCustom {
		return customCommand(r.Command, r.Password)
	}
	display := command(r, "", installed)
	if display == "" {
		return Built{}, fmt.Errorf("executor: nothing to do for %s", r.Kind)
	}
	return Built{Command: command(r, r.Password, installed), Display: display}, nil
}

func command(r Request, pw string, installed InstalledFunc) string {
	switch r.Kind {
	case KindInstall:
		return InstallCommand(r.Items, pw, installed)
	case KindRemove:
		return RemoveCommand(r.Names, pw, r.Cascade)
	case KindDowngrade:
		return DowngradeCommand(r.Names, pw)
	case KindUpdate:
		return UpdateCommand(r.Commands, pw)
	case KindScan:
		return ScanCommand(r.Package, r.Scan)
	case KindCustom:
		return r.Command
	}
	return ""
}

// Sudo returns the sudo prefix for a command. With a password, the
// password is piped to `sudo -S`.
func Sudo(pw string) string {
	if pw == "" {
		return "sudo "
	}
	return "printf '%s\\n' " + pacman.ShellQuote(pw) + " | sudo -S "
}

// DryRun replaces cmd with an echo of it.
func DryRun(cmd string) string {
	return "echo DRY RUN: " + pacman.ShellQuote(cmd)
}

// InstallCommand builds the install command for a mix of official and AUR
// packages. Official packages that are all installed already get a
// reinstall prompt instead of `--needed`.
func InstallCommand(items []pkginfo.PackageItem, pw string, installed InstalledFunc) string {
	var official, aur []string
	for _, it := range items {
		if it.Source.IsAUR() {
			aur = append(aur, it.Name)
		} else {
			official = append(official, it.Name)
		}
	}

	var parts []string
	if len(official) > 0 {
		parts = append(parts, officialInstall(official, pw, allInstalled(official, installed)))
	}
	if len(aur) > 0 {
		flags := "-S --needed --noconfirm"
		if allInstalled(aur, installed) {
			flags = "-S --noconfirm"
		}
		parts = append(parts, aurInstall(flags, strings.Join(aur, " "), pw))
	}
	return strings.Join(parts, " && ")
}

func allInstalled(names []string, installed InstalledFunc) bool {
	for _, n := range names {
		if !installed(n) {
			return false
		}
	}
	return len(names) > 0
}

func officialInstall(names []string, pw string, reinstall bool) string {
	n := strings.Join(names, " ")
	sudo := Sudo(pw)
	if reinstall {
		return fmt.Sprintf("read -rp 'Reinstall %s? [y/N]: ' ans; if %s; then %spacman -S --noconfirm %s; else echo 'Reinstall cancelled.'; fi",
			n, yesAnswer, sudo, n)
	}
	install := sudo + "pacman -S --needed --noconfirm " + n
	return fmt.Sprintf("%s || (echo; echo 'Install failed.'; read -rp 'Retry with force database sync (-Syy)? [y/N]: ' ans; if %s; then %spacman -Syy && %s; fi)",
		install, yesAnswer, sudo, install)
}

// aurInstall refreshes sudo credentials with `;` so the helper runs even
// when the refresh fails.
func aurInstall(flags, names, pw string) string {
	bootstrap := fmt.Sprintf("echo 'No AUR helper (paru/yay) found.'; read -rp 'Install paru from AUR now? [y/N]: ' ans; if %s; then tmp=$(mktemp -d) && git clone https://aur.archlinux.org/paru-bin.git \"$tmp/paru-bin\" && (cd \"$tmp/paru-bin\" && makepkg -si --noconfirm) && paru %s %s; fi",
		yesAnswer, flags, names)
	return fmt.Sprintf("%s-v ; (if command -v paru >/dev/null 2>&1; then paru %s %s; elif command -v yay >/dev/null 2>&1; then yay %s %s; else %s; fi)",
		Sudo(pw), flags, names, flags, names, bootstrap)
}

// RemoveCommand builds `pacman <-R|-Rs|-Rns> --noconfirm <names>`.
func RemoveCommand(names []string, pw string, mode CascadeMode) string {
	if len(names) == 0 {
		return ""
	}
	return fmt.Sprintf("%spacman %s --noconfirm %s", Sudo(pw), mode.Flag(), strings.Join(names, " "))
}

// DowngradeCommand runs the `downgrade` tool when it is installed.
func DowngradeCommand(names []string, pw string) string {
	if len(names) == 0 {
		return ""
	}
	return fmt.Sprintf("if command -v downgrade >/dev/null 2>&1; then %sdowngrade %s; else echo 'downgrade tool not found. Install the \"downgrade\" package from the AUR.'; fi",
		Sudo(pw), strings.Join(names, " "))
}

// UpdateCommand joins commands with ` && `, routing each leading `sudo`
// through the password pipe.
func UpdateCommand(cmds []string, pw string) string {
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(c, "sudo "); ok {
			c = Sudo(pw) + rest
		}
		out = append(out, c)
	}
	return strings.Join(out, " && ")
}

// SystemUpdate returns the default update commands: a pacman sync upgrade
// followed by an AUR helper upgrade when one is installed.
func SystemUpdate() []string {
	return []string{
		"sudo pacman -Syu --noconfirm",
		"(if command -v paru >/dev/null 2>&1; then paru -Sua --noconfirm; elif command -v yay >/dev/null 2>&1; then yay -Sua --noconfirm; else echo 'No AUR helper (paru/yay) found; skipping AUR updates.'; fi)",
	}
}

// customCommand routes sudo through an askpass script holding the password.
// The script lives in the OS temp dir and is removed by Cleanup.
func customCommand(cmd, pw string) (Built, error) {
	if strings.TrimSpace(cmd) == "" {
		return Built{}, fmt.Errorf("executor: empty custom command")
	}
	if pw == "" || !strings.Contains(cmd, "sudo ") {
		return Built{Command: cmd, Display: cmd}, nil
	}
	f, err := os.CreateTemp("", "pacsea-askpass-*.sh")
	if err != nil {
		return Built{}, fmt.Errorf("executor: askpass script: %w", err)
	}
	path := f.Name()
	cleanup := func() { os.Remove(path) }
	if _, err := fmt.Fprintf(f, "#!/bin/sh\nprintf '%%s\\n' %s\n", pacman.ShellQuote(pw)); err != nil {
		f.Close()
		cleanup()
		return Built{}, fmt.Errorf("executor: write askpass script: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return Built{}, fmt.Errorf("executor: close askpass script: %w", err)
	}
	if err := os.Chmod(path, 0o755); err != nil {
		cleanup()
		return Built{}, fmt.Errorf("executor: chmod askpass script: %w", err)
	}
	withAskpass := "export SUDO_ASKPASS=" + pacman.ShellQuote(path) + "; " + strings.ReplaceAll(cmd, "sudo ", "sudo -A ")
	return Built{Command: withAskpass, Display: cmd, cleanup: cleanup}, nil
}
