package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	NextPane  key.Binding
	PrevPane  key.Binding
	Enter     key.Binding
	Back      key.Binding
	Quit      key.Binding
	Remove    key.Binding
	Downgrade key.Binding
	Delete    key.Binding
	Cycle     key.Binding
	Proceed   key.Binding
	Sort      key.Binding
	Installed key.Binding
	PKGBUILD  key.Binding
	Comments  key.Binding
	Update    key.Binding
	Scan      key.Binding
	OpenURL   key.Binding
	ViewUp    key.Binding
	ViewDown  key.Binding
	Filters   map[string]key.Binding

	// Preflight modal.
	TabNext  key.Binding
	TabPrev  key.Binding
	Expand   key.Binding
	Toggle   key.Binding
	Retry    key.Binding
	Cascade  key.Binding
	Restart  key.Binding
	Confirm  key.Binding
	Dismiss  key.Binding
	ScrollUp key.Binding
	ScrollDn key.Binding
}

// DefaultKeyMap returns the default keybinding configuration.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "ctrl+k"),
			key.WithHelp("↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "ctrl+j"),
			key.WithHelp("↓", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "page down"),
		),
		NextPane: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "pane"),
		),
		PrevPane: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "list"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "add"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("^q", "quit"),
		),
		Remove: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("^r", "remove"),
		),
		Downgrade: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("^g", "downgrade"),
		),
		Delete: key.NewBinding(
			key.WithKeys("delete", "backspace", "d"),
			key.WithHelp("del", "delete"),
		),
		Cycle: key.NewBinding(
			key.WithKeys("left", "right"),
			key.WithHelp("←/→", "switch list"),
		),
		Proceed: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("^x", "run list"),
		),
		Sort: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("^s", "sort"),
		),
		Installed: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("^e", "installed only"),
		),
		PKGBUILD: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("^p", "PKGBUILD"),
		),
		Comments: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("^t", "comments"),
		),
		Update: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("^u", "system update"),
		),
		Scan: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("^o", "scan"),
		),
		OpenURL: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("^b", "open in browser"),
		),
		ViewUp: key.NewBinding(
			key.WithKeys("shift+up"),
			key.WithHelp("S-↑", "scroll viewer"),
		),
		ViewDown: key.NewBinding(
			key.WithKeys("shift+down"),
			key.WithHelp("S-↓", "scroll viewer"),
		),
		Filters: map[string]key.Binding{
			"aur":      key.NewBinding(key.WithKeys("alt+a"), key.WithHelp("M-a", "AUR")),
			"core":     key.NewBinding(key.WithKeys("alt+c"), key.WithHelp("M-c", "core")),
			"extra":    key.NewBinding(key.WithKeys("alt+e"), key.WithHelp("M-e", "extra")),
			"multilib": key.NewBinding(key.WithKeys("alt+m"), key.WithHelp("M-m", "multilib")),
			"eos":      key.NewBinding(key.WithKeys("alt+o"), key.WithHelp("M-o", "EOS")),
			"cachyos":  key.NewBinding(key.WithKeys("alt+y"), key.WithHelp("M-y", "CachyOS")),
			"artix":    key.NewBinding(key.WithKeys("alt+t"), key.WithHelp("M-t", "Artix")),
			"manjaro":  key.NewBinding(key.WithKeys("alt+j"), key.WithHelp("M-j", "Manjaro")),
		},

		TabNext: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next tab"),
		),
		TabPrev: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("S-tab", "prev tab"),
		),
		Expand: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "expand"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "restart/defer"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		Cascade: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "cascade"),
		),
		Restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart services"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "proceed"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc", "q"),
			key.WithHelp("esc", "close"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("up", "k", "pgup"),
			key.WithHelp("↑/k", "scroll"),
		),
		ScrollDn: key.NewBinding(
			key.WithKeys("down", "j", "pgdown"),
			key.WithHelp("↓/j", "scroll"),
		),
	}
}
