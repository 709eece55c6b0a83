package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// Footer renders context-sensitive keybinding hints.
type Footer struct {
	Width    int
	Bindings []key.Binding
}

// View renders the footer as a single line of keybinding hints.
// In compact mode (narrow terminals), shows only key hints without descriptions.
func (f Footer) View() string {
	compact := f.Width < CompactWidth

	var parts []string
	for _, b := range f.Bindings {
		if !b.Enabled() {
			continue
		}
		help := b.Help()
		var part string
		if compact {
			part = styleFooterKey.Render(help.Key)
		} else {
			part = styleFooterKey.Render(help.Key) + styleFooterSep.Render(":") + styleFooterDesc.Render(help.Desc)
		}
		parts = append(parts, part)
	}
	sep := styleFooterSep.Render("  ")
	if compact {
		sep = styleFooterSep.Render(" ")
	}
	line := strings.Join(parts, sep)
	return styleFooter.Width(f.Width).MaxHeight(1).Render(line)
}

// SearchFooterBindings returns footer bindings while the results list has focus.
func SearchFooterBindings(km KeyMap) []key.Binding {
	return []key.Binding{km.Up, km.Down, km.Enter, km.Remove, km.Downgrade, km.NextPane, km.Proceed, km.Sort, km.PKGBUILD, km.Comments, km.Update, km.Quit}
}

// RecentFooterBindings returns footer bindings for the recent searches pane.
func RecentFooterBindings(km KeyMap) []key.Binding {
	enter := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search again"))
	return []key.Binding{km.Up, km.Down, enter, km.Delete, km.NextPane, km.Quit}
}

// ListFooterBindings returns footer bindings for the install/remove/downgrade pane.
func ListFooterBindings(km KeyMap) []key.Binding {
	enter := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "preflight"))
	return []key.Binding{km.Up, km.Down, enter, km.Delete, km.Cycle, km.NextPane, km.Quit}
}

// PreflightFooterBindings returns footer bindings while the preflight modal is open.
func PreflightFooterBindings(km KeyMap, remove bool) []key.Binding {
	b := []key.Binding{km.TabNext, km.ScrollUp, km.Expand, km.Toggle, km.Retry}
	if remove {
		b = append(b, km.Cascade)
	}
	return append(b, km.Confirm, km.Dismiss)
}

// ExecFooterBindings returns footer bindings while the executor modal is open.
func ExecFooterBindings(km KeyMap, post bool) []key.Binding {
	if post {
		return []key.Binding{km.ScrollUp, km.Restart, km.Dismiss}
	}
	return []key.Binding{km.ScrollUp, km.Quit}
}
