package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/papapumpkin/pacsea/internal/state"
)

// pageSize is the selection jump of PageUp/PageDown.
const pageSize = 10

// handleKey dispatches a key press by modal, then by focused pane.
func (m AppModel) handleKey(msg tea.KeyMsg) (AppModel, tea.Cmd) {
	if key.Matches(msg, m.Keys.Quit) {
		return m, tea.Quit
	}

	// Overlays take precedence.
	if m.App.Exec.Active() {
		return m.handleExecKey(msg)
	}
	if m.App.Preflight != nil {
		return m.handlePreflightKey(msg)
	}

	if cmd, ok := m.handleGlobalKey(msg); ok {
		return m, cmd
	}

	switch m.App.Focus {
	case state.FocusRecent:
		return m.handleRecentKey(msg)
	case state.FocusInstall:
		return m.handleListKey(msg)
	default:
		return m.handleSearchKey(msg)
	}
}

// handleGlobalKey handles keys that work from every pane.
func (m *AppModel) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	a := m.App
	switch {
	case key.Matches(msg, m.Keys.NextPane):
		a.Focus = a.Focus.Next()
		return m.focusSearch(), true
	case key.Matches(msg, m.Keys.PrevPane):
		a.Focus = state.FocusSearch
		return m.focusSearch(), true
	case key.Matches(msg, m.Keys.Sort):
		a.CycleSort()
	case key.Matches(msg, m.Keys.Installed):
		a.SetInstalledOnly(!a.InstalledOnly)
	case key.Matches(msg, m.Keys.PKGBUILD):
		if a.CommentsOpen {
			a.ToggleComments()
		}
		a.TogglePKGBUILD()
	case key.Matches(msg, m.Keys.Comments):
		if a.PKGBUILDOpen {
			a.TogglePKGBUILD()
		}
		a.ToggleComments()
	case key.Matches(msg, m.Keys.ViewUp):
		m.Viewer.ScrollUp(3)
	case key.Matches(msg, m.Keys.ViewDown):
		m.Viewer.ScrollDown(3)
	case key.Matches(msg, m.Keys.Update):
		a.StartSystemUpdate()
	case key.Matches(msg, m.Keys.Scan):
		a.StartScan()
	case key.Matches(msg, m.Keys.OpenURL):
		if u := a.SelectedURL(); u != "" {
			return m.openURL(u), true
		}
	case key.Matches(msg, m.Keys.Proceed):
		a.StartRightPane()
	case key.Matches(msg, m.Keys.Remove):
		if it, ok := a.SelectedItem(); ok {
			a.AddToRemove(it)
		}
	case key.Matches(msg, m.Keys.Downgrade):
		if it, ok := a.SelectedItem(); ok {
			a.AddToDowngrade(it)
		}
	default:
		for _, name := range state.FilterNames() {
			if key.Matches(msg, m.Keys.Filters[name]) {
				a.ToggleFilter(name)
				return nil, true
			}
		}
		return nil, false
	}
	return nil, true
}

// focusSearch keeps the search input focused only while its pane is.
func (m *AppModel) focusSearch() tea.Cmd {
	if m.App.Focus == state.FocusSearch {
		return m.Search.Focus()
	}
	m.Search.Blur()
	return nil
}

func (m AppModel) handleSearchKey(msg tea.KeyMsg) (AppModel, tea.Cmd) {
	a := m.App
	switch {
	case key.Matches(msg, m.Keys.Up):
		a.MoveSelCached(-1)
	case key.Matches(msg, m.Keys.Down):
		a.MoveSelCached(1)
	case key.Matches(msg, m.Keys.PageUp):
		a.MoveSelCached(-pageSize)
	case key.Matches(msg, m.Keys.PageDown):
		a.MoveSelCached(pageSize)
	case key.Matches(msg, m.Keys.Enter):
		if it, ok := a.SelectedItem(); ok {
			a.AddToInstall(it)
		}
	case key.Matches(msg, m.Keys.Back):
		switch {
		case a.PKGBUILDOpen:
			a.TogglePKGBUILD()
		case a.CommentsOpen:
			a.ToggleComments()
		}
	default:
		var cmd tea.Cmd
		m.Search, cmd = m.Search.Update(msg)
		a.SetInput(m.Search.Value())
		return m, cmd
	}
	return m, nil
}

func (m AppModel) handleRecentKey(msg tea.KeyMsg) (AppModel, tea.Cmd) {
	a := m.App
	switch {
	case key.Matches(msg, m.Keys.Up):
		a.RecentSelected = max(a.RecentSelected-1, 0)
	case key.Matches(msg, m.Keys.Down):
		a.RecentSelected = max(min(a.RecentSelected+1, a.Recent.Len()-1), 0)
	case key.Matches(msg, m.Keys.Enter):
		a.RerunRecent()
		m.Search.SetValue(a.Input)
		m.Search.CursorEnd()
		return m, m.focusSearch()
	case key.Matches(msg, m.Keys.Delete):
		a.DeleteRecent()
	case key.Matches(msg, m.Keys.Back):
		a.Focus = state.FocusSearch
		return m, m.focusSearch()
	}
	return m, nil
}

func (m AppModel) handleListKey(msg tea.KeyMsg) (AppModel, tea.Cmd) {
	a := m.App
	switch {
	case key.Matches(msg, m.Keys.Up):
		a.ListSelected = max(a.ListSelected-1, 0)
	case key.Matches(msg, m.Keys.Down):
		a.ListSelected = max(min(a.ListSelected+1, a.RightList().Len()-1), 0)
	case key.Matches(msg, m.Keys.Enter):
		a.StartRightPane()
	case key.Matches(msg, m.Keys.Delete):
		a.DeleteFromRight()
	case key.Matches(msg, m.Keys.Cycle):
		a.CycleRightPane()
	case key.Matches(msg, m.Keys.Back):
		a.Focus = state.FocusSearch
		return m, m.focusSearch()
	}
	return m, nil
}

func (m AppModel) handlePreflightKey(msg tea.KeyMsg) (AppModel, tea.Cmd) {
	a := m.App
	switch {
	case key.Matches(msg, m.Keys.Dismiss):
		a.ClosePreflight()
	case key.Matches(msg, m.Keys.Confirm):
		a.ConfirmPreflight()
	case key.Matches(msg, m.Keys.TabNext):
		a.NextTab(1)
	case key.Matches(msg, m.Keys.TabPrev):
		a.NextTab(-1)
	case key.Matches(msg, m.Keys.ScrollUp):
		a.MoveTabSelection(-1)
	case key.Matches(msg, m.Keys.ScrollDn):
		a.MoveTabSelection(1)
	case key.Matches(msg, m.Keys.Expand):
		a.ToggleExpanded()
	case key.Matches(msg, m.Keys.Toggle):
		a.ToggleService()
	case key.Matches(msg, m.Keys.Retry):
		a.RetryTab()
	case key.Matches(msg, m.Keys.Cascade):
		a.CycleCascade()
	}
	return m, nil
}

func (m AppModel) handleExecKey(msg tea.KeyMsg) (AppModel, tea.Cmd) {
	a := m.App
	switch a.Exec.Phase {
	case state.ExecAlertLocked:
		if key.Matches(msg, m.Keys.Dismiss) || key.Matches(msg, m.Keys.Confirm) {
			a.CloseExec()
		}
	case state.ExecPasswordPrompt:
		switch msg.Type {
		case tea.KeyEnter:
			pw := m.Password.Value()
			m.Password.Reset()
			if a.SubmitPassword() {
				return m, m.validatePassword(pw)
			}
		case tea.KeyEsc:
			m.Password.Reset()
			a.CloseExec()
		default:
			var cmd tea.Cmd
			m.Password, cmd = m.Password.Update(msg)
			return m, cmd
		}
	case state.ExecStreaming:
		m.scrollLog(msg)
	case state.ExecPostSummary:
		switch {
		case key.Matches(msg, m.Keys.Restart):
			a.RestartServices()
		case key.Matches(msg, m.Keys.Dismiss), key.Matches(msg, m.Keys.Confirm):
			a.CloseExec()
		default:
			m.scrollLog(msg)
		}
	}
	return m, nil
}

func (m *AppModel) scrollLog(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.Keys.ScrollUp):
		m.Log.ScrollUp(1)
	case key.Matches(msg, m.Keys.ScrollDn):
		m.Log.ScrollDown(1)
	}
}
