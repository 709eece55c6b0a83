package tui

import (
	"fmt"
	"strings"

	"github.com/papapumpkin/pacsea/internal/state"
)

// viewExec renders the executor modal for the current phase.
func (m AppModel) viewExec(l layout) string {
	e := m.App.Exec
	var b strings.Builder
	b.WriteString(styleModalTitle.Render(TruncateWithEllipsis(e.Job.Title(), max(l.modalWidth-8, 10))))
	if m.App.DryRun {
		b.WriteString("  " + styleWarn.Render("dry run"))
	}
	b.WriteString("\n\n")

	style := styleModal
	switch e.Phase {
	case state.ExecCheckingFaillock:
		b.WriteString(m.Spinner.View() + " Checking account status...")
	case state.ExecAlertLocked:
		style = styleModalDanger
		b.WriteString(styleError.Render(e.Alert))
		b.WriteString("\n\n" + styleDim.Render("Press enter to close"))
	case state.ExecPasswordPrompt:
		b.WriteString("sudo needs your password to continue.\n\n")
		b.WriteString(m.Password.View())
		if e.PasswordErr != "" {
			b.WriteString("\n" + styleError.Render(e.PasswordErr))
		}
		b.WriteString("\n\n" + styleDim.Render("enter: confirm  esc: cancel"))
	case state.ExecValidating:
		b.WriteString(m.Spinner.View() + " Validating password...")
	case state.ExecStreaming:
		b.WriteString(m.Log.View())
		b.WriteString("\n" + m.Spinner.View() + styleDim.Render(" running"))
	case state.ExecPostSummary:
		if e.Post != nil && !e.Post.Success {
			style = styleModalDanger
		}
		b.WriteString(m.Log.View())
		b.WriteString("\n\n")
		b.WriteString(renderPostSummary(e.Post))
	}
	return modalBox(style, b.String(), l)
}

// renderPostSummary reports the outcome of a finished transaction with the
// impact its preflight predicted.
func renderPostSummary(p *state.PostSummary) string {
	if p == nil {
		return ""
	}
	var lines []string
	if p.Success {
		lines = append(lines, styleSuccess.Render(iconInstalled+" Transaction completed"))
	} else {
		head := iconFailed + " Transaction failed"
		if p.ExitCode != nil {
			head += fmt.Sprintf(" (exit %d)", *p.ExitCode)
		}
		lines = append(lines, styleError.Render(head))
		if p.FailedCommand != "" {
			lines = append(lines, styleDim.Render("failed: "+p.FailedCommand))
		}
	}
	if p.ChangedFiles > 0 {
		lines = append(lines, fmt.Sprintf("%d files changed", p.ChangedFiles))
	}
	if p.Pacnew > 0 || p.Pacsave > 0 {
		lines = append(lines, styleWarn.Render(fmt.Sprintf("%d .pacnew and %d .pacsave files to review", p.Pacnew, p.Pacsave)))
	}
	if len(p.Restart) > 0 {
		line := "Services to restart: " + strings.Join(p.Restart, " ")
		if p.Success {
			line += styleDim.Render("  (r to restart now)")
		}
		lines = append(lines, line)
	}
	if len(p.Deferred) > 0 {
		lines = append(lines, styleDim.Render("Deferred: "+strings.Join(p.Deferred, " ")))
	}
	return strings.Join(lines, "\n")
}
