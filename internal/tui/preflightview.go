package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/papapumpkin/pacsea/internal/preflight"
	"github.com/papapumpkin/pacsea/internal/state"
)

// viewPreflight renders the preflight modal: header chips, the tab bar and
// the focused tab.
func (m AppModel) viewPreflight(l layout) string {
	p := m.App.Preflight
	width := max(l.modalWidth-8, 20)

	var b strings.Builder
	title := fmt.Sprintf("Preflight: %s %d package(s)", p.Action, len(p.Items))
	b.WriteString(styleModalTitle.Render(title))
	if p.Action == preflight.ActionRemove {
		b.WriteString("  " + styleLabel.Render("cascade:") + " " + p.Cascade.Label())
	}
	b.WriteString("\n")
	b.WriteString(m.preflightChips(p))
	b.WriteString("\n\n")
	b.WriteString(renderTabBar(p))
	b.WriteString("\n\n")

	ts := p.Current()
	rows := max(l.modalHeight-12, 3)
	switch {
	case ts.Loading:
		b.WriteString(m.Spinner.View() + " Resolving " + p.Tab.String() + "...")
	case ts.Err != "":
		b.WriteString(styleError.Render("Failed: "+ts.Err) + "\n" + styleDim.Render("Press r to retry"))
	default:
		b.WriteString(renderTab(p, ts, width, rows))
	}
	return modalBox(styleModal, b.String(), l)
}

// preflightChips renders the summary header: risk, counts and sizes.
func (m AppModel) preflightChips(p *state.PreflightState) string {
	if !p.TabState(preflight.TabSummary).Loaded {
		return styleDim.Render("Summarizing...")
	}
	s := p.Summary
	chips := []string{riskChip(s.RiskLevel, s.RiskScore)}
	chips = append(chips, fmt.Sprintf("%d pkgs", s.PackageCount))
	if s.AURCount > 0 {
		chips = append(chips, styleRepoAUR.Render(fmt.Sprintf("%d AUR", s.AURCount)))
	}
	if s.DownloadBytes > 0 {
		chips = append(chips, "download "+humanize.IBytes(s.DownloadBytes))
	}
	if s.InstallDelta != 0 {
		chips = append(chips, "size "+signedBytes(s.InstallDelta))
	}
	if s.PacnewCandidates > 0 || s.PacsaveCandidates > 0 {
		chips = append(chips, styleWarn.Render(fmt.Sprintf("%d pacnew / %d pacsave", s.PacnewCandidates, s.PacsaveCandidates)))
	}
	if len(s.ServiceRestarts) > 0 {
		chips = append(chips, styleWarn.Render(fmt.Sprintf("%d services", len(s.ServiceRestarts))))
	}
	return strings.Join(chips, styleDim.Render(" · "))
}

func riskChip(level preflight.RiskLevel, score int) string {
	text := fmt.Sprintf("risk %s (%d)", level, score)
	switch level {
	case preflight.RiskHigh:
		return styleRiskHigh.Render(text)
	case preflight.RiskMedium:
		return styleRiskMedium.Render(text)
	}
	return styleRiskLow.Render(text)
}

// signedBytes formats a size delta with its sign.
func signedBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return "+" + humanize.IBytes(uint64(n))
}

func renderTabBar(p *state.PreflightState) string {
	var tabs []string
	for _, t := range preflight.Tabs() {
		label := t.String()
		if ts := p.TabState(t); ts.Err != "" {
			label += " !"
		} else if ts.Loading {
			label += " …"
		}
		if t == p.Tab {
			tabs = append(tabs, styleTabActive.Render(label))
		} else {
			tabs = append(tabs, styleTabInactive.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderTab renders the rows of the focused tab, scrolled to keep the
// selection visible.
func renderTab(p *state.PreflightState, ts *state.TabState, width, rows int) string {
	var lines []string
	sel := -1 // index into lines of the selected row
	add := func(i int, line string, detail []string) {
		line = lipgloss.NewStyle().MaxWidth(width).Render(line)
		if i == ts.Selected {
			sel = len(lines)
			line = styleSelectionIndicator.Render(selectionIndicator) + styleRowSelected.Render(line)
		} else {
			line = " " + line
		}
		lines = append(lines, line)
		for _, d := range detail {
			lines = append(lines, "    "+styleDim.Render(TruncateWithEllipsis(d, width-4)))
		}
	}

	switch p.Tab {
	case preflight.TabSummary:
		for i, s := range p.Summary.Packages {
			add(i, summaryRow(s), s.Notes)
		}
		lines = append(lines, summaryFooter(p.Summary)...)
	case preflight.TabDeps:
		if p.Action != preflight.ActionInstall {
			return styleDim.Render("Dependencies are only resolved for installs")
		}
		for i, d := range p.Deps {
			var detail []string
			if ts.Expanded[d.Name] && len(d.DependsOn) > 0 {
				detail = []string{"depends on: " + strings.Join(d.DependsOn, " ")}
			}
			add(i, depRow(d), detail)
		}
	case preflight.TabFiles:
		if p.Files.SyncHint != "" {
			lines = append(lines, styleWarn.Render(p.Files.SyncHint))
		}
		for i, f := range p.Files.Packages {
			var detail []string
			if ts.Expanded[f.Name] {
				for _, c := range f.Files {
					detail = append(detail, fileRow(c))
				}
			}
			add(i, fmt.Sprintf("%-24s %d files  +%d ~%d -%d  config %d  pacnew %d  pacsave %d",
				f.Name, f.Total, f.New, f.Changed, f.Removed, f.Config, f.PacnewCandidates, f.PacsaveCandidates), detail)
		}
	case preflight.TabServices:
		for i, s := range p.Services {
			add(i, serviceRow(s), nil)
		}
	case preflight.TabSandbox:
		for i, s := range p.Sandbox {
			var detail []string
			if ts.Expanded[s.PackageName] {
				detail = sandboxDetail(s)
			}
			add(i, fmt.Sprintf("%-24s %d missing build deps", s.PackageName, s.Missing()), detail)
		}
	}

	if len(lines) == 0 {
		return styleDim.Render("Nothing to show")
	}
	start, end := window(len(lines), max(sel, 0), rows)
	return strings.Join(lines[start:end], "\n")
}

func summaryRow(s preflight.PackageSummary) string {
	version := s.TargetVersion
	if s.InstalledVersion != "" {
		version = s.InstalledVersion + " → " + s.TargetVersion
	}
	row := fmt.Sprintf("%-24s %-8s %s", s.Name, s.Source.Label(), version)
	if s.IsDowngrade {
		row += " " + styleWarn.Render("downgrade")
	}
	if s.IsMajorBump {
		row += " " + styleWarn.Render("major")
	}
	if s.DownloadBytes != nil {
		row += "  " + humanize.IBytes(*s.DownloadBytes)
	}
	if s.InstallDelta != nil {
		row += "  " + signedBytes(*s.InstallDelta)
	}
	return row
}

func summaryFooter(s preflight.Summary) []string {
	var out []string
	if len(s.RiskReasons) > 0 {
		out = append(out, "", styleLabel.Render("Risk"))
		for _, r := range s.RiskReasons {
			out = append(out, "  • "+r)
		}
	}
	if len(s.CoreSystem) > 0 {
		out = append(out, styleWarn.Render("core/system: "+strings.Join(s.CoreSystem, " ")))
	}
	for _, n := range s.Notes {
		out = append(out, styleDim.Render(n))
	}
	return out
}

func depRow(d preflight.DependencyInfo) string {
	var status string
	switch d.Status {
	case preflight.DepConflict:
		status = styleError.Render("conflict")
	case preflight.DepMissing:
		status = styleError.Render("missing")
	case preflight.DepToInstall:
		status = styleWarn.Render("install")
	case preflight.DepToUpgrade:
		status = styleWarn.Render("upgrade")
	default:
		status = styleInstalled.Render("installed")
	}
	row := fmt.Sprintf("%-24s %s %s", d.Name+d.Version, status, string(d.Source))
	switch {
	case d.Reason != "":
		row += "  " + d.Reason
	case d.Status == preflight.DepToUpgrade:
		row += "  " + d.Current + " → " + d.Required
	}
	if len(d.RequiredBy) > 0 {
		row += "  ← " + strings.Join(d.RequiredBy, ", ")
	}
	return row
}

func fileRow(c preflight.FileChange) string {
	mark := map[preflight.ChangeType]string{
		preflight.FileNew:     "+",
		preflight.FileChanged: "~",
		preflight.FileRemoved: "-",
	}[c.Change]
	row := mark + " " + c.Path
	switch {
	case c.PredictedPacnew:
		row += "  (.pacnew)"
	case c.PredictedPacsave:
		row += "  (.pacsave)"
	}
	return row
}

func serviceRow(s preflight.ServiceImpact) string {
	decision := styleDim.Render("defer")
	if s.Decision == preflight.ServiceRestart {
		decision = styleSuccess.Render("restart")
	}
	active := styleDim.Render("inactive")
	if s.IsActive {
		active = styleInstalled.Render("active")
	}
	return fmt.Sprintf("%-32s %s %s  ← %s", s.UnitName, active, decision, strings.Join(s.Providers, ", "))
}

func sandboxDetail(s preflight.SandboxInfo) []string {
	var out []string
	group := func(label string, deps []preflight.DependencyDelta) {
		for _, d := range deps {
			mark := iconInstalled
			switch {
			case !d.IsInstalled:
				mark = iconFailed
			case !d.VersionSatisfied:
				mark = "!"
			}
			line := fmt.Sprintf("%s %s %s", mark, label, d.Spec)
			if d.InstalledVersion != "" {
				line += " (" + d.InstalledVersion + ")"
			}
			out = append(out, line)
		}
	}
	group("depends", s.Depends)
	group("makedepends", s.MakeDepends)
	group("checkdepends", s.CheckDepends)
	group("optdepends", s.OptDepends)
	return out
}
