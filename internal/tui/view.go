package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/papapumpkin/pacsea/internal/pkginfo"
	"github.com/papapumpkin/pacsea/internal/preflight"
	"github.com/papapumpkin/pacsea/internal/state"
)

// View renders the whole screen, with the executor or preflight modal
// composited on top when one is open.
func (m AppModel) View() string {
	if m.Width < MinWidth || m.Height < MinHeight {
		msg := fmt.Sprintf("Terminal too small (%dx%d, need %dx%d)", m.Width, m.Height, MinWidth, MinHeight)
		return centerOverlay(styleWarn.Render(msg), m.Width, m.Height)
	}
	l := computeLayout(m.Width, m.Height)

	var b strings.Builder
	b.WriteString(m.viewHeader(l))
	b.WriteString("\n")
	b.WriteString(m.viewBody(l))
	b.WriteString("\n")
	b.WriteString(m.viewStatus(l))
	b.WriteString("\n")
	b.WriteString(Footer{Width: m.Width, Bindings: m.footerBindings()}.View())
	screen := b.String()

	switch {
	case m.App.Exec.Active():
		return compositeOverlay(screen, m.viewExec(l), m.Width, m.Height)
	case m.App.Preflight != nil:
		return compositeOverlay(screen, m.viewPreflight(l), m.Width, m.Height)
	}
	return screen
}

func (m AppModel) footerBindings() []key.Binding {
	a := m.App
	switch {
	case a.Exec.Active():
		return ExecFooterBindings(m.Keys, a.Exec.Phase == state.ExecPostSummary)
	case a.Preflight != nil:
		return PreflightFooterBindings(m.Keys, a.Preflight.Action == preflight.ActionRemove)
	}
	switch a.Focus {
	case state.FocusRecent:
		return RecentFooterBindings(m.Keys)
	case state.FocusInstall:
		return ListFooterBindings(m.Keys)
	}
	return SearchFooterBindings(m.Keys)
}

// viewHeader renders the search input and the chip line: repository
// filters, sort mode and installed-only mode.
func (m AppModel) viewHeader(l layout) string {
	a := m.App
	input := styleSearchBar.Width(l.width).MaxHeight(1).Render(
		styleSearchLabel.Render("Search ") + m.Search.View())

	compact := l.width < CompactWidth
	var chips []string
	for _, name := range state.FilterNames() {
		label := m.Keys.Filters[name].Help().Desc
		if compact {
			label = label[:1]
		}
		if a.Filters.Enabled(name) {
			chips = append(chips, styleChipOn.Render(label))
		} else {
			chips = append(chips, styleChipOff.Render(label))
		}
	}
	chips = append(chips, styleLabel.Render("sort:")+" "+a.SortMode.Label())
	if a.InstalledOnly {
		chips = append(chips, styleInstalled.Render("installed only"))
	}
	if a.DryRun {
		chips = append(chips, styleWarn.Render("DRY RUN"))
	}
	line := lipgloss.NewStyle().MaxWidth(l.width).Render(strings.Join(chips, " "))
	return input + "\n" + line
}

// viewBody renders the results list and, on wide terminals, the details
// and list column.
func (m AppModel) viewBody(l layout) string {
	left := m.viewResults(l.leftWidth, l.bodyHeight)
	if l.rightWidth == 0 {
		return left
	}
	right := m.viewDetails(l.rightWidth, l.detailHeight)
	if l.listHeight > 0 {
		right = lipgloss.JoinVertical(lipgloss.Left, right, m.viewLists(l.rightWidth, l.listHeight))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// pane renders content in a bordered box of the given outer size.
func pane(title, content string, width, height int, focused bool) string {
	style := stylePane
	if focused {
		style = stylePaneFocused
	}
	inner := max(height-2, 1)
	body := stylePaneTitle.Render(title)
	if content != "" {
		body += "\n" + content
	}
	return style.Width(max(width-2, 1)).Height(inner).MaxHeight(height).
		Render(fitLines(body, inner))
}

func (m AppModel) viewResults(width, height int) string {
	a := m.App
	rows := max(height-3, 1)
	inner := max(width-4, 10)

	title := fmt.Sprintf("Results (%d)", len(a.Results))
	if a.SearchErr != "" {
		title += " " + styleError.Render("AUR unavailable")
	}

	var b strings.Builder
	start, end := window(len(a.Results), a.Selected, rows)
	for i := start; i < end; i++ {
		if i > start {
			b.WriteString("\n")
		}
		b.WriteString(m.renderResultRow(a.Results[i], i == a.Selected, inner))
	}
	if len(a.Results) == 0 {
		b.WriteString(styleDim.Render("No packages"))
	}
	return pane(title, b.String(), width, height, a.Focus == state.FocusSearch)
}

// renderResultRow renders one result: state icon, name, version, repository
// and description.
func (m AppModel) renderResultRow(it pkginfo.PackageItem, selected bool, width int) string {
	a := m.App
	icon := styleDim.Render(iconNone)
	switch {
	case a.Installed.IsInstalled(it.Name):
		icon = styleInstalled.Render(iconInstalled)
	case a.Install.Contains(it.Name):
		icon = styleWarn.Render(iconPending)
	}

	repo := styleRepoOfficial.Render(it.Source.Label())
	if it.Source.IsAUR() {
		repo = styleRepoAUR.Render(it.Source.Label())
	}
	name := styleRowNormal.Render(it.Name)
	if selected {
		name = styleRowSelected.Render(it.Name)
	}
	line := icon + " " + repo + " " + name + " " + styleDim.Render(it.Version)
	if it.OutOfDate != nil {
		line += " " + styleOutOfDate.Render("out-of-date")
	}
	if it.Orphaned {
		line += " " + styleWarn.Render("orphan")
	}
	if rest := width - lipgloss.Width(line) - 3; rest > 8 && it.Description != "" {
		line += "  " + styleDim.Render(TruncateWithEllipsis(it.Description, rest))
	}

	prefix := " "
	if selected {
		prefix = styleSelectionIndicator.Render(selectionIndicator)
		return padToWidth(prefix+line, width, colorSurfaceBright)
	}
	return prefix + line
}

// viewDetails renders the details of the selection, or the PKGBUILD or
// comments viewer when one is open.
func (m AppModel) viewDetails(width, height int) string {
	a := m.App
	switch {
	case a.PKGBUILDOpen:
		return pane("PKGBUILD "+a.PKGBUILDName, m.Viewer.View(), width, height, true)
	case a.CommentsOpen:
		title := "Comments " + a.CommentsName
		if a.CommentsLoading {
			title += " " + m.Spinner.View()
		}
		return pane(title, m.Viewer.View(), width, height, true)
	}
	return pane("Details", renderDetails(a.Details, max(width-4, 10)), width, height, false)
}

// renderDetails formats package details as label/value lines.
func renderDetails(d pkginfo.PackageDetails, width int) string {
	if d.Name == "" {
		return styleDim.Render("Nothing selected")
	}
	var b strings.Builder
	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(styleLabel.Render(fmt.Sprintf("%-14s", label)))
		b.WriteString(TruncateWithEllipsis(value, max(width-14, 4)))
		b.WriteString("\n")
	}
	list := func(label string, values []string) {
		if len(values) > 0 {
			field(label, strings.Join(values, " "))
		}
	}
	field("Repository", d.Repository)
	field("Name", d.Name)
	field("Version", d.Version)
	field("Description", d.Description)
	field("Architecture", d.Architecture)
	field("URL", d.URL)
	list("Licenses", d.Licenses)
	list("Groups", d.Groups)
	list("Provides", d.Provides)
	list("Depends on", d.Depends)
	list("Optional", d.OptDepends)
	list("Required by", d.RequiredBy)
	list("Optional for", d.OptionalFor)
	list("Conflicts", d.Conflicts)
	list("Replaces", d.Replaces)
	if d.DownloadSize != nil {
		field("Download", humanize.IBytes(*d.DownloadSize))
	}
	if d.InstallSize != nil {
		field("Installed", humanize.IBytes(*d.InstallSize))
	}
	field("Packager", d.Owner)
	field("Build date", d.BuildDate)
	if d.Popularity != nil {
		field("Popularity", fmt.Sprintf("%.2f", *d.Popularity))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderComments formats AUR comments for the viewer.
func renderComments(comments []state.CommentLine, loading bool, width int) string {
	if loading {
		return "Loading comments..."
	}
	if len(comments) == 0 {
		return "No comments"
	}
	var b strings.Builder
	wrap := lipgloss.NewStyle().Width(max(width, 10))
	for i, c := range comments {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if c.Author != "" {
			head := styleLabel.Render(c.Author) + " " + styleDim.Render(c.Date)
			if c.Pinned {
				head += " " + styleWarn.Render("pinned")
			}
			b.WriteString(head + "\n")
		}
		b.WriteString(wrap.Render(c.Text))
	}
	return b.String()
}

// viewLists renders the recent searches next to the install, remove or
// downgrade list.
func (m AppModel) viewLists(width, height int) string {
	a := m.App
	half := width / 2
	rows := max(height-3, 1)

	var rb strings.Builder
	items := a.Recent.Items()
	start, end := window(len(items), a.RecentSelected, rows)
	for i := start; i < end; i++ {
		if i > start {
			rb.WriteString("\n")
		}
		rb.WriteString(listRow(items[i], a.Focus == state.FocusRecent && i == a.RecentSelected, half-4))
	}
	recentPane := pane("Recent", rb.String(), half, height, a.Focus == state.FocusRecent)

	list := a.RightList()
	var lb strings.Builder
	start, end = window(list.Len(), a.ListSelected, rows)
	for i := start; i < end; i++ {
		it, _ := list.At(i)
		if i > start {
			lb.WriteString("\n")
		}
		lb.WriteString(listRow(it.Name, a.Focus == state.FocusInstall && i == a.ListSelected, width-half-4))
	}
	title := [...]string{"Install", "Remove", "Downgrade"}[a.Right]
	listPane := pane(fmt.Sprintf("%s (%d)", title, list.Len()), lb.String(), width-half, height, a.Focus == state.FocusInstall)

	return lipgloss.JoinHorizontal(lipgloss.Top, recentPane, listPane)
}

func listRow(text string, selected bool, width int) string {
	text = TruncateWithEllipsis(text, max(width-2, 1))
	if selected {
		return styleSelectionIndicator.Render(selectionIndicator) + styleRowSelected.Render(text)
	}
	return " " + styleRowNormal.Render(text)
}

// viewStatus renders the toast, or a short status line when none is shown.
func (m AppModel) viewStatus(l layout) string {
	a := m.App
	if a.Toast != "" {
		return styleToast.MaxWidth(l.width).Render(a.Toast)
	}
	status := fmt.Sprintf("install %d · remove %d · downgrade %d", a.Install.Len(), a.Remove.Len(), a.Downgrade.Len())
	if a.NeedRingPrefetch {
		status += " · " + m.Spinner.View()
	}
	return styleDim.MaxWidth(l.width).Render(status)
}
