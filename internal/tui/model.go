package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"

	"github.com/papapumpkin/pacsea/internal/persist"
	"github.com/papapumpkin/pacsea/internal/state"
)

// Options wire an AppModel to its workers and services.
type Options struct {
	Inbox     Inbox
	Services  Services
	Snapshots []persist.Snapshot // flushed on every tick
	LocalDB   <-chan struct{}
	Logger    hclog.Logger
}

// AppModel is the root BubbleTea model. Update is the only place the
// application state is mutated.
type AppModel struct {
	App       *state.App
	In        Inbox
	Services  Services
	Snapshots []persist.Snapshot
	LocalDB   <-chan struct{}
	Keys      KeyMap

	Width  int
	Height int

	Search   textinput.Model
	Password textinput.Model
	Viewer   viewport.Model // PKGBUILD or comments
	Log      viewport.Model // executor output
	Spinner  spinner.Model

	ctx          context.Context
	l            hclog.Logger
	viewerText   string
	viewerName   string
	logText      string
	lastFlushErr string
}

// NewAppModel creates the root model over app.
func NewAppModel(ctx context.Context, app *state.App, opts Options) AppModel {
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}

	search := textinput.New()
	search.Prompt = "▸ "
	search.Placeholder = "search packages"
	search.CharLimit = 256
	search.SetValue(app.Input)
	search.Focus()

	pw := textinput.New()
	pw.Prompt = "password: "
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'
	pw.CharLimit = 512

	s := spinner.New()
	s.Spinner = spinner.MiniDot

	return AppModel{
		App:       app,
		In:        opts.Inbox,
		Services:  opts.Services,
		Snapshots: opts.Snapshots,
		LocalDB:   opts.LocalDB,
		Keys:      DefaultKeyMap(),
		Width:     80,
		Height:    24,
		Search:    search,
		Password:  pw,
		Viewer:    viewport.New(40, 10),
		Log:       viewport.New(60, 12),
		Spinner:   s,
		ctx:       ctx,
		l:         opts.Logger.Named("tui"),
	}
}

// Init sends the empty query, reads the installed sets and arms every
// listener.
func (m AppModel) Init() tea.Cmd {
	m.App.SendQuery()
	return tea.Batch(
		textinput.Blink,
		m.Spinner.Tick,
		tickCmd(),
		m.fetchInstalled(),
		m.waitLocalDB(),
		m.listenResults(),
		m.listenDetails(),
		m.listenPKGBUILD(),
		m.listenComments(),
		m.listenIndex(),
		m.listenPreflight(),
		m.listenExec(),
	)
}

// Update handles one message and starts the follow-up work it implies.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	before := m.App.Exec.Phase
	next, cmd := m.update(msg)
	follow := next.followUp(before)
	next.syncViewers()
	return next, tea.Batch(cmd, follow)
}

func (m AppModel) update(msg tea.Msg) (AppModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.App.Exec.Active() || m.App.Preflight != nil {
			return m, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.App.MoveSelCached(-1)
		case tea.MouseButtonWheelDown:
			m.App.MoveSelCached(1)
		}
		return m, nil

	case MsgTick:
		return m.handleTick(msg)

	case MsgSearchResults:
		m.App.ApplySearchResults(msg.Results)
		return m, m.listenResults()

	case MsgDetails:
		m.App.ApplyDetails(msg.Result)
		return m, m.listenDetails()

	case MsgPKGBUILD:
		m.App.ApplyPKGBUILD(msg.Text)
		return m, m.listenPKGBUILD()

	case MsgComments:
		m.App.ApplyComments(msg.Result)
		return m, m.listenComments()

	case MsgIndexNotice:
		if msg.Notice.Err != nil {
			m.App.SetToast("Official index refresh failed")
		} else {
			m.App.ApplyIndexUpdate()
		}
		return m, m.listenIndex()

	case MsgPreflight:
		m.App.ApplyPreflightResult(msg.Result)
		return m, m.listenPreflight()

	case MsgExecOutput:
		m.App.ApplyExecOutput(msg.Output)
		return m, m.listenExec()

	case MsgInstalled:
		if msg.Err != nil {
			m.l.Warn("installed refresh failed", "err", msg.Err)
			return m, nil
		}
		m.App.ApplyInstalled(msg.Snapshot)
		return m, nil

	case MsgLocalDBChanged:
		return m, tea.Batch(m.fetchInstalled(), m.waitLocalDB())

	case MsgFaillock:
		m.App.ApplyFaillock(msg.Status, msg.User, msg.Passwordless)
		return m, nil

	case MsgPasswordChecked:
		m.App.ApplyPasswordCheck(msg.Password, msg.Err)
		return m, nil

	case MsgOpened:
		if msg.Err != nil {
			m.l.Warn("open url failed", "url", msg.URL, "err", msg.Err)
			m.App.SetToast("Could not open " + msg.URL)
		} else {
			m.App.SetToast("Opened " + msg.URL)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.Search, cmd = m.Search.Update(msg)
	return m, cmd
}

// handleTick flushes dirty snapshots and advances the state timers.
func (m AppModel) handleTick(msg MsgTick) (AppModel, tea.Cmd) {
	if err := persist.Flush(m.Snapshots); err != nil {
		if e := err.Error(); e != m.lastFlushErr {
			m.l.Warn("persist failed", "err", err)
			m.lastFlushErr = e
		}
	} else {
		m.lastFlushErr = ""
	}
	cmds := []tea.Cmd{tickCmd()}
	if m.App.Tick(msg.Time).RefreshInstalled {
		cmds = append(cmds, m.fetchInstalled())
	}
	return m, tea.Batch(cmds...)
}

// followUp starts the blocking work a state transition asked for: the
// faillock check when a job starts, and focus for the password prompt.
func (m *AppModel) followUp(before state.ExecPhase) tea.Cmd {
	after := m.App.Exec.Phase
	if after == before {
		return nil
	}
	switch after {
	case state.ExecCheckingFaillock:
		return m.checkFaillock()
	case state.ExecPasswordPrompt:
		m.Password.Reset()
		return m.Password.Focus()
	default:
		m.Password.Blur()
	}
	return nil
}

// syncViewers refreshes viewport content from the state.
func (m *AppModel) syncViewers() {
	name, text := m.viewerContent()
	if text != m.viewerText || name != m.viewerName {
		m.Viewer.SetContent(text)
		if name != m.viewerName {
			m.Viewer.GotoTop()
		}
		m.viewerName, m.viewerText = name, text
	}
	if log := strings.Join(m.App.Exec.Log, "\n"); log != m.logText {
		m.Log.SetContent(log)
		m.Log.GotoBottom()
		m.logText = log
	}
}

// viewerContent returns the package and text the viewer shows.
func (m AppModel) viewerContent() (string, string) {
	a := m.App
	switch {
	case a.PKGBUILDOpen:
		if a.PKGBUILDText == "" {
			return a.PKGBUILDName, "Loading PKGBUILD..."
		}
		return a.PKGBUILDName, a.PKGBUILDText
	case a.CommentsOpen:
		return a.CommentsName, renderComments(a.Comments, a.CommentsLoading, m.Viewer.Width)
	}
	return "", ""
}

// resize recomputes widget sizes from the terminal size.
func (m *AppModel) resize() {
	l := computeLayout(m.Width, m.Height)
	m.Search.Width = max(l.width-searchChrome, 10)
	m.Viewer.Width = max(l.rightWidth-4, 10)
	m.Viewer.Height = max(l.detailHeight-3, 3)
	m.Log.Width = max(l.modalWidth-6, 20)
	m.Log.Height = max(l.modalHeight-8, 5)
}
