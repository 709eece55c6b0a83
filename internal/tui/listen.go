package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/papapumpkin/pacsea/internal/bus"
	"github.com/papapumpkin/pacsea/internal/details"
	"github.com/papapumpkin/pacsea/internal/executor"
	"github.com/papapumpkin/pacsea/internal/faillock"
	"github.com/papapumpkin/pacsea/internal/index"
	"github.com/papapumpkin/pacsea/internal/installed"
	"github.com/papapumpkin/pacsea/internal/preflight"
	"github.com/papapumpkin/pacsea/internal/search"
)

// TickInterval is the period of MsgTick.
const TickInterval = 100 * time.Millisecond

// Inbox holds the queues workers reply on.
type Inbox struct {
	Results   *bus.Queue[search.Results]
	Details   *bus.Queue[details.Result]
	PKGBUILD  *bus.Queue[details.Text]
	Comments  *bus.Queue[details.CommentsResult]
	Index     *bus.Queue[index.Notice]
	Preflight *bus.Queue[preflight.Result]
	Exec      *bus.Queue[executor.Output]
}

// NewInbox allocates every queue.
func NewInbox() Inbox {
	return Inbox{
		Results:   bus.NewQueue[search.Results](),
		Details:   bus.NewQueue[details.Result](),
		PKGBUILD:  bus.NewQueue[details.Text](),
		Comments:  bus.NewQueue[details.CommentsResult](),
		Index:     bus.NewQueue[index.Notice](),
		Preflight: bus.NewQueue[preflight.Result](),
		Exec:      bus.NewQueue[executor.Output](),
	}
}

// Close closes every queue, ending their listeners.
func (in Inbox) Close() {
	for _, c := range []interface{ Close() }{in.Results, in.Details, in.PKGBUILD, in.Comments, in.Index, in.Preflight, in.Exec} {
		c.Close()
	}
}

// Services performs the blocking work the reducer asks for.
type Services interface {
	FetchInstalled(ctx context.Context) (installed.Snapshot, error)
	CheckFaillock(ctx context.Context) (st faillock.Status, user string, passwordless bool)
	ValidatePassword(ctx context.Context, pw string) error
	OpenURL(ctx context.Context, url string) error
}

// listen waits for the next value on q. A closed queue or cancelled ctx
// ends the listener without a message.
func listen[T any](ctx context.Context, q *bus.Queue[T], wrap func(T) tea.Msg) tea.Cmd {
	if q == nil {
		return nil
	}
	return func() tea.Msg {
		v, err := q.Recv(ctx)
		if err != nil {
			return nil
		}
		return wrap(v)
	}
}

func (m AppModel) listenResults() tea.Cmd {
	return listen(m.ctx, m.In.Results, func(r search.Results) tea.Msg { return MsgSearchResults{Results: r} })
}

func (m AppModel) listenDetails() tea.Cmd {
	return listen(m.ctx, m.In.Details, func(r details.Result) tea.Msg { return MsgDetails{Result: r} })
}

func (m AppModel) listenPKGBUILD() tea.Cmd {
	return listen(m.ctx, m.In.PKGBUILD, func(t details.Text) tea.Msg { return MsgPKGBUILD{Text: t} })
}

func (m AppModel) listenComments() tea.Cmd {
	return listen(m.ctx, m.In.Comments, func(r details.CommentsResult) tea.Msg { return MsgComments{Result: r} })
}

func (m AppModel) listenIndex() tea.Cmd {
	return listen(m.ctx, m.In.Index, func(n index.Notice) tea.Msg { return MsgIndexNotice{Notice: n} })
}

func (m AppModel) listenPreflight() tea.Cmd {
	return listen(m.ctx, m.In.Preflight, func(r preflight.Result) tea.Msg { return MsgPreflight{Result: r} })
}

func (m AppModel) listenExec() tea.Cmd {
	return listen(m.ctx, m.In.Exec, func(o executor.Output) tea.Msg { return MsgExecOutput{Output: o} })
}

// waitLocalDB waits for the next local database change.
func (m AppModel) waitLocalDB() tea.Cmd {
	if m.LocalDB == nil {
		return nil
	}
	ch, ctx := m.LocalDB, m.ctx
	return func() tea.Msg {
		select {
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			return MsgLocalDBChanged{}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m AppModel) fetchInstalled() tea.Cmd {
	if m.Services == nil {
		return nil
	}
	svc, ctx := m.Services, m.ctx
	return func() tea.Msg {
		snap, err := svc.FetchInstalled(ctx)
		return MsgInstalled{Snapshot: snap, Err: err}
	}
}

func (m AppModel) checkFaillock() tea.Cmd {
	if m.Services == nil {
		return func() tea.Msg { return MsgFaillock{} }
	}
	svc, ctx := m.Services, m.ctx
	return func() tea.Msg {
		st, user, passwordless := svc.CheckFaillock(ctx)
		return MsgFaillock{Status: st, User: user, Passwordless: passwordless}
	}
}

func (m AppModel) validatePassword(pw string) tea.Cmd {
	if m.Services == nil {
		return func() tea.Msg { return MsgPasswordChecked{Password: pw} }
	}
	svc, ctx := m.Services, m.ctx
	return func() tea.Msg {
		err := svc.ValidatePassword(ctx, pw)
		return MsgPasswordChecked{Password: pw, Err: err}
	}
}

func (m AppModel) openURL(u string) tea.Cmd {
	if m.Services == nil {
		return nil
	}
	svc, ctx := m.Services, m.ctx
	return func() tea.Msg {
		return MsgOpened{URL: u, Err: svc.OpenURL(ctx, u)}
	}
}

// tickCmd returns a command that sends a MsgTick after TickInterval.
func tickCmd() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg {
		return MsgTick{Time: t}
	})
}
