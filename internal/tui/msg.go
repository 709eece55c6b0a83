package tui

import (
	"time"

	"github.com/papapumpkin/pacsea/internal/details"
	"github.com/papapumpkin/pacsea/internal/executor"
	"github.com/papapumpkin/pacsea/internal/faillock"
	"github.com/papapumpkin/pacsea/internal/index"
	"github.com/papapumpkin/pacsea/internal/installed"
	"github.com/papapumpkin/pacsea/internal/preflight"
	"github.com/papapumpkin/pacsea/internal/search"
)

// Worker replies. Each is produced by a queue listener, which is re-armed
// after the message is handled.

// MsgSearchResults carries the answer to a search query.
type MsgSearchResults struct {
	Results search.Results
}

// MsgDetails carries fetched package details.
type MsgDetails struct {
	Result details.Result
}

// MsgPKGBUILD carries a fetched PKGBUILD.
type MsgPKGBUILD struct {
	Text details.Text
}

// MsgComments carries fetched AUR comments.
type MsgComments struct {
	Result details.CommentsResult
}

// MsgIndexNotice reports a change to the official index.
type MsgIndexNotice struct {
	Notice index.Notice
}

// MsgPreflight carries one resolved preflight tab.
type MsgPreflight struct {
	Result preflight.Result
}

// MsgExecOutput carries one executor output event.
type MsgExecOutput struct {
	Output executor.Output
}

// Replies to blocking work started from the reducer.

// MsgInstalled carries re-read installed sets.
type MsgInstalled struct {
	Snapshot installed.Snapshot
	Err      error
}

// MsgLocalDBChanged is sent when the pacman local database changes on disk.
type MsgLocalDBChanged struct{}

// MsgFaillock carries the lockout status of the invoking user.
type MsgFaillock struct {
	Status       faillock.Status
	User         string
	Passwordless bool
}

// MsgPasswordChecked carries the outcome of sudo password validation.
type MsgPasswordChecked struct {
	Password string
	Err      error
}

// MsgOpened reports the outcome of opening a URL in the browser.
type MsgOpened struct {
	URL string
	Err error
}

// MsgTick is the 100ms heartbeat driving debounces and persistence.
type MsgTick struct {
	Time time.Time
}
