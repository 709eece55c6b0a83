//go:build windows

package executor

import "context"

// PTY is a stub on Windows: every run reports ErrUnsupported.
type PTY struct {
	Rows, Cols uint16
}

// Run emits a single Error.
func (p PTY) Run(_ context.Context, id, _, _ string, emit func(Output)) {
	emit(Error(id, ErrUnsupported.Error()))
}
