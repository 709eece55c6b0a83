//go:build !windows

package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/creack/pty"
)

// Streaming timing.
const (
	chunkSize    = 4096
	pollInterval = 50 * time.Millisecond
	drainTimeout = 100 * time.Millisecond
)

// PTY runs commands under a pseudoterminal of the given size.
type PTY struct {
	Rows, Cols uint16
}

// Run executes `bash -c cmd` and emits framed output tagged with id. It
// returns after emitting Finished or Error; a cancelled ctx kills the child
// and reports Cancelled. display is reported as the failed command when the
// child exits non-zero.
func (p PTY) Run(ctx context.Context, id, cmd, display string, emit func(Output)) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		emit(Error(id, fmt.Sprintf("Failed to open PTY: %v", err)))
		return
	}
	defer ptmx.Close()
	if err := pty.Setsize(ptmx, &pty.Winsize{Rows: p.Rows, Cols: p.Cols}); err != nil {
		tty.Close()
		emit(Error(id, fmt.Sprintf("Failed to open PTY: %v", err)))
		return
	}

	c := exec.Command("bash", "-c", cmd)
	c.Stdin, c.Stdout, c.Stderr = tty, tty, tty
	c.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}
	c.Env = append(os.Environ(), fmt.Sprintf("LINES=%d", p.Rows), fmt.Sprintf("COLUMNS=%d", p.Cols))
	if err := c.Start(); err != nil {
		tty.Close()
		emit(Error(id, fmt.Sprintf("Failed to spawn command: %v", err)))
		return
	}
	tty.Close()

	chunks := make(chan []byte, 64)
	go readChunks(ptmx, chunks)

	exited := make(chan error, 1)
	go func() { exited <- c.Wait() }()

	fr := NewFramer(id, emit)
	for {
		select {
		case werr := <-exited:
			drain(chunks, fr)
			fr.Flush()
			emit(finish(id, werr, display))
			return
		default:
		}

		select {
		case chunk, ok := <-chunks:
			if !ok {
				fr.Flush()
				emit(finish(id, <-exited, display))
				return
			}
			fr.Write(chunk)
		case <-time.After(pollInterval):
		case <-ctx.Done():
			if c.Process != nil {
				// bash leads its own session; take its children down with it.
				_ = syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
				_ = c.Process.Kill()
			}
			<-exited
			go func() {
				for range chunks {
				}
			}()
			fr.Flush()
			emit(Error(id, Cancelled))
			return
		}
	}
}

// readChunks copies ptmx into ch until EOF. Linux reports EIO once the
// child side is closed; that is treated as EOF too.
func readChunks(ptmx *os.File, ch chan<- []byte) {
	defer close(ch)
	buf := make([]byte, chunkSize)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			ch <- append([]byte(nil), buf[:n]...)
		}
		if err != nil {
			return
		}
	}
}

func drain(chunks <-chan []byte, fr *Framer) {
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return
			}
			fr.Write(chunk)
		case <-time.After(drainTimeout):
			return
		}
	}
}

func finish(id string, werr error, display string) Output {
	if werr == nil {
		return Finished(id, 0, display)
	}
	var exitErr *exec.ExitError
	if errors.As(werr, &exitErr) {
		return Finished(id, exitErr.ExitCode(), display)
	}
	return Error(id, fmt.Sprintf("Wait error: %v", werr))
}
