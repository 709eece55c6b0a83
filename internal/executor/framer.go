package executor

import (
	"strings"
	"unicode/utf8"

	"github.com/papapumpkin/pacsea/internal/ansi"
)

// Framer splits raw PTY bytes into output lines. A chunk may end in the
// middle of a UTF-8 sequence; the incomplete tail is held until the next
// chunk arrives.
type Framer struct {
	id      string
	emit    func(Output)
	pending []byte
	line    strings.Builder
}

// NewFramer returns a framer that tags outputs with id.
func NewFramer(id string, emit func(Output)) *Framer {
	return &Framer{id: id, emit: emit}
}

// Write consumes one chunk.
func (f *Framer) Write(chunk []byte) {
	buf := append(f.pending, chunk...)
	f.pending = nil

	if utf8.Valid(buf) {
		f.process(string(buf))
		return
	}
	if start := lastRuneStart(buf); start >= 0 && !utf8.FullRune(buf[start:]) {
		f.pending = append([]byte(nil), buf[start:]...)
		buf = buf[:start]
	}
	f.process(strings.ToValidUTF8(string(buf), string(utf8.RuneError)))
}

// lastRuneStart returns the index of the last byte within UTFMax of the end
// that can begin a rune, or -1.
func lastRuneStart(buf []byte) int {
	for i := len(buf) - 1; i >= 0 && i >= len(buf)-utf8.UTFMax; i-- {
		if utf8.RuneStart(buf[i]) {
			return i
		}
	}
	return -1
}

// Flush decodes any held bytes and emits the partial line, if non-empty.
func (f *Framer) Flush() {
	if len(f.pending) > 0 {
		f.process(strings.ToValidUTF8(string(f.pending), string(utf8.RuneError)))
		f.pending = nil
	}
	f.terminate(false)
}

func (f *Framer) process(s string) {
	for _, r := range s {
		switch r {
		case '\n':
			f.terminate(false)
		case '\r':
			f.terminate(true)
		default:
			f.line.WriteRune(r)
		}
	}
}

// terminate ends the current line. A carriage-returned line that looks like
// a progress bar ("[###  ] 42%") replaces the previous line instead.
func (f *Framer) terminate(carriage bool) {
	raw := f.line.String()
	f.line.Reset()
	if strings.TrimSpace(raw) == "" {
		return
	}
	text := ansi.Strip(raw)
	if strings.TrimSpace(text) == "" {
		return
	}
	if carriage && isProgress(text) {
		f.emit(ReplaceLastLine(f.id, text))
		return
	}
	f.emit(Line(f.id, text))
}

func isProgress(s string) bool {
	return strings.Contains(s, "[") && strings.Contains(s, "]") && strings.Contains(s, "%")
}
