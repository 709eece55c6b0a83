// Package executor turns package operations into shell commands and runs
// them under a pseudoterminal, streaming framed output back to the TUI.
package executor

import (
	"errors"

	"github.com/google/uuid"

	"github.com/papapumpkin/pacsea/internal/pkginfo"
)

// ErrUnsupported is reported on platforms without PTY support.
var ErrUnsupported = errors.New("executor: PTY execution is not supported on Windows")

// Kind names the operation a Request performs.
type Kind string

// Request kinds.
const (
	KindInstall   Kind = "install"
	KindRemove    Kind = "remove"
	KindDowngrade Kind = "downgrade"
	KindUpdate    Kind = "update"
	KindScan      Kind = "scan"
	KindCustom    Kind = "custom"
)

// CascadeMode selects how far a removal reaches.
type CascadeMode int

// Cascade modes in cycling order.
const (
	CascadeBasic CascadeMode = iota
	CascadeDeps
	CascadeDepsConfigs
)

// Flag returns the pacman removal flag for m.
func (m CascadeMode) Flag() string {
	switch m {
	case CascadeDeps:
		return "-Rs"
	case CascadeDepsConfigs:
		return "-Rns"
	default:
		return "-R"
	}
}

// Label describes m for the preflight header.
func (m CascadeMode) Label() string {
	switch m {
	case CascadeDeps:
		return "remove with dependents"
	case CascadeDepsConfigs:
		return "remove dependents + configs"
	default:
		return "targets only"
	}
}

// Next cycles Basic → Deps → DepsConfigs → Basic.
func (m CascadeMode) Next() CascadeMode {
	return (m + 1) % 3
}

// ScanOptions toggles the scanners run by a security scan.
type ScanOptions struct {
	ClamAV     bool
	Trivy      bool
	Semgrep    bool
	ShellCheck bool
	VirusTotal bool
	Custom     bool
}

// AllScanners enables every scanner.
func AllScanners() ScanOptions {
	return ScanOptions{ClamAV: true, Trivy: true, Semgrep: true, ShellCheck: true, VirusTotal: true, Custom: true}
}

// Request is one privileged (or scan) operation. Which fields matter
// depends on Kind. Password is never logged or persisted.
type Request struct {
	ID       string
	Kind     Kind
	Items    []pkginfo.PackageItem // install
	Names    []string              // remove, downgrade
	Commands []string              // update
	Command  string                // custom
	Package  string                // scan
	Scan     ScanOptions
	Cascade  CascadeMode
	Password string
	DryRun   bool
}

func newRequest(kind Kind, password string, dryRun bool) Request {
	return Request{ID: uuid.NewString(), Kind: kind, Password: password, DryRun: dryRun}
}

// Install builds an install request.
func Install(items []pkginfo.PackageItem, password string, dryRun bool) Request {
	r := newRequest(KindInstall, password, dryRun)
	r.Items = items
	return r
}

// Remove builds a removal request.
func Remove(names []string, password string, cascade CascadeMode, dryRun bool) Request {
	r := newRequest(KindRemove, password, dryRun)
	r.Names = names
	r.Cascade = cascade
	return r
}

// Downgrade builds a downgrade request.
func Downgrade(names []string, password string, dryRun bool) Request {
	r := newRequest(KindDowngrade, password, dryRun)
	r.Names = names
	return r
}

// Update builds a system update request from individual commands.
func Update(commands []string, password string, dryRun bool) Request {
	r := newRequest(KindUpdate, password, dryRun)
	r.Commands = commands
	return r
}

// Scan builds a security scan request for an AUR package.
func Scan(pkg string, opts ScanOptions, dryRun bool) Request {
	r := newRequest(KindScan, "", dryRun)
	r.Package = pkg
	r.Scan = opts
	return r
}

// Custom builds a request running an arbitrary shell command.
func Custom(command, password string, dryRun bool) Request {
	r := newRequest(KindCustom, password, dryRun)
	r.Command = command
	return r
}

// Targets returns the package names a request touches.
func (r Request) Targets() []string {
	switch r.Kind {
	case KindInstall:
		return pkginfo.Names(r.Items)
	case KindScan:
		return []string{r.Package}
	default:
		return append([]string(nil), r.Names...)
	}
}

// OutputKind discriminates Output values.
type OutputKind int

// Output kinds.
const (
	OutputLine OutputKind = iota
	OutputReplaceLastLine
	OutputError
	OutputFinished
)

// Output is one message of an executor stream. For a given request,
// Finished or Error is always the last message.
type Output struct {
	RequestID     string
	Kind          OutputKind
	Text          string
	Success       bool
	ExitCode      *int
	FailedCommand *string
}

// Line returns a complete output line.
func Line(id, text string) Output {
	return Output{RequestID: id, Kind: OutputLine, Text: text}
}

// ReplaceLastLine returns a progress rewrite of the previous line.
func ReplaceLastLine(id, text string) Output {
	return Output{RequestID: id, Kind: OutputReplaceLastLine, Text: text}
}

// Error returns a terminal failure message.
func Error(id, text string) Output {
	return Output{RequestID: id, Kind: OutputError, Text: text}
}

// Finished returns the completion message for a child that exited.
func Finished(id string, exitCode int, failedCommand string) Output {
	o := Output{RequestID: id, Kind: OutputFinished, Success: exitCode == 0}
	code := exitCode
	o.ExitCode = &code
	if !o.Success && failedCommand != "" {
		o.FailedCommand = &failedCommand
	}
	return o
}

// Terminal reports whether o ends its stream.
func (o Output) Terminal() bool {
	return o.Kind == OutputFinished || o.Kind == OutputError
}
