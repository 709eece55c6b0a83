package state

import (
	"fmt"
	"strings"

	"github.com/papapumpkin/pacsea/internal/executor"
	"github.com/papapumpkin/pacsea/internal/faillock"
	"github.com/papapumpkin/pacsea/internal/pkginfo"
	"github.com/papapumpkin/pacsea/internal/preflight"
)

// ExecPhase is the step of the privileged execution flow.
type ExecPhase int

// Phases in flow order.
const (
	ExecIdle ExecPhase = iota
	ExecCheckingFaillock
	ExecAlertLocked
	ExecPasswordPrompt
	ExecValidating
	ExecStreaming
	ExecPostSummary
)

// String names the phase for logs.
func (p ExecPhase) String() string {
	switch p {
	case ExecIdle:
		return "idle"
	case ExecCheckingFaillock:
		return "checking_faillock"
	case ExecAlertLocked:
		return "alert_locked"
	case ExecPasswordPrompt:
		return "password_prompt"
	case ExecValidating:
		return "validating"
	case ExecStreaming:
		return "streaming"
	case ExecPostSummary:
		return "post_summary"
	}
	return "unknown"
}

// Impact is what the preflight predicted for a transaction.
type Impact struct {
	ChangedFiles int
	Pacnew       int
	Pacsave      int
	Restart      []string // units the user chose to restart
	Deferred     []string // units left for later
}

// Job is a transaction waiting for authorisation.
type Job struct {
	Kind     executor.Kind
	Items    []pkginfo.PackageItem
	Names    []string
	Commands []string
	Command  string
	Package  string
	Scan     executor.ScanOptions
	Cascade  executor.CascadeMode
	Impact   Impact
}

// Title names the job in the executor modal.
func (j Job) Title() string {
	switch j.Kind {
	case executor.KindUpdate:
		return "System update"
	case executor.KindScan:
		return "Scan " + j.Package
	case executor.KindCustom:
		return j.Command
	}
	return strings.ToUpper(string(j.Kind[:1])) + string(j.Kind[1:]) + " " + strings.Join(j.Names, " ")
}

// needsPassword reports whether the job runs anything through sudo.
func (j Job) needsPassword() bool {
	switch j.Kind {
	case executor.KindScan:
		return false
	case executor.KindCustom:
		return strings.Contains(j.Command, "sudo ")
	}
	return true
}

// request builds the executor request for j.
func (j Job) request(pw string, dryRun bool) executor.Request {
	switch j.Kind {
	case executor.KindRemove:
		return executor.Remove(j.Names, pw, j.Cascade, dryRun)
	case executor.KindDowngrade:
		return executor.Downgrade(j.Names, pw, dryRun)
	case executor.KindUpdate:
		return executor.Update(j.Commands, pw, dryRun)
	case executor.KindScan:
		return executor.Scan(j.Package, j.Scan, dryRun)
	case executor.KindCustom:
		return executor.Custom(j.Command, pw, dryRun)
	default:
		return executor.Install(j.Items, pw, dryRun)
	}
}

// PostSummary is shown when a transaction finishes.
type PostSummary struct {
	Success       bool
	ExitCode      *int
	FailedCommand string
	Impact
}

// ExecState drives the executor modal.
type ExecState struct {
	Phase       ExecPhase
	Job         Job
	Alert       string
	PasswordErr string
	RequestID   string
	Log         []string
	Post        *PostSummary
}

// Active reports whether the executor modal is shown.
func (e ExecState) Active() bool { return e.Phase != ExecIdle }

// BeginExec starts the flow for job. The caller checks faillock and
// answers with ApplyFaillock.
func (a *App) BeginExec(job Job) {
	if a.Exec.Active() {
		a.SetToast("Another transaction is in progress")
		return
	}
	a.Exec = ExecState{Phase: ExecCheckingFaillock, Job: job}
	if !job.needsPassword() {
		a.spawn("")
	}
}

// ApplyFaillock continues the flow once the lockout status is known.
// A locked account shows an alert instead of the password prompt, and
// passwordless sudo skips the prompt.
func (a *App) ApplyFaillock(st faillock.Status, user string, passwordless bool) {
	if a.Exec.Phase != ExecCheckingFaillock {
		return
	}
	switch {
	case st.Locked:
		a.Exec.Phase = ExecAlertLocked
		a.Exec.Alert = st.Message(user, a.now())
	case passwordless:
		a.spawn("")
	default:
		a.Exec.Phase = ExecPasswordPrompt
	}
}

// SubmitPassword moves to validation. It reports false when no prompt is
// open.
func (a *App) SubmitPassword() bool {
	if a.Exec.Phase != ExecPasswordPrompt {
		return false
	}
	a.Exec.Phase = ExecValidating
	a.Exec.PasswordErr = ""
	return true
}

// ApplyPasswordCheck spawns the job with pw when validation succeeded,
// otherwise reopens the prompt with the error.
func (a *App) ApplyPasswordCheck(pw string, err error) {
	if a.Exec.Phase != ExecValidating {
		return
	}
	if err != nil {
		a.Exec.Phase = ExecPasswordPrompt
		a.Exec.PasswordErr = err.Error()
		return
	}
	a.spawn(pw)
}

func (a *App) spawn(pw string) {
	job := a.Exec.Job
	req := job.request(pw, a.DryRun)
	a.Exec.Phase = ExecStreaming
	a.Exec.RequestID = req.ID
	a.Exec.Log = nil
	a.l.Info("transaction started", "id", req.ID, "kind", string(req.Kind), "targets", strings.Join(req.Targets(), " "), "dry_run", req.DryRun)
	send(a.l, a.Out.Executor, "executor", req)

	if a.DryRun {
		return
	}
	switch job.Kind {
	case executor.KindInstall:
		a.MarkMutation(job.Names, nil)
	case executor.KindRemove:
		a.MarkMutation(nil, job.Names)
	case executor.KindDowngrade, executor.KindUpdate:
		a.MarkMutation(nil, nil)
	}
}

// ApplyExecOutput appends executor output to the log. A Finished output
// moves to the post-transaction summary; an Error ends the flow.
func (a *App) ApplyExecOutput(o executor.Output) {
	if a.Exec.Phase != ExecStreaming || o.RequestID != a.Exec.RequestID {
		return
	}
	switch o.Kind {
	case executor.OutputLine:
		a.Exec.Log = append(a.Exec.Log, o.Text)
	case executor.OutputReplaceLastLine:
		if n := len(a.Exec.Log); n > 0 {
			a.Exec.Log[n-1] = o.Text
		} else {
			a.Exec.Log = append(a.Exec.Log, o.Text)
		}
	case executor.OutputError:
		a.l.Warn("transaction failed to run", "id", o.RequestID, "err", o.Text)
		a.Exec = ExecState{}
		a.SetToast("Execution failed: " + o.Text)
	case executor.OutputFinished:
		post := &PostSummary{Success: o.Success, ExitCode: o.ExitCode, Impact: a.Exec.Job.Impact}
		if o.FailedCommand != nil {
			post.FailedCommand = *o.FailedCommand
		}
		a.Exec.Phase = ExecPostSummary
		a.Exec.Post = post
		a.l.Info("transaction finished", "id", o.RequestID, "success", o.Success)
	}
}

// CloseExec dismisses the modal when it is not streaming.
func (a *App) CloseExec() {
	if a.Exec.Phase == ExecStreaming || a.Exec.Phase == ExecValidating {
		return
	}
	a.Exec = ExecState{}
}

// RestartServices runs systemctl for the units chosen in the preflight of
// the finished transaction.
func (a *App) RestartServices() {
	post := a.Exec.Post
	if a.Exec.Phase != ExecPostSummary || post == nil || !post.Success || len(post.Restart) == 0 {
		return
	}
	units := post.Restart
	a.Exec = ExecState{}
	a.BeginExec(Job{
		Kind:    executor.KindCustom,
		Command: "sudo systemctl restart " + strings.Join(units, " "),
	})
}

// StartInstall opens the install preflight for the install list.
func (a *App) StartInstall() {
	a.openListPreflight(a.Install)
}

func (a *App) openListPreflight(l *PackageList) {
	switch l {
	case a.Remove:
		a.OpenPreflight(preflight.ActionRemove, l.Items())
	case a.Downgrade:
		a.OpenPreflight(preflight.ActionDowngrade, l.Items())
	default:
		a.OpenPreflight(preflight.ActionInstall, l.Items())
	}
}

// StartRightPane opens the preflight for the list in the right pane.
func (a *App) StartRightPane() { a.openListPreflight(a.RightList()) }

// StartSystemUpdate asks for a full system upgrade.
func (a *App) StartSystemUpdate() {
	a.BeginExec(Job{Kind: executor.KindUpdate, Commands: executor.SystemUpdate()})
}

// StartScan asks for a security scan of the selected AUR package.
func (a *App) StartScan() {
	it, ok := a.SelectedItem()
	if !ok {
		return
	}
	if !it.Source.IsAUR() {
		a.SetToast(fmt.Sprintf("%s is not an AUR package", it.Name))
		return
	}
	a.BeginExec(Job{Kind: executor.KindScan, Package: it.Name, Scan: executor.AllScanners()})
}
