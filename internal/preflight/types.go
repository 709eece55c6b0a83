// Package preflight resolves what a transaction will do before it runs:
// a summary with a risk score, the dependency closure, file changes,
// affected systemd services and, for AUR packages, build dependencies.
//
// Every resolver polls a shared cancellation flag between packages and
// returns ErrCancelled once it is set. Results carry the signature of the
// transaction they were computed for so late results can be discarded.
package preflight

import (
	"errors"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/papapumpkin/pacsea/internal/pkginfo"
)

// ErrCancelled is returned when the preflight modal closed mid-resolution.
var ErrCancelled = errors.New("preflight: cancelled")

// Action is the transaction kind being previewed.
type Action string

// Actions.
const (
	ActionInstall   Action = "install"
	ActionRemove    Action = "remove"
	ActionDowngrade Action = "downgrade"
)

// Tab identifies one resolver and the modal tab that shows it.
type Tab int

// Tabs in display order.
const (
	TabSummary Tab = iota
	TabDeps
	TabFiles
	TabServices
	TabSandbox
)

// Tabs lists every tab in display order.
func Tabs() []Tab {
	return []Tab{TabSummary, TabDeps, TabFiles, TabServices, TabSandbox}
}

// String returns the tab label.
func (t Tab) String() string {
	switch t {
	case TabSummary:
		return "Summary"
	case TabDeps:
		return "Deps"
	case TabFiles:
		return "Files"
	case TabServices:
		return "Services"
	case TabSandbox:
		return "Sandbox"
	}
	return "?"
}

// Signature identifies a transaction by action and sorted package names.
func Signature(action Action, names []string) string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return string(action) + ":" + strings.Join(sorted, ",")
}

// cancelled reports whether flag is set. A nil flag never cancels.
func cancelled(flag *atomic.Bool) bool {
	return flag != nil && flag.Load()
}

// RiskLevel buckets the risk score.
type RiskLevel string

// Risk levels.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// LevelFor maps a score to its level: 0 low, 1 to 4 medium, 5+ high.
func LevelFor(score int) RiskLevel {
	switch {
	case score <= 0:
		return RiskLow
	case score <= 4:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// DepStatus classifies a dependency.
type DepStatus string

// Dependency statuses, most urgent first.
const (
	DepConflict  DepStatus = "conflict"
	DepMissing   DepStatus = "missing"
	DepToInstall DepStatus = "to_install"
	DepToUpgrade DepStatus = "to_upgrade"
	DepInstalled DepStatus = "installed"
)

// Priority orders statuses for display; lower is more urgent.
func (s DepStatus) Priority() int {
	switch s {
	case DepConflict:
		return 0
	case DepMissing:
		return 1
	case DepToInstall:
		return 2
	case DepToUpgrade:
		return 3
	default:
		return 4
	}
}

// DepSourceKind says where a dependency comes from.
type DepSourceKind string

// Dependency sources.
const (
	DepOfficial DepSourceKind = "official"
	DepAUR      DepSourceKind = "aur"
	DepLocal    DepSourceKind = "local"
)

// DependencyInfo is one entry of the flattened dependency closure.
type DependencyInfo struct {
	Name       string        `json:"name"`
	Version    string        `json:"version"` // version requirement, e.g. ">=2.38"
	Status     DepStatus     `json:"status"`
	Current    string        `json:"current,omitempty"`  // installed version
	Required   string        `json:"required,omitempty"` // for to_upgrade
	Reason     string        `json:"reason,omitempty"`   // for conflict
	Source     DepSourceKind `json:"source"`
	Repo       string        `json:"repo,omitempty"`
	RequiredBy []string      `json:"required_by"`
	DependsOn  []string      `json:"depends_on"`
	IsCore     bool          `json:"is_core"`
	IsSystem   bool          `json:"is_system"`
}

// ChangeType classifies a file change.
type ChangeType string

// File change types.
const (
	FileNew     ChangeType = "new"
	FileChanged ChangeType = "changed"
	FileRemoved ChangeType = "removed"
)

// FileChange is one path touched by a transaction.
type FileChange struct {
	Path             string     `json:"path"`
	Change           ChangeType `json:"change"`
	Package          string     `json:"package"`
	IsConfig         bool       `json:"is_config"`
	PredictedPacnew  bool       `json:"predicted_pacnew"`
	PredictedPacsave bool       `json:"predicted_pacsave"`
}

// PackageFileInfo aggregates the file changes of one package.
type PackageFileInfo struct {
	Name              string       `json:"name"`
	Files             []FileChange `json:"files"`
	Total             int          `json:"total"`
	New               int          `json:"new"`
	Changed           int          `json:"changed"`
	Removed           int          `json:"removed"`
	Config            int          `json:"config"`
	PacnewCandidates  int          `json:"pacnew_candidates"`
	PacsaveCandidates int          `json:"pacsave_candidates"`
}

// ServiceDecision is what happens to an active unit after the transaction.
type ServiceDecision string

// Service decisions.
const (
	ServiceRestart ServiceDecision = "restart"
	ServiceDefer   ServiceDecision = "defer"
)

// Toggle flips the decision.
func (d ServiceDecision) Toggle() ServiceDecision {
	if d == ServiceRestart {
		return ServiceDefer
	}
	return ServiceRestart
}

// ServiceImpact is a systemd unit shipped by a package in the transaction.
type ServiceImpact struct {
	UnitName     string          `json:"unit_name"`
	Providers    []string        `json:"providers"`
	IsActive     bool            `json:"is_active"`
	NeedsRestart bool            `json:"needs_restart"`
	Recommended  ServiceDecision `json:"recommended"`
	Decision     ServiceDecision `json:"decision"`
}

// DependencyDelta compares one declared build dependency with the system.
type DependencyDelta struct {
	Name             string `json:"name"`
	Spec             string `json:"spec"`
	IsInstalled      bool   `json:"is_installed"`
	InstalledVersion string `json:"installed_version,omitempty"`
	VersionSatisfied bool   `json:"version_satisfied"`
}

// SandboxInfo lists the build dependencies of an AUR package.
type SandboxInfo struct {
	PackageName  string            `json:"package_name"`
	Depends      []DependencyDelta `json:"depends"`
	MakeDepends  []DependencyDelta `json:"make_depends"`
	CheckDepends []DependencyDelta `json:"check_depends"`
	OptDepends   []DependencyDelta `json:"opt_depends"`
}

// Missing counts declared dependencies that are not installed.
func (s SandboxInfo) Missing() int {
	n := 0
	for _, group := range [][]DependencyDelta{s.Depends, s.MakeDepends, s.CheckDepends} {
		for _, d := range group {
			if !d.IsInstalled || !d.VersionSatisfied {
				n++
			}
		}
	}
	return n
}

// PackageSummary is one row of the summary tab.
type PackageSummary struct {
	Name             string         `json:"name"`
	Source           pkginfo.Source `json:"source"`
	InstalledVersion string         `json:"installed_version,omitempty"`
	TargetVersion    string         `json:"target_version"`
	IsDowngrade      bool           `json:"is_downgrade"`
	IsMajorBump      bool           `json:"is_major_bump"`
	DownloadBytes    *uint64        `json:"download_bytes,omitempty"`
	InstallDelta     *int64         `json:"install_delta,omitempty"`
	Notes            []string       `json:"notes"`
}

// Summary is the summary tab plus the header chips.
type Summary struct {
	Packages          []PackageSummary `json:"packages"`
	PackageCount      int              `json:"package_count"`
	AURCount          int              `json:"aur_count"`
	DownloadBytes     uint64           `json:"download_bytes"`
	InstallDelta      int64            `json:"install_delta"`
	RiskScore         int              `json:"risk_score"`
	RiskLevel         RiskLevel        `json:"risk_level"`
	RiskReasons       []string         `json:"risk_reasons"`
	MajorBumps        []string         `json:"major_bumps"`
	CoreSystem        []string         `json:"core_system"`
	PacnewCandidates  int              `json:"pacnew_candidates"`
	PacsaveCandidates int              `json:"pacsave_candidates"`
	ServiceRestarts   []string         `json:"service_restarts"`
	Notes             []string         `json:"notes"`
}
