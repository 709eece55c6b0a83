package preflight

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/papapumpkin/pacsea/internal/pacman"
	"github.com/papapumpkin/pacsea/internal/pkginfo"
)

// FilesResult is the files tab: per-package changes plus a hint when the
// file database is stale or missing.
type FilesResult struct {
	Packages []PackageFileInfo `json:"packages"`
	SyncHint string            `json:"sync_hint,omitempty"`
}

// Totals sums the per-package counters.
func (f FilesResult) Totals() PackageFileInfo {
	var t PackageFileInfo
	for _, p := range f.Packages {
		t.Total += p.Total
		t.New += p.New
		t.Changed += p.Changed
		t.Removed += p.Removed
		t.Config += p.Config
		t.PacnewCandidates += p.PacnewCandidates
		t.PacsaveCandidates += p.PacsaveCandidates
	}
	return t
}

// Files diffs the target file lists against the installed ones. Installs
// read `pacman -Fl` for official packages; AUR file lists are unknown
// before building, so only their installed files are compared. Removals
// read `pacman -Ql`. Backup entries predict .pacnew and .pacsave files.
func (r *Resolver) Files(ctx context.Context, action Action, items []pkginfo.PackageItem, cancel *atomic.Bool) (FilesResult, error) {
	var res FilesResult
	res.SyncHint = r.fileDBHint()

	installed, err := r.Pacman.Installed(ctx)
	if err != nil {
		return res, fmt.Errorf("preflight: installed packages: %w", err)
	}

	remote := map[string][]string{}
	if action != ActionRemove {
		official, _ := split(items)
		specs := make([]string, len(official))
		for i, it := range official {
			specs[i] = syncSpec(it)
		}
		if len(specs) > 0 {
			remote, err = r.Pacman.RemoteFiles(ctx, specs)
			if err != nil {
				r.l.Warn("file list unavailable", "err", err)
				if res.SyncHint == "" {
					res.SyncHint = "File database unavailable; run `sudo pacman -Fy`."
				}
			}
		}
	}

	for _, it := range items {
		if cancelled(cancel) {
			return FilesResult{}, ErrCancelled
		}
		_, isInstalled := installed[it.Name]
		var local, backup []string
		if isInstalled {
			local, _ = r.Pacman.LocalFiles(ctx, it.Name)
			backup, _ = r.Pacman.Backup(ctx, it.Name)
		}
		info := diffFiles(it.Name, action, isInstalled, remote[it.Name], local, backup)
		res.Packages = append(res.Packages, info)
	}
	return res, nil
}

func (r *Resolver) fileDBHint() string {
	if r.SyncDir == "" {
		return ""
	}
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	age, ok := pacman.FileDBAge(r.SyncDir, now)
	if !ok {
		return "No pacman file database found; run `sudo pacman -Fy`."
	}
	if r.MaxFileDBAge > 0 && age > r.MaxFileDBAge {
		return fmt.Sprintf("File database last synced %s; run `sudo pacman -Fy`.", humanize.RelTime(now.Add(-age), now, "ago", "from now"))
	}
	return ""
}

// diffFiles classifies every path of one package. Directories are ignored.
func diffFiles(name string, action Action, isInstalled bool, remote, local, backup []string) PackageFileInfo {
	info := PackageFileInfo{Name: name}
	backups := make(map[string]struct{}, len(backup))
	for _, b := range backup {
		backups[normalizePath(b)] = struct{}{}
	}
	localSet := make(map[string]struct{}, len(local))
	for _, p := range local {
		if !isDir(p) {
			localSet[normalizePath(p)] = struct{}{}
		}
	}

	add := func(path string, change ChangeType) {
		_, isBackup := backups[path]
		fc := FileChange{
			Path:     path,
			Change:   change,
			Package:  name,
			IsConfig: strings.HasPrefix(path, "/etc/") || isBackup,
		}
		switch action {
		case ActionRemove:
			fc.PredictedPacsave = isBackup
		default:
			fc.PredictedPacnew = isInstalled && isBackup && fc.IsConfig
		}
		info.Files = append(info.Files, fc)
	}

	if action == ActionRemove {
		for p := range localSet {
			add(p, FileRemoved)
		}
	} else {
		seen := make(map[string]struct{}, len(remote))
		for _, p := range remote {
			if isDir(p) {
				continue
			}
			path := normalizePath(p)
			seen[path] = struct{}{}
			if _, ok := localSet[path]; ok {
				add(path, FileChanged)
			} else {
				add(path, FileNew)
			}
		}
		if len(remote) > 0 {
			for p := range localSet {
				if _, ok := seen[p]; !ok {
					add(p, FileRemoved)
				}
			}
		}
	}

	sort.Slice(info.Files, func(i, j int) bool { return info.Files[i].Path < info.Files[j].Path })
	for _, f := range info.Files {
		info.Total++
		switch f.Change {
		case FileNew:
			info.New++
		case FileChanged:
			info.Changed++
		case FileRemoved:
			info.Removed++
		}
		if f.IsConfig {
			info.Config++
		}
		if f.PredictedPacnew {
			info.PacnewCandidates++
		}
		if f.PredictedPacsave {
			info.PacsaveCandidates++
		}
	}
	return info
}

func isDir(p string) bool { return strings.HasSuffix(p, "/") }

// normalizePath makes `-Fl` paths (relative) comparable with `-Ql` paths.
func normalizePath(p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}
