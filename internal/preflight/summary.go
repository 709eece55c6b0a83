package preflight

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/papapumpkin/pacsea/internal/pacman"
	"github.com/papapumpkin/pacsea/internal/pkginfo"
	"github.com/papapumpkin/pacsea/internal/vercmp"
)

// corePackages raise the risk score by 3 when touched.
var corePackages = map[string]struct{}{
	"linux": {}, "linux-lts": {}, "linux-zen": {}, "systemd": {}, "glibc": {},
	"openssl": {}, "pacman": {}, "bash": {}, "util-linux": {}, "filesystem": {},
}

// IsCorePackage reports whether name is in the core/system set.
func IsCorePackage(name string) bool {
	_, ok := corePackages[strings.ToLower(name)]
	return ok
}

// Summary computes the summary tab. Installed versions and sizes come from
// `pacman -Q`/`-Qi`, target sizes from `pacman -Si`, all batched with
// per-package fallback; anything that cannot be read is left out.
func (r *Resolver) Summary(ctx context.Context, action Action, items []pkginfo.PackageItem, cancel *atomic.Bool) (Summary, error) {
	names := pkginfo.Names(items)
	installed := r.Pacman.Versions(ctx, names)
	local := r.Pacman.LocalInfo(ctx, names)
	if cancelled(cancel) {
		return Summary{}, ErrCancelled
	}
	official, _ := split(items)
	specs := make([]string, len(official))
	for i, it := range official {
		specs[i] = syncSpec(it)
	}
	remote := map[string]pacman.Record{}
	if action != ActionRemove && len(specs) > 0 {
		remote = r.Pacman.SyncInfo(ctx, specs)
	}

	s := Summary{PackageCount: len(items)}
	var anyCore, anyMajor, anyAUR bool
	for _, it := range items {
		if cancelled(cancel) {
			return Summary{}, ErrCancelled
		}
		ps := PackageSummary{Name: it.Name, Source: it.Source, TargetVersion: it.Version}
		if it.Source.IsAUR() {
			s.AURCount++
			anyAUR = true
		}
		current, isInstalled := installed[it.Name]
		ps.InstalledVersion = current

		var installedSize *uint64
		if n, ok := local[it.Name].Size("Installed Size"); ok {
			installedSize = &n
		}
		if rec, ok := remote[it.Name]; ok {
			if ps.TargetVersion == "" {
				ps.TargetVersion = rec["Version"]
			}
			if n, ok := rec.Size("Download Size"); ok {
				ps.DownloadBytes = &n
				s.DownloadBytes += n
			}
			if target, ok := rec.Size("Installed Size"); ok && action != ActionRemove {
				var cur uint64
				if installedSize != nil {
					cur = *installedSize
				}
				d := int64(target) - int64(cur)
				ps.InstallDelta = &d
			}
		}
		if action == ActionRemove && installedSize != nil {
			d := -int64(*installedSize)
			ps.InstallDelta = &d
		}
		if ps.InstallDelta != nil {
			s.InstallDelta += *ps.InstallDelta
		}

		switch {
		case isInstalled && action != ActionRemove && vercmp.IsDowngrade(current, ps.TargetVersion):
			ps.IsDowngrade = true
			ps.Notes = append(ps.Notes, fmt.Sprintf("Downgrade detected: %s → %s", current, ps.TargetVersion))
		case isInstalled && vercmp.IsMajorBump(current, ps.TargetVersion):
			ps.IsMajorBump = true
			anyMajor = true
			s.MajorBumps = append(s.MajorBumps, it.Name)
			ps.Notes = append(ps.Notes, fmt.Sprintf("Major version bump: %s → %s", current, ps.TargetVersion))
		case !isInstalled && action == ActionInstall:
			ps.Notes = append(ps.Notes, "New installation")
		}

		if IsCorePackage(it.Name) {
			anyCore = true
			s.CoreSystem = append(s.CoreSystem, it.Name)
			if action == ActionRemove {
				ps.Notes = append(ps.Notes, "Removing core/system package")
			} else {
				ps.Notes = append(ps.Notes, "Core/system package update")
			}
		}
		s.Packages = append(s.Packages, ps)
	}

	if anyCore {
		s.Notes = append(s.Notes, "Core/system packages will be modified.")
	}
	if anyMajor {
		s.Notes = append(s.Notes, "Major version changes detected; review changelogs.")
	}
	if anyAUR {
		s.Notes = append(s.Notes, "AUR packages present; build steps may vary.")
	}
	s.rescore()
	return s, nil
}

// ApplyImpacts folds the files and services results into the risk score.
func (s *Summary) ApplyImpacts(files []PackageFileInfo, services []ServiceImpact) {
	s.PacnewCandidates, s.PacsaveCandidates = 0, 0
	for _, f := range files {
		s.PacnewCandidates += f.PacnewCandidates
		s.PacsaveCandidates += f.PacsaveCandidates
	}
	s.ServiceRestarts = nil
	for _, svc := range services {
		if svc.NeedsRestart {
			s.ServiceRestarts = append(s.ServiceRestarts, svc.UnitName)
		}
	}
	s.rescore()
}

// rescore derives RiskScore, RiskLevel and RiskReasons: +3 core/system
// package, +2 major bump, +2 AUR package, +1 pacnew candidates, +1
// service restarts.
func (s *Summary) rescore() {
	s.RiskScore = 0
	s.RiskReasons = nil
	add := func(on bool, points int, reason string) {
		if on {
			s.RiskScore += points
			s.RiskReasons = append(s.RiskReasons, fmt.Sprintf("%s (+%d)", reason, points))
		}
	}
	add(len(s.CoreSystem) > 0, 3, "Core/system packages involved")
	add(len(s.MajorBumps) > 0, 2, "Major version bump detected")
	add(s.AURCount > 0, 2, "AUR packages included")
	add(s.PacnewCandidates > 0, 1, "Configuration files may produce .pacnew")
	add(len(s.ServiceRestarts) > 0, 1, "Services likely require restart")
	s.RiskLevel = LevelFor(s.RiskScore)
}
