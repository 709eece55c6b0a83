package preflight

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/papapumpkin/pacsea/internal/pkginfo"
)

var unitDirs = []string{"usr/lib/systemd/system/", "lib/systemd/system/"}

// unitName returns the service unit a packaged path installs, if any.
func unitName(p string) (string, bool) {
	p = strings.TrimPrefix(p, "/")
	for _, dir := range unitDirs {
		if !strings.HasPrefix(p, dir) {
			continue
		}
		rest := strings.TrimPrefix(p, dir)
		if strings.Contains(rest, "/") || !strings.HasSuffix(rest, ".service") {
			return "", false
		}
		return path.Base(rest), true
	}
	return "", false
}

// ActiveUnits lists active service units via systemctl. Failures yield an
// empty set: without systemd no unit needs restarting.
func (r *Resolver) ActiveUnits(ctx context.Context) map[string]struct{} {
	out, err := r.Runner.Run(ctx, "systemctl", "list-units", "--type=service", "--no-legend", "--state=active", "--plain")
	active := map[string]struct{}{}
	if err != nil {
		r.l.Debug("systemctl unavailable", "err", err)
		return active
	}
	for _, line := range strings.Split(out, "\n") {
		f := strings.Fields(strings.TrimLeft(line, "●* "))
		if len(f) > 0 && strings.HasSuffix(f[0], ".service") {
			active[f[0]] = struct{}{}
		}
	}
	return active
}

// Services finds systemd units shipped by the packages. A unit needs a
// restart when it is active and the transaction installs or upgrades it;
// the recommended decision follows from that and starts as the decision.
func (r *Resolver) Services(ctx context.Context, action Action, items []pkginfo.PackageItem, cancel *atomic.Bool) ([]ServiceImpact, error) {
	files := map[string][]string{}
	if action != ActionRemove {
		official, _ := split(items)
		specs := make([]string, len(official))
		for i, it := range official {
			specs[i] = syncSpec(it)
		}
		if len(specs) > 0 {
			remote, err := r.Pacman.RemoteFiles(ctx, specs)
			if err != nil {
				r.l.Debug("file list unavailable", "err", err)
			}
			for k, v := range remote {
				files[k] = v
			}
		}
	}
	for _, it := range items {
		if cancelled(cancel) {
			return nil, ErrCancelled
		}
		if _, ok := files[it.Name]; ok {
			continue
		}
		if local, err := r.Pacman.LocalFiles(ctx, it.Name); err == nil {
			files[it.Name] = local
		}
	}

	providers := map[string][]string{}
	for _, it := range items {
		for _, p := range files[it.Name] {
			if unit, ok := unitName(p); ok && !contains(providers[unit], it.Name) {
				providers[unit] = append(providers[unit], it.Name)
			}
		}
	}
	if len(providers) == 0 {
		return nil, nil
	}
	if cancelled(cancel) {
		return nil, ErrCancelled
	}

	active := r.ActiveUnits(ctx)
	out := make([]ServiceImpact, 0, len(providers))
	for unit, pkgs := range providers {
		_, isActive := active[unit]
		needs := isActive && action != ActionRemove
		rec := ServiceDefer
		if needs {
			rec = ServiceRestart
		}
		sort.Strings(pkgs)
		out = append(out, ServiceImpact{
			UnitName:     unit,
			Providers:    pkgs,
			IsActive:     isActive,
			NeedsRestart: needs,
			Recommended:  rec,
			Decision:     rec,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitName < out[j].UnitName })
	return out, nil
}
