package preflight

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/papapumpkin/pacsea/internal/aur"
	"github.com/papapumpkin/pacsea/internal/pkginfo"
	"github.com/papapumpkin/pacsea/internal/vercmp"
)

// Sandbox reads the .SRCINFO of every AUR item and compares its declared
// dependencies with the system. Official items have nothing to build and are
// skipped. A package whose .SRCINFO cannot be fetched is reported with empty
// lists rather than failing the tab.
func (r *Resolver) Sandbox(ctx context.Context, items []pkginfo.PackageItem, cancel *atomic.Bool) ([]SandboxInfo, error) {
	_, aurItems := split(items)
	if len(aurItems) == 0 || r.AUR == nil {
		return nil, nil
	}
	installed, err := r.Pacman.Installed(ctx)
	if err != nil {
		return nil, fmt.Errorf("preflight: installed packages: %w", err)
	}
	provided, err := r.Pacman.Provided(ctx)
	if err != nil {
		provided = map[string]struct{}{}
	}

	var out []SandboxInfo
	for _, it := range aurItems {
		if cancelled(cancel) {
			return nil, ErrCancelled
		}
		info := SandboxInfo{PackageName: it.Name}
		text, err := r.AUR.SRCINFO(ctx, it.Name)
		if err != nil {
			r.l.Warn("srcinfo unavailable", "name", it.Name, "err", err)
			out = append(out, info)
			continue
		}
		src := aur.ParseSRCINFO(text)

		var names []string
		for _, group := range [][]string{src.Depends, src.MakeDepends, src.CheckDepends, src.OptDepends} {
			for _, spec := range group {
				if c := vercmp.ParseConstraint(depSpec(spec)); c.Name != "" {
					if _, ok := installed[c.Name]; ok {
						names = append(names, c.Name)
					}
				}
			}
		}
		versions := r.Pacman.Versions(ctx, names)

		delta := func(specs []string) []DependencyDelta {
			var ds []DependencyDelta
			for _, raw := range specs {
				spec := depSpec(raw)
				c := vercmp.ParseConstraint(spec)
				if c.Name == "" {
					continue
				}
				d := DependencyDelta{Name: c.Name, Spec: spec}
				if v, ok := versions[c.Name]; ok {
					d.IsInstalled = true
					d.InstalledVersion = v
					d.VersionSatisfied = c.Satisfied(v)
				} else if _, ok := installed[c.Name]; ok {
					d.IsInstalled = true
					d.VersionSatisfied = c.Op == ""
				} else if _, ok := provided[c.Name]; ok {
					d.IsInstalled = true
					d.VersionSatisfied = true
				}
				ds = append(ds, d)
			}
			return ds
		}
		info.Depends = delta(src.Depends)
		info.MakeDepends = delta(src.MakeDepends)
		info.CheckDepends = delta(src.CheckDepends)
		info.OptDepends = delta(src.OptDepends)
		out = append(out, info)
	}
	return out, nil
}

// depSpec drops the description of an optdepends entry ("name: why").
// Epochs ("foo>=1:2.0") have no space after the colon and are kept.
func depSpec(s string) string {
	name, _, _ := strings.Cut(s, ": ")
	return strings.TrimSuffix(strings.TrimSpace(name), ":")
}
