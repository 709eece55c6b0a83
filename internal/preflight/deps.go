package preflight

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/papapumpkin/pacsea/internal/pacman"
	"github.com/papapumpkin/pacsea/internal/pkginfo"
	"github.com/papapumpkin/pacsea/internal/vercmp"
)

// systemPackages are flagged IsSystem in the dependency list.
var systemPackages = map[string]struct{}{
	"glibc": {}, "linux": {}, "systemd": {}, "pacman": {}, "bash": {}, "coreutils": {},
	"gcc": {}, "binutils": {}, "filesystem": {}, "util-linux": {}, "shadow": {}, "sed": {}, "grep": {},
}

// isSharedObject matches soname dependencies such as "libfoo.so=1-64".
func isSharedObject(name string) bool {
	return strings.HasSuffix(name, ".so") || strings.Contains(name, ".so.") || strings.Contains(name, ".so=")
}

// depEnv is the system state dependency statuses are computed against.
type depEnv struct {
	installed  map[string]struct{}
	provided   map[string]struct{}
	upgradable map[string]string
	versions   map[string]string
	sync       map[string]pacman.Record
	aur        map[string]pkginfo.PackageDetails
}

type frame struct {
	name string
	aur  bool
	spec string
}

// Deps walks the dependency graph of items depth-first. Official packages
// are read from `pacman -Si`, AUR packages from the AUR RPC. Soname
// dependencies and cycles are skipped, and only dependencies that still
// need work are descended into. Entries are merged by name with the union
// of their dependents and sorted by status urgency, then name.
func (r *Resolver) Deps(ctx context.Context, items []pkginfo.PackageItem, cancel *atomic.Bool) ([]DependencyInfo, error) {
	if len(items) == 0 {
		return nil, nil
	}
	env, err := r.depEnv(ctx)
	if err != nil {
		return nil, err
	}

	roots := make(map[string]struct{}, len(items))
	stack := make([]frame, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		roots[it.Name] = struct{}{}
		stack = append(stack, frame{name: it.Name, aur: it.Source.IsAUR(), spec: syncSpec(it)})
	}
	visited := map[string]struct{}{}
	deps := map[string]*DependencyInfo{}

	for len(stack) > 0 {
		if cancelled(cancel) {
			return nil, ErrCancelled
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[f.name]; seen {
			continue
		}
		visited[f.name] = struct{}{}

		specs, conflicts := r.declared(ctx, env, f)
		for _, c := range conflicts {
			name := vercmp.ParseConstraint(c).Name
			if _, ok := env.installed[name]; !ok {
				continue
			}
			if _, isRoot := roots[name]; isRoot {
				continue
			}
			r.merge(deps, DependencyInfo{
				Name:       name,
				Status:     DepConflict,
				Current:    env.versions[name],
				Reason:     fmt.Sprintf("conflicts with %s", f.name),
				Source:     DepLocal,
				RequiredBy: []string{f.name},
			})
		}

		var children []string
		var constraints []vercmp.Constraint
		for _, spec := range specs {
			c := vercmp.ParseConstraint(spec)
			if c.Name == "" || c.Name == f.name || isSharedObject(c.Name) {
				continue
			}
			if _, isRoot := roots[c.Name]; isRoot {
				continue
			}
			constraints = append(constraints, c)
			children = append(children, c.Name)
		}
		r.prefetch(ctx, env, children)

		for _, c := range constraints {
			info := r.classify(env, c)
			info.RequiredBy = []string{f.name}
			r.merge(deps, info)
			if parent, ok := deps[f.name]; ok && !contains(parent.DependsOn, c.Name) {
				parent.DependsOn = append(parent.DependsOn, c.Name)
			}
			if _, seen := visited[c.Name]; seen {
				continue
			}
			if info.Status == DepToInstall || info.Status == DepToUpgrade {
				stack = append(stack, frame{name: c.Name, aur: info.Source == DepAUR, spec: qualified(info)})
			}
		}
	}

	out := make([]DependencyInfo, 0, len(deps))
	for _, d := range deps {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		if pi, pj := out[i].Status.Priority(), out[j].Status.Priority(); pi != pj {
			return pi < pj
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *Resolver) depEnv(ctx context.Context) (*depEnv, error) {
	installed, err := r.Pacman.Installed(ctx)
	if err != nil {
		return nil, fmt.Errorf("preflight: installed packages: %w", err)
	}
	provided, err := r.Pacman.Provided(ctx)
	if err != nil {
		r.l.Debug("provides unavailable", "err", err)
		provided = map[string]struct{}{}
	}
	return &depEnv{
		installed:  installed,
		provided:   provided,
		upgradable: r.Pacman.Upgradable(ctx),
		versions:   map[string]string{},
		sync:       map[string]pacman.Record{},
		aur:        map[string]pkginfo.PackageDetails{},
	}, nil
}

// declared returns the dependency specs and conflicts of the frame's package.
func (r *Resolver) declared(ctx context.Context, env *depEnv, f frame) (specs, conflicts []string) {
	if f.aur {
		if _, ok := env.aur[f.name]; !ok && r.AUR != nil {
			found, err := r.AUR.Info(ctx, []string{f.name})
			if err != nil {
				r.l.Debug("aur deps unavailable", "name", f.name, "err", err)
			}
			for k, v := range found {
				env.aur[k] = v
			}
		}
		d := env.aur[f.name]
		return d.Depends, d.Conflicts
	}
	rec, ok := env.sync[f.name]
	if !ok {
		for k, v := range r.Pacman.SyncInfo(ctx, []string{f.spec}) {
			env.sync[k] = v
		}
		rec = env.sync[f.name]
	}
	return rec.List("Depends On"), rec.List("Conflicts With")
}

// prefetch batches the sync lookups and installed versions of names, then
// asks the AUR about names no repository or installed package knows.
func (r *Resolver) prefetch(ctx context.Context, env *depEnv, names []string) {
	var unknown, versions, foreign []string
	for _, n := range names {
		if _, ok := env.sync[n]; !ok {
			unknown = append(unknown, n)
		}
		if _, ok := env.installed[n]; ok {
			if _, have := env.versions[n]; !have {
				versions = append(versions, n)
			}
		}
	}
	if len(unknown) > 0 {
		for k, v := range r.Pacman.SyncInfo(ctx, unknown) {
			env.sync[k] = v
		}
	}
	if len(versions) > 0 {
		for k, v := range r.Pacman.Versions(ctx, versions) {
			env.versions[k] = v
		}
	}
	if r.AUR == nil {
		return
	}
	for _, n := range names {
		_, synced := env.sync[n]
		_, inst := env.installed[n]
		_, prov := env.provided[n]
		_, known := env.aur[n]
		if !synced && !inst && !prov && !known {
			foreign = append(foreign, n)
		}
	}
	if len(foreign) == 0 {
		return
	}
	found, err := r.AUR.Info(ctx, foreign)
	if err != nil {
		r.l.Debug("aur lookup failed", "names", foreign, "err", err)
		return
	}
	for k, v := range found {
		env.aur[k] = v
	}
}

// classify computes status and source of one dependency.
func (r *Resolver) classify(env *depEnv, c vercmp.Constraint) DependencyInfo {
	info := DependencyInfo{Name: c.Name, Version: c.Op + c.Version}
	_, isSystem := systemPackages[c.Name]

	if rec, ok := env.sync[c.Name]; ok {
		info.Source = DepOfficial
		info.Repo = rec["Repository"]
		info.IsCore = info.Repo == "core"
	} else if _, ok := env.installed[c.Name]; ok {
		info.Source = DepLocal
	} else {
		info.Source = DepAUR
	}
	info.IsSystem = info.IsCore || isSystem

	_, isInstalled := env.installed[c.Name]
	_, isProvided := env.provided[c.Name]
	switch {
	case isInstalled:
		current := env.versions[c.Name]
		info.Current = current
		switch {
		case current != "" && !c.Satisfied(current):
			info.Status = DepToUpgrade
			info.Required = c.Op + c.Version
		case env.upgradable[c.Name] != "":
			info.Status = DepToUpgrade
			info.Required = env.upgradable[c.Name]
		default:
			info.Status = DepInstalled
		}
	case isProvided:
		info.Status = DepInstalled
		info.Current = "provided"
	case info.Source == DepOfficial:
		info.Status = DepToInstall
	default:
		if r.AUR == nil {
			info.Status = DepToInstall
			break
		}
		if _, ok := env.aur[c.Name]; !ok {
			info.Status = DepMissing
			break
		}
		info.Status = DepToInstall
	}
	return info
}

// merge folds d into deps: dependents are unioned and the more urgent
// status wins.
func (r *Resolver) merge(deps map[string]*DependencyInfo, d DependencyInfo) {
	cur, ok := deps[d.Name]
	if !ok {
		cp := d
		cp.RequiredBy = append([]string(nil), d.RequiredBy...)
		deps[d.Name] = &cp
		return
	}
	for _, by := range d.RequiredBy {
		if !contains(cur.RequiredBy, by) {
			cur.RequiredBy = append(cur.RequiredBy, by)
		}
	}
	if d.Status.Priority() < cur.Status.Priority() {
		cur.Status, cur.Current, cur.Required, cur.Reason = d.Status, d.Current, d.Required, d.Reason
		if d.Version != "" {
			cur.Version = d.Version
		}
	} else if cur.Version == "" {
		cur.Version = d.Version
	}
}

func qualified(d DependencyInfo) string {
	if d.Repo != "" {
		return d.Repo + "/" + d.Name
	}
	return d.Name
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
