// Package index maintains the on-disk index of official repository packages.
// The index is built from `pacman -Sl`, searched offline by substring, and
// lazily enriched with descriptions from `pacman -Si`.
package index

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/papapumpkin/pacsea/internal/pacman"
	"github.com/papapumpkin/pacsea/internal/persist"
	"github.com/papapumpkin/pacsea/internal/pkginfo"
)

// EnrichBatch is the number of names passed to one `pacman -Si` call when
// enriching.
const EnrichBatch = 100

// Package is one official package in the index.
type Package struct {
	Name        string `json:"name"`
	Repo        string `json:"repo,omitempty"`
	Arch        string `json:"arch,omitempty"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
}

// Item converts the package into a result row.
func (p Package) Item() pkginfo.PackageItem {
	return pkginfo.PackageItem{
		Name:        p.Name,
		Version:     p.Version,
		Description: p.Description,
		Source:      pkginfo.Official(p.Repo, p.Arch),
	}
}

type onDisk struct {
	Pkgs []Package `json:"pkgs"`
}

// Index is the shared official package index. It is safe for concurrent use.
type Index struct {
	mu     sync.RWMutex
	pkgs   []Package
	byName map[string]int

	path   string
	client *pacman.Client
	l      hclog.Logger
}

// New returns an empty index persisted at path.
func New(path string, client *pacman.Client, l hclog.Logger) *Index {
	if l == nil {
		l = hclog.NewNullLogger()
	}
	return &Index{path: path, client: client, l: l.Named("index"), byName: map[string]int{}}
}

// Load replaces the in-memory index with the file contents. A missing file
// leaves the index empty.
func (x *Index) Load() error {
	var d onDisk
	found, err := persist.LoadJSON(x.path, &d)
	if err != nil {
		return fmt.Errorf("index: load: %w", err)
	}
	if !found {
		return nil
	}
	x.mu.Lock()
	x.set(d.Pkgs)
	x.mu.Unlock()
	x.l.Debug("loaded index", "path", x.path, "packages", len(d.Pkgs))
	return nil
}

// Save writes the index to disk.
func (x *Index) Save() error {
	x.mu.RLock()
	d := onDisk{Pkgs: append([]Package(nil), x.pkgs...)}
	x.mu.RUnlock()
	if len(d.Pkgs) == 0 {
		x.l.Warn("saving empty index", "path", x.path)
	}
	if err := persist.SaveJSON(x.path, d); err != nil {
		return fmt.Errorf("index: save: %w", err)
	}
	return nil
}

// set must be called with mu held for writing.
func (x *Index) set(pkgs []Package) {
	x.pkgs = pkgs
	x.byName = make(map[string]int, len(pkgs))
	for i, p := range pkgs {
		x.byName[p.Name] = i
	}
}

// Len returns the number of packages.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.pkgs)
}

// Lookup returns the package called name.
func (x *Index) Lookup(name string) (Package, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	i, ok := x.byName[name]
	if !ok {
		return Package{}, false
	}
	return x.pkgs[i], true
}

// Search returns every package whose lowercase name contains the lowercase
// query. A blank query matches nothing.
func (x *Index) Search(query string) []pkginfo.PackageItem {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	var out []pkginfo.PackageItem
	for _, p := range x.pkgs {
		if strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p.Item())
		}
	}
	return out
}

// All returns every package as a result row.
func (x *Index) All() []pkginfo.PackageItem {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]pkginfo.PackageItem, len(x.pkgs))
	for i, p := range x.pkgs {
		out[i] = p.Item()
	}
	return out
}

// MissingDescription filters names down to indexed packages that have not
// been enriched yet.
func (x *Index) MissingDescription(names []string) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	var out []string
	for _, n := range names {
		if i, ok := x.byName[n]; ok && x.pkgs[i].Description == "" {
			out = append(out, n)
		}
	}
	return out
}

// Update lists repos with `pacman -Sl` and replaces the package set. Fields
// already enriched are kept for packages that survive. changed reports
// whether the set of names differs from before; only then is the index saved.
func (x *Index) Update(ctx context.Context, repos []string) (changed bool, err error) {
	var fresh []Package
	for _, repo := range repos {
		out, err := x.client.SyncList(ctx, repo)
		if err != nil {
			x.l.Debug("repo not listed", "repo", repo, "err", err)
			continue
		}
		for _, item := range pacman.ParseSyncList(out) {
			if item.Source.Repo != repo {
				continue
			}
			fresh = append(fresh, Package{Name: item.Name, Repo: repo, Version: item.Version})
		}
	}
	if len(fresh) == 0 {
		return false, fmt.Errorf("index: update: no packages listed for %s", strings.Join(repos, ", "))
	}

	x.mu.Lock()
	changed = len(fresh) != len(x.pkgs)
	for i := range fresh {
		j, ok := x.byName[fresh[i].Name]
		if !ok {
			changed = true
			continue
		}
		old := x.pkgs[j]
		fresh[i].Arch = old.Arch
		fresh[i].Description = old.Description
	}
	if changed {
		x.set(fresh)
	}
	x.mu.Unlock()

	if !changed {
		x.l.Debug("index up to date", "packages", len(fresh))
		return false, nil
	}
	x.l.Info("index updated", "packages", len(fresh))
	return true, x.Save()
}

// Enrich fills description, architecture, repository and version of names
// from `pacman -Si`, EnrichBatch names at a time. Packages built by Manjaro
// are relabelled to the "manjaro" repository. It returns the number of
// packages updated and saves the index when that is non-zero.
func (x *Index) Enrich(ctx context.Context, names []string) (int, error) {
	seen := make(map[string]bool, len(names))
	var uniq []string
	for _, n := range names {
		if n != "" && !seen[n] {
			seen[n] = true
			uniq = append(uniq, n)
		}
	}
	if len(uniq) == 0 {
		return 0, nil
	}

	infos := x.client.SyncInfoBatched(ctx, uniq, EnrichBatch)
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	updated := 0
	x.mu.Lock()
	for name, rec := range infos {
		i, ok := x.byName[name]
		if !ok {
			continue
		}
		p := &x.pkgs[i]
		if p.Description == "" {
			p.Description = rec["Description"]
		}
		if a := rec["Architecture"]; a != "" {
			p.Arch = a
		}
		if r := rec["Repository"]; r != "" {
			p.Repo = r
		}
		if IsManjaro(name, rec["Packager"]) {
			p.Repo = "manjaro"
		}
		if v := rec["Version"]; v != "" {
			p.Version = v
		}
		updated++
	}
	x.mu.Unlock()

	if updated == 0 {
		return 0, nil
	}
	x.l.Debug("enriched", "requested", len(uniq), "updated", updated)
	return updated, x.Save()
}
