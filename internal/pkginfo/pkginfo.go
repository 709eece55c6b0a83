// Package pkginfo defines the package entities shared between the search,
// details, preflight and executor subsystems.
package pkginfo

import "strings"

// SourceKind distinguishes official repository packages from AUR packages.
type SourceKind string

const (
	// SourceOfficial is a package from a sync repository (core, extra, ...).
	SourceOfficial SourceKind = "official"
	// SourceAUR is a package from the Arch User Repository.
	SourceAUR SourceKind = "aur"
)

// Source identifies where a package comes from. Repo and Arch are only set
// for official packages.
type Source struct {
	Kind SourceKind `json:"kind"`
	Repo string     `json:"repo,omitempty"`
	Arch string     `json:"arch,omitempty"`
}

// Official returns an official source for the given repository.
func Official(repo, arch string) Source {
	return Source{Kind: SourceOfficial, Repo: repo, Arch: arch}
}

// AUR returns the AUR source.
func AUR() Source {
	return Source{Kind: SourceAUR}
}

// IsAUR reports whether s is the AUR.
func (s Source) IsAUR() bool { return s.Kind == SourceAUR }

// Label returns the repository name, or "AUR".
func (s Source) Label() string {
	if s.IsAUR() {
		return "AUR"
	}
	return s.Repo
}

// PackageItem is one row of search results or of a user-assembled list.
type PackageItem struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Source      Source   `json:"source"`
	Popularity  *float64 `json:"popularity,omitempty"`
	OutOfDate   *int64   `json:"out_of_date,omitempty"`
	Orphaned    bool     `json:"orphaned,omitempty"`
}

// Key returns the case-insensitive identity of the item.
func (p PackageItem) Key() string { return strings.ToLower(p.Name) }

// PackageDetails is the enriched metadata shown in the details pane.
type PackageDetails struct {
	Repository   string   `json:"repository"`
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Description  string   `json:"description"`
	Architecture string   `json:"architecture"`
	URL          string   `json:"url"`
	Licenses     []string `json:"licenses"`
	Groups       []string `json:"groups"`
	Provides     []string `json:"provides"`
	Depends      []string `json:"depends"`
	OptDepends   []string `json:"opt_depends"`
	RequiredBy   []string `json:"required_by"`
	OptionalFor  []string `json:"optional_for"`
	Conflicts    []string `json:"conflicts"`
	Replaces     []string `json:"replaces"`
	DownloadSize *uint64  `json:"download_size,omitempty"`
	InstallSize  *uint64  `json:"install_size,omitempty"`
	Owner        string   `json:"owner"`
	BuildDate    string   `json:"build_date"`
	Popularity   *float64 `json:"popularity,omitempty"`
}

// Placeholder builds the details shown immediately after the selection
// moves, before the real details arrive.
func Placeholder(item PackageItem) PackageDetails {
	d := PackageDetails{
		Name:        item.Name,
		Version:     item.Version,
		Description: item.Description,
		Popularity:  item.Popularity,
	}
	if item.Source.IsAUR() {
		d.Repository = "AUR"
		d.Architecture = "any"
	} else {
		d.Repository = item.Source.Repo
		d.Architecture = item.Source.Arch
	}
	return d
}

// MergeInto copies the fields a details response knows better than the
// search row: version, description, popularity and, for official packages,
// repository and architecture.
func (d PackageDetails) MergeInto(item *PackageItem) {
	if d.Version != "" {
		item.Version = d.Version
	}
	if d.Description != "" {
		item.Description = d.Description
	}
	if d.Popularity != nil {
		item.Popularity = d.Popularity
	}
	if !item.Source.IsAUR() {
		if d.Repository != "" {
			item.Source.Repo = d.Repository
		}
		if d.Architecture != "" {
			item.Source.Arch = d.Architecture
		}
	}
}

// Names returns the names of items in order.
func Names(items []PackageItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}
