// Package search runs queries against the official index and the AUR and
// orders the merged results.
package search

import (
	"sort"
	"strings"

	"github.com/papapumpkin/pacsea/internal/pkginfo"
)

// RepoOrder ranks a source: core 0, extra 1, other official repos 2, AUR 3.
func RepoOrder(s pkginfo.Source) int {
	if s.IsAUR() {
		return 3
	}
	switch strings.ToLower(s.Repo) {
	case "core":
		return 0
	case "extra":
		return 1
	default:
		return 2
	}
}

// MatchRank ranks how well name matches a lowercase query: exact 0,
// prefix 1, substring 2, otherwise 3.
func MatchRank(name, queryLower string) int {
	n := strings.ToLower(name)
	if queryLower != "" {
		switch {
		case n == queryLower:
			return 0
		case strings.HasPrefix(n, queryLower):
			return 1
		case strings.Contains(n, queryLower):
			return 2
		}
	}
	return 3
}

// CompareRepoName orders by repository rank, then by lowercase name.
func CompareRepoName(a, b pkginfo.PackageItem) int {
	if oa, ob := RepoOrder(a.Source), RepoOrder(b.Source); oa != ob {
		return oa - ob
	}
	return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
}

// SortByRepoName sorts items in place by CompareRepoName.
func SortByRepoName(items []pkginfo.PackageItem) {
	sort.SliceStable(items, func(i, j int) bool { return CompareRepoName(items[i], items[j]) < 0 })
}

// SortByRelevance sorts by repository rank, match rank, then lowercase name.
func SortByRelevance(items []pkginfo.PackageItem, query string) {
	q := strings.ToLower(strings.TrimSpace(query))
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if oa, ob := RepoOrder(a.Source), RepoOrder(b.Source); oa != ob {
			return oa < ob
		}
		if ra, rb := MatchRank(a.Name, q), MatchRank(b.Name, q); ra != rb {
			return ra < rb
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}

// Dedupe keeps the first item for each lowercase name.
func Dedupe(items []pkginfo.PackageItem) []pkginfo.PackageItem {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		k := it.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}
