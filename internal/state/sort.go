package state

import (
	"sort"
	"strings"

	"github.com/papapumpkin/pacsea/internal/pkginfo"
	"github.com/papapumpkin/pacsea/internal/search"
)

// SortMode orders the displayed results.
type SortMode string

// Sort modes in cycling order.
const (
	SortRepoThenName  SortMode = "alphabetical"
	SortAURPopularity SortMode = "aur_popularity"
	SortBestMatches   SortMode = "best_matches"
)

// ParseSortMode maps a configuration value, including the older aliases,
// to a SortMode. Unknown values report false.
func ParseSortMode(s string) (SortMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "alphabetical", "repo_then_name", "pacman":
		return SortRepoThenName, true
	case "aur_popularity", "popularity":
		return SortAURPopularity, true
	case "best_matches", "relevance":
		return SortBestMatches, true
	}
	return "", false
}

// Next cycles alphabetical → aur_popularity → best_matches.
func (m SortMode) Next() SortMode {
	switch m {
	case SortRepoThenName:
		return SortAURPopularity
	case SortAURPopularity:
		return SortBestMatches
	default:
		return SortRepoThenName
	}
}

// Label is the short name shown in the results title.
func (m SortMode) Label() string {
	switch m {
	case SortRepoThenName:
		return "A-Z"
	case SortAURPopularity:
		return "Popularity"
	default:
		return "Best matches"
	}
}

// sortItems orders items in place for mode. query feeds the match rank of
// best_matches.
func sortItems(items []pkginfo.PackageItem, mode SortMode, query string) {
	switch mode {
	case SortRepoThenName:
		search.SortByRepoName(items)
	case SortAURPopularity:
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i], items[j]
			if a.Source.IsAUR() != b.Source.IsAUR() {
				return a.Source.IsAUR()
			}
			if a.Source.IsAUR() {
				pa, pb := popularity(a), popularity(b)
				if pa != pb {
					return pa > pb
				}
				return strings.ToLower(a.Name) < strings.ToLower(b.Name)
			}
			return search.CompareRepoName(a, b) < 0
		})
	default:
		q := strings.ToLower(strings.TrimSpace(query))
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i], items[j]
			if ra, rb := search.MatchRank(a.Name, q), search.MatchRank(b.Name, q); ra != rb {
				return ra < rb
			}
			return search.CompareRepoName(a, b) < 0
		})
	}
}

func popularity(it pkginfo.PackageItem) float64 {
	if it.Popularity == nil {
		return 0
	}
	return *it.Popularity
}
