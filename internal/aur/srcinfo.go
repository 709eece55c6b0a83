package aur

import (
	"bufio"
	"strings"
)

// SrcInfo holds the dependency arrays of a .SRCINFO file. Architecture
// specific entries (depends_x86_64 and friends) are folded into the generic
// arrays.
type SrcInfo struct {
	PkgBase      string
	PkgNames     []string
	Version      string
	Depends      []string
	MakeDepends  []string
	CheckDepends []string
	OptDepends   []string
	Provides     []string
	Conflicts    []string
}

// ParseSRCINFO parses the "key = value" lines of a .SRCINFO file. Values from
// every pkgname section are merged and deduplicated.
func ParseSRCINFO(text string) SrcInfo {
	var info SrcInfo
	var pkgver, pkgrel, epoch string
	seen := map[string]map[string]bool{}
	add := func(list *[]string, key, v string) {
		if seen[key] == nil {
			seen[key] = map[string]bool{}
		}
		if v == "" || seen[key][v] {
			return
		}
		seen[key][v] = true
		*list = append(*list, v)
	}

	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		base := k
		if i := strings.IndexByte(k, '_'); i > 0 {
			base = k[:i]
		}
		switch base {
		case "pkgbase":
			info.PkgBase = v
		case "pkgname":
			add(&info.PkgNames, base, v)
		case "pkgver":
			pkgver = v
		case "pkgrel":
			pkgrel = v
		case "epoch":
			epoch = v
		case "depends":
			add(&info.Depends, base, v)
		case "makedepends":
			add(&info.MakeDepends, base, v)
		case "checkdepends":
			add(&info.CheckDepends, base, v)
		case "optdepends":
			add(&info.OptDepends, base, v)
		case "provides":
			add(&info.Provides, base, v)
		case "conflicts":
			add(&info.Conflicts, base, v)
		}
	}
	if pkgver != "" {
		info.Version = pkgver
		if pkgrel != "" {
			info.Version += "-" + pkgrel
		}
		if epoch != "" && epoch != "0" {
			info.Version = epoch + ":" + info.Version
		}
	}
	return info
}
