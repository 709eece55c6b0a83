package index

import "strings"

// CoreRepos are the Arch repositories queried on every system.
func CoreRepos() []string {
	return []string{"core", "extra", "multilib"}
}

// EOSRepos are the EndeavourOS repository names.
func EOSRepos() []string {
	return []string{"eos", "endeavouros"}
}

// CachyOSRepos are the CachyOS repository names, including the
// micro-architecture variants.
func CachyOSRepos() []string {
	return []string{
		"cachyos", "cachyos-core", "cachyos-extra",
		"cachyos-v3", "cachyos-core-v3", "cachyos-extra-v3",
		"cachyos-v4", "cachyos-core-v4", "cachyos-extra-v4",
	}
}

// AllRepos is every repository `pacsea index update` asks pacman to list.
// Repositories that are not configured on the host simply return nothing.
func AllRepos() []string {
	var out []string
	out = append(out, CoreRepos()...)
	out = append(out, EOSRepos()...)
	return append(out, CachyOSRepos()...)
}

// IsEOSRepo reports whether repo belongs to EndeavourOS.
func IsEOSRepo(repo string) bool {
	r := strings.ToLower(repo)
	return r == "eos" || r == "endeavouros"
}

// IsCachyOSRepo reports whether repo belongs to CachyOS.
func IsCachyOSRepo(repo string) bool {
	return strings.HasPrefix(strings.ToLower(repo), "cachyos")
}

// IsArtixRepo reports whether repo is one of Artix Linux's repositories.
func IsArtixRepo(repo string) bool {
	switch strings.ToLower(repo) {
	case "system", "world", "galaxy", "lib32", "omniverse", "universe":
		return true
	}
	return false
}

// IsManjaro reports whether a package looks like a Manjaro package, judged
// by its name prefix or packager.
func IsManjaro(name, packager string) bool {
	return strings.HasPrefix(strings.ToLower(name), "manjaro-") ||
		strings.Contains(strings.ToLower(packager), "manjaro")
}

// IsEOSName reports whether name looks like an EndeavourOS package.
func IsEOSName(name string) bool {
	return strings.Contains(strings.ToLower(name), "eos-")
}
