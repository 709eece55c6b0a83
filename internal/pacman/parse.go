package pacman

import (
	"bufio"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/papapumpkin/pacsea/internal/pkginfo"
)

// Record is one package block of `pacman -Qi` / `-Si` output. Continuation
// lines are joined to the previous value with a newline.
type Record map[string]string

// ParseRecords splits key/value output into records separated by blank lines.
func ParseRecords(text string) []Record {
	var out []Record
	cur := Record{}
	var lastKey string
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = Record{}
			}
			lastKey = ""
			continue
		}
		if (line[0] == ' ' || line[0] == '\t') && lastKey != "" {
			cur[lastKey] += "\n" + strings.TrimSpace(line)
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		lastKey = strings.TrimSpace(k)
		cur[lastKey] = strings.TrimSpace(v)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// List returns the whitespace separated values of key, or nil for "None".
func (r Record) List(key string) []string {
	v := strings.TrimSpace(r[key])
	if v == "" || v == "None" {
		return nil
	}
	return strings.Fields(v)
}

// Lines returns the newline separated values of key (used by "Optional
// Deps"), stripping pacman's " [installed]" marker.
func (r Record) Lines(key string) []string {
	v := strings.TrimSpace(r[key])
	if v == "" || v == "None" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(v, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), "[installed]"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Size parses a size field such as "1.50 MiB" or "1,50 MiB".
func (r Record) Size(key string) (uint64, bool) {
	return ParseSize(r[key])
}

// ParseSize converts pacman's human readable sizes to bytes.
func ParseSize(s string) (uint64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, false
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatSize renders bytes the way the summary chips show them.
func FormatSize(n uint64) string {
	return humanize.IBytes(n)
}

// FormatSignedSize renders a size delta with an explicit sign.
func FormatSignedSize(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return "+" + humanize.IBytes(uint64(n))
}

// Details converts a record into package details.
func (r Record) Details() pkginfo.PackageDetails {
	d := pkginfo.PackageDetails{
		Repository:   r["Repository"],
		Name:         r["Name"],
		Version:      r["Version"],
		Description:  r["Description"],
		Architecture: r["Architecture"],
		URL:          r["URL"],
		Licenses:     r.List("Licenses"),
		Groups:       r.List("Groups"),
		Provides:     r.List("Provides"),
		Depends:      r.List("Depends On"),
		OptDepends:   r.Lines("Optional Deps"),
		RequiredBy:   r.List("Required By"),
		OptionalFor:  r.List("Optional For"),
		Conflicts:    r.List("Conflicts With"),
		Replaces:     r.List("Replaces"),
		Owner:        r["Packager"],
		BuildDate:    r["Build Date"],
	}
	if n, ok := r.Size("Download Size"); ok {
		d.DownloadSize = &n
	}
	if n, ok := r.Size("Installed Size"); ok {
		d.InstallSize = &n
	}
	return d
}

// ParseNameVersion parses `pacman -Q` output ("name version" per line).
func ParseNameVersion(text string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		f := strings.Fields(line)
		if len(f) >= 2 {
			out[f[0]] = f[1]
		}
	}
	return out
}

// ParseNames parses one-name-per-line output such as `pacman -Qq`.
func ParseNames(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, line := range strings.Split(text, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			out[name] = struct{}{}
		}
	}
	return out
}

// ParseSyncList parses `pacman -Sl <repo>` output: "repo name version [installed]".
func ParseSyncList(text string) []pkginfo.PackageItem {
	var out []pkginfo.PackageItem
	for _, line := range strings.Split(text, "\n") {
		f := strings.Fields(line)
		if len(f) < 3 {
			continue
		}
		out = append(out, pkginfo.PackageItem{
			Name:    f[1],
			Version: f[2],
			Source:  pkginfo.Official(f[0], ""),
		})
	}
	return out
}

// ParseFileList parses `pacman -Fl` / `pacman -Ql` output ("[repo/]pkg path")
// into paths grouped by package name.
func ParseFileList(text string) map[string][]string {
	out := make(map[string][]string)
	for _, line := range strings.Split(text, "\n") {
		pkg, path, ok := strings.Cut(strings.TrimRight(line, "\r"), " ")
		if !ok || path == "" {
			continue
		}
		if _, name, found := strings.Cut(pkg, "/"); found {
			pkg = name
		}
		out[pkg] = append(out[pkg], path)
	}
	return out
}

// ParseUpgrades parses `pacman -Qu` output ("name old -> new").
func ParseUpgrades(text string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		f := strings.Fields(line)
		if len(f) >= 4 && f[2] == "->" {
			out[f[0]] = f[3]
		}
	}
	return out
}
