package pacman

import (
	"reflect"
	"testing"
)

const siOutput = `Repository      : extra
Name            : ripgrep
Version         : 14.1.0-1
Description     : A search tool
Architecture    : x86_64
URL             : https://github.com/BurntSushi/ripgrep
Licenses        : MIT  custom
Groups          : None
Provides        : None
Depends On      : gcc-libs  pcre2
Optional Deps   : bash-completion: completions [installed]
                  zsh: zsh completions
Conflicts With  : None
Replaces        : None
Download Size   : 1.50 MiB
Installed Size  : 4,25 MiB
Packager        : Someone <someone@archlinux.org>
Build Date      : Mon 01 Jan 2024 00:00:00 UTC

Repository      : core
Name            : bash
Version         : 5.2.026-2
Depends On      : readline  libreadline.so=8-64  glibc
`

func TestParseRecords(t *testing.T) {
	t.Parallel()

	recs := ParseRecords(siOutput)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	d := recs[0].Details()
	if d.Name != "ripgrep" || d.Repository != "extra" || d.Version != "14.1.0-1" {
		t.Errorf("details header = %+v", d)
	}
	if want := []string{"MIT", "custom"}; !reflect.DeepEqual(d.Licenses, want) {
		t.Errorf("Licenses = %v, want %v", d.Licenses, want)
	}
	if d.Groups != nil {
		t.Errorf("Groups = %v, want nil for None", d.Groups)
	}
	if want := []string{"bash-completion: completions", "zsh: zsh completions"}; !reflect.DeepEqual(d.OptDepends, want) {
		t.Errorf("OptDepends = %v, want %v", d.OptDepends, want)
	}
	if d.DownloadSize == nil || *d.DownloadSize != 1572864 {
		t.Errorf("DownloadSize = %v", d.DownloadSize)
	}
	if d.InstallSize == nil || *d.InstallSize != 4456448 {
		t.Errorf("InstallSize = %v (comma decimal)", d.InstallSize)
	}
	if d.Owner != "Someone <someone@archlinux.org>" {
		t.Errorf("Owner = %q", d.Owner)
	}
	if got := recs[1].List("Depends On"); len(got) != 3 {
		t.Errorf("bash depends = %v", got)
	}
}

func TestParseSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"1.00 KiB", 1024, true},
		{"2,00 MiB", 2 * 1024 * 1024, true},
		{"0.00 B", 0, true},
		{"", 0, false},
		{"garbage", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseSize(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseSize(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestFormatSignedSize(t *testing.T) {
	t.Parallel()

	if got := FormatSignedSize(-2048); got != "-2.0 KiB" {
		t.Errorf("FormatSignedSize(-2048) = %q", got)
	}
	if got := FormatSignedSize(1024); got != "+1.0 KiB" {
		t.Errorf("FormatSignedSize(1024) = %q", got)
	}
}

func TestParseSyncList(t *testing.T) {
	t.Parallel()

	items := ParseSyncList("core bash 5.2-1 [installed]\ncore glibc 2.39-1\n\nbroken\n")
	if len(items) != 2 {
		t.Fatalf("got %d items", len(items))
	}
	if items[0].Name != "bash" || items[0].Source.Repo != "core" || items[0].Version != "5.2-1" {
		t.Errorf("items[0] = %+v", items[0])
	}
}

func TestParseFileList(t *testing.T) {
	t.Parallel()

	got := ParseFileList("extra/ripgrep usr/\nextra/ripgrep usr/bin/rg\nbash /usr/bin/bash\n")
	want := map[string][]string{
		"ripgrep": {"usr/", "usr/bin/rg"},
		"bash":    {"/usr/bin/bash"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseFileList = %v, want %v", got, want)
	}
}

func TestParseUpgradesAndNames(t *testing.T) {
	t.Parallel()

	up := ParseUpgrades("linux 6.7.1-1 -> 6.8.0-1\nvim 9.0-1 -> 9.1-1 [ignored]\n")
	if up["linux"] != "6.8.0-1" || up["vim"] != "9.1-1" {
		t.Errorf("ParseUpgrades = %v", up)
	}
	names := ParseNames("a\n\n b \n")
	if _, ok := names["b"]; !ok || len(names) != 2 {
		t.Errorf("ParseNames = %v", names)
	}
}

func TestChunk(t *testing.T) {
	t.Parallel()

	names := make([]string, 120)
	for i := range names {
		names[i] = "p"
	}
	chunks := Chunk(names, 50)
	if len(chunks) != 3 || len(chunks[2]) != 20 {
		t.Errorf("Chunk sizes = %d chunks, last %d", len(chunks), len(chunks[len(chunks)-1]))
	}
	if Chunk(nil, 50) != nil {
		t.Error("Chunk(nil) should be nil")
	}
}
