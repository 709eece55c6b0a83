package state

import (
	"strings"

	"github.com/papapumpkin/pacsea/internal/config"
	"github.com/papapumpkin/pacsea/internal/index"
	"github.com/papapumpkin/pacsea/internal/pkginfo"
)

// Filters toggles result visibility per source.
type Filters struct {
	AUR      bool
	Core     bool
	Extra    bool
	Multilib bool
	EOS      bool
	CachyOS  bool
	Artix    bool
	Manjaro  bool
}

// AllFilters returns filters with every source shown.
func AllFilters() Filters {
	return Filters{true, true, true, true, true, true, true, true}
}

// FiltersFromConfig copies the configured toggles.
func FiltersFromConfig(c config.FilterConfig) Filters {
	return Filters{
		AUR: c.AUR, Core: c.Core, Extra: c.Extra, Multilib: c.Multilib,
		EOS: c.EOS, CachyOS: c.CachyOS, Artix: c.Artix, Manjaro: c.Manjaro,
	}
}

// FilterNames lists the toggle names accepted by Toggle, in display order.
func FilterNames() []string {
	return []string{"aur", "core", "extra", "multilib", "eos", "cachyos", "artix", "manjaro"}
}

func (f *Filters) field(name string) *bool {
	switch strings.ToLower(name) {
	case "aur":
		return &f.AUR
	case "core":
		return &f.Core
	case "extra":
		return &f.Extra
	case "multilib":
		return &f.Multilib
	case "eos":
		return &f.EOS
	case "cachyos":
		return &f.CachyOS
	case "artix":
		return &f.Artix
	case "manjaro":
		return &f.Manjaro
	}
	return nil
}

// Toggle flips the named filter and reports whether the name is known.
func (f *Filters) Toggle(name string) bool {
	p := f.field(name)
	if p == nil {
		return false
	}
	*p = !*p
	return true
}

// Enabled reports the state of the named filter.
func (f Filters) Enabled(name string) bool {
	p := f.field(name)
	return p != nil && *p
}

// officialOn reports whether every official-repository filter is enabled.
func (f Filters) officialOn() bool {
	return f.Core && f.Extra && f.Multilib && f.EOS && f.CachyOS && f.Artix && f.Manjaro
}

// Allows reports whether it passes the filters. Official packages from an
// unrecognised repository show only while every official filter is on.
func (f Filters) Allows(it pkginfo.PackageItem) bool {
	if it.Source.IsAUR() {
		return f.AUR
	}
	if index.IsManjaro(it.Name, "") {
		return f.Manjaro
	}
	repo := strings.ToLower(it.Source.Repo)
	switch {
	case repo == "core":
		return f.Core
	case repo == "extra":
		return f.Extra
	case repo == "multilib":
		return f.Multilib
	case index.IsEOSRepo(repo):
		return f.EOS
	case index.IsCachyOSRepo(repo):
		return f.CachyOS
	case index.IsArtixRepo(repo):
		return f.Artix
	}
	return f.officialOn()
}
