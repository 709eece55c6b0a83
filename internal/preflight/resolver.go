package preflight

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/papapumpkin/pacsea/internal/pacman"
	"github.com/papapumpkin/pacsea/internal/pkginfo"
)

// DefaultFileDBMaxAge is how old the pacman file database may get before
// the files tab suggests `pacman -Fy`.
const DefaultFileDBMaxAge = 7 * 24 * time.Hour

// AURSource answers the AUR lookups the resolvers need.
type AURSource interface {
	Info(ctx context.Context, names []string) (map[string]pkginfo.PackageDetails, error)
	SRCINFO(ctx context.Context, name string) (string, error)
}

// Resolver runs the preflight resolvers.
type Resolver struct {
	Pacman       *pacman.Client
	Runner       pacman.Runner // runs systemctl
	AUR          AURSource     // optional
	SyncDir      string
	MaxFileDBAge time.Duration
	Now          func() time.Time

	l hclog.Logger
}

// NewResolver returns a resolver over the given pacman client and runner.
func NewResolver(client *pacman.Client, runner pacman.Runner, aurSrc AURSource, l hclog.Logger) *Resolver {
	if l == nil {
		l = hclog.NewNullLogger()
	}
	if runner == nil {
		runner = pacman.ExecRunner{}
	}
	return &Resolver{
		Pacman:       client,
		Runner:       runner,
		AUR:          aurSrc,
		SyncDir:      pacman.SyncDir,
		MaxFileDBAge: DefaultFileDBMaxAge,
		Now:          time.Now,
		l:            l.Named("preflight"),
	}
}

// split separates official and AUR items.
func split(items []pkginfo.PackageItem) (official, aur []pkginfo.PackageItem) {
	for _, it := range items {
		if it.Source.IsAUR() {
			aur = append(aur, it)
		} else {
			official = append(official, it)
		}
	}
	return official, aur
}

// syncSpec qualifies name with its repository when known.
func syncSpec(it pkginfo.PackageItem) string {
	if it.Source.Repo == "" || it.Source.Repo == "local" {
		return it.Name
	}
	return it.Source.Repo + "/" + it.Name
}
