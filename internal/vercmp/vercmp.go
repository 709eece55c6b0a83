// Package vercmp compares pacman version strings and evaluates dependency
// version constraints such as "glibc>=2.38".
package vercmp

import (
	"strings"

	alpm "github.com/Jguer/go-alpm/v2"
)

// Compare returns -1, 0 or 1 following pacman's vercmp rules
// (epoch:pkgver-pkgrel).
func Compare(a, b string) int {
	switch c := alpm.VerCmp(a, b); {
	case c < 0:
		return -1
	case c > 0:
		return 1
	default:
		return 0
	}
}

// Constraint is a parsed dependency specification.
type Constraint struct {
	Name    string
	Op      string // one of "", "=", "<", "<=", ">", ">="
	Version string
}

// operators is ordered so two-character operators match first.
var operators = []string{">=", "<=", "=", "<", ">"}

// ParseConstraint splits a dependency spec into name, operator and version.
// Optional-dependency descriptions ("name: reason") are dropped.
func ParseConstraint(spec string) Constraint {
	spec = strings.TrimSpace(spec)
	if i := strings.Index(spec, ": "); i >= 0 {
		spec = spec[:i]
	}
	for _, op := range operators {
		if i := strings.Index(spec, op); i > 0 {
			return Constraint{
				Name:    strings.TrimSpace(spec[:i]),
				Op:      op,
				Version: strings.TrimSpace(spec[i+len(op):]),
			}
		}
	}
	return Constraint{Name: spec}
}

// Satisfied reports whether version meets c. A constraint without an
// operator is always satisfied.
func (c Constraint) Satisfied(version string) bool {
	if c.Op == "" || c.Version == "" {
		return true
	}
	cmp := Compare(version, c.Version)
	switch c.Op {
	case "=":
		return cmp == 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return true
}

// Satisfies parses spec and checks version against it.
func Satisfies(version, spec string) bool {
	return ParseConstraint(spec).Satisfied(version)
}

// Major returns the leading numeric component of a version, ignoring the
// epoch, e.g. "1:2.3.4-1" → "2".
func Major(version string) string {
	if i := strings.IndexByte(version, ':'); i >= 0 {
		version = version[i+1:]
	}
	end := strings.IndexAny(version, ".-+_")
	if end < 0 {
		return version
	}
	return version[:end]
}

// IsMajorBump reports whether moving from old to next changes the leading
// version component upwards.
func IsMajorBump(old, next string) bool {
	if old == "" || next == "" {
		return false
	}
	a, b := Major(old), Major(next)
	return a != b && Compare(next, old) > 0
}

// IsDowngrade reports whether next is older than old.
func IsDowngrade(old, next string) bool {
	if old == "" || next == "" {
		return false
	}
	return Compare(next, old) < 0
}
