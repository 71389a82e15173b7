// Package database defines the package metadata model and the bbolt-backed
// local database of installed packages and owned files.
package database

import (
	"strings"

	"napm/pkg/version"
)

// InstallReason records why a package was installed.
type InstallReason string

const (
	// ReasonExplicit marks packages the user asked for by name.
	ReasonExplicit InstallReason = "explicit"
	// ReasonDependency marks packages pulled in to satisfy a dependency.
	ReasonDependency InstallReason = "dependency"
)

// Depend is a dependency on a package name with an optional version bound.
type Depend struct {
	Name       string             `json:"name"`
	Constraint version.Constraint `json:"constraint,omitempty"`
}

// ParseDepend parses a dependency string such as "bar>=2.0".
func ParseDepend(s string) Depend {
	name, c := version.Split(s)
	return Depend{Name: name, Constraint: c}
}

// String renders the dependency as it appears in metadata.
func (d Depend) String() string {
	return d.Name + d.Constraint.String()
}

// Provide is a virtual package name a package satisfies, optionally at a
// specific version.
type Provide struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// ParseProvide parses a provide string such as "libfoo=1.2".
func ParseProvide(s string) Provide {
	name, c := version.Split(s)
	return Provide{Name: name, Version: c.Version}
}

// HookSpec is a transaction hook declared in package metadata. When is
// "pre-transaction" or "post-transaction".
type HookSpec struct {
	Name      string   `json:"name"`
	When      string   `json:"when"`
	Mandatory bool     `json:"mandatory,omitempty"`
	Exec      []string `json:"exec"`
}

// FileEntry is one path in a package's file manifest. Directory entries
// carry a trailing slash and may be shared between packages.
type FileEntry struct {
	Path     string `json:"path"`
	Checksum uint64 `json:"checksum,omitempty"` // xxhash64 of contents, 0 for directories
	Size     int64  `json:"size,omitempty"`
}

// IsDir reports whether the entry is a shareable directory.
func (f FileEntry) IsDir() bool {
	return strings.HasSuffix(f.Path, "/")
}

// PackageRecord is the immutable in-memory representation of one package,
// loaded from a repository index or the local database.
type PackageRecord struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	Architecture string `json:"architecture,omitempty"`
	Description  string `json:"description,omitempty"`
	Repository   string `json:"repository,omitempty"`

	Depends    []Depend  `json:"depends,omitempty"`
	OptDepends []Depend  `json:"optdepends,omitempty"`
	Provides   []Provide `json:"provides,omitempty"`
	Conflicts  []string  `json:"conflicts,omitempty"`
	Replaces   []string  `json:"replaces,omitempty"`

	Files         []FileEntry `json:"files,omitempty"`
	Hooks         []HookSpec  `json:"hooks,omitempty"`
	InstalledSize int64       `json:"installed_size,omitempty"`

	// Reason is only meaningful for records in the local database.
	Reason InstallReason `json:"reason,omitempty"`
}

// Satisfies reports whether this package fulfills the dependency, either by
// its own name and version or through one of its provides. An unversioned
// provide cannot satisfy a versioned requirement.
func (r *PackageRecord) Satisfies(d Depend) bool {
	if r.Name == d.Name {
		return d.Constraint.Satisfied(r.Version)
	}

	for _, p := range r.Provides {
		if p.Name != d.Name {
			continue
		}
		if p.Version == "" {
			if d.Constraint.Any() {
				return true
			}
			continue
		}
		if d.Constraint.Satisfied(p.Version) {
			return true
		}
	}

	return false
}

// ConflictsWith reports whether this package declares a conflict against
// other, matching other's name and its provides.
func (r *PackageRecord) ConflictsWith(other *PackageRecord) bool {
	for _, c := range r.Conflicts {
		d := ParseDepend(c)
		if other.Satisfies(d) {
			return true
		}
	}
	return false
}

// ReplacesPkg reports whether this package declares that it replaces name.
func (r *PackageRecord) ReplacesPkg(name string) bool {
	for _, rep := range r.Replaces {
		if rep == name {
			return true
		}
	}
	return false
}
