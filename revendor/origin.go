// Copyright (C) 2019 Tim Waugh
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package revendor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"
	"golang.org/x/tools/go/vcs"
)

// DefaultRegistryURL is the index URL of the default registry.
const DefaultRegistryURL = "https://github.com/rust-lang/crates.io-index"

// OriginKind is the kind of place a package's source comes from.
type OriginKind int

const (
	// RegistryOrigin is a package registry, keyed by its index URL.
	RegistryOrigin OriginKind = iota + 1

	// GitOrigin is a git repository URL and reference.
	GitOrigin

	// PathOrigin is a directory on the local filesystem. Packages
	// from a path origin belong to the consuming project and are
	// never vendored.
	PathOrigin
)

func (k OriginKind) String() string {
	switch k {
	case RegistryOrigin:
		return "registry"
	case GitOrigin:
		return "git"
	case PathOrigin:
		return "path"
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// GitReference names the branch, tag or revision a git origin is
// pinned to. At most one field is set; none means the default
// branch.
type GitReference struct {
	Branch string
	Tag    string
	Rev    string
}

func (r GitReference) query() string {
	switch {
	case r.Branch != "":
		return "?branch=" + url.QueryEscape(r.Branch)
	case r.Tag != "":
		return "?tag=" + url.QueryEscape(r.Tag)
	case r.Rev != "":
		return "?rev=" + url.QueryEscape(r.Rev)
	}
	return ""
}

// Origin identifies where a package's source comes from.
type Origin struct {
	Kind OriginKind

	// URL is the index URL for a registry, the repository URL for
	// git, and the directory for a path origin.
	URL string

	// Ref is only used by git origins.
	Ref GitReference
}

// Registry returns the Origin for the registry at index URL u.
func Registry(u string) Origin {
	return Origin{Kind: RegistryOrigin, URL: u}
}

// Git returns the Origin for the git repository at u, pinned to ref.
func Git(u string, ref GitReference) Origin {
	return Origin{Kind: GitOrigin, URL: u, Ref: ref}
}

// Path returns the Origin for the local directory dir.
func Path(dir string) Origin {
	return Origin{Kind: PathOrigin, URL: dir}
}

// IsDefaultRegistry reports whether o is the default registry.
func (o Origin) IsDefaultRegistry() bool {
	return o.Kind == RegistryOrigin && o.URL == DefaultRegistryURL
}

// String returns o in the form accepted by ParseOrigin.
func (o Origin) String() string {
	s := o.Kind.String() + "+" + o.URL
	if o.Kind == GitOrigin {
		s += o.Ref.query()
	}
	return s
}

// ParseOrigin parses an origin of the form "registry+<url>",
// "git+<url>[?branch=|tag=|rev=<value>]" or "path+<dir>". A trailing
// "#<commit>" on a git origin records the locked commit and is
// discarded; the origin is identified by its reference.
func ParseOrigin(s string) (Origin, error) {
	fields := strings.SplitN(s, "+", 2)
	if len(fields) != 2 || fields[1] == "" {
		return Origin{}, fmt.Errorf("invalid origin %q", s)
	}
	kind, loc := fields[0], fields[1]
	switch kind {
	case "registry":
		return Registry(loc), nil
	case "path":
		return Path(loc), nil
	case "git":
		// handled below
	default:
		return Origin{}, errors.Wrapf(ErrorUnknownOrigin, "origin %q", s)
	}

	u, err := url.Parse(loc)
	if err != nil {
		return Origin{}, errors.Wrapf(err, "origin %q", s)
	}
	if !gitScheme(u.Scheme) {
		return Origin{}, fmt.Errorf("origin %q: unsupported git scheme %q", s, u.Scheme)
	}
	var ref GitReference
	set := 0
	for key, values := range u.Query() {
		if len(values) != 1 {
			return Origin{}, fmt.Errorf("origin %q: repeated %q", s, key)
		}
		switch key {
		case "branch":
			ref.Branch = values[0]
		case "tag":
			ref.Tag = values[0]
		case "rev":
			ref.Rev = values[0]
		default:
			return Origin{}, fmt.Errorf("origin %q: unknown reference %q", s, key)
		}
		set++
	}
	if set > 1 {
		return Origin{}, fmt.Errorf("origin %q: more than one reference", s)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return Git(u.String(), ref), nil
}

// gitScheme reports whether git can fetch URLs with scheme.
func gitScheme(scheme string) bool {
	// Local and plain ssh URLs are missing from the go/vcs list
	schemes := append([]string{"file", "ssh"}, vcs.ByCmd("git").Scheme...)
	for _, s := range schemes {
		if s == scheme {
			return true
		}
	}
	return false
}

// PackageID identifies one buildable unit. Two PackageIDs are equal
// only if name, version (including build metadata) and origin all
// match.
type PackageID struct {
	Name string

	// Version is the canonical semantic version string.
	Version string

	Origin Origin
}

// NewPackageID returns a PackageID after validating the version.
func NewPackageID(name, version string, origin Origin) (PackageID, error) {
	if name == "" {
		return PackageID{}, errors.New("package name is empty")
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return PackageID{}, errors.Wrapf(err, "package %s", name)
	}
	return PackageID{Name: name, Version: v.String(), Origin: origin}, nil
}

func (id PackageID) String() string {
	return fmt.Sprintf("%s v%s (%s)", id.Name, id.Version, id.Origin)
}

func (id PackageID) semver() (*semver.Version, error) {
	v, err := semver.NewVersion(id.Version)
	if err != nil {
		return nil, errors.Wrapf(err, "package %s", id.Name)
	}
	return v, nil
}

// ResolvedPackage is a package whose source tree exists on disk.
type ResolvedPackage struct {
	ID PackageID

	// Root is the directory holding the package manifest.
	Root string

	// Files, if not nil, lists the files belonging to the published
	// package, relative to Root.
	Files []string

	// Checksum is the digest of the origin's distributable
	// artifact, or "" if the origin has none.
	Checksum string
}
