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
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// Workspace is the resolved dependency set of one project.
type Workspace struct {
	// Root is the directory relative path origins are resolved
	// against.
	Root string

	// Packages is the transitive closure of the project's
	// dependencies.
	Packages []PackageID
}

// Fetcher is the interface that wraps the Fetch method.
type Fetcher interface {
	// Fetch returns the package for id, whose source tree must
	// exist on disk.
	Fetch(id PackageID) (*ResolvedPackage, error)
}

// Collection is the merged set of packages to vendor.
type Collection struct {
	// Packages holds every package not from a path origin.
	Packages map[PackageID]*ResolvedPackage

	// LocalPaths holds the absolute directories of every path
	// origin seen. These are never deleted from the vendor
	// directory.
	LocalPaths []string
}

// Collect merges the packages of each workspace, fetching every
// package not from a path origin.
func Collect(workspaces []Workspace, fetcher Fetcher) (*Collection, error) {
	c := &Collection{
		Packages: make(map[PackageID]*ResolvedPackage),
	}
	local := make(map[string]struct{})
	for _, ws := range workspaces {
		for _, id := range ws.Packages {
			if id.Origin.Kind == PathOrigin {
				dir, err := localDir(ws.Root, id.Origin.URL)
				if err != nil {
					return nil, err
				}
				local[dir] = struct{}{}
				continue
			}
			if _, ok := c.Packages[id]; ok {
				continue
			}

			pkg, err := fetcher.Fetch(id)
			if err != nil {
				if _, ok := err.(*FetchError); ok {
					return nil, err
				}
				return nil, &FetchError{ID: id, Err: err}
			}
			root, err := filepath.Abs(pkg.Root)
			if err != nil {
				return nil, &FetchError{ID: id, Err: err}
			}
			resolved := *pkg
			resolved.ID = id
			resolved.Root = root
			c.Packages[id] = &resolved
		}
	}

	for dir := range local {
		c.LocalPaths = append(c.LocalPaths, dir)
	}
	sort.Strings(c.LocalPaths)
	return c, nil
}

func localDir(wsRoot, dir string) (string, error) {
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(wsRoot, dir)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrapf(err, "path dependency %s", dir)
	}
	return abs, nil
}

// IDs returns the identities in c, sorted by name, version and
// origin.
func (c *Collection) IDs() []PackageID {
	ids := make([]PackageID, 0, len(c.Packages))
	for id := range c.Packages {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

func sortIDs(ids []PackageID) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Version != b.Version {
			return a.Version < b.Version
		}
		return a.Origin.String() < b.Origin.String()
	})
}
