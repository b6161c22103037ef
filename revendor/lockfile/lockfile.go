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

// Package lockfile reads resolution files: the fully resolved
// dependency set of a project, with the on-disk location of each
// package's source.
//
//     root: .
//     packages:
//       - name: bitflags
//         version: 0.8.0
//         source: registry+https://github.com/rust-lang/crates.io-index
//         path: /home/user/.cargo/registry/src/bitflags-0.8.0
//         checksum: 1b2c...
//       - name: bar
//         version: 0.1.0
//         source: path+bar
package lockfile

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/release-engineering/revendor/revendor"
)

// DefaultName is the resolution file used when none is given.
const DefaultName = "revendor.lock.yaml"

// Package is one resolved package.
type Package struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Source  string `yaml:"source"`

	// Path is the package's source directory. Relative paths are
	// relative to the resolution file.
	Path string `yaml:"path,omitempty"`

	Checksum string   `yaml:"checksum,omitempty"`
	Files    []string `yaml:"files,omitempty"`
}

type lockFile struct {
	Root     string    `yaml:"root"`
	Packages []Package `yaml:"packages"`
}

// Lock is a loaded resolution file.
type Lock struct {
	// Root is the absolute directory path sources are relative
	// to.
	Root string

	packages []*revendor.ResolvedPackage
	ids      []revendor.PackageID
}

// Load reads and validates the resolution file at path.
func Load(path string) (*Lock, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	var lf lockFile
	if err := yaml.NewDecoder(f).Decode(&lf); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	lock := &Lock{Root: resolve(dir, lf.Root)}
	seen := make(map[revendor.PackageID]struct{})
	for i, p := range lf.Packages {
		origin, err := revendor.ParseOrigin(p.Source)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: package %d (%s)", path, i, p.Name)
		}
		id, err := revendor.NewPackageID(p.Name, p.Version, origin)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: package %d", path, i)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		lock.ids = append(lock.ids, id)

		if origin.Kind == revendor.PathOrigin {
			continue
		}
		if p.Path == "" {
			return nil, errors.Errorf("%s: package %s has no path", path, id)
		}
		lock.packages = append(lock.packages, &revendor.ResolvedPackage{
			ID:       id,
			Root:     resolve(dir, p.Path),
			Files:    p.Files,
			Checksum: p.Checksum,
		})
	}
	return lock, nil
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(dir, filepath.FromSlash(path))
}

// Workspace returns the resolved dependency set.
func (l *Lock) Workspace() revendor.Workspace {
	return revendor.Workspace{
		Root:     l.Root,
		Packages: append([]revendor.PackageID(nil), l.ids...),
	}
}

// Fetcher serves packages from one or more resolution files.
type Fetcher struct {
	packages map[revendor.PackageID]*revendor.ResolvedPackage
}

// NewFetcher returns a Fetcher for the packages in locks.
func NewFetcher(locks ...*Lock) *Fetcher {
	f := &Fetcher{
		packages: make(map[revendor.PackageID]*revendor.ResolvedPackage),
	}
	for _, lock := range locks {
		for _, pkg := range lock.packages {
			f.packages[pkg.ID] = pkg
		}
	}
	return f
}

// Fetch implements the revendor.Fetcher interface. The package's
// source directory must exist.
func (f *Fetcher) Fetch(id revendor.PackageID) (*revendor.ResolvedPackage, error) {
	pkg, ok := f.packages[id]
	if !ok {
		return nil, &revendor.FetchError{ID: id, Err: revendor.ErrorPackageNotFound}
	}
	info, err := os.Stat(pkg.Root)
	if err != nil {
		return nil, &revendor.FetchError{ID: id, Err: err}
	}
	if !info.IsDir() {
		return nil, &revendor.FetchError{
			ID:  id,
			Err: errors.Errorf("%s is not a directory", pkg.Root),
		}
	}
	resolved := *pkg
	return &resolved, nil
}
