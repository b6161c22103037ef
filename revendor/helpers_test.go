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
	"os"
	"path/filepath"
	"sort"
	"testing"
)

const otherRegistryURL = "https://example.com/index"

// writeTree creates files (relative slash paths) with the given
// content under root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

// listTree returns the slash paths of every regular file under root.
func listTree(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(files)
	return files
}

func mustID(t *testing.T, name, version string, origin Origin) PackageID {
	t.Helper()
	id, err := NewPackageID(name, version, origin)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func crate(t *testing.T, name, version string) PackageID {
	t.Helper()
	return mustID(t, name, version, Registry(DefaultRegistryURL))
}

// stubFetcher serves packages from source trees it creates on
// demand under dir.
type stubFetcher struct {
	dir      string
	packages map[PackageID]*ResolvedPackage
	fetched  []PackageID
}

func newStubFetcher(t *testing.T) *stubFetcher {
	return &stubFetcher{
		dir:      t.TempDir(),
		packages: make(map[PackageID]*ResolvedPackage),
	}
}

// add creates a source tree for id holding a manifest, a library
// source file and any extra files.
func (f *stubFetcher) add(t *testing.T, id PackageID, extra map[string]string) *ResolvedPackage {
	t.Helper()
	root := filepath.Join(f.dir, fmt.Sprintf("%d-%s-%s", len(f.packages), id.Name, id.Version))
	files := map[string]string{
		"Cargo.toml": "[package]\nname = \"" + id.Name + "\"\nversion = \"" + id.Version + "\"\n",
		"src/lib.rs": "// " + id.String() + "\n",
	}
	for rel, content := range extra {
		files[rel] = content
	}
	writeTree(t, root, files)
	pkg := &ResolvedPackage{ID: id, Root: root}
	f.packages[id] = pkg
	return pkg
}

func (f *stubFetcher) Fetch(id PackageID) (*ResolvedPackage, error) {
	f.fetched = append(f.fetched, id)
	pkg, ok := f.packages[id]
	if !ok {
		return nil, ErrorPackageNotFound
	}
	return pkg, nil
}

func (f *stubFetcher) collect(t *testing.T, ids ...PackageID) *Collection {
	t.Helper()
	c, err := Collect([]Workspace{{Root: f.dir, Packages: ids}}, f)
	if err != nil {
		t.Fatal(err)
	}
	return c
}
