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

package lockfile

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/release-engineering/revendor/revendor"
)

const sample = `root: project
packages:
  - name: foo
    version: "1.0"
    source: registry+https://github.com/rust-lang/crates.io-index
    path: sources/foo-1.0.0
    checksum: "0123"
    files:
      - Cargo.toml
      - src/lib.rs
  - name: bar
    version: 0.1.0
    source: git+https://github.com/foo/bar?branch=dev#abcdef
    path: /nonexistent/bar
  - name: app
    version: 0.1.0
    source: path+app
  - name: foo
    version: 1.0.0
    source: registry+https://github.com/rust-lang/crates.io-index
    path: sources/foo-1.0.0
`

func writeLock(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeLock(t, sample)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(filepath.Join(dir, "sources", "foo-1.0.0"), 0755); err != nil {
		t.Fatal(err)
	}

	lock, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if lock.Root != filepath.Join(dir, "project") {
		t.Errorf("unexpected root %s", lock.Root)
	}

	foo, _ := revendor.NewPackageID("foo", "1.0.0", revendor.Registry(revendor.DefaultRegistryURL))
	bar, _ := revendor.NewPackageID("bar", "0.1.0",
		revendor.Git("https://github.com/foo/bar", revendor.GitReference{Branch: "dev"}))
	app, _ := revendor.NewPackageID("app", "0.1.0", revendor.Path("app"))
	ws := lock.Workspace()
	if ws.Root != lock.Root {
		t.Errorf("unexpected workspace root %s", ws.Root)
	}
	if !reflect.DeepEqual(ws.Packages, []revendor.PackageID{foo, bar, app}) {
		t.Errorf("unexpected packages %v", ws.Packages)
	}

	fetcher := NewFetcher(lock)
	pkg, err := fetcher.Fetch(foo)
	if err != nil {
		t.Fatal(err)
	}
	expected := &revendor.ResolvedPackage{
		ID:       foo,
		Root:     filepath.Join(dir, "sources", "foo-1.0.0"),
		Files:    []string{"Cargo.toml", "src/lib.rs"},
		Checksum: "0123",
	}
	if !reflect.DeepEqual(pkg, expected) {
		t.Errorf("got %+v, want %+v", pkg, expected)
	}

	_, err = fetcher.Fetch(bar)
	if fe, ok := err.(*revendor.FetchError); !ok || !os.IsNotExist(fe.Err) {
		t.Errorf("unexpected error for missing source %v", err)
	}
	_, err = fetcher.Fetch(app)
	if errors.Cause(err) != revendor.ErrorPackageNotFound {
		t.Errorf("unexpected error for path dependency %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	type tcase struct {
		name    string
		content string
	}
	tcases := []tcase{
		{
			name:    "syntax",
			content: "packages: [",
		},
		{
			name: "unknown-origin",
			content: `packages:
  - name: foo
    version: 1.0.0
    source: svn+https://example.com/foo
    path: foo
`,
		},
		{
			name: "bad-version",
			content: `packages:
  - name: foo
    version: latest
    source: registry+https://github.com/rust-lang/crates.io-index
    path: foo
`,
		},
		{
			name: "no-path",
			content: `packages:
  - name: foo
    version: 1.0.0
    source: registry+https://github.com/rust-lang/crates.io-index
`,
		},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeLock(t, tc.content)); err == nil {
				t.Error("expected error")
			}
		})
	}

	missing := filepath.Join(t.TempDir(), DefaultName)
	_, err := Load(missing)
	if !os.IsNotExist(errors.Cause(err)) {
		t.Errorf("unexpected error for missing file %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "opening "+missing) {
		t.Errorf("error does not name the file: %v", err)
	}
}
