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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/release-engineering/revendor/revendor"
)

const testLock = `root: .
packages:
  - name: foo
    version: 1.0.0
    source: registry+https://github.com/rust-lang/crates.io-index
    path: sources/foo
  - name: app
    version: 0.1.0
    source: path+.
`

// newProject creates a project directory holding a resolution file
// and the sources it refers to.
func newProject(t *testing.T) (dir, lock string) {
	t.Helper()
	dir = t.TempDir()
	files := map[string]string{
		"revendor.lock.yaml":     testLock,
		"sources/foo/Cargo.toml": "[package]\nname = \"foo\"\n",
		"sources/foo/src/lib.rs": "",
	}
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir, filepath.Join(dir, "revendor.lock.yaml")
}

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVendorCommand(t *testing.T) {
	dir, lock := newProject(t)
	vendor := filepath.Join(dir, "vendor")
	stdout, stderr, err := runCmd(t, "-s", lock, vendor)
	if err != nil {
		t.Fatal(err)
	}

	var cfg revendor.VendorConfig
	if err := toml.Unmarshal([]byte(stdout), &cfg); err != nil {
		t.Fatalf("%s: %v", stdout, err)
	}
	expected := revendor.VendorConfig{Source: map[string]revendor.SourceConfig{
		revendor.VendoredSourcesName: {Directory: vendor},
		revendor.DefaultRegistryName: {ReplaceWith: revendor.VendoredSourcesName},
	}}
	if !reflect.DeepEqual(cfg, expected) {
		t.Errorf("got %+v, want %+v", cfg, expected)
	}
	if !strings.Contains(stderr, "Vendoring foo v1.0.0") {
		t.Errorf("no status line in %q", stderr)
	}
	if !strings.Contains(stderr, configHint) {
		t.Errorf("no config hint in %q", stderr)
	}
	if _, err := os.Stat(filepath.Join(vendor, "foo", revendor.DefaultChecksumFile)); err != nil {
		t.Error(err)
	}
}

func TestVendorCommandOptions(t *testing.T) {
	type tcase struct {
		name     string
		args     []string
		env      map[string]string
		config   string
		expected string
	}
	tcases := []tcase{
		{
			name:     "flag",
			args:     []string{"-x"},
			expected: "foo-1.0.0",
		},
		{
			name:     "env",
			env:      map[string]string{"REVENDOR_EXPLICIT_VERSION": "true"},
			expected: "foo-1.0.0",
		},
		{
			name:     "config-file",
			config:   "explicit-version: true\n",
			expected: "foo-1.0.0",
		},
		{
			name:     "default",
			expected: "foo",
		},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			dir, lock := newProject(t)
			vendor := filepath.Join(dir, "vendor")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			args := append([]string{"-q", "-s", lock}, tc.args...)
			if tc.config != "" {
				path := filepath.Join(dir, "revendor.yaml")
				if err := os.WriteFile(path, []byte(tc.config), 0644); err != nil {
					t.Fatal(err)
				}
				args = append(args, "--config", path)
			}
			stdout, _, err := runCmd(t, append(args, vendor)...)
			if err != nil {
				t.Fatal(err)
			}
			if stdout != "" {
				t.Errorf("output despite --quiet: %q", stdout)
			}
			if _, err := os.Stat(filepath.Join(vendor, tc.expected, "Cargo.toml")); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestVendorCommandTemplate(t *testing.T) {
	dir, lock := newProject(t)
	_, stderr, err := runCmd(t, "-s", lock, "--template", "{{.ID.Name}} -> {{.Name}}",
		filepath.Join(dir, "vendor"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "foo -> foo\n") {
		t.Errorf("unexpected status output %q", stderr)
	}
}

func TestVendorCommandErrors(t *testing.T) {
	dir, lock := newProject(t)
	type tcase struct {
		name string
		args []string
	}
	tcases := []tcase{
		{"missing-lock", []string{"-s", filepath.Join(dir, "missing.yaml")}},
		{"bad-template", []string{"-s", lock, "--template", "{{"}},
		{"only-git", []string{"-s", lock, "--only-git"}},
		{"too-many-args", []string{"-s", lock, "a", "b"}},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := runCmd(t, tc.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestVerifyCommand(t *testing.T) {
	dir, lock := newProject(t)
	vendor := filepath.Join(dir, "vendor")
	if _, _, err := runCmd(t, "-q", "-s", lock, vendor); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCmd(t, "verify", vendor); err != nil {
		t.Fatal(err)
	}

	lib := filepath.Join(vendor, "foo", "src", "lib.rs")
	if err := os.WriteFile(lib, []byte("changed\n"), 0644); err != nil {
		t.Fatal(err)
	}
	stdout, _, err := runCmd(t, "verify", vendor)
	if err == nil {
		t.Error("modified vendor directory verified")
	}
	if !strings.Contains(stdout, "src/lib.rs: checksum mismatch") {
		t.Errorf("unexpected output %q", stdout)
	}
}
