// Copyright (C) 2018, 2019 Tim Waugh
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
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// SourcesIndexFile is the name of the file, directly inside the
// vendor directory, listing the per-origin subdirectories in use.
const SourcesIndexFile = ".sources"

// ReadSourcesIndex returns the subdirectory names recorded in the
// sources index of vendor, or nil if there is none.
func ReadSourcesIndex(vendor string) ([]string, error) {
	path := filepath.Join(vendor, SourcesIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	var dirs []string
	if err := json.Unmarshal(data, &dirs); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	for _, dir := range dirs {
		if dir == "" || dir != filepath.Base(dir) || dir == "." || dir == ".." {
			return nil, errors.Errorf("%s: invalid entry %q", path, dir)
		}
	}
	return dirs, nil
}

// WriteSourcesIndex records dirs as the sources index of vendor. An
// empty dirs removes the index.
func WriteSourcesIndex(vendor string, dirs []string) error {
	path := filepath.Join(vendor, SourcesIndexFile)
	if len(dirs) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "removing %s", path)
		}
		return nil
	}
	sorted := append([]string(nil), dirs...)
	sort.Strings(sorted)
	data, err := json.Marshal(sorted)
	if err != nil {
		return errors.Wrap(err, "encoding sources index")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// ScanEntries returns the vendored entries already on disk: the
// directories directly inside vendor, or directly inside one of its
// sourceDirs, which contain any of the marker files. The result is
// sorted.
func ScanEntries(vendor string, sourceDirs []string, markers ...string) ([]string, error) {
	var entries []string
	parents := []string{vendor}
	for _, dir := range sourceDirs {
		parents = append(parents, filepath.Join(vendor, dir))
	}
	for _, parent := range parents {
		children, err := os.ReadDir(parent)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, "reading %s", parent)
		}
		for _, child := range children {
			if !child.IsDir() {
				continue
			}
			path := filepath.Join(parent, child.Name())
			for _, marker := range markers {
				if exists(filepath.Join(path, marker)) {
					entries = append(entries, path)
					break
				}
			}
		}
	}
	sort.Strings(entries)
	return entries, nil
}

// GitEntries returns the entries of existing which were vendored from
// a git origin: those in a git origin subdirectory of vendor, and
// those directly in vendor whose checksum manifest records no
// package checksum.
func GitEntries(vendor string, existing []string, checksumFile string) []string {
	prefix := GitOrigin.String() + "-"
	var entries []string
	for _, path := range existing {
		parent := filepath.Dir(path)
		if parent != vendor {
			if strings.HasPrefix(filepath.Base(parent), prefix) {
				entries = append(entries, path)
			}
			continue
		}
		m, err := ReadChecksums(path, checksumFile)
		if err != nil {
			log.Debugf("%s: origin unknown, not removing", path)
			continue
		}
		if m.Package == nil {
			entries = append(entries, path)
		}
	}
	return entries
}

// Prune removes each existing entry which is not in keep and does not
// hold one of the local path dependencies, and returns the removed
// paths. Nothing is removed if noDelete is set.
func Prune(existing []string, keep map[string]struct{}, local []string, noDelete bool) ([]string, error) {
	if noDelete {
		return nil, nil
	}

	var removed []string
	for _, path := range existing {
		if _, ok := keep[path]; ok {
			continue
		}
		if isLocal(path, local) {
			log.Debugf("%s: path dependency, not removing", path)
			continue
		}
		log.Debugf("%s: removing stale entry", path)
		if err := os.RemoveAll(path); err != nil {
			return removed, errors.Wrapf(err, "removing %s", path)
		}
		removed = append(removed, path)
	}
	return removed, nil
}

func isLocal(path string, local []string) bool {
	for _, dir := range local {
		if pathStartsWith(dir, path) {
			return true
		}
	}
	return false
}

// ReconcileSources decides which per-origin subdirectories remain in
// the sources index. Planned subdirectories are kept if they exist.
// Previously recorded subdirectories which are no longer planned are
// removed if empty, and kept otherwise.
func ReconcileSources(vendor string, previous, planned []string) ([]string, error) {
	inPlan := make(map[string]struct{}, len(planned))
	for _, dir := range planned {
		inPlan[dir] = struct{}{}
	}

	var dirs []string
	seen := make(map[string]struct{})
	for _, dir := range append(append([]string(nil), planned...), previous...) {
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}

		path := filepath.Join(vendor, dir)
		children, err := os.ReadDir(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, "reading %s", path)
		}
		if _, ok := inPlan[dir]; !ok && len(children) == 0 {
			log.Debugf("%s: removing unused source directory", path)
			if err := os.Remove(path); err != nil {
				return nil, errors.Wrapf(err, "removing %s", path)
			}
			continue
		}
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs, nil
}
