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
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// Entry is one package planned into the vendor directory.
type Entry struct {
	Package *ResolvedPackage

	// Name is the destination directory name and Dst its absolute
	// path.
	Name string
	Dst  string

	// Suffixed is true if Name carries the package version.
	Suffixed bool
}

// ID returns the identity of the vendored package.
func (e *Entry) ID() PackageID {
	return e.Package.ID
}

// Src returns the package's source directory.
func (e *Entry) Src() string {
	return e.Package.Root
}

// NewEntries combines the plans into one Entry per selected package,
// sorted by destination. It also returns the destinations planned
// for packages excluded from this run, which must not be pruned.
func NewEntries(c *Collection, versions *VersionPlan, layout *LayoutPlan) ([]*Entry, []string, error) {
	owner := make(map[string]PackageID)
	plan := func(id PackageID) (string, string, error) {
		name := versions.DirName(id)
		dst := filepath.Join(layout.Root(id.Origin), name)
		if prev, ok := owner[dst]; ok {
			return "", "", &ConflictError{
				Kind:   DuplicateDestination,
				First:  prev,
				Second: id,
			}
		}
		owner[dst] = id
		return name, dst, nil
	}

	var entries []*Entry
	for _, id := range layout.Selected {
		name, dst, err := plan(id)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, &Entry{
			Package:  c.Packages[id],
			Name:     name,
			Dst:      dst,
			Suffixed: versions.Suffixed(id),
		})
	}

	var reserved []string
	for _, id := range layout.Excluded {
		_, dst, err := plan(id)
		if err != nil {
			return nil, nil, err
		}
		reserved = append(reserved, dst)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Dst < entries[j].Dst
	})
	sort.Strings(reserved)
	return entries, reserved, nil
}

// Syncer copies packages into the vendor directory.
type Syncer struct {
	Hasher   Hasher
	Selector *Selector

	// ChecksumFile is the name of the checksum manifest written
	// into each destination.
	ChecksumFile string

	// Status, if not nil, is called before each package is copied.
	Status func(*Entry) error
}

// Sync synchronizes each entry and returns the set of destinations
// touched. The first failure aborts the run, leaving whatever has
// already been written in place.
func (s *Syncer) Sync(entries []*Entry) (map[string]struct{}, error) {
	touched := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		touched[e.Dst] = struct{}{}

		cksum := filepath.Join(e.Dst, s.ChecksumFile)
		if e.Suffixed && exists(cksum) {
			// Suffixed directories never change once written
			log.Debugf("%s: up to date", e.Dst)
			continue
		}

		if s.Status != nil {
			if err := s.Status(e); err != nil {
				return nil, err
			}
		}
		if err := s.copyEntry(e); err != nil {
			return nil, errors.Wrapf(err, "failed to copy over vendored sources for: %s", e.ID())
		}
	}
	return touched, nil
}

func (s *Syncer) copyEntry(e *Entry) error {
	if err := cleanupDir(e.Dst); err != nil {
		return err
	}
	if err := os.MkdirAll(e.Dst, 0755); err != nil {
		return err
	}

	files, err := s.Selector.Files(e.Src(), e.Package.Files)
	if err != nil {
		return err
	}

	hashes := make(FileHashes, len(files))
	for _, f := range files {
		dst := filepath.Join(e.Dst, f.Path)
		if err := copyFile(filepath.Join(e.Src(), f.Path), dst); err != nil {
			return errors.Wrapf(err, "copying %s", f.Key)
		}
		fileHash, err := s.Hasher.Hash(f.Key, dst)
		if err != nil {
			return err
		}
		hashes[f.Key] = fileHash
	}

	return WriteChecksums(e.Dst, s.ChecksumFile, NewChecksumManifest(e.Package.Checksum, hashes))
}
