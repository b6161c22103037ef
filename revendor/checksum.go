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
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// DefaultChecksumFile is the name of the checksum manifest written
// into each vendored package.
const DefaultChecksumFile = ".cargo-checksum.json"

// ChecksumManifest records what was copied into one vendored package.
type ChecksumManifest struct {
	// Files maps canonical relative paths to content hashes.
	Files FileHashes `json:"files"`

	// Package is the origin checksum, or nil if the origin has no
	// distributable artifact.
	Package *string `json:"package"`
}

// NewChecksumManifest returns the manifest for a package with origin
// checksum pkgsum ("" for none).
func NewChecksumManifest(pkgsum string, files FileHashes) *ChecksumManifest {
	if files == nil {
		files = make(FileHashes)
	}
	m := &ChecksumManifest{Files: files}
	if pkgsum != "" {
		m.Package = &pkgsum
	}
	return m
}

// WriteChecksums writes m as JSON to the file named name in dir.
func WriteChecksums(dir, name string, m *ChecksumManifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "encoding checksums")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// ReadChecksums reads the checksum manifest named name in dir. If it
// does not exist the returned error satisfies os.IsNotExist after
// errors.Cause.
func ReadChecksums(dir, name string) (*ChecksumManifest, error) {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	var m ChecksumManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if m.Files == nil {
		m.Files = make(FileHashes)
	}
	return &m, nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
