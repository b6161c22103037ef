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
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// FileHash is the hex digest of a file's content.
type FileHash string

// Hasher is the interface that wraps the Hash method.
type Hasher interface {
	// Hash returns the file hash for the file at absPath, which is
	// recorded as relativePath.
	Hash(relativePath, absPath string) (FileHash, error)
}

type sha256Hasher struct{}

// Hash implements the Hasher interface using sha256.
func (h sha256Hasher) Hash(relativePath, absPath string) (FileHash, error) {
	return HashFile(absPath)
}

// NewHasher returns the Hasher used for checksum manifests.
func NewHasher() Hasher {
	return sha256Hasher{}
}

// HashFile streams the file at path through sha256 and returns the
// hex digest.
func HashFile(path string) (FileHash, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileHash(""), errors.Wrapf(err, "hashing %s", path)
	}
	defer f.Close()

	hash := sha256.New()
	_, err = io.Copy(hash, f)
	if err != nil {
		return FileHash(""), errors.Wrapf(err, "hashing %s", path)
	}

	return FileHash(hex.EncodeToString(hash.Sum(nil))), nil
}

// FileHashes is a map of canonical relative paths to their hashes.
type FileHashes map[string]FileHash

// NewFileHashes hashes each of files under root, keyed by their
// canonical paths.
func NewFileHashes(h Hasher, root string, files []SelectedFile) (FileHashes, error) {
	hashes := make(FileHashes, len(files))
	for _, f := range files {
		fileHash, err := h.Hash(f.Key, filepath.Join(root, f.Path))
		if err != nil {
			return nil, err
		}
		hashes[f.Key] = fileHash
	}
	return hashes, nil
}

// Paths returns the relative paths in h, sorted.
func (h FileHashes) Paths() []string {
	paths := make([]string, 0, len(h))
	for path := range h {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// IsSubsetOf returns true if these file hashes are a subset of s.
func (h FileHashes) IsSubsetOf(s FileHashes) bool {
	return h.Mismatches(s, true) == nil
}

// Mismatches returns a sorted slice of filenames from h whose hashes
// mismatch those in s, or which are missing from s. If failFast is
// true at most one mismatch will be returned.
func (h FileHashes) Mismatches(s FileHashes, failFast bool) []string {
	var mismatches []string
	for _, path := range h.Paths() {
		sh, ok := s[path]
		if !ok {
			log.Debugf("%s: not present", path)
			mismatches = append(mismatches, path)
		} else if h[path] != sh {
			log.Debugf("%s: hash mismatch", path)
			mismatches = append(mismatches, path)
		}

		if failFast && mismatches != nil {
			return mismatches
		}
	}

	return mismatches
}
