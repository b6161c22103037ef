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
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// ReadyMarker is the file the fetch layer leaves in an unpacked
// package once extraction has finished.
const ReadyMarker = ".cargo-ok"

// vcsDirs hold version control metadata, which is never vendored.
var vcsDirs = []string{".git", ".hg", ".svn", ".bzr"}

// DefaultExcludes returns the patterns excluded from every vendored
// package: version control metadata, the fetch layer's ready marker,
// patch backup files, and the checksum manifest itself.
func DefaultExcludes(checksumFile string) []string {
	patterns := append([]string(nil), vcsDirs...)
	patterns = append(patterns,
		".gitattributes",
		".gitignore",
		ReadyMarker,
		"*.orig",
		"*.rej",
	)
	if checksumFile != "" {
		patterns = append(patterns, checksumFile)
	}
	return patterns
}

// SelectedFile is one file chosen for vendoring.
type SelectedFile struct {
	// Key is the canonical slash-separated path recorded in the
	// checksum manifest.
	Key string

	// Path is the same file relative to the package root, in host
	// form.
	Path string
}

// Selector decides which files under a package root belong to the
// vendored copy. A pattern without a slash excludes a file if it
// matches any component of its relative path. A pattern with a slash
// is matched against the whole relative path.
type Selector struct {
	patterns []string
}

// NewSelector returns a Selector excluding files matching any of
// patterns (doublestar syntax).
func NewSelector(patterns ...string) (*Selector, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Errorf("invalid exclude pattern %q", p)
		}
		if strings.HasPrefix(p, "/") {
			return nil, errors.Errorf("exclude pattern %q must be relative", p)
		}
	}
	return &Selector{patterns: patterns}, nil
}

// Keep reports whether the file at the canonical relative path rel
// is vendored.
func (s *Selector) Keep(rel string) bool {
	components := strings.Split(rel, "/")
	for _, pattern := range s.patterns {
		// Patterns were validated in NewSelector
		if strings.Contains(pattern, "/") {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				return false
			}
			continue
		}
		for _, component := range components {
			if ok, _ := doublestar.Match(pattern, component); ok {
				return false
			}
		}
	}
	return true
}

// Files returns the files to vendor from root, sorted by Key. If
// listed is not nil it is the authoritative file list for the
// package, whose entries may use either separator; otherwise root is
// walked.
func (s *Selector) Files(root string, listed []string) ([]SelectedFile, error) {
	if listed != nil {
		return s.filterListed(listed)
	}
	return s.walk(root)
}

func (s *Selector) filterListed(listed []string) ([]SelectedFile, error) {
	seen := make(map[string]struct{}, len(listed))
	files := make([]SelectedFile, 0, len(listed))
	for _, entry := range listed {
		components, err := splitPath(entry)
		if err != nil {
			return nil, err
		}
		key := strings.Join(components, "/")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if !s.Keep(key) {
			log.Debugf("%s: excluded", key)
			continue
		}
		files = append(files, SelectedFile{
			Key:  key,
			Path: filepath.Join(components...),
		})
	}
	sortFiles(files)
	return files, nil
}

func (s *Selector) walk(root string) ([]SelectedFile, error) {
	var files []SelectedFile
	walkfn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		relativePath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(relativePath)
		if !s.Keep(key) {
			log.Debugf("%s: excluded", key)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		switch {
		case d.IsDir():
			return nil
		case d.Type()&fs.ModeSymlink != 0:
			// Only symlinks to regular files are followed
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				log.Debugf("%s: skipping symlink", key)
				return nil
			}
		case !d.Type().IsRegular():
			return nil
		}

		files = append(files, SelectedFile{Key: key, Path: relativePath})
		return nil
	}
	if err := filepath.WalkDir(root, walkfn); err != nil {
		return nil, errors.Wrapf(err, "walking %s", root)
	}
	sortFiles(files)
	return files, nil
}

func sortFiles(files []SelectedFile) {
	sort.Slice(files, func(i, j int) bool {
		return files[i].Key < files[j].Key
	})
}

// splitPath splits a relative path from a file list, using either
// separator style, into its components.
func splitPath(p string) ([]string, error) {
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) ||
		filepath.IsAbs(p) || filepath.VolumeName(p) != "" {
		return nil, errors.Wrapf(ErrorInvalidPath, "%q", p)
	}
	var components []string
	for _, c := range strings.FieldsFunc(p, func(r rune) bool {
		return r == '/' || r == '\\'
	}) {
		switch c {
		case ".":
			continue
		case "..":
			return nil, errors.Wrapf(ErrorInvalidPath, "%q", p)
		}
		components = append(components, c)
	}
	if len(components) == 0 {
		return nil, errors.Wrapf(ErrorInvalidPath, "%q", p)
	}
	return components, nil
}
