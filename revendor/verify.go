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
)

// VerifyResult describes how one vendored entry differs from its
// checksum manifest.
type VerifyResult struct {
	// Dir is the entry's directory.
	Dir string

	// Mismatches are recorded files which are missing or whose
	// content hash differs.
	Mismatches []string

	// Extra are files present but not recorded.
	Extra []string
}

// OK reports whether the entry matches its checksum manifest.
func (r *VerifyResult) OK() bool {
	return len(r.Mismatches) == 0 && len(r.Extra) == 0
}

// Verify compares every vendored entry in the vendor directory named
// by options.Path with its checksum manifest. Entries without a
// manifest are not checked.
func Verify(options *Options) ([]*VerifyResult, error) {
	opts := options.withDefaults()
	vendor, err := filepath.Abs(opts.Path)
	if err != nil {
		return nil, err
	}
	selector, err := NewSelector(append(DefaultExcludes(opts.ChecksumFile), opts.Excludes...)...)
	if err != nil {
		return nil, err
	}
	sources, err := ReadSourcesIndex(vendor)
	if err != nil {
		return nil, err
	}
	entries, err := ScanEntries(vendor, sources, opts.ChecksumFile)
	if err != nil {
		return nil, err
	}

	var results []*VerifyResult
	for _, dir := range entries {
		recorded, err := ReadChecksums(dir, opts.ChecksumFile)
		if err != nil {
			return nil, err
		}

		// Recorded files which are gone are reported as
		// mismatches.
		files, err := selector.Files(dir, nil)
		if err != nil {
			return nil, err
		}
		actual, err := NewFileHashes(opts.Hasher, dir, files)
		if err != nil {
			return nil, err
		}

		result := &VerifyResult{Dir: dir}
		if !recorded.Files.IsSubsetOf(actual) {
			result.Mismatches = recorded.Files.Mismatches(actual, false)
		}
		for _, f := range files {
			if _, ok := recorded.Files[f.Key]; !ok {
				result.Extra = append(result.Extra, f.Key)
			}
		}
		sort.Strings(result.Extra)
		if !result.OK() {
			log.Warningf("%s: %d mismatched, %d extra files", dir,
				len(result.Mismatches), len(result.Extra))
		}
		results = append(results, result)
	}
	return results, nil
}
