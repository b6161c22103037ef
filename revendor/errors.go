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
	"fmt"

	"github.com/pkg/errors"
)

// ErrorUnknownOrigin indicates an origin kind which cannot be
// expressed in the vendor directory or in the emitted configuration.
var ErrorUnknownOrigin = errors.New("unknown origin kind")

// ErrorNoGitDependencies indicates that only git dependencies were
// requested but none were resolved.
var ErrorNoGitDependencies = errors.New("no git dependencies to vendor")

// ErrorInvalidPath indicates a file path, relative to a package root,
// which is absolute or escapes the package root.
var ErrorInvalidPath = errors.New("invalid package file path")

// ErrorPackageNotFound indicates the Fetcher has no source for a
// package.
var ErrorPackageNotFound = errors.New("package not found")

// ConflictKind describes why two packages cannot both be vendored.
type ConflictKind int

const (
	// DuplicateSource means the same name and version was resolved
	// from two different origins.
	DuplicateSource ConflictKind = iota

	// DuplicateVersion means two versions of one name were
	// resolved but duplicates were disallowed.
	DuplicateVersion

	// DuplicateDestination means two packages were planned into
	// the same destination directory.
	DuplicateDestination
)

// ConflictError is returned when the resolved packages cannot be laid
// out in the vendor directory. It is never retried.
type ConflictError struct {
	Kind ConflictKind

	// First and Second are the two conflicting packages.
	First, Second PackageID
}

func (e *ConflictError) Error() string {
	switch e.Kind {
	case DuplicateSource:
		return fmt.Sprintf("found duplicate version of package `%s v%s` "+
			"vendored from two sources:\n\n\tsource 1: %s\n\tsource 2: %s",
			e.First.Name, e.First.Version, e.First.Origin, e.Second.Origin)
	case DuplicateVersion:
		return fmt.Sprintf("found duplicate versions of package `%s` "+
			"at %s (from %s) and %s (from %s), but this was disallowed "+
			"via --disallow-duplicates",
			e.First.Name, e.First.Version, e.First.Origin,
			e.Second.Version, e.Second.Origin)
	}
	return fmt.Sprintf("packages `%s` and `%s` would be vendored to the same directory",
		e.First, e.Second)
}

// FetchError is returned when the source for a package cannot be
// located.
type FetchError struct {
	ID  PackageID
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch package %s: %v", e.ID, e.Err)
}

// Cause returns the underlying error, for errors.Cause.
func (e *FetchError) Cause() error {
	return e.Err
}
