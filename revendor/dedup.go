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
	"github.com/Masterminds/semver"
)

// VersionOptions controls how destination names are chosen.
type VersionOptions struct {
	// ExplicitVersion always includes the version in destination
	// names.
	ExplicitVersion bool

	// DisallowDuplicates makes more than one version of a name an
	// error, unless ExplicitVersion is set.
	DisallowDuplicates bool

	// MergeSources is set when all origins share one directory.
	MergeSources bool
}

// VersionPlan records, for each package, whether its destination
// name carries a version suffix.
type VersionPlan struct {
	suffixed map[PackageID]bool
}

type versioned struct {
	id PackageID
	v  *semver.Version
}

// PlanVersions finds the primary (highest) version of each package
// name in c, ignoring build metadata, and decides which packages need
// a version suffix.
func PlanVersions(c *Collection, opts VersionOptions) (*VersionPlan, error) {
	plan := &VersionPlan{
		suffixed: make(map[PackageID]bool, len(c.Packages)),
	}

	ids := c.IDs()
	highest := make(map[string]versioned)
	seen := make(map[string]PackageID)
	all := make([]versioned, 0, len(ids))
	for _, id := range ids {
		v, err := id.semver()
		if err != nil {
			return nil, err
		}

		// Two origins for one exact version cannot share a
		// directory.
		key := id.Name + " " + id.Version
		if prev, ok := seen[key]; ok && opts.MergeSources {
			return nil, &ConflictError{
				Kind:   DuplicateSource,
				First:  prev,
				Second: id,
			}
		}
		seen[key] = id

		if m, ok := highest[id.Name]; !ok || v.GreaterThan(m.v) {
			highest[id.Name] = versioned{id: id, v: v}
		}
		all = append(all, versioned{id: id, v: v})
	}

	for _, pv := range all {
		m := highest[pv.id.Name]
		suffix := opts.ExplicitVersion || pv.v.Compare(m.v) != 0
		if suffix && !opts.ExplicitVersion && opts.DisallowDuplicates {
			return nil, &ConflictError{
				Kind:   DuplicateVersion,
				First:  pv.id,
				Second: m.id,
			}
		}
		plan.suffixed[pv.id] = suffix
	}

	return plan, nil
}

// Suffixed reports whether the destination name for id includes its
// version.
func (p *VersionPlan) Suffixed(id PackageID) bool {
	return p.suffixed[id]
}

// DirName returns the destination directory name for id: the name
// alone for the primary version, otherwise "<name>-<version>".
func (p *VersionPlan) DirName(id PackageID) string {
	if p.suffixed[id] {
		return id.Name + "-" + id.Version
	}
	return id.Name
}
