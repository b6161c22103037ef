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
	"fmt"
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// LayoutOptions controls where packages land in the vendor directory.
type LayoutOptions struct {
	// MergeSources puts every package directly in the vendor
	// directory. Otherwise each origin gets its own subdirectory.
	MergeSources bool

	// OnlyGit selects only packages from git origins.
	OnlyGit bool
}

// LayoutPlan maps origins to destination roots.
type LayoutPlan struct {
	// Vendor is the absolute path of the vendor directory.
	Vendor string

	// Merged is true when all origins share Vendor.
	Merged bool

	// Selected are the packages to synchronize this run, and
	// Excluded those filtered out by OnlyGit. Both are sorted.
	Selected []PackageID
	Excluded []PackageID

	roots map[Origin]string
}

// PlanLayout computes the destination root of every origin in c.
func PlanLayout(vendor string, c *Collection, opts LayoutOptions) (*LayoutPlan, error) {
	abs, err := filepath.Abs(vendor)
	if err != nil {
		return nil, errors.Wrapf(err, "vendor directory %s", vendor)
	}
	plan := &LayoutPlan{
		Vendor: abs,
		Merged: opts.MergeSources,
		roots:  make(map[Origin]string),
	}

	for _, id := range c.IDs() {
		if _, ok := plan.roots[id.Origin]; !ok {
			root := abs
			if !opts.MergeSources {
				name, err := SourceDirName(id.Origin)
				if err != nil {
					return nil, errors.Wrapf(err, "package %s", id)
				}
				root = filepath.Join(abs, name)
			}
			plan.roots[id.Origin] = root
		}

		if opts.OnlyGit && id.Origin.Kind != GitOrigin {
			plan.Excluded = append(plan.Excluded, id)
			continue
		}
		plan.Selected = append(plan.Selected, id)
	}

	if opts.OnlyGit && len(plan.Selected) == 0 {
		return nil, ErrorNoGitDependencies
	}
	return plan, nil
}

// SourceDirName returns the stable subdirectory name used for origin
// o in the split layout: "<kind>-<hash of origin>".
func SourceDirName(o Origin) (string, error) {
	switch o.Kind {
	case RegistryOrigin, GitOrigin:
		return fmt.Sprintf("%s-%016x", o.Kind, xxhash.Sum64String(o.String())), nil
	}
	return "", errors.Wrapf(ErrorUnknownOrigin, "%s", o)
}

// Root returns the destination root for packages from o.
func (p *LayoutPlan) Root(o Origin) string {
	return p.roots[o]
}

// Origins returns the origins of the selected packages, sorted.
func (p *LayoutPlan) Origins() []Origin {
	seen := make(map[Origin]struct{})
	var origins []Origin
	for _, id := range p.Selected {
		if _, ok := seen[id.Origin]; ok {
			continue
		}
		seen[id.Origin] = struct{}{}
		origins = append(origins, id.Origin)
	}
	sort.Slice(origins, func(i, j int) bool {
		return origins[i].String() < origins[j].String()
	})
	return origins
}

// SourceDirs returns the names of the per-origin subdirectories
// planned for every collected package, sorted. It is empty for the
// merged layout.
func (p *LayoutPlan) SourceDirs() []string {
	if p.Merged {
		return nil
	}
	seen := make(map[string]struct{})
	var dirs []string
	for _, root := range p.roots {
		name := filepath.Base(root)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		dirs = append(dirs, name)
	}
	sort.Strings(dirs)
	return dirs
}
