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

// Package revendor copies the source of every external dependency of
// a project into a local vendor directory, and produces the
// configuration needed to redirect dependency lookups to that
// directory.
//
// The input is a set of already-resolved packages, one Workspace per
// resolved project. Each package is identified by a PackageID (name,
// semantic version and Origin) and its source tree must already exist
// on disk; a Fetcher supplies the on-disk location for each one.
//
//     cfg, err := revendor.Vendor(workspaces, fetcher, &revendor.Options{
//             Path: "vendor",
//     })
//
// Vendor runs the stages in order: Collect merges the workspaces,
// PlanVersions decides which destination directories carry a version
// suffix, PlanLayout decides whether packages share one directory or
// are split by origin, a Syncer copies each package and writes its
// checksum manifest, Prune removes entries left over from previous
// runs, and EmitConfig builds the replacement-source document.
//
// Running Vendor again with the same input leaves the vendor
// directory byte-for-byte unchanged. Version-suffixed directories are
// never re-copied once their checksum manifest exists; the unsuffixed
// directory for each name is refreshed on every run because the
// highest version may change.
//
// Verify re-hashes a vendor directory against the checksum manifests
// recorded in it.
package revendor
