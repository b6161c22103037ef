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
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// DefaultManifestFile marks a directory in the vendor directory as a
// vendored package, even without a checksum manifest.
const DefaultManifestFile = "Cargo.toml"

// Options controls a Vendor run.
type Options struct {
	// Path is the vendor directory, "vendor" by default.
	Path string

	ExplicitVersion    bool
	DisallowDuplicates bool

	// NoDelete keeps entries no longer needed.
	NoDelete bool

	// OnlyGit vendors only packages from git origins, leaving
	// the rest of the vendor directory alone.
	OnlyGit bool

	// SplitSources puts each origin in its own subdirectory.
	SplitSources bool

	// RelativePath and Cwd control directories in the emitted
	// configuration.
	RelativePath bool
	Cwd          string

	// ChecksumFile and ManifestFile default to
	// DefaultChecksumFile and DefaultManifestFile.
	ChecksumFile string
	ManifestFile string

	// Excludes are extra patterns excluded from every package, in
	// addition to DefaultExcludes.
	Excludes []string

	// Hasher defaults to NewHasher().
	Hasher Hasher

	// Status is called for each package copied.
	Status func(*Entry) error
}

func (o *Options) withDefaults() *Options {
	opts := *o
	if opts.Path == "" {
		opts.Path = "vendor"
	}
	if !filepath.IsAbs(opts.Path) && opts.Cwd != "" {
		opts.Path = filepath.Join(opts.Cwd, opts.Path)
	}
	if opts.ChecksumFile == "" {
		opts.ChecksumFile = DefaultChecksumFile
	}
	if opts.ManifestFile == "" {
		opts.ManifestFile = DefaultManifestFile
	}
	if opts.Hasher == nil {
		opts.Hasher = NewHasher()
	}
	return &opts
}

// Vendor synchronizes the vendor directory with the packages of
// workspaces and returns the configuration needed to use it. The
// stages run in order and the first error stops the run.
func Vendor(workspaces []Workspace, fetcher Fetcher, options *Options) (*VendorConfig, error) {
	opts := options.withDefaults()

	selector, err := NewSelector(append(DefaultExcludes(opts.ChecksumFile), opts.Excludes...)...)
	if err != nil {
		return nil, err
	}

	coll, err := Collect(workspaces, fetcher)
	if err != nil {
		return nil, err
	}
	log.Debugf("collected %d packages", len(coll.Packages))

	versions, err := PlanVersions(coll, VersionOptions{
		ExplicitVersion:    opts.ExplicitVersion,
		DisallowDuplicates: opts.DisallowDuplicates,
		MergeSources:       !opts.SplitSources,
	})
	if err != nil {
		return nil, err
	}
	layout, err := PlanLayout(opts.Path, coll, LayoutOptions{
		MergeSources: !opts.SplitSources,
		OnlyGit:      opts.OnlyGit,
	})
	if err != nil {
		return nil, err
	}
	entries, reserved, err := NewEntries(coll, versions, layout)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(layout.Vendor, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create: `%s`", layout.Vendor)
	}
	previous, err := ReadSourcesIndex(layout.Vendor)
	if err != nil {
		return nil, err
	}
	existing, err := ScanEntries(layout.Vendor, previous, opts.ChecksumFile, opts.ManifestFile)
	if err != nil {
		return nil, err
	}
	if opts.OnlyGit {
		// Entries from other origins are left alone
		existing = GitEntries(layout.Vendor, existing, opts.ChecksumFile)
	}

	syncer := &Syncer{
		Hasher:       opts.Hasher,
		Selector:     selector,
		ChecksumFile: opts.ChecksumFile,
		Status:       opts.Status,
	}
	touched, err := syncer.Sync(entries)
	if err != nil {
		return nil, err
	}

	keep := touched
	for _, dst := range reserved {
		keep[dst] = struct{}{}
	}
	if _, err := Prune(existing, keep, coll.LocalPaths, opts.NoDelete); err != nil {
		return nil, err
	}

	index, err := ReconcileSources(layout.Vendor, previous, layout.SourceDirs())
	if err != nil {
		return nil, err
	}
	if err := WriteSourcesIndex(layout.Vendor, index); err != nil {
		return nil, err
	}

	return EmitConfig(layout, ConfigOptions{
		RelativePath: opts.RelativePath,
		Cwd:          opts.Cwd,
	})
}
