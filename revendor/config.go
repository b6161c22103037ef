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
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

const (
	// VendoredSourcesName is the source name of the vendor
	// directory in the merged layout.
	VendoredSourcesName = "vendored-sources"

	// DefaultRegistryName is the well-known source name of the
	// default registry.
	DefaultRegistryName = "crates-io"
)

// VendorConfig is the replacement-source configuration redirecting
// lookups to the vendor directory.
type VendorConfig struct {
	Source map[string]SourceConfig `toml:"source"`
}

// SourceConfig is one [source.<name>] table. Exactly one of
// Directory, Registry/ReplaceWith or Git/ReplaceWith is used.
type SourceConfig struct {
	Directory   string `toml:"directory,omitempty"`
	Registry    string `toml:"registry,omitempty"`
	Git         string `toml:"git,omitempty"`
	Branch      string `toml:"branch,omitempty"`
	Tag         string `toml:"tag,omitempty"`
	Rev         string `toml:"rev,omitempty"`
	ReplaceWith string `toml:"replace-with,omitempty"`
}

// ConfigOptions controls how paths appear in the configuration.
type ConfigOptions struct {
	// RelativePath writes directories relative to Cwd instead of
	// as absolute paths.
	RelativePath bool

	// Cwd defaults to the working directory.
	Cwd string
}

// EmitConfig builds the configuration for the origins selected in
// layout: a directory source for each destination root, and one
// replacement block per origin pointing at it.
func EmitConfig(layout *LayoutPlan, opts ConfigOptions) (*VendorConfig, error) {
	cfg := &VendorConfig{Source: make(map[string]SourceConfig)}
	unique := func(base string) string {
		name := base
		for n := 1; ; n++ {
			if _, used := cfg.Source[name]; !used {
				return name
			}
			name = fmt.Sprintf("%s-%d", base, n)
		}
	}
	dirPath := func(path string) (string, error) {
		if !opts.RelativePath {
			return path, nil
		}
		cwd := opts.Cwd
		if cwd == "" {
			var err error
			if cwd, err = os.Getwd(); err != nil {
				return "", err
			}
		}
		rel, err := filepath.Rel(cwd, path)
		if err != nil {
			return "", errors.Wrapf(err, "relative path for %s", path)
		}
		return filepath.ToSlash(rel), nil
	}

	origins := layout.Origins()
	vendorNames := make(map[Origin]string, len(origins))
	if layout.Merged {
		dir, err := dirPath(layout.Vendor)
		if err != nil {
			return nil, err
		}
		cfg.Source[VendoredSourcesName] = SourceConfig{Directory: dir}
		for _, o := range origins {
			vendorNames[o] = VendoredSourcesName
		}
	} else {
		for _, o := range origins {
			sub, err := SourceDirName(o)
			if err != nil {
				return nil, err
			}
			dir, err := dirPath(layout.Root(o))
			if err != nil {
				return nil, err
			}
			name := unique("vendored-" + sub)
			cfg.Source[name] = SourceConfig{Directory: dir}
			vendorNames[o] = name
		}
	}

	for _, o := range origins {
		name, block, err := replacement(o, vendorNames[o])
		if err != nil {
			return nil, err
		}
		cfg.Source[unique(name)] = block
	}
	return cfg, nil
}

// replacement returns the source name and block redirecting origin o
// to the vendor source replaceWith.
func replacement(o Origin, replaceWith string) (string, SourceConfig, error) {
	switch o.Kind {
	case RegistryOrigin:
		if o.IsDefaultRegistry() {
			return DefaultRegistryName, SourceConfig{ReplaceWith: replaceWith}, nil
		}
		return o.URL, SourceConfig{Registry: o.URL, ReplaceWith: replaceWith}, nil
	case GitOrigin:
		return o.URL, SourceConfig{
			Git:         o.URL,
			Branch:      o.Ref.Branch,
			Tag:         o.Ref.Tag,
			Rev:         o.Ref.Rev,
			ReplaceWith: replaceWith,
		}, nil
	}
	return "", SourceConfig{}, errors.Wrapf(ErrorUnknownOrigin, "cannot replace %s", o)
}

// TOML encodes c.
func (c *VendorConfig) TOML() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "encoding vendor config")
	}
	return data, nil
}
