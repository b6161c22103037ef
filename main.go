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

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/release-engineering/revendor/revendor"
	"github.com/release-engineering/revendor/revendor/lockfile"
)

var log = logging.MustGetLogger("revendor")

const configHint = "To use vendored sources, add this to your .cargo/config for this project:\n\n"

func setupLogging(w io.Writer, verbose, quiet bool) {
	backend := logging.NewLogBackend(w, "", 0)
	format := logging.MustStringFormatter(`%{color}%{level:.4s}%{color:reset} %{message}`)
	leveled := logging.AddModuleLevel(logging.NewBackendFormatter(backend, format))
	switch {
	case verbose:
		leveled.SetLevel(logging.DEBUG, "")
	case quiet:
		leveled.SetLevel(logging.WARNING, "")
	default:
		leveled.SetLevel(logging.INFO, "")
	}
	logging.SetBackend(leveled)
}

// loadConfig binds the flags of cmd, REVENDOR_* environment
// variables and the optional config file into v.
func loadConfig(v *viper.Viper, cmd *cobra.Command) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	v.SetEnvPrefix("revendor")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}
	}
	return nil
}

func vendorPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "vendor"
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "revendor [path]",
		Short: "Vendor all dependencies for a project locally",
		Long: `Vendor all dependencies for a project locally.

The packages listed in the resolution files given with --sync are
copied into the directory at <path> ("vendor" by default). After the
command completes, <path> contains all the sources necessary to build
those projects, and the configuration needed to use them is printed
on standard output.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(v, cmd); err != nil {
				return err
			}
			setupLogging(stderr, v.GetBool("verbose"), v.GetBool("quiet"))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVendor(v, vendorPath(args), stdout, stderr)
		},
	}

	pflags := cmd.PersistentFlags()
	pflags.BoolP("verbose", "v", false, "Use verbose output")
	pflags.BoolP("quiet", "q", false, "No output printed to stdout")
	pflags.String("config", "", "Read options from this config file")
	pflags.StringSlice("exclude", nil, "Also exclude files matching this pattern")

	flags := cmd.Flags()
	flags.StringSliceP("sync", "s", []string{lockfile.DefaultName}, "Sync the resolution file specified")
	flags.BoolP("explicit-version", "x", false, "Always include version in subdir name")
	flags.Bool("disallow-duplicates", false, "Disallow two versions of one package")
	flags.Bool("no-delete", false, "Don't delete older packages in the vendor directory")
	flags.Bool("only-git", false, "Only vendor git dependencies")
	flags.Bool("relative-path", false, "Use a relative vendor path in the config")
	flags.Bool("no-merge-sources", false, "Keep sources separate by origin")
	flags.String("template", "", "Go template for each package status line")

	cmd.AddCommand(newVerifyCmd(v, stdout))
	return cmd
}

func runVendor(v *viper.Viper, path string, stdout, stderr io.Writer) error {
	var locks []*lockfile.Lock
	var workspaces []revendor.Workspace
	for _, name := range v.GetStringSlice("sync") {
		lock, err := lockfile.Load(name)
		if err != nil {
			return errors.Wrap(err, "failed to load resolution file")
		}
		locks = append(locks, lock)
		workspaces = append(workspaces, lock.Workspace())
	}

	quiet := v.GetBool("quiet")
	display, err := revendor.NewDisplay(stderr, v.GetString("template"))
	if err != nil {
		return err
	}

	cfg, err := revendor.Vendor(workspaces, lockfile.NewFetcher(locks...), &revendor.Options{
		Path:               path,
		ExplicitVersion:    v.GetBool("explicit-version"),
		DisallowDuplicates: v.GetBool("disallow-duplicates"),
		NoDelete:           v.GetBool("no-delete"),
		OnlyGit:            v.GetBool("only-git"),
		SplitSources:       v.GetBool("no-merge-sources"),
		RelativePath:       v.GetBool("relative-path"),
		Excludes:           v.GetStringSlice("exclude"),
		Status: func(e *revendor.Entry) error {
			if quiet {
				return nil
			}
			return display.Status(e)
		},
	})
	if err != nil {
		return errors.Wrap(err, "failed to sync")
	}

	if quiet {
		return nil
	}
	data, err := cfg.TOML()
	if err != nil {
		return err
	}
	fmt.Fprint(stderr, configHint)
	_, err = stdout.Write(data)
	return err
}

func newVerifyCmd(v *viper.Viper, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [path]",
		Short: "Check vendored packages against their checksums",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := revendor.Verify(&revendor.Options{
				Path:     vendorPath(args),
				Excludes: v.GetStringSlice("exclude"),
			})
			if err != nil {
				return err
			}
			failed := 0
			for _, r := range results {
				if r.OK() {
					continue
				}
				failed++
				for _, path := range r.Mismatches {
					fmt.Fprintf(stdout, "%s: %s: checksum mismatch\n", r.Dir, path)
				}
				for _, path := range r.Extra {
					fmt.Fprintf(stdout, "%s: %s: not in checksums\n", r.Dir, path)
				}
			}
			if failed > 0 {
				return errors.Errorf("%d of %d vendored packages do not match their checksums",
					failed, len(results))
			}
			log.Infof("%d vendored packages verified", len(results))
			return nil
		},
	}
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
