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
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// removeAll is replaced in tests.
var removeAll = os.RemoveAll

// cleanupDir attempts to remove path, ignoring any failure to do so.
// It only returns an error if path still exists afterwards, so a
// failed cleanup is reported before anything is written over it.
func cleanupDir(path string) error {
	if err := removeAll(path); err != nil {
		log.Debugf("%s: cleanup: %s", path, err)
	}
	if _, err := os.Lstat(path); err == nil {
		return errors.Errorf("%s: still exists after cleanup", path)
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "cleanup %s", path)
	}
	return nil
}

// copyFile copies the regular file src to dst byte-for-byte, keeping
// its permission bits and creating parent directories as needed.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close() // ignore any secondary error
		return err
	}
	return out.Close()
}

func pathStartsWith(dir, prefix string) bool {
	return strings.HasPrefix(dir, prefix) &&
		(len(dir) == len(prefix) || dir[len(prefix)] == filepath.Separator)
}
