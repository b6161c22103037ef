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
	"strings"
	"text/template"

	"github.com/pkg/errors"
)

// DefaultStatusTemplate is the status line written for each package
// copied into the vendor directory.
const DefaultStatusTemplate = "Vendoring {{.ID}} ({{.Src}}) to {{.Dst}}"

// Display writes a status line for each synchronized Entry using a
// text/template.
type Display struct {
	w    io.Writer
	tmpl *template.Template
}

// NewDisplay returns a Display writing to w. If customTemplate is ""
// DefaultStatusTemplate is used.
func NewDisplay(w io.Writer, customTemplate string) (*Display, error) {
	if customTemplate == "" {
		customTemplate = DefaultStatusTemplate
	}
	tmpl, err := template.New("status").Parse(customTemplate)
	if err != nil {
		return nil, errors.Wrap(err, "status template")
	}
	return &Display{w: w, tmpl: tmpl}, nil
}

// Status writes the status line for e, followed by a newline.
func (d *Display) Status(e *Entry) error {
	var b strings.Builder
	if err := d.tmpl.Execute(&b, e); err != nil {
		return errors.Wrapf(err, "status for %s", e.ID())
	}
	b.WriteString("\n")
	_, err := io.WriteString(d.w, b.String())
	return err
}
