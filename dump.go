// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/schmidtw/sdlogger/logstore"
	"github.com/schmidtw/sdlogger/record"
)

// DumpCmd decodes a log file, either format, and writes the records as CSV.
type DumpCmd struct {
	Path   string `arg:"" help:"The log file to decode."`
	Format string `optional:"" help:"The record format (csv or binary).  Defaults to the file extension."`
}

func (d *DumpCmd) format() (record.Format, error) {
	if d.Format != "" {
		return record.ParseFormat(d.Format)
	}
	return record.ParseFormat(strings.TrimPrefix(filepath.Ext(d.Path), "."))
}

func (d *DumpCmd) Run(out io.Writer) error {
	f, err := d.format()
	if err != nil {
		return err
	}

	vol := logstore.DirVolume{
		Root: filepath.Dir(d.Path),
	}
	if err := vol.Mount(); err != nil {
		return err
	}

	file, err := vol.Open(filepath.Base(d.Path))
	if err != nil {
		return err
	}
	defer file.Close()

	r := record.NewReader(file, f)
	for {
		m, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s at offset %d: %w", d.Path, r.Offset(), err)
		}

		line, err := record.EncodeCSV(m)
		if err != nil {
			return err
		}
		if _, err := out.Write(line); err != nil {
			return err
		}
	}
}
