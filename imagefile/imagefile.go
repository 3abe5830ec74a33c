// go-mdfu
// Copyright (c) 2026 The go-mdfu Authors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-mdfu.
//
// go-mdfu is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-mdfu is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-mdfu; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package imagefile reads firmware update images. Raw binary images are
// streamed from disk; Intel HEX images are flattened into a contiguous
// byte image first, with gaps between data segments filled with 0xFF to
// match erased flash.
package imagefile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcinbor85/gohex"
)

// gapFill is the value used for address gaps between HEX data segments.
const gapFill = 0xFF

// Open opens a firmware image for streaming. Files with a .hex or .ihex
// extension are parsed as Intel HEX; everything else is read as raw
// binary.
func Open(path string) (io.ReadCloser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex", ".ihex":
		return openHex(path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening image file: %w", err)
		}
		return f, nil
	}
}

func openHex(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image file: %w", err)
	}
	defer f.Close()

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(f); err != nil {
		return nil, fmt.Errorf("parsing Intel HEX image %s: %w", path, err)
	}

	segments := mem.GetDataSegments()
	if len(segments) == 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}

	base := segments[0].Address
	end := base
	for _, seg := range segments {
		if seg.Address < base {
			base = seg.Address
		}
		if segEnd := seg.Address + uint32(len(seg.Data)); segEnd > end {
			end = segEnd
		}
	}

	image := make([]byte, end-base)
	for i := range image {
		image[i] = gapFill
	}
	for _, seg := range segments {
		copy(image[seg.Address-base:], seg.Data)
	}
	return io.NopCloser(bytes.NewReader(image)), nil
}

// Create opens the output file a firmware dump would be written to.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("opening output file: %w", err)
	}
	return f, nil
}
