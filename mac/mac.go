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

// Package mac defines the byte-granular port interface the transports
// are built on. Implementations live in subpackages, one per physical
// link type.
package mac

// Port is a byte-granular, bounded-latency link endpoint.
//
// Read fills p with whatever the link has available and returns the
// number of bytes read. It must not block indefinitely: a port with no
// pending data returns (0, nil) after a short internal wait, so callers
// can poll against their own deadlines. Write transmits all of p or
// fails.
//
// The SPI port deviates from stream semantics: the bus is full duplex,
// so Write clocks out p while capturing the same number of bytes from
// the client, and the following Read(p) retrieves that capture. Read
// and write sizes must match there.
type Port interface {
	// Open acquires the underlying device.
	Open() error

	// Close releases the underlying device.
	Close() error

	// Read fills p with available data.
	Read(p []byte) (int, error)

	// Write transmits p.
	Write(p []byte) (int, error)

	// Name identifies the port for error reporting.
	Name() string
}
