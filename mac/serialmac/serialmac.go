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

// Package serialmac provides a serial port MAC for the framed transport.
package serialmac

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// readSlice bounds a single port read so the transport can poll its own
// deadline between reads.
const readSlice = 10 * time.Millisecond

// Config holds the serial port parameters.
type Config struct {
	// Path is the device path, e.g. /dev/ttyACM0 or COM3.
	Path string
	// BaudRate is the line speed in bits per second.
	BaudRate int
}

// Port is a serial port MAC.
type Port struct {
	port   serial.Port
	config Config
}

// New creates a serial MAC. The device is not touched until Open.
func New(config Config) *Port {
	return &Port{config: config}
}

// Open opens the device with 8N1 framing and a bounded read timeout.
func (p *Port) Open() error {
	if p.port != nil {
		return fmt.Errorf("serial port %s already open", p.config.Path)
	}
	mode := &serial.Mode{
		BaudRate: p.config.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(p.config.Path, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", p.config.Path, err)
	}
	if err := port.SetReadTimeout(readSlice); err != nil {
		_ = port.Close()
		return fmt.Errorf("failed to set read timeout on %s: %w", p.config.Path, err)
	}
	p.port = port
	return nil
}

// Close closes the device.
func (p *Port) Close() error {
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	if err != nil {
		return fmt.Errorf("failed to close serial port %s: %w", p.config.Path, err)
	}
	return nil
}

// Read fills p with available data. A timeout with no data reads as
// (0, nil).
func (p *Port) Read(buf []byte) (int, error) {
	if p.port == nil {
		return 0, fmt.Errorf("serial port %s not open", p.config.Path)
	}
	n, err := p.port.Read(buf)
	if err != nil {
		return n, fmt.Errorf("serial read on %s: %w", p.config.Path, err)
	}
	return n, nil
}

// Write transmits buf.
func (p *Port) Write(buf []byte) (int, error) {
	if p.port == nil {
		return 0, fmt.Errorf("serial port %s not open", p.config.Path)
	}
	n, err := p.port.Write(buf)
	if err != nil {
		return n, fmt.Errorf("serial write on %s: %w", p.config.Path, err)
	}
	return n, nil
}

// Name identifies the port.
func (p *Port) Name() string {
	return p.config.Path
}
