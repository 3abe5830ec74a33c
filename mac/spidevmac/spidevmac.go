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

// Package spidevmac provides an SPI MAC on top of periph.io.
//
// SPI is full duplex: every write clocks the same number of bytes out
// of the client. Write performs the exchange and captures the returned
// bytes; the following Read retrieves the capture and must request
// exactly the size of the last write.
package spidevmac

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Config holds the SPI device parameters.
type Config struct {
	// Path is the device path, e.g. /dev/spidev0.0.
	Path string
	// SpeedHz is the clock frequency in Hertz.
	SpeedHz int64
	// Mode is the SPI mode, 0 through 3.
	Mode int
}

var spiModes = [4]spi.Mode{spi.Mode0, spi.Mode1, spi.Mode2, spi.Mode3}

// Port is a spidev MAC.
type Port struct {
	port     spi.PortCloser
	conn     spi.Conn
	config   Config
	capture  []byte
	captured int
}

// New creates a spidev MAC. The device is not touched until Open.
func New(config Config) (*Port, error) {
	if config.Mode < 0 || config.Mode > 3 {
		return nil, fmt.Errorf("invalid SPI mode %d, valid modes are 0 through 3", config.Mode)
	}
	if config.SpeedHz <= 0 {
		return nil, fmt.Errorf("invalid SPI clock speed %d", config.SpeedHz)
	}
	return &Port{config: config}, nil
}

// Open initializes the host drivers and connects to the device.
func (p *Port) Open() error {
	if p.conn != nil {
		return fmt.Errorf("SPI device %s already open", p.config.Path)
	}
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph host: %w", err)
	}
	port, err := spireg.Open(p.config.Path)
	if err != nil {
		return fmt.Errorf("failed to open SPI device %s: %w", p.config.Path, err)
	}
	conn, err := port.Connect(physic.Frequency(p.config.SpeedHz)*physic.Hertz, spiModes[p.config.Mode], 8)
	if err != nil {
		_ = port.Close()
		return fmt.Errorf("failed to configure SPI device %s: %w", p.config.Path, err)
	}
	p.port = port
	p.conn = conn
	return nil
}

// Close releases the device.
func (p *Port) Close() error {
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	p.conn = nil
	p.captured = 0
	if err != nil {
		return fmt.Errorf("failed to close SPI device %s: %w", p.config.Path, err)
	}
	return nil
}

// Write performs a full-duplex exchange, transmitting buf and capturing
// the bytes the client clocks out.
func (p *Port) Write(buf []byte) (int, error) {
	if p.conn == nil {
		return 0, fmt.Errorf("SPI device %s not open", p.config.Path)
	}
	if cap(p.capture) < len(buf) {
		p.capture = make([]byte, len(buf))
	}
	p.capture = p.capture[:len(buf)]
	if err := p.conn.Tx(buf, p.capture); err != nil {
		p.captured = 0
		return 0, fmt.Errorf("SPI transfer on %s: %w", p.config.Path, err)
	}
	p.captured = len(buf)
	return len(buf), nil
}

// Read retrieves the capture from the last exchange. The requested size
// must match the last write size.
func (p *Port) Read(buf []byte) (int, error) {
	if p.conn == nil {
		return 0, fmt.Errorf("SPI device %s not open", p.config.Path)
	}
	if len(buf) != p.captured {
		return 0, fmt.Errorf("SPI read size %d does not match last write size %d on %s",
			len(buf), p.captured, p.config.Path)
	}
	copy(buf, p.capture[:p.captured])
	p.captured = 0
	return len(buf), nil
}

// Name identifies the device.
func (p *Port) Name() string {
	return p.config.Path
}
