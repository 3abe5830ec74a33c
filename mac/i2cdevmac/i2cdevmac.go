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

// Package i2cdevmac provides an I2C MAC on top of periph.io.
package i2cdevmac

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Config holds the I2C device parameters.
type Config struct {
	// Bus is the bus name or path, e.g. /dev/i2c-1 or "1".
	Bus string
	// Address is the client's 7-bit bus address.
	Address uint16
}

// Port is an i2cdev MAC.
type Port struct {
	bus    i2c.BusCloser
	dev    *i2c.Dev
	config Config
}

// New creates an i2cdev MAC. The bus is not touched until Open.
func New(config Config) *Port {
	return &Port{config: config}
}

// Open initializes the host drivers and binds the client address.
func (p *Port) Open() error {
	if p.dev != nil {
		return fmt.Errorf("I2C bus %s already open", p.config.Bus)
	}
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph host: %w", err)
	}
	bus, err := i2creg.Open(p.config.Bus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus %s: %w", p.config.Bus, err)
	}
	p.bus = bus
	p.dev = &i2c.Dev{Addr: p.config.Address, Bus: bus}
	return nil
}

// Close releases the bus.
func (p *Port) Close() error {
	if p.bus == nil {
		return nil
	}
	err := p.bus.Close()
	p.bus = nil
	p.dev = nil
	if err != nil {
		return fmt.Errorf("failed to close I2C bus %s: %w", p.config.Bus, err)
	}
	return nil
}

// Read performs one bus read transaction filling buf.
func (p *Port) Read(buf []byte) (int, error) {
	if p.dev == nil {
		return 0, fmt.Errorf("I2C bus %s not open", p.config.Bus)
	}
	if err := p.dev.Tx(nil, buf); err != nil {
		return 0, fmt.Errorf("I2C read on %s: %w", p.Name(), err)
	}
	return len(buf), nil
}

// Write performs one bus write transaction.
func (p *Port) Write(buf []byte) (int, error) {
	if p.dev == nil {
		return 0, fmt.Errorf("I2C bus %s not open", p.config.Bus)
	}
	if err := p.dev.Tx(buf, nil); err != nil {
		return 0, fmt.Errorf("I2C write on %s: %w", p.Name(), err)
	}
	return len(buf), nil
}

// Name identifies the device.
func (p *Port) Name() string {
	return fmt.Sprintf("%s@0x%02x", p.config.Bus, p.config.Address)
}
