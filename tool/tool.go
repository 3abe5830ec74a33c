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

// Package tool assembles transport stacks for the hardware tools the
// host can drive a client through: a serial adapter, a network-tunneled
// client, a spidev device or an i2cdev device.
package tool

import (
	"fmt"

	mdfu "github.com/mdfu-host/go-mdfu"
	"github.com/mdfu-host/go-mdfu/mac/i2cdevmac"
	"github.com/mdfu-host/go-mdfu/mac/serialmac"
	"github.com/mdfu-host/go-mdfu/mac/socketmac"
	"github.com/mdfu-host/go-mdfu/mac/spidevmac"
	"github.com/mdfu-host/go-mdfu/transport/i2c"
	"github.com/mdfu-host/go-mdfu/transport/serial"
	"github.com/mdfu-host/go-mdfu/transport/spi"
)

// Type names a supported tool.
type Type string

const (
	// Serial drives a client through a serial adapter.
	Serial Type = "serial"
	// Network drives a client through a TCP tunnel.
	Network Type = "network"
	// SPIDev drives a client through a spidev device.
	SPIDev Type = "spidev"
	// I2CDev drives a client through an i2cdev device.
	I2CDev Type = "i2cdev"
)

// Types lists the supported tools in CLI order.
var Types = []Type{Serial, Network, SPIDev, I2CDev}

// Config carries the union of all tool parameters; each tool reads the
// fields it needs and validates them in New.
type Config struct {
	// Port is the serial device path (serial tool).
	Port string
	// BaudRate is the serial line speed (serial tool).
	BaudRate int
	// Buffered selects one MAC write per frame on the serial transport.
	Buffered bool

	// Host and TCPPort locate the peer (network tool).
	Host    string
	TCPPort int

	// Device is the spidev path (spidev tool).
	Device string
	// ClockSpeed is the SPI clock in Hertz (spidev tool).
	ClockSpeed int64
	// Mode is the SPI mode 0-3 (spidev tool).
	Mode int

	// Bus is the i2cdev bus name (i2cdev tool).
	Bus string
	// Address is the client's 7-bit I2C address (i2cdev tool).
	Address uint16
}

// New assembles the transport stack for a tool.
func New(t Type, cfg Config) (mdfu.Transport, error) {
	switch t {
	case Serial:
		if cfg.Port == "" {
			return nil, fmt.Errorf("serial tool requires --port")
		}
		if cfg.BaudRate <= 0 {
			return nil, fmt.Errorf("serial tool requires --baudrate")
		}
		port := serialmac.New(serialmac.Config{Path: cfg.Port, BaudRate: cfg.BaudRate})
		if cfg.Buffered {
			return serial.NewBuffered(port), nil
		}
		return serial.New(port), nil

	case Network:
		if cfg.Host == "" || cfg.TCPPort == 0 {
			return nil, fmt.Errorf("network tool requires --host and --tcp-port")
		}
		port := socketmac.New(socketmac.Config{Host: cfg.Host, Port: cfg.TCPPort})
		return serial.New(port), nil

	case SPIDev:
		if cfg.Device == "" {
			return nil, fmt.Errorf("spidev tool requires --dev")
		}
		if cfg.ClockSpeed <= 0 {
			return nil, fmt.Errorf("spidev tool requires --clk-speed")
		}
		port, err := spidevmac.New(spidevmac.Config{
			Path:    cfg.Device,
			SpeedHz: cfg.ClockSpeed,
			Mode:    cfg.Mode,
		})
		if err != nil {
			return nil, err
		}
		return spi.New(port), nil

	case I2CDev:
		if cfg.Bus == "" {
			return nil, fmt.Errorf("i2cdev tool requires --bus")
		}
		if cfg.Address == 0 {
			return nil, fmt.Errorf("i2cdev tool requires --address")
		}
		port := i2cdevmac.New(i2cdevmac.Config{Bus: cfg.Bus, Address: cfg.Address})
		return i2c.New(port), nil

	default:
		return nil, fmt.Errorf("unknown tool %q, valid tools are %v", t, Types)
	}
}

// Help returns the tool parameter help text shown by the tools-help
// CLI action.
func Help() string {
	return `Serial tool options:
    --port <device>        e.g. /dev/ttyACM0 or COM3
    --baudrate <speed>     e.g. 115200
    --buffered             send each frame in a single write
Network tool options:
    --host <host>          e.g. 127.0.0.1
    --tcp-port <port>      e.g. 5559
Spidev tool options:
    --dev <device>         e.g. /dev/spidev0.0
    --clk-speed <speed>    e.g. 1000000
    --mode <mode>          one of 0, 1, 2, 3
I2cdev tool options:
    --bus <bus>            e.g. /dev/i2c-1
    --address <address>    client address, e.g. 0x54
`
}
