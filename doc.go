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

/*
Package mdfu provides a host-side implementation of the Microchip Device
Firmware Update (MDFU) protocol.

The MDFU protocol drives an embedded client through a firmware update:
the host discovers the client's capabilities, opens a transfer, streams
the image in chunks sized to the client's buffer, verifies the resulting
image and closes the transfer. This package implements the packet layer
(sequence numbering, sync/resend handshake, retries, per-command
timeouts) on top of a pluggable transport.

Transports live in subpackages:

  - transport/serial: framed full-duplex byte stream with byte stuffing
    and a 16-bit frame check sequence (UART or TCP sockets)
  - transport/spi: command/response-retrieval frames over full-duplex SPI
  - transport/i2c: polled half-duplex frames over I2C

Basic usage:

	import (
	    "github.com/mdfu-host/go-mdfu"
	    "github.com/mdfu-host/go-mdfu/mac/serialmac"
	    "github.com/mdfu-host/go-mdfu/transport/serial"
	)

	port := serialmac.New(serialmac.Config{Path: "/dev/ttyACM0", BaudRate: 115200})
	tr := serial.New(port)

	device, err := mdfu.New(tr, mdfu.WithRetries(3))
	if err != nil {
	    log.Fatal(err)
	}
	if err := device.Open(); err != nil {
	    log.Fatal(err)
	}
	defer device.Close()

	img, err := os.Open("firmware.img")
	if err != nil {
	    log.Fatal(err)
	}
	defer img.Close()

	if err := device.RunUpdate(img); err != nil {
	    log.Fatal(err)
	}

Error Handling:

All operations return errors that can be inspected with errors.Is and
errors.As:

	if errors.Is(err, mdfu.ErrRetriesExhausted) {
	    // client never produced a valid response
	}
	var perr *mdfu.ProtocolError
	if errors.As(err, &perr) {
	    // client rejected a command; perr.Status and perr.Cause say why
	}

Thread Safety:

Device operations are not thread-safe. A Device owns its transport and
must be used from a single goroutine, or wrapped with external
synchronization.
*/
package mdfu
