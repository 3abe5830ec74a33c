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

// Package socketmac provides a TCP socket MAC. It tunnels the framed
// serial transport to a network-attached client, typically a client
// simulator or a debug bridge.
package socketmac

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	dialTimeout = 5 * time.Second
	// readSlice bounds a single socket read so the transport can poll
	// its own deadline between reads.
	readSlice = 10 * time.Millisecond
)

// Config holds the peer address.
type Config struct {
	// Host is the peer host name or address.
	Host string
	// Port is the peer TCP port.
	Port int
}

// Port is a TCP socket MAC.
type Port struct {
	conn   net.Conn
	config Config
}

// New creates a socket MAC. No connection is made until Open.
func New(config Config) *Port {
	return &Port{config: config}
}

// Open dials the peer.
func (p *Port) Open() error {
	if p.conn != nil {
		return fmt.Errorf("socket %s already connected", p.Name())
	}
	conn, err := net.DialTimeout("tcp", p.Name(), dialTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", p.Name(), err)
	}
	p.conn = conn
	return nil
}

// Close closes the connection.
func (p *Port) Close() error {
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close socket %s: %w", p.Name(), err)
	}
	return nil
}

// Read fills buf with available data. A read deadline with no data
// reads as (0, nil) so callers can poll against their own deadlines.
func (p *Port) Read(buf []byte) (int, error) {
	if p.conn == nil {
		return 0, fmt.Errorf("socket %s not connected", p.Name())
	}
	if err := p.conn.SetReadDeadline(time.Now().Add(readSlice)); err != nil {
		return 0, fmt.Errorf("socket read deadline on %s: %w", p.Name(), err)
	}
	n, err := p.conn.Read(buf)
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return n, nil
		}
		return n, fmt.Errorf("socket read on %s: %w", p.Name(), err)
	}
	return n, nil
}

// Write transmits buf.
func (p *Port) Write(buf []byte) (int, error) {
	if p.conn == nil {
		return 0, fmt.Errorf("socket %s not connected", p.Name())
	}
	n, err := p.conn.Write(buf)
	if err != nil {
		return n, fmt.Errorf("socket write on %s: %w", p.Name(), err)
	}
	return n, nil
}

// Name identifies the peer.
func (p *Port) Name() string {
	return net.JoinHostPort(p.config.Host, strconv.Itoa(p.config.Port))
}
