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

// Package i2c implements the polled MDFU transport for half-duplex I2C
// links.
//
// A command is the raw packet followed by its frame check sequence. The
// response is retrieved by polling bus reads: a length frame starts
// with 'L', a response frame with 'R', and any other first byte means
// the client is still busy. A client may NAK the command write while
// processing; the write path therefore tolerates MAC errors and leaves
// failure detection to the response poll.
package i2c

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	mdfu "github.com/mdfu-host/go-mdfu"
	"github.com/mdfu-host/go-mdfu/checksum"
	"github.com/mdfu-host/go-mdfu/mac"
	"github.com/mdfu-host/go-mdfu/transport/internal/itd"
)

const (
	frameTypeLength   = 'L'
	frameTypeResponse = 'R'

	frameTypeSize = 1
	lengthSize    = 2
	fcsSize       = 2

	// lengthFrameSize is the fixed size of a length poll read: type,
	// 16-bit length, 16-bit frame check sequence.
	lengthFrameSize = frameTypeSize + lengthSize + fcsSize
)

// maxResponseLength bounds the length a client may advertise: the
// largest status packet plus its frame check sequence.
const maxResponseLength = mdfu.MaxResponsePacketSize + fcsSize

// Transport is the polled I2C transport.
type Transport struct {
	port  mac.Port
	timer itd.Timer
	txBuf []byte
	rxBuf []byte
}

// New creates an I2C transport on port.
func New(port mac.Port) *Transport {
	return &Transport{
		port:  port,
		txBuf: make([]byte, 0, mdfu.MaxCommandPacketSize+fcsSize),
		rxBuf: make([]byte, frameTypeSize+maxResponseLength),
	}
}

// Open opens the underlying MAC.
func (t *Transport) Open() error {
	return t.port.Open()
}

// Close closes the underlying MAC.
func (t *Transport) Close() error {
	return t.port.Close()
}

// Type identifies the transport.
func (*Transport) Type() mdfu.TransportType {
	return mdfu.TransportI2C
}

// SetInterTransactionDelay sets the minimum interval between bus
// transactions. Takes effect when the current interval is next armed.
func (t *Transport) SetInterTransactionDelay(d time.Duration) {
	t.timer.SetDelay(d)
}

// Write transmits one MDFU packet followed by its frame check sequence.
// A MAC error is logged and swallowed: a busy client NAKs the address,
// and the response poll surfaces the failure as a timeout the engine
// can retry.
func (t *Transport) Write(packet []byte) error {
	frame := append(t.txBuf[:0], packet...)
	frame = binary.LittleEndian.AppendUint16(frame, checksum.Frame(packet))
	t.txBuf = frame[:0]

	t.timer.Wait()
	defer t.timer.Arm()

	logrus.WithField("tx", hex.EncodeToString(frame)).Trace("I2C transport sending frame")
	if _, err := t.port.Write(frame); err != nil {
		logrus.WithError(err).Debug("I2C command write not acknowledged")
	}
	return nil
}

// busRead performs one paced bus read transaction filling buf.
func (t *Transport) busRead(buf []byte) error {
	t.timer.Wait()
	defer t.timer.Arm()

	if _, err := t.port.Read(buf); err != nil {
		return mdfu.NewTransportError("read", t.port.Name(),
			fmt.Errorf("%w: %w", mdfu.ErrTransportRead, err), mdfu.ErrorTypeTransient)
	}
	logrus.WithField("rx", hex.EncodeToString(buf)).Trace("I2C transport received frame")
	return nil
}

// pollLength reads length frames until the client produces one or the
// deadline passes. It returns the advertised response length, which
// includes the frame check sequence.
func (t *Transport) pollLength(deadline time.Time) (int, error) {
	buf := t.rxBuf[:lengthFrameSize]
	for {
		if err := t.busRead(buf); err != nil {
			return 0, err
		}
		if buf[0] == frameTypeLength {
			length := int(binary.LittleEndian.Uint16(buf[frameTypeSize : frameTypeSize+lengthSize]))
			got := binary.LittleEndian.Uint16(buf[frameTypeSize+lengthSize:])
			if got != checksum.Frame(buf[frameTypeSize:frameTypeSize+lengthSize]) {
				return 0, mdfu.NewChecksumError("read", t.port.Name())
			}
			if length < fcsSize {
				return 0, mdfu.NewTransportError("read", t.port.Name(),
					fmt.Errorf("advertised response length %d: %w", length, mdfu.ErrShortResponse),
					mdfu.ErrorTypeTransient)
			}
			if length > maxResponseLength {
				return 0, mdfu.NewTransportError("read", t.port.Name(),
					fmt.Errorf("advertised response length %d exceeds %d: %w",
						length, maxResponseLength, mdfu.ErrOversizeResponse),
					mdfu.ErrorTypeTransient)
			}
			return length, nil
		}
		logrus.Trace("I2C client busy, no length frame yet")
		if time.Now().After(deadline) {
			return 0, mdfu.NewTimeoutError("read", t.port.Name())
		}
	}
}

// Read retrieves the client's response: poll for the length frame, then
// read the response frame. The returned slice aliases the receive
// buffer and is valid until the next transport operation.
func (t *Transport) Read(timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)

	length, err := t.pollLength(deadline)
	if err != nil {
		return nil, err
	}

	buf := t.rxBuf[:frameTypeSize+length]
	if err := t.busRead(buf); err != nil {
		return nil, err
	}
	if buf[0] != frameTypeResponse {
		return nil, mdfu.NewTransportError("read", t.port.Name(),
			fmt.Errorf("frame type 0x%02x after length frame: %w", buf[0], mdfu.ErrTransportRead),
			mdfu.ErrorTypeTransient)
	}
	payload := buf[frameTypeSize : frameTypeSize+length-fcsSize]
	got := binary.LittleEndian.Uint16(buf[frameTypeSize+length-fcsSize:])
	if got != checksum.Frame(payload) {
		return nil, mdfu.NewChecksumError("read", t.port.Name())
	}
	return payload, nil
}

var (
	_ mdfu.Transport       = (*Transport)(nil)
	_ mdfu.DelayController = (*Transport)(nil)
)
