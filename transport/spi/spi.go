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

// Package spi implements the polled MDFU transport for full-duplex SPI
// links.
//
// Commands travel in frames of type 0x11. Responses are retrieved by
// clocking out response-retrieval frames (type 0x55) against which the
// client answers with a length frame ("LEN" prefix), a response frame
// ("RSP" prefix), or a busy frame (anything else). The client dictates
// a minimum delay between bus transactions.
package spi

import (
	"bytes"
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
	frameTypeCmd          = 0x11
	frameTypeRspRetrieval = 0x55

	// prefixSize covers the frame type byte and the three prefix
	// characters the client answers with.
	prefixSize = 4
	lengthSize = 2
	fcsSize    = 2
)

var (
	lengthPrefix   = []byte{'L', 'E', 'N'}
	responsePrefix = []byte{'R', 'S', 'P'}
)

// maxResponseLength bounds the length a client may advertise: the
// largest status packet plus its frame check sequence.
const maxResponseLength = mdfu.MaxResponsePacketSize + fcsSize

// Transport is the polled SPI transport.
type Transport struct {
	port  mac.Port
	timer itd.Timer
	txBuf []byte
	rxBuf []byte
}

// New creates an SPI transport on port.
func New(port mac.Port) *Transport {
	size := 1 + mdfu.MaxCommandPacketSize + fcsSize
	return &Transport{
		port:  port,
		txBuf: make([]byte, 0, size),
		rxBuf: make([]byte, size),
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
	return mdfu.TransportSPI
}

// SetInterTransactionDelay sets the minimum interval between SPI
// exchanges. Takes effect when the current interval is next armed.
func (t *Transport) SetInterTransactionDelay(d time.Duration) {
	t.timer.SetDelay(d)
}

// exchange performs one full-duplex transfer, honoring the inter
// transaction delay. The returned slice aliases the receive buffer.
func (t *Transport) exchange(tx []byte) ([]byte, error) {
	t.timer.Wait()
	defer t.timer.Arm()

	logrus.WithField("tx", hex.EncodeToString(tx)).Trace("SPI transport sending frame")
	if _, err := t.port.Write(tx); err != nil {
		return nil, mdfu.NewTransportError("write", t.port.Name(),
			fmt.Errorf("%w: %w", mdfu.ErrTransportWrite, err), mdfu.ErrorTypeTransient)
	}
	rx := t.rxBuf[:len(tx)]
	n, err := t.port.Read(rx)
	if err != nil {
		return nil, mdfu.NewTransportError("read", t.port.Name(),
			fmt.Errorf("%w: %w", mdfu.ErrTransportRead, err), mdfu.ErrorTypeTransient)
	}
	if n != len(tx) {
		return nil, mdfu.NewTransportError("read", t.port.Name(),
			fmt.Errorf("exchange returned %d bytes for %d written: %w", n, len(tx), mdfu.ErrTransportRead),
			mdfu.ErrorTypeTransient)
	}
	logrus.WithField("rx", hex.EncodeToString(rx)).Trace("SPI transport received frame")
	return rx, nil
}

// Write transmits one MDFU packet as a command frame. The bytes the
// client clocks out during a command frame carry no meaning and are
// discarded.
func (t *Transport) Write(packet []byte) error {
	frame := append(t.txBuf[:0], frameTypeCmd)
	frame = append(frame, packet...)
	frame = binary.LittleEndian.AppendUint16(frame, checksum.Frame(packet))
	t.txBuf = frame[:0]

	_, err := t.exchange(frame)
	return err
}

// retrievalFrame builds a response-retrieval frame with room for size
// client payload bytes after the prefix.
func (t *Transport) retrievalFrame(size int) []byte {
	frame := append(t.txBuf[:0], frameTypeRspRetrieval)
	for i := 0; i < prefixSize-1+size; i++ {
		frame = append(frame, 0x00)
	}
	t.txBuf = frame[:0]
	return frame
}

// pollLength clocks out length-retrieval frames until the client
// answers with a length frame or the deadline passes. It returns the
// advertised response length, which includes the frame check sequence.
func (t *Transport) pollLength(deadline time.Time) (int, error) {
	for {
		rx, err := t.exchange(t.retrievalFrame(lengthSize + fcsSize))
		if err != nil {
			return 0, err
		}
		if bytes.Equal(rx[1:prefixSize], lengthPrefix) {
			length := int(binary.LittleEndian.Uint16(rx[prefixSize : prefixSize+lengthSize]))
			got := binary.LittleEndian.Uint16(rx[prefixSize+lengthSize:])
			if got != checksum.Frame(rx[prefixSize:prefixSize+lengthSize]) {
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
		logrus.Trace("SPI client busy, no length frame yet")
		if time.Now().After(deadline) {
			return 0, mdfu.NewTimeoutError("read", t.port.Name())
		}
	}
}

// pollResponse clocks out response-retrieval frames sized to length
// until the client answers with a response frame or the deadline
// passes.
func (t *Transport) pollResponse(length int, deadline time.Time) ([]byte, error) {
	for {
		rx, err := t.exchange(t.retrievalFrame(length))
		if err != nil {
			return nil, err
		}
		if bytes.Equal(rx[1:prefixSize], responsePrefix) {
			payload := rx[prefixSize : prefixSize+length-fcsSize]
			got := binary.LittleEndian.Uint16(rx[prefixSize+length-fcsSize : prefixSize+length])
			if got != checksum.Frame(payload) {
				return nil, mdfu.NewChecksumError("read", t.port.Name())
			}
			return payload, nil
		}
		logrus.Trace("SPI client busy, no response frame yet")
		if time.Now().After(deadline) {
			return nil, mdfu.NewTimeoutError("read", t.port.Name())
		}
	}
}

// Read retrieves the client's response: first the length frame, then
// the response frame. The returned slice aliases the receive buffer and
// is valid until the next transport operation.
func (t *Transport) Read(timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)

	length, err := t.pollLength(deadline)
	if err != nil {
		return nil, err
	}
	return t.pollResponse(length, deadline)
}

var (
	_ mdfu.Transport       = (*Transport)(nil)
	_ mdfu.DelayController = (*Transport)(nil)
)
