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

// Package serial implements the framed MDFU transport for full-duplex
// byte streams (serial ports and TCP sockets).
//
// A frame is START, the byte-stuffed packet and frame check sequence,
// then END. The three reserved codes are escaped as ESC followed by the
// complemented byte.
package serial

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	mdfu "github.com/mdfu-host/go-mdfu"
	"github.com/mdfu-host/go-mdfu/checksum"
	"github.com/mdfu-host/go-mdfu/mac"
)

// Frame marks and the escape code. Occurrences inside the payload or
// frame check sequence are replaced by escapeCode followed by the
// complement of the reserved byte.
const (
	frameStartCode = 0x56
	frameEndCode   = 0x9E
	escapeCode     = 0xCC

	fcsSize = 2
)

// writeChunkSize bounds how much encoded data the streaming writer hands
// to the MAC at once.
const writeChunkSize = 64

// receiveBufferSize bounds a decoded incoming frame: the largest packet
// this host ever accepts plus the frame check sequence.
const receiveBufferSize = mdfu.MaxCommandPacketSize + fcsSize

// worstCaseFrameSize is an encoded frame in which every payload and FCS
// byte needs an escape sequence.
const worstCaseFrameSize = 1 + 2*(mdfu.MaxCommandPacketSize+fcsSize) + 1

// Transport is the framed serial transport. The zero value is not
// usable; construct with New or NewBuffered.
type Transport struct {
	port mac.Port
	// receive scratch, reused across reads
	rxBuf [receiveBufferSize]byte
	// encode scratch for the buffered variant
	txBuf []byte
	// buffered selects one MAC write per frame instead of streaming
	buffered bool
}

// New creates a streaming serial transport: encoded bytes are handed to
// the MAC in small chunks as they are produced.
func New(port mac.Port) *Transport {
	return &Transport{port: port}
}

// NewBuffered creates a serial transport that encodes each frame into a
// worst-case scratch buffer and issues a single MAC write per frame.
func NewBuffered(port mac.Port) *Transport {
	return &Transport{port: port, buffered: true, txBuf: make([]byte, 0, worstCaseFrameSize)}
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
	return mdfu.TransportSerial
}

// needsEscape reports whether b is one of the reserved frame codes.
func needsEscape(b byte) bool {
	return b == frameStartCode || b == frameEndCode || b == escapeCode
}

// appendEscaped appends b to dst in encoded form.
func appendEscaped(dst []byte, b byte) []byte {
	if needsEscape(b) {
		return append(dst, escapeCode, ^b)
	}
	return append(dst, b)
}

// Write frames packet and transmits it.
func (t *Transport) Write(packet []byte) error {
	fcs := checksum.Frame(packet)
	logrus.WithFields(logrus.Fields{
		"size":    len(packet),
		"payload": hex.EncodeToString(packet),
		"fcs":     fmt.Sprintf("0x%04x", fcs),
	}).Trace("serial transport sending frame")

	var fcsBytes [fcsSize]byte
	binary.LittleEndian.PutUint16(fcsBytes[:], fcs)

	if t.buffered {
		return t.writeBuffered(packet, fcsBytes)
	}
	return t.writeStreaming(packet, fcsBytes)
}

// writeBuffered encodes the whole frame into the scratch buffer and
// issues one MAC write.
func (t *Transport) writeBuffered(packet []byte, fcsBytes [fcsSize]byte) error {
	frame := append(t.txBuf[:0], frameStartCode)
	for _, b := range packet {
		frame = appendEscaped(frame, b)
	}
	for _, b := range fcsBytes {
		frame = appendEscaped(frame, b)
	}
	frame = append(frame, frameEndCode)
	t.txBuf = frame[:0]

	if _, err := t.port.Write(frame); err != nil {
		return mdfu.NewTransportError("write", t.port.Name(),
			fmt.Errorf("%w: %w", mdfu.ErrTransportWrite, err), mdfu.ErrorTypeTransient)
	}
	return nil
}

// writeStreaming hands encoded bytes to the MAC a chunk at a time.
func (t *Transport) writeStreaming(packet []byte, fcsBytes [fcsSize]byte) error {
	chunk := make([]byte, 0, writeChunkSize)
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if _, err := t.port.Write(chunk); err != nil {
			return mdfu.NewTransportError("write", t.port.Name(),
				fmt.Errorf("%w: %w", mdfu.ErrTransportWrite, err), mdfu.ErrorTypeTransient)
		}
		chunk = chunk[:0]
		return nil
	}

	chunk = append(chunk, frameStartCode)
	emit := func(b byte) error {
		if len(chunk)+2 > cap(chunk) {
			if err := flush(); err != nil {
				return err
			}
		}
		chunk = appendEscaped(chunk, b)
		return nil
	}
	for _, b := range packet {
		if err := emit(b); err != nil {
			return err
		}
	}
	for _, b := range fcsBytes {
		if err := emit(b); err != nil {
			return err
		}
	}
	if len(chunk)+1 > cap(chunk) {
		if err := flush(); err != nil {
			return err
		}
	}
	chunk = append(chunk, frameEndCode)
	return flush()
}

// readByte polls the MAC for a single byte until the deadline.
func (t *Transport) readByte(deadline time.Time) (byte, error) {
	var one [1]byte
	for {
		n, err := t.port.Read(one[:])
		if err != nil {
			return 0, mdfu.NewTransportError("read", t.port.Name(),
				fmt.Errorf("%w: %w", mdfu.ErrTransportRead, err), mdfu.ErrorTypeTransient)
		}
		if n == 1 {
			return one[0], nil
		}
		if time.Now().After(deadline) {
			return 0, mdfu.NewTimeoutError("read", t.port.Name())
		}
	}
}

// discardUntilStart drops incoming bytes until the frame start code.
func (t *Transport) discardUntilStart(deadline time.Time) error {
	for {
		b, err := t.readByte(deadline)
		if err != nil {
			return err
		}
		if b == frameStartCode {
			return nil
		}
	}
}

// Read delivers the next whole packet. The returned slice aliases the
// transport's receive buffer and is valid until the next Read.
func (t *Transport) Read(timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)

	if err := t.discardUntilStart(deadline); err != nil {
		return nil, err
	}

	// Accumulate decoded bytes until the end code, tracking escape state
	// across reads.
	decoded := t.rxBuf[:0]
	escaped := false
	for {
		b, err := t.readByte(deadline)
		if err != nil {
			return nil, err
		}
		if b == frameEndCode {
			break
		}
		if escaped {
			unescaped := ^b
			if !needsEscape(unescaped) {
				return nil, mdfu.NewFramingError("read", t.port.Name(), b)
			}
			b = unescaped
			escaped = false
		} else if b == escapeCode {
			escaped = true
			continue
		}
		if len(decoded) == receiveBufferSize {
			return nil, mdfu.NewTransportError("read", t.port.Name(),
				mdfu.ErrBufferOverflow, mdfu.ErrorTypeTransient)
		}
		decoded = append(decoded, b)
	}

	if len(decoded) < 1+fcsSize {
		return nil, mdfu.NewTransportError("read", t.port.Name(),
			fmt.Errorf("%d byte frame: %w", len(decoded), mdfu.ErrFrameTooShort),
			mdfu.ErrorTypeTransient)
	}
	payload := decoded[:len(decoded)-fcsSize]
	got := binary.LittleEndian.Uint16(decoded[len(decoded)-fcsSize:])
	want := checksum.Frame(payload)
	logrus.WithFields(logrus.Fields{
		"size":    len(payload),
		"payload": hex.EncodeToString(payload),
		"fcs":     fmt.Sprintf("0x%04x", got),
	}).Trace("serial transport received frame")
	if got != want {
		logrus.WithFields(logrus.Fields{
			"calculated": fmt.Sprintf("0x%04x", want),
			"received":   fmt.Sprintf("0x%04x", got),
		}).Debug("serial transport frame check sequence verification failed")
		return nil, mdfu.NewChecksumError("read", t.port.Name())
	}
	return payload, nil
}

var _ mdfu.Transport = (*Transport)(nil)
