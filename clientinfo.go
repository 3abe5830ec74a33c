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

package mdfu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Client info parameter types. The Get Client Info response payload is a
// sequence of type/length/value records.
const (
	paramProtocolVersion       = 0x01
	paramBufferInfo            = 0x02
	paramCommandTimeout        = 0x03
	paramInterTransactionDelay = 0x04
)

// Wire units for client info fields.
const (
	// timeoutUnit is the resolution of timeout values in the command
	// timeout parameter.
	timeoutUnit = 100 * time.Millisecond
	// itdUnit is the resolution of the inter transaction delay parameter.
	itdUnit = time.Nanosecond

	bufferInfoSize     = 3
	commandTimeoutSize = 3
	itdSize            = 4
)

// ProtocolVersion is a semantic MDFU protocol version, optionally with
// an internal pre-release number.
type ProtocolVersion struct {
	Major       uint8
	Minor       uint8
	Patch       uint8
	Internal    uint8
	HasInternal bool
}

// HostProtocolVersion is the MDFU protocol version this host implements.
// Clients advertising a newer version are rejected at discovery time.
var HostProtocolVersion = ProtocolVersion{Major: 1, Minor: 2, Patch: 0}

func (v ProtocolVersion) String() string {
	if v.HasInternal {
		return fmt.Sprintf("%d.%d.%d-%d", v.Major, v.Minor, v.Patch, v.Internal)
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare orders two versions by major, then minor, then patch. It
// returns -1 if v is older than other, 1 if newer, 0 if equal. The
// internal number does not participate in ordering.
func (v ProtocolVersion) Compare(other ProtocolVersion) int {
	pairs := [][2]uint8{
		{v.Major, other.Major},
		{v.Minor, other.Minor},
		{v.Patch, other.Patch},
	}
	for _, p := range pairs {
		if p[0] < p[1] {
			return -1
		}
		if p[0] > p[1] {
			return 1
		}
	}
	return 0
}

// ClientInfo is the decoded capability record returned by the client in
// response to Get Client Info. It parameterizes all subsequent protocol
// behavior: chunk sizing, per-command deadlines, and the minimum delay
// between bus transactions.
type ClientInfo struct {
	CommandTimeouts       map[CommandCode]time.Duration
	DefaultTimeout        time.Duration
	InterTransactionDelay time.Duration
	Version               ProtocolVersion
	BufferSize            uint16
	BufferCount           uint8
}

// TimeoutFor returns the response deadline for cmd: the per-command
// override when the client advertised one, else the default timeout.
func (ci *ClientInfo) TimeoutFor(cmd CommandCode) time.Duration {
	if t, ok := ci.CommandTimeouts[cmd]; ok {
		return t
	}
	return ci.DefaultTimeout
}

// String renders the client information report shown by the client-info
// CLI action.
func (ci *ClientInfo) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "MDFU client information\n")
	fmt.Fprintf(&b, "--------------------------------\n")
	fmt.Fprintf(&b, "- MDFU protocol version: %s\n", ci.Version)
	fmt.Fprintf(&b, "- Number of command buffers: %d\n", ci.BufferCount)
	fmt.Fprintf(&b, "- Maximum packet data length: %d bytes\n", ci.BufferSize)
	fmt.Fprintf(&b, "- Inter transaction delay: %v\n", ci.InterTransactionDelay)
	fmt.Fprintf(&b, "Command timeouts\n")
	fmt.Fprintf(&b, "- Default timeout: %v\n", ci.DefaultTimeout)
	for cmd := CmdGetClientInfo; cmd < maxCommandCode; cmd++ {
		fmt.Fprintf(&b, "- %s: %v\n", cmd, ci.TimeoutFor(cmd))
	}
	return b.String()
}

// DecodeClientInfo parses the TLV-encoded client information payload.
// Failures are reported as *ClientInfoError carrying the parameter type
// and offset of the offending record.
func DecodeClientInfo(data []byte) (*ClientInfo, error) {
	info := &ClientInfo{
		CommandTimeouts: make(map[CommandCode]time.Duration),
	}
	for i := 0; i < len(data); {
		start := i
		if i+2 > len(data) {
			return nil, &ClientInfoError{Offset: start, Reason: "truncated parameter header"}
		}
		paramType := data[i]
		paramLen := int(data[i+1])
		value := data[i+2:]
		i += 2 + paramLen
		if i > len(data) {
			return nil, &ClientInfoError{
				Param: paramType, Offset: start,
				Reason: "parameter length exceeds available data",
			}
		}
		value = value[:paramLen]

		var err error
		switch paramType {
		case paramProtocolVersion:
			err = info.decodeVersion(value)
		case paramBufferInfo:
			err = info.decodeBufferInfo(value)
		case paramCommandTimeout:
			err = info.decodeCommandTimeouts(value)
		case paramInterTransactionDelay:
			err = info.decodeInterTransactionDelay(value)
		default:
			err = &ClientInfoError{Reason: fmt.Sprintf("unknown parameter type %d", paramType)}
		}
		if err != nil {
			var cerr *ClientInfoError
			if errors.As(err, &cerr) {
				cerr.Param = paramType
				cerr.Offset = start
			}
			return nil, err
		}
	}
	return info, nil
}

func (ci *ClientInfo) decodeVersion(value []byte) error {
	if len(value) != 3 && len(value) != 4 {
		return &ClientInfoError{Reason: fmt.Sprintf("protocol version length %d, expected 3 or 4", len(value))}
	}
	ci.Version = ProtocolVersion{Major: value[0], Minor: value[1], Patch: value[2]}
	if len(value) == 4 {
		ci.Version.Internal = value[3]
		ci.Version.HasInternal = true
	}
	return nil
}

func (ci *ClientInfo) decodeBufferInfo(value []byte) error {
	if len(value) != bufferInfoSize {
		return &ClientInfoError{Reason: fmt.Sprintf("buffer info length %d, expected %d", len(value), bufferInfoSize)}
	}
	ci.BufferSize = binary.LittleEndian.Uint16(value)
	ci.BufferCount = value[2]
	return nil
}

// decodeCommandTimeouts parses command/timeout triples. Command code 0
// carries the default timeout and must be the first entry; it seeds
// every per-command timeout, which later entries override.
func (ci *ClientInfo) decodeCommandTimeouts(value []byte) error {
	if len(value) == 0 || len(value)%commandTimeoutSize != 0 {
		return &ClientInfoError{Reason: fmt.Sprintf(
			"command timeout length %d, expected a positive multiple of %d",
			len(value), commandTimeoutSize)}
	}
	for entry := 0; entry < len(value)/commandTimeoutSize; entry++ {
		rec := value[entry*commandTimeoutSize:]
		cmd := CommandCode(rec[0])
		timeout := time.Duration(binary.LittleEndian.Uint16(rec[1:3])) * timeoutUnit

		switch {
		case cmd == 0:
			if entry != 0 {
				return &ClientInfoError{Reason: fmt.Sprintf(
					"default command timeout at position %d, must be first", entry)}
			}
			ci.DefaultTimeout = timeout
			for c := CmdGetClientInfo; c < maxCommandCode; c++ {
				ci.CommandTimeouts[c] = timeout
			}
		case cmd >= maxCommandCode:
			return &ClientInfoError{Reason: fmt.Sprintf("command code 0x%02x in command timeouts", rec[0])}
		default:
			ci.CommandTimeouts[cmd] = timeout
		}
	}
	return nil
}

func (ci *ClientInfo) decodeInterTransactionDelay(value []byte) error {
	if len(value) != itdSize {
		return &ClientInfoError{Reason: fmt.Sprintf(
			"inter transaction delay length %d, expected %d", len(value), itdSize)}
	}
	ci.InterTransactionDelay = time.Duration(binary.LittleEndian.Uint32(value)) * itdUnit
	return nil
}
