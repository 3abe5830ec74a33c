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
	"fmt"
)

// Packet header byte 0 layout: bit 7 carries the sync flag on commands,
// bit 6 carries the resend flag on status responses, bits 0-4 carry the
// sequence number.
const (
	headerSync         = 0x80
	headerResend       = 0x40
	headerSequenceMask = 0x1F
)

// Packet size limits. MaxCommandDataLength bounds the command payload the
// host can send; a client advertising a larger buffer is rejected at
// discovery time. MaxResponseDataLength bounds the status payload the host
// accepts.
const (
	MaxCommandDataLength  = 1024
	MaxResponseDataLength = 30

	headerSize = 2

	// MaxCommandPacketSize is the largest encoded command packet.
	MaxCommandPacketSize = headerSize + MaxCommandDataLength
	// MaxResponsePacketSize is the largest encoded status packet.
	MaxResponsePacketSize = headerSize + MaxResponseDataLength
)

// CommandCode identifies an MDFU command.
type CommandCode byte

const (
	CmdGetClientInfo CommandCode = 0x01
	CmdStartTransfer CommandCode = 0x02
	CmdWriteChunk    CommandCode = 0x03
	CmdGetImageState CommandCode = 0x04
	CmdEndTransfer   CommandCode = 0x05
	CmdChangeMode    CommandCode = 0x06

	maxCommandCode CommandCode = 0x07
)

var commandNames = map[CommandCode]string{
	CmdGetClientInfo: "Get Client Info",
	CmdStartTransfer: "Start Transfer",
	CmdWriteChunk:    "Write Chunk",
	CmdGetImageState: "Get Image State",
	CmdEndTransfer:   "End Transfer",
	CmdChangeMode:    "Change Mode",
}

func (c CommandCode) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CommandCode(0x%02x)", byte(c))
}

// StatusCode identifies the outcome reported in an MDFU status response.
type StatusCode byte

const (
	StatusSuccess           StatusCode = 0x01
	StatusNotSupported      StatusCode = 0x02
	StatusNotAuthorized     StatusCode = 0x03
	StatusNotExecuted       StatusCode = 0x04
	StatusTransferFailure   StatusCode = 0x05
	StatusAbortFileTransfer StatusCode = 0x06

	maxStatusCode StatusCode = 0x07
)

var statusNames = map[StatusCode]string{
	StatusSuccess:           "Success",
	StatusNotSupported:      "Command not supported",
	StatusNotAuthorized:     "Not authorized",
	StatusNotExecuted:       "Command not executed",
	StatusTransferFailure:   "Transfer failure",
	StatusAbortFileTransfer: "Abort file transfer",
}

func (s StatusCode) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("StatusCode(0x%02x)", byte(s))
}

// ImageState is the client's verdict on a transferred image, reported in
// the first payload byte of the Get Image State response.
type ImageState byte

const (
	ImageStateValid   ImageState = 0x01
	ImageStateInvalid ImageState = 0x02
)

// NotExecutedCause explains a StatusNotExecuted response. It is carried
// in the first payload byte of the status packet.
type NotExecutedCause byte

const (
	CauseTransportIntegrityError NotExecutedCause = 0x00
	CauseCommandTooLong          NotExecutedCause = 0x01
	CauseCommandTooShort         NotExecutedCause = 0x02
	CauseSequenceNumberInvalid   NotExecutedCause = 0x03

	maxNotExecutedCause NotExecutedCause = 0x04
)

var notExecutedCauseText = map[NotExecutedCause]string{
	CauseTransportIntegrityError: "command failed the transport integrity check and was corrupted on the way to the client",
	CauseCommandTooLong:          "command exceeded the size of the client buffer",
	CauseCommandTooShort:         "command was too short",
	CauseSequenceNumberInvalid:   "sequence number of the command is invalid",
}

func (c NotExecutedCause) String() string {
	if text, ok := notExecutedCauseText[c]; ok {
		return text
	}
	return fmt.Sprintf("invalid command not executed cause %d", byte(c))
}

// AbortCause explains a StatusAbortFileTransfer response.
type AbortCause byte

const (
	AbortGenericClientError      AbortCause = 0x00
	AbortInvalidFile             AbortCause = 0x01
	AbortInvalidClientDeviceID   AbortCause = 0x02
	AbortAddressError            AbortCause = 0x03
	AbortEraseError              AbortCause = 0x04
	AbortWriteError              AbortCause = 0x05
	AbortReadError               AbortCause = 0x06
	AbortApplicationVersionError AbortCause = 0x07

	maxAbortCause AbortCause = 0x08
)

var abortCauseText = map[AbortCause]string{
	AbortGenericClientError:      "generic problem encountered by client",
	AbortInvalidFile:             "generic problem with the update file",
	AbortInvalidClientDeviceID:   "the update file is not compatible with the client device ID",
	AbortAddressError:            "an invalid address is present in the update file",
	AbortEraseError:              "client memory did not properly erase",
	AbortWriteError:              "client memory did not properly write",
	AbortReadError:               "client memory did not properly read",
	AbortApplicationVersionError: "client did not allow changing to the application version in the update file",
}

func (c AbortCause) String() string {
	if text, ok := abortCauseText[c]; ok {
		return text
	}
	return fmt.Sprintf("invalid file transfer abort cause %d", byte(c))
}

// Command is an MDFU command packet sent from host to client.
type Command struct {
	Data     []byte
	Code     CommandCode
	Sequence uint8
	Sync     bool
}

// Encode serializes the command into wire format. The payload is copied
// into the returned buffer.
func (c *Command) Encode() ([]byte, error) {
	if c.Sequence > headerSequenceMask {
		return nil, fmt.Errorf("sequence number %d out of range: %w", c.Sequence, ErrInvalidPacket)
	}
	if c.Code == 0 || c.Code >= maxCommandCode {
		return nil, fmt.Errorf("command code 0x%02x: %w", byte(c.Code), ErrInvalidCommand)
	}
	if len(c.Data) > MaxCommandDataLength {
		return nil, fmt.Errorf("payload length %d exceeds %d: %w", len(c.Data), MaxCommandDataLength, ErrInvalidPacket)
	}
	buf := make([]byte, headerSize+len(c.Data))
	buf[0] = c.Sequence
	if c.Sync {
		buf[0] |= headerSync
	}
	buf[1] = byte(c.Code)
	copy(buf[headerSize:], c.Data)
	return buf, nil
}

// DecodeCommand parses a wire-format command packet.
func DecodeCommand(raw []byte) (*Command, error) {
	if len(raw) < headerSize {
		return nil, fmt.Errorf("command packet of %d bytes: %w", len(raw), ErrFrameTooShort)
	}
	code := CommandCode(raw[1])
	if code == 0 || code >= maxCommandCode {
		return nil, fmt.Errorf("command code 0x%02x: %w", raw[1], ErrInvalidCommand)
	}
	cmd := &Command{
		Sync:     raw[0]&headerSync != 0,
		Sequence: raw[0] & headerSequenceMask,
		Code:     code,
	}
	if len(raw) > headerSize {
		cmd.Data = raw[headerSize:]
	}
	return cmd, nil
}

// Status is an MDFU status packet received from the client.
type Status struct {
	Data     []byte
	Code     StatusCode
	Sequence uint8
	Resend   bool
}

// Encode serializes the status into wire format. Used by tests and
// client emulations; a host never sends status packets.
func (s *Status) Encode() ([]byte, error) {
	if s.Sequence > headerSequenceMask {
		return nil, fmt.Errorf("sequence number %d out of range: %w", s.Sequence, ErrInvalidPacket)
	}
	if s.Code == 0 || s.Code >= maxStatusCode {
		return nil, fmt.Errorf("status code 0x%02x: %w", byte(s.Code), ErrInvalidStatus)
	}
	buf := make([]byte, headerSize+len(s.Data))
	buf[0] = s.Sequence
	if s.Resend {
		buf[0] |= headerResend
	}
	buf[1] = byte(s.Code)
	copy(buf[headerSize:], s.Data)
	return buf, nil
}

// DecodeStatus parses a wire-format status packet.
func DecodeStatus(raw []byte) (*Status, error) {
	if len(raw) < headerSize {
		return nil, fmt.Errorf("status packet of %d bytes: %w", len(raw), ErrFrameTooShort)
	}
	code := StatusCode(raw[1])
	if code == 0 || code >= maxStatusCode {
		return nil, fmt.Errorf("status code 0x%02x: %w", raw[1], ErrInvalidStatus)
	}
	st := &Status{
		Resend:   raw[0]&headerResend != 0,
		Sequence: raw[0] & headerSequenceMask,
		Code:     code,
	}
	if len(raw) > headerSize {
		st.Data = raw[headerSize:]
	}
	return st, nil
}
