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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandEncode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		cmd  Command
		want []byte
	}{
		{
			name: "sync command sets bit 7",
			cmd:  Command{Code: CmdGetClientInfo, Sync: true, Sequence: 0},
			want: []byte{0x80, 0x01},
		},
		{
			name: "plain command",
			cmd:  Command{Code: CmdStartTransfer, Sequence: 1},
			want: []byte{0x01, 0x02},
		},
		{
			name: "payload follows header",
			cmd:  Command{Code: CmdWriteChunk, Sequence: 2, Data: []byte{0xAA, 0xBB}},
			want: []byte{0x02, 0x03, 0xAA, 0xBB},
		},
		{
			name: "maximum sequence number",
			cmd:  Command{Code: CmdEndTransfer, Sequence: 31},
			want: []byte{0x1F, 0x05},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.cmd.Encode()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommandEncodeRejectsInvalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		wantErr error
		name    string
		cmd     Command
	}{
		{
			name:    "sequence out of range",
			cmd:     Command{Code: CmdStartTransfer, Sequence: 32},
			wantErr: ErrInvalidPacket,
		},
		{
			name:    "command code zero",
			cmd:     Command{Code: 0},
			wantErr: ErrInvalidCommand,
		},
		{
			name:    "command code beyond maximum",
			cmd:     Command{Code: maxCommandCode},
			wantErr: ErrInvalidCommand,
		},
		{
			name:    "payload beyond maximum",
			cmd:     Command{Code: CmdWriteChunk, Data: make([]byte, MaxCommandDataLength+1)},
			wantErr: ErrInvalidPacket,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := tt.cmd.Encode()
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCommandRoundTrip(t *testing.T) {
	t.Parallel()
	payloads := [][]byte{
		nil,
		{0x00},
		{0x56, 0x9E, 0xCC},
		bytes.Repeat([]byte{0x5A}, MaxCommandDataLength),
	}
	for _, payload := range payloads {
		for _, code := range []CommandCode{CmdGetClientInfo, CmdWriteChunk, CmdChangeMode} {
			cmd := Command{Code: code, Sequence: 17, Sync: code == CmdGetClientInfo, Data: payload}
			raw, err := cmd.Encode()
			require.NoError(t, err)

			got, err := DecodeCommand(raw)
			require.NoError(t, err)
			assert.Equal(t, cmd.Sync, got.Sync)
			assert.Equal(t, cmd.Sequence, got.Sequence)
			assert.Equal(t, cmd.Code, got.Code)
			assert.Equal(t, len(payload), len(got.Data))
			if len(payload) > 0 {
				assert.Equal(t, payload, got.Data)
			}
		}
	}
}

func TestDecodeStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		want    *Status
		wantErr error
		raw     []byte
	}{
		{
			name: "success with payload",
			raw:  []byte{0x04, 0x01, 0x01},
			want: &Status{Sequence: 4, Code: StatusSuccess, Data: []byte{0x01}},
		},
		{
			name: "resend bit",
			raw:  []byte{0x47, 0x01},
			want: &Status{Sequence: 7, Code: StatusSuccess, Resend: true},
		},
		{
			name: "abort with cause",
			raw:  []byte{0x02, 0x06, 0x03},
			want: &Status{Sequence: 2, Code: StatusAbortFileTransfer, Data: []byte{0x03}},
		},
		{
			name:    "status code zero",
			raw:     []byte{0x00, 0x00},
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "status code beyond maximum",
			raw:     []byte{0x00, 0x07},
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "one byte frame",
			raw:     []byte{0x01},
			wantErr: ErrFrameTooShort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeStatus(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Resend, got.Resend)
			assert.Equal(t, tt.want.Sequence, got.Sequence)
			assert.Equal(t, tt.want.Code, got.Code)
			assert.Equal(t, len(tt.want.Data), len(got.Data))
			if len(tt.want.Data) > 0 {
				assert.Equal(t, tt.want.Data, got.Data)
			}
		})
	}
}

func TestDecodeCommandRejectsInvalidCode(t *testing.T) {
	t.Parallel()
	_, err := DecodeCommand([]byte{0x00, 0x00})
	assert.ErrorIs(t, err, ErrInvalidCommand)
	_, err = DecodeCommand([]byte{0x00, 0x07})
	assert.ErrorIs(t, err, ErrInvalidCommand)
}

func TestCauseStrings(t *testing.T) {
	t.Parallel()
	assert.Contains(t, CauseSequenceNumberInvalid.String(), "sequence number")
	assert.Contains(t, AbortWriteError.String(), "write")
	// Causes at or beyond the table are reported as invalid.
	assert.Contains(t, NotExecutedCause(4).String(), "invalid")
	assert.Contains(t, AbortCause(8).String(), "invalid")
}
