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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClientInfo(t *testing.T) {
	t.Parallel()
	payload := []byte{
		0x02, 0x03, 0x80, 0x00, 0x02, // buffer info: size 128, count 2
		0x01, 0x03, 0x01, 0x02, 0x03, // protocol version 1.2.3
		0x03, 0x09, // command timeouts
		0x00, 0x0A, 0x00, // default 1 s
		0x03, 0x0A, 0x00, // write chunk 1 s
		0x04, 0xF4, 0x01, // get image state 50 s
	}

	info, err := DecodeClientInfo(payload)
	require.NoError(t, err)

	assert.Equal(t, uint16(128), info.BufferSize)
	assert.Equal(t, uint8(2), info.BufferCount)
	assert.Equal(t, ProtocolVersion{Major: 1, Minor: 2, Patch: 3}, info.Version)
	assert.Equal(t, 1*time.Second, info.DefaultTimeout)
	assert.Equal(t, 1*time.Second, info.TimeoutFor(CmdWriteChunk))
	assert.Equal(t, 50*time.Second, info.TimeoutFor(CmdGetImageState))
	// Commands without an override inherit the default.
	assert.Equal(t, 1*time.Second, info.TimeoutFor(CmdStartTransfer))
}

func TestDecodeClientInfoWithInterTransactionDelay(t *testing.T) {
	t.Parallel()
	payload := []byte{
		0x04, 0x04, 0x40, 0x42, 0x0F, 0x00, // 1,000,000 ns
	}
	info, err := DecodeClientInfo(payload)
	require.NoError(t, err)
	assert.Equal(t, time.Millisecond, info.InterTransactionDelay)
}

func TestDecodeClientInfoInternalVersion(t *testing.T) {
	t.Parallel()
	payload := []byte{0x01, 0x04, 0x01, 0x02, 0x03, 0x09}
	info, err := DecodeClientInfo(payload)
	require.NoError(t, err)
	assert.True(t, info.Version.HasInternal)
	assert.Equal(t, uint8(9), info.Version.Internal)
	assert.Equal(t, "1.2.3-9", info.Version.String())
}

func TestDecodeClientInfoErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		payload []byte
	}{
		{
			name: "default timeout not first",
			payload: []byte{
				0x03, 0x06,
				0x03, 0x0A, 0x00, // write chunk before the default
				0x00, 0x0A, 0x00,
			},
		},
		{
			name:    "unknown parameter type",
			payload: []byte{0x05, 0x01, 0x00},
		},
		{
			name:    "parameter exceeds payload",
			payload: []byte{0x02, 0x08, 0x80, 0x00, 0x02},
		},
		{
			name:    "truncated parameter header",
			payload: []byte{0x02},
		},
		{
			name:    "buffer info wrong length",
			payload: []byte{0x02, 0x02, 0x80, 0x00},
		},
		{
			name:    "version wrong length",
			payload: []byte{0x01, 0x02, 0x01, 0x02},
		},
		{
			name:    "timeouts not a multiple of three",
			payload: []byte{0x03, 0x04, 0x00, 0x0A, 0x00, 0x03},
		},
		{
			name:    "timeout for invalid command code",
			payload: []byte{0x03, 0x03, 0x07, 0x0A, 0x00},
		},
		{
			name:    "inter transaction delay wrong length",
			payload: []byte{0x04, 0x02, 0x10, 0x27},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := DecodeClientInfo(tt.payload)
			assert.ErrorIs(t, err, ErrClientInfo)
		})
	}
}

func TestDecodeClientInfoErrorDetails(t *testing.T) {
	t.Parallel()
	// A valid buffer info record followed by an unknown parameter type.
	payload := []byte{
		0x02, 0x03, 0x80, 0x00, 0x02,
		0x05, 0x01, 0x00,
	}
	_, err := DecodeClientInfo(payload)
	var cerr *ClientInfoError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, byte(0x05), cerr.Param)
	assert.Equal(t, 5, cerr.Offset)
	assert.Contains(t, cerr.Error(), "parameter 5 at offset 5")

	// Struct errors still match the sentinel.
	assert.ErrorIs(t, err, ErrClientInfo)
}

func TestDecodeClientInfoEmpty(t *testing.T) {
	t.Parallel()
	info, err := DecodeClientInfo(nil)
	require.NoError(t, err)
	assert.Zero(t, info.BufferSize)
	assert.Empty(t, info.CommandTimeouts)
}

func TestProtocolVersionCompare(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		a, b ProtocolVersion
		want int
	}{
		{"equal", ProtocolVersion{1, 2, 0, 0, false}, ProtocolVersion{1, 2, 0, 0, false}, 0},
		{"older major", ProtocolVersion{1, 9, 9, 0, false}, ProtocolVersion{2, 0, 0, 0, false}, -1},
		{"newer minor", ProtocolVersion{1, 3, 0, 0, false}, ProtocolVersion{1, 2, 9, 0, false}, 1},
		{"older patch", ProtocolVersion{1, 2, 0, 0, false}, ProtocolVersion{1, 2, 1, 0, false}, -1},
		{"internal ignored", ProtocolVersion{1, 2, 0, 5, true}, ProtocolVersion{1, 2, 0, 0, false}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
		})
	}
}

func TestClientInfoString(t *testing.T) {
	t.Parallel()
	info := &ClientInfo{
		Version:               ProtocolVersion{Major: 1, Minor: 2, Patch: 0},
		BufferSize:            256,
		BufferCount:           1,
		DefaultTimeout:        time.Second,
		InterTransactionDelay: 10 * time.Millisecond,
		CommandTimeouts: map[CommandCode]time.Duration{
			CmdWriteChunk: 5 * time.Second,
		},
	}
	report := info.String()
	assert.Contains(t, report, "1.2.0")
	assert.Contains(t, report, "256 bytes")
	assert.Contains(t, report, "Write Chunk: 5s")
}
