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

package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrame(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{
			name: "empty input",
			data: nil,
			want: 0xFFFF,
		},
		{
			name: "single byte adds into low byte",
			data: []byte{0x01},
			want: ^uint16(0x0001),
		},
		{
			name: "second byte adds into high byte",
			data: []byte{0x01, 0x02},
			want: ^uint16(0x0201),
		},
		{
			name: "odd length pads with zero",
			data: []byte{0x01, 0x02, 0x03},
			want: ^uint16(0x0201 + 0x0003),
		},
		{
			name: "carry wraps within 16 bits",
			data: []byte{0xFF, 0xFF, 0xFF, 0xFF},
			want: ^uint16(0xFFFE),
		},
		{
			name: "status packet header",
			data: []byte{0x00, 0x01},
			want: ^uint16(0x0100),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Frame(tt.data))
		})
	}
}

func TestFrameMatchesSpecFormula(t *testing.T) {
	t.Parallel()
	// Independent computation of the little-endian-order 16-bit sum.
	data := []byte{0x80, 0x03, 0x00, 0x01, 0x02, 0x03, 0x04}
	var sum uint32
	for i := 0; i < len(data); i += 2 {
		lo := uint32(data[i])
		hi := uint32(0)
		if i+1 < len(data) {
			hi = uint32(data[i+1])
		}
		sum += lo | hi<<8
	}
	want := ^uint16(sum)
	assert.Equal(t, want, Frame(data))
}
