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

package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mdfu "github.com/mdfu-host/go-mdfu"
)

func TestNewAssemblesStacks(t *testing.T) {
	t.Parallel()
	tests := []struct {
		cfg  Config
		name string
		tool Type
		want mdfu.TransportType
	}{
		{
			name: "serial",
			tool: Serial,
			cfg:  Config{Port: "/dev/ttyACM0", BaudRate: 115200},
			want: mdfu.TransportSerial,
		},
		{
			name: "serial buffered",
			tool: Serial,
			cfg:  Config{Port: "/dev/ttyACM0", BaudRate: 115200, Buffered: true},
			want: mdfu.TransportSerial,
		},
		{
			name: "network",
			tool: Network,
			cfg:  Config{Host: "127.0.0.1", TCPPort: 5559},
			want: mdfu.TransportSerial,
		},
		{
			name: "spidev",
			tool: SPIDev,
			cfg:  Config{Device: "/dev/spidev0.0", ClockSpeed: 1000000, Mode: 0},
			want: mdfu.TransportSPI,
		},
		{
			name: "i2cdev",
			tool: I2CDev,
			cfg:  Config{Bus: "/dev/i2c-1", Address: 0x54},
			want: mdfu.TransportI2C,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tr, err := New(tt.tool, tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tr.Type())
		})
	}
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		cfg  Config
		name string
		tool Type
	}{
		{name: "serial without port", tool: Serial, cfg: Config{BaudRate: 115200}},
		{name: "serial without baudrate", tool: Serial, cfg: Config{Port: "/dev/ttyACM0"}},
		{name: "network without host", tool: Network, cfg: Config{TCPPort: 5559}},
		{name: "spidev without device", tool: SPIDev, cfg: Config{ClockSpeed: 1000000}},
		{name: "spidev bad mode", tool: SPIDev, cfg: Config{Device: "/dev/spidev0.0", ClockSpeed: 1000000, Mode: 7}},
		{name: "i2cdev without bus", tool: I2CDev, cfg: Config{Address: 0x54}},
		{name: "unknown tool", tool: Type("parallel"), cfg: Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.tool, tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestPolledToolsExposeDelayControl(t *testing.T) {
	t.Parallel()
	spiTr, err := New(SPIDev, Config{Device: "/dev/spidev0.0", ClockSpeed: 1000000})
	require.NoError(t, err)
	_, ok := spiTr.(mdfu.DelayController)
	assert.True(t, ok)

	i2cTr, err := New(I2CDev, Config{Bus: "/dev/i2c-1", Address: 0x54})
	require.NoError(t, err)
	_, ok = i2cTr.(mdfu.DelayController)
	assert.True(t, ok)

	serialTr, err := New(Serial, Config{Port: "/dev/ttyACM0", BaudRate: 115200})
	require.NoError(t, err)
	_, ok = serialTr.(mdfu.DelayController)
	assert.False(t, ok)
}
