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
	"time"
)

// ReadResult scripts one MockTransport.Read outcome.
type ReadResult struct {
	Err  error
	Data []byte
}

// MockTransport is a scriptable transport for testing the engine
// without a physical link. Writes are recorded; reads pop scripted
// results in order.
type MockTransport struct {
	// ReadResults are consumed one per Read call. A Read past the end
	// of the script returns a timeout error.
	ReadResults []ReadResult
	// WriteErrors are consumed one per Write call; nil entries mean
	// success. Writes past the end of the script succeed.
	WriteErrors []error

	// Writes records every packet handed to Write.
	Writes [][]byte
	// ReadTimeouts records the timeout passed to each Read.
	ReadTimeouts []time.Duration
	// Delays records every SetInterTransactionDelay call.
	Delays []time.Duration

	OpenCount  int
	CloseCount int

	reads  int
	writes int
}

// Open records the call.
func (m *MockTransport) Open() error {
	m.OpenCount++
	return nil
}

// Close records the call.
func (m *MockTransport) Close() error {
	m.CloseCount++
	return nil
}

// Write records the packet and pops the next scripted write error.
func (m *MockTransport) Write(packet []byte) error {
	m.Writes = append(m.Writes, append([]byte(nil), packet...))
	idx := m.writes
	m.writes++
	if idx < len(m.WriteErrors) {
		return m.WriteErrors[idx]
	}
	return nil
}

// Read pops the next scripted result.
func (m *MockTransport) Read(timeout time.Duration) ([]byte, error) {
	m.ReadTimeouts = append(m.ReadTimeouts, timeout)
	idx := m.reads
	m.reads++
	if idx >= len(m.ReadResults) {
		return nil, NewTimeoutError("read", "mock")
	}
	r := m.ReadResults[idx]
	return r.Data, r.Err
}

// Type returns TransportMock.
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// SetInterTransactionDelay records the delay.
func (m *MockTransport) SetInterTransactionDelay(d time.Duration) {
	m.Delays = append(m.Delays, d)
}

var (
	_ Transport       = (*MockTransport)(nil)
	_ DelayController = (*MockTransport)(nil)
)
