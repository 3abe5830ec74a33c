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

// Package itd implements the inter transaction delay timer shared by
// the polled transports. MDFU clients on SPI and I2C require a minimum
// interval between bus transactions; the transport waits out the timer
// before each transaction and re-arms it immediately after.
package itd

import "time"

// Timer enforces a minimum interval between bus transactions. The zero
// value imposes no delay until SetDelay is called.
type Timer struct {
	next  time.Time
	delay time.Duration
}

// SetDelay sets the interval armed by the next Arm call.
func (t *Timer) SetDelay(d time.Duration) {
	t.delay = d
}

// Wait blocks until the armed interval has elapsed.
func (t *Timer) Wait() {
	if t.next.IsZero() {
		return
	}
	if remaining := time.Until(t.next); remaining > 0 {
		time.Sleep(remaining)
	}
}

// Arm starts a new interval ending delay from now.
func (t *Timer) Arm() {
	t.next = time.Now().Add(t.delay)
}
