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
	"time"

	"github.com/sirupsen/logrus"
)

// Option is a functional option for configuring a Device.
type Option func(*Device) error

// WithRetries sets the number of exchange attempts per command.
func WithRetries(retries int) Option {
	return func(d *Device) error {
		if retries < 1 {
			return fmt.Errorf("retries must be at least 1, got %d", retries)
		}
		d.config.Retries = retries
		return nil
	}
}

// WithTimeout sets the response deadline used before the client's
// advertised timeouts are known.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", timeout)
		}
		d.config.Timeout = timeout
		return nil
	}
}

// WithLogger sets the logger used for engine diagnostics.
func WithLogger(logger *logrus.Logger) Option {
	return func(d *Device) error {
		if logger == nil {
			return fmt.Errorf("logger must not be nil")
		}
		d.log = logger
		return nil
	}
}
