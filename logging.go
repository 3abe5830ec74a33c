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
	"encoding/hex"

	"github.com/sirupsen/logrus"
)

// defaultLogger is the logger handed to devices that were not given
// their own with WithLogger.
var defaultLogger = logrus.StandardLogger()

// SetLogger replaces the default logger used by devices constructed
// without WithLogger. Devices created before the call keep the logger
// they were bound to.
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		defaultLogger = logger
	}
}

// SetLogLevel sets the verbosity of the default logger and of the
// process-wide logger the transport subpackages log through.
func SetLogLevel(level logrus.Level) {
	logrus.SetLevel(level)
	defaultLogger.SetLevel(level)
}

func logCommandPacket(logger *logrus.Logger, cmd *Command) {
	logger.WithFields(logrus.Fields{
		"sequence": cmd.Sequence,
		"command":  cmd.Code.String(),
		"sync":     cmd.Sync,
		"size":     len(cmd.Data),
		"data":     hex.EncodeToString(cmd.Data),
	}).Debug("MDFU command packet")
}

func logStatusPacket(logger *logrus.Logger, st *Status) {
	logger.WithFields(logrus.Fields{
		"sequence": st.Sequence,
		"status":   st.Code.String(),
		"resend":   st.Resend,
		"size":     len(st.Data),
		"data":     hex.EncodeToString(st.Data),
	}).Debug("MDFU status packet")
}
