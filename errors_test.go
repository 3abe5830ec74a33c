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
	"errors"
	"strings"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "transport timeout retryable", err: ErrTransportTimeout, want: true},
		{name: "transport read retryable", err: ErrTransportRead, want: true},
		{name: "transport write retryable", err: ErrTransportWrite, want: true},
		{name: "checksum mismatch retryable", err: ErrChecksumMismatch, want: true},
		{name: "framing error retryable", err: ErrFraming, want: true},
		{name: "frame too short retryable", err: ErrFrameTooShort, want: true},
		{name: "buffer overflow retryable", err: ErrBufferOverflow, want: true},
		{name: "oversize response retryable", err: ErrOversizeResponse, want: true},
		{name: "short response retryable", err: ErrShortResponse, want: true},
		{name: "invalid command not retryable", err: ErrInvalidCommand, want: false},
		{name: "invalid status not retryable", err: ErrInvalidStatus, want: false},
		{name: "client info sentinel not retryable", err: ErrClientInfo, want: false},
		{name: "client info error not retryable", err: &ClientInfoError{Reason: "truncated"}, want: false},
		{name: "version mismatch not retryable", err: ErrVersionMismatch, want: false},
		{name: "protocol error not retryable", err: &ProtocolError{Status: StatusTransferFailure}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := IsRetryable(tt.err)
			if got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRetryableTransportError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		transport *TransportError
		name      string
		want      bool
	}{
		{
			name: "transport error retryable=true",
			transport: &TransportError{
				Err:       errors.New("test error"),
				Op:        "read",
				Port:      "/dev/ttyACM0",
				Type:      ErrorTypeTransient,
				Retryable: true,
			},
			want: true,
		},
		{
			name: "transport error retryable=false",
			transport: &TransportError{
				Err:       ErrTransportTimeout,
				Op:        "read",
				Port:      "/dev/ttyACM0",
				Type:      ErrorTypeTimeout,
				Retryable: false,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := IsRetryable(tt.transport)
			if got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetErrorType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		name string
		want ErrorType
	}{
		{name: "nil error", err: nil, want: ErrorTypePermanent},
		{name: "transport timeout", err: ErrTransportTimeout, want: ErrorTypeTimeout},
		{name: "checksum mismatch", err: ErrChecksumMismatch, want: ErrorTypeTransient},
		{name: "framing error", err: ErrFraming, want: ErrorTypeTransient},
		{name: "version mismatch", err: ErrVersionMismatch, want: ErrorTypePermanent},
		{name: "unknown error", err: errors.New("unknown"), want: ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := GetErrorType(tt.err)
			if got != tt.want {
				t.Errorf("GetErrorType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransportErrorFormat(t *testing.T) {
	t.Parallel()
	te := NewTimeoutError("read", "/dev/ttyACM0")
	msg := te.Error()
	for _, substr := range []string{"read", "/dev/ttyACM0", "timeout"} {
		if !strings.Contains(msg, substr) {
			t.Errorf("Error() = %q, should contain %q", msg, substr)
		}
	}
	if !te.Retryable {
		t.Error("Retryable should be true for timeout errors")
	}
	if !errors.Is(te, ErrTransportTimeout) {
		t.Error("timeout error should unwrap to ErrTransportTimeout")
	}
}

func TestNewFramingErrorCarriesByte(t *testing.T) {
	t.Parallel()
	te := NewFramingError("read", "mock", 0x42)
	if !errors.Is(te, ErrFraming) {
		t.Error("framing error should unwrap to ErrFraming")
	}
	if !strings.Contains(te.Error(), "0x42") {
		t.Errorf("Error() = %q, should carry the offending byte", te.Error())
	}
}

func TestClientInfoErrorText(t *testing.T) {
	t.Parallel()
	typed := &ClientInfoError{Param: 3, Offset: 10, Reason: "bad length"}
	for _, substr := range []string{"parameter 3", "offset 10", "bad length"} {
		if !strings.Contains(typed.Error(), substr) {
			t.Errorf("Error() = %q, should contain %q", typed.Error(), substr)
		}
	}
	if !errors.Is(typed, ErrClientInfo) {
		t.Error("ClientInfoError should unwrap to ErrClientInfo")
	}

	untyped := &ClientInfoError{Offset: 4, Reason: "truncated parameter header"}
	if strings.Contains(untyped.Error(), "client info parameter") {
		t.Errorf("Error() = %q, should not name a parameter", untyped.Error())
	}
}

func TestProtocolErrorText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		perr *ProtocolError
		want []string
	}{
		{
			name: "not executed with cause",
			perr: &ProtocolError{Status: StatusNotExecuted, Cause: 1, HasCause: true},
			want: []string{"not executed", "client buffer"},
		},
		{
			name: "abort with cause",
			perr: &ProtocolError{Status: StatusAbortFileTransfer, Cause: 2, HasCause: true},
			want: []string{"Abort", "device ID"},
		},
		{
			name: "abort with out of range cause",
			perr: &ProtocolError{Status: StatusAbortFileTransfer, Cause: 200, HasCause: true},
			want: []string{"invalid", "200"},
		},
		{
			name: "status without cause",
			perr: &ProtocolError{Status: StatusNotSupported},
			want: []string{"not supported"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg := tt.perr.Error()
			for _, substr := range tt.want {
				if !strings.Contains(msg, substr) {
					t.Errorf("Error() = %q, should contain %q", msg, substr)
				}
			}
		})
	}
}
