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
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// bootstrapTimeout bounds the response wait before the client's
	// timeouts are known.
	bootstrapTimeout = 1 * time.Second
	// bootstrapInterTransactionDelay paces the bus before the client's
	// delay requirement is known.
	bootstrapInterTransactionDelay = 10 * time.Millisecond
	// DefaultRetries is the number of exchange attempts per command.
	DefaultRetries = 2
)

type sessionState int

const (
	stateClosed sessionState = iota
	stateOpen
	stateClientKnown
	stateTransferring
	stateFinalizing
)

// DeviceConfig contains configuration options for a Device.
type DeviceConfig struct {
	// Retries is the number of command/response attempts per exchange.
	Retries int
	// Timeout is the response deadline used before client info is known.
	Timeout time.Duration
}

// DefaultDeviceConfig returns the default device configuration.
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		Retries: DefaultRetries,
		Timeout: bootstrapTimeout,
	}
}

// Device drives one MDFU client through an update session.
//
// Thread Safety: Device is NOT thread-safe. All methods must be called
// from a single goroutine or protected with external synchronization.
type Device struct {
	transport Transport
	config    *DeviceConfig
	log       *logrus.Logger
	info      *ClientInfo
	state     sessionState
	sequence  uint8
}

// New creates a Device bound to a transport.
func New(transport Transport, opts ...Option) (*Device, error) {
	device := &Device{
		transport: transport,
		config:    DefaultDeviceConfig(),
		log:       defaultLogger,
	}
	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}
	return device, nil
}

// Open starts a session by opening the transport. The sequence counter
// and cached client information reset with each session.
func (d *Device) Open() error {
	if d.state != stateClosed {
		return nil
	}
	if err := d.transport.Open(); err != nil {
		return fmt.Errorf("failed to open transport: %w", err)
	}
	d.sequence = 0
	d.info = nil
	d.state = stateOpen
	return nil
}

// Close ends the session and releases the transport. Closing a closed
// session is a no-op.
func (d *Device) Close() error {
	if d.state == stateClosed {
		return nil
	}
	d.state = stateClosed
	d.info = nil
	if err := d.transport.Close(); err != nil {
		return fmt.Errorf("failed to close transport: %w", err)
	}
	return nil
}

// abort tears the session down after a terminal error.
func (d *Device) abort() {
	if d.state == stateClosed {
		return
	}
	d.state = stateClosed
	d.info = nil
	if err := d.transport.Close(); err != nil {
		d.log.WithError(err).Debug("transport close failed during session abort")
	}
}

// ClientInfo returns the capability record cached by the last
// GetClientInfo call, or nil.
func (d *Device) ClientInfo() *ClientInfo {
	return d.info
}

// GetClientInfo synchronizes the session and retrieves the client's
// capability record. The Get Client Info command carries the sync flag,
// resetting the sequence counter on both sides. Transports that pace
// transactions are set to a conservative delay first, since the client's
// requirement is not yet known.
func (d *Device) GetClientInfo() (*ClientInfo, error) {
	if d.state == stateClosed {
		return nil, ErrClosed
	}
	if dc, ok := d.transport.(DelayController); ok {
		dc.SetInterTransactionDelay(bootstrapInterTransactionDelay)
	}
	st, err := d.sendCommand(&Command{Code: CmdGetClientInfo, Sync: true})
	if err != nil {
		return nil, err
	}
	info, err := DecodeClientInfo(st.Data)
	if err != nil {
		return nil, err
	}
	d.info = info
	d.state = stateClientKnown
	return info, nil
}

// RunUpdate performs the complete firmware update workflow: discover the
// client, validate compatibility, start the transfer, stream the image
// in buffer-sized chunks, verify the image state, and end the transfer.
// On any terminal error the session is closed.
func (d *Device) RunUpdate(image io.Reader) error {
	if err := d.runUpdate(image); err != nil {
		d.abort()
		return err
	}
	return nil
}

func (d *Device) runUpdate(image io.Reader) error {
	info, err := d.GetClientInfo()
	if err != nil {
		return err
	}
	if HostProtocolVersion.Compare(info.Version) < 0 {
		return fmt.Errorf("client speaks MDFU %s, host implements %s: %w",
			info.Version, HostProtocolVersion, ErrVersionMismatch)
	}
	if int(info.BufferSize) > MaxCommandDataLength {
		return fmt.Errorf("host buffers hold %d bytes of command data, client requires %d: %w",
			MaxCommandDataLength, info.BufferSize, ErrBufferTooSmall)
	}
	if dc, ok := d.transport.(DelayController); ok {
		dc.SetInterTransactionDelay(info.InterTransactionDelay)
	}

	if _, err := d.sendCommand(&Command{Code: CmdStartTransfer}); err != nil {
		return err
	}
	d.state = stateTransferring

	if err := d.writeChunks(image, int(info.BufferSize)); err != nil {
		return err
	}
	d.state = stateFinalizing

	state, err := d.getImageState()
	if err != nil {
		return err
	}
	if state != ImageStateValid {
		return fmt.Errorf("image state %d: %w", state, ErrImageStateInvalid)
	}

	if _, err := d.sendCommand(&Command{Code: CmdEndTransfer}); err != nil {
		return err
	}
	d.state = stateClientKnown
	return nil
}

// writeChunks streams the image in chunks of at most chunkSize bytes.
// A short final read marks the end of the image.
func (d *Device) writeChunks(image io.Reader, chunkSize int) error {
	buf := make([]byte, chunkSize)
	for {
		n, err := io.ReadFull(image, buf)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			// short read, final chunk
		case err != nil:
			return fmt.Errorf("reading image: %w", err)
		}
		if n > 0 {
			if _, err := d.sendCommand(&Command{Code: CmdWriteChunk, Data: buf[:n]}); err != nil {
				return err
			}
		}
		if n < chunkSize {
			return nil
		}
	}
}

func (d *Device) getImageState() (ImageState, error) {
	st, err := d.sendCommand(&Command{Code: CmdGetImageState})
	if err != nil {
		return 0, err
	}
	if len(st.Data) < 1 {
		return 0, fmt.Errorf("image state response carries no state byte: %w", ErrFrameTooShort)
	}
	return ImageState(st.Data[0]), nil
}

// RunChangeMode asks the client to leave firmware update mode. On any
// terminal error the session is closed.
func (d *Device) RunChangeMode() error {
	if d.state == stateClosed {
		return ErrClosed
	}
	if _, err := d.sendCommand(&Command{Code: CmdChangeMode}); err != nil {
		d.abort()
		return err
	}
	return nil
}

// RunDump would read the firmware image back from the client. The MDFU
// protocol revision this host implements defines no image read-back
// command, so the operation always fails with ErrNotSupported.
func (d *Device) RunDump(_ io.Writer) error {
	return fmt.Errorf("firmware dump requires an image read-back command, "+
		"which MDFU %s does not define: %w", HostProtocolVersion, ErrNotSupported)
}

// timeoutFor derives the response deadline for a command from client
// info, or the bootstrap default before the client is known.
func (d *Device) timeoutFor(cmd CommandCode) time.Duration {
	if d.info != nil {
		if t := d.info.TimeoutFor(cmd); t > 0 {
			return t
		}
	}
	return d.config.Timeout
}

// sendCommand performs one command/response exchange with retries.
//
// A sync command resets the sequence counter before encoding. Transport
// write and read failures consume a retry and leave the sequence number
// unchanged, as does a resend request from the client: the retransmitted
// command carries the same number. Any terminal status, success or not,
// advances the sequence.
func (d *Device) sendCommand(cmd *Command) (*Status, error) {
	timeout := d.timeoutFor(cmd.Code)
	if cmd.Sync {
		d.sequence = 0
	}
	cmd.Sequence = d.sequence

	frame, err := cmd.Encode()
	if err != nil {
		return nil, err
	}
	logCommandPacket(d.log, cmd)

	for attempt := 0; attempt < d.config.Retries; attempt++ {
		if err := d.transport.Write(frame); err != nil {
			d.log.WithError(err).WithField("attempt", attempt+1).Debug("transport write failed")
			continue
		}
		raw, err := d.transport.Read(timeout)
		if err != nil {
			d.log.WithError(err).WithField("attempt", attempt+1).Debug("transport read failed")
			continue
		}
		st, err := DecodeStatus(raw)
		if err != nil {
			return nil, err
		}
		logStatusPacket(d.log, st)

		if st.Resend {
			d.log.WithField("sequence", st.Sequence).Debug("client requested packet resend")
			continue
		}
		d.sequence = (d.sequence + 1) & headerSequenceMask

		if st.Code != StatusSuccess {
			perr := newProtocolError(st)
			d.log.WithField("status", st.Code.String()).Error(perr.Error())
			return nil, perr
		}
		return st, nil
	}
	return nil, fmt.Errorf("%s failed after %d attempts: %w", cmd.Code, d.config.Retries, ErrRetriesExhausted)
}
