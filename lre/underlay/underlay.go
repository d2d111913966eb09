// Copyright 2024 The hsrprp Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package underlay provides the links the ports of a redundancy device send
// and receive frames on: raw packet sockets for the slave ports and a TAP
// interface for the master port.
package underlay

import (
	"errors"
	"io"
	"io/fs"
	"net"

	"github.com/hsrprp/hsrprp/lre"
)

// ErrUnsupported is returned on platforms without raw packet sockets.
var ErrUnsupported = errors.New("unsupported platform")

// Link describes a network interface.
type Link struct {
	Name  string
	Index int
	Addr  net.HardwareAddr
}

// closedErr maps the closed-file errors of the os package to net.ErrClosed,
// which ends the receive loop of a port.
func closedErr(err error) error {
	if errors.Is(err, fs.ErrClosed) {
		return net.ErrClosed
	}
	return err
}

var _ lre.Conn = (*TapConn)(nil)

// TapConn is the link of the master port. Frames written to it are delivered
// to the local stack, frames read from it were sent by the local stack.
type TapConn struct {
	rwc io.ReadWriteCloser
}

// NewTapConn wraps an opened TAP device.
func NewTapConn(rwc io.ReadWriteCloser) *TapConn {
	return &TapConn{rwc: rwc}
}

func (c *TapConn) ReadFrame(b []byte) (int, error) {
	n, err := c.rwc.Read(b)
	return n, closedErr(err)
}

func (c *TapConn) WriteFrame(b []byte) error {
	_, err := c.rwc.Write(b)
	return closedErr(err)
}

func (c *TapConn) Close() error {
	return c.rwc.Close()
}
