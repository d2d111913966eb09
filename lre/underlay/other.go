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

//go:build !linux

package underlay

import (
	"net"
)

// PacketConn is not available on this platform.
type PacketConn struct{}

func (c *PacketConn) ReadFrame(b []byte) (int, error) { return 0, ErrUnsupported }
func (c *PacketConn) WriteFrame(b []byte) error        { return ErrUnsupported }
func (c *PacketConn) Close() error                     { return nil }

func OpenPacketConn(name string) (*PacketConn, Link, error) {
	return nil, Link{}, ErrUnsupported
}

func LookupLink(name string) (Link, error) {
	return Link{}, ErrUnsupported
}

func OpenTap(name string, addr net.HardwareAddr) (*TapConn, Link, error) {
	return nil, Link{}, ErrUnsupported
}
