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

package underlay

import (
	"encoding/binary"
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/hsrprp/hsrprp/lre"
	"github.com/hsrprp/hsrprp/pkg/private/serrors"
)

var _ lre.Conn = (*PacketConn)(nil)

// PacketConn is a raw AF_PACKET socket bound to one interface. It receives
// every frame arriving on the interface and ignores the echoes of frames
// sent through it.
type PacketConn struct {
	file *os.File
	raw  syscall.RawConn
	addr unix.SockaddrLinklayer
}

// OpenPacketConn prepares the interface for ring operation and opens a raw
// socket on it.
func OpenPacketConn(name string) (*PacketConn, Link, error) {
	link, err := prepareSlave(name)
	if err != nil {
		return nil, Link{}, err
	}
	proto := htons(unix.ETH_P_ALL)
	fd, err := unix.Socket(unix.AF_PACKET,
		unix.SOCK_RAW|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, int(proto))
	if err != nil {
		return nil, Link{}, serrors.Wrap("opening packet socket", err, "interface", name)
	}
	addr := unix.SockaddrLinklayer{Protocol: proto, Ifindex: link.Index}
	if err := unix.Bind(fd, &addr); err != nil {
		unix.Close(fd)
		return nil, Link{}, serrors.Wrap("binding packet socket", err, "interface", name)
	}
	// The file registers the non-blocking socket with the runtime poller,
	// so Close unblocks a pending read.
	file := os.NewFile(uintptr(fd), "packet:"+name)
	raw, err := file.SyscallConn()
	if err != nil {
		file.Close()
		return nil, Link{}, err
	}
	return &PacketConn{file: file, raw: raw, addr: addr}, link, nil
}

func (c *PacketConn) ReadFrame(b []byte) (int, error) {
	for {
		var n int
		var from unix.Sockaddr
		var opErr error
		err := c.raw.Read(func(fd uintptr) bool {
			n, from, opErr = unix.Recvfrom(int(fd), b, 0)
			return opErr != unix.EAGAIN
		})
		if err != nil {
			return 0, closedErr(err)
		}
		if opErr != nil {
			return 0, opErr
		}
		if sll, ok := from.(*unix.SockaddrLinklayer); ok && sll.Pkttype == unix.PACKET_OUTGOING {
			continue
		}
		return n, nil
	}
}

func (c *PacketConn) WriteFrame(b []byte) error {
	var opErr error
	err := c.raw.Write(func(fd uintptr) bool {
		opErr = unix.Sendto(int(fd), b, 0, &c.addr)
		return opErr != unix.EAGAIN
	})
	if err != nil {
		return closedErr(err)
	}
	return opErr
}

func (c *PacketConn) Close() error {
	return c.file.Close()
}

func htons(v uint16) uint16 {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return binary.NativeEndian.Uint16(b[:])
}
