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

package lre

import (
	"net"

	"github.com/gopacket/gopacket/layers"

	"github.com/hsrprp/hsrprp/pkg/hsr"
)

// Frame is a copy-on-write Ethernet frame. Clones share the underlying bytes
// until one of them modifies its header, at which point that clone gets its
// own copy. A Frame itself is not safe for concurrent use, but distinct
// clones of the same frame are.
type Frame struct {
	b      []byte
	shared bool
}

// NewFrame returns a frame that takes ownership of b.
func NewFrame(b []byte) *Frame {
	return &Frame{b: b}
}

// Bytes returns the frame contents. The result must not be modified.
func (f *Frame) Bytes() []byte {
	return f.b
}

func (f *Frame) Len() int {
	return len(f.b)
}

func (f *Frame) Destination() net.HardwareAddr {
	return net.HardwareAddr(f.b[0:6])
}

func (f *Frame) Source() net.HardwareAddr {
	return net.HardwareAddr(f.b[6:12])
}

// EtherType returns the outer ether type.
func (f *Frame) EtherType() layers.EthernetType {
	return hsr.OuterEtherType(f.b)
}

// Clone returns a frame sharing the contents of f.
func (f *Frame) Clone() *Frame {
	f.shared = true
	return &Frame{b: f.b, shared: true}
}

func (f *Frame) SetSource(addr net.HardwareAddr) {
	f.own()
	copy(f.b[6:12], addr)
}

func (f *Frame) SetDestination(addr net.HardwareAddr) {
	f.own()
	copy(f.b[0:6], addr)
}

func (f *Frame) own() {
	if !f.shared {
		return
	}
	f.b = append([]byte(nil), f.b...)
	f.shared = false
}
