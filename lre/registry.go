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

	"github.com/hsrprp/hsrprp/lre/node"
	"github.com/hsrprp/hsrprp/pkg/hsr"
)

// Registry tracks remote nodes and the sequence numbers seen from them. All
// methods are called concurrently from the receive paths of all ports.
type Registry interface {
	// ResolveOrCreate returns the node owning src, or nil if the node is
	// unknown and the frame is not a supervision frame.
	ResolveOrCreate(src net.HardwareAddr, isSupervision bool, seqNr uint16) *node.Node
	// RecordInbound records the arrival of frame seqNr from n on port.
	RecordInbound(n *node.Node, port hsr.PortType, seqNr uint16)
	// RecordOutbound atomically records that frame seqNr of n is sent on
	// port and reports whether it was sent there before.
	RecordOutbound(port hsr.PortType, n *node.Node, seqNr uint16) bool
	// DestAddr returns the destination address to use on port.
	DestAddr(dst net.HardwareAddr, port hsr.PortType) net.HardwareAddr
}

// SupervisionHandler processes supervision frames addressed to the device.
type SupervisionHandler interface {
	HandleSupervision(frame []byte, n *node.Node, rcv hsr.PortType)
}

// Conn is the link a port sends and receives frames on.
type Conn interface {
	// ReadFrame reads one frame into b. It returns net.ErrClosed once the
	// connection is closed.
	ReadFrame(b []byte) (int, error)
	WriteFrame(b []byte) error
	Close() error
}

var (
	_ Registry           = (*node.Table)(nil)
	_ SupervisionHandler = (*node.Table)(nil)
)
