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

package node

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hsrprp/hsrprp/pkg/hsr"
)

// Node is a remote (or the local) frame source. A node is identified by its
// address A and, once a supervision frame revealed it, by its address B.
type Node struct {
	addrA net.HardwareAddr
	self  bool

	mtx       sync.Mutex
	addrB     net.HardwareAddr
	addrBPort hsr.PortType
	seqOut    [hsr.NumPortTypes]uint16
	timeIn    [hsr.NumPortTypes]time.Time
	removed   bool

	// lastTouch is the unix nano time of the last cache refresh.
	lastTouch atomic.Int64
}

func newNode(addr net.HardwareAddr, seqOut uint16, self bool, now time.Time) *Node {
	n := &Node{
		addrA: append(net.HardwareAddr(nil), addr...),
		self:  self,
	}
	for i := range n.seqOut {
		n.seqOut[i] = seqOut
		n.timeIn[i] = now
	}
	return n
}

// AddrA returns the canonical address of the node. It never changes.
func (n *Node) AddrA() net.HardwareAddr {
	return n.addrA
}

// AddrB returns the second address of the node, if known.
func (n *Node) AddrB() net.HardwareAddr {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	return n.addrB
}

// Self reports whether this is the node of the local device.
func (n *Node) Self() bool {
	return n.self
}

// Info is a status snapshot of a node.
type Info struct {
	AddrA     string            `json:"mac_address_a"`
	AddrB     string            `json:"mac_address_b,omitempty"`
	AddrBPort string            `json:"mac_address_b_port,omitempty"`
	Self      bool              `json:"self"`
	LastSeen  map[string]string `json:"last_seen,omitempty"`
	SeqOut    map[string]uint16 `json:"seq_out"`
}

// Info returns a snapshot of the node state.
func (n *Node) Info() Info {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	info := Info{
		AddrA:  n.addrA.String(),
		Self:   n.self,
		SeqOut: make(map[string]uint16, hsr.NumPortTypes-1),
	}
	if n.addrB != nil {
		info.AddrB = n.addrB.String()
		info.AddrBPort = n.addrBPort.String()
	}
	for p := hsr.PortSlaveA; p < hsr.NumPortTypes; p++ {
		info.SeqOut[p.String()] = n.seqOut[p]
		if t := n.timeIn[p]; !t.IsZero() {
			if info.LastSeen == nil {
				info.LastSeen = make(map[string]string)
			}
			info.LastSeen[p.String()] = t.UTC().Format(time.RFC3339Nano)
		}
	}
	return info
}

// latePort returns the slave port that has been silent for more than
// maxDiff while the other one still receives frames from the node.
func (n *Node) latePort(now time.Time, maxDiff time.Duration) (hsr.PortType, bool) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	a, b := n.timeIn[hsr.PortSlaveA], n.timeIn[hsr.PortSlaveB]
	newest := a
	if b.After(a) {
		newest = b
	}
	// Only report as long as frames arrive at all.
	if newest.IsZero() || now.Sub(newest) > maxDiff*3/2 {
		return hsr.PortNone, false
	}
	switch {
	case b.Sub(a) > maxDiff:
		return hsr.PortSlaveA, true
	case a.Sub(b) > maxDiff:
		return hsr.PortSlaveB, true
	}
	return hsr.PortNone, false
}
