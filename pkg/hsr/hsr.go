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

// Package hsr contains the wire-level definitions of the HSR/PRP redundancy
// protocols (IEC 62439-3): ether types, tag and supervision layouts, port
// roles and 16 bit sequence number arithmetic.
package hsr

import (
	"net"

	"github.com/gopacket/gopacket/layers"
)

const (
	// EtherTypeHSRv0 is the ether type of HSR version 0 tagged frames. It is
	// also the encapsulated protocol of every supervision frame.
	EtherTypeHSRv0 layers.EthernetType = 0x88FB
	// EtherTypeHSR is the ether type of HSR version 1 tagged frames.
	EtherTypeHSR layers.EthernetType = 0x892F
	// EtherTypeVLAN is the 802.1Q ether type.
	EtherTypeVLAN layers.EthernetType = 0x8100
)

const (
	// EthHeaderLen is the length of an untagged Ethernet header.
	EthHeaderLen = 14
	// VLANHeaderLen is the length of an 802.1Q header.
	VLANHeaderLen = 4
	// TagLen is the number of bytes the redundancy tag adds to a frame.
	TagLen = 6
	// SupTagLen is the length of the supervision tag including its TLV header.
	SupTagLen = 6
	// SupPayloadLen is the length of the supervision payload.
	SupPayloadLen = 6
	// MinFrameLen is the minimum Ethernet frame length without FCS.
	MinFrameLen = 60
	// MaxLSDU is the largest LSDU size the 12 bit tag field can carry.
	MaxLSDU = 0x0fff
	// MaxFrameLen is the largest tagged frame whose LSDU size fits the tag,
	// counted for a frame without an 802.1Q header.
	MaxFrameLen = MaxLSDU + EthHeaderLen

	// addrLen is the number of addressing bytes in front of the ether type.
	addrLen = 12
)

// Supervision TLV types.
const (
	TLVAnnounce  uint8 = 22
	TLVLifeCheck uint8 = 23
)

// Accepted supervision TLV lengths. Version 0 frames announce 12, version 1
// frames announce the payload length.
const (
	SupTLVLenV0 uint8 = 12
	SupTLVLenV1 uint8 = SupPayloadLen
)

// SeqStart is the first sequence number a device hands out.
const SeqStart uint16 = 65535 - 1024 + 1

// SupervisionAddr returns the supervision multicast address 01:15:4E:00:01:XX
// with the given last byte.
func SupervisionAddr(last byte) net.HardwareAddr {
	return net.HardwareAddr{0x01, 0x15, 0x4e, 0x00, 0x01, last}
}

// IsSupervisionAddr reports whether addr is any supervision multicast address.
func IsSupervisionAddr(addr net.HardwareAddr) bool {
	return len(addr) == 6 && addr[0] == 0x01 && addr[1] == 0x15 && addr[2] == 0x4e &&
		addr[3] == 0x00 && addr[4] == 0x01
}

// Version is the protocol version of a device.
type Version uint8

const (
	V0 Version = 0
	V1 Version = 1
)

// EtherType returns the outer ether type of frames tagged by this version.
func (v Version) EtherType() layers.EthernetType {
	if v == V0 {
		return EtherTypeHSRv0
	}
	return EtherTypeHSR
}

// IsTagged reports whether t is the ether type of a tagged frame.
func IsTagged(t layers.EthernetType) bool {
	return t == EtherTypeHSRv0 || t == EtherTypeHSR
}

// PortType is the role of a port within a device.
type PortType uint8

const (
	PortNone PortType = iota
	PortSlaveA
	PortSlaveB
	PortMaster
	NumPortTypes
)

func (t PortType) String() string {
	switch t {
	case PortSlaveA:
		return "slave-a"
	case PortSlaveB:
		return "slave-b"
	case PortMaster:
		return "master"
	default:
		return "none"
	}
}

// IsSlave reports whether t is one of the two ring ports.
func (t PortType) IsSlave() bool {
	return t == PortSlaveA || t == PortSlaveB
}

// Lane returns the path identifier written into tags sent on this port.
func (t PortType) Lane() uint8 {
	if t == PortSlaveA {
		return 0
	}
	return 1
}

// SeqAfter reports whether a comes after b in 16 bit wrapping arithmetic. Two
// numbers exactly half the space apart are never after each other.
func SeqAfter(a, b uint16) bool {
	d := b - a
	if d == 1<<15 {
		return false
	}
	return int16(d) < 0
}

// SeqBefore reports whether a comes before b.
func SeqBefore(a, b uint16) bool {
	return SeqAfter(b, a)
}

// SeqBeforeOrEqual reports whether a does not come after b.
func SeqBeforeOrEqual(a, b uint16) bool {
	return !SeqAfter(a, b)
}
