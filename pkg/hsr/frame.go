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

package hsr

import (
	"encoding/binary"
	"net"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
)

// TypeOffset returns the offset of the ether type that describes the frame
// payload: 12, or 16 behind an 802.1Q header.
func TypeOffset(vlan bool) int {
	if vlan {
		return addrLen + VLANHeaderLen
	}
	return addrLen
}

// OuterEtherType returns the ether type at offset 12.
func OuterEtherType(frame []byte) layers.EthernetType {
	if len(frame) < EthHeaderLen {
		return 0
	}
	return layers.EthernetType(binary.BigEndian.Uint16(frame[addrLen:]))
}

// PayloadEtherType returns the ether type following an optional 802.1Q
// header and whether such a header is present.
func PayloadEtherType(frame []byte) (layers.EthernetType, bool) {
	t := OuterEtherType(frame)
	if t != EtherTypeVLAN {
		return t, false
	}
	if len(frame) < EthHeaderLen+VLANHeaderLen {
		return 0, true
	}
	return layers.EthernetType(binary.BigEndian.Uint16(frame[addrLen+VLANHeaderLen:])), true
}

// TagSeqNr returns the sequence number of a tagged frame.
func TagSeqNr(frame []byte, vlan bool) (uint16, bool) {
	off := TypeOffset(vlan) + 4
	if len(frame) < off+2 {
		return 0, false
	}
	return binary.BigEndian.Uint16(frame[off:]), true
}

// DecodeSupervisionFrame decodes the supervision tag of frame. It returns
// false if frame is not a well formed supervision frame: the destination is
// not a supervision address, the ether type is not a redundancy ether type,
// a version 1 tag does not encapsulate supervision, or the TLV is unknown.
func DecodeSupervisionFrame(frame []byte, s *Supervision) bool {
	if len(frame) < EthHeaderLen || !IsSupervisionAddr(net.HardwareAddr(frame[0:6])) {
		return false
	}
	off := EthHeaderLen
	switch OuterEtherType(frame) {
	case EtherTypeHSRv0:
	case EtherTypeHSR:
		var t Tag
		if err := t.DecodeFromBytes(frame[EthHeaderLen:], gopacket.NilDecodeFeedback); err != nil {
			return false
		}
		if t.EncapProto != EtherTypeHSRv0 {
			return false
		}
		off += TagLen
	default:
		return false
	}
	if err := s.DecodeFromBytes(frame[off:], gopacket.NilDecodeFeedback); err != nil {
		return false
	}
	return s.Valid()
}
