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
	"bytes"
	"net"

	"github.com/hsrprp/hsrprp/lre/node"
	"github.com/hsrprp/hsrprp/pkg/hsr"
	"github.com/hsrprp/hsrprp/pkg/log"
	"github.com/hsrprp/hsrprp/pkg/private/serrors"
)

// packetType is the relation of a frame's destination to this device.
type packetType uint8

const (
	pktHost packetType = iota
	pktBroadcast
	pktMulticast
	pktOtherHost
	pktOutgoing
)

var broadcastAddr = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// frameInfo describes one frame for the duration of a Forward call. Exactly
// one of std and tagged holds the received frame; the other one is derived on
// demand and kept for the remaining ports.
type frameInfo struct {
	std    *Frame
	tagged *Frame

	rcv   hsr.PortType
	node  *node.Node
	seqNr uint16
	// off is the offset of the ether type the tag is inserted at.
	off int

	isSupervision    bool
	isVLAN           bool
	isLocalDest      bool
	isLocalExclusive bool
	pktType          packetType
}

// isSupervisionFrame reports whether raw is a supervision frame sent to the
// supervision address of the device.
func (d *Device) isSupervisionFrame(raw []byte) bool {
	var sup hsr.Supervision
	if !hsr.DecodeSupervisionFrame(raw, &sup) {
		return false
	}
	return bytes.Equal(raw[0:6], d.supAddr)
}

// classify builds the frame descriptor of raw received on rcv.
func (d *Device) classify(raw []byte, ps *portSet, rcv hsr.PortType) (*frameInfo, error) {
	if len(raw) < hsr.EthHeaderLen {
		return nil, serrors.JoinNoStack(ErrMalformedFrame, nil, "len", len(raw))
	}
	fi := &frameInfo{rcv: rcv}
	fi.isSupervision = d.isSupervisionFrame(raw)
	if fi.isSupervision && d.rxOffloaded && rcv != hsr.PortMaster {
		d.offloadWarning.Do(func() {
			log.Error("Supervision frame received on offloaded device",
				"device", d.name, "port", rcv)
		})
		return nil, ErrOffloadedSupervision
	}

	etherType, vlan := hsr.PayloadEtherType(raw)
	fi.isVLAN = vlan
	fi.off = hsr.TypeOffset(vlan)
	tagged := hsr.IsTagged(etherType)
	if len(raw) < fi.off+2 || (tagged && len(raw) < fi.off+2+hsr.TagLen) {
		return nil, serrors.JoinNoStack(ErrMalformedFrame, nil, "len", len(raw), "vlan", vlan)
	}
	var tagSeq uint16
	if tagged {
		tagSeq, _ = hsr.TagSeqNr(raw, vlan)
	}

	if !d.rxOffloaded {
		fi.node = d.registry.ResolveOrCreate(net.HardwareAddr(raw[6:12]), fi.isSupervision,
			tagSeq)
		if fi.node == nil {
			return nil, serrors.JoinNoStack(ErrUnknownNode, nil, "src", net.HardwareAddr(raw[6:12]))
		}
	}

	if tagged {
		fi.tagged = NewFrame(raw)
		fi.seqNr = tagSeq
	} else {
		fi.std = NewFrame(raw)
		fi.seqNr = d.seqNr.Next()
	}
	d.checkLocalDest(fi, ps, net.HardwareAddr(raw[0:6]))
	return fi, nil
}

// checkLocalDest determines whether the frame is delivered to the local
// stack and whether it goes there exclusively.
func (d *Device) checkLocalDest(fi *frameInfo, ps *portSet, dst net.HardwareAddr) {
	switch {
	case ps.isSelf(dst):
		fi.pktType = pktHost
		fi.isLocalExclusive = true
	case fi.rcv == hsr.PortMaster:
		fi.pktType = pktOutgoing
	case bytes.Equal(dst, broadcastAddr):
		fi.pktType = pktBroadcast
	case dst[0]&0x01 != 0:
		fi.pktType = pktMulticast
	default:
		fi.pktType = pktOtherHost
	}
	switch fi.pktType {
	case pktHost, pktMulticast, pktBroadcast:
		fi.isLocalDest = true
	}
}
