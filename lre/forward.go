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
	"errors"

	"github.com/hsrprp/hsrprp/pkg/hsr"
	"github.com/hsrprp/hsrprp/pkg/log"
	"github.com/hsrprp/hsrprp/pkg/private/serrors"
)

var errUnknownPort = errors.New("frame received on unknown port")

// Forward sends the frame raw, received on port rcv, to every other port of
// the device that should see it. Frame level errors drop the whole frame and
// are returned; failures for a single port only skip that port.
//
// Forward takes ownership of raw.
func (d *Device) Forward(raw []byte, rcv hsr.PortType) error {
	d.grace.RLock()
	defer d.grace.RUnlock()
	ps := d.ports.Load()
	if ps.get(rcv) == nil {
		d.dm.dropped.WithLabelValues(rcv.String(), reasonUnknownPort).Inc()
		return serrors.JoinNoStack(errUnknownPort, nil, "port", rcv)
	}

	fi, err := d.classify(raw, ps, rcv)
	if err != nil {
		d.dm.dropped.WithLabelValues(rcv.String(), dropReason(err)).Inc()
		return err
	}
	if !d.rxOffloaded {
		d.registry.RecordInbound(fi.node, rcv, fi.seqNr)
	}
	d.forwardDo(fi, ps)
	return nil
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownNode):
		return reasonUnknownNode
	case errors.Is(err, ErrOffloadedSupervision):
		return reasonOffloadedSupervision
	default:
		return reasonMalformed
	}
}

// forwardDo applies the forwarding rules to every port. The first rule that
// matches skips the port.
func (d *Device) forwardDo(fi *frameInfo, ps *portSet) {
	for _, p := range ps.ordered {
		if p.Type == fi.rcv {
			continue
		}
		if p.Type == hsr.PortMaster && !fi.isLocalDest {
			continue
		}
		if p.Type != hsr.PortMaster && fi.isLocalExclusive {
			continue
		}
		if !d.rxOffloaded && d.registry.RecordOutbound(p.Type, fi.node, fi.seqNr) {
			p.metrics.duplicates.Inc()
			continue
		}
		if fi.isSupervision && p.Type == hsr.PortMaster && !d.rxOffloaded {
			d.supHandler.HandleSupervision(fi.supervisionBytes(), fi.node, fi.rcv)
			continue
		}
		if d.l2FwdOffloaded && fi.rcv.IsSlave() && p.Type.IsSlave() {
			continue
		}

		var f *Frame
		var err error
		if p.Type == hsr.PortMaster {
			f, err = d.strippedFor(fi)
		} else {
			f, err = d.taggedFor(fi, p.Type)
		}
		if err != nil {
			p.metrics.transcodeErrors.Inc()
			log.Debug("Skipping port", "device", d.name, "port", p.Type, "err", err)
			continue
		}

		if p.Type == hsr.PortMaster {
			d.deliverMaster(fi, f, p)
		} else {
			d.xmit(fi, f, p)
		}
	}
}

// supervisionBytes returns the frame as received. Supervision frames carry
// their own tag, so this is the tagged variant whenever there is one.
func (fi *frameInfo) supervisionBytes() []byte {
	if fi.tagged != nil {
		return fi.tagged.Bytes()
	}
	return fi.std.Bytes()
}

// deliverMaster hands f to the local stack. Both copies of a frame from a
// node appear with the node's address A as source.
func (d *Device) deliverMaster(fi *frameInfo, f *Frame, p *Port) {
	if !d.rxOffloaded {
		f.SetSource(fi.node.AddrA())
	}
	if !p.send(f) {
		d.dm.rxDropped.Inc()
		return
	}
	d.dm.rxPackets.Inc()
	d.dm.rxBytes.Add(float64(f.Len() - hsr.EthHeaderLen))
	if fi.pktType == pktMulticast {
		d.dm.rxMulticast.Inc()
	}
}

// xmit queues f on slave port p. Frames originating from the local stack get
// the addresses of the port they leave on.
func (d *Device) xmit(fi *frameInfo, f *Frame, p *Port) {
	if !d.rxOffloaded && fi.rcv == hsr.PortMaster {
		f.SetDestination(d.registry.DestAddr(f.Destination(), p.Type))
		f.SetSource(p.Addr)
	}
	if !p.send(f) {
		p.metrics.busy.Inc()
		return
	}
	p.metrics.forwarded.Inc()
}
