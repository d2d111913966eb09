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
	"context"
	"net"
	"sync"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"

	"github.com/hsrprp/hsrprp/pkg/hsr"
	"github.com/hsrprp/hsrprp/pkg/log"
	"github.com/hsrprp/hsrprp/pkg/private/serrors"
)

const (
	// AnnounceInterval is the period of the emitter task and the distance
	// between the initial announce frames.
	AnnounceInterval = 100 * time.Millisecond
	// DefaultLifeCheckInterval is the distance between life check frames.
	DefaultLifeCheckInterval = 2 * time.Second

	numAnnounces = 3
)

// SupervisionEmitter periodically sends the supervision frames of a device:
// first a few announce frames, then life check frames. It implements
// periodic.Task and is meant to run every AnnounceInterval.
type SupervisionEmitter struct {
	dev      *Device
	interval time.Duration
	now      func() time.Time

	mtx       sync.Mutex
	announced int
	lastSent  time.Time
}

// NewSupervisionEmitter creates the emitter for d. A zero interval selects
// DefaultLifeCheckInterval.
func NewSupervisionEmitter(d *Device, interval time.Duration) *SupervisionEmitter {
	if interval <= 0 {
		interval = DefaultLifeCheckInterval
	}
	return &SupervisionEmitter{
		dev:      d,
		interval: interval,
		now:      time.Now,
	}
}

// Name implements periodic.Task.
func (e *SupervisionEmitter) Name() string {
	return "supervision_emitter"
}

// Run implements periodic.Task. It sends at most one frame per call.
func (e *SupervisionEmitter) Run(ctx context.Context) {
	logger := log.FromCtx(ctx)
	master := e.dev.ports.Load().get(hsr.PortMaster)
	if master == nil {
		return
	}
	e.mtx.Lock()
	defer e.mtx.Unlock()

	now := e.now()
	tlv := hsr.TLVLifeCheck
	switch {
	case e.announced < numAnnounces:
		tlv = hsr.TLVAnnounce
	case now.Sub(e.lastSent) < e.interval:
		return
	}
	frame, err := e.dev.supervisionFrame(master.Addr, tlv)
	if err != nil {
		logger.Error("Building supervision frame", "device", e.dev.name, "err", err)
		return
	}
	if err := e.dev.Forward(frame, hsr.PortMaster); err != nil {
		logger.Debug("Sending supervision frame", "device", e.dev.name, "err", err)
		return
	}
	if tlv == hsr.TLVAnnounce {
		e.announced++
	}
	e.lastSent = now
}

// supervisionFrame builds a supervision frame announcing addrA. Version 0
// frames number the supervision tag with the data sequence counter; version 1
// frames use it for the outer tag and the supervision counter for the
// supervision tag.
func (d *Device) supervisionFrame(addrA net.HardwareAddr, tlv uint8) ([]byte, error) {
	eth := &layers.Ethernet{
		SrcMAC:       addrA,
		DstMAC:       d.supAddr,
		EthernetType: d.version.EtherType(),
	}
	sup := &hsr.Supervision{
		Version:     uint16(d.version),
		TLVType:     tlv,
		MACAddressA: addrA,
	}
	stack := []gopacket.SerializableLayer{eth}
	hdrLen := hsr.EthHeaderLen + hsr.SupTagLen + hsr.SupPayloadLen
	if d.version == hsr.V0 {
		sup.SeqNr = d.seqNr.Next()
	} else {
		stack = append(stack, &hsr.Tag{
			SeqNr:      d.seqNr.Next(),
			EncapProto: hsr.EtherTypeHSRv0,
		})
		sup.SeqNr = d.supSeqNr.Next()
		hdrLen += hsr.TagLen
	}
	// Explicit padding keeps the tag's LSDU size in line with the padded
	// frame.
	stack = append(stack, sup, gopacket.Payload(make([]byte, hsr.MinFrameLen-hdrLen)))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, stack...); err != nil {
		return nil, serrors.Wrap("serializing supervision frame", err)
	}
	return buf.Bytes(), nil
}
