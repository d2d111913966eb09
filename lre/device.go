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

// Package lre implements the link redundancy entity of an HSR/PRP device: it
// decides, for every frame received on one of the ports of a device, to which
// of the other ports the frame goes, with or without the redundancy tag.
//
// A Device has up to three ports: the two slave ports attached to the
// redundant network and the master port towards the local stack. Every port
// runs a receiver that feeds Receive and a sender that drains the port's
// queue.
package lre

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/hsrprp/hsrprp/pkg/hsr"
	"github.com/hsrprp/hsrprp/pkg/log"
	"github.com/hsrprp/hsrprp/pkg/private/serrors"
)

const (
	DefaultQueueSize    = 256
	DefaultMaxFrameSize = 2048
)

var (
	// ErrMalformedFrame is returned for frames whose headers are truncated.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrUnknownNode is returned for frames from senders the registry does not
	// know.
	ErrUnknownNode = errors.New("unknown source node")
	// ErrOffloadedSupervision is returned for supervision frames received on a
	// slave port although the hardware should have consumed them.
	ErrOffloadedSupervision = errors.New("unexpected supervision frame on offloaded device")

	alreadySet      = errors.New("already set")
	emptyValue      = errors.New("empty value")
	modifyExisting  = errors.New("modifying a running device is not allowed")
	alreadyRunning  = errors.New("device already running")
	invalidPortType = errors.New("invalid port type")
	noSuchPort      = errors.New("no such port")
	selfFrame       = errors.New("frame sent by this device")
)

// DeviceConfig configures a Device.
type DeviceConfig struct {
	Name    string
	Version hsr.Version
	// SupervisionAddr is the multicast destination of supervision frames.
	// Defaults to 01:15:4E:00:01:00.
	SupervisionAddr net.HardwareAddr
	// RxOffloaded is set when the hardware discards duplicates.
	RxOffloaded bool
	// L2FwdOffloaded is set when the hardware relays frames between the
	// slave ports.
	L2FwdOffloaded bool
	QueueSize      int
	MaxFrameSize   int
}

// Device is a redundancy device. Ports may be added and removed while the
// device runs.
type Device struct {
	name           string
	version        hsr.Version
	supAddr        net.HardwareAddr
	rxOffloaded    bool
	l2FwdOffloaded bool
	queueSize      int
	maxFrameSize   int

	registry   Registry
	supHandler SupervisionHandler
	metrics    *Metrics
	dm         deviceMetrics

	seqNr    *SequenceCounter
	supSeqNr *SequenceCounter

	// ports is replaced, never modified. Forward holds the read side of
	// grace while it uses a snapshot; writers take the write side after
	// publishing a new snapshot to wait for the readers of the old one.
	ports atomic.Pointer[portSet]
	grace sync.RWMutex

	mtx     sync.Mutex
	running atomic.Bool
	runCtx  context.Context

	offloadWarning sync.Once
}

// NewDevice creates a device without ports.
func NewDevice(cfg DeviceConfig, metrics *Metrics) *Device {
	d := &Device{
		name:           cfg.Name,
		version:        cfg.Version,
		supAddr:        cfg.SupervisionAddr,
		rxOffloaded:    cfg.RxOffloaded,
		l2FwdOffloaded: cfg.L2FwdOffloaded,
		queueSize:      cfg.QueueSize,
		maxFrameSize:   cfg.MaxFrameSize,
		metrics:        metrics,
		dm:             metrics.forDevice(cfg.Name),
		seqNr:          NewSequenceCounter(hsr.SeqStart),
		supSeqNr:       NewSequenceCounter(hsr.SeqStart),
	}
	if len(d.supAddr) == 0 {
		d.supAddr = hsr.SupervisionAddr(0)
	}
	if d.queueSize <= 0 {
		d.queueSize = DefaultQueueSize
	}
	if d.maxFrameSize <= 0 {
		d.maxFrameSize = DefaultMaxFrameSize
	}
	if d.maxFrameSize > hsr.MaxFrameLen {
		log.Info("Limiting max frame size to what the tag can describe",
			"device", d.name, "configured", d.maxFrameSize, "limit", hsr.MaxFrameLen)
		d.maxFrameSize = hsr.MaxFrameLen
	}
	d.ports.Store(newPortSet([hsr.NumPortTypes]*Port{}))
	return d
}

// Name returns the device name.
func (d *Device) Name() string {
	return d.name
}

func (d *Device) isRunning() bool {
	return d.running.Load()
}

// SetRegistry sets the node registry and the supervision handler. Both are
// required unless duplicate discard is offloaded.
func (d *Device) SetRegistry(r Registry, h SupervisionHandler) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	if d.isRunning() {
		return modifyExisting
	}
	if r == nil || h == nil {
		return emptyValue
	}
	if d.registry != nil {
		return alreadySet
	}
	d.registry = r
	d.supHandler = h
	return nil
}

// AddPort attaches a port. If the device is running the port starts
// immediately.
func (d *Device) AddPort(t hsr.PortType, name string, addr net.HardwareAddr, conn Conn) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	if t == hsr.PortNone || t >= hsr.NumPortTypes {
		return serrors.JoinNoStack(invalidPortType, nil, "type", t)
	}
	if conn == nil || len(addr) != 6 {
		return serrors.JoinNoStack(emptyValue, nil, "port", t)
	}
	cur := d.ports.Load()
	if cur.get(t) != nil {
		return serrors.JoinNoStack(alreadySet, nil, "port", t)
	}
	p := &Port{
		Type:    t,
		Name:    name,
		Addr:    append(net.HardwareAddr(nil), addr...),
		conn:    conn,
		queue:   make(chan *Frame, d.queueSize),
		metrics: d.metrics.forPort(d.name, t.String()),
	}
	next := cur.byType
	next[t] = p
	d.ports.Store(newPortSet(next))
	if d.isRunning() {
		p.start(d.runCtx, d, d.maxFrameSize)
	}
	log.Info("Port added", "device", d.name, "port", t, "name", name, "addr", p.Addr)
	return nil
}

// RemovePort detaches a port. It returns once no frame is being forwarded
// with the port anymore and the port's connection is closed.
func (d *Device) RemovePort(t hsr.PortType) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	cur := d.ports.Load()
	p := cur.get(t)
	if p == nil {
		return serrors.JoinNoStack(noSuchPort, nil, "port", t)
	}
	next := cur.byType
	next[t] = nil
	d.ports.Store(newPortSet(next))
	d.grace.Lock()
	//nolint:staticcheck // empty critical section waits for readers.
	d.grace.Unlock()
	p.stop()
	log.Info("Port removed", "device", d.name, "port", t)
	return nil
}

// Run starts all ports and blocks until ctx is done. The ports are stopped
// before Run returns.
func (d *Device) Run(ctx context.Context) error {
	d.mtx.Lock()
	if d.isRunning() {
		d.mtx.Unlock()
		return alreadyRunning
	}
	if !d.rxOffloaded && d.registry == nil {
		d.mtx.Unlock()
		return serrors.JoinNoStack(emptyValue, nil, "field", "registry")
	}
	ps := d.ports.Load()
	d.runCtx = ctx
	d.running.Store(true)
	for _, p := range ps.ordered {
		p.start(ctx, d, d.maxFrameSize)
	}
	d.mtx.Unlock()
	log.Info("Device running", "device", d.name, "ports", len(ps.ordered))

	<-ctx.Done()

	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.running.Store(false)
	for _, p := range d.ports.Load().ordered {
		p.stop()
	}
	log.Info("Device stopped", "device", d.name)
	return nil
}

// Receive is the entry point for frames read from port rcv. Frames a slave
// port receives from this device itself have travelled the whole ring and
// are dropped; all other frames are forwarded.
func (d *Device) Receive(raw []byte, rcv hsr.PortType) error {
	if rcv.IsSlave() && len(raw) >= hsr.EthHeaderLen &&
		d.ports.Load().isSelf(net.HardwareAddr(raw[6:12])) {

		d.dm.dropped.WithLabelValues(rcv.String(), reasonSelf).Inc()
		return selfFrame
	}
	return d.Forward(raw, rcv)
}

// DeviceInfo describes a device for status reporting.
type DeviceInfo struct {
	Name            string     `json:"name"`
	Version         uint8      `json:"protocol_version"`
	SupervisionAddr string     `json:"supervision_address"`
	RxOffloaded     bool       `json:"rx_offloaded"`
	L2FwdOffloaded  bool       `json:"l2_fwd_offloaded"`
	Running         bool       `json:"running"`
	Ports           []PortInfo `json:"ports"`
}

// Info returns the current device status.
func (d *Device) Info() DeviceInfo {
	return DeviceInfo{
		Name:            d.name,
		Version:         uint8(d.version),
		SupervisionAddr: d.supAddr.String(),
		RxOffloaded:     d.rxOffloaded,
		L2FwdOffloaded:  d.l2FwdOffloaded,
		Running:         d.isRunning(),
		Ports:           d.Ports(),
	}
}

// Ports returns the status of all ports in type order.
func (d *Device) Ports() []PortInfo {
	ps := d.ports.Load()
	infos := make([]PortInfo, 0, len(ps.ordered))
	for _, p := range ps.ordered {
		infos = append(infos, p.info())
	}
	return infos
}
