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
	"context"
	"errors"
	"net"
	"sync"

	"github.com/hsrprp/hsrprp/pkg/hsr"
	"github.com/hsrprp/hsrprp/pkg/log"
)

// Port is one attachment of a device: one of the two slave ports towards the
// network or the master port towards the local stack.
type Port struct {
	Type hsr.PortType
	Name string
	Addr net.HardwareAddr

	conn    Conn
	queue   chan *Frame
	metrics portMetrics

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// send queues f for transmission. It never blocks; a full queue drops the
// frame and returns false.
func (p *Port) send(f *Frame) bool {
	select {
	case p.queue <- f:
		return true
	default:
		return false
	}
}

// start launches the receiver and the sender of the port.
func (p *Port) start(ctx context.Context, d *Device, maxFrameSize int) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(2)
	go func() {
		defer log.HandlePanic()
		defer p.wg.Done()
		p.runReceiver(ctx, d, maxFrameSize)
	}()
	go func() {
		defer log.HandlePanic()
		defer p.wg.Done()
		p.runSender(ctx)
	}()
}

// stop closes the connection and waits for the port goroutines to exit. It
// is safe to call on a port that was never started.
func (p *Port) stop() {
	if p.cancel != nil {
		p.cancel()
	}
	if err := p.conn.Close(); err != nil {
		log.Debug("Closing port connection", "port", p.Name, "err", err)
	}
	p.wg.Wait()
}

func (p *Port) runReceiver(ctx context.Context, d *Device, maxFrameSize int) {
	log.Debug("Receiver started", "device", d.name, "port", p.Name)
	for {
		// Frames are handed on to senders, so every read gets a new buffer.
		buf := make([]byte, maxFrameSize)
		n, err := p.conn.ReadFrame(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			log.Debug("Reading frame", "device", d.name, "port", p.Name, "err", err)
			continue
		}
		if err := d.Receive(buf[:n], p.Type); err != nil {
			log.Debug("Dropped frame", "device", d.name, "port", p.Name, "err", err)
		}
	}
}

func (p *Port) runSender(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-p.queue:
			if err := p.conn.WriteFrame(f.Bytes()); err != nil {
				p.metrics.writeErrors.Inc()
				log.Debug("Writing frame", "port", p.Name, "err", err)
			}
		}
	}
}

// PortInfo describes a port for status reporting.
type PortInfo struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Addr   string `json:"mac_address"`
	Queued int    `json:"queued"`
}

func (p *Port) info() PortInfo {
	return PortInfo{
		Type:   p.Type.String(),
		Name:   p.Name,
		Addr:   p.Addr.String(),
		Queued: len(p.queue),
	}
}

// portSet is an immutable snapshot of the ports of a device.
type portSet struct {
	byType [hsr.NumPortTypes]*Port
	// ordered contains the ports in ascending type order.
	ordered []*Port
	// self contains the own addresses of the device.
	self []net.HardwareAddr
}

func newPortSet(ports [hsr.NumPortTypes]*Port) *portSet {
	ps := &portSet{byType: ports}
	for _, p := range ports {
		if p == nil {
			continue
		}
		ps.ordered = append(ps.ordered, p)
		if !ps.isSelf(p.Addr) {
			ps.self = append(ps.self, p.Addr)
		}
	}
	return ps
}

func (ps *portSet) get(t hsr.PortType) *Port {
	if t >= hsr.NumPortTypes {
		return nil
	}
	return ps.byType[t]
}

func (ps *portSet) isSelf(addr net.HardwareAddr) bool {
	for _, a := range ps.self {
		if bytes.Equal(a, addr) {
			return true
		}
	}
	return false
}
