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

// Package node keeps track of the nodes a redundancy device hears from, and
// of the sequence numbers it has already received from and sent on behalf of
// each of them.
//
// Nodes are stored in an expiring cache keyed by every address they own.
// Receiving a frame from a node refreshes its expiry, and nodes that stay
// silent for the forget time are dropped by Prune.
package node

import (
	"bytes"
	"context"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hsrprp/hsrprp/pkg/hsr"
	"github.com/hsrprp/hsrprp/pkg/log"
)

const (
	DefaultForgetTime    = 60 * time.Second
	DefaultPruneInterval = 3 * time.Second
	DefaultMaxSlaveDiff  = 3 * time.Second
	DefaultMaxNodes      = 1024
)

// Config configures a Table.
type Config struct {
	// ForgetTime is how long a silent node is remembered.
	ForgetTime time.Duration
	// MaxSlaveDiff is how long one lane may stay silent while the other one
	// receives frames before a ring error is reported.
	MaxSlaveDiff time.Duration
	// MaxNodes limits the number of remote nodes. Zero means unlimited.
	MaxNodes int
}

func (c *Config) initDefaults() {
	if c.ForgetTime == 0 {
		c.ForgetTime = DefaultForgetTime
	}
	if c.MaxSlaveDiff == 0 {
		c.MaxSlaveDiff = DefaultMaxSlaveDiff
	}
}

// Metrics of a table. All fields are optional.
type Metrics struct {
	Nodes      prometheus.Gauge
	RingErrors *prometheus.CounterVec
}

// Table is the node registry of one device. It is safe for concurrent use.
type Table struct {
	cfg     Config
	metrics Metrics
	cache   *cache.Cache
	self    *Node
	// mtx serializes node creation and merging.
	mtx   sync.Mutex
	nodes atomic.Int64
	now   func() time.Time
}

// NewTable creates a table for the device whose own addresses are selfA and,
// optionally, selfB. The own node never expires.
func NewTable(selfA, selfB net.HardwareAddr, cfg Config, m Metrics) *Table {
	cfg.initDefaults()
	t := &Table{
		cfg:     cfg,
		metrics: m,
		// No janitor; Prune drives expiry so that no goroutine is left
		// behind.
		cache: cache.New(cfg.ForgetTime, 0),
		now:   time.Now,
	}
	t.cache.OnEvicted(t.evicted)
	t.self = newNode(selfA, hsr.SeqStart-1, true, t.now())
	t.cache.Set(key(selfA), t.self, cache.NoExpiration)
	if len(selfB) != 0 && !bytes.Equal(selfA, selfB) {
		t.self.addrB = append(net.HardwareAddr(nil), selfB...)
		t.self.addrBPort = hsr.PortSlaveB
		t.cache.Set(key(selfB), t.self, cache.NoExpiration)
	}
	return t
}

func key(addr net.HardwareAddr) string {
	return string(addr)
}

func (t *Table) lookup(addr net.HardwareAddr) *Node {
	v, ok := t.cache.Get(key(addr))
	if !ok {
		return nil
	}
	return v.(*Node)
}

// Self returns the node of the local device.
func (t *Table) Self() *Node {
	return t.self
}

// Len returns the number of remote nodes.
func (t *Table) Len() int {
	return int(t.nodes.Load())
}

// ResolveOrCreate returns the node owning src. Only supervision frames may
// create a node; its sequence numbers start right before seqNr. It returns
// nil for unknown senders of other frames and when the table is full.
func (t *Table) ResolveOrCreate(src net.HardwareAddr, isSupervision bool,
	seqNr uint16) *Node {

	if n := t.lookup(src); n != nil {
		return n
	}
	if !isSupervision {
		return nil
	}
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if n := t.lookup(src); n != nil {
		return n
	}
	return t.addLocked(src, seqNr-1)
}

func (t *Table) addLocked(addr net.HardwareAddr, seqOut uint16) *Node {
	// Evict stale entries first so that overwriting a key never skips the
	// eviction bookkeeping.
	t.cache.DeleteExpired()
	if t.cfg.MaxNodes > 0 && t.Len() >= t.cfg.MaxNodes {
		log.Debug("Node table full", "addr", addr, "max", t.cfg.MaxNodes)
		return nil
	}
	now := t.now()
	n := newNode(addr, seqOut, false, now)
	n.lastTouch.Store(now.UnixNano())
	t.cache.Set(key(addr), n, cache.DefaultExpiration)
	t.setNodes(t.nodes.Add(1))
	log.Debug("Node added", "addr", addr)
	return n
}

func (t *Table) setNodes(v int64) {
	if t.metrics.Nodes != nil {
		t.metrics.Nodes.Set(float64(v))
	}
}

// evicted is called by the cache after a key was removed.
func (t *Table) evicted(k string, v any) {
	n := v.(*Node)
	if k != key(n.addrA) {
		return
	}
	// A refresh may have stored the node again after the cache dropped it.
	if t.lookup(n.addrA) == n {
		return
	}
	n.mtx.Lock()
	n.removed = true
	addrB := n.addrB
	n.mtx.Unlock()
	if addrB != nil {
		if other := t.lookup(addrB); other == n {
			t.cache.Delete(key(addrB))
		}
	}
	t.setNodes(t.nodes.Add(-1))
	log.Debug("Node removed", "addr", n.addrA)
}

// touch refreshes the expiry of n, at most a few times per forget time.
func (t *Table) touch(n *Node, now time.Time) {
	if n.self {
		return
	}
	last := n.lastTouch.Load()
	if now.UnixNano()-last < int64(t.cfg.ForgetTime/16) {
		return
	}
	if !n.lastTouch.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	n.mtx.Lock()
	defer n.mtx.Unlock()
	if n.removed {
		return
	}
	t.cache.Set(key(n.addrA), n, cache.DefaultExpiration)
	if n.addrB != nil {
		t.cache.Set(key(n.addrB), n, cache.DefaultExpiration)
	}
}

// RecordInbound records that a frame with seqNr from n arrived on port.
// Frames older than the last one sent on that port are ignored.
func (t *Table) RecordInbound(n *Node, port hsr.PortType, seqNr uint16) {
	now := t.now()
	n.mtx.Lock()
	if hsr.SeqBefore(seqNr, n.seqOut[port]) {
		n.mtx.Unlock()
		return
	}
	n.timeIn[port] = now
	n.mtx.Unlock()
	t.touch(n, now)
}

// RecordOutbound records that the frame seqNr of n is about to be sent on
// port. It returns true if that frame, or a newer one, was sent on port
// before, in which case the frame must not be sent again.
func (t *Table) RecordOutbound(port hsr.PortType, n *Node, seqNr uint16) bool {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	if hsr.SeqBeforeOrEqual(seqNr, n.seqOut[port]) {
		return true
	}
	n.seqOut[port] = seqNr
	return false
}

// DestAddr returns the address a frame to dst must carry when sent on port:
// address B of the destination node if that was learned on port, dst
// otherwise.
func (t *Table) DestAddr(dst net.HardwareAddr, port hsr.PortType) net.HardwareAddr {
	n := t.lookup(dst)
	if n == nil || !bytes.Equal(n.addrA, dst) {
		return dst
	}
	n.mtx.Lock()
	defer n.mtx.Unlock()
	if n.addrB == nil || n.addrBPort != port {
		return dst
	}
	return n.addrB
}

// HandleSupervision merges the node that sent the supervision frame into the
// node announced in the frame. The sender becomes address B of that node.
func (t *Table) HandleSupervision(frame []byte, curr *Node, rcv hsr.PortType) {
	var sup hsr.Supervision
	if !hsr.DecodeSupervisionFrame(frame, &sup) {
		return
	}
	src := net.HardwareAddr(frame[6:12])
	t.mtx.Lock()
	defer t.mtx.Unlock()

	target := t.lookup(sup.MACAddressA)
	if target == nil || !bytes.Equal(target.addrA, sup.MACAddressA) {
		if target = t.addLocked(sup.MACAddressA, hsr.SeqStart-1); target == nil {
			return
		}
	}
	if target == curr || curr.self {
		return
	}

	curr.mtx.Lock()
	curr.removed = true
	timeIn, seqOut := curr.timeIn, curr.seqOut
	curr.mtx.Unlock()

	target.mtx.Lock()
	target.addrB = append(net.HardwareAddr(nil), src...)
	target.addrBPort = rcv
	for i := range target.timeIn {
		if timeIn[i].After(target.timeIn[i]) {
			target.timeIn[i] = timeIn[i]
		}
		if hsr.SeqAfter(seqOut[i], target.seqOut[i]) {
			target.seqOut[i] = seqOut[i]
		}
	}
	target.mtx.Unlock()

	t.cache.Delete(key(curr.addrA))
	t.cache.Set(key(src), target, cache.DefaultExpiration)
	log.Debug("Node merged", "addr_a", target.addrA, "addr_b", src, "port", rcv)
}

// Prune removes expired nodes and reports nodes that are only heard on one
// lane.
func (t *Table) Prune() {
	t.cache.DeleteExpired()
	now := t.now()
	for _, n := range t.distinct() {
		if n.self {
			continue
		}
		port, late := n.latePort(now, t.cfg.MaxSlaveDiff)
		if !late {
			continue
		}
		log.Info("Ring error", "node", n.addrA, "port", port)
		if t.metrics.RingErrors != nil {
			t.metrics.RingErrors.WithLabelValues(port.String()).Inc()
		}
	}
}

func (t *Table) distinct() []*Node {
	items := t.cache.Items()
	seen := make(map[*Node]struct{}, len(items))
	nodes := make([]*Node, 0, len(items))
	for _, item := range items {
		n := item.Object.(*Node)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return bytes.Compare(nodes[i].addrA, nodes[j].addrA) < 0
	})
	return nodes
}

// Nodes returns a snapshot of all nodes, ordered by address A.
func (t *Table) Nodes() []Info {
	nodes := t.distinct()
	infos := make([]Info, 0, len(nodes))
	for _, n := range nodes {
		infos = append(infos, n.Info())
	}
	return infos
}

// Run implements periodic.Task.
func (t *Table) Run(_ context.Context) {
	t.Prune()
}

// Name implements periodic.Task.
func (t *Table) Name() string {
	return "node_table_prune"
}
