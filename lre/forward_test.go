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

package lre_test

import (
	"net"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/mdlayher/ethernet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsrprp/hsrprp/lre"
	"github.com/hsrprp/hsrprp/lre/mock_lre"
	"github.com/hsrprp/hsrprp/lre/node"
	"github.com/hsrprp/hsrprp/pkg/hsr"
	"github.com/hsrprp/hsrprp/pkg/private/prom"
)

func remoteNode(t *testing.T) *node.Node {
	t.Helper()
	tbl := node.NewTable(addrMaster, nil, node.Config{}, node.Metrics{})
	n := tbl.ResolveOrCreate(remoteA, true, 1)
	require.NotNil(t, n)
	return n
}

func devLabels() prometheus.Labels {
	return prometheus.Labels{prom.LabelDevice: devName}
}

func portLabels(pt hsr.PortType) prometheus.Labels {
	return prometheus.Labels{prom.LabelDevice: devName, prom.LabelPort: pt.String()}
}

func dropLabels(pt hsr.PortType, reason string) prometheus.Labels {
	return prometheus.Labels{prom.LabelDevice: devName, prom.LabelPort: pt.String(),
		prom.LabelReason: reason}
}

func decodeTag(t *testing.T, b []byte, off int) hsr.Tag {
	t.Helper()
	var tag hsr.Tag
	require.NoError(t, tag.DecodeFromBytes(b[off+2:], gopacket.NilDecodeFeedback))
	return tag
}

type mocks struct {
	reg *mock_lre.MockRegistry
	sup *mock_lre.MockSupervisionHandler
}

func newMockedDevice(t *testing.T, cfg lre.DeviceConfig) (*lre.Device, *lre.Metrics, mocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	ms := mocks{
		reg: mock_lre.NewMockRegistry(ctrl),
		sup: mock_lre.NewMockSupervisionHandler(ctrl),
	}
	d, m := newDevice(t, cfg)
	require.NoError(t, d.SetRegistry(ms.reg, ms.sup))
	return d, m, ms
}

func TestForwardPlainBroadcast(t *testing.T) {
	d, m, ms := newMockedDevice(t, lre.DeviceConfig{Version: hsr.V1})
	n := remoteNode(t)
	raw := arpFrame(t, bcast, remoteB)
	orig := append([]byte(nil), raw...)

	gomock.InOrder(
		ms.reg.EXPECT().ResolveOrCreate(remoteB, false, uint16(0)).Return(n),
		ms.reg.EXPECT().RecordInbound(n, hsr.PortSlaveA, hsr.SeqStart),
		ms.reg.EXPECT().RecordOutbound(hsr.PortSlaveB, n, hsr.SeqStart).Return(false),
		ms.reg.EXPECT().RecordOutbound(hsr.PortMaster, n, hsr.SeqStart).Return(false),
	)

	require.NoError(t, d.Forward(raw, hsr.PortSlaveA))
	assert.Empty(t, d.Drain(hsr.PortSlaveA))

	toB := d.Drain(hsr.PortSlaveB)
	require.Len(t, toB, 1)
	assert.Equal(t, hsr.EtherTypeHSR, hsr.OuterEtherType(toB[0]))
	tag := decodeTag(t, toB[0], 12)
	assert.Equal(t, uint8(1), tag.Path)
	assert.Equal(t, hsr.SeqStart, tag.SeqNr)
	assert.Equal(t, layers.EthernetTypeARP, tag.EncapProto)
	assert.Equal(t, uint16(len(toB[0])-hsr.EthHeaderLen), tag.LSDUSize)
	assert.Equal(t, orig, stripTag(toB[0], 12))

	toMaster := d.Drain(hsr.PortMaster)
	require.Len(t, toMaster, 1)
	want := append([]byte(nil), orig...)
	copy(want[6:12], remoteA)
	assert.Equal(t, want, toMaster[0])
	assert.Equal(t, orig, raw, "received frame modified")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RxPacketsTotal.With(devLabels())))
	assert.Equal(t, float64(len(orig)-hsr.EthHeaderLen),
		testutil.ToFloat64(m.RxBytesTotal.With(devLabels())))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RxMulticastTotal.With(devLabels())))
	assert.Equal(t, 1.0,
		testutil.ToFloat64(m.ForwardedFramesTotal.With(portLabels(hsr.PortSlaveB))))
}

func TestForwardTaggedDuplicate(t *testing.T) {
	const seq = 100
	testCases := map[string]struct {
		dst        net.HardwareAddr
		wantMaster int
	}{
		"broadcast": {
			dst:        bcast,
			wantMaster: 1,
		},
		"other host": {
			dst:        net.HardwareAddr{0x02, 0, 0, 0, 9, 9},
			wantMaster: 0,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			d, m, ms := newMockedDevice(t, lre.DeviceConfig{Version: hsr.V1})
			n := remoteNode(t)
			raw := taggedFrame(t, tc.dst, remoteB, 0, seq, payload(46))

			ms.reg.EXPECT().ResolveOrCreate(remoteB, false, uint16(seq)).Return(n)
			ms.reg.EXPECT().RecordInbound(n, hsr.PortSlaveA, uint16(seq))
			ms.reg.EXPECT().RecordOutbound(hsr.PortSlaveB, n, uint16(seq)).Return(true)
			if tc.wantMaster > 0 {
				ms.reg.EXPECT().RecordOutbound(hsr.PortMaster, n, uint16(seq)).Return(false)
			}

			require.NoError(t, d.Forward(raw, hsr.PortSlaveA))
			assert.Empty(t, d.Drain(hsr.PortSlaveB))
			assert.Equal(t, 1.0,
				testutil.ToFloat64(m.DuplicatesTotal.With(portLabels(hsr.PortSlaveB))))
			toMaster := d.Drain(hsr.PortMaster)
			require.Len(t, toMaster, tc.wantMaster)
			if tc.wantMaster > 0 {
				assert.Equal(t, layers.EthernetTypeIPv4, hsr.OuterEtherType(toMaster[0]))
				assert.Equal(t, remoteA, net.HardwareAddr(toMaster[0][6:12]))
				assert.Len(t, toMaster[0], len(raw)-hsr.TagLen)
			}
		})
	}
}

func TestForwardSupervision(t *testing.T) {
	d, _, ms := newMockedDevice(t, lre.DeviceConfig{Version: hsr.V1})
	n := remoteNode(t)
	raw := supFrame(t, remoteB, remoteA, 7)
	orig := append([]byte(nil), raw...)

	ms.reg.EXPECT().ResolveOrCreate(remoteB, true, uint16(7)).Return(n)
	ms.reg.EXPECT().RecordInbound(n, hsr.PortSlaveA, uint16(7))
	ms.reg.EXPECT().RecordOutbound(hsr.PortSlaveB, n, uint16(7)).Return(false)
	ms.reg.EXPECT().RecordOutbound(hsr.PortMaster, n, uint16(7)).Return(false)
	ms.sup.EXPECT().HandleSupervision(orig, n, hsr.PortSlaveA)

	require.NoError(t, d.Forward(raw, hsr.PortSlaveA))
	assert.Equal(t, [][]byte{orig}, d.Drain(hsr.PortSlaveB))
	assert.Empty(t, d.Drain(hsr.PortMaster))
}

func TestForwardSupervisionOtherAddress(t *testing.T) {
	// A supervision frame for another supervision address is a plain
	// multicast frame and is delivered to the local stack.
	d, _, ms := newMockedDevice(t, lre.DeviceConfig{
		Version:         hsr.V1,
		SupervisionAddr: hsr.SupervisionAddr(5),
	})
	n := remoteNode(t)
	raw := supFrame(t, remoteB, remoteA, 7)

	ms.reg.EXPECT().ResolveOrCreate(remoteB, false, uint16(7)).Return(n)
	ms.reg.EXPECT().RecordInbound(n, hsr.PortSlaveA, uint16(7))
	ms.reg.EXPECT().RecordOutbound(gomock.Any(), n, uint16(7)).Return(false).Times(2)

	require.NoError(t, d.Forward(raw, hsr.PortSlaveA))
	assert.Len(t, d.Drain(hsr.PortSlaveB), 1)
	assert.Len(t, d.Drain(hsr.PortMaster), 1)
}

func TestForwardUnknownNode(t *testing.T) {
	d, m, ms := newMockedDevice(t, lre.DeviceConfig{Version: hsr.V1})
	ms.reg.EXPECT().ResolveOrCreate(remoteB, false, uint16(0)).Return(nil)

	err := d.Forward(arpFrame(t, bcast, remoteB), hsr.PortSlaveA)
	assert.ErrorIs(t, err, lre.ErrUnknownNode)
	for _, pt := range []hsr.PortType{hsr.PortSlaveA, hsr.PortSlaveB, hsr.PortMaster} {
		assert.Empty(t, d.Drain(pt), pt.String())
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.DroppedFramesTotal.With(dropLabels(hsr.PortSlaveA, "unknown_node"))))
}

func TestForwardExclusive(t *testing.T) {
	testCases := map[string]struct {
		dst net.HardwareAddr
		rcv hsr.PortType
	}{
		"master address on slave a": {dst: addrMaster, rcv: hsr.PortSlaveA},
		"slave b address on slave a": {dst: addrSlaveB, rcv: hsr.PortSlaveA},
		"slave a address on slave b": {dst: addrSlaveA, rcv: hsr.PortSlaveB},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			d, m, ms := newMockedDevice(t, lre.DeviceConfig{Version: hsr.V1})
			n := remoteNode(t)
			ms.reg.EXPECT().ResolveOrCreate(remoteA, false, uint16(3)).Return(n)
			ms.reg.EXPECT().RecordInbound(n, tc.rcv, uint16(3))
			ms.reg.EXPECT().RecordOutbound(hsr.PortMaster, n, uint16(3)).Return(false)

			raw := taggedFrame(t, tc.dst, remoteA, tc.rcv.Lane(), 3, payload(46))
			require.NoError(t, d.Forward(raw, tc.rcv))
			assert.Len(t, d.Drain(hsr.PortMaster), 1)
			assert.Empty(t, d.Drain(hsr.PortSlaveA))
			assert.Empty(t, d.Drain(hsr.PortSlaveB))
			assert.Equal(t, 0.0, testutil.ToFloat64(
				m.DuplicatesTotal.With(portLabels(hsr.PortSlaveB))))
		})
	}
}

func TestForwardNoLoopback(t *testing.T) {
	frames := map[string]func(t *testing.T, src net.HardwareAddr) []byte{
		"plain broadcast": func(t *testing.T, src net.HardwareAddr) []byte {
			return arpFrame(t, bcast, src)
		},
		"plain multicast": func(t *testing.T, src net.HardwareAddr) []byte {
			return plainFrame(t, mcast, src, ethernet.EtherTypeIPv4, payload(46))
		},
		"tagged broadcast": func(t *testing.T, src net.HardwareAddr) []byte {
			return taggedFrame(t, bcast, src, 0, 9, payload(46))
		},
	}
	for name, frame := range frames {
		for _, rcv := range []hsr.PortType{hsr.PortSlaveA, hsr.PortSlaveB, hsr.PortMaster} {
			t.Run(name+" on "+rcv.String(), func(t *testing.T) {
				d, _, ms := newMockedDevice(t, lre.DeviceConfig{Version: hsr.V1})
				n := remoteNode(t)
				ms.reg.EXPECT().ResolveOrCreate(gomock.Any(), false, gomock.Any()).
					Return(n).AnyTimes()
				ms.reg.EXPECT().RecordInbound(n, rcv, gomock.Any()).AnyTimes()
				ms.reg.EXPECT().RecordOutbound(gomock.Any(), n, gomock.Any()).
					Return(false).AnyTimes()
				ms.reg.EXPECT().DestAddr(gomock.Any(), gomock.Any()).DoAndReturn(
					func(dst net.HardwareAddr, _ hsr.PortType) net.HardwareAddr {
						return dst
					},
				).AnyTimes()

				src := remoteA
				if rcv == hsr.PortMaster {
					src = addrMaster
				}
				require.NoError(t, d.Forward(frame(t, src), rcv))
				assert.Empty(t, d.Drain(rcv))
				for _, pt := range []hsr.PortType{hsr.PortSlaveA, hsr.PortSlaveB} {
					if pt != rcv {
						assert.Len(t, d.Drain(pt), 1, pt.String())
					}
				}
			})
		}
	}
}

func TestForwardFromMaster(t *testing.T) {
	d, _, ms := newMockedDevice(t, lre.DeviceConfig{Version: hsr.V1})
	self := node.NewTable(addrMaster, nil, node.Config{}, node.Metrics{}).Self()
	raw := plainFrame(t, remoteA, addrMaster, ethernet.EtherTypeIPv4, payload(100))
	orig := append([]byte(nil), raw...)

	ms.reg.EXPECT().ResolveOrCreate(addrMaster, false, uint16(0)).Return(self)
	ms.reg.EXPECT().RecordInbound(self, hsr.PortMaster, hsr.SeqStart)
	ms.reg.EXPECT().RecordOutbound(hsr.PortSlaveA, self, hsr.SeqStart).Return(false)
	ms.reg.EXPECT().RecordOutbound(hsr.PortSlaveB, self, hsr.SeqStart).Return(false)
	ms.reg.EXPECT().DestAddr(remoteA, hsr.PortSlaveA).Return(remoteA)
	ms.reg.EXPECT().DestAddr(remoteA, hsr.PortSlaveB).Return(remoteB)

	require.NoError(t, d.Forward(raw, hsr.PortMaster))
	assert.Empty(t, d.Drain(hsr.PortMaster))

	testCases := map[hsr.PortType]struct {
		dst, src net.HardwareAddr
	}{
		hsr.PortSlaveA: {dst: remoteA, src: addrSlaveA},
		hsr.PortSlaveB: {dst: remoteB, src: addrSlaveB},
	}
	for pt, tc := range testCases {
		frames := d.Drain(pt)
		require.Len(t, frames, 1, pt.String())
		f := frames[0]
		assert.Equal(t, tc.dst, net.HardwareAddr(f[0:6]), pt.String())
		assert.Equal(t, tc.src, net.HardwareAddr(f[6:12]), pt.String())
		tag := decodeTag(t, f, 12)
		assert.Equal(t, pt.Lane(), tag.Path, pt.String())
		assert.Equal(t, hsr.SeqStart, tag.SeqNr, pt.String())
		assert.Equal(t, orig[12:], stripTag(f, 12)[12:], pt.String())
	}
	assert.Equal(t, orig, raw, "received frame modified")
}

func TestForwardSequenceNumbers(t *testing.T) {
	d, _ := newDevice(t, lre.DeviceConfig{Version: hsr.V0, RxOffloaded: true})
	for i := 0; i < 3; i++ {
		raw := arpFrame(t, bcast, addrMaster)
		require.NoError(t, d.Forward(raw, hsr.PortMaster))
		frames := d.Drain(hsr.PortSlaveA)
		require.Len(t, frames, 1)
		assert.Equal(t, hsr.EtherTypeHSRv0, hsr.OuterEtherType(frames[0]))
		assert.Equal(t, hsr.SeqStart+uint16(i), decodeTag(t, frames[0], 12).SeqNr)
	}
}

func TestTagRoundTrip(t *testing.T) {
	testCases := map[string]struct {
		frame   func(t *testing.T) []byte
		off     int
		version hsr.Version
	}{
		"plain v0": {
			frame:   func(t *testing.T) []byte { return arpFrame(t, bcast, addrMaster) },
			off:     12,
			version: hsr.V0,
		},
		"plain v1": {
			frame:   func(t *testing.T) []byte { return arpFrame(t, bcast, addrMaster) },
			off:     12,
			version: hsr.V1,
		},
		"vlan v1": {
			frame: func(t *testing.T) []byte {
				return vlanFrame(t, bcast, addrMaster, 10, payload(60))
			},
			off:     16,
			version: hsr.V1,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			cfg := lre.DeviceConfig{Version: tc.version, RxOffloaded: true}
			sender, _ := newDevice(t, cfg)
			receiver, _ := newDevice(t, cfg)
			orig := tc.frame(t)

			require.NoError(t, sender.Forward(append([]byte(nil), orig...), hsr.PortMaster))
			frames := sender.Drain(hsr.PortSlaveA)
			require.Len(t, frames, 1)
			tagged := frames[0]
			et, vlan := hsr.PayloadEtherType(tagged)
			assert.Equal(t, tc.version.EtherType(), et)
			assert.Equal(t, tc.off == 16, vlan)
			lsdu := len(tagged) - tc.off - 2
			assert.Equal(t, uint16(lsdu), decodeTag(t, tagged, tc.off).LSDUSize)
			assert.Equal(t, orig, stripTag(tagged, tc.off))

			require.NoError(t, receiver.Forward(tagged, hsr.PortSlaveA))
			assert.Equal(t, [][]byte{orig}, receiver.Drain(hsr.PortMaster))
		})
	}
}

func TestForwardOffloadedSupervision(t *testing.T) {
	d, m := newDevice(t, lre.DeviceConfig{Version: hsr.V1, RxOffloaded: true})
	for i := 0; i < 2; i++ {
		err := d.Forward(supFrame(t, remoteA, remoteA, 1), hsr.PortSlaveB)
		assert.ErrorIs(t, err, lre.ErrOffloadedSupervision)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(
		m.DroppedFramesTotal.With(dropLabels(hsr.PortSlaveB, "offloaded_supervision"))))
	assert.Empty(t, d.Drain(hsr.PortSlaveA))

	// Own supervision frames still leave through the slaves.
	require.NoError(t, d.Forward(supFrame(t, addrMaster, addrMaster, 1), hsr.PortMaster))
	assert.Len(t, d.Drain(hsr.PortSlaveA), 1)
	assert.Len(t, d.Drain(hsr.PortSlaveB), 1)
}

func TestForwardL2Offloaded(t *testing.T) {
	d, _, ms := newMockedDevice(t, lre.DeviceConfig{Version: hsr.V1, L2FwdOffloaded: true})
	n := remoteNode(t)
	ms.reg.EXPECT().ResolveOrCreate(remoteA, false, uint16(4)).Return(n)
	ms.reg.EXPECT().RecordInbound(n, hsr.PortSlaveA, uint16(4))
	ms.reg.EXPECT().RecordOutbound(hsr.PortSlaveB, n, uint16(4)).Return(false)
	ms.reg.EXPECT().RecordOutbound(hsr.PortMaster, n, uint16(4)).Return(false)

	require.NoError(t, d.Forward(taggedFrame(t, bcast, remoteA, 0, 4, payload(46)),
		hsr.PortSlaveA))
	assert.Empty(t, d.Drain(hsr.PortSlaveB))
	assert.Len(t, d.Drain(hsr.PortMaster), 1)
}

func TestForwardMalformed(t *testing.T) {
	testCases := map[string][]byte{
		"short": make([]byte, 10),
		"truncated tag": append(append(append([]byte(nil), bcast...), remoteA...),
			0x89, 0x2f, 0, 0, 0, 1),
		"truncated vlan tag": append(append(append([]byte(nil), bcast...), remoteA...),
			0x81, 0x00, 0, 10, 0x89, 0x2f, 0, 0, 0, 1),
	}
	for name, raw := range testCases {
		t.Run(name, func(t *testing.T) {
			d, m, _ := newMockedDevice(t, lre.DeviceConfig{Version: hsr.V1})
			err := d.Forward(raw, hsr.PortSlaveA)
			assert.ErrorIs(t, err, lre.ErrMalformedFrame)
			assert.Equal(t, 1.0, testutil.ToFloat64(
				m.DroppedFramesTotal.With(dropLabels(hsr.PortSlaveA, "malformed"))))
		})
	}
}

func TestForwardUnknownPort(t *testing.T) {
	m := lre.NewMetrics(prometheus.NewRegistry())
	d := lre.NewDevice(lre.DeviceConfig{Name: devName, RxOffloaded: true}, m)
	require.NoError(t, d.AddPort(hsr.PortSlaveA, "a", addrSlaveA, nopConn{}))

	err := d.Forward(arpFrame(t, bcast, remoteA), hsr.PortSlaveB)
	assert.ErrorIs(t, err, lre.ErrUnknownPort)
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.DroppedFramesTotal.With(dropLabels(hsr.PortSlaveB, "unknown_port"))))
}

func TestForwardQueueFull(t *testing.T) {
	d, m := newDevice(t, lre.DeviceConfig{Version: hsr.V1, RxOffloaded: true, QueueSize: 1})
	for seq := uint16(1); seq <= 2; seq++ {
		require.NoError(t, d.Forward(taggedFrame(t, mcast, remoteA, 0, seq, payload(46)),
			hsr.PortSlaveA))
	}
	assert.Len(t, d.Drain(hsr.PortMaster), 1)
	assert.Len(t, d.Drain(hsr.PortSlaveB), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RxPacketsTotal.With(devLabels())))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RxMulticastTotal.With(devLabels())))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RxDroppedTotal.With(devLabels())))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BusyDropsTotal.With(portLabels(hsr.PortSlaveB))))
	assert.Equal(t, 1.0,
		testutil.ToFloat64(m.ForwardedFramesTotal.With(portLabels(hsr.PortSlaveB))))
}

func TestForwardTranscodeError(t *testing.T) {
	d, m := newDevice(t, lre.DeviceConfig{Version: hsr.V1, RxOffloaded: true, MaxFrameSize: 100})
	raw := plainFrame(t, bcast, addrMaster, ethernet.EtherTypeIPv4, payload(84))
	require.Len(t, raw, 98)

	require.NoError(t, d.Forward(raw, hsr.PortMaster))
	for _, pt := range []hsr.PortType{hsr.PortSlaveA, hsr.PortSlaveB} {
		assert.Empty(t, d.Drain(pt))
		assert.Equal(t, 1.0,
			testutil.ToFloat64(m.TranscodeErrorsTotal.With(portLabels(pt))), pt.String())
	}
}

func TestForwardLargeFrames(t *testing.T) {
	d, m := newDevice(t, lre.DeviceConfig{Version: hsr.V1, RxOffloaded: true, MaxFrameSize: 9000})

	largest := hsr.MaxFrameLen - hsr.TagLen
	raw := plainFrame(t, bcast, addrMaster, ethernet.EtherTypeIPv4,
		payload(largest-hsr.EthHeaderLen))
	require.Len(t, raw, largest)
	require.NoError(t, d.Forward(raw, hsr.PortMaster))
	out := d.Drain(hsr.PortSlaveA)
	require.Len(t, out, 1)
	tag := decodeTag(t, out[0], 12)
	assert.Equal(t, uint16(hsr.MaxLSDU), tag.LSDUSize)
	assert.Len(t, out[0], largest+hsr.TagLen)
	d.Drain(hsr.PortSlaveB)

	// A 5000 byte payload would wrap the 12 bit LSDU size.
	raw = plainFrame(t, bcast, addrMaster, ethernet.EtherTypeIPv4, payload(5000))
	require.NoError(t, d.Forward(raw, hsr.PortMaster))
	for _, pt := range []hsr.PortType{hsr.PortSlaveA, hsr.PortSlaveB} {
		assert.Empty(t, d.Drain(pt))
		assert.Equal(t, 1.0,
			testutil.ToFloat64(m.TranscodeErrorsTotal.With(portLabels(pt))), pt.String())
	}
}

func TestReceiveSelf(t *testing.T) {
	d, m := newDevice(t, lre.DeviceConfig{Version: hsr.V1, RxOffloaded: true})
	err := d.Receive(arpFrame(t, bcast, addrSlaveB), hsr.PortSlaveA)
	assert.ErrorIs(t, err, lre.ErrSelfFrame)
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.DroppedFramesTotal.With(dropLabels(hsr.PortSlaveA, "self"))))
	assert.Empty(t, d.Drain(hsr.PortSlaveB))

	require.NoError(t, d.Receive(arpFrame(t, bcast, addrMaster), hsr.PortMaster))
	assert.Len(t, d.Drain(hsr.PortSlaveA), 1)
}

func TestForwardWithNodeTable(t *testing.T) {
	d, m := newDevice(t, lre.DeviceConfig{Version: hsr.V1})
	tbl := node.NewTable(addrMaster, nil, node.Config{}, m.NodeMetrics(devName))
	require.NoError(t, d.SetRegistry(tbl, tbl))

	data := func(lane uint8, src net.HardwareAddr, seq uint16) []byte {
		return taggedFrame(t, bcast, src, lane, seq, payload(46))
	}

	// Nodes are learned from supervision frames only.
	assert.ErrorIs(t, d.Forward(data(0, remoteA, 10), hsr.PortSlaveA), lre.ErrUnknownNode)
	require.NoError(t, d.Forward(supFrame(t, remoteA, remoteA, 5), hsr.PortSlaveA))
	assert.Len(t, d.Drain(hsr.PortSlaveB), 1)
	assert.Empty(t, d.Drain(hsr.PortMaster))
	assert.Equal(t, 1, tbl.Len())

	require.NoError(t, d.Forward(data(0, remoteA, 10), hsr.PortSlaveA))
	assert.Len(t, d.Drain(hsr.PortMaster), 1)
	assert.Len(t, d.Drain(hsr.PortSlaveB), 1)

	// The copy from the other lane is passed on but not delivered again.
	require.NoError(t, d.Forward(data(1, remoteA, 10), hsr.PortSlaveB))
	assert.Empty(t, d.Drain(hsr.PortMaster))
	assert.Len(t, d.Drain(hsr.PortSlaveA), 1)

	require.NoError(t, d.Forward(data(1, remoteA, 10), hsr.PortSlaveB))
	assert.Empty(t, d.Drain(hsr.PortMaster))
	assert.Empty(t, d.Drain(hsr.PortSlaveA))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DuplicatesTotal.With(portLabels(hsr.PortMaster))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DuplicatesTotal.With(portLabels(hsr.PortSlaveA))))

	// A supervision frame from address B merges it into the node.
	require.NoError(t, d.Forward(supFrame(t, remoteB, remoteA, 6), hsr.PortSlaveB))
	assert.Len(t, d.Drain(hsr.PortSlaveA), 1)
	assert.Equal(t, 1, tbl.Len())
	nodes := tbl.Nodes()
	require.Len(t, nodes, 2)
	assert.True(t, nodes[0].Self)
	assert.Equal(t, remoteA.String(), nodes[1].AddrA)
	assert.Equal(t, remoteB.String(), nodes[1].AddrB)
	assert.Equal(t, hsr.PortSlaveB.String(), nodes[1].AddrBPort)

	require.NoError(t, d.Forward(data(1, remoteB, 11), hsr.PortSlaveB))
	toMaster := d.Drain(hsr.PortMaster)
	require.Len(t, toMaster, 1)
	assert.Equal(t, remoteA, net.HardwareAddr(toMaster[0][6:12]))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Nodes.With(devLabels())))
}
