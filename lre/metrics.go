// Copyright 2020 Anapaya Systems
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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hsrprp/hsrprp/lre/node"
	"github.com/hsrprp/hsrprp/pkg/private/prom"
)

// Drop reasons for frames that are discarded as a whole.
const (
	reasonMalformed            = "malformed"
	reasonUnknownNode          = "unknown_node"
	reasonOffloadedSupervision = "offloaded_supervision"
	reasonSelf                 = "self"
	reasonUnknownPort          = "unknown_port"
)

// Metrics defines the metrics of the redundancy devices.
type Metrics struct {
	RxPacketsTotal       *prometheus.CounterVec
	RxBytesTotal         *prometheus.CounterVec
	RxDroppedTotal       *prometheus.CounterVec
	RxMulticastTotal     *prometheus.CounterVec
	DroppedFramesTotal   *prometheus.CounterVec
	ForwardedFramesTotal *prometheus.CounterVec
	DuplicatesTotal      *prometheus.CounterVec
	TranscodeErrorsTotal *prometheus.CounterVec
	BusyDropsTotal       *prometheus.CounterVec
	WriteErrorsTotal     *prometheus.CounterVec
	Nodes                *prometheus.GaugeVec
	RingErrorsTotal      *prometheus.CounterVec
}

// NewMetrics creates the device metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	device := []string{prom.LabelDevice}
	port := []string{prom.LabelDevice, prom.LabelPort}
	return &Metrics{
		RxPacketsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lre_rx_packets_total",
				Help: "Total number of frames delivered to the master port.",
			},
			device,
		),
		RxBytesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lre_rx_bytes_total",
				Help: "Total number of payload bytes delivered to the master port.",
			},
			device,
		),
		RxDroppedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lre_rx_dropped_total",
				Help: "Total number of frames the master port did not accept.",
			},
			device,
		),
		RxMulticastTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lre_rx_multicast_total",
				Help: "Total number of multicast frames delivered to the master port.",
			},
			device,
		),
		DroppedFramesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lre_dropped_frames_total",
				Help: "Total number of received frames dropped before forwarding.",
			},
			[]string{prom.LabelDevice, prom.LabelPort, prom.LabelReason},
		),
		ForwardedFramesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lre_forwarded_frames_total",
				Help: "Total number of frames queued for transmission on a slave port.",
			},
			port,
		),
		DuplicatesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lre_duplicates_discarded_total",
				Help: "Total number of frames not sent on a port because they were sent before.",
			},
			port,
		),
		TranscodeErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lre_transcode_errors_total",
				Help: "Total number of frames that could not be tagged or untagged for a port.",
			},
			port,
		),
		BusyDropsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lre_busy_drops_total",
				Help: "Total number of frames dropped because the send queue was full.",
			},
			port,
		),
		WriteErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lre_write_errors_total",
				Help: "Total number of frames the link failed to send.",
			},
			port,
		),
		Nodes: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lre_nodes",
				Help: "Number of remote nodes known to the device.",
			},
			device,
		),
		RingErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lre_ring_errors_total",
				Help: "Total number of times a node was heard on one lane only.",
			},
			port,
		),
	}
}

// NodeMetrics returns the node table metrics of the named device.
func (m *Metrics) NodeMetrics(device string) node.Metrics {
	return node.Metrics{
		Nodes:      m.Nodes.WithLabelValues(device),
		RingErrors: m.RingErrorsTotal.MustCurryWith(prometheus.Labels{prom.LabelDevice: device}),
	}
}

// deviceMetrics are the device wide counters, resolved once.
type deviceMetrics struct {
	rxPackets   prometheus.Counter
	rxBytes     prometheus.Counter
	rxDropped   prometheus.Counter
	rxMulticast prometheus.Counter
	dropped     *prometheus.CounterVec
}

func (m *Metrics) forDevice(device string) deviceMetrics {
	l := prometheus.Labels{prom.LabelDevice: device}
	return deviceMetrics{
		rxPackets:   m.RxPacketsTotal.With(l),
		rxBytes:     m.RxBytesTotal.With(l),
		rxDropped:   m.RxDroppedTotal.With(l),
		rxMulticast: m.RxMulticastTotal.With(l),
		dropped:     m.DroppedFramesTotal.MustCurryWith(l),
	}
}

// portMetrics are the per port counters, resolved once when the port is
// added.
type portMetrics struct {
	forwarded       prometheus.Counter
	duplicates      prometheus.Counter
	transcodeErrors prometheus.Counter
	busy            prometheus.Counter
	writeErrors     prometheus.Counter
}

func (m *Metrics) forPort(device, port string) portMetrics {
	l := prometheus.Labels{prom.LabelDevice: device, prom.LabelPort: port}
	return portMetrics{
		forwarded:       m.ForwardedFramesTotal.With(l),
		duplicates:      m.DuplicatesTotal.With(l),
		transcodeErrors: m.TranscodeErrorsTotal.With(l),
		busy:            m.BusyDropsTotal.With(l),
		writeErrors:     m.WriteErrorsTotal.With(l),
	}
}
