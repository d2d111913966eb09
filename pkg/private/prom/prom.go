// Copyright 2019 Anapaya Systems
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

// Package prom holds label names and helpers shared by the metrics of the
// different packages.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Common label names.
const (
	// LabelDevice is the name of the redundancy device.
	LabelDevice = "device"
	// LabelPort is the port role, e.g. "slave-a".
	LabelPort = "port"
	// LabelReason classifies why a frame was dropped.
	LabelReason = "reason"
	// LabelLevel is the level of a log entry.
	LabelLevel = "level"
)

// SafeRegister registers c with reg and returns the registered collector. If
// an identical collector was registered before, that one is returned. Any
// other error panics.
func SafeRegister(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}
