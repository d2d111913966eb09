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
	"time"

	"github.com/hsrprp/hsrprp/pkg/hsr"
)

var (
	ErrUnknownPort = errUnknownPort
	ErrSelfFrame   = selfFrame
	AlreadySet     = alreadySet
	EmptyValue     = emptyValue
	ModifyExisting = modifyExisting
	AlreadyRunning = alreadyRunning
	NoSuchPort     = noSuchPort
)

// Drain removes and returns all frames queued on port t.
func (d *Device) Drain(t hsr.PortType) [][]byte {
	p := d.ports.Load().get(t)
	if p == nil {
		return nil
	}
	var frames [][]byte
	for {
		select {
		case f := <-p.queue:
			frames = append(frames, f.Bytes())
		default:
			return frames
		}
	}
}

func (d *Device) SupervisionFrame(tlv uint8) ([]byte, error) {
	return d.supervisionFrame(d.ports.Load().get(hsr.PortMaster).Addr, tlv)
}

func (e *SupervisionEmitter) SetClock(now func() time.Time) {
	e.now = now
}
