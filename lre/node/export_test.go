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

package node

import (
	"net"
	"time"
)

// SetClock replaces the clock used for arrival times.
func (t *Table) SetClock(now func() time.Time) {
	t.now = now
}

// Evicted runs the eviction callback for the node stored under addr, as the
// cache does after it dropped the key.
func (t *Table) Evicted(addr net.HardwareAddr) {
	if n := t.lookup(addr); n != nil {
		t.evicted(key(addr), n)
	}
}
