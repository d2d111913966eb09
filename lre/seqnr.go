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
	"sync"
)

// SequenceCounter hands out 16 bit sequence numbers. It wraps around.
type SequenceCounter struct {
	mtx  sync.Mutex
	next uint16
}

// NewSequenceCounter returns a counter whose first value is start.
func NewSequenceCounter(start uint16) *SequenceCounter {
	return &SequenceCounter{next: start}
}

// Next returns the current value and advances the counter.
func (c *SequenceCounter) Next() uint16 {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	v := c.next
	c.next++
	return v
}
