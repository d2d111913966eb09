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

package config

const idSample = "lre-1"

const deviceSample = `
# The name of the master TAP interface. (default hsr0)
name = "hsr0"

# The HSR protocol version, 0 or 1. (default 0)
version = 1

# The last byte of the supervision multicast address 01:15:4E:00:01:XX.
# (default 0)
supervision_addr_byte = 0

# Set if the NIC discards duplicates in hardware. (default false)
rx_offloaded = false

# Set if the NIC relays frames between the slave ports in hardware.
# (default false)
l2fwd_offloaded = false

# The send queue length of each port. (default 256)
queue_size = 256

# The largest frame accepted and produced, in bytes. At most 4109, the
# largest tagged frame whose LSDU size fits the 12 bit tag field.
# (default 2048)
max_frame_size = 2048

# The ring interfaces. (required)
slave_a = "eth1"
slave_b = "eth2"
`

const nodeTableSample = `
# How long a node that is no longer heard from is remembered. (default 60s)
forget_time = "60s"

# The interval between two prune runs. (default 3s)
prune_interval = "3s"

# How long one lane may be silent while the other one receives frames from a
# node before a ring error is reported. (default 3s)
max_slave_diff = "3s"

# The maximum number of remote nodes. 0 means unlimited. (default 0)
max_nodes = 0
`

const supervisionSample = `
# The interval between two life check frames. (default 2s)
life_check_interval = "2s"
`
