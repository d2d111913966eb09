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

// Package config describes the configuration of the link redundancy entity.
package config

import (
	"io"
	"time"

	"github.com/hsrprp/hsrprp/lre"
	"github.com/hsrprp/hsrprp/lre/node"
	"github.com/hsrprp/hsrprp/pkg/hsr"
	"github.com/hsrprp/hsrprp/pkg/log"
	"github.com/hsrprp/hsrprp/pkg/private/serrors"
	"github.com/hsrprp/hsrprp/pkg/private/util"
	"github.com/hsrprp/hsrprp/private/config"
	"github.com/hsrprp/hsrprp/private/env"
)

const (
	// DefaultDeviceName is the name of the master interface if none is
	// configured.
	DefaultDeviceName = "hsr0"
	// DefaultSupervisionAddrByte is the last byte of the default supervision
	// multicast address 01:15:4E:00:01:00.
	DefaultSupervisionAddrByte = 0
)

var _ config.Config = (*Config)(nil)

// Config is the LRE configuration.
type Config struct {
	General     env.General       `toml:"general,omitempty"`
	Logging     log.Config        `toml:"log,omitempty"`
	Metrics     env.Metrics       `toml:"metrics,omitempty"`
	API         env.API           `toml:"api,omitempty"`
	Device      DeviceConfig      `toml:"device,omitempty"`
	NodeTable   NodeTableConfig   `toml:"node_table,omitempty"`
	Supervision SupervisionConfig `toml:"supervision,omitempty"`
}

// InitDefaults initializes the default values for all parts of the config.
func (cfg *Config) InitDefaults() {
	config.InitAll(
		&cfg.General,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.API,
		&cfg.Device,
		&cfg.NodeTable,
		&cfg.Supervision,
	)
}

// Validate validates all parts of the config.
func (cfg *Config) Validate() error {
	return config.ValidateAll(
		&cfg.General,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.API,
		&cfg.Device,
		&cfg.NodeTable,
		&cfg.Supervision,
	)
}

// Sample generates a sample config file for the LRE.
func (cfg *Config) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteSample(dst, path, config.CtxMap{config.ID: idSample},
		&cfg.General,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.API,
		&cfg.Device,
		&cfg.NodeTable,
		&cfg.Supervision,
	)
}

func (cfg *Config) ConfigName() string {
	return "lre_config"
}

var _ config.Config = (*DeviceConfig)(nil)

// DeviceConfig describes the redundancy device and its interfaces.
type DeviceConfig struct {
	// Name is the name of the master TAP interface.
	Name string `toml:"name,omitempty"`
	// Version is the HSR protocol version, 0 or 1.
	Version uint8 `toml:"version,omitempty"`
	// SupervisionAddrByte is the last byte of the supervision multicast
	// address.
	SupervisionAddrByte uint8 `toml:"supervision_addr_byte,omitempty"`
	// RxOffloaded is set when the NIC discards duplicates.
	RxOffloaded bool `toml:"rx_offloaded,omitempty"`
	// L2FwdOffloaded is set when the NIC relays frames between the slaves.
	L2FwdOffloaded bool `toml:"l2fwd_offloaded,omitempty"`
	// QueueSize is the send queue length of each port.
	QueueSize int `toml:"queue_size,omitempty"`
	// MaxFrameSize is the largest frame accepted and produced.
	MaxFrameSize int `toml:"max_frame_size,omitempty"`
	// SlaveA and SlaveB are the names of the ring interfaces.
	SlaveA string `toml:"slave_a,omitempty"`
	SlaveB string `toml:"slave_b,omitempty"`
}

func (cfg *DeviceConfig) InitDefaults() {
	if cfg.Name == "" {
		cfg.Name = DefaultDeviceName
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = lre.DefaultQueueSize
	}
	if cfg.MaxFrameSize == 0 {
		cfg.MaxFrameSize = lre.DefaultMaxFrameSize
	}
}

func (cfg *DeviceConfig) Validate() error {
	if cfg.SlaveA == "" || cfg.SlaveB == "" {
		return serrors.New("both slave interfaces must be configured",
			"slave_a", cfg.SlaveA, "slave_b", cfg.SlaveB)
	}
	if cfg.SlaveA == cfg.SlaveB || cfg.SlaveA == cfg.Name || cfg.SlaveB == cfg.Name {
		return serrors.New("interface names must be distinct",
			"name", cfg.Name, "slave_a", cfg.SlaveA, "slave_b", cfg.SlaveB)
	}
	if hsr.Version(cfg.Version) > hsr.V1 {
		return serrors.New("unsupported protocol version", "version", cfg.Version)
	}
	if cfg.QueueSize < 0 {
		return serrors.New("negative queue size", "queue_size", cfg.QueueSize)
	}
	if cfg.MaxFrameSize < hsr.MinFrameLen+hsr.TagLen {
		return serrors.New("max frame size too small", "max_frame_size", cfg.MaxFrameSize,
			"min", hsr.MinFrameLen+hsr.TagLen)
	}
	if cfg.MaxFrameSize > hsr.MaxFrameLen {
		return serrors.New("max frame size too large", "max_frame_size", cfg.MaxFrameSize,
			"max", hsr.MaxFrameLen)
	}
	return nil
}

func (cfg *DeviceConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, deviceSample)
}

func (cfg *DeviceConfig) ConfigName() string {
	return "device"
}

// LREConfig returns the device configuration understood by the forwarding
// engine.
func (cfg *DeviceConfig) LREConfig() lre.DeviceConfig {
	return lre.DeviceConfig{
		Name:            cfg.Name,
		Version:         hsr.Version(cfg.Version),
		SupervisionAddr: hsr.SupervisionAddr(cfg.SupervisionAddrByte),
		RxOffloaded:     cfg.RxOffloaded,
		L2FwdOffloaded:  cfg.L2FwdOffloaded,
		QueueSize:       cfg.QueueSize,
		MaxFrameSize:    cfg.MaxFrameSize,
	}
}

var _ config.Config = (*NodeTableConfig)(nil)

// NodeTableConfig configures the node registry.
type NodeTableConfig struct {
	ForgetTime    util.DurWrap `toml:"forget_time,omitempty"`
	PruneInterval util.DurWrap `toml:"prune_interval,omitempty"`
	MaxSlaveDiff  util.DurWrap `toml:"max_slave_diff,omitempty"`
	// MaxNodes limits the number of remote nodes. Zero means unlimited.
	MaxNodes int `toml:"max_nodes,omitempty"`
}

func (cfg *NodeTableConfig) InitDefaults() {
	initDurWrap(&cfg.ForgetTime, node.DefaultForgetTime)
	initDurWrap(&cfg.PruneInterval, node.DefaultPruneInterval)
	initDurWrap(&cfg.MaxSlaveDiff, node.DefaultMaxSlaveDiff)
}

func (cfg *NodeTableConfig) Validate() error {
	if cfg.MaxNodes < 0 {
		return serrors.New("negative max nodes", "max_nodes", cfg.MaxNodes)
	}
	if cfg.MaxSlaveDiff.Duration >= cfg.ForgetTime.Duration {
		return serrors.New("max slave diff must be below the forget time",
			"max_slave_diff", cfg.MaxSlaveDiff, "forget_time", cfg.ForgetTime)
	}
	return nil
}

func (cfg *NodeTableConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, nodeTableSample)
}

func (cfg *NodeTableConfig) ConfigName() string {
	return "node_table"
}

// TableConfig returns the configuration of the node table.
func (cfg *NodeTableConfig) TableConfig() node.Config {
	return node.Config{
		ForgetTime:   cfg.ForgetTime.Duration,
		MaxSlaveDiff: cfg.MaxSlaveDiff.Duration,
		MaxNodes:     cfg.MaxNodes,
	}
}

var _ config.Config = (*SupervisionConfig)(nil)

// SupervisionConfig configures the emission of supervision frames.
type SupervisionConfig struct {
	config.NoValidator
	LifeCheckInterval util.DurWrap `toml:"life_check_interval,omitempty"`
}

func (cfg *SupervisionConfig) InitDefaults() {
	initDurWrap(&cfg.LifeCheckInterval, lre.DefaultLifeCheckInterval)
}

func (cfg *SupervisionConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, supervisionSample)
}

func (cfg *SupervisionConfig) ConfigName() string {
	return "supervision"
}

func initDurWrap(w *util.DurWrap, def time.Duration) {
	if w.Duration == 0 {
		w.Duration = def
	}
}
