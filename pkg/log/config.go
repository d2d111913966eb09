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

package log

import (
	"io"

	"go.uber.org/zap/zapcore"

	"github.com/hsrprp/hsrprp/pkg/private/serrors"
	"github.com/hsrprp/hsrprp/private/config"
)

const (
	DefaultConsoleLevel    = "info"
	DefaultConsoleFormat   = "human"
	DefaultStacktraceLevel = "none"
)

const consoleSample = `
# Console logging level (debug|info|error). (default info)
level = "info"

# Console logging format (human|json). (default human)
format = "human"

# Minimum level at which stack traces are attached (debug|info|error|none).
# (default none)
stacktrace_level = "none"

# Omit the caller location from log entries. (default false)
disable_caller = false
`

var _ config.Config = (*Config)(nil)

// Config is the configuration for the logger.
type Config struct {
	config.NoValidator
	Console ConsoleConfig `toml:"console,omitempty"`
}

func (c *Config) InitDefaults() {
	c.Console.InitDefaults()
}

func (c *Config) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	config.WriteSample(dst, path, ctx, &c.Console)
}

func (c *Config) ConfigName() string {
	return "log"
}

// ConsoleConfig is the config for the console logger.
type ConsoleConfig struct {
	Level           string `toml:"level,omitempty"`
	Format          string `toml:"format,omitempty"`
	StacktraceLevel string `toml:"stacktrace_level,omitempty"`
	DisableCaller   bool   `toml:"disable_caller,omitempty"`
}

func (c *ConsoleConfig) InitDefaults() {
	if c.Level == "" {
		c.Level = DefaultConsoleLevel
	}
	if c.Format == "" {
		c.Format = DefaultConsoleFormat
	}
	if c.StacktraceLevel == "" {
		c.StacktraceLevel = DefaultStacktraceLevel
	}
}

func (c *ConsoleConfig) Validate() error {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(c.Level)); err != nil {
		return serrors.Wrap("invalid console level", err, "level", c.Level)
	}
	if c.StacktraceLevel != "none" {
		if err := l.UnmarshalText([]byte(c.StacktraceLevel)); err != nil {
			return serrors.Wrap("invalid stacktrace level", err, "level", c.StacktraceLevel)
		}
	}
	switch c.Format {
	case "human", "json":
	default:
		return serrors.New("invalid console format", "format", c.Format)
	}
	return nil
}

func (c *ConsoleConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, consoleSample)
}

func (c *ConsoleConfig) ConfigName() string {
	return "console"
}
