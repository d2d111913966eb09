// Copyright 2018 Anapaya Systems
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

// Package util contains small helpers shared by the configuration code.
package util

import (
	"encoding"
	"time"

	"github.com/hsrprp/hsrprp/pkg/private/serrors"
)

var _ encoding.TextUnmarshaler = (*DurWrap)(nil)
var _ encoding.TextMarshaler = DurWrap{}

// DurWrap wraps a duration so it can be written as a string such as "400ms"
// in TOML files.
type DurWrap struct {
	time.Duration
}

func (d *DurWrap) UnmarshalText(text []byte) error {
	return d.Set(string(text))
}

// Set parses text as a duration. Negative durations are rejected.
func (d *DurWrap) Set(text string) error {
	dur, err := time.ParseDuration(text)
	if err != nil {
		return serrors.Wrap("parsing duration", err, "input", text)
	}
	if dur < 0 {
		return serrors.New("negative duration", "input", text)
	}
	d.Duration = dur
	return nil
}

func (d DurWrap) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func (d DurWrap) String() string {
	return d.Duration.String()
}
