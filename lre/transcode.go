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
	"encoding/binary"
	"errors"

	"github.com/hsrprp/hsrprp/pkg/hsr"
	"github.com/hsrprp/hsrprp/pkg/private/serrors"
)

var (
	errTranscode      = errors.New("transcoding frame")
	errNotSlave       = errors.New("tag target is not a slave port")
	errFrameTooShort  = errors.New("frame too short")
	errFrameTooLarge  = errors.New("frame exceeds maximum frame size")
	errMissingVariant = errors.New("frame has no variant")
)

// taggedFor returns the frame as sent on port p. A frame that was received
// with a tag is passed on unchanged; a plain frame gets a new tag carrying
// the lane of p.
func (d *Device) taggedFor(fi *frameInfo, p hsr.PortType) (*Frame, error) {
	if fi.tagged != nil {
		return fi.tagged.Clone(), nil
	}
	if fi.std == nil {
		return nil, serrors.JoinNoStack(errTranscode, errMissingVariant)
	}
	if !p.IsSlave() {
		return nil, serrors.JoinNoStack(errTranscode, errNotSlave, "port", p)
	}
	std := fi.std.Bytes()
	off := fi.off
	if len(std) < off+2 {
		return nil, serrors.JoinNoStack(errTranscode, errFrameTooShort, "len", len(std))
	}
	if len(std)+hsr.TagLen > d.maxFrameSize {
		return nil, serrors.JoinNoStack(errTranscode, errFrameTooLarge,
			"len", len(std)+hsr.TagLen, "max", d.maxFrameSize)
	}

	lsdu := len(std) + hsr.TagLen - hsr.EthHeaderLen
	if fi.isVLAN {
		lsdu -= hsr.VLANHeaderLen
	}
	if lsdu > hsr.MaxLSDU {
		return nil, serrors.JoinNoStack(errTranscode, errFrameTooLarge,
			"lsdu", lsdu, "max", hsr.MaxLSDU)
	}
	b := make([]byte, len(std)+hsr.TagLen)
	copy(b, std[:off])
	binary.BigEndian.PutUint16(b[off:], uint16(d.version.EtherType()))
	binary.BigEndian.PutUint16(b[off+2:], uint16(p.Lane())<<12|uint16(lsdu))
	binary.BigEndian.PutUint16(b[off+4:], fi.seqNr)
	copy(b[off+6:], std[off:])
	return NewFrame(b), nil
}

// strippedFor returns the frame as delivered to the local stack. The result
// for a tagged frame is computed once and shared by all callers.
func (d *Device) strippedFor(fi *frameInfo) (*Frame, error) {
	if fi.std != nil {
		return fi.std.Clone(), nil
	}
	if fi.tagged == nil {
		return nil, serrors.JoinNoStack(errTranscode, errMissingVariant)
	}
	tagged := fi.tagged.Bytes()
	off := fi.off
	if len(tagged) < off+2+hsr.TagLen {
		return nil, serrors.JoinNoStack(errTranscode, errFrameTooShort, "len", len(tagged))
	}
	b := make([]byte, 0, len(tagged)-hsr.TagLen)
	b = append(b, tagged[:off]...)
	b = append(b, tagged[off+hsr.TagLen:]...)
	fi.std = NewFrame(b)
	return fi.std.Clone(), nil
}
