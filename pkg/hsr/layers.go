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

package hsr

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"

	"github.com/hsrprp/hsrprp/pkg/private/serrors"
)

var (
	LayerTypeHSRTag = gopacket.RegisterLayerType(
		1900,
		gopacket.LayerTypeMetadata{
			Name:    "HSRTag",
			Decoder: gopacket.DecodeFunc(decodeTag),
		},
	)
	LayerClassHSRTag gopacket.LayerClass = LayerTypeHSRTag

	LayerTypeHSRSupervision = gopacket.RegisterLayerType(
		1901,
		gopacket.LayerTypeMetadata{
			Name:    "HSRSupervision",
			Decoder: gopacket.DecodeFunc(decodeSupervision),
		},
	)
	LayerClassHSRSupervision gopacket.LayerClass = LayerTypeHSRSupervision
)

// Tag is the redundancy tag that follows the outer ether type of a tagged
// frame. The outer ether type itself belongs to the preceding Ethernet or
// 802.1Q layer.
type Tag struct {
	layers.BaseLayer
	// Path is the 4 bit lane identifier.
	Path uint8
	// LSDUSize is the 12 bit link service data unit size: the frame length
	// without the Ethernet and 802.1Q headers.
	LSDUSize uint16
	SeqNr    uint16
	// EncapProto is the ether type of the encapsulated payload.
	EncapProto layers.EthernetType
}

func (t *Tag) LayerType() gopacket.LayerType {
	return LayerTypeHSRTag
}

func (t *Tag) CanDecode() gopacket.LayerClass {
	return LayerClassHSRTag
}

func (t *Tag) NextLayerType() gopacket.LayerType {
	if t.EncapProto == EtherTypeHSRv0 {
		return LayerTypeHSRSupervision
	}
	return t.EncapProto.LayerType()
}

func (t *Tag) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < TagLen {
		df.SetTruncated()
		return serrors.New("tag too short", "len", len(data))
	}
	pl := binary.BigEndian.Uint16(data[0:2])
	t.Path = uint8(pl >> 12)
	t.LSDUSize = pl & 0x0fff
	t.SeqNr = binary.BigEndian.Uint16(data[2:4])
	t.EncapProto = layers.EthernetType(binary.BigEndian.Uint16(data[4:6]))
	t.BaseLayer = layers.BaseLayer{Contents: data[:TagLen], Payload: data[TagLen:]}
	return nil
}

func (t *Tag) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	buf, err := b.PrependBytes(TagLen)
	if err != nil {
		return err
	}
	if opts.FixLengths {
		if len(b.Bytes()) > MaxLSDU {
			return serrors.New("lsdu too large", "len", len(b.Bytes()), "max", MaxLSDU)
		}
		t.LSDUSize = uint16(len(b.Bytes()))
	}
	if t.LSDUSize > MaxLSDU {
		return serrors.New("lsdu too large", "len", t.LSDUSize, "max", MaxLSDU)
	}
	binary.BigEndian.PutUint16(buf[0:2], uint16(t.Path&0x0f)<<12|t.LSDUSize)
	binary.BigEndian.PutUint16(buf[2:4], t.SeqNr)
	binary.BigEndian.PutUint16(buf[4:6], uint16(t.EncapProto))
	return nil
}

func (t *Tag) String() string {
	return fmt.Sprintf("Path=%d, LSDUSize=%d, SeqNr=%d, EncapProto=%s",
		t.Path, t.LSDUSize, t.SeqNr, t.EncapProto)
}

func decodeTag(data []byte, pb gopacket.PacketBuilder) error {
	t := &Tag{}
	if err := t.DecodeFromBytes(data, pb); err != nil {
		return err
	}
	pb.AddLayer(t)
	return pb.NextDecoder(t.NextLayerType())
}

// Supervision is the supervision tag with its single TLV. For version 0 it
// directly follows the Ethernet header; for version 1 it follows a Tag.
type Supervision struct {
	layers.BaseLayer
	// Path is the 4 bit path field, always 0 on the wire.
	Path uint8
	// Version is the 12 bit protocol version.
	Version   uint16
	SeqNr     uint16
	TLVType   uint8
	TLVLength uint8
	// MACAddressA is the canonical address of the announcing node.
	MACAddressA net.HardwareAddr
}

func (s *Supervision) LayerType() gopacket.LayerType {
	return LayerTypeHSRSupervision
}

func (s *Supervision) CanDecode() gopacket.LayerClass {
	return LayerClassHSRSupervision
}

func (s *Supervision) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypePayload
}

// Valid reports whether the TLV describes a supervision frame this package
// understands.
func (s *Supervision) Valid() bool {
	if s.TLVType != TLVAnnounce && s.TLVType != TLVLifeCheck {
		return false
	}
	return s.TLVLength == SupTLVLenV0 || s.TLVLength == SupTLVLenV1
}

func (s *Supervision) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	const l = SupTagLen + SupPayloadLen
	if len(data) < l {
		df.SetTruncated()
		return serrors.New("supervision tag too short", "len", len(data))
	}
	pv := binary.BigEndian.Uint16(data[0:2])
	s.Path = uint8(pv >> 12)
	s.Version = pv & 0x0fff
	s.SeqNr = binary.BigEndian.Uint16(data[2:4])
	s.TLVType = data[4]
	s.TLVLength = data[5]
	s.MACAddressA = net.HardwareAddr(data[6:12])
	s.BaseLayer = layers.BaseLayer{Contents: data[:l], Payload: data[l:]}
	return nil
}

func (s *Supervision) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	if len(s.MACAddressA) != 6 {
		return serrors.New("invalid MAC address A", "addr", s.MACAddressA)
	}
	buf, err := b.PrependBytes(SupTagLen + SupPayloadLen)
	if err != nil {
		return err
	}
	if opts.FixLengths {
		s.TLVLength = SupTLVLenV1
		if s.Version == 0 {
			s.TLVLength = SupTLVLenV0
		}
	}
	binary.BigEndian.PutUint16(buf[0:2], uint16(s.Path&0x0f)<<12|s.Version&0x0fff)
	binary.BigEndian.PutUint16(buf[2:4], s.SeqNr)
	buf[4] = s.TLVType
	buf[5] = s.TLVLength
	copy(buf[6:12], s.MACAddressA)
	return nil
}

func (s *Supervision) String() string {
	return fmt.Sprintf("Version=%d, SeqNr=%d, TLVType=%d, TLVLength=%d, MACAddressA=%s",
		s.Version, s.SeqNr, s.TLVType, s.TLVLength, s.MACAddressA)
}

func decodeSupervision(data []byte, pb gopacket.PacketBuilder) error {
	s := &Supervision{}
	if err := s.DecodeFromBytes(data, pb); err != nil {
		return err
	}
	pb.AddLayer(s)
	return pb.NextDecoder(gopacket.LayerTypePayload)
}
