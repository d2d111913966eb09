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

package underlay

import (
	"net"

	"github.com/songgao/water"
	"github.com/vishvananda/netlink"

	"github.com/hsrprp/hsrprp/pkg/log"
	"github.com/hsrprp/hsrprp/pkg/private/serrors"
)

// LookupLink returns the index and hardware address of an interface.
func LookupLink(name string) (Link, error) {
	l, err := netlink.LinkByName(name)
	if err != nil {
		return Link{}, serrors.Wrap("looking up interface", err, "interface", name)
	}
	attrs := l.Attrs()
	return Link{
		Name:  attrs.Name,
		Index: attrs.Index,
		Addr:  append(net.HardwareAddr(nil), attrs.HardwareAddr...),
	}, nil
}

// prepareSlave puts a ring interface into promiscuous mode and brings it up.
func prepareSlave(name string) (Link, error) {
	l, err := netlink.LinkByName(name)
	if err != nil {
		return Link{}, serrors.Wrap("looking up interface", err, "interface", name)
	}
	if err := netlink.SetPromiscOn(l); err != nil {
		return Link{}, serrors.Wrap("enabling promiscuous mode", err, "interface", name)
	}
	if err := netlink.LinkSetUp(l); err != nil {
		return Link{}, serrors.Wrap("setting interface up", err, "interface", name)
	}
	log.Debug("Prepared slave interface", "interface", name, "index", l.Attrs().Index)
	return LookupLink(name)
}

// OpenTap creates (or opens) the TAP interface name, gives it the hardware
// address addr and brings it up.
func OpenTap(name string, addr net.HardwareAddr) (*TapConn, Link, error) {
	iface, err := water.New(water.Config{
		DeviceType:             water.TAP,
		PlatformSpecificParams: water.PlatformSpecificParams{Name: name},
	})
	if err != nil {
		return nil, Link{}, serrors.Wrap("creating tap interface", err, "interface", name)
	}
	setup := func() (Link, error) {
		l, err := netlink.LinkByName(iface.Name())
		if err != nil {
			return Link{}, err
		}
		if len(addr) != 0 {
			if err := netlink.LinkSetHardwareAddr(l, addr); err != nil {
				return Link{}, err
			}
		}
		if err := netlink.LinkSetUp(l); err != nil {
			return Link{}, err
		}
		return LookupLink(iface.Name())
	}
	link, err := setup()
	if err != nil {
		iface.Close()
		return nil, Link{}, serrors.Wrap("setting up tap interface", err, "interface", name)
	}
	log.Debug("Created tap interface", "interface", link.Name, "addr", link.Addr)
	return NewTapConn(iface), link, nil
}
