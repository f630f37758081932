/*
	Copyright 2015 Franc[e]sco (lolisamurai@tfwno.gf)
	This file is part of hachicast.
	hachicast is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.
	hachicast is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.
	You should have received a copy of the GNU General Public License
	along with hachicast. If not, see <http://www.gnu.org/licenses/>.
*/

// Package multicast implements a driver that publishes the peripheral state
// of the machine as a msgpack datagram to a UDP multicast group every time
// the screen is drawn or cleared.
//
// Parameters accepted by OpenDriver:
//
//	group     destination address, defaults to DefaultGroup
//	ttl       multicast time to live, 0~255, defaults to 255
//	loopback  deliver datagrams to listeners on this host, defaults to true
package multicast

import (
	"fmt"
	"net"
	"strconv"

	"github.com/Francesco149/hachicast/hachi"
	"github.com/Francesco149/hachicast/peripheral"
	"github.com/retroenv/retrogolib/log"
)

// Name is the name the driver is registered with.
const Name = "multicast"

// DefaultGroup is the group display services listen on.
const DefaultGroup = "224.0.0.8:9999"

// DefaultTTL is the multicast time to live of outgoing datagrams.
const DefaultTTL = 255

// A Driver sends a peripheral.Message after every screen update.
type Driver struct {
	conn   *net.UDPConn
	group  *net.UDPAddr
	logger *log.Logger
	sent   int
}

// Open connects a driver to the group named in params.
func Open(params map[string]string) (hachi.Driver, error) {
	group := DefaultGroup
	if v, ok := params["group"]; ok {
		group = v
	}
	addr, err := net.ResolveUDPAddr("udp4", group)
	if err != nil {
		return nil, fmt.Errorf("resolving group '%s': %w", group, err)
	}

	ttl := DefaultTTL
	if v, ok := params["ttl"]; ok {
		if ttl, err = strconv.Atoi(v); err != nil || ttl < 0 || ttl > 255 {
			return nil, fmt.Errorf("ttl must be in 0~255, got '%s'", v)
		}
	}

	loopback := true
	if v, ok := params["loopback"]; ok {
		if loopback, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("parsing loopback '%s': %w", v, err)
		}
	}

	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to '%s': %w", group, err)
	}
	if err := setMulticastOptions(conn, ttl, loopback); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("setting socket options: %w", err)
	}

	return &Driver{conn: conn, group: addr}, nil
}

// OnInit implements hachi.Driver.
func (d *Driver) OnInit(c *hachi.Chip8) error {
	d.logger = c.Logger()
	d.logger.Info("Multicast driver initialized",
		log.String("group", d.group.String()))
	return nil
}

// Cls implements hachi.Driver.
func (d *Driver) Cls(c *hachi.Chip8) error { return d.send(c) }

// UpdateScreen implements hachi.Driver.
func (d *Driver) UpdateScreen(c *hachi.Chip8) error { return d.send(c) }

// Close implements hachi.Driver.
func (d *Driver) Close() error {
	if d.logger != nil {
		d.logger.Debug("Multicast driver closed", log.Int("datagrams", d.sent))
	}
	return d.conn.Close()
}

// Sent returns the number of datagrams sent so far.
func (d *Driver) Sent() int { return d.sent }

func (d *Driver) send(c *hachi.Chip8) error {
	data, err := peripheral.Marshal(peripheral.Snapshot(c))
	if err != nil {
		return err
	}
	if _, err := d.conn.Write(data); err != nil {
		return fmt.Errorf("sending peripheral state: %w", err)
	}
	d.sent++
	return nil
}

func init() {
	if err := hachi.RegisterDriver(Name, Open); err != nil {
		panic(err)
	}
}
