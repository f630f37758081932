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

// Package viewer receives peripheral state datagrams from a multicast group
// and shows the screen they carry in the terminal using termloop.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/Francesco149/hachicast/peripheral"
	"github.com/retroenv/retrogolib/log"
)

// maxDatagramSize bounds a single received datagram.
const maxDatagramSize = 64 * 1024

// Listen joins the multicast group on the named network interface, or on the
// system default interface if iface is empty, and returns a channel of decoded
// messages. The channel is closed once ctx is done. Datagrams that fail to
// decode are logged and dropped.
func Listen(ctx context.Context, logger *log.Logger, group, iface string) (<-chan *peripheral.Message, error) {
	addr, err := net.ResolveUDPAddr("udp4", group)
	if err != nil {
		return nil, fmt.Errorf("resolving group '%s': %w", group, err)
	}

	var ifi *net.Interface
	if iface != "" {
		if ifi, err = net.InterfaceByName(iface); err != nil {
			return nil, fmt.Errorf("looking up interface '%s': %w", iface, err)
		}
	}

	var conn *net.UDPConn
	if addr.IP.IsMulticast() {
		conn, err = net.ListenMulticastUDP("udp4", ifi, addr)
	} else {
		conn, err = net.ListenUDP("udp4", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("joining group '%s': %w", group, err)
	}
	logger.Info("Listening for peripheral state", log.String("group", group))

	messages := make(chan *peripheral.Message, 16)
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	go receive(ctx, logger, conn, messages)
	return messages, nil
}

func receive(ctx context.Context, logger *log.Logger, conn *net.UDPConn,
	messages chan<- *peripheral.Message) {

	defer close(messages)
	buf := make([]byte, maxDatagramSize)

	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				logger.Error("Receiving datagram failed", err)
			}
			return
		}

		m, err := peripheral.Unmarshal(buf[:n])
		if err != nil {
			logger.Error("Dropping datagram", err,
				log.String("from", from.String()))
			continue
		}

		select {
		case messages <- m:
		case <-ctx.Done():
			return
		}
	}
}
