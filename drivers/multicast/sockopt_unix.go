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

//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package multicast

import (
	"net"

	"golang.org/x/sys/unix"
)

func setMulticastOptions(conn *net.UDPConn, ttl int, loopback bool) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}

	loop := 0
	if loopback {
		loop = 1
	}

	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_MULTICAST_TTL, ttl)
		if sockErr != nil {
			return
		}
		sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_MULTICAST_LOOP, loop)
	})
	if err != nil {
		return err
	}
	return sockErr
}
