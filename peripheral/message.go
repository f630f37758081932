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

// Package peripheral defines the datagram that carries the machine's
// peripheral state (screen, keys and sound) to external display services.
//
// Messages are msgpack maps with compact integers. The field names and their
// order are part of the wire format:
//
//	{"sound": bool, "keys": uint16, "screen": [256]uint8,
//	 "screenWidth": uint8, "screenHeight": uint8}
package peripheral

import (
	"bytes"
	"fmt"

	"github.com/Francesco149/hachicast/hachi"
	"github.com/vmihailenco/msgpack/v5"
)

// Message is a snapshot of the peripheral state of a machine.
type Message struct {
	Sound        bool   `msgpack:"sound"`
	Keys         uint16 `msgpack:"keys"`
	Screen       Screen `msgpack:"screen"`
	ScreenWidth  uint8  `msgpack:"screenWidth"`
	ScreenHeight uint8  `msgpack:"screenHeight"`
}

// Snapshot copies the peripheral state of c into a new message.
func Snapshot(c *hachi.Chip8) *Message {
	screen := make(Screen, hachi.FramebufferSize)
	copy(screen, c.Screen[:])
	return &Message{
		Sound:        c.Sound(),
		Keys:         c.KeyState(),
		Screen:       screen,
		ScreenWidth:  hachi.Width,
		ScreenHeight: hachi.Height,
	}
}

// Pixel returns the value of the pixel at x,y of the packed screen, or
// hachi.PixelOff if the coordinates fall outside of it.
func (m *Message) Pixel(x, y int) uint8 {
	if x < 0 || y < 0 || x >= int(m.ScreenWidth) || y >= int(m.ScreenHeight) {
		return hachi.PixelOff
	}
	index := y*int(m.ScreenWidth)/8 + x/8
	if index >= len(m.Screen) {
		return hachi.PixelOff
	}
	return m.Screen[index] >> (7 - uint(x)%8) & 0x01
}

// Screen is the packed framebuffer. It is encoded as an array of integers
// rather than as a msgpack binary.
type Screen []byte

// EncodeMsgpack implements msgpack.CustomEncoder.
func (s Screen) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(len(s)); err != nil {
		return err
	}
	for _, b := range s {
		if err := enc.EncodeUint(uint64(b)); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (s *Screen) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n < 0 {
		*s = nil
		return nil
	}
	if n > hachi.FramebufferSize {
		return fmt.Errorf("screen of %v bytes exceeds %v bytes", n, hachi.FramebufferSize)
	}

	screen := make(Screen, n)
	for i := range screen {
		if screen[i], err = dec.DecodeUint8(); err != nil {
			return err
		}
	}
	*s = screen
	return nil
}

// Marshal encodes a message into a datagram payload.
func Marshal(m *Message) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encoding message: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a datagram payload.
func Unmarshal(data []byte) (*Message, error) {
	m := &Message{}
	if err := msgpack.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("decoding message: %w", err)
	}
	return m, nil
}
