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

package hachi

// Key flags for the keypad bitfield.
const (
	Key0 = 1 << iota
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
)

// Key flags mapped by number.
var KeyFlags = []uint16{Key0, Key1, Key2, Key3, Key4, Key5, Key6, Key7,
	Key8, Key9, KeyA, KeyB, KeyC, KeyD, KeyE, KeyF}

// NoKey is returned by Keypad.Pressed when no key is held.
const NoKey uint8 = 0xFF

// A Keypad reports the state of the 16 key hex keyboard. 8, 4, 6 and 2 are
// typically used for directional input.
type Keypad interface {
	// IsPressed reports whether the key with the given code is held.
	IsPressed(key uint8) bool
	// Pressed returns the code of a held key, or NoKey.
	Pressed() uint8
}

// NullKeypad is the default keypad. No key is ever pressed.
type NullKeypad struct{}

func (NullKeypad) IsPressed(key uint8) bool { return false }
func (NullKeypad) Pressed() uint8           { return NoKey }

// KeyboardState is a Keypad backed by a bitfield of Key0...KeyF flags.
type KeyboardState uint16

func (k KeyboardState) IsPressed(key uint8) bool {
	if int(key) >= len(KeyFlags) {
		return false
	}
	return uint16(k)&KeyFlags[key] != 0
}

// Pressed returns the lowest held key.
func (k KeyboardState) Pressed() uint8 {
	for key, flag := range KeyFlags {
		if uint16(k)&flag != 0 {
			return uint8(key)
		}
	}
	return NoKey
}
