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

import "math/rand"

// A ByteSource supplies uniformly distributed random bytes.
type ByteSource interface {
	Byte() uint8
}

type randomSource struct{ r *rand.Rand }

// NewRandomSource returns a ByteSource backed by math/rand with the given
// seed.
func NewRandomSource(seed int64) ByteSource {
	return randomSource{rand.New(rand.NewSource(seed))}
}

func (s randomSource) Byte() uint8 { return uint8(s.r.Uint32()) }
