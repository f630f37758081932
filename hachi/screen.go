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

// Screen geometry.
const (
	// Width and Height of the screen in pixels.
	Width  = 64
	Height = 32
	// FramebufferSize is the size of the packed screen buffer in bytes.
	FramebufferSize = Width * Height / 8
)

// Pixel values.
const (
	PixelOff uint8 = 0x00
	PixelOn  uint8 = 0x01
)

/*
	Screen memory layout:
	                                     x ->
	  00000000 00000000 00000000 00000000 ...
	  00000000 01000000 00000000 00000000 ...
	y 00000000 00000000 00000000 00000000 ...
	| ...
	v

	the 1 is at screen coordinates 9, 1. Each row is Width/8 = 8 bytes and
	the leftmost pixel of a byte is its most significant bit, so the pixel
	lives in byte 1*8 + 9/8 = 9 at bit 7 - 9%8 = 6.
*/

// Framebuffer is the packed 1 bit per pixel screen buffer.
type Framebuffer [FramebufferSize]byte

func pixelIndex(x, y uint8) (index int, bit uint8) {
	return int(y)*Width/8 + int(x)/8, 7 - x%8
}

func inBounds(x, y uint8) bool {
	return x < Width && y < Height
}

// Pixel returns the value of the pixel at x,y. Coordinates outside the screen
// read as PixelOff.
func (f *Framebuffer) Pixel(x, y uint8) uint8 {
	if !inBounds(x, y) {
		return PixelOff
	}
	index, bit := pixelIndex(x, y)
	return (f[index] >> bit) & 0x01
}

// SetPixel turns the pixel at x,y on for PixelOn and off for PixelOff. Other
// values and coordinates outside the screen are ignored.
func (f *Framebuffer) SetPixel(x, y, v uint8) {
	if !inBounds(x, y) {
		return
	}
	index, bit := pixelIndex(x, y)
	switch v {
	case PixelOn:
		f[index] |= 0x01 << bit
	case PixelOff:
		f[index] &^= 0x01 << bit
	}
}

// XorPixel XORs v onto the pixel at x,y and returns the new value. Sprites are
// clipped, not wrapped: outside the screen nothing is written and PixelOff is
// returned.
func (f *Framebuffer) XorPixel(x, y, v uint8) uint8 {
	if !inBounds(x, y) {
		return PixelOff
	}
	current := f.Pixel(x, y)
	next := PixelOff
	if current != v {
		next = PixelOn
	}
	f.SetPixel(x, y, next)
	return next
}

// Clear turns off every pixel.
func (f *Framebuffer) Clear() {
	for i := range f {
		f[i] = 0
	}
}
