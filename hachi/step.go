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

import (
	"fmt"

	"github.com/retroenv/retrogolib/log"
)

// Step runs exactly one fetch-decode-execute cycle.
// Returns ErrHalted when the program jumps to itself, a *BadCodeErr for an
// unknown instruction, or a stack or driver error.
func (c *Chip8) Step() error {
	addr := c.PC & AddressMask
	opcode := uint16(c.Memory[addr])<<8 |
		uint16(c.Memory[(addr+1)&AddressMask])
	c.PC = (addr + 2) & AddressMask

	if c.settings.Trace {
		c.logger.Debug("Step",
			log.String("address", fmt.Sprintf("%03X", addr)),
			log.String("instruction", Decode(opcode).String()))
	}

	x := uint8(opcode>>8) & 0x0F
	y := uint8(opcode>>4) & 0x0F
	n := uint8(opcode) & 0x0F
	nn := uint8(opcode)
	nnn := opcode & 0x0FFF

	switch opcode >> 12 {
	case 0x0:
		switch nnn {
		case 0x0E0:
			// CLS
			c.Screen.Clear()
			if err := c.driver.Cls(c); err != nil {
				return fmt.Errorf("clearing screen: %w", err)
			}
		case 0x0EE:
			// RET
			if len(c.Stack) == 0 {
				return &StackUnderflowErr{addr}
			}
			c.PC = c.Stack[len(c.Stack)-1]
			c.Stack = c.Stack[:len(c.Stack)-1]
		default:
			return &BadCodeErr{opcode, addr}
		}
	case 0x1:
		// JP NNN
		if nnn == addr {
			c.halt(addr)
			return ErrHalted
		}
		c.PC = nnn
	case 0x2:
		// CALL NNN
		if c.settings.StackSize > 0 && len(c.Stack) >= c.settings.StackSize {
			return &StackOverflowErr{len(c.Stack) + 1}
		}
		c.Stack = append(c.Stack, c.PC)
		c.PC = nnn
	case 0x3:
		// SE VX,NN
		if c.V[x] == nn {
			c.skip()
		}
	case 0x4:
		// SNE VX,NN
		if c.V[x] != nn {
			c.skip()
		}
	case 0x5:
		// SE VX,VY
		if n != 0 {
			return &BadCodeErr{opcode, addr}
		}
		if c.V[x] == c.V[y] {
			c.skip()
		}
	case 0x6:
		// LD VX,NN
		c.V[x] = nn
	case 0x7:
		// ADD VX,NN (no carry flag)
		c.V[x] += nn
	case 0x8:
		return c.alu(opcode, addr, x, y, n)
	case 0x9:
		// SNE VX,VY
		if n != 0 {
			return &BadCodeErr{opcode, addr}
		}
		if c.V[x] != c.V[y] {
			c.skip()
		}
	case 0xA:
		// LD I,NNN
		c.I = nnn
	case 0xB:
		// JP V0,NNN
		c.PC = (nnn + uint16(c.V[0])) & AddressMask
	case 0xC:
		// RND VX,NN
		c.V[x] = c.Random.Byte() & nn
	case 0xD:
		// DRW VX,VY,N
		return c.draw(x, y, n)
	case 0xE:
		switch nn {
		case 0x9E:
			// SKP VX
			if c.Keypad.IsPressed(c.V[x]) {
				c.skip()
			}
		case 0xA1:
			// SKNP VX
			if !c.Keypad.IsPressed(c.V[x]) {
				c.skip()
			}
		default:
			return &BadCodeErr{opcode, addr}
		}
	case 0xF:
		return c.misc(opcode, addr, x, nn)
	}

	return nil
}

// alu executes the 8XYN register to register instructions.
func (c *Chip8) alu(opcode, addr uint16, x, y, n uint8) error {
	switch n {
	case 0x0:
		// LD VX,VY
		c.V[x] = c.V[y]
	case 0x1:
		// OR VX,VY
		c.V[x] |= c.V[y]
	case 0x2:
		// AND VX,VY
		c.V[x] &= c.V[y]
	case 0x3:
		// XOR VX,VY
		c.V[x] ^= c.V[y]
	case 0x4:
		// ADD VX,VY
		result := uint16(c.V[x]) + uint16(c.V[y])
		if result > 0xFF {
			c.V[FlagRegister] = 1
		} else {
			c.V[FlagRegister] = 0
		}
		// only store the 8 least significant bits
		c.V[x] = uint8(result)
	case 0x5:
		// SUB VX,VY
		noBorrow := c.V[x] >= c.V[y]
		c.V[x] -= c.V[y]
		c.V[FlagRegister] = flag(noBorrow)
	case 0x6:
		// SHR VX
		c.V[FlagRegister] = c.V[x] & 0x01 // least significant bit
		c.V[x] >>= 1
	case 0x7:
		// SUBN VX,VY
		noBorrow := c.V[y] >= c.V[x]
		c.V[x] = c.V[y] - c.V[x]
		c.V[FlagRegister] = flag(noBorrow)
	case 0xE:
		// SHL VX
		c.V[FlagRegister] = c.V[x] >> 7 // most significant bit
		c.V[x] <<= 1
	default:
		return &BadCodeErr{opcode, addr}
	}
	return nil
}

// misc executes the FXNN timer, keyboard and memory instructions.
func (c *Chip8) misc(opcode, addr uint16, x, nn uint8) error {
	switch nn {
	case 0x07:
		// LD VX,DT
		c.V[x] = c.DT
	case 0x0A:
		// LD VX,K
		// there is no real blocking: the instruction is executed again until
		// the keypad reports a key.
		key := c.Keypad.Pressed()
		if key == NoKey {
			c.PC = addr
		} else {
			c.V[x] = key
		}
	case 0x15:
		// LD DT,VX
		c.DT = c.V[x]
	case 0x18:
		// LD ST,VX
		c.ST = c.V[x]
	case 0x1E:
		// ADD I,VX
		c.I = (c.I + uint16(c.V[x])) & AddressMask
	case 0x29:
		// LD I,CHAR VX
		c.I = FontAddress + uint16(c.V[x]&0x0F)*FontGlyphSize
	case 0x33:
		// LD [I],BCD VX
		value := c.V[x]
		c.Memory[c.I&AddressMask] = value / 100            // hundreds
		c.Memory[(c.I+1)&AddressMask] = (value / 10) % 10 // tens
		c.Memory[(c.I+2)&AddressMask] = value % 10         // ones
	case 0x55:
		// LD [I],VX
		for i := uint16(0); i <= uint16(x); i++ {
			c.Memory[(c.I+i)&AddressMask] = c.V[i]
		}
	case 0x65:
		// LD VX,[I]
		for i := uint16(0); i <= uint16(x); i++ {
			c.V[i] = c.Memory[(c.I+i)&AddressMask]
		}
	default:
		return &BadCodeErr{opcode, addr}
	}
	return nil
}

// draw XORs an n rows tall sprite read from I onto the screen at VX,VY.
// Pixels past the right or bottom edge are clipped.
func (c *Chip8) draw(vx, vy, rows uint8) error {
	x := c.V[vx] % Width
	y := c.V[vy] % Height
	c.V[FlagRegister] = 0

	for row := uint8(0); row < rows; row++ {
		bits := c.Memory[(c.I+uint16(row))&AddressMask]
		py := y + row
		if py >= Height {
			break
		}

		for col := uint8(0); col < 8; col++ {
			px := x + col
			if px >= Width {
				break
			}
			bit := (bits >> (7 - col)) & 0x01
			if c.Screen.XorPixel(px, py, bit) == PixelOff && bit == PixelOn {
				// the pixel was set and the sprite turned it off
				c.V[FlagRegister] = 1
			}
		}
	}

	if err := c.driver.UpdateScreen(c); err != nil {
		return fmt.Errorf("updating screen: %w", err)
	}
	return nil
}

// halt resets the screen and timers after the program ended itself.
func (c *Chip8) halt(addr uint16) {
	c.Screen.Clear()
	c.DT = 0
	c.ST = 0
	c.logger.Info("Ended execution due to infinite loop",
		log.String("address", fmt.Sprintf("%03X", addr)))
}

// skip steps over the next instruction.
func (c *Chip8) skip() { c.PC = (c.PC + 2) & AddressMask }

func flag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
