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

import "fmt"

// An Instruction is a decoded CHIP-8 instruction or a chunk of raw data that
// doesn't decode to any instruction.
type Instruction struct {
	// Raw bytes of the instruction, 2 bytes for instructions and 1 or 2 for
	// raw data.
	Data []byte
	// Mnemonic is the pseudo-asm name, "DB" for raw data.
	Mnemonic string
	// Operands in pseudo-asm notation, may be empty.
	Operands string
	// Description is a detailed description of what the instruction does.
	Description string
	// Known is false for raw data.
	Known bool
}

// String returns a pseudo-asm representation of the instruction.
func (i Instruction) String() string {
	if i.Operands == "" {
		return i.Mnemonic
	}
	return i.Mnemonic + " " + i.Operands
}

// Opcode returns the data as a 16-bit integer.
func (i Instruction) Opcode() (res uint16) {
	res = uint16(i.Data[0])
	if len(i.Data) == 2 {
		res <<= 8
		res |= uint16(i.Data[1])
	}
	return
}

// Size returns the size of the instruction in bytes.
func (i Instruction) Size() int { return len(i.Data) }

// ASCII returns the ASCII representation of the raw data for this instruction.
// Returns an empty string if the data is not printable ascii.
func (i Instruction) ASCII() (res string) {
	if isPrintableASCII(i.Data) {
		res = string(i.Data)
	}
	return
}

// -----------------------------------------------------------------------------

type operandFormat func(op uint16) string

func noOperands(uint16) string { return "" }
func fmtAddr(op uint16) string { return fmt.Sprintf("%03X", op&0x0FFF) }
func fmtVX(op uint16) string   { return fmt.Sprintf("V%1X", op>>8&0x0F) }
func fmtVXNN(op uint16) string {
	return fmt.Sprintf("V%1X,%02X", op>>8&0x0F, op&0x00FF)
}
func fmtVXVY(op uint16) string {
	return fmt.Sprintf("V%1X,V%1X", op>>8&0x0F, op>>4&0x0F)
}

// opcodeInfo matches instruction words with word&mask == value.
type opcodeInfo struct {
	mask, value uint16
	mnemonic    string
	operands    operandFormat
	description string
}

// opcodes lists every instruction the interpreter executes, the most specific
// patterns first.
var opcodes = []opcodeInfo{
	{0xFFFF, 0x00E0, "CLS", noOperands, "00E0: Clears the screen."},
	{0xFFFF, 0x00EE, "RET", noOperands, "00EE: Returns from a subroutine."},
	{0xF000, 0x1000, "JP", fmtAddr, "1NNN: Jumps to address NNN. " +
		"A jump to itself ends the program."},
	{0xF000, 0x2000, "CALL", fmtAddr, "2NNN: Calls subroutine at NNN."},
	{0xF000, 0x3000, "SE", fmtVXNN,
		"3XNN: Skips the next instruction if VX equals NN."},
	{0xF000, 0x4000, "SNE", fmtVXNN,
		"4XNN: Skips the next instruction if VX doesn't equal NN."},
	{0xF00F, 0x5000, "SE", fmtVXVY,
		"5XY0: Skips the next instruction if VX equals VY."},
	{0xF000, 0x6000, "LD", fmtVXNN, "6XNN: Sets VX to NN."},
	{0xF000, 0x7000, "ADD", fmtVXNN, "7XNN: Adds NN to VX. VF is not affected."},
	{0xF00F, 0x8000, "LD", fmtVXVY, "8XY0: Sets VX to the value of VY."},
	{0xF00F, 0x8001, "OR", fmtVXVY, "8XY1: Sets VX to VX | VY (bit-wise OR)."},
	{0xF00F, 0x8002, "AND", fmtVXVY, "8XY2: Sets VX to VX & VY (bit-wise AND)."},
	{0xF00F, 0x8003, "XOR", fmtVXVY, "8XY3: Sets VX to VX ^ VY (bit-wise XOR)."},
	{0xF00F, 0x8004, "ADD", fmtVXVY,
		"8XY4: VX += VY. VF = 1 when there's a carry, 0 when there isn't."},
	{0xF00F, 0x8005, "SUB", fmtVXVY,
		"8XY5: VX -= VY. VF = 0 when there's a borrow, 1 when there isn't."},
	{0xF00F, 0x8006, "SHR", fmtVX,
		"8XY6: VX >>= 1. VF = least significant bit prior to the shift."},
	{0xF00F, 0x8007, "SUBN", fmtVXVY, "8XY7: VX = VY - VX. " +
		"VF = 0 when there's a borrow, 1 when there isn't."},
	{0xF00F, 0x800E, "SHL", fmtVX,
		"8XYE: VX <<= 1. VF = most significant bit prior to the shift."},
	{0xF00F, 0x9000, "SNE", fmtVXVY,
		"9XY0: Skips the next instruction if VX doesn't equal VY."},
	{0xF000, 0xA000, "LD", func(op uint16) string {
		return fmt.Sprintf("I,%03X", op&0x0FFF)
	}, "ANNN: Sets I to the address NNN."},
	{0xF000, 0xB000, "JP", func(op uint16) string {
		return fmt.Sprintf("V0,%03X", op&0x0FFF)
	}, "BNNN: Jumps to the address NNN plus V0."},
	{0xF000, 0xC000, "RND", fmtVXNN,
		"CXNN: Sets VX to a random number (0-FF) & NN (bit-wise AND)."},
	{0xF000, 0xD000, "DRW", func(op uint16) string {
		return fmt.Sprintf("V%1X,V%1X,%1X", op>>8&0x0F, op>>4&0x0F, op&0x0F)
	}, "DXYN: Draws N rows of sprite pointed by I at VX,VY."},
	{0xF0FF, 0xE09E, "SKP", fmtVX,
		"EX9E: Skips the next instruction if the key stored in VX is pressed."},
	{0xF0FF, 0xE0A1, "SKNP", fmtVX, "EXA1: Skips the next instruction " +
		"if the key stored in VX isn't pressed."},
	{0xF0FF, 0xF007, "LD", func(op uint16) string {
		return fmt.Sprintf("V%1X,DT", op>>8&0x0F)
	}, "FX07: Sets VX to the value of the delay timer."},
	{0xF0FF, 0xF00A, "LD", func(op uint16) string {
		return fmt.Sprintf("V%1X,K", op>>8&0x0F)
	}, "FX0A: A key press is awaited, and then key number is stored in VX."},
	{0xF0FF, 0xF015, "LD", func(op uint16) string {
		return fmt.Sprintf("DT,V%1X", op>>8&0x0F)
	}, "FX15: Sets the delay timer to VX."},
	{0xF0FF, 0xF018, "LD", func(op uint16) string {
		return fmt.Sprintf("ST,V%1X", op>>8&0x0F)
	}, "FX18: Sets the sound timer to VX."},
	{0xF0FF, 0xF01E, "ADD", func(op uint16) string {
		return fmt.Sprintf("I,V%1X", op>>8&0x0F)
	}, "FX1E: Adds VX to I, keeping I within 12 bits."},
	{0xF0FF, 0xF029, "LD", func(op uint16) string {
		return fmt.Sprintf("I,CHAR V%1X", op>>8&0x0F)
	}, "FX29: Sets I to the location of the sprite for the character in VX."},
	{0xF0FF, 0xF033, "LD", func(op uint16) string {
		return fmt.Sprintf("[I],BCD V%1X", op>>8&0x0F)
	}, "FX33: Store BCD representation of VX in memory at I, I+1, and I+2."},
	{0xF0FF, 0xF055, "LD", func(op uint16) string {
		return fmt.Sprintf("[I],V%1X", op>>8&0x0F)
	}, "FX55: Stores V0 to VX in memory starting at address I."},
	{0xF0FF, 0xF065, "LD", func(op uint16) string {
		return fmt.Sprintf("V%1X,[I]", op>>8&0x0F)
	}, "FX65: Fills V0 to VX with values from memory starting at address I."},
}

func rawData(b []byte) Instruction {
	return Instruction{
		Data:        b,
		Mnemonic:    "DB",
		Operands:    fmt.Sprintf("% 02X", b),
		Description: "Unknown / Raw Data",
	}
}

// Decode decodes a single instruction word. Words the interpreter can't
// execute are returned as raw data.
func Decode(opcode uint16) Instruction {
	data := []byte{byte(opcode >> 8), byte(opcode)}
	for _, info := range opcodes {
		if opcode&info.mask == info.value {
			return Instruction{
				Data:        data,
				Mnemonic:    info.mnemonic,
				Operands:    info.operands(opcode),
				Description: info.description,
				Known:       true,
			}
		}
	}
	return rawData(data)
}

// DisassembleSimple disassembles raw data and returns an array of
// instructions. It assumes every instruction is even-aligned and cannot
// recognize raw data memory regions. A trailing odd byte is returned as raw
// data.
func DisassembleSimple(b []byte) (res []Instruction) {
	for i := 0; i+1 < len(b); i += 2 {
		res = append(res, Decode(uint16(b[i])<<8|uint16(b[i+1])))
	}
	if len(b)%2 != 0 {
		res = append(res, rawData(b[len(b)-1:]))
	}
	return
}

func isPrintableASCII(b []byte) bool {
	for _, c := range b {
		if c < ' ' || c > '~' {
			return false
		}
	}
	return true
}
