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
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

// fixedSource returns its values in order, starting over at the end.
type fixedSource struct {
	values []uint8
	next   int
}

func (s *fixedSource) Byte() uint8 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// recordingDriver counts the driver calls.
type recordingDriver struct {
	NullDriver
	cls, draws int
	err        error
}

func (d *recordingDriver) Cls(c *Chip8) error {
	d.cls++
	return d.err
}

func (d *recordingDriver) UpdateScreen(c *Chip8) error {
	d.draws++
	return d.err
}

func words(w ...uint16) []byte {
	b := make([]byte, 0, len(w)*2)
	for _, v := range w {
		b = append(b, byte(v>>8), byte(v))
	}
	return b
}

func newTestChip8(t *testing.T, program ...uint16) *Chip8 {
	t.Helper()
	c, err := New(log.NewTestLogger(t), nil, nil)
	assert.NoError(t, err)
	assert.NoError(t, c.LoadRaw(words(program...)))
	return c
}

// exec places opcode at ProgramStart and executes it.
func exec(t *testing.T, c *Chip8, opcode uint16) {
	t.Helper()
	c.Memory[ProgramStart] = byte(opcode >> 8)
	c.Memory[ProgramStart+1] = byte(opcode)
	c.PC = ProgramStart
	assert.NoError(t, c.Step())
}

func TestNew(t *testing.T) {
	c := newTestChip8(t)

	assert.Equal(t, uint16(ProgramStart), c.PC)
	assert.Equal(t, font[:], c.Memory[FontAddress:FontAddress+len(font)])
	assert.Equal(t, 0, len(c.Stack))
	assert.Equal(t, uint8(NoKey), c.Keypad.Pressed())
}

func TestNewInvalidSettings(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
	}{
		{"negative stack", Settings{StackSize: -1, InstructionsPerSecond: 1}},
		{"zero speed", Settings{InstructionsPerSecond: 0}},
		{"too fast", Settings{InstructionsPerSecond: 2000000}},
		{"negative timer", Settings{InstructionsPerSecond: 1, TimerFrequency: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(log.NewTestLogger(t), nil, &tt.settings)
			assert.True(t, err != nil)
		})
	}
}

func TestLoadRaw(t *testing.T) {
	c := newTestChip8(t)

	program := make([]byte, MemorySize-ProgramStart)
	program[0] = 0x12
	program[len(program)-1] = 0x34
	assert.NoError(t, c.LoadRaw(program))
	assert.Equal(t, uint8(0x12), c.Memory[ProgramStart])
	assert.Equal(t, uint8(0x34), c.Memory[MemorySize-1])

	err := c.LoadRaw(make([]byte, MemorySize-ProgramStart+1))
	var oom *OutOfMemoryErr
	assert.True(t, errors.As(err, &oom))
	assert.Equal(t, int64(MemorySize-ProgramStart+1), oom.ProgramSize)
}

func TestLoadMissingFile(t *testing.T) {
	c := newTestChip8(t)
	_, err := c.Load(t.TempDir() + "/missing.ch8")
	assert.True(t, err != nil)
}

func TestAddImmediateWraps(t *testing.T) {
	c := newTestChip8(t)

	for value := 0; value < 256; value++ {
		for _, nn := range []uint8{0x00, 0x01, 0x7F, 0x80, 0xFF} {
			c.V[3] = uint8(value)
			c.V[FlagRegister] = 0xAA
			exec(t, c, 0x7300|uint16(nn))
			assert.Equal(t, uint8((value+int(nn))%256), c.V[3])
			assert.Equal(t, uint8(0xAA), c.V[FlagRegister])
		}
	}
}

func TestAddRegisterCarry(t *testing.T) {
	c := newTestChip8(t)

	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			c.V[1] = uint8(a)
			c.V[2] = uint8(b)
			exec(t, c, 0x8124)

			sum := a + b
			carry := uint8(0)
			if sum > 255 {
				carry = 1
			}
			if c.V[1] != uint8(sum%256) || c.V[FlagRegister] != carry {
				t.Fatalf("ADD V1,V2 with %02X+%02X: got %02X VF=%d",
					a, b, c.V[1], c.V[FlagRegister])
			}
			assert.Equal(t, uint8(b), c.V[2])
		}
	}
}

func TestSubRegisterBorrow(t *testing.T) {
	c := newTestChip8(t)

	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			c.V[4] = uint8(a)
			c.V[5] = uint8(b)
			exec(t, c, 0x8455)

			noBorrow := uint8(0)
			if a >= b {
				noBorrow = 1
			}
			if c.V[4] != uint8(a-b) || c.V[FlagRegister] != noBorrow {
				t.Fatalf("SUB V4,V5 with %02X-%02X: got %02X VF=%d",
					a, b, c.V[4], c.V[FlagRegister])
			}

			c.V[4] = uint8(a)
			c.V[5] = uint8(b)
			exec(t, c, 0x8457)

			noBorrow = 0
			if b >= a {
				noBorrow = 1
			}
			if c.V[4] != uint8(b-a) || c.V[FlagRegister] != noBorrow {
				t.Fatalf("SUBN V4,V5 with %02X-%02X: got %02X VF=%d",
					b, a, c.V[4], c.V[FlagRegister])
			}
		}
	}
}

func TestRegisterOperations(t *testing.T) {
	tests := []struct {
		name     string
		opcode   uint16
		vx, vy   uint8
		expected uint8
		flag     uint8
	}{
		{"LD", 0x8120, 0x11, 0x22, 0x22, 0x00},
		{"OR", 0x8121, 0xF0, 0x0F, 0xFF, 0x00},
		{"AND", 0x8122, 0xF3, 0x3F, 0x33, 0x00},
		{"XOR", 0x8123, 0xFF, 0x0F, 0xF0, 0x00},
		{"SHR odd", 0x8126, 0x05, 0x00, 0x02, 0x01},
		{"SHR even", 0x8126, 0x04, 0x00, 0x02, 0x00},
		{"SHL high bit", 0x812E, 0x81, 0x00, 0x02, 0x01},
		{"SHL no high bit", 0x812E, 0x41, 0x00, 0x82, 0x00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestChip8(t)
			c.V[1] = tt.vx
			c.V[2] = tt.vy
			exec(t, c, tt.opcode)
			assert.Equal(t, tt.expected, c.V[1])
			assert.Equal(t, tt.vy, c.V[2])
			assert.Equal(t, tt.flag, c.V[FlagRegister])
		})
	}
}

func TestFlagRegisterAsOperand(t *testing.T) {
	c := newTestChip8(t)

	// the carry is written before the sum
	c.V[FlagRegister] = 0xFF
	c.V[1] = 0x02
	exec(t, c, 0x8F14)
	assert.Equal(t, uint8(0x01), c.V[FlagRegister])

	// the borrow flag is written after the difference
	c.V[FlagRegister] = 0x05
	c.V[1] = 0x01
	exec(t, c, 0x8F15)
	assert.Equal(t, uint8(1), c.V[FlagRegister])
}

func TestSkips(t *testing.T) {
	tests := []struct {
		name   string
		opcode uint16
		v1, v2 uint8
		skip   bool
	}{
		{"SE VX,NN equal", 0x3142, 0x42, 0, true},
		{"SE VX,NN different", 0x3142, 0x41, 0, false},
		{"SNE VX,NN equal", 0x4142, 0x42, 0, false},
		{"SNE VX,NN different", 0x4142, 0x41, 0, true},
		{"SE VX,VY equal", 0x5120, 7, 7, true},
		{"SE VX,VY different", 0x5120, 7, 8, false},
		{"SNE VX,VY equal", 0x9120, 7, 7, false},
		{"SNE VX,VY different", 0x9120, 7, 8, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestChip8(t)
			c.V[1] = tt.v1
			c.V[2] = tt.v2
			exec(t, c, tt.opcode)

			expected := uint16(ProgramStart + 2)
			if tt.skip {
				expected += 2
			}
			assert.Equal(t, expected, c.PC)
		})
	}
}

func TestJumpToSelfHalts(t *testing.T) {
	c := newTestChip8(t, 0x1200)
	c.Screen.SetPixel(1, 1, PixelOn)
	c.DT = 10
	c.ST = 10

	err := c.Step()
	assert.True(t, errors.Is(err, ErrHalted))
	assert.Equal(t, PixelOff, c.Screen.Pixel(1, 1))
	assert.Equal(t, uint8(0), c.DT)
	assert.Equal(t, uint8(0), c.ST)
}

func TestJumps(t *testing.T) {
	c := newTestChip8(t, 0x1208, 0x0000, 0x0000, 0x0000, 0xB300)

	assert.NoError(t, c.Step())
	assert.Equal(t, uint16(0x208), c.PC)

	c.V[0] = 0x21
	assert.NoError(t, c.Step())
	assert.Equal(t, uint16(0x321), c.PC)
}

func TestProgramCounterStaysInMemory(t *testing.T) {
	tests := []struct {
		name  string
		pc    uint16
		word  uint16
		v0    uint8
		keys  KeyboardState
		after uint16
	}{
		{"jump with offset", ProgramStart, 0xBFFF, 0xFF, 0, 0x0FE},
		{"fetch at last word", 0xFFE, 0x6000, 0, 0, 0x000},
		{"fetch at last byte", 0xFFF, 0x6000, 0, 0, 0x001},
		{"skip past the end", 0xFFE, 0x3000, 0, 0, 0x002},
		{"wait for key at last word", 0xFFE, 0xF00A, 0, 0, 0xFFE},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestChip8(t)
			c.Memory[tt.pc] = byte(tt.word >> 8)
			c.Memory[(tt.pc+1)&AddressMask] = byte(tt.word)
			c.PC = tt.pc
			c.V[0] = tt.v0
			c.Keypad = tt.keys

			assert.NoError(t, c.Step())
			assert.Equal(t, tt.after, c.PC)
		})
	}
}

func TestCallAndReturn(t *testing.T) {
	// 200: CALL 206
	// 202: JP 202
	// 204: (unused)
	// 206: RET
	c := newTestChip8(t, 0x2206, 0x1202, 0x0000, 0x00EE)

	assert.NoError(t, c.Step())
	assert.Equal(t, uint16(0x206), c.PC)
	assert.Equal(t, []uint16{0x202}, c.Stack)

	assert.NoError(t, c.Step())
	assert.Equal(t, uint16(0x202), c.PC)
	assert.Equal(t, 0, len(c.Stack))

	assert.True(t, errors.Is(c.Step(), ErrHalted))
}

func TestReturnWithEmptyStack(t *testing.T) {
	c := newTestChip8(t, 0x00EE)

	var underflow *StackUnderflowErr
	assert.True(t, errors.As(c.Step(), &underflow))
	assert.Equal(t, uint16(ProgramStart), underflow.Address)
}

func TestStackSize(t *testing.T) {
	// recursive call to itself
	program := []uint16{0x2200}

	c, err := New(log.NewTestLogger(t), nil, &Settings{
		StackSize:             2,
		InstructionsPerSecond: 1,
	})
	assert.NoError(t, err)
	assert.NoError(t, c.LoadRaw(words(program...)))

	assert.NoError(t, c.Step())
	assert.NoError(t, c.Step())
	var overflow *StackOverflowErr
	assert.True(t, errors.As(c.Step(), &overflow))
	assert.Equal(t, 3, overflow.Depth)

	// the default stack grows without limit
	c = newTestChip8(t, program...)
	for i := 0; i < 100; i++ {
		assert.NoError(t, c.Step())
	}
	assert.Equal(t, 100, len(c.Stack))
}

func TestRandom(t *testing.T) {
	c := newTestChip8(t)
	c.Random = &fixedSource{values: []uint8{0xAB, 0xFF}}

	exec(t, c, 0xC50F)
	assert.Equal(t, uint8(0x0B), c.V[5])
	exec(t, c, 0xC5F0)
	assert.Equal(t, uint8(0xF0), c.V[5])
}

func TestIndexRegister(t *testing.T) {
	c := newTestChip8(t)

	exec(t, c, 0xAFFE)
	assert.Equal(t, uint16(0xFFE), c.I)

	c.V[2] = 0x03
	exec(t, c, 0xF21E)
	assert.Equal(t, uint16(0x001), c.I)

	// VF is not affected by the overflow
	assert.Equal(t, uint8(0), c.V[FlagRegister])
}

func TestFontLookup(t *testing.T) {
	c := newTestChip8(t)

	c.V[7] = 0xA
	exec(t, c, 0xF729)
	assert.Equal(t, uint16(0x082), c.I)

	// only the low hex digit selects the glyph
	c.V[7] = 0x3A
	exec(t, c, 0xF729)
	assert.Equal(t, uint16(0x082), c.I)
}

func TestBCD(t *testing.T) {
	tests := []struct {
		value    uint8
		expected []byte
	}{
		{234, []byte{2, 3, 4}},
		{0, []byte{0, 0, 0}},
		{7, []byte{0, 0, 7}},
		{255, []byte{2, 5, 5}},
	}

	for _, tt := range tests {
		c := newTestChip8(t)
		c.I = 0x300
		c.V[3] = tt.value
		exec(t, c, 0xF333)
		assert.Equal(t, tt.expected, c.Memory[0x300:0x303])
	}
}

func TestRegisterDumpAndLoad(t *testing.T) {
	c := newTestChip8(t)
	for i := range c.V {
		c.V[i] = uint8(0x10 + i)
	}

	c.I = 0x400
	exec(t, c, 0xF355)
	assert.Equal(t, []byte{0x10, 0x11, 0x12, 0x13, 0x00}, c.Memory[0x400:0x405])
	assert.Equal(t, uint16(0x400), c.I)

	c.V = [16]uint8{}
	exec(t, c, 0xF265)
	assert.Equal(t, uint8(0x10), c.V[0])
	assert.Equal(t, uint8(0x11), c.V[1])
	assert.Equal(t, uint8(0x12), c.V[2])
	assert.Equal(t, uint8(0x00), c.V[3])

	// all 16 registers
	for i := range c.V {
		c.V[i] = uint8(0xE0 + i)
	}
	exec(t, c, 0xFF55)
	assert.Equal(t, uint8(0xEF), c.Memory[0x40F])
}

func TestTimers(t *testing.T) {
	c := newTestChip8(t)

	c.V[1] = 2
	exec(t, c, 0xF115)
	assert.Equal(t, uint8(2), c.DT)
	exec(t, c, 0xF118)
	assert.Equal(t, uint8(2), c.ST)
	assert.True(t, c.Sound())

	c.DecrementTimers()
	exec(t, c, 0xF207)
	assert.Equal(t, uint8(1), c.V[2])

	c.DecrementTimers()
	c.DecrementTimers()
	assert.Equal(t, uint8(0), c.DT)
	assert.Equal(t, uint8(0), c.ST)
	assert.False(t, c.Sound())
}

func TestKeySkips(t *testing.T) {
	c := newTestChip8(t)
	c.Keypad = KeyboardState(KeyA)

	c.V[1] = 0xA
	exec(t, c, 0xE19E)
	assert.Equal(t, uint16(ProgramStart+4), c.PC)
	exec(t, c, 0xE1A1)
	assert.Equal(t, uint16(ProgramStart+2), c.PC)

	c.V[1] = 0xB
	exec(t, c, 0xE19E)
	assert.Equal(t, uint16(ProgramStart+2), c.PC)
	exec(t, c, 0xE1A1)
	assert.Equal(t, uint16(ProgramStart+4), c.PC)

	assert.Equal(t, uint16(KeyA), c.KeyState())
}

func TestWaitForKey(t *testing.T) {
	c := newTestChip8(t, 0xF30A)

	// no key: the instruction is executed again
	for i := 0; i < 3; i++ {
		assert.NoError(t, c.Step())
		assert.Equal(t, uint16(ProgramStart), c.PC)
	}

	c.Keypad = KeyboardState(Key5 | Key9)
	assert.NoError(t, c.Step())
	assert.Equal(t, uint8(5), c.V[3])
	assert.Equal(t, uint16(ProgramStart+2), c.PC)
}

func TestClearScreen(t *testing.T) {
	drv := &recordingDriver{}
	c, err := New(log.NewTestLogger(t), drv, nil)
	assert.NoError(t, err)

	c.Screen.SetPixel(10, 10, PixelOn)
	exec(t, c, 0x00E0)
	assert.Equal(t, Framebuffer{}, c.Screen)
	assert.Equal(t, 1, drv.cls)
}

func TestBadCode(t *testing.T) {
	tests := []uint16{0x0000, 0x0123, 0x5121, 0x8128, 0x9121, 0xE100, 0xF1FF}

	for _, opcode := range tests {
		c := newTestChip8(t, 0x6000, opcode)
		assert.NoError(t, c.Step())

		var bad *BadCodeErr
		assert.True(t, errors.As(c.Step(), &bad))
		assert.Equal(t, opcode, bad.Opcode)
		assert.Equal(t, uint16(ProgramStart+2), bad.Address)
	}
}
