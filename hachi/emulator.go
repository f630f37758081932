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

// Package hachi implements a CHIP-8 interpreter that executes a program one
// instruction at a time, plus a disassembler for the same instruction set.
package hachi

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/retroenv/retrogolib/log"
)

// Memory layout.
const (
	// MemorySize is the amount of addressable memory (0x000-0xFFF).
	MemorySize = 0x1000
	// AddressMask keeps an address within the 12-bit address space.
	AddressMask = 0x0FFF
	// ProgramStart is where programs are loaded and where execution begins.
	// The original interpreter occupied the first 512 bytes.
	ProgramStart = 0x200
	// FontAddress is where the 16 built-in hex digit glyphs are stored.
	FontAddress = 0x050
	// FontGlyphSize is the height in bytes of a single font glyph.
	FontGlyphSize = 5
	// FlagRegister is the index of VF, the implicit carry/borrow/collision
	// output of several instructions.
	FlagRegister = 0xF
)

var font = [16 * FontGlyphSize]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// -----------------------------------------------------------------------------

// ErrHalted is returned by Step when the program jumps to its own address.
// That idiom is an intentional end of the program, not a failure.
var ErrHalted = errors.New("Program halted on a jump to itself.")

// An OutOfMemoryErr is returned upon attempting to load a program that
// exceeds the memory's capacity.
type OutOfMemoryErr struct {
	ProgramSize int64
}

func (e *OutOfMemoryErr) Error() string {
	return fmt.Sprintf("Not enough memory (program size: %v, free memory: %v)",
		e.ProgramSize, MemorySize-ProgramStart)
}

// A StackOverflowErr is returned when a call exceeds the configured stack
// size.
type StackOverflowErr struct {
	Depth int
}

func (e *StackOverflowErr) Error() string {
	return fmt.Sprintf("Stack overflow (depth: %v).", e.Depth)
}

// A StackUnderflowErr is returned when a subroutine returns with an empty
// call stack.
type StackUnderflowErr struct {
	Address uint16
}

func (e *StackUnderflowErr) Error() string {
	return fmt.Sprintf("Return with empty stack at address %03X.", e.Address)
}

// A BadCodeErr is returned when the emulator tries to execute an instruction
// word that matches no known opcode.
type BadCodeErr struct {
	Opcode  uint16
	Address uint16
}

func (e *BadCodeErr) Error() string {
	return fmt.Sprintf("Unimplemented instruction %04X at address %03X.",
		e.Opcode, e.Address)
}

// -----------------------------------------------------------------------------

// Settings holds the configuration parameters for a Chip8 instance.
type Settings struct {
	// Stack size. Defines the maximum amount of nested calls, 0 means the
	// stack grows without limit.
	StackSize int
	// Instructions executed per second by Run.
	InstructionsPerSecond int
	// Rate in Hz at which Run decrements the timers. 0 disables the decay.
	TimerFrequency int
	// Trace logs every executed instruction at debug level.
	Trace bool
}

// Validate validates the settings.
// Returns an error when the settings aren't valid.
func (s *Settings) Validate() error {
	if s.StackSize < 0 {
		return fmt.Errorf("StackSize must be >= 0, got %v.", s.StackSize)
	}
	if s.InstructionsPerSecond <= 0 || s.InstructionsPerSecond > 1000000 {
		return fmt.Errorf("InstructionsPerSecond must be in 1~1000000, got %v.",
			s.InstructionsPerSecond)
	}
	if s.TimerFrequency < 0 || s.TimerFrequency > 1000 {
		return fmt.Errorf("TimerFrequency must be in 0~1000, got %v.",
			s.TimerFrequency)
	}
	return nil
}

// DefaultSettings are used when New is called without settings.
var DefaultSettings = &Settings{
	StackSize:             0,
	InstructionsPerSecond: 700,
	TimerFrequency:        60,
}

// -----------------------------------------------------------------------------

// Chip8 holds the state of the virtual machine. Each call to Step has
// exclusive access to it; it must not be shared between goroutines.
type Chip8 struct {
	// The memory where programs are loaded and executed.
	Memory [MemorySize]byte
	// V[0x0]~V[0xF] are 8-bit registers. V[0xF] doubles as a carry flag.
	V [16]uint8
	// Index register, used for memory operations. Always <= 0xFFF.
	I uint16
	// The call stack, which holds return addresses.
	Stack []uint16
	// Program counter. Holds the address of the next instruction.
	PC uint16
	// Delay and sound timers. They are decremented by DecrementTimers,
	// which the host calls at a fixed rate.
	DT uint8
	ST uint8
	// Screen is the 64x32 monochrome framebuffer.
	Screen Framebuffer

	// Keypad answers key queries. Defaults to NullKeypad.
	Keypad Keypad
	// Random supplies the bytes for RND. Defaults to a time seeded source.
	Random ByteSource

	settings Settings
	driver   Driver
	logger   *log.Logger
}

// New initializes a new instance of Chip8 with the given settings. If settings
// is nil, DefaultSettings will be used. If driver is nil, a NullDriver is used.
func New(logger *log.Logger, driver Driver, s *Settings) (*Chip8, error) {
	if s == nil {
		s = DefaultSettings
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewWithConfig(log.DefaultConfig())
	}
	if driver == nil {
		driver = NullDriver{}
	}

	c := &Chip8{
		PC:       ProgramStart,
		Keypad:   NullKeypad{},
		Random:   NewRandomSource(time.Now().UnixNano()),
		settings: *s,
		driver:   driver,
		logger:   logger,
	}
	copy(c.Memory[FontAddress:], font[:])

	if err := driver.OnInit(c); err != nil {
		return nil, fmt.Errorf("initializing driver: %w", err)
	}
	logger.Debug("Machine initialized", log.String("state", c.String()))
	return c, nil
}

// String returns formatted information about the instance of the emulator.
func (c *Chip8) String() string {
	return fmt.Sprintf("Chip8{Registers: [% 02X] I: %03X, Stack: % 04X, "+
		"PC: %04X, DT: %02X, ST: %02X, Keys: %016b}",
		c.V, c.I, c.Stack, c.PC, c.DT, c.ST, c.KeyState())
}

// Driver returns the driver in use by the emulator.
func (c *Chip8) Driver() Driver { return c.driver }

// Logger returns the logger used by the emulator.
func (c *Chip8) Logger() *log.Logger { return c.logger }

// Settings returns a copy of the settings the emulator was created with.
func (c *Chip8) Settings() Settings { return c.settings }

// Load opens a CHIP-8 binary file and loads it into memory.
// Returns the size, in bytes, of the program and an error if any.
func (c *Chip8) Load(path string) (int64, error) {
	program, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading program '%s': %w", path, err)
	}
	if err := c.LoadRaw(program); err != nil {
		return int64(len(program)), err
	}
	c.logger.Info("Loaded program",
		log.String("path", path), log.Int("bytes", len(program)))
	return int64(len(program)), nil
}

// LoadRaw loads a byte array as a CHIP-8 binary into memory at ProgramStart.
func (c *Chip8) LoadRaw(program []byte) error {
	if len(program) > MemorySize-ProgramStart {
		return &OutOfMemoryErr{int64(len(program))}
	}
	copy(c.Memory[ProgramStart:], program)
	c.PC = ProgramStart
	return nil
}

// DecrementTimers counts both timers down by one if they are non-zero. The
// host calls it at a fixed rate, normally 60 Hz.
func (c *Chip8) DecrementTimers() {
	if c.DT > 0 {
		c.DT--
	}
	if c.ST > 0 {
		c.ST--
	}
}

// Sound reports whether the sound timer is active.
func (c *Chip8) Sound() bool { return c.ST > 0 }

// KeyState returns the keypad state as a bitfield of Key0...KeyF flags.
func (c *Chip8) KeyState() (state uint16) {
	if c.Keypad == nil {
		return 0
	}
	for key, flag := range KeyFlags {
		if c.Keypad.IsPressed(uint8(key)) {
			state |= flag
		}
	}
	return
}
