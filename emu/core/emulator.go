/*
   R4300 - Emulator context.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

package core

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rcornwell/R4300/emu/bus"
	"github.com/rcornwell/R4300/emu/cpu"
)

// Default RDRAM size in kilobytes.
const DefaultMemory = 8 * 1024

// Boot state left by the PIF boot ROM.
const (
	bootPC      = 0xa4000040 // Start of boot code in SP DMEM.
	bootStatus  = 0x34000000 // CU1, CU0 and FR set.
	bootSP      = 0xffffffffa4001ff0
	bootRA      = 0xffffffffa4001550
	bootT3      = 0xffffffffa4000040
	bootTVType  = 1    // NTSC.
	bootSeed    = 0x3f // Security chip seed.
	bootMemSize = 0x318
)

// Register numbers past the general registers.
const (
	RegPC = 32 + iota
	RegHi
	RegLo
)

var ErrNoTranslation = errors.New("address not mapped")

// Emulator owns the bus and processor.
type Emulator struct {
	Bus *bus.Bus
	CPU *cpu.CPU
}

// Create emulator with memK kilobytes of RDRAM.
func New(memK int) *Emulator {
	if memK <= 0 {
		memK = DefaultMemory
	}
	b := bus.New(memK)
	return &Emulator{Bus: b, CPU: cpu.New(b)}
}

// Power on reset of bus and processor. Memory and cartridge stay.
func (emu *Emulator) Reset() {
	emu.Bus.Reset()
	emu.CPU.Reset()
	slog.Info("Emulator reset")
}

// Load cartridge image from file.
func (emu *Emulator) LoadROM(name string) error {
	return emu.Bus.LoadROMFile(name)
}

// Reset and set up state the boot ROM leaves before running the
// cartridge boot code.
func (emu *Emulator) Boot() error {
	if len(emu.Bus.ROM) == 0 {
		return errors.New("no cartridge loaded")
	}
	emu.Reset()
	emu.Bus.CopyBootCode()
	c := emu.CPU
	c.GPR[11] = bootT3
	c.GPR[20] = bootTVType
	c.GPR[22] = bootSeed
	c.GPR[29] = bootSP
	c.GPR[31] = bootRA
	c.WriteCP0(cpu.C0Status, bootStatus)
	c.WriteCP0(cpu.C0Config, cpu.ConfigInit)
	if err := emu.Bus.Write32(bootMemSize, emu.Bus.RDRAM.GetSize()); err != nil {
		return err
	}
	c.SetPC(bootPC)
	slog.Info("Boot", "title", emu.Bus.ROMTitle(), "pc", fmt.Sprintf("%08x", uint32(bootPC)))
	return nil
}

// Run for up to cycles instructions, return number run.
func (emu *Emulator) Run(cycles int) int {
	return emu.CPU.Run(cycles)
}

// Execute one instruction.
func (emu *Emulator) SingleStep() {
	emu.CPU.SingleStep()
}

// Stop the processor at the next instruction.
func (emu *Emulator) Halt() {
	emu.CPU.Halt()
}

// Reason processor is stopped.
func (emu *Emulator) Err() error {
	return emu.CPU.Err()
}

// Current Count register.
func (emu *Emulator) Count() uint32 {
	return emu.CPU.Count()
}

// Set or clear breakpoint at virtual address.
func (emu *Emulator) ToggleBreakpoint(vaddr uint32) bool {
	return emu.CPU.ToggleBreakpoint(vaddr)
}

// Physical addresses of breakpoints.
func (emu *Emulator) Breakpoints() []uint32 {
	return emu.CPU.Breakpoints()
}

// Enable or disable the fragment compiler.
func (emu *Emulator) SetDynarec(on bool) {
	emu.CPU.SetDynarec(on)
}

// Register snapshot.
func (emu *Emulator) State() cpu.State {
	return emu.CPU.State()
}

// Read word at virtual address, breakpoints show the original word.
func (emu *Emulator) Read32(vaddr uint32) (uint32, error) {
	phys, ok := emu.CPU.PhysAddr(vaddr &^ 3)
	if !ok {
		return 0, fmt.Errorf("%08x: %w", vaddr, ErrNoTranslation)
	}
	if w, ok := emu.CPU.BreakpointWord(phys); ok {
		return w, nil
	}
	return emu.Bus.Read32(phys)
}

// Write word at virtual address, throwing away compiled code for it.
func (emu *Emulator) Write32(vaddr, data uint32) error {
	phys, ok := emu.CPU.PhysAddr(vaddr &^ 3)
	if !ok {
		return fmt.Errorf("%08x: %w", vaddr, ErrNoTranslation)
	}
	if _, ok := emu.CPU.BreakpointWord(phys); ok {
		// Keep breakpoint, new word runs when it is cleared.
		emu.CPU.ToggleBreakpoint(vaddr)
		defer emu.CPU.ToggleBreakpoint(vaddr)
	}
	if err := emu.Bus.Write32(phys, data); err != nil {
		return err
	}
	emu.CPU.Fragments().Invalidate(phys, 4)
	return nil
}

// Set general register, register zero stays zero.
func (emu *Emulator) SetReg(r int, v uint64) {
	if r&0x1f != 0 {
		emu.CPU.GPR[r&0x1f] = v
	}
}

// Set register from 32 bit value, sign extended.
func (emu *Emulator) SetRegister(r int, v uint32) error {
	ext := uint64(int64(int32(v)))
	switch {
	case r >= 0 && r < 32:
		emu.SetReg(r, ext)
	case r == RegPC:
		if v&3 != 0 {
			return fmt.Errorf("pc %08x not word aligned", v)
		}
		emu.CPU.SetPC(v)
	case r == RegHi:
		emu.CPU.Hi = ext
	case r == RegLo:
		emu.CPU.Lo = ext
	default:
		return fmt.Errorf("invalid register %d", r)
	}
	return nil
}
