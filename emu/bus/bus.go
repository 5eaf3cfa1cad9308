/*
   R4300 - Physical address bus.

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

package bus

import (
	"errors"
	"fmt"

	D "github.com/rcornwell/R4300/emu/device"
	"github.com/rcornwell/R4300/emu/memory"
	"github.com/rcornwell/R4300/util/debug"
)

/*
   Physical address map:

     00000000-03efffff   RDRAM
     03f00000-03ffffff   RDRAM registers
     04000000-04000fff   SP DMEM
     04001000-04001fff   SP IMEM
     04040000-0404001f   SP registers
     04080000            SP PC
     04100000-0410001f   DP command registers
     04300000-0430000f   MI registers
     04400000-04400037   VI registers
     04500000-04500017   AI registers
     04600000-04600033   PI registers
     04700000-0470001f   RI registers
     04800000-0480001b   SI registers
     10000000-1fbfffff   Cartridge ROM
     1fc00000-1fc007bf   PIF boot ROM
     1fc007c0-1fc007ff   PIF RAM
*/

const (
	RDRAMEnd   = 0x03f00000
	RDRAMRegs  = 0x03f00000
	SPDMEM     = 0x04000000
	SPIMEM     = 0x04001000
	SPMemEnd   = 0x04002000
	SPRegs     = 0x04040000
	SPPCReg    = 0x04080000
	DPRegs     = 0x04100000
	MIRegs     = 0x04300000
	VIRegs     = 0x04400000
	AIRegs     = 0x04500000
	PIRegs     = 0x04600000
	RIRegs     = 0x04700000
	SIRegs     = 0x04800000
	CartROM    = 0x10000000
	CartROMEnd = 0x1fc00000
	PIFROM     = 0x1fc00000
	PIFRAM     = 0x1fc007c0
	PIFEnd     = 0x1fc00800

	spMemSize  = 0x1000
	pifRAMSize = 0x40
)

const (
	// Debug options.
	debugReg = 1 << iota
	debugDMA
	debugIntr
	debugTask
)

var debugOption = map[string]int{
	"REG":  debugReg,
	"DMA":  debugDMA,
	"INTR": debugIntr,
	"TASK": debugTask,
}

var debugMsk int

// Access to an address nothing answers on, only reported in strict mode.
var ErrUnmapped = errors.New("unmapped physical address")

type Bus struct {
	RDRAM  *memory.Memory // Main memory.
	DMEM   *memory.Memory // Signal processor data memory.
	IMEM   *memory.Memory // Signal processor instruction memory.
	PIFRAM *memory.Memory // Peripheral interface RAM.
	ROM    []byte         // Cartridge image, big endian.
	Strict bool           // Report unmapped accesses as errors.

	Tasks D.TaskHandler // Receives signal processor tasks.
	Inval D.Invalidator // Told of DMA writes into RDRAM.

	// Called whenever MI interrupt or mask changes with new pending state.
	IntrChange func(pending bool)

	mi mi
	vi [14]uint32
	ai [6]uint32
	pi [13]uint32
	ri [8]uint32
	si [7]uint32
	sp sp
	dp [8]uint32
}

// Create bus with k kilobytes of RDRAM.
func New(k int) *Bus {
	b := &Bus{
		RDRAM:  memory.New(k),
		DMEM:   memory.New(spMemSize / 1024),
		IMEM:   memory.New(spMemSize / 1024),
		PIFRAM: memory.New(1),
	}
	b.Reset()
	return b
}

// Enable debug options.
func Debug(opt string) error {
	flag, ok := debugOption[opt]
	if !ok {
		return errors.New("bus debug option invalid: " + opt)
	}
	debugMsk |= flag
	return nil
}

// Put all devices back to power on state. Memory is left alone.
func (b *Bus) Reset() {
	b.mi = mi{version: 0x02020102}
	clear(b.vi[:])
	clear(b.ai[:])
	clear(b.pi[:])
	clear(b.ri[:])
	clear(b.si[:])
	clear(b.dp[:])
	b.sp = sp{status: spHalt}
	b.notify()
}

// Clear every memory and reset devices.
func (b *Bus) Clear() {
	b.RDRAM.Clear()
	b.DMEM.Clear()
	b.IMEM.Clear()
	b.PIFRAM.Clear()
	b.Reset()
}

// Return memory and offset holding addr for plain memory regions.
func (b *Bus) region(addr uint32) (*memory.Memory, uint32) {
	switch {
	case addr < b.RDRAM.GetSize():
		return b.RDRAM, addr
	case addr >= SPDMEM && addr < SPIMEM:
		return b.DMEM, addr - SPDMEM
	case addr >= SPIMEM && addr < SPMemEnd:
		return b.IMEM, addr - SPIMEM
	case addr >= PIFRAM && addr < PIFEnd:
		return b.PIFRAM, addr - PIFRAM
	}
	return nil, 0
}

// Return true if addr is backed by writable memory.
func (b *Bus) Writable(addr uint32) bool {
	m, _ := b.region(addr)
	return m != nil
}

func (b *Bus) unmapped(what string, addr uint32) error {
	debug.Debugf("BUS", debugMsk, debugReg, "unmapped %s %08x", what, addr)
	if b.Strict {
		return fmt.Errorf("%s %08x: %w", what, addr, ErrUnmapped)
	}
	return nil
}

// Read a 32 bit word, addr must be word aligned.
func (b *Bus) Read32(addr uint32) (uint32, error) {
	// Fast path for main memory.
	if addr < b.RDRAM.GetSize() {
		return b.RDRAM.GetMemory(addr), nil
	}
	if m, off := b.region(addr); m != nil {
		return m.GetMemory(off), nil
	}
	switch {
	case addr < RDRAMEnd:
		// Memory not fitted reads zero.
		return 0, nil
	case addr >= RDRAMRegs && addr < SPDMEM:
		return 0, nil
	case addr >= CartROM && addr < CartROMEnd:
		return b.readROM(addr - CartROM), nil
	case addr >= PIFROM && addr < PIFRAM:
		return 0, nil
	}
	v, ok := b.readReg(addr)
	if !ok {
		return 0, b.unmapped("read", addr)
	}
	debug.Debugf("BUS", debugMsk, debugReg, "read %08x = %08x", addr, v)
	return v, nil
}

// Write a 32 bit word under mask, addr must be word aligned.
func (b *Bus) write(addr, data, mask uint32) error {
	if addr < b.RDRAM.GetSize() {
		b.RDRAM.PutWordMask(addr, data, mask)
		return nil
	}
	if m, off := b.region(addr); m != nil {
		m.PutWordMask(off, data, mask)
		return nil
	}
	switch {
	case addr < SPDMEM:
		return nil
	case addr >= CartROM && addr < PIFRAM:
		// Read only.
		return nil
	}
	debug.Debugf("BUS", debugMsk, debugReg, "write %08x = %08x", addr, data)
	if !b.writeReg(addr, data&mask) {
		return b.unmapped("write", addr)
	}
	return nil
}

func (b *Bus) Read8(addr uint32) (uint8, error) {
	w, err := b.Read32(addr &^ 3)
	return uint8(w >> ((3 - (addr & 3)) * 8)), err
}

func (b *Bus) Read16(addr uint32) (uint16, error) {
	w, err := b.Read32(addr &^ 3)
	return uint16(w >> ((2 - (addr & 2)) * 8)), err
}

func (b *Bus) Read64(addr uint32) (uint64, error) {
	hi, err := b.Read32(addr)
	if err != nil {
		return 0, err
	}
	lo, err := b.Read32(addr + 4)
	return uint64(hi)<<32 | uint64(lo), err
}

func (b *Bus) Write8(addr uint32, data uint8) error {
	sh := (3 - (addr & 3)) * 8
	return b.write(addr&^3, uint32(data)<<sh, 0xff<<sh)
}

func (b *Bus) Write16(addr uint32, data uint16) error {
	sh := (2 - (addr & 2)) * 8
	return b.write(addr&^3, uint32(data)<<sh, 0xffff<<sh)
}

func (b *Bus) Write32(addr uint32, data uint32) error {
	return b.write(addr, data, 0xffffffff)
}

func (b *Bus) Write64(addr uint32, data uint64) error {
	if err := b.write(addr, uint32(data>>32), 0xffffffff); err != nil {
		return err
	}
	return b.write(addr+4, uint32(data), 0xffffffff)
}

// Tell invalidator about a block of RDRAM that was changed.
func (b *Bus) invalidate(addr, length uint32) {
	if b.Inval != nil && length != 0 {
		b.Inval.InvalidateRange(addr, length)
	}
}
