/*
   R4300 - Device register blocks.

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
	D "github.com/rcornwell/R4300/emu/device"
	"github.com/rcornwell/R4300/util/debug"
)

type mi struct {
	mode    uint32
	version uint32
	intr    D.Interrupt
	mask    D.Interrupt
}

type sp struct {
	memAddr   uint32
	dramAddr  uint32
	rdLen     uint32
	wrLen     uint32
	status    uint32
	semaphore uint32
	pc        uint32
}

// MI_MODE write bits.
const (
	miClrInit   = 0x0080
	miSetInit   = 0x0100
	miClrEBus   = 0x0200
	miSetEBus   = 0x0400
	miClrDP     = 0x0800
	miClrRDRAM  = 0x1000
	miSetRDRAM  = 0x2000
	miModeInit  = 0x0080
	miModeEBus  = 0x0100
	miModeRDRAM = 0x0200
)

// SP_STATUS read bits.
const (
	spHalt       = 0x0001
	spBroke      = 0x0002
	spDMABusy    = 0x0004
	spDMAFull    = 0x0008
	spIOFull     = 0x0010
	spSStep      = 0x0020
	spIntrBreak  = 0x0040
	spSignal0    = 0x0080
	spSignalMask = 0x7f80
)

// SP_STATUS write bits.
const (
	spClrHalt      = 0x0000001
	spSetHalt      = 0x0000002
	spClrBroke     = 0x0000004
	spClrIntr      = 0x0000008
	spSetIntr      = 0x0000010
	spClrSStep     = 0x0000020
	spSetSStep     = 0x0000040
	spClrIntrBreak = 0x0000080
	spSetIntrBreak = 0x0000100
	spClrSignal0   = 0x0000200 // Clear/set pairs for signals 0-7 follow.
)

// Register indexes.
const (
	viStatus   = 0
	viOrigin   = 1
	viWidth    = 2
	viIntr     = 3
	viCurrent  = 4
	viVSync    = 6
	aiDRAMAddr = 0
	aiLen      = 1
	aiControl  = 2
	aiStatus   = 3
	piDRAMAddr = 0
	piCartAddr = 1
	piRdLen    = 2
	piWrLen    = 3
	piStatus   = 4
	siDRAMAddr = 0
	siPIFRd64  = 1
	siPIFWr64  = 4
	siStatus   = 6
)

const (
	piStatusReset   = 0x01
	piStatusClrIntr = 0x02
	piStatusIntr    = 0x08
	siStatusIntr    = 0x1000
	viLines         = 525
)

// Raise an MI interrupt.
func (b *Bus) RaiseInterrupt(kind D.Interrupt) {
	debug.Debugf("BUS", debugMsk, debugIntr, "raise %s", kind)
	b.mi.intr |= kind
	b.notify()
}

// Clear an MI interrupt.
func (b *Bus) ClearInterrupt(kind D.Interrupt) {
	debug.Debugf("BUS", debugMsk, debugIntr, "clear %s", kind)
	b.mi.intr &^= kind
	b.notify()
}

// Return true if any unmasked MI interrupt is pending.
func (b *Bus) MIPending() bool {
	return (b.mi.intr & b.mi.mask) != 0
}

// Return pending and enabled MI interrupts.
func (b *Bus) MIState() (intr, mask D.Interrupt) {
	return b.mi.intr, b.mi.mask
}

func (b *Bus) notify() {
	if b.IntrChange != nil {
		b.IntrChange(b.MIPending())
	}
}

// Called at start of vertical blank.
func (b *Bus) VerticalBlank() {
	b.vi[viCurrent] = b.vi[viIntr] & 0x3ff
	b.RaiseInterrupt(D.IntrVI)
}

// Read device register, return false if nothing there.
func (b *Bus) readReg(addr uint32) (uint32, bool) {
	reg := (addr & 0xfffff) >> 2
	switch addr & 0xfff00000 {
	case MIRegs:
		switch reg {
		case 0:
			return b.mi.mode, true
		case 1:
			return b.mi.version, true
		case 2:
			return uint32(b.mi.intr), true
		case 3:
			return uint32(b.mi.mask), true
		}
	case VIRegs:
		if int(reg) < len(b.vi) {
			if reg == viCurrent {
				// Advance beam so polling loops make progress.
				b.vi[viCurrent] = (b.vi[viCurrent] + 2) % viLines
			}
			return b.vi[reg], true
		}
	case AIRegs:
		if int(reg) < len(b.ai) {
			if reg == aiLen {
				return 0, true
			}
			return b.ai[reg], true
		}
	case PIRegs:
		if int(reg) < len(b.pi) {
			if reg == piStatus {
				v := uint32(0)
				if (b.mi.intr & D.IntrPI) != 0 {
					v |= piStatusIntr
				}
				return v, true
			}
			return b.pi[reg], true
		}
	case RIRegs:
		if int(reg) < len(b.ri) {
			return b.ri[reg], true
		}
	case SIRegs:
		if int(reg) < len(b.si) {
			if reg == siStatus {
				v := uint32(0)
				if (b.mi.intr & D.IntrSI) != 0 {
					v |= siStatusIntr
				}
				return v, true
			}
			return b.si[reg], true
		}
	case DPRegs:
		if int(reg) < len(b.dp) {
			return b.dp[reg], true
		}
	case SPRegs & 0xfff00000:
		return b.readSP(addr)
	}
	return 0, false
}

func (b *Bus) readSP(addr uint32) (uint32, bool) {
	if addr == SPPCReg {
		return b.sp.pc, true
	}
	switch addr {
	case SPRegs:
		return b.sp.memAddr, true
	case SPRegs + 0x04:
		return b.sp.dramAddr, true
	case SPRegs + 0x08:
		return b.sp.rdLen, true
	case SPRegs + 0x0c:
		return b.sp.wrLen, true
	case SPRegs + 0x10:
		return b.sp.status, true
	case SPRegs + 0x14, SPRegs + 0x18:
		// DMA completes at once, never full or busy.
		return 0, true
	case SPRegs + 0x1c:
		v := b.sp.semaphore
		b.sp.semaphore = 1
		return v, true
	}
	return 0, false
}

// Write device register, return false if nothing there.
func (b *Bus) writeReg(addr, data uint32) bool {
	reg := (addr & 0xfffff) >> 2
	switch addr & 0xfff00000 {
	case MIRegs:
		switch reg {
		case 0:
			b.writeMIMode(data)
		case 1, 2:
		case 3:
			b.writeMIMask(data)
		default:
			return false
		}
		return true
	case VIRegs:
		if int(reg) >= len(b.vi) {
			return false
		}
		if reg == viCurrent {
			b.ClearInterrupt(D.IntrVI)
			return true
		}
		b.vi[reg] = data
		return true
	case AIRegs:
		if int(reg) >= len(b.ai) {
			return false
		}
		switch reg {
		case aiStatus:
			b.ClearInterrupt(D.IntrAI)
		case aiLen:
			b.ai[reg] = data & 0x3fff8
			debug.Debugf("BUS", debugMsk, debugDMA, "audio buffer %08x len %x", b.ai[aiDRAMAddr], b.ai[reg])
			if b.ai[reg] != 0 {
				b.RaiseInterrupt(D.IntrAI)
			}
		default:
			b.ai[reg] = data
		}
		return true
	case PIRegs:
		if int(reg) >= len(b.pi) {
			return false
		}
		switch reg {
		case piStatus:
			if (data & piStatusClrIntr) != 0 {
				b.ClearInterrupt(D.IntrPI)
			}
		case piRdLen:
			b.pi[reg] = data
			// RDRAM to cartridge, nothing writable there.
			b.RaiseInterrupt(D.IntrPI)
		case piWrLen:
			b.pi[reg] = data
			b.piDMA(data)
		default:
			b.pi[reg] = data
		}
		return true
	case RIRegs:
		if int(reg) >= len(b.ri) {
			return false
		}
		b.ri[reg] = data
		return true
	case SIRegs:
		if int(reg) >= len(b.si) {
			return false
		}
		switch reg {
		case siStatus:
			b.ClearInterrupt(D.IntrSI)
		case siPIFRd64:
			b.si[reg] = data
			b.siDMA(false)
		case siPIFWr64:
			b.si[reg] = data
			b.siDMA(true)
		default:
			b.si[reg] = data
		}
		return true
	case DPRegs:
		if int(reg) >= len(b.dp) {
			return false
		}
		b.dp[reg] = data
		return true
	case SPRegs & 0xfff00000:
		return b.writeSP(addr, data)
	}
	return false
}

func (b *Bus) writeMIMode(data uint32) {
	b.mi.mode = (b.mi.mode &^ 0x7f) | (data & 0x7f)
	set := func(clr, set, bit uint32) {
		if (data & clr) != 0 {
			b.mi.mode &^= bit
		}
		if (data & set) != 0 {
			b.mi.mode |= bit
		}
	}
	set(miClrInit, miSetInit, miModeInit)
	set(miClrEBus, miSetEBus, miModeEBus)
	set(miClrRDRAM, miSetRDRAM, miModeRDRAM)
	if (data & miClrDP) != 0 {
		b.ClearInterrupt(D.IntrDP)
	}
}

// Each interrupt has a clear bit followed by a set bit.
func (b *Bus) writeMIMask(data uint32) {
	for i := range 6 {
		bit := D.Interrupt(1 << i)
		if (data & (1 << (2 * i))) != 0 {
			b.mi.mask &^= bit
		}
		if (data & (2 << (2 * i))) != 0 {
			b.mi.mask |= bit
		}
	}
	debug.Debugf("BUS", debugMsk, debugIntr, "mask %s", b.mi.mask)
	b.notify()
}

func (b *Bus) writeSP(addr, data uint32) bool {
	if addr == SPPCReg {
		b.sp.pc = data & 0xffc
		return true
	}
	switch addr {
	case SPRegs:
		b.sp.memAddr = data & 0x1ff8
	case SPRegs + 0x04:
		b.sp.dramAddr = data & 0xfffff8
	case SPRegs + 0x08:
		b.sp.rdLen = data
		b.spDMA(data, false)
	case SPRegs + 0x0c:
		b.sp.wrLen = data
		b.spDMA(data, true)
	case SPRegs + 0x10:
		b.writeSPStatus(data)
	case SPRegs + 0x14, SPRegs + 0x18:
	case SPRegs + 0x1c:
		b.sp.semaphore = 0
	default:
		return false
	}
	return true
}

func (b *Bus) writeSPStatus(data uint32) {
	wasHalted := (b.sp.status & spHalt) != 0
	pair := func(clr, set, bit uint32) {
		if (data & clr) != 0 {
			b.sp.status &^= bit
		}
		if (data & set) != 0 {
			b.sp.status |= bit
		}
	}
	pair(spClrHalt, spSetHalt, spHalt)
	if (data & spClrBroke) != 0 {
		b.sp.status &^= spBroke
	}
	if (data & spClrIntr) != 0 {
		b.ClearInterrupt(D.IntrSP)
	}
	if (data & spSetIntr) != 0 {
		b.RaiseInterrupt(D.IntrSP)
	}
	pair(spClrSStep, spSetSStep, spSStep)
	pair(spClrIntrBreak, spSetIntrBreak, spIntrBreak)
	for i := range 8 {
		pair(spClrSignal0<<(2*i), spClrSignal0<<(2*i+1), spSignal0<<i)
	}

	if wasHalted && (b.sp.status&spHalt) == 0 {
		b.startTask()
	}
}

// Signal processor started, hand task to the handler.
func (b *Bus) startTask() {
	var w [16]uint32
	for i := range w {
		w[i] = b.DMEM.GetMemory(spMemSize - D.TaskSize + uint32(i*4))
	}
	task := D.NewTask(w)
	debug.Debugf("BUS", debugMsk, debugTask, "task type %d ucode %08x data %08x %x",
		task.Type, task.Ucode, task.DataPtr, task.DataSize)
	if b.Tasks != nil {
		b.Tasks.RunTask(task, b)
	} else {
		hleTask(task, b)
	}
	b.sp.status |= spHalt | spBroke
	if (b.sp.status & spIntrBreak) != 0 {
		b.RaiseInterrupt(D.IntrSP)
	}
}

// Default task handling, complete at once.
func hleTask(task D.Task, intr D.Interrupts) {
	if task.Type == D.TaskGraphics {
		intr.RaiseInterrupt(D.IntrDP)
	}
}

// Signal processor DMA, length register holds count, skip and length.
func (b *Bus) spDMA(lenReg uint32, toRDRAM bool) {
	length := (lenReg & 0xfff) | 7
	count := ((lenReg >> 12) & 0xff) + 1
	skip := lenReg >> 20
	mem := b.DMEM
	if (b.sp.memAddr & spMemSize) != 0 {
		mem = b.IMEM
	}
	spAddr := b.sp.memAddr & 0xff8
	dram := b.sp.dramAddr
	debug.Debugf("BUS", debugMsk, debugDMA, "sp dma mem %04x dram %08x len %x count %d skip %x to rdram %v",
		b.sp.memAddr, dram, length+1, count, skip, toRDRAM)
	start := dram
	for range count {
		for i := uint32(0); i <= length; i += 4 {
			s := (spAddr + i) & (spMemSize - 1)
			if toRDRAM {
				b.RDRAM.PutWord(dram+i, mem.GetMemory(s))
			} else {
				w, _ := b.RDRAM.GetWord(dram + i)
				mem.SetMemory(s, w)
			}
		}
		spAddr = (spAddr + length + 1) & (spMemSize - 1)
		dram += length + 1 + skip
	}
	if toRDRAM {
		b.invalidate(start, dram-start)
	}
}

// Cartridge to RDRAM.
func (b *Bus) piDMA(lenReg uint32) {
	length := (lenReg & 0xffffff) + 1
	dram := b.pi[piDRAMAddr] & 0xfffffe
	cart := b.pi[piCartAddr]
	debug.Debugf("BUS", debugMsk, debugDMA, "pi dma cart %08x dram %08x len %x", cart, dram, length)
	for i := range length {
		var v uint8
		if cart >= CartROM && cart < CartROMEnd {
			off := cart - CartROM + i
			if int(off) < len(b.ROM) {
				v = b.ROM[off]
			}
		}
		b.RDRAM.Write8(dram+i, v)
	}
	b.invalidate(dram, length)
	b.pi[piDRAMAddr] = dram + length
	b.pi[piCartAddr] = cart + length
	b.RaiseInterrupt(D.IntrPI)
}

// PIF RAM to or from RDRAM, always 64 bytes.
func (b *Bus) siDMA(toPIF bool) {
	dram := b.si[siDRAMAddr] & 0x1fffffff
	debug.Debugf("BUS", debugMsk, debugDMA, "si dma dram %08x to pif %v", dram, toPIF)
	for i := uint32(0); i < pifRAMSize; i += 4 {
		if toPIF {
			w, _ := b.RDRAM.GetWord(dram + i)
			b.PIFRAM.SetMemory(i, w)
		} else {
			b.RDRAM.PutWord(dram+i, b.PIFRAM.GetMemory(i))
		}
	}
	if !toPIF {
		b.invalidate(dram, pifRAMSize)
	}
	b.RaiseInterrupt(D.IntrSI)
}

// Return signal processor status register.
func (b *Bus) SPStatus() uint32 {
	return b.sp.status
}
