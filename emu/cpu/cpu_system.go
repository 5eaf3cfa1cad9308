/*
   R4300 - System control coprocessor.

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

package cpu

import (
	"github.com/rcornwell/R4300/emu/event"
	op "github.com/rcornwell/R4300/emu/opcodemap"
	"github.com/rcornwell/R4300/emu/tlb"
	"github.com/rcornwell/R4300/util/debug"
)

// Enter exception handler.
func (cpu *CPU) exception(code uint16) {
	status := uint32(cpu.CP0[C0Status])
	cause := uint32(cpu.CP0[C0Cause]) &^ (CauseExcCode | CauseBD | CauseCE)
	cause |= uint32(code) << 2
	if code == excCpU {
		cause |= cpu.ce << 28
	}

	offset := vecGeneral - vecRefill
	if (status & StatusEXL) == 0 {
		if cpu.Delay {
			cpu.CP0[C0EPC] = sext32(cpu.PC - 4)
			cause |= CauseBD
		} else {
			cpu.CP0[C0EPC] = sext32(cpu.PC)
		}
		if cpu.refill && (code == excTLBL || code == excTLBS) {
			offset = 0
		}
	}
	if code == excAdEL || code == excAdES {
		cpu.CP0[C0BadVAddr] = sext32(cpu.badVAddr)
	}
	cpu.refill = false
	cpu.CP0[C0Cause] = uint64(cause)
	cpu.CP0[C0Status] = uint64(status | StatusEXL)

	vector := vecRefill + offset
	if (status & StatusBEV) != 0 {
		vector = vecBEVRefill + offset
	}
	debug.Debugf("CPU", debugMsk, debugExcept, "exception %d pc %08x epc %08x vector %08x",
		code, cpu.PC, uint32(cpu.CP0[C0EPC]), vector)
	cpu.SetPC(vector)
	cpu.exitFrag = true
	cpu.checkInterrupts()
}

// Vector to interrupt handler.
func (cpu *CPU) takeInterrupt() {
	debug.Debugf("CPU", debugMsk, debugIntr, "interrupt pc %08x cause %08x",
		cpu.PC, uint32(cpu.CP0[C0Cause]))
	if b := cpu.frags.Building; b != nil {
		cpu.frags.Finalize(b, cpu.compile)
	}
	cpu.lastFrag = nil
	cpu.exception(excInt)
}

// Recompute whether an interrupt should be taken.
func (cpu *CPU) checkInterrupts() {
	status := uint32(cpu.CP0[C0Status])
	cause := uint32(cpu.CP0[C0Cause])
	cpu.intrPending = (status&(StatusIE|StatusEXL|StatusERL)) == StatusIE &&
		(status&cause&StatusIM) != 0
	if cpu.intrPending {
		cpu.exitFrag = true
	}
}

// MI interrupt lines changed.
func (cpu *CPU) miChanged(pending bool) {
	if pending {
		cpu.CP0[C0Cause] |= uint64(CauseIP2)
	} else {
		cpu.CP0[C0Cause] &^= uint64(CauseIP2)
	}
	cpu.checkInterrupts()
}

// Load fault address into BadVAddr, Context and EntryHi.
func (cpu *CPU) tlbFault(vaddr uint32) {
	cpu.badVAddr = vaddr
	cpu.CP0[C0BadVAddr] = sext32(vaddr)
	ctx := uint32(cpu.CP0[C0Context])
	ctx = (ctx &^ ContextBadVPN2) | ((vaddr >> 9) & ContextBadVPN2)
	cpu.CP0[C0Context] = sext32(ctx)
	hi := uint32(cpu.CP0[C0EntryHi])
	hi = (hi & tlb.HiASID) | (vaddr & tlb.HiVPN2)
	cpu.CP0[C0EntryHi] = sext32(hi)
}

// Schedule Compare event for when Count reaches Compare.
func (cpu *CPU) scheduleCompare() {
	cpu.events.Remove(event.Compare)
	delta := uint32(cpu.CP0[C0Compare]) - uint32(cpu.CP0[C0Count])
	if delta == 0 {
		cpu.events.Add(event.Compare, 1<<32)
	} else {
		cpu.events.Add(event.Compare, int(delta))
	}
}

// Current value of Random, counts down from 31 to Wired.
func (cpu *CPU) random() uint32 {
	wired := uint32(cpu.CP0[C0Wired]) & 0x3f
	if wired >= tlb.Entries {
		return tlb.Entries - 1
	}
	span := tlb.Entries - wired
	return tlb.Entries - 1 - (uint32(cpu.CP0[C0Count]) % span)
}

// Read control register.
func (cpu *CPU) ReadCP0(r uint32) uint64 {
	switch r {
	case C0Random:
		return uint64(cpu.random())
	case C0Count:
		return uint64(uint32(cpu.CP0[C0Count]))
	}
	return cpu.CP0[r&0x1f]
}

// Write control register with side effects.
func (cpu *CPU) WriteCP0(r uint32, v uint64) {
	switch r {
	case C0Index:
		cpu.CP0[r] = (cpu.CP0[r] & tlb.NotFound) | (v & 0x3f)
	case C0Random, C0PRId, C0BadVAddr:
		// Read only.
	case C0EntryLo0, C0EntryLo1:
		cpu.CP0[r] = v & 0x3fffffff
	case C0Context:
		cpu.CP0[r] = (v &^ 0x7fffff) | (cpu.CP0[r] & uint64(ContextBadVPN2))
	case C0PageMask:
		cpu.CP0[r] = v & tlb.MaskPG
	case C0Wired:
		cpu.CP0[r] = v & 0x3f
	case C0Count:
		cpu.CP0[r] = uint64(uint32(v))
		cpu.scheduleCompare()
	case C0EntryHi:
		cpu.CP0[r] = sext32(uint32(v) & (tlb.HiVPN2 | tlb.HiASID))
	case C0Compare:
		cpu.CP0[r] = uint64(uint32(v))
		cpu.CP0[C0Cause] &^= uint64(CauseIP7)
		cpu.scheduleCompare()
		cpu.checkInterrupts()
	case C0Status:
		cpu.CP0[r] = uint64(uint32(v))
		cpu.checkInterrupts()
	case C0Cause:
		cause := uint32(cpu.CP0[r])
		cpu.CP0[r] = uint64((cause &^ CauseIPSW) | (uint32(v) & CauseIPSW))
		cpu.checkInterrupts()
	case C0Config:
		cpu.CP0[r] = (cpu.CP0[r] &^ 0x0f00800f) | (v & 0x0f00800f)
	default:
		cpu.CP0[r&0x1f] = v
	}
}

// COP0 group.
func (cpu *CPU) opCOP0(step *stepInfo) uint16 {
	status := uint32(cpu.CP0[C0Status])
	if (status&StatusCU0) == 0 && (status&(StatusEXL|StatusERL)) == 0 && (status&0x18) != 0 {
		cpu.ce = 0
		return excCpU
	}
	switch step.rs {
	case op.CopMF:
		cpu.setReg(step.rt, sext32(uint32(cpu.ReadCP0(step.rd))))
	case op.CopDMF:
		cpu.setReg(step.rt, cpu.ReadCP0(step.rd))
	case op.CopMT:
		cpu.WriteCP0(step.rd, sext32(uint32(cpu.GPR[step.rt])))
	case op.CopDMT:
		cpu.WriteCP0(step.rd, cpu.GPR[step.rt])
	default:
		if (step.rs & op.CopCO) == 0 {
			return excFatal
		}
		return cpu.opCP0Func(step)
	}
	return excNone
}

// COP0 functions with CO set.
func (cpu *CPU) opCP0Func(step *stepInfo) uint16 {
	switch op.Instruction(step.word).Funct() {
	case op.C0TLBR:
		i := uint32(cpu.CP0[C0Index]) & 0x1f
		pm, hi, lo0, lo1 := cpu.TLB.Entry[i].Read()
		cpu.CP0[C0PageMask] = uint64(pm)
		cpu.CP0[C0EntryHi] = sext32(hi)
		cpu.CP0[C0EntryLo0] = uint64(lo0)
		cpu.CP0[C0EntryLo1] = uint64(lo1)
	case op.C0TLBWI:
		cpu.tlbWrite(uint32(cpu.CP0[C0Index]) & 0x1f)
	case op.C0TLBWR:
		cpu.tlbWrite(cpu.random())
	case op.C0TLBP:
		r := cpu.TLB.Probe(uint32(cpu.CP0[C0EntryHi]))
		if r < 0 {
			cpu.CP0[C0Index] = tlb.NotFound
		} else {
			cpu.CP0[C0Index] = uint64(r)
		}
		debug.Debugf("CPU", debugMsk, debugTLB, "probe %08x = %d", uint32(cpu.CP0[C0EntryHi]), r)
	case op.C0ERET:
		status := uint32(cpu.CP0[C0Status])
		if (status & StatusERL) != 0 {
			cpu.branchPC = uint32(cpu.CP0[C0ErrorEPC])
			status &^= StatusERL
		} else {
			cpu.branchPC = uint32(cpu.CP0[C0EPC])
			status &^= StatusEXL
		}
		cpu.jumpNow = true
		cpu.LLBit = false
		cpu.CP0[C0Status] = uint64(status)
		cpu.exitFrag = true
		cpu.checkInterrupts()
	default:
		return excFatal
	}
	return excNone
}

// Write TLB entry i from EntryHi, EntryLo and PageMask.
func (cpu *CPU) tlbWrite(i uint32) {
	pm := uint32(cpu.CP0[C0PageMask])
	hi := uint32(cpu.CP0[C0EntryHi]) &^ pm
	lo0 := uint32(cpu.CP0[C0EntryLo0])
	lo1 := uint32(cpu.CP0[C0EntryLo1])
	cpu.TLB.Entry[i].Update(pm, hi, lo0, lo1)
	debug.Debugf("CPU", debugMsk, debugTLB, "write %d mask %08x hi %08x lo %08x %08x", i, pm, hi, lo0, lo1)
}

// CACHE, instruction cache operations throw away compiled code.
func (cpu *CPU) opCACHE(step *stepInfo) uint16 {
	if (step.rt & 3) != 0 {
		// Data cache is not modeled.
		return excNone
	}
	vaddr := uint32(cpu.GPR[step.rs]) + step.imm
	var phys uint32
	if (vaddr & 0xc0000000) == kseg0 {
		phys = vaddr & physMsk
	} else {
		asid := uint32(cpu.CP0[C0EntryHi]) & 0xff
		var fault tlb.Fault
		phys, fault = cpu.TLB.Translate(vaddr, asid, false)
		if fault != tlb.FaultNone {
			return excNone
		}
	}
	cpu.InvalidateRange(phys&^0x1f, 32)
	return excNone
}

// Throw away fragments in changed memory. Compiled code still running
// must stop after the current instruction.
func (cpu *CPU) InvalidateRange(addr, length uint32) {
	if cpu.frags.Invalidate(addr, length) != 0 {
		cpu.exitFrag = true
	}
}
