/*
   R4300 - CPU main loop.

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
	"errors"
	"log/slog"

	"github.com/rcornwell/R4300/emu/bus"
	"github.com/rcornwell/R4300/emu/event"
	"github.com/rcornwell/R4300/emu/fragment"
	op "github.com/rcornwell/R4300/emu/opcodemap"
	"github.com/rcornwell/R4300/emu/tlb"
	"github.com/rcornwell/R4300/util/debug"
)

// Cycles between vertical blanks.
const VBlankInterval = 62500

// Create CPU attached to bus.
func New(b *bus.Bus) *CPU {
	cpu := &CPU{
		bus:         b,
		frags:       fragment.New(),
		dynarec:     true,
		breakpoints: map[uint32]uint32{},
	}
	cpu.events = event.New(cpu.eventFired)
	cpu.createTable()
	b.IntrChange = cpu.miChanged
	b.Inval = cpu
	cpu.Reset()
	return cpu
}

// Put CPU in power on state.
func (cpu *CPU) Reset() {
	cpu.GPR = [32]uint64{}
	cpu.Hi = 0
	cpu.Lo = 0
	cpu.FPR = [32]uint64{}
	cpu.FCR31 = 0
	cpu.LLBit = false
	cpu.CP0 = [32]uint64{}
	cpu.CP0[C0Random] = 31
	cpu.CP0[C0Status] = uint64(StatusBEV | StatusERL)
	cpu.CP0[C0PRId] = PRIdR4300
	cpu.CP0[C0Config] = ConfigInit
	cpu.CP0[C0Compare] = 0
	cpu.TLB.Reset()
	cpu.PC = vecReset
	cpu.NextPC = vecReset + 4
	cpu.Delay = false
	cpu.clearBranch()
	cpu.halted = false
	cpu.stopRun = false
	cpu.exitFrag = false
	cpu.err = nil
	cpu.stepOver = false
	cpu.lastFrag = nil
	cpu.frags.Reset()
	cpu.events.Reset()
	cpu.events.Add(event.VBlank, VBlankInterval)
	cpu.scheduleCompare()
	cpu.intrPending = false
	cpu.miChanged(cpu.bus.MIPending())
}

// Set PC, used by boot code.
func (cpu *CPU) SetPC(pc uint32) {
	cpu.PC = pc
	cpu.NextPC = pc + 4
	cpu.Delay = false
	cpu.clearBranch()
}

// Enable or disable fragment compiling.
func (cpu *CPU) SetDynarec(on bool) {
	cpu.dynarec = on
	if !on {
		cpu.frags.Building = nil
		cpu.lastFrag = nil
	}
}

// Return fragment cache.
func (cpu *CPU) Fragments() *fragment.Cache {
	return cpu.frags
}

// Return event list.
func (cpu *CPU) Events() *event.List {
	return cpu.events
}

// Return current value of Count.
func (cpu *CPU) Count() uint32 {
	return uint32(cpu.CP0[C0Count])
}

// Return true if CPU not running.
func (cpu *CPU) Halted() bool {
	return cpu.halted
}

// Return reason CPU halted.
func (cpu *CPU) Err() error {
	return cpu.err
}

// Request CPU stop at next instruction.
func (cpu *CPU) Halt() {
	if !cpu.halted {
		cpu.halted = true
		cpu.err = ErrHalted
	}
	cpu.stopRun = true
}

// Restart after breakpoint or halt request. Fatal errors stay.
func (cpu *CPU) Resume() bool {
	if !cpu.halted {
		return true
	}
	if !errors.Is(cpu.err, ErrBreakpoint) && !errors.Is(cpu.err, ErrHalted) {
		return false
	}
	cpu.stepOver = errors.Is(cpu.err, ErrBreakpoint)
	cpu.halted = false
	cpu.err = nil
	return true
}

// Stop with error that needs a reset.
func (cpu *CPU) fatal(pc, word uint32, err error) {
	cpu.err = &FatalError{PC: pc, Word: word, Err: err}
	slog.Error(cpu.err.Error())
	cpu.halted = true
	cpu.stopRun = true
}

// Run for cycles instructions, return number consumed.
func (cpu *CPU) Run(cycles int) int {
	if cycles <= 0 || !cpu.Resume() {
		return 0
	}
	cpu.stopRun = false
	cpu.events.Add(event.RunBudget, cycles)
	for !cpu.stopRun && !cpu.halted {
		cpu.Step()
	}
	remain, _ := cpu.events.Remove(event.RunBudget)
	cpu.stopRun = false
	return cycles - remain
}

// Run one instruction through the interpreter.
func (cpu *CPU) SingleStep() {
	if !cpu.Resume() {
		return
	}
	cpu.stopRun = false
	if cpu.intrPending {
		cpu.takeInterrupt()
	} else {
		cpu.interpret()
	}
	cpu.stopRun = false
}

// Execute one instruction or take an interrupt.
func (cpu *CPU) Step() {
	if cpu.halted {
		return
	}

	if cpu.intrPending {
		cpu.takeInterrupt()
		return
	}

	if cpu.dynarec && !cpu.Delay && cpu.runFragment() {
		return
	}
	cpu.interpret()
}

// Fetch, execute and retire one instruction.
func (cpu *CPU) interpret() {
	pc := cpu.PC
	building := cpu.frags.Building
	cpu.lastFrag = nil
	cpu.exitFrag = false

	phys, irc := cpu.fetchAddr(pc)
	var word uint32
	if irc == excNone {
		word, irc = cpu.fetch(pc, phys)
	}
	if irc == excNone {
		irc = cpu.execute(pc, word)
	}
	if building != nil && cpu.frags.Building == building {
		cpu.record(building, pc, phys, word, irc)
	}

	// Breakpoint and fatal errors do not retire the instruction.
	if irc == excBreakpoint || irc == excFatal {
		cpu.trap(pc, word, irc)
		return
	}
	cpu.tick()
	if irc != excNone {
		cpu.trap(pc, word, irc)
	}
	cpu.events.Advance(1)
}

// Increment Count.
func (cpu *CPU) tick() {
	cpu.CP0[C0Count] = uint64(uint32(cpu.CP0[C0Count]) + 1)
}

// Read instruction word from memory.
func (cpu *CPU) fetch(pc, phys uint32) (uint32, uint16) {
	word, err := cpu.bus.Read32(phys)
	if err != nil {
		cpu.fatal(pc, 0, err)
		return 0, excFatal
	}
	cpu.substituted = false
	if word == op.BreakpointOp && cpu.stepOver {
		if orig, ok := cpu.breakpoints[phys]; ok {
			word = orig
			cpu.substituted = true
		}
	}
	cpu.stepOver = false
	return word, excNone
}

// Decode and run instruction at pc, then advance PC.
func (cpu *CPU) execute(pc, word uint32) uint16 {
	inst := op.Instruction(word)
	step := stepInfo{
		pc:   pc,
		word: word,
		rs:   inst.Rs(),
		rt:   inst.Rt(),
		rd:   inst.Rd(),
		sa:   inst.Sa(),
		imm:  inst.SImm(),
	}
	cpu.clearBranch()
	debug.Debugf("CPU", debugMsk, debugInst, "%08x %08x", pc, word)
	irc := cpu.table[inst.Op()](&step)
	if irc != excNone {
		return irc
	}
	cpu.commit()
	return excNone
}

func (cpu *CPU) clearBranch() {
	cpu.branch = false
	cpu.nullify = false
	cpu.jumpNow = false
}

// Move to next instruction honoring delay slots.
func (cpu *CPU) commit() {
	switch {
	case cpu.jumpNow:
		cpu.PC = cpu.branchPC
		cpu.NextPC = cpu.PC + 4
		cpu.Delay = false
	case cpu.nullify:
		cpu.PC = cpu.NextPC + 4
		cpu.NextPC = cpu.PC + 4
		cpu.Delay = false
	case cpu.branch:
		cpu.PC = cpu.NextPC
		cpu.NextPC = cpu.branchPC
		cpu.Delay = true
	default:
		cpu.PC = cpu.NextPC
		cpu.NextPC = cpu.PC + 4
		cpu.Delay = false
	}
}

// Handle exception code returned from instruction.
func (cpu *CPU) trap(pc, word uint32, irc uint16) {
	switch irc {
	case excBreakpoint:
		cpu.halted = true
		cpu.stopRun = true
		cpu.err = ErrBreakpoint
		slog.Info("Breakpoint", "pc", pc)
	case excFatal:
		if cpu.err == nil {
			cpu.fatal(pc, word, ErrUnimplemented)
		}
	default:
		cpu.exception(irc)
	}
}

// Set branch target, taken after delay slot.
func (cpu *CPU) branchTo(target uint32) {
	cpu.branch = true
	cpu.branchPC = target
}

// Event has come due.
func (cpu *CPU) eventFired(kind event.Type) {
	debug.Debugf("CPU", debugMsk, debugEvent, "event %s count %08x", kind, cpu.Count())
	switch kind {
	case event.VBlank:
		cpu.events.Add(event.VBlank, VBlankInterval)
		cpu.bus.VerticalBlank()
		// Cause must follow the MI lines.
		ip2 := (uint32(cpu.CP0[C0Cause]) & CauseIP2) != 0
		if ip2 != cpu.bus.MIPending() {
			cpu.fatal(cpu.PC, 0, ErrInterruptState)
		}
		cpu.stopRun = true
	case event.Compare:
		cpu.CP0[C0Cause] |= uint64(CauseIP7)
		cpu.checkInterrupts()
		// Next match after Count wraps.
		cpu.events.Add(event.Compare, 1<<32)
	case event.RunBudget:
		cpu.stopRun = true
	}
}

// Translate virtual address to physical.
func (cpu *CPU) translate(vaddr uint32, write bool) (uint32, uint16) {
	if (vaddr & 0xc0000000) == kseg0 {
		return vaddr & physMsk, excNone
	}
	asid := uint32(cpu.CP0[C0EntryHi]) & 0xff
	phys, fault := cpu.TLB.Translate(vaddr, asid, write)
	if fault == tlb.FaultNone {
		return phys, excNone
	}
	cpu.tlbFault(vaddr)
	cpu.refill = fault == tlb.FaultRefill
	debug.Debugf("CPU", debugMsk, debugTLB, "fault %d address %08x write %v", fault, vaddr, write)
	if fault == tlb.FaultModify {
		return 0, excMod
	}
	if write {
		return 0, excTLBS
	}
	return 0, excTLBL
}

// Translate instruction address.
func (cpu *CPU) fetchAddr(pc uint32) (uint32, uint16) {
	if (pc & 3) != 0 {
		cpu.badVAddr = pc
		return 0, excAdEL
	}
	return cpu.translate(pc, false)
}

// Check alignment and translate data address.
func (cpu *CPU) dataAddr(vaddr uint32, size uint32, write bool) (uint32, uint16) {
	if (vaddr & (size - 1)) != 0 {
		cpu.badVAddr = vaddr
		if write {
			return 0, excAdES
		}
		return 0, excAdEL
	}
	return cpu.translate(vaddr, write)
}

// Read size bytes at vaddr, value is zero extended.
func (cpu *CPU) read(step *stepInfo, vaddr uint32, size uint32) (uint64, uint16) {
	phys, irc := cpu.dataAddr(vaddr, size, false)
	if irc != excNone {
		return 0, irc
	}
	var v uint64
	var err error
	switch size {
	case 1:
		var b uint8
		b, err = cpu.bus.Read8(phys)
		v = uint64(b)
	case 2:
		var h uint16
		h, err = cpu.bus.Read16(phys)
		v = uint64(h)
	case 4:
		var w uint32
		w, err = cpu.bus.Read32(phys)
		v = uint64(w)
	case 8:
		v, err = cpu.bus.Read64(phys)
	}
	if err != nil {
		cpu.fatal(step.pc, step.word, err)
		return 0, excFatal
	}
	return v, excNone
}

// Write size bytes at vaddr.
func (cpu *CPU) write(step *stepInfo, vaddr uint32, size uint32, v uint64) uint16 {
	phys, irc := cpu.dataAddr(vaddr, size, true)
	if irc != excNone {
		return irc
	}
	var err error
	switch size {
	case 1:
		err = cpu.bus.Write8(phys, uint8(v))
	case 2:
		err = cpu.bus.Write16(phys, uint16(v))
	case 4:
		err = cpu.bus.Write32(phys, uint32(v))
	case 8:
		err = cpu.bus.Write64(phys, v)
	}
	if err != nil {
		cpu.fatal(step.pc, step.word, err)
		return excFatal
	}
	return excNone
}

// Set general register, register zero stays zero.
func (cpu *CPU) setReg(r uint32, v uint64) {
	if r != 0 {
		cpu.GPR[r] = v
	}
}
