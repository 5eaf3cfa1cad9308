/*
   R4300 - Debugger support.

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
	"slices"

	op "github.com/rcornwell/R4300/emu/opcodemap"
	"github.com/rcornwell/R4300/emu/tlb"
	"github.com/rcornwell/R4300/util/debug"
)

// Snapshot of architectural state.
type State struct {
	GPR    [32]uint64
	Hi     uint64
	Lo     uint64
	PC     uint32
	NextPC uint32
	Delay  bool
	CP0    [32]uint64
	FPR    [32]uint64
	FCR31  uint32
	LLBit  bool
	Halted bool
}

// Return copy of registers.
func (cpu *CPU) State() State {
	s := State{
		GPR:    cpu.GPR,
		Hi:     cpu.Hi,
		Lo:     cpu.Lo,
		PC:     cpu.PC,
		NextPC: cpu.NextPC,
		Delay:  cpu.Delay,
		CP0:    cpu.CP0,
		FPR:    cpu.FPR,
		FCR31:  cpu.FCR31,
		LLBit:  cpu.LLBit,
		Halted: cpu.halted,
	}
	s.CP0[C0Random] = uint64(cpu.random())
	return s
}

// Translate virtual address without touching exception state.
func (cpu *CPU) PhysAddr(vaddr uint32) (uint32, bool) {
	if unmapped(vaddr) {
		return vaddr & physMsk, true
	}
	phys, fault := cpu.TLB.Translate(vaddr, uint32(cpu.CP0[C0EntryHi])&0xff, false)
	return phys, fault == tlb.FaultNone
}

// Set or clear breakpoint at virtual address, returns true if now set.
func (cpu *CPU) ToggleBreakpoint(vaddr uint32) bool {
	phys, ok := cpu.PhysAddr(vaddr &^ 3)
	if !ok {
		return false
	}
	if orig, ok := cpu.breakpoints[phys]; ok {
		delete(cpu.breakpoints, phys)
		_ = cpu.bus.Write32(phys, orig)
		cpu.frags.Invalidate(phys, 4)
		debug.Debugf("CPU", debugMsk, debugInst, "breakpoint cleared %08x", phys)
		return false
	}
	// Breakpoint word can only be placed in memory.
	if !cpu.bus.Writable(phys) {
		return false
	}
	word, err := cpu.bus.Read32(phys)
	if err != nil {
		return false
	}
	if err := cpu.bus.Write32(phys, op.BreakpointOp); err != nil {
		return false
	}
	if w, _ := cpu.bus.Read32(phys); w != op.BreakpointOp {
		return false
	}
	cpu.breakpoints[phys] = word
	cpu.frags.Invalidate(phys, 4)
	debug.Debugf("CPU", debugMsk, debugInst, "breakpoint set %08x was %08x", phys, word)
	return true
}

// Physical addresses holding breakpoints, in order.
func (cpu *CPU) Breakpoints() []uint32 {
	bp := make([]uint32, 0, len(cpu.breakpoints))
	for addr := range cpu.breakpoints {
		bp = append(bp, addr)
	}
	slices.Sort(bp)
	return bp
}

// Original word at a breakpoint address.
func (cpu *CPU) BreakpointWord(phys uint32) (uint32, bool) {
	w, ok := cpu.breakpoints[phys]
	return w, ok
}
