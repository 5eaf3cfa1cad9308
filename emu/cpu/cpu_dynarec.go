/*
   R4300 - Fragment building and execution.

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
	"github.com/rcornwell/R4300/emu/fragment"
	"github.com/rcornwell/R4300/util/debug"
)

// Only unmapped segments have a fixed physical range.
func unmapped(pc uint32) bool {
	return (pc & 0xc0000000) == kseg0
}

// Run compiled code at PC if there is any. Returns false when the
// interpreter should run this step.
func (cpu *CPU) runFragment() bool {
	pc := cpu.PC
	prev, exit := cpu.lastFrag, cpu.lastExit
	cpu.lastFrag = nil
	if !unmapped(pc) || cpu.frags.Building != nil {
		return false
	}

	var f *fragment.Fragment
	linked := false
	if prev != nil {
		f = prev.Link(exit, pc)
		linked = f != nil
	}
	if f == nil {
		f = cpu.frags.Lookup(pc)
	}
	if f == nil {
		cpu.frags.Building = cpu.frags.Hit(pc)
		return false
	}
	if !f.Compiled() {
		debug.Debugf("CPU", debugMsk, debugDynarec, "rebuild %08x", pc)
		cpu.frags.Building = f
		return false
	}
	// Skip when a known event falls due part way through.
	if head, ok := cpu.events.Head(); ok && head < f.OpCount() {
		return false
	}

	cpu.exitFrag = false
	cpu.unretired = false
	n := f.Run()
	if cpu.unretired {
		n--
		cpu.unretired = false
	}
	if !linked && prev != nil && prev.Compiled() {
		prev.SetLink(exit, f)
	}
	if f.Compiled() {
		cpu.lastFrag, cpu.lastExit = f, n
	}
	return true
}

// Add interpreted instruction to fragment being built.
func (cpu *CPU) record(f *fragment.Fragment, pc, phys, word uint32, irc uint16) {
	if irc != excNone || cpu.substituted || !unmapped(pc) {
		cpu.frags.Finalize(f, cpu.compile)
		return
	}
	f.Append(fragment.Op{PC: pc, Phys: phys, Word: word})
	n := f.OpCount()
	switch {
	case n > fragment.MinOps && cpu.PC != pc+4:
	case n >= fragment.MaxOps:
	case cpu.intrPending, cpu.halted, cpu.exitFrag:
	default:
		return
	}
	cpu.frags.Finalize(f, cpu.compile)
}

// Turn recorded instruction into a closure that runs it exactly as the
// interpreter would.
func (cpu *CPU) compile(o fragment.Op) fragment.Code {
	pc, word, next := o.PC, o.Word, o.Next
	return func() bool {
		irc := cpu.execute(pc, word)
		switch irc {
		case excNone:
		case excBreakpoint, excFatal:
			cpu.unretired = true
			cpu.trap(pc, word, irc)
			return false
		default:
			cpu.tick()
			cpu.trap(pc, word, irc)
			cpu.events.Advance(1)
			return false
		}
		cpu.tick()
		// Count and Compare writes reschedule against the current time.
		cpu.events.Advance(1)
		if cpu.halted || cpu.stopRun || cpu.intrPending || cpu.exitFrag {
			return false
		}
		return cpu.PC == next
	}
}
