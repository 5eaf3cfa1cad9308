/*
   R4300 - Fragment compiler test cases.

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
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rcornwell/R4300/emu/fragment"
	op "github.com/rcornwell/R4300/emu/opcodemap"
)

// Counting loop run n times, stores each count at 0x2000. Ends on a breakpoint.
func loopProg(n int, tail ...uint32) []uint32 {
	prog := []uint32{
		iType(op.OpORI, 0, 6, uint16(n)),   // 0  ORI r6,r0,n
		iType(op.OpORI, 0, 1, 0),           // 1  ORI r1,r0,0
		iType(op.OpLUI, 0, 2, 0x8000),      // 2  LUI r2,0x8000
		iType(op.OpORI, 2, 2, 0x2000),      // 3  ORI r2,r2,0x2000
		iType(op.OpADDIU, 1, 1, 1),         // 4  ADDIU r1,r1,1
		rType(op.FnADDU, 3, 1, 3, 0),       // 5  ADDU r3,r3,r1
		rType(op.FnSLL, 0, 1, 4, 2),        // 6  SLL r4,r1,2
		rType(op.FnXOR, 5, 3, 5, 0),        // 7  XOR r5,r5,r3
		iType(op.OpSW, 2, 1, 0),            // 8  SW r1,0(r2)
		iType(op.OpADDIU, 7, 7, 2),         // 9  ADDIU r7,r7,2
		rType(op.FnSUBU, 8, 1, 8, 0),       // 10 SUBU r8,r8,r1
		rType(op.FnOR, 9, 4, 9, 0),         // 11 OR r9,r9,r4
		iType(op.OpBNE, 1, 6, disp(12, 4)), // 12 BNE r1,r6,4
		iType(op.OpADDIU, 10, 10, 1),       // 13 ADDIU r10,r10,1
	}
	prog = append(prog, tail...)
	return append(prog, op.BreakpointOp)
}

// Instructions retired by loopProg(n) before the breakpoint.
func loopCount(n int) uint32 {
	return uint32(4 + 10*n)
}

func TestFragmentNotHot(t *testing.T) {
	cpu := setup(loopProg(fragment.HotThreshold - 1)...)
	cpu.Run(100000)
	s := cpu.Fragments().Stats()
	if s.Fragments != 0 {
		t.Errorf("Fragment created before threshold got: %d", s.Fragments)
	}
	if s.Entries == 0 {
		t.Errorf("No entry points counted")
	}
}

func TestFragmentHot(t *testing.T) {
	cpu := setup(loopProg(fragment.HotThreshold)...)
	cpu.Run(100000)
	s := cpu.Fragments().Stats()
	if s.Fragments != 1 || s.Compiled != 1 {
		t.Errorf("Fragment not compiled got: %d/%d expected: 1/1", s.Compiled, s.Fragments)
	}
	if s.Ops != 10 {
		t.Errorf("Fragment length not correct got: %d expected: %d", s.Ops, 10)
	}
	if s.Executions != 0 {
		t.Errorf("Fragment ran before compiled got: %d", s.Executions)
	}
	f := cpu.Fragments().Lookup(progPC + 4*4)
	if f == nil {
		t.Fatalf("Fragment not at loop head")
	}
	if f.Trace[9].PC != progPC+13*4 {
		t.Errorf("Delay slot not last in trace got: %08x", f.Trace[9].PC)
	}
}

func TestFragmentRun(t *testing.T) {
	cpu := setup(loopProg(600)...)
	n := cpu.Run(100000)
	if !errors.Is(cpu.Err(), ErrBreakpoint) {
		t.Errorf("Did not stop on breakpoint got: %v", cpu.Err())
	}
	if n != int(loopCount(600)) {
		t.Errorf("Run count not correct got: %d expected: %d", n, loopCount(600))
	}
	if cpu.Count() != loopCount(600) {
		t.Errorf("Count not correct got: %d expected: %d", cpu.Count(), loopCount(600))
	}
	s := cpu.Fragments().Stats()
	if s.Executions != 100 {
		t.Errorf("Fragment executions not correct got: %d expected: %d", s.Executions, 100)
	}
	if cpu.GPR[1] != 600 {
		t.Errorf("Loop counter not correct got: %d expected: %d", cpu.GPR[1], 600)
	}
	if cpu.GPR[3] != 180300 {
		t.Errorf("Loop sum not correct got: %d expected: %d", cpu.GPR[3], 180300)
	}
	if cpu.GPR[10] != 600 {
		t.Errorf("Delay slot count not correct got: %d expected: %d", cpu.GPR[10], 600)
	}
}

func TestDynarecDisabled(t *testing.T) {
	cpu := setup(loopProg(600)...)
	cpu.SetDynarec(false)
	cpu.Run(100000)
	s := cpu.Fragments().Stats()
	if s.Fragments != 0 || s.Entries != 0 {
		t.Errorf("Fragments built with dynarec off got: %d entries: %d", s.Fragments, s.Entries)
	}
	if cpu.GPR[1] != 600 {
		t.Errorf("Loop counter not correct got: %d expected: %d", cpu.GPR[1], 600)
	}
}

// Run both CPUs in chunks, every chunk must stop at the same place.
func runPair(t *testing.T, fast, slow *CPU, chunk int) {
	t.Helper()
	for i := 0; !fast.Halted() || !slow.Halted(); i++ {
		nf := fast.Run(chunk)
		ns := slow.Run(chunk)
		if nf != ns {
			t.Fatalf("Chunk %d cycles differ got: %d expected: %d", i, nf, ns)
		}
		if diff := cmp.Diff(slow.State(), fast.State()); diff != "" {
			t.Fatalf("Chunk %d state differs (-interpreted +compiled):\n%s", i, diff)
		}
		if nf == 0 {
			break
		}
	}
}

func TestFragmentEquivalence(t *testing.T) {
	prog := loopProg(800)
	fast := setup(prog...)
	slow := setup(prog...)
	slow.SetDynarec(false)
	runPair(t, fast, slow, 777)
	if fast.Fragments().Stats().Executions == 0 {
		t.Errorf("Compiled code never ran")
	}
	fw := fast.bus.RDRAM.GetMemory(0x2000)
	sw := slow.bus.RDRAM.GetMemory(0x2000)
	if fw != sw || fw != 800 {
		t.Errorf("Stored value not correct got: %d/%d expected: %d", fw, sw, 800)
	}
}

func TestFragmentInterrupt(t *testing.T) {
	prog := loopProg(800)
	fast := setup(prog...)
	slow := setup(prog...)
	slow.SetDynarec(false)
	for _, cpu := range []*CPU{fast, slow} {
		cpu.bus.RDRAM.SetMemory(0x180, op.BreakpointOp)
		cpu.WriteCP0(C0Compare, 5503)
		cpu.WriteCP0(C0Status, uint64(StatusCU0|StatusIE|0x8000)) // IM7
	}
	runPair(t, fast, slow, 100000)
	if fast.Count() != 5503 || slow.Count() != 5503 {
		t.Errorf("Interrupt count not correct got: %d/%d expected: %d", fast.Count(), slow.Count(), 5503)
	}
	if fast.PC != vecGeneral {
		t.Errorf("Interrupt not taken got: %08x", fast.PC)
	}
	// Interrupt came in the delay slot of the loop branch.
	if uint32(fast.CP0[C0EPC]) != progPC+12*4 {
		t.Errorf("EPC not correct got: %08x expected: %08x", uint32(fast.CP0[C0EPC]), progPC+12*4)
	}
	if (uint32(fast.CP0[C0Cause]) & CauseBD) == 0 {
		t.Errorf("BD not set")
	}
	if fast.Fragments().Stats().Executions == 0 {
		t.Errorf("Compiled code never ran")
	}
}

func TestCacheInvalidate(t *testing.T) {
	cpu := setup(loopProg(600,
		iType(op.OpLUI, 0, 11, 0x8000),  // LUI r11,0x8000
		iType(op.OpORI, 11, 11, 0x1010), // ORI r11,r11,0x1010
		iType(op.OpCACHE, 11, 0x10, 0),  // CACHE hit invalidate I,0(r11)
	)...)
	cpu.Run(100000)
	s := cpu.Fragments().Stats()
	if s.Compiled != 0 {
		t.Errorf("Fragment not thrown away got: %d", s.Compiled)
	}
	if s.Invalidations != 1 {
		t.Errorf("Invalidations not correct got: %d expected: %d", s.Invalidations, 1)
	}
	if cpu.Count() != loopCount(600)+3 {
		t.Errorf("Count not correct got: %d expected: %d", cpu.Count(), loopCount(600)+3)
	}
}

func TestBreakpointInFragment(t *testing.T) {
	cpu := setup(loopProg(700)...)
	start := loopCount(510)
	if n := cpu.Run(int(start)); n != int(start) {
		t.Fatalf("Run count not correct got: %d expected: %d", n, start)
	}
	if cpu.Fragments().Stats().Compiled != 1 {
		t.Fatalf("Fragment not compiled")
	}
	if !cpu.ToggleBreakpoint(progPC + 8*4) {
		t.Fatalf("Breakpoint not set")
	}
	if cpu.Fragments().Stats().Invalidations != 1 {
		t.Errorf("Breakpoint did not invalidate fragment")
	}
	cpu.Run(100000)
	if !errors.Is(cpu.Err(), ErrBreakpoint) || cpu.PC != progPC+8*4 {
		t.Errorf("Did not stop at breakpoint got: %08x %v", cpu.PC, cpu.Err())
	}
	if cpu.Count() != start+4 {
		t.Errorf("Count not correct got: %d expected: %d", cpu.Count(), start+4)
	}
	if cpu.ToggleBreakpoint(progPC + 8*4) {
		t.Errorf("Breakpoint not cleared")
	}
	cpu.Run(100000)
	if cpu.GPR[1] != 700 {
		t.Errorf("Loop counter not correct got: %d expected: %d", cpu.GPR[1], 700)
	}
	if cpu.Count() != loopCount(700) {
		t.Errorf("Count not correct got: %d expected: %d", cpu.Count(), loopCount(700))
	}
}

// Loop moving Compare ahead of Count every pass, then idles until it matches.
func TestFragmentCompareWrite(t *testing.T) {
	const n = 600
	prog := []uint32{
		iType(op.OpORI, 0, 6, n),                             // 0  ORI r6,r0,n
		iType(op.OpORI, 0, 1, 0),                             // 1  ORI r1,r0,0
		op.OpCOP0<<26 | rType(0, op.CopMF, 12, C0Count, 0),   // 2  MFC0 r12,Count
		iType(op.OpADDIU, 12, 12, 40),                        // 3  ADDIU r12,r12,40
		op.OpCOP0<<26 | rType(0, op.CopMT, 12, C0Compare, 0), // 4  MTC0 r12,Compare
		iType(op.OpADDIU, 1, 1, 1),                           // 5  ADDIU r1,r1,1
		rType(op.FnADDU, 3, 1, 3, 0),                         // 6  ADDU r3,r3,r1
		rType(op.FnXOR, 5, 3, 5, 0),                          // 7  XOR r5,r5,r3
		iType(op.OpADDIU, 7, 7, 2),                           // 8  ADDIU r7,r7,2
		rType(op.FnSUBU, 8, 1, 8, 0),                         // 9  SUBU r8,r8,r1
		iType(op.OpBNE, 1, 6, disp(10, 2)),                   // 10 BNE r1,r6,2
		iType(op.OpADDIU, 10, 10, 1),                         // 11 ADDIU r10,r10,1
	}
	prog = append(prog, make([]uint32, 50)...) // 12-61 NOP
	prog = append(prog, op.BreakpointOp)

	fast := setup(prog...)
	slow := setup(prog...)
	slow.SetDynarec(false)
	for _, cpu := range []*CPU{fast, slow} {
		cpu.bus.RDRAM.SetMemory(0x180, op.BreakpointOp)
		cpu.WriteCP0(C0Status, uint64(StatusCU0|StatusIE|0x8000)) // IM7
	}
	runPair(t, fast, slow, 777)
	if fast.Fragments().Stats().Executions == 0 {
		t.Errorf("Compiled code never ran")
	}

	// Last Compare written is Count at the final MFC0 plus 40.
	want := uint32(2 + 10*(n-1) + 40)
	for _, cpu := range []*CPU{fast, slow} {
		if cpu.Count() != want || uint32(cpu.CP0[C0Compare]) != want {
			t.Errorf("Count/Compare not correct got: %d/%d expected: %d", cpu.Count(), uint32(cpu.CP0[C0Compare]), want)
		}
		if cpu.PC != vecGeneral {
			t.Errorf("Interrupt not taken got: %08x", cpu.PC)
		}
		if uint32(cpu.CP0[C0EPC]) != progPC+42*4 {
			t.Errorf("EPC not correct got: %08x expected: %08x", uint32(cpu.CP0[C0EPC]), progPC+42*4)
		}
	}
}

// Loop whose body is rewritten by SP DMA from inside the loop.
func TestFragmentDMAPatch(t *testing.T) {
	const n = 600
	prog := []uint32{
		iType(op.OpLUI, 0, 2, 0xa400),         // 0  LUI r2,0xa400 SP DMEM
		iType(op.OpLUI, 0, 13, 0xa404),        // 1  LUI r13,0xa404 SP registers
		iType(op.OpORI, 0, 6, n),              // 2  ORI r6,r0,n
		iType(op.OpORI, 0, 14, progBase+14*4), // 3  ORI r14,r0,address of 14
		iType(op.OpORI, 0, 1, 0),              // 4  ORI r1,r0,0
		iType(op.OpLW, 2, 4, 0),               // 5  LW r4,0(r2)
		iType(op.OpADDIU, 4, 4, 1),            // 6  ADDIU r4,r4,1
		iType(op.OpSW, 2, 4, 0),               // 7  SW r4,0(r2)
		iType(op.OpSW, 13, 0, 0x00),           // 8  SW r0,0(r13) SP_MEM_ADDR
		iType(op.OpSW, 13, 14, 0x04),          // 9  SW r14,4(r13) SP_DRAM_ADDR
		iType(op.OpSW, 13, 0, 0x0c),           // 10 SW r0,12(r13) SP_WR_LEN 8 bytes
		iType(op.OpADDIU, 1, 1, 1),            // 11 ADDIU r1,r1,1
		rType(op.FnADDU, 3, 1, 3, 0),          // 12 ADDU r3,r3,r1
		0,                                     // 13 NOP
		iType(op.OpADDIU, 10, 10, 0),          // 14 ADDIU r10,r10,k
		iType(op.OpADDIU, 11, 11, 1),          // 15 ADDIU r11,r11,1
		iType(op.OpBNE, 1, 6, disp(16, 5)),    // 16 BNE r1,r6,5
		iType(op.OpADDIU, 7, 7, 1),            // 17 ADDIU r7,r7,1
		op.BreakpointOp,
	}

	fast := setup(prog...)
	slow := setup(prog...)
	slow.SetDynarec(false)
	for _, cpu := range []*CPU{fast, slow} {
		cpu.bus.DMEM.SetMemory(0, prog[14])
		cpu.bus.DMEM.SetMemory(4, prog[15])
	}
	runPair(t, fast, slow, 777)

	s := fast.Fragments().Stats()
	if s.Executions == 0 || s.Invalidations == 0 {
		t.Errorf("Compiled code not run and invalidated got: %d/%d", s.Executions, s.Invalidations)
	}
	for _, cpu := range []*CPU{fast, slow} {
		if !errors.Is(cpu.Err(), ErrBreakpoint) {
			t.Errorf("Did not stop on breakpoint got: %v", cpu.Err())
		}
		if cpu.GPR[10] != n*(n+1)/2 {
			t.Errorf("Patched sum not correct got: %d expected: %d", cpu.GPR[10], n*(n+1)/2)
		}
		if cpu.GPR[11] != n {
			t.Errorf("Loop count not correct got: %d expected: %d", cpu.GPR[11], n)
		}
	}
}
