/*
   R4300 - TLB test cases.

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

package tlb

import (
	"testing"
)

// Build EntryLo from frame number and flags.
func lo(pfn uint32, flags uint32) uint32 {
	return (pfn << 6) | flags
}

func TestTranslateValid(t *testing.T) {
	var tb TLB
	tb.Reset()
	tb.Entry[0].Update(Mask4K, 0x00002000, lo(0x100, LoValid|LoDirty), 0)

	pa, fault := tb.Translate(0x00002004, 0, false)
	if fault != FaultNone {
		t.Errorf("Translate fault got: %d expected: %d", fault, FaultNone)
	}
	if pa != 0x00100004 {
		t.Errorf("Translate address not correct got: %08x expected: %08x", pa, 0x00100004)
	}

	// Odd half not valid.
	_, fault = tb.Translate(0x00003004, 0, false)
	if fault != FaultInvalid {
		t.Errorf("Translate odd half fault got: %d expected: %d", fault, FaultInvalid)
	}
}

func TestTranslateInvalid(t *testing.T) {
	var tb TLB
	tb.Reset()
	tb.Entry[5].Update(Mask4K, 0x00002000, lo(0x100, LoDirty), lo(0x200, LoValid))

	_, fault := tb.Translate(0x00002004, 0, false)
	if fault != FaultInvalid {
		t.Errorf("Translate fault got: %d expected: %d", fault, FaultInvalid)
	}
	_, fault = tb.Translate(0x00002004, 0, true)
	if fault != FaultInvalid {
		t.Errorf("Translate write fault got: %d expected: %d", fault, FaultInvalid)
	}

	pa, fault := tb.Translate(0x00003ffc, 0, false)
	if fault != FaultNone || pa != 0x00200ffc {
		t.Errorf("Translate odd half got: %08x %d expected: %08x", pa, fault, 0x00200ffc)
	}
	// Odd page has dirty clear.
	_, fault = tb.Translate(0x00003ffc, 0, true)
	if fault != FaultModify {
		t.Errorf("Translate write to clean page got: %d expected: %d", fault, FaultModify)
	}
}

func TestTranslateRefill(t *testing.T) {
	var tb TLB
	tb.Reset()
	_, fault := tb.Translate(0x00002004, 0, false)
	if fault != FaultRefill {
		t.Errorf("Translate empty TLB got: %d expected: %d", fault, FaultRefill)
	}

	tb.Entry[0].Update(Mask4K, 0x00002000, lo(0x100, LoValid), lo(0x101, LoValid))
	_, fault = tb.Translate(0x00004000, 0, false)
	if fault != FaultRefill {
		t.Errorf("Translate outside page got: %d expected: %d", fault, FaultRefill)
	}
}

func TestASID(t *testing.T) {
	var tb TLB
	tb.Reset()
	tb.Entry[1].Update(Mask4K, 0x00010000|0x12, lo(0x10, LoValid), lo(0x11, LoValid))

	if _, fault := tb.Translate(0x00010000, 0x12, false); fault != FaultNone {
		t.Errorf("Translate matching ASID got: %d expected: %d", fault, FaultNone)
	}
	if _, fault := tb.Translate(0x00010000, 0x13, false); fault != FaultRefill {
		t.Errorf("Translate other ASID got: %d expected: %d", fault, FaultRefill)
	}

	// Global in both halves ignores ASID.
	tb.Entry[1].Update(Mask4K, 0x00010000|0x12, lo(0x10, LoValid|LoGlobal), lo(0x11, LoValid|LoGlobal))
	if _, fault := tb.Translate(0x00011000, 0x55, false); fault != FaultNone {
		t.Errorf("Translate global got: %d expected: %d", fault, FaultNone)
	}
}

func TestLargePage(t *testing.T) {
	var tb TLB
	tb.Reset()
	// 16K pages, pair covers 0x00400000-0x00407fff.
	tb.Entry[2].Update(Mask16K, 0x00400000, lo(0x800, LoValid), lo(0x900, LoValid))
	pa, fault := tb.Translate(0x00401234, 0, false)
	if fault != FaultNone || pa != 0x00801234 {
		t.Errorf("Translate 16K even got: %08x %d expected: %08x", pa, fault, 0x00801234)
	}
	pa, fault = tb.Translate(0x00405678, 0, false)
	if fault != FaultNone || pa != 0x00901678 {
		t.Errorf("Translate 16K odd got: %08x %d expected: %08x", pa, fault, 0x00901678)
	}
}

func TestProbe(t *testing.T) {
	var tb TLB
	tb.Reset()
	tb.Entry[7].Update(Mask4K, 0x00120000|0x01, lo(1, LoValid), lo(2, LoValid))

	if r := tb.Probe(0x00120000 | 0x01); r != 7 {
		t.Errorf("Probe got: %d expected: %d", r, 7)
	}
	if r := tb.Probe(0x00121000 | 0x01); r != 7 {
		t.Errorf("Probe odd page got: %d expected: %d", r, 7)
	}
	if r := tb.Probe(0x00120000 | 0x02); r != -1 {
		t.Errorf("Probe wrong ASID got: %d expected: %d", r, -1)
	}
	if r := tb.Probe(0x00400000); r != -1 {
		t.Errorf("Probe missing got: %d expected: %d", r, -1)
	}
}

func TestReadBack(t *testing.T) {
	var tb TLB
	tb.Reset()
	tb.Entry[3].Update(Mask64K, 0x00340000|0x44, lo(0x80, LoValid|LoGlobal), lo(0x81, LoValid))
	pm, hi, lo0, lo1 := tb.Entry[3].Read()
	if pm != Mask64K {
		t.Errorf("PageMask got: %08x expected: %08x", pm, Mask64K)
	}
	if hi != 0x00340044 {
		t.Errorf("EntryHi got: %08x expected: %08x", hi, 0x00340044)
	}
	// Global only set in one half reads back clear.
	if lo0 != lo(0x80, LoValid) || lo1 != lo(0x81, LoValid) {
		t.Errorf("EntryLo got: %08x %08x", lo0, lo1)
	}
}

func TestResetIdempotent(t *testing.T) {
	var a, b TLB
	a.Reset()
	a.Reset()
	b.Reset()
	if a != b {
		t.Errorf("Two resets produced different TLB state")
	}
	for i := range Entries {
		if _, f := a.Translate(uint32(i)<<13, 0, false); f != FaultRefill {
			t.Errorf("Reset entry %d matched address", i)
		}
	}
}

func TestProbeAfterReset(t *testing.T) {
	var tb TLB
	tb.Reset()
	for i := range uint32(Entries) {
		for _, hi := range []uint32{0, 0x80000000 + i<<13, i << 13} {
			if r := tb.Probe(hi); r != -1 {
				t.Errorf("Probe %08x matched reset entry got: %d expected: %d", hi, r, -1)
			}
		}
	}
	tb.Entry[4].Update(Mask4K, 0x80008000, lo(3, LoValid), 0)
	if r := tb.Probe(0x80008000); r != 4 {
		t.Errorf("Probe written entry got: %d expected: %d", r, 4)
	}
}
