/*
   R4300 - Physical address bus test cases.

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
	"testing"

	D "github.com/rcornwell/R4300/emu/device"
)

type invalRange struct {
	addr   uint32
	length uint32
}

type testInval struct {
	ranges []invalRange
}

func (i *testInval) InvalidateRange(addr, length uint32) {
	i.ranges = append(i.ranges, invalRange{addr, length})
}

type testTasks struct {
	tasks []D.Task
}

func (t *testTasks) RunTask(task D.Task, intr D.Interrupts) {
	t.tasks = append(t.tasks, task)
	intr.RaiseInterrupt(D.IntrSP)
}

func TestSizedAccess(t *testing.T) {
	b := New(64)
	_ = b.Write32(0x100, 0x11223344)
	if v, _ := b.Read8(0x101); v != 0x22 {
		t.Errorf("Read8 not correct got: %02x expected: %02x", v, 0x22)
	}
	if v, _ := b.Read16(0x102); v != 0x3344 {
		t.Errorf("Read16 not correct got: %04x expected: %04x", v, 0x3344)
	}
	_ = b.Write8(0x103, 0xaa)
	_ = b.Write16(0x100, 0xbbcc)
	if v, _ := b.Read32(0x100); v != 0xbbcc33aa {
		t.Errorf("Read32 not correct got: %08x expected: %08x", v, 0xbbcc33aa)
	}
	_ = b.Write64(0x200, 0x0102030405060708)
	if v, _ := b.Read64(0x200); v != 0x0102030405060708 {
		t.Errorf("Read64 not correct got: %016x", v)
	}

	// SP memories.
	_ = b.Write32(SPDMEM+0x10, 0xdeadbeef)
	_ = b.Write32(SPIMEM+0x10, 0xfeedface)
	if v, _ := b.Read32(SPDMEM + 0x10); v != 0xdeadbeef {
		t.Errorf("DMEM not correct got: %08x expected: %08x", v, 0xdeadbeef)
	}
	if v := b.IMEM.GetMemory(0x10); v != 0xfeedface {
		t.Errorf("IMEM not correct got: %08x expected: %08x", v, 0xfeedface)
	}
}

func TestUnmapped(t *testing.T) {
	b := New(64)
	if _, err := b.Read32(0x05000000); err != nil {
		t.Errorf("Unmapped read returned error when not strict: %v", err)
	}
	b.Strict = true
	if _, err := b.Read32(0x05000000); !errors.Is(err, ErrUnmapped) {
		t.Errorf("Unmapped read did not return ErrUnmapped got: %v", err)
	}
	if err := b.Write32(0x05000000, 1); !errors.Is(err, ErrUnmapped) {
		t.Errorf("Unmapped write did not return ErrUnmapped got: %v", err)
	}
	// Memory beyond fitted RDRAM reads zero.
	if v, err := b.Read32(0x00800000); err != nil || v != 0 {
		t.Errorf("RDRAM hole not correct got: %08x %v", v, err)
	}
}

func TestWritable(t *testing.T) {
	b := New(64)
	cases := []struct {
		addr uint32
		ok   bool
	}{
		{0x00000000, true},
		{0x0000fffc, true},
		{0x00010000, false}, // Beyond fitted RDRAM.
		{SPDMEM, true},
		{SPIMEM + 0xffc, true},
		{MIRegs, false},
		{CartROM, false},
		{PIFRAM, true},
	}
	for _, tc := range cases {
		if got := b.Writable(tc.addr); got != tc.ok {
			t.Errorf("Writable %08x not correct got: %v expected: %v", tc.addr, got, tc.ok)
		}
	}
}

func TestInterruptMask(t *testing.T) {
	b := New(64)
	pending := false
	calls := 0
	b.IntrChange = func(p bool) {
		pending = p
		calls++
	}

	b.RaiseInterrupt(D.IntrVI)
	if pending {
		t.Errorf("Masked interrupt reported pending")
	}
	// Set VI mask bit.
	_ = b.Write32(MIRegs+0x0c, 0x0080)
	if !pending {
		t.Errorf("Unmasked interrupt not pending")
	}
	if v, _ := b.Read32(MIRegs + 0x0c); v != uint32(D.IntrVI) {
		t.Errorf("MI mask not correct got: %02x expected: %02x", v, D.IntrVI)
	}
	if v, _ := b.Read32(MIRegs + 0x08); v != uint32(D.IntrVI) {
		t.Errorf("MI interrupt not correct got: %02x expected: %02x", v, D.IntrVI)
	}
	// Writing VI current line acknowledges.
	_ = b.Write32(VIRegs+0x10, 0)
	if pending {
		t.Errorf("Acknowledged interrupt still pending")
	}
	// Clear VI mask bit.
	_ = b.Write32(MIRegs+0x0c, 0x0040)
	if _, m := b.MIState(); m != 0 {
		t.Errorf("MI mask not cleared got: %02x", m)
	}
	if calls < 4 {
		t.Errorf("Interrupt change not called enough got: %d", calls)
	}
}

func TestTaskHandoff(t *testing.T) {
	b := New(64)
	tasks := &testTasks{}
	b.Tasks = tasks
	// Descriptor at top of DMEM.
	for i := range uint32(16) {
		b.DMEM.SetMemory(0xfc0+i*4, i+1)
	}
	_ = b.Write32(SPRegs+0x10, spClrHalt)
	if len(tasks.tasks) != 1 {
		t.Fatalf("Task not handed off got: %d", len(tasks.tasks))
	}
	task := tasks.tasks[0]
	if task.Type != 1 || task.Flags != 2 || task.DataPtr != 13 || task.YieldDataSize != 16 {
		t.Errorf("Task descriptor not correct got: %+v", task)
	}
	if (b.SPStatus() & spHalt) == 0 {
		t.Errorf("SP not halted after task")
	}
	if intr, _ := b.MIState(); (intr & D.IntrSP) == 0 {
		t.Errorf("SP interrupt not raised by handler")
	}

	// Only clearing halt starts a task.
	_ = b.Write32(SPRegs+0x10, spClrBroke|spClrIntr)
	if len(tasks.tasks) != 1 {
		t.Errorf("Task started without clearing halt got: %d", len(tasks.tasks))
	}
	_ = b.Write32(SPRegs+0x10, spClrHalt)
	if len(tasks.tasks) != 2 {
		t.Errorf("Task count not correct got: %d expected: %d", len(tasks.tasks), 2)
	}
}

func TestSPSignals(t *testing.T) {
	b := New(64)
	_ = b.Write32(SPRegs+0x10, spClrSignal0<<1|spClrSignal0<<5)
	if v := b.SPStatus() & spSignalMask; v != (spSignal0 | spSignal0<<2) {
		t.Errorf("SP signals not correct got: %04x", v)
	}
	_ = b.Write32(SPRegs+0x10, spClrSignal0)
	if v := b.SPStatus() & spSignalMask; v != spSignal0<<2 {
		t.Errorf("SP signal 0 not cleared got: %04x", v)
	}
}

func TestPIDMA(t *testing.T) {
	b := New(64)
	inval := &testInval{}
	b.Inval = inval
	rom := make([]byte, 0x2000)
	rom[0], rom[1], rom[2], rom[3] = 0x80, 0x37, 0x12, 0x40
	for i := 0x1000; i < 0x1100; i++ {
		rom[i] = byte(i)
	}
	if err := b.LoadROM(rom); err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}
	_ = b.Write32(PIRegs+0x00, 0x400)
	_ = b.Write32(PIRegs+0x04, CartROM+0x1000)
	_ = b.Write32(PIRegs+0x0c, 0xff)
	if v, _ := b.Read32(0x400); v != 0x00010203 {
		t.Errorf("PI DMA data not correct got: %08x expected: %08x", v, 0x00010203)
	}
	if v, _ := b.Read32(0x4fc); v != 0xfcfdfeff {
		t.Errorf("PI DMA data end not correct got: %08x expected: %08x", v, 0xfcfdfeff)
	}
	if len(inval.ranges) != 1 || inval.ranges[0] != (invalRange{0x400, 0x100}) {
		t.Errorf("PI DMA invalidate not correct got: %v", inval.ranges)
	}
	if intr, _ := b.MIState(); (intr & D.IntrPI) == 0 {
		t.Errorf("PI interrupt not raised")
	}
	if v, _ := b.Read32(PIRegs + 0x10); (v & piStatusIntr) == 0 {
		t.Errorf("PI status interrupt not set got: %08x", v)
	}
	_ = b.Write32(PIRegs+0x10, piStatusClrIntr)
	if intr, _ := b.MIState(); (intr & D.IntrPI) != 0 {
		t.Errorf("PI interrupt not cleared")
	}
}

func TestSPDMA(t *testing.T) {
	b := New(64)
	inval := &testInval{}
	b.Inval = inval
	for i := range uint32(8) {
		_ = b.Write32(0x1000+i*4, 0x100+i)
	}
	_ = b.Write32(SPRegs+0x00, 0x1000|0x20) // IMEM
	_ = b.Write32(SPRegs+0x04, 0x1000)
	_ = b.Write32(SPRegs+0x08, 0x1f)
	for i := range uint32(8) {
		if v := b.IMEM.GetMemory(0x20 + i*4); v != 0x100+i {
			t.Errorf("SP DMA read not correct got: %08x expected: %08x", v, 0x100+i)
		}
	}
	if len(inval.ranges) != 0 {
		t.Errorf("SP DMA into SP memory invalidated RDRAM")
	}
	_ = b.Write32(SPRegs+0x04, 0x2000)
	_ = b.Write32(SPRegs+0x0c, 0x1f)
	if v, _ := b.Read32(0x2004); v != 0x101 {
		t.Errorf("SP DMA write not correct got: %08x expected: %08x", v, 0x101)
	}
	if len(inval.ranges) != 1 || inval.ranges[0] != (invalRange{0x2000, 0x20}) {
		t.Errorf("SP DMA invalidate not correct got: %v", inval.ranges)
	}
}

func TestROMByteOrder(t *testing.T) {
	base := make([]byte, 0x1000)
	copy(base, []byte{0x80, 0x37, 0x12, 0x40, 0x01, 0x02, 0x03, 0x04})
	copy(base[0x20:], "TEST TITLE          ")
	swap := make([]byte, len(base))
	little := make([]byte, len(base))
	for i := 0; i < len(base); i += 4 {
		swap[i], swap[i+1], swap[i+2], swap[i+3] = base[i+1], base[i], base[i+3], base[i+2]
		little[i], little[i+1], little[i+2], little[i+3] = base[i+3], base[i+2], base[i+1], base[i]
	}
	for _, img := range [][]byte{base, swap, little} {
		b := New(64)
		if err := b.LoadROM(img); err != nil {
			t.Errorf("LoadROM failed: %v", err)
			continue
		}
		if v, _ := b.Read32(CartROM + 4); v != 0x01020304 {
			t.Errorf("ROM word not correct got: %08x expected: %08x", v, 0x01020304)
		}
		if title := b.ROMTitle(); title != "TEST TITLE" {
			t.Errorf("ROM title not correct got: %q", title)
		}
	}

	b := New(64)
	if err := b.LoadROM(make([]byte, 0x1000)); !errors.Is(err, ErrBadImage) {
		t.Errorf("Bad image not rejected got: %v", err)
	}
}

func TestSIDMA(t *testing.T) {
	b := New(64)
	_ = b.Write32(0x300, 0xcafef00d)
	_ = b.Write32(SIRegs+0x00, 0x300)
	_ = b.Write32(SIRegs+0x10, PIFRAM)
	if v, _ := b.Read32(PIFRAM); v != 0xcafef00d {
		t.Errorf("SI DMA to PIF not correct got: %08x", v)
	}
	if intr, _ := b.MIState(); (intr & D.IntrSI) == 0 {
		t.Errorf("SI interrupt not raised")
	}
	_ = b.Write32(SIRegs+0x18, 0)
	if intr, _ := b.MIState(); (intr & D.IntrSI) != 0 {
		t.Errorf("SI interrupt not cleared")
	}
}
