/*
   R4300 - Disassembler test cases.

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

package disassembler

import (
	"testing"

	op "github.com/rcornwell/R4300/emu/opcodemap"
)

const testPC = 0x80001000

func TestDisassembleImmediate(t *testing.T) {
	cases := []struct {
		word  uint32
		match string
	}{
		{op.EncodeI(op.OpADDIU, 29, 29, 0xffe0), "ADDIU   sp,sp,-32"},
		{op.EncodeI(op.OpORI, 8, 8, 0x1234), "ORI     t0,t0,0x1234"},
		{op.EncodeI(op.OpLUI, 0, 4, 0x8000), "LUI     a0,0x8000"},
		{op.EncodeI(op.OpSLTI, 2, 3, 5), "SLTI    v1,v0,5"},
		{op.EncodeI(op.OpDADDIU, 0, 2, 1), "DADDIU  v0,zero,1"},
	}
	for _, tc := range cases {
		inst := Disassemble(tc.word, testPC)
		if inst != tc.match {
			t.Error("Inst Got: " + inst + " Expected " + tc.match)
		}
	}
}

func TestDisassembleMemory(t *testing.T) {
	cases := []struct {
		word  uint32
		match string
	}{
		{op.EncodeI(op.OpLW, 29, 31, 0x14), "LW      ra,20(sp)"},
		{op.EncodeI(op.OpSD, 4, 16, 0xfff8), "SD      s0,-8(a0)"},
		{op.EncodeI(op.OpLWC1, 2, 4, 0), "LWC1    f4,0(v0)"},
		{op.EncodeI(op.OpCACHE, 8, 0x10, 0), "CACHE   0x10,0(t0)"},
	}
	for _, tc := range cases {
		inst := Disassemble(tc.word, testPC)
		if inst != tc.match {
			t.Error("Inst Got: " + inst + " Expected " + tc.match)
		}
	}
}

func TestDisassembleBranch(t *testing.T) {
	cases := []struct {
		word  uint32
		match string
	}{
		{op.EncodeI(op.OpBNE, 4, 5, 0xfffe), "BNE     a0,a1,80000ffc"},
		{op.EncodeI(op.OpBEQL, 0, 0, 3), "BEQL    zero,zero,80001010"},
		{op.EncodeI(op.OpBLEZ, 2, 0, 1), "BLEZ    v0,80001008"},
		{op.EncodeI(op.OpREGIMM, 3, 0x11, 2), "BGEZAL  v1,8000100c"},
		{op.EncodeI(op.OpREGIMM, 3, 0x0c, 7), "TEQI    v1,7"},
		{op.EncodeJ(op.OpJAL, 0x80123450), "JAL     80123450"},
		{op.EncodeI(op.OpCOP1, op.CopBC, 1, 4), "BC1T    80001014"},
	}
	for _, tc := range cases {
		inst := Disassemble(tc.word, testPC)
		if inst != tc.match {
			t.Error("Inst Got: " + inst + " Expected " + tc.match)
		}
	}
}

func TestDisassembleSpecial(t *testing.T) {
	cases := []struct {
		word  uint32
		match string
	}{
		{op.EncodeR(op.FnADDU, 4, 5, 2, 0), "ADDU    v0,a0,a1"},
		{op.EncodeR(op.FnSLL, 0, 9, 8, 4), "SLL     t0,t1,4"},
		{op.EncodeR(op.FnSRAV, 6, 9, 8, 0), "SRAV    t0,t1,a2"},
		{op.EncodeR(op.FnJR, 31, 0, 0, 0), "JR      ra"},
		{op.EncodeR(op.FnJALR, 25, 0, 31, 0), "JALR    ra,t9"},
		{op.EncodeR(op.FnMFLO, 0, 0, 2, 0), "MFLO    v0"},
		{op.EncodeR(op.FnDMULTU, 4, 5, 0, 0), "DMULTU  a0,a1"},
		{op.EncodeR(op.FnSYSCALL, 0, 0, 0, 0), "SYSCALL"},
		{0, "NOP"},
	}
	for _, tc := range cases {
		inst := Disassemble(tc.word, testPC)
		if inst != tc.match {
			t.Error("Inst Got: " + inst + " Expected " + tc.match)
		}
	}
}

func TestDisassembleCoprocessor(t *testing.T) {
	cop0 := func(sel, rt, rd, fn int) uint32 {
		return op.OpCOP0<<26 | op.EncodeR(fn, sel, rt, rd, 0)
	}
	cop1 := func(fmt, fn, fd, fs, ft int) uint32 {
		return op.OpCOP1<<26 | op.EncodeR(fn, fmt, ft, fs, fd)
	}
	cases := []struct {
		word  uint32
		match string
	}{
		{cop0(op.CopMT, 8, 12, 0), "MTC0    t0,Status"},
		{cop0(op.CopMF, 2, 9, 0), "MFC0    v0,Count"},
		{cop0(op.CopCO, 0, 0, op.C0ERET), "ERET"},
		{cop0(op.CopCO, 0, 0, op.C0TLBWI), "TLBWI"},
		{cop1(op.FmtD, op.F1ADD, 6, 2, 4), "ADD.D   f6,f2,f4"},
		{cop1(op.FmtS, op.F1CVTD, 4, 2, 0), "CVT.D.S f4,f2"},
		{cop1(op.FmtD, op.F1COMPARE|0xc, 0, 2, 4), "C.LT.D  f2,f4"},
		{cop1(op.CopCT, 0, 0, 31, 1), "CTC1    at,fcr31"},
	}
	for _, tc := range cases {
		inst := Disassemble(tc.word, testPC)
		if inst != tc.match {
			t.Error("Inst Got: " + inst + " Expected " + tc.match)
		}
	}
}

func TestDisassembleUndefined(t *testing.T) {
	match := ".word   0x4c000000"
	inst := Disassemble(0x4c000000, testPC)
	if inst != match {
		t.Error("Inst Got: " + inst + " Expected " + match)
	}
	if inst := Disassemble(op.BreakpointOp, testPC); inst != "BKPT" {
		t.Error("Inst Got: " + inst + " Expected BKPT")
	}
}

func TestPrintInst(t *testing.T) {
	match := "80001000  24020005  ADDIU   v0,zero,5"
	inst := PrintInst(op.EncodeI(op.OpADDIU, 0, 2, 5), testPC)
	if inst != match {
		t.Error("Inst Got: " + inst + " Expected " + match)
	}
}
