/*
   R4300 - Instruction decode test cases.

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

package opcodemap

import (
	"math/rand"
	"testing"
)

type fieldDef struct {
	name  string
	shift uint
	width uint
	get   func(Instruction) uint32
}

var fields = []fieldDef{
	{"op", 26, 6, Instruction.Op},
	{"rs", 21, 5, Instruction.Rs},
	{"rt", 16, 5, Instruction.Rt},
	{"rd", 11, 5, Instruction.Rd},
	{"sa", 6, 5, Instruction.Sa},
	{"funct", 0, 6, Instruction.Funct},
	{"imm", 0, 16, Instruction.Imm},
	{"target", 0, 26, Instruction.Target},
	{"fmt", 21, 5, Instruction.Fmt},
	{"ft", 16, 5, Instruction.Ft},
	{"fs", 11, 5, Instruction.Fs},
	{"fd", 6, 5, Instruction.Fd},
}

// Compute field straight from the literal bit layout.
func literal(word uint32, shift, width uint) uint32 {
	var v uint32
	for b := range width {
		if word&(1<<(shift+b)) != 0 {
			v |= 1 << b
		}
	}
	return v
}

func checkFields(t *testing.T, word uint32) {
	t.Helper()
	for _, f := range fields {
		r := f.get(Instruction(word))
		e := literal(word, f.shift, f.width)
		if r != e {
			t.Errorf("Field %s of %08x not correct got: %x expected: %x", f.name, word, r, e)
		}
	}
}

// Every single bit and a spread of random words.
func TestFields(t *testing.T) {
	checkFields(t, 0)
	checkFields(t, 0xffffffff)
	for b := range 32 {
		checkFields(t, 1<<b)
		checkFields(t, ^uint32(1<<b))
	}
	rnd := rand.New(rand.NewSource(1))
	for range 100000 {
		checkFields(t, rnd.Uint32())
	}
}

func TestSignExtend(t *testing.T) {
	if r := SignExtend16(0xffff); r != -1 {
		t.Errorf("SignExtend16(0xffff) got: %d expected: -1", r)
	}
	if r := SignExtend16(0x7fff); r != 32767 {
		t.Errorf("SignExtend16(0x7fff) got: %d expected: 32767", r)
	}
	if r := SignExtend16(0x8000); r != -32768 {
		t.Errorf("SignExtend16(0x8000) got: %d expected: -32768", r)
	}
	// Upper bits of the word are ignored.
	if r := SignExtend16(0x12340005); r != 5 {
		t.Errorf("SignExtend16(0x12340005) got: %d expected: 5", r)
	}

	for i := range uint32(0x10000) {
		r := Instruction(0xabcd0000 | i).SImm()
		hi := r >> 16
		if (i&0x8000) != 0 && hi != 0xffff {
			t.Errorf("SImm %04x upper half got: %04x expected: ffff", i, hi)
		}
		if (i&0x8000) == 0 && hi != 0 {
			t.Errorf("SImm %04x upper half got: %04x expected: 0000", i, hi)
		}
		if r&0xffff != i {
			t.Errorf("SImm %04x lower half got: %04x", i, r&0xffff)
		}
	}
}

func TestEncode(t *testing.T) {
	w := Instruction(EncodeI(OpADDIU, 3, 5, 0xfffe))
	if w.Op() != OpADDIU || w.Rs() != 3 || w.Rt() != 5 || w.Imm() != 0xfffe {
		t.Errorf("EncodeI fields not correct got: %08x", uint32(w))
	}
	w = Instruction(EncodeR(FnSRA, 0, 7, 9, 31))
	if w.Op() != OpSPECIAL || w.Rt() != 7 || w.Rd() != 9 || w.Sa() != 31 || w.Funct() != FnSRA {
		t.Errorf("EncodeR fields not correct got: %08x", uint32(w))
	}
	w = Instruction(EncodeJ(OpJAL, 0x80123454))
	if w.Op() != OpJAL || w.Target() != (0x00123454>>2) {
		t.Errorf("EncodeJ fields not correct got: %08x", uint32(w))
	}
	if Instruction(BreakpointOp).Op() != OpBKPT {
		t.Errorf("Breakpoint opcode not correct got: %x", Instruction(BreakpointOp).Op())
	}
}
