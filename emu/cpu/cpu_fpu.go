/*
   R4300 - Floating point coprocessor.

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
	"math"

	op "github.com/rcornwell/R4300/emu/opcodemap"
)

/*
   With Status.FR set there are 32 64-bit registers. With FR clear there
   are 16 64-bit registers, odd numbered 32-bit registers are the high
   half of the even register below them.
*/

func (cpu *CPU) createFPUTable() {
	cpu.cop1[op.F1ADD] = cpu.opFArith
	cpu.cop1[op.F1SUB] = cpu.opFArith
	cpu.cop1[op.F1MUL] = cpu.opFArith
	cpu.cop1[op.F1DIV] = cpu.opFArith
	cpu.cop1[op.F1SQRT] = cpu.opFUnary
	cpu.cop1[op.F1ABS] = cpu.opFUnary
	cpu.cop1[op.F1MOV] = cpu.opFUnary
	cpu.cop1[op.F1NEG] = cpu.opFUnary
	for fn := op.F1ROUNDL; fn <= op.F1FLOORW; fn++ {
		cpu.cop1[fn] = cpu.opFRound
	}
	cpu.cop1[op.F1CVTS] = cpu.opFCvt
	cpu.cop1[op.F1CVTD] = cpu.opFCvt
	cpu.cop1[op.F1CVTW] = cpu.opFCvt
	cpu.cop1[op.F1CVTL] = cpu.opFCvt
	for fn := op.F1COMPARE; fn < 0x40; fn++ {
		cpu.cop1[fn] = cpu.opFCompare
	}
}

// Raise coprocessor unusable if CU1 is clear.
func (cpu *CPU) fpuUsable() bool {
	if (uint32(cpu.CP0[C0Status]) & StatusCU1) == 0 {
		cpu.ce = 1
		return false
	}
	return true
}

func (cpu *CPU) fr() bool {
	return (uint32(cpu.CP0[C0Status]) & StatusFR) != 0
}

// Read 32-bit floating register.
func (cpu *CPU) getFGR32(r uint32) uint32 {
	if cpu.fr() || (r&1) == 0 {
		return uint32(cpu.FPR[r])
	}
	return uint32(cpu.FPR[r&^1] >> 32)
}

// Write 32-bit floating register.
func (cpu *CPU) setFGR32(r uint32, v uint32) {
	if cpu.fr() || (r&1) == 0 {
		cpu.FPR[r] = (cpu.FPR[r] & 0xffffffff00000000) | uint64(v)
		return
	}
	cpu.FPR[r&^1] = (cpu.FPR[r&^1] & 0xffffffff) | (uint64(v) << 32)
}

// Read 64-bit floating register.
func (cpu *CPU) getFGR64(r uint32) uint64 {
	if !cpu.fr() {
		r &^= 1
	}
	return cpu.FPR[r]
}

// Write 64-bit floating register.
func (cpu *CPU) setFGR64(r uint32, v uint64) {
	if !cpu.fr() {
		r &^= 1
	}
	cpu.FPR[r] = v
}

// Read register as value of given format.
func (cpu *CPU) getFloat(format uint32, r uint32) float64 {
	switch format {
	case op.FmtS:
		return float64(math.Float32frombits(cpu.getFGR32(r)))
	case op.FmtD:
		return math.Float64frombits(cpu.getFGR64(r))
	case op.FmtW:
		return float64(int32(cpu.getFGR32(r)))
	default:
		return float64(int64(cpu.getFGR64(r)))
	}
}

// Store value into register in given format.
func (cpu *CPU) setFloat(format uint32, r uint32, v float64) {
	switch format {
	case op.FmtS:
		cpu.setFGR32(r, math.Float32bits(float32(v)))
	case op.FmtD:
		cpu.setFGR64(r, math.Float64bits(v))
	case op.FmtW:
		cpu.setFGR32(r, uint32(int32(v)))
	default:
		cpu.setFGR64(r, uint64(int64(v)))
	}
}

// Round to integer using FCR31 rounding mode.
func (cpu *CPU) roundMode(v float64) float64 {
	switch cpu.FCR31 & FCR31RM {
	case 0:
		return math.RoundToEven(v)
	case 1:
		return math.Trunc(v)
	case 2:
		return math.Ceil(v)
	default:
		return math.Floor(v)
	}
}

// COP1 group.
func (cpu *CPU) opCOP1(step *stepInfo) uint16 {
	if !cpu.fpuUsable() {
		return excCpU
	}
	fs := step.rd
	switch step.rs {
	case op.CopMF:
		cpu.setReg(step.rt, sext32(cpu.getFGR32(fs)))
	case op.CopDMF:
		cpu.setReg(step.rt, cpu.getFGR64(fs))
	case op.CopCF:
		switch fs {
		case 0:
			cpu.setReg(step.rt, FCR0R4300)
		case 31:
			cpu.setReg(step.rt, sext32(cpu.FCR31))
		default:
			cpu.setReg(step.rt, 0)
		}
	case op.CopMT:
		cpu.setFGR32(fs, uint32(cpu.GPR[step.rt]))
	case op.CopDMT:
		cpu.setFGR64(fs, cpu.GPR[step.rt])
	case op.CopCT:
		if fs == 31 {
			cpu.FCR31 = uint32(cpu.GPR[step.rt]) & FCR31Write
		}
	case op.CopBC:
		cond := (cpu.FCR31 & FCR31Cond) != 0
		if (step.rt & 1) == 0 {
			cond = !cond
		}
		cpu.condBranch(step, cond, (step.rt&2) != 0)
	case op.FmtS, op.FmtD, op.FmtW, op.FmtL:
		return cpu.cop1[step.word&0x3f](step, step.rs)
	default:
		return excFatal
	}
	return excNone
}

func (cpu *CPU) opFUnk(_ *stepInfo, _ uint32) uint16 {
	return excFatal
}

// ADD, SUB, MUL and DIV.
func (cpu *CPU) opFArith(step *stepInfo, format uint32) uint16 {
	if format != op.FmtS && format != op.FmtD {
		return excFatal
	}
	a := cpu.getFloat(format, step.rd)
	b := cpu.getFloat(format, step.rt)
	var r float64
	switch step.word & 0x3f {
	case op.F1ADD:
		r = a + b
	case op.F1SUB:
		r = a - b
	case op.F1MUL:
		r = a * b
	case op.F1DIV:
		r = a / b
	}
	cpu.setFloat(format, step.sa, r)
	return excNone
}

// SQRT, ABS, MOV and NEG.
func (cpu *CPU) opFUnary(step *stepInfo, format uint32) uint16 {
	if format != op.FmtS && format != op.FmtD {
		return excFatal
	}
	if (step.word & 0x3f) == op.F1MOV {
		if format == op.FmtS {
			cpu.setFGR32(step.sa, cpu.getFGR32(step.rd))
		} else {
			cpu.setFGR64(step.sa, cpu.getFGR64(step.rd))
		}
		return excNone
	}
	a := cpu.getFloat(format, step.rd)
	switch step.word & 0x3f {
	case op.F1SQRT:
		a = math.Sqrt(a)
	case op.F1ABS:
		a = math.Abs(a)
	case op.F1NEG:
		a = -a
	}
	cpu.setFloat(format, step.sa, a)
	return excNone
}

// ROUND, TRUNC, CEIL and FLOOR to long or word.
func (cpu *CPU) opFRound(step *stepInfo, format uint32) uint16 {
	if format != op.FmtS && format != op.FmtD {
		return excFatal
	}
	a := cpu.getFloat(format, step.rd)
	fn := step.word & 0x3f
	switch fn & 3 {
	case 0:
		a = math.RoundToEven(a)
	case 1:
		a = math.Trunc(a)
	case 2:
		a = math.Ceil(a)
	case 3:
		a = math.Floor(a)
	}
	if fn < op.F1ROUNDW {
		cpu.setFloat(op.FmtL, step.sa, a)
	} else {
		cpu.setFloat(op.FmtW, step.sa, a)
	}
	return excNone
}

// CVT between formats.
func (cpu *CPU) opFCvt(step *stepInfo, format uint32) uint16 {
	var to uint32
	switch step.word & 0x3f {
	case op.F1CVTS:
		to = op.FmtS
	case op.F1CVTD:
		to = op.FmtD
	case op.F1CVTW:
		to = op.FmtW
	case op.F1CVTL:
		to = op.FmtL
	}
	if to == format {
		return excFatal
	}
	a := cpu.getFloat(format, step.rd)
	if to == op.FmtW || to == op.FmtL {
		a = cpu.roundMode(a)
	}
	cpu.setFloat(to, step.sa, a)
	return excNone
}

// C.cond, sets FCR31 condition.
func (cpu *CPU) opFCompare(step *stepInfo, format uint32) uint16 {
	if format != op.FmtS && format != op.FmtD {
		return excFatal
	}
	a := cpu.getFloat(format, step.rd)
	b := cpu.getFloat(format, step.rt)
	cond := step.word & 0x7
	var r bool
	if math.IsNaN(a) || math.IsNaN(b) {
		r = (cond & 1) != 0
	} else {
		r = ((cond&4) != 0 && a < b) || ((cond&2) != 0 && a == b)
	}
	if r {
		cpu.FCR31 |= FCR31Cond
	} else {
		cpu.FCR31 &^= FCR31Cond
	}
	return excNone
}

func (cpu *CPU) opLWC1(step *stepInfo) uint16 {
	if !cpu.fpuUsable() {
		return excCpU
	}
	v, irc := cpu.read(step, step.addr(cpu), 4)
	if irc == excNone {
		cpu.setFGR32(step.rt, uint32(v))
	}
	return irc
}

func (cpu *CPU) opLDC1(step *stepInfo) uint16 {
	if !cpu.fpuUsable() {
		return excCpU
	}
	v, irc := cpu.read(step, step.addr(cpu), 8)
	if irc == excNone {
		cpu.setFGR64(step.rt, v)
	}
	return irc
}

func (cpu *CPU) opSWC1(step *stepInfo) uint16 {
	if !cpu.fpuUsable() {
		return excCpU
	}
	return cpu.write(step, step.addr(cpu), 4, uint64(cpu.getFGR32(step.rt)))
}

func (cpu *CPU) opSDC1(step *stepInfo) uint16 {
	if !cpu.fpuUsable() {
		return excCpU
	}
	return cpu.write(step, step.addr(cpu), 8, cpu.getFGR64(step.rt))
}
