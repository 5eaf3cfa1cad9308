/*
   R4300 - Disassembler.

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
	"fmt"

	op "github.com/rcornwell/R4300/emu/opcodemap"
)

const (
	tyArith  = 1 + iota // rt,rs,simm
	tyLogic             // rt,rs,imm
	tyLUI               // rt,imm
	tyMem               // rt,offset(base)
	tyFMem              // ft,offset(base)
	tyBr2               // rs,rt,target
	tyBr1               // rs,target
	tyJump              // target
	tyCache             // op,offset(base)
	tyNone              // no operands
)

const (
	fmtRd3   = 1 + iota // rd,rs,rt
	fmtShift            // rd,rt,sa
	fmtShv              // rd,rt,rs
	fmtRs               // rs
	fmtRd               // rd
	fmtRsRt             // rs,rt
	fmtJalr             // rd,rs
	fmtNone             // no operands
)

type opcode struct {
	opName string // Opcode string.
	opType int    // Operand layout.
}

var opMap = map[uint32]opcode{
	op.OpJ:      {"J", tyJump},
	op.OpJAL:    {"JAL", tyJump},
	op.OpBEQ:    {"BEQ", tyBr2},
	op.OpBNE:    {"BNE", tyBr2},
	op.OpBLEZ:   {"BLEZ", tyBr1},
	op.OpBGTZ:   {"BGTZ", tyBr1},
	op.OpADDI:   {"ADDI", tyArith},
	op.OpADDIU:  {"ADDIU", tyArith},
	op.OpSLTI:   {"SLTI", tyArith},
	op.OpSLTIU:  {"SLTIU", tyArith},
	op.OpANDI:   {"ANDI", tyLogic},
	op.OpORI:    {"ORI", tyLogic},
	op.OpXORI:   {"XORI", tyLogic},
	op.OpLUI:    {"LUI", tyLUI},
	op.OpBEQL:   {"BEQL", tyBr2},
	op.OpBNEL:   {"BNEL", tyBr2},
	op.OpBLEZL:  {"BLEZL", tyBr1},
	op.OpBGTZL:  {"BGTZL", tyBr1},
	op.OpDADDI:  {"DADDI", tyArith},
	op.OpDADDIU: {"DADDIU", tyArith},
	op.OpLDL:    {"LDL", tyMem},
	op.OpLDR:    {"LDR", tyMem},
	op.OpLB:     {"LB", tyMem},
	op.OpLH:     {"LH", tyMem},
	op.OpLWL:    {"LWL", tyMem},
	op.OpLW:     {"LW", tyMem},
	op.OpLBU:    {"LBU", tyMem},
	op.OpLHU:    {"LHU", tyMem},
	op.OpLWR:    {"LWR", tyMem},
	op.OpLWU:    {"LWU", tyMem},
	op.OpSB:     {"SB", tyMem},
	op.OpSH:     {"SH", tyMem},
	op.OpSWL:    {"SWL", tyMem},
	op.OpSW:     {"SW", tyMem},
	op.OpSDL:    {"SDL", tyMem},
	op.OpSDR:    {"SDR", tyMem},
	op.OpSWR:    {"SWR", tyMem},
	op.OpCACHE:  {"CACHE", tyCache},
	op.OpLL:     {"LL", tyMem},
	op.OpLWC1:   {"LWC1", tyFMem},
	op.OpLLD:    {"LLD", tyMem},
	op.OpLDC1:   {"LDC1", tyFMem},
	op.OpLD:     {"LD", tyMem},
	op.OpSC:     {"SC", tyMem},
	op.OpSWC1:   {"SWC1", tyFMem},
	op.OpBKPT:   {"BKPT", tyNone},
	op.OpSCD:    {"SCD", tyMem},
	op.OpSDC1:   {"SDC1", tyFMem},
	op.OpSD:     {"SD", tyMem},
}

var specialMap = map[uint32]opcode{
	op.FnSLL:     {"SLL", fmtShift},
	op.FnSRL:     {"SRL", fmtShift},
	op.FnSRA:     {"SRA", fmtShift},
	op.FnSLLV:    {"SLLV", fmtShv},
	op.FnSRLV:    {"SRLV", fmtShv},
	op.FnSRAV:    {"SRAV", fmtShv},
	op.FnJR:      {"JR", fmtRs},
	op.FnJALR:    {"JALR", fmtJalr},
	op.FnSYSCALL: {"SYSCALL", fmtNone},
	op.FnBREAK:   {"BREAK", fmtNone},
	op.FnSYNC:    {"SYNC", fmtNone},
	op.FnMFHI:    {"MFHI", fmtRd},
	op.FnMTHI:    {"MTHI", fmtRs},
	op.FnMFLO:    {"MFLO", fmtRd},
	op.FnMTLO:    {"MTLO", fmtRs},
	op.FnDSLLV:   {"DSLLV", fmtShv},
	op.FnDSRLV:   {"DSRLV", fmtShv},
	op.FnDSRAV:   {"DSRAV", fmtShv},
	op.FnMULT:    {"MULT", fmtRsRt},
	op.FnMULTU:   {"MULTU", fmtRsRt},
	op.FnDIV:     {"DIV", fmtRsRt},
	op.FnDIVU:    {"DIVU", fmtRsRt},
	op.FnDMULT:   {"DMULT", fmtRsRt},
	op.FnDMULTU:  {"DMULTU", fmtRsRt},
	op.FnDDIV:    {"DDIV", fmtRsRt},
	op.FnDDIVU:   {"DDIVU", fmtRsRt},
	op.FnADD:     {"ADD", fmtRd3},
	op.FnADDU:    {"ADDU", fmtRd3},
	op.FnSUB:     {"SUB", fmtRd3},
	op.FnSUBU:    {"SUBU", fmtRd3},
	op.FnAND:     {"AND", fmtRd3},
	op.FnOR:      {"OR", fmtRd3},
	op.FnXOR:     {"XOR", fmtRd3},
	op.FnNOR:     {"NOR", fmtRd3},
	op.FnSLT:     {"SLT", fmtRd3},
	op.FnSLTU:    {"SLTU", fmtRd3},
	op.FnDADD:    {"DADD", fmtRd3},
	op.FnDADDU:   {"DADDU", fmtRd3},
	op.FnDSUB:    {"DSUB", fmtRd3},
	op.FnDSUBU:   {"DSUBU", fmtRd3},
	op.FnTGE:     {"TGE", fmtRsRt},
	op.FnTGEU:    {"TGEU", fmtRsRt},
	op.FnTLT:     {"TLT", fmtRsRt},
	op.FnTLTU:    {"TLTU", fmtRsRt},
	op.FnTEQ:     {"TEQ", fmtRsRt},
	op.FnTNE:     {"TNE", fmtRsRt},
	op.FnDSLL:    {"DSLL", fmtShift},
	op.FnDSRL:    {"DSRL", fmtShift},
	op.FnDSRA:    {"DSRA", fmtShift},
	op.FnDSLL32:  {"DSLL32", fmtShift},
	op.FnDSRL32:  {"DSRL32", fmtShift},
	op.FnDSRA32:  {"DSRA32", fmtShift},
}

// REGIMM names by rt, branches have bit 3 clear.
var regimmName = map[uint32]string{
	0x00: "BLTZ", 0x01: "BGEZ", 0x02: "BLTZL", 0x03: "BGEZL",
	0x08: "TGEI", 0x09: "TGEIU", 0x0a: "TLTI", 0x0b: "TLTIU", 0x0c: "TEQI", 0x0e: "TNEI",
	0x10: "BLTZAL", 0x11: "BGEZAL", 0x12: "BLTZALL", 0x13: "BGEZALL",
}

var c0FuncName = map[uint32]string{
	op.C0TLBR:  "TLBR",
	op.C0TLBWI: "TLBWI",
	op.C0TLBWR: "TLBWR",
	op.C0TLBP:  "TLBP",
	op.C0ERET:  "ERET",
}

var f1Name = map[uint32]string{
	op.F1ADD: "ADD", op.F1SUB: "SUB", op.F1MUL: "MUL", op.F1DIV: "DIV",
	op.F1SQRT: "SQRT", op.F1ABS: "ABS", op.F1MOV: "MOV", op.F1NEG: "NEG",
	op.F1ROUNDL: "ROUND.L", op.F1TRUNCL: "TRUNC.L", op.F1CEILL: "CEIL.L", op.F1FLOORL: "FLOOR.L",
	op.F1ROUNDW: "ROUND.W", op.F1TRUNCW: "TRUNC.W", op.F1CEILW: "CEIL.W", op.F1FLOORW: "FLOOR.W",
	op.F1CVTS: "CVT.S", op.F1CVTD: "CVT.D", op.F1CVTW: "CVT.W", op.F1CVTL: "CVT.L",
}

var condName = [16]string{
	"F", "UN", "EQ", "UEQ", "OLT", "ULT", "OLE", "ULE",
	"SF", "NGLE", "SEQ", "NGL", "LT", "NGE", "LE", "NGT",
}

var fmtName = map[uint32]string{
	op.FmtS: "S", op.FmtD: "D", op.FmtW: "W", op.FmtL: "L",
}

var regName = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "s8", "ra",
}

var c0Name = [32]string{
	"Index", "Random", "EntryLo0", "EntryLo1", "Context", "PageMask", "Wired", "$7",
	"BadVAddr", "Count", "EntryHi", "Compare", "Status", "Cause", "EPC", "PRId",
	"Config", "LLAddr", "WatchLo", "WatchHi", "XContext", "$21", "$22", "$23",
	"$24", "$25", "PErr", "CacheErr", "TagLo", "TagHi", "ErrorEPC", "$31",
}

// Return register name for number.
func RegName(r int) string {
	return regName[r&0x1f]
}

// Return coprocessor 0 register name.
func C0RegName(r int) string {
	return c0Name[r&0x1f]
}

// Pad opcode to operand column.
func pad(name string) string {
	return fmt.Sprintf("%-8s", name)
}

// Disassemble instruction word found at pc.
func Disassemble(word, pc uint32) string {
	inst := op.Instruction(word)
	if word == 0 {
		return "NOP"
	}
	switch inst.Op() {
	case op.OpSPECIAL:
		return special(inst)
	case op.OpREGIMM:
		return regimm(inst, pc)
	case op.OpCOP0:
		return cop0(inst)
	case op.OpCOP1:
		return cop1(inst, pc)
	}
	opc, ok := opMap[inst.Op()]
	if !ok {
		return undefined(word)
	}
	rs := regName[inst.Rs()]
	rt := regName[inst.Rt()]
	simm := op.SignExtend16(inst.Imm())
	str := pad(opc.opName)
	switch opc.opType {
	case tyArith:
		str += fmt.Sprintf("%s,%s,%d", rt, rs, simm)
	case tyLogic:
		str += fmt.Sprintf("%s,%s,0x%x", rt, rs, inst.Imm())
	case tyLUI:
		str += fmt.Sprintf("%s,0x%x", rt, inst.Imm())
	case tyMem:
		str += fmt.Sprintf("%s,%d(%s)", rt, simm, rs)
	case tyFMem:
		str += fmt.Sprintf("f%d,%d(%s)", inst.Rt(), simm, rs)
	case tyCache:
		str += fmt.Sprintf("0x%02x,%d(%s)", inst.Rt(), simm, rs)
	case tyBr2:
		str += fmt.Sprintf("%s,%s,%08x", rs, rt, branchTarget(inst, pc))
	case tyBr1:
		str += fmt.Sprintf("%s,%08x", rs, branchTarget(inst, pc))
	case tyJump:
		str += fmt.Sprintf("%08x", ((pc+4)&0xf0000000)|(inst.Target()<<2))
	case tyNone:
		return opc.opName
	}
	return str
}

// Address of branch destination.
func branchTarget(inst op.Instruction, pc uint32) uint32 {
	return pc + 4 + uint32(op.SignExtend16(inst.Imm())<<2)
}

func special(inst op.Instruction) string {
	opc, ok := specialMap[inst.Funct()]
	if !ok {
		return undefined(uint32(inst))
	}
	rs := regName[inst.Rs()]
	rt := regName[inst.Rt()]
	rd := regName[inst.Rd()]
	str := pad(opc.opName)
	switch opc.opType {
	case fmtRd3:
		str += fmt.Sprintf("%s,%s,%s", rd, rs, rt)
	case fmtShift:
		str += fmt.Sprintf("%s,%s,%d", rd, rt, inst.Sa())
	case fmtShv:
		str += fmt.Sprintf("%s,%s,%s", rd, rt, rs)
	case fmtRs:
		str += rs
	case fmtRd:
		str += rd
	case fmtRsRt:
		str += rs + "," + rt
	case fmtJalr:
		str += rd + "," + rs
	case fmtNone:
		return opc.opName
	}
	return str
}

func regimm(inst op.Instruction, pc uint32) string {
	name, ok := regimmName[inst.Rt()]
	if !ok {
		return undefined(uint32(inst))
	}
	rs := regName[inst.Rs()]
	if (inst.Rt() & 0x08) != 0 {
		return pad(name) + fmt.Sprintf("%s,%d", rs, op.SignExtend16(inst.Imm()))
	}
	return pad(name) + fmt.Sprintf("%s,%08x", rs, branchTarget(inst, pc))
}

func cop0(inst op.Instruction) string {
	rt := regName[inst.Rt()]
	cr := c0Name[inst.Rd()]
	switch inst.Rs() {
	case op.CopMF:
		return pad("MFC0") + rt + "," + cr
	case op.CopDMF:
		return pad("DMFC0") + rt + "," + cr
	case op.CopMT:
		return pad("MTC0") + rt + "," + cr
	case op.CopDMT:
		return pad("DMTC0") + rt + "," + cr
	}
	if (inst.Rs() & op.CopCO) != 0 {
		if name, ok := c0FuncName[inst.Funct()]; ok {
			return name
		}
	}
	return undefined(uint32(inst))
}

func cop1(inst op.Instruction, pc uint32) string {
	rt := regName[inst.Rt()]
	fs := inst.Fs()
	switch inst.Rs() {
	case op.CopMF:
		return pad("MFC1") + fmt.Sprintf("%s,f%d", rt, fs)
	case op.CopDMF:
		return pad("DMFC1") + fmt.Sprintf("%s,f%d", rt, fs)
	case op.CopCF:
		return pad("CFC1") + fmt.Sprintf("%s,fcr%d", rt, fs)
	case op.CopMT:
		return pad("MTC1") + fmt.Sprintf("%s,f%d", rt, fs)
	case op.CopDMT:
		return pad("DMTC1") + fmt.Sprintf("%s,f%d", rt, fs)
	case op.CopCT:
		return pad("CTC1") + fmt.Sprintf("%s,fcr%d", rt, fs)
	case op.CopBC:
		name := [4]string{"BC1F", "BC1T", "BC1FL", "BC1TL"}[inst.Rt()&3]
		return pad(name) + fmt.Sprintf("%08x", branchTarget(inst, pc))
	}
	f, ok := fmtName[inst.Fmt()]
	if !ok {
		return undefined(uint32(inst))
	}
	fn := inst.Funct()
	if fn >= op.F1COMPARE {
		return pad("C."+condName[fn&0xf]+"."+f) + fmt.Sprintf("f%d,f%d", fs, inst.Ft())
	}
	name, ok := f1Name[fn]
	if !ok {
		return undefined(uint32(inst))
	}
	str := pad(name + "." + f)
	switch fn {
	case op.F1ADD, op.F1SUB, op.F1MUL, op.F1DIV:
		str += fmt.Sprintf("f%d,f%d,f%d", inst.Fd(), fs, inst.Ft())
	default:
		str += fmt.Sprintf("f%d,f%d", inst.Fd(), fs)
	}
	return str
}

func undefined(word uint32) string {
	return fmt.Sprintf(".word   0x%08x", word)
}

// Disassemble with address and hex word in front.
func PrintInst(word, pc uint32) string {
	return fmt.Sprintf("%08x  %08x  %s", pc, word, Disassemble(word, pc))
}
