/*
   R4300 - Integer instruction execution.

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
	"math/bits"

	op "github.com/rcornwell/R4300/emu/opcodemap"
)

// Build dispatch tables.
func (cpu *CPU) createTable() {
	for i := range cpu.table {
		cpu.table[i] = cpu.opUnk
		cpu.special[i] = cpu.opUnk
		cpu.cop1[i] = cpu.opFUnk
	}
	for i := range cpu.regimm {
		cpu.regimm[i] = cpu.opUnk
	}

	cpu.table[op.OpSPECIAL] = cpu.opSPECIAL
	cpu.table[op.OpREGIMM] = cpu.opREGIMM
	cpu.table[op.OpJ] = cpu.opJ
	cpu.table[op.OpJAL] = cpu.opJAL
	cpu.table[op.OpBEQ] = cpu.opBEQ
	cpu.table[op.OpBNE] = cpu.opBNE
	cpu.table[op.OpBLEZ] = cpu.opBLEZ
	cpu.table[op.OpBGTZ] = cpu.opBGTZ
	cpu.table[op.OpADDI] = cpu.opADDI
	cpu.table[op.OpADDIU] = cpu.opADDIU
	cpu.table[op.OpSLTI] = cpu.opSLTI
	cpu.table[op.OpSLTIU] = cpu.opSLTIU
	cpu.table[op.OpANDI] = cpu.opANDI
	cpu.table[op.OpORI] = cpu.opORI
	cpu.table[op.OpXORI] = cpu.opXORI
	cpu.table[op.OpLUI] = cpu.opLUI
	cpu.table[op.OpCOP0] = cpu.opCOP0
	cpu.table[op.OpCOP1] = cpu.opCOP1
	cpu.table[op.OpBEQL] = cpu.opBEQL
	cpu.table[op.OpBNEL] = cpu.opBNEL
	cpu.table[op.OpBLEZL] = cpu.opBLEZL
	cpu.table[op.OpBGTZL] = cpu.opBGTZL
	cpu.table[op.OpDADDI] = cpu.opDADDI
	cpu.table[op.OpDADDIU] = cpu.opDADDIU
	cpu.table[op.OpLDL] = cpu.opLDL
	cpu.table[op.OpLDR] = cpu.opLDR
	cpu.table[op.OpLB] = cpu.opLB
	cpu.table[op.OpLH] = cpu.opLH
	cpu.table[op.OpLWL] = cpu.opLWL
	cpu.table[op.OpLW] = cpu.opLW
	cpu.table[op.OpLBU] = cpu.opLBU
	cpu.table[op.OpLHU] = cpu.opLHU
	cpu.table[op.OpLWR] = cpu.opLWR
	cpu.table[op.OpLWU] = cpu.opLWU
	cpu.table[op.OpSB] = cpu.opSB
	cpu.table[op.OpSH] = cpu.opSH
	cpu.table[op.OpSWL] = cpu.opSWL
	cpu.table[op.OpSW] = cpu.opSW
	cpu.table[op.OpSDL] = cpu.opSDL
	cpu.table[op.OpSDR] = cpu.opSDR
	cpu.table[op.OpSWR] = cpu.opSWR
	cpu.table[op.OpCACHE] = cpu.opCACHE
	cpu.table[op.OpLL] = cpu.opLL
	cpu.table[op.OpLWC1] = cpu.opLWC1
	cpu.table[op.OpLLD] = cpu.opLLD
	cpu.table[op.OpLDC1] = cpu.opLDC1
	cpu.table[op.OpLD] = cpu.opLD
	cpu.table[op.OpSC] = cpu.opSC
	cpu.table[op.OpSWC1] = cpu.opSWC1
	cpu.table[op.OpBKPT] = cpu.opBKPT
	cpu.table[op.OpSCD] = cpu.opSCD
	cpu.table[op.OpSDC1] = cpu.opSDC1
	cpu.table[op.OpSD] = cpu.opSD

	cpu.special[op.FnSLL] = cpu.opSLL
	cpu.special[op.FnSRL] = cpu.opSRL
	cpu.special[op.FnSRA] = cpu.opSRA
	cpu.special[op.FnSLLV] = cpu.opSLLV
	cpu.special[op.FnSRLV] = cpu.opSRLV
	cpu.special[op.FnSRAV] = cpu.opSRAV
	cpu.special[op.FnJR] = cpu.opJR
	cpu.special[op.FnJALR] = cpu.opJALR
	cpu.special[op.FnSYSCALL] = cpu.opSYSCALL
	cpu.special[op.FnBREAK] = cpu.opBREAK
	cpu.special[op.FnSYNC] = cpu.opSYNC
	cpu.special[op.FnMFHI] = cpu.opMFHI
	cpu.special[op.FnMTHI] = cpu.opMTHI
	cpu.special[op.FnMFLO] = cpu.opMFLO
	cpu.special[op.FnMTLO] = cpu.opMTLO
	cpu.special[op.FnDSLLV] = cpu.opDSLLV
	cpu.special[op.FnDSRLV] = cpu.opDSRLV
	cpu.special[op.FnDSRAV] = cpu.opDSRAV
	cpu.special[op.FnMULT] = cpu.opMULT
	cpu.special[op.FnMULTU] = cpu.opMULTU
	cpu.special[op.FnDIV] = cpu.opDIV
	cpu.special[op.FnDIVU] = cpu.opDIVU
	cpu.special[op.FnDMULT] = cpu.opDMULT
	cpu.special[op.FnDMULTU] = cpu.opDMULTU
	cpu.special[op.FnDDIV] = cpu.opDDIV
	cpu.special[op.FnDDIVU] = cpu.opDDIVU
	cpu.special[op.FnADD] = cpu.opADD
	cpu.special[op.FnADDU] = cpu.opADDU
	cpu.special[op.FnSUB] = cpu.opSUB
	cpu.special[op.FnSUBU] = cpu.opSUBU
	cpu.special[op.FnAND] = cpu.opAND
	cpu.special[op.FnOR] = cpu.opOR
	cpu.special[op.FnXOR] = cpu.opXOR
	cpu.special[op.FnNOR] = cpu.opNOR
	cpu.special[op.FnSLT] = cpu.opSLT
	cpu.special[op.FnSLTU] = cpu.opSLTU
	cpu.special[op.FnDADD] = cpu.opDADD
	cpu.special[op.FnDADDU] = cpu.opDADDU
	cpu.special[op.FnDSUB] = cpu.opDSUB
	cpu.special[op.FnDSUBU] = cpu.opDSUBU
	cpu.special[op.FnTGE] = cpu.opTrap
	cpu.special[op.FnTGEU] = cpu.opTrap
	cpu.special[op.FnTLT] = cpu.opTrap
	cpu.special[op.FnTLTU] = cpu.opTrap
	cpu.special[op.FnTEQ] = cpu.opTrap
	cpu.special[op.FnTNE] = cpu.opTrap
	cpu.special[op.FnDSLL] = cpu.opDSLL
	cpu.special[op.FnDSRL] = cpu.opDSRL
	cpu.special[op.FnDSRA] = cpu.opDSRA
	cpu.special[op.FnDSLL32] = cpu.opDSLL32
	cpu.special[op.FnDSRL32] = cpu.opDSRL32
	cpu.special[op.FnDSRA32] = cpu.opDSRA32

	cpu.regimm[op.RiBLTZ] = cpu.opBLTZ
	cpu.regimm[op.RiBGEZ] = cpu.opBGEZ
	cpu.regimm[op.RiBLTZL] = cpu.opBLTZ
	cpu.regimm[op.RiBGEZL] = cpu.opBGEZ
	cpu.regimm[op.RiBLTZAL] = cpu.opBLTZ
	cpu.regimm[op.RiBGEZAL] = cpu.opBGEZ
	cpu.regimm[op.RiBLTZALL] = cpu.opBLTZ
	cpu.regimm[op.RiBGEZALL] = cpu.opBGEZ
	cpu.regimm[op.RiTGEI] = cpu.opTrapI
	cpu.regimm[op.RiTGEIU] = cpu.opTrapI
	cpu.regimm[op.RiTLTI] = cpu.opTrapI
	cpu.regimm[op.RiTLTIU] = cpu.opTrapI
	cpu.regimm[op.RiTEQI] = cpu.opTrapI
	cpu.regimm[op.RiTNEI] = cpu.opTrapI

	cpu.createFPUTable()
}

// Handle an unknown instruction.
func (cpu *CPU) opUnk(_ *stepInfo) uint16 {
	return excFatal
}

// Debugger breakpoint.
func (cpu *CPU) opBKPT(_ *stepInfo) uint16 {
	return excBreakpoint
}

func (cpu *CPU) opSPECIAL(step *stepInfo) uint16 {
	return cpu.special[step.word&0x3f](step)
}

func (cpu *CPU) opREGIMM(step *stepInfo) uint16 {
	return cpu.regimm[step.rt](step)
}

// Branch displacement from instruction following the branch.
func (step *stepInfo) branchTarget() uint32 {
	return step.pc + 4 + (step.imm << 2)
}

// Resolve a conditional branch. Likely forms skip the delay slot when not taken.
func (cpu *CPU) condBranch(step *stepInfo, taken bool, likely bool) {
	switch {
	case taken:
		cpu.branchTo(step.branchTarget())
	case likely:
		cpu.nullify = true
	default:
		// Delay slot still runs, fall through after it.
		cpu.branchTo(cpu.NextPC + 4)
	}
}

// Jump.
func (cpu *CPU) opJ(step *stepInfo) uint16 {
	cpu.branchTo(((step.pc + 4) & 0xf0000000) | (op.Instruction(step.word).Target() << 2))
	return excNone
}

// Jump and link.
func (cpu *CPU) opJAL(step *stepInfo) uint16 {
	cpu.setReg(31, sext32(cpu.NextPC+4))
	return cpu.opJ(step)
}

// Jump register.
func (cpu *CPU) opJR(step *stepInfo) uint16 {
	cpu.branchTo(uint32(cpu.GPR[step.rs]))
	return excNone
}

// Jump and link register.
func (cpu *CPU) opJALR(step *stepInfo) uint16 {
	target := uint32(cpu.GPR[step.rs])
	cpu.setReg(step.rd, sext32(cpu.NextPC+4))
	cpu.branchTo(target)
	return excNone
}

func (cpu *CPU) opBEQ(step *stepInfo) uint16 {
	cpu.condBranch(step, cpu.GPR[step.rs] == cpu.GPR[step.rt], false)
	return excNone
}

func (cpu *CPU) opBNE(step *stepInfo) uint16 {
	cpu.condBranch(step, cpu.GPR[step.rs] != cpu.GPR[step.rt], false)
	return excNone
}

func (cpu *CPU) opBLEZ(step *stepInfo) uint16 {
	cpu.condBranch(step, int64(cpu.GPR[step.rs]) <= 0, false)
	return excNone
}

func (cpu *CPU) opBGTZ(step *stepInfo) uint16 {
	cpu.condBranch(step, int64(cpu.GPR[step.rs]) > 0, false)
	return excNone
}

func (cpu *CPU) opBEQL(step *stepInfo) uint16 {
	cpu.condBranch(step, cpu.GPR[step.rs] == cpu.GPR[step.rt], true)
	return excNone
}

func (cpu *CPU) opBNEL(step *stepInfo) uint16 {
	cpu.condBranch(step, cpu.GPR[step.rs] != cpu.GPR[step.rt], true)
	return excNone
}

func (cpu *CPU) opBLEZL(step *stepInfo) uint16 {
	cpu.condBranch(step, int64(cpu.GPR[step.rs]) <= 0, true)
	return excNone
}

func (cpu *CPU) opBGTZL(step *stepInfo) uint16 {
	cpu.condBranch(step, int64(cpu.GPR[step.rs]) > 0, true)
	return excNone
}

// BLTZ, BLTZL, BLTZAL and BLTZALL. Link happens whether taken or not.
func (cpu *CPU) opBLTZ(step *stepInfo) uint16 {
	taken := int64(cpu.GPR[step.rs]) < 0
	if (step.rt & 0x10) != 0 {
		cpu.setReg(31, sext32(cpu.NextPC+4))
	}
	cpu.condBranch(step, taken, (step.rt&2) != 0)
	return excNone
}

// BGEZ, BGEZL, BGEZAL and BGEZALL.
func (cpu *CPU) opBGEZ(step *stepInfo) uint16 {
	taken := int64(cpu.GPR[step.rs]) >= 0
	if (step.rt & 0x10) != 0 {
		cpu.setReg(31, sext32(cpu.NextPC+4))
	}
	cpu.condBranch(step, taken, (step.rt&2) != 0)
	return excNone
}

// Add immediate, trap on overflow.
func (cpu *CPU) opADDI(step *stepInfo) uint16 {
	a := int32(cpu.GPR[step.rs])
	b := int32(step.imm)
	r := a + b
	if ((a ^ r) & (b ^ r)) < 0 {
		return excOv
	}
	cpu.setReg(step.rt, sext32(uint32(r)))
	return excNone
}

func (cpu *CPU) opADDIU(step *stepInfo) uint16 {
	cpu.setReg(step.rt, sext32(uint32(cpu.GPR[step.rs])+step.imm))
	return excNone
}

func (cpu *CPU) opSLTI(step *stepInfo) uint16 {
	v := uint64(0)
	if int64(cpu.GPR[step.rs]) < int64(sext32(step.imm)) {
		v = 1
	}
	cpu.setReg(step.rt, v)
	return excNone
}

func (cpu *CPU) opSLTIU(step *stepInfo) uint16 {
	v := uint64(0)
	if cpu.GPR[step.rs] < sext32(step.imm) {
		v = 1
	}
	cpu.setReg(step.rt, v)
	return excNone
}

func (cpu *CPU) opANDI(step *stepInfo) uint16 {
	cpu.setReg(step.rt, cpu.GPR[step.rs]&uint64(step.imm&0xffff))
	return excNone
}

func (cpu *CPU) opORI(step *stepInfo) uint16 {
	cpu.setReg(step.rt, cpu.GPR[step.rs]|uint64(step.imm&0xffff))
	return excNone
}

func (cpu *CPU) opXORI(step *stepInfo) uint16 {
	cpu.setReg(step.rt, cpu.GPR[step.rs]^uint64(step.imm&0xffff))
	return excNone
}

func (cpu *CPU) opLUI(step *stepInfo) uint16 {
	cpu.setReg(step.rt, sext32(step.imm<<16))
	return excNone
}

// Doubleword add immediate, trap on overflow.
func (cpu *CPU) opDADDI(step *stepInfo) uint16 {
	a := cpu.GPR[step.rs]
	b := sext32(step.imm)
	r := a + b
	if ((a^r)&(b^r))>>63 != 0 {
		return excOv
	}
	cpu.setReg(step.rt, r)
	return excNone
}

func (cpu *CPU) opDADDIU(step *stepInfo) uint16 {
	cpu.setReg(step.rt, cpu.GPR[step.rs]+sext32(step.imm))
	return excNone
}

// Shifts.
func (cpu *CPU) opSLL(step *stepInfo) uint16 {
	cpu.setReg(step.rd, sext32(uint32(cpu.GPR[step.rt])<<step.sa))
	return excNone
}

func (cpu *CPU) opSRL(step *stepInfo) uint16 {
	cpu.setReg(step.rd, sext32(uint32(cpu.GPR[step.rt])>>step.sa))
	return excNone
}

func (cpu *CPU) opSRA(step *stepInfo) uint16 {
	cpu.setReg(step.rd, sext32(uint32(int64(cpu.GPR[step.rt])>>step.sa)))
	return excNone
}

func (cpu *CPU) opSLLV(step *stepInfo) uint16 {
	cpu.setReg(step.rd, sext32(uint32(cpu.GPR[step.rt])<<(cpu.GPR[step.rs]&0x1f)))
	return excNone
}

func (cpu *CPU) opSRLV(step *stepInfo) uint16 {
	cpu.setReg(step.rd, sext32(uint32(cpu.GPR[step.rt])>>(cpu.GPR[step.rs]&0x1f)))
	return excNone
}

func (cpu *CPU) opSRAV(step *stepInfo) uint16 {
	cpu.setReg(step.rd, sext32(uint32(int64(cpu.GPR[step.rt])>>(cpu.GPR[step.rs]&0x1f))))
	return excNone
}

func (cpu *CPU) opDSLL(step *stepInfo) uint16 {
	cpu.setReg(step.rd, cpu.GPR[step.rt]<<step.sa)
	return excNone
}

func (cpu *CPU) opDSRL(step *stepInfo) uint16 {
	cpu.setReg(step.rd, cpu.GPR[step.rt]>>step.sa)
	return excNone
}

func (cpu *CPU) opDSRA(step *stepInfo) uint16 {
	cpu.setReg(step.rd, uint64(int64(cpu.GPR[step.rt])>>step.sa))
	return excNone
}

func (cpu *CPU) opDSLL32(step *stepInfo) uint16 {
	cpu.setReg(step.rd, cpu.GPR[step.rt]<<(step.sa+32))
	return excNone
}

func (cpu *CPU) opDSRL32(step *stepInfo) uint16 {
	cpu.setReg(step.rd, cpu.GPR[step.rt]>>(step.sa+32))
	return excNone
}

func (cpu *CPU) opDSRA32(step *stepInfo) uint16 {
	cpu.setReg(step.rd, uint64(int64(cpu.GPR[step.rt])>>(step.sa+32)))
	return excNone
}

func (cpu *CPU) opDSLLV(step *stepInfo) uint16 {
	cpu.setReg(step.rd, cpu.GPR[step.rt]<<(cpu.GPR[step.rs]&0x3f))
	return excNone
}

func (cpu *CPU) opDSRLV(step *stepInfo) uint16 {
	cpu.setReg(step.rd, cpu.GPR[step.rt]>>(cpu.GPR[step.rs]&0x3f))
	return excNone
}

func (cpu *CPU) opDSRAV(step *stepInfo) uint16 {
	cpu.setReg(step.rd, uint64(int64(cpu.GPR[step.rt])>>(cpu.GPR[step.rs]&0x3f)))
	return excNone
}

// Add, trap on overflow.
func (cpu *CPU) opADD(step *stepInfo) uint16 {
	a := int32(cpu.GPR[step.rs])
	b := int32(cpu.GPR[step.rt])
	r := a + b
	if ((a ^ r) & (b ^ r)) < 0 {
		return excOv
	}
	cpu.setReg(step.rd, sext32(uint32(r)))
	return excNone
}

func (cpu *CPU) opADDU(step *stepInfo) uint16 {
	cpu.setReg(step.rd, sext32(uint32(cpu.GPR[step.rs])+uint32(cpu.GPR[step.rt])))
	return excNone
}

// Subtract, trap on overflow.
func (cpu *CPU) opSUB(step *stepInfo) uint16 {
	a := int32(cpu.GPR[step.rs])
	b := int32(cpu.GPR[step.rt])
	r := a - b
	if ((a ^ b) & (a ^ r)) < 0 {
		return excOv
	}
	cpu.setReg(step.rd, sext32(uint32(r)))
	return excNone
}

func (cpu *CPU) opSUBU(step *stepInfo) uint16 {
	cpu.setReg(step.rd, sext32(uint32(cpu.GPR[step.rs])-uint32(cpu.GPR[step.rt])))
	return excNone
}

func (cpu *CPU) opDADD(step *stepInfo) uint16 {
	a := cpu.GPR[step.rs]
	b := cpu.GPR[step.rt]
	r := a + b
	if ((a^r)&(b^r))>>63 != 0 {
		return excOv
	}
	cpu.setReg(step.rd, r)
	return excNone
}

func (cpu *CPU) opDADDU(step *stepInfo) uint16 {
	cpu.setReg(step.rd, cpu.GPR[step.rs]+cpu.GPR[step.rt])
	return excNone
}

func (cpu *CPU) opDSUB(step *stepInfo) uint16 {
	a := cpu.GPR[step.rs]
	b := cpu.GPR[step.rt]
	r := a - b
	if ((a^b)&(a^r))>>63 != 0 {
		return excOv
	}
	cpu.setReg(step.rd, r)
	return excNone
}

func (cpu *CPU) opDSUBU(step *stepInfo) uint16 {
	cpu.setReg(step.rd, cpu.GPR[step.rs]-cpu.GPR[step.rt])
	return excNone
}

func (cpu *CPU) opAND(step *stepInfo) uint16 {
	cpu.setReg(step.rd, cpu.GPR[step.rs]&cpu.GPR[step.rt])
	return excNone
}

func (cpu *CPU) opOR(step *stepInfo) uint16 {
	cpu.setReg(step.rd, cpu.GPR[step.rs]|cpu.GPR[step.rt])
	return excNone
}

func (cpu *CPU) opXOR(step *stepInfo) uint16 {
	cpu.setReg(step.rd, cpu.GPR[step.rs]^cpu.GPR[step.rt])
	return excNone
}

func (cpu *CPU) opNOR(step *stepInfo) uint16 {
	cpu.setReg(step.rd, ^(cpu.GPR[step.rs] | cpu.GPR[step.rt]))
	return excNone
}

func (cpu *CPU) opSLT(step *stepInfo) uint16 {
	v := uint64(0)
	if int64(cpu.GPR[step.rs]) < int64(cpu.GPR[step.rt]) {
		v = 1
	}
	cpu.setReg(step.rd, v)
	return excNone
}

func (cpu *CPU) opSLTU(step *stepInfo) uint16 {
	v := uint64(0)
	if cpu.GPR[step.rs] < cpu.GPR[step.rt] {
		v = 1
	}
	cpu.setReg(step.rd, v)
	return excNone
}

func (cpu *CPU) opMFHI(step *stepInfo) uint16 {
	cpu.setReg(step.rd, cpu.Hi)
	return excNone
}

func (cpu *CPU) opMTHI(step *stepInfo) uint16 {
	cpu.Hi = cpu.GPR[step.rs]
	return excNone
}

func (cpu *CPU) opMFLO(step *stepInfo) uint16 {
	cpu.setReg(step.rd, cpu.Lo)
	return excNone
}

func (cpu *CPU) opMTLO(step *stepInfo) uint16 {
	cpu.Lo = cpu.GPR[step.rs]
	return excNone
}

// Multiply word, result sign extended into Hi and Lo.
func (cpu *CPU) opMULT(step *stepInfo) uint16 {
	r := int64(int32(cpu.GPR[step.rs])) * int64(int32(cpu.GPR[step.rt]))
	cpu.Lo = sext32(uint32(r))
	cpu.Hi = sext32(uint32(r >> 32))
	return excNone
}

func (cpu *CPU) opMULTU(step *stepInfo) uint16 {
	r := uint64(uint32(cpu.GPR[step.rs])) * uint64(uint32(cpu.GPR[step.rt]))
	cpu.Lo = sext32(uint32(r))
	cpu.Hi = sext32(uint32(r >> 32))
	return excNone
}

func (cpu *CPU) opDMULT(step *stepInfo) uint16 {
	a := cpu.GPR[step.rs]
	b := cpu.GPR[step.rt]
	hi, lo := bits.Mul64(a, b)
	// Correct unsigned high half for signed operands.
	if int64(a) < 0 {
		hi -= b
	}
	if int64(b) < 0 {
		hi -= a
	}
	cpu.Hi = hi
	cpu.Lo = lo
	return excNone
}

func (cpu *CPU) opDMULTU(step *stepInfo) uint16 {
	cpu.Hi, cpu.Lo = bits.Mul64(cpu.GPR[step.rs], cpu.GPR[step.rt])
	return excNone
}

// Divide word. Divide by zero leaves Hi and Lo alone.
func (cpu *CPU) opDIV(step *stepInfo) uint16 {
	a := int32(cpu.GPR[step.rs])
	b := int32(cpu.GPR[step.rt])
	switch {
	case b == 0:
	case a == -1<<31 && b == -1:
		cpu.Lo = sext32(uint32(a))
		cpu.Hi = 0
	default:
		cpu.Lo = sext32(uint32(a / b))
		cpu.Hi = sext32(uint32(a % b))
	}
	return excNone
}

func (cpu *CPU) opDIVU(step *stepInfo) uint16 {
	a := uint32(cpu.GPR[step.rs])
	b := uint32(cpu.GPR[step.rt])
	if b != 0 {
		cpu.Lo = sext32(a / b)
		cpu.Hi = sext32(a % b)
	}
	return excNone
}

func (cpu *CPU) opDDIV(step *stepInfo) uint16 {
	a := int64(cpu.GPR[step.rs])
	b := int64(cpu.GPR[step.rt])
	switch {
	case b == 0:
	case a == -1<<63 && b == -1:
		cpu.Lo = uint64(a)
		cpu.Hi = 0
	default:
		cpu.Lo = uint64(a / b)
		cpu.Hi = uint64(a % b)
	}
	return excNone
}

func (cpu *CPU) opDDIVU(step *stepInfo) uint16 {
	a := cpu.GPR[step.rs]
	b := cpu.GPR[step.rt]
	if b != 0 {
		cpu.Lo = a / b
		cpu.Hi = a % b
	}
	return excNone
}

func (cpu *CPU) opSYSCALL(_ *stepInfo) uint16 {
	return excSys
}

func (cpu *CPU) opBREAK(_ *stepInfo) uint16 {
	return excBp
}

// Memory is always ordered.
func (cpu *CPU) opSYNC(_ *stepInfo) uint16 {
	return excNone
}

// Evaluate trap condition selected by low three bits of function.
func trapCond(sel uint32, a, b uint64) bool {
	switch sel & 7 {
	case 0: // TGE
		return int64(a) >= int64(b)
	case 1: // TGEU
		return a >= b
	case 2: // TLT
		return int64(a) < int64(b)
	case 3: // TLTU
		return a < b
	case 4: // TEQ
		return a == b
	case 6: // TNE
		return a != b
	}
	return false
}

// Register trap group.
func (cpu *CPU) opTrap(step *stepInfo) uint16 {
	if trapCond(step.word&0x3f, cpu.GPR[step.rs], cpu.GPR[step.rt]) {
		return excTr
	}
	return excNone
}

// Immediate trap group, rt selects condition.
func (cpu *CPU) opTrapI(step *stepInfo) uint16 {
	if trapCond(step.rt, cpu.GPR[step.rs], sext32(step.imm)) {
		return excTr
	}
	return excNone
}

// Effective address of load or store.
func (step *stepInfo) addr(cpu *CPU) uint32 {
	return uint32(cpu.GPR[step.rs]) + step.imm
}

func (cpu *CPU) opLB(step *stepInfo) uint16 {
	v, irc := cpu.read(step, step.addr(cpu), 1)
	if irc == excNone {
		cpu.setReg(step.rt, uint64(int64(int8(v))))
	}
	return irc
}

func (cpu *CPU) opLBU(step *stepInfo) uint16 {
	v, irc := cpu.read(step, step.addr(cpu), 1)
	if irc == excNone {
		cpu.setReg(step.rt, v)
	}
	return irc
}

func (cpu *CPU) opLH(step *stepInfo) uint16 {
	v, irc := cpu.read(step, step.addr(cpu), 2)
	if irc == excNone {
		cpu.setReg(step.rt, uint64(int64(int16(v))))
	}
	return irc
}

func (cpu *CPU) opLHU(step *stepInfo) uint16 {
	v, irc := cpu.read(step, step.addr(cpu), 2)
	if irc == excNone {
		cpu.setReg(step.rt, v)
	}
	return irc
}

func (cpu *CPU) opLW(step *stepInfo) uint16 {
	v, irc := cpu.read(step, step.addr(cpu), 4)
	if irc == excNone {
		cpu.setReg(step.rt, sext32(uint32(v)))
	}
	return irc
}

func (cpu *CPU) opLWU(step *stepInfo) uint16 {
	v, irc := cpu.read(step, step.addr(cpu), 4)
	if irc == excNone {
		cpu.setReg(step.rt, v)
	}
	return irc
}

func (cpu *CPU) opLD(step *stepInfo) uint16 {
	v, irc := cpu.read(step, step.addr(cpu), 8)
	if irc == excNone {
		cpu.setReg(step.rt, v)
	}
	return irc
}

// Load word left, merge high order bytes.
func (cpu *CPU) opLWL(step *stepInfo) uint16 {
	addr := step.addr(cpu)
	v, irc := cpu.read(step, addr&^3, 4)
	if irc != excNone {
		return irc
	}
	shift := (addr & 3) * 8
	r := (uint32(cpu.GPR[step.rt]) & ((1 << shift) - 1)) | (uint32(v) << shift)
	cpu.setReg(step.rt, sext32(r))
	return excNone
}

// Load word right, merge low order bytes.
func (cpu *CPU) opLWR(step *stepInfo) uint16 {
	addr := step.addr(cpu)
	v, irc := cpu.read(step, addr&^3, 4)
	if irc != excNone {
		return irc
	}
	shift := (3 - (addr & 3)) * 8
	old := cpu.GPR[step.rt]
	r := (uint32(old) &^ (0xffffffff >> shift)) | (uint32(v) >> shift)
	if shift == 0 {
		cpu.setReg(step.rt, sext32(r))
	} else {
		cpu.setReg(step.rt, (old&0xffffffff00000000)|uint64(r))
	}
	return excNone
}

func (cpu *CPU) opLDL(step *stepInfo) uint16 {
	addr := step.addr(cpu)
	v, irc := cpu.read(step, addr&^7, 8)
	if irc != excNone {
		return irc
	}
	shift := (addr & 7) * 8
	cpu.setReg(step.rt, (cpu.GPR[step.rt]&((1<<shift)-1))|(v<<shift))
	return excNone
}

func (cpu *CPU) opLDR(step *stepInfo) uint16 {
	addr := step.addr(cpu)
	v, irc := cpu.read(step, addr&^7, 8)
	if irc != excNone {
		return irc
	}
	shift := (7 - (addr & 7)) * 8
	cpu.setReg(step.rt, (cpu.GPR[step.rt]&^(^uint64(0)>>shift))|(v>>shift))
	return excNone
}

// Load linked.
func (cpu *CPU) opLL(step *stepInfo) uint16 {
	addr := step.addr(cpu)
	v, irc := cpu.read(step, addr, 4)
	if irc != excNone {
		return irc
	}
	cpu.setReg(step.rt, sext32(uint32(v)))
	cpu.link(addr)
	return excNone
}

func (cpu *CPU) opLLD(step *stepInfo) uint16 {
	addr := step.addr(cpu)
	v, irc := cpu.read(step, addr, 8)
	if irc != excNone {
		return irc
	}
	cpu.setReg(step.rt, v)
	cpu.link(addr)
	return excNone
}

// Record load linked address, translation already succeeded.
func (cpu *CPU) link(addr uint32) {
	phys, _ := cpu.translate(addr, false)
	cpu.CP0[C0LLAddr] = uint64(phys >> 4)
	cpu.LLBit = true
}

func (cpu *CPU) opSB(step *stepInfo) uint16 {
	return cpu.write(step, step.addr(cpu), 1, cpu.GPR[step.rt])
}

func (cpu *CPU) opSH(step *stepInfo) uint16 {
	return cpu.write(step, step.addr(cpu), 2, cpu.GPR[step.rt])
}

func (cpu *CPU) opSW(step *stepInfo) uint16 {
	return cpu.write(step, step.addr(cpu), 4, cpu.GPR[step.rt])
}

func (cpu *CPU) opSD(step *stepInfo) uint16 {
	return cpu.write(step, step.addr(cpu), 8, cpu.GPR[step.rt])
}

// Read, merge and write back an aligned unit.
func (cpu *CPU) merge(step *stepInfo, addr uint32, size uint32, fn func(old uint64) uint64) uint16 {
	if _, irc := cpu.dataAddr(addr, size, true); irc != excNone {
		return irc
	}
	old, irc := cpu.read(step, addr, size)
	if irc != excNone {
		return irc
	}
	return cpu.write(step, addr, size, fn(old))
}

// Store word left, high order bytes of register.
func (cpu *CPU) opSWL(step *stepInfo) uint16 {
	addr := step.addr(cpu)
	shift := (addr & 3) * 8
	v := uint32(cpu.GPR[step.rt])
	return cpu.merge(step, addr&^3, 4, func(old uint64) uint64 {
		return uint64((uint32(old) &^ (0xffffffff >> shift)) | (v >> shift))
	})
}

// Store word right, low order bytes of register.
func (cpu *CPU) opSWR(step *stepInfo) uint16 {
	addr := step.addr(cpu)
	shift := (3 - (addr & 3)) * 8
	v := uint32(cpu.GPR[step.rt])
	return cpu.merge(step, addr&^3, 4, func(old uint64) uint64 {
		return uint64((uint32(old) & ((1 << shift) - 1)) | (v << shift))
	})
}

func (cpu *CPU) opSDL(step *stepInfo) uint16 {
	addr := step.addr(cpu)
	shift := (addr & 7) * 8
	v := cpu.GPR[step.rt]
	return cpu.merge(step, addr&^7, 8, func(old uint64) uint64 {
		return (old &^ (^uint64(0) >> shift)) | (v >> shift)
	})
}

func (cpu *CPU) opSDR(step *stepInfo) uint16 {
	addr := step.addr(cpu)
	shift := (7 - (addr & 7)) * 8
	v := cpu.GPR[step.rt]
	return cpu.merge(step, addr&^7, 8, func(old uint64) uint64 {
		return (old & ((1 << shift) - 1)) | (v << shift)
	})
}

// Store conditional.
func (cpu *CPU) opSC(step *stepInfo) uint16 {
	if !cpu.LLBit {
		cpu.setReg(step.rt, 0)
		return excNone
	}
	irc := cpu.write(step, step.addr(cpu), 4, cpu.GPR[step.rt])
	if irc == excNone {
		cpu.setReg(step.rt, 1)
	}
	return irc
}

func (cpu *CPU) opSCD(step *stepInfo) uint16 {
	if !cpu.LLBit {
		cpu.setReg(step.rt, 0)
		return excNone
	}
	irc := cpu.write(step, step.addr(cpu), 8, cpu.GPR[step.rt])
	if irc == excNone {
		cpu.setReg(step.rt, 1)
	}
	return irc
}
