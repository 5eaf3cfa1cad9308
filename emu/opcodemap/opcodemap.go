/*
   R4300 - Opcodes for decode, assembly and disassembly.

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

const (
	// Primary opcodes, bits 31:26.
	OpSPECIAL = 0x00
	OpREGIMM  = 0x01
	OpJ       = 0x02
	OpJAL     = 0x03
	OpBEQ     = 0x04
	OpBNE     = 0x05
	OpBLEZ    = 0x06
	OpBGTZ    = 0x07
	OpADDI    = 0x08
	OpADDIU   = 0x09
	OpSLTI    = 0x0A
	OpSLTIU   = 0x0B
	OpANDI    = 0x0C
	OpORI     = 0x0D
	OpXORI    = 0x0E
	OpLUI     = 0x0F
	OpCOP0    = 0x10
	OpCOP1    = 0x11
	OpCOP2    = 0x12
	OpBEQL    = 0x14
	OpBNEL    = 0x15
	OpBLEZL   = 0x16
	OpBGTZL   = 0x17
	OpDADDI   = 0x18
	OpDADDIU  = 0x19
	OpLDL     = 0x1A
	OpLDR     = 0x1B
	OpLB      = 0x20
	OpLH      = 0x21
	OpLWL     = 0x22
	OpLW      = 0x23
	OpLBU     = 0x24
	OpLHU     = 0x25
	OpLWR     = 0x26
	OpLWU     = 0x27
	OpSB      = 0x28
	OpSH      = 0x29
	OpSWL     = 0x2A
	OpSW      = 0x2B
	OpSDL     = 0x2C
	OpSDR     = 0x2D
	OpSWR     = 0x2E
	OpCACHE   = 0x2F
	OpLL      = 0x30
	OpLWC1    = 0x31
	OpLLD     = 0x34
	OpLDC1    = 0x35
	OpLD      = 0x37
	OpSC      = 0x38
	OpSWC1    = 0x39
	OpBKPT    = 0x3B // Reserved on R4300, used for debugger breakpoints
	OpSCD     = 0x3C
	OpSDC1    = 0x3D
	OpSD      = 0x3F
)

const (
	// SPECIAL function codes, bits 5:0.
	FnSLL     = 0x00
	FnSRL     = 0x02
	FnSRA     = 0x03
	FnSLLV    = 0x04
	FnSRLV    = 0x06
	FnSRAV    = 0x07
	FnJR      = 0x08
	FnJALR    = 0x09
	FnSYSCALL = 0x0C
	FnBREAK   = 0x0D
	FnSYNC    = 0x0F
	FnMFHI    = 0x10
	FnMTHI    = 0x11
	FnMFLO    = 0x12
	FnMTLO    = 0x13
	FnDSLLV   = 0x14
	FnDSRLV   = 0x16
	FnDSRAV   = 0x17
	FnMULT    = 0x18
	FnMULTU   = 0x19
	FnDIV     = 0x1A
	FnDIVU    = 0x1B
	FnDMULT   = 0x1C
	FnDMULTU  = 0x1D
	FnDDIV    = 0x1E
	FnDDIVU   = 0x1F
	FnADD     = 0x20
	FnADDU    = 0x21
	FnSUB     = 0x22
	FnSUBU    = 0x23
	FnAND     = 0x24
	FnOR      = 0x25
	FnXOR     = 0x26
	FnNOR     = 0x27
	FnSLT     = 0x2A
	FnSLTU    = 0x2B
	FnDADD    = 0x2C
	FnDADDU   = 0x2D
	FnDSUB    = 0x2E
	FnDSUBU   = 0x2F
	FnTGE     = 0x30
	FnTGEU    = 0x31
	FnTLT     = 0x32
	FnTLTU    = 0x33
	FnTEQ     = 0x34
	FnTNE     = 0x36
	FnDSLL    = 0x38
	FnDSRL    = 0x3A
	FnDSRA    = 0x3B
	FnDSLL32  = 0x3C
	FnDSRL32  = 0x3E
	FnDSRA32  = 0x3F
)

const (
	// REGIMM rt codes.
	RiBLTZ    = 0x00
	RiBGEZ    = 0x01
	RiBLTZL   = 0x02
	RiBGEZL   = 0x03
	RiTGEI    = 0x08
	RiTGEIU   = 0x09
	RiTLTI    = 0x0A
	RiTLTIU   = 0x0B
	RiTEQI    = 0x0C
	RiTNEI    = 0x0E
	RiBLTZAL  = 0x10
	RiBGEZAL  = 0x11
	RiBLTZALL = 0x12
	RiBGEZALL = 0x13
)

const (
	// Coprocessor rs codes.
	CopMF  = 0x00
	CopDMF = 0x01
	CopCF  = 0x02
	CopMT  = 0x04
	CopDMT = 0x05
	CopCT  = 0x06
	CopBC  = 0x08
	CopCO  = 0x10 // Bit 4 set, rest of rs is format or COP0 function

	// COP0 function codes with CO set.
	C0TLBR  = 0x01
	C0TLBWI = 0x02
	C0TLBWR = 0x06
	C0TLBP  = 0x08
	C0ERET  = 0x18

	// COP1 formats.
	FmtS = 0x10
	FmtD = 0x11
	FmtW = 0x14
	FmtL = 0x15

	// COP1 function codes.
	F1ADD     = 0x00
	F1SUB     = 0x01
	F1MUL     = 0x02
	F1DIV     = 0x03
	F1SQRT    = 0x04
	F1ABS     = 0x05
	F1MOV     = 0x06
	F1NEG     = 0x07
	F1ROUNDL  = 0x08
	F1TRUNCL  = 0x09
	F1CEILL   = 0x0A
	F1FLOORL  = 0x0B
	F1ROUNDW  = 0x0C
	F1TRUNCW  = 0x0D
	F1CEILW   = 0x0E
	F1FLOORW  = 0x0F
	F1CVTS    = 0x20
	F1CVTD    = 0x21
	F1CVTW    = 0x24
	F1CVTL    = 0x25
	F1COMPARE = 0x30 // 0x30-0x3f compare group
)

// Word planted in memory to mark a debugger breakpoint.
const BreakpointOp uint32 = OpBKPT << 26

// Assemble a register type instruction.
func EncodeR(fn, rs, rt, rd, sa int) uint32 {
	return uint32(rs&0x1f)<<21 | uint32(rt&0x1f)<<16 | uint32(rd&0x1f)<<11 |
		uint32(sa&0x1f)<<6 | uint32(fn&0x3f)
}

// Assemble an immediate type instruction.
func EncodeI(op, rs, rt int, imm uint16) uint32 {
	return uint32(op&0x3f)<<26 | uint32(rs&0x1f)<<21 | uint32(rt&0x1f)<<16 | uint32(imm)
}

// Assemble a jump type instruction.
func EncodeJ(op int, target uint32) uint32 {
	return uint32(op&0x3f)<<26 | (target>>2)&0x3ffffff
}
