/*
   R4300 - Instruction word field decode.

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

/*
   All instructions are one 32 bit word in one of three formats.

    I format:  (Immediate).
      +------+-----+-----+----------------+
      |  op  | rs  | rt  |   immediate    |
      +------+-----+-----+----------------+
       31  26 25 21 20 16 15             0

    J format:  (Jump).
      +------+----------------------------+
      |  op  |          target            |
      +------+----------------------------+
       31  26 25                         0

    R format:  (Register).
      +------+-----+-----+-----+-----+------+
      |  op  | rs  | rt  | rd  | sa  | fn   |
      +------+-----+-----+-----+-----+------+
       31  26 25 21 20 16 15 11 10  6 5    0

   Coprocessor instructions reuse the R format with rs holding the
   format or sub operation and rt/rd/sa holding ft/fs/fd.
*/

type Instruction uint32

// Primary opcode, bits 31:26.
func (i Instruction) Op() uint32 {
	return uint32(i) >> 26
}

// Source register, bits 25:21.
func (i Instruction) Rs() uint32 {
	return (uint32(i) >> 21) & 0x1f
}

// Target register, bits 20:16.
func (i Instruction) Rt() uint32 {
	return (uint32(i) >> 16) & 0x1f
}

// Destination register, bits 15:11.
func (i Instruction) Rd() uint32 {
	return (uint32(i) >> 11) & 0x1f
}

// Shift amount, bits 10:6.
func (i Instruction) Sa() uint32 {
	return (uint32(i) >> 6) & 0x1f
}

// Function field for SPECIAL and coprocessor groups, bits 5:0.
func (i Instruction) Funct() uint32 {
	return uint32(i) & 0x3f
}

// Zero extended immediate.
func (i Instruction) Imm() uint32 {
	return uint32(i) & 0xffff
}

// Sign extended immediate.
func (i Instruction) SImm() uint32 {
	return uint32(SignExtend16(uint32(i)))
}

// Jump target, bits 25:0.
func (i Instruction) Target() uint32 {
	return uint32(i) & 0x3ffffff
}

// Coprocessor format, same bits as rs.
func (i Instruction) Fmt() uint32 {
	return i.Rs()
}

func (i Instruction) Ft() uint32 {
	return i.Rt()
}

func (i Instruction) Fs() uint32 {
	return i.Rd()
}

func (i Instruction) Fd() uint32 {
	return i.Sa()
}

// Return low 16 bits of value with bit 15 copied into bits 16-31.
func SignExtend16(v uint32) int32 {
	return int32(int16(uint16(v)))
}
