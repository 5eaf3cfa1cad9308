/*
   R4300 - Device interfaces.

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

package device

// MI interrupt sources, bit positions match MI_INTR and MI_INTR_MASK.
type Interrupt uint32

const (
	IntrSP Interrupt = 1 << iota // Signal processor halted or broke
	IntrSI                       // Serial DMA finished
	IntrAI                       // Audio buffer started
	IntrVI                       // Vertical interrupt line reached
	IntrPI                       // Cartridge DMA finished
	IntrDP                       // Display processor full sync

	IntrAll Interrupt = 0x3f
)

var intrName = []string{"SP", "SI", "AI", "VI", "PI", "DP"}

func (i Interrupt) String() string {
	s := ""
	for b, n := range intrName {
		if (i & (1 << b)) != 0 {
			if s != "" {
				s += "|"
			}
			s += n
		}
	}
	if s == "" {
		return "none"
	}
	return s
}

// Device blocks raise and clear MI interrupts through this.
type Interrupts interface {
	RaiseInterrupt(kind Interrupt)
	ClearInterrupt(kind Interrupt)
}

// Notified of writes that change code in memory.
type Invalidator interface {
	InvalidateRange(addr uint32, length uint32)
}

// Task types found in the task descriptor.
const (
	TaskGraphics = 1
	TaskAudio    = 2
)

// Task descriptor placed at the top of SP DMEM before the SP is started.
type Task struct {
	Type          uint32
	Flags         uint32
	UcodeBoot     uint32
	UcodeBootSize uint32
	Ucode         uint32
	UcodeSize     uint32
	UcodeData     uint32
	UcodeDataSize uint32
	DramStack     uint32
	DramStackSize uint32
	OutputBuff    uint32
	OutputBuffSz  uint32
	DataPtr       uint32
	DataSize      uint32
	YieldDataPtr  uint32
	YieldDataSize uint32
}

// Number of bytes in task descriptor.
const TaskSize = 64

// Build task from the 16 words of the descriptor.
func NewTask(w [16]uint32) Task {
	return Task{
		Type: w[0], Flags: w[1], UcodeBoot: w[2], UcodeBootSize: w[3],
		Ucode: w[4], UcodeSize: w[5], UcodeData: w[6], UcodeDataSize: w[7],
		DramStack: w[8], DramStackSize: w[9], OutputBuff: w[10], OutputBuffSz: w[11],
		DataPtr: w[12], DataSize: w[13], YieldDataPtr: w[14], YieldDataSize: w[15],
	}
}

// Runs signal processor tasks. Completion is signalled by raising
// interrupts through the supplied Interrupts.
type TaskHandler interface {
	RunTask(task Task, intr Interrupts)
}
