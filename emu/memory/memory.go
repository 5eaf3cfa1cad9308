/*
   R4300 - Low level memory.

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

package memory

/*
   Memory is held as big endian 32 bit words. Byte zero of an address is
   the most significant byte of its word. Sized accessors assume natural
   alignment; the CPU raises address errors before getting here.
*/

type Memory struct {
	mem  []uint32
	size uint32
}

const (
	MaxSize = 8 * 1024 * 1024 // Largest RDRAM supported.
)

// Create memory of k kilobytes.
func New(k int) *Memory {
	m := &Memory{}
	m.SetSize(k)
	return m
}

// Set size in K, clears contents.
func (m *Memory) SetSize(k int) {
	if k > (MaxSize / 1024) {
		k = MaxSize / 1024
	}
	if k < 0 {
		k = 0
	}
	m.size = uint32(k * 1024)
	m.mem = make([]uint32, m.size>>2)
}

// Return size of memory in bytes.
func (m *Memory) GetSize() uint32 {
	return m.size
}

// Set all of memory to zero.
func (m *Memory) Clear() {
	clear(m.mem)
}

// Check if address out of range.
func (m *Memory) CheckAddr(addr uint32) bool {
	return addr < m.size
}

// Get memory value without range check.
func (m *Memory) GetMemory(addr uint32) uint32 {
	return m.mem[addr>>2]
}

// Set memory to a value, without range check.
func (m *Memory) SetMemory(addr, data uint32) {
	m.mem[addr>>2] = data
}

// Get a word from memory.
func (m *Memory) GetWord(addr uint32) (value uint32, error bool) {
	if addr >= m.size {
		return 0, true
	}
	return m.mem[addr>>2], false
}

// Put a word to memory.
func (m *Memory) PutWord(addr, data uint32) bool {
	if addr >= m.size {
		return true
	}
	m.mem[addr>>2] = data
	return false
}

// Put a word to memory, under mask.
func (m *Memory) PutWordMask(addr, data, mask uint32) bool {
	if addr >= m.size {
		return true
	}
	addr >>= 2
	m.mem[addr] &= ^mask
	m.mem[addr] |= data & mask
	return false
}

// Shift of byte within its word.
func byteShift(addr uint32) uint32 {
	return (3 - (addr & 3)) * 8
}

// Read byte, out of range reads zero.
func (m *Memory) Read8(addr uint32) uint8 {
	w, err := m.GetWord(addr)
	if err {
		return 0
	}
	return uint8(w >> byteShift(addr))
}

// Read halfword.
func (m *Memory) Read16(addr uint32) uint16 {
	w, err := m.GetWord(addr)
	if err {
		return 0
	}
	return uint16(w >> ((2 - (addr & 2)) * 8))
}

func (m *Memory) Read32(addr uint32) uint32 {
	w, _ := m.GetWord(addr)
	return w
}

func (m *Memory) Read64(addr uint32) uint64 {
	hi, _ := m.GetWord(addr)
	lo, _ := m.GetWord(addr + 4)
	return uint64(hi)<<32 | uint64(lo)
}

// Write byte, out of range writes are dropped.
func (m *Memory) Write8(addr uint32, data uint8) {
	sh := byteShift(addr)
	m.PutWordMask(addr, uint32(data)<<sh, 0xff<<sh)
}

func (m *Memory) Write16(addr uint32, data uint16) {
	sh := (2 - (addr & 2)) * 8
	m.PutWordMask(addr, uint32(data)<<sh, 0xffff<<sh)
}

func (m *Memory) Write32(addr uint32, data uint32) {
	m.PutWord(addr, data)
}

func (m *Memory) Write64(addr uint32, data uint64) {
	m.PutWord(addr, uint32(data>>32))
	m.PutWord(addr+4, uint32(data))
}

// Copy bytes into memory starting at addr, return number copied.
func (m *Memory) Load(addr uint32, data []byte) int {
	n := 0
	for _, b := range data {
		if addr >= m.size {
			break
		}
		m.Write8(addr, b)
		addr++
		n++
	}
	return n
}
