/*
   R4300 - Translation lookaside buffer.

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

package tlb

/*
   The R4300 has a fully associative 32 entry TLB. Each entry maps a pair
   of adjacent virtual pages (VPN2) onto two physical frames, the even page
   through EntryLo0 and the odd page through EntryLo1.

    EntryHi:   +-------------------------+-----+----------+
               |          VPN2           |  0  |   ASID   |
               +-------------------------+-----+----------+
                31                     13 12  8 7        0

    EntryLo:   +------+-------------------------+---+-+-+-+
               |  0   |           PFN           | C |D|V|G|
               +------+-------------------------+---+-+-+-+
                31  26 25                      6 5 3 2 1 0

   The page size is selected per entry by PageMask (bits 24:13).
*/

const (
	Entries = 32 // Number of entries.

	LoGlobal = 0x00000001 // Entry ignores ASID.
	LoValid  = 0x00000002 // Page is valid.
	LoDirty  = 0x00000004 // Page may be written.
	LoPFN    = 0x03ffffc0 // Physical frame number.
	pfnShift = 6          // Shift from EntryLo PFN to address.

	HiVPN2   = 0xffffe000 // Virtual page pair.
	HiASID   = 0x000000ff // Address space ID.
	MaskPG   = 0x01ffe000 // Valid PageMask bits.
	NotFound = 0x80000000 // TLBP probe failure bit in Index.
)

// Page mask values for each supported size.
const (
	Mask4K   = 0x00000000
	Mask16K  = 0x00006000
	Mask64K  = 0x0001e000
	Mask256K = 0x0007e000
	Mask1M   = 0x001fe000
	Mask4M   = 0x007fe000
	Mask16M  = 0x01ffe000
)

// Failure cause returned from translation.
type Fault int

const (
	FaultNone    Fault = iota // Translated.
	FaultRefill               // No entry matched.
	FaultInvalid              // Entry matched, page not valid.
	FaultModify               // Write to page with dirty bit clear.
)

type Entry struct {
	PageMask uint32
	Hi       uint32
	Lo0      uint32
	Lo1      uint32

	global    bool   // Both halves global.
	mask      uint32 // Offset bits for the page pair.
	mask2     uint32 // Offset bits within one page.
	vpnMask   uint32 // Bits compared against EntryHi.
	addrCheck uint32 // Masked VPN2 to match.
	pfnEven   uint32 // Physical base of even page.
	pfnOdd    uint32 // Physical base of odd page.
	checkBit  uint32 // Address bit selecting the odd page.
	unused    bool   // Not written since reset, never matches.
}

type TLB struct {
	Entry [Entries]Entry
}

// Load entry and recompute derived translation fields.
func (e *Entry) Update(pageMask, hi, lo0, lo1 uint32) {
	e.unused = false
	e.PageMask = pageMask & MaskPG
	e.Hi = hi & (HiVPN2 | HiASID)
	e.Lo0 = lo0
	e.Lo1 = lo1
	e.global = (lo0 & lo1 & LoGlobal) != 0
	e.mask = e.PageMask | ^uint32(HiVPN2)
	e.mask2 = e.mask >> 1
	e.vpnMask = ^e.mask
	e.addrCheck = e.Hi & e.vpnMask
	vpn2Mask := e.vpnMask >> 1
	e.pfnEven = (lo0 << pfnShift) & vpn2Mask
	e.pfnOdd = (lo1 << pfnShift) & vpn2Mask

	switch e.PageMask {
	case Mask4K:
		e.checkBit = 0x00001000
	case Mask16K:
		e.checkBit = 0x00004000
	case Mask64K:
		e.checkBit = 0x00010000
	case Mask256K:
		e.checkBit = 0x00040000
	case Mask1M:
		e.checkBit = 0x00100000
	case Mask4M:
		e.checkBit = 0x00400000
	case Mask16M:
		e.checkBit = 0x01000000
	default:
		// Unsupported mask, pick odd half by the bit above the mask.
		e.checkBit = (e.mask + 1) >> 1
	}
}

// Return values for TLBR.
func (e *Entry) Read() (pageMask, hi, lo0, lo1 uint32) {
	// Global bit reads back in both halves only when set in both.
	g := uint32(0)
	if e.global {
		g = LoGlobal
	}
	return e.PageMask, e.Hi & ^(e.PageMask), (e.Lo0 & ^uint32(LoGlobal)) | g,
		(e.Lo1 & ^uint32(LoGlobal)) | g
}

// Check if entry matches virtual address and asid.
func (e *Entry) match(addr uint32, asid uint32) bool {
	if e.unused {
		return false
	}
	if (addr & e.vpnMask) != e.addrCheck {
		return false
	}
	return e.global || (e.Hi&HiASID) == asid
}

// Reset all entries to invalid state.
func (t *TLB) Reset() {
	for i := range t.Entry {
		t.Entry[i] = Entry{}
		t.Entry[i].Update(0, 0, 0, 0)
		t.Entry[i].unused = true
	}
}

// Find index of entry matching address, or -1.
func (t *TLB) Probe(hi uint32) int {
	asid := hi & HiASID
	for i := range t.Entry {
		if t.Entry[i].match(hi&HiVPN2, asid) {
			return i
		}
	}
	return -1
}

// Translate virtual address, return physical address or why it failed.
func (t *TLB) Translate(addr uint32, asid uint32, write bool) (uint32, Fault) {
	for i := range t.Entry {
		e := &t.Entry[i]
		if !e.match(addr, asid) {
			continue
		}
		lo, base := e.Lo0, e.pfnEven
		if (addr & e.checkBit) != 0 {
			lo, base = e.Lo1, e.pfnOdd
		}
		if (lo & LoValid) == 0 {
			return 0, FaultInvalid
		}
		if write && (lo&LoDirty) == 0 {
			return 0, FaultModify
		}
		return base | (addr & e.mask2), FaultNone
	}
	return 0, FaultRefill
}
