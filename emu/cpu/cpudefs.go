/*
   R4300 - CPU definitions.

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
	"errors"
	"fmt"

	"github.com/rcornwell/R4300/emu/bus"
	"github.com/rcornwell/R4300/emu/event"
	"github.com/rcornwell/R4300/emu/fragment"
	"github.com/rcornwell/R4300/emu/tlb"
)

type stepInfo struct {
	pc   uint32 // Address of instruction
	word uint32 // Instruction word
	rs   uint32 // Source register
	rt   uint32 // Target register
	rd   uint32 // Destination register
	sa   uint32 // Shift amount
	imm  uint32 // Sign extended immediate
}

type CPU struct {
	GPR    [32]uint64 // General registers
	Hi     uint64     // Multiply/divide high result
	Lo     uint64     // Multiply/divide low result
	PC     uint32     // Current instruction
	NextPC uint32     // Instruction to run after PC
	Delay  bool       // Current instruction is in a delay slot
	CP0    [32]uint64 // System control registers
	FPR    [32]uint64 // Floating point registers
	FCR31  uint32     // Floating point control/status
	LLBit  bool       // Load linked still valid
	TLB    tlb.TLB    // Translation buffer

	branch   bool   // Current instruction set a branch target
	branchPC uint32 // Target of branch
	nullify  bool   // Likely branch not taken, skip delay slot
	jumpNow  bool   // ERET, go to branchPC with no delay slot
	refill   bool   // Last TLB fault found no entry
	badVAddr uint32 // Address causing last fault
	ce       uint32 // Coprocessor number for unusable

	intrPending bool // Interrupt will be taken before next instruction
	halted      bool // Not running
	stopRun     bool // Leave Run at next instruction boundary
	exitFrag    bool // Leave compiled code after this instruction
	unretired   bool // Last compiled op stopped without retiring
	err         error

	bus     *bus.Bus
	events  *event.List
	frags   *fragment.Cache
	dynarec bool

	lastFrag *fragment.Fragment // Fragment that just ran
	lastExit int                // Number of ops it ran

	breakpoints map[uint32]uint32 // Physical address to original word
	stepOver    bool              // Run original word at breakpoint PC
	substituted bool              // Current word replaced breakpoint

	table   [64]func(*stepInfo) uint16
	special [64]func(*stepInfo) uint16
	regimm  [32]func(*stepInfo) uint16
	cop1    [64]func(*stepInfo, uint32) uint16
}

// Exception codes, returned by instruction handlers. Handlers never
// return excInt so zero means the instruction completed.
const (
	excNone uint16 = 0  // No exception
	excInt  uint16 = 0  // Interrupt
	excMod  uint16 = 1  // TLB modification
	excTLBL uint16 = 2  // TLB miss on load or fetch
	excTLBS uint16 = 3  // TLB miss on store
	excAdEL uint16 = 4  // Address error on load or fetch
	excAdES uint16 = 5  // Address error on store
	excSys  uint16 = 8  // Syscall
	excBp   uint16 = 9  // Break instruction
	excRI   uint16 = 10 // Reserved instruction
	excCpU  uint16 = 11 // Coprocessor unusable
	excOv   uint16 = 12 // Integer overflow
	excTr   uint16 = 13 // Trap
	excFPE  uint16 = 15 // Floating point

	// Not exceptions, stop the CPU.
	excBreakpoint uint16 = 0x100 // Debugger breakpoint
	excFatal      uint16 = 0x101 // Emulation can't continue
)

// Control register numbers.
const (
	C0Index    = 0
	C0Random   = 1
	C0EntryLo0 = 2
	C0EntryLo1 = 3
	C0Context  = 4
	C0PageMask = 5
	C0Wired    = 6
	C0BadVAddr = 8
	C0Count    = 9
	C0EntryHi  = 10
	C0Compare  = 11
	C0Status   = 12
	C0Cause    = 13
	C0EPC      = 14
	C0PRId     = 15
	C0Config   = 16
	C0LLAddr   = 17
	C0WatchLo  = 18
	C0WatchHi  = 19
	C0XContext = 20
	C0TagLo    = 28
	C0TagHi    = 29
	C0ErrorEPC = 30
)

var c0Name = [32]string{
	"Index", "Random", "EntryLo0", "EntryLo1", "Context", "PageMask", "Wired", "7",
	"BadVAddr", "Count", "EntryHi", "Compare", "Status", "Cause", "EPC", "PRId",
	"Config", "LLAddr", "WatchLo", "WatchHi", "XContext", "21", "22", "23",
	"24", "25", "PErr", "CacheErr", "TagLo", "TagHi", "ErrorEPC", "31",
}

// Name of control register.
func C0Name(r int) string {
	return c0Name[r&0x1f]
}

const (
	// Status register.
	StatusIE  uint32 = 0x00000001 // Interrupt enable
	StatusEXL uint32 = 0x00000002 // Exception level
	StatusERL uint32 = 0x00000004 // Error level
	StatusIM  uint32 = 0x0000ff00 // Interrupt mask
	StatusBEV uint32 = 0x00400000 // Boot exception vectors
	StatusFR  uint32 = 0x04000000 // 32 64-bit floating registers
	StatusCU0 uint32 = 0x10000000 // Coprocessor 0 usable
	StatusCU1 uint32 = 0x20000000 // Coprocessor 1 usable

	// Cause register.
	CauseExcCode uint32 = 0x0000007c // Exception code
	CauseIP      uint32 = 0x0000ff00 // Interrupts pending
	CauseIPSW    uint32 = 0x00000300 // Software interrupts
	CauseIP2     uint32 = 0x00000400 // MI interrupt
	CauseIP7     uint32 = 0x00008000 // Timer interrupt
	CauseCE      uint32 = 0x30000000 // Coprocessor number
	CauseBD      uint32 = 0x80000000 // Exception in delay slot

	// Context register.
	ContextBadVPN2 uint32 = 0x007ffff0

	// Floating point control register.
	FCR31Cond  uint32 = 0x00800000 // Compare result
	FCR31RM    uint32 = 0x00000003 // Rounding mode
	FCR31FS    uint32 = 0x01000000 // Flush denormals
	FCR31Write uint32 = 0x0183ffff // Writable bits

	// Fixed values.
	PRIdR4300  = 0x00000b22
	FCR0R4300  = 0x00000a00
	ConfigInit = 0x0006e463
)

const (
	// Exception vectors.
	vecRefill     uint32 = 0x80000000
	vecGeneral    uint32 = 0x80000180
	vecBEVRefill  uint32 = 0xbfc00200
	vecBEVGeneral uint32 = 0xbfc00380
	vecReset      uint32 = 0xbfc00000

	// Unmapped segments.
	kseg0   uint32 = 0x80000000
	kseg1   uint32 = 0xa0000000
	kseg2   uint32 = 0xc0000000
	physMsk uint32 = 0x1fffffff
)

const (
	// Debug options.
	debugInst = 1 << iota
	debugExcept
	debugTLB
	debugIntr
	debugDynarec
	debugEvent
)

var debugOption = map[string]int{
	"INST":      debugInst,
	"EXCEPTION": debugExcept,
	"TLB":       debugTLB,
	"INTR":      debugIntr,
	"DYNAREC":   debugDynarec,
	"EVENT":     debugEvent,
}

var debugMsk int

// Enable debug options.
func Debug(opt string) error {
	flag, ok := debugOption[opt]
	if !ok {
		return errors.New("CPU debug option invalid: " + opt)
	}
	debugMsk |= flag
	return nil
}

var (
	ErrBreakpoint     = errors.New("breakpoint")
	ErrUnimplemented  = errors.New("unimplemented instruction")
	ErrInterruptState = errors.New("interrupt pending state inconsistent")
	ErrHalted         = errors.New("halted by request")
)

// Error that stops emulation.
type FatalError struct {
	PC   uint32 // Address of failing instruction
	Word uint32 // Instruction
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("pc %08x op %08x: %v", e.PC, e.Word, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Sign extend low 32 bits.
func sext32(v uint32) uint64 {
	return uint64(int64(int32(v)))
}
