/*
   R4300 - Messages to core.

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

package master

// Message sent to core goroutine.
type Msg int

const (
	Start      Msg = 1 + iota // Run CPU
	Stop                      // Stop CPU
	Step                      // Execute one instruction
	Reset                     // Power on reset
	Frame                     // Frame pacing tick
	Breakpoint                // Toggle breakpoint at Addr
	Examine                   // Read word at Addr
	Deposit                   // Write Data at Addr
	Status                    // Return register snapshot
	Dynarec                   // Data non-zero enables fragment compiler
	Script                    // Run Lua script Name
	Boot                      // Reset and start cartridge
	Load                      // Load cartridge image Name
	Stats                     // Return fragment statistics
	Breaks                    // Return breakpoint addresses
	Register                  // Set register Addr to Data
)

var msgName = map[Msg]string{
	Start:      "start",
	Stop:       "stop",
	Step:       "step",
	Reset:      "reset",
	Frame:      "frame",
	Breakpoint: "breakpoint",
	Examine:    "examine",
	Deposit:    "deposit",
	Status:     "status",
	Dynarec:    "dynarec",
	Script:     "script",
	Boot:       "boot",
	Load:       "load",
	Stats:      "stats",
	Breaks:     "breaks",
	Register:   "register",
}

func (m Msg) String() string {
	if s, ok := msgName[m]; ok {
		return s
	}
	return "unknown"
}

// Request to core. When Reply is not nil the core answers on it.
type Packet struct {
	Msg   Msg
	Addr  uint32
	Data  uint32
	Name  string
	Reply chan Reply
}

// Answer from core.
type Reply struct {
	Data  uint32
	Value any
	Err   error
}
