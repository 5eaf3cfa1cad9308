/*
   R4300 - Examine and deposit commands.

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

package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	core "github.com/rcornwell/R4300/emu/core"
	disassembler "github.com/rcornwell/R4300/emu/disassemble"
	"github.com/rcornwell/R4300/emu/master"
	"github.com/rcornwell/R4300/util/hex"
)

const regPC = core.RegPC

type memoryOpts struct {
	symbolic  bool   // Disassemble words.
	char      bool   // Show characters.
	high      bool   // High value defined.
	lowRange  uint32 // Lower start to display
	highRange uint32 // Highest value to display.
}

// Words per line of memory dump.
const dumpWords = 4

// Largest range examine will show.
const maxExamine = 0x10000

// Register names deposit accepts.
var regNumber = map[string]int{
	"pc": core.RegPC,
	"hi": core.RegHi,
	"lo": core.RegLo,
}

func init() {
	for i := range 32 {
		regNumber[disassembler.RegName(i)] = i
		regNumber["r"+strconv.Itoa(i)] = i
	}
}

// Get options for memory reference command.
func (line *cmdLine) parseMemoryOptions(options *memoryOpts) error {
	for {
		line.skipSpace()
		if line.peek() != '-' {
			return nil
		}
		line.pos++
		for !line.isEOL() && !unicode.IsSpace(rune(line.peek())) {
			switch unicode.ToLower(rune(line.getCurrent())) {
			case 's': // symbolic.
				options.symbolic = true
			case 'c': // characters.
				options.char = true
			default:
				return errors.New("unknown option: " + string(line.line[line.pos-1]))
			}
		}
	}
}

// Get address range, addr or addr-addr.
func (line *cmdLine) parseMemoryRange(options *memoryOpts) error {
	low, err := line.getHex("-:")
	if err != nil {
		return err
	}
	options.lowRange = low &^ 3
	options.highRange = options.lowRange
	if by := line.peek(); by == '-' || by == ':' {
		line.pos++
		high, err := line.getHex("")
		if err != nil {
			return err
		}
		options.high = true
		options.highRange = high &^ 3
	}
	if options.highRange < options.lowRange {
		return errors.New("high address below low address")
	}
	if options.highRange-options.lowRange >= maxExamine {
		return errors.New("range too large")
	}
	return nil
}

// Read a word through the core.
func examineWord(core *core.Core, addr uint32) (uint32, error) {
	r := core.Request(master.Packet{Msg: master.Examine, Addr: addr})
	return r.Data, r.Err
}

// Dump range of memory in hex.
func dumpMemory(core *core.Core, options *memoryOpts) error {
	addr := options.lowRange
	for {
		var str strings.Builder
		fmt.Fprintf(&str, "%08x: ", addr)
		words := []uint32{}
		for range dumpWords {
			word, err := examineWord(core, addr)
			if err != nil {
				return err
			}
			words = append(words, word)
			addr += 4
			if addr > options.highRange || addr == 0 {
				break
			}
		}
		hex.FormatWord(&str, words)
		if options.char {
			str.WriteString(strings.Repeat("         ", dumpWords-len(words)))
			str.WriteByte('\'')
			for _, word := range words {
				hex.FormatChars(&str, word)
			}
			str.WriteByte('\'')
		}
		fmt.Fprintln(out, strings.TrimRight(str.String(), " "))
		if addr > options.highRange || addr == 0 {
			return nil
		}
	}
}

// Dump symbolic instructions.
func dumpSymbolic(core *core.Core, options *memoryOpts) error {
	addr := options.lowRange
	for {
		word, err := examineWord(core, addr)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, disassembler.PrintInst(word, addr))
		addr += 4
		if addr > options.highRange || addr == 0 {
			return nil
		}
	}
}

// Examine memory command.
func examine(line *cmdLine, core *core.Core) (bool, error) {
	var options memoryOpts

	if err := line.parseMemoryOptions(&options); err != nil {
		return false, err
	}
	if err := line.parseMemoryRange(&options); err != nil {
		return false, err
	}

	// Check if we got all of command.
	if !line.atEnd() {
		return false, errors.New("extra arguments to command")
	}

	if options.symbolic {
		return false, dumpSymbolic(core, &options)
	}
	return false, dumpMemory(core, &options)
}

// Deposit memory or register command.
func deposit(line *cmdLine, core *core.Core) (bool, error) {
	pos := line.pos
	if name := line.getWord(); name != "" {
		if reg, ok := regNumber[name]; ok {
			value, err := line.getHex("")
			if err != nil {
				return false, err
			}
			if !line.atEnd() {
				return false, errors.New("register takes one value")
			}
			r := core.Request(master.Packet{Msg: master.Register, Addr: uint32(reg), Data: value})
			return false, r.Err
		}
		// Names like "a0" are registers, "a000" are addresses.
		line.pos = pos
	}

	addr, err := line.getHex("")
	if err != nil {
		return false, err
	}
	addr &^= 3
	values := []uint32{}
	for !line.atEnd() {
		value, err := line.getHex("")
		if err != nil {
			return false, err
		}
		values = append(values, value)
	}
	if len(values) == 0 {
		return false, errors.New("deposit requires a value")
	}

	for _, value := range values {
		r := core.Request(master.Packet{Msg: master.Deposit, Addr: addr, Data: value})
		if r.Err != nil {
			return false, r.Err
		}
		addr += 4
	}
	return false, nil
}
