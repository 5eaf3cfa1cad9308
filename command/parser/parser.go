/*
   R4300 - Command parser.

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
	"io"
	"os"
	"strings"
	"unicode"

	core "github.com/rcornwell/R4300/emu/core"
)

type cmd struct {
	Name     string // Command name.
	Min      int    // Minimum match size.
	Process  func(*cmdLine, *core.Core) (bool, error)
	Complete func(*cmdLine) []string
}

type cmdLine struct {
	line string // Current command.
	pos  int    // Position in line.
}

// Where command output goes.
var out io.Writer = os.Stdout

// Send command output to w.
func SetOutput(w io.Writer) {
	out = w
}

// Execute the command line given.
func ProcessCommand(commandLine string, core *core.Core) (bool, error) {
	line := cmdLine{line: commandLine}
	command := line.getWord()
	if command == "" {
		if !line.isEOL() {
			return false, errors.New("command not found: " + commandLine)
		}
		return false, nil
	}

	match := matchList(command)
	if len(match) == 0 {
		return false, errors.New("command not found: " + command)
	}

	if len(match) > 1 {
		return false, errors.New("unique command not found: " + command)
	}

	return match[0].Process(&line, core)
}

// Check if command matches at least to minimum length.
func matchCommand(match cmd, command string) bool {
	if len(command) > len(match.Name) || len(command) < match.Min {
		return false
	}
	return strings.HasPrefix(match.Name, command)
}

// Check if command matches one of the commands.
func matchList(command string) []cmd {
	// If command empty just return.
	if command == "" {
		return []cmd{}
	}

	// Try and match one command.
	var match []cmd
	for _, m := range cmdList {
		if matchCommand(m, command) {
			match = append(match, m)
		}
	}
	return match
}

// Skip forward over line until none whitespace character found.
func (line *cmdLine) skipSpace() {
	for {
		if line.pos >= len(line.line) {
			return
		}
		if unicode.IsSpace(rune(line.line[line.pos])) {
			line.pos++
			continue
		}
		return
	}
}

// Check if at end of line.
func (line *cmdLine) isEOL() bool {
	if line.pos >= len(line.line) {
		return true
	}

	if line.line[line.pos] == '#' {
		return true
	}
	return false
}

// Return current character and advance to next.
func (line *cmdLine) getCurrent() byte {
	if line.isEOL() {
		return 0
	}
	by := line.line[line.pos]
	line.pos++
	return by
}

// Peek at current character.
func (line *cmdLine) peek() byte {
	if line.isEOL() {
		return 0
	}
	return line.line[line.pos]
}

// Check that only spaces or comment remain.
func (line *cmdLine) atEnd() bool {
	line.skipSpace()
	return line.isEOL()
}

// Parse string that is "string" or just string.
func (line *cmdLine) parseQuoteString() (string, bool) {
	line.skipSpace()
	if line.isEOL() {
		return "", false
	}
	inQuote := false
	value := ""

	by := line.getCurrent()
	if by == '"' {
		inQuote = true
		by = line.getCurrent()
	}

	for by != 0 {
		// If processing a quoted string "" gets replaced by single quote.
		if by == '"' && inQuote {
			if line.peek() != '"' {
				return value, true
			}
			by = line.getCurrent()
		} else if !inQuote && unicode.IsSpace(rune(by)) {
			// Space terminates a no quoted string.
			return value, true
		}
		value += string(by)
		by = line.getCurrent()
	}
	return value, !inQuote
}

// Parse a decimal number.
func (line *cmdLine) getNumber() (uint32, error) {
	line.skipSpace()

	// Check if end of line.
	if line.isEOL() {
		return 0, errors.New("not a number")
	}

	value := uint32(0)
	for !line.isEOL() && !unicode.IsSpace(rune(line.peek())) {
		by := line.getCurrent()
		if !unicode.IsDigit(rune(by)) {
			return 0, errors.New("not a number")
		}
		value = (value * 10) + uint32(by-'0')
	}

	return value, nil
}

const hexDigits = "0123456789abcdef"

// Parse hex number, stopping at space or any character in stop.
func (line *cmdLine) getHex(stop string) (uint32, error) {
	line.skipSpace()

	pos := line.pos
	value := uint32(0)
	digits := 0
	for !line.isEOL() {
		by := line.peek()
		if unicode.IsSpace(rune(by)) || strings.IndexByte(stop, by) != -1 {
			break
		}
		digit := strings.IndexByte(hexDigits, byte(unicode.ToLower(rune(by))))
		if digit == -1 || digits == 8 {
			line.pos = pos
			return 0, errors.New("not a hex number")
		}
		value = (value << 4) + uint32(digit)
		digits++
		line.pos++
	}
	if digits == 0 {
		return 0, errors.New("hex number required")
	}

	return value, nil
}

// Parse a name, letter followed by letters or digits.
func (line *cmdLine) getWord() string {
	line.skipSpace()

	value := ""
	pos := line.pos
	for !line.isEOL() {
		by := line.peek()
		if unicode.IsSpace(rune(by)) {
			break
		}
		if !unicode.IsLetter(rune(by)) && (value == "" || !unicode.IsDigit(rune(by))) {
			line.pos = pos
			return ""
		}
		value += string([]byte{by})
		line.pos++
	}

	return strings.ToLower(value)
}
