/*
   R4300 - Configuration file parser.

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

package configparser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// List of options to pass to create routine.
type Option struct {
	Name     string    // Name of option.
	EqualOpt string    // Value of string after =.
	Value    []*string // Value of option.
}

// Current option line being parsed.
type optionLine struct {
	line string // Current option line.
	pos  int    // Current position in line.
}

/* Configuration file format:
 *
 * '#' indicates comment, rest of line is ignored.
 * <line> := <setting> |
 *           <setting> <whitespace> <value> |
 *           <setting> <whitespace> <quoteopt> |
 *           <setting> <whitespace> <value> <whitespace> <options>
 * <setting> ::= <string>
 * <value> ::= <string>
 * <options> ::= *(<option> *(<whitespace>))
 * <option> ::= <opt> *(',' *(<whitespace>) <string>)
 * <opt> := <optvalue> | <string>
 * <optvalue> ::= <string> '=' <quoteopt>
 * <quoteopt> ::= *(<printable>) | '"' *(<printable> | <whitespace>) '"'
 * <string> ::= *(<letter> | <number>)
 */

const (
	TypeOption  = 1 + iota // Setting takes one value.
	TypeOptions            // Setting takes a value and list of options.
	TypeSwitch             // Setting used to set a flag.
	TypeFile               // Setting takes a file name.
)

type settingDef struct {
	create func(string, []Option) error
	ty     int
}

var settings = map[string]settingDef{}

var lineNumber int

// Return type of setting or 0 if not registered.
func getType(name string) int {
	setting, ok := settings[name]
	if !ok {
		return 0
	}
	return setting.ty
}

func register(name string, ty int, fn func(string, []Option) error) {
	settings[strings.ToUpper(name)] = settingDef{create: fn, ty: ty}
}

// Register should be called from init functions.
func RegisterOption(name string, fn func(string, []Option) error) {
	register(name, TypeOption, fn)
}

// Register should be called from init functions.
func RegisterOptions(name string, fn func(string, []Option) error) {
	register(name, TypeOptions, fn)
}

// Register should be called from init functions.
func RegisterSwitch(name string, fn func(string, []Option) error) {
	register(name, TypeSwitch, fn)
}

// Register should be called from init functions.
func RegisterFile(name string, fn func(string, []Option) error) {
	register(name, TypeFile, fn)
}

// Call create routine of setting, checking type.
func createSetting(name string, ty int, value string, options []Option) error {
	name = strings.ToUpper(name)
	setting, ok := settings[name]
	if !ok {
		return errors.New("Unknown setting: " + name)
	}
	if setting.ty != ty {
		return fmt.Errorf("Setting %s used with wrong type", name)
	}
	return setting.create(value, options)
}

// Load in a configuration file.
func LoadConfigFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()
	return LoadConfig(file)
}

// Process configuration lines from reader.
func LoadConfig(r io.Reader) error {
	lineNumber = 0
	reader := bufio.NewReader(r)
	for {
		var err error

		line := optionLine{}
		line.line, err = reader.ReadString('\n')
		lineNumber++
		if len(line.line) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		err = line.parseLine()
		if err != nil {
			return err
		}
	}
	return nil
}

// Parse one line from file.
func (line *optionLine) parseLine() error {
	line.skipSpace()
	if line.isEOL() {
		return nil
	}
	name, err := line.getName()
	if err != nil {
		return err
	}
	name = strings.ToUpper(name)
	ty := getType(name)
	switch ty {
	case TypeOption:
		line.skipSpace()
		value := line.parseValue()
		line.skipSpace()
		if value == "" || !line.isEOL() {
			return fmt.Errorf("Option: %s not followed by one value, line: %d", name, lineNumber)
		}
		return createSetting(name, ty, value, nil)

	case TypeOptions:
		line.skipSpace()
		value := line.parseValue()
		if value == "" {
			return fmt.Errorf("Option: %s not followed by value, line: %d", name, lineNumber)
		}
		options, err := line.parseOptions()
		if err != nil {
			return err
		}
		return createSetting(name, ty, value, options)

	case TypeFile:
		line.skipSpace()
		file, ok := line.parseQuoteString()
		line.skipSpace()
		if !ok || file == "" || !line.isEOL() {
			return fmt.Errorf("Option: %s requires one file name, line: %d", name, lineNumber)
		}
		return createSetting(name, ty, file, nil)

	case TypeSwitch:
		line.skipSpace()
		if !line.isEOL() {
			return fmt.Errorf("Switch Option: %s followed by options, line: %d", name, lineNumber)
		}
		return createSetting(name, ty, "", nil)
	}
	return fmt.Errorf("No setting: %s registered, line: %d", name, lineNumber)
}

// Skip forward over line until none whitespace character found.
func (line *optionLine) skipSpace() {
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
func (line *optionLine) isEOL() bool {
	if line.pos >= len(line.line) {
		return true
	}

	if line.line[line.pos] == '#' {
		return true
	}
	return false
}

// Return next letter or digit in line. 0 if EOL or other.
func (line *optionLine) getNext() byte {
	line.pos++
	if line.isEOL() {
		return 0
	}
	by := line.line[line.pos]
	if unicode.IsLetter(rune(by)) || unicode.IsNumber(rune(by)) {
		return by
	}
	return 0
}

// Parse value of setting, letters and digits.
func (line *optionLine) parseValue() string {
	value := ""
	for !line.isEOL() {
		by := line.line[line.pos]
		if !unicode.IsLetter(rune(by)) && !unicode.IsNumber(rune(by)) {
			break
		}
		value += string([]byte{by})
		line.pos++
	}
	return value
}

// Parse string that is "string" or just string.
func (line *optionLine) parseQuoteString() (string, bool) {
	if line.isEOL() {
		return "", false
	}
	inQuote := line.line[line.pos] == '"'
	if inQuote {
		line.pos++
	}

	value := ""
	for line.pos < len(line.line) {
		by := line.line[line.pos]
		if inQuote {
			if by == '"' {
				line.pos++
				// "" gets replaced by single quote.
				if line.pos < len(line.line) && line.line[line.pos] == '"' {
					value += `"`
					line.pos++
					continue
				}
				return value, true
			}
		} else if unicode.IsSpace(rune(by)) || by == ',' || by == '#' {
			break
		}
		value += string([]byte{by})
		line.pos++
	}
	return value, !inQuote
}

// Parse option name.
func (line *optionLine) getName() (string, error) {
	// Check if end of line.
	if line.isEOL() {
		return "", nil
	}

	// First character must be alphabetic.
	by := line.line[line.pos]
	if !unicode.IsLetter(rune(by)) {
		return "", fmt.Errorf("Invalid option encountered line: %d [%d]", lineNumber, line.pos)
	}
	value := ""

	// Already verified that first character is letter,
	// so grab until not letter or number.
	for {
		value += string([]byte{by})
		by = line.getNext()
		if by == 0 {
			break
		}
	}

	return value, nil
}

// Parse options for a line.
func (line *optionLine) parseOption() (*Option, error) {
	// Skip leading space
	line.skipSpace()

	// Grab option name
	value, err := line.getName()
	if value == "" {
		return nil, err
	}

	// Empty option.
	option := Option{Name: value}

	// If at end of line done.
	if line.isEOL() {
		return &option, nil
	}

	// Check if equals option.
	if line.line[line.pos] == '=' {
		line.pos++
		v, ok := line.parseQuoteString()
		if !ok {
			return nil, fmt.Errorf("Invalid quoted string line: %d [%d]", lineNumber, line.pos)
		}
		option.EqualOpt = v
	}

	// Skip any spaces.
	line.skipSpace()

	// Grab all , options
	for !line.isEOL() && line.line[line.pos] == ',' {
		line.pos++ // Skip comma
		// Skip space between , and next option
		line.skipSpace()
		v, err := line.getName()
		if err != nil {
			return nil, err
		}
		if v != "" {
			option.Value = append(option.Value, &v)
		}
		// Skip any trailing spaces.
		line.skipSpace()
	}

	return &option, nil
}

// Collect all options for line.
func (line *optionLine) parseOptions() ([]Option, error) {
	options := []Option{}
	for {
		option, err := line.parseOption()
		if err != nil {
			return nil, err
		}
		if option == nil {
			break
		}
		options = append(options, *option)
	}
	return options, nil
}
