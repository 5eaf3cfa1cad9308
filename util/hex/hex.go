/*
   R4300 - Hex formatting for dumps.

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

package hex

import "strings"

var hexMap = "0123456789abcdef"

// Write words as 8 hex digits each followed by a space.
func FormatWord(str *strings.Builder, word []uint32) {
	for _, full := range word {
		shift := 28
		for range 8 {
			str.WriteByte(hexMap[(full>>shift)&0xf])
			shift -= 4
		}
		str.WriteByte(' ')
	}
}

// Write doubleword as 16 hex digits, split in halves when space set.
func FormatDouble(str *strings.Builder, space bool, dword uint64) {
	shift := 60
	for i := range 16 {
		if space && i == 8 {
			str.WriteByte(' ')
		}
		str.WriteByte(hexMap[(dword>>shift)&0xf])
		shift -= 4
	}
}

// Write bytes as 2 hex digits each, optionally separated.
func FormatBytes(str *strings.Builder, space bool, data []uint8) {
	for _, by := range data {
		FormatByte(str, by)
		if space {
			str.WriteByte(' ')
		}
	}
}

func FormatByte(str *strings.Builder, data byte) {
	str.WriteByte(hexMap[(data>>4)&0xf])
	str.WriteByte(hexMap[data&0xf])
}

// Write word as printable characters, others shown as '.'.
func FormatChars(str *strings.Builder, word uint32) {
	for shift := 24; shift >= 0; shift -= 8 {
		by := byte(word >> shift)
		if by < 0x20 || by > 0x7e {
			by = '.'
		}
		str.WriteByte(by)
	}
}
