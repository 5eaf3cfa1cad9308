/*
   R4300 - Hex formatting test cases.

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

import (
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	var str strings.Builder
	FormatWord(&str, []uint32{0x80371240, 0x0000000f})
	if str.String() != "80371240 0000000f " {
		t.Errorf("FormatWord got: %q", str.String())
	}

	str.Reset()
	FormatDouble(&str, true, 0xffffffffa4001ff0)
	if str.String() != "ffffffff a4001ff0" {
		t.Errorf("FormatDouble got: %q", str.String())
	}
	str.Reset()
	FormatDouble(&str, false, 1)
	if str.String() != "0000000000000001" {
		t.Errorf("FormatDouble got: %q", str.String())
	}

	str.Reset()
	FormatBytes(&str, true, []byte{0x80, 0x37, 0x0a})
	if str.String() != "80 37 0a " {
		t.Errorf("FormatBytes got: %q", str.String())
	}

	str.Reset()
	FormatChars(&str, 0x4e36340a)
	if str.String() != "N64." {
		t.Errorf("FormatChars got: %q", str.String())
	}
}
