/*
   R4300 - Cartridge image.

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

package bus

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// First word of an image in each byte order.
const (
	magicBigEndian  = 0x80371240 // .z64
	magicByteSwap   = 0x37804012 // .v64
	magicLittleWord = 0x40123780 // .n64
)

var ErrBadImage = errors.New("not a cartridge image")

// Load cartridge image from file.
func (b *Bus) LoadROMFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := b.LoadROM(data); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	slog.Info("Loaded cartridge", "file", name, "size", len(data), "title", b.ROMTitle())
	return nil
}

// Load cartridge image, converting it to big endian.
func (b *Bus) LoadROM(data []byte) error {
	if len(data) < 0x1000 {
		return fmt.Errorf("image too short %d bytes: %w", len(data), ErrBadImage)
	}
	rom := make([]byte, (len(data)+3)&^3)
	copy(rom, data)
	magic := uint32(rom[0])<<24 | uint32(rom[1])<<16 | uint32(rom[2])<<8 | uint32(rom[3])
	switch magic {
	case magicBigEndian:
	case magicByteSwap:
		for i := 0; i < len(rom); i += 2 {
			rom[i], rom[i+1] = rom[i+1], rom[i]
		}
	case magicLittleWord:
		for i := 0; i < len(rom); i += 4 {
			rom[i], rom[i+1], rom[i+2], rom[i+3] = rom[i+3], rom[i+2], rom[i+1], rom[i]
		}
	default:
		return fmt.Errorf("unknown header %08x: %w", magic, ErrBadImage)
	}
	b.ROM = rom
	return nil
}

// Return game title from image header.
func (b *Bus) ROMTitle() string {
	if len(b.ROM) < 0x34 {
		return ""
	}
	title := b.ROM[0x20:0x34]
	end := len(title)
	for end > 0 && (title[end-1] == ' ' || title[end-1] == 0) {
		end--
	}
	return string(title[:end])
}

// Word from cartridge, reads past end return zero.
func (b *Bus) readROM(off uint32) uint32 {
	off &^= 3
	if int(off)+4 > len(b.ROM) {
		return 0
	}
	r := b.ROM[off : off+4]
	return uint32(r[0])<<24 | uint32(r[1])<<16 | uint32(r[2])<<8 | uint32(r[3])
}

// Copy boot code from image header into SP DMEM.
func (b *Bus) CopyBootCode() {
	for i := uint32(0); i < spMemSize; i += 4 {
		b.DMEM.SetMemory(i, b.readROM(i))
	}
}
