/*
   R4300 - Emulator settings.

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

package sysconfig

import (
	"errors"
	"strconv"
	"strings"

	config "github.com/rcornwell/R4300/config/configparser"
	"github.com/rcornwell/R4300/emu/core"
)

// Settings collected from configuration file.
type Settings struct {
	MemoryK int    // RDRAM size in kilobytes.
	ROM     string // Cartridge image.
	Script  string // Lua script run after boot.
	LogFile string // Log file when not given on command line.
	Dynarec bool   // Fragment compiler enabled.
	Boot    bool   // Boot cartridge at startup.
	Paced   bool   // Hold to video frame rate.
}

var Config = Default()

// Settings before configuration.
func Default() Settings {
	return Settings{MemoryK: core.DefaultMemory, Dynarec: true}
}

func init() {
	config.RegisterOption("MEMORY", setMemory)
	config.RegisterOption("DYNAREC", setDynarec)
	config.RegisterFile("ROM", setROM)
	config.RegisterFile("SCRIPT", setScript)
	config.RegisterFile("LOGFILE", func(value string, _ []config.Option) error {
		Config.LogFile = value
		return nil
	})
	config.RegisterSwitch("BOOT", func(string, []config.Option) error {
		Config.Boot = true
		return nil
	})
	config.RegisterSwitch("PACED", func(string, []config.Option) error {
		Config.Paced = true
		return nil
	})
}

// Memory size, number of kilobytes or number followed by K or M.
func setMemory(value string, _ []config.Option) error {
	mult := 1
	switch {
	case strings.HasSuffix(strings.ToUpper(value), "M"):
		mult = 1024
		value = value[:len(value)-1]
	case strings.HasSuffix(strings.ToUpper(value), "K"):
		value = value[:len(value)-1]
	}
	size, err := strconv.Atoi(value)
	if err != nil {
		return errors.New("memory size not a number: " + value)
	}
	size *= mult
	if size < 1024 || size > 8*1024 || size%1024 != 0 {
		return errors.New("memory must be 1M to 8M in whole megabytes: " + value)
	}
	Config.MemoryK = size
	return nil
}

func setDynarec(value string, _ []config.Option) error {
	switch strings.ToUpper(value) {
	case "ON", "YES", "1":
		Config.Dynarec = true
	case "OFF", "NO", "0":
		Config.Dynarec = false
	default:
		return errors.New("dynarec must be on or off: " + value)
	}
	return nil
}

func setROM(value string, _ []config.Option) error {
	if Config.ROM != "" {
		return errors.New("only one cartridge allowed, previous: " + Config.ROM)
	}
	Config.ROM = value
	return nil
}

func setScript(value string, _ []config.Option) error {
	Config.Script = value
	return nil
}
