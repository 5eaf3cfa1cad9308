/*
   R4300 - Debug option configuration.

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

package debugconfig

import (
	"errors"
	"strings"

	config "github.com/rcornwell/R4300/config/configparser"
	"github.com/rcornwell/R4300/emu/bus"
	"github.com/rcornwell/R4300/emu/cpu"
	"github.com/rcornwell/R4300/emu/fragment"
)

// register debug setting on initialize.
func init() {
	config.RegisterOptions("DEBUG", setDebug)
}

var modules = map[string]func(string) error{
	"CPU":  cpu.Debug,
	"BUS":  bus.Debug,
	"FRAG": fragment.Debug,
}

// Enable debug options for module, debug <module> <opt>[,<opt>...].
func setDebug(module string, options []config.Option) error {
	debug, ok := modules[strings.ToUpper(module)]
	if !ok {
		return errors.New("debug option invalid: " + module)
	}
	if len(options) == 0 {
		return errors.New("debug " + module + " requires options")
	}
	for _, opt := range options {
		err := debug(strings.ToUpper(opt.Name))
		if err != nil {
			return err
		}
		for _, value := range opt.Value {
			err = debug(strings.ToUpper(*value))
			if err != nil {
				return err
			}
		}
	}
	return nil
}
