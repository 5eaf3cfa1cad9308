/*
   R4300 - Console commands.

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
	"log/slog"
	"strings"

	"github.com/k0kubun/pp/v3"

	core "github.com/rcornwell/R4300/emu/core"
	"github.com/rcornwell/R4300/emu/cpu"
	disassembler "github.com/rcornwell/R4300/emu/disassemble"
	"github.com/rcornwell/R4300/emu/fragment"
	"github.com/rcornwell/R4300/emu/master"
	"github.com/rcornwell/R4300/util/hex"
)

var cmdList = []cmd{
	{Name: "quit", Min: 4, Process: quit},
	{Name: "stop", Min: 3, Process: stop},
	{Name: "continue", Min: 1, Process: cont},
	{Name: "start", Min: 3, Process: start},
	{Name: "step", Min: 3, Process: step},
	{Name: "reset", Min: 5, Process: reset},
	{Name: "boot", Min: 2, Process: boot},
	{Name: "load", Min: 2, Process: load},
	{Name: "show", Min: 2, Process: show, Complete: showComplete},
	{Name: "examine", Min: 2, Process: examine},
	{Name: "deposit", Min: 2, Process: deposit},
	{Name: "break", Min: 2, Process: breakpoint},
	{Name: "dynarec", Min: 2, Process: dynarec, Complete: onOffComplete},
	{Name: "script", Min: 2, Process: script},
}

// Handle commands that quit simulation.
func quit(_ *cmdLine, _ *core.Core) (bool, error) {
	slog.Debug("Command Quit")
	return true, nil
}

// Stop the CPU.
func stop(_ *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Stop")
	core.SendStop()
	return false, nil
}

// Continue CPU from where it left off.
func cont(_ *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Continue")
	return false, core.Request(master.Packet{Msg: master.Start}).Err
}

// Start the CPU, optionally at a new address.
func start(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Start")
	if !line.atEnd() {
		pc, err := line.getHex("")
		if err != nil {
			return false, err
		}
		r := core.Request(master.Packet{Msg: master.Register, Addr: regPC, Data: pc})
		if r.Err != nil {
			return false, r.Err
		}
	}
	return false, core.Request(master.Packet{Msg: master.Start}).Err
}

// Execute one or more instructions and show the next one.
func step(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Step")
	count := uint32(1)
	if !line.atEnd() {
		n, err := line.getNumber()
		if err != nil {
			return false, err
		}
		count = max(n, 1)
	}
	var r master.Reply
	for range count {
		r = core.Request(master.Packet{Msg: master.Step})
		if r.Err != nil {
			fmt.Fprintln(out, "Stopped: "+r.Err.Error())
			break
		}
	}
	printInst(core, r.Data)
	return false, nil
}

// Print instruction at pc.
func printInst(core *core.Core, pc uint32) {
	r := core.Request(master.Packet{Msg: master.Examine, Addr: pc})
	if r.Err != nil {
		fmt.Fprintf(out, "%08x  %s\n", pc, r.Err.Error())
		return
	}
	fmt.Fprintln(out, disassembler.PrintInst(r.Data, pc))
}

// Power on reset.
func reset(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Reset")
	if !line.atEnd() {
		return false, errors.New("reset takes no arguments")
	}
	return false, core.Request(master.Packet{Msg: master.Reset}).Err
}

// Reset and run cartridge boot code.
func boot(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Boot")
	if !line.atEnd() {
		return false, errors.New("boot takes no arguments")
	}
	r := core.Request(master.Packet{Msg: master.Boot})
	if r.Err != nil {
		return false, r.Err
	}
	return false, core.Request(master.Packet{Msg: master.Start}).Err
}

// Load cartridge image.
func load(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Load")
	name, ok := line.parseQuoteString()
	if !ok || name == "" || !line.atEnd() {
		return false, errors.New("load requires one file name")
	}
	return false, core.Request(master.Packet{Msg: master.Load, Name: name}).Err
}

// Run Lua script.
func script(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Script")
	name, ok := line.parseQuoteString()
	if !ok || name == "" || !line.atEnd() {
		return false, errors.New("script requires one file name")
	}
	return false, core.Request(master.Packet{Msg: master.Script, Name: name}).Err
}

// Toggle breakpoint.
func breakpoint(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Break")
	addr, err := line.getHex("")
	if err != nil {
		return false, err
	}
	if !line.atEnd() {
		return false, errors.New("break takes one address")
	}
	if _, err := examineWord(core, addr); err != nil {
		return false, err
	}
	r := core.Request(master.Packet{Msg: master.Breakpoint, Addr: addr})
	if r.Data != 0 {
		fmt.Fprintf(out, "Breakpoint set at %08x\n", addr)
	} else {
		fmt.Fprintf(out, "Breakpoint cleared at %08x\n", addr)
	}
	return false, nil
}

// Turn fragment compiler on or off.
func dynarec(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Dynarec")
	var on uint32
	switch line.getWord() {
	case "on":
		on = 1
	case "off":
	default:
		return false, errors.New("dynarec must be on or off")
	}
	if !line.atEnd() {
		return false, errors.New("dynarec must be on or off")
	}
	core.Request(master.Packet{Msg: master.Dynarec, Data: on})
	return false, nil
}

func onOffComplete(line *cmdLine) []string {
	return line.matchWords([]string{"on", "off"})
}

var showList = map[string]func(*core.Core) error{
	"registers":   showRegisters,
	"cp0":         showCP0,
	"fpu":         showFPU,
	"fragments":   showFragments,
	"breakpoints": showBreakpoints,
	"state":       showState,
}

var showNames = []string{"breakpoints", "cp0", "fpu", "fragments", "registers", "state"}

// Process the show command.
func show(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Show")
	name := line.getWord()
	if name == "" || !line.atEnd() {
		return false, errors.New("show requires one of: " + strings.Join(showNames, " "))
	}
	var match []string
	for _, n := range showNames {
		if strings.HasPrefix(n, name) {
			match = append(match, n)
		}
	}
	if len(match) != 1 {
		return false, errors.New("show option not unique or unknown: " + name)
	}
	return false, showList[match[0]](core)
}

func showComplete(line *cmdLine) []string {
	return line.matchWords(showNames)
}

// Fetch register snapshot.
func getState(core *core.Core) (cpu.State, uint32, error) {
	r := core.Request(master.Packet{Msg: master.Status})
	s, ok := r.Value.(cpu.State)
	if !ok {
		return cpu.State{}, 0, errors.New("no processor state")
	}
	return s, r.Data, r.Err
}

func showRegisters(core *core.Core) error {
	s, count, reason := getState(core)
	var str strings.Builder
	for i, v := range s.GPR {
		fmt.Fprintf(&str, "%-4s ", disassembler.RegName(i))
		hex.FormatDouble(&str, false, v)
		if i%4 == 3 {
			str.WriteByte('\n')
		} else {
			str.WriteString("  ")
		}
	}
	str.WriteString("hi   ")
	hex.FormatDouble(&str, false, s.Hi)
	str.WriteString("  lo   ")
	hex.FormatDouble(&str, false, s.Lo)
	fmt.Fprintf(&str, "\npc   %08x  next %08x  count %08x", s.PC, s.NextPC, count)
	if s.Delay {
		str.WriteString("  delay")
	}
	if s.Halted && reason != nil {
		str.WriteString("  stopped: " + reason.Error())
	}
	fmt.Fprintln(out, str.String())
	return nil
}

func showCP0(core *core.Core) error {
	s, _, _ := getState(core)
	var str strings.Builder
	n := 0
	for i, v := range s.CP0 {
		name := disassembler.C0RegName(i)
		if name[0] == '$' {
			continue
		}
		fmt.Fprintf(&str, "%-9s ", name)
		hex.FormatDouble(&str, true, v)
		n++
		if n%3 == 0 {
			str.WriteByte('\n')
		} else {
			str.WriteString("  ")
		}
	}
	fmt.Fprintln(out, strings.TrimRight(str.String(), " \n"))
	return nil
}

func showFPU(core *core.Core) error {
	s, _, _ := getState(core)
	var str strings.Builder
	for i, v := range s.FPR {
		fmt.Fprintf(&str, "f%-3d ", i)
		hex.FormatDouble(&str, false, v)
		if i%4 == 3 {
			str.WriteByte('\n')
		} else {
			str.WriteString("  ")
		}
	}
	fmt.Fprintf(&str, "fcr31 %08x", s.FCR31)
	fmt.Fprintln(out, str.String())
	return nil
}

func showFragments(core *core.Core) error {
	r := core.Request(master.Packet{Msg: master.Stats})
	stats, ok := r.Value.(fragment.Stats)
	if !ok {
		return errors.New("no fragment statistics")
	}
	_, err := pp.Fprintln(out, stats)
	return err
}

func showBreakpoints(core *core.Core) error {
	r := core.Request(master.Packet{Msg: master.Breaks})
	list, _ := r.Value.([]uint32)
	if len(list) == 0 {
		fmt.Fprintln(out, "No breakpoints")
		return nil
	}
	for _, addr := range list {
		fmt.Fprintf(out, "%08x\n", addr)
	}
	return nil
}

func showState(core *core.Core) error {
	s, _, _ := getState(core)
	_, err := pp.Fprintln(out, s)
	return err
}
