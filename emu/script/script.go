/*
   R4300 - Lua scripting of emulator.

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

package script

import (
	"fmt"
	"log/slog"

	lua "github.com/yuin/gopher-lua"

	"github.com/rcornwell/R4300/emu/cpu"
)

/*
   Scripts see a global table "emu" with:

     emu.reset()              power on reset
     emu.boot()               reset and start cartridge boot code
     emu.run(n)               run n instructions, returns number run
     emu.step()               run one instruction
     emu.halt()               stop at next instruction
     emu.count()              Count register
     emu.pc()                 program counter
     emu.reg(n)               low 32 bits of general register n
     emu.setreg(n, v)         set general register n, sign extended
     emu.read(addr)           word at virtual address, or nil, error
     emu.write(addr, v)       store word at virtual address
     emu.breakpoint(addr)     toggle breakpoint, true when set
     emu.halted()             true when stopped
     emu.error()              reason stopped, or nil
     emu.dynarec(on)          enable or disable fragment compiler
     emu.log(msg)             write message to log
*/

// Operations scripts can perform.
type Host interface {
	Reset()
	Boot() error
	Run(cycles int) int
	SingleStep()
	Halt()
	Count() uint32
	ToggleBreakpoint(vaddr uint32) bool
	Read32(vaddr uint32) (uint32, error)
	Write32(vaddr, data uint32) error
	Err() error
	State() cpu.State
	SetDynarec(on bool)
	SetReg(r int, v uint64)
}

type binding struct {
	host Host
}

// Create interpreter with emu table bound to host.
func New(host Host) *lua.LState {
	L := lua.NewState()
	b := &binding{host: host}
	tbl := L.NewTable()
	L.SetFuncs(tbl, map[string]lua.LGFunction{
		"reset":      b.reset,
		"boot":       b.boot,
		"run":        b.run,
		"step":       b.step,
		"halt":       b.halt,
		"count":      b.count,
		"pc":         b.pc,
		"reg":        b.reg,
		"setreg":     b.setReg,
		"read":       b.read,
		"write":      b.write,
		"breakpoint": b.breakpoint,
		"halted":     b.halted,
		"error":      b.error,
		"dynarec":    b.dynarec,
		"log":        b.log,
	})
	L.SetGlobal("emu", tbl)
	return L
}

// Run script file against host.
func RunFile(name string, host Host) error {
	L := New(host)
	defer L.Close()
	slog.Info("Running script", "file", name)
	if err := L.DoFile(name); err != nil {
		return fmt.Errorf("script %s: %w", name, err)
	}
	return nil
}

// Run script text against host.
func RunString(text string, host Host) error {
	L := New(host)
	defer L.Close()
	return L.DoString(text)
}

func checkAddr(L *lua.LState, n int) uint32 {
	return uint32(int64(L.CheckNumber(n)))
}

func (b *binding) reset(_ *lua.LState) int {
	b.host.Reset()
	return 0
}

func (b *binding) boot(L *lua.LState) int {
	if err := b.host.Boot(); err != nil {
		L.RaiseError("boot: %v", err)
	}
	return 0
}

func (b *binding) run(L *lua.LState) int {
	n := b.host.Run(L.CheckInt(1))
	L.Push(lua.LNumber(n))
	return 1
}

func (b *binding) step(_ *lua.LState) int {
	b.host.SingleStep()
	return 0
}

func (b *binding) halt(_ *lua.LState) int {
	b.host.Halt()
	return 0
}

func (b *binding) count(L *lua.LState) int {
	L.Push(lua.LNumber(b.host.Count()))
	return 1
}

func (b *binding) pc(L *lua.LState) int {
	L.Push(lua.LNumber(b.host.State().PC))
	return 1
}

func (b *binding) reg(L *lua.LState) int {
	r := L.CheckInt(1)
	if r < 0 || r > 31 {
		L.ArgError(1, "register must be 0 to 31")
		return 0
	}
	L.Push(lua.LNumber(uint32(b.host.State().GPR[r])))
	return 1
}

func (b *binding) setReg(L *lua.LState) int {
	r := L.CheckInt(1)
	if r < 0 || r > 31 {
		L.ArgError(1, "register must be 0 to 31")
		return 0
	}
	v := int64(L.CheckNumber(2))
	b.host.SetReg(r, uint64(int64(int32(v))))
	return 0
}

func (b *binding) read(L *lua.LState) int {
	v, err := b.host.Read32(checkAddr(L, 1))
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (b *binding) write(L *lua.LState) int {
	addr := checkAddr(L, 1)
	v := uint32(int64(L.CheckNumber(2)))
	if err := b.host.Write32(addr, v); err != nil {
		L.RaiseError("write %08x: %v", addr, err)
	}
	return 0
}

func (b *binding) breakpoint(L *lua.LState) int {
	L.Push(lua.LBool(b.host.ToggleBreakpoint(checkAddr(L, 1))))
	return 1
}

func (b *binding) halted(L *lua.LState) int {
	L.Push(lua.LBool(b.host.State().Halted))
	return 1
}

func (b *binding) error(L *lua.LState) int {
	if err := b.host.Err(); err != nil {
		L.Push(lua.LString(err.Error()))
	} else {
		L.Push(lua.LNil)
	}
	return 1
}

func (b *binding) dynarec(L *lua.LState) int {
	b.host.SetDynarec(L.CheckBool(1))
	return 0
}

func (b *binding) log(L *lua.LState) int {
	slog.Info(L.CheckString(1), "source", "script")
	return 0
}
