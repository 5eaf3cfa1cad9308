/*
   R4300 - Core emulator loop.

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

package core

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rcornwell/R4300/emu/cpu"
	"github.com/rcornwell/R4300/emu/master"
	"github.com/rcornwell/R4300/emu/script"
)

// Instructions run between checks for packets.
const SliceCycles = 10000

type Core struct {
	wg        sync.WaitGroup
	done      chan struct{} // Signal to shutdown simulator.
	running   bool          // Indicate when simulator should run or not.
	paced     bool          // Wait for frame tick after each vertical blank.
	waitFrame bool          // Vertical blank seen, waiting for tick.
	Master    chan master.Packet
	Emu       *Emulator
	Stopped   chan error // Told when CPU stops by itself.
}

// Create core running emu.
func NewCore(emu *Emulator, masterChannel chan master.Packet) *Core {
	return &Core{
		Master:  masterChannel,
		Emu:     emu,
		done:    make(chan struct{}),
		Stopped: make(chan error, 1),
	}
}

// Wait for frame ticks between vertical blanks.
func (core *Core) SetPaced(on bool) {
	core.paced = on
}

// Run CPU and serve packets until stopped.
func (core *Core) Start() {
	core.wg.Add(1)
	defer core.wg.Done()
	for {
		if core.running && !core.waitFrame {
			n := core.Emu.Run(SliceCycles)
			if core.Emu.CPU.Halted() {
				core.running = false
				core.stopped(core.Emu.Err())
			} else if core.paced && n < SliceCycles {
				core.waitFrame = true
			}
			select {
			case <-core.done:
				return
			case packet := <-core.Master:
				core.processPacket(packet)
			default:
			}
			continue
		}
		// Idle, block until something arrives.
		select {
		case <-core.done:
			return
		case packet := <-core.Master:
			core.processPacket(packet)
		}
	}
}

// Report CPU stopping by itself.
func (core *Core) stopped(err error) {
	var fatal *cpu.FatalError
	switch {
	case errors.As(err, &fatal):
		slog.Error("CPU stopped", "error", err.Error())
	case err != nil:
		slog.Info("CPU stopped", "reason", err.Error(), "pc", core.Emu.CPU.PC)
	}
	select {
	case core.Stopped <- err:
	default:
	}
}

// Stop a running server.
func (core *Core) Stop() {
	slog.Info("Shutting down CPU")
	close(core.done)
	done := make(chan struct{})
	go func() {
		core.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(time.Second):
		slog.Warn("Timed out waiting for CPU to finish.")
		return
	}
}

// Start CPU.
func (core *Core) SendStart() {
	core.Master <- master.Packet{Msg: master.Start}
}

// Stop CPU.
func (core *Core) SendStop() {
	core.Master <- master.Packet{Msg: master.Stop}
}

// Send packet and wait for answer.
func (core *Core) Request(packet master.Packet) master.Reply {
	packet.Reply = make(chan master.Reply, 1)
	core.Master <- packet
	return <-packet.Reply
}

// Process a packet sent to system simulation.
func (core *Core) processPacket(packet master.Packet) {
	var reply master.Reply
	emu := core.Emu
	switch packet.Msg {
	case master.Start:
		if emu.CPU.Resume() {
			core.running = true
		} else {
			reply.Err = emu.Err()
		}
	case master.Stop:
		core.running = false
		core.waitFrame = false
	case master.Step:
		core.running = false
		emu.SingleStep()
		reply.Data = emu.CPU.PC
		reply.Err = emu.Err()
	case master.Reset:
		core.running = false
		core.waitFrame = false
		emu.Reset()
	case master.Frame:
		core.waitFrame = false
	case master.Breakpoint:
		if emu.ToggleBreakpoint(packet.Addr) {
			reply.Data = 1
		}
	case master.Examine:
		reply.Data, reply.Err = emu.Read32(packet.Addr)
	case master.Deposit:
		reply.Err = emu.Write32(packet.Addr, packet.Data)
	case master.Status:
		reply.Value = emu.State()
		reply.Data = emu.Count()
		reply.Err = emu.Err()
	case master.Dynarec:
		emu.SetDynarec(packet.Data != 0)
	case master.Script:
		core.running = false
		reply.Err = script.RunFile(packet.Name, emu)
	case master.Boot:
		core.running = false
		core.waitFrame = false
		reply.Err = emu.Boot()
	case master.Load:
		core.running = false
		reply.Err = emu.LoadROM(packet.Name)
	case master.Register:
		reply.Err = emu.SetRegister(int(packet.Addr), packet.Data)
	case master.Stats:
		reply.Value = emu.CPU.Fragments().Stats()
	case master.Breaks:
		reply.Value = emu.Breakpoints()
	default:
		slog.Warn("Unknown packet", "msg", packet.Msg.String())
	}
	if packet.Reply != nil {
		packet.Reply <- reply
	}
}
