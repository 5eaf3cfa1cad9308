/*
   R4300 - Video frame pacing timer.

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

package timer

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rcornwell/R4300/emu/master"
)

// NTSC field rate.
const FrameInterval = 16683333 * time.Nanosecond

type Timer struct {
	wg       sync.WaitGroup
	running  bool // Indicate when frames should be sent.
	interval time.Duration
	master   chan master.Packet
	enable   chan bool     // Enable or disable timer.
	done     chan struct{} // Stop timer task.
	ticker   *time.Ticker  // Regular timer interval.
}

// Create frame timer sending at NTSC rate.
func NewTimer(masterChannel chan master.Packet) *Timer {
	return NewTimerInterval(masterChannel, FrameInterval)
}

// Create frame timer with given interval.
func NewTimerInterval(masterChannel chan master.Packet, interval time.Duration) *Timer {
	timer := &Timer{
		master:   masterChannel,
		interval: interval,
		enable:   make(chan bool, 1),
		done:     make(chan struct{}),
	}
	// Run ticker to deliver frame packets on master channel.
	timer.wg.Add(1)
	go timer.run()
	return timer
}

// Start sending frame packets.
func (timer *Timer) Start() {
	timer.enable <- true
}

// Stop sending frame packets.
func (timer *Timer) Stop() {
	timer.enable <- false
}

// Shutdown a running timer.
func (timer *Timer) Shutdown() {
	close(timer.done)
	done := make(chan struct{})
	go func() {
		timer.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(time.Second):
		slog.Warn("Timed out waiting for timer to finish.")
		return
	}
}

// Send a frame packet each interval while enabled. A tick is dropped
// when the core has not taken the last one.
func (timer *Timer) run() {
	defer timer.wg.Done()
	timer.ticker = time.NewTicker(timer.interval)
	defer timer.ticker.Stop()

	for {
		select {
		case <-timer.ticker.C:
			if !timer.running {
				continue
			}
			select {
			case timer.master <- master.Packet{Msg: master.Frame}:
			case <-timer.done:
				return
			default:
			}
		case timer.running = <-timer.enable:
			if timer.running {
				timer.ticker.Reset(timer.interval)
			}
		case <-timer.done:
			return
		}
	}
}
