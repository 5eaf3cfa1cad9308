/*
   R4300 - Video frame pacing timer test.

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
	"sync/atomic"
	"testing"
	"time"

	"github.com/rcornwell/R4300/emu/master"
)

type timerTest struct {
	master  chan master.Packet
	done    chan struct{} // Stop routine.
	counter atomic.Int32
	bad     atomic.Int32
}

// Receive frame packets.
func (test *timerTest) runTimer() {
	for {
		select {
		case v := <-test.master:
			if v.Msg != master.Frame {
				test.bad.Add(1)
			}
			test.counter.Add(1)
		case <-test.done:
			return
		}
	}
}

func TestTimer(t *testing.T) {
	test := &timerTest{
		master: make(chan master.Packet),
		done:   make(chan struct{}),
	}
	timer := NewTimerInterval(test.master, 10*time.Millisecond)
	defer timer.Shutdown()
	defer close(test.done)

	go test.runTimer()

	// Run for 1/2 second, about 50 frames.
	timer.Start()
	time.Sleep(500 * time.Millisecond)
	timer.Stop()
	n := test.counter.Load()
	if n < 40 || n > 52 {
		t.Errorf("Expected 50 frames got: %d", n)
	}
	if test.bad.Load() != 0 {
		t.Errorf("Did not receive frame message")
	}

	// Stopped timer sends nothing.
	time.Sleep(20 * time.Millisecond)
	test.counter.Store(0)
	time.Sleep(200 * time.Millisecond)
	if n := test.counter.Load(); n != 0 {
		t.Errorf("Expected 0 frames got: %d", n)
	}

	// Restart.
	timer.Start()
	time.Sleep(200 * time.Millisecond)
	timer.Stop()
	if n := test.counter.Load(); n < 14 || n > 21 {
		t.Errorf("Expected 20 frames got: %d", n)
	}
}

func TestTimerDrop(t *testing.T) {
	ch := make(chan master.Packet)
	timer := NewTimerInterval(ch, 5*time.Millisecond)
	timer.Start()
	// Nobody listening, ticks are dropped and shutdown still works.
	time.Sleep(30 * time.Millisecond)
	finished := make(chan struct{})
	go func() {
		timer.Shutdown()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Errorf("Shutdown blocked")
	}
}
