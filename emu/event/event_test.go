/*
   R4300 - Event system test cases.

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

package event

import (
	"testing"
)

type recorder struct {
	step  int
	fired map[Type]int // step each kind last fired at
	count map[Type]int // number of times each kind fired
	list  *List
	on    func(r *recorder, kind Type)
}

func newRecorder() *recorder {
	r := &recorder{fired: map[Type]int{}, count: map[Type]int{}}
	r.list = New(func(kind Type) {
		r.fired[kind] = r.step
		r.count[kind]++
		if r.on != nil {
			r.on(r, kind)
		}
	})
	return r
}

// Advance one cycle at a time for n cycles.
func (r *recorder) run(n int) {
	for range n {
		r.step++
		r.list.Advance(1)
	}
}

func TestAddEvent1(t *testing.T) {
	r := newRecorder()
	r.list.Add(VBlank, 10)
	r.run(20)
	if r.fired[VBlank] != 10 {
		t.Errorf("Event did not fire at correct time %d got %d", 10, r.fired[VBlank])
	}
	if r.count[VBlank] != 1 {
		t.Errorf("Event fired wrong number of times %d got %d", 1, r.count[VBlank])
	}
	if r.list.AnyEvent() {
		t.Errorf("Event list not empty after all events fired")
	}
}

// Add two events.
func TestAddEvent2(t *testing.T) {
	r := newRecorder()
	r.list.Add(VBlank, 10)
	r.list.Add(Compare, 5)
	r.run(20)
	if r.fired[VBlank] != 10 {
		t.Errorf("Event A did not fire at correct time %d got %d", 10, r.fired[VBlank])
	}
	if r.fired[Compare] != 5 {
		t.Errorf("Event B did not fire at correct time %d got %d", 5, r.fired[Compare])
	}
}

// Add event With same time.
func TestAddEvent3(t *testing.T) {
	r := newRecorder()
	order := []Type{}
	r.on = func(_ *recorder, kind Type) {
		order = append(order, kind)
	}
	r.list.Add(VBlank, 10)
	r.list.Add(Compare, 10)
	r.run(20)
	if r.fired[VBlank] != 10 {
		t.Errorf("Event A did not fire at correct time %d got %d", 10, r.fired[VBlank])
	}
	if r.fired[Compare] != 10 {
		t.Errorf("Event B did not fire at correct time %d got %d", 10, r.fired[Compare])
	}
	// Same time events go in before the existing one.
	if len(order) != 2 || order[0] != Compare || order[1] != VBlank {
		t.Errorf("Events fired in wrong order got %v", order)
	}
}

// Add event during event.
func TestAddEvent4(t *testing.T) {
	r := newRecorder()
	r.on = func(r *recorder, kind Type) {
		if kind == Compare {
			r.list.Add(RunBudget, 10)
		}
	}
	r.list.Add(VBlank, 20)
	r.list.Add(Compare, 10)
	r.run(30)
	if r.fired[VBlank] != 20 {
		t.Errorf("Event A did not fire at correct time %d got %d", 20, r.fired[VBlank])
	}
	if r.fired[Compare] != 10 {
		t.Errorf("Event C did not fire at correct time %d got %d", 10, r.fired[Compare])
	}
	if r.fired[RunBudget] != 20 {
		t.Errorf("Event B did not fire at correct time %d got %d", 20, r.fired[RunBudget])
	}
}

// Event that reschedules itself.
func TestAddEventPeriodic(t *testing.T) {
	r := newRecorder()
	r.on = func(r *recorder, kind Type) {
		if kind == VBlank {
			r.list.Add(VBlank, 7)
		}
	}
	r.list.Add(VBlank, 7)
	r.run(70)
	if r.count[VBlank] != 10 {
		t.Errorf("Periodic event count not correct %d got %d", 10, r.count[VBlank])
	}
	if r.fired[VBlank] != 70 {
		t.Errorf("Periodic event last time not correct %d got %d", 70, r.fired[VBlank])
	}
}

// Ordering does not depend on insertion order.
func TestInsertOrder(t *testing.T) {
	for _, first := range []Type{Compare, RunBudget} {
		r := newRecorder()
		if first == Compare {
			r.list.Add(Compare, 100)
			r.list.Add(RunBudget, 50)
		} else {
			r.list.Add(RunBudget, 50)
			r.list.Add(Compare, 100)
		}
		r.run(150)
		if r.fired[RunBudget] != 50 {
			t.Errorf("Budget did not fire at correct time %d got %d", 50, r.fired[RunBudget])
		}
		if r.fired[Compare] != 100 {
			t.Errorf("Compare did not fire at correct time %d got %d", 100, r.fired[Compare])
		}
	}
}

// Cancel an event.
func TestRemoveEvent1(t *testing.T) {
	r := newRecorder()
	r.list.Add(VBlank, 10)
	r.list.Add(Compare, 20)
	r.run(5)
	remain, ok := r.list.Remove(Compare)
	if !ok {
		t.Errorf("Remove did not find event")
	}
	if remain != 15 {
		t.Errorf("Remove remaining time not correct %d got %d", 15, remain)
	}
	r.run(30)
	if r.fired[VBlank] != 10 {
		t.Errorf("Event A did not fire at correct time %d got %d", 10, r.fired[VBlank])
	}
	if r.count[Compare] != 0 {
		t.Errorf("Cancelled event fired")
	}
}

// Cancel middle event, follower keeps its absolute time.
func TestRemoveEvent2(t *testing.T) {
	r := newRecorder()
	r.list.Add(VBlank, 10)
	r.list.Add(Compare, 20)
	r.list.Add(RunBudget, 30)
	if _, ok := r.list.Remove(Compare); !ok {
		t.Errorf("Remove did not find event")
	}
	if n, _ := r.list.Pending(RunBudget); n != 30 {
		t.Errorf("Follower pending time not correct %d got %d", 30, n)
	}
	r.run(40)
	if r.fired[VBlank] != 10 {
		t.Errorf("Event A did not fire at correct time %d got %d", 10, r.fired[VBlank])
	}
	if r.fired[RunBudget] != 30 {
		t.Errorf("Event D did not fire at correct time %d got %d", 30, r.fired[RunBudget])
	}
	if r.count[Compare] != 0 {
		t.Errorf("Cancelled event fired")
	}
}

// Cancel head and tail.
func TestRemoveEvent3(t *testing.T) {
	r := newRecorder()
	r.list.Add(VBlank, 10)
	r.list.Add(Compare, 20)
	r.list.Add(RunBudget, 30)
	r.list.Remove(VBlank)
	r.list.Remove(RunBudget)
	if h, ok := r.list.Head(); !ok || h != 20 {
		t.Errorf("Head not correct %d got %d", 20, h)
	}
	if _, ok := r.list.Remove(RunBudget); ok {
		t.Errorf("Remove found event twice")
	}
	r.run(40)
	if r.fired[Compare] != 20 {
		t.Errorf("Event did not fire at correct time %d got %d", 20, r.fired[Compare])
	}
	if r.count[VBlank] != 0 || r.count[RunBudget] != 0 {
		t.Errorf("Cancelled event fired")
	}
}

// Test event at zero units.
func TestAddEventZero(t *testing.T) {
	r := newRecorder()
	r.list.Add(Compare, 0)
	if r.count[Compare] != 1 {
		t.Errorf("Zero time event did not fire")
	}
	if r.list.AnyEvent() {
		t.Errorf("Zero time event left on list")
	}
}

// Bulk advance fires every due event and carries the overshoot.
func TestAdvanceBulk(t *testing.T) {
	r := newRecorder()
	r.list.Add(VBlank, 10)
	r.list.Add(Compare, 12)
	r.list.Add(RunBudget, 40)
	r.list.Advance(15)
	if r.count[VBlank] != 1 || r.count[Compare] != 1 {
		t.Errorf("Bulk advance did not fire due events")
	}
	if h, _ := r.list.Head(); h != 25 {
		t.Errorf("Head after overshoot not correct %d got %d", 25, h)
	}
}

func TestReset(t *testing.T) {
	r := newRecorder()
	r.list.Add(VBlank, 10)
	r.list.Add(Compare, 20)
	r.list.Reset()
	if r.list.AnyEvent() {
		t.Errorf("Reset did not clear list")
	}
	r.run(30)
	if len(r.count) != 0 {
		t.Errorf("Event fired after reset")
	}
	if VBlank.String() != "vblank" || Type(99).String() != "unknown" {
		t.Errorf("Type names not correct")
	}
}
