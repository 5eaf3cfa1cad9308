/*
   R4300 - Event scheduler.

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

/*
   Events are held in a list ordered by when they fire. Each entry holds
   the number of cycles after the previous entry fires, so only the head
   needs to be counted down as instructions retire.
*/

// Kind of event.
type Type int

const (
	VBlank    Type = iota // Vertical blank, end of frame.
	Compare               // Count reached Compare.
	RunBudget             // Run call has used its cycles.
)

var typeName = map[Type]string{
	VBlank:    "vblank",
	Compare:   "compare",
	RunBudget: "budget",
}

func (t Type) String() string {
	if n, ok := typeName[t]; ok {
		return n
	}
	return "unknown"
}

// Called when an event fires.
type Callback = func(kind Type)

type Event struct {
	time int  // Number of cycles after previous event
	kind Type // What to do when it fires
	prev *Event
	next *Event
}

type List struct {
	head *Event
	tail *Event
	cb   Callback
}

// Create event list that reports fired events to cb.
func New(cb Callback) *List {
	return &List{cb: cb}
}

// Drop all pending events.
func (el *List) Reset() {
	el.head = nil
	el.tail = nil
}

// Add an event to fire after time cycles.
func (el *List) Add(kind Type, time int) {
	// If time is 0 process event immediately
	if time <= 0 {
		el.cb(kind)
		return
	}

	ev := &Event{kind: kind, time: time}

	evptr := el.head
	// If empty put on head
	if evptr == nil {
		el.head = ev
		el.tail = ev
		return
	}

	// Scan for place to install it
	for evptr != nil {
		// Event before next event
		if ev.time <= evptr.time {
			// Remove current time from next time
			evptr.time -= ev.time
			ev.prev = evptr.prev
			ev.next = evptr
			evptr.prev = ev
			if ev.prev != nil {
				ev.prev.next = ev
			} else {
				el.head = ev
			}
			return
		}
		// Make new event relative to head of list
		ev.time -= evptr.time
		evptr = evptr.next
	}

	// Get here, put it on tail of list
	ev.prev = el.tail
	el.tail.next = ev
	el.tail = ev
}

// Remove first event of kind, return cycles it had left before firing.
func (el *List) Remove(kind Type) (int, bool) {
	remain := 0
	for evptr := el.head; evptr != nil; evptr = evptr.next {
		remain += evptr.time
		if evptr.kind != kind {
			continue
		}
		nxt := evptr.next
		// If next event give time to next event
		if nxt != nil {
			nxt.time += evptr.time
			nxt.prev = evptr.prev
		} else {
			el.tail = evptr.prev
		}

		// Point previous event next to next
		if evptr.prev != nil {
			evptr.prev.next = nxt
		} else {
			el.head = nxt
		}
		return remain, true
	}
	return 0, false
}

// Return cycles until event of kind fires.
func (el *List) Pending(kind Type) (int, bool) {
	remain := 0
	for evptr := el.head; evptr != nil; evptr = evptr.next {
		remain += evptr.time
		if evptr.kind == kind {
			return remain, true
		}
	}
	return 0, false
}

// Return cycles until next event, false if none.
func (el *List) Head() (int, bool) {
	if el.head == nil {
		return 0, false
	}
	return el.head.time, true
}

// Return true if any event pending.
func (el *List) AnyEvent() bool {
	return el.head != nil
}

// Advance time by t cycles, firing every event that comes due.
func (el *List) Advance(t int) {
	evptr := el.head
	if evptr == nil {
		return
	}
	evptr.time -= t
	for evptr != nil && evptr.time <= 0 {
		// Unlink before callback so it may schedule new events.
		over := evptr.time
		el.head = evptr.next
		if el.head != nil {
			el.head.prev = nil
			// Carry any overshoot to the next event.
			el.head.time += over
		} else {
			el.tail = nil
		}
		el.cb(evptr.kind)
		evptr = el.head
	}
}
