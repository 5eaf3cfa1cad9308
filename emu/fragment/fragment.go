/*
   R4300 - Fragment cache.

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

package fragment

import (
	"cmp"
	"errors"

	interval "github.com/rdleal/intervalst/interval"

	"github.com/rcornwell/R4300/util/debug"
)

/*
   A fragment is a straight line trace of instructions starting at an
   entry PC. Entry points are counted as they are interpreted, once an
   entry has been seen HotThreshold times a fragment is started and the
   following interpreted instructions are recorded into it. When the trace
   ends it is compiled into a list of closures which the CPU runs in place
   of the interpreter on later visits.

   Fragments are indexed by the physical range they cover so that any
   write into that range can throw the compiled code away.
*/

const (
	HotThreshold = 500 // Visits before a fragment is started.
	MaxOps       = 250 // Longest trace.
	MinOps       = 8   // Trace must be longer than this to end on a branch.
)

const (
	// Debug options.
	debugBuild = 1 << iota
	debugInval
	debugLink
)

var debugOption = map[string]int{
	"BUILD": debugBuild,
	"INVAL": debugInval,
	"LINK":  debugLink,
}

var debugMsk int

// Enable debug options.
func Debug(opt string) error {
	flag, ok := debugOption[opt]
	if !ok {
		return errors.New("fragment debug option invalid: " + opt)
	}
	debugMsk |= flag
	return nil
}

// One recorded instruction.
type Op struct {
	PC   uint32 // Virtual address.
	Phys uint32 // Physical address.
	Word uint32 // Instruction.
	Next uint32 // PC of following op in trace, NoNext for last.
}

// Next of last op in a trace.
const NoNext = ^uint32(0)

// Compiled instruction, returns false when execution must leave the fragment.
type Code func() bool

// Turn a recorded instruction into code.
type Compiler func(op Op) Code

type Fragment struct {
	EntryPC    uint32
	Trace      []Op
	Executions int
	Min        uint32 // Lowest physical address covered.
	Max        uint32 // One past highest physical address covered.

	code    []Code
	links   map[int]*Fragment // Next fragment by number of ops run.
	indexed bool
}

// Return true if fragment has been compiled.
func (f *Fragment) Compiled() bool {
	return f.code != nil
}

// Number of instructions in trace.
func (f *Fragment) OpCount() int {
	return len(f.Trace)
}

// Add an instruction to the trace.
func (f *Fragment) Append(op Op) {
	if len(f.Trace) == 0 {
		f.Min = op.Phys
		f.Max = op.Phys + 4
	} else {
		f.Min = min(f.Min, op.Phys)
		f.Max = max(f.Max, op.Phys+4)
	}
	f.Trace = append(f.Trace, op)
}

// Run compiled code, return number of instructions run.
func (f *Fragment) Run() int {
	f.Executions++
	for i, c := range f.code {
		if !c() {
			return i + 1
		}
	}
	return len(f.code)
}

// Return fragment reached last time this exit was taken.
func (f *Fragment) Link(exit int, pc uint32) *Fragment {
	next, ok := f.links[exit]
	if !ok || next.EntryPC != pc {
		return nil
	}
	return next
}

// Remember fragment reached from exit.
func (f *Fragment) SetLink(exit int, next *Fragment) {
	if f.links == nil {
		f.links = map[int]*Fragment{}
	}
	debug.Debugf("FRAG", debugMsk, debugLink, "link %08x exit %d -> %08x", f.EntryPC, exit, next.EntryPC)
	f.links[exit] = next
}

// Throw away trace and code, fragment will be rebuilt.
func (f *Fragment) reset() {
	f.Trace = nil
	f.code = nil
	f.links = nil
	f.Min = 0
	f.Max = 0
	f.indexed = false
}

type Stats struct {
	Entries       int // Entry points being counted.
	Fragments     int // Fragments created.
	Compiled      int // Fragments holding code.
	Ops           int // Instructions in compiled fragments.
	Executions    int // Compiled runs.
	Invalidations int // Fragments thrown away.
}

type Cache struct {
	Threshold int       // Visits before building.
	Building  *Fragment // Fragment being recorded.

	frags map[uint32]*Fragment
	hits  map[uint32]int
	index *interval.SearchTree[[]uint32, uint32]
	inval int
}

func cmpAddr(x, y uint32) int {
	return cmp.Compare(x, y)
}

// Create empty cache.
func New() *Cache {
	c := &Cache{Threshold: HotThreshold}
	c.Reset()
	return c
}

// Drop every fragment and count.
func (c *Cache) Reset() {
	c.frags = map[uint32]*Fragment{}
	c.hits = map[uint32]int{}
	c.index = interval.NewSearchTree[[]uint32, uint32](cmpAddr)
	c.Building = nil
	c.inval = 0
}

// Return fragment for pc if there is one.
func (c *Cache) Lookup(pc uint32) *Fragment {
	return c.frags[pc]
}

// Count a visit to pc, returns new fragment when pc becomes hot.
func (c *Cache) Hit(pc uint32) *Fragment {
	c.hits[pc]++
	if c.hits[pc] < c.Threshold {
		return nil
	}
	delete(c.hits, pc)
	f := &Fragment{EntryPC: pc}
	c.frags[pc] = f
	debug.Debugf("FRAG", debugMsk, debugBuild, "start %08x", pc)
	return f
}

// Compile a recorded trace and add it to the range index.
func (c *Cache) Finalize(f *Fragment, compile Compiler) {
	if c.Building == f {
		c.Building = nil
	}
	if len(f.Trace) == 0 {
		return
	}
	f.code = make([]Code, len(f.Trace))
	for i := range f.Trace {
		if i+1 < len(f.Trace) {
			f.Trace[i].Next = f.Trace[i+1].PC
		} else {
			f.Trace[i].Next = NoNext
		}
		f.code[i] = compile(f.Trace[i])
	}
	c.addIndex(f)
	debug.Debugf("FRAG", debugMsk, debugBuild, "finalize %08x ops %d phys %08x-%08x",
		f.EntryPC, len(f.Trace), f.Min, f.Max)
}

// Intervals in the tree are closed, so store last byte covered.
func (c *Cache) addIndex(f *Fragment) {
	last := f.Max - 1
	pcs, ok := c.index.Find(f.Min, last)
	if ok {
		_ = c.index.Delete(f.Min, last)
	}
	pcs = append(pcs, f.EntryPC)
	if err := c.index.Insert(f.Min, last, pcs); err == nil {
		f.indexed = true
	}
}

// Reset every fragment covering part of [addr, addr+length), return count.
func (c *Cache) Invalidate(addr, length uint32) int {
	if length == 0 {
		return 0
	}
	last := addr + length - 1
	if last < addr {
		last = ^uint32(0)
	}
	count := 0
	if b := c.Building; b != nil && len(b.Trace) != 0 && b.Min <= last && addr < b.Max {
		b.reset()
		c.Building = nil
		count++
	}
	groups, ok := c.index.AllIntersections(addr, last)
	if !ok {
		c.inval += count
		return count
	}
	for _, pcs := range groups {
		for _, pc := range pcs {
			f := c.frags[pc]
			if f == nil || !f.indexed {
				continue
			}
			debug.Debugf("FRAG", debugMsk, debugInval, "invalidate %08x phys %08x-%08x by %08x+%x",
				pc, f.Min, f.Max, addr, length)
			_ = c.index.Delete(f.Min, f.Max-1)
			f.reset()
			count++
		}
	}
	c.inval += count
	return count
}

// Return cache statistics.
func (c *Cache) Stats() Stats {
	s := Stats{Entries: len(c.hits), Fragments: len(c.frags), Invalidations: c.inval}
	for _, f := range c.frags {
		if f.Compiled() {
			s.Compiled++
			s.Ops += len(f.Trace)
		}
		s.Executions += f.Executions
	}
	return s
}
