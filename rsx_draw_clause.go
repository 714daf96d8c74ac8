// rsx_draw_clause.go - Draw clause accumulation and barrier replay

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine

License: GPLv3 or later
*/

/*
rsx_draw_clause.go - Draw Clause Engine

A draw clause describes one begin/end bracket: the primitive type, the kind
of draw command feeding it, an ordered list of draw ranges, and a list of
barriers.

State machine:

	Idle --Reset(prim)--> Accumulating --Begin()--> Flushing --Finish()--> Idle

Range merge: a range that starts where the previous one ends is folded into
it. For primitives that depend on adjacency (strips, fans, loops, polygons)
a merge that follows a rasterization barrier request records a restart
point at the join, so the merged range still replays as separate strips.

Execution barriers carry a register write deferred to a specific range.
Inserting one closes the current range with an empty placeholder that the
next Append fills; the barrier belongs to the placeholder's range. Ranges
keep their submission order.

Replay walks ranges and barriers once, in step. Barriers are ordered by
range index, then execution before rasterization, then key (issuance
sequence for execution barriers, restart address for rasterization ones).
*/

package main

import (
	"cmp"
	"fmt"
	"slices"
)

// DrawRange is a contiguous span of vertices or indices.
type DrawRange struct {
	First uint32
	Count uint32
}

func (r DrawRange) End() uint32 { return r.First + r.Count }

func (r DrawRange) String() string { return fmt.Sprintf("{%d,%d}", r.First, r.Count) }

type BarrierKind uint8

const (
	BarrierExecution BarrierKind = iota
	BarrierRasterization
)

func (k BarrierKind) String() string {
	if k == BarrierExecution {
		return "execution"
	}
	return "rasterization"
}

// Barrier is a deferred register write (execution) or a primitive restart
// point (rasterization) owned by one range.
type Barrier struct {
	Range   int
	Kind    BarrierKind
	Key     uint64
	Address uint32 // restart vertex/index for rasterization barriers
	Method  uint32 // deferred register for execution barriers
	Value   uint32
}

type ClauseState uint8

const (
	ClauseIdle ClauseState = iota
	ClauseAccumulating
	ClauseFlushing
)

func (s ClauseState) String() string {
	switch s {
	case ClauseIdle:
		return "idle"
	case ClauseAccumulating:
		return "accumulating"
	case ClauseFlushing:
		return "flushing"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// DrawCommand names the source of a clause's vertices.
type DrawCommand uint8

const (
	DrawCommandNone DrawCommand = iota
	DrawCommandArray
	DrawCommandIndexed
	DrawCommandInlined
	DrawCommandArrayElements
	DrawCommandImmediate
)

func (c DrawCommand) String() string {
	switch c {
	case DrawCommandNone:
		return "none"
	case DrawCommandArray:
		return "array"
	case DrawCommandIndexed:
		return "indexed"
	case DrawCommandInlined:
		return "inlined"
	case DrawCommandArrayElements:
		return "array_elements"
	case DrawCommandImmediate:
		return "immediate"
	}
	return fmt.Sprintf("command(%d)", uint8(c))
}

// DrawClause accumulates one begin/end bracket.
type DrawClause struct {
	state     ClauseState
	primitive uint32
	command   DrawCommand

	ranges   []DrawRange
	barriers []Barrier

	sequence         uint64
	lastExecution    int
	rasterRequested  bool
	barriersResolved int
}

func (c *DrawClause) State() ClauseState   { return c.state }
func (c *DrawClause) Primitive() uint32    { return c.primitive }
func (c *DrawClause) Command() DrawCommand { return c.command }

// SetCommand records the draw command feeding the clause.
func (c *DrawClause) SetCommand(cmd DrawCommand) {
	c.command = cmd
}

// Reset starts accumulating a new clause for prim, discarding any previous
// content.
func (c *DrawClause) Reset(prim uint32) {
	c.state = ClauseAccumulating
	c.primitive = prim
	c.command = DrawCommandNone
	c.ranges = c.ranges[:0]
	c.barriers = c.barriers[:0]
	c.sequence = 0
	c.lastExecution = 0
	c.rasterRequested = false
	c.barriersResolved = 0
}

// Clear returns the clause to Idle with no content.
func (c *DrawClause) Clear() {
	c.Reset(RSX_PRIMITIVE_NONE)
	c.state = ClauseIdle
}

// RequestRasterizationBarrier asks the next contiguous Append to record a
// restart point instead of silently extending the strip.
func (c *DrawClause) RequestRasterizationBarrier() {
	c.rasterRequested = true
}

// Append adds a range to the clause.
func (c *DrawClause) Append(first, count uint32) {
	if c.state != ClauseAccumulating {
		contractViolation("append %d+%d to %s clause", first, count, c.state)
		return
	}
	barrier := c.rasterRequested
	c.rasterRequested = false
	if count == 0 {
		return
	}

	if n := len(c.ranges); n > 0 {
		last := &c.ranges[n-1]
		if last.Count == 0 {
			last.First, last.Count = first, count
			return
		}
		if last.End() == first {
			if barrier && !isDisjoint(c.primitive) {
				c.barriers = append(c.barriers, Barrier{
					Range:   n - 1,
					Kind:    BarrierRasterization,
					Key:     uint64(first),
					Address: first,
				})
			}
			last.Count += count
			return
		}
	}
	c.ranges = append(c.ranges, DrawRange{First: first, Count: count})
}

// InsertExecutionBarrier defers a register write to the range that follows
// the current one.
func (c *DrawClause) InsertExecutionBarrier(method, value uint32) {
	if c.state != ClauseAccumulating || len(c.ranges) == 0 {
		contractViolation("execution barrier on %s clause with %d ranges", c.state, len(c.ranges))
		return
	}
	if c.ranges[len(c.ranges)-1].Count > 0 {
		c.ranges = append(c.ranges, DrawRange{})
	}
	owner := len(c.ranges) - 1
	c.barriers = append(c.barriers, Barrier{
		Range:  owner,
		Kind:   BarrierExecution,
		Key:    c.sequence,
		Method: method,
		Value:  value,
	})
	c.sequence++
	c.lastExecution = owner
}

// HasRanges reports whether at least one non-empty range was recorded.
func (c *DrawClause) HasRanges() bool {
	for _, r := range c.ranges {
		if r.Count > 0 {
			return true
		}
	}
	return false
}

// Empty reports whether the clause holds neither ranges nor barriers.
func (c *DrawClause) Empty() bool {
	return len(c.ranges) == 0 && len(c.barriers) == 0
}

// Ranges returns a copy of the recorded ranges.
func (c *DrawClause) Ranges() []DrawRange {
	return slices.Clone(c.ranges)
}

// Barriers returns a copy of the barriers in replay order.
func (c *DrawClause) Barriers() []Barrier {
	out := slices.Clone(c.barriers)
	sortBarriers(out)
	return out
}

// VertexCount sums the counts of every range.
func (c *DrawClause) VertexCount() uint32 {
	var n uint32
	for _, r := range c.ranges {
		n += r.Count
	}
	return n
}

// Bounds returns the lowest first and highest end over all ranges.
func (c *DrawClause) Bounds() (lo, hi uint32) {
	first := true
	for _, r := range c.ranges {
		if r.Count == 0 {
			continue
		}
		if first || r.First < lo {
			lo = r.First
		}
		if first || r.End() > hi {
			hi = r.End()
		}
		first = false
	}
	return lo, hi
}

// PassCount is the number of backend submissions a replay will make.
func (c *DrawClause) PassCount() int {
	n := 0
	for _, r := range c.ranges {
		if r.Count > 0 {
			n++
		}
	}
	return n
}

func sortBarriers(b []Barrier) {
	slices.SortStableFunc(b, func(x, y Barrier) int {
		if d := cmp.Compare(x.Range, y.Range); d != 0 {
			return d
		}
		if d := cmp.Compare(x.Kind, y.Kind); d != 0 {
			return d
		}
		return cmp.Compare(x.Key, y.Key)
	})
}

// Begin moves an accumulating clause to Flushing.
func (c *DrawClause) Begin() bool {
	if c.state != ClauseAccumulating {
		contractViolation("flush of %s clause", c.state)
		return false
	}
	sortBarriers(c.barriers)
	c.barriersResolved = 0
	c.state = ClauseFlushing
	return true
}

// Replay walks the clause once. For every range it first hands the range's
// execution barriers to apply, then passes the range and its restart
// subranges to submit. Placeholder ranges apply their barriers without a
// submission.
func (c *DrawClause) Replay(apply func(Barrier), submit func(index int, r DrawRange, subranges []DrawRange)) {
	if c.state != ClauseFlushing {
		contractViolation("replay of %s clause", c.state)
		return
	}
	bi := 0
	for i, r := range c.ranges {
		var restarts []uint32
		for bi < len(c.barriers) && c.barriers[bi].Range == i {
			b := c.barriers[bi]
			bi++
			c.barriersResolved++
			if b.Kind == BarrierExecution {
				apply(b)
				continue
			}
			restarts = append(restarts, b.Address)
		}
		if r.Count == 0 {
			continue
		}
		submit(i, r, splitRange(r, restarts))
	}
	if bi != len(c.barriers) {
		contractViolation("%d barriers reference missing ranges", len(c.barriers)-bi)
	}
}

// Finish returns a flushed clause to Idle.
func (c *DrawClause) Finish() {
	if c.state != ClauseFlushing {
		contractViolation("finish of %s clause", c.state)
	}
	c.Clear()
}

// Abandon drops an accumulating clause without replaying it.
func (c *DrawClause) Abandon() {
	c.Clear()
}

// splitRange cuts r at each restart address that falls strictly inside it.
func splitRange(r DrawRange, restarts []uint32) []DrawRange {
	if len(restarts) == 0 {
		return []DrawRange{r}
	}
	out := make([]DrawRange, 0, len(restarts)+1)
	start := r.First
	for _, at := range restarts {
		if at <= start || at >= r.End() {
			continue
		}
		out = append(out, DrawRange{First: start, Count: at - start})
		start = at
	}
	return append(out, DrawRange{First: start, Count: r.End() - start})
}

// isDisjoint reports whether primitives of type prim are independent of
// their neighbours, so contiguous ranges can merge with no restart.
func isDisjoint(prim uint32) bool {
	switch prim {
	case RSX_PRIMITIVE_POINTS, RSX_PRIMITIVE_LINES, RSX_PRIMITIVE_TRIANGLES, RSX_PRIMITIVE_QUADS:
		return true
	}
	return false
}
