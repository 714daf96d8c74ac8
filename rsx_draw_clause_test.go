// rsx_draw_clause_test.go - Draw clause accumulation, barriers and replay

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

package main

import (
	"fmt"
	"slices"
	"testing"
)

func rangesEqual(a, b []DrawRange) bool {
	return slices.Equal(a, b)
}

// captureContracts routes contract violations into a slice for the test.
func captureContracts(t *testing.T) *[]string {
	t.Helper()
	var got []string
	old := contractHook
	contractHook = func(msg string) { got = append(got, msg) }
	t.Cleanup(func() { contractHook = old })
	return &got
}

// =============================================================================
// Sprint 1: Range accumulation
// =============================================================================

func TestRSX_ClauseContiguousDisjointMerge(t *testing.T) {
	p, backend := newTestProcessor(t)
	pushAll(t, p,
		[2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_TRIANGLES},
		[2]uint32{NV4097_DRAW_ARRAYS, encodeDrawArgs(0, 3)},
		[2]uint32{NV4097_DRAW_ARRAYS, encodeDrawArgs(3, 3)},
	)
	if got := p.Clause().Ranges(); !rangesEqual(got, []DrawRange{{0, 6}}) {
		t.Fatalf("ranges = %v, want [{0,6}]", got)
	}
	if got := p.Clause().Barriers(); len(got) != 0 {
		t.Fatalf("barriers = %v, want none", got)
	}
	pushAll(t, p, [2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_NONE})

	calls := backend.submits()
	if len(calls) != 1 {
		t.Fatalf("submits = %d, want 1", len(calls))
	}
	if calls[0].Range != (DrawRange{0, 6}) {
		t.Errorf("submitted range = %s, want {0,6}", calls[0].Range)
	}
	if !rangesEqual(calls[0].Subranges, []DrawRange{{0, 6}}) {
		t.Errorf("subranges = %v, want [{0,6}]", calls[0].Subranges)
	}
	if got := backend.kinds(); got[0] != "begin" || got[len(got)-1] != "end" {
		t.Errorf("backend calls = %v, want begin ... end", got)
	}
}

func TestRSX_ClauseDeferredIndexBase(t *testing.T) {
	p, backend := newTestProcessor(t)
	pushAll(t, p,
		[2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_TRIANGLE_STRIP},
		[2]uint32{NV4097_DRAW_INDEX_ARRAY, encodeDrawArgs(0, 4)},
		[2]uint32{NV4097_SET_VERTEX_DATA_BASE_INDEX, 16},
		[2]uint32{NV4097_DRAW_INDEX_ARRAY, encodeDrawArgs(4, 4)},
	)

	if got := p.Registers().Raw(NV4097_SET_VERTEX_DATA_BASE_INDEX); got != 0 {
		t.Fatalf("base index applied early: %d", got)
	}
	if got := p.Clause().Ranges(); !rangesEqual(got, []DrawRange{{0, 4}, {4, 4}}) {
		t.Fatalf("ranges = %v, want [{0,4} {4,4}]", got)
	}
	barriers := p.Clause().Barriers()
	if len(barriers) != 1 {
		t.Fatalf("barriers = %v, want one", barriers)
	}
	b := barriers[0]
	if b.Range != 1 || b.Kind != BarrierExecution || b.Method != NV4097_SET_VERTEX_DATA_BASE_INDEX || b.Value != 16 {
		t.Fatalf("barrier = %+v, want execution on range 1 setting base index 16", b)
	}

	pushAll(t, p, [2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_NONE})
	calls := backend.submits()
	if len(calls) != 2 {
		t.Fatalf("submits = %d, want 2", len(calls))
	}
	if calls[0].BaseIndex != 0 || calls[1].BaseIndex != 16 {
		t.Errorf("base index per submit = %d, %d, want 0, 16", calls[0].BaseIndex, calls[1].BaseIndex)
	}
	if got := p.Registers().Raw(NV4097_SET_VERTEX_DATA_BASE_INDEX); got != 16 {
		t.Errorf("base index after flush = %d, want 16", got)
	}
	if s := p.Stats(); s.Deferred != 1 || s.Barriers != 1 {
		t.Errorf("stats deferred=%d barriers=%d, want 1, 1", s.Deferred, s.Barriers)
	}
}

func TestRSX_ClauseDeferralNotRetroactive(t *testing.T) {
	p, backend := newTestProcessor(t)
	pushAll(t, p,
		[2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_TRIANGLES},
		[2]uint32{NV4097_DRAW_ARRAYS, encodeDrawArgs(0, 3)},
		[2]uint32{NV4097_SET_VERTEX_DATA_BASE_OFFSET, 64},
		[2]uint32{NV4097_DRAW_ARRAYS, encodeDrawArgs(3, 3)},
		[2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_NONE},
	)
	calls := backend.submits()
	if len(calls) != 2 {
		t.Fatalf("submits = %d, want 2 (barrier blocks the merge)", len(calls))
	}
	if calls[0].BaseVertex != 0 {
		t.Errorf("first range saw base vertex %d, want 0", calls[0].BaseVertex)
	}
	if calls[1].BaseVertex != 64 {
		t.Errorf("second range saw base vertex %d, want 64", calls[1].BaseVertex)
	}
}

func TestRSX_ClauseWriteBeforeFirstRangeApplies(t *testing.T) {
	p, backend := newTestProcessor(t)
	pushAll(t, p,
		[2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_TRIANGLES},
		[2]uint32{NV4097_SET_VERTEX_DATA_BASE_OFFSET, 32},
		[2]uint32{NV4097_DRAW_ARRAYS, encodeDrawArgs(0, 3)},
		[2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_NONE},
	)
	if len(p.Clause().Barriers()) != 0 {
		t.Fatal("clause kept barriers after flush")
	}
	calls := backend.submits()
	if len(calls) != 1 || calls[0].BaseVertex != 32 {
		t.Fatalf("calls = %+v, want one with base vertex 32", calls)
	}
	if p.Stats().Deferred != 0 {
		t.Errorf("Deferred = %d, want 0", p.Stats().Deferred)
	}
}

func TestRSX_ClauseStripRestartPerPacket(t *testing.T) {
	p, backend := newTestProcessor(t)
	pushAll(t, p,
		[2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_TRIANGLE_STRIP},
		[2]uint32{NV4097_DRAW_ARRAYS, encodeDrawArgs(0, 4)},
		[2]uint32{NV4097_DRAW_ARRAYS, encodeDrawArgs(4, 4)},
	)
	if got := p.Clause().Ranges(); !rangesEqual(got, []DrawRange{{0, 8}}) {
		t.Fatalf("ranges = %v, want [{0,8}]", got)
	}
	barriers := p.Clause().Barriers()
	if len(barriers) != 1 || barriers[0].Kind != BarrierRasterization || barriers[0].Address != 4 {
		t.Fatalf("barriers = %+v, want one rasterization barrier at 4", barriers)
	}
	pushAll(t, p, [2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_NONE})

	calls := backend.submits()
	if len(calls) != 1 {
		t.Fatalf("submits = %d, want 1", len(calls))
	}
	if !rangesEqual(calls[0].Subranges, []DrawRange{{0, 4}, {4, 4}}) {
		t.Errorf("subranges = %v, want [{0,4} {4,4}]", calls[0].Subranges)
	}
}

func TestRSX_ClauseStripSinglePacketNoRestart(t *testing.T) {
	p, backend := newTestProcessor(t)
	var cb CommandBuilder
	cb.Method(NV4097_SET_BEGIN_END, RSX_PRIMITIVE_TRIANGLE_STRIP).
		Repeat(NV4097_DRAW_ARRAYS, encodeDrawArgs(0, 4), encodeDrawArgs(4, 4)).
		Method(NV4097_SET_BEGIN_END, RSX_PRIMITIVE_NONE)
	if err := p.Run(t.Context(), cb.Reader()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	calls := backend.submits()
	if len(calls) != 1 {
		t.Fatalf("submits = %d, want 1", len(calls))
	}
	if !rangesEqual(calls[0].Subranges, []DrawRange{{0, 8}}) {
		t.Errorf("subranges = %v, want [{0,8}]", calls[0].Subranges)
	}
}

func TestRSX_ClauseNonContiguousKeepsOrder(t *testing.T) {
	var c DrawClause
	c.Reset(RSX_PRIMITIVE_TRIANGLES)
	c.Append(30, 3)
	c.Append(0, 3)
	c.Append(3, 3)
	want := []DrawRange{{30, 3}, {0, 6}}
	if got := c.Ranges(); !rangesEqual(got, want) {
		t.Fatalf("ranges = %v, want %v", got, want)
	}
	if lo, hi := c.Bounds(); lo != 0 || hi != 33 {
		t.Errorf("bounds = %d..%d, want 0..33", lo, hi)
	}
}

func TestRSX_ClauseMergePreservesVertexCount(t *testing.T) {
	for _, prim := range []uint32{RSX_PRIMITIVE_TRIANGLES, RSX_PRIMITIVE_TRIANGLE_STRIP, RSX_PRIMITIVE_LINE_STRIP, RSX_PRIMITIVE_POINTS} {
		t.Run(fmt.Sprint(primitiveNames[prim]), func(t *testing.T) {
			var c DrawClause
			c.Reset(prim)
			var sum uint32
			first := uint32(0)
			for i := uint32(1); i <= 40; i++ {
				count := i%7 + 1
				if i%5 == 0 {
					first += 11
				}
				if i%3 == 0 {
					c.RequestRasterizationBarrier()
				}
				c.Append(first, count)
				first += count
				sum += count
			}
			if got := c.VertexCount(); got != sum {
				t.Fatalf("vertex count = %d, want %d", got, sum)
			}
			for i, r := range c.Ranges() {
				if r.Count == 0 {
					t.Fatalf("range %d is an empty placeholder", i)
				}
			}
		})
	}
}

func TestRSX_ClauseAppendZeroIgnored(t *testing.T) {
	var c DrawClause
	c.Reset(RSX_PRIMITIVE_TRIANGLES)
	c.Append(5, 0)
	if !c.Empty() || c.HasRanges() {
		t.Fatalf("zero-count append recorded a range: %v", c.Ranges())
	}
}

// =============================================================================
// Sprint 2: Barriers and replay
// =============================================================================

func TestRSX_ClauseBarrierOrdering(t *testing.T) {
	barriers := []Barrier{
		{Range: 1, Kind: BarrierRasterization, Key: 104},
		{Range: 1, Kind: BarrierExecution, Key: 1},
		{Range: 0, Kind: BarrierRasterization, Key: 4},
		{Range: 1, Kind: BarrierExecution, Key: 0},
		{Range: 2, Kind: BarrierExecution, Key: 2},
	}
	sortBarriers(barriers)
	want := []Barrier{
		{Range: 0, Kind: BarrierRasterization, Key: 4},
		{Range: 1, Kind: BarrierExecution, Key: 0},
		{Range: 1, Kind: BarrierExecution, Key: 1},
		{Range: 1, Kind: BarrierRasterization, Key: 104},
		{Range: 2, Kind: BarrierExecution, Key: 2},
	}
	if !slices.Equal(barriers, want) {
		t.Fatalf("sorted = %+v\nwant %+v", barriers, want)
	}
}

func TestRSX_ClauseReplay(t *testing.T) {
	var c DrawClause
	c.Reset(RSX_PRIMITIVE_TRIANGLE_STRIP)
	c.Append(0, 4)
	c.RequestRasterizationBarrier()
	c.Append(4, 4)
	c.InsertExecutionBarrier(NV4097_SET_VERTEX_DATA_BASE_OFFSET, 1)
	c.InsertExecutionBarrier(NV4097_SET_VERTEX_DATA_BASE_INDEX, 2)
	c.Append(100, 4)
	c.RequestRasterizationBarrier()
	c.Append(104, 4)

	if c.PassCount() != 2 {
		t.Fatalf("pass count = %d, want 2", c.PassCount())
	}
	if !c.Begin() {
		t.Fatal("Begin failed")
	}
	var trace []string
	c.Replay(
		func(b Barrier) { trace = append(trace, fmt.Sprintf("apply %s=%d", DescribeMethod(b.Method), b.Value)) },
		func(i int, r DrawRange, sub []DrawRange) {
			trace = append(trace, fmt.Sprintf("submit %d %s %v", i, r, sub))
		},
	)
	c.Finish()

	want := []string{
		"submit 0 {0,8} [{0,4} {4,4}]",
		"apply NV4097_SET_VERTEX_DATA_BASE_OFFSET=1",
		"apply NV4097_SET_VERTEX_DATA_BASE_INDEX=2",
		"submit 1 {100,8} [{100,4} {104,4}]",
	}
	if !slices.Equal(trace, want) {
		t.Fatalf("replay trace:\n%v\nwant:\n%v", trace, want)
	}
	if c.State() != ClauseIdle || !c.Empty() {
		t.Errorf("clause after finish = %s empty=%v", c.State(), c.Empty())
	}
}

func TestRSX_ClauseTrailingBarrierApplied(t *testing.T) {
	p, backend := newTestProcessor(t)
	pushAll(t, p,
		[2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_TRIANGLES},
		[2]uint32{NV4097_DRAW_ARRAYS, encodeDrawArgs(0, 3)},
		[2]uint32{NV4097_SET_VERTEX_DATA_ARRAY_OFFSET + 1, 0x200},
		[2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_NONE},
	)
	if n := len(backend.submits()); n != 1 {
		t.Fatalf("submits = %d, want 1", n)
	}
	if got := p.Registers().Raw(NV4097_SET_VERTEX_DATA_ARRAY_OFFSET + 1); got != 0x200 {
		t.Errorf("trailing deferred write = 0x%X, want 0x200", got)
	}
}

func TestRSX_ClauseContractViolations(t *testing.T) {
	got := captureContracts(t)

	var c DrawClause
	c.Append(0, 3)
	c.InsertExecutionBarrier(NV4097_SET_VERTEX_DATA_BASE_INDEX, 1)
	c.Replay(func(Barrier) {}, func(int, DrawRange, []DrawRange) {})
	if len(*got) != 3 {
		t.Fatalf("violations = %v, want 3", *got)
	}

	c.Reset(RSX_PRIMITIVE_TRIANGLES)
	c.InsertExecutionBarrier(NV4097_SET_VERTEX_DATA_BASE_INDEX, 1)
	if len(*got) != 4 {
		t.Fatalf("barrier with no range not reported: %v", *got)
	}
}

func TestRSX_SplitRangeIgnoresBoundaryRestarts(t *testing.T) {
	r := DrawRange{First: 10, Count: 10}
	got := splitRange(r, []uint32{10, 14, 17, 20, 25})
	want := []DrawRange{{10, 4}, {14, 3}, {17, 3}}
	if !rangesEqual(got, want) {
		t.Fatalf("splitRange = %v, want %v", got, want)
	}
}
