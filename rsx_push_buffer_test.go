// rsx_push_buffer_test.go - Immediate-mode vertex accumulation

package main

import (
	"fmt"
	"slices"
	"testing"
)

// vertexRegisterFile holds attribute registers directly for accumulator
// tests that run without a processor.
type vertexRegisterFile [RSX_VERTEX_ATTRIBUTES]VertexRegister

func (f *vertexRegisterFile) VertexRegister(attr uint32) VertexRegister { return f[attr] }

func TestRSX_VertexSizeInDwords(t *testing.T) {
	tests := []struct {
		typ  VertexBaseType
		size uint32
		want uint32
	}{
		{VertexTypeF, 1, 1},
		{VertexTypeF, 3, 3},
		{VertexTypeF, 4, 4},
		{VertexTypeUB, 4, 1},
		{VertexTypeUB256, 2, 1},
		{VertexTypeCMP, 1, 1},
		{VertexTypeS1, 1, 1},
		{VertexTypeS32K, 2, 1},
		{VertexTypeS32K, 3, 2},
		{VertexTypeSF, 4, 2},
	}
	for _, tt := range tests {
		if got := VertexSizeInDwords(tt.typ, tt.size); got != tt.want {
			t.Errorf("VertexSizeInDwords(%s, %d) = %d, want %d", tt.typ, tt.size, got, tt.want)
		}
	}
}

func TestRSX_ImmediateBackFill(t *testing.T) {
	var regs vertexRegisterFile
	acc := newImmediateAccumulator(&regs, newNopLogger())

	first := [4]uint32{f32(0.25), f32(0.5), f32(0.75), f32(1)}
	for sub, w := range first {
		acc.Set(3, 0, uint32(sub), VertexTypeF, 4, w)
	}
	regs[3] = VertexRegister{Type: VertexTypeF, Size: 4, Data: first}

	last := [4]uint32{f32(9), f32(8), f32(7), f32(6)}
	for sub, w := range last {
		acc.Set(3, 5, uint32(sub), VertexTypeF, 4, w)
	}

	rec := acc.Record(3)
	if rec.VertexCount != 6 {
		t.Fatalf("vertex count = %d, want 6", rec.VertexCount)
	}
	for v := 1; v <= 4; v++ {
		if got := rec.Data[v*4 : v*4+4]; !slices.Equal(got, first[:]) {
			t.Errorf("vertex %d = %08X, want back-filled %08X", v, got, first)
		}
	}
	if got := rec.Data[20:24]; !slices.Equal(got, last[:]) {
		t.Errorf("vertex 5 = %08X, want %08X", got, last)
	}
}

func TestRSX_ImmediateFinishPadsToCount(t *testing.T) {
	var regs vertexRegisterFile
	acc := newImmediateAccumulator(&regs, newNopLogger())

	color := encodeARGB(0xFF, 1, 2, 3)
	acc.Set(3, 0, 0, VertexTypeUB, 4, color)
	regs[3] = VertexRegister{Type: VertexTypeUB, Size: 4, Data: [4]uint32{color}}
	for v := uint32(0); v < 3; v++ {
		acc.Set(0, v, 0, VertexTypeF, 2, f32(float32(v)))
		acc.Set(0, v, 1, VertexTypeF, 2, f32(float32(v*2)))
	}

	attrs := acc.Finish(3)
	if len(attrs) != 2 {
		t.Fatalf("attributes = %d, want 2", len(attrs))
	}
	pos, col := attrs[0], attrs[1]
	if pos.Attr != 0 || pos.Words != 2 || len(pos.Data) != 6 {
		t.Fatalf("position = %+v", pos)
	}
	if col.Attr != 3 || col.Words != 1 || !slices.Equal(col.Data, []uint32{color, color, color}) {
		t.Fatalf("colour = %+v, want three copies of 0x%08X", col, color)
	}
}

func TestRSX_ImmediateRespecification(t *testing.T) {
	var regs vertexRegisterFile
	acc := newImmediateAccumulator(&regs, newNopLogger())

	acc.Set(1, 0, 0, VertexTypeF, 4, f32(1))
	acc.Set(1, 1, 0, VertexTypeF, 2, f32(2))
	if acc.Respecified() != 1 {
		t.Fatalf("respecified = %d, want 1", acc.Respecified())
	}
	acc.Clear()
	if rec := acc.Record(1); rec.VertexCount != 0 || len(rec.Data) != 0 {
		t.Errorf("record after clear = %+v", rec)
	}
}

func TestRSX_ImmediateWordOutsideAttribute(t *testing.T) {
	got := captureContracts(t)
	var regs vertexRegisterFile
	acc := newImmediateAccumulator(&regs, newNopLogger())
	acc.Set(0, 0, 3, VertexTypeF, 2, 0)
	acc.Set(RSX_VERTEX_ATTRIBUTES, 0, 0, VertexTypeF, 1, 0)
	if len(*got) != 2 {
		t.Fatalf("violations = %v, want 2", *got)
	}
}

// Colour written once on vertex 0 is carried to every later vertex from
// the attribute register.
func TestRSX_ImmediateDrawThroughProcessor(t *testing.T) {
	p, backend := newTestProcessor(t)
	red := []uint32{f32(1), f32(0), f32(0), f32(1)}

	pushAll(t, p, [2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_TRIANGLES})
	for c, w := range red {
		pushAll(t, p, [2]uint32{NV4097_SET_VERTEX_DATA4F_M + 3*4 + uint32(c), w})
	}
	positions := [][2]float32{{0, 0}, {4, 0}, {0, 4}}
	for _, pos := range positions {
		pushAll(t, p,
			[2]uint32{NV4097_SET_VERTEX_DATA4F_M + 0, f32(pos[0])},
			[2]uint32{NV4097_SET_VERTEX_DATA4F_M + 1, f32(pos[1])},
			[2]uint32{NV4097_SET_VERTEX_DATA4F_M + 2, f32(0)},
			[2]uint32{NV4097_SET_VERTEX_DATA4F_M + 3, f32(1)},
		)
	}
	pushAll(t, p, [2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_NONE})

	calls := backend.submits()
	if len(calls) != 1 {
		t.Fatalf("submits = %d, want 1", len(calls))
	}
	call := calls[0]
	if call.Command != DrawCommandImmediate || call.Range != (DrawRange{0, 3}) {
		t.Fatalf("call = %s %s, want immediate {0,3}", call.Command, call.Range)
	}
	var color *ImmediateAttribute
	for i := range call.Immediate {
		if call.Immediate[i].Attr == 3 {
			color = &call.Immediate[i]
		}
	}
	if color == nil {
		t.Fatal("colour attribute missing")
	}
	for v := 0; v < 3; v++ {
		if got := color.Data[v*4 : v*4+4]; !slices.Equal(got, red) {
			t.Errorf("vertex %d colour = %08X, want %08X", v, got, red)
		}
	}
	if got := p.VertexRegister(0).Data[0]; got != f32(0) {
		t.Errorf("position register x = 0x%08X, want last written 0", got)
	}
}

func TestRSX_InlineArraySplitsAttributes(t *testing.T) {
	p, backend := newTestProcessor(t)
	pushAll(t, p,
		[2]uint32{NV4097_SET_VERTEX_DATA_ARRAY_FORMAT + 0, encodeVertexFormat(VertexTypeF, 2, 12, 0)},
		[2]uint32{NV4097_SET_VERTEX_DATA_ARRAY_FORMAT + 3, encodeVertexFormat(VertexTypeUB, 4, 12, 0)},
		[2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_POINTS},
	)
	words := []uint32{f32(1), f32(2), 0xAA, f32(3), f32(4), 0xBB}
	for _, w := range words {
		pushAll(t, p, [2]uint32{NV4097_INLINE_ARRAY, w})
	}
	pushAll(t, p, [2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_NONE})

	calls := backend.submits()
	if len(calls) != 1 || calls[0].Range != (DrawRange{0, 2}) {
		t.Fatalf("calls = %+v, want one {0,2}", calls)
	}
	imm := calls[0].Immediate
	if len(imm) != 2 {
		t.Fatalf("immediate attributes = %d, want 2", len(imm))
	}
	if !slices.Equal(imm[0].Data, []uint32{f32(1), f32(2), f32(3), f32(4)}) {
		t.Errorf("position stream = %08X", imm[0].Data)
	}
	if !slices.Equal(imm[1].Data, []uint32{0xAA, 0xBB}) {
		t.Errorf("colour stream = %08X", imm[1].Data)
	}
}

func TestRSX_InlineArrayMalformedStride(t *testing.T) {
	for _, stride := range []uint32{1, 2, 6} {
		t.Run(fmt.Sprintf("stride_%d", stride), func(t *testing.T) {
			p, backend := newTestProcessor(t)
			pushAll(t, p,
				[2]uint32{NV4097_SET_VERTEX_DATA_ARRAY_FORMAT + 0, encodeVertexFormat(VertexTypeUB, 4, stride, 0)},
				[2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_POINTS},
				[2]uint32{NV4097_INLINE_ARRAY, 0x11223344},
				[2]uint32{NV4097_INLINE_ARRAY, 0x55667788},
			)
			if s := p.Push(NV4097_SET_BEGIN_END, RSX_PRIMITIVE_NONE); s != StatusRecover {
				t.Fatalf("end status = %s, want recover", s)
			}
			if calls := backend.submits(); len(calls) != 0 {
				t.Fatalf("submits = %+v, want none", calls)
			}
			if p.clause.State() != ClauseIdle {
				t.Errorf("clause state = %s, want idle", p.clause.State())
			}
			if st := p.Stats(); st.Recoveries != 1 || st.Clauses != 1 {
				t.Errorf("stats = %+v, want one recovery and one clause", st)
			}

			// The next bracket starts clean.
			pushAll(t, p,
				[2]uint32{NV4097_SET_VERTEX_DATA_ARRAY_FORMAT + 0, encodeVertexFormat(VertexTypeUB, 4, 4, 0)},
				[2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_POINTS},
				[2]uint32{NV4097_INLINE_ARRAY, 0xAA},
				[2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_NONE},
			)
			calls := backend.submits()
			if len(calls) != 1 || calls[0].Range != (DrawRange{0, 1}) {
				t.Fatalf("calls = %+v, want one {0,1}", calls)
			}
			if !slices.Equal(calls[0].Immediate[0].Data, []uint32{0xAA}) {
				t.Errorf("stream = %08X, want [AA]", calls[0].Immediate[0].Data)
			}
		})
	}
}

func TestRSX_ArrayElementsCarryIndices(t *testing.T) {
	p, backend := newTestProcessor(t)
	pushAll(t, p,
		[2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_TRIANGLES},
		[2]uint32{NV4097_ARRAY_ELEMENT16, 5 | 9<<16},
		[2]uint32{NV4097_ARRAY_ELEMENT32, 2},
		[2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_NONE},
	)
	calls := backend.submits()
	if len(calls) != 1 {
		t.Fatalf("submits = %d, want 1", len(calls))
	}
	c := calls[0]
	if !slices.Equal(c.Indices, []uint32{5, 9, 2}) {
		t.Errorf("indices = %v, want [5 9 2]", c.Indices)
	}
	if !c.Bounded || c.MinIndex != 2 || c.MaxIndex != 9 {
		t.Errorf("bounds = %d..%d (%v), want 2..9", c.MinIndex, c.MaxIndex, c.Bounded)
	}
}

func TestRSX_CommandSwitchFlushesClause(t *testing.T) {
	p, backend := newTestProcessor(t)
	pushAll(t, p,
		[2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_TRIANGLES},
		[2]uint32{NV4097_DRAW_ARRAYS, encodeDrawArgs(0, 3)},
		[2]uint32{NV4097_ARRAY_ELEMENT32, 1},
		[2]uint32{NV4097_ARRAY_ELEMENT32, 2},
		[2]uint32{NV4097_ARRAY_ELEMENT32, 3},
		[2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_NONE},
	)
	calls := backend.submits()
	if len(calls) != 2 {
		t.Fatalf("submits = %d, want 2", len(calls))
	}
	if calls[0].Command != DrawCommandArray || calls[1].Command != DrawCommandArrayElements {
		t.Errorf("commands = %s, %s", calls[0].Command, calls[1].Command)
	}
	if calls[1].Primitive != RSX_PRIMITIVE_TRIANGLES {
		t.Errorf("reopened clause primitive = %d", calls[1].Primitive)
	}
}
