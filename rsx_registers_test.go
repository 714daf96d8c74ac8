// rsx_registers_test.go - Register store, packed fields and typed views

package main

import (
	"encoding/binary"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestRSX_DecodeReturnsPrevious(t *testing.T) {
	var r RegisterStore
	if prev := r.Decode(NV4097_SET_LINE_WIDTH, 8); prev != 0 {
		t.Fatalf("first decode returned %d, want 0", prev)
	}
	if prev := r.Decode(NV4097_SET_LINE_WIDTH, 8); prev != 8 {
		t.Fatalf("repeated decode returned %d, want 8", prev)
	}
	if r.Previous() != 8 {
		t.Errorf("Previous = %d, want 8", r.Previous())
	}
	r.Decode(NV4097_SET_LINE_WIDTH, 24)
	r.Rollback(NV4097_SET_LINE_WIDTH)
	if got := r.Raw(NV4097_SET_LINE_WIDTH); got != 8 {
		t.Errorf("after rollback = %d, want 8", got)
	}

	if prev := r.Decode(RSX_REGISTER_COUNT, 1); prev != 0 || r.Raw(RSX_REGISTER_COUNT) != 0 {
		t.Error("out-of-range decode was stored")
	}
}

func TestRSX_RegisterLoad(t *testing.T) {
	var r RegisterStore
	if err := r.Load(make([]uint32, 3)); !errors.Is(err, ErrBadSnapshot) {
		t.Fatalf("Load short = %v, want ErrBadSnapshot", err)
	}
	cells := make([]uint32, RSX_REGISTER_COUNT)
	cells[NV4097_SET_DEPTH_FUNC] = RSX_COMPARE_EQUAL
	if err := r.Load(cells); err != nil {
		t.Fatal(err)
	}
	if got := r.View(NV4097_SET_DEPTH_FUNC).String(); got != "equal" {
		t.Errorf("depth func view = %q, want equal", got)
	}
	cells[NV4097_SET_DEPTH_FUNC] = 0
	if r.Raw(NV4097_SET_DEPTH_FUNC) != RSX_COMPARE_EQUAL {
		t.Error("Load aliased its argument")
	}
}

func TestRSX_PackedFieldRoundTrip(t *testing.T) {
	typ, size, stride, freq := decodeVertexFormat(encodeVertexFormat(VertexTypeSF, 3, 24, 2))
	if typ != VertexTypeSF || size != 3 || stride != 24 || freq != 2 {
		t.Errorf("vertex format = %s/%d/%d/%d", typ, size, stride, freq)
	}
	off, loc := decodeVertexOffset(encodeVertexOffset(0x1234, LocationMain))
	if off != 0x1234 || loc != LocationMain {
		t.Errorf("vertex offset = 0x%X %s", off, loc)
	}
	loc, ityp := decodeIndexDMA(encodeIndexDMA(LocationMain, RSX_INDEX_TYPE_U16))
	if loc != LocationMain || ityp != RSX_INDEX_TYPE_U16 {
		t.Errorf("index dma = %s %d", loc, ityp)
	}
	a, r, g, b := decodeARGB(encodeARGB(1, 2, 3, 4))
	if a != 1 || r != 2 || g != 3 || b != 4 {
		t.Errorf("argb = %d %d %d %d", a, r, g, b)
	}
	cr, cg, cb, ca := decodeColorMask(encodeColorMask(true, false, true, false))
	if !cr || cg || !cb || ca {
		t.Errorf("colour mask = %v %v %v %v", cr, cg, cb, ca)
	}
	poff, ploc, ok := decodeProgramLocation(encodeProgramLocation(0x100, LocationMain))
	if !ok || poff != 0x100 || ploc != LocationMain {
		t.Errorf("program location = 0x%X %s %v", poff, ploc, ok)
	}
	if _, _, ok := decodeProgramLocation(0x100); ok {
		t.Error("program location without location bits accepted")
	}
}

func TestRSX_ViewsDescribeState(t *testing.T) {
	p, _ := newTestProcessor(t)
	pushAll(t, p,
		[2]uint32{NV4097_SET_BLEND_FUNC_SFACTOR, RSX_BLEND_SRC_ALPHA<<16 | RSX_BLEND_ONE},
		[2]uint32{NV4097_SET_VERTEX_DATA_ARRAY_FORMAT + 1, encodeVertexFormat(VertexTypeUB, 4, 16, 0)},
		[2]uint32{NV4097_SET_SCISSOR_HORIZONTAL, 100<<16 | 10},
		[2]uint32{NV4097_SET_SCISSOR_VERTICAL, 50<<16 | 20},
	)
	regs := p.Registers()

	if got := regs.View(NV4097_SET_BLEND_FUNC_SFACTOR).String(); !strings.Contains(got, "rgb=one") || !strings.Contains(got, "alpha=src_alpha") {
		t.Errorf("blend view = %q", got)
	}
	if got := regs.View(NV4097_SET_VERTEX_DATA_ARRAY_FORMAT + 1).String(); !strings.Contains(got, "ub") {
		t.Errorf("vertex format view = %q", got)
	}
	if s := regs.Scissor(); s != (Rect{X: 10, Y: 20, Width: 100, Height: 50}) {
		t.Errorf("scissor = %+v", s)
	}
	if got := regs.View(RSX_REGISTER_COUNT + 1).String(); got != "0x00000000" {
		t.Errorf("out-of-range view = %q", got)
	}
}

func TestRSX_ViewsSurviveCellRoundTrip(t *testing.T) {
	p, _ := newTestProcessor(t)
	pushAll(t, p,
		[2]uint32{NV4097_SET_STENCIL_OP_ZPASS, RSX_STENCIL_INCR_WRAP},
		[2]uint32{NV4097_SET_COLOR_MASK, encodeColorMask(true, true, false, false)},
		[2]uint32{NV4097_SET_VIEWPORT_SCALE, f32(320)},
	)
	var copyRegs RegisterStore
	if err := copyRegs.Load(p.Registers().Cells()); err != nil {
		t.Fatal(err)
	}
	for op := uint32(0); op < RSX_REGISTER_COUNT; op++ {
		want := p.Registers().View(op).String()
		if got := copyRegs.View(op).String(); got != want {
			t.Fatalf("view of %s = %q, want %q", DescribeMethod(op), got, want)
		}
	}
}

func encodeMethodPairs(pairs ...[2]uint32) []byte {
	out := make([]byte, 0, len(pairs)*8)
	for _, pr := range pairs {
		out = binary.LittleEndian.AppendUint32(out, pr[0])
		out = binary.LittleEndian.AppendUint32(out, pr[1])
	}
	return out
}

// Every view and attribute register reads the same after the context goes
// through a save file and into a fresh processor.
func FuzzRSX_RegisterRoundTrip(f *testing.F) {
	f.Add(encodeMethodPairs(
		[2]uint32{NV4097_SET_STENCIL_OP_ZPASS, RSX_STENCIL_INCR_WRAP},
		[2]uint32{NV4097_SET_COLOR_MASK, encodeColorMask(true, false, true, false)},
		[2]uint32{NV4097_SET_VIEWPORT_SCALE, f32(320)},
	))
	f.Add(encodeMethodPairs(
		[2]uint32{NV4097_SET_VERTEX_DATA4F_M + 3*4 + 1, f32(0.5)},
		[2]uint32{NV4097_SET_VERTEX_DATA4UB_M + 3, 0xFF00FF00},
		[2]uint32{NV4097_SET_VERTEX_DATA2S_M + 7, 0xFFFE0003},
	))
	f.Add(encodeMethodPairs(
		[2]uint32{NV4097_SET_VERTEX_DATA_ARRAY_FORMAT + 0, encodeVertexFormat(VertexTypeUB, 4, 2, 0)},
		[2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_POINTS},
		[2]uint32{NV4097_INLINE_ARRAY, 0x11223344},
	))
	f.Add(encodeMethodPairs(
		[2]uint32{NV4097_SET_TRANSFORM_PROGRAM_LOAD, 3},
		[2]uint32{NV4097_SET_TRANSFORM_PROGRAM, 0xDEADBEEF},
		[2]uint32{NV4097_SET_BEGIN_END, 0x55},
		[2]uint32{NV4097_SET_VERTEX_DATA1F_M + 2, f32(-1)},
	))

	f.Fuzz(func(t *testing.T, data []byte) {
		src, _ := newTestProcessor(t)
		for i := 0; i+8 <= len(data) && i < 64*8; i += 8 {
			op := binary.LittleEndian.Uint32(data[i:]) % (RSX_REGISTER_COUNT + 16)
			src.Push(op, binary.LittleEndian.Uint32(data[i+4:]))
		}
		src.Resume()
		src.Push(NV4097_SET_BEGIN_END, RSX_PRIMITIVE_NONE)

		snap, err := src.Snapshot()
		if err != nil {
			t.Skipf("context not at rest: %v", err)
		}
		path := filepath.Join(t.TempDir(), "context.rsxs")
		if err := SaveStateToFile(snap, path); err != nil {
			t.Fatalf("SaveStateToFile: %v", err)
		}
		loaded, err := LoadStateFromFile(path)
		if err != nil {
			t.Fatalf("LoadStateFromFile: %v", err)
		}
		dst, _ := newTestProcessor(t)
		if err := dst.Restore(loaded); err != nil {
			t.Fatalf("Restore: %v", err)
		}

		for op := uint32(0); op < RSX_REGISTER_COUNT; op++ {
			want := src.Registers().View(op).String()
			if got := dst.Registers().View(op).String(); got != want {
				t.Fatalf("view of %s = %q, want %q", DescribeMethod(op), got, want)
			}
		}
		for attr := uint32(0); attr < RSX_VERTEX_ATTRIBUTES; attr++ {
			if got, want := dst.VertexRegister(attr), src.VertexRegister(attr); got != want {
				t.Fatalf("attribute %d register = %+v, want %+v", attr, got, want)
			}
		}
		if !slices.Equal(dst.Microcode(), src.Microcode()) {
			t.Fatal("microcode differs after restore")
		}
		if !slices.Equal(dst.Constants(), src.Constants()) {
			t.Fatal("constants differ after restore")
		}
	})
}
