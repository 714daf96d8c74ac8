// rsx_software_test.go - Software rasterizer backend

package main

import (
	"slices"
	"testing"
)

func newSoftwareProcessor(t *testing.T, width, height int) (*Processor, *SoftwareBackend) {
	t.Helper()
	cfg := testProcessorConfig()
	mem := NewAddressSpace(cfg.LocalMemorySize, cfg.MainMemorySize)
	cfg.Memory = mem
	backend := NewSoftwareBackend(mem)
	if err := backend.Init(width, height); err != nil {
		t.Fatal(err)
	}
	return NewProcessor(backend, cfg), backend
}

func TestRSX_SoftwareClearAndQuad(t *testing.T) {
	p, backend := newSoftwareProcessor(t, 8, 8)
	pushAll(t, p,
		[2]uint32{NV4097_SET_COLOR_CLEAR_VALUE, encodeARGB(255, 0, 0, 255)},
		[2]uint32{NV4097_CLEAR_SURFACE, RSX_CLEAR_R | RSX_CLEAR_G | RSX_CLEAR_B | RSX_CLEAR_A},
		[2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_QUADS},
	)
	for c, w := range []uint32{f32(1), f32(0), f32(0), f32(1)} {
		pushAll(t, p, [2]uint32{NV4097_SET_VERTEX_DATA4F_M + 3*4 + uint32(c), w})
	}
	for _, pos := range [][2]float32{{0, 0}, {4, 0}, {4, 8}, {0, 8}} {
		pushAll(t, p,
			[2]uint32{NV4097_SET_VERTEX_DATA4F_M + 0, f32(pos[0])},
			[2]uint32{NV4097_SET_VERTEX_DATA4F_M + 1, f32(pos[1])},
			[2]uint32{NV4097_SET_VERTEX_DATA4F_M + 2, f32(0)},
			[2]uint32{NV4097_SET_VERTEX_DATA4F_M + 3, f32(1)},
		)
	}
	pushAll(t, p, [2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_NONE})

	if r, g, b, a := backend.Pixel(1, 4); r != 255 || g != 0 || b != 0 || a != 255 {
		t.Errorf("inside quad = %d,%d,%d,%d, want red", r, g, b, a)
	}
	if r, g, b, a := backend.Pixel(6, 4); r != 0 || g != 0 || b != 255 || a != 255 {
		t.Errorf("outside quad = %d,%d,%d,%d, want clear blue", r, g, b, a)
	}
	draws, tris, _ := backend.Stats()
	if draws != 1 || tris != 2 {
		t.Errorf("draws = %d triangles = %d, want 1 and 2", draws, tris)
	}
}

func TestRSX_SoftwareClearScissor(t *testing.T) {
	b := NewSoftwareBackend(nil)
	if err := b.Init(4, 4); err != nil {
		t.Fatal(err)
	}
	b.ClearSurface(ClearOp{
		Mask:    RSX_CLEAR_G,
		Color:   ColorView{G: 200, R: 50},
		Scissor: Rect{X: 1, Y: 1, Width: 2, Height: 2},
	})
	if r, g, _, _ := b.Pixel(1, 1); g != 200 || r != 0 {
		t.Errorf("inside scissor = r%d g%d, want g200 only", r, g)
	}
	if _, g, _, _ := b.Pixel(0, 0); g != 0 {
		t.Errorf("outside scissor g = %d", g)
	}
	if _, g, _, _ := b.Pixel(3, 3); g != 0 {
		t.Errorf("outside scissor g = %d", g)
	}
	if frame := b.Frame(); frame[(1*4+1)*4+1] != 200 {
		t.Error("colour clear not copied to the front buffer")
	}
}

func TestRSX_ExpandPrimitive(t *testing.T) {
	tests := []struct {
		name   string
		prim   uint32
		n      int
		tris   int
		lines  int
		points int
	}{
		{"triangles", RSX_PRIMITIVE_TRIANGLES, 6, 2, 0, 0},
		{"triangles_partial", RSX_PRIMITIVE_TRIANGLES, 5, 1, 0, 0},
		{"strip", RSX_PRIMITIVE_TRIANGLE_STRIP, 5, 3, 0, 0},
		{"fan", RSX_PRIMITIVE_TRIANGLE_FAN, 5, 3, 0, 0},
		{"quads", RSX_PRIMITIVE_QUADS, 8, 4, 0, 0},
		{"quad_strip", RSX_PRIMITIVE_QUAD_STRIP, 6, 4, 0, 0},
		{"polygon", RSX_PRIMITIVE_POLYGON, 4, 2, 0, 0},
		{"lines", RSX_PRIMITIVE_LINES, 5, 0, 2, 0},
		{"line_strip", RSX_PRIMITIVE_LINE_STRIP, 4, 0, 3, 0},
		{"line_loop", RSX_PRIMITIVE_LINE_LOOP, 4, 0, 4, 0},
		{"points", RSX_PRIMITIVE_POINTS, 3, 0, 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tris, lines, points := expandPrimitive(tt.prim, tt.n)
			if len(tris) != tt.tris || len(lines) != tt.lines || len(points) != tt.points {
				t.Errorf("got %d/%d/%d, want %d/%d/%d",
					len(tris), len(lines), len(points), tt.tris, tt.lines, tt.points)
			}
		})
	}

	// Odd strip triangles swap to keep the winding.
	tris, _, _ := expandPrimitive(RSX_PRIMITIVE_TRIANGLE_STRIP, 4)
	if tris[1] != [3]int{2, 1, 3} {
		t.Errorf("second strip triangle = %v, want [2 1 3]", tris[1])
	}
}

func TestRSX_VertexSequencesRestart(t *testing.T) {
	call := DrawCall{
		Command:      DrawCommandIndexed,
		Range:        DrawRange{0, 7},
		Subranges:    []DrawRange{{0, 7}},
		Indices:      []uint32{0, 1, 2, 0xFFFF, 3, 4, 5},
		Restart:      true,
		RestartIndex: 0xFFFF,
		BaseIndex:    10,
	}
	got := vertexSequences(&call)
	want := [][]uint32{{10, 11, 12}, {13, 14, 15}}
	if len(got) != len(want) {
		t.Fatalf("sequences = %v, want %v", got, want)
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Errorf("sequence %d = %v, want %v", i, got[i], want[i])
		}
	}

	call.Restart = false
	if got := vertexSequences(&call); len(got) != 1 || len(got[0]) != 7 {
		t.Errorf("without restart = %v", got)
	}

	arrays := DrawCall{Command: DrawCommandArray, Range: DrawRange{4, 6}, Subranges: []DrawRange{{4, 3}, {7, 3}}}
	if got := vertexSequences(&arrays); len(got) != 2 || !slices.Equal(got[1], []uint32{7, 8, 9}) {
		t.Errorf("array subranges = %v", got)
	}
}

func TestRSX_DecodeAttributeWords(t *testing.T) {
	if got := decodeAttributeWords(VertexTypeF, 2, []uint32{f32(3), f32(-1)}); got != [4]float32{3, -1, 0, 1} {
		t.Errorf("float2 = %v", got)
	}
	if got := decodeAttributeWords(VertexTypeUB, 4, []uint32{0xFF00FF00}); got != [4]float32{0, 1, 0, 1} {
		t.Errorf("ub4 = %v", got)
	}
	if got := decodeAttributeWords(VertexTypeS32K, 2, []uint32{0xFFFE0003}); got != [4]float32{3, -2, 0, 1} {
		t.Errorf("s32k2 = %v", got)
	}
	if got := decodeAttributeWords(VertexTypeSF, 2, []uint32{0xC0003C00}); got != [4]float32{1, -2, 0, 1} {
		t.Errorf("half2 = %v", got)
	}
}

func TestRSX_HalfToFloat(t *testing.T) {
	tests := map[uint16]float32{
		0x0000: 0,
		0x3C00: 1,
		0xC000: -2,
		0x3800: 0.5,
		0x7BFF: 65504,
	}
	for h, want := range tests {
		if got := halfToFloat(h); got != want {
			t.Errorf("halfToFloat(0x%04X) = %v, want %v", h, got, want)
		}
	}
}

func TestRSX_BytesToAttributeWords(t *testing.T) {
	if got := bytesToAttributeWords(VertexTypeF, []byte{0x3F, 0x80, 0, 0}); !slices.Equal(got, []uint32{f32(1)}) {
		t.Errorf("float = %08X", got)
	}
	if got := bytesToAttributeWords(VertexTypeUB, []byte{1, 2, 3, 4}); !slices.Equal(got, []uint32{0x04030201}) {
		t.Errorf("ub = %08X", got)
	}
	if got := bytesToAttributeWords(VertexTypeS32K, []byte{0, 3, 0xFF, 0xFE}); !slices.Equal(got, []uint32{0xFFFE0003}) {
		t.Errorf("s32k = %08X", got)
	}
}
