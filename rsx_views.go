// rsx_views.go - Typed read-only projections of register cells

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
	"math"
	"strings"
)

// View is a decoded projection of one register cell.
type View interface {
	fmt.Stringer
}

type RawView uint32

func (v RawView) String() string { return fmt.Sprintf("0x%08X", uint32(v)) }

type EnableView bool

func (v EnableView) String() string {
	if v {
		return "enabled"
	}
	return "disabled"
}

type FloatView float32

func (v FloatView) String() string { return fmt.Sprintf("%g", float32(v)) }

// RectView is an origin/size pair packed as two 16-bit halves.
type RectView struct {
	Origin, Size uint16
}

func (v RectView) String() string { return fmt.Sprintf("origin=%d size=%d", v.Origin, v.Size) }

// PairView holds separate colour and alpha enums packed as two halves.
type PairView struct {
	RGB, Alpha EnumView
}

func (v PairView) String() string { return fmt.Sprintf("rgb=%s alpha=%s", v.RGB, v.Alpha) }

// EnumView is a hardware enumeration value with its symbolic name.
type EnumView struct {
	Value uint32
	Name  string
}

func (v EnumView) String() string {
	if v.Name == "" {
		return fmt.Sprintf("invalid(0x%X)", v.Value)
	}
	return v.Name
}

type ColorView struct {
	A, R, G, B uint8
}

func (v ColorView) String() string {
	return fmt.Sprintf("argb(%d,%d,%d,%d)", v.A, v.R, v.G, v.B)
}

type ColorMaskView struct {
	R, G, B, A bool
}

func (v ColorMaskView) String() string {
	var sb strings.Builder
	for _, c := range []struct {
		on bool
		ch byte
	}{{v.R, 'R'}, {v.G, 'G'}, {v.B, 'B'}, {v.A, 'A'}} {
		if c.on {
			sb.WriteByte(c.ch)
		} else {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

type SurfaceFormatView struct {
	Color, Depth, Type uint32
	Log2Width          uint32
	Log2Height         uint32
}

func (v SurfaceFormatView) String() string {
	return fmt.Sprintf("color=%d depth=%d type=%d %dx%d", v.Color, v.Depth, v.Type, 1<<v.Log2Width, 1<<v.Log2Height)
}

type VertexFormatView struct {
	Type      VertexBaseType
	Size      uint32
	Stride    uint32
	Frequency uint32
}

func (v VertexFormatView) String() string {
	if v.Size == 0 {
		return "disabled"
	}
	return fmt.Sprintf("%s x%d stride=%d freq=%d", v.Type, v.Size, v.Stride, v.Frequency)
}

type VertexOffsetView struct {
	Offset   uint32
	Location Location
}

func (v VertexOffsetView) String() string { return fmt.Sprintf("%s+0x%08X", v.Location, v.Offset) }

type IndexDMAView struct {
	Location Location
	Type     uint32
}

func (v IndexDMAView) String() string {
	typ := "u32"
	if v.Type == RSX_INDEX_TYPE_U16 {
		typ = "u16"
	}
	return fmt.Sprintf("%s %s", v.Location, typ)
}

type DrawArgsView struct {
	First, Count uint32
}

func (v DrawArgsView) String() string { return fmt.Sprintf("first=%d count=%d", v.First, v.Count) }

type ProgramLocationView struct {
	Offset   uint32
	Location Location
	Valid    bool
}

func (v ProgramLocationView) String() string {
	if !v.Valid {
		return fmt.Sprintf("invalid location 0x%08X", v.Offset)
	}
	return fmt.Sprintf("%s+0x%08X", v.Location, v.Offset)
}

type ZStencilView struct {
	Depth   uint32
	Stencil uint8
}

func (v ZStencilView) String() string { return fmt.Sprintf("depth=0x%06X stencil=%d", v.Depth, v.Stencil) }

type ClearMaskView uint32

func (v ClearMaskView) String() string {
	var parts []string
	for _, b := range []struct {
		bit  uint32
		name string
	}{{RSX_CLEAR_Z, "Z"}, {RSX_CLEAR_S, "S"}, {RSX_CLEAR_R, "R"}, {RSX_CLEAR_G, "G"}, {RSX_CLEAR_B, "B"}, {RSX_CLEAR_A, "A"}} {
		if uint32(v)&b.bit != 0 {
			parts = append(parts, b.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// =============================================================================
// Enumeration tables (also the validity sets used by the method handlers)
// =============================================================================

var primitiveNames = map[uint32]string{
	RSX_PRIMITIVE_NONE:           "end",
	RSX_PRIMITIVE_POINTS:         "points",
	RSX_PRIMITIVE_LINES:          "lines",
	RSX_PRIMITIVE_LINE_LOOP:      "line_loop",
	RSX_PRIMITIVE_LINE_STRIP:     "line_strip",
	RSX_PRIMITIVE_TRIANGLES:      "triangles",
	RSX_PRIMITIVE_TRIANGLE_STRIP: "triangle_strip",
	RSX_PRIMITIVE_TRIANGLE_FAN:   "triangle_fan",
	RSX_PRIMITIVE_QUADS:          "quads",
	RSX_PRIMITIVE_QUAD_STRIP:     "quad_strip",
	RSX_PRIMITIVE_POLYGON:        "polygon",
}

var compareNames = map[uint32]string{
	RSX_COMPARE_NEVER:    "never",
	RSX_COMPARE_LESS:     "less",
	RSX_COMPARE_EQUAL:    "equal",
	RSX_COMPARE_LEQUAL:   "lequal",
	RSX_COMPARE_GREATER:  "greater",
	RSX_COMPARE_NOTEQUAL: "notequal",
	RSX_COMPARE_GEQUAL:   "gequal",
	RSX_COMPARE_ALWAYS:   "always",
}

var blendFactorNames = map[uint32]string{
	RSX_BLEND_ZERO:                     "zero",
	RSX_BLEND_ONE:                      "one",
	RSX_BLEND_SRC_COLOR:                "src_color",
	RSX_BLEND_ONE_MINUS_SRC_COLOR:      "one_minus_src_color",
	RSX_BLEND_SRC_ALPHA:                "src_alpha",
	RSX_BLEND_ONE_MINUS_SRC_ALPHA:      "one_minus_src_alpha",
	RSX_BLEND_DST_ALPHA:                "dst_alpha",
	RSX_BLEND_ONE_MINUS_DST_ALPHA:      "one_minus_dst_alpha",
	RSX_BLEND_DST_COLOR:                "dst_color",
	RSX_BLEND_ONE_MINUS_DST_COLOR:      "one_minus_dst_color",
	RSX_BLEND_SRC_ALPHA_SATURATE:       "src_alpha_saturate",
	RSX_BLEND_CONSTANT_COLOR:           "constant_color",
	RSX_BLEND_ONE_MINUS_CONSTANT_COLOR: "one_minus_constant_color",
	RSX_BLEND_CONSTANT_ALPHA:           "constant_alpha",
	RSX_BLEND_ONE_MINUS_CONSTANT_ALPHA: "one_minus_constant_alpha",
}

var blendEquationNames = map[uint32]string{
	RSX_BLEND_EQUATION_ADD:              "add",
	RSX_BLEND_EQUATION_MIN:              "min",
	RSX_BLEND_EQUATION_MAX:              "max",
	RSX_BLEND_EQUATION_SUBTRACT:         "subtract",
	RSX_BLEND_EQUATION_REVERSE_SUBTRACT: "reverse_subtract",
}

var stencilOpNames = map[uint32]string{
	RSX_STENCIL_ZERO:      "zero",
	RSX_STENCIL_INVERT:    "invert",
	RSX_STENCIL_KEEP:      "keep",
	RSX_STENCIL_REPLACE:   "replace",
	RSX_STENCIL_INCR:      "incr",
	RSX_STENCIL_DECR:      "decr",
	RSX_STENCIL_INCR_WRAP: "incr_wrap",
	RSX_STENCIL_DECR_WRAP: "decr_wrap",
}

var cullFaceNames = map[uint32]string{
	RSX_CULL_FRONT:          "front",
	RSX_CULL_BACK:           "back",
	RSX_CULL_FRONT_AND_BACK: "front_and_back",
}

var frontFaceNames = map[uint32]string{
	RSX_FRONT_FACE_CW:  "cw",
	RSX_FRONT_FACE_CCW: "ccw",
}

var shadeModeNames = map[uint32]string{
	RSX_SHADE_FLAT:   "flat",
	RSX_SHADE_SMOOTH: "smooth",
}

var polygonModeNames = map[uint32]string{
	RSX_POLYGON_MODE_POINT: "point",
	RSX_POLYGON_MODE_LINE:  "line",
	RSX_POLYGON_MODE_FILL:  "fill",
}

var surfaceTargetNames = map[uint32]string{
	RSX_SURFACE_TARGET_NONE: "none",
	RSX_SURFACE_TARGET_A:    "a",
	RSX_SURFACE_TARGET_B:    "b",
	RSX_SURFACE_TARGET_MRT1: "mrt1",
	RSX_SURFACE_TARGET_MRT2: "mrt2",
	RSX_SURFACE_TARGET_MRT3: "mrt3",
}

func enumView(names map[uint32]string, v uint32) EnumView {
	return EnumView{Value: v, Name: names[v]}
}

func pairView(names map[uint32]string, v uint32) PairView {
	return PairView{RGB: enumView(names, uint32(lo16(v))), Alpha: enumView(names, uint32(hi16(v)))}
}

func validEnum(names map[uint32]string) func(uint32) bool {
	return func(v uint32) bool {
		_, ok := names[v]
		return ok
	}
}

func validEnumPair(names map[uint32]string) func(uint32) bool {
	return func(v uint32) bool {
		_, lo := names[uint32(lo16(v))]
		_, hi := names[uint32(hi16(v))]
		return lo && hi
	}
}

// =============================================================================
// Opcode to view lookup
// =============================================================================

type viewDecoder func(uint32) View

var viewTable [RSX_REGISTER_COUNT]viewDecoder

func init() {
	for i := range viewTable {
		viewTable[i] = func(v uint32) View { return RawView(v) }
	}
	set := func(op uint32, d viewDecoder) { viewTable[op] = d }
	enable := func(v uint32) View { return EnableView(v != 0) }
	float := func(v uint32) View { return FloatView(math.Float32frombits(v)) }
	rect := func(v uint32) View { return RectView{Origin: lo16(v), Size: hi16(v)} }
	enum := func(names map[uint32]string) viewDecoder {
		return func(v uint32) View { return enumView(names, v) }
	}
	pair := func(names map[uint32]string) viewDecoder {
		return func(v uint32) View { return pairView(names, v) }
	}
	color := func(v uint32) View {
		a, r, g, b := decodeARGB(v)
		return ColorView{A: a, R: r, G: g, B: b}
	}
	drawArgs := func(v uint32) View {
		first, count := decodeDrawArgs(v)
		return DrawArgsView{First: first, Count: count}
	}
	program := func(v uint32) View {
		offset, loc, ok := decodeProgramLocation(v)
		return ProgramLocationView{Offset: offset, Location: loc, Valid: ok}
	}

	for _, op := range []uint32{
		NV4097_SET_ALPHA_TEST_ENABLE, NV4097_SET_BLEND_ENABLE, NV4097_SET_STENCIL_TEST_ENABLE,
		NV4097_SET_DEPTH_TEST_ENABLE, NV4097_SET_DEPTH_MASK, NV4097_SET_CULL_FACE_ENABLE,
		NV4097_SET_RESTART_INDEX_ENABLE,
	} {
		set(op, enable)
	}
	for _, op := range []uint32{
		NV4097_SET_SURFACE_CLIP_HORIZONTAL, NV4097_SET_SURFACE_CLIP_VERTICAL,
		NV4097_SET_SCISSOR_HORIZONTAL, NV4097_SET_SCISSOR_VERTICAL,
		NV4097_SET_VIEWPORT_HORIZONTAL, NV4097_SET_VIEWPORT_VERTICAL,
	} {
		set(op, rect)
	}
	for i := uint32(0); i < 4; i++ {
		set(NV4097_SET_VIEWPORT_OFFSET+i, float)
		set(NV4097_SET_VIEWPORT_SCALE+i, float)
	}

	set(NV4097_SET_BEGIN_END, enum(primitiveNames))
	set(NV4097_SET_ALPHA_FUNC, enum(compareNames))
	set(NV4097_SET_DEPTH_FUNC, enum(compareNames))
	set(NV4097_SET_STENCIL_FUNC, enum(compareNames))
	set(NV4097_SET_STENCIL_OP_FAIL, enum(stencilOpNames))
	set(NV4097_SET_STENCIL_OP_ZFAIL, enum(stencilOpNames))
	set(NV4097_SET_STENCIL_OP_ZPASS, enum(stencilOpNames))
	set(NV4097_SET_CULL_FACE, enum(cullFaceNames))
	set(NV4097_SET_FRONT_FACE, enum(frontFaceNames))
	set(NV4097_SET_SHADE_MODE, enum(shadeModeNames))
	set(NV4097_SET_FRONT_POLYGON_MODE, enum(polygonModeNames))
	set(NV4097_SET_BACK_POLYGON_MODE, enum(polygonModeNames))
	set(NV4097_SET_SURFACE_COLOR_TARGET, enum(surfaceTargetNames))
	set(NV4097_SET_BLEND_FUNC_SFACTOR, pair(blendFactorNames))
	set(NV4097_SET_BLEND_FUNC_DFACTOR, pair(blendFactorNames))
	set(NV4097_SET_BLEND_EQUATION, pair(blendEquationNames))
	set(NV4097_SET_BLEND_COLOR, color)
	set(NV4097_SET_COLOR_CLEAR_VALUE, color)
	set(NV4097_SET_COLOR_MASK, func(v uint32) View {
		r, g, b, a := decodeColorMask(v)
		return ColorMaskView{R: r, G: g, B: b, A: a}
	})
	set(NV4097_SET_SURFACE_FORMAT, func(v uint32) View {
		c, d, t, w, h := decodeSurfaceFormat(v)
		return SurfaceFormatView{Color: c, Depth: d, Type: t, Log2Width: w, Log2Height: h}
	})
	set(NV4097_SET_ZSTENCIL_CLEAR_VALUE, func(v uint32) View {
		d, s := decodeZStencilClear(v)
		return ZStencilView{Depth: d, Stencil: s}
	})
	set(NV4097_CLEAR_SURFACE, func(v uint32) View { return ClearMaskView(v) })
	set(NV4097_DRAW_ARRAYS, drawArgs)
	set(NV4097_DRAW_INDEX_ARRAY, drawArgs)
	set(NV4097_SET_INDEX_ARRAY_DMA, func(v uint32) View {
		loc, typ := decodeIndexDMA(v)
		return IndexDMAView{Location: loc, Type: typ}
	})
	set(NV4097_SET_SHADER_PROGRAM, program)
	set(NV4097_SET_LINE_WIDTH, func(v uint32) View { return FloatView(float32(v) / 8) })

	for attr := uint32(0); attr < RSX_VERTEX_ATTRIBUTES; attr++ {
		set(NV4097_SET_VERTEX_DATA_ARRAY_FORMAT+attr, func(v uint32) View {
			typ, size, stride, freq := decodeVertexFormat(v)
			return VertexFormatView{Type: typ, Size: size, Stride: stride, Frequency: freq}
		})
		set(NV4097_SET_VERTEX_DATA_ARRAY_OFFSET+attr, func(v uint32) View {
			offset, loc := decodeVertexOffset(v)
			return VertexOffsetView{Offset: offset, Location: loc}
		})
		set(NV4097_SET_VERTEX_DATA1F_M+attr, float)
		for c := uint32(0); c < 2; c++ {
			set(NV4097_SET_VERTEX_DATA2F_M+attr*2+c, float)
		}
		for c := uint32(0); c < 4; c++ {
			set(NV4097_SET_VERTEX_DATA4F_M+attr*4+c, float)
		}
	}
	for unit := uint32(0); unit < RSX_TEXTURE_UNITS; unit++ {
		base := unit * RSX_TEXTURE_UNIT_STRIDE
		set(NV4097_SET_TEXTURE_IMAGE_RECT+base, func(v uint32) View {
			return RectView{Origin: hi16(v), Size: lo16(v)}
		})
		set(NV4097_SET_TEXTURE_BORDER_COLOR+base, color)
	}
	for i := uint32(0); i < RSX_METHOD_WINDOW; i++ {
		set(NV4097_SET_TRANSFORM_CONSTANT+i, float)
	}
}

// View decodes cell op through the view table.
func (r *RegisterStore) View(op uint32) View {
	if op >= RSX_REGISTER_COUNT {
		return RawView(0)
	}
	return viewTable[op](r.cells[op])
}

// =============================================================================
// Composite views spanning several cells
// =============================================================================

// Rect is an axis-aligned rectangle in surface pixels.
type Rect struct {
	X, Y, Width, Height int
}

func (r *RegisterStore) rectPair(h, v uint32) Rect {
	hv, vv := r.Raw(h), r.Raw(v)
	return Rect{X: int(lo16(hv)), Y: int(lo16(vv)), Width: int(hi16(hv)), Height: int(hi16(vv))}
}

func (r *RegisterStore) Viewport() Rect {
	return r.rectPair(NV4097_SET_VIEWPORT_HORIZONTAL, NV4097_SET_VIEWPORT_VERTICAL)
}

func (r *RegisterStore) Scissor() Rect {
	return r.rectPair(NV4097_SET_SCISSOR_HORIZONTAL, NV4097_SET_SCISSOR_VERTICAL)
}

func (r *RegisterStore) SurfaceClip() Rect {
	return r.rectPair(NV4097_SET_SURFACE_CLIP_HORIZONTAL, NV4097_SET_SURFACE_CLIP_VERTICAL)
}

func (r *RegisterStore) ViewportScale() [4]float32 {
	var out [4]float32
	for i := range out {
		out[i] = r.Float(NV4097_SET_VIEWPORT_SCALE + uint32(i))
	}
	return out
}

func (r *RegisterStore) ViewportOffset() [4]float32 {
	var out [4]float32
	for i := range out {
		out[i] = r.Float(NV4097_SET_VIEWPORT_OFFSET + uint32(i))
	}
	return out
}

// VertexArray returns the decoded format and offset of attribute attr.
func (r *RegisterStore) VertexArray(attr uint32) (VertexFormatView, VertexOffsetView) {
	typ, size, stride, freq := decodeVertexFormat(r.Raw(NV4097_SET_VERTEX_DATA_ARRAY_FORMAT + attr))
	offset, loc := decodeVertexOffset(r.Raw(NV4097_SET_VERTEX_DATA_ARRAY_OFFSET + attr))
	return VertexFormatView{Type: typ, Size: size, Stride: stride, Frequency: freq},
		VertexOffsetView{Offset: offset, Location: loc}
}

func (r *RegisterStore) IndexArray() (offset uint32, loc Location, typ uint32) {
	loc, typ = decodeIndexDMA(r.Raw(NV4097_SET_INDEX_ARRAY_DMA))
	return r.Raw(NV4097_SET_INDEX_ARRAY_ADDRESS), loc, typ
}
