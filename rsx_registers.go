// rsx_registers.go - Register Store for the NV4097 3D object

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
rsx_registers.go - Register Store

The register file is a flat array of 32-bit cells addressed by method index.
The raw cell is the only stored state; every typed view is computed from the
cells on read (see rsx_views.go).

Decode overwrites a cell and returns the value it replaced. The replaced value
is also kept in a single previous-value slot so that the handler invoked right
after the write can roll the cell back. The slot is not a history: the next
Decode overwrites it.

Packed fields use small decode/encode pairs operating on plain integers.
*/

package main

import (
	"fmt"
	"math"
)

// RegisterStore holds the raw register cells of one emulated GPU context.
type RegisterStore struct {
	cells    [RSX_REGISTER_COUNT]uint32
	previous uint32
}

// Decode stores value in cell op and returns the previous contents.
// Indices outside the register file are dropped.
func (r *RegisterStore) Decode(op, value uint32) uint32 {
	if op >= RSX_REGISTER_COUNT {
		return 0
	}
	prev := r.cells[op]
	r.cells[op] = value
	r.previous = prev
	return prev
}

// Previous returns the value replaced by the most recent Decode.
func (r *RegisterStore) Previous() uint32 {
	return r.previous
}

// Rollback restores cell op to the value replaced by the most recent Decode.
// The caller must not have decoded another cell in between.
func (r *RegisterStore) Rollback(op uint32) {
	if op >= RSX_REGISTER_COUNT {
		return
	}
	r.cells[op] = r.previous
}

// Raw returns the contents of cell op.
func (r *RegisterStore) Raw(op uint32) uint32 {
	if op >= RSX_REGISTER_COUNT {
		return 0
	}
	return r.cells[op]
}

// Float returns cell op reinterpreted as an IEEE-754 single.
func (r *RegisterStore) Float(op uint32) float32 {
	return math.Float32frombits(r.Raw(op))
}

// Cells returns a copy of the register file.
func (r *RegisterStore) Cells() []uint32 {
	out := make([]uint32, RSX_REGISTER_COUNT)
	copy(out, r.cells[:])
	return out
}

// Load replaces the register file with cells.
func (r *RegisterStore) Load(cells []uint32) error {
	if len(cells) != RSX_REGISTER_COUNT {
		return fmt.Errorf("%w: %d register cells, want %d", ErrBadSnapshot, len(cells), RSX_REGISTER_COUNT)
	}
	copy(r.cells[:], cells)
	r.previous = 0
	return nil
}

// Clear zeroes every cell.
func (r *RegisterStore) Clear() {
	r.cells = [RSX_REGISTER_COUNT]uint32{}
	r.previous = 0
}

// =============================================================================
// Packed field helpers
// =============================================================================

func bitField(v uint32, shift, width uint) uint32 {
	return (v >> shift) & (1<<width - 1)
}

func setBitField(v uint32, shift, width uint, field uint32) uint32 {
	mask := uint32(1<<width-1) << shift
	return (v &^ mask) | ((field << shift) & mask)
}

// lo16/hi16 split the common "two 16-bit halves" encoding.
func lo16(v uint32) uint16 { return uint16(v) }
func hi16(v uint32) uint16 { return uint16(v >> 16) }

func encodeHalves(lo, hi uint16) uint32 {
	return uint32(lo) | uint32(hi)<<16
}

// Draw arguments pack first:24 and (count-1):8.
func decodeDrawArgs(v uint32) (first, count uint32) {
	return bitField(v, 0, 24), bitField(v, 24, 8) + 1
}

func encodeDrawArgs(first, count uint32) uint32 {
	if count == 0 || count > 256 {
		contractViolation("draw argument count %d outside 1..256", count)
		count = 1
	}
	return setBitField(first&0xFFFFFF, 24, 8, count-1)
}

// Vertex array formats pack type:4 | size:4 | stride:8 | frequency:16.
func decodeVertexFormat(v uint32) (typ VertexBaseType, size, stride, frequency uint32) {
	return VertexBaseType(bitField(v, 0, 4)), bitField(v, 4, 4), bitField(v, 8, 8), bitField(v, 16, 16)
}

func encodeVertexFormat(typ VertexBaseType, size, stride, frequency uint32) uint32 {
	v := setBitField(0, 0, 4, uint32(typ))
	v = setBitField(v, 4, 4, size)
	v = setBitField(v, 8, 8, stride)
	return setBitField(v, 16, 16, frequency)
}

// Vertex array offsets carry the location in bit 31.
func decodeVertexOffset(v uint32) (offset uint32, loc Location) {
	if v&RSX_VERTEX_OFFSET_LOCATION_BIT != 0 {
		loc = LocationMain
	}
	return v & RSX_VERTEX_OFFSET_MASK, loc
}

func encodeVertexOffset(offset uint32, loc Location) uint32 {
	v := offset & RSX_VERTEX_OFFSET_MASK
	if loc == LocationMain {
		v |= RSX_VERTEX_OFFSET_LOCATION_BIT
	}
	return v
}

// Index array DMA packs location:4 | type:4.
func decodeIndexDMA(v uint32) (loc Location, typ uint32) {
	return Location(bitField(v, 0, 4)), bitField(v, 4, 4)
}

func encodeIndexDMA(loc Location, typ uint32) uint32 {
	return setBitField(uint32(loc)&0xF, 4, 4, typ)
}

// Shader program and texture offsets keep location+1 in bits 0-1.
func decodeProgramLocation(v uint32) (offset uint32, loc Location, ok bool) {
	tag := v & 3
	if tag == 0 || tag == 3 {
		return v &^ 3, LocationLocal, false
	}
	return v &^ 3, Location(tag - 1), true
}

func encodeProgramLocation(offset uint32, loc Location) uint32 {
	return (offset &^ 3) | (uint32(loc) + 1)
}

// Colour values are ARGB8.
func decodeARGB(v uint32) (a, r, g, b uint8) {
	return uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v)
}

func encodeARGB(a, r, g, b uint8) uint32 {
	return uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

func decodeColorMask(v uint32) (r, g, b, a bool) {
	return v&RSX_COLOR_MASK_R != 0, v&RSX_COLOR_MASK_G != 0, v&RSX_COLOR_MASK_B != 0, v&RSX_COLOR_MASK_A != 0
}

func encodeColorMask(r, g, b, a bool) uint32 {
	var v uint32
	if r {
		v |= RSX_COLOR_MASK_R
	}
	if g {
		v |= RSX_COLOR_MASK_G
	}
	if b {
		v |= RSX_COLOR_MASK_B
	}
	if a {
		v |= RSX_COLOR_MASK_A
	}
	return v
}

// Depth/stencil clear value packs depth:24 | stencil:8.
func decodeZStencilClear(v uint32) (depth uint32, stencil uint8) {
	return v >> 8, uint8(v)
}

// Surface format: colour:5 | depth:3 | type:4 | (pad) | log2 width:8 | log2 height:8.
func decodeSurfaceFormat(v uint32) (color, depth, typ, log2w, log2h uint32) {
	return bitField(v, 0, 5), bitField(v, 5, 3), bitField(v, 8, 4), bitField(v, 16, 8), bitField(v, 24, 8)
}

func encodeSurfaceFormat(color, depth, typ, log2w, log2h uint32) uint32 {
	v := setBitField(0, 0, 5, color)
	v = setBitField(v, 5, 3, depth)
	v = setBitField(v, 8, 4, typ)
	v = setBitField(v, 16, 8, log2w)
	return setBitField(v, 24, 8, log2h)
}
