// rsx_reset.go - Hardware reset baseline

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

import "math"

type registerDefault struct {
	op, value uint32
}

// Values the 3D object holds after a context reset. Cells not listed reset
// to zero.
var resetBaseline = []registerDefault{
	{NV4097_SET_SURFACE_CLIP_HORIZONTAL, 4096 << 16},
	{NV4097_SET_SURFACE_CLIP_VERTICAL, 4096 << 16},
	{NV4097_SET_SURFACE_COLOR_TARGET, RSX_SURFACE_TARGET_A},
	{NV4097_SET_SURFACE_FORMAT, encodeSurfaceFormat(8, RSX_SURFACE_DEPTH_Z24S8, 1, 0, 0)},
	{NV4097_SET_CONTEXT_DMA_COLOR_A, RSX_CONTEXT_DMA_LOCAL},
	{NV4097_SET_CONTEXT_DMA_ZETA, RSX_CONTEXT_DMA_LOCAL},

	{NV4097_SET_ALPHA_FUNC, RSX_COMPARE_ALWAYS},
	{NV4097_SET_BLEND_FUNC_SFACTOR, RSX_BLEND_ONE<<16 | RSX_BLEND_ONE},
	{NV4097_SET_BLEND_FUNC_DFACTOR, RSX_BLEND_ZERO<<16 | RSX_BLEND_ZERO},
	{NV4097_SET_BLEND_EQUATION, RSX_BLEND_EQUATION_ADD<<16 | RSX_BLEND_EQUATION_ADD},
	{NV4097_SET_COLOR_MASK, RSX_COLOR_MASK_R | RSX_COLOR_MASK_G | RSX_COLOR_MASK_B | RSX_COLOR_MASK_A},

	{NV4097_SET_STENCIL_MASK, 0xFF},
	{NV4097_SET_STENCIL_FUNC, RSX_COMPARE_ALWAYS},
	{NV4097_SET_STENCIL_FUNC_MASK, 0xFF},
	{NV4097_SET_STENCIL_OP_FAIL, RSX_STENCIL_KEEP},
	{NV4097_SET_STENCIL_OP_ZFAIL, RSX_STENCIL_KEEP},
	{NV4097_SET_STENCIL_OP_ZPASS, RSX_STENCIL_KEEP},
	{NV4097_SET_SHADE_MODE, RSX_SHADE_SMOOTH},

	{NV4097_SET_SCISSOR_HORIZONTAL, 4096 << 16},
	{NV4097_SET_SCISSOR_VERTICAL, 4096 << 16},
	{NV4097_SET_VIEWPORT_HORIZONTAL, 4096 << 16},
	{NV4097_SET_VIEWPORT_VERTICAL, 4096 << 16},
	{NV4097_SET_VIEWPORT_SCALE + 0, math.Float32bits(1)},
	{NV4097_SET_VIEWPORT_SCALE + 1, math.Float32bits(1)},
	{NV4097_SET_VIEWPORT_SCALE + 2, math.Float32bits(1)},
	{NV4097_SET_DEPTH_FUNC, RSX_COMPARE_LESS},
	{NV4097_SET_DEPTH_MASK, 1},

	{NV4097_SET_FRONT_POLYGON_MODE, RSX_POLYGON_MODE_FILL},
	{NV4097_SET_BACK_POLYGON_MODE, RSX_POLYGON_MODE_FILL},
	{NV4097_SET_CULL_FACE, RSX_CULL_BACK},
	{NV4097_SET_FRONT_FACE, RSX_FRONT_FACE_CCW},
	{NV4097_SET_INDEX_ARRAY_DMA, encodeIndexDMA(LocationLocal, RSX_INDEX_TYPE_U32)},

	{NV4097_SET_RESTART_INDEX, 0xFFFFFFFF},
	{NV4097_SET_LINE_WIDTH, 1 << 3},
	{NV4097_SET_VERTEX_ATTRIB_INPUT_MASK, 0xFFFF},
	{NV4097_SET_VERTEX_ATTRIB_OUTPUT_MASK, 0xFFFFFFFF},
}

// applyResetBaseline clears the register file and writes the baseline.
// Vertex array formats reset to float, size 0 (disabled).
func applyResetBaseline(regs *RegisterStore) {
	regs.Clear()
	for _, d := range resetBaseline {
		regs.Decode(d.op, d.value)
	}
	for attr := uint32(0); attr < RSX_VERTEX_ATTRIBUTES; attr++ {
		regs.Decode(NV4097_SET_VERTEX_DATA_ARRAY_FORMAT+attr, encodeVertexFormat(VertexTypeF, 0, 0, 0))
	}
	regs.previous = 0
}
