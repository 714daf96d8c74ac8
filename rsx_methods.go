// rsx_methods.go - Method dispatch table

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
rsx_methods.go - Method Dispatch

methodTable maps every register index to a handler. It is built once at
start-up. Families (per texture unit, per vertex attribute, upload windows)
get one closure per unit with the unit bound at construction, so handlers
never decode the unit from the method index.

Slots with no known method keep invalidMethod: the write is dropped, logged,
and the rest of the packet is skipped.

Handler shapes:
  - store: decode, mark dirty when the value changed
  - validated: decode, roll back and recover when the value is outside the
    register's domain
  - deferrable: decode, and inside a bracket that already has a range turn
    the write into an execution barrier for the next range
*/

package main

import (
	"fmt"
	"math"
)

type methodHandler func(p *Processor, op, arg uint32)

var methodTable [RSX_REGISTER_COUNT]methodHandler

func init() {
	populateMethodTable(&methodTable)
}

func invalidMethod(p *Processor, op, arg uint32) {
	p.stats.InvalidMethods++
	p.log.Warn("rsx: invalid method",
		"method", fmt.Sprintf("0x%04X", op<<2), "arg", fmt.Sprintf("0x%08X", arg), "pos", p.pos)
	p.requestRecovery()
}

func nopMethod(*Processor, uint32, uint32) {}

func store(flags DirtyFlags) methodHandler {
	return func(p *Processor, op, arg uint32) {
		if p.regs.Decode(op, arg) != arg {
			p.markDirty(flags)
		}
	}
}

func validated(valid func(uint32) bool, flags DirtyFlags) methodHandler {
	return func(p *Processor, op, arg uint32) {
		prev := p.regs.Decode(op, arg)
		if !valid(arg) {
			p.rejectArgument(op, arg)
			return
		}
		if prev != arg {
			p.markDirty(flags)
		}
	}
}

func deferrable(flags DirtyFlags) methodHandler {
	return func(p *Processor, op, arg uint32) {
		prev := p.regs.Decode(op, arg)
		if p.clause.State() == ClauseAccumulating && p.clause.HasRanges() {
			p.regs.Rollback(op)
			p.clause.InsertExecutionBarrier(op, arg)
			p.stats.Deferred++
			return
		}
		if prev != arg {
			p.markDirty(flags)
		}
	}
}

func populateMethodTable(t *[RSX_REGISTER_COUNT]methodHandler) {
	for i := range t {
		t[i] = invalidMethod
	}
	bind := func(h methodHandler, ops ...uint32) {
		for _, op := range ops {
			t[op] = h
		}
	}

	bind(nopMethod, NV4097_NO_OPERATION)
	bind(store(0), NV4097_NOTIFY, NV4097_SET_COLOR_CLEAR_VALUE, NV4097_SET_ZSTENCIL_CLEAR_VALUE,
		NV4097_SET_TRANSFORM_PROGRAM_LOAD, NV4097_SET_TRANSFORM_CONSTANT_LOAD)
	bind(waitForIdleMethod, NV4097_WAIT_FOR_IDLE)
	bind(setReferenceMethod, NV406E_SET_REFERENCE)

	// Surface
	bind(store(DirtySurface),
		NV4097_SET_CONTEXT_DMA_COLOR_A, NV4097_SET_CONTEXT_DMA_ZETA,
		NV4097_SET_SURFACE_CLIP_HORIZONTAL, NV4097_SET_SURFACE_CLIP_VERTICAL,
		NV4097_SET_SURFACE_FORMAT, NV4097_SET_SURFACE_PITCH_A, NV4097_SET_SURFACE_PITCH_Z,
		NV4097_SET_SURFACE_COLOR_AOFFSET, NV4097_SET_SURFACE_ZETA_OFFSET)
	bind(validated(validEnum(surfaceTargetNames), DirtySurface), NV4097_SET_SURFACE_COLOR_TARGET)

	// Blend and alpha
	bind(store(DirtyBlend), NV4097_SET_BLEND_ENABLE, NV4097_SET_BLEND_COLOR, NV4097_SET_COLOR_MASK,
		NV4097_SET_ALPHA_TEST_ENABLE, NV4097_SET_ALPHA_REF)
	bind(validated(validEnumPair(blendFactorNames), DirtyBlend), NV4097_SET_BLEND_FUNC_SFACTOR, NV4097_SET_BLEND_FUNC_DFACTOR)
	bind(validated(validEnumPair(blendEquationNames), DirtyBlend), NV4097_SET_BLEND_EQUATION)
	bind(validated(validEnum(compareNames), DirtyBlend), NV4097_SET_ALPHA_FUNC)

	// Depth and stencil
	bind(store(DirtyDepthStencil), NV4097_SET_DEPTH_TEST_ENABLE, NV4097_SET_DEPTH_MASK,
		NV4097_SET_STENCIL_TEST_ENABLE, NV4097_SET_STENCIL_MASK,
		NV4097_SET_STENCIL_FUNC_REF, NV4097_SET_STENCIL_FUNC_MASK)
	bind(validated(validEnum(compareNames), DirtyDepthStencil), NV4097_SET_DEPTH_FUNC, NV4097_SET_STENCIL_FUNC)
	bind(validated(validEnum(stencilOpNames), DirtyDepthStencil),
		NV4097_SET_STENCIL_OP_FAIL, NV4097_SET_STENCIL_OP_ZFAIL, NV4097_SET_STENCIL_OP_ZPASS)

	// Rasterizer
	bind(store(DirtyRasterizer), NV4097_SET_CULL_FACE_ENABLE, NV4097_SET_LINE_WIDTH,
		NV4097_SET_RESTART_INDEX_ENABLE, NV4097_SET_RESTART_INDEX)
	bind(validated(validEnum(shadeModeNames), DirtyRasterizer), NV4097_SET_SHADE_MODE)
	bind(validated(validEnum(cullFaceNames), DirtyRasterizer), NV4097_SET_CULL_FACE)
	bind(validated(validEnum(frontFaceNames), DirtyRasterizer), NV4097_SET_FRONT_FACE)
	bind(validated(validEnum(polygonModeNames), DirtyRasterizer), NV4097_SET_FRONT_POLYGON_MODE, NV4097_SET_BACK_POLYGON_MODE)

	// Viewport and scissor
	bind(store(DirtyViewport), NV4097_SET_VIEWPORT_HORIZONTAL, NV4097_SET_VIEWPORT_VERTICAL,
		NV4097_SET_SCISSOR_HORIZONTAL, NV4097_SET_SCISSOR_VERTICAL)
	for i := uint32(0); i < 4; i++ {
		bind(store(DirtyViewport), NV4097_SET_VIEWPORT_OFFSET+i, NV4097_SET_VIEWPORT_SCALE+i)
	}

	// Programs
	bind(validated(func(v uint32) bool {
		_, _, ok := decodeProgramLocation(v)
		return ok
	}, DirtyFragmentProgram), NV4097_SET_SHADER_PROGRAM)
	bind(store(DirtyFragmentProgram), NV4097_SET_SHADER_CONTROL)
	bind(store(DirtyVertexProgram), NV4097_SET_TRANSFORM_PROGRAM_START, NV4097_SET_VERTEX_ATTRIB_OUTPUT_MASK)
	bind(store(DirtyVertexLayout), NV4097_SET_VERTEX_ATTRIB_INPUT_MASK)
	for i := uint32(0); i < RSX_METHOD_WINDOW; i++ {
		t[NV4097_SET_TRANSFORM_PROGRAM+i] = transformProgramMethod(i)
		t[NV4097_SET_TRANSFORM_CONSTANT+i] = transformConstantMethod(i)
	}

	// Vertex arrays
	bind(deferrable(DirtyVertexBase), NV4097_SET_VERTEX_DATA_BASE_OFFSET, NV4097_SET_VERTEX_DATA_BASE_INDEX)
	for attr := uint32(0); attr < RSX_VERTEX_ATTRIBUTES; attr++ {
		t[NV4097_SET_VERTEX_DATA_ARRAY_OFFSET+attr] = deferrable(DirtyVertexLayout)
		t[NV4097_SET_VERTEX_DATA_ARRAY_FORMAT+attr] = validated(validVertexFormat, DirtyVertexLayout)
	}
	bind(store(DirtyIndexArray), NV4097_SET_INDEX_ARRAY_ADDRESS)
	bind(validated(validIndexDMA, DirtyIndexArray), NV4097_SET_INDEX_ARRAY_DMA)

	// Draw commands
	bind(beginEndMethod, NV4097_SET_BEGIN_END)
	bind(drawArraysMethod, NV4097_DRAW_ARRAYS)
	bind(drawIndexArrayMethod, NV4097_DRAW_INDEX_ARRAY)
	bind(inlineArrayMethod, NV4097_INLINE_ARRAY)
	bind(arrayElement16Method, NV4097_ARRAY_ELEMENT16)
	bind(arrayElement32Method, NV4097_ARRAY_ELEMENT32)
	bind(clearSurfaceMethod, NV4097_CLEAR_SURFACE)

	// Immediate vertex data families
	for attr := uint32(0); attr < RSX_VERTEX_ATTRIBUTES; attr++ {
		for _, f := range vertexDataFamilies {
			for c := range f.Words() {
				t[f.Cell(attr, c)] = vertexDataMethod(attr, c, f)
			}
		}
	}

	// Texture units
	for unit := uint32(0); unit < RSX_TEXTURE_UNITS; unit++ {
		base := unit * RSX_TEXTURE_UNIT_STRIDE
		bind(store(DirtyTexture(unit)),
			NV4097_SET_TEXTURE_OFFSET+base, NV4097_SET_TEXTURE_FORMAT+base,
			NV4097_SET_TEXTURE_ADDRESS+base, NV4097_SET_TEXTURE_CONTROL0+base,
			NV4097_SET_TEXTURE_CONTROL1+base, NV4097_SET_TEXTURE_FILTER+base,
			NV4097_SET_TEXTURE_IMAGE_RECT+base, NV4097_SET_TEXTURE_BORDER_COLOR+base)
	}
}

func validVertexFormat(v uint32) bool {
	typ, size, _, _ := decodeVertexFormat(v)
	return typ.Valid() && size <= RSX_MAX_VERTEX_WORDS
}

func validIndexDMA(v uint32) bool {
	loc, typ := decodeIndexDMA(v)
	return loc <= LocationMain && typ <= RSX_INDEX_TYPE_U16 && v>>8 == 0
}

// =============================================================================
// Draw commands
// =============================================================================

func beginEndMethod(p *Processor, op, arg uint32) {
	p.regs.Decode(op, arg)
	if arg == RSX_PRIMITIVE_NONE {
		if p.degenerate {
			p.degenerate = false
			p.log.Warn("rsx: end of bracket with invalid primitive", "pos", p.pos)
			p.requestRecovery()
			return
		}
		if p.clause.State() != ClauseAccumulating {
			p.log.Warn("rsx: end without begin", "pos", p.pos)
			p.requestRecovery()
			return
		}
		p.endClause()
		return
	}
	if _, ok := primitiveNames[arg]; !ok {
		p.rejectArgument(op, arg)
		if p.clause.State() == ClauseAccumulating {
			p.endClause()
		}
		p.degenerate = true
		return
	}
	p.beginClause(arg)
}

func drawMethod(cmd DrawCommand) methodHandler {
	return func(p *Processor, op, arg uint32) {
		p.regs.Decode(op, arg)
		if !p.useCommand(cmd) {
			return
		}
		first, count := decodeDrawArgs(arg)
		p.clause.Append(first, count)
	}
}

var (
	drawArraysMethod     = drawMethod(DrawCommandArray)
	drawIndexArrayMethod = drawMethod(DrawCommandIndexed)
)

func inlineArrayMethod(p *Processor, op, arg uint32) {
	p.regs.Decode(op, arg)
	if !p.useCommand(DrawCommandInlined) {
		return
	}
	p.inline = append(p.inline, arg)
}

func arrayElement16Method(p *Processor, op, arg uint32) {
	p.regs.Decode(op, arg)
	if !p.useCommand(DrawCommandArrayElements) {
		return
	}
	p.elements = append(p.elements, uint32(lo16(arg)), uint32(hi16(arg)))
}

func arrayElement32Method(p *Processor, op, arg uint32) {
	p.regs.Decode(op, arg)
	if !p.useCommand(DrawCommandArrayElements) {
		return
	}
	p.elements = append(p.elements, arg)
}

// vertexDataMethod binds one word of one immediate attribute register.
// Attribute 0 provokes a vertex when its last word is written. The
// accumulator sees the word before it lands in the cell, so back-fill
// reads the value held before this write.
func vertexDataMethod(attr, sub uint32, f vertexDataFamily) methodHandler {
	last := f.Words() - 1
	return func(p *Processor, op, arg uint32) {
		captured := p.clause.State() == ClauseAccumulating && p.useCommand(DrawCommandImmediate)
		if captured {
			p.immediate.Set(attr, p.immediateVertex, sub, f.Type, f.Size, arg)
		}
		p.regs.Decode(op, arg)
		p.vertexFamily[attr] = f.Base
		if captured && attr == 0 && sub == last {
			p.immediateVertex++
		}
	}
}

// =============================================================================
// Clears and synchronisation
// =============================================================================

func clearSurfaceMethod(p *Processor, op, arg uint32) {
	p.regs.Decode(op, arg)
	if arg&^RSX_CLEAR_VALID_MASK != 0 {
		p.rejectArgument(op, arg)
		return
	}
	a, r, g, b := decodeARGB(p.regs.Raw(NV4097_SET_COLOR_CLEAR_VALUE))
	depth, stencil := decodeZStencilClear(p.regs.Raw(NV4097_SET_ZSTENCIL_CLEAR_VALUE))
	p.deliverDirty()
	p.stats.Clears++
	p.backend.ClearSurface(ClearOp{
		Mask:    arg,
		Color:   ColorView{A: a, R: r, G: g, B: b},
		Depth:   depth,
		Stencil: stencil,
		Scissor: p.regs.Scissor(),
	})
}

func waitForIdleMethod(p *Processor, op, arg uint32) {
	p.regs.Decode(op, arg)
	p.waitForIdle(op)
}

func setReferenceMethod(p *Processor, op, arg uint32) {
	if !p.waitForIdle(op) {
		return
	}
	p.regs.Decode(op, arg)
	p.reference = arg
}

// =============================================================================
// Transform program and constant uploads
// =============================================================================

// transformProgramMethod handles window slot index. Words land at
// load*4 + index%4; every fourth word advances the load cursor. The rest
// of an incrementing packet is consumed here in one pass.
func transformProgramMethod(index uint32) methodHandler {
	return func(p *Processor, op, arg uint32) {
		p.regs.Decode(op, arg)
		if !p.writeMicrocode(op, index, arg) {
			return
		}
		p.bulkUpload(index, NV4097_SET_TRANSFORM_PROGRAM, p.writeMicrocode)
	}
}

func transformConstantMethod(index uint32) methodHandler {
	return func(p *Processor, op, arg uint32) {
		p.regs.Decode(op, arg)
		if !p.writeConstant(op, index, arg) {
			return
		}
		p.bulkUpload(index, NV4097_SET_TRANSFORM_CONSTANT, p.writeConstant)
	}
}

func (p *Processor) bulkUpload(index, base uint32, write func(op, index, word uint32) bool) {
	if p.stream == nil {
		return
	}
	n := min(p.stream.Remaining(), int(RSX_METHOD_WINDOW-1-index))
	if n <= 0 {
		return
	}
	words, err := p.stream.Take(n)
	if err != nil {
		p.halt(&CommandError{Op: "bulk upload", Method: base + index, Pos: p.pos, Err: err})
		return
	}
	for i, w := range words {
		slot := index + 1 + uint32(i)
		p.regs.Decode(base+slot, w)
		if !write(base+slot, slot, w) {
			return
		}
	}
}

func (p *Processor) writeMicrocode(op, index, word uint32) bool {
	load := p.regs.Raw(NV4097_SET_TRANSFORM_PROGRAM_LOAD)
	slot := uint64(load)*4 + uint64(index%4)
	if slot >= uint64(len(p.microcode)) {
		p.rejectArgument(op, word)
		return false
	}
	p.microcode[slot] = word
	if index%4 == 3 {
		p.regs.Decode(NV4097_SET_TRANSFORM_PROGRAM_LOAD, load+1)
	}
	p.markDirty(DirtyVertexProgram)
	return true
}

func (p *Processor) writeConstant(op, index, word uint32) bool {
	load := p.regs.Raw(NV4097_SET_TRANSFORM_CONSTANT_LOAD)
	slot := uint64(load)*4 + uint64(index)
	if slot >= uint64(len(p.constants)) {
		p.rejectArgument(op, word)
		return false
	}
	p.constants[slot] = word
	p.markDirty(DirtyTransformConstants)
	return true
}

// ConstantVec4 returns transform constant slot i as floats.
func (p *Processor) ConstantVec4(i int) [4]float32 {
	var out [4]float32
	for c := range out {
		out[c] = math.Float32frombits(p.constants[i*4+c])
	}
	return out
}
