// rsx_translate.go - Emulated register values to portable GPU pipeline types

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
rsx_translate.go - Pipeline Translation

Converts NV4097 enumerations held in the register file into the portable
gputypes vocabulary backends speak. Fans, quads, quad strips and polygons
have no portable topology: they translate to TriangleList and the backend
expands them (see expandPrimitive in rsx_software.go). Line loops become
line strips closed by the backend.

Unknown values translate to the hardware reset default; the register
handlers reject them before they reach the file, so this only matters for
snapshots loaded from elsewhere.
*/

package main

import (
	"github.com/gogpu/gputypes"
)

func primitiveTopology(prim uint32) gputypes.PrimitiveTopology {
	switch prim {
	case RSX_PRIMITIVE_POINTS:
		return gputypes.PrimitiveTopologyPointList
	case RSX_PRIMITIVE_LINES:
		return gputypes.PrimitiveTopologyLineList
	case RSX_PRIMITIVE_LINE_STRIP, RSX_PRIMITIVE_LINE_LOOP:
		return gputypes.PrimitiveTopologyLineStrip
	case RSX_PRIMITIVE_TRIANGLE_STRIP:
		return gputypes.PrimitiveTopologyTriangleStrip
	}
	return gputypes.PrimitiveTopologyTriangleList
}

func compareFunction(v uint32) gputypes.CompareFunction {
	switch v {
	case RSX_COMPARE_NEVER:
		return gputypes.CompareFunctionNever
	case RSX_COMPARE_LESS:
		return gputypes.CompareFunctionLess
	case RSX_COMPARE_EQUAL:
		return gputypes.CompareFunctionEqual
	case RSX_COMPARE_LEQUAL:
		return gputypes.CompareFunctionLessEqual
	case RSX_COMPARE_GREATER:
		return gputypes.CompareFunctionGreater
	case RSX_COMPARE_NOTEQUAL:
		return gputypes.CompareFunctionNotEqual
	case RSX_COMPARE_GEQUAL:
		return gputypes.CompareFunctionGreaterEqual
	}
	return gputypes.CompareFunctionAlways
}

// blendFactor maps a factor. Constant colour and constant alpha both use
// the single portable blend constant.
func blendFactor(v uint32) gputypes.BlendFactor {
	switch v {
	case RSX_BLEND_ZERO:
		return gputypes.BlendFactorZero
	case RSX_BLEND_ONE:
		return gputypes.BlendFactorOne
	case RSX_BLEND_SRC_COLOR:
		return gputypes.BlendFactorSrc
	case RSX_BLEND_ONE_MINUS_SRC_COLOR:
		return gputypes.BlendFactorOneMinusSrc
	case RSX_BLEND_SRC_ALPHA:
		return gputypes.BlendFactorSrcAlpha
	case RSX_BLEND_ONE_MINUS_SRC_ALPHA:
		return gputypes.BlendFactorOneMinusSrcAlpha
	case RSX_BLEND_DST_ALPHA:
		return gputypes.BlendFactorDstAlpha
	case RSX_BLEND_ONE_MINUS_DST_ALPHA:
		return gputypes.BlendFactorOneMinusDstAlpha
	case RSX_BLEND_DST_COLOR:
		return gputypes.BlendFactorDst
	case RSX_BLEND_ONE_MINUS_DST_COLOR:
		return gputypes.BlendFactorOneMinusDst
	case RSX_BLEND_SRC_ALPHA_SATURATE:
		return gputypes.BlendFactorSrcAlphaSaturated
	case RSX_BLEND_CONSTANT_COLOR, RSX_BLEND_CONSTANT_ALPHA:
		return gputypes.BlendFactorConstant
	case RSX_BLEND_ONE_MINUS_CONSTANT_COLOR, RSX_BLEND_ONE_MINUS_CONSTANT_ALPHA:
		return gputypes.BlendFactorOneMinusConstant
	}
	return gputypes.BlendFactorOne
}

func blendOperation(v uint32) gputypes.BlendOperation {
	switch v {
	case RSX_BLEND_EQUATION_MIN:
		return gputypes.BlendOperationMin
	case RSX_BLEND_EQUATION_MAX:
		return gputypes.BlendOperationMax
	case RSX_BLEND_EQUATION_SUBTRACT:
		return gputypes.BlendOperationSubtract
	case RSX_BLEND_EQUATION_REVERSE_SUBTRACT:
		return gputypes.BlendOperationReverseSubtract
	}
	return gputypes.BlendOperationAdd
}

func stencilOperation(v uint32) gputypes.StencilOperation {
	switch v {
	case RSX_STENCIL_ZERO:
		return gputypes.StencilOperationZero
	case RSX_STENCIL_INVERT:
		return gputypes.StencilOperationInvert
	case RSX_STENCIL_REPLACE:
		return gputypes.StencilOperationReplace
	case RSX_STENCIL_INCR:
		return gputypes.StencilOperationIncrementClamp
	case RSX_STENCIL_DECR:
		return gputypes.StencilOperationDecrementClamp
	case RSX_STENCIL_INCR_WRAP:
		return gputypes.StencilOperationIncrementWrap
	case RSX_STENCIL_DECR_WRAP:
		return gputypes.StencilOperationDecrementWrap
	}
	return gputypes.StencilOperationKeep
}

// cullMode has no portable front-and-back mode; it culls front faces and
// the software backend drops the rest through PipelineState.CullBoth.
func cullMode(enabled bool, face uint32) gputypes.CullMode {
	if !enabled {
		return gputypes.CullModeNone
	}
	switch face {
	case RSX_CULL_FRONT, RSX_CULL_FRONT_AND_BACK:
		return gputypes.CullModeFront
	}
	return gputypes.CullModeBack
}

func frontFace(v uint32) gputypes.FrontFace {
	if v == RSX_FRONT_FACE_CW {
		return gputypes.FrontFaceCW
	}
	return gputypes.FrontFaceCCW
}

func indexFormat(typ uint32) gputypes.IndexFormat {
	if typ == RSX_INDEX_TYPE_U16 {
		return gputypes.IndexFormatUint16
	}
	return gputypes.IndexFormatUint32
}

func colorWriteMask(v uint32) gputypes.ColorWriteMask {
	r, g, b, a := decodeColorMask(v)
	var m gputypes.ColorWriteMask
	if r {
		m |= gputypes.ColorWriteMaskRed
	}
	if g {
		m |= gputypes.ColorWriteMaskGreen
	}
	if b {
		m |= gputypes.ColorWriteMaskBlue
	}
	if a {
		m |= gputypes.ColorWriteMaskAlpha
	}
	return m
}

func depthFormat(surfaceFormat uint32) gputypes.TextureFormat {
	_, depth, _, _, _ := decodeSurfaceFormat(surfaceFormat)
	if depth == RSX_SURFACE_DEPTH_Z16 {
		return gputypes.TextureFormatDepth16Unorm
	}
	return gputypes.TextureFormatDepth24PlusStencil8
}

// vertexFormat maps an array format to its portable equivalent, or
// VertexFormatUndefined when none exists (three-component 8 and 16 bit
// vectors, single 16 bit values).
func vertexFormat(typ VertexBaseType, size uint32) gputypes.VertexFormat {
	switch typ {
	case VertexTypeF:
		switch size {
		case 1:
			return gputypes.VertexFormatFloat32
		case 2:
			return gputypes.VertexFormatFloat32x2
		case 3:
			return gputypes.VertexFormatFloat32x3
		case 4:
			return gputypes.VertexFormatFloat32x4
		}
	case VertexTypeUB:
		if size == 4 {
			return gputypes.VertexFormatUnorm8x4
		}
		if size == 2 {
			return gputypes.VertexFormatUnorm8x2
		}
	case VertexTypeUB256:
		if size == 4 {
			return gputypes.VertexFormatUint8x4
		}
		if size == 2 {
			return gputypes.VertexFormatUint8x2
		}
	case VertexTypeS1:
		if size == 4 {
			return gputypes.VertexFormatSnorm16x4
		}
		if size == 2 {
			return gputypes.VertexFormatSnorm16x2
		}
	case VertexTypeS32K:
		if size == 4 {
			return gputypes.VertexFormatSint16x4
		}
		if size == 2 {
			return gputypes.VertexFormatSint16x2
		}
	case VertexTypeSF:
		if size == 4 {
			return gputypes.VertexFormatFloat16x4
		}
		if size == 2 {
			return gputypes.VertexFormatFloat16x2
		}
	case VertexTypeCMP:
		return gputypes.VertexFormatUnorm1010102
	}
	return gputypes.VertexFormatUndefined
}

func stencilFace(regs *RegisterStore) gputypes.StencilFaceState {
	return gputypes.StencilFaceState{
		Compare:     compareFunction(regs.Raw(NV4097_SET_STENCIL_FUNC)),
		FailOp:      stencilOperation(regs.Raw(NV4097_SET_STENCIL_OP_FAIL)),
		DepthFailOp: stencilOperation(regs.Raw(NV4097_SET_STENCIL_OP_ZFAIL)),
		PassOp:      stencilOperation(regs.Raw(NV4097_SET_STENCIL_OP_ZPASS)),
	}
}

// pipelineState snapshots the fixed-function state for a submission.
func pipelineState(regs *RegisterStore, prim uint32) PipelineState {
	src := regs.Raw(NV4097_SET_BLEND_FUNC_SFACTOR)
	dst := regs.Raw(NV4097_SET_BLEND_FUNC_DFACTOR)
	eq := regs.Raw(NV4097_SET_BLEND_EQUATION)
	a, r, g, b := decodeARGB(regs.Raw(NV4097_SET_BLEND_COLOR))

	face := stencilFace(regs)
	ps := PipelineState{
		Primitive: gputypes.PrimitiveState{
			Topology:  primitiveTopology(prim),
			FrontFace: frontFace(regs.Raw(NV4097_SET_FRONT_FACE)),
			CullMode:  cullMode(regs.Raw(NV4097_SET_CULL_FACE_ENABLE) != 0, regs.Raw(NV4097_SET_CULL_FACE)),
		},
		BlendEnabled: regs.Raw(NV4097_SET_BLEND_ENABLE) != 0,
		Blend: gputypes.BlendState{
			Color: gputypes.BlendComponent{
				SrcFactor: blendFactor(uint32(lo16(src))),
				DstFactor: blendFactor(uint32(lo16(dst))),
				Operation: blendOperation(uint32(lo16(eq))),
			},
			Alpha: gputypes.BlendComponent{
				SrcFactor: blendFactor(uint32(hi16(src))),
				DstFactor: blendFactor(uint32(hi16(dst))),
				Operation: blendOperation(uint32(hi16(eq))),
			},
		},
		BlendColor: gputypes.Color{
			R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255, A: float64(a) / 255,
		},
		WriteMask: colorWriteMask(regs.Raw(NV4097_SET_COLOR_MASK)),
		DepthTest: regs.Raw(NV4097_SET_DEPTH_TEST_ENABLE) != 0,
		DepthStencil: gputypes.DepthStencilState{
			Format:            depthFormat(regs.Raw(NV4097_SET_SURFACE_FORMAT)),
			DepthWriteEnabled: regs.Raw(NV4097_SET_DEPTH_MASK) != 0,
			DepthCompare:      compareFunction(regs.Raw(NV4097_SET_DEPTH_FUNC)),
			StencilFront:      face,
			StencilBack:       face,
			StencilReadMask:   regs.Raw(NV4097_SET_STENCIL_FUNC_MASK) & 0xFF,
			StencilWriteMask:  regs.Raw(NV4097_SET_STENCIL_MASK) & 0xFF,
		},
		StencilTest: regs.Raw(NV4097_SET_STENCIL_TEST_ENABLE) != 0,
		StencilRef:  uint8(regs.Raw(NV4097_SET_STENCIL_FUNC_REF)),
		AlphaTest:   regs.Raw(NV4097_SET_ALPHA_TEST_ENABLE) != 0,
		AlphaFunc:   compareFunction(regs.Raw(NV4097_SET_ALPHA_FUNC)),
		AlphaRef:    float32(regs.Raw(NV4097_SET_ALPHA_REF)&0xFF) / 255,
		FlatShade:   regs.Raw(NV4097_SET_SHADE_MODE) == RSX_SHADE_FLAT,
		Viewport:    regs.Viewport(),
		Scale:       regs.ViewportScale(),
		Offset:      regs.ViewportOffset(),
		Scissor:     regs.Scissor(),
		Surface:     regs.SurfaceClip(),
		ColorTarget: regs.Raw(NV4097_SET_SURFACE_COLOR_TARGET),
	}
	ps.CullBoth = ps.Primitive.CullMode != gputypes.CullModeNone && regs.Raw(NV4097_SET_CULL_FACE) == RSX_CULL_FRONT_AND_BACK
	return ps
}
