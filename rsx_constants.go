// rsx_constants.go - NV4097 3D object method offsets and hardware enumerations

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
rsx_constants.go - Command Processor Constants

Methods are listed as register indices: the byte offset used on the wire
divided by four. The byte offset is kept visible in every declaration so the
values can be checked against FIFO dumps.

Method families (one logical operation per unit) are declared as a base plus
a stride; the dispatch table expands them into one handler per unit.
*/

package main

import "time"

// Register file geometry
const (
	RSX_REGISTER_COUNT = 0x10000 >> 2 // Method space of the 3D object in cells

	RSX_TEXTURE_UNITS          = 16
	RSX_TEXTURE_UNIT_STRIDE    = 0x20 >> 2 // Cells per texture unit
	RSX_VERTEX_ATTRIBUTES      = 16
	RSX_METHOD_WINDOW          = 32        // Cells in the transform program / constant upload windows
	RSX_TRANSFORM_PROGRAM_SIZE = 512       // Vertex program instructions (4 words each)
	RSX_TRANSFORM_CONSTANTS    = 468       // Transform constant vec4 slots
	RSX_MAX_VERTEX_WORDS       = 4         // Widest immediate attribute in words
	RSX_IDLE_TIMEOUT           = 2 * time.Second
	RSX_DEFAULT_SURFACE_WIDTH  = 1280
	RSX_DEFAULT_SURFACE_HEIGHT = 720
)

// FIFO channel methods
const (
	NV406E_SET_REFERENCE = 0x0050 >> 2 // Wait for idle, then publish reference value
)

// Object control
const (
	NV4097_NO_OPERATION            = 0x0100 >> 2
	NV4097_NOTIFY                  = 0x0104 >> 2
	NV4097_WAIT_FOR_IDLE           = 0x0110 >> 2
	NV4097_SET_CONTEXT_DMA_COLOR_A = 0x0194 >> 2
	NV4097_SET_CONTEXT_DMA_ZETA    = 0x0198 >> 2
)

// Surface setup
const (
	NV4097_SET_SURFACE_CLIP_HORIZONTAL = 0x0200 >> 2 // x:16 | width:16
	NV4097_SET_SURFACE_CLIP_VERTICAL   = 0x0204 >> 2 // y:16 | height:16
	NV4097_SET_SURFACE_FORMAT          = 0x0208 >> 2
	NV4097_SET_SURFACE_PITCH_A         = 0x020C >> 2
	NV4097_SET_SURFACE_COLOR_AOFFSET   = 0x0210 >> 2
	NV4097_SET_SURFACE_ZETA_OFFSET     = 0x0214 >> 2
	NV4097_SET_SURFACE_COLOR_TARGET    = 0x0220 >> 2
	NV4097_SET_SURFACE_PITCH_Z         = 0x022C >> 2
)

// Fragment operations
const (
	NV4097_SET_ALPHA_TEST_ENABLE   = 0x0304 >> 2
	NV4097_SET_ALPHA_FUNC          = 0x0308 >> 2
	NV4097_SET_ALPHA_REF           = 0x030C >> 2
	NV4097_SET_BLEND_ENABLE        = 0x0310 >> 2
	NV4097_SET_BLEND_FUNC_SFACTOR  = 0x0314 >> 2 // rgb:16 | alpha:16
	NV4097_SET_BLEND_FUNC_DFACTOR  = 0x0318 >> 2 // rgb:16 | alpha:16
	NV4097_SET_BLEND_COLOR         = 0x031C >> 2 // ARGB8
	NV4097_SET_BLEND_EQUATION      = 0x0320 >> 2 // rgb:16 | alpha:16
	NV4097_SET_COLOR_MASK          = 0x0324 >> 2
	NV4097_SET_STENCIL_TEST_ENABLE = 0x0328 >> 2
	NV4097_SET_STENCIL_MASK        = 0x032C >> 2
	NV4097_SET_STENCIL_FUNC        = 0x0330 >> 2
	NV4097_SET_STENCIL_FUNC_REF    = 0x0334 >> 2
	NV4097_SET_STENCIL_FUNC_MASK   = 0x0338 >> 2
	NV4097_SET_STENCIL_OP_FAIL     = 0x033C >> 2
	NV4097_SET_STENCIL_OP_ZFAIL    = 0x0340 >> 2
	NV4097_SET_STENCIL_OP_ZPASS    = 0x0344 >> 2
	NV4097_SET_SHADE_MODE          = 0x0368 >> 2
)

// Viewport, scissor and programs
const (
	NV4097_SET_SCISSOR_HORIZONTAL  = 0x08C0 >> 2
	NV4097_SET_SCISSOR_VERTICAL    = 0x08C4 >> 2
	NV4097_SET_SHADER_PROGRAM      = 0x08E4 >> 2 // offset | location+1 in bits 0-1
	NV4097_SET_VIEWPORT_HORIZONTAL = 0x0A00 >> 2
	NV4097_SET_VIEWPORT_VERTICAL   = 0x0A04 >> 2
	NV4097_SET_VIEWPORT_OFFSET     = 0x0A20 >> 2 // 4 float cells
	NV4097_SET_VIEWPORT_SCALE      = 0x0A30 >> 2 // 4 float cells
	NV4097_SET_DEPTH_FUNC          = 0x0A6C >> 2
	NV4097_SET_DEPTH_MASK          = 0x0A70 >> 2
	NV4097_SET_DEPTH_TEST_ENABLE   = 0x0A74 >> 2
	NV4097_SET_TRANSFORM_PROGRAM   = 0x0B80 >> 2 // RSX_METHOD_WINDOW cells
)

// Vertex arrays and draw commands
const (
	NV4097_SET_VERTEX_DATA_ARRAY_OFFSET = 0x1680 >> 2 // RSX_VERTEX_ATTRIBUTES cells
	NV4097_SET_VERTEX_DATA_BASE_OFFSET  = 0x1738 >> 2
	NV4097_SET_VERTEX_DATA_BASE_INDEX   = 0x173C >> 2
	NV4097_SET_VERTEX_DATA_ARRAY_FORMAT = 0x1740 >> 2 // RSX_VERTEX_ATTRIBUTES cells

	NV4097_SET_BEGIN_END           = 0x1808 >> 2
	NV4097_ARRAY_ELEMENT16         = 0x180C >> 2
	NV4097_ARRAY_ELEMENT32         = 0x1810 >> 2
	NV4097_DRAW_ARRAYS             = 0x1814 >> 2 // first:24 | (count-1):8
	NV4097_INLINE_ARRAY            = 0x1818 >> 2
	NV4097_SET_INDEX_ARRAY_ADDRESS = 0x181C >> 2
	NV4097_SET_INDEX_ARRAY_DMA     = 0x1820 >> 2 // location:4 | type:4
	NV4097_DRAW_INDEX_ARRAY        = 0x1824 >> 2 // first:24 | (count-1):8
	NV4097_SET_FRONT_POLYGON_MODE  = 0x1828 >> 2
	NV4097_SET_BACK_POLYGON_MODE   = 0x182C >> 2
	NV4097_SET_CULL_FACE           = 0x1830 >> 2
	NV4097_SET_FRONT_FACE          = 0x1834 >> 2
	NV4097_SET_CULL_FACE_ENABLE    = 0x183C >> 2
)

// Immediate vertex data families (attribute stride in cells)
const (
	NV4097_SET_VERTEX_DATA2F_M  = 0x1880 >> 2 // 2 cells per attribute
	NV4097_SET_VERTEX_DATA2S_M  = 0x1900 >> 2 // 1 cell per attribute
	NV4097_SET_VERTEX_DATA4UB_M = 0x1940 >> 2 // 1 cell per attribute
	NV4097_SET_VERTEX_DATA4S_M  = 0x1980 >> 2 // 2 cells per attribute
	NV4097_SET_VERTEX_DATA4F_M  = 0x1C00 >> 2 // 4 cells per attribute
	NV4097_SET_VERTEX_DATA1F_M  = 0x1E40 >> 2 // 1 cell per attribute
)

// Texture unit family: base + unit*RSX_TEXTURE_UNIT_STRIDE
const (
	NV4097_SET_TEXTURE_OFFSET       = 0x1A00 >> 2
	NV4097_SET_TEXTURE_FORMAT       = 0x1A04 >> 2
	NV4097_SET_TEXTURE_ADDRESS      = 0x1A08 >> 2
	NV4097_SET_TEXTURE_CONTROL0     = 0x1A0C >> 2
	NV4097_SET_TEXTURE_CONTROL1     = 0x1A10 >> 2
	NV4097_SET_TEXTURE_FILTER       = 0x1A14 >> 2
	NV4097_SET_TEXTURE_IMAGE_RECT   = 0x1A18 >> 2
	NV4097_SET_TEXTURE_BORDER_COLOR = 0x1A1C >> 2
)

// Clears, restart and transform uploads
const (
	NV4097_SET_SHADER_CONTROL            = 0x1D60 >> 2
	NV4097_SET_ZSTENCIL_CLEAR_VALUE      = 0x1D8C >> 2 // depth:24 | stencil:8
	NV4097_SET_COLOR_CLEAR_VALUE         = 0x1D90 >> 2 // ARGB8
	NV4097_CLEAR_SURFACE                 = 0x1D94 >> 2
	NV4097_SET_RESTART_INDEX_ENABLE      = 0x1DAC >> 2
	NV4097_SET_RESTART_INDEX             = 0x1DB0 >> 2
	NV4097_SET_LINE_WIDTH                = 0x1DB8 >> 2
	NV4097_SET_TRANSFORM_PROGRAM_LOAD    = 0x1E9C >> 2
	NV4097_SET_TRANSFORM_PROGRAM_START   = 0x1EA0 >> 2
	NV4097_SET_TRANSFORM_CONSTANT_LOAD   = 0x1EFC >> 2
	NV4097_SET_TRANSFORM_CONSTANT        = 0x1F00 >> 2 // RSX_METHOD_WINDOW cells
	NV4097_SET_VERTEX_ATTRIB_INPUT_MASK  = 0x1FF0 >> 2
	NV4097_SET_VERTEX_ATTRIB_OUTPUT_MASK = 0x1FF4 >> 2
)

// Primitive types (NV4097_SET_BEGIN_END argument; 0 ends the bracket)
const (
	RSX_PRIMITIVE_NONE           = 0
	RSX_PRIMITIVE_POINTS         = 1
	RSX_PRIMITIVE_LINES          = 2
	RSX_PRIMITIVE_LINE_LOOP      = 3
	RSX_PRIMITIVE_LINE_STRIP     = 4
	RSX_PRIMITIVE_TRIANGLES      = 5
	RSX_PRIMITIVE_TRIANGLE_STRIP = 6
	RSX_PRIMITIVE_TRIANGLE_FAN   = 7
	RSX_PRIMITIVE_QUADS          = 8
	RSX_PRIMITIVE_QUAD_STRIP     = 9
	RSX_PRIMITIVE_POLYGON        = 10
)

// Comparison functions (depth, alpha, stencil)
const (
	RSX_COMPARE_NEVER    = 0x0200
	RSX_COMPARE_LESS     = 0x0201
	RSX_COMPARE_EQUAL    = 0x0202
	RSX_COMPARE_LEQUAL   = 0x0203
	RSX_COMPARE_GREATER  = 0x0204
	RSX_COMPARE_NOTEQUAL = 0x0205
	RSX_COMPARE_GEQUAL   = 0x0206
	RSX_COMPARE_ALWAYS   = 0x0207
)

// Blend factors
const (
	RSX_BLEND_ZERO                     = 0x0000
	RSX_BLEND_ONE                      = 0x0001
	RSX_BLEND_SRC_COLOR                = 0x0300
	RSX_BLEND_ONE_MINUS_SRC_COLOR      = 0x0301
	RSX_BLEND_SRC_ALPHA                = 0x0302
	RSX_BLEND_ONE_MINUS_SRC_ALPHA      = 0x0303
	RSX_BLEND_DST_ALPHA                = 0x0304
	RSX_BLEND_ONE_MINUS_DST_ALPHA      = 0x0305
	RSX_BLEND_DST_COLOR                = 0x0306
	RSX_BLEND_ONE_MINUS_DST_COLOR      = 0x0307
	RSX_BLEND_SRC_ALPHA_SATURATE       = 0x0308
	RSX_BLEND_CONSTANT_COLOR           = 0x8001
	RSX_BLEND_ONE_MINUS_CONSTANT_COLOR = 0x8002
	RSX_BLEND_CONSTANT_ALPHA           = 0x8003
	RSX_BLEND_ONE_MINUS_CONSTANT_ALPHA = 0x8004
)

// Blend equations
const (
	RSX_BLEND_EQUATION_ADD              = 0x8006
	RSX_BLEND_EQUATION_MIN              = 0x8007
	RSX_BLEND_EQUATION_MAX              = 0x8008
	RSX_BLEND_EQUATION_SUBTRACT         = 0x800A
	RSX_BLEND_EQUATION_REVERSE_SUBTRACT = 0x800B
)

// Stencil operations
const (
	RSX_STENCIL_ZERO      = 0x0000
	RSX_STENCIL_INVERT    = 0x150A
	RSX_STENCIL_KEEP      = 0x1E00
	RSX_STENCIL_REPLACE   = 0x1E01
	RSX_STENCIL_INCR      = 0x1E02
	RSX_STENCIL_DECR      = 0x1E03
	RSX_STENCIL_INCR_WRAP = 0x8507
	RSX_STENCIL_DECR_WRAP = 0x8508
)

// Rasterizer state
const (
	RSX_CULL_FRONT          = 0x0404
	RSX_CULL_BACK           = 0x0405
	RSX_CULL_FRONT_AND_BACK = 0x0408

	RSX_FRONT_FACE_CW  = 0x0900
	RSX_FRONT_FACE_CCW = 0x0901

	RSX_SHADE_FLAT   = 0x1D00
	RSX_SHADE_SMOOTH = 0x1D01

	RSX_POLYGON_MODE_POINT = 0x1B00
	RSX_POLYGON_MODE_LINE  = 0x1B01
	RSX_POLYGON_MODE_FILL  = 0x1B02
)

// Surface colour targets
const (
	RSX_SURFACE_TARGET_NONE = 0x00
	RSX_SURFACE_TARGET_A    = 0x01
	RSX_SURFACE_TARGET_B    = 0x02
	RSX_SURFACE_TARGET_MRT1 = 0x13
	RSX_SURFACE_TARGET_MRT2 = 0x17
	RSX_SURFACE_TARGET_MRT3 = 0x1F
)

// Surface depth formats (NV4097_SET_SURFACE_FORMAT bits 5-7)
const (
	RSX_SURFACE_DEPTH_Z16   = 1
	RSX_SURFACE_DEPTH_Z24S8 = 2
)

// Clear surface mask bits
const (
	RSX_CLEAR_Z = 0x01
	RSX_CLEAR_S = 0x02
	RSX_CLEAR_R = 0x10
	RSX_CLEAR_G = 0x20
	RSX_CLEAR_B = 0x40
	RSX_CLEAR_A = 0x80

	RSX_CLEAR_VALID_MASK = RSX_CLEAR_Z | RSX_CLEAR_S | RSX_CLEAR_R | RSX_CLEAR_G | RSX_CLEAR_B | RSX_CLEAR_A
)

// Colour mask bits (NV4097_SET_COLOR_MASK)
const (
	RSX_COLOR_MASK_B = 0x00000001
	RSX_COLOR_MASK_G = 0x00000100
	RSX_COLOR_MASK_R = 0x00010000
	RSX_COLOR_MASK_A = 0x01000000
)

// Index array element types (NV4097_SET_INDEX_ARRAY_DMA bits 4-7)
const (
	RSX_INDEX_TYPE_U32 = 0
	RSX_INDEX_TYPE_U16 = 1
)

// Vertex array location bit (NV4097_SET_VERTEX_DATA_ARRAY_OFFSET)
const (
	RSX_VERTEX_OFFSET_LOCATION_BIT = 0x80000000
	RSX_VERTEX_OFFSET_MASK         = 0x7FFFFFFF
)

// Context DMA handles
const (
	RSX_CONTEXT_DMA_LOCAL = 0xFEED0000
	RSX_CONTEXT_DMA_MAIN  = 0xFEED0001
)

// Host-linear address map used by AddressSpace
const (
	RSX_LOCAL_MEMORY_BASE = 0xC0000000
	RSX_LOCAL_MEMORY_SIZE = 256 * 1024 * 1024
	RSX_IO_PAGE_SHIFT     = 20
	RSX_IO_PAGE_SIZE      = 1 << RSX_IO_PAGE_SHIFT
)
