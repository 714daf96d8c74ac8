// rsx_listing.go - Method names and command buffer disassembly

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
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

type methodNameEntry struct {
	base   uint32
	name   string
	units  uint32 // family size, 1 for plain methods
	stride uint32 // cells between units
	width  uint32 // cells per unit carrying this name
}

var methodNameList = []methodNameEntry{
	{NV406E_SET_REFERENCE, "NV406E_SET_REFERENCE", 1, 1, 1},
	{NV4097_NO_OPERATION, "NV4097_NO_OPERATION", 1, 1, 1},
	{NV4097_NOTIFY, "NV4097_NOTIFY", 1, 1, 1},
	{NV4097_WAIT_FOR_IDLE, "NV4097_WAIT_FOR_IDLE", 1, 1, 1},
	{NV4097_SET_CONTEXT_DMA_COLOR_A, "NV4097_SET_CONTEXT_DMA_COLOR_A", 1, 1, 1},
	{NV4097_SET_CONTEXT_DMA_ZETA, "NV4097_SET_CONTEXT_DMA_ZETA", 1, 1, 1},
	{NV4097_SET_SURFACE_CLIP_HORIZONTAL, "NV4097_SET_SURFACE_CLIP_HORIZONTAL", 1, 1, 1},
	{NV4097_SET_SURFACE_CLIP_VERTICAL, "NV4097_SET_SURFACE_CLIP_VERTICAL", 1, 1, 1},
	{NV4097_SET_SURFACE_FORMAT, "NV4097_SET_SURFACE_FORMAT", 1, 1, 1},
	{NV4097_SET_SURFACE_PITCH_A, "NV4097_SET_SURFACE_PITCH_A", 1, 1, 1},
	{NV4097_SET_SURFACE_COLOR_AOFFSET, "NV4097_SET_SURFACE_COLOR_AOFFSET", 1, 1, 1},
	{NV4097_SET_SURFACE_ZETA_OFFSET, "NV4097_SET_SURFACE_ZETA_OFFSET", 1, 1, 1},
	{NV4097_SET_SURFACE_COLOR_TARGET, "NV4097_SET_SURFACE_COLOR_TARGET", 1, 1, 1},
	{NV4097_SET_SURFACE_PITCH_Z, "NV4097_SET_SURFACE_PITCH_Z", 1, 1, 1},
	{NV4097_SET_ALPHA_TEST_ENABLE, "NV4097_SET_ALPHA_TEST_ENABLE", 1, 1, 1},
	{NV4097_SET_ALPHA_FUNC, "NV4097_SET_ALPHA_FUNC", 1, 1, 1},
	{NV4097_SET_ALPHA_REF, "NV4097_SET_ALPHA_REF", 1, 1, 1},
	{NV4097_SET_BLEND_ENABLE, "NV4097_SET_BLEND_ENABLE", 1, 1, 1},
	{NV4097_SET_BLEND_FUNC_SFACTOR, "NV4097_SET_BLEND_FUNC_SFACTOR", 1, 1, 1},
	{NV4097_SET_BLEND_FUNC_DFACTOR, "NV4097_SET_BLEND_FUNC_DFACTOR", 1, 1, 1},
	{NV4097_SET_BLEND_COLOR, "NV4097_SET_BLEND_COLOR", 1, 1, 1},
	{NV4097_SET_BLEND_EQUATION, "NV4097_SET_BLEND_EQUATION", 1, 1, 1},
	{NV4097_SET_COLOR_MASK, "NV4097_SET_COLOR_MASK", 1, 1, 1},
	{NV4097_SET_STENCIL_TEST_ENABLE, "NV4097_SET_STENCIL_TEST_ENABLE", 1, 1, 1},
	{NV4097_SET_STENCIL_MASK, "NV4097_SET_STENCIL_MASK", 1, 1, 1},
	{NV4097_SET_STENCIL_FUNC, "NV4097_SET_STENCIL_FUNC", 1, 1, 1},
	{NV4097_SET_STENCIL_FUNC_REF, "NV4097_SET_STENCIL_FUNC_REF", 1, 1, 1},
	{NV4097_SET_STENCIL_FUNC_MASK, "NV4097_SET_STENCIL_FUNC_MASK", 1, 1, 1},
	{NV4097_SET_STENCIL_OP_FAIL, "NV4097_SET_STENCIL_OP_FAIL", 1, 1, 1},
	{NV4097_SET_STENCIL_OP_ZFAIL, "NV4097_SET_STENCIL_OP_ZFAIL", 1, 1, 1},
	{NV4097_SET_STENCIL_OP_ZPASS, "NV4097_SET_STENCIL_OP_ZPASS", 1, 1, 1},
	{NV4097_SET_SHADE_MODE, "NV4097_SET_SHADE_MODE", 1, 1, 1},
	{NV4097_SET_SCISSOR_HORIZONTAL, "NV4097_SET_SCISSOR_HORIZONTAL", 1, 1, 1},
	{NV4097_SET_SCISSOR_VERTICAL, "NV4097_SET_SCISSOR_VERTICAL", 1, 1, 1},
	{NV4097_SET_SHADER_PROGRAM, "NV4097_SET_SHADER_PROGRAM", 1, 1, 1},
	{NV4097_SET_VIEWPORT_HORIZONTAL, "NV4097_SET_VIEWPORT_HORIZONTAL", 1, 1, 1},
	{NV4097_SET_VIEWPORT_VERTICAL, "NV4097_SET_VIEWPORT_VERTICAL", 1, 1, 1},
	{NV4097_SET_VIEWPORT_OFFSET, "NV4097_SET_VIEWPORT_OFFSET", 4, 1, 1},
	{NV4097_SET_VIEWPORT_SCALE, "NV4097_SET_VIEWPORT_SCALE", 4, 1, 1},
	{NV4097_SET_DEPTH_FUNC, "NV4097_SET_DEPTH_FUNC", 1, 1, 1},
	{NV4097_SET_DEPTH_MASK, "NV4097_SET_DEPTH_MASK", 1, 1, 1},
	{NV4097_SET_DEPTH_TEST_ENABLE, "NV4097_SET_DEPTH_TEST_ENABLE", 1, 1, 1},
	{NV4097_SET_TRANSFORM_PROGRAM, "NV4097_SET_TRANSFORM_PROGRAM", RSX_METHOD_WINDOW, 1, 1},
	{NV4097_SET_VERTEX_DATA_ARRAY_OFFSET, "NV4097_SET_VERTEX_DATA_ARRAY_OFFSET", RSX_VERTEX_ATTRIBUTES, 1, 1},
	{NV4097_SET_VERTEX_DATA_BASE_OFFSET, "NV4097_SET_VERTEX_DATA_BASE_OFFSET", 1, 1, 1},
	{NV4097_SET_VERTEX_DATA_BASE_INDEX, "NV4097_SET_VERTEX_DATA_BASE_INDEX", 1, 1, 1},
	{NV4097_SET_VERTEX_DATA_ARRAY_FORMAT, "NV4097_SET_VERTEX_DATA_ARRAY_FORMAT", RSX_VERTEX_ATTRIBUTES, 1, 1},
	{NV4097_SET_BEGIN_END, "NV4097_SET_BEGIN_END", 1, 1, 1},
	{NV4097_ARRAY_ELEMENT16, "NV4097_ARRAY_ELEMENT16", 1, 1, 1},
	{NV4097_ARRAY_ELEMENT32, "NV4097_ARRAY_ELEMENT32", 1, 1, 1},
	{NV4097_DRAW_ARRAYS, "NV4097_DRAW_ARRAYS", 1, 1, 1},
	{NV4097_INLINE_ARRAY, "NV4097_INLINE_ARRAY", 1, 1, 1},
	{NV4097_SET_INDEX_ARRAY_ADDRESS, "NV4097_SET_INDEX_ARRAY_ADDRESS", 1, 1, 1},
	{NV4097_SET_INDEX_ARRAY_DMA, "NV4097_SET_INDEX_ARRAY_DMA", 1, 1, 1},
	{NV4097_DRAW_INDEX_ARRAY, "NV4097_DRAW_INDEX_ARRAY", 1, 1, 1},
	{NV4097_SET_FRONT_POLYGON_MODE, "NV4097_SET_FRONT_POLYGON_MODE", 1, 1, 1},
	{NV4097_SET_BACK_POLYGON_MODE, "NV4097_SET_BACK_POLYGON_MODE", 1, 1, 1},
	{NV4097_SET_CULL_FACE, "NV4097_SET_CULL_FACE", 1, 1, 1},
	{NV4097_SET_FRONT_FACE, "NV4097_SET_FRONT_FACE", 1, 1, 1},
	{NV4097_SET_CULL_FACE_ENABLE, "NV4097_SET_CULL_FACE_ENABLE", 1, 1, 1},
	{NV4097_SET_VERTEX_DATA2F_M, "NV4097_SET_VERTEX_DATA2F_M", RSX_VERTEX_ATTRIBUTES, 2, 2},
	{NV4097_SET_VERTEX_DATA2S_M, "NV4097_SET_VERTEX_DATA2S_M", RSX_VERTEX_ATTRIBUTES, 1, 1},
	{NV4097_SET_VERTEX_DATA4UB_M, "NV4097_SET_VERTEX_DATA4UB_M", RSX_VERTEX_ATTRIBUTES, 1, 1},
	{NV4097_SET_VERTEX_DATA4S_M, "NV4097_SET_VERTEX_DATA4S_M", RSX_VERTEX_ATTRIBUTES, 2, 2},
	{NV4097_SET_VERTEX_DATA4F_M, "NV4097_SET_VERTEX_DATA4F_M", RSX_VERTEX_ATTRIBUTES, 4, 4},
	{NV4097_SET_VERTEX_DATA1F_M, "NV4097_SET_VERTEX_DATA1F_M", RSX_VERTEX_ATTRIBUTES, 1, 1},
	{NV4097_SET_TEXTURE_OFFSET, "NV4097_SET_TEXTURE_OFFSET", RSX_TEXTURE_UNITS, RSX_TEXTURE_UNIT_STRIDE, 1},
	{NV4097_SET_TEXTURE_FORMAT, "NV4097_SET_TEXTURE_FORMAT", RSX_TEXTURE_UNITS, RSX_TEXTURE_UNIT_STRIDE, 1},
	{NV4097_SET_TEXTURE_ADDRESS, "NV4097_SET_TEXTURE_ADDRESS", RSX_TEXTURE_UNITS, RSX_TEXTURE_UNIT_STRIDE, 1},
	{NV4097_SET_TEXTURE_CONTROL0, "NV4097_SET_TEXTURE_CONTROL0", RSX_TEXTURE_UNITS, RSX_TEXTURE_UNIT_STRIDE, 1},
	{NV4097_SET_TEXTURE_CONTROL1, "NV4097_SET_TEXTURE_CONTROL1", RSX_TEXTURE_UNITS, RSX_TEXTURE_UNIT_STRIDE, 1},
	{NV4097_SET_TEXTURE_FILTER, "NV4097_SET_TEXTURE_FILTER", RSX_TEXTURE_UNITS, RSX_TEXTURE_UNIT_STRIDE, 1},
	{NV4097_SET_TEXTURE_IMAGE_RECT, "NV4097_SET_TEXTURE_IMAGE_RECT", RSX_TEXTURE_UNITS, RSX_TEXTURE_UNIT_STRIDE, 1},
	{NV4097_SET_TEXTURE_BORDER_COLOR, "NV4097_SET_TEXTURE_BORDER_COLOR", RSX_TEXTURE_UNITS, RSX_TEXTURE_UNIT_STRIDE, 1},
	{NV4097_SET_SHADER_CONTROL, "NV4097_SET_SHADER_CONTROL", 1, 1, 1},
	{NV4097_SET_ZSTENCIL_CLEAR_VALUE, "NV4097_SET_ZSTENCIL_CLEAR_VALUE", 1, 1, 1},
	{NV4097_SET_COLOR_CLEAR_VALUE, "NV4097_SET_COLOR_CLEAR_VALUE", 1, 1, 1},
	{NV4097_CLEAR_SURFACE, "NV4097_CLEAR_SURFACE", 1, 1, 1},
	{NV4097_SET_RESTART_INDEX_ENABLE, "NV4097_SET_RESTART_INDEX_ENABLE", 1, 1, 1},
	{NV4097_SET_RESTART_INDEX, "NV4097_SET_RESTART_INDEX", 1, 1, 1},
	{NV4097_SET_LINE_WIDTH, "NV4097_SET_LINE_WIDTH", 1, 1, 1},
	{NV4097_SET_TRANSFORM_PROGRAM_LOAD, "NV4097_SET_TRANSFORM_PROGRAM_LOAD", 1, 1, 1},
	{NV4097_SET_TRANSFORM_PROGRAM_START, "NV4097_SET_TRANSFORM_PROGRAM_START", 1, 1, 1},
	{NV4097_SET_TRANSFORM_CONSTANT_LOAD, "NV4097_SET_TRANSFORM_CONSTANT_LOAD", 1, 1, 1},
	{NV4097_SET_TRANSFORM_CONSTANT, "NV4097_SET_TRANSFORM_CONSTANT", RSX_METHOD_WINDOW, 1, 1},
	{NV4097_SET_VERTEX_ATTRIB_INPUT_MASK, "NV4097_SET_VERTEX_ATTRIB_INPUT_MASK", 1, 1, 1},
	{NV4097_SET_VERTEX_ATTRIB_OUTPUT_MASK, "NV4097_SET_VERTEX_ATTRIB_OUTPUT_MASK", 1, 1, 1},
}

var (
	methodNames   = make(map[uint32]string)
	methodsByName = make(map[string]uint32)
)

func init() {
	for _, e := range methodNameList {
		methodsByName[e.name] = e.base
		for u := uint32(0); u < e.units; u++ {
			for c := uint32(0); c < e.width; c++ {
				name := e.name
				if e.units > 1 {
					name = fmt.Sprintf("%s[%d]", e.name, u)
				}
				if e.width > 1 {
					name = fmt.Sprintf("%s.%d", name, c)
				}
				methodNames[e.base+u*e.stride+c] = name
			}
		}
	}
}

// DescribeMethod names a register index, with a unit suffix for families.
// Unknown methods print as their byte offset.
func DescribeMethod(op uint32) string {
	if name, ok := methodNames[op]; ok {
		return name
	}
	return fmt.Sprintf("method_0x%04X", op<<2)
}

// DescribeCommand names a method and decodes its argument.
func DescribeCommand(op, arg uint32) string {
	if op >= RSX_REGISTER_COUNT {
		return fmt.Sprintf("%s 0x%08X", DescribeMethod(op), arg)
	}
	return fmt.Sprintf("%s %s", DescribeMethod(op), viewTable[op](arg))
}

// listingWidth returns the terminal width when w is a terminal, or 0.
func listingWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// WriteListing disassembles every command of r, one per line. Lines are
// clipped to the terminal width when w is a terminal.
func WriteListing(w io.Writer, r *FIFOReader) error {
	width := listingWidth(w)
	for {
		cmd, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(w, "!! %v\n", err)
			return err
		}
		mark := ' '
		if cmd.PacketStart {
			mark = '>'
		}
		line := fmt.Sprintf("%08X %c %08X  %s", cmd.Pos, mark, cmd.Arg, DescribeCommand(cmd.Method, cmd.Arg))
		if width > 0 && len(line) > width {
			line = line[:width]
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
}

// WriteRegisterDump prints every non-zero register with its decoded view.
func WriteRegisterDump(w io.Writer, regs *RegisterStore) error {
	var sb strings.Builder
	for op := uint32(0); op < RSX_REGISTER_COUNT; op++ {
		v := regs.Raw(op)
		if v == 0 {
			continue
		}
		fmt.Fprintf(&sb, "%04X %-44s %08X  %s\n", op<<2, DescribeMethod(op), v, regs.View(op))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
