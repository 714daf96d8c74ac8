// rsx_script.go - Lua command stream scripts

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
rsx_script.go - Command Stream Scripting

A script builds a command buffer and fills guest local memory, which the
CLI then replays through a Processor. Globals:

	method(op, args...)            incrementing packet (op is a number or a name)
	rep(op, args...)               non-incrementing packet
	begin_draw(prim)  end_draw()
	draw_arrays(first, count)      split into 256-vertex arguments
	draw_indexed(first, count)
	vertex4f(attr, x, y, z, w)
	vertex_array(attr, type, size, stride, offset [, location])
	index_array(offset, type [, location])
	set_vertex_base(v)  set_index_base(v)
	clear(mask, argb [, depth])
	wait_idle()
	poke32(offset, value)  pokef(offset, value)   big-endian local memory

NV4097 maps method names (without the NV4097_ prefix) to opcodes. PRIM,
VTX and CLEAR hold primitive, vertex type and clear mask constants.
*/

package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// ScriptHost collects what a script produced.
type ScriptHost struct {
	Builder CommandBuilder
	memory  *AddressSpace
}

// NewScriptHost returns a host writing guest memory into memory, which may
// be nil when scripts only emit commands.
func NewScriptHost(memory *AddressSpace) *ScriptHost {
	return &ScriptHost{memory: memory}
}

// RunString executes Lua source.
func (h *ScriptHost) RunString(ctx context.Context, src string) error {
	L := h.newState(ctx)
	defer L.Close()
	if err := L.DoString(src); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

// RunFile executes a Lua file.
func (h *ScriptHost) RunFile(ctx context.Context, path string) error {
	L := h.newState(ctx)
	defer L.Close()
	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

func (h *ScriptHost) newState(ctx context.Context) *lua.LState {
	L := lua.NewState()
	L.SetContext(ctx)

	funcs := map[string]lua.LGFunction{
		"method":          h.luaMethod(true),
		"rep":             h.luaMethod(false),
		"begin_draw":      h.luaBeginDraw,
		"end_draw":        h.luaEndDraw,
		"draw_arrays":     h.luaDraw(NV4097_DRAW_ARRAYS),
		"draw_indexed":    h.luaDraw(NV4097_DRAW_INDEX_ARRAY),
		"vertex4f":        h.luaVertex4f,
		"vertex_array":    h.luaVertexArray,
		"index_array":     h.luaIndexArray,
		"set_vertex_base": h.luaSingle(NV4097_SET_VERTEX_DATA_BASE_OFFSET),
		"set_index_base":  h.luaSingle(NV4097_SET_VERTEX_DATA_BASE_INDEX),
		"clear":           h.luaClear,
		"wait_idle":       h.luaWaitIdle,
		"poke32":          h.luaPoke(false),
		"pokef":           h.luaPoke(true),
	}
	for name, fn := range funcs {
		L.SetGlobal(name, L.NewFunction(fn))
	}

	methods := L.NewTable()
	for name, op := range methodsByName {
		if short, ok := strings.CutPrefix(name, "NV4097_"); ok {
			L.SetField(methods, short, lua.LNumber(op))
		}
	}
	L.SetGlobal("NV4097", methods)

	L.SetGlobal("PRIM", constantTable(L, map[string]uint32{
		"POINTS": RSX_PRIMITIVE_POINTS, "LINES": RSX_PRIMITIVE_LINES,
		"LINE_LOOP": RSX_PRIMITIVE_LINE_LOOP, "LINE_STRIP": RSX_PRIMITIVE_LINE_STRIP,
		"TRIANGLES": RSX_PRIMITIVE_TRIANGLES, "TRIANGLE_STRIP": RSX_PRIMITIVE_TRIANGLE_STRIP,
		"TRIANGLE_FAN": RSX_PRIMITIVE_TRIANGLE_FAN, "QUADS": RSX_PRIMITIVE_QUADS,
		"QUAD_STRIP": RSX_PRIMITIVE_QUAD_STRIP, "POLYGON": RSX_PRIMITIVE_POLYGON,
	}))
	L.SetGlobal("VTX", constantTable(L, map[string]uint32{
		"S1": uint32(VertexTypeS1), "F": uint32(VertexTypeF), "SF": uint32(VertexTypeSF),
		"UB": uint32(VertexTypeUB), "S32K": uint32(VertexTypeS32K), "CMP": uint32(VertexTypeCMP),
		"UB256": uint32(VertexTypeUB256),
	}))
	L.SetGlobal("CLEAR", constantTable(L, map[string]uint32{
		"Z": RSX_CLEAR_Z, "S": RSX_CLEAR_S, "R": RSX_CLEAR_R, "G": RSX_CLEAR_G,
		"B": RSX_CLEAR_B, "A": RSX_CLEAR_A, "COLOR": RSX_CLEAR_R | RSX_CLEAR_G | RSX_CLEAR_B | RSX_CLEAR_A,
		"ALL": RSX_CLEAR_VALID_MASK,
	}))
	return L
}

func constantTable(L *lua.LState, values map[string]uint32) *lua.LTable {
	t := L.NewTable()
	for name, v := range values {
		L.SetField(t, name, lua.LNumber(v))
	}
	return t
}

// checkMethod accepts an opcode or a method name with or without prefix.
func checkMethod(L *lua.LState, n int) uint32 {
	switch v := L.CheckAny(n).(type) {
	case lua.LNumber:
		return uint32(v)
	case lua.LString:
		name := string(v)
		if !strings.HasPrefix(name, "NV") {
			name = "NV4097_" + name
		}
		if op, ok := methodsByName[name]; ok {
			return op
		}
		L.ArgError(n, "unknown method "+string(v))
	default:
		L.ArgError(n, "method must be a number or name")
	}
	return 0
}

func checkWord(L *lua.LState, n int) uint32 {
	return uint32(int64(L.CheckNumber(n)))
}

func (h *ScriptHost) luaMethod(increment bool) lua.LGFunction {
	return func(L *lua.LState) int {
		op := checkMethod(L, 1)
		args := make([]uint32, 0, L.GetTop()-1)
		for i := 2; i <= L.GetTop(); i++ {
			args = append(args, checkWord(L, i))
		}
		if len(args) > FIFO_MAX_COUNT {
			L.RaiseError("%d arguments exceed packet limit %d", len(args), FIFO_MAX_COUNT)
		}
		if increment {
			h.Builder.Method(op, args...)
		} else {
			h.Builder.Repeat(op, args...)
		}
		return 0
	}
}

func (h *ScriptHost) luaSingle(op uint32) lua.LGFunction {
	return func(L *lua.LState) int {
		h.Builder.Method(op, checkWord(L, 1))
		return 0
	}
}

func (h *ScriptHost) luaBeginDraw(L *lua.LState) int {
	h.Builder.Method(NV4097_SET_BEGIN_END, checkWord(L, 1))
	return 0
}

func (h *ScriptHost) luaEndDraw(L *lua.LState) int {
	h.Builder.Method(NV4097_SET_BEGIN_END, RSX_PRIMITIVE_NONE)
	return 0
}

func (h *ScriptHost) luaDraw(op uint32) lua.LGFunction {
	return func(L *lua.LState) int {
		first, count := checkWord(L, 1), checkWord(L, 2)
		if count == 0 {
			return 0
		}
		var args []uint32
		for count > 0 {
			n := min(count, 256)
			args = append(args, encodeDrawArgs(first, n))
			first += n
			count -= n
		}
		h.Builder.Repeat(op, args...)
		return 0
	}
}

func (h *ScriptHost) luaVertex4f(L *lua.LState) int {
	attr := checkWord(L, 1) % RSX_VERTEX_ATTRIBUTES
	args := make([]uint32, 4)
	for i := range args {
		args[i] = math.Float32bits(float32(L.OptNumber(i+2, 0)))
	}
	if L.GetTop() < 5 {
		args[3] = math.Float32bits(1)
	}
	h.Builder.Method(NV4097_SET_VERTEX_DATA4F_M+attr*4, args...)
	return 0
}

func (h *ScriptHost) luaVertexArray(L *lua.LState) int {
	attr := checkWord(L, 1) % RSX_VERTEX_ATTRIBUTES
	typ := VertexBaseType(checkWord(L, 2))
	size, stride, offset := checkWord(L, 3), checkWord(L, 4), checkWord(L, 5)
	loc := Location(L.OptInt(6, int(LocationLocal)))
	h.Builder.Method(NV4097_SET_VERTEX_DATA_ARRAY_FORMAT+attr, encodeVertexFormat(typ, size, stride, 0))
	h.Builder.Method(NV4097_SET_VERTEX_DATA_ARRAY_OFFSET+attr, encodeVertexOffset(offset, loc))
	return 0
}

func (h *ScriptHost) luaIndexArray(L *lua.LState) int {
	offset, typ := checkWord(L, 1), checkWord(L, 2)
	loc := Location(L.OptInt(3, int(LocationLocal)))
	h.Builder.Method(NV4097_SET_INDEX_ARRAY_ADDRESS, offset, encodeIndexDMA(loc, typ))
	return 0
}

func (h *ScriptHost) luaClear(L *lua.LState) int {
	mask, argb := checkWord(L, 1), checkWord(L, 2)
	depth := uint32(L.OptInt64(3, 0xFFFFFF))
	h.Builder.Method(NV4097_SET_ZSTENCIL_CLEAR_VALUE, depth<<8)
	h.Builder.Method(NV4097_SET_COLOR_CLEAR_VALUE, argb)
	h.Builder.Method(NV4097_CLEAR_SURFACE, mask)
	return 0
}

func (h *ScriptHost) luaWaitIdle(L *lua.LState) int {
	h.Builder.Method(NV4097_WAIT_FOR_IDLE, 0)
	return 0
}

func (h *ScriptHost) luaPoke(float bool) lua.LGFunction {
	return func(L *lua.LState) int {
		if h.memory == nil {
			L.RaiseError("no guest memory attached")
		}
		offset := checkWord(L, 1)
		v := checkWord(L, 2)
		if float {
			v = math.Float32bits(float32(L.CheckNumber(2)))
		}
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], v)
		if err := h.memory.WriteLocal(offset, buf[:]); err != nil {
			L.RaiseError("poke 0x%08X: %v", offset, err)
		}
		return 0
	}
}
