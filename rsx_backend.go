// rsx_backend.go - Rendering backend collaborator interface

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
rsx_backend.go - Backend Interface

The command processor hands finished work to a Backend. Everything passed
across this boundary is a value copied out of the register file at flush
time: backends may queue it on another goroutine while the processor keeps
mutating registers.

Dirty flags are accumulated by register handlers and delivered through
OnDirty once, right before the first SubmitRange that could observe them.
*/

package main

import (
	"context"
	"fmt"
	"math/bits"
	"strings"
	"sync"

	"github.com/gogpu/gputypes"
)

// DirtyFlags marks state categories changed since the last submission.
// Bits 32 and up are texture units.
type DirtyFlags uint64

const (
	DirtySurface DirtyFlags = 1 << iota
	DirtyBlend
	DirtyDepthStencil
	DirtyRasterizer
	DirtyViewport
	DirtyVertexLayout
	DirtyVertexProgram
	DirtyFragmentProgram
	DirtyTransformConstants
	DirtyVertexBase
	DirtyIndexArray

	dirtyTextureShift = 32
)

// DirtyTexture returns the flag for texture unit unit.
func DirtyTexture(unit uint32) DirtyFlags {
	return 1 << (dirtyTextureShift + unit)
}

// DirtyAll marks every category, used after reset and restore.
const DirtyAll = DirtyFlags(1)<<dirtyTextureShift - 1 | DirtyFlags(1<<RSX_TEXTURE_UNITS-1)<<dirtyTextureShift

var dirtyNames = []string{
	"surface", "blend", "depth_stencil", "rasterizer", "viewport", "vertex_layout",
	"vertex_program", "fragment_program", "transform_constants", "vertex_base", "index_array",
}

func (f DirtyFlags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for i, name := range dirtyNames {
		if f&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	if tex := uint16(f >> dirtyTextureShift); tex != 0 {
		for tex != 0 {
			unit := bits.TrailingZeros16(tex)
			parts = append(parts, fmt.Sprintf("texture%d", unit))
			tex &^= 1 << unit
		}
	}
	return strings.Join(parts, "|")
}

// VertexAttribute is a memory-resident vertex array binding.
type VertexAttribute struct {
	Attr      uint32
	Type      VertexBaseType
	Size      uint32
	Stride    uint32
	Frequency uint32
	Format    gputypes.VertexFormat
	Address   uint64
}

// ImmediateAttribute is vertex data captured from register writes or an
// inline array.
type ImmediateAttribute struct {
	Attr  uint32
	Type  VertexBaseType
	Size  uint32
	Words uint32 // words per vertex
	Data  []uint32
}

// PipelineState is the fixed-function state in force for one submission.
type PipelineState struct {
	Primitive    gputypes.PrimitiveState
	CullBoth     bool
	BlendEnabled bool
	Blend        gputypes.BlendState
	BlendColor   gputypes.Color
	WriteMask    gputypes.ColorWriteMask
	DepthTest    bool
	DepthStencil gputypes.DepthStencilState
	StencilTest  bool
	StencilRef   uint8
	AlphaTest    bool
	AlphaFunc    gputypes.CompareFunction
	AlphaRef     float32
	FlatShade    bool
	Viewport     Rect
	Scale        [4]float32
	Offset       [4]float32
	Scissor      Rect
	Surface      Rect
	ColorTarget  uint32
}

// DrawCall is one backend submission.
type DrawCall struct {
	Primitive uint32 // emulated primitive type
	Topology  gputypes.PrimitiveTopology
	Command   DrawCommand
	Range     DrawRange
	Subranges []DrawRange

	BaseVertex uint32
	BaseIndex  uint32

	IndexFormat  gputypes.IndexFormat
	IndexAddress uint64
	MinIndex     uint32
	MaxIndex     uint32
	Bounded      bool
	Restart      bool
	RestartIndex uint32

	Attributes []VertexAttribute
	Immediate  []ImmediateAttribute
	Indices    []uint32 // index values for indexed and array-element draws

	Pipeline PipelineState
}

// ClearOp is a decoded CLEAR_SURFACE.
type ClearOp struct {
	Mask    uint32
	Color   ColorView
	Depth   uint32
	Stencil uint8
	Scissor Rect
}

func (c ClearOp) Color32() bool {
	return c.Mask&(RSX_CLEAR_R|RSX_CLEAR_G|RSX_CLEAR_B|RSX_CLEAR_A) != 0
}

// Backend renders the work flushed by the processor. The backend owns all
// graphics API resources.
type Backend interface {
	BeginDraw()
	SubmitRange(call DrawCall)
	EndDraw()
	OnDirty(flags DirtyFlags)
	ClearSurface(op ClearOp)
	// WaitIdle blocks until all previously submitted work retired or ctx
	// expires.
	WaitIdle(ctx context.Context) error
	Close() error
}

// =============================================================================
// Null backend
// =============================================================================

// NullBackend accepts everything and counts calls.
type NullBackend struct {
	mutex  sync.Mutex
	counts NullBackendCounts
}

type NullBackendCounts struct {
	Begins, Submits, Ends, Clears, Waits int
	Vertices                             uint64
	Dirty                                DirtyFlags
}

func NewNullBackend() *NullBackend { return &NullBackend{} }

func (b *NullBackend) BeginDraw() {
	b.mutex.Lock()
	b.counts.Begins++
	b.mutex.Unlock()
}

func (b *NullBackend) SubmitRange(call DrawCall) {
	b.mutex.Lock()
	b.counts.Submits++
	b.counts.Vertices += uint64(call.Range.Count)
	b.mutex.Unlock()
}

func (b *NullBackend) EndDraw() {
	b.mutex.Lock()
	b.counts.Ends++
	b.mutex.Unlock()
}

func (b *NullBackend) OnDirty(flags DirtyFlags) {
	b.mutex.Lock()
	b.counts.Dirty |= flags
	b.mutex.Unlock()
}

func (b *NullBackend) ClearSurface(ClearOp) {
	b.mutex.Lock()
	b.counts.Clears++
	b.mutex.Unlock()
}

func (b *NullBackend) WaitIdle(ctx context.Context) error {
	b.mutex.Lock()
	b.counts.Waits++
	b.mutex.Unlock()
	return ctx.Err()
}

func (b *NullBackend) Close() error { return nil }

// Counts returns a copy of the call counters.
func (b *NullBackend) Counts() NullBackendCounts {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.counts
}
