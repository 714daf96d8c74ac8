// rsx_processor.go - NV4097 command processor context

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
rsx_processor.go - Command Processor

A Processor is one emulated GPU context. It owns the register file, the
draw clause, immediate-mode state, the transform program and constant
banks, and accumulated dirty flags. Commands arrive through Push (one
method/argument pair) or Run (a parsed command buffer).

The processor is single-threaded: Push and Run must be called from one
goroutine. The backend may run elsewhere; everything it receives is copied.

Guest memory is big-endian. Index buffers and vertex arrays are read with
encoding/binary.BigEndian.
*/

package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// Status is the outcome of one command.
type Status uint8

const (
	StatusOK      Status = iota
	StatusRecover        // skip the rest of the current packet
	StatusHalt           // stop consuming the command buffer
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusRecover:
		return "recover"
	case StatusHalt:
		return "halt"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// ProcessorConfig holds construction options. Zero fields take defaults.
type ProcessorConfig struct {
	IdleTimeout     time.Duration
	LocalMemorySize int
	MainMemorySize  int
	Memory          MemoryResolver // nil allocates an AddressSpace
	Logger          *slog.Logger
}

func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		IdleTimeout:     RSX_IDLE_TIMEOUT,
		LocalMemorySize: RSX_LOCAL_MEMORY_SIZE,
		MainMemorySize:  64 * 1024 * 1024,
	}
}

func (c ProcessorConfig) withDefaults() ProcessorConfig {
	d := DefaultProcessorConfig()
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = d.IdleTimeout
	}
	if c.LocalMemorySize <= 0 {
		c.LocalMemorySize = d.LocalMemorySize
	}
	if c.MainMemorySize <= 0 {
		c.MainMemorySize = d.MainMemorySize
	}
	if c.Logger == nil {
		c.Logger = Logger()
	}
	return c
}

// ProcessorStats counts processor activity since construction or reset.
type ProcessorStats struct {
	Commands       uint64
	Clauses        uint64
	Submissions    uint64
	Barriers       uint64
	Deferred       uint64
	Rejected       uint64
	InvalidMethods uint64
	Recoveries     uint64
	DroppedRanges  uint64
	Clears         uint64
	IdleWaits      uint64
	AbandonedWaits uint64 // idle waits still blocked in the backend at the deadline
}

// trailingSource exposes the bulk-argument bookkeeping of the command
// stream being replayed.
type trailingSource interface {
	Remaining() int
	Take(n int) ([]uint32, error)
}

// Processor is one emulated GPU command processor context.
type Processor struct {
	cfg     ProcessorConfig
	log     *slog.Logger
	backend Backend
	memory  MemoryResolver

	regs   RegisterStore
	clause DrawClause

	vertexFamily    [RSX_VERTEX_ATTRIBUTES]uint32 // base method of the last VERTEX_DATA* write
	immediate       ImmediateAccumulator
	immediateVertex uint32
	inline          []uint32
	elements        []uint32
	degenerate      bool // inside a bracket opened with an invalid primitive

	microcode [RSX_TRANSFORM_PROGRAM_SIZE * 4]uint32
	constants [RSX_TRANSFORM_CONSTANTS * 4]uint32

	dirty     DirtyFlags
	status    Status
	err       error
	reference uint32

	stream trailingSource
	pos    uint32

	stats ProcessorStats
}

// NewProcessor creates a context in the hardware reset state.
func NewProcessor(backend Backend, cfg ProcessorConfig) *Processor {
	cfg = cfg.withDefaults()
	if backend == nil {
		backend = NewNullBackend()
	}
	p := &Processor{
		cfg:     cfg,
		log:     cfg.Logger,
		backend: backend,
		memory:  cfg.Memory,
	}
	if p.memory == nil {
		p.memory = NewAddressSpace(cfg.LocalMemorySize, cfg.MainMemorySize)
	}
	p.immediate = newImmediateAccumulator(p, p.log)
	p.resetState()
	return p
}

func (p *Processor) resetState() {
	p.clause.Clear()
	applyResetBaseline(&p.regs)
	p.vertexFamily = [RSX_VERTEX_ATTRIBUTES]uint32{}
	p.immediate.Clear()
	p.immediateVertex = 0
	p.inline = p.inline[:0]
	p.elements = p.elements[:0]
	p.degenerate = false
	clear(p.microcode[:])
	clear(p.constants[:])
	p.dirty = DirtyAll
	p.status = StatusOK
	p.err = nil
	p.reference = 0
	p.stats = ProcessorStats{}
}

// Reset aborts any open clause, waits for the backend to retire flushed
// work, and returns the context to the hardware baseline.
func (p *Processor) Reset() error {
	if p.clause.State() != ClauseIdle {
		p.log.Warn("rsx: reset discards open draw clause", "primitive", p.clause.Primitive(), "ranges", len(p.clause.ranges))
		p.clause.Abandon()
	}
	if err := p.quiesce(NV4097_NO_OPERATION); err != nil {
		return err
	}
	p.resetState()
	return nil
}

// Push executes one command.
func (p *Processor) Push(op, arg uint32) Status {
	return p.dispatch(Command{Method: op, Arg: arg, PacketStart: true})
}

func (p *Processor) dispatch(cmd Command) Status {
	if p.status == StatusHalt {
		return StatusHalt
	}
	p.status = StatusOK
	p.pos = cmd.Pos
	p.stats.Commands++

	if cmd.PacketStart && (cmd.Method == NV4097_DRAW_ARRAYS || cmd.Method == NV4097_DRAW_INDEX_ARRAY) {
		p.clause.RequestRasterizationBarrier()
	}
	if cmd.Method >= RSX_REGISTER_COUNT {
		invalidMethod(p, cmd.Method, cmd.Arg)
		return p.status
	}
	methodTable[cmd.Method](p, cmd.Method, cmd.Arg)
	return p.status
}

// Err returns the error that halted the processor, if any.
func (p *Processor) Err() error { return p.err }

// Status returns the outcome of the most recent command.
func (p *Processor) Status() Status { return p.status }

// Resume clears a halt so a corrected stream can be replayed.
func (p *Processor) Resume() {
	p.status = StatusOK
	p.err = nil
}

func (p *Processor) Registers() *RegisterStore { return &p.regs }
func (p *Processor) Clause() *DrawClause       { return &p.clause }
func (p *Processor) Backend() Backend          { return p.backend }
func (p *Processor) Memory() MemoryResolver    { return p.memory }
func (p *Processor) Stats() ProcessorStats     { return p.stats }
func (p *Processor) Reference() uint32         { return p.reference }

// VertexRegister returns the register-held value of attribute attr, read
// from the cells of the family last written for it.
func (p *Processor) VertexRegister(attr uint32) VertexRegister {
	attr %= RSX_VERTEX_ATTRIBUTES
	f, ok := lookupVertexDataFamily(p.vertexFamily[attr])
	if !ok {
		return VertexRegister{}
	}
	vr := VertexRegister{Type: f.Type, Size: f.Size}
	for sub := range f.Words() {
		vr.Data[sub] = p.regs.Raw(f.Cell(attr, sub))
	}
	return vr
}

// Microcode returns a copy of the transform program words.
func (p *Processor) Microcode() []uint32 { return slices.Clone(p.microcode[:]) }

// Constants returns a copy of the transform constant bank.
func (p *Processor) Constants() []uint32 { return slices.Clone(p.constants[:]) }

// =============================================================================
// Status helpers
// =============================================================================

func (p *Processor) requestRecovery() {
	if p.status == StatusOK {
		p.status = StatusRecover
		p.stats.Recoveries++
	}
}

func (p *Processor) halt(err error) {
	p.status = StatusHalt
	p.err = err
	p.log.Error("rsx: command processing halted", "err", err)
}

// rejectArgument undoes the write just decoded into op and asks the FIFO
// to skip ahead.
func (p *Processor) rejectArgument(op, arg uint32) {
	p.regs.Rollback(op)
	p.stats.Rejected++
	p.log.Warn("rsx: malformed argument", "method", DescribeMethod(op), "arg", fmt.Sprintf("0x%08X", arg), "pos", p.pos)
	p.requestRecovery()
}

func (p *Processor) markDirty(flags DirtyFlags) {
	p.dirty |= flags
}

func (p *Processor) deliverDirty() {
	if p.dirty != 0 {
		p.backend.OnDirty(p.dirty)
		p.dirty = 0
	}
}

// =============================================================================
// Idle handshake
// =============================================================================

// quiesce blocks until the backend reports idle or the idle timeout
// expires. A backend that ignores its context is abandoned on timeout and
// counted in AbandonedWaits.
func (p *Processor) quiesce(op uint32) error {
	p.stats.IdleWaits++
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.IdleTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.backend.WaitIdle(ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
		select {
		case <-done:
		default:
			p.stats.AbandonedWaits++
			p.log.Warn("rsx: backend still waiting for idle past the deadline",
				"method", DescribeMethod(op), "abandoned", p.stats.AbandonedWaits)
		}
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %v", ErrIdleTimeout, p.cfg.IdleTimeout)
	}
	return &CommandError{Op: "wait for idle", Method: op, Pos: p.pos, Err: err}
}

func (p *Processor) waitForIdle(op uint32) bool {
	if err := p.quiesce(op); err != nil {
		p.halt(err)
		return false
	}
	return true
}

// =============================================================================
// Clause lifecycle
// =============================================================================

func (p *Processor) beginClause(prim uint32) {
	if p.clause.State() == ClauseAccumulating {
		p.log.Warn("rsx: begin inside open clause, flushing", "primitive", p.clause.Primitive(), "pos", p.pos)
		p.endClause()
	}
	p.degenerate = false
	p.clause.Reset(prim)
	p.immediate.Clear()
	p.immediateVertex = 0
	p.inline = p.inline[:0]
	p.elements = p.elements[:0]
}

// useCommand selects the draw command feeding the open clause. A clause
// switching source mid-bracket is flushed and reopened with the same
// primitive.
func (p *Processor) useCommand(cmd DrawCommand) bool {
	if p.degenerate {
		return false
	}
	if p.clause.State() != ClauseAccumulating {
		p.log.Warn("rsx: draw command outside begin/end", "command", cmd, "pos", p.pos)
		p.requestRecovery()
		return false
	}
	cur := p.clause.Command()
	if cur != DrawCommandNone && cur != cmd {
		prim := p.clause.Primitive()
		p.log.Debug("rsx: draw command changed inside clause", "from", cur, "to", cmd)
		p.endClause()
		p.beginClause(prim)
	}
	p.clause.SetCommand(cmd)
	return true
}

// endClause closes the bracket and flushes it.
func (p *Processor) endClause() {
	if p.clause.State() != ClauseAccumulating {
		contractViolation("end of %s clause", p.clause.State())
		return
	}
	switch p.clause.Command() {
	case DrawCommandImmediate:
		p.clause.Append(0, p.immediateVertex)
	case DrawCommandInlined:
		strideWords, ok := p.inlineStrideWords()
		switch {
		case !ok:
			// Deferred barriers still replay; only the vertices are dropped.
			p.log.Warn("rsx: malformed inline vertex layout", "stride", p.inlineStride(), "words", len(p.inline))
			p.requestRecovery()
			p.inline = p.inline[:0]
		case strideWords > 0:
			p.clause.Append(0, uint32(len(p.inline))/strideWords)
		case len(p.inline) > 0:
			p.log.Warn("rsx: inline array with no enabled vertex attribute", "words", len(p.inline))
		}
	case DrawCommandArrayElements:
		p.clause.Append(0, uint32(len(p.elements)))
	}
	p.flush()
}

// flush replays the clause into the backend.
func (p *Processor) flush() {
	if !p.clause.Begin() {
		return
	}
	p.stats.Clauses++
	prim := p.clause.Primitive()
	cmd := p.clause.Command()

	var captured []ImmediateAttribute
	switch cmd {
	case DrawCommandImmediate:
		captured = p.immediate.Finish(p.immediateVertex)
	case DrawCommandInlined:
		captured = p.inlineAttributes()
	}

	passes := p.clause.PassCount()
	if passes > 0 {
		p.backend.BeginDraw()
	}
	p.clause.Replay(
		func(b Barrier) {
			p.stats.Barriers++
			p.regs.Decode(b.Method, b.Value)
			p.markDirty(deferredDirty(b.Method))
		},
		func(_ int, r DrawRange, subranges []DrawRange) {
			call, err := p.buildDrawCall(prim, cmd, r, subranges, captured)
			if err != nil {
				p.stats.DroppedRanges++
				p.log.Error("rsx: draw range dropped", "range", r, "err", err)
				return
			}
			p.deliverDirty()
			p.stats.Submissions++
			p.backend.SubmitRange(call)
		},
	)
	if passes > 0 {
		p.backend.EndDraw()
	}
	p.clause.Finish()
	p.immediate.Clear()
	p.immediateVertex = 0
	p.inline = p.inline[:0]
	p.elements = p.elements[:0]
}

func deferredDirty(op uint32) DirtyFlags {
	if op >= NV4097_SET_VERTEX_DATA_ARRAY_OFFSET && op < NV4097_SET_VERTEX_DATA_ARRAY_OFFSET+RSX_VERTEX_ATTRIBUTES {
		return DirtyVertexLayout
	}
	return DirtyVertexBase
}

// =============================================================================
// Draw call assembly
// =============================================================================

func (p *Processor) enabledAttributes() []uint32 {
	mask := p.regs.Raw(NV4097_SET_VERTEX_ATTRIB_INPUT_MASK)
	var out []uint32
	for attr := uint32(0); attr < RSX_VERTEX_ATTRIBUTES; attr++ {
		if mask&(1<<attr) == 0 {
			continue
		}
		if f, _ := p.regs.VertexArray(attr); f.Size > 0 {
			out = append(out, attr)
		}
	}
	return out
}

// inlineStride is the vertex stride of an inline array in bytes.
func (p *Processor) inlineStride() uint32 {
	var stride uint32
	for _, attr := range p.enabledAttributes() {
		f, _ := p.regs.VertexArray(attr)
		stride = max(stride, f.Stride)
	}
	return stride
}

// inlineStrideWords is the inline vertex stride in words. A stride that is
// not a whole number of words reports false.
func (p *Processor) inlineStrideWords() (uint32, bool) {
	stride := p.inlineStride()
	if stride%4 != 0 {
		return 0, false
	}
	return stride / 4, true
}

// inlineAttributes splits the inline words into per-attribute streams using
// the array formats: each attribute sits at its running offset in the
// interleaved vertex.
func (p *Processor) inlineAttributes() []ImmediateAttribute {
	strideWords, ok := p.inlineStrideWords()
	if !ok || strideWords == 0 {
		return nil
	}
	count := uint32(len(p.inline)) / strideWords
	var out []ImmediateAttribute
	offset := uint32(0)
	for _, attr := range p.enabledAttributes() {
		f, _ := p.regs.VertexArray(attr)
		words := VertexSizeInDwords(f.Type, f.Size)
		if offset+words > strideWords {
			break
		}
		data := make([]uint32, 0, count*words)
		for v := uint32(0); v < count; v++ {
			base := v*strideWords + offset
			data = append(data, p.inline[base:base+words]...)
		}
		out = append(out, ImmediateAttribute{Attr: attr, Type: f.Type, Size: f.Size, Words: words, Data: data})
		offset += words
	}
	return out
}

func (p *Processor) buildDrawCall(prim uint32, cmd DrawCommand, r DrawRange, subranges []DrawRange, captured []ImmediateAttribute) (DrawCall, error) {
	call := DrawCall{
		Primitive:    prim,
		Topology:     primitiveTopology(prim),
		Command:      cmd,
		Range:        r,
		Subranges:    subranges,
		BaseVertex:   p.regs.Raw(NV4097_SET_VERTEX_DATA_BASE_OFFSET),
		BaseIndex:    p.regs.Raw(NV4097_SET_VERTEX_DATA_BASE_INDEX),
		Restart:      p.regs.Raw(NV4097_SET_RESTART_INDEX_ENABLE) != 0,
		RestartIndex: p.regs.Raw(NV4097_SET_RESTART_INDEX),
		Immediate:    captured,
		Pipeline:     pipelineState(&p.regs, prim),
	}

	switch cmd {
	case DrawCommandArray:
		call.MinIndex, call.MaxIndex, call.Bounded = r.First, r.End()-1, true
	case DrawCommandIndexed:
		offset, loc, typ := p.regs.IndexArray()
		addr, err := p.memory.Resolve(offset, loc)
		if err != nil {
			return call, fmt.Errorf("index array: %w", err)
		}
		call.IndexFormat = indexFormat(typ)
		call.IndexAddress = addr
		if reader, ok := p.memory.(MemoryReader); ok {
			indices, err := readIndices(reader, addr, call.IndexFormat.Size(), r)
			if err != nil {
				return call, fmt.Errorf("index array: %w", err)
			}
			call.Indices = indices
			call.MinIndex, call.MaxIndex, call.Bounded = indexBounds(indices, call.Restart, call.RestartIndex)
		}
	case DrawCommandArrayElements:
		call.Indices = slices.Clone(p.elements[r.First:r.End()])
		call.MinIndex, call.MaxIndex, call.Bounded = indexBounds(call.Indices, false, 0)
	}

	if cmd == DrawCommandArray || cmd == DrawCommandIndexed || cmd == DrawCommandArrayElements {
		for _, attr := range p.enabledAttributes() {
			f, o := p.regs.VertexArray(attr)
			addr, err := p.memory.Resolve(o.Offset, o.Location)
			if err != nil {
				return call, fmt.Errorf("vertex attribute %d: %w", attr, err)
			}
			call.Attributes = append(call.Attributes, VertexAttribute{
				Attr:      attr,
				Type:      f.Type,
				Size:      f.Size,
				Stride:    f.Stride,
				Frequency: f.Frequency,
				Format:    vertexFormat(f.Type, f.Size),
				Address:   addr,
			})
		}
	}
	return call, nil
}

func readIndices(reader MemoryReader, addr uint64, size uint32, r DrawRange) ([]uint32, error) {
	raw, err := reader.Bytes(addr+uint64(r.First)*uint64(size), int(r.Count*size))
	if err != nil {
		return nil, err
	}
	out := make([]uint32, r.Count)
	for i := range out {
		if size == 2 {
			out[i] = uint32(binary.BigEndian.Uint16(raw[i*2:]))
		} else {
			out[i] = binary.BigEndian.Uint32(raw[i*4:])
		}
	}
	return out, nil
}

// indexBounds returns the smallest and largest index, ignoring restart
// markers. ok is false when no index remains.
func indexBounds(indices []uint32, restart bool, restartIndex uint32) (lo, hi uint32, ok bool) {
	for _, idx := range indices {
		if restart && idx == restartIndex {
			continue
		}
		if !ok || idx < lo {
			lo = idx
		}
		if !ok || idx > hi {
			hi = idx
		}
		ok = true
	}
	return lo, hi, ok
}
