// rsx_push_buffer.go - Immediate-mode vertex accumulation

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
rsx_push_buffer.go - Immediate-Mode Vertex Accumulator

Inside a begin/end bracket, vertex attributes written through the
VERTEX_DATA* registers are captured per attribute slot instead of being read
from memory. Attribute 0 is the provoking attribute: writing its last word
completes a vertex.

An attribute that is not re-sent for a vertex repeats its last value. When a
write lands past the end of an attribute's buffer, every skipped vertex is
filled from the register-held value of that attribute (the last complete
value written before this write).
*/

package main

import (
	"fmt"
	"log/slog"
)

// VertexBaseType is the element type of a vertex attribute.
type VertexBaseType uint8

const (
	VertexTypeS1    VertexBaseType = 1 // signed normalized 16-bit
	VertexTypeF     VertexBaseType = 2 // 32-bit float
	VertexTypeSF    VertexBaseType = 3 // 16-bit float
	VertexTypeUB    VertexBaseType = 4 // unsigned normalized 8-bit
	VertexTypeS32K  VertexBaseType = 5 // signed 16-bit integer
	VertexTypeCMP   VertexBaseType = 6 // packed 11:11:10
	VertexTypeUB256 VertexBaseType = 7 // unsigned 8-bit integer
)

func (t VertexBaseType) String() string {
	switch t {
	case VertexTypeS1:
		return "s1"
	case VertexTypeF:
		return "f"
	case VertexTypeSF:
		return "sf"
	case VertexTypeUB:
		return "ub"
	case VertexTypeS32K:
		return "s32k"
	case VertexTypeCMP:
		return "cmp"
	case VertexTypeUB256:
		return "ub256"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

func (t VertexBaseType) Valid() bool {
	return t >= VertexTypeS1 && t <= VertexTypeUB256
}

// VertexSizeInDwords returns how many 32-bit words one vertex worth of an
// attribute occupies. Types narrower than a word always arrive packed into
// whole words: 8-bit vectors fill a single word, 16-bit vectors pack two
// components per word.
func VertexSizeInDwords(t VertexBaseType, size uint32) uint32 {
	switch t {
	case VertexTypeF:
		return size
	case VertexTypeUB, VertexTypeUB256, VertexTypeCMP:
		return 1
	case VertexTypeS1, VertexTypeS32K, VertexTypeSF:
		return (size + 1) / 2
	}
	return size
}

// VertexRegister is the register-held value of one attribute: the cells of
// the VERTEX_DATA* family most recently written for that slot.
type VertexRegister struct {
	Type VertexBaseType
	Size uint32
	Data [RSX_MAX_VERTEX_WORDS]uint32
}

// vertexDataFamily is one VERTEX_DATA* method family. Each attribute owns
// Words consecutive cells starting at Base+attr*Words.
type vertexDataFamily struct {
	Base uint32
	Type VertexBaseType
	Size uint32
}

var vertexDataFamilies = []vertexDataFamily{
	{NV4097_SET_VERTEX_DATA4F_M, VertexTypeF, 4},
	{NV4097_SET_VERTEX_DATA2F_M, VertexTypeF, 2},
	{NV4097_SET_VERTEX_DATA1F_M, VertexTypeF, 1},
	{NV4097_SET_VERTEX_DATA4S_M, VertexTypeS32K, 4},
	{NV4097_SET_VERTEX_DATA2S_M, VertexTypeS32K, 2},
	{NV4097_SET_VERTEX_DATA4UB_M, VertexTypeUB, 4},
}

func (f vertexDataFamily) Words() uint32 { return VertexSizeInDwords(f.Type, f.Size) }

// Cell is the register holding word sub of attribute attr.
func (f vertexDataFamily) Cell(attr, sub uint32) uint32 {
	return f.Base + attr*f.Words() + sub
}

func lookupVertexDataFamily(base uint32) (vertexDataFamily, bool) {
	for _, f := range vertexDataFamilies {
		if f.Base == base {
			return f, true
		}
	}
	return vertexDataFamily{}, false
}

// backfillSource supplies the register-held value used for back-fill.
type backfillSource interface {
	VertexRegister(attr uint32) VertexRegister
}

// PushBufferRecord accumulates one attribute across the vertices of a clause.
type PushBufferRecord struct {
	Attr        uint32
	Type        VertexBaseType
	Size        uint32
	VertexCount uint32
	Data        []uint32
}

func (rec *PushBufferRecord) vertexWords() uint32 {
	return VertexSizeInDwords(rec.Type, rec.Size)
}

// ImmediateAccumulator owns the per-attribute records of one clause.
type ImmediateAccumulator struct {
	records     [RSX_VERTEX_ATTRIBUTES]PushBufferRecord
	registers   backfillSource
	respecified int
	log         *slog.Logger
}

func newImmediateAccumulator(regs backfillSource, log *slog.Logger) ImmediateAccumulator {
	return ImmediateAccumulator{registers: regs, log: log}
}

// Set stores one word of attribute attr for vertex vertex. sub selects the
// word within the vertex.
func (a *ImmediateAccumulator) Set(attr, vertex, sub uint32, typ VertexBaseType, size, value uint32) {
	if attr >= RSX_VERTEX_ATTRIBUTES {
		contractViolation("immediate attribute %d out of range", attr)
		return
	}
	rec := &a.records[attr]
	if rec.VertexCount > 0 && (rec.Type != typ || rec.Size != size) {
		a.respecified++
		a.log.Error("rsx: vertex attribute respecified during draw",
			"attr", attr, "old_type", rec.Type, "new_type", typ, "old_size", rec.Size, "new_size", size)
	}
	rec.Attr = attr
	rec.Type = typ
	rec.Size = size

	words := rec.vertexWords()
	if sub >= words {
		contractViolation("immediate word %d outside %d-word attribute", sub, words)
		return
	}
	if vertex >= rec.VertexCount {
		a.padTo(attr, vertex+1, true)
	}
	offset := vertex*words + sub
	a.grow(rec, offset+1)
	rec.Data[offset] = value
}

// padTo extends attribute attr to required vertices, filling the new
// vertices from the register-held value. With skipLast the final vertex is
// left for the caller to write.
func (a *ImmediateAccumulator) padTo(attr, required uint32, skipLast bool) {
	rec := &a.records[attr]
	if rec.VertexCount >= required {
		return
	}
	words := rec.vertexWords()
	a.grow(rec, required*words)

	last := required
	if skipLast {
		last--
	}
	src := a.registers.VertexRegister(attr).Data
	for i := rec.VertexCount; i < last; i++ {
		copy(rec.Data[i*words:(i+1)*words], src[:words])
	}
	rec.VertexCount = required
}

func (a *ImmediateAccumulator) grow(rec *PushBufferRecord, n uint32) {
	if uint32(len(rec.Data)) >= n {
		return
	}
	if uint32(cap(rec.Data)) >= n {
		rec.Data = rec.Data[:n]
		return
	}
	data := make([]uint32, n, max(n, 2*uint32(cap(rec.Data))))
	copy(data, rec.Data)
	rec.Data = data
}

// Finish pads every written attribute to count vertices and returns copies
// of the accumulated data.
func (a *ImmediateAccumulator) Finish(count uint32) []ImmediateAttribute {
	var out []ImmediateAttribute
	for attr := range a.records {
		rec := &a.records[attr]
		if rec.VertexCount == 0 {
			continue
		}
		a.padTo(uint32(attr), count, false)
		words := rec.vertexWords()
		data := make([]uint32, count*words)
		copy(data, rec.Data)
		out = append(out, ImmediateAttribute{
			Attr:  uint32(attr),
			Type:  rec.Type,
			Size:  rec.Size,
			Words: words,
			Data:  data,
		})
	}
	return out
}

// Record returns attribute attr's record.
func (a *ImmediateAccumulator) Record(attr uint32) *PushBufferRecord {
	return &a.records[attr]
}

// Respecified reports how many type or size changes were seen mid-clause.
func (a *ImmediateAccumulator) Respecified() int {
	return a.respecified
}

// Clear drops all accumulated vertices, keeping buffer capacity.
func (a *ImmediateAccumulator) Clear() {
	for i := range a.records {
		rec := &a.records[i]
		rec.VertexCount = 0
		rec.Data = rec.Data[:0]
	}
	a.respecified = 0
}
