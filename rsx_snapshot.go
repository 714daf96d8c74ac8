// rsx_snapshot.go - Command processor state snapshot for save/load

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
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"slices"
)

const (
	rsxSnapshotMagic   = "RSXS"
	rsxSnapshotVersion = 2
)

// StateSnapshot is everything needed to resume a context: the register
// file, the transform program, the transform constants and, per attribute,
// which VERTEX_DATA* family holds its register value. The upload cursors
// are register cells and are copied out for inspection only.
type StateSnapshot struct {
	Registers      []uint32
	Microcode      []uint32
	Constants      []uint32
	VertexFamilies []uint32
	ProgramLoad  uint32
	ConstantLoad uint32
}

// Snapshot captures the context. It fails inside any begin/end bracket,
// including one opened with an invalid primitive, and while the clause
// holds unflushed ranges or barriers.
func (p *Processor) Snapshot() (*StateSnapshot, error) {
	if p.inBracket() {
		return nil, fmt.Errorf("snapshot: %w (%s, %d ranges, degenerate %t)",
			ErrClauseInFlight, p.clause.State(), len(p.clause.ranges), p.degenerate)
	}
	return &StateSnapshot{
		Registers:      p.regs.Cells(),
		Microcode:      slices.Clone(p.microcode[:]),
		Constants:      slices.Clone(p.constants[:]),
		VertexFamilies: slices.Clone(p.vertexFamily[:]),
		ProgramLoad:    p.regs.Raw(NV4097_SET_TRANSFORM_PROGRAM_LOAD),
		ConstantLoad:   p.regs.Raw(NV4097_SET_TRANSFORM_CONSTANT_LOAD),
	}, nil
}

func (p *Processor) inBracket() bool {
	return p.degenerate || p.clause.State() != ClauseIdle || !p.clause.Empty()
}

// Restore replaces the context state with snap. Every category is marked
// dirty so the backend rebuilds its state before the next draw.
func (p *Processor) Restore(snap *StateSnapshot) error {
	if p.inBracket() {
		return fmt.Errorf("restore: %w", ErrClauseInFlight)
	}
	if len(snap.Microcode) != len(p.microcode) {
		return fmt.Errorf("%w: %d microcode words, want %d", ErrBadSnapshot, len(snap.Microcode), len(p.microcode))
	}
	if len(snap.Constants) != len(p.constants) {
		return fmt.Errorf("%w: %d constant words, want %d", ErrBadSnapshot, len(snap.Constants), len(p.constants))
	}
	if len(snap.VertexFamilies) != len(p.vertexFamily) {
		return fmt.Errorf("%w: %d vertex families, want %d", ErrBadSnapshot, len(snap.VertexFamilies), len(p.vertexFamily))
	}
	for attr, base := range snap.VertexFamilies {
		if _, ok := lookupVertexDataFamily(base); base != 0 && !ok {
			return fmt.Errorf("%w: attribute %d names unknown vertex family 0x%X", ErrBadSnapshot, attr, base)
		}
	}
	if err := p.regs.Load(snap.Registers); err != nil {
		return err
	}
	copy(p.microcode[:], snap.Microcode)
	copy(p.constants[:], snap.Constants)
	copy(p.vertexFamily[:], snap.VertexFamilies)
	p.dirty = DirtyAll
	return nil
}

// SaveStateToFile writes a snapshot: magic, version, then the four arrays
// gzip compressed as little-endian word counts and words.
func SaveStateToFile(snap *StateSnapshot, path string) error {
	var buf bytes.Buffer

	buf.WriteString(rsxSnapshotMagic)
	binary.Write(&buf, binary.LittleEndian, uint32(rsxSnapshotVersion))

	gz := gzip.NewWriter(&buf)
	for _, section := range [][]uint32{snap.Registers, snap.Microcode, snap.Constants, snap.VertexFamilies} {
		if err := binary.Write(gz, binary.LittleEndian, uint32(len(section))); err != nil {
			return fmt.Errorf("compressing state: %w", err)
		}
		if err := binary.Write(gz, binary.LittleEndian, section); err != nil {
			return fmt.Errorf("compressing state: %w", err)
		}
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("closing gzip: %w", err)
	}

	return os.WriteFile(path, buf.Bytes(), 0644)
}

// LoadStateFromFile reads a snapshot written by SaveStateToFile.
func LoadStateFromFile(path string) (*StateSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeState(bytes.NewReader(data))
}

func decodeState(r io.Reader) (*StateSnapshot, error) {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("%w: reading magic: %w", ErrBadSnapshot, err)
	}
	if string(magic) != rsxSnapshotMagic {
		return nil, fmt.Errorf("%w: invalid magic %q", ErrBadSnapshot, string(magic))
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: reading version: %w", ErrBadSnapshot, err)
	}
	if version != rsxSnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, version)
	}

	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: opening gzip reader: %w", ErrBadSnapshot, err)
	}
	defer gz.Close()

	limits := []int{RSX_REGISTER_COUNT, RSX_TRANSFORM_PROGRAM_SIZE * 4, RSX_TRANSFORM_CONSTANTS * 4, RSX_VERTEX_ATTRIBUTES}
	sections := make([][]uint32, len(limits))
	for i, limit := range limits {
		var n uint32
		if err := binary.Read(gz, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("%w: reading section %d length: %w", ErrBadSnapshot, i, err)
		}
		if int(n) != limit {
			return nil, fmt.Errorf("%w: section %d holds %d words, want %d", ErrBadSnapshot, i, n, limit)
		}
		sections[i] = make([]uint32, n)
		if err := binary.Read(gz, binary.LittleEndian, sections[i]); err != nil {
			return nil, fmt.Errorf("%w: reading section %d: %w", ErrBadSnapshot, i, err)
		}
	}

	regs := sections[0]
	return &StateSnapshot{
		Registers:      regs,
		Microcode:      sections[1],
		Constants:      sections[2],
		VertexFamilies: sections[3],
		ProgramLoad:    regs[NV4097_SET_TRANSFORM_PROGRAM_LOAD],
		ConstantLoad:   regs[NV4097_SET_TRANSFORM_CONSTANT_LOAD],
	}, nil
}
