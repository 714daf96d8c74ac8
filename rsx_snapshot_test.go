// rsx_snapshot_test.go - Save state round trip and validation

package main

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestRSX_SnapshotRefusesOpenClause(t *testing.T) {
	p, _ := newTestProcessor(t)
	pushAll(t, p, [2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_TRIANGLES})

	if _, err := p.Snapshot(); !errors.Is(err, ErrClauseInFlight) {
		t.Fatalf("Snapshot with open clause = %v, want ErrClauseInFlight", err)
	}
	if err := p.Restore(&StateSnapshot{}); !errors.Is(err, ErrClauseInFlight) {
		t.Fatalf("Restore with open clause = %v, want ErrClauseInFlight", err)
	}

	pushAll(t, p, [2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_NONE})
	if _, err := p.Snapshot(); err != nil {
		t.Fatalf("Snapshot after end: %v", err)
	}
}

func TestRSX_SnapshotFileRoundTrip(t *testing.T) {
	src, _ := newTestProcessor(t)
	pushAll(t, src,
		[2]uint32{NV4097_SET_DEPTH_FUNC, RSX_COMPARE_GEQUAL},
		[2]uint32{NV4097_SET_BLEND_ENABLE, 1},
		[2]uint32{NV4097_SET_TEXTURE_FORMAT + 5*RSX_TEXTURE_UNIT_STRIDE, 0xCAFE},
		[2]uint32{NV4097_SET_TRANSFORM_PROGRAM_LOAD, 0},
		[2]uint32{NV4097_SET_TRANSFORM_PROGRAM, 0xAABBCCDD},
		[2]uint32{NV4097_SET_TRANSFORM_CONSTANT_LOAD, 1},
		[2]uint32{NV4097_SET_TRANSFORM_CONSTANT + 2, f32(3.5)},
	)
	snap, err := src.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	path := filepath.Join(t.TempDir(), "context.rsxs")
	if err := SaveStateToFile(snap, path); err != nil {
		t.Fatalf("SaveStateToFile: %v", err)
	}
	loaded, err := LoadStateFromFile(path)
	if err != nil {
		t.Fatalf("LoadStateFromFile: %v", err)
	}

	dst, backend := newTestProcessor(t)
	pushAll(t, dst, [2]uint32{NV4097_CLEAR_SURFACE, RSX_CLEAR_Z})
	backend.reset()
	if err := dst.Restore(loaded); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if !slices.Equal(dst.Registers().Cells(), src.Registers().Cells()) {
		t.Error("registers differ after restore")
	}
	if !slices.Equal(dst.Microcode(), src.Microcode()) {
		t.Error("microcode differs after restore")
	}
	if got := dst.ConstantVec4(1)[2]; got != 3.5 {
		t.Errorf("constant 1.z = %v, want 3.5", got)
	}
	if loaded.ProgramLoad != src.Registers().Raw(NV4097_SET_TRANSFORM_PROGRAM_LOAD) {
		t.Errorf("program load = %d", loaded.ProgramLoad)
	}

	pushAll(t, dst, [2]uint32{NV4097_CLEAR_SURFACE, RSX_CLEAR_Z})
	if flags := backend.dirtyFlags(); len(flags) != 1 || flags[0] != DirtyAll {
		t.Errorf("dirty after restore = %v, want all", flags)
	}
}

func TestRSX_SnapshotRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		data []byte
	}{
		{"bad_magic", []byte("NOPE\x01\x00\x00\x00")},
		{"short", []byte("RS")},
		{"bad_version", []byte("RSXS\x09\x00\x00\x00")},
		{"truncated_body", []byte("RSXS\x02\x00\x00\x00\x1f\x8b")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			if err := os.WriteFile(path, tt.data, 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadStateFromFile(path); !errors.Is(err, ErrBadSnapshot) {
				t.Fatalf("LoadStateFromFile = %v, want ErrBadSnapshot", err)
			}
		})
	}
}

func TestRSX_RestoreRejectsWrongSizes(t *testing.T) {
	p, _ := newTestProcessor(t)
	snap, err := p.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	snap.Registers = snap.Registers[:10]
	if err := p.Restore(snap); !errors.Is(err, ErrBadSnapshot) {
		t.Fatalf("Restore short registers = %v, want ErrBadSnapshot", err)
	}
	snap, _ = p.Snapshot()
	snap.Constants = nil
	if err := p.Restore(snap); !errors.Is(err, ErrBadSnapshot) {
		t.Fatalf("Restore missing constants = %v, want ErrBadSnapshot", err)
	}
	snap, _ = p.Snapshot()
	snap.VertexFamilies = nil
	if err := p.Restore(snap); !errors.Is(err, ErrBadSnapshot) {
		t.Fatalf("Restore missing vertex families = %v, want ErrBadSnapshot", err)
	}
	snap, _ = p.Snapshot()
	snap.VertexFamilies[2] = NV4097_SET_VERTEX_DATA4F_M + 1
	if err := p.Restore(snap); !errors.Is(err, ErrBadSnapshot) {
		t.Fatalf("Restore unknown vertex family = %v, want ErrBadSnapshot", err)
	}
}

func TestRSX_SnapshotRefusesDegenerateBracket(t *testing.T) {
	p, _ := newTestProcessor(t)
	if s := p.Push(NV4097_SET_BEGIN_END, 0x55); s != StatusRecover {
		t.Fatalf("invalid primitive = %s, want recover", s)
	}
	if _, err := p.Snapshot(); !errors.Is(err, ErrClauseInFlight) {
		t.Fatalf("Snapshot in degenerate bracket = %v, want ErrClauseInFlight", err)
	}
	if err := p.Restore(&StateSnapshot{}); !errors.Is(err, ErrClauseInFlight) {
		t.Fatalf("Restore in degenerate bracket = %v, want ErrClauseInFlight", err)
	}

	p.Push(NV4097_SET_BEGIN_END, RSX_PRIMITIVE_NONE)
	if _, err := p.Snapshot(); err != nil {
		t.Fatalf("Snapshot after end: %v", err)
	}
}

// A restored context back-fills skipped immediate vertices from the same
// attribute value as the context it was saved from.
func TestRSX_RestoredContextBackFillsImmediateAttributes(t *testing.T) {
	half := f32(0.5)
	src, srcBackend := newTestProcessor(t)
	for c := uint32(0); c < 4; c++ {
		pushAll(t, src, [2]uint32{NV4097_SET_VERTEX_DATA4F_M + 3*4 + c, half})
	}
	snap, err := src.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	path := filepath.Join(t.TempDir(), "context.rsxs")
	if err := SaveStateToFile(snap, path); err != nil {
		t.Fatalf("SaveStateToFile: %v", err)
	}
	loaded, err := LoadStateFromFile(path)
	if err != nil {
		t.Fatalf("LoadStateFromFile: %v", err)
	}
	dst, dstBackend := newTestProcessor(t)
	if err := dst.Restore(loaded); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got, want := dst.VertexRegister(3), src.VertexRegister(3); got != want {
		t.Fatalf("restored register = %+v, want %+v", got, want)
	}

	// Colour is first sent for vertex 1, so vertex 0 takes the register value.
	white := f32(1)
	position := func(p *Processor, x float32) {
		pushAll(t, p,
			[2]uint32{NV4097_SET_VERTEX_DATA4F_M + 0, f32(x)},
			[2]uint32{NV4097_SET_VERTEX_DATA4F_M + 1, f32(0)},
			[2]uint32{NV4097_SET_VERTEX_DATA4F_M + 2, f32(0)},
			[2]uint32{NV4097_SET_VERTEX_DATA4F_M + 3, f32(1)},
		)
	}
	colours := func(p *Processor, backend *recordingBackend) []uint32 {
		t.Helper()
		pushAll(t, p, [2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_TRIANGLES})
		position(p, 0)
		for c := uint32(0); c < 4; c++ {
			pushAll(t, p, [2]uint32{NV4097_SET_VERTEX_DATA4F_M + 3*4 + c, white})
		}
		position(p, 1)
		position(p, 2)
		pushAll(t, p, [2]uint32{NV4097_SET_BEGIN_END, RSX_PRIMITIVE_NONE})

		calls := backend.submits()
		if len(calls) != 1 {
			t.Fatalf("submits = %d, want 1", len(calls))
		}
		for _, attr := range calls[0].Immediate {
			if attr.Attr == 3 {
				return attr.Data
			}
		}
		t.Fatal("colour attribute missing")
		return nil
	}

	want := colours(src, srcBackend)
	got := colours(dst, dstBackend)
	if !slices.Equal(got, want) {
		t.Errorf("restored colours = %08X, want %08X", got, want)
	}
	if !slices.Equal(got[:4], []uint32{half, half, half, half}) {
		t.Errorf("vertex 0 colour = %08X, want back-filled 0.5", got[:4])
	}
	if !slices.Equal(got[4:], []uint32{white, white, white, white, white, white, white, white}) {
		t.Errorf("vertices 1-2 colour = %08X, want white", got[4:])
	}
}
