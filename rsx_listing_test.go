// rsx_listing_test.go - Method names and disassembly

package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRSX_DescribeMethod(t *testing.T) {
	tests := []struct {
		op   uint32
		want string
	}{
		{NV4097_SET_DEPTH_FUNC, "NV4097_SET_DEPTH_FUNC"},
		{NV4097_SET_TEXTURE_OFFSET + 2*RSX_TEXTURE_UNIT_STRIDE, "NV4097_SET_TEXTURE_OFFSET[2]"},
		{NV4097_SET_VERTEX_DATA4F_M + 3*4 + 1, "NV4097_SET_VERTEX_DATA4F_M[3].1"},
		{NV4097_SET_VIEWPORT_SCALE + 2, "NV4097_SET_VIEWPORT_SCALE[2]"},
		{1, "method_0x0004"},
	}
	for _, tt := range tests {
		if got := DescribeMethod(tt.op); got != tt.want {
			t.Errorf("DescribeMethod(0x%X) = %q, want %q", tt.op, got, tt.want)
		}
	}
	if op, ok := methodsByName["NV4097_SET_TEXTURE_OFFSET"]; !ok || op != NV4097_SET_TEXTURE_OFFSET {
		t.Errorf("methodsByName texture offset = 0x%X, %v", op, ok)
	}
}

func TestRSX_WriteListing(t *testing.T) {
	var cb CommandBuilder
	cb.Method(NV4097_SET_DEPTH_FUNC, RSX_COMPARE_EQUAL).
		Repeat(NV4097_DRAW_ARRAYS, encodeDrawArgs(0, 3))

	var out bytes.Buffer
	if err := WriteListing(&out, cb.Reader()); err != nil {
		t.Fatalf("WriteListing: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("listing = %q", out.String())
	}
	if !strings.Contains(lines[0], "> ") || !strings.Contains(lines[0], "NV4097_SET_DEPTH_FUNC equal") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "NV4097_DRAW_ARRAYS") {
		t.Errorf("line 1 = %q", lines[1])
	}

	out.Reset()
	bad := NewFIFOReader([]uint32{packetHeader(NV4097_NOTIFY, 4, true)})
	if err := WriteListing(&out, bad); err == nil || !strings.HasPrefix(out.String(), "!! ") {
		t.Errorf("desync listing = %q, %v", out.String(), err)
	}
}

func TestRSX_WriteRegisterDump(t *testing.T) {
	p, _ := newTestProcessor(t)
	pushAll(t, p, [2]uint32{NV4097_SET_LINE_WIDTH, 24})
	var out bytes.Buffer
	if err := WriteRegisterDump(&out, p.Registers()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "NV4097_SET_LINE_WIDTH") {
		t.Errorf("dump missing line width:\n%s", out.String())
	}
	if strings.Contains(out.String(), "NV4097_SET_DEPTH_FUNC") && p.Registers().Raw(NV4097_SET_DEPTH_FUNC) == 0 {
		t.Error("dump lists a zero register")
	}
}
