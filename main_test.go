package main

import (
	"strings"
	"testing"
	"time"
)

func TestParseOptions_Trace(t *testing.T) {
	o, err := parseOptions([]string{"-trace", "frame.bin.gz", "-width", "320", "-height", "240", "-idle-timeout", "50ms", "-vv"})
	if err != nil {
		t.Fatalf("parseOptions: %v", err)
	}
	if o.trace != "frame.bin.gz" || o.width != 320 || o.height != 240 {
		t.Fatalf("unexpected options %+v", o)
	}
	if o.idleTimeout != 50*time.Millisecond {
		t.Fatalf("expected 50ms idle timeout, got %v", o.idleTimeout)
	}
	if o.verbose != 2 {
		t.Fatalf("expected verbose 2, got %d", o.verbose)
	}
	if o.backend != "software" || o.dump {
		t.Fatalf("unexpected defaults %+v", o)
	}
}

func TestParseOptions_DumpPath(t *testing.T) {
	o, err := parseOptions([]string{"-script", "scene.lua", "-dump", "out.png"})
	if err != nil {
		t.Fatalf("parseOptions: %v", err)
	}
	if !o.dump || o.dumpPath != "out.png" {
		t.Fatalf("expected dump to out.png, got %+v", o)
	}
}

func TestParseOptions_FeaturesSkipsInputCheck(t *testing.T) {
	o, err := parseOptions([]string{"-features"})
	if err != nil {
		t.Fatalf("parseOptions: %v", err)
	}
	if !o.features {
		t.Fatal("expected features flag")
	}
}

func TestParseOptions_Rejects(t *testing.T) {
	cases := map[string][]string{
		"no input":   {},
		"two inputs": {"-trace", "a.bin", "-script", "b.lua"},
		"bad size":   {"-trace", "a.bin", "-width", "0"},
		"bad clip":   {"-trace", "a.bin", "-clip", "screen"},
		"bad flag":   {"-nope"},
	}
	for name, args := range cases {
		if _, err := parseOptions(args); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestStatusLine_Software(t *testing.T) {
	b := NewSoftwareBackend(nil)
	if err := b.Init(2, 2); err != nil {
		t.Fatal(err)
	}
	if got := statusLine(b)(); !strings.Contains(got, "draws") {
		t.Fatalf("expected draw counters in status line, got %q", got)
	}
}
