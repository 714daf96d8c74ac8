// main.go - Command line front end for the RSX command processor

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
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"
)

func boilerPlate() {
	fmt.Println("\n\033[38;2;255;20;147m ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████\033[0m\n\033[38;2;255;50;147m▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀\033[0m\n\033[38;2;255;80;147m▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███\033[0m\n\033[38;2;255;110;147m░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄\033[0m\n\033[38;2;255;140;147m░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒\033[0m\n\033[38;2;255;170;147m░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░\033[0m\n\033[38;2;255;200;147m ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░\033[0m\n\033[38;2;255;230;147m ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░\033[0m\n\033[38;2;255;255;147m ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░\033[0m")
	fmt.Println("\nRSX command processor core: NV4097 method dispatch, draw clauses and replay.")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/IntuitionEngine")
	fmt.Println("License: GPLv3 or later")
}

type options struct {
	trace, script   string
	backend         string
	async, window   bool
	dump, list      bool
	dumpPath        string
	saveState       string
	loadState       string
	idleTimeout     time.Duration
	clip            string
	verbose         int
	features, quiet bool
	width, height   int
}

func parseOptions(args []string) (*options, error) {
	var o options
	var verbose bool
	var veryVerbose bool

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&o.trace, "trace", "", "Replay a command buffer trace (.bin or .bin.gz)")
	flagSet.StringVar(&o.script, "script", "", "Build the command buffer from a Lua script")
	flagSet.StringVar(&o.backend, "backend", "software", "Rendering backend: software, vulkan or null")
	flagSet.BoolVar(&o.async, "async", false, "Run the backend on its own goroutine")
	flagSet.BoolVar(&o.window, "window", false, "Show the rendered frame in a window")
	flagSet.StringVar(&o.dumpPath, "dump", "", "Write the final frame to a .bmp or .png file")
	flagSet.BoolVar(&o.list, "list", false, "Print a disassembly of the command buffer and exit")
	flagSet.StringVar(&o.saveState, "save-state", "", "Save the processor state after replay")
	flagSet.StringVar(&o.loadState, "load-state", "", "Restore processor state before replay")
	flagSet.DurationVar(&o.idleTimeout, "idle-timeout", RSX_IDLE_TIMEOUT, "Bound on wait-for-idle handshakes")
	flagSet.StringVar(&o.clip, "clip", "", "Copy \"registers\" or \"listing\" to the clipboard")
	flagSet.BoolVar(&verbose, "v", false, "Log warnings and lifecycle events")
	flagSet.BoolVar(&veryVerbose, "vv", false, "Log per-command debug output")
	flagSet.BoolVar(&o.features, "features", false, "Print compiled features and exit")
	flagSet.BoolVar(&o.quiet, "q", false, "Suppress the banner")
	flagSet.IntVar(&o.width, "width", 640, "Framebuffer width")
	flagSet.IntVar(&o.height, "height", 480, "Framebuffer height")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: ./rsxcore -trace file.bin | -script file.lua [-backend software|vulkan|null] [-window] [-dump frame.bmp]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	switch {
	case veryVerbose:
		o.verbose = 2
	case verbose:
		o.verbose = 1
	}
	o.dump = o.dumpPath != ""
	if o.features {
		return &o, nil
	}
	if (o.trace == "") == (o.script == "") {
		return nil, errors.New("select exactly one of -trace or -script")
	}
	if o.width <= 0 || o.height <= 0 {
		return nil, fmt.Errorf("invalid framebuffer size %dx%d", o.width, o.height)
	}
	if o.clip != "" && o.clip != "registers" && o.clip != "listing" {
		return nil, fmt.Errorf("-clip wants registers or listing, not %q", o.clip)
	}
	return &o, nil
}

func newLogger(verbose int) *slog.Logger {
	level := slog.LevelError
	switch verbose {
	case 1:
		level = slog.LevelInfo
	case 2:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// renderer is what the CLI needs from a backend beyond the Backend
// interface: a frame to present and dump.
type renderer interface {
	Backend
	FrameSource
	Init(width, height int) error
}

func openBackend(o *options, memory *AddressSpace) (Backend, FrameSource, error) {
	var r renderer
	switch o.backend {
	case "null":
		return NewNullBackend(), nil, nil
	case "vulkan":
		vb, err := NewVulkanBackend(memory)
		if err != nil {
			Logger().Warn("rsx: falling back to software backend", "err", err)
			r = NewSoftwareBackend(memory)
			break
		}
		Logger().Info("rsx: vulkan device", "name", vb.DeviceName())
		r = vb
	case "software":
		r = NewSoftwareBackend(memory)
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", o.backend)
	}
	if err := r.Init(o.width, o.height); err != nil {
		return nil, nil, err
	}
	return r, r, nil
}

func loadCommands(ctx context.Context, o *options, memory *AddressSpace) ([]uint32, error) {
	if o.trace != "" {
		return LoadTrace(o.trace)
	}
	host := NewScriptHost(memory)
	if err := host.RunFile(ctx, o.script); err != nil {
		return nil, err
	}
	return host.Builder.Words(), nil
}

func run(ctx context.Context, o *options) error {
	cfg := DefaultProcessorConfig()
	cfg.IdleTimeout = o.idleTimeout
	memory := NewAddressSpace(cfg.LocalMemorySize, cfg.MainMemorySize)
	cfg.Memory = memory

	words, err := loadCommands(ctx, o, memory)
	if err != nil {
		return err
	}
	if o.list {
		return WriteListing(os.Stdout, NewFIFOReader(words))
	}

	backend, frames, err := openBackend(o, memory)
	if err != nil {
		return err
	}
	if o.async {
		backend = NewAsyncBackend(backend)
	}
	defer backend.Close()

	proc := NewProcessor(backend, cfg)
	if o.loadState != "" {
		snap, err := LoadStateFromFile(o.loadState)
		if err != nil {
			return err
		}
		if err := proc.Restore(snap); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		if err := proc.Run(gctx, NewFIFOReader(words)); err != nil {
			return err
		}
		idle, cancel := context.WithTimeout(gctx, o.idleTimeout)
		defer cancel()
		if err := backend.WaitIdle(idle); err != nil {
			return fmt.Errorf("final wait for idle: %w", err)
		}
		s := proc.Stats()
		Logger().Info("rsx: replay finished",
			"commands", s.Commands, "clauses", s.Clauses, "submissions", s.Submissions,
			"barriers", s.Barriers, "recoveries", s.Recoveries, "abandoned_waits", s.AbandonedWaits,
			"elapsed", time.Since(start))
		return nil
	})
	if o.window && frames != nil {
		presenter, err := NewWindowPresenter("rsxcore", statusLine(backend))
		if err != nil {
			return err
		}
		g.Go(func() error { return presenter.Run(gctx, frames) })
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if o.dump {
		if frames == nil {
			return fmt.Errorf("-dump needs a rendering backend, not %q", o.backend)
		}
		if err := DumpFrame(frames, o.dumpPath); err != nil {
			return err
		}
	}
	if o.saveState != "" {
		snap, err := proc.Snapshot()
		if err != nil {
			return err
		}
		if err := SaveStateToFile(snap, o.saveState); err != nil {
			return err
		}
	}
	if o.clip != "" {
		var buf bytes.Buffer
		if o.clip == "listing" {
			err = WriteListing(&buf, NewFIFOReader(words))
		} else {
			err = WriteRegisterDump(&buf, proc.Registers())
		}
		if err != nil {
			return err
		}
		if err := CopyToClipboard(buf.String()); err != nil {
			return err
		}
	}
	return nil
}

// statusLine reports backend progress for the presenter status bar.
func statusLine(b Backend) func() string {
	if ab, ok := b.(*AsyncBackend); ok {
		b = ab.Inner()
	}
	type counter interface {
		Stats() (draws, triangles, pixels int)
	}
	c, ok := b.(counter)
	if !ok {
		return nil
	}
	return func() string {
		draws, tris, pixels := c.Stats()
		return fmt.Sprintf("draws %d  triangles %d  pixels %d", draws, tris, pixels)
	}
}

func main() {
	o, err := parseOptions(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if o.features {
		printFeatures()
		return
	}
	if !o.quiet {
		boilerPlate()
	}
	SetLogger(newLogger(o.verbose))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, o); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
