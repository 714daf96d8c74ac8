// rsx_present.go - Frame presentation

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
	"context"
	"errors"
	"sync"
)

var ErrNoDisplay = errors.New("rsx: no display available in this build")

// FrameSource is a backend that renders into an RGBA colour buffer.
type FrameSource interface {
	Frame() []byte
	Size() (width, height int)
}

// Presenter shows frames from a FrameSource until ctx is cancelled or the
// user closes the display.
type Presenter interface {
	Run(ctx context.Context, src FrameSource) error
}

// HeadlessPresenter keeps the last frame in memory. Used by -window=false
// and in tests.
type HeadlessPresenter struct {
	mutex  sync.Mutex
	frame  []byte
	frames uint64
}

func (h *HeadlessPresenter) Run(ctx context.Context, src FrameSource) error {
	h.Capture(src)
	<-ctx.Done()
	h.Capture(src)
	return nil
}

// Capture copies the current frame of src.
func (h *HeadlessPresenter) Capture(src FrameSource) {
	frame := src.Frame()
	h.mutex.Lock()
	h.frame = frame
	h.frames++
	h.mutex.Unlock()
}

func (h *HeadlessPresenter) LastFrame() []byte {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.frame
}

func (h *HeadlessPresenter) FrameCount() uint64 {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.frames
}
