//go:build !headless

// rsx_present_ebiten.go - Ebiten window presenter

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
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

func init() {
	compiledFeatures = append(compiledFeatures, "present:ebiten")
}

// EbitenPresenter shows the backend colour buffer in a window.
//
//	F11  toggle fullscreen
//	F12  toggle the status bar
//	F9   copy the status line to the clipboard
type EbitenPresenter struct {
	title  string
	status func() string

	ctx    context.Context
	src    FrameSource
	window *ebiten.Image
	width  int
	height int

	mutex         sync.RWMutex
	fullscreen    bool
	showStatusBar bool
	frameCount    uint64
}

// NewWindowPresenter returns an ebiten presenter. status, if non-nil,
// supplies the text of the status bar.
func NewWindowPresenter(title string, status func() string) (Presenter, error) {
	return &EbitenPresenter{title: title, status: status, showStatusBar: status != nil}, nil
}

// Run blocks in the ebiten game loop until the window closes or ctx is
// cancelled.
func (ep *EbitenPresenter) Run(ctx context.Context, src FrameSource) error {
	ep.ctx = ctx
	ep.src = src
	ep.width, ep.height = src.Size()

	ebiten.SetWindowSize(ep.width, ep.height)
	ebiten.SetWindowTitle(ep.title)
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)
	return ebiten.RunGame(ep)
}

func (ep *EbitenPresenter) Update() error {
	if ebiten.IsWindowBeingClosed() || ep.ctx.Err() != nil {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ep.mutex.Lock()
		ep.fullscreen = !ep.fullscreen
		ebiten.SetFullscreen(ep.fullscreen)
		if !ep.fullscreen {
			ebiten.SetWindowSize(ep.width, ep.height)
		}
		ep.mutex.Unlock()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) && ep.status != nil {
		ep.mutex.Lock()
		ep.showStatusBar = !ep.showStatusBar
		ep.mutex.Unlock()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) && ep.status != nil {
		if err := CopyToClipboard(ep.status()); err != nil {
			Logger().Warn("rsx: clipboard copy failed", "err", err)
		}
	}
	return nil
}

func (ep *EbitenPresenter) Draw(screen *ebiten.Image) {
	if ep.window == nil {
		ep.window = ebiten.NewImage(ep.width, ep.height)
	}
	if frame := ep.src.Frame(); len(frame) == ep.width*ep.height*4 {
		ep.window.WritePixels(frame)
	}
	screen.DrawImage(ep.window, nil)

	ep.mutex.Lock()
	showStatusBar := ep.showStatusBar
	ep.frameCount++
	ep.mutex.Unlock()
	if showStatusBar {
		ep.drawStatusBar(screen)
	}
}

func (ep *EbitenPresenter) Layout(_, _ int) (int, int) {
	return ep.width, ep.height
}

func (ep *EbitenPresenter) drawStatusBar(screen *ebiten.Image) {
	barHeight := 18
	if barHeight >= ep.height {
		return
	}
	y := ep.height - barHeight
	ebitenutil.DrawRect(screen, 0, float64(y), float64(ep.width), float64(barHeight), color.RGBA{0, 0, 0, 180})
	text.Draw(screen, ep.status(), basicfont.Face7x13, 6, y+13, color.RGBA{0, 220, 90, 255})
}
