// rsx_async_backend.go - Backend running on its own goroutine

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
rsx_async_backend.go - Asynchronous Backend

AsyncBackend forwards every Backend call to a worker goroutine through a
buffered job queue, so the command processor can keep decoding while the
wrapped backend renders. Calls are executed in submission order.

WaitIdle enqueues a fence and blocks until the worker reaches it or the
context expires. This is the handshake the processor's wait-for-idle and
reset paths rely on.
*/

package main

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

const asyncQueueDepth = 256

type AsyncBackend struct {
	inner Backend
	jobs  chan func()
	group errgroup.Group

	mutex    sync.RWMutex // held for reading while enqueueing
	closed   bool
	pending  atomic.Int64
	closeErr error
}

// NewAsyncBackend starts the worker for inner.
func NewAsyncBackend(inner Backend) *AsyncBackend {
	b := &AsyncBackend{
		inner: inner,
		jobs:  make(chan func(), asyncQueueDepth),
	}
	b.group.Go(b.worker)
	return b
}

func (b *AsyncBackend) worker() error {
	for job := range b.jobs {
		job()
		b.pending.Add(-1)
	}
	return nil
}

func (b *AsyncBackend) enqueue(job func()) bool {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	if b.closed {
		return false
	}
	b.pending.Add(1)
	b.jobs <- job
	return true
}

// Inner returns the wrapped backend.
func (b *AsyncBackend) Inner() Backend { return b.inner }

// Pending returns the number of queued calls not yet executed.
func (b *AsyncBackend) Pending() int { return int(b.pending.Load()) }

func (b *AsyncBackend) BeginDraw() { b.enqueue(b.inner.BeginDraw) }
func (b *AsyncBackend) EndDraw()   { b.enqueue(b.inner.EndDraw) }

func (b *AsyncBackend) SubmitRange(call DrawCall) {
	b.enqueue(func() { b.inner.SubmitRange(call) })
}

func (b *AsyncBackend) OnDirty(flags DirtyFlags) {
	b.enqueue(func() { b.inner.OnDirty(flags) })
}

func (b *AsyncBackend) ClearSurface(op ClearOp) {
	b.enqueue(func() { b.inner.ClearSurface(op) })
}

func (b *AsyncBackend) WaitIdle(ctx context.Context) error {
	fence := make(chan error, 1)
	if !b.enqueue(func() { fence <- b.inner.WaitIdle(ctx) }) {
		return ErrBackendClosed
	}
	select {
	case err := <-fence:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue, stops the worker and closes the wrapped backend.
func (b *AsyncBackend) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.closed {
		return b.closeErr
	}
	b.closed = true
	close(b.jobs)
	b.closeErr = errors.Join(b.group.Wait(), b.inner.Close())
	return b.closeErr
}
