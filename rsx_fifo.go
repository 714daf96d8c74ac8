// rsx_fifo.go - Command buffer parsing and replay

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
rsx_fifo.go - Command FIFO

A command buffer is a sequence of 32-bit words: packet headers followed by
their arguments.

	count  = (h >> 18) & 0x7FF
	method = (h & 0xFFFC) >> 2

	h & 0xE0030003 == 0x00000000   incrementing packet (method+1 per argument)
	h & 0xE0030003 == 0x40000000   non-incrementing packet
	h & 0xE0000003 == 0x20000000   jump to h & 0x1FFFFFFC
	h & 0x00000003 == 0x00000001   jump to h & ~3
	h & 0x00000003 == 0x00000002   call h & ~3 (one level)
	h & 0xFFFF0003 == 0x00020000   return
	h == 0                         no operation

Jump and call targets are byte offsets into the buffer.
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const (
	FIFO_NON_INCREMENT = 0x40000000
	FIFO_OLD_JUMP      = 0x20000000
	FIFO_NEW_JUMP      = 0x00000001
	FIFO_CALL          = 0x00000002
	FIFO_RETURN        = 0x00020000
	FIFO_COUNT_SHIFT   = 18
	FIFO_MAX_COUNT     = 0x7FF
)

// Command is one decoded method/argument pair.
type Command struct {
	Method      uint32
	Arg         uint32
	Pos         uint32 // byte offset of the argument
	PacketStart bool   // first argument of its packet
}

// FIFOReader walks a command buffer.
type FIFOReader struct {
	words []uint32
	get   int

	method    uint32
	left      int
	increment bool
	first     bool

	ret    int
	inCall bool
	hops   int
}

func NewFIFOReader(words []uint32) *FIFOReader {
	return &FIFOReader{words: words}
}

// Pos returns the byte offset of the next word to be read.
func (r *FIFOReader) Pos() uint32 { return uint32(r.get * 4) }

func (r *FIFOReader) desync(method uint32, pos int, details string) error {
	return &CommandError{Op: "fifo", Method: method, Pos: uint32(pos * 4), Details: details, Err: ErrFIFODesync}
}

func (r *FIFOReader) jump(target uint32, from int) error {
	r.hops++
	if int(target/4) > len(r.words) {
		return r.desync(0, from, fmt.Sprintf("jump to 0x%08X outside %d-byte buffer", target, len(r.words)*4))
	}
	if r.hops > len(r.words)+1 {
		return r.desync(0, from, "jump loop")
	}
	r.get = int(target / 4)
	return nil
}

// Next returns the next command, or io.EOF at the end of the buffer.
func (r *FIFOReader) Next() (Command, error) {
	for {
		if r.left > 0 {
			if r.get >= len(r.words) {
				return Command{}, r.desync(r.method, r.get, "argument past end of buffer")
			}
			cmd := Command{Method: r.method, Arg: r.words[r.get], Pos: uint32(r.get * 4), PacketStart: r.first}
			r.get++
			r.left--
			r.first = false
			if r.increment {
				r.method++
			}
			r.hops = 0
			return cmd, nil
		}
		if r.get >= len(r.words) {
			return Command{}, io.EOF
		}

		at := r.get
		h := r.words[r.get]
		r.get++
		switch {
		case h == 0:
		case h&0xE0000003 == FIFO_OLD_JUMP:
			if err := r.jump(h&0x1FFFFFFC, at); err != nil {
				return Command{}, err
			}
		case h&3 == FIFO_NEW_JUMP:
			if err := r.jump(h&^3, at); err != nil {
				return Command{}, err
			}
		case h&3 == FIFO_CALL:
			if r.inCall {
				return Command{}, r.desync(0, at, "nested call")
			}
			r.ret, r.inCall = r.get, true
			if err := r.jump(h&^3, at); err != nil {
				return Command{}, err
			}
		case h&0xFFFF0003 == FIFO_RETURN:
			if !r.inCall {
				return Command{}, r.desync(0, at, "return without call")
			}
			r.get, r.inCall = r.ret, false
		case h&0xE0030003 == 0 || h&0xE0030003 == FIFO_NON_INCREMENT:
			count := int((h >> FIFO_COUNT_SHIFT) & FIFO_MAX_COUNT)
			method := (h & 0xFFFC) >> 2
			if r.get+count > len(r.words) {
				return Command{}, r.desync(method, at,
					fmt.Sprintf("header wants %d arguments, %d words left", count, len(r.words)-r.get))
			}
			r.method, r.left = method, count
			r.increment = h&FIFO_NON_INCREMENT == 0
			r.first = true
		default:
			return Command{}, r.desync(0, at, fmt.Sprintf("unknown header 0x%08X", h))
		}
	}
}

// Remaining returns the arguments left in the current incrementing packet.
// Non-incrementing packets report zero: their arguments are not a bulk
// upload.
func (r *FIFOReader) Remaining() int {
	if !r.increment {
		return 0
	}
	return r.left
}

// Take consumes n trailing arguments of the current packet.
func (r *FIFOReader) Take(n int) ([]uint32, error) {
	if n > r.left || r.get+n > len(r.words) {
		return nil, r.desync(r.method, r.get, fmt.Sprintf("take %d of %d arguments", n, r.left))
	}
	out := r.words[r.get : r.get+n]
	r.get += n
	r.left -= n
	if r.increment {
		r.method += uint32(n)
	}
	return out, nil
}

// SkipPacket drops the rest of the current packet.
func (r *FIFOReader) SkipPacket() int {
	n := r.left
	r.get += n
	r.left = 0
	return n
}

// Run replays every command of r. It stops at the end of the buffer, on a
// protocol desync, on a fatal command, or when ctx is cancelled.
func (p *Processor) Run(ctx context.Context, r *FIFOReader) error {
	p.stream = r
	defer func() { p.stream = nil }()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		cmd, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			p.halt(err)
			return err
		}
		switch p.dispatch(cmd) {
		case StatusRecover:
			if n := r.SkipPacket(); n > 0 {
				p.log.Warn("rsx: fifo recovery", "skipped", n, "pos", r.Pos())
			}
		case StatusHalt:
			return p.err
		}
	}
}

// =============================================================================
// Command buffer construction
// =============================================================================

// CommandBuilder assembles a command buffer.
type CommandBuilder struct {
	words []uint32
}

func packetHeader(op uint32, count int, increment bool) uint32 {
	if count > FIFO_MAX_COUNT {
		contractViolation("packet of %d arguments", count)
		count = FIFO_MAX_COUNT
	}
	h := uint32(count)<<FIFO_COUNT_SHIFT | (op<<2)&0xFFFC
	if !increment {
		h |= FIFO_NON_INCREMENT
	}
	return h
}

// Method appends an incrementing packet starting at op.
func (b *CommandBuilder) Method(op uint32, args ...uint32) *CommandBuilder {
	b.words = append(b.words, packetHeader(op, len(args), true))
	b.words = append(b.words, args...)
	return b
}

// Repeat appends a non-incrementing packet writing every argument to op.
func (b *CommandBuilder) Repeat(op uint32, args ...uint32) *CommandBuilder {
	b.words = append(b.words, packetHeader(op, len(args), false))
	b.words = append(b.words, args...)
	return b
}

func (b *CommandBuilder) Jump(target uint32) *CommandBuilder {
	b.words = append(b.words, target&^3|FIFO_NEW_JUMP)
	return b
}

func (b *CommandBuilder) Call(target uint32) *CommandBuilder {
	b.words = append(b.words, target&^3|FIFO_CALL)
	return b
}

func (b *CommandBuilder) Return() *CommandBuilder {
	b.words = append(b.words, FIFO_RETURN)
	return b
}

// Raw appends words verbatim.
func (b *CommandBuilder) Raw(words ...uint32) *CommandBuilder {
	b.words = append(b.words, words...)
	return b
}

// Len returns the buffer length in bytes.
func (b *CommandBuilder) Len() uint32 { return uint32(len(b.words) * 4) }

func (b *CommandBuilder) Words() []uint32 { return b.words }

func (b *CommandBuilder) Reader() *FIFOReader { return NewFIFOReader(b.words) }
