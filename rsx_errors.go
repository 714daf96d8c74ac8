// rsx_errors.go - Error taxonomy for the command processor

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
	"errors"
	"fmt"
)

var (
	ErrFIFODesync        = errors.New("rsx: command stream desynchronized")
	ErrIdleTimeout       = errors.New("rsx: backend did not reach idle in time")
	ErrClauseInFlight    = errors.New("rsx: draw clause in flight")
	ErrBadSnapshot       = errors.New("rsx: malformed state snapshot")
	ErrUnmappedAddress   = errors.New("rsx: address not mapped")
	ErrBackendClosed     = errors.New("rsx: backend closed")
	ErrVulkanUnavailable = errors.New("rsx: vulkan unavailable")
)

// CommandError carries the stream context of a failure so the producer that
// misbehaved can be identified.
type CommandError struct {
	Op      string // What the processor was doing
	Method  uint32 // Register index of the offending command
	Pos     uint32 // Byte offset in the command buffer
	Details string
	Err     error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("rsx %s failed at 0x%08X (%s)", e.Op, e.Pos, DescribeMethod(e.Method))
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// contractHook receives logic-contract violations. Release builds log and
// carry on; rsxdebug builds panic. Tests swap it to observe violations.
var contractHook = defaultContractHook

func contractViolation(format string, args ...any) {
	contractHook(fmt.Sprintf(format, args...))
}

func defaultContractHook(msg string) {
	if contractPanics {
		panic("rsx: contract violation: " + msg)
	}
	Logger().Error("rsx: contract violation", "detail", msg)
}
