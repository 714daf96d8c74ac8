// rsx_memory.go - Address resolution for command processor memory references

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
rsx_memory.go - GPU Address Space

The command processor never computes host addresses itself. Every (offset,
location) pair taken from a register goes through a MemoryResolver.

AddressSpace is the stock resolver: a local memory window at
RSX_LOCAL_MEMORY_BASE plus main memory reached through an IO page table with
1 MB granularity, the way the console maps system memory for the GPU.
*/

package main

import (
	"fmt"
	"sync"
)

// Location tags an address space.
type Location uint8

const (
	LocationLocal Location = iota
	LocationMain
)

func (l Location) String() string {
	switch l {
	case LocationLocal:
		return "local"
	case LocationMain:
		return "main"
	}
	return fmt.Sprintf("location(%d)", uint8(l))
}

// MemoryResolver turns an (offset, location) pair into a host-linear address.
type MemoryResolver interface {
	Resolve(offset uint32, loc Location) (uint64, error)
}

// MemoryReader is implemented by resolvers that can also hand out the bytes
// behind a resolved address. Backends and index bound scans use it when
// present.
type MemoryReader interface {
	Bytes(addr uint64, n int) ([]byte, error)
}

// ResolverFunc adapts a plain function to MemoryResolver.
type ResolverFunc func(offset uint32, loc Location) (uint64, error)

func (f ResolverFunc) Resolve(offset uint32, loc Location) (uint64, error) {
	return f(offset, loc)
}

// AddressSpace owns GPU local memory and a view of main memory.
type AddressSpace struct {
	mutex sync.RWMutex
	local []byte
	main  []byte
	ioMap map[uint32]uint32 // IO page -> main memory page
}

// NewAddressSpace allocates localSize bytes of local memory and mainSize
// bytes of main memory.
func NewAddressSpace(localSize, mainSize int) *AddressSpace {
	return &AddressSpace{
		local: make([]byte, localSize),
		main:  make([]byte, mainSize),
		ioMap: make(map[uint32]uint32),
	}
}

// MapIO maps size bytes of main memory at ea into the GPU IO window at io.
// All three values must be page aligned.
func (a *AddressSpace) MapIO(io, ea, size uint32) error {
	if io%RSX_IO_PAGE_SIZE != 0 || ea%RSX_IO_PAGE_SIZE != 0 || size%RSX_IO_PAGE_SIZE != 0 {
		return fmt.Errorf("map io 0x%08X -> 0x%08X (0x%X bytes): not page aligned", io, ea, size)
	}
	if uint64(ea)+uint64(size) > uint64(len(a.main)) {
		return fmt.Errorf("map io 0x%08X -> 0x%08X (0x%X bytes): %w", io, ea, size, ErrUnmappedAddress)
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()
	for off := uint32(0); off < size; off += RSX_IO_PAGE_SIZE {
		a.ioMap[(io+off)>>RSX_IO_PAGE_SHIFT] = (ea + off) >> RSX_IO_PAGE_SHIFT
	}
	return nil
}

// UnmapIO removes the IO pages covering [io, io+size).
func (a *AddressSpace) UnmapIO(io, size uint32) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	for off := uint32(0); off < size; off += RSX_IO_PAGE_SIZE {
		delete(a.ioMap, (io+off)>>RSX_IO_PAGE_SHIFT)
	}
}

// Resolve implements MemoryResolver.
func (a *AddressSpace) Resolve(offset uint32, loc Location) (uint64, error) {
	switch loc {
	case LocationLocal:
		if int(offset) >= len(a.local) {
			return 0, fmt.Errorf("local offset 0x%08X: %w", offset, ErrUnmappedAddress)
		}
		return RSX_LOCAL_MEMORY_BASE + uint64(offset), nil
	case LocationMain:
		a.mutex.RLock()
		page, ok := a.ioMap[offset>>RSX_IO_PAGE_SHIFT]
		a.mutex.RUnlock()
		if !ok {
			return 0, fmt.Errorf("io offset 0x%08X: %w", offset, ErrUnmappedAddress)
		}
		return uint64(page)<<RSX_IO_PAGE_SHIFT | uint64(offset&(RSX_IO_PAGE_SIZE-1)), nil
	}
	return 0, fmt.Errorf("offset 0x%08X in %s: %w", offset, loc, ErrUnmappedAddress)
}

// Bytes implements MemoryReader. The returned slice aliases the backing
// store.
func (a *AddressSpace) Bytes(addr uint64, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative length %d", n)
	}
	if addr >= RSX_LOCAL_MEMORY_BASE {
		off := addr - RSX_LOCAL_MEMORY_BASE
		if off+uint64(n) > uint64(len(a.local)) {
			return nil, fmt.Errorf("local 0x%X+%d: %w", addr, n, ErrUnmappedAddress)
		}
		return a.local[off : off+uint64(n)], nil
	}
	if addr+uint64(n) > uint64(len(a.main)) {
		return nil, fmt.Errorf("main 0x%X+%d: %w", addr, n, ErrUnmappedAddress)
	}
	return a.main[addr : addr+uint64(n)], nil
}

// Write copies data to a resolved address.
func (a *AddressSpace) Write(addr uint64, data []byte) error {
	dst, err := a.Bytes(addr, len(data))
	if err != nil {
		return err
	}
	copy(dst, data)
	return nil
}

// WriteLocal copies data into local memory at offset.
func (a *AddressSpace) WriteLocal(offset uint32, data []byte) error {
	addr, err := a.Resolve(offset, LocationLocal)
	if err != nil {
		return err
	}
	return a.Write(addr, data)
}

// LocalSize returns the size of local memory in bytes.
func (a *AddressSpace) LocalSize() int {
	return len(a.local)
}
