//go:build !(amd64 || arm64 || 386 || arm || riscv64 || loong64 || mipsle || mips64le || ppc64le || wasm)

package main

// Trace files and snapshots are read with binary.LittleEndian into host
// words and the software framebuffer is handed to ebiten as-is, which
// assumes little-endian byte order.
var _ = "rsxcore requires a little-endian architecture" + 1
