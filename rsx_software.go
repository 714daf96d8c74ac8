// rsx_software.go - Software rasterizer backend

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
rsx_software.go - Software Rasterizer Backend

Pure-Go Backend implementation:
- Barycentric triangle rasterization with Gouraud or flat shading
- Points and lines
- Triangle strips, fans, quads, quad strips and polygons expanded to
  triangles, restarting at rasterization barriers and restart indices
- Depth test with all eight compare functions, stencil test and operations
- Alpha test, blending and colour write mask
- Scissor and surface clip

No vertex program runs. Attribute 0 is taken as a pre-transformed position
and mapped through the viewport scale and offset; attribute 3 is the
diffuse colour (opaque white when absent). The depth buffer holds values
normalized to 0..1.
*/

package main

import (
	"context"
	"encoding/binary"
	"math"
	"sync"

	"github.com/gogpu/gputypes"
)

const (
	softPositionAttr = 0
	softColorAttr    = 3
)

// SoftwareBackend rasterizes submissions into an RGBA framebuffer.
type SoftwareBackend struct {
	mutex sync.RWMutex

	width, height int
	colorBuffer   []byte // RGBA
	depthBuffer   []float32
	stencilBuffer []uint8
	frontBuffer   []byte

	memory MemoryReader

	dirty     DirtyFlags
	draws     int
	triangles int
	pixels    int
}

// softVertex is a vertex after viewport mapping.
type softVertex struct {
	X, Y, Z    float32
	R, G, B, A float32
}

func NewSoftwareBackend(memory MemoryReader) *SoftwareBackend {
	return &SoftwareBackend{memory: memory}
}

// Init allocates the framebuffer.
func (b *SoftwareBackend) Init(width, height int) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.width = width
	b.height = height

	pixelCount := width * height
	b.colorBuffer = make([]byte, pixelCount*4)
	b.depthBuffer = make([]float32, pixelCount)
	b.stencilBuffer = make([]uint8, pixelCount)
	b.frontBuffer = make([]byte, pixelCount*4)

	for i := range b.depthBuffer {
		b.depthBuffer[i] = 1
	}
	return nil
}

func (b *SoftwareBackend) BeginDraw() {}

func (b *SoftwareBackend) EndDraw() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	copy(b.frontBuffer, b.colorBuffer)
}

func (b *SoftwareBackend) OnDirty(flags DirtyFlags) {
	b.mutex.Lock()
	b.dirty |= flags
	b.mutex.Unlock()
}

// WaitIdle returns at once: submissions complete before SubmitRange returns.
func (b *SoftwareBackend) WaitIdle(ctx context.Context) error {
	return ctx.Err()
}

func (b *SoftwareBackend) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.colorBuffer = nil
	b.depthBuffer = nil
	b.stencilBuffer = nil
	b.frontBuffer = nil
	return nil
}

// Frame returns a copy of the last presented frame.
func (b *SoftwareBackend) Frame() []byte {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return append([]byte(nil), b.frontBuffer...)
}

func (b *SoftwareBackend) Size() (int, int) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return b.width, b.height
}

// Pixel returns the RGBA value at (x, y) of the working colour buffer.
func (b *SoftwareBackend) Pixel(x, y int) (r, g, bl, a uint8) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return 0, 0, 0, 0
	}
	i := (y*b.width + x) * 4
	return b.colorBuffer[i], b.colorBuffer[i+1], b.colorBuffer[i+2], b.colorBuffer[i+3]
}

// Stats returns the number of submissions, triangles and pixels written.
func (b *SoftwareBackend) Stats() (draws, triangles, pixels int) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return b.draws, b.triangles, b.pixels
}

// =============================================================================
// Clears
// =============================================================================

func (b *SoftwareBackend) ClearSurface(op ClearOp) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	x0, y0, x1, y1 := b.clipRect(op.Scissor, Rect{Width: b.width, Height: b.height})
	depth := float32(op.Depth) / 0xFFFFFF
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			i := y*b.width + x
			c := i * 4
			if op.Mask&RSX_CLEAR_R != 0 {
				b.colorBuffer[c+0] = op.Color.R
			}
			if op.Mask&RSX_CLEAR_G != 0 {
				b.colorBuffer[c+1] = op.Color.G
			}
			if op.Mask&RSX_CLEAR_B != 0 {
				b.colorBuffer[c+2] = op.Color.B
			}
			if op.Mask&RSX_CLEAR_A != 0 {
				b.colorBuffer[c+3] = op.Color.A
			}
			if op.Mask&RSX_CLEAR_Z != 0 {
				b.depthBuffer[i] = depth
			}
			if op.Mask&RSX_CLEAR_S != 0 {
				b.stencilBuffer[i] = op.Stencil
			}
		}
	}
	if op.Color32() {
		copy(b.frontBuffer, b.colorBuffer)
	}
}

func (b *SoftwareBackend) clipRect(rects ...Rect) (x0, y0, x1, y1 int) {
	x0, y0, x1, y1 = 0, 0, b.width, b.height
	for _, r := range rects {
		x0 = max(x0, r.X)
		y0 = max(y0, r.Y)
		x1 = min(x1, r.X+r.Width)
		y1 = min(y1, r.Y+r.Height)
	}
	return x0, y0, x1, y1
}

// =============================================================================
// Vertex fetch
// =============================================================================

// vertexSource resolves vertex i of a submission to attribute values.
type vertexSource struct {
	call   *DrawCall
	memory MemoryReader
	ps     *PipelineState
}

func (s *vertexSource) attribute(attr uint32, vertex uint32) ([4]float32, bool) {
	for _, ia := range s.call.Immediate {
		if ia.Attr != attr {
			continue
		}
		start := vertex * ia.Words
		if start+ia.Words > uint32(len(ia.Data)) {
			return [4]float32{}, false
		}
		return decodeAttributeWords(ia.Type, ia.Size, ia.Data[start:start+ia.Words]), true
	}
	if s.memory == nil {
		return [4]float32{}, false
	}
	for _, va := range s.call.Attributes {
		if va.Attr != attr {
			continue
		}
		index := vertex
		if va.Frequency > 1 {
			index /= va.Frequency
		}
		n := int(VertexSizeInDwords(va.Type, va.Size)) * 4
		if va.Type == VertexTypeUB || va.Type == VertexTypeUB256 {
			n = int(va.Size)
		}
		addr := va.Address + uint64(s.call.BaseVertex) + uint64(index)*uint64(va.Stride)
		raw, err := s.memory.Bytes(addr, n)
		if err != nil {
			return [4]float32{}, false
		}
		return decodeAttributeWords(va.Type, va.Size, bytesToAttributeWords(va.Type, raw)), true
	}
	return [4]float32{}, false
}

func (s *vertexSource) fetch(vertex uint32) (softVertex, bool) {
	pos, ok := s.attribute(softPositionAttr, vertex)
	if !ok {
		return softVertex{}, false
	}
	v := softVertex{
		X: pos[0]*s.ps.Scale[0] + s.ps.Offset[0],
		Y: pos[1]*s.ps.Scale[1] + s.ps.Offset[1],
		Z: pos[2]*s.ps.Scale[2] + s.ps.Offset[2],
		R: 1, G: 1, B: 1, A: 1,
	}
	if c, ok := s.attribute(softColorAttr, vertex); ok {
		v.R, v.G, v.B, v.A = c[0], c[1], c[2], c[3]
	}
	return v, true
}

// bytesToAttributeWords repacks big-endian guest bytes into the word layout
// used by immediate data: component 0 in the low bits.
func bytesToAttributeWords(typ VertexBaseType, raw []byte) []uint32 {
	switch typ {
	case VertexTypeUB, VertexTypeUB256:
		var w uint32
		for i, c := range raw {
			w |= uint32(c) << (8 * i)
		}
		return []uint32{w}
	case VertexTypeS1, VertexTypeS32K, VertexTypeSF:
		out := make([]uint32, (len(raw)+3)/4)
		for i := 0; i+1 < len(raw); i += 2 {
			c := uint32(binary.BigEndian.Uint16(raw[i:]))
			out[i/4] |= c << (16 * ((i / 2) % 2))
		}
		return out
	}
	out := make([]uint32, len(raw)/4)
	for i := range out {
		out[i] = binary.BigEndian.Uint32(raw[i*4:])
	}
	return out
}

// decodeAttributeWords expands packed words to floats. Missing components
// default to (0, 0, 0, 1).
func decodeAttributeWords(typ VertexBaseType, size uint32, words []uint32) [4]float32 {
	out := [4]float32{0, 0, 0, 1}
	component := func(i uint32) (uint32, bool) {
		switch typ {
		case VertexTypeUB, VertexTypeUB256:
			if len(words) == 0 {
				return 0, false
			}
			return (words[0] >> (8 * i)) & 0xFF, true
		case VertexTypeS1, VertexTypeS32K, VertexTypeSF:
			if int(i/2) >= len(words) {
				return 0, false
			}
			return (words[i/2] >> (16 * (i % 2))) & 0xFFFF, true
		}
		if int(i) >= len(words) {
			return 0, false
		}
		return words[i], true
	}
	if typ == VertexTypeCMP {
		if len(words) > 0 {
			w := words[0]
			out[0] = float32(int32(w<<21)>>21) / 1023
			out[1] = float32(int32(w<<10)>>21) / 1023
			out[2] = float32(int32(w)>>22) / 511
		}
		return out
	}
	for i := uint32(0); i < min(size, 4); i++ {
		c, ok := component(i)
		if !ok {
			break
		}
		switch typ {
		case VertexTypeF:
			out[i] = math.Float32frombits(c)
		case VertexTypeUB:
			out[i] = float32(c) / 255
		case VertexTypeUB256:
			out[i] = float32(c)
		case VertexTypeS1:
			out[i] = max(float32(int16(c))/32767, -1)
		case VertexTypeS32K:
			out[i] = float32(int16(c))
		case VertexTypeSF:
			out[i] = halfToFloat(uint16(c))
		}
	}
	return out
}

func halfToFloat(h uint16) float32 {
	sign := uint32(h>>15) << 31
	exp := uint32(h>>10) & 0x1F
	mant := uint32(h) & 0x3FF
	switch {
	case exp == 0 && mant == 0:
		return math.Float32frombits(sign)
	case exp == 0:
		// subnormal
		f := float32(mant) / 1024 / 16384
		if sign != 0 {
			return -f
		}
		return f
	case exp == 0x1F:
		return math.Float32frombits(sign | 0x7F800000 | mant<<13)
	}
	return math.Float32frombits(sign | (exp+112)<<23 | mant<<13)
}

// =============================================================================
// Primitive assembly
// =============================================================================

// vertexSequences lists the vertex ids of a submission, split wherever a
// primitive restart applies.
func vertexSequences(call *DrawCall) [][]uint32 {
	var out [][]uint32
	for _, sub := range call.Subranges {
		var seq []uint32
		for i := sub.First; i < sub.End(); i++ {
			id := i
			if call.Indices != nil {
				local := i - call.Range.First
				if local >= uint32(len(call.Indices)) {
					break
				}
				id = call.Indices[local]
				if call.Command == DrawCommandIndexed && call.Restart && id == call.RestartIndex {
					if len(seq) > 0 {
						out = append(out, seq)
					}
					seq = nil
					continue
				}
				if call.Command == DrawCommandIndexed {
					id += call.BaseIndex
				}
			}
			seq = append(seq, id)
		}
		if len(seq) > 0 {
			out = append(out, seq)
		}
	}
	return out
}

// expandPrimitive turns one vertex sequence into triangles (as index
// triples into seq), lines (pairs) or points.
func expandPrimitive(prim uint32, n int) (tris [][3]int, lines [][2]int, points []int) {
	switch prim {
	case RSX_PRIMITIVE_POINTS:
		for i := 0; i < n; i++ {
			points = append(points, i)
		}
	case RSX_PRIMITIVE_LINES:
		for i := 0; i+1 < n; i += 2 {
			lines = append(lines, [2]int{i, i + 1})
		}
	case RSX_PRIMITIVE_LINE_STRIP, RSX_PRIMITIVE_LINE_LOOP:
		for i := 0; i+1 < n; i++ {
			lines = append(lines, [2]int{i, i + 1})
		}
		if prim == RSX_PRIMITIVE_LINE_LOOP && n > 2 {
			lines = append(lines, [2]int{n - 1, 0})
		}
	case RSX_PRIMITIVE_TRIANGLES:
		for i := 0; i+2 < n; i += 3 {
			tris = append(tris, [3]int{i, i + 1, i + 2})
		}
	case RSX_PRIMITIVE_TRIANGLE_STRIP:
		for i := 2; i < n; i++ {
			if i%2 == 0 {
				tris = append(tris, [3]int{i - 2, i - 1, i})
			} else {
				tris = append(tris, [3]int{i - 1, i - 2, i})
			}
		}
	case RSX_PRIMITIVE_TRIANGLE_FAN, RSX_PRIMITIVE_POLYGON:
		for i := 2; i < n; i++ {
			tris = append(tris, [3]int{0, i - 1, i})
		}
	case RSX_PRIMITIVE_QUADS:
		for i := 0; i+3 < n; i += 4 {
			tris = append(tris, [3]int{i, i + 1, i + 2}, [3]int{i, i + 2, i + 3})
		}
	case RSX_PRIMITIVE_QUAD_STRIP:
		for i := 0; i+3 < n; i += 2 {
			tris = append(tris, [3]int{i, i + 1, i + 3}, [3]int{i, i + 3, i + 2})
		}
	}
	return tris, lines, points
}

// SubmitRange rasterizes one submission.
func (b *SoftwareBackend) SubmitRange(call DrawCall) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.colorBuffer == nil {
		return
	}
	b.draws++

	ps := &call.Pipeline
	src := vertexSource{call: &call, memory: b.memory, ps: ps}
	for _, seq := range vertexSequences(&call) {
		verts := make([]softVertex, len(seq))
		valid := true
		for i, id := range seq {
			v, ok := src.fetch(id)
			if !ok {
				valid = false
				break
			}
			verts[i] = v
		}
		if !valid {
			continue
		}
		tris, lines, points := expandPrimitive(call.Primitive, len(verts))
		for _, t := range tris {
			v0, v1, v2 := verts[t[0]], verts[t[1]], verts[t[2]]
			if ps.FlatShade {
				v0.R, v0.G, v0.B, v0.A = v2.R, v2.G, v2.B, v2.A
				v1.R, v1.G, v1.B, v1.A = v2.R, v2.G, v2.B, v2.A
			}
			b.rasterizeTriangle(ps, v0, v1, v2)
		}
		for _, l := range lines {
			b.rasterizeLine(ps, verts[l[0]], verts[l[1]])
		}
		for _, p := range points {
			v := verts[p]
			b.shadePixel(ps, int(v.X), int(v.Y), v.Z, v.R, v.G, v.B, v.A)
		}
	}
}

// =============================================================================
// Rasterization
// =============================================================================

func (b *SoftwareBackend) rasterizeTriangle(ps *PipelineState, v0, v1, v2 softVertex) {
	area := edgeFunction(v0.X, v0.Y, v1.X, v1.Y, v2.X, v2.Y)
	if area == 0 {
		return
	}

	// Negative area is clockwise on a y-down surface.
	clockwise := area < 0
	front := clockwise == (ps.Primitive.FrontFace == gputypes.FrontFaceCW)
	if ps.CullBoth {
		return
	}
	switch ps.Primitive.CullMode {
	case gputypes.CullModeFront:
		if front {
			return
		}
	case gputypes.CullModeBack:
		if !front {
			return
		}
	}
	b.triangles++

	if area < 0 {
		v0, v2 = v2, v0
		area = -area
	}
	invArea := 1.0 / area

	minX := int(math.Floor(float64(min3f(v0.X, v1.X, v2.X))))
	maxX := int(math.Ceil(float64(max3f(v0.X, v1.X, v2.X))))
	minY := int(math.Floor(float64(min3f(v0.Y, v1.Y, v2.Y))))
	maxY := int(math.Ceil(float64(max3f(v0.Y, v1.Y, v2.Y))))
	cx0, cy0, cx1, cy1 := b.clipRect(ps.Scissor, ps.Surface)
	minX, minY = max(minX, cx0), max(minY, cy0)
	maxX, maxY = min(maxX, cx1), min(maxY, cy1)

	for y := minY; y < maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x < maxX; x++ {
			px := float32(x) + 0.5

			w0 := edgeFunction(v1.X, v1.Y, v2.X, v2.Y, px, py)
			w1 := edgeFunction(v2.X, v2.Y, v0.X, v0.Y, px, py)
			w2 := edgeFunction(v0.X, v0.Y, v1.X, v1.Y, px, py)
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			w0 *= invArea
			w1 *= invArea
			w2 *= invArea

			z := w0*v0.Z + w1*v1.Z + w2*v2.Z
			r := w0*v0.R + w1*v1.R + w2*v2.R
			g := w0*v0.G + w1*v1.G + w2*v2.G
			bl := w0*v0.B + w1*v1.B + w2*v2.B
			a := w0*v0.A + w1*v1.A + w2*v2.A
			b.shadePixel(ps, x, y, z, r, g, bl, a)
		}
	}
}

func (b *SoftwareBackend) rasterizeLine(ps *PipelineState, v0, v1 softVertex) {
	dx, dy := v1.X-v0.X, v1.Y-v0.Y
	steps := int(math.Ceil(float64(max(abs32(dx), abs32(dy)))))
	if steps == 0 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float32(i) / float32(steps)
		b.shadePixel(ps,
			int(v0.X+dx*t), int(v0.Y+dy*t), v0.Z+(v1.Z-v0.Z)*t,
			v0.R+(v1.R-v0.R)*t, v0.G+(v1.G-v0.G)*t, v0.B+(v1.B-v0.B)*t, v0.A+(v1.A-v0.A)*t)
	}
}

// shadePixel runs the fragment tests and writes one pixel.
func (b *SoftwareBackend) shadePixel(ps *PipelineState, x, y int, z, r, g, bl, a float32) {
	cx0, cy0, cx1, cy1 := b.clipRect(ps.Scissor, ps.Surface)
	if x < cx0 || y < cy0 || x >= cx1 || y >= cy1 {
		return
	}
	i := y*b.width + x

	r, g, bl, a = clampf(r, 0, 1), clampf(g, 0, 1), clampf(bl, 0, 1), clampf(a, 0, 1)
	if ps.AlphaTest && !compareTest(ps.AlphaFunc, a, ps.AlphaRef) {
		return
	}

	ds := &ps.DepthStencil
	if ps.StencilTest {
		face := ds.StencilFront
		ref := uint32(ps.StencilRef) & ds.StencilReadMask
		cur := uint32(b.stencilBuffer[i]) & ds.StencilReadMask
		if !compareTest(face.Compare, float32(ref), float32(cur)) {
			b.stencilBuffer[i] = stencilApply(face.FailOp, b.stencilBuffer[i], ps.StencilRef, ds.StencilWriteMask)
			return
		}
		if ps.DepthTest && !compareTest(ds.DepthCompare, z, b.depthBuffer[i]) {
			b.stencilBuffer[i] = stencilApply(face.DepthFailOp, b.stencilBuffer[i], ps.StencilRef, ds.StencilWriteMask)
			return
		}
		b.stencilBuffer[i] = stencilApply(face.PassOp, b.stencilBuffer[i], ps.StencilRef, ds.StencilWriteMask)
	} else if ps.DepthTest && !compareTest(ds.DepthCompare, z, b.depthBuffer[i]) {
		return
	}
	if ps.DepthTest && ds.DepthWriteEnabled {
		b.depthBuffer[i] = z
	}

	c := i * 4
	const inv255 = float32(1.0 / 255.0)
	dst := [4]float32{
		float32(b.colorBuffer[c+0]) * inv255,
		float32(b.colorBuffer[c+1]) * inv255,
		float32(b.colorBuffer[c+2]) * inv255,
		float32(b.colorBuffer[c+3]) * inv255,
	}
	out := [4]float32{r, g, bl, a}
	if ps.BlendEnabled {
		out = blendPixel(ps, out, dst)
	}
	masks := [4]gputypes.ColorWriteMask{
		gputypes.ColorWriteMaskRed, gputypes.ColorWriteMaskGreen,
		gputypes.ColorWriteMaskBlue, gputypes.ColorWriteMaskAlpha,
	}
	for ch, m := range masks {
		if ps.WriteMask&m != 0 {
			b.colorBuffer[c+ch] = uint8(clampf(out[ch], 0, 1)*255 + 0.5)
		}
	}
	b.pixels++
}

// compareTest reports whether value passes against reference.
func compareTest(f gputypes.CompareFunction, value, reference float32) bool {
	switch f {
	case gputypes.CompareFunctionNever:
		return false
	case gputypes.CompareFunctionLess:
		return value < reference
	case gputypes.CompareFunctionEqual:
		return value == reference
	case gputypes.CompareFunctionLessEqual:
		return value <= reference
	case gputypes.CompareFunctionGreater:
		return value > reference
	case gputypes.CompareFunctionNotEqual:
		return value != reference
	case gputypes.CompareFunctionGreaterEqual:
		return value >= reference
	}
	return true
}

func stencilApply(op gputypes.StencilOperation, cur, ref uint8, writeMask uint32) uint8 {
	var v uint8
	switch op {
	case gputypes.StencilOperationZero:
		v = 0
	case gputypes.StencilOperationReplace:
		v = ref
	case gputypes.StencilOperationInvert:
		v = ^cur
	case gputypes.StencilOperationIncrementClamp:
		v = cur
		if v < 0xFF {
			v++
		}
	case gputypes.StencilOperationDecrementClamp:
		v = cur
		if v > 0 {
			v--
		}
	case gputypes.StencilOperationIncrementWrap:
		v = cur + 1
	case gputypes.StencilOperationDecrementWrap:
		v = cur - 1
	default:
		return cur
	}
	m := uint8(writeMask)
	return cur&^m | v&m
}

func blendPixel(ps *PipelineState, src, dst [4]float32) [4]float32 {
	constant := [4]float32{
		float32(ps.BlendColor.R), float32(ps.BlendColor.G),
		float32(ps.BlendColor.B), float32(ps.BlendColor.A),
	}
	var out [4]float32
	for ch := 0; ch < 4; ch++ {
		comp := ps.Blend.Color
		if ch == 3 {
			comp = ps.Blend.Alpha
		}
		sf := blendFactorValue(comp.SrcFactor, ch, src, dst, constant)
		df := blendFactorValue(comp.DstFactor, ch, src, dst, constant)
		s, d := src[ch]*sf, dst[ch]*df
		switch comp.Operation {
		case gputypes.BlendOperationSubtract:
			out[ch] = s - d
		case gputypes.BlendOperationReverseSubtract:
			out[ch] = d - s
		case gputypes.BlendOperationMin:
			out[ch] = min(src[ch], dst[ch])
		case gputypes.BlendOperationMax:
			out[ch] = max(src[ch], dst[ch])
		default:
			out[ch] = s + d
		}
		out[ch] = clampf(out[ch], 0, 1)
	}
	return out
}

func blendFactorValue(f gputypes.BlendFactor, ch int, src, dst, constant [4]float32) float32 {
	switch f {
	case gputypes.BlendFactorZero:
		return 0
	case gputypes.BlendFactorOne:
		return 1
	case gputypes.BlendFactorSrc:
		return src[ch]
	case gputypes.BlendFactorOneMinusSrc:
		return 1 - src[ch]
	case gputypes.BlendFactorSrcAlpha:
		return src[3]
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return 1 - src[3]
	case gputypes.BlendFactorDst:
		return dst[ch]
	case gputypes.BlendFactorOneMinusDst:
		return 1 - dst[ch]
	case gputypes.BlendFactorDstAlpha:
		return dst[3]
	case gputypes.BlendFactorOneMinusDstAlpha:
		return 1 - dst[3]
	case gputypes.BlendFactorSrcAlphaSaturated:
		if ch == 3 {
			return 1
		}
		return min(src[3], 1-dst[3])
	case gputypes.BlendFactorConstant:
		return constant[ch]
	case gputypes.BlendFactorOneMinusConstant:
		return 1 - constant[ch]
	}
	return 1
}

// edgeFunction computes the signed area of a parallelogram
func edgeFunction(ax, ay, bx, by, cx, cy float32) float32 {
	return (cx-ax)*(by-ay) - (cy-ay)*(bx-ax)
}

func min3f(a, b, c float32) float32 {
	return min(a, b, c)
}

func max3f(a, b, c float32) float32 {
	return max(a, b, c)
}

func clampf(v, minVal, maxVal float32) float32 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
