// Package packet holds the frame packet model: the wire header, the
// object-map codec, and the double-buffered packet store shared between
// the cadence driver, its conversion workers and the publish step.
package packet

import (
	"fmt"
	"sync"
)

// Buffer is a double-buffered packet store. One region is written by the
// driver and its two conversion workers while the other may be exposed to
// a reader. The write/read protocol is four-phase:
//
//	hdr := buf.StartWriting(entries)   // selects back region, recomputes offsets
//	// populate hdr, fill ColorSegment/DepthSegment
//	buf.DoneWriting()                  // back region becomes readable
//	view := buf.StartReading()         // most recently completed region
//	buf.DoneReading()
//
// StartWriting blocks while its target region is exposed to an active
// reader. A region handed out by StartReading is never mutated until
// DoneReading releases it.
type Buffer struct {
	mu   sync.Mutex
	cond *sync.Cond

	width  uint32
	height uint32

	regions [2]region
	wIdx    int // region targeted by the next write
	rIdx    int // most recently completed region, -1 until first DoneWriting
	readIdx int // region exposed to a reader, -1 if none
	writing bool
	reading bool

	// payload offsets, relative to packet start; recomputed on StartWriting
	offsetColor  uint32
	offsetDepth  uint32
	offsetObject uint32
}

type region struct {
	header Header
	data   []byte // full packet image: header + color + depth + object map
	size   uint32
}

// View is a read-only window onto a completed packet. The byte slices
// alias buffer memory and are valid only until DoneReading.
type View struct {
	Header  Header
	Packet  []byte // complete wire packet
	Color   []byte // BGR, Width*Height*3 bytes
	Depth   []byte // float32 little-endian meters, Width*Height*4 bytes
	Objects []byte // encoded object-map segment
}

// MaxDimension bounds width and height so the uint32 segment offsets
// (7 bytes per pixel plus header and object map) cannot wrap.
const MaxDimension = 16384

// NewBuffer creates a packet store for the given stream dimensions.
func NewBuffer(width, height uint32) (*Buffer, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("packet: invalid dimensions %dx%d", width, height)
	}
	if width > MaxDimension || height > MaxDimension {
		return nil, fmt.Errorf("packet: dimensions %dx%d exceed %d", width, height, MaxDimension)
	}
	b := &Buffer{
		width:   width,
		height:  height,
		rIdx:    -1,
		readIdx: -1,
	}
	b.cond = sync.NewCond(&b.mu)
	base := HeaderSize + int(width*height*3) + int(width*height*4)
	for i := range b.regions {
		b.regions[i].data = make([]byte, base)
	}
	return b, nil
}

// StartWriting selects the back region, recomputes the payload offsets for
// the current dimensions and object map, encodes the map segment, and
// returns the header handle to populate. It blocks while the target region
// is still exposed to a reader.
func (b *Buffer) StartWriting(entries []MapEntry) *Header {
	b.mu.Lock()
	if b.writing {
		b.mu.Unlock()
		panic("packet: StartWriting called with a write in progress")
	}
	for b.readIdx == b.wIdx {
		b.cond.Wait()
	}
	b.writing = true

	colorSize := b.width * b.height * 3
	depthSize := b.width * b.height * 4
	mapSize := uint32(MapEntriesSize(entries))

	b.offsetColor = HeaderSize
	b.offsetDepth = b.offsetColor + colorSize
	b.offsetObject = b.offsetDepth + depthSize
	total := b.offsetObject + mapSize

	r := &b.regions[b.wIdx]
	if uint32(cap(r.data)) < total {
		grown := make([]byte, total)
		r.data = grown
	}
	r.data = r.data[:total]
	r.size = total

	r.header = Header{
		Size:       total,
		SizeHeader: HeaderSize,
		MapEntries: uint32(len(entries)),
		Width:      b.width,
		Height:     b.height,
	}
	EncodeMapEntries(entries, r.data[b.offsetObject:total])
	b.mu.Unlock()
	return &r.header
}

// ColorSegment returns the back region's color payload. Only valid between
// StartWriting and DoneWriting.
func (b *Buffer) ColorSegment() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.writing {
		panic("packet: ColorSegment outside a write phase")
	}
	return b.regions[b.wIdx].data[b.offsetColor:b.offsetDepth]
}

// DepthSegment returns the back region's depth payload. Only valid between
// StartWriting and DoneWriting.
func (b *Buffer) DepthSegment() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.writing {
		panic("packet: DepthSegment outside a write phase")
	}
	return b.regions[b.wIdx].data[b.offsetDepth:b.offsetObject]
}

// DoneWriting seals the back region: the header is encoded into the packet
// image and the region becomes the one surfaced by the next StartReading.
func (b *Buffer) DoneWriting() {
	b.mu.Lock()
	if !b.writing {
		b.mu.Unlock()
		panic("packet: DoneWriting without StartWriting")
	}
	r := &b.regions[b.wIdx]
	EncodeHeader(r.header, r.data[:HeaderSize])
	b.rIdx = b.wIdx
	b.wIdx = 1 - b.wIdx
	b.writing = false
	b.cond.Broadcast()
	b.mu.Unlock()
}

// AbortWriting releases the back region without completing the frame. The
// partially written region never becomes readable; the next StartWriting
// targets it again.
func (b *Buffer) AbortWriting() {
	b.mu.Lock()
	if !b.writing {
		b.mu.Unlock()
		panic("packet: AbortWriting without StartWriting")
	}
	b.writing = false
	b.cond.Broadcast()
	b.mu.Unlock()
}

// StartReading exposes the most recently completed region. It blocks until
// at least one frame has been completed.
func (b *Buffer) StartReading() View {
	b.mu.Lock()
	if b.reading {
		b.mu.Unlock()
		panic("packet: StartReading called with a read in progress")
	}
	for b.rIdx < 0 {
		b.cond.Wait()
	}
	b.reading = true
	b.readIdx = b.rIdx
	r := &b.regions[b.readIdx]

	colorEnd := HeaderSize + r.header.Width*r.header.Height*3
	depthEnd := colorEnd + r.header.Width*r.header.Height*4
	view := View{
		Header:  r.header,
		Packet:  r.data[:r.size],
		Color:   r.data[HeaderSize:colorEnd],
		Depth:   r.data[colorEnd:depthEnd],
		Objects: r.data[depthEnd:r.size],
	}
	b.mu.Unlock()
	return view
}

// DoneReading releases the region exposed by StartReading.
func (b *Buffer) DoneReading() {
	b.mu.Lock()
	if !b.reading {
		b.mu.Unlock()
		panic("packet: DoneReading without StartReading")
	}
	b.reading = false
	b.readIdx = -1
	b.cond.Broadcast()
	b.mu.Unlock()
}

// Offsets reports the current payload offsets relative to packet start.
func (b *Buffer) Offsets() (color, depth, object uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.offsetColor, b.offsetDepth, b.offsetObject
}
