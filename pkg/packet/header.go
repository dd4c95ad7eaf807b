package packet

import (
	"encoding/binary"
	"fmt"
	"math"
)

// HeaderSize is the fixed wire size of an encoded Header in bytes.
const HeaderSize = 84

// Vec3 is a translation in meters, right-handed target convention.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quat is a unit quaternion.
type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Header describes one frame packet. It is fully populated before any
// payload byte is written.
type Header struct {
	CaptureTime int64 // nanoseconds since epoch
	Translation Vec3
	Rotation    Quat
	Size        uint32 // total packet size including header
	SizeHeader  uint32
	MapEntries  uint32
	Width       uint32
	Height      uint32
}

// MapEntry ties an entity name to its palette color index.
type MapEntry struct {
	Name       string `json:"name"`
	ColorIndex uint32 `json:"color_index"`
}

// EncodeHeader writes h into dst in the little-endian wire layout.
// dst must be at least HeaderSize bytes.
func EncodeHeader(h Header, dst []byte) {
	_ = dst[HeaderSize-1]
	binary.LittleEndian.PutUint64(dst[0:8], uint64(h.CaptureTime))
	binary.LittleEndian.PutUint64(dst[8:16], math.Float64bits(h.Translation.X))
	binary.LittleEndian.PutUint64(dst[16:24], math.Float64bits(h.Translation.Y))
	binary.LittleEndian.PutUint64(dst[24:32], math.Float64bits(h.Translation.Z))
	binary.LittleEndian.PutUint64(dst[32:40], math.Float64bits(h.Rotation.X))
	binary.LittleEndian.PutUint64(dst[40:48], math.Float64bits(h.Rotation.Y))
	binary.LittleEndian.PutUint64(dst[48:56], math.Float64bits(h.Rotation.Z))
	binary.LittleEndian.PutUint64(dst[56:64], math.Float64bits(h.Rotation.W))
	binary.LittleEndian.PutUint32(dst[64:68], h.Size)
	binary.LittleEndian.PutUint32(dst[68:72], h.SizeHeader)
	binary.LittleEndian.PutUint32(dst[72:76], h.MapEntries)
	binary.LittleEndian.PutUint32(dst[76:80], h.Width)
	binary.LittleEndian.PutUint32(dst[80:84], h.Height)
}

// DecodeHeader parses a Header from src.
func DecodeHeader(src []byte) (Header, error) {
	if len(src) < HeaderSize {
		return Header{}, fmt.Errorf("packet: header truncated: %d bytes, need %d", len(src), HeaderSize)
	}
	var h Header
	h.CaptureTime = int64(binary.LittleEndian.Uint64(src[0:8]))
	h.Translation.X = math.Float64frombits(binary.LittleEndian.Uint64(src[8:16]))
	h.Translation.Y = math.Float64frombits(binary.LittleEndian.Uint64(src[16:24]))
	h.Translation.Z = math.Float64frombits(binary.LittleEndian.Uint64(src[24:32]))
	h.Rotation.X = math.Float64frombits(binary.LittleEndian.Uint64(src[32:40]))
	h.Rotation.Y = math.Float64frombits(binary.LittleEndian.Uint64(src[40:48]))
	h.Rotation.Z = math.Float64frombits(binary.LittleEndian.Uint64(src[48:56]))
	h.Rotation.W = math.Float64frombits(binary.LittleEndian.Uint64(src[56:64]))
	h.Size = binary.LittleEndian.Uint32(src[64:68])
	h.SizeHeader = binary.LittleEndian.Uint32(src[68:72])
	h.MapEntries = binary.LittleEndian.Uint32(src[72:76])
	h.Width = binary.LittleEndian.Uint32(src[76:80])
	h.Height = binary.LittleEndian.Uint32(src[80:84])
	return h, nil
}

// MapEntriesSize returns the encoded size of the object-map segment.
func MapEntriesSize(entries []MapEntry) int {
	size := 0
	for _, e := range entries {
		size += 4 + len(e.Name) + 4
	}
	return size
}

// EncodeMapEntries writes entries into dst as a sequence of
// {name length, name bytes, color index} records, little-endian.
// dst must be at least MapEntriesSize(entries) bytes.
func EncodeMapEntries(entries []MapEntry, dst []byte) {
	off := 0
	for _, e := range entries {
		binary.LittleEndian.PutUint32(dst[off:off+4], uint32(len(e.Name)))
		off += 4
		copy(dst[off:off+len(e.Name)], e.Name)
		off += len(e.Name)
		binary.LittleEndian.PutUint32(dst[off:off+4], e.ColorIndex)
		off += 4
	}
}

// DecodeMapEntries parses count object-map records from src.
func DecodeMapEntries(src []byte, count uint32) ([]MapEntry, error) {
	entries := make([]MapEntry, 0, count)
	off := 0
	for i := uint32(0); i < count; i++ {
		if len(src)-off < 4 {
			return nil, fmt.Errorf("packet: object map truncated at entry %d", i)
		}
		nameLen := int(binary.LittleEndian.Uint32(src[off : off+4]))
		off += 4
		if len(src)-off < nameLen+4 {
			return nil, fmt.Errorf("packet: object map truncated at entry %d", i)
		}
		name := string(src[off : off+nameLen])
		off += nameLen
		index := binary.LittleEndian.Uint32(src[off : off+4])
		off += 4
		entries = append(entries, MapEntry{Name: name, ColorIndex: index})
	}
	return entries, nil
}
