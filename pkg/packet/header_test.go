package packet

import "testing"

func TestHeaderRoundTrip(t *testing.T) {
	in := Header{
		CaptureTime: 1724400000123456789,
		Translation: Vec3{X: 1.25, Y: -3.5, Z: 0.0625},
		Rotation:    Quat{X: -0.5, Y: 0.5, Z: -0.5, W: 0.5},
		Size:        84 + 12,
		SizeHeader:  HeaderSize,
		MapEntries:  2,
		Width:       640,
		Height:      480,
	}

	buf := make([]byte, HeaderSize)
	EncodeHeader(in, buf)

	out, err := DecodeHeader(buf)
	if err != nil {
		t.Fatalf("DecodeHeader failed: %v", err)
	}
	if out != in {
		t.Fatalf("header mismatch: got %+v, want %+v", out, in)
	}
}

func TestDecodeHeaderTruncated(t *testing.T) {
	if _, err := DecodeHeader(make([]byte, HeaderSize-1)); err == nil {
		t.Fatal("expected error for truncated header")
	}
}

func TestMapEntriesRoundTrip(t *testing.T) {
	entries := []MapEntry{
		{Name: "floor", ColorIndex: 0},
		{Name: "crate_01", ColorIndex: 7},
		{Name: "", ColorIndex: 3},
	}

	buf := make([]byte, MapEntriesSize(entries))
	EncodeMapEntries(entries, buf)

	out, err := DecodeMapEntries(buf, uint32(len(entries)))
	if err != nil {
		t.Fatalf("DecodeMapEntries failed: %v", err)
	}
	if len(out) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(out), len(entries))
	}
	for i := range entries {
		if out[i] != entries[i] {
			t.Fatalf("entry %d mismatch: got %+v, want %+v", i, out[i], entries[i])
		}
	}
}

func TestDecodeMapEntriesTruncated(t *testing.T) {
	entries := []MapEntry{{Name: "wall", ColorIndex: 1}}
	buf := make([]byte, MapEntriesSize(entries))
	EncodeMapEntries(entries, buf)

	if _, err := DecodeMapEntries(buf[:len(buf)-1], 1); err == nil {
		t.Fatal("expected error for truncated object map")
	}
	if _, err := DecodeMapEntries(buf, 2); err == nil {
		t.Fatal("expected error for missing second entry")
	}
}

func TestMapEntriesSizeEmpty(t *testing.T) {
	if size := MapEntriesSize(nil); size != 0 {
		t.Fatalf("empty map size = %d, want 0", size)
	}
}
