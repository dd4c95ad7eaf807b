package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"visionstream/pkg/packet"
)

func TestJSONLWriterRecords(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf)

	in := make(chan packet.Frame, 2)
	in <- packet.Frame{
		Header: packet.Header{
			CaptureTime: 123456789,
			Translation: packet.Vec3{X: 1, Y: -2, Z: 3},
			Rotation:    packet.Quat{W: 1},
			Size:        500,
			MapEntries:  2,
			Width:       8,
			Height:      4,
		},
		Color: make([]byte, 8*4*3),
	}
	close(in)

	w.Consume(context.Background(), in)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("record is not valid JSON: %v\n%s", err, buf.String())
	}
	if rec["capture_ts"].(float64) != 123456789 {
		t.Fatalf("capture_ts = %v", rec["capture_ts"])
	}
	if rec["width"].(float64) != 8 || rec["height"].(float64) != 4 {
		t.Fatalf("dimensions = %vx%v", rec["width"], rec["height"])
	}
	if rec["packet_size"].(float64) != 500 {
		t.Fatalf("packet_size = %v", rec["packet_size"])
	}
	if rec["map_entries"].(float64) != 2 {
		t.Fatalf("map_entries = %v", rec["map_entries"])
	}
	tr := rec["translation"].(map[string]any)
	if tr["x"].(float64) != 1 || tr["y"].(float64) != -2 || tr["z"].(float64) != 3 {
		t.Fatalf("translation = %v", tr)
	}
	if _, err := time.Parse(time.RFC3339Nano, rec["ts"].(string)); err != nil {
		t.Fatalf("ts not RFC3339Nano: %v", rec["ts"])
	}
}

func TestJSONLWriterStopsOnCancel(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		w.Consume(ctx, make(chan packet.Frame))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Consume did not return on cancelled context")
	}
}

func TestJSONLWriterOneLinePerFrame(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf)

	in := make(chan packet.Frame, 3)
	for i := 0; i < 3; i++ {
		in <- packet.Frame{Header: packet.Header{CaptureTime: int64(i)}}
	}
	close(in)
	w.Consume(context.Background(), in)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	for i, line := range lines {
		var rec map[string]any
		if err := json.Unmarshal(line, &rec); err != nil {
			t.Fatalf("line %d invalid: %v", i, err)
		}
	}
}
