package logger

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"visionstream/pkg/packet"
)

// JSONLWriter appends one JSON record per published frame. Payload bytes
// are summarized, not embedded; the record is for stream forensics, not
// replay.
type JSONLWriter struct {
	enc *json.Encoder
}

type frameRecord struct {
	TS          string      `json:"ts"`
	CaptureTS   int64       `json:"capture_ts"`
	Width       uint32      `json:"width"`
	Height      uint32      `json:"height"`
	PacketSize  uint32      `json:"packet_size"`
	MapEntries  uint32      `json:"map_entries"`
	Translation packet.Vec3 `json:"translation"`
	Rotation    packet.Quat `json:"rotation"`
}

func NewJSONLWriter(w io.Writer) *JSONLWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{enc: enc}
}

func (j *JSONLWriter) Consume(ctx context.Context, in <-chan packet.Frame) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-in:
			if !ok {
				return
			}
			rec := frameRecord{
				TS:          time.Now().UTC().Format(time.RFC3339Nano),
				CaptureTS:   frame.Header.CaptureTime,
				Width:       frame.Header.Width,
				Height:      frame.Header.Height,
				PacketSize:  frame.Header.Size,
				MapEntries:  frame.Header.MapEntries,
				Translation: frame.Header.Translation,
				Rotation:    frame.Header.Rotation,
			}
			_ = j.enc.Encode(rec)
		}
	}
}
