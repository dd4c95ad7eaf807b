package scene

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"visionstream/pkg/convert"
)

func writeTestImage(t *testing.T, w, h int, c color.NRGBA) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "source.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create test image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return path
}

func TestImageSourceServesResizedImage(t *testing.T) {
	path := writeTestImage(t, 8, 8, color.NRGBA{R: 200, G: 40, B: 10, A: 255})

	src, err := NewImageSource(path, 4, 4, 2.5)
	if err != nil {
		t.Fatalf("NewImageSource failed: %v", err)
	}

	capture, err := src.Capture()
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if got := capture.Color.Pixels(); got != 16 {
		t.Fatalf("capture has %d pixels, want 16", got)
	}
	if capture.Color.Format != convert.FormatColor {
		t.Fatalf("capture format = %v, want color", capture.Color.Format)
	}

	// Resampling a solid image keeps it solid.
	for p := 0; p < 16; p++ {
		r := capture.Color.RGBA8[p*4]
		g := capture.Color.RGBA8[p*4+1]
		a := capture.Color.RGBA8[p*4+3]
		if r < 190 || g > 60 || a != 255 {
			t.Fatalf("pixel %d = %v, not the source color", p, capture.Color.RGBA8[p*4:p*4+4])
		}
	}

	// 2.5 m is stored as half-encoded 250 cm.
	if len(capture.Depth) != 16 {
		t.Fatalf("depth has %d samples, want 16", len(capture.Depth))
	}
	meters := make([]float32, 1)
	convert.UnpackDepth(capture.Depth[:1], meters)
	if meters[0] != 2.5 {
		t.Fatalf("depth sample = %g m, want 2.5", meters[0])
	}
}

func TestImageSourceMissingFile(t *testing.T) {
	if _, err := NewImageSource(filepath.Join(t.TempDir(), "missing.png"), 4, 4, 1); err == nil {
		t.Fatal("expected error for missing image")
	}
}
