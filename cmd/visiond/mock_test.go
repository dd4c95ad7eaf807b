package main

import (
	"math"
	"testing"

	"visionstream/pkg/convert"
	"visionstream/pkg/scene"
)

func TestMockSceneCaptureSizes(t *testing.T) {
	for _, format := range []convert.ColorFormat{convert.FormatColor, convert.FormatLinearColor, convert.FormatHalfColor} {
		src := newMockScene(16, 8, format)
		capture, err := src.Capture()
		if err != nil {
			t.Fatalf("%v: Capture failed: %v", format, err)
		}
		if got := capture.Color.Pixels(); got != 16*8 {
			t.Fatalf("%v: %d pixels, want %d", format, got, 16*8)
		}
		if capture.Color.Format != format {
			t.Fatalf("capture format = %v, want %v", capture.Color.Format, format)
		}
		if len(capture.Depth) != 16*8 {
			t.Fatalf("%v: %d depth samples, want %d", format, len(capture.Depth), 16*8)
		}
	}
}

func TestMockSceneDepthInRange(t *testing.T) {
	src := newMockScene(4, 4, convert.FormatColor)
	capture, err := src.Capture()
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	meters := make([]float32, len(capture.Depth))
	convert.UnpackDepth(capture.Depth, meters)
	for i, m := range meters {
		// Source bounds are 0.5 m to 8 m with a 10% row tilt.
		if m < 0.4 || m > 9 {
			t.Fatalf("depth sample %d = %g m, out of plausible range", i, m)
		}
	}
}

func TestMockQuaternionIsUnit(t *testing.T) {
	for _, at := range []float64{0, 0.5, 1.3, 10, 60} {
		q := mockQuaternion(at)
		norm := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
		if math.Abs(norm-1) > 1e-9 {
			t.Fatalf("t=%g: |q| = %g, want 1", at, norm)
		}
	}
	q := mockQuaternion(0)
	if q.W != 1 || q.X != 0 || q.Y != 0 || q.Z != 0 {
		t.Fatalf("t=0 pose not identity: %+v", q)
	}
}

func TestMockEntitiesArePaintable(t *testing.T) {
	entities := mockEntities()
	if len(entities) == 0 {
		t.Fatal("no mock entities")
	}
	seen := make(map[string]bool)
	for _, e := range entities {
		if e.Name() == "" {
			t.Fatal("entity with empty name")
		}
		if seen[e.Name()] {
			t.Fatalf("duplicate entity name %q", e.Name())
		}
		seen[e.Name()] = true

		paintable, ok := e.(scene.Paintable)
		if !ok || !paintable.HasPaintableSurface() {
			t.Fatalf("entity %q not paintable", e.Name())
		}
		paintable.ApplyColor(3)
		if e.(*mockEntity).painted != 3 {
			t.Fatalf("entity %q did not record its color", e.Name())
		}
	}
}

func TestMockSceneImplementsSource(t *testing.T) {
	var _ scene.Source = newMockScene(2, 2, convert.FormatColor)
}
