package camera

import (
	"math"
	"testing"
)

func TestComputeIntrinsicsSquare(t *testing.T) {
	// 90 degree fov on a square image: fx equals cx.
	in := ComputeIntrinsics(90, 480, 480)
	if in.CX != 240 || in.CY != 240 {
		t.Fatalf("principal point = (%g, %g), want (240, 240)", in.CX, in.CY)
	}
	if math.Abs(in.FX-240) > 1e-9 {
		t.Fatalf("fx = %g, want 240", in.FX)
	}
	if in.FY != in.FX {
		t.Fatalf("fy = %g, want fx %g", in.FY, in.FX)
	}
}

func TestComputeIntrinsicsAspect(t *testing.T) {
	// Landscape: the horizontal fov scales with the aspect ratio.
	wide := ComputeIntrinsics(90, 960, 540)
	wantFovx := 90.0 * 960 / 540
	wantFx := 480 / math.Tan(wantFovx*math.Pi/360)
	if math.Abs(wide.FX-wantFx) > 1e-9 {
		t.Fatalf("landscape fx = %g, want %g", wide.FX, wantFx)
	}

	// Portrait: the configured fov binds to the vertical axis directly.
	tall := ComputeIntrinsics(90, 540, 960)
	wantFx = 270 / math.Tan(90*math.Pi/360)
	if math.Abs(tall.FX-wantFx) > 1e-9 {
		t.Fatalf("portrait fx = %g, want %g", tall.FX, wantFx)
	}
}

func TestIntrinsicsMatrices(t *testing.T) {
	in := ComputeIntrinsics(90, 480, 480)

	k := in.K()
	if k[0] != in.FX || k[2] != in.CX || k[4] != in.FY || k[5] != in.CY || k[8] != 1 {
		t.Fatalf("K layout wrong: %v", k)
	}

	p := in.P()
	if p[0] != in.FX || p[2] != in.CX || p[5] != in.FY || p[6] != in.CY || p[10] != 1 {
		t.Fatalf("P layout wrong: %v", p)
	}
	if p[3] != 0 || p[7] != 0 || p[11] != 0 {
		t.Fatalf("P translation column not zero: %v", p)
	}

	r := in.R()
	for i, v := range r {
		want := 0.0
		if i%4 == 0 {
			want = 1
		}
		if v != want {
			t.Fatalf("R not identity at %d: %v", i, r)
		}
	}

	if d := in.D(); d != [5]float64{} {
		t.Fatalf("D not zero: %v", d)
	}
	if in.DistortionModel() != "plumb_bob" {
		t.Fatalf("distortion model = %q", in.DistortionModel())
	}
}
