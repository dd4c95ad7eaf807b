package camera

import "math"

// Intrinsics is the pinhole camera model derived from the configured
// field of view and resolution. Square pixels, zero distortion.
type Intrinsics struct {
	Width  uint32
	Height uint32
	FX     float64
	FY     float64
	CX     float64
	CY     float64
}

// ComputeIntrinsics derives the pinhole model. The configured fov (in
// degrees) binds to the longer image axis; the other axis scales by the
// aspect ratio.
func ComputeIntrinsics(fov float64, width, height uint32) Intrinsics {
	w := float64(width)
	h := float64(height)

	var fovx float64
	if height > width {
		fovx = fov
	} else {
		fovx = fov * w / h
	}

	hx := fovx * math.Pi / 360
	cx := w / 2
	cy := h / 2
	fx := cx / math.Tan(hx)

	return Intrinsics{
		Width:  width,
		Height: height,
		FX:     fx,
		FY:     fx, // square-pixel assumption
		CX:     cx,
		CY:     cy,
	}
}

// K returns the 3x3 intrinsic matrix in row-major order.
func (in Intrinsics) K() [9]float64 {
	return [9]float64{
		in.FX, 0, in.CX,
		0, in.FY, in.CY,
		0, 0, 1,
	}
}

// R returns the rectification matrix (identity).
func (in Intrinsics) R() [9]float64 {
	return [9]float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// P returns the 3x4 projection matrix in row-major order.
func (in Intrinsics) P() [12]float64 {
	return [12]float64{
		in.FX, 0, in.CX, 0,
		0, in.FY, in.CY, 0,
		0, 0, 1, 0,
	}
}

// D returns the distortion coefficients: always zero.
func (in Intrinsics) D() [5]float64 {
	return [5]float64{}
}

// DistortionModel names the distortion model for camera-info consumers.
func (in Intrinsics) DistortionModel() string {
	return "plumb_bob"
}
