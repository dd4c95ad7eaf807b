package packet

// Frame is one assembled packet as handed to publishers. Unlike a View,
// its slices are owned copies and stay valid after the buffer region is
// released, so frames can fan out to consumers on other goroutines.
type Frame struct {
	Header  Header
	Color   []byte // BGR
	Depth   []byte // float32 little-endian meters
	Objects []MapEntry
}

// FrameFromView copies a read view into an owned Frame.
func FrameFromView(v View, objects []MapEntry) Frame {
	return Frame{
		Header:  v.Header,
		Color:   append([]byte(nil), v.Color...),
		Depth:   append([]byte(nil), v.Depth...),
		Objects: objects,
	}
}
