package foxglove

// ChannelConfig describes one advertised channel.
type ChannelConfig struct {
	ID         uint64
	Topic      string
	SchemaName string
}

type Config struct {
	WSAddr       string
	Name         string
	Encoding     string
	SendBuf      int
	PublishTF    bool
	ParentFrame  string
	CameraFrame  string
	OpticalFrame string

	ColorChannel     ChannelConfig
	DepthChannel     ChannelConfig
	CameraInfo       ChannelConfig
	TransformChannel ChannelConfig
	ObjectMapChannel ChannelConfig
}

func DefaultConfig() Config {
	return Config{
		WSAddr:       "127.0.0.1:8765",
		Name:         "visionstream",
		Encoding:     "json",
		SendBuf:      64,
		PublishTF:    true,
		ParentFrame:  "world",
		CameraFrame:  "camera_link",
		OpticalFrame: "camera_optical",
		ColorChannel: ChannelConfig{
			ID:         1,
			Topic:      "/vision/image_color",
			SchemaName: "foxglove.RawImage",
		},
		DepthChannel: ChannelConfig{
			ID:         2,
			Topic:      "/vision/image_depth",
			SchemaName: "foxglove.RawImage",
		},
		CameraInfo: ChannelConfig{
			ID:         3,
			Topic:      "/vision/camera_info",
			SchemaName: "foxglove.CameraCalibration",
		},
		TransformChannel: ChannelConfig{
			ID:         4,
			Topic:      "/tf",
			SchemaName: "foxglove.FrameTransforms",
		},
		ObjectMapChannel: ChannelConfig{
			ID:         5,
			Topic:      "/vision/object_map",
			SchemaName: "visionstream.ObjectMap",
		},
	}
}
