// Package config loads and validates the daemon's TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"visionstream/pkg/bridge/foxglove"
	"visionstream/pkg/camera"
	"visionstream/pkg/convert"
	"visionstream/pkg/packet"
)

const DefaultConfigPath = "visiond.toml"

type Config struct {
	Camera   CameraSection   `toml:"camera"`
	Tonemap  TonemapSection  `toml:"tonemap"`
	Stream   StreamSection   `toml:"stream"`
	Control  ControlSection  `toml:"control"`
	Foxglove FoxgloveSection `toml:"foxglove"`
	Log      LogSection      `toml:"log"`
}

type CameraSection struct {
	Width            uint32  `toml:"width"`
	Height           uint32  `toml:"height"`
	FieldOfView      float64 `toml:"fov"`
	Framerate        float64 `toml:"framerate"`
	UseNativeCadence bool    `toml:"use_native_cadence"`
	Paused           bool    `toml:"paused"`
}

type TonemapSection struct {
	Gamma      float64 `toml:"gamma"`
	Contrast   float64 `toml:"contrast"`
	Brightness float64 `toml:"brightness"`
}

type StreamSection struct {
	// ColorFormat selects the capture encoding of the synthetic source:
	// "color", "linear" or "half".
	ColorFormat string `toml:"color_format"`
	// ImagePath, when set, serves a still image as the color channel.
	ImagePath  string  `toml:"image_path,omitempty"`
	ImageDepth float64 `toml:"image_depth_meters,omitempty"`
	PublishTF  bool    `toml:"publish_tf"`
}

type ControlSection struct {
	Addr string `toml:"addr"`
}

type FoxgloveSection struct {
	WSAddr       string `toml:"ws_addr"`
	Name         string `toml:"name"`
	ParentFrame  string `toml:"parent_frame"`
	CameraFrame  string `toml:"camera_frame"`
	OpticalFrame string `toml:"optical_frame"`
	SendBuf      int    `toml:"send_buf"`
}

type LogSection struct {
	// Path is the JSONL frame log destination; empty disables it.
	Path string `toml:"path,omitempty"`
}

func Default() Config {
	return Config{
		Camera: CameraSection{
			Width:       960,
			Height:      540,
			FieldOfView: 90,
			Framerate:   1,
		},
		Tonemap: TonemapSection{
			Gamma:      1,
			Contrast:   0,
			Brightness: 0,
		},
		Stream: StreamSection{
			ColorFormat: "color",
			ImageDepth:  2,
			PublishTF:   true,
		},
		Control: ControlSection{
			Addr: "127.0.0.1:10000",
		},
		Foxglove: FoxgloveSection{
			WSAddr:       "127.0.0.1:8765",
			Name:         "visionstream",
			ParentFrame:  "world",
			CameraFrame:  "camera_link",
			OpticalFrame: "camera_optical",
			SendBuf:      64,
		},
	}
}

func Load(path string) (Config, error) {
	cfg, exists, err := LoadOrDefault(path)
	if err != nil {
		return Config{}, err
	}
	if !exists {
		return Config{}, os.ErrNotExist
	}
	return cfg, nil
}

// LoadOrDefault reads the config at path, falling back to defaults when
// the file does not exist. The boolean reports whether a file was found.
func LoadOrDefault(path string) (Config, bool, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, false, nil
		}
		return Config{}, false, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, true, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, true, err
	}
	return cfg, true, nil
}

// Save writes the config as TOML, creating parent directories as needed.
func (cfg *Config) Save(path string) error {
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate rejects configurations the stream must not start with.
func (cfg *Config) Validate() error {
	if cfg.Camera.Width == 0 || cfg.Camera.Height == 0 {
		return fmt.Errorf("camera.width and camera.height must be positive, got %dx%d", cfg.Camera.Width, cfg.Camera.Height)
	}
	if cfg.Camera.Width > packet.MaxDimension || cfg.Camera.Height > packet.MaxDimension {
		return fmt.Errorf("camera resolution %dx%d exceeds the %d limit", cfg.Camera.Width, cfg.Camera.Height, packet.MaxDimension)
	}
	if cfg.Camera.FieldOfView <= 0 || cfg.Camera.FieldOfView >= 180 {
		return fmt.Errorf("camera.fov out of range: %g", cfg.Camera.FieldOfView)
	}
	if !cfg.Camera.UseNativeCadence && cfg.Camera.Framerate <= 0 {
		return fmt.Errorf("camera.framerate must be positive, got %g", cfg.Camera.Framerate)
	}
	if cfg.Tonemap.Gamma <= 0 {
		return fmt.Errorf("tonemap.gamma must be positive, got %g", cfg.Tonemap.Gamma)
	}
	switch cfg.Stream.ColorFormat {
	case "color", "linear", "half":
	default:
		return fmt.Errorf("stream.color_format must be color, linear or half, got %q", cfg.Stream.ColorFormat)
	}
	return nil
}

func (cfg *Config) normalize() {
	def := Default()
	if cfg.Stream.ColorFormat == "" {
		cfg.Stream.ColorFormat = def.Stream.ColorFormat
	}
	if cfg.Stream.ImageDepth <= 0 {
		cfg.Stream.ImageDepth = def.Stream.ImageDepth
	}
	if cfg.Control.Addr == "" {
		cfg.Control.Addr = def.Control.Addr
	}
	if cfg.Foxglove.WSAddr == "" {
		cfg.Foxglove.WSAddr = def.Foxglove.WSAddr
	}
	if cfg.Foxglove.Name == "" {
		cfg.Foxglove.Name = def.Foxglove.Name
	}
	if cfg.Foxglove.ParentFrame == "" {
		cfg.Foxglove.ParentFrame = def.Foxglove.ParentFrame
	}
	if cfg.Foxglove.CameraFrame == "" {
		cfg.Foxglove.CameraFrame = def.Foxglove.CameraFrame
	}
	if cfg.Foxglove.OpticalFrame == "" {
		cfg.Foxglove.OpticalFrame = def.Foxglove.OpticalFrame
	}
	if cfg.Foxglove.SendBuf <= 0 {
		cfg.Foxglove.SendBuf = def.Foxglove.SendBuf
	}
}

// ColorFormat maps the config string to the capture encoding.
func (cfg *Config) ColorFormat() convert.ColorFormat {
	switch cfg.Stream.ColorFormat {
	case "linear":
		return convert.FormatLinearColor
	case "half":
		return convert.FormatHalfColor
	default:
		return convert.FormatColor
	}
}

// CameraConfig maps the config onto the stream configuration.
func (cfg *Config) CameraConfig() camera.Config {
	return camera.Config{
		Width:            cfg.Camera.Width,
		Height:           cfg.Camera.Height,
		FieldOfView:      cfg.Camera.FieldOfView,
		Framerate:        cfg.Camera.Framerate,
		UseNativeCadence: cfg.Camera.UseNativeCadence,
		Tonemap: convert.Tonemap{
			Gamma:      cfg.Tonemap.Gamma,
			Contrast:   cfg.Tonemap.Contrast,
			Brightness: cfg.Tonemap.Brightness,
		},
	}
}

// FoxgloveConfig maps the config onto the bridge configuration.
func (cfg *Config) FoxgloveConfig() foxglove.Config {
	out := foxglove.DefaultConfig()
	out.WSAddr = cfg.Foxglove.WSAddr
	out.Name = cfg.Foxglove.Name
	out.ParentFrame = cfg.Foxglove.ParentFrame
	out.CameraFrame = cfg.Foxglove.CameraFrame
	out.OpticalFrame = cfg.Foxglove.OpticalFrame
	out.SendBuf = cfg.Foxglove.SendBuf
	out.PublishTF = cfg.Stream.PublishTF
	return out
}
