package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"visionstream/pkg/bridge/foxglove"
	"visionstream/pkg/camera"
	"visionstream/pkg/config"
	"visionstream/pkg/control"
	"visionstream/pkg/engine"
	"visionstream/pkg/logger"
	"visionstream/pkg/palette"
	"visionstream/pkg/scene"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	if len(args) == 0 {
		return runServe([]string{}, stdout, stderr)
	}

	switch args[0] {
	case "serve":
		return runServe(args[1:], stdout, stderr)
	case "init-config":
		return runInitConfig(args[1:], stdout, stderr)
	case "-h", "--help", "help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintln(stderr, "unknown command:", args[0])
		printUsage(stderr)
		return 2
	}
}

func runServe(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", config.DefaultConfigPath, "TOML config path")
	verbose := fs.Bool("v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, found, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Error("config load failed", "path", *configPath, "err", err)
		return 1
	}
	if !found {
		log.Info("config not found, using defaults", "path", *configPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := engine.NewHub(engine.WithClientBuffer(4))
	go hub.Run(ctx)

	var source scene.Source
	if cfg.Stream.ImagePath != "" {
		source, err = scene.NewImageSource(cfg.Stream.ImagePath, cfg.Camera.Width, cfg.Camera.Height, cfg.Stream.ImageDepth)
		if err != nil {
			log.Error("image source failed", "path", cfg.Stream.ImagePath, "err", err)
			return 1
		}
		log.Info("serving still image", "path", cfg.Stream.ImagePath)
	} else {
		source = newMockScene(cfg.Camera.Width, cfg.Camera.Height, cfg.ColorFormat())
	}

	stream, err := camera.NewStream(cfg.CameraConfig(), source, hub,
		camera.WithErrorHandler(func(err error) {
			log.Warn("frame dropped", "err", err)
		}),
	)
	if err != nil {
		log.Error("stream setup failed", "err", err)
		return 1
	}

	pal := palette.New()
	entities := mockEntities()
	recolor := func() error {
		entries, err := scene.Recolor(pal, entities)
		if err != nil {
			return err
		}
		stream.SetObjectMap(entries)
		log.Info("segmentation palette regenerated", "entries", len(entries), "colors", pal.Len())
		return nil
	}
	if err := recolor(); err != nil {
		log.Error("initial recolor failed", "err", err)
		return 1
	}

	if cfg.Log.Path != "" {
		file, err := os.Create(cfg.Log.Path)
		if err != nil {
			log.Error("frame log open failed", "path", cfg.Log.Path, "err", err)
			return 1
		}
		defer file.Close()
		go logger.NewJSONLWriter(file).Consume(ctx, hub.Subscribe())
		log.Info("frame log enabled", "path", cfg.Log.Path)
	}

	bridge := foxglove.NewServer(cfg.FoxgloveConfig(), hub, stream.Intrinsics())
	go func() {
		if err := bridge.Run(ctx); err != nil {
			log.Error("bridge failed", "addr", cfg.Foxglove.WSAddr, "err", err)
			cancel()
		}
	}()

	ctl := control.NewServer(cfg.Control.Addr, &streamControl{stream: stream, hub: hub}, recolor,
		control.WithLogger(log),
	)
	go func() {
		if err := ctl.Run(ctx); err != nil {
			log.Error("control server failed", "addr", cfg.Control.Addr, "err", err)
			cancel()
		}
	}()

	stream.Pause(cfg.Camera.Paused)
	if err := stream.Start(ctx); err != nil {
		log.Error("stream start failed", "err", err)
		return 1
	}
	defer stream.Stop()

	log.Info("visiond up",
		"stream", stream.ID(),
		"resolution", fmt.Sprintf("%dx%d", cfg.Camera.Width, cfg.Camera.Height),
		"framerate", cfg.Camera.Framerate,
		"ws", cfg.Foxglove.WSAddr,
		"control", cfg.Control.Addr,
	)

	<-ctx.Done()
	log.Info("shutting down")
	return 0
}

func runInitConfig(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("init-config", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", config.DefaultConfigPath, "TOML config path")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if _, err := os.Stat(*configPath); err == nil {
		fmt.Fprintln(stderr, "config already exists:", *configPath)
		return 1
	}

	cfg := config.Default()
	if err := cfg.Save(*configPath); err != nil {
		fmt.Fprintln(stderr, "failed to write config:", err)
		return 1
	}
	fmt.Fprintln(stdout, "wrote", *configPath)
	return 0
}

// streamControl adapts the stream and hub to the control surface.
type streamControl struct {
	stream *camera.Stream
	hub    *engine.Hub
}

func (c *streamControl) Pause(paused bool) { c.stream.Pause(paused) }

func (c *streamControl) IsPaused() bool { return c.stream.IsPaused() }

func (c *streamControl) SetFramerate(hz float64) error { return c.stream.SetFramerate(hz) }

func (c *streamControl) StatsLine() string {
	st := c.stream.Stats()
	return fmt.Sprintf("frames=%d skipped=%d dropped=%d paused=%t",
		st.FramesPublished, st.TicksSkipped, c.hub.Dropped(), c.stream.IsPaused())
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  visiond serve [--config visiond.toml] [-v]")
	fmt.Fprintln(w, "  visiond init-config [--config visiond.toml]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve         start the camera stream and middleware bridge")
	fmt.Fprintln(w, "  init-config   write a default config file")
}

var _ control.Handler = (*streamControl)(nil)
