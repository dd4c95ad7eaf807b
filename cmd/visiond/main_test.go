package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"visionstream/pkg/camera"
	"visionstream/pkg/config"
	"visionstream/pkg/convert"
	"visionstream/pkg/engine"
	"visionstream/pkg/packet"
)

func TestRunHelp(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run([]string{"help"}, &out, &errOut); code != 0 {
		t.Fatalf("help exited %d", code)
	}
	if !strings.Contains(out.String(), "serve") {
		t.Fatalf("usage missing serve command:\n%s", out.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run([]string{"bogus"}, &out, &errOut); code != 2 {
		t.Fatalf("unknown command exited %d, want 2", code)
	}
	if !strings.Contains(errOut.String(), "unknown command") {
		t.Fatalf("missing error output:\n%s", errOut.String())
	}
}

func TestInitConfigWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visiond.toml")

	var out, errOut bytes.Buffer
	if code := run([]string{"init-config", "--config", path}, &out, &errOut); code != 0 {
		t.Fatalf("init-config exited %d: %s", code, errOut.String())
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	cfg, found, err := config.LoadOrDefault(path)
	if err != nil || !found {
		t.Fatalf("written config unreadable: found=%t err=%v", found, err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("written config invalid: %v", err)
	}

	// Refuses to clobber an existing file.
	if code := run([]string{"init-config", "--config", path}, &out, &errOut); code != 1 {
		t.Fatalf("second init-config exited %d, want 1", code)
	}
}

func TestServeRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visiond.toml")
	if err := os.WriteFile(path, []byte("[camera]\nwidth = 0\nheight = 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out, errOut bytes.Buffer
	if code := run([]string{"serve", "--config", path}, &out, &errOut); code != 1 {
		t.Fatalf("serve with invalid config exited %d, want 1", code)
	}
}

func TestStreamControlStatsLine(t *testing.T) {
	src := newMockScene(8, 8, convert.FormatColor)
	hub := engine.NewHub()
	stream, err := camera.NewStream(camera.Config{
		Width:       8,
		Height:      8,
		FieldOfView: 90,
		Framerate:   30,
		Tonemap:     convert.Tonemap{Gamma: 1},
	}, src, hub)
	if err != nil {
		t.Fatalf("NewStream failed: %v", err)
	}

	ctl := &streamControl{stream: stream, hub: hub}
	want := fmt.Sprintf("frames=0 skipped=0 dropped=0 paused=%t", false)
	if got := ctl.StatsLine(); got != want {
		t.Fatalf("stats line = %q, want %q", got, want)
	}

	ctl.Pause(true)
	if !ctl.IsPaused() {
		t.Fatal("pause not forwarded to the stream")
	}
	if err := ctl.SetFramerate(-1); err == nil {
		t.Fatal("expected error for negative framerate")
	}
	if err := ctl.SetFramerate(60); err != nil {
		t.Fatalf("SetFramerate failed: %v", err)
	}
	if !strings.Contains(ctl.StatsLine(), "paused=true") {
		t.Fatalf("stats line missing pause flag: %q", ctl.StatsLine())
	}
}

func TestStreamControlPublishChain(t *testing.T) {
	// The control adapter reads hub drop counts; confirm the hub counts
	// drops on a full broadcast buffer the way the stats line reports them.
	hub := engine.NewHub(engine.WithBroadcastBuffer(1))
	hub.Publish(packet.Frame{})
	hub.Publish(packet.Frame{})
	if hub.Dropped() == 0 {
		t.Fatal("expected a dropped frame with no consumer running")
	}
}
