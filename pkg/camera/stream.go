// Package camera implements the frame-assembly pipeline: the fixed-cadence
// driver, the two background conversion workers, and the camera intrinsics
// derivation. The driver owns the packet buffer for the lifetime of an
// active stream and is the only component that touches the header pose
// fields.
package camera

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"visionstream/pkg/convert"
	"visionstream/pkg/packet"
	"visionstream/pkg/scene"
)

// Publisher receives each assembled frame. Implementations must not block
// unboundedly; the engine hub drops on slow consumers.
type Publisher interface {
	Publish(packet.Frame)
}

// Config is the stream configuration consumed by the driver.
type Config struct {
	Width            uint32
	Height           uint32
	FieldOfView      float64 // degrees
	Framerate        float64 // frames per second; ignored with native cadence
	UseNativeCadence bool
	Tonemap          convert.Tonemap
}

// Validate rejects configurations the stream cannot start with.
func (c Config) Validate() error {
	if c.Width == 0 || c.Height == 0 {
		return fmt.Errorf("camera: invalid resolution %dx%d", c.Width, c.Height)
	}
	if c.FieldOfView <= 0 || c.FieldOfView >= 180 {
		return fmt.Errorf("camera: field of view out of range: %g", c.FieldOfView)
	}
	if !c.UseNativeCadence && c.Framerate <= 0 {
		return fmt.Errorf("camera: framerate must be positive, got %g", c.Framerate)
	}
	return c.Tonemap.Validate()
}

// Stats is a snapshot of stream counters.
type Stats struct {
	FramesPublished uint64
	TicksSkipped    uint64
}

// Stream is the per-tick orchestrator. One driver goroutine plus exactly
// two conversion workers for the lifetime of an active stream.
type Stream struct {
	id     string
	source scene.Source
	pub    Publisher

	buf         *packet.Buffer
	colorWorker *worker
	depthWorker *worker

	errorHandler func(error)

	// driver-side state; mu guards the pieces touched from other
	// goroutines (control surface, Stats)
	mu        sync.Mutex
	cfg       Config
	frameTime time.Duration
	accum     time.Duration
	paused    bool
	entries   []packet.MapEntry
	stats     Stats

	lifecycleMu sync.Mutex
	running     atomic.Bool
	stopped     bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// Option configures a Stream.
type Option func(*Stream)

// WithErrorHandler routes tick errors somewhere useful; by default they
// are dropped.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Stream) {
		if fn != nil {
			s.errorHandler = fn
		}
	}
}

// NewStream validates cfg and builds the stream and its packet buffer.
func NewStream(cfg Config, source scene.Source, pub Publisher, opts ...Option) (*Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("camera: nil scene source")
	}
	if pub == nil {
		return nil, fmt.Errorf("camera: nil publisher")
	}
	buf, err := packet.NewBuffer(cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	s := &Stream{
		id:     uuid.NewString(),
		source: source,
		pub:    pub,
		buf:    buf,
		cfg:    cfg,
	}
	s.frameTime = frameInterval(cfg)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func frameInterval(cfg Config) time.Duration {
	if cfg.UseNativeCadence || cfg.Framerate <= 0 {
		return time.Second / 60
	}
	return time.Duration(float64(time.Second) / cfg.Framerate)
}

// ID is the stream's session identifier.
func (s *Stream) ID() string {
	return s.id
}

// Intrinsics derives the pinhole model for the configured stream.
func (s *Stream) Intrinsics() Intrinsics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeIntrinsics(s.cfg.FieldOfView, s.cfg.Width, s.cfg.Height)
}

// Start spawns the two conversion workers and the driver loop. Safe for
// concurrent calls; only the first succeeds. A stopped stream cannot be
// restarted.
func (s *Stream) Start(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	if s.running.Load() {
		return fmt.Errorf("camera: stream already started")
	}
	if s.stopped {
		return fmt.Errorf("camera: stream already stopped")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running.Store(true)

	s.colorWorker = newWorker()
	s.depthWorker = newWorker()
	s.wg.Add(3)
	go func() {
		defer s.wg.Done()
		s.colorWorker.run()
	}()
	go func() {
		defer s.wg.Done()
		s.depthWorker.run()
	}()
	go func() {
		defer s.wg.Done()
		s.driverLoop(ctx)
	}()
	return nil
}

// Stop shuts the stream down: the driver loop exits, both workers observe
// the liveness flag and terminate, and only then does the stream release
// its hold on the packet buffer. Idempotent.
func (s *Stream) Stop() error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	if !s.running.Load() {
		return nil
	}
	s.cancel()
	s.colorWorker.stop()
	s.depthWorker.stop()
	s.wg.Wait()
	s.running.Store(false)
	s.stopped = true
	return nil
}

// IsRunning reports whether the stream is active.
func (s *Stream) IsRunning() bool {
	return s.running.Load()
}

// driverLoop ticks at the frame interval and feeds real elapsed time into
// the cadence gate, so jitter in the ticker never drifts the long-run
// phase.
func (s *Stream) driverLoop(ctx context.Context) {
	s.mu.Lock()
	interval := s.frameTime
	s.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			// The select can pick a pending tick over a done context.
			if ctx.Err() != nil {
				return
			}
			dt := now.Sub(last)
			last = now
			if err := s.Tick(dt); err != nil {
				s.handleError(err)
			}
			if next := s.currentInterval(); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

func (s *Stream) currentInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameTime
}

// Tick advances the cadence gate by dt and, on trigger, runs one full
// capture→convert→publish cycle. The interval is subtracted from the
// accumulator rather than reset, preserving phase accuracy under frame
// jitter.
func (s *Stream) Tick(dt time.Duration) error {
	if !s.running.Load() {
		return fmt.Errorf("camera: stream not started")
	}
	if !s.advanceGate(dt) {
		return nil
	}
	s.mu.Lock()
	cfg := s.cfg
	entries := s.entries
	s.mu.Unlock()

	capture, err := s.source.Capture()
	if err != nil {
		return fmt.Errorf("camera: capture: %w", err)
	}
	pixels := int(cfg.Width * cfg.Height)
	if got := capture.Color.Pixels(); got != pixels {
		return fmt.Errorf("camera: color frame has %d pixels, want %d", got, pixels)
	}
	if got := len(capture.Depth); got != pixels {
		return fmt.Errorf("camera: depth frame has %d pixels, want %d", got, pixels)
	}

	// Header first: it must be fully populated before any payload byte
	// is written.
	hdr := s.buf.StartWriting(entries)
	hdr.CaptureTime = time.Now().UnixNano()
	setHeaderPose(hdr, capture.Pose)

	colorDst := s.buf.ColorSegment()
	depthDst := s.buf.DepthSegment()
	colorTicket := s.colorWorker.submit(func() {
		cfg.Tonemap.BGRInto(capture.Color, colorDst)
	})
	depthTicket := s.depthWorker.submit(func() {
		convert.UnpackDepthInto(capture.Depth, depthDst)
	})

	colorOK := s.colorWorker.wait(colorTicket)
	depthOK := s.depthWorker.wait(depthTicket)
	if !colorOK || !depthOK {
		// Shutdown raced the convert; abort so the half-written region
		// never surfaces and the buffer stays usable.
		s.buf.AbortWriting()
		return fmt.Errorf("camera: workers terminated mid-frame")
	}
	s.buf.DoneWriting()

	view := s.buf.StartReading()
	frame := packet.FrameFromView(view, entries)
	s.buf.DoneReading()

	s.pub.Publish(frame)

	s.mu.Lock()
	s.stats.FramesPublished++
	s.mu.Unlock()
	return nil
}

// advanceGate accumulates elapsed time and reports whether this tick
// triggers a frame. On trigger the interval is subtracted, not reset, so
// the long-run phase stays accurate against frame-time jitter.
func (s *Stream) advanceGate(dt time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		return false
	}
	s.accum += dt
	if s.cfg.UseNativeCadence {
		s.accum = 0
		return true
	}
	if s.accum < s.frameTime {
		s.stats.TicksSkipped++
		return false
	}
	s.accum -= s.frameTime
	return true
}

// setHeaderPose converts the source-engine pose (centimeters, left-handed)
// into the wire convention (meters, right-handed).
func setHeaderPose(hdr *packet.Header, pose scene.Pose) {
	hdr.Translation.X = pose.Location.X / 100
	hdr.Translation.Y = -pose.Location.Y / 100
	hdr.Translation.Z = pose.Location.Z / 100
	hdr.Rotation.X = -pose.Rotation.X
	hdr.Rotation.Y = pose.Rotation.Y
	hdr.Rotation.Z = -pose.Rotation.Z
	hdr.Rotation.W = pose.Rotation.W
}

// Pause gates or ungates the tick path.
func (s *Stream) Pause(paused bool) {
	s.mu.Lock()
	s.paused = paused
	s.mu.Unlock()
}

// IsPaused reports the pause flag.
func (s *Stream) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// SetFramerate changes the frame interval and resets the accumulator.
func (s *Stream) SetFramerate(hz float64) error {
	if hz <= 0 {
		return fmt.Errorf("camera: framerate must be positive, got %g", hz)
	}
	s.mu.Lock()
	s.cfg.Framerate = hz
	s.cfg.UseNativeCadence = false
	s.frameTime = time.Duration(float64(time.Second) / hz)
	s.accum = 0
	s.mu.Unlock()
	return nil
}

// SetObjectMap replaces the object-map entries embedded in subsequent
// packets, typically after a recolor pass.
func (s *Stream) SetObjectMap(entries []packet.MapEntry) {
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
}

// Stats snapshots the stream counters.
func (s *Stream) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Accumulated exposes the cadence accumulator, mainly for tests and the
// stats surface.
func (s *Stream) Accumulated() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accum
}

func (s *Stream) handleError(err error) {
	if s.errorHandler != nil {
		s.errorHandler(err)
	}
}
