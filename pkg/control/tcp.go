// Package control exposes a small line-oriented TCP command surface for a
// running stream: pause/resume, framerate changes, recolor requests and a
// stats probe.
package control

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"
)

// Handler is the slice of the stream the control surface may touch.
type Handler interface {
	Pause(bool)
	IsPaused() bool
	SetFramerate(hz float64) error
	StatsLine() string
}

// Recolorer regenerates the segmentation palette for the current scene.
type Recolorer func() error

type Server struct {
	addr        string
	handler     Handler
	recolor     Recolorer
	log         *slog.Logger
	readTimeout time.Duration
}

type Option func(*Server)

func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.readTimeout = d
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

func NewServer(addr string, handler Handler, recolor Recolorer, opts ...Option) *Server {
	s := &Server{
		addr:        addr,
		handler:     handler,
		recolor:     recolor,
		log:         slog.Default(),
		readTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run accepts connections until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("control: listen %s: %w", s.addr, err)
	}
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Warn("control accept failed", "err", err)
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	for {
		if ctx.Err() != nil {
			return
		}
		if s.readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		reply := s.dispatch(strings.TrimSpace(line))
		if _, err := fmt.Fprintln(conn, reply); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "err: empty command"
	}

	switch fields[0] {
	case "pause":
		s.handler.Pause(true)
		return "ok"
	case "resume":
		s.handler.Pause(false)
		return "ok"
	case "rate":
		if len(fields) != 2 {
			return "err: usage: rate <hz>"
		}
		hz, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return "err: invalid rate: " + fields[1]
		}
		if err := s.handler.SetFramerate(hz); err != nil {
			return "err: " + err.Error()
		}
		return "ok"
	case "recolor":
		if s.recolor == nil {
			return "err: recolor not available"
		}
		if err := s.recolor(); err != nil {
			return "err: " + err.Error()
		}
		return "ok"
	case "stats":
		return s.handler.StatsLine()
	default:
		return "err: unknown command: " + fields[0]
	}
}
