// Package foxglove publishes the assembled sensor stream over the
// Foxglove websocket protocol: raw color and depth images, camera
// calibration, the TF chain and the segmentation object map.
package foxglove

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"visionstream/pkg/camera"
	"visionstream/pkg/engine"
	"visionstream/pkg/packet"
)

const (
	// colorEncoding/depthEncoding are the wire tags consumers key on.
	colorEncoding = "bgr8"
	depthEncoding = "32FC1"
)

// opticalRotation is the fixed camera-link→optical-frame rotation
// (z-forward optical convention).
var opticalRotation = Quaternion{X: -0.5, Y: 0.5, Z: -0.5, W: 0.5}

type Server struct {
	cfg     Config
	hub     *engine.Hub
	intr    camera.Intrinsics
	session string

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	subs map[uint32]uint64
	mu   sync.RWMutex
	once sync.Once
}

func NewServer(cfg Config, hub *engine.Hub, intr camera.Intrinsics) *Server {
	defaults := DefaultConfig()
	if cfg.WSAddr == "" {
		cfg.WSAddr = defaults.WSAddr
	}
	if cfg.Name == "" {
		cfg.Name = defaults.Name
	}
	if cfg.Encoding == "" {
		cfg.Encoding = defaults.Encoding
	}
	if cfg.SendBuf <= 0 {
		cfg.SendBuf = defaults.SendBuf
	}
	if cfg.ParentFrame == "" {
		cfg.ParentFrame = defaults.ParentFrame
	}
	if cfg.CameraFrame == "" {
		cfg.CameraFrame = defaults.CameraFrame
	}
	if cfg.OpticalFrame == "" {
		cfg.OpticalFrame = defaults.OpticalFrame
	}
	fillChannel(&cfg.ColorChannel, defaults.ColorChannel)
	fillChannel(&cfg.DepthChannel, defaults.DepthChannel)
	fillChannel(&cfg.CameraInfo, defaults.CameraInfo)
	fillChannel(&cfg.TransformChannel, defaults.TransformChannel)
	fillChannel(&cfg.ObjectMapChannel, defaults.ObjectMapChannel)

	return &Server{
		cfg:     cfg,
		hub:     hub,
		intr:    intr,
		session: uuid.NewString(),
		clients: make(map[*client]struct{}),
	}
}

func fillChannel(ch *ChannelConfig, def ChannelConfig) {
	if ch.ID == 0 {
		ch.ID = def.ID
	}
	if ch.Topic == "" {
		ch.Topic = def.Topic
	}
	if ch.SchemaName == "" {
		ch.SchemaName = def.SchemaName
	}
}

func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWS)

	httpServer := &http.Server{
		Addr:    s.cfg.WSAddr,
		Handler: mux,
	}

	sub := s.hub.Subscribe()
	go s.broadcastLoop(ctx, sub)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = httpServer.Shutdown(shutdownCtx)
		cancel()
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		Subprotocols: []string{"foxglove.websocket.v1"},
		CheckOrigin: func(*http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := newClient(conn, s.cfg.SendBuf)
	s.addClient(c)

	if err := conn.WriteJSON(s.serverInfo()); err != nil {
		c.close()
		s.removeClient(c)
		return
	}
	if err := conn.WriteJSON(s.advertise()); err != nil {
		c.close()
		s.removeClient(c)
		return
	}

	go c.writeLoop()
	c.readLoop(s.supportedChannels())

	c.close()
	s.removeClient(c)
}

func (s *Server) supportedChannels() map[uint64]struct{} {
	channels := map[uint64]struct{}{
		s.cfg.ColorChannel.ID:     {},
		s.cfg.DepthChannel.ID:     {},
		s.cfg.CameraInfo.ID:       {},
		s.cfg.ObjectMapChannel.ID: {},
	}
	if s.cfg.PublishTF {
		channels[s.cfg.TransformChannel.ID] = struct{}{}
	}
	return channels
}

func (s *Server) serverInfo() ServerInfoMsg {
	return ServerInfoMsg{
		Op:           OpServerInfo,
		Name:         s.cfg.Name,
		Capabilities: []string{},
		SessionID:    s.session,
	}
}

func (s *Server) advertise() AdvertiseMsg {
	channels := []Channel{
		s.channel(s.cfg.ColorChannel),
		s.channel(s.cfg.DepthChannel),
		s.channel(s.cfg.CameraInfo),
		s.channel(s.cfg.ObjectMapChannel),
	}
	if s.cfg.PublishTF {
		channels = append(channels, s.channel(s.cfg.TransformChannel))
	}
	return AdvertiseMsg{Op: OpAdvertise, Channels: channels}
}

func (s *Server) channel(cfg ChannelConfig) Channel {
	return Channel{
		ID:         cfg.ID,
		Topic:      cfg.Topic,
		Encoding:   s.cfg.Encoding,
		SchemaName: cfg.SchemaName,
	}
}

func (s *Server) broadcastLoop(ctx context.Context, sub <-chan packet.Frame) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-sub:
			if !ok {
				return
			}
			s.broadcastFrame(frame)
		}
	}
}

func (s *Server) broadcastFrame(frame packet.Frame) {
	ts := frameTimestamp(frame.Header.CaptureTime)

	s.publishJSONToChannel(s.cfg.ColorChannel.ID, frame.Header.CaptureTime, s.colorImage(frame, ts))
	s.publishJSONToChannel(s.cfg.DepthChannel.ID, frame.Header.CaptureTime, s.depthImage(frame, ts))
	s.publishJSONToChannel(s.cfg.CameraInfo.ID, frame.Header.CaptureTime, s.cameraInfo(ts))
	s.publishJSONToChannel(s.cfg.ObjectMapChannel.ID, frame.Header.CaptureTime, s.objectMap(frame, ts))
	if s.cfg.PublishTF {
		s.publishJSONToChannel(s.cfg.TransformChannel.ID, frame.Header.CaptureTime, s.transforms(frame, ts))
	}
}

func frameTimestamp(captureNanos int64) FrameTime {
	return FrameTime{
		Sec:  uint32(captureNanos / int64(time.Second)),
		Nsec: uint32(captureNanos % int64(time.Second)),
	}
}

func (s *Server) colorImage(frame packet.Frame, ts FrameTime) RawImageMessage {
	return RawImageMessage{
		Timestamp: ts,
		FrameID:   s.cfg.OpticalFrame,
		Width:     frame.Header.Width,
		Height:    frame.Header.Height,
		Encoding:  colorEncoding,
		Step:      frame.Header.Width * 3,
		Data:      base64.StdEncoding.EncodeToString(frame.Color),
	}
}

func (s *Server) depthImage(frame packet.Frame, ts FrameTime) RawImageMessage {
	return RawImageMessage{
		Timestamp: ts,
		FrameID:   s.cfg.OpticalFrame,
		Width:     frame.Header.Width,
		Height:    frame.Header.Height,
		Encoding:  depthEncoding,
		Step:      frame.Header.Width * 4,
		Data:      base64.StdEncoding.EncodeToString(frame.Depth),
	}
}

func (s *Server) cameraInfo(ts FrameTime) CameraCalibrationMessage {
	d := s.intr.D()
	return CameraCalibrationMessage{
		Timestamp:       ts,
		FrameID:         s.cfg.OpticalFrame,
		Width:           s.intr.Width,
		Height:          s.intr.Height,
		DistortionModel: s.intr.DistortionModel(),
		D:               d[:],
		K:               s.intr.K(),
		R:               s.intr.R(),
		P:               s.intr.P(),
	}
}

func (s *Server) objectMap(frame packet.Frame, ts FrameTime) ObjectMapMessage {
	entries := make([]ObjectMapEntry, len(frame.Objects))
	for i, e := range frame.Objects {
		entries[i] = ObjectMapEntry{Name: e.Name, ColorIndex: e.ColorIndex}
	}
	return ObjectMapMessage{Timestamp: ts, Entries: entries}
}

// transforms publishes the camera link pose plus the fixed optical-frame
// joint hanging off it.
func (s *Server) transforms(frame packet.Frame, ts FrameTime) FrameTransformsMessage {
	link := FrameTransformMessage{
		Timestamp:     ts,
		ParentFrameID: s.cfg.ParentFrame,
		ChildFrameID:  s.cfg.CameraFrame,
		Translation: Vector3{
			X: frame.Header.Translation.X,
			Y: frame.Header.Translation.Y,
			Z: frame.Header.Translation.Z,
		},
		Rotation: Quaternion{
			X: frame.Header.Rotation.X,
			Y: frame.Header.Rotation.Y,
			Z: frame.Header.Rotation.Z,
			W: frame.Header.Rotation.W,
		},
	}
	optical := FrameTransformMessage{
		Timestamp:     ts,
		ParentFrameID: s.cfg.CameraFrame,
		ChildFrameID:  s.cfg.OpticalFrame,
		Rotation:      opticalRotation,
	}
	return FrameTransformsMessage{Transforms: []FrameTransformMessage{link, optical}}
}

func (s *Server) publishJSONToChannel(channelID uint64, captureNanos int64, message any) {
	payload, err := json.Marshal(message)
	if err != nil {
		return
	}

	logTime := uint64(captureNanos)
	clients := s.snapshotClients()
	for _, c := range clients {
		subIDs := c.subIDsForChannel(channelID)
		for _, subID := range subIDs {
			data := EncodeMessageData(subID, logTime, payload)
			c.trySend(data)
		}
	}
}

func (s *Server) addClient(c *client) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

func (s *Server) snapshotClients() []*client {
	s.mu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()
	return clients
}

func newClient(conn *websocket.Conn, sendBuf int) *client {
	if sendBuf <= 0 {
		sendBuf = DefaultConfig().SendBuf
	}
	return &client{
		conn: conn,
		send: make(chan []byte, sendBuf),
		subs: make(map[uint32]uint64),
	}
}

func (c *client) readLoop(supportedChannels map[uint64]struct{}) {
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var header struct {
			Op string `json:"op"`
		}
		if err := json.Unmarshal(data, &header); err != nil {
			continue
		}

		switch header.Op {
		case OpSubscribe:
			var msg SubscribeMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			for _, sub := range msg.Subscriptions {
				if _, ok := supportedChannels[sub.ChannelID]; ok {
					c.addSub(sub.ID, sub.ChannelID)
				}
			}
		case OpUnsubscribe:
			var msg UnsubscribeMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			for _, id := range msg.SubscriptionIDs {
				c.removeSub(id)
			}
		}
	}
}

func (c *client) writeLoop() {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
			c.close()
			return
		}
	}
}

func (c *client) trySend(msg []byte) {
	defer func() {
		_ = recover()
	}()
	select {
	case c.send <- msg:
	default:
	}
}

func (c *client) addSub(id uint32, channelID uint64) {
	c.mu.Lock()
	c.subs[id] = channelID
	c.mu.Unlock()
}

func (c *client) removeSub(id uint32) {
	c.mu.Lock()
	delete(c.subs, id)
	c.mu.Unlock()
}

func (c *client) subIDsForChannel(channelID uint64) []uint32 {
	c.mu.RLock()
	ids := make([]uint32, 0, len(c.subs))
	for id, ch := range c.subs {
		if ch == channelID {
			ids = append(ids, id)
		}
	}
	c.mu.RUnlock()
	return ids
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
		_ = c.conn.Close()
	})
}
