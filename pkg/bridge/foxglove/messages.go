package foxglove

import "encoding/binary"

const (
	OpServerInfo  = "serverInfo"
	OpAdvertise   = "advertise"
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"

	BinaryOpMessageData = 0x01
)

type ServerInfoMsg struct {
	Op                 string            `json:"op"`
	Name               string            `json:"name"`
	Capabilities       []string          `json:"capabilities"`
	SupportedEncodings []string          `json:"supportedEncodings,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	SessionID          string            `json:"sessionId,omitempty"`
}

type Channel struct {
	ID             uint64 `json:"id"`
	Topic          string `json:"topic"`
	Encoding       string `json:"encoding"`
	SchemaName     string `json:"schemaName"`
	SchemaEncoding string `json:"schemaEncoding,omitempty"`
	Schema         string `json:"schema,omitempty"`
}

type AdvertiseMsg struct {
	Op       string    `json:"op"`
	Channels []Channel `json:"channels"`
}

type Subscription struct {
	ID        uint32 `json:"id"`
	ChannelID uint64 `json:"channelId"`
}

type SubscribeMsg struct {
	Op            string         `json:"op"`
	Subscriptions []Subscription `json:"subscriptions"`
}

type UnsubscribeMsg struct {
	Op              string   `json:"op"`
	SubscriptionIDs []uint32 `json:"subscriptionIds"`
}

type FrameTime struct {
	Sec  uint32 `json:"sec"`
	Nsec uint32 `json:"nsec"`
}

type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// RawImageMessage mirrors the foxglove.RawImage schema. Data is base64 in
// the JSON encoding.
type RawImageMessage struct {
	Timestamp FrameTime `json:"timestamp"`
	FrameID   string    `json:"frame_id"`
	Width     uint32    `json:"width"`
	Height    uint32    `json:"height"`
	Encoding  string    `json:"encoding"`
	Step      uint32    `json:"step"`
	Data      string    `json:"data"`
}

// CameraCalibrationMessage mirrors foxglove.CameraCalibration.
type CameraCalibrationMessage struct {
	Timestamp       FrameTime   `json:"timestamp"`
	FrameID         string      `json:"frame_id"`
	Width           uint32      `json:"width"`
	Height          uint32      `json:"height"`
	DistortionModel string      `json:"distortion_model"`
	D               []float64   `json:"D"`
	K               [9]float64  `json:"K"`
	R               [9]float64  `json:"R"`
	P               [12]float64 `json:"P"`
}

type FrameTransformMessage struct {
	Timestamp     FrameTime  `json:"timestamp"`
	ParentFrameID string     `json:"parent_frame_id"`
	ChildFrameID  string     `json:"child_frame_id"`
	Translation   Vector3    `json:"translation"`
	Rotation      Quaternion `json:"rotation"`
}

type FrameTransformsMessage struct {
	Transforms []FrameTransformMessage `json:"transforms"`
}

// ObjectMapMessage carries the name→color assignments of the current
// segmentation palette.
type ObjectMapMessage struct {
	Timestamp FrameTime        `json:"timestamp"`
	Entries   []ObjectMapEntry `json:"entries"`
}

type ObjectMapEntry struct {
	Name       string `json:"name"`
	ColorIndex uint32 `json:"color_index"`
}

func EncodeMessageData(subscriptionID uint32, logTime uint64, payload []byte) []byte {
	out := make([]byte, 1+4+8+len(payload))
	out[0] = BinaryOpMessageData
	binary.LittleEndian.PutUint32(out[1:5], subscriptionID)
	binary.LittleEndian.PutUint64(out[5:13], logTime)
	copy(out[13:], payload)
	return out
}
