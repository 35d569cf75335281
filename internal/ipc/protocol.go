// Package ipc implements the control protocol between keysnaild and
// keysnailctl.
//
// Messages are framed with a fixed 16-byte header followed by a JSON
// payload, exchanged over a Unix socket owned by the daemon's user. Every
// request carries a request ID that the matching response echoes.
package ipc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Protocol version for compatibility checking
const (
	ProtocolVersion = 1
	ProtocolMagic   = 0x4B534E4C // "KSNL"
)

// MaxPayload bounds the payload a peer may announce.
const MaxPayload = 1 << 20

// MessageType identifies the type of IPC message
type MessageType uint16

const (
	// Control messages (0x00xx)
	MsgPing  MessageType = 0x0001
	MsgPong  MessageType = 0x0002
	MsgError MessageType = 0x0005

	// Status messages (0x01xx)
	MsgStatusRequest  MessageType = 0x0100
	MsgStatusResponse MessageType = 0x0101
	MsgHealthRequest  MessageType = 0x0102
	MsgHealthResponse MessageType = 0x0103

	// Metrics (0x02xx)
	MsgMetricsRequest  MessageType = 0x0200
	MsgMetricsResponse MessageType = 0x0201

	// Configuration (0x04xx)
	MsgReloadConfig     MessageType = 0x0404
	MsgReloadConfigResp MessageType = 0x0405

	// Engine control (0x06xx)
	MsgSetSimultaneous     MessageType = 0x0600
	MsgSetSimultaneousResp MessageType = 0x0601
)

func (t MessageType) String() string {
	switch t {
	case MsgPing:
		return "ping"
	case MsgPong:
		return "pong"
	case MsgError:
		return "error"
	case MsgStatusRequest:
		return "status"
	case MsgStatusResponse:
		return "status-response"
	case MsgHealthRequest:
		return "health"
	case MsgHealthResponse:
		return "health-response"
	case MsgMetricsRequest:
		return "metrics"
	case MsgMetricsResponse:
		return "metrics-response"
	case MsgReloadConfig:
		return "reload"
	case MsgReloadConfigResp:
		return "reload-response"
	case MsgSetSimultaneous:
		return "set-simultaneous"
	case MsgSetSimultaneousResp:
		return "set-simultaneous-response"
	}
	return fmt.Sprintf("message(0x%04x)", uint16(t))
}

// Header is the fixed-size message header (16 bytes)
type Header struct {
	Magic     uint32      // Protocol magic number
	Version   uint8       // Protocol version
	Flags     uint8       // Reserved
	Type      MessageType // Message type
	RequestID uint32      // Request ID for correlation
	Length    uint32      // Payload length (not including header)
}

// HeaderSize is the size of the header in bytes
const HeaderSize = 16

// Message wraps a header and payload
type Message struct {
	Header  Header
	Payload []byte
}

// NewMessage creates a new message with the given type and payload
func NewMessage(msgType MessageType, requestID uint32, payload []byte) *Message {
	return &Message{
		Header: Header{
			Magic:     ProtocolMagic,
			Version:   ProtocolVersion,
			Type:      msgType,
			RequestID: requestID,
			Length:    uint32(len(payload)),
		},
		Payload: payload,
	}
}

// Write writes the header to a writer
func (h *Header) Write(w io.Writer) error {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	buf[4] = h.Version
	buf[5] = h.Flags
	binary.BigEndian.PutUint16(buf[6:8], uint16(h.Type))
	binary.BigEndian.PutUint32(buf[8:12], h.RequestID)
	binary.BigEndian.PutUint32(buf[12:16], h.Length)
	_, err := w.Write(buf)
	return err
}

// ReadHeader reads a header from a reader
func ReadHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	h := &Header{
		Magic:     binary.BigEndian.Uint32(buf[0:4]),
		Version:   buf[4],
		Flags:     buf[5],
		Type:      MessageType(binary.BigEndian.Uint16(buf[6:8])),
		RequestID: binary.BigEndian.Uint32(buf[8:12]),
		Length:    binary.BigEndian.Uint32(buf[12:16]),
	}

	if h.Magic != ProtocolMagic {
		return nil, fmt.Errorf("invalid magic number: %x", h.Magic)
	}

	if h.Version > ProtocolVersion {
		return nil, fmt.Errorf("unsupported protocol version: %d", h.Version)
	}

	return h, nil
}

// Write writes the message to a writer
func (m *Message) Write(w io.Writer) error {
	if err := m.Header.Write(w); err != nil {
		return err
	}
	if len(m.Payload) > 0 {
		_, err := w.Write(m.Payload)
		return err
	}
	return nil
}

// ReadMessage reads a complete message from a reader
func ReadMessage(r io.Reader) (*Message, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	m := &Message{Header: *h}
	if h.Length > 0 {
		if h.Length > MaxPayload {
			return nil, fmt.Errorf("payload too large: %d bytes", h.Length)
		}
		m.Payload = make([]byte, h.Length)
		if _, err := io.ReadFull(r, m.Payload); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ErrorResponse is sent when an operation fails
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrUnknown          = 1
	ErrInvalidRequest   = 2
	ErrPermissionDenied = 4
	ErrInternalError    = 5
	ErrUnavailable      = 6
)

// ComponentHealth is the last check result for one daemon component.
type ComponentHealth struct {
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Critical bool          `json:"critical"`
	Duration time.Duration `json:"duration_ns"`
}

// HealthResponse aggregates the daemon's component checks.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components []ComponentHealth `json:"components"`
}

// MetricsResponse carries the daemon metrics in Prometheus text format.
type MetricsResponse struct {
	Text string `json:"text"`
}

// StatusResponse describes the running daemon.
type StatusResponse struct {
	Version    string        `json:"version"`
	StartedAt  time.Time     `json:"started_at"`
	Uptime     time.Duration `json:"uptime"`
	ConfigPath string        `json:"config_path"`

	Devices []string `json:"devices"`
	Output  string   `json:"output"`

	WindowClass string   `json:"window_class"`
	Keymaps     []string `json:"keymaps"`
	Chords      int      `json:"chords"`

	Mode         string `json:"mode"`
	Mark         bool   `json:"mark"`
	Simultaneous bool   `json:"simultaneous"`

	Events       uint64 `json:"events"`
	OutputErrors uint64 `json:"output_errors"`
	Reloads      int    `json:"reloads"`
	Skipped      int    `json:"skipped"`
}

// ReloadResponse reports the result of re-reading the config file.
type ReloadResponse struct {
	Success bool     `json:"success"`
	Skipped []string `json:"skipped,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// SetSimultaneousRequest turns chord mode on or off.
type SetSimultaneousRequest struct {
	Enabled bool `json:"enabled"`
}

// SetSimultaneousResponse reports chord mode after the change.
type SetSimultaneousResponse struct {
	Enabled bool `json:"enabled"`
}

// Encode encodes a payload to JSON bytes
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Decode decodes JSON bytes to a payload
func Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// NewErrorMessage creates an error message
func NewErrorMessage(requestID uint32, code int, message string) *Message {
	payload, _ := Encode(&ErrorResponse{
		Code:    code,
		Message: message,
	})
	return NewMessage(MsgError, requestID, payload)
}

// NewResponse creates a response message
func NewResponse(msgType MessageType, requestID uint32, v any) (*Message, error) {
	payload, err := Encode(v)
	if err != nil {
		return nil, err
	}
	return NewMessage(msgType, requestID, payload), nil
}
