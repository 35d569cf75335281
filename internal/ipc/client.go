package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// Common errors
var (
	ErrDaemonNotRunning = errors.New("daemon is not running")
	ErrUnexpectedReply  = errors.New("unexpected reply")
)

// RemoteError is an error reported by the daemon.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("daemon error %d: %s", e.Code, e.Message)
}

// Client is a synchronous control connection. Requests are serialised.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	timeout time.Duration
	nextID  atomic.Uint32
}

// Dial connects to the daemon's control socket. timeout bounds the connect
// and every request whose context has no deadline.
func Dial(socketPath string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	conn, err := net.DialTimeout("unix", socketPath, timeout)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED) {
			return nil, fmt.Errorf("%w (socket %s)", ErrDaemonNotRunning, socketPath)
		}
		return nil, fmt.Errorf("connect: %w", err)
	}
	return &Client{conn: conn, timeout: timeout}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Ping checks that the daemon answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.roundTrip(ctx, MsgPing, nil, MsgPong, nil)
}

// Status fetches the daemon's status.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.roundTrip(ctx, MsgStatusRequest, nil, MsgStatusResponse, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health runs the daemon's component checks.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.roundTrip(ctx, MsgHealthRequest, nil, MsgHealthResponse, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Metrics fetches the daemon metrics in Prometheus text format.
func (c *Client) Metrics(ctx context.Context) (string, error) {
	var resp MetricsResponse
	if err := c.roundTrip(ctx, MsgMetricsRequest, nil, MsgMetricsResponse, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Reload asks the daemon to re-read its config file.
func (c *Client) Reload(ctx context.Context) (*ReloadResponse, error) {
	var resp ReloadResponse
	if err := c.roundTrip(ctx, MsgReloadConfig, nil, MsgReloadConfigResp, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetSimultaneous turns chord mode on or off.
func (c *Client) SetSimultaneous(ctx context.Context, enabled bool) (*SetSimultaneousResponse, error) {
	var resp SetSimultaneousResponse
	req := &SetSimultaneousRequest{Enabled: enabled}
	if err := c.roundTrip(ctx, MsgSetSimultaneous, req, MsgSetSimultaneousResp, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) roundTrip(ctx context.Context, typ MessageType, req any, want MessageType, resp any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var payload []byte
	if req != nil {
		var err error
		if payload, err = Encode(req); err != nil {
			return fmt.Errorf("encode %s: %w", typ, err)
		}
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	c.conn.SetDeadline(deadline)

	id := c.nextID.Add(1)
	if err := NewMessage(typ, id, payload).Write(c.conn); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}

	for {
		msg, err := ReadMessage(c.conn)
		if err != nil {
			return fmt.Errorf("read %s reply: %w", typ, err)
		}
		// Unsolicited errors carry request ID 0.
		if msg.Header.RequestID != id && !(msg.Header.RequestID == 0 && msg.Header.Type == MsgError) {
			continue
		}

		switch msg.Header.Type {
		case want:
			if resp == nil || len(msg.Payload) == 0 {
				return nil
			}
			if err := Decode(msg.Payload, resp); err != nil {
				return fmt.Errorf("decode %s: %w", msg.Header.Type, err)
			}
			return nil
		case MsgError:
			var e ErrorResponse
			if err := Decode(msg.Payload, &e); err != nil {
				return fmt.Errorf("decode error reply: %w", err)
			}
			return &RemoteError{Code: e.Code, Message: e.Message}
		default:
			return fmt.Errorf("%w: %s to %s", ErrUnexpectedReply, msg.Header.Type, typ)
		}
	}
}
