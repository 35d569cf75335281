package ipc

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keysnail/internal/logging"
)

func TestMessageRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	msg, err := NewResponse(MsgSetSimultaneousResp, 42, &SetSimultaneousResponse{Enabled: true})
	require.NoError(t, err)
	require.NoError(t, msg.Write(&buf))
	assert.Equal(t, HeaderSize+len(msg.Payload), buf.Len())

	got, err := ReadMessage(&buf)
	require.NoError(t, err)
	assert.Equal(t, MsgSetSimultaneousResp, got.Header.Type)
	assert.Equal(t, uint32(42), got.Header.RequestID)

	var resp SetSimultaneousResponse
	require.NoError(t, Decode(got.Payload, &resp))
	assert.True(t, resp.Enabled)
}

func TestReadMessageRejects(t *testing.T) {
	t.Run("bad magic", func(t *testing.T) {
		var buf bytes.Buffer
		h := Header{Magic: 0xdeadbeef, Version: ProtocolVersion, Type: MsgPing}
		require.NoError(t, h.Write(&buf))
		_, err := ReadMessage(&buf)
		assert.ErrorContains(t, err, "invalid magic")
	})

	t.Run("future version", func(t *testing.T) {
		var buf bytes.Buffer
		h := Header{Magic: ProtocolMagic, Version: ProtocolVersion + 1, Type: MsgPing}
		require.NoError(t, h.Write(&buf))
		_, err := ReadMessage(&buf)
		assert.ErrorContains(t, err, "unsupported protocol version")
	})

	t.Run("oversized payload", func(t *testing.T) {
		var buf bytes.Buffer
		h := Header{Magic: ProtocolMagic, Version: ProtocolVersion, Type: MsgStatusResponse, Length: MaxPayload + 1}
		require.NoError(t, h.Write(&buf))
		_, err := ReadMessage(&buf)
		assert.ErrorContains(t, err, "payload too large")
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := ReadMessage(bytes.NewReader([]byte{0x4B, 0x53}))
		assert.Error(t, err)
	})
}

func TestMessageTypeString(t *testing.T) {
	assert.Equal(t, "status", MsgStatusRequest.String())
	assert.Equal(t, "metrics-response", MsgMetricsResponse.String())
	assert.Equal(t, "message(0x0999)", MessageType(0x0999).String())
}

func socketPath(t *testing.T) string {
	t.Helper()
	// Unix socket paths are limited to ~108 bytes; keep them short.
	dir, err := os.MkdirTemp("", "ksipc")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "control.sock")
}

func startServer(t *testing.T, h Handler) *Server {
	t.Helper()
	srv := NewServer(DefaultServerConfig(socketPath(t)), h, logging.Discard())
	require.NoError(t, srv.Start())
	t.Cleanup(func() { srv.Stop() })
	return srv
}

func dial(t *testing.T, srv *Server) *Client {
	t.Helper()
	c, err := Dial(srv.SocketPath(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientServer(t *testing.T) {
	simultaneous := false
	srv := startServer(t, HandlerFunc(func(ctx context.Context, msg *Message) (*Message, error) {
		switch msg.Header.Type {
		case MsgStatusRequest:
			return NewResponse(MsgStatusResponse, msg.Header.RequestID, &StatusResponse{
				Version:      "test",
				Keymaps:      []string{"emacs-like"},
				Simultaneous: simultaneous,
			})
		case MsgSetSimultaneous:
			var req SetSimultaneousRequest
			if err := Decode(msg.Payload, &req); err != nil {
				return NewErrorMessage(msg.Header.RequestID, ErrInvalidRequest, err.Error()), nil
			}
			simultaneous = req.Enabled
			return NewResponse(MsgSetSimultaneousResp, msg.Header.RequestID, &SetSimultaneousResponse{Enabled: simultaneous})
		case MsgReloadConfig:
			return nil, errors.New("boom")
		}
		return NewErrorMessage(msg.Header.RequestID, ErrInvalidRequest, "unsupported"), nil
	}))
	c := dial(t, srv)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test", st.Version)
	assert.Equal(t, []string{"emacs-like"}, st.Keymaps)
	assert.False(t, st.Simultaneous)

	set, err := c.SetSimultaneous(ctx, true)
	require.NoError(t, err)
	assert.True(t, set.Enabled)

	st, err = c.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Simultaneous)

	_, err = c.Reload(ctx)
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, ErrInternalError, remote.Code)
	assert.Equal(t, "boom", remote.Message)

	// The connection stays usable after an error reply.
	require.NoError(t, c.Ping(ctx))
}

func TestServerNoHandler(t *testing.T) {
	srv := startServer(t, nil)
	c := dial(t, srv)

	_, err := c.Status(context.Background())
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, ErrInvalidRequest, remote.Code)
}

func TestServerAlreadyRunning(t *testing.T) {
	srv := startServer(t, nil)

	second := NewServer(DefaultServerConfig(srv.SocketPath()), nil, logging.Discard())
	assert.ErrorIs(t, second.Start(), ErrAlreadyRunning)
}

func TestServerStopRemovesSocket(t *testing.T) {
	srv := NewServer(DefaultServerConfig(socketPath(t)), nil, logging.Discard())
	require.NoError(t, srv.Start())
	c := dial(t, srv)
	require.NoError(t, c.Ping(context.Background()))

	require.NoError(t, srv.Stop())
	_, err := os.Stat(srv.SocketPath())
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, srv.Stop())

	_, err = Dial(srv.SocketPath(), time.Second)
	assert.ErrorIs(t, err, ErrDaemonNotRunning)
}

func TestServerReplacesStaleSocket(t *testing.T) {
	path := socketPath(t)
	first := NewServer(DefaultServerConfig(path), nil, logging.Discard())
	require.NoError(t, first.Start())
	// Simulate a crash: close the listener but leave the file.
	first.listener.(*net.UnixListener).SetUnlinkOnClose(false)
	first.listener.Close()
	first.wg.Wait()

	second := NewServer(DefaultServerConfig(path), nil, logging.Discard())
	require.NoError(t, second.Start())
	t.Cleanup(func() { second.Stop() })
	c := dial(t, second)
	assert.NoError(t, c.Ping(context.Background()))
}

func TestCleanupSocket(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, CleanupSocket(filepath.Join(dir, "missing.sock")))

	regular := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(regular, nil, 0600))
	assert.ErrorContains(t, CleanupSocket(regular), "not a socket")
}
