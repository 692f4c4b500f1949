package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Androix777/kanjilab-server/internal/wire"
)

func TestHelloWorldHandler(t *testing.T) {
	s := &Server{}
	server := httptest.NewServer(http.HandlerFunc(s.HelloWorldHandler))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"kanjilab-server"}`, string(body))
}

func TestHealthHandler(t *testing.T) {
	s := &Server{}
	server := httptest.NewServer(http.HandlerFunc(s.healthHandler))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"up"}`, string(body))
}

// setupTestServer wires a Server the way newServer does, minus the
// http.Server/ListenAndServe half, and serves it from an httptest.Server so
// tests can dial it with a real websocket connection.
func setupTestServer() (*Server, string, func()) {
	s, _ := newServer(0)

	server := httptest.NewServer(s.RegisterRoutes())
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/websocket"

	cleanup := func() {
		server.Close()
	}

	return s, url, cleanup
}

func sendEnvelope(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType wire.MessageType, corrID uuid.UUID, payload any) {
	t.Helper()
	data, err := wire.Encode(msgType, corrID, payload)
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
}

func readEnvelope(t *testing.T, ctx context.Context, conn *websocket.Conn) wire.Envelope {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	env, err := wire.Decode(data)
	require.NoError(t, err)
	return env
}

// TestWebSocketHandshake dials a real websocket connection against
// websocketHandler and exercises the IN_REQ_sendPublicKey step of the
// handshake, confirming the full Transport -> Session -> reply round trip.
func TestWebSocketHandshake(t *testing.T) {
	ctx := context.Background()
	_, url, cleanup := setupTestServer()
	defer cleanup()

	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	corrID := uuid.New()
	sendEnvelope(t, ctx, conn, wire.InReqSendPublicKey, corrID, wire.SendPublicKeyPayload{Key: "test-pubkey"})

	env := readEnvelope(t, ctx, conn)
	assert.Equal(t, wire.OutRespSignMessage, env.MessageType)
	assert.Equal(t, corrID, env.CorrelationID)

	var payload wire.SignMessagePayload
	require.NoError(t, env.DecodePayload(&payload))
	assert.NotEmpty(t, payload.Message, "server must hand back a challenge to sign")
}

func TestWebSocketInvalidJSON(t *testing.T) {
	ctx := context.Background()
	_, url, cleanup := setupTestServer()
	defer cleanup()

	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("not json")))

	// Bad JSON is logged and dropped, never closing the connection: a
	// subsequent well-formed request must still get a reply.
	corrID := uuid.New()
	sendEnvelope(t, ctx, conn, wire.InReqSendPublicKey, corrID, wire.SendPublicKeyPayload{Key: "test-pubkey"})

	env := readEnvelope(t, ctx, conn)
	assert.Equal(t, wire.OutRespSignMessage, env.MessageType)
	assert.Equal(t, corrID, env.CorrelationID)
}

// TestWebSocketRateLimiting confirms messages beyond the configured rate
// limit are silently dropped (no reply), and that requests are accepted again
// once the window has passed.
func TestWebSocketRateLimiting(t *testing.T) {
	ctx := context.Background()
	s, url, cleanup := setupTestServer()
	defer cleanup()

	s.rateLimiter = NewRateLimiter(2, time.Second)

	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	for i := 0; i < 2; i++ {
		corrID := uuid.New()
		sendEnvelope(t, ctx, conn, wire.InReqSendPublicKey, corrID, wire.SendPublicKeyPayload{Key: "k"})
		env := readEnvelope(t, ctx, conn)
		assert.Equal(t, wire.OutRespSignMessage, env.MessageType, "request %d should succeed", i+1)
	}

	// Third request within the window is dropped: assert by sending a fourth,
	// delayed request and observing it is the *next* envelope received, i.e.
	// the third never produced a reply of its own.
	droppedCorrID := uuid.New()
	sendEnvelope(t, ctx, conn, wire.InReqSendPublicKey, droppedCorrID, wire.SendPublicKeyPayload{Key: "k"})

	time.Sleep(1100 * time.Millisecond) // let the window reset

	nextCorrID := uuid.New()
	sendEnvelope(t, ctx, conn, wire.InReqSendPublicKey, nextCorrID, wire.SendPublicKeyPayload{Key: "k"})

	env := readEnvelope(t, ctx, conn)
	assert.Equal(t, wire.OutRespSignMessage, env.MessageType)
	assert.Equal(t, nextCorrID, env.CorrelationID, "the rate-limited request must never have produced a reply")
}

// TestWebSocketMultipleConnections confirms independent connections get
// independent Sessions and don't interfere with each other's handshakes.
func TestWebSocketMultipleConnections(t *testing.T) {
	ctx := context.Background()
	_, url, cleanup := setupTestServer()
	defer cleanup()

	const n = 4
	conns := make([]*websocket.Conn, n)
	for i := 0; i < n; i++ {
		conn, _, err := websocket.Dial(ctx, url, nil)
		require.NoError(t, err)
		conns[i] = conn
		defer conn.Close(websocket.StatusNormalClosure, "")
	}

	for i, conn := range conns {
		corrID := uuid.New()
		sendEnvelope(t, ctx, conn, wire.InReqSendPublicKey, corrID, wire.SendPublicKeyPayload{Key: "k"})
		env := readEnvelope(t, ctx, conn)
		assert.Equal(t, wire.OutRespSignMessage, env.MessageType, "connection %d", i)
		assert.Equal(t, corrID, env.CorrelationID, "connection %d", i)
	}
}
