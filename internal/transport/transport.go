// Package transport implements the per-connection Transport actor: bidirectional
// framing between the WebSocket text channel and typed wire.Envelope values
// (spec.md §4.1).
package transport

import (
	"context"
	"log"

	"github.com/coder/websocket"

	"github.com/Androix777/kanjilab-server/internal/wire"
)

// Receiver is what Transport delivers decoded inbound envelopes to. Session
// implements this implicitly; transport never imports the session package
// (see DESIGN.md).
type Receiver interface {
	Deliver(env wire.Envelope)
}

// state is Transport's externally-meaningful lifecycle (spec.md §4.1): only
// the transition into Finished matters outside the package, since it
// triggers Session teardown.
type state int

const (
	stateIdle state = iota
	stateStreaming
	stateFinished
)

// Transport owns the duplex text channel for one connection. The outbound
// path is sequential: Send/SendRaw are safe to call concurrently because the
// underlying websocket.Conn serializes writes internally, and spec.md §5
// requires outbound order to match send order for a given connection, which
// a direct synchronous write preserves.
type Transport struct {
	conn     *websocket.Conn
	receiver Receiver
	state    state
}

// New wires a Transport around an already-accepted websocket connection.
func New(conn *websocket.Conn, receiver Receiver) *Transport {
	return &Transport{conn: conn, receiver: receiver, state: stateIdle}
}

// Send serializes env and writes it as a text frame. Serialization failures
// are logged and dropped, never surfaced to the caller (spec.md §4.1).
func (t *Transport) Send(env wire.Envelope) {
	data, err := marshalEnvelope(env)
	if err != nil {
		log.Printf("transport: failed to marshal outbound %s: %v", env.MessageType, err)
		return
	}
	t.SendRaw(string(data))
}

// SendRaw writes text as-is.
func (t *Transport) SendRaw(text string) {
	if err := t.conn.Write(context.Background(), websocket.MessageText, []byte(text)); err != nil {
		log.Printf("transport: write failed: %v", err)
	}
}

// Run drives the inbound read loop until the stream ends or ctx is
// canceled, then tears the owning Session down. Call once, in its own
// goroutine.
func (t *Transport) Run(ctx context.Context, onFinished func()) {
	t.state = stateStreaming
	defer func() {
		t.state = stateFinished
		if onFinished != nil {
			onFinished()
		}
	}()

	for {
		msgType, data, err := t.conn.Read(ctx)
		if err != nil {
			// Stream end or IO error: kill the session (upward), per
			// spec.md §4.1 ("on stream end, kill the Session").
			return
		}
		if msgType != websocket.MessageText {
			continue // binary/ping/pong/close are handled by the library
		}

		env, err := wire.Decode(data)
		if err != nil {
			log.Printf("transport: dropping unparseable inbound message: %v", err)
			continue
		}
		t.receiver.Deliver(env)
	}
}

func marshalEnvelope(env wire.Envelope) ([]byte, error) {
	return wire.Encode(env.MessageType, env.CorrelationID, env.Payload)
}
