package game

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Androix777/kanjilab-server/internal/room"
	"github.com/Androix777/kanjilab-server/internal/wire"
)

type fakeSession struct {
	id   uuid.UUID
	sent chan wire.Envelope
	room *room.Room
}

func newFakeSession() *fakeSession {
	return &fakeSession{id: uuid.New(), sent: make(chan wire.Envelope, 16)}
}

func (f *fakeSession) ID() uuid.UUID          { return f.id }
func (f *fakeSession) Send(env wire.Envelope) { f.sent <- env }
func (f *fakeSession) SetRoom(r *room.Room)   { f.room = r }

func (f *fakeSession) next(t *testing.T) wire.Envelope {
	t.Helper()
	select {
	case env := <-f.sent:
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for envelope")
		return wire.Envelope{}
	}
}

func newTestGame() *Game {
	g := New()
	go g.Run()
	go g.Room().Run()
	return g
}

func TestRegisterClientRequest_UnknownPending_IsDropped(t *testing.T) {
	// Why: registration must be preceded by AdmitPending; a stray request for
	// an id Game never admitted is silently ignored, not a crash.
	g := newTestGame()
	sess := newFakeSession()

	g.RegisterClientRequest(sess, "Alice", "key", uuid.New())

	select {
	case env := <-sess.sent:
		t.Fatalf("unexpected reply for unregistered session: %+v", env)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRegisterClientRequest_MovesFromPendingToRegistered(t *testing.T) {
	g := newTestGame()
	sess := newFakeSession()
	corrID := uuid.New()

	g.AdmitPending(sess.id, sess)
	g.RegisterClientRequest(sess, "Alice", "key-123", corrID)

	env := sess.next(t)
	assert.Equal(t, wire.OutRespClientRegistered, env.MessageType)
	assert.Equal(t, corrID, env.CorrelationID)

	var payload wire.ClientRegisteredPayload
	require.NoError(t, env.DecodePayload(&payload))
	assert.Equal(t, sess.id, payload.ID)

	assert.NotNil(t, sess.room, "SetRoom must be called once registered")

	infos := g.GetClientsInfo([]uuid.UUID{sess.id})
	require.Len(t, infos, 1)
	assert.Equal(t, "Alice", infos[0].Name)
	assert.Equal(t, "key-123", infos[0].Key)
}

func TestGetClientsInfo_SkipsUnknownIDs(t *testing.T) {
	g := newTestGame()
	sess := newFakeSession()
	g.AdmitPending(sess.id, sess)
	g.RegisterClientRequest(sess, "Alice", "key", uuid.New())
	sess.next(t) // drain the clientRegistered response

	infos := g.GetClientsInfo([]uuid.UUID{sess.id, uuid.New()})
	assert.Len(t, infos, 1)
}

func TestRemoveClient_DropsFromPending(t *testing.T) {
	g := newTestGame()
	sess := newFakeSession()
	g.AdmitPending(sess.id, sess)

	g.RemoveClient(sess.id)

	// Now registering should be dropped as unknown, since the pending entry
	// is gone.
	g.RegisterClientRequest(sess, "Alice", "key", uuid.New())
	select {
	case env := <-sess.sent:
		t.Fatalf("unexpected reply after removal: %+v", env)
	case <-time.After(50 * time.Millisecond):
	}
}
