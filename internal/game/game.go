// Package game implements the Game singleton: the directory of connections
// (pending and registered), identity assignment, registration, and
// ownership of the single default Room (spec.md §4.3).
package game

import (
	"log"

	"github.com/google/uuid"

	"github.com/Androix777/kanjilab-server/internal/room"
	"github.com/Androix777/kanjilab-server/internal/wire"
)

// ClientSession is the handle Game uses to reach a connection: send it wire
// envelopes, read its identity, and tell it which Room it has joined.
// Session implements this implicitly.
type ClientSession interface {
	ID() uuid.UUID
	Send(env wire.Envelope)
	SetRoom(r *room.Room)
}

type registeredEntry struct {
	session ClientSession
	info    wire.ClientInfo
}

// Game is a single-goroutine actor, same discipline as Room: all state below
// is touched only from the goroutine running Run.
type Game struct {
	mailbox *actorMailbox
	room    *room.Room

	pending    map[uuid.UUID]ClientSession
	registered map[uuid.UUID]*registeredEntry
}

// New creates the Game singleton and its single default Room.
func New() *Game {
	g := &Game{
		mailbox:    newActorMailbox(256),
		pending:    make(map[uuid.UUID]ClientSession),
		registered: make(map[uuid.UUID]*registeredEntry),
	}
	g.room = room.New(g)
	return g
}

// Room returns the single default Room this Game owns.
func (g *Game) Room() *room.Room {
	return g.room
}

// Run processes the mailbox until it is closed. Call once, in its own
// goroutine, alongside Room.Run in its own.
func (g *Game) Run() {
	for msg := range g.mailbox.Receive() {
		g.handle(msg)
	}
}

func (g *Game) handle(msg gameMsg) {
	switch m := msg.(type) {
	case admitPendingMsg:
		g.handleAdmitPending(m)
	case registerClientMsg:
		g.handleRegisterClient(m)
	case removeClientMsg:
		g.handleRemoveClient(m)
	case getClientsInfoMsg:
		g.handleGetClientsInfo(m)
	default:
		log.Printf("game: unhandled message type %T", msg)
	}
}

// AdmitPending inserts a freshly accepted connection into the pending
// directory. Called once per connection right after its Session and
// Transport have been constructed and wired (the Go realization of
// NewClient's directory-insertion step; handshake and actor construction
// happen in internal/server, which is the only package that can see both
// session and transport concrete types without an import cycle — see
// DESIGN.md).
func (g *Game) AdmitPending(id uuid.UUID, session ClientSession) {
	g.mailbox.Tell(admitPendingMsg{ID: id, Session: session})
}

// RegisterClientRequest forwards a registration request from Session.
func (g *Game) RegisterClientRequest(session ClientSession, name, pubKey string, correlationID uuid.UUID) {
	g.mailbox.Tell(registerClientMsg{Session: session, Name: name, PubKey: pubKey, CorrelationID: correlationID})
}

// RemoveClient tells Game a session has died; it is dropped from whichever
// directory (pending or registered) it currently occupies.
func (g *Game) RemoveClient(id uuid.UUID) {
	g.mailbox.Tell(removeClientMsg{ID: id})
}

// GetClientsInfo is an ask: it blocks the caller (typically Room, running on
// its own goroutine) until Game's goroutine has produced the answer.
func (g *Game) GetClientsInfo(ids []uuid.UUID) []wire.ClientInfo {
	reply := make(chan []wire.ClientInfo, 1)
	g.mailbox.Tell(getClientsInfoMsg{IDs: ids, Reply: reply})
	return <-reply
}

func (g *Game) handleAdmitPending(m admitPendingMsg) {
	g.pending[m.ID] = m.Session
}

func (g *Game) handleRegisterClient(m registerClientMsg) {
	id := m.Session.ID()
	if _, ok := g.pending[id]; !ok {
		log.Printf("game: register request from unknown pending session %s", id)
		return
	}
	delete(g.pending, id)

	entry := &registeredEntry{
		session: m.Session,
		info:    wire.ClientInfo{ID: id, Key: m.PubKey, Name: m.Name},
	}
	g.registered[id] = entry

	m.Session.SetRoom(g.room)
	g.room.AddClient(id, m.Session)

	m.Session.Send(envelope(wire.OutRespClientRegistered, m.CorrelationID, wire.ClientRegisteredPayload{
		ID:           id,
		GameSettings: wire.GameSettings{},
	}))
}

func (g *Game) handleRemoveClient(m removeClientMsg) {
	if _, ok := g.pending[m.ID]; ok {
		delete(g.pending, m.ID)
		return
	}
	delete(g.registered, m.ID)
}

func (g *Game) handleGetClientsInfo(m getClientsInfoMsg) {
	out := make([]wire.ClientInfo, 0, len(m.IDs))
	for _, id := range m.IDs {
		entry, ok := g.registered[id]
		if !ok {
			continue
		}
		out = append(out, entry.info)
	}
	m.Reply <- out
}

func envelope(msgType wire.MessageType, correlationID uuid.UUID, payload any) wire.Envelope {
	env, err := wire.New(msgType, correlationID, payload)
	if err != nil {
		log.Printf("game: failed to build %s envelope: %v", msgType, err)
	}
	return env
}
