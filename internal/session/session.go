// Package session implements the per-connection Session actor: the
// handshake/auth state machine and message router between Transport, Game,
// and Room (spec.md §4.2).
package session

import (
	"log"

	"github.com/google/uuid"

	"github.com/Androix777/kanjilab-server/internal/actor"
	"github.com/Androix777/kanjilab-server/internal/game"
	"github.com/Androix777/kanjilab-server/internal/room"
	"github.com/Androix777/kanjilab-server/internal/wire"
)

// OutboundSender is what Session needs from its Transport. Transport
// implements this implicitly; session never imports the transport package
// (it is handed a value satisfying this interface at construction time by
// whichever package wires the two together).
type OutboundSender interface {
	Send(env wire.Envelope)
	SendRaw(text string)
}

// Session holds per-connection handshake state and routes decoded envelopes
// either internally (handshake), to the Game (registration), or to the Room
// (gameplay). It is a single-goroutine actor: Run processes its mailbox
// strictly sequentially.
type Session struct {
	id        uuid.UUID
	inbox     *actor.Mailbox[wire.Envelope]
	transport OutboundSender
	verifier  Verifier
	game      *game.Game
	room      *room.Room

	pubKey    string
	challenge string
	verified  bool
}

// New creates a Session. The transport is attached separately via
// AttachTransport once it has been constructed (transport needs a Receiver,
// which Session also is, creating a two-step wiring dance the caller — the
// server package — performs; see DESIGN.md).
func New(id uuid.UUID, g *game.Game, verifier Verifier) *Session {
	return &Session{
		id:       id,
		inbox:    actor.NewMailbox[wire.Envelope](64),
		verifier: verifier,
		game:     g,
	}
}

func (s *Session) AttachTransport(t OutboundSender) {
	s.transport = t
}

// ID returns the connection's stable identity.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Send implements game.ClientSession / room.ClientSession: forward an
// outbound envelope to this connection's Transport.
func (s *Session) Send(env wire.Envelope) {
	if s.transport == nil {
		return
	}
	s.transport.Send(env)
}

// SetRoom implements game.ClientSession: record the Room this session has
// joined so subsequent room-scoped requests can be forwarded.
func (s *Session) SetRoom(r *room.Room) {
	s.room = r
}

// Deliver is called by Transport with each successfully decoded inbound
// envelope. Non-blocking: a full inbox drops the message with a warning
// (spec.md §5 backpressure rule).
func (s *Session) Deliver(env wire.Envelope) {
	if !s.inbox.TrySend(env) {
		log.Printf("session %s: mailbox full, dropping %s", s.id, env.MessageType)
	}
}

// Run processes the inbox until it is closed by Kill. Call once, in its own
// goroutine.
func (s *Session) Run() {
	for env := range s.inbox.Receive() {
		s.handle(env)
	}
}

// Kill tears the session down: it stops processing, and — functionally
// standing in for actor "link death" (Go has no built-in supervisor
// primitive; see DESIGN.md) — tells Game and, if joined, Room that this
// client is gone.
func (s *Session) Kill() {
	s.game.RemoveClient(s.id)
	if s.room != nil {
		s.room.RemoveClient(s.id)
	}
	s.inbox.Close()
}

func (s *Session) handle(env wire.Envelope) {
	switch env.MessageType {
	case wire.InReqSendPublicKey:
		s.handleSendPublicKey(env)
	case wire.InReqVerifySignature:
		s.handleVerifySignature(env)
	case wire.InReqRegisterClient:
		s.handleRegisterClient(env)
	case wire.InReqClientList:
		s.forwardToRoom(env, func(r *room.Room, corrID uuid.UUID) {
			r.ClientList(s, corrID)
		})
	case wire.InReqSendGameSettings:
		s.handleSendGameSettings(env)
	case wire.InReqSendChat:
		s.handleSendChat(env)
	case wire.InReqStartGame:
		s.handleStartGame(env)
	case wire.InReqStopGame:
		s.forwardToRoom(env, func(r *room.Room, corrID uuid.UUID) {
			r.StopGame(s, corrID)
		})
	case wire.InReqSendAnswer:
		s.handleSendAnswer(env)
	case wire.InRespQuestion:
		s.handleQuestionResponse(env)
	case wire.InReqMakeAdmin:
		// Declared in the wire tag set (spec.md §6) but given no handler
		// semantics in spec.md §4.2/§4.4: admin transfer happens only via
		// automatic election. Logged and dropped rather than inventing
		// unspecified behavior (see DESIGN.md Open Question decisions).
		log.Printf("session %s: IN_REQ_makeAdmin has no defined handler, dropping", s.id)
	default:
		log.Printf("session %s: unknown message type %q, dropping", s.id, env.MessageType)
	}
}

func (s *Session) handleSendPublicKey(env wire.Envelope) {
	var payload wire.SendPublicKeyPayload
	if err := env.DecodePayload(&payload); err != nil {
		log.Printf("session %s: bad sendPublicKey payload: %v", s.id, err)
		return
	}

	alreadyVerified := s.verified
	challenge := uuid.New().String()

	// Overwritten unconditionally, even if already verified: this asymmetry
	// is preserved verbatim per spec.md §9.
	s.pubKey = payload.Key
	s.challenge = challenge

	s.reply(env.CorrelationID, wire.OutRespSignMessage, wire.SignMessagePayload{Message: challenge})
	if alreadyVerified {
		s.replyStatus(env.CorrelationID, wire.StatusSignatureAlreadyVerified)
	}
}

func (s *Session) handleVerifySignature(env wire.Envelope) {
	var payload wire.VerifySignaturePayload
	if err := env.DecodePayload(&payload); err != nil {
		log.Printf("session %s: bad verifysignature payload: %v", s.id, err)
		return
	}

	if s.challenge == "" {
		s.replyStatus(env.CorrelationID, wire.StatusNoStoredChallenges)
		return
	}
	if s.pubKey == "" {
		s.replyStatus(env.CorrelationID, wire.StatusNoPublicKey)
		return
	}

	ok, err := s.verifier.Verify(s.challenge, payload.Signature, s.pubKey)
	if err != nil {
		log.Printf("session %s: verifier error: %v", s.id, err)
	}
	s.verified = s.verified || ok

	if ok {
		s.replyStatus(env.CorrelationID, wire.StatusSuccess)
	} else {
		s.replyStatus(env.CorrelationID, wire.StatusError)
	}
}

func (s *Session) handleRegisterClient(env wire.Envelope) {
	if !s.verified {
		s.replyStatus(env.CorrelationID, wire.StatusError)
		return
	}
	var payload wire.RegisterClientPayload
	if err := env.DecodePayload(&payload); err != nil {
		log.Printf("session %s: bad registerClient payload: %v", s.id, err)
		return
	}
	s.game.RegisterClientRequest(s, payload.Name, s.pubKey, env.CorrelationID)
}

func (s *Session) handleSendGameSettings(env wire.Envelope) {
	var payload wire.SendGameSettingsPayload
	if err := env.DecodePayload(&payload); err != nil {
		log.Printf("session %s: bad sendGameSettings payload: %v", s.id, err)
		return
	}
	s.forwardToRoom(env, func(r *room.Room, corrID uuid.UUID) {
		r.SetGameSettings(s, corrID, payload.GameSettings)
	})
}

func (s *Session) handleSendChat(env wire.Envelope) {
	var payload wire.SendChatPayload
	if err := env.DecodePayload(&payload); err != nil {
		log.Printf("session %s: bad sendChat payload: %v", s.id, err)
		return
	}
	s.forwardToRoom(env, func(r *room.Room, corrID uuid.UUID) {
		r.SendChat(s, corrID, payload.Message)
	})
}

func (s *Session) handleStartGame(env wire.Envelope) {
	var payload wire.StartGamePayload
	if err := env.DecodePayload(&payload); err != nil {
		log.Printf("session %s: bad startGame payload: %v", s.id, err)
		return
	}
	s.forwardToRoom(env, func(r *room.Room, corrID uuid.UUID) {
		r.StartGame(s, corrID, payload.GameSettings)
	})
}

func (s *Session) handleSendAnswer(env wire.Envelope) {
	var payload wire.SendAnswerPayload
	if err := env.DecodePayload(&payload); err != nil {
		log.Printf("session %s: bad sendAnswer payload: %v", s.id, err)
		return
	}
	s.forwardToRoom(env, func(r *room.Room, corrID uuid.UUID) {
		r.SendAnswer(s, corrID, payload.Answer)
	})
}

func (s *Session) handleQuestionResponse(env wire.Envelope) {
	if s.room == nil {
		return
	}
	var payload wire.QuestionResponsePayload
	if err := env.DecodePayload(&payload); err != nil {
		log.Printf("session %s: bad question response payload: %v", s.id, err)
		return
	}
	s.room.QuestionResponse(env.CorrelationID, payload.Question, payload.QuestionSVG)
}

// forwardToRoom enforces the "requires a current Room reference" precondition
// shared by every room-scoped request (spec.md §4.2).
func (s *Session) forwardToRoom(env wire.Envelope, fn func(r *room.Room, corrID uuid.UUID)) {
	if s.room == nil {
		s.replyStatus(env.CorrelationID, wire.StatusNoRoom)
		return
	}
	fn(s.room, env.CorrelationID)
}

func (s *Session) reply(correlationID uuid.UUID, msgType wire.MessageType, payload any) {
	env, err := wire.New(msgType, correlationID, payload)
	if err != nil {
		log.Printf("session %s: failed to build %s reply: %v", s.id, msgType, err)
		return
	}
	s.Send(env)
}

func (s *Session) replyStatus(correlationID uuid.UUID, status wire.Status) {
	s.reply(correlationID, wire.OutRespStatus, wire.StatusPayload{Status: status})
}
