// Package room implements the Room coordinator: membership with admin
// election, settings propagation, chat, and the round state machine
// (spec.md §4.4 — the hardest subsystem).
package room

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Androix777/kanjilab-server/internal/pending"
	"github.com/Androix777/kanjilab-server/internal/wire"
)

// ClientSession is the handle Room uses to reach a member: send it wire
// envelopes and read its stable identity. Session implements this
// implicitly.
type ClientSession interface {
	ID() uuid.UUID
	Send(env wire.Envelope)
}

// ClientDirectory is what Room needs from Game: the {key, name} lookup for a
// newly-added member. Game implements this implicitly; it is injected at
// construction so this package never imports game (see DESIGN.md).
type ClientDirectory interface {
	GetClientsInfo(ids []uuid.UUID) []wire.ClientInfo
}

type member struct {
	session ClientSession
	isAdmin bool
}

// Room is a single-goroutine actor: all state below is touched only from
// the goroutine running Run, so none of it needs a mutex.
type Room struct {
	directory ClientDirectory
	mailbox   *actorMailbox

	members      map[uuid.UUID]*member
	memberOrder  []uuid.UUID // insertion order, for "first in, earliest still-present" admin election
	gameSettings wire.GameSettings

	isGameRunning   bool
	currentQuestion wire.QuestionInfo
	hasQuestion     bool
	currentAnswers  []wire.AnswerInfo
	answeredBy      map[uuid.UUID]bool
	roundTicket     *uuid.UUID
	roundStart      time.Time
	roundsPlayed    uint64

	tracker *pending.Tracker
}

// New creates a Room. directory is Game's client-info lookup.
func New(directory ClientDirectory) *Room {
	r := &Room{
		directory:  directory,
		mailbox:    newActorMailbox(256),
		members:    make(map[uuid.UUID]*member),
		answeredBy: make(map[uuid.UUID]bool),
	}
	r.tracker = pending.New(func(id uuid.UUID) {
		r.mailbox.TrySend(timeoutMsg{ID: id})
	})
	return r
}

// Run processes the mailbox until it is closed. Call once, in its own
// goroutine.
func (r *Room) Run() {
	for msg := range r.mailbox.Receive() {
		r.handle(msg)
	}
}

func (r *Room) handle(msg roomMsg) {
	switch m := msg.(type) {
	case addClientMsg:
		r.handleAddClient(m)
	case removeClientMsg:
		r.handleRemoveClient(m)
	case setGameSettingsMsg:
		r.handleSetGameSettings(m)
	case sendChatMsg:
		r.handleSendChat(m)
	case clientListMsg:
		r.handleClientList(m)
	case startGameMsg:
		r.handleStartGame(m)
	case stopGameMsg:
		r.handleStopGame(m)
	case sendAnswerMsg:
		r.handleSendAnswer(m)
	case questionResponseMsg:
		r.handleQuestionResponse(m)
	case timeoutMsg:
		r.handleTimeout(m)
	default:
		log.Printf("room: unhandled message type %T", msg)
	}
}

// --- tells into the Room's mailbox, called from any goroutine ---

func (r *Room) AddClient(id uuid.UUID, session ClientSession) {
	r.mailbox.Tell(addClientMsg{ID: id, Session: session})
}

func (r *Room) RemoveClient(id uuid.UUID) {
	r.mailbox.Tell(removeClientMsg{ID: id})
}

func (r *Room) SetGameSettings(sender ClientSession, correlationID uuid.UUID, settings wire.GameSettings) {
	r.mailbox.Tell(setGameSettingsMsg{Sender: sender, CorrelationID: correlationID, Settings: settings})
}

func (r *Room) SendChat(sender ClientSession, correlationID uuid.UUID, message string) {
	r.mailbox.Tell(sendChatMsg{Sender: sender, CorrelationID: correlationID, Message: message})
}

func (r *Room) ClientList(sender ClientSession, correlationID uuid.UUID) {
	r.mailbox.Tell(clientListMsg{Sender: sender, CorrelationID: correlationID})
}

func (r *Room) StartGame(sender ClientSession, correlationID uuid.UUID, settings wire.GameSettings) {
	r.mailbox.Tell(startGameMsg{Sender: sender, CorrelationID: correlationID, Settings: settings})
}

func (r *Room) StopGame(sender ClientSession, correlationID uuid.UUID) {
	r.mailbox.Tell(stopGameMsg{Sender: sender, CorrelationID: correlationID})
}

func (r *Room) SendAnswer(sender ClientSession, correlationID uuid.UUID, answer string) {
	r.mailbox.Tell(sendAnswerMsg{Sender: sender, CorrelationID: correlationID, Answer: answer})
}

func (r *Room) QuestionResponse(correlationID uuid.UUID, question wire.QuestionInfo, questionSVG string) {
	r.mailbox.Tell(questionResponseMsg{CorrelationID: correlationID, Question: question, QuestionSVG: questionSVG})
}

// --- handlers, run only on the Room goroutine ---

func (r *Room) handleAddClient(m addClientMsg) {
	isAdmin := len(r.members) == 0
	r.members[m.ID] = &member{session: m.Session, isAdmin: isAdmin}
	r.memberOrder = append(r.memberOrder, m.ID)

	infos := r.directory.GetClientsInfo([]uuid.UUID{m.ID})
	var info wire.ClientInfo
	if len(infos) == 1 {
		info = infos[0]
	} else {
		info = wire.ClientInfo{ID: m.ID}
	}
	info.IsAdmin = isAdmin

	r.broadcast(wire.OutNotifClientRegistered, wire.ClientRegisteredNotification{Client: info})

	if isAdmin {
		r.broadcast(wire.OutNotifAdminMade, wire.AdminMadeNotification{ID: m.ID})
	} else {
		r.broadcast(wire.OutNotifGameSettingsChanged, wire.GameSettingsChangedNotification{GameSettings: r.gameSettings})
	}
}

func (r *Room) handleRemoveClient(m removeClientMsg) {
	dep, ok := r.members[m.ID]
	if !ok {
		return
	}
	delete(r.members, m.ID)
	r.removeFromOrder(m.ID)
	r.broadcast(wire.OutNotifClientDisconnected, wire.ClientDisconnectedNotification{ID: m.ID})

	if dep.isAdmin || !r.hasAdmin() {
		r.electAdmin()
	}
}

func (r *Room) removeFromOrder(id uuid.UUID) {
	for i, mid := range r.memberOrder {
		if mid == id {
			r.memberOrder = append(r.memberOrder[:i], r.memberOrder[i+1:]...)
			return
		}
	}
}

func (r *Room) hasAdmin() bool {
	for _, m := range r.members {
		if m.isAdmin {
			return true
		}
	}
	return false
}

// electAdmin promotes the first remaining member in join order ("first in,
// earliest still-present"). No-op if the room is empty.
func (r *Room) electAdmin() {
	for _, id := range r.memberOrder {
		m, ok := r.members[id]
		if !ok {
			continue
		}
		m.isAdmin = true
		r.broadcast(wire.OutNotifAdminMade, wire.AdminMadeNotification{ID: id})
		return
	}
}

func (r *Room) handleSetGameSettings(m setGameSettingsMsg) {
	mem, ok := r.members[m.Sender.ID()]
	if !ok || !mem.isAdmin {
		r.reply(m.Sender, m.CorrelationID, wire.StatusNotAdmin)
		return
	}
	r.gameSettings = m.Settings
	r.reply(m.Sender, m.CorrelationID, wire.StatusSuccess)
	r.broadcast(wire.OutNotifGameSettingsChanged, wire.GameSettingsChangedNotification{GameSettings: r.gameSettings})
}

func (r *Room) handleSendChat(m sendChatMsg) {
	r.reply(m.Sender, m.CorrelationID, wire.StatusSuccess)
	r.broadcast(wire.OutNotifChatSent, wire.ChatSentNotification{ID: m.Sender.ID(), Message: m.Message})
}

func (r *Room) handleClientList(m clientListMsg) {
	ids := make([]uuid.UUID, 0, len(r.members))
	for _, id := range r.memberOrder {
		if _, ok := r.members[id]; ok {
			ids = append(ids, id)
		}
	}
	infos := r.directory.GetClientsInfo(ids)
	for i := range infos {
		if mem, ok := r.members[infos[i].ID]; ok {
			infos[i].IsAdmin = mem.isAdmin
		}
	}
	env := r.envelope(wire.OutRespClientList, m.CorrelationID, wire.ClientListReplyPayload{Clients: infos})
	m.Sender.Send(env)
}

func (r *Room) adminID() (uuid.UUID, bool) {
	for id, m := range r.members {
		if m.isAdmin {
			return id, true
		}
	}
	return uuid.Nil, false
}

// --- shared outbound helpers ---

func (r *Room) reply(sender ClientSession, correlationID uuid.UUID, status wire.Status) {
	sender.Send(r.envelope(wire.OutRespStatus, correlationID, wire.StatusPayload{Status: status}))
}

func (r *Room) broadcast(msgType wire.MessageType, payload any) {
	// Sequential per-member fan-out, per spec.md §9: a slow client can stall
	// broadcast latency to others; this is the documented, accepted cost.
	for _, id := range r.memberOrder {
		mem, ok := r.members[id]
		if !ok {
			continue
		}
		mem.session.Send(r.envelope(msgType, uuid.New(), payload))
	}
}

func (r *Room) envelope(msgType wire.MessageType, correlationID uuid.UUID, payload any) wire.Envelope {
	env, err := wire.New(msgType, correlationID, payload)
	if err != nil {
		log.Printf("room: failed to build %s envelope: %v", msgType, err)
	}
	return env
}
