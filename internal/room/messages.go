package room

import (
	"github.com/google/uuid"

	"github.com/Androix777/kanjilab-server/internal/actor"
	"github.com/Androix777/kanjilab-server/internal/wire"
)

// roomMsg is the tagged union Room's mailbox carries. Handle's type switch
// covers every type below; Go does not check type switches for
// exhaustiveness, so a new message type missing from the switch compiles and
// reaches its default case, which logs it.
type roomMsg interface{ isRoomMsg() }

type actorMailbox = actor.Mailbox[roomMsg]

func newActorMailbox(size int) *actorMailbox {
	return actor.NewMailbox[roomMsg](size)
}

type addClientMsg struct {
	ID      uuid.UUID
	Session ClientSession
}

type removeClientMsg struct {
	ID uuid.UUID
}

type setGameSettingsMsg struct {
	Sender        ClientSession
	CorrelationID uuid.UUID
	Settings      wire.GameSettings
}

type sendChatMsg struct {
	Sender        ClientSession
	CorrelationID uuid.UUID
	Message       string
}

type clientListMsg struct {
	Sender        ClientSession
	CorrelationID uuid.UUID
}

type startGameMsg struct {
	Sender        ClientSession
	CorrelationID uuid.UUID
	Settings      wire.GameSettings
}

type stopGameMsg struct {
	Sender        ClientSession
	CorrelationID uuid.UUID
}

type sendAnswerMsg struct {
	Sender        ClientSession
	CorrelationID uuid.UUID
	Answer        string
}

type questionResponseMsg struct {
	CorrelationID uuid.UUID
	Question      wire.QuestionInfo
	QuestionSVG   string
}

type timeoutMsg struct {
	ID uuid.UUID
}

func (addClientMsg) isRoomMsg()         {}
func (removeClientMsg) isRoomMsg()      {}
func (setGameSettingsMsg) isRoomMsg()   {}
func (sendChatMsg) isRoomMsg()          {}
func (clientListMsg) isRoomMsg()        {}
func (startGameMsg) isRoomMsg()         {}
func (stopGameMsg) isRoomMsg()          {}
func (sendAnswerMsg) isRoomMsg()        {}
func (questionResponseMsg) isRoomMsg()  {}
func (timeoutMsg) isRoomMsg()           {}
