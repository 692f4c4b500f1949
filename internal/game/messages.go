package game

import (
	"github.com/google/uuid"

	"github.com/Androix777/kanjilab-server/internal/actor"
	"github.com/Androix777/kanjilab-server/internal/wire"
)

// gameMsg is the tagged union Game's mailbox carries.
type gameMsg interface{ isGameMsg() }

type actorMailbox = actor.Mailbox[gameMsg]

func newActorMailbox(size int) *actorMailbox {
	return actor.NewMailbox[gameMsg](size)
}

type admitPendingMsg struct {
	ID      uuid.UUID
	Session ClientSession
}

type registerClientMsg struct {
	Session       ClientSession
	Name          string
	PubKey        string
	CorrelationID uuid.UUID
}

type removeClientMsg struct {
	ID uuid.UUID
}

type getClientsInfoMsg struct {
	IDs   []uuid.UUID
	Reply chan []wire.ClientInfo
}

func (admitPendingMsg) isGameMsg()    {}
func (registerClientMsg) isGameMsg()  {}
func (removeClientMsg) isGameMsg()    {}
func (getClientsInfoMsg) isGameMsg()  {}
