package room

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Androix777/kanjilab-server/internal/pending"
	"github.com/Androix777/kanjilab-server/internal/wire"
)

func (r *Room) handleStartGame(m startGameMsg) {
	mem, ok := r.members[m.Sender.ID()]
	if !ok || !mem.isAdmin {
		r.reply(m.Sender, m.CorrelationID, wire.StatusNotAdmin)
		return
	}
	if r.isGameRunning {
		r.reply(m.Sender, m.CorrelationID, wire.StatusAlreadyRunning)
		return
	}

	r.clearRound()
	r.gameSettings = m.Settings
	r.isGameRunning = true
	r.roundsPlayed = 0

	r.reply(m.Sender, m.CorrelationID, wire.StatusSuccess)
	r.broadcast(wire.OutNotifGameStarted, wire.GameStartedNotification{GameSettings: r.gameSettings})
	r.requestQuestion()
}

// requestQuestion asks the current admin for a question and arms the 5 s
// admin-question timeout. Per spec.md §9, a fired timeout only warns: it
// does not retry, advance, or cancel the round. This is preserved verbatim,
// including the resulting possibility of the room hanging in
// AwaitingQuestion forever.
func (r *Room) requestQuestion() {
	adminID, ok := r.adminID()
	if !ok {
		log.Printf("room: no admin present to request a question from")
		r.isGameRunning = false
		return
	}
	admin := r.members[adminID]

	correlationID := uuid.New()
	admin.session.Send(r.envelope(wire.OutReqQuestion, correlationID, wire.QuestionRequestPayload{GameSettings: r.gameSettings}))
	r.tracker.AddWithID(correlationID, pending.KindQuestion, adminID, 5*time.Second)
}

func (r *Room) handleQuestionResponse(m questionResponseMsg) {
	meta, ok := r.tracker.Take(m.CorrelationID)
	if !ok || meta.Kind != pending.KindQuestion {
		log.Printf("room: dropping mismatched or late question response %s", m.CorrelationID)
		return
	}
	if !r.isGameRunning {
		return
	}

	r.currentQuestion = m.Question
	r.hasQuestion = true
	r.currentAnswers = nil
	r.answeredBy = make(map[uuid.UUID]bool)

	r.broadcast(wire.OutNotifQuestion, wire.QuestionNotification{QuestionSVG: m.QuestionSVG})

	r.roundStart = time.Now()
	ticket := r.tracker.Add(pending.KindRound, uuid.Nil, time.Duration(r.gameSettings.RoundDuration)*time.Second)
	r.roundTicket = &ticket
}

func (r *Room) handleSendAnswer(m sendAnswerMsg) {
	if !r.isGameRunning || !r.hasQuestion {
		r.reply(m.Sender, m.CorrelationID, wire.StatusNoActiveRound)
		return
	}
	id := m.Sender.ID()
	if r.answeredBy[id] {
		r.reply(m.Sender, m.CorrelationID, wire.StatusAlreadyAnswered)
		return
	}

	isCorrect := false
	for _, reading := range r.currentQuestion.WordInfo.Readings {
		if reading.Reading == m.Answer {
			isCorrect = true
			break
		}
	}
	answerTime := uint64(time.Since(r.roundStart) / time.Millisecond)

	r.answeredBy[id] = true
	r.currentAnswers = append(r.currentAnswers, wire.AnswerInfo{
		ID:         id,
		Answer:     m.Answer,
		IsCorrect:  isCorrect,
		AnswerTime: answerTime,
	})

	r.reply(m.Sender, m.CorrelationID, wire.StatusSuccess)
	r.broadcast(wire.OutNotifClientAnswered, wire.ClientAnsweredNotification{ID: id})

	if len(r.currentAnswers) == len(r.members) {
		if r.roundTicket != nil {
			r.tracker.Cancel(*r.roundTicket)
			r.roundTicket = nil
		}
		r.finishRound()
	}
}

func (r *Room) handleStopGame(m stopGameMsg) {
	mem, ok := r.members[m.Sender.ID()]
	if !ok || !mem.isAdmin {
		r.reply(m.Sender, m.CorrelationID, wire.StatusNotAdmin)
		return
	}
	if !r.isGameRunning {
		r.reply(m.Sender, m.CorrelationID, wire.StatusNotRunning)
		return
	}

	if r.roundTicket != nil {
		r.tracker.Cancel(*r.roundTicket)
		r.roundTicket = nil
	}
	answers := r.fillMissingAnswers()
	question := r.currentQuestion

	r.reply(m.Sender, m.CorrelationID, wire.StatusSuccess)
	r.broadcast(wire.OutNotifGameStopped, wire.GameStoppedNotification{Question: question, Answers: answers})

	r.clearRound()
	r.isGameRunning = false
	r.roundsPlayed = 0 // deliberate per spec.md §9: not preserved across StopGame
}

func (r *Room) handleTimeout(m timeoutMsg) {
	meta, ok := r.tracker.Take(m.ID)
	if !ok {
		return // late or already-canceled: no-op, per spec.md §8
	}
	switch meta.Kind {
	case pending.KindQuestion:
		log.Printf("room: admin %s didn't provide a question in time", meta.AdminID)
		// Intentionally no retry/advance/cancel: the room stays in
		// AwaitingQuestion indefinitely. Preserved verbatim per spec.md §9.
	case pending.KindRound:
		r.roundTicket = nil
		r.finishRound()
	}
}

// finishRound is the finish-round procedure from spec.md §4.4. It is
// idempotent: a no-op if the game is not running.
func (r *Room) finishRound() {
	if !r.isGameRunning {
		return
	}

	answers := r.fillMissingAnswers()
	question := r.currentQuestion

	r.broadcast(wire.OutNotifRoundEnded, wire.RoundEndedNotification{Question: question, Answers: answers})

	r.clearRound()
	r.roundsPlayed++

	if r.roundsPlayed >= r.gameSettings.RoundsCount {
		r.isGameRunning = false
		r.broadcast(wire.OutNotifGameStopped, wire.GameStoppedNotification{
			Question: wire.QuestionInfo{},
			Answers:  []wire.AnswerInfo{},
		})
		return
	}

	r.requestQuestion()
}

// fillMissingAnswers returns currentAnswers plus a zero-value entry for
// every member who has not yet answered, in member join order.
func (r *Room) fillMissingAnswers() []wire.AnswerInfo {
	answers := append([]wire.AnswerInfo(nil), r.currentAnswers...)
	missingTime := r.gameSettings.RoundDuration * 1000
	for _, id := range r.memberOrder {
		if _, ok := r.members[id]; !ok {
			continue
		}
		if r.answeredBy[id] {
			continue
		}
		answers = append(answers, wire.AnswerInfo{
			ID:         id,
			Answer:     "",
			IsCorrect:  false,
			AnswerTime: missingTime,
		})
	}
	return answers
}

func (r *Room) clearRound() {
	r.hasQuestion = false
	r.currentQuestion = wire.QuestionInfo{}
	r.currentAnswers = nil
	r.answeredBy = make(map[uuid.UUID]bool)
	r.roundTicket = nil
	r.roundStart = time.Time{}
}
