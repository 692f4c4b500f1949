// Package wire defines the JSON envelope and payload types exchanged between
// the server and connected clients over the WebSocket text channel.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// MessageType is the closed tag set framing every envelope. The wire
// vocabulary is fixed; adding a tag means adding a constant here and a case
// in every component's dispatch switch.
type MessageType string

const (
	// Inbound requests (client -> server).
	InReqSendPublicKey    MessageType = "IN_REQ_sendPublicKey"
	InReqVerifySignature  MessageType = "IN_REQ_verifysignature" // lowercase s is intentional, see DESIGN.md
	InReqRegisterClient   MessageType = "IN_REQ_registerClient"
	InReqSendChat         MessageType = "IN_REQ_sendChat"
	InReqMakeAdmin        MessageType = "IN_REQ_makeAdmin"
	InReqClientList       MessageType = "IN_REQ_clientList"
	InReqStartGame        MessageType = "IN_REQ_startGame"
	InReqStopGame         MessageType = "IN_REQ_stopGame"
	InReqSendAnswer       MessageType = "IN_REQ_sendAnswer"
	InReqSendGameSettings MessageType = "IN_REQ_sendGameSettings"

	// Outbound replies (server -> client, answering an IN_REQ_*).
	OutRespClientRegistered MessageType = "OUT_RESP_clientRegistered"
	OutRespStatus           MessageType = "OUT_RESP_status"
	OutRespClientList       MessageType = "OUT_RESP_clientList"
	OutRespSignMessage      MessageType = "OUT_RESP_signMessage"

	// Outbound requests (server -> client), currently a single member.
	OutReqQuestion MessageType = "OUT_REQ_question"

	// Inbound replies (client -> server, answering an OUT_REQ_*).
	InRespQuestion MessageType = "IN_RESP_question"

	// Outbound notifications (server -> client, unsolicited).
	OutNotifClientRegistered    MessageType = "OUT_NOTIF_clientRegistered"
	OutNotifClientDisconnected  MessageType = "OUT_NOTIF_clientDisconnected"
	OutNotifChatSent            MessageType = "OUT_NOTIF_chatSent"
	OutNotifAdminMade           MessageType = "OUT_NOTIF_adminMade"
	OutNotifGameStarted         MessageType = "OUT_NOTIF_gameStarted"
	OutNotifGameStopped         MessageType = "OUT_NOTIF_gameStopped"
	OutNotifQuestion            MessageType = "OUT_NOTIF_question"
	OutNotifClientAnswered      MessageType = "OUT_NOTIF_clientAnswered"
	OutNotifRoundEnded          MessageType = "OUT_NOTIF_roundEnded"
	OutNotifGameSettingsChanged MessageType = "OUT_NOTIF_gameSettingsChanged"
)

// Envelope is the outer `{messageType, correlationId, payload}` frame. The
// payload is kept as raw JSON so each component decodes it only once it
// knows, from messageType, what shape to expect.
type Envelope struct {
	MessageType   MessageType     `json:"messageType"`
	CorrelationID uuid.UUID       `json:"correlationId"`
	Payload       json.RawMessage `json:"payload"`
}

// Decode parses a raw text frame into an Envelope. Callers treat a decode
// error as a protocol-level failure: log and drop, never close the
// connection (spec.md §7).
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

// New builds an Envelope carrying payload, marshaled into its raw payload
// slot.
func New(msgType MessageType, correlationID uuid.UUID, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal payload for %s: %w", msgType, err)
	}
	return Envelope{
		MessageType:   msgType,
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}

// Encode builds an envelope carrying payload and serializes it to bytes
// ready for an outbound text frame.
func Encode(msgType MessageType, correlationID uuid.UUID, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload for %s: %w", msgType, err)
	}
	env := Envelope{
		MessageType:   msgType,
		CorrelationID: correlationID,
		Payload:       raw,
	}
	out, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope for %s: %w", msgType, err)
	}
	return out, nil
}

// DecodePayload unmarshals the envelope's raw payload into dst.
func (e Envelope) DecodePayload(dst any) error {
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("decode payload for %s: %w", e.MessageType, err)
	}
	return nil
}
