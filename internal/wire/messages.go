package wire

import "github.com/google/uuid"

// GameSettings controls a round's question selection and timing. Field names
// and shapes follow original_source/src/data_types.rs's GameSettings exactly.
type GameSettings struct {
	MinFrequency      uint64  `json:"minFrequency"`
	MaxFrequency      uint64  `json:"maxFrequency"`
	UsingMaxFrequency bool    `json:"usingMaxFrequency"`
	RoundDuration     uint64  `json:"roundDuration"` // seconds
	RoundsCount       uint64  `json:"roundsCount"`
	WordPart          *string `json:"wordPart,omitempty"`
	WordPartReading   *string `json:"wordPartReading,omitempty"`
	FontsCount        uint64  `json:"fontsCount"`
	FirstFontName     *string `json:"firstFontName,omitempty"`
}

// AnswerInfo is one member's recorded answer within a round.
type AnswerInfo struct {
	ID         uuid.UUID `json:"id"`
	Answer     string    `json:"answer"`
	IsCorrect  bool      `json:"isCorrect"`
	AnswerTime uint64    `json:"answerTime"` // milliseconds
}

// ClientInfo is the public identity of a registered, room-present client.
type ClientInfo struct {
	ID      uuid.UUID `json:"id"`
	Key     string    `json:"key"`
	Name    string    `json:"name"`
	IsAdmin bool      `json:"isAdmin"`
}

// WordPartExample is one usage example of a word part within a reading.
type WordPartExample struct {
	Word      string   `json:"word"`
	Frequency *float64 `json:"frequency,omitempty"`
	Reading   string   `json:"reading"`
}

// WordPartInfo decomposes a reading into a word part and its examples.
type WordPartInfo struct {
	WordPart        string            `json:"wordPart"`
	WordPartReading string            `json:"wordPartReading"`
	Examples        []WordPartExample `json:"examples"`
}

// ReadingWithParts is one accepted reading of a question word, along with
// the word parts it decomposes into.
type ReadingWithParts struct {
	Reading string         `json:"reading"`
	Parts   []WordPartInfo `json:"parts"`
}

// WordInfo is the full question word: its meanings and every accepted
// reading. isCorrect for a submitted answer is computed by checking
// membership of the answer string in Readings[*].Reading.
type WordInfo struct {
	Word     string             `json:"word"`
	Meanings [][][]string       `json:"meanings"`
	Readings []ReadingWithParts `json:"readings"`
}

// QuestionInfo is the question payload the admin is asked to fill in and
// that is ultimately broadcast (minus the raw word info) to the room.
type QuestionInfo struct {
	WordInfo WordInfo `json:"wordInfo"`
	FontName string   `json:"fontName"`
}

// --- IN_REQ_* payloads ---

type SendPublicKeyPayload struct {
	Key string `json:"key"`
}

type VerifySignaturePayload struct {
	Signature string `json:"signature"`
}

type RegisterClientPayload struct {
	Name string `json:"name"`
}

type SendChatPayload struct {
	Message string `json:"message"`
}

type ClientListPayload struct {
	IDs []uuid.UUID `json:"ids"`
}

type StartGamePayload struct {
	GameSettings
}

type SendAnswerPayload struct {
	Answer string `json:"answer"`
}

type SendGameSettingsPayload struct {
	GameSettings
}

// --- OUT_RESP_* payloads ---

type ClientRegisteredPayload struct {
	ID           uuid.UUID    `json:"id"`
	GameSettings GameSettings `json:"gameSettings"`
}

type ClientListReplyPayload struct {
	Clients []ClientInfo `json:"clients"`
}

type SignMessagePayload struct {
	Message string `json:"message"`
}

// --- OUT_REQ_* / IN_RESP_* payloads ---

type QuestionRequestPayload struct {
	GameSettings GameSettings `json:"gameSettings"`
}

type QuestionResponsePayload struct {
	Question    QuestionInfo `json:"question"`
	QuestionSVG string       `json:"questionSvg"`
}

// --- OUT_NOTIF_* payloads ---

type ClientRegisteredNotification struct {
	Client ClientInfo `json:"client"`
}

type ClientDisconnectedNotification struct {
	ID uuid.UUID `json:"id"`
}

type ChatSentNotification struct {
	ID      uuid.UUID `json:"id"`
	Message string    `json:"message"`
}

type AdminMadeNotification struct {
	ID uuid.UUID `json:"id"`
}

type GameStartedNotification struct {
	GameSettings GameSettings `json:"gameSettings"`
}

type GameStoppedNotification struct {
	Question QuestionInfo `json:"question"`
	Answers  []AnswerInfo `json:"answers"`
}

type QuestionNotification struct {
	QuestionSVG string `json:"questionSvg"`
}

type ClientAnsweredNotification struct {
	ID uuid.UUID `json:"id"`
}

type RoundEndedNotification struct {
	Question QuestionInfo `json:"question"`
	Answers  []AnswerInfo `json:"answers"`
}

type GameSettingsChangedNotification struct {
	GameSettings GameSettings `json:"gameSettings"`
}
