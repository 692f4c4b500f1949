package wire

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEnvelope_RoundTrip checks that Encode followed by Decode preserves the
// messageType and correlationId for a representative tag from each family.
func TestEnvelope_RoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		msgType MessageType
		payload any
	}{
		{"in_req", InReqSendPublicKey, SendPublicKeyPayload{Key: "abc123"}},
		{"out_resp", OutRespStatus, StatusPayload{Status: StatusSuccess}},
		{"out_req", OutReqQuestion, QuestionRequestPayload{GameSettings: GameSettings{RoundDuration: 30}}},
		{"in_resp", InRespQuestion, QuestionResponsePayload{QuestionSVG: "<svg/>"}},
		{"out_notif", OutNotifRoundEnded, RoundEndedNotification{Answers: []AnswerInfo{}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			corrID := uuid.New()
			data, err := Encode(tc.msgType, corrID, tc.payload)
			require.NoError(t, err)

			env, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tc.msgType, env.MessageType)
			assert.Equal(t, corrID, env.CorrelationID)
		})
	}
}

// TestNew_BuildsSamePayloadAsEncode checks New's direct-marshal path produces
// a payload that DecodePayload parses identically to the full Encode/Decode
// round trip.
func TestNew_BuildsSamePayloadAsEncode(t *testing.T) {
	corrID := uuid.New()
	payload := SendPublicKeyPayload{Key: "xyz"}

	env, err := New(InReqSendPublicKey, corrID, payload)
	require.NoError(t, err)

	var decoded SendPublicKeyPayload
	require.NoError(t, env.DecodePayload(&decoded))
	assert.Equal(t, payload, decoded)

	data, err := Encode(InReqSendPublicKey, corrID, payload)
	require.NoError(t, err)
	encoded, err := Decode(data)
	require.NoError(t, err)
	var viaEncode SendPublicKeyPayload
	require.NoError(t, encoded.DecodePayload(&viaEncode))
	assert.Equal(t, viaEncode, decoded)
}

func TestDecode_InvalidJSON_ReturnsError(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
}
