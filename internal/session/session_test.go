package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Androix777/kanjilab-server/internal/game"
	"github.com/Androix777/kanjilab-server/internal/wire"
)

type fakeTransport struct {
	sent chan wire.Envelope
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{sent: make(chan wire.Envelope, 16)}
}

func (f *fakeTransport) Send(env wire.Envelope)    { f.sent <- env }
func (f *fakeTransport) SendRaw(text string)       {}

func (f *fakeTransport) next(t *testing.T) wire.Envelope {
	t.Helper()
	select {
	case env := <-f.sent:
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for outbound envelope")
		return wire.Envelope{}
	}
}

type stubVerifier struct{ result bool }

func (v stubVerifier) Verify(challenge, signature, pubKey string) (bool, error) {
	return v.result, nil
}

func newTestSession(t *testing.T, verifyResult bool) (*Session, *fakeTransport, *game.Game) {
	t.Helper()
	g := game.New()
	go g.Run()
	go g.Room().Run()

	tr := newFakeTransport()
	sess := New(uuid.New(), g, stubVerifier{result: verifyResult})
	sess.AttachTransport(tr)
	go sess.Run()

	return sess, tr, g
}

// TestHandshake_HappyPath exercises spec.md scenario S1.
func TestHandshake_HappyPath(t *testing.T) {
	sess, tr, _ := newTestSession(t, true)

	c1 := uuid.New()
	env, err := wire.New(wire.InReqSendPublicKey, c1, wire.SendPublicKeyPayload{Key: "K"})
	require.NoError(t, err)
	sess.Deliver(env)

	signMsg := tr.next(t)
	assert.Equal(t, wire.OutRespSignMessage, signMsg.MessageType)
	assert.Equal(t, c1, signMsg.CorrelationID)
	var payload wire.SignMessagePayload
	require.NoError(t, signMsg.DecodePayload(&payload))
	_, err = uuid.Parse(payload.Message)
	assert.NoError(t, err, "challenge must be a UUID string")

	c2 := uuid.New()
	env2, err := wire.New(wire.InReqVerifySignature, c2, wire.VerifySignaturePayload{Signature: "SIG"})
	require.NoError(t, err)
	sess.Deliver(env2)

	statusMsg := tr.next(t)
	assert.Equal(t, wire.OutRespStatus, statusMsg.MessageType)
	assert.Equal(t, c2, statusMsg.CorrelationID)
	var status wire.StatusPayload
	require.NoError(t, statusMsg.DecodePayload(&status))
	assert.Equal(t, wire.StatusSuccess, status.Status)
}

// TestRegisterBeforeVerify exercises spec.md scenario S2.
func TestRegisterBeforeVerify(t *testing.T) {
	sess, tr, _ := newTestSession(t, true)

	c3 := uuid.New()
	env, err := wire.New(wire.InReqRegisterClient, c3, wire.RegisterClientPayload{Name: "A"})
	require.NoError(t, err)
	sess.Deliver(env)

	statusMsg := tr.next(t)
	assert.Equal(t, wire.OutRespStatus, statusMsg.MessageType)
	assert.Equal(t, c3, statusMsg.CorrelationID)
	var status wire.StatusPayload
	require.NoError(t, statusMsg.DecodePayload(&status))
	assert.Equal(t, wire.StatusError, status.Status)

	select {
	case env := <-tr.sent:
		t.Fatalf("unexpected extra message sent: %+v", env)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendPublicKey_AlreadyVerified_StillOverwritesKeyAndChallenge(t *testing.T) {
	// Why: spec.md §9 requires key/challenge to be replaced even when the
	// handshake reports the session already verified.
	sess, tr, _ := newTestSession(t, true)

	c1 := uuid.New()
	env, _ := wire.New(wire.InReqSendPublicKey, c1, wire.SendPublicKeyPayload{Key: "K1"})
	sess.Deliver(env)
	first := tr.next(t) // signMessage
	var firstSign wire.SignMessagePayload
	require.NoError(t, first.DecodePayload(&firstSign))

	c2 := uuid.New()
	env2, _ := wire.New(wire.InReqVerifySignature, c2, wire.VerifySignaturePayload{Signature: "SIG"})
	sess.Deliver(env2)
	tr.next(t) // status success, verified=true now

	c3 := uuid.New()
	env3, _ := wire.New(wire.InReqSendPublicKey, c3, wire.SendPublicKeyPayload{Key: "K2"})
	sess.Deliver(env3)

	signMsg := tr.next(t)
	assert.Equal(t, wire.OutRespSignMessage, signMsg.MessageType)
	var secondSign wire.SignMessagePayload
	require.NoError(t, signMsg.DecodePayload(&secondSign))
	assert.NotEqual(t, firstSign.Message, secondSign.Message, "a fresh challenge must be issued")

	statusMsg := tr.next(t)
	assert.Equal(t, wire.OutRespStatus, statusMsg.MessageType)
	var status wire.StatusPayload
	require.NoError(t, statusMsg.DecodePayload(&status))
	assert.Equal(t, wire.StatusSignatureAlreadyVerified, status.Status)

	// Both fields are written before the replies are sent, so reading them
	// after receiving the replies is ordered.
	assert.Equal(t, "K2", sess.pubKey)
	assert.Equal(t, secondSign.Message, sess.challenge)
}
