package session

import (
	"crypto/ed25519"
	"encoding/base64"
)

// Verifier checks a signature against a challenge and a public key. It is an
// external collaborator (spec.md §1): the server trusts whatever Verifier it
// is given and never inspects key material itself.
type Verifier interface {
	Verify(challenge, signature, pubKey string) (bool, error)
}

// Ed25519Verifier is the default Verifier: base64-encoded Ed25519 keys and
// signatures over the challenge text, mirroring original_source's
// tools.rs::verify_signature (ed25519-dalek + base64). A malformed key or
// signature is treated as a failed verification, not an error: the spec
// models cryptographic failure as "a successful protocol exchange with
// verified=false" (spec.md §7), not a transport-level error.
type Ed25519Verifier struct{}

func (Ed25519Verifier) Verify(challenge, signature, pubKey string) (bool, error) {
	pubBytes, err := base64.StdEncoding.DecodeString(pubKey)
	if err != nil || len(pubBytes) != ed25519.PublicKeySize {
		return false, nil
	}
	sigBytes, err := base64.StdEncoding.DecodeString(signature)
	if err != nil || len(sigBytes) != ed25519.SignatureSize {
		return false, nil
	}
	return ed25519.Verify(ed25519.PublicKey(pubBytes), []byte(challenge), sigBytes), nil
}
