// Package webhook delivers signed event notifications to registered
// subscriber endpoints.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// pbkdf2Iterations follows the OWASP minimum for HMAC-SHA256.
	pbkdf2Iterations = 480_000
	// signingKeyLen is the derived HMAC key length.
	signingKeyLen = 32
)

// signingSalt is a fixed application salt for deriving signing keys from
// subscriber secrets. Subscribers verify with the same derivation, so this
// value is part of the public webhook contract and must never change.
var signingSalt = []byte("liquidlens-webhook-v1")

// Signer signs webhook payloads with a key derived from the subscriber's
// secret. Derivation keeps a low-entropy secret from being used directly as
// an HMAC key.
type Signer struct {
	key []byte
}

// NewSigner derives the signing key for one subscriber secret. Derivation is
// deliberately slow; construct once per subscription, not per delivery.
func NewSigner(secret string) *Signer {
	return &Signer{
		key: pbkdf2.Key([]byte(secret), signingSalt, pbkdf2Iterations, signingKeyLen, sha256.New),
	}
}

// Sign computes the hex signature for a payload at a given Unix timestamp.
// The signed message is "{timestamp}.{body}" so replayed bodies with a
// different timestamp fail verification.
func (s *Signer) Sign(unixTS int64, body []byte) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(strconv.FormatInt(unixTS, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches the payload at the timestamp.
func (s *Signer) Verify(unixTS int64, body []byte, signature string) bool {
	expected := s.Sign(unixTS, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
