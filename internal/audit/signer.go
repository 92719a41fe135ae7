// Package audit produces signed, tamper-evident records of access decisions
// and security-relevant actions.
package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMisconfiguredSecret means the signing key is absent. Signing must fail
// loudly rather than fall back to a weak implicit key.
var ErrMisconfiguredSecret = errors.New("signing key is not configured")

// Payload is the canonical field->value mapping of a record. All values are
// already rendered to stable strings by the record builders.
type Payload map[string]string

// Canonical serializes the payload deterministically: JSON with keys in
// sorted order and no insignificant whitespace, so the same logical payload
// always produces the same bytes regardless of insertion order.
func (p Payload) Canonical() ([]byte, error) {
	// encoding/json marshals map keys in sorted order.
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize payload: %w", err)
	}
	return b, nil
}

// SignedRecord is a payload plus its signature. Once persisted it is
// append-only; a correction is a new record, never a mutation.
type SignedRecord struct {
	Payload   Payload `json:"payload"`
	Signature string  `json:"signature"`
}

// Signer computes keyed integrity signatures over canonical payloads.
// The key is loaded once at startup and never appears in any record or log.
// Safe for concurrent use.
type Signer struct {
	key []byte
}

// NewSigner creates a signer. An empty key is a configuration defect and
// fails construction so the caller can never produce unsigned records.
func NewSigner(key []byte) (*Signer, error) {
	if len(key) == 0 {
		return nil, ErrMisconfiguredSecret
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Signer{key: k}, nil
}

// Sign returns the hex-encoded HMAC-SHA256 of the canonical payload.
// Deterministic: identical payload and key always produce the identical
// signature.
func (s *Signer) Sign(p Payload) (string, error) {
	msg, err := p.Canonical()
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, s.key)
	mac.Write(msg)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify recomputes the signature and compares in constant time.
func (s *Signer) Verify(p Payload, signature string) bool {
	want, err := s.Sign(p)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(want), []byte(signature))
}

// SignRecord signs a payload and wraps it into a SignedRecord.
func (s *Signer) SignRecord(p Payload) (SignedRecord, error) {
	sig, err := s.Sign(p)
	if err != nil {
		return SignedRecord{}, err
	}
	return SignedRecord{Payload: p, Signature: sig}, nil
}
