package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

type NonceValue [16]byte

func NewNonceValue() (NonceValue, error) {
	var n NonceValue
	_, err := rand.Read(n[:])
	return n, err
}

func (n NonceValue) Bytes() []byte {
	return n[:]
}

func (n NonceValue) String() string {
	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(n[:])
}

func ParseNonceValue(nonce string) (NonceValue, error) {
	var n NonceValue

	raw, err := base64.RawURLEncoding.DecodeString(nonce)
	if err != nil {
		return n, err
	}
	if len(raw) != len(n) {
		return n, errors.New("invalid nonce size")
	}

	copy(n[:], raw)
	return n, nil
}
