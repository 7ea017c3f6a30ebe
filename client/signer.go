package client

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
)

// LocalSigner signs challenge messages with a held ECDSA key. It exists for
// tests, bots, and tooling; real players sign through a wallet.
type LocalSigner struct {
	key *ecdsa.PrivateKey
}

// NewLocalSigner wraps an existing key.
func NewLocalSigner(key *ecdsa.PrivateKey) (*LocalSigner, error) {
	if key == nil {
		return nil, errors.New("nil private key")
	}
	return &LocalSigner{key: key}, nil
}

// GenerateSigner creates a signer with a fresh random key.
func GenerateSigner() (*LocalSigner, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &LocalSigner{key: key}, nil
}

// Address returns the signer's wallet address in checksum form.
func (s *LocalSigner) Address() string {
	return crypto.PubkeyToAddress(s.key.PublicKey).Hex()
}

// SignMessage produces a 0x-prefixed EIP-191 personal-sign signature with the
// recovery byte shifted to 27/28, matching what browser wallets emit.
func (s *LocalSigner) SignMessage(_ context.Context, message string) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), s.key)
	if err != nil {
		return "", err
	}
	sig[64] += 27
	return "0x" + hex.EncodeToString(sig), nil
}
