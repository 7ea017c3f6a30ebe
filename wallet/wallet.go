package wallet

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	challengePreamble = "Authenticate wallet for gaming session."

	signatureLength = 65
)

var (
	// ErrMalformedSignature is an exported constant or variable used by the validation engine.
	ErrMalformedSignature = errors.New("malformed signature")
	// ErrInvalidRecoveryID is an exported constant or variable used by the validation engine.
	ErrInvalidRecoveryID = errors.New("invalid signature recovery id")
)

// ChallengeMessage describes the challengemessage operation and its observable behavior.
//
// ChallengeMessage does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func ChallengeMessage(nonce, playerAddress string) string {
	return challengePreamble + "\nNonce: " + nonce + "\nAddress: " + playerAddress
}

// RecoverAddress describes the recoveraddress operation and its observable behavior.
//
// RecoverAddress may return an error when input validation, dependency calls, or security checks fail.
// RecoverAddress does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func RecoverAddress(message, signature string) (common.Address, error) {
	sig, err := decodeSignature(signature)
	if err != nil {
		return common.Address{}, err
	}

	pub, err := crypto.SigToPub(personalDigest(message), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}

	return crypto.PubkeyToAddress(*pub), nil
}

// Verify describes the verify operation and its observable behavior.
//
// Verify does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func Verify(playerAddress, message, signature string) bool {
	if !common.IsHexAddress(playerAddress) {
		return false
	}

	recovered, err := RecoverAddress(message, signature)
	if err != nil {
		return false
	}

	// Hex-form comparison is case-insensitive: both sides are parsed to raw bytes.
	return recovered == common.HexToAddress(playerAddress)
}

// personalDigest hashes per EIP-191 personal-sign:
// keccak256("\x19Ethereum Signed Message:\n" + len(message) + message).
func personalDigest(message string) []byte {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	return crypto.Keccak256([]byte(prefixed))
}

func decodeSignature(signature string) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(signature), "0x")

	sig, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	if len(sig) != signatureLength {
		return nil, fmt.Errorf("%w: length %d", ErrMalformedSignature, len(sig))
	}

	// Wallets emit the recovery id as 27/28; secp256k1 recovery wants 0/1.
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return nil, ErrInvalidRecoveryID
	}

	return sig, nil
}
