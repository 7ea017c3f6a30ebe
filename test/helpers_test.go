//go:build integration
// +build integration

package test

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/redis/go-redis/v9"

	scoregate "github.com/portdeveloper/mission7-example-game"
)

func newIntegrationRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

// newIntegrationEngine builds a Redis-backed engine with a fast action
// interval so integration rounds run in real time without throttle sleeps.
func newIntegrationEngine(t *testing.T, rdb *redis.Client, mutate func(*scoregate.Config)) *scoregate.Engine {
	t.Helper()

	cfg := scoregate.DefaultConfig()
	cfg.Token.SecretKey = []byte("integration-secret")
	cfg.Session.MinActionInterval = time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}

	builder := scoregate.New().WithConfig(cfg).WithSubmitter(receiptSubmitter{})
	if rdb != nil {
		builder = builder.WithRedis(rdb)
	}

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

type receiptSubmitter struct{}

func (receiptSubmitter) SubmitScore(_ context.Context, req scoregate.SubmitRequest) (*scoregate.TxReceipt, error) {
	return &scoregate.TxReceipt{TxHash: "0xintegration", BlockNumber: uint64(req.ScoreAmount)}, nil
}

func newPlayerKey(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key, crypto.PubkeyToAddress(key.PublicKey).Hex()
}

func signMessage(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	if err != nil {
		t.Fatalf("sign message: %v", err)
	}
	sig[64] += 27
	return "0x" + hex.EncodeToString(sig)
}

// authenticate runs the challenge exchange against engine and returns a live
// session token for addr.
func authenticate(t *testing.T, engine *scoregate.Engine, key *ecdsa.PrivateKey, addr string) string {
	t.Helper()
	ctx := context.Background()

	ch, err := engine.Challenge(ctx, addr)
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}
	tok, err := engine.Authenticate(ctx, addr, ch.Nonce, signMessage(t, key, ch.Message))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	return tok.SessionToken
}
