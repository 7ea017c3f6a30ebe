package scoregate

import (
	"context"
	"errors"
	"testing"
)

func TestSecurityInvariantTokenBoundToSecret(t *testing.T) {
	cfgA := testEngineConfig()
	engineA := newTestEngine(t, cfgA, nil)

	cfgB := testEngineConfig()
	cfgB.Token.SecretKey = []byte("a-different-deployment-secret")
	engineB := newTestEngine(t, cfgB, nil)

	key, addr := newWalletKey(t)
	token := authenticateWallet(t, engineA, key, addr)

	if err := engineA.ValidateToken(context.Background(), addr, token); err != nil {
		t.Fatalf("token rejected by issuing engine: %v", err)
	}
	if err := engineB.ValidateToken(context.Background(), addr, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken across secrets, got %v", err)
	}
}

func TestSecurityInvariantTokenBoundToAddress(t *testing.T) {
	engine := newTestEngine(t, testEngineConfig(), nil)

	key, addr := newWalletKey(t)
	_, otherAddr := newWalletKey(t)
	token := authenticateWallet(t, engine, key, addr)

	if err := engine.ValidateToken(context.Background(), otherAddr, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign address, got %v", err)
	}
}

func TestSecurityInvariantTamperedTokenRejected(t *testing.T) {
	engine := newTestEngine(t, testEngineConfig(), nil)

	key, addr := newWalletKey(t)
	token := authenticateWallet(t, engine, key, addr)

	tampered := []byte(token)
	if tampered[0] == 'f' {
		tampered[0] = '0'
	} else {
		tampered[0] = 'f'
	}

	if err := engine.ValidateToken(context.Background(), addr, string(tampered)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestSecurityInvariantForgedTokenNeverReachesSubmitter(t *testing.T) {
	submitter := &stubSubmitter{}
	engine := newTestEngine(t, testEngineConfig(), submitter)

	key, addr := newWalletKey(t)
	token := authenticateWallet(t, engine, key, addr)
	gameID := playEndedSession(t, engine, addr, token, 1)

	_, err := engine.CommitScore(context.Background(), addr, "forged-token", gameID)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if submitter.Calls() != 0 {
		t.Fatalf("submitter reached with a forged token: %d calls", submitter.Calls())
	}
}

func TestSecurityInvariantSuspiciousClassification(t *testing.T) {
	for _, err := range []error{ErrActionTooFrequent, ErrActionRateExceeded, ErrScoreOutOfBounds} {
		if !Suspicious(err) {
			t.Errorf("expected %v to be flagged suspicious", err)
		}
	}
	for _, err := range []error{nil, ErrInvalidToken, ErrRateLimited, ErrSessionNotFound, ErrDuplicateRequest} {
		if Suspicious(err) {
			t.Errorf("expected %v to stay unflagged", err)
		}
	}
}

func TestSecurityReportReflectsConfig(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Origin.AllowedOrigins = []string{"https://game.example"}
	cfg.Origin.AllowEmpty = false
	cfg.Session.MaxScore = 5000
	cfg.Audit.Enabled = true
	cfg.Metrics.Enabled = true
	engine := newTestEngine(t, cfg, nil)

	report := engine.SecurityReport()

	if !report.OriginEnforced || report.OriginAllowEmpty {
		t.Fatalf("origin flags = %+v, want enforced without empty pass-through", report)
	}
	if report.AntiCheat.MaxScore != 5000 {
		t.Fatalf("reported max score = %d, want 5000", report.AntiCheat.MaxScore)
	}
	if report.AntiCheat.KillScore != cfg.Session.KillScore {
		t.Fatalf("reported kill score = %d, want %d", report.AntiCheat.KillScore, cfg.Session.KillScore)
	}
	if got := report.EndpointBudgets["commit"]; got != cfg.RateLimit.Commit {
		t.Fatalf("reported commit budget = %+v, want %+v", got, cfg.RateLimit.Commit)
	}
	if len(report.EndpointBudgets) != 6 {
		t.Fatalf("reported %d endpoint budgets, want 6", len(report.EndpointBudgets))
	}
	if report.DistributedBackends {
		t.Fatal("memory-backed engine reported distributed backends")
	}
	if !report.AuditEnabled || !report.MetricsEnabled {
		t.Fatalf("observability flags = %+v, want both enabled", report)
	}
	if report.TokenWindow != cfg.Token.Window || report.NonceTTL != cfg.Nonce.TTL {
		t.Fatalf("ttl fields = %+v, want window %v nonce %v", report, cfg.Token.Window, cfg.Nonce.TTL)
	}
}

func TestSecurityReportDistributedBackends(t *testing.T) {
	_, rdb := newTestRedis(t)

	engine, err := New().
		WithConfig(testEngineConfig()).
		WithSubmitter(&stubSubmitter{}).
		WithRedis(rdb).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	if !engine.SecurityReport().DistributedBackends {
		t.Fatal("redis-backed engine did not report distributed backends")
	}
}

func TestSecurityReportNilEngine(t *testing.T) {
	var engine *Engine
	report := engine.SecurityReport()
	if report.TokenWindow != 0 || report.EndpointBudgets != nil {
		t.Fatalf("nil engine report = %+v, want zero value", report)
	}
	if report.AntiCheat != (AntiCheatReport{}) {
		t.Fatalf("nil engine anti-cheat report = %+v, want zero value", report.AntiCheat)
	}
}
