package scoregate

import (
	"time"

	"github.com/portdeveloper/mission7-example-game/internal/stores"
)

type SecurityReport struct {
	TokenBucketSize     time.Duration
	TokenWindow         time.Duration
	NonceTTL            time.Duration
	OriginEnforced      bool
	OriginAllowEmpty    bool
	AntiCheat           AntiCheatReport
	EndpointBudgets     map[string]EndpointLimit
	DedupTTL            time.Duration
	SubmitTimeout       time.Duration
	DistributedBackends bool
	AuditEnabled        bool
	MetricsEnabled      bool
}

type AntiCheatReport struct {
	MinActionInterval time.Duration
	MaxShotsPerSecond int
	MaxKillsPerSecond int
	KillScore         int
	MaxScore          int
	MaxSessionLength  time.Duration
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	_, distributed := e.nonces.(*stores.RedisNonceStore)

	return SecurityReport{
		TokenBucketSize:  e.config.Token.BucketSize,
		TokenWindow:      e.config.Token.Window,
		NonceTTL:         e.config.Nonce.TTL,
		OriginEnforced:   len(e.config.Origin.AllowedOrigins) > 0,
		OriginAllowEmpty: e.config.Origin.AllowEmpty,
		AntiCheat: AntiCheatReport{
			MinActionInterval: e.config.Session.MinActionInterval,
			MaxShotsPerSecond: e.config.Session.MaxShotsPerSecond,
			MaxKillsPerSecond: e.config.Session.MaxKillsPerSecond,
			KillScore:         e.config.Session.KillScore,
			MaxScore:          e.config.Session.MaxScore,
			MaxSessionLength:  e.config.Session.MaxDuration,
		},
		EndpointBudgets: map[string]EndpointLimit{
			"challenge": e.config.RateLimit.Challenge,
			"verify":    e.config.RateLimit.Verify,
			"start":     e.config.RateLimit.Start,
			"action":    e.config.RateLimit.Action,
			"end":       e.config.RateLimit.End,
			"commit":    e.config.RateLimit.Commit,
		},
		DedupTTL:            e.config.Dedup.TTL,
		SubmitTimeout:       e.config.Submit.Timeout,
		DistributedBackends: distributed,
		AuditEnabled:        e.config.Audit.Enabled,
		MetricsEnabled:      e.config.Metrics.Enabled,
	}
}
