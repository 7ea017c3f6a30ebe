package scoregate

import (
	"errors"

	internalaudit "github.com/portdeveloper/mission7-example-game/internal/audit"
	"github.com/portdeveloper/mission7-example-game/internal/rate"
	"github.com/portdeveloper/mission7-example-game/internal/stores"
	"github.com/portdeveloper/mission7-example-game/session"
	"github.com/portdeveloper/mission7-example-game/token"
	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by scoregate APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  *redis.Client

	submitter ScoreSubmitter
	auditSink AuditSink

	nonceStore   NonceStore
	sessionStore SessionStore
	dedupStore   DedupStore

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithSubmitter describes the withsubmitter operation and its observable behavior.
//
// WithSubmitter may return an error when input validation, dependency calls, or security checks fail.
// WithSubmitter does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithSubmitter(s ScoreSubmitter) *Builder {
	b.submitter = s
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithNonceStore describes the withnoncestore operation and its observable behavior.
//
// WithNonceStore may return an error when input validation, dependency calls, or security checks fail.
// WithNonceStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithNonceStore(ns NonceStore) *Builder {
	b.nonceStore = ns
	return b
}

// WithSessionStore describes the withsessionstore operation and its observable behavior.
//
// WithSessionStore may return an error when input validation, dependency calls, or security checks fail.
// WithSessionStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithSessionStore(ss SessionStore) *Builder {
	b.sessionStore = ss
	return b
}

// WithDedupStore describes the withdedupstore operation and its observable behavior.
//
// WithDedupStore may return an error when input validation, dependency calls, or security checks fail.
// WithDedupStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithDedupStore(ds DedupStore) *Builder {
	b.dedupStore = ds
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.submitter == nil {
		return nil, ErrSubmitterRequired
	}

	// -------- TOKEN CODEC --------
	codec, err := token.NewCodec(cfg.Token.SecretKey, cfg.Token.BucketSize, cfg.Token.Window)
	if err != nil {
		return nil, err
	}

	// -------- NONCE STORE --------
	nonces := b.nonceStore
	if nonces == nil {
		if b.redis != nil {
			nonces = stores.NewRedisNonce(b.redis, cfg.Nonce.RedisPrefix, cfg.Nonce.TTL)
		} else {
			nonces = stores.NewMemoryNonce(cfg.Nonce.TTL, cfg.Nonce.SweepInterval)
		}
	}

	// -------- GAME SESSION STORE --------
	sessions := b.sessionStore
	if sessions == nil {
		store, err := session.NewStore(session.Config{
			MaxDuration:       cfg.Session.MaxDuration,
			MinActionInterval: cfg.Session.MinActionInterval,
			MaxShotsPerSecond: cfg.Session.MaxShotsPerSecond,
			MaxKillsPerSecond: cfg.Session.MaxKillsPerSecond,
			KillScore:         cfg.Session.KillScore,
			MaxScore:          cfg.Session.MaxScore,
			SweepInterval:     cfg.Session.SweepInterval,
		})
		if err != nil {
			return nil, err
		}
		sessions = store
	}

	// -------- DEDUP STORE --------
	dedup := b.dedupStore
	if dedup == nil {
		if b.redis != nil {
			dedup = stores.NewRedisDedup(b.redis, cfg.Dedup.RedisPrefix, cfg.Dedup.TTL)
		} else {
			dedup = stores.NewMemoryDedup(cfg.Dedup.TTL, cfg.Dedup.SweepInterval)
		}
	}

	// -------- RATE LIMITERS --------
	limiters, err := buildLimiters(b.redis, cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:    cfg,
		tokens:    codec,
		nonces:    nonces,
		sessions:  sessions,
		dedup:     dedup,
		submitter: b.submitter,
		limiters:  limiters,
	}

	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}

func buildLimiters(client *redis.Client, cfg RateLimitConfig) (endpointLimiters, error) {
	build := func(name string, limit EndpointLimit) (rate.Limiter, error) {
		rc := rate.Config{
			MaxRequests: limit.MaxRequests,
			Window:      limit.Window,
		}
		if client != nil {
			return rate.NewRedis(client, name, rc)
		}
		return rate.NewMemory(rc)
	}

	var (
		out endpointLimiters
		err error
	)

	if out.challenge, err = build("challenge", cfg.Challenge); err != nil {
		return endpointLimiters{}, err
	}
	if out.verify, err = build("verify", cfg.Verify); err != nil {
		return endpointLimiters{}, err
	}
	if out.start, err = build("start", cfg.Start); err != nil {
		return endpointLimiters{}, err
	}
	if out.action, err = build("action", cfg.Action); err != nil {
		return endpointLimiters{}, err
	}
	if out.end, err = build("end", cfg.End); err != nil {
		return endpointLimiters{}, err
	}
	if out.commit, err = build("commit", cfg.Commit); err != nil {
		return endpointLimiters{}, err
	}

	return out, nil
}
