package scoregate

import (
	"errors"
	"time"
)

// Config defines a public type used by scoregate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Token     TokenConfig
	Nonce     NonceConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Dedup     DedupConfig
	Origin    OriginConfig
	Submit    SubmitConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by scoregate APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	SecretKey  []byte
	BucketSize time.Duration
	Window     time.Duration
}

/*
====================================
NONCE CONFIG
====================================
*/

// NonceConfig defines a public type used by scoregate APIs.
//
// NonceConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type NonceConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
	RedisPrefix   string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by scoregate APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	MaxDuration       time.Duration
	MinActionInterval time.Duration
	MaxShotsPerSecond int
	MaxKillsPerSecond int
	KillScore         int
	MaxScore          int
	SweepInterval     time.Duration
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// EndpointLimit defines a public type used by scoregate APIs.
//
// EndpointLimit instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type EndpointLimit struct {
	MaxRequests int
	Window      time.Duration
}

// RateLimitConfig defines a public type used by scoregate APIs.
//
// RateLimitConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RateLimitConfig struct {
	Challenge EndpointLimit
	Verify    EndpointLimit
	Start     EndpointLimit
	Action    EndpointLimit
	End       EndpointLimit
	Commit    EndpointLimit
}

/*
====================================
DEDUP CONFIG
====================================
*/

// DedupConfig defines a public type used by scoregate APIs.
//
// DedupConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type DedupConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
	RedisPrefix   string
}

/*
====================================
ORIGIN CONFIG
====================================
*/

// OriginConfig defines a public type used by scoregate APIs.
//
// OriginConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// An empty AllowedOrigins list disables the origin check entirely; AllowEmpty
// admits requests that carry no Origin header (non-browser clients) even when
// an allowlist is configured.
type OriginConfig struct {
	AllowedOrigins []string
	AllowEmpty     bool
}

/*
====================================
SUBMIT CONFIG
====================================
*/

// SubmitConfig defines a public type used by scoregate APIs.
//
// SubmitConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SubmitConfig struct {
	Timeout           time.Duration
	TransactionAmount int
}

// AuditConfig defines a public type used by scoregate APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by scoregate APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// DefaultConfig may return an error when input validation, dependency calls, or security checks fail.
// DefaultConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The returned preset carries no secret key; callers must set Token.SecretKey
// before Build will accept it.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			BucketSize: 30 * time.Second,
			Window:     5 * time.Minute,
		},
		Nonce: NonceConfig{
			TTL:           5 * time.Minute,
			SweepInterval: 5 * time.Minute,
			RedisPrefix:   "sg:nonce",
		},
		Session: SessionConfig{
			MaxDuration:       30 * time.Minute,
			MinActionInterval: 50 * time.Millisecond,
			MaxShotsPerSecond: 10,
			MaxKillsPerSecond: 5,
			KillScore:         10,
			MaxScore:          10000,
			SweepInterval:     5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Challenge: EndpointLimit{MaxRequests: 10, Window: time.Minute},
			Verify:    EndpointLimit{MaxRequests: 10, Window: time.Minute},
			Start:     EndpointLimit{MaxRequests: 5, Window: time.Minute},
			Action:    EndpointLimit{MaxRequests: 100, Window: time.Minute},
			End:       EndpointLimit{MaxRequests: 10, Window: time.Minute},
			Commit:    EndpointLimit{MaxRequests: 10, Window: time.Minute},
		},
		Dedup: DedupConfig{
			TTL:           10 * time.Minute,
			SweepInterval: 5 * time.Minute,
			RedisPrefix:   "sg:dedup",
		},
		Origin: OriginConfig{
			AllowedOrigins: nil,
			AllowEmpty:     true,
		},
		Submit: SubmitConfig{
			Timeout:           30 * time.Second,
			TransactionAmount: 1,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.SecretKey = cloneBytes(cfg.Token.SecretKey)
	if len(cfg.Origin.AllowedOrigins) > 0 {
		out.Origin.AllowedOrigins = make([]string, len(cfg.Origin.AllowedOrigins))
		copy(out.Origin.AllowedOrigins, cfg.Origin.AllowedOrigins)
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Token
	if len(c.Token.SecretKey) == 0 {
		return ErrSecretRequired
	}
	if c.Token.BucketSize <= 0 {
		return errors.New("Token BucketSize must be > 0")
	}
	if c.Token.Window < c.Token.BucketSize {
		return errors.New("Token Window must cover at least one bucket")
	}

	// Nonce
	if c.Nonce.TTL <= 0 {
		return errors.New("Nonce TTL must be > 0")
	}
	if c.Nonce.SweepInterval <= 0 {
		return errors.New("Nonce SweepInterval must be > 0")
	}

	// Session
	if c.Session.MaxDuration <= 0 {
		return errors.New("Session MaxDuration must be > 0")
	}
	if c.Session.MinActionInterval <= 0 {
		return errors.New("Session MinActionInterval must be > 0")
	}
	if c.Session.MaxShotsPerSecond <= 0 {
		return errors.New("Session MaxShotsPerSecond must be > 0")
	}
	if c.Session.MaxKillsPerSecond <= 0 {
		return errors.New("Session MaxKillsPerSecond must be > 0")
	}
	if c.Session.KillScore <= 0 {
		return errors.New("Session KillScore must be > 0")
	}
	if c.Session.MaxScore < c.Session.KillScore {
		return errors.New("Session MaxScore must be >= KillScore")
	}
	if c.Session.SweepInterval <= 0 {
		return errors.New("Session SweepInterval must be > 0")
	}

	// Rate limits
	for _, l := range []struct {
		name  string
		limit EndpointLimit
	}{
		{"Challenge", c.RateLimit.Challenge},
		{"Verify", c.RateLimit.Verify},
		{"Start", c.RateLimit.Start},
		{"Action", c.RateLimit.Action},
		{"End", c.RateLimit.End},
		{"Commit", c.RateLimit.Commit},
	} {
		if l.limit.MaxRequests <= 0 {
			return errors.New("RateLimit " + l.name + " MaxRequests must be > 0")
		}
		if l.limit.Window <= 0 {
			return errors.New("RateLimit " + l.name + " Window must be > 0")
		}
	}

	// Dedup
	if c.Dedup.TTL <= 0 {
		return errors.New("Dedup TTL must be > 0")
	}
	if c.Dedup.SweepInterval <= 0 {
		return errors.New("Dedup SweepInterval must be > 0")
	}

	// Submit
	if c.Submit.Timeout <= 0 {
		return errors.New("Submit Timeout must be > 0")
	}
	if c.Submit.TransactionAmount <= 0 {
		return errors.New("Submit TransactionAmount must be > 0")
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	return nil
}
