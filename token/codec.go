package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBucketSize is an exported constant or variable used by the validation engine.
	DefaultBucketSize = 30 * time.Second
	// DefaultWindow is an exported constant or variable used by the validation engine.
	DefaultWindow = 5 * time.Minute
)

var (
	// ErrSecretRequired is an exported constant or variable used by the validation engine.
	ErrSecretRequired = errors.New("token secret required")
	// ErrInvalidBucketSize is an exported constant or variable used by the validation engine.
	ErrInvalidBucketSize = errors.New("bucket size must be positive")
	// ErrInvalidWindow is an exported constant or variable used by the validation engine.
	ErrInvalidWindow = errors.New("validity window must cover at least one bucket")
)

// Codec defines a public type used by scoregate APIs.
//
// Codec instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Codec struct {
	secret     []byte
	bucketSize time.Duration
	window     time.Duration

	now func() time.Time
}

// NewCodec describes the newcodec operation and its observable behavior.
//
// NewCodec may return an error when input validation, dependency calls, or security checks fail.
// NewCodec does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewCodec(secret []byte, bucketSize, window time.Duration) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrSecretRequired
	}
	if bucketSize <= 0 {
		return nil, ErrInvalidBucketSize
	}
	if window < bucketSize {
		return nil, ErrInvalidWindow
	}

	return &Codec{
		secret:     append([]byte(nil), secret...),
		bucketSize: bucketSize,
		window:     window,
		now:        time.Now,
	}, nil
}

// Derive computes the token digest for an address at an explicit bucket index.
//
//	Performance: 1 HMAC-SHA256 over ~60 bytes.
func (c *Codec) Derive(address string, bucket int64) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(strings.ToLower(address)))
	mac.Write([]byte{':'})
	mac.Write(strconv.AppendInt(nil, bucket, 10))
	return hex.EncodeToString(mac.Sum(nil))
}

// Issue mints a token for the current bucket. The expiry is anchored to the
// bucket start, not the issue instant, so two issues inside one bucket return
// the identical credential.
func (c *Codec) Issue(address string) (string, time.Time) {
	bucket := c.bucketAt(c.now())
	expiresAt := time.UnixMilli(bucket * c.bucketSize.Milliseconds()).Add(c.window)
	return c.Derive(address, bucket), expiresAt
}

// Validate reports whether token reproduces any bucket digest for address
// inside the trailing validity window.
func (c *Codec) Validate(tok, address string) bool {
	return c.ValidateWithin(tok, address, c.window)
}

// ValidateWithin is Validate with an explicit trailing window.
//
//	Performance: one HMAC per bucket in the window (~10 at defaults), oldest first.
func (c *Codec) ValidateWithin(tok, address string, window time.Duration) bool {
	if tok == "" || address == "" || window <= 0 {
		return false
	}

	now := c.now()
	provided := []byte(tok)

	for bucket := c.bucketAt(now.Add(-window)); bucket <= c.bucketAt(now); bucket++ {
		candidate := []byte(c.Derive(address, bucket))
		if subtle.ConstantTimeCompare(candidate, provided) == 1 {
			return true
		}
	}
	return false
}

// Window describes the window operation and its observable behavior.
//
// Window does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Codec) Window() time.Duration {
	return c.window
}

func (c *Codec) bucketAt(t time.Time) int64 {
	return t.UnixMilli() / c.bucketSize.Milliseconds()
}
