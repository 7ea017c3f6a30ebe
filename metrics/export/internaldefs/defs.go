package internaldefs

import (
	scoregate "github.com/portdeveloper/mission7-example-game"
)

// CounterDef defines a public type used by scoregate APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   scoregate.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by scoregate APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   scoregate.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the validation engine.
var CounterDefs = []CounterDef{
	{ID: scoregate.MetricChallengeIssued, Name: "scoregate_challenge_issued_total", Help: "Issued wallet challenges."},
	{ID: scoregate.MetricAuthSuccess, Name: "scoregate_auth_success_total", Help: "Successful wallet authentications."},
	{ID: scoregate.MetricAuthFailure, Name: "scoregate_auth_failure_total", Help: "Failed wallet authentications."},
	{ID: scoregate.MetricTokenInvalid, Name: "scoregate_token_invalid_total", Help: "Requests rejected for an invalid session token."},
	{ID: scoregate.MetricSessionStarted, Name: "scoregate_session_started_total", Help: "Started game sessions."},
	{ID: scoregate.MetricActionAccepted, Name: "scoregate_action_accepted_total", Help: "Accepted game actions."},
	{ID: scoregate.MetricActionRejected, Name: "scoregate_action_rejected_total", Help: "Rejected game actions."},
	{ID: scoregate.MetricSuspiciousFlagged, Name: "scoregate_suspicious_flagged_total", Help: "Actions rejected by anti-cheat checks."},
	{ID: scoregate.MetricSessionEnded, Name: "scoregate_session_ended_total", Help: "Ended game sessions."},
	{ID: scoregate.MetricCommitSuccess, Name: "scoregate_commit_success_total", Help: "Successful score commits."},
	{ID: scoregate.MetricCommitDuplicate, Name: "scoregate_commit_duplicate_total", Help: "Commit attempts suppressed as duplicates."},
	{ID: scoregate.MetricCommitFailure, Name: "scoregate_commit_failure_total", Help: "Failed score commits."},
	{ID: scoregate.MetricRateLimitHit, Name: "scoregate_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
	{ID: scoregate.MetricOriginRejected, Name: "scoregate_origin_rejected_total", Help: "Requests rejected by origin validation."},
}

// HistogramDefs is an exported constant or variable used by the validation engine.
var HistogramDefs = []HistogramDef{
	{ID: scoregate.MetricCommitLatency, Name: "scoregate_commit_latency_seconds", Help: "Upstream commit latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the validation engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the validation engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
