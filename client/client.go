package client

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	scoregate "github.com/portdeveloper/mission7-example-game"
	"github.com/portdeveloper/mission7-example-game/session"
)

var (
	// ErrNotAuthenticated is returned when an operation needs a session token
	// and Login has not run yet.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrTokenExpired is returned when the cached session token has aged out.
	// The orchestrator never re-logs in on its own.
	ErrTokenExpired = errors.New("session token expired")
	// ErrNoActiveSession is returned when an action is submitted without a
	// started game session.
	ErrNoActiveSession = errors.New("no active game session")
	// ErrNothingToCommit is returned when no ended score is pending.
	ErrNothingToCommit = errors.New("no ended score to commit")
)

// API is the engine surface the orchestrator drives. *scoregate.Engine
// satisfies it; tests substitute fakes.
type API interface {
	Challenge(ctx context.Context, playerAddress string) (*scoregate.ChallengeResult, error)
	Authenticate(ctx context.Context, playerAddress, nonce, signature string) (*scoregate.TokenResult, error)
	StartSession(ctx context.Context, playerAddress, sessionToken string) (*scoregate.StartResult, error)
	SubmitAction(ctx context.Context, playerAddress, sessionToken, gameSessionID string, action session.Action) (*scoregate.ActionResult, error)
	EndSession(ctx context.Context, playerAddress, sessionToken, gameSessionID string) (*scoregate.EndResult, error)
	CommitScore(ctx context.Context, playerAddress, sessionToken, gameSessionID string) (*scoregate.CommitResult, error)
}

// Signer produces an EIP-191 personal-sign signature for a challenge message.
// Production implementations front a wallet UI; [LocalSigner] signs with a
// held key.
type Signer interface {
	SignMessage(ctx context.Context, message string) (string, error)
}

// Session sequences the full protocol for one player: login, game session,
// actions, end, and score commit. All state is local; the server re-validates
// everything. Methods are safe for concurrent use, though the protocol itself
// is sequential.
type Session struct {
	api    API
	signer Signer
	player string

	mu             sync.Mutex
	sessionToken   string
	tokenExpiresAt time.Time
	gameSessionID  string
	active         bool
	finalScore     int
	hasFinalScore  bool
	commitTimer    *time.Timer

	now func() time.Time
}

// NewSession creates an orchestrator for playerAddress driving api, signing
// challenges with signer.
func NewSession(api API, signer Signer, playerAddress string) (*Session, error) {
	if api == nil {
		return nil, errors.New("nil api")
	}
	if signer == nil {
		return nil, errors.New("nil signer")
	}
	if playerAddress == "" {
		return nil, errors.New("empty player address")
	}

	return &Session{
		api:    api,
		signer: signer,
		player: playerAddress,
		now:    time.Now,
	}, nil
}

// PlayerAddress returns the wallet address this orchestrator plays as.
func (s *Session) PlayerAddress() string {
	return s.player
}

// Authenticated reports whether a non-expired session token is cached.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionToken != "" && s.now().Before(s.tokenExpiresAt)
}

// GameSessionID returns the current game session id, empty when none started.
func (s *Session) GameSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameSessionID
}

// PendingScore returns the ended final score awaiting commit, if any.
func (s *Session) PendingScore() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalScore, s.hasFinalScore
}

// Login runs the challenge exchange: request a nonce, sign the message, trade
// the signature for a session token. The signer call happens outside any lock
// because wallet UIs can block on user interaction.
func (s *Session) Login(ctx context.Context) error {
	ch, err := s.api.Challenge(ctx, s.player)
	if err != nil {
		return err
	}

	signature, err := s.signer.SignMessage(ctx, ch.Message)
	if err != nil {
		return err
	}

	tok, err := s.api.Authenticate(ctx, s.player, ch.Nonce, signature)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sessionToken = tok.SessionToken
	s.tokenExpiresAt = tok.ExpiresAt
	s.mu.Unlock()

	return nil
}

// Start opens a new game session. A previous session's pending score is
// discarded: anything worth keeping should be committed first.
func (s *Session) Start(ctx context.Context) error {
	token, err := s.freshToken()
	if err != nil {
		return err
	}

	res, err := s.api.StartSession(ctx, s.player, token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.stopTimerLocked()
	s.gameSessionID = res.GameSessionID
	s.active = true
	s.finalScore = 0
	s.hasFinalScore = false
	s.mu.Unlock()

	return nil
}

// SubmitAction sends one game action and returns the server-computed running
// score.
func (s *Session) SubmitAction(ctx context.Context, actionType session.ActionType, payload map[string]any) (int, error) {
	token, err := s.freshToken()
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	gameID := s.gameSessionID
	active := s.active
	s.mu.Unlock()

	if !active || gameID == "" {
		return 0, ErrNoActiveSession
	}

	res, err := s.api.SubmitAction(ctx, s.player, token, gameID, session.Action{
		Type: actionType,
		Data: payload,
	})
	if err != nil {
		return 0, err
	}
	return res.CurrentScore, nil
}

// End terminates the game session and retains its final score for commit.
func (s *Session) End(ctx context.Context) (int, error) {
	token, err := s.freshToken()
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	gameID := s.gameSessionID
	active := s.active
	s.mu.Unlock()

	if !active || gameID == "" {
		return 0, ErrNoActiveSession
	}

	res, err := s.api.EndSession(ctx, s.player, token, gameID)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.active = false
	s.finalScore = res.FinalScore
	s.hasFinalScore = true
	s.mu.Unlock()

	return res.FinalScore, nil
}

// CommitScore commits the ended session's score now. Any armed commit timer is
// disarmed first so the orchestrator never races itself. On success the
// pending score is cleared; on failure it stays pending so the caller can
// re-drive the same commit.
func (s *Session) CommitScore(ctx context.Context) (*scoregate.CommitResult, error) {
	return s.commitNow(ctx)
}

// ScheduleCommit arms (or re-arms) a timer that commits the pending score
// after delay. Only one timer is ever armed; scheduling again replaces the
// previous deadline.
func (s *Session) ScheduleCommit(delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasFinalScore || s.gameSessionID == "" {
		return ErrNothingToCommit
	}

	s.stopTimerLocked()
	s.commitTimer = time.AfterFunc(delay, func() {
		if _, err := s.commitNow(context.Background()); err != nil && !errors.Is(err, ErrNothingToCommit) {
			log.Print("scoregate: scheduled score commit failed")
		}
	})

	return nil
}

// Flush cancels any armed commit timer and commits the pending score now.
func (s *Session) Flush(ctx context.Context) (*scoregate.CommitResult, error) {
	return s.commitNow(ctx)
}

// Stop cancels any armed commit timer without committing. The pending score
// stays pending.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
}

// Logout clears all local state, timer included. Server-side nonce and
// session records expire on their own.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimerLocked()
	s.sessionToken = ""
	s.tokenExpiresAt = time.Time{}
	s.gameSessionID = ""
	s.active = false
	s.finalScore = 0
	s.hasFinalScore = false
}

func (s *Session) commitNow(ctx context.Context) (*scoregate.CommitResult, error) {
	s.mu.Lock()
	s.stopTimerLocked()
	token := s.sessionToken
	expiresAt := s.tokenExpiresAt
	gameID := s.gameSessionID
	ready := s.hasFinalScore
	s.mu.Unlock()

	if token == "" {
		return nil, ErrNotAuthenticated
	}
	if s.now().After(expiresAt) {
		return nil, ErrTokenExpired
	}
	if !ready || gameID == "" {
		return nil, ErrNothingToCommit
	}

	res, err := s.api.CommitScore(ctx, s.player, token, gameID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.hasFinalScore = false
	s.mu.Unlock()

	return res, nil
}

func (s *Session) freshToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessionToken == "" {
		return "", ErrNotAuthenticated
	}
	if s.now().After(s.tokenExpiresAt) {
		return "", ErrTokenExpired
	}
	return s.sessionToken, nil
}

// stopTimerLocked disarms the commit timer; the caller holds s.mu.
func (s *Session) stopTimerLocked() {
	if s.commitTimer != nil {
		s.commitTimer.Stop()
		s.commitTimer = nil
	}
}
