// Package session owns the partner's authentication token: loading it from
// secure storage at startup, replacing it after login and clearing it on
// logout. Exactly one Store exists per process; main constructs it and passes
// it to whoever needs the token.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"hotelpartner/internal/events"
	"hotelpartner/internal/securestore"
)

// TokenKey is the secure-storage key holding the token.
const TokenKey = "userToken"

var (
	ErrEmptyToken     = errors.New("session: empty token")
	ErrNotInitialized = errors.New("session: not initialized")
)

// State is the lifecycle position of the session.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "Loading"
	case StateAuthenticated:
		return "Authenticated"
	case StateUnauthenticated:
		return "Unauthenticated"
	default:
		return "Uninitialized"
	}
}

// Store is the process-wide session.
type Store struct {
	storage   securestore.Store
	publisher events.Publisher
	logger    zerolog.Logger

	initOnce sync.Once
	ready    chan struct{}

	mu    sync.RWMutex
	state State
	token string
}

// New creates an uninitialized Store. publisher may be nil.
func New(storage securestore.Store, publisher events.Publisher, logger *zerolog.Logger) *Store {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "session").Logger()
	}
	return &Store{
		storage:   storage,
		publisher: publisher,
		logger:    l,
		ready:     make(chan struct{}),
	}
}

// Initialize reads the persisted token. Only the first call does any work;
// later calls wait for it to finish. A read failure or an empty stored value
// leaves the session unauthenticated.
func (s *Store) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		s.mu.Lock()
		s.state = StateLoading
		s.mu.Unlock()

		token, err := s.storage.Get(ctx, TokenKey)
		switch {
		case errors.Is(err, securestore.ErrNotFound):
			s.logger.Debug().Msg("no stored token")
		case err != nil:
			s.logger.Error().Err(err).Msg("failed to read stored token")
		}

		s.mu.Lock()
		if err == nil && token != "" {
			s.token = token
			s.state = StateAuthenticated
		} else {
			s.token = ""
			s.state = StateUnauthenticated
		}
		s.mu.Unlock()
		close(s.ready)
	})
	<-s.ready
}

// Ready is closed once Initialize has finished.
func (s *Store) Ready() <-chan struct{} { return s.ready }

// Loading reports whether the stored token is still being read.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateLoading
}

// State returns the lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsLoggedIn reports whether a token is held.
func (s *Store) IsLoggedIn() bool {
	return s.State() == StateAuthenticated
}

// Token returns the token and whether one is held.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// AuthToken implements the API client's token source.
func (s *Store) AuthToken(context.Context) (string, error) {
	token, ok := s.Token()
	if !ok {
		return "", ErrNotInitialized
	}
	return token, nil
}

// UpdateToken persists token and marks the session authenticated. When the
// write fails the error is logged and returned and the previous state kept.
func (s *Store) UpdateToken(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	if err := s.storage.Set(ctx, TokenKey, token); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist token")
		return fmt.Errorf("persist token: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.state = StateAuthenticated
	s.mu.Unlock()

	s.logger.Info().Msg("session authenticated")
	if s.publisher != nil {
		s.publisher.PublishJSON(events.TypeLogin, map[string]any{"at": time.Now().UTC()})
	}
	return nil
}

// Logout deletes the stored token and clears the session. Calling it with no
// token held is fine. If the delete fails the in-memory state is kept so the
// session never claims to be logged out while a token is still on disk.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.storage.Delete(ctx, TokenKey); err != nil {
		s.logger.Error().Err(err).Msg("failed to delete token")
		return fmt.Errorf("delete token: %w", err)
	}

	s.mu.Lock()
	wasLoggedIn := s.token != ""
	s.token = ""
	s.state = StateUnauthenticated
	s.mu.Unlock()

	if wasLoggedIn {
		s.logger.Info().Msg("session cleared")
		if s.publisher != nil {
			s.publisher.PublishJSON(events.TypeLogout, map[string]any{"at": time.Now().UTC()})
		}
	}
	return nil
}

// Route is the first screen to show.
type Route string

const (
	RouteLoading    Route = "loading"
	RouteHome       Route = "home"
	RouteOnboarding Route = "onboarding"
)

// InitialRoute picks the entry screen. Nothing is decided until loading ends.
func InitialRoute(s *Store) Route {
	switch s.State() {
	case StateUninitialized, StateLoading:
		return RouteLoading
	case StateAuthenticated:
		return RouteHome
	default:
		return RouteOnboarding
	}
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// Opaque tokens report false.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
