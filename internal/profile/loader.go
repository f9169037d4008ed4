// Package profile loads the hotel profile and the provider account behind
// its BH id.
package profile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"hotelpartner/internal/api"
	"hotelpartner/internal/models"
	"hotelpartner/internal/optimistic"
	"hotelpartner/internal/retry"
)

// ErrNoBH means the hotel profile has not been linked to a BH id yet.
var ErrNoBH = errors.New("profile: hotel has no BH id yet")

type API interface {
	Hotel(ctx context.Context) (*models.Hotel, error)
	ProviderByBH(ctx context.Context, bh string) (*models.Provider, error)
	SetHotelOnline(ctx context.Context, online bool) error
}

// Profile is the hotel with its provider account.
type Profile struct {
	Hotel    models.Hotel
	Provider models.Provider
}

type Loader struct {
	api    API
	policy retry.Policy
	logger zerolog.Logger

	mu    sync.RWMutex
	hotel *models.Hotel
}

func NewLoader(client API, policy retry.Policy, logger *zerolog.Logger) *Loader {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "profile").Logger()
	}
	return &Loader{api: client, policy: policy, logger: l}
}

// Load fetches the hotel until it carries a BH id, within the retry policy,
// then fetches the provider details. Authentication failures are not retried.
func (l *Loader) Load(ctx context.Context) (*Profile, error) {
	var hotel *models.Hotel
	err := retry.Do(ctx, l.policy, func(ctx context.Context, attempt int) error {
		h, err := l.api.Hotel(ctx)
		if err != nil {
			if errors.Is(err, api.ErrNoToken) || api.StatusOf(err) == http.StatusUnauthorized {
				return retry.Permanent(err)
			}
			l.logger.Debug().Err(err).Int("attempt", attempt).Msg("hotel fetch failed")
			return err
		}
		if !h.HasBH() {
			l.logger.Debug().Int("attempt", attempt).Msg("hotel has no BH id yet")
			return ErrNoBH
		}
		hotel = h
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.hotel = hotel
	l.mu.Unlock()

	provider, err := l.api.ProviderByBH(ctx, hotel.BH)
	if err != nil {
		return nil, fmt.Errorf("provider details for %s: %w", hotel.BH, err)
	}
	return &Profile{Hotel: *hotel, Provider: *provider}, nil
}

// Hotel returns the last loaded hotel, or nil.
func (l *Loader) Hotel() *models.Hotel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.hotel == nil {
		return nil
	}
	h := *l.hotel
	return &h
}

// SetOnline switches the hotel online or offline, updating the loaded
// profile first and restoring it if the server refuses.
func (l *Loader) SetOnline(ctx context.Context, online bool) error {
	return optimistic.Do(ctx, optimistic.Mutation[bool]{
		Get: func() bool {
			l.mu.RLock()
			defer l.mu.RUnlock()
			return l.hotel != nil && l.hotel.IsOnline
		},
		Set: func(v bool) {
			l.mu.Lock()
			defer l.mu.Unlock()
			if l.hotel != nil {
				l.hotel.IsOnline = v
			}
		},
		Commit: l.api.SetHotelOnline,
	}, online)
}
