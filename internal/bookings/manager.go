// Package bookings lists the hotel's bookings and applies the partner-side
// state changes: accept, check-in, check-out and cancel.
package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"hotelpartner/internal/api"
	"hotelpartner/internal/events"
	"hotelpartner/internal/models"
)

// Messages shown to the partner.
const (
	MsgReasonRequired = "Please provide a reason for cancellation."
	MsgAccepted       = "Your booking has been successfully Confirmed."
	MsgCancelled      = "Your booking has been successfully cancelled."
	MsgCheckedIn      = "Booking ID: %s checked in successfully."
	MsgCheckedOut     = "Booking ID: %s checked out successfully."
	MsgActionFailed   = "Something went wrong."
	MsgFetchFailed    = "Failed to fetch bookings"
)

var ErrReasonRequired = errors.New(MsgReasonRequired)

type API interface {
	Bookings(ctx context.Context, filter api.BookingFilter) ([]models.Booking, error)
	AcceptBooking(ctx context.Context, bookingID string) error
	CheckInBooking(ctx context.Context, bookingID string) error
	CheckOutBooking(ctx context.Context, bookingID string) error
	CancelBooking(ctx context.Context, bookingID, reason string) error
}

// Result is the outcome of an action. List is the re-fetched booking list;
// it is nil when the re-fetch failed, in which case RefreshErr is set.
type Result struct {
	Message    string
	List       []models.Booking
	RefreshErr error
}

// Manager holds the last fetched list and the filter it was fetched with.
type Manager struct {
	api       API
	publisher events.Publisher
	logger    zerolog.Logger

	mu     sync.RWMutex
	filter api.BookingFilter
	list   []models.Booking
}

func NewManager(client API, publisher events.Publisher, logger *zerolog.Logger) *Manager {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "bookings").Logger()
	}
	return &Manager{api: client, publisher: publisher, logger: l}
}

// List fetches bookings matching filter and remembers the filter for the
// re-fetch after an action.
func (m *Manager) List(ctx context.Context, filter api.BookingFilter) ([]models.Booking, error) {
	m.mu.Lock()
	m.filter = filter
	m.mu.Unlock()
	return m.refresh(ctx)
}

// Bookings returns a copy of the last fetched list.
func (m *Manager) Bookings() []models.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Booking(nil), m.list...)
}

func (m *Manager) refresh(ctx context.Context) ([]models.Booking, error) {
	m.mu.RLock()
	filter := m.filter
	m.mu.RUnlock()

	list, err := m.api.Bookings(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", MsgFetchFailed, err)
	}
	m.mu.Lock()
	m.list = append([]models.Booking(nil), list...)
	m.mu.Unlock()
	return m.Bookings(), nil
}

// Accept confirms a pending booking.
func (m *Manager) Accept(ctx context.Context, bookingID string) (Result, error) {
	return m.apply(ctx, events.TypeBookingAccepted, bookingID, "", MsgAccepted, m.api.AcceptBooking)
}

// CheckIn marks the guest as arrived.
func (m *Manager) CheckIn(ctx context.Context, bookingID string) (Result, error) {
	return m.apply(ctx, events.TypeBookingCheckedIn, bookingID, "", fmt.Sprintf(MsgCheckedIn, bookingID), m.api.CheckInBooking)
}

// CheckOut marks the guest as departed.
func (m *Manager) CheckOut(ctx context.Context, bookingID string) (Result, error) {
	return m.apply(ctx, events.TypeBookingCheckedOut, bookingID, "", fmt.Sprintf(MsgCheckedOut, bookingID), m.api.CheckOutBooking)
}

// Cancel cancels a booking. A blank reason is refused before any request.
func (m *Manager) Cancel(ctx context.Context, bookingID, reason string) (Result, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Result{Message: MsgReasonRequired}, ErrReasonRequired
	}
	commit := func(ctx context.Context, id string) error {
		return m.api.CancelBooking(ctx, id, reason)
	}
	return m.apply(ctx, events.TypeBookingCancelled, bookingID, reason, MsgCancelled, commit)
}

func (m *Manager) apply(
	ctx context.Context,
	eventType, bookingID, reason, okMsg string,
	commit func(context.Context, string) error,
) (Result, error) {
	bookingID = strings.TrimSpace(bookingID)
	if err := commit(ctx, bookingID); err != nil {
		m.logger.Warn().Err(err).Str("booking_id", bookingID).Str("action", eventType).Msg("booking action failed")
		return Result{Message: api.MessageOf(err, MsgActionFailed)}, err
	}
	m.logger.Info().Str("booking_id", bookingID).Str("action", eventType).Msg("booking updated")

	if m.publisher != nil {
		payload := map[string]string{"bookingId": bookingID}
		if reason != "" {
			payload["reason"] = reason
		}
		m.publisher.PublishJSON(eventType, payload)
	}

	res := Result{Message: okMsg}
	res.List, res.RefreshErr = m.refresh(ctx)
	if res.RefreshErr != nil {
		m.logger.Warn().Err(res.RefreshErr).Msg("bookings refresh after action failed")
	}
	return res, nil
}
