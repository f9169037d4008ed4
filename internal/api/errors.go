package api

import (
	"errors"
	"fmt"
)

// NoRoomsMessage is what the backend answers when the hotel has never
// configured a room, as opposed to a failed request.
const NoRoomsMessage = "No rooms found for this user."

// NoBookingsMessage is the backend's answer for an empty booking list.
const NoBookingsMessage = "No bookings found matching the criteria"

var (
	ErrNoRoomsConfigured = errors.New("api: no rooms configured")
	ErrNoToken           = errors.New("api: not logged in")
	ErrMissingBookingID  = errors.New("api: response carried no booking id")
	ErrMissingToken      = errors.New("api: response carried no token")
	ErrBookingIDRequired = errors.New("api: booking id required")
)

// Error is a non-2xx answer from the backend.
type Error struct {
	Status  int
	Message string
	// BhID is set on login 403 answers that require a hotel listing first.
	BhID string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Status
	}
	return 0
}

// MessageOf returns the server-supplied message when err carries one and
// fallback otherwise.
func MessageOf(err error, fallback string) string {
	if apiErr, ok := AsError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
