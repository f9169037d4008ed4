package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"hotelpartner/internal/models"
)

const (
	pathCreateBooking = "/book-room"
	pathVerifyBooking = "/verify-booking"
	pathResendBooking = "/resend-otp-booking"
	pathBookings      = "/get-bookings"
	pathAccept        = "/accept-booking"
	pathCheckIn       = "/mark-check-in-booking"
	pathCheckOut      = "/mark-check-out-booking"
	pathCancel        = "/cancel-booking"
)

// BookingFilter narrows the bookings list. Zero fields are not sent.
type BookingFilter struct {
	Status      string
	PaymentMode models.PaymentMode
	BookingID   string
	GuestPhone  string
	CheckedIn   *bool
	CheckedOut  *bool
	PaymentDone *bool
}

// Values encodes the filter as get-bookings query parameters.
func (f BookingFilter) Values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	setBool := func(key string, b *bool) {
		if b != nil {
			v.Set(key, strconv.FormatBool(*b))
		}
	}
	set("status", f.Status)
	set("paymentMode", string(f.PaymentMode))
	set("Booking_id", f.BookingID)
	set("guestPhone", f.GuestPhone)
	setBool("isUserCheckedIn", f.CheckedIn)
	setBool("userCheckOutStatus", f.CheckedOut)
	setBool("booking_payment_done", f.PaymentDone)
	return v
}

// CreateBooking submits a booking and returns the server's Booking_id, which
// keys the OTP confirmation. idempotencyKey may be empty.
func (c *Client) CreateBooking(ctx context.Context, req models.BookingRequest, idempotencyKey string) (string, error) {
	token, err := c.token(ctx)
	if err != nil {
		return "", err
	}
	var headers http.Header
	if idempotencyKey != "" {
		headers = http.Header{"Idempotency-Key": {idempotencyKey}}
	}
	var resp struct {
		Booking struct {
			BookingID string `json:"Booking_id"`
		} `json:"booking"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+pathCreateBooking, pathCreateBooking, token, headers, req, &resp); err != nil {
		return "", err
	}
	if resp.Booking.BookingID == "" {
		return "", ErrMissingBookingID
	}
	c.invalidate(ctx, pathBookings, pathRooms)
	return resp.Booking.BookingID, nil
}

// VerifyBooking confirms a booking with the OTP sent to the primary guest.
func (c *Client) VerifyBooking(ctx context.Context, bookingID, otp string) error {
	body := map[string]string{"bookingId": bookingID, "otp": otp}
	if err := c.authPost(ctx, pathVerifyBooking, body, nil); err != nil {
		return err
	}
	c.invalidate(ctx, pathBookings, pathRooms)
	return nil
}

// ResendBookingOTP asks the backend to dispatch the booking OTP again.
func (c *Client) ResendBookingOTP(ctx context.Context, bookingID string) error {
	return c.authPost(ctx, pathResendBooking, map[string]string{"bookingId": bookingID}, nil)
}

// Bookings lists the hotel's bookings. Cancelled entries are dropped unless
// the filter asks for them. An empty list is not an error. Only the
// unfiltered list is cached.
func (c *Client) Bookings(ctx context.Context, filter BookingFilter) ([]models.Booking, error) {
	var wrap struct {
		Data    []models.Booking `json:"data"`
		Message string           `json:"message,omitempty"`
	}
	params := filter.Values()

	var err error
	if len(params) == 0 {
		err = c.cachedGet(ctx, pathBookings, &wrap, nil)
	} else {
		var token string
		if token, err = c.token(ctx); err == nil {
			err = c.doJSON(ctx, http.MethodGet, c.baseURL+withQuery(pathBookings, params), pathBookings, token, nil, nil, &wrap)
		}
	}
	if err != nil {
		if MessageOf(err, "") == NoBookingsMessage {
			return []models.Booking{}, nil
		}
		return nil, err
	}
	if wrap.Message == NoBookingsMessage || wrap.Data == nil {
		return []models.Booking{}, nil
	}
	if filter.Status == models.StatusCancelled {
		return wrap.Data, nil
	}
	return models.ActiveBookings(wrap.Data), nil
}

// AcceptBooking confirms a pending booking.
func (c *Client) AcceptBooking(ctx context.Context, bookingID string) error {
	return c.bookingAction(ctx, pathAccept, "", map[string]string{"Booking_id": bookingID}, bookingID)
}

// CheckInBooking marks the guest as checked in.
func (c *Client) CheckInBooking(ctx context.Context, bookingID string) error {
	return c.bookingAction(ctx, pathCheckIn, bookingID, map[string]string{"BookingId": bookingID}, bookingID)
}

// CheckOutBooking marks the guest as checked out.
func (c *Client) CheckOutBooking(ctx context.Context, bookingID string) error {
	return c.bookingAction(ctx, pathCheckOut, bookingID, map[string]string{"BookingId": bookingID}, bookingID)
}

// CancelBooking cancels a booking with the hotel's reason.
func (c *Client) CancelBooking(ctx context.Context, bookingID, reason string) error {
	body := map[string]string{"Booking_id": bookingID, "reason": strings.TrimSpace(reason)}
	return c.bookingAction(ctx, pathCancel, "", body, bookingID)
}

// bookingAction posts a booking state change. queryID, when set, is also sent
// as the BookingId query parameter.
func (c *Client) bookingAction(ctx context.Context, path, queryID string, body any, bookingID string) error {
	if strings.TrimSpace(bookingID) == "" {
		return ErrBookingIDRequired
	}
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	endpoint := path
	if queryID != "" {
		endpoint = withQuery(path, url.Values{"BookingId": {queryID}})
	}
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+endpoint, path, token, nil, body, nil); err != nil {
		return err
	}
	c.invalidate(ctx, pathBookings, pathRooms)
	return nil
}
