package bookings

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hotelpartner/internal/api"
	"hotelpartner/internal/events"
	"hotelpartner/internal/models"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Bookings(ctx context.Context, filter api.BookingFilter) ([]models.Booking, error) {
	args := m.Called(ctx, filter)
	list, _ := args.Get(0).([]models.Booking)
	return list, args.Error(1)
}

func (m *mockAPI) AcceptBooking(ctx context.Context, bookingID string) error {
	return m.Called(ctx, bookingID).Error(0)
}

func (m *mockAPI) CheckInBooking(ctx context.Context, bookingID string) error {
	return m.Called(ctx, bookingID).Error(0)
}

func (m *mockAPI) CheckOutBooking(ctx context.Context, bookingID string) error {
	return m.Called(ctx, bookingID).Error(0)
}

func (m *mockAPI) CancelBooking(ctx context.Context, bookingID, reason string) error {
	return m.Called(ctx, bookingID, reason).Error(0)
}

type recordingPublisher struct {
	types    []string
	payloads []any
}

func (r *recordingPublisher) PublishJSON(eventType string, payload any) {
	r.types = append(r.types, eventType)
	r.payloads = append(r.payloads, payload)
}

func TestList_RemembersFilter(t *testing.T) {
	client := new(mockAPI)
	filter := api.BookingFilter{Status: models.StatusPending}
	client.On("Bookings", mock.Anything, filter).Return([]models.Booking{{BookingID: "A"}}, nil)
	client.On("AcceptBooking", mock.Anything, "A").Return(nil)
	m := NewManager(client, nil, nil)

	list, err := m.List(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = m.Accept(context.Background(), "A")
	require.NoError(t, err)
	client.AssertNumberOfCalls(t, "Bookings", 2)
}

func TestList_Failure(t *testing.T) {
	client := new(mockAPI)
	client.On("Bookings", mock.Anything, api.BookingFilter{}).Return(nil, &api.Error{Status: http.StatusInternalServerError})
	m := NewManager(client, nil, nil)

	_, err := m.List(context.Background(), api.BookingFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), MsgFetchFailed)
	assert.Equal(t, http.StatusInternalServerError, api.StatusOf(err))
}

func TestActions_RefetchAndPublish(t *testing.T) {
	after := []models.Booking{{BookingID: "B1", Status: models.StatusConfirmed}}
	tests := []struct {
		name    string
		run     func(m *Manager) (Result, error)
		setup   func(c *mockAPI)
		event   string
		message string
	}{
		{
			name:    "accept",
			run:     func(m *Manager) (Result, error) { return m.Accept(context.Background(), "B1") },
			setup:   func(c *mockAPI) { c.On("AcceptBooking", mock.Anything, "B1").Return(nil) },
			event:   events.TypeBookingAccepted,
			message: MsgAccepted,
		},
		{
			name:    "check in",
			run:     func(m *Manager) (Result, error) { return m.CheckIn(context.Background(), " B1 ") },
			setup:   func(c *mockAPI) { c.On("CheckInBooking", mock.Anything, "B1").Return(nil) },
			event:   events.TypeBookingCheckedIn,
			message: "Booking ID: B1 checked in successfully.",
		},
		{
			name:    "check out",
			run:     func(m *Manager) (Result, error) { return m.CheckOut(context.Background(), "B1") },
			setup:   func(c *mockAPI) { c.On("CheckOutBooking", mock.Anything, "B1").Return(nil) },
			event:   events.TypeBookingCheckedOut,
			message: "Booking ID: B1 checked out successfully.",
		},
		{
			name:    "cancel",
			run:     func(m *Manager) (Result, error) { return m.Cancel(context.Background(), "B1", " guest asked ") },
			setup:   func(c *mockAPI) { c.On("CancelBooking", mock.Anything, "B1", "guest asked").Return(nil) },
			event:   events.TypeBookingCancelled,
			message: MsgCancelled,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(mockAPI)
			tt.setup(client)
			client.On("Bookings", mock.Anything, api.BookingFilter{}).Return(after, nil)
			pub := &recordingPublisher{}
			m := NewManager(client, pub, nil)

			res, err := tt.run(m)
			require.NoError(t, err)
			assert.Equal(t, tt.message, res.Message)
			assert.Equal(t, after, res.List)
			assert.NoError(t, res.RefreshErr)
			assert.Equal(t, after, m.Bookings())
			assert.Equal(t, []string{tt.event}, pub.types)
			client.AssertExpectations(t)
		})
	}
}

func TestCancel_ReasonRequired(t *testing.T) {
	client := new(mockAPI)
	m := NewManager(client, nil, nil)

	for _, reason := range []string{"", "   "} {
		res, err := m.Cancel(context.Background(), "B1", reason)
		assert.ErrorIs(t, err, ErrReasonRequired)
		assert.Equal(t, MsgReasonRequired, res.Message)
	}
	client.AssertNotCalled(t, "CancelBooking", mock.Anything, mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "Bookings", mock.Anything, mock.Anything)
}

func TestAction_ServerRefusal(t *testing.T) {
	client := new(mockAPI)
	client.On("AcceptBooking", mock.Anything, "B1").Return(&api.Error{Status: http.StatusBadRequest, Message: "Booking already confirmed"})
	pub := &recordingPublisher{}
	m := NewManager(client, pub, nil)

	res, err := m.Accept(context.Background(), "B1")
	require.Error(t, err)
	assert.Equal(t, "Booking already confirmed", res.Message)
	assert.Empty(t, pub.types)
	client.AssertNotCalled(t, "Bookings", mock.Anything, mock.Anything)

	client.On("CheckInBooking", mock.Anything, "B2").Return(errors.New("connection reset"))
	res, err = m.CheckIn(context.Background(), "B2")
	require.Error(t, err)
	assert.Equal(t, MsgActionFailed, res.Message)
}

func TestAction_RefreshFailureKeepsSuccess(t *testing.T) {
	client := new(mockAPI)
	client.On("CheckOutBooking", mock.Anything, "B1").Return(nil)
	client.On("Bookings", mock.Anything, api.BookingFilter{}).Return(nil, errors.New("timeout"))
	m := NewManager(client, nil, nil)

	res, err := m.CheckOut(context.Background(), "B1")
	require.NoError(t, err)
	assert.Equal(t, "Booking ID: B1 checked out successfully.", res.Message)
	assert.Nil(t, res.List)
	assert.Error(t, res.RefreshErr)
}
