package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hotelpartner/internal/models"
)

func TestDialog_HappyPath(t *testing.T) {
	f := newFixture(t)
	f.api.On("Rooms", mock.Anything).Return(testRooms, nil)
	f.api.On("CreateBooking", mock.Anything, mock.MatchedBy(func(req models.BookingRequest) bool {
		return req.ListingID == "r3" && req.BookingDays == 2 && req.PriceTotal == 5000 &&
			len(req.GuestInformation) == 2 && req.PaymentMode == models.PaymentOnline && req.BookingPaymentDone
	}), mock.Anything).Return("BK-7", nil)
	f.api.On("VerifyBooking", mock.Anything, "BK-7", "4321").Return(nil)

	d := NewDialog(f.wf)
	ctx := context.Background()

	res := d.Start(ctx)
	require.NoError(t, res.Error)
	assert.Equal(t, StepRoom, res.Step)
	assert.Contains(t, res.Message, "1. Deluxe")
	assert.Contains(t, res.Message, "2. Family")
	assert.NotContains(t, res.Message, "Suite")

	steps := []struct {
		input string
		want  Step
	}{
		{"family", StepCheckIn},
		{"2024-03-10", StepCheckOut},
		{"12.03.2024", StepRoomCount},
		{"1", StepGuestCounts},
		{"2 1 1", StepGuestName},
		{"Asha Rao", StepGuestPhone},
		{"9876543210", StepMoreGuests},
		{"yes", StepGuestName},
		{"Ravi Rao", StepGuestPhone},
		{"9876500000", StepMoreGuests},
		{"no", StepAmount},
		{"2500", StepDiscount},
		{"", StepPayment},
		{"online", StepPaymentDone},
		{"yes", StepConfirm},
		{"yes", StepOTP},
		{"4321", StepDone},
	}
	for _, s := range steps {
		res = d.HandleInput(ctx, s.input)
		require.NoError(t, res.Error, "input %q", s.input)
		require.Equal(t, s.want, res.Step, "input %q: %s", s.input, res.Message)
	}
	assert.Equal(t, StateCompleted, f.wf.State())
}

func TestDialog_RejectsBadInputInPlace(t *testing.T) {
	f := newFixture(t)
	f.api.On("Rooms", mock.Anything).Return(testRooms, nil)
	d := NewDialog(f.wf)
	ctx := context.Background()
	d.Start(ctx)

	res := d.HandleInput(ctx, "9")
	assert.Equal(t, StepRoom, res.Step)

	d.HandleInput(ctx, "1")
	d.HandleInput(ctx, "2024-03-10")
	res = d.HandleInput(ctx, "2024-03-10")
	assert.Equal(t, StepCheckOut, res.Step)
	assert.Contains(t, res.Message, MsgCheckOutAfter)

	d.HandleInput(ctx, "2024-03-11")
	res = d.HandleInput(ctx, "0")
	assert.Equal(t, StepRoomCount, res.Step)

	d.HandleInput(ctx, "1")
	res = d.HandleInput(ctx, "3 0 0")
	assert.Equal(t, StepGuestName, res.Step)
	assert.Contains(t, res.Message, MsgCapacityExceeded)

	d.HandleInput(ctx, "Asha")
	res = d.HandleInput(ctx, "12345")
	assert.Equal(t, StepGuestPhone, res.Step)
	assert.Equal(t, MsgGuestPhones, res.Message)
}

func TestDialog_BackAndCancel(t *testing.T) {
	f := newFixture(t)
	f.api.On("Rooms", mock.Anything).Return(testRooms, nil)
	d := NewDialog(f.wf)
	ctx := context.Background()
	d.Start(ctx)

	d.HandleInput(ctx, "1")
	res := d.HandleInput(ctx, "/back")
	assert.Equal(t, StepRoom, res.Step)

	res = d.HandleInput(ctx, "/back")
	assert.Equal(t, StepRoom, res.Step, "nothing before the first step")

	res = d.HandleInput(ctx, "/cancel")
	assert.Equal(t, StepCanceled, res.Step)
	assert.Equal(t, StateAbandoned, f.wf.State())
}

func TestDialog_CapacityFailureSendsBackToRoomCount(t *testing.T) {
	f := newFixture(t)
	f.api.On("Rooms", mock.Anything).Return(testRooms, nil)
	d := NewDialog(f.wf)
	ctx := context.Background()
	d.Start(ctx)

	for _, in := range []string{"1", "2024-03-10", "2024-03-11", "1", "3 0 0", "Asha", "9876543210", "no", "", "", "cash", "no"} {
		d.HandleInput(ctx, in)
	}
	require.Equal(t, StepConfirm, d.Step())

	res := d.HandleInput(ctx, "yes")
	assert.Equal(t, StepRoomCount, res.Step)
	assert.Contains(t, res.Message, MsgCapacityExceeded)
	f.api.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything, mock.Anything)

	res = d.HandleInput(ctx, "2")
	assert.Equal(t, StepGuestCounts, res.Step)
}

func TestDialog_NoRooms(t *testing.T) {
	f := newFixture(t)
	f.api.On("Rooms", mock.Anything).Return([]models.Room{{ID: "x", IsRoomAvailable: false}}, nil)

	res := NewDialog(f.wf).Start(context.Background())
	assert.ErrorIs(t, res.Error, ErrNoAvailableRooms)
	assert.Equal(t, MsgNoAvailableRooms, res.Message)
}

func TestFormatSummary(t *testing.T) {
	f := newFixture(t)
	f.fill(t)

	s := FormatSummary(f.wf.View())
	assert.Contains(t, s, "Room: Deluxe x 1")
	assert.Contains(t, s, "2024-01-01 -> 2024-01-04 (3 day(s))")
	assert.Contains(t, s, "Price: 1000.00 x 3 = 3000.00")
	assert.Contains(t, s, "Asha 9876543210")
}

func TestDialog_StaysWhenEditRefused(t *testing.T) {
	f := newFixture(t)
	f.api.On("Rooms", mock.Anything).Return(testRooms, nil)
	f.api.On("CreateBooking", mock.Anything, mock.Anything, mock.Anything).Return("BK-3", nil)

	d := NewDialog(f.wf)
	ctx := context.Background()
	d.Start(ctx)
	res := d.HandleInput(ctx, "deluxe")
	require.Equal(t, StepCheckIn, res.Step)

	// the same attempt gets submitted elsewhere, which freezes the draft
	require.NoError(t, f.wf.SetCheckIn(date(2024, 1, 1)))
	require.NoError(t, f.wf.SetCheckOut(date(2024, 1, 3)))
	require.NoError(t, f.wf.UpdateGuest(0, "Asha", "9876543210"))
	_, err := f.wf.Submit(ctx)
	require.NoError(t, err)

	res = d.HandleInput(ctx, "2024-02-01")
	assert.ErrorIs(t, res.Error, ErrNotEditable)
	assert.Equal(t, StepCheckIn, res.Step)
	assert.Equal(t, MsgNotEditable, res.Message)
	assert.Equal(t, date(2024, 1, 1), f.wf.View().Draft.CheckIn)
}
