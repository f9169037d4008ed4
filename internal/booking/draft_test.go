package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelpartner/internal/models"
)

var zeroTime time.Time

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRecompute_Pricing(t *testing.T) {
	d := NewDraft()
	d.CheckIn = date(2024, 1, 1)
	d.CheckOut = date(2024, 1, 4)
	d.BookingAmount = 1000

	got := Recompute(d, nil)
	assert.Equal(t, 3, got.BookingDays)
	assert.Equal(t, 3000.0, got.PriceTotal)
}

func TestRecompute_GuestCapacity(t *testing.T) {
	d := NewDraft()
	d.NoOfRoomsBook = 1
	d.Male, d.Females, d.Child = 2, 1, 0
	room := &models.Room{ID: "r1", AllowedPerson: 2}

	got := Recompute(d, room)
	assert.Equal(t, 3, got.TotalGuests)
	assert.Equal(t, 2, got.MaxAllowedGuests)
	assert.False(t, got.IsValidGuests)

	d.NoOfRoomsBook = 2
	got = Recompute(d, room)
	assert.Equal(t, 4, got.MaxAllowedGuests)
	assert.True(t, got.IsValidGuests)
}

func TestRecompute_TimeOfDayIgnored(t *testing.T) {
	d := NewDraft()
	d.CheckIn = time.Date(2024, 1, 1, 18, 30, 0, 0, time.UTC)
	d.CheckOut = time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	d.BookingAmount = 500

	got := Recompute(d, nil)
	assert.Equal(t, 2, got.BookingDays)
	assert.Equal(t, 1000.0, got.PriceTotal)
}

func TestRecompute_MissingOrReversedDates(t *testing.T) {
	d := NewDraft()
	d.BookingAmount = 1000
	assert.Equal(t, 0, Recompute(d, nil).BookingDays)

	d.CheckIn = date(2024, 1, 4)
	d.CheckOut = date(2024, 1, 1)
	got := Recompute(d, nil)
	assert.Equal(t, 0, got.BookingDays)
	assert.Equal(t, 0.0, got.PriceTotal)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-04", date(2024, 1, 4)},
		{"04.01.2024", date(2024, 1, 4)},
		{"4.1.2024", date(2024, 1, 4)},
		{"04/01/2024", date(2024, 1, 4)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got))
		})
	}

	_, err := ParseDate("tomorrow")
	assert.Error(t, err)
}

func TestRequest(t *testing.T) {
	discount := 50.0
	d := NewDraft()
	d.ListingID = "r1"
	d.CheckIn = date(2024, 1, 1)
	d.CheckOut = date(2024, 1, 4)
	d.BookingAmount = 1000
	d.Discount = &discount
	d.Guests = []models.GuestInfo{{GuestName: "Asha", GuestPhone: "9876543210"}}

	req := Request(d, Recompute(d, nil))
	assert.Equal(t, "2024-01-01", req.CheckInDate)
	assert.Equal(t, "2024-01-04", req.CheckOutDate)
	assert.Equal(t, 3, req.BookingDays)
	assert.Equal(t, 3000.0, req.PriceTotal)
	assert.Equal(t, "Offline", req.ModeOfBooking)
	assert.Equal(t, models.PaymentCash, req.PaymentMode)
	require.NotNil(t, req.AnyDiscountByHotel)
	assert.Equal(t, 50.0, *req.AnyDiscountByHotel)
}

func TestClone_Independent(t *testing.T) {
	discount := 10.0
	d := NewDraft()
	d.Discount = &discount
	c := d.Clone()
	c.Guests[0].GuestName = "changed"
	*c.Discount = 20

	assert.Empty(t, d.Guests[0].GuestName)
	assert.Equal(t, 10.0, *d.Discount)
}
