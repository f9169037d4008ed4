package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hotelpartner/internal/models"
)

func TestBookings(t *testing.T) {
	bookings := []models.Booking{
		{
			BookingID: "BK1", Status: models.StatusConfirmed,
			GuestInformation: []models.GuestInfo{{GuestName: "Asha", GuestPhone: "9876543210"}, {GuestName: "Ravi"}},
			CheckInDate:      "2024-01-01", CheckOutDate: "2024-01-04",
			NumberOfRoomBooks: 1, BookingAmount: 3000, PaymentMode: "Cash", BookingPaymentDone: true,
		},
		{BookingID: "BK2", Status: models.StatusPending},
	}

	var buf bytes.Buffer
	require.NoError(t, Bookings(&buf, bookings))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "BK1", rows[1][0])
	assert.Equal(t, "Asha, Ravi", rows[1][2])
	assert.Equal(t, "9876543210", rows[1][3])
	assert.Equal(t, "3000", rows[1][8])
	assert.Equal(t, "yes", rows[1][10])
	assert.Equal(t, "BK2", rows[2][0])
	assert.Equal(t, "", rows[2][3])
}

func TestBookingsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Bookings(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
