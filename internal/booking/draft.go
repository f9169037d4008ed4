// Package booking drives one booking-creation attempt: room selection, the
// editable draft with its derived stay length and price, ordered validation,
// submission and OTP confirmation.
package booking

import (
	"fmt"
	"strings"
	"time"

	"hotelpartner/internal/models"
)

const modeOfBookingOffline = "Offline"

// Draft is the in-progress booking form. Zero CheckIn/CheckOut mean unset.
type Draft struct {
	ListingID     string
	CheckIn       time.Time
	CheckOut      time.Time
	NoOfRoomsBook int
	Male          int
	Females       int
	Child         int
	Guests        []models.GuestInfo
	BookingAmount float64
	Discount      *float64
	PaymentMode   models.PaymentMode
	PaymentDone   bool
	ModeOfBooking string
}

// NewDraft returns the initial form: one blank guest, one room, cash.
func NewDraft() Draft {
	return Draft{
		NoOfRoomsBook: 1,
		Guests:        []models.GuestInfo{{}},
		PaymentMode:   models.PaymentCash,
		ModeOfBooking: modeOfBookingOffline,
	}
}

// Clone deep-copies the draft.
func (d Draft) Clone() Draft {
	out := d
	out.Guests = append([]models.GuestInfo(nil), d.Guests...)
	if d.Discount != nil {
		v := *d.Discount
		out.Discount = &v
	}
	return out
}

// TotalGuests is male + females + child.
func (d Draft) TotalGuests() int {
	return d.Male + d.Females + d.Child
}

// Derived holds the values computed from a draft and its selected room.
type Derived struct {
	BookingDays      int
	TotalGuests      int
	MaxAllowedGuests int
	IsValidGuests    bool
	PriceTotal       float64
}

// Recompute derives stay length, capacity and price. It is pure; callers run
// it after every draft mutation. room may be nil before selection.
func Recompute(d Draft, room *models.Room) Derived {
	out := Derived{TotalGuests: d.TotalGuests()}

	if !d.CheckIn.IsZero() && !d.CheckOut.IsZero() {
		days := int(NormalizeDate(d.CheckOut).Sub(NormalizeDate(d.CheckIn)) / (24 * time.Hour))
		if days > 0 {
			out.BookingDays = days
		}
	}
	if room != nil {
		out.MaxAllowedGuests = d.NoOfRoomsBook * room.AllowedPerson
	}
	out.IsValidGuests = out.TotalGuests <= out.MaxAllowedGuests
	out.PriceTotal = d.BookingAmount * float64(out.BookingDays)
	return out
}

// NormalizeDate keeps only the calendar date of t, at midnight UTC.
func NormalizeDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

var dateFormats = []string{
	models.DateLayout,
	"02.01.2006",
	"2.1.2006",
	"02-01-2006",
	"02/01/2006",
}

// ParseDate accepts the common day-first formats and ISO dates.
func ParseDate(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	for _, format := range dateFormats {
		if t, err := time.Parse(format, input); err == nil {
			return NormalizeDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse date: %s", input)
}

// Request builds the create-booking body from a draft and its derived values.
func Request(d Draft, derived Derived) models.BookingRequest {
	return models.BookingRequest{
		GuestInformation:   append([]models.GuestInfo(nil), d.Guests...),
		CheckInDate:        formatDate(d.CheckIn),
		CheckOutDate:       formatDate(d.CheckOut),
		Male:               d.Male,
		Females:            d.Females,
		Child:              d.Child,
		ListingID:          d.ListingID,
		BookingPaymentDone: d.PaymentDone,
		ModeOfBooking:      d.ModeOfBooking,
		BookingAmount:      d.BookingAmount,
		NoOfRoomsBook:      d.NoOfRoomsBook,
		AnyDiscountByHotel: d.Discount,
		PaymentMode:        d.PaymentMode,
		BookingDays:        derived.BookingDays,
		PriceTotal:         derived.PriceTotal,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return NormalizeDate(t).Format(models.DateLayout)
}
