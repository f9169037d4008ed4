package models

import "time"

// DateLayout is the calendar date format exchanged with the backend.
const DateLayout = "2006-01-02"

// PaymentMode is how the guest settles the booking.
type PaymentMode string

const (
	PaymentCash   PaymentMode = "Cash"
	PaymentOnline PaymentMode = "Online"
)

// Valid reports whether the mode is one the backend accepts.
func (m PaymentMode) Valid() bool {
	return m == PaymentCash || m == PaymentOnline
}

// Booking statuses reported by the backend.
const (
	StatusPending   = "Pending"
	StatusConfirmed = "Confirmed"
	StatusCancelled = "Cancelled"
	StatusCheckout  = "Checkout"
)

// GuestInfo is one guest entry of a booking.
type GuestInfo struct {
	GuestName  string `json:"guestName"`
	GuestPhone string `json:"guestPhone"`
}

// BookingRequest is the body of the create-booking call: the draft fields
// plus the derived stay length and price.
type BookingRequest struct {
	GuestInformation   []GuestInfo `json:"guestInformation"`
	CheckInDate        string      `json:"checkInDate"`
	CheckOutDate       string      `json:"checkOutDate"`
	Male               int         `json:"male"`
	Females            int         `json:"females"`
	Child              int         `json:"child"`
	ListingID          string      `json:"listing_id"`
	BookingPaymentDone bool        `json:"booking_payment_done"`
	ModeOfBooking      string      `json:"modeOfBooking"`
	BookingAmount      float64     `json:"bookingAmount"`
	NoOfRoomsBook      int         `json:"noOfRoomsBook"`
	AnyDiscountByHotel *float64    `json:"anyDiscountByHotel,omitempty"`
	PaymentMode        PaymentMode `json:"paymentMode"`
	BookingDays        int         `json:"bookingDays"`
	PriceTotal         float64     `json:"priceTotal"`
}

// Booking is an entry of the hotel's booking list.
type Booking struct {
	ID                 string      `json:"_id"`
	BookingID          string      `json:"Booking_id"`
	Status             string      `json:"status"`
	GuestInformation   []GuestInfo `json:"guestInformation"`
	CheckInDate        string      `json:"checkInDate"`
	CheckOutDate       string      `json:"checkOutDate"`
	PaymentMode        string      `json:"paymentMode"`
	NumberOfRoomBooks  int         `json:"NumberOfRoomBooks"`
	BookingAmount      float64     `json:"bookingAmount"`
	BookingPaymentDone bool        `json:"booking_payment_done"`
	UserCheckInStatus  bool        `json:"userCheckInStatus"`
	UserCheckOutStatus bool        `json:"userCheckOutStatus"`
	CreatedAt          *time.Time  `json:"createdAt,omitempty"`
}

// PrimaryGuest returns the first guest entry, which receives the booking OTP.
func (b *Booking) PrimaryGuest() (GuestInfo, bool) {
	if len(b.GuestInformation) == 0 {
		return GuestInfo{}, false
	}
	return b.GuestInformation[0], true
}

// IsCancelled reports whether the backend marked the booking cancelled.
func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// ActiveBookings drops cancelled entries.
func ActiveBookings(bookings []Booking) []Booking {
	active := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		if !b.IsCancelled() {
			active = append(active, b)
		}
	}
	return active
}
