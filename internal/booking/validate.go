package booking

import (
	"strings"

	"hotelpartner/internal/validation"
)

// Rule numbers follow the order in which they are checked.
type Rule int

const (
	RuleRoomSelected Rule = iota + 1
	RuleCheckInSet
	RuleCheckOutSet
	RuleGuestsComplete
	RuleGuestPhones
	RuleStayLength
	RuleCapacity
)

// Messages shown to the user.
const (
	MsgSelectRoom       = "Please select a room"
	MsgSelectCheckIn    = "Please select a check-in date"
	MsgSelectCheckOut   = "Please select a check-out date"
	MsgFillGuests       = "Please fill in all guest information"
	MsgGuestPhones      = "Please enter valid 10-digit phone numbers for all guests"
	MsgCheckOutAfter    = "Check-out date must be after check-in date"
	MsgCapacityExceeded = "Please add more rooms or reduce the number of guests"
	MsgGuestRequired    = "At least one guest is required"
)

// ValidationError reports the first failing rule.
type ValidationError struct {
	Rule    Rule
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var validate = validation.New()

// Validate checks d in rule order and returns the first failure. The capacity
// rule only applies when enforceCapacity is set; otherwise exceeding capacity
// stays a warning.
func Validate(d Draft, derived Derived, enforceCapacity bool) error {
	if !validate.OK(d.ListingID, "required") {
		return &ValidationError{Rule: RuleRoomSelected, Message: MsgSelectRoom}
	}
	if d.CheckIn.IsZero() {
		return &ValidationError{Rule: RuleCheckInSet, Message: MsgSelectCheckIn}
	}
	if d.CheckOut.IsZero() {
		return &ValidationError{Rule: RuleCheckOutSet, Message: MsgSelectCheckOut}
	}
	if len(d.Guests) == 0 {
		return &ValidationError{Rule: RuleGuestsComplete, Message: MsgGuestRequired}
	}
	for _, g := range d.Guests {
		if !validate.OK(strings.TrimSpace(g.GuestName), "required") || !validate.OK(g.GuestPhone, "required") {
			return &ValidationError{Rule: RuleGuestsComplete, Message: MsgFillGuests}
		}
	}
	for _, g := range d.Guests {
		if !validate.OK(g.GuestPhone, "phone10") {
			return &ValidationError{Rule: RuleGuestPhones, Message: MsgGuestPhones}
		}
	}
	if !NormalizeDate(d.CheckOut).After(NormalizeDate(d.CheckIn)) {
		return &ValidationError{Rule: RuleStayLength, Message: MsgCheckOutAfter}
	}
	if enforceCapacity && !derived.IsValidGuests {
		return &ValidationError{Rule: RuleCapacity, Message: MsgCapacityExceeded}
	}
	return nil
}
