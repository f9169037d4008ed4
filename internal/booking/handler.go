package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"hotelpartner/internal/api"
	"hotelpartner/internal/models"
)

// Step is the dialog question currently asked. Several steps map onto the
// workflow's FillingDetails state.
type Step string

const (
	StepRoom        Step = "room"
	StepCheckIn     Step = "check_in"
	StepCheckOut    Step = "check_out"
	StepRoomCount   Step = "room_count"
	StepGuestCounts Step = "guest_counts"
	StepGuestName   Step = "guest_name"
	StepGuestPhone  Step = "guest_phone"
	StepMoreGuests  Step = "more_guests"
	StepAmount      Step = "amount"
	StepDiscount    Step = "discount"
	StepPayment     Step = "payment"
	StepPaymentDone Step = "payment_done"
	StepConfirm     Step = "confirm"
	StepOTP         Step = "otp"
	StepDone        Step = "done"
	StepCanceled    Step = "canceled"
)

// StepPrompts are the questions for each step.
var StepPrompts = map[Step]string{
	StepRoom:        "Select a room (number or room type):",
	StepCheckIn:     "Check-in date (YYYY-MM-DD or DD.MM.YYYY):",
	StepCheckOut:    "Check-out date (YYYY-MM-DD or DD.MM.YYYY):",
	StepRoomCount:   "Number of rooms:",
	StepGuestCounts: "Guests as \"male females children\" (e.g. 2 1 0):",
	StepGuestName:   "Guest name:",
	StepGuestPhone:  "Guest phone (10 digits):",
	StepMoreGuests:  "Add another guest? (yes/no)",
	StepAmount:      "Price per day (empty keeps the room price):",
	StepDiscount:    "Discount by hotel (empty for none):",
	StepPayment:     "Payment mode (cash/online):",
	StepPaymentDone: "Has the guest already paid? (yes/no)",
	StepOTP:         "Enter the OTP sent to the guest (or \"resend\"):",
	StepDone:        MsgVerified,
	StepCanceled:    "Booking cancelled.",
}

// TransitionResult contains the result of processing input.
type TransitionResult struct {
	Step    Step
	Message string
	Error   error
}

// Dialog walks a Workflow through text input, one question at a time.
type Dialog struct {
	wf *Workflow

	mu       sync.Mutex
	step     Step
	guestIdx int
}

func NewDialog(wf *Workflow) *Dialog {
	return &Dialog{wf: wf, step: StepRoom}
}

// Step returns the current question.
func (d *Dialog) Step() Step {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.step
}

// Start loads rooms and returns the first prompt.
func (d *Dialog) Start(ctx context.Context) TransitionResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	rooms, err := d.wf.LoadRooms(ctx)
	if err != nil {
		d.step = StepCanceled
		d.wf.Close()
		return TransitionResult{Step: StepCanceled, Message: d.wf.View().Banner.Error, Error: err}
	}
	d.step = StepRoom
	return TransitionResult{Step: StepRoom, Message: FormatRooms(rooms) + "\n" + StepPrompts[StepRoom]}
}

// HandleInput processes one line of user input.
func (d *Dialog) HandleInput(ctx context.Context, input string) TransitionResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	input = strings.TrimSpace(input)
	lower := strings.ToLower(input)

	if lower == "/cancel" {
		d.wf.Close()
		d.step = StepCanceled
		return TransitionResult{Step: StepCanceled, Message: StepPrompts[StepCanceled]}
	}
	if lower == "/back" {
		return d.handleBack()
	}

	switch d.step {
	case StepRoom:
		return d.handleRoom(input)
	case StepCheckIn:
		return d.handleDate(input, true)
	case StepCheckOut:
		return d.handleDate(input, false)
	case StepRoomCount:
		return d.handleRoomCount(input)
	case StepGuestCounts:
		return d.handleGuestCounts(input)
	case StepGuestName:
		return d.handleGuestName(input)
	case StepGuestPhone:
		return d.handleGuestPhone(input)
	case StepMoreGuests:
		return d.handleMoreGuests(lower)
	case StepAmount:
		return d.handleAmount(input)
	case StepDiscount:
		return d.handleDiscount(input)
	case StepPayment:
		return d.handlePayment(lower)
	case StepPaymentDone:
		return d.handlePaymentDone(lower)
	case StepConfirm:
		return d.handleConfirm(ctx, lower)
	case StepOTP:
		return d.handleOTP(ctx, input)
	default:
		return TransitionResult{
			Step:    d.step,
			Message: "This booking is finished. Start a new one.",
			Error:   fmt.Errorf("unknown step: %s", d.step),
		}
	}
}

var previousStep = map[Step]Step{
	StepCheckIn:     StepRoom,
	StepCheckOut:    StepCheckIn,
	StepRoomCount:   StepCheckOut,
	StepGuestCounts: StepRoomCount,
	StepGuestName:   StepGuestCounts,
	StepGuestPhone:  StepGuestName,
	StepMoreGuests:  StepGuestPhone,
	StepAmount:      StepMoreGuests,
	StepDiscount:    StepAmount,
	StepPayment:     StepDiscount,
	StepPaymentDone: StepPayment,
	StepConfirm:     StepPaymentDone,
}

func (d *Dialog) handleBack() TransitionResult {
	prev, ok := previousStep[d.step]
	if !ok {
		return d.stay("Cannot go back from here.")
	}
	if d.step == StepGuestName && d.guestIdx > 0 {
		d.guestIdx--
		prev = StepGuestPhone
	}
	return d.moveTo(prev, "")
}

func (d *Dialog) moveTo(step Step, prefix string) TransitionResult {
	d.step = step
	msg := StepPrompts[step]
	if step == StepGuestName || step == StepGuestPhone {
		msg = fmt.Sprintf("Guest %d - %s", d.guestIdx+1, msg)
	}
	if step == StepConfirm {
		msg = FormatSummary(d.wf.View()) + "\nSubmit booking? (yes/no)"
	}
	if prefix != "" {
		msg = prefix + "\n" + msg
	}
	return TransitionResult{Step: step, Message: msg}
}

func (d *Dialog) stay(msg string) TransitionResult {
	return TransitionResult{Step: d.step, Message: msg}
}

// refused keeps the current step when the workflow rejects an edit.
func (d *Dialog) refused(err error) TransitionResult {
	msg := "Could not apply that change."
	switch {
	case errors.Is(err, ErrNotEditable):
		msg = MsgNotEditable
	case errors.Is(err, ErrInvalidInput):
		msg = strings.TrimPrefix(err.Error(), ErrInvalidInput.Error()+": ")
	}
	return TransitionResult{Step: d.step, Message: msg, Error: err}
}

func (d *Dialog) handleRoom(input string) TransitionResult {
	room, ok := matchRoom(d.wf.View().Rooms, input)
	if !ok {
		return d.stay("Choose a room from the list by number or type.")
	}
	if err := d.wf.SelectRoom(room.ID); err != nil {
		return TransitionResult{Step: d.step, Message: "Could not select that room.", Error: err}
	}
	return d.moveTo(StepCheckIn, fmt.Sprintf("Selected %s at %.2f per day.", room.Label(), room.BookPrice))
}

func matchRoom(rooms []models.Room, input string) (models.Room, bool) {
	if n, err := strconv.Atoi(input); err == nil && n > 0 && n <= len(rooms) {
		return rooms[n-1], true
	}
	needle := strings.ToLower(input)
	if needle == "" {
		return models.Room{}, false
	}
	for _, r := range rooms {
		if strings.ToLower(r.RoomType) == needle || r.ID == input {
			return r, true
		}
	}
	for _, r := range rooms {
		if strings.Contains(strings.ToLower(r.RoomType), needle) {
			return r, true
		}
	}
	return models.Room{}, false
}

func (d *Dialog) handleDate(input string, checkIn bool) TransitionResult {
	date, err := ParseDate(input)
	if err != nil {
		return d.stay("Invalid date format. Use YYYY-MM-DD or DD.MM.YYYY.")
	}
	if checkIn {
		if err := d.wf.SetCheckIn(date); err != nil {
			return d.refused(err)
		}
		return d.moveTo(StepCheckOut, "")
	}
	view := d.wf.View()
	if !view.Draft.CheckIn.IsZero() && !date.After(view.Draft.CheckIn) {
		return d.stay(MsgCheckOutAfter)
	}
	if err := d.wf.SetCheckOut(date); err != nil {
		return d.refused(err)
	}
	days := d.wf.View().Derived.BookingDays
	return d.moveTo(StepRoomCount, fmt.Sprintf("Stay: %d day(s).", days))
}

func (d *Dialog) handleRoomCount(input string) TransitionResult {
	n, err := strconv.Atoi(input)
	if err != nil || d.wf.SetRoomCount(n) != nil {
		return d.stay("Enter a whole number of rooms, at least 1.")
	}
	view := d.wf.View()
	return d.moveTo(StepGuestCounts, fmt.Sprintf("Your selection: %d room(s) - maximum %d guests.", n, view.Derived.MaxAllowedGuests))
}

func (d *Dialog) handleGuestCounts(input string) TransitionResult {
	fields := strings.Fields(input)
	if len(fields) != 3 {
		return d.stay(StepPrompts[StepGuestCounts])
	}
	counts := make([]int, 3)
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return d.stay(StepPrompts[StepGuestCounts])
		}
		counts[i] = n
	}
	if err := d.wf.SetGuestCounts(counts[0], counts[1], counts[2]); err != nil {
		return d.refused(err)
	}

	view := d.wf.View()
	prefix := fmt.Sprintf("Total guests: %d.", view.Derived.TotalGuests)
	if view.CapacityWarning != "" {
		prefix += " " + view.CapacityWarning + "."
	}
	d.guestIdx = 0
	return d.moveTo(StepGuestName, prefix)
}

func (d *Dialog) handleGuestName(input string) TransitionResult {
	if input == "" {
		return d.stay(MsgFillGuests)
	}
	guest := d.currentGuest()
	if err := d.wf.UpdateGuest(d.guestIdx, input, guest.GuestPhone); err != nil {
		return d.refused(err)
	}
	return d.moveTo(StepGuestPhone, "")
}

func (d *Dialog) handleGuestPhone(input string) TransitionResult {
	if !validate.OK(input, "phone10") {
		return d.stay(MsgGuestPhones)
	}
	guest := d.currentGuest()
	if err := d.wf.UpdateGuest(d.guestIdx, guest.GuestName, input); err != nil {
		return d.refused(err)
	}
	return d.moveTo(StepMoreGuests, "")
}

func (d *Dialog) currentGuest() models.GuestInfo {
	guests := d.wf.View().Draft.Guests
	if d.guestIdx < len(guests) {
		return guests[d.guestIdx]
	}
	return models.GuestInfo{}
}

func (d *Dialog) handleMoreGuests(lower string) TransitionResult {
	switch {
	case isYes(lower):
		if d.guestIdx+1 >= len(d.wf.View().Draft.Guests) {
			if err := d.wf.AddGuest(); err != nil {
				return d.refused(err)
			}
		}
		d.guestIdx++
		return d.moveTo(StepGuestName, "")
	case isNo(lower):
		return d.moveTo(StepAmount, fmt.Sprintf("Current price per day: %.2f.", d.wf.View().Draft.BookingAmount))
	default:
		return d.stay(StepPrompts[StepMoreGuests])
	}
}

func (d *Dialog) handleAmount(input string) TransitionResult {
	if input != "" {
		amount, err := strconv.ParseFloat(input, 64)
		if err != nil || d.wf.SetBookingAmount(amount) != nil {
			return d.stay("Enter a valid amount.")
		}
	}
	return d.moveTo(StepDiscount, fmt.Sprintf("Total: %.2f.", d.wf.View().Derived.PriceTotal))
}

func (d *Dialog) handleDiscount(input string) TransitionResult {
	if input == "" {
		if err := d.wf.SetDiscount(nil); err != nil {
			return d.refused(err)
		}
		return d.moveTo(StepPayment, "")
	}
	v, err := strconv.ParseFloat(input, 64)
	if err != nil || v < 0 {
		return d.stay("Enter a valid discount or leave empty.")
	}
	if err := d.wf.SetDiscount(&v); err != nil {
		return d.refused(err)
	}
	return d.moveTo(StepPayment, "")
}

func (d *Dialog) handlePayment(lower string) TransitionResult {
	var mode models.PaymentMode
	switch lower {
	case "cash":
		mode = models.PaymentCash
	case "online":
		mode = models.PaymentOnline
	default:
		return d.stay(StepPrompts[StepPayment])
	}
	if err := d.wf.SetPaymentMode(mode); err != nil {
		return d.refused(err)
	}
	return d.moveTo(StepPaymentDone, "")
}

func (d *Dialog) handlePaymentDone(lower string) TransitionResult {
	var done bool
	switch {
	case isYes(lower):
		done = true
	case isNo(lower):
		done = false
	default:
		return d.stay(StepPrompts[StepPaymentDone])
	}
	if err := d.wf.SetPaymentDone(done); err != nil {
		return d.refused(err)
	}
	return d.moveTo(StepConfirm, "")
}

// ruleStep is where the dialog sends the user to fix a failed rule.
var ruleStep = map[Rule]Step{
	RuleRoomSelected:   StepRoom,
	RuleCheckInSet:     StepCheckIn,
	RuleCheckOutSet:    StepCheckOut,
	RuleGuestsComplete: StepGuestName,
	RuleGuestPhones:    StepGuestName,
	RuleStayLength:     StepCheckOut,
	RuleCapacity:       StepRoomCount,
}

func (d *Dialog) handleConfirm(ctx context.Context, lower string) TransitionResult {
	if isNo(lower) {
		d.wf.Close()
		d.step = StepCanceled
		return TransitionResult{Step: StepCanceled, Message: StepPrompts[StepCanceled]}
	}
	if !isYes(lower) {
		return d.stay("Answer yes to submit or no to cancel.")
	}

	_, err := d.wf.Submit(ctx)
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		d.guestIdx = 0
		res := d.moveTo(ruleStep[verr.Rule], verr.Message)
		res.Error = err
		return res
	case err != nil:
		return TransitionResult{
			Step:    d.step,
			Message: api.MessageOf(err, MsgCreateFailed) + "\nAnswer yes to retry.",
			Error:   err,
		}
	}
	return d.moveTo(StepOTP, MsgCreated)
}

func (d *Dialog) handleOTP(ctx context.Context, input string) TransitionResult {
	if strings.EqualFold(input, "resend") {
		if err := d.wf.Resend(ctx); err != nil {
			return TransitionResult{Step: d.step, Message: d.wf.View().Banner.Error, Error: err}
		}
		return d.stay(MsgResent)
	}
	if err := d.wf.Verify(ctx, input); err != nil {
		return TransitionResult{Step: d.step, Message: d.wf.View().Banner.Error, Error: err}
	}
	d.step = StepDone
	return TransitionResult{Step: StepDone, Message: MsgVerified}
}

func isYes(s string) bool { return s == "yes" || s == "y" }
func isNo(s string) bool  { return s == "no" || s == "n" }

// FormatRooms renders a numbered room list.
func FormatRooms(rooms []models.Room) string {
	var b strings.Builder
	for i, r := range rooms {
		fmt.Fprintf(&b, "%d. %s - %.2f/day, up to %d guests\n", i+1, r.Label(), r.BookPrice, r.AllowedPerson)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSummary renders the draft for confirmation.
func FormatSummary(v View) string {
	var b strings.Builder
	room := "-"
	if v.Room != nil {
		room = v.Room.Label()
	}
	fmt.Fprintf(&b, "Room: %s x %d\n", room, v.Draft.NoOfRoomsBook)
	fmt.Fprintf(&b, "Dates: %s -> %s (%d day(s))\n", formatDate(v.Draft.CheckIn), formatDate(v.Draft.CheckOut), v.Derived.BookingDays)
	fmt.Fprintf(&b, "Guests: %d male, %d female, %d child (max %d)\n", v.Draft.Male, v.Draft.Females, v.Draft.Child, v.Derived.MaxAllowedGuests)
	for i, g := range v.Draft.Guests {
		fmt.Fprintf(&b, "  %d. %s %s\n", i+1, g.GuestName, g.GuestPhone)
	}
	fmt.Fprintf(&b, "Price: %.2f x %d = %.2f\n", v.Draft.BookingAmount, v.Derived.BookingDays, v.Derived.PriceTotal)
	if v.Draft.Discount != nil {
		fmt.Fprintf(&b, "Discount: %.2f\n", *v.Draft.Discount)
	}
	paid := "not paid"
	if v.Draft.PaymentDone {
		paid = "paid"
	}
	fmt.Fprintf(&b, "Payment: %s, %s", v.Draft.PaymentMode, paid)
	if v.CapacityWarning != "" {
		fmt.Fprintf(&b, "\nWarning: %s", v.CapacityWarning)
	}
	return b.String()
}
