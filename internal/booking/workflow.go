package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hotelpartner/internal/api"
	"hotelpartner/internal/clock"
	"hotelpartner/internal/events"
	"hotelpartner/internal/metrics"
	"hotelpartner/internal/models"
	"hotelpartner/internal/otp"
)

// Messages shown around submission and OTP confirmation.
const (
	MsgNoAvailableRooms  = "No available rooms found. Please make sure you have rooms with booking available."
	MsgNoRoomsConfigured = "No rooms! Please add first rooms"
	MsgRoomsFailed       = "Failed to load rooms. Please try again."
	MsgCreateFailed      = "Failed to create booking. Please try again."
	MsgCreated           = "Booking created successfully! Please verify with the OTP sent to the guest."
	MsgEnterOTP          = "Please enter the OTP"
	MsgBookingIDMissing  = "Booking ID not found. Please try creating the booking again."
	MsgVerifyFailed      = "OTP verification failed. Please try again."
	MsgVerified          = "Booking verified successfully!"
	MsgNoBookingToResend = "No booking found to resend OTP"
	MsgResendFailed      = "Failed to resend OTP. Please try again."
	MsgResent            = "OTP resent successfully!"
	MsgNotEditable       = "This booking can no longer be edited."
)

var (
	ErrSubmitInFlight   = errors.New("booking: submission already in flight")
	ErrRequestInFlight  = errors.New("booking: request already in flight")
	ErrNotEditable      = errors.New("booking: draft is not editable")
	ErrWrongState       = errors.New("booking: operation not allowed in current state")
	ErrUnknownRoom      = errors.New("booking: unknown room")
	ErrNoAvailableRooms = errors.New("booking: no available rooms")
	ErrOTPRequired      = errors.New("booking: otp required")
	ErrNoBookingID      = errors.New("booking: no booking id")
	ErrResendTooSoon    = errors.New("booking: resend not yet allowed")
	ErrAbandoned        = errors.New("booking: attempt abandoned")
	ErrInvalidInput     = errors.New("booking: invalid input")
)

// API is the slice of the partner backend the workflow calls.
type API interface {
	Rooms(ctx context.Context) ([]models.Room, error)
	CreateBooking(ctx context.Context, req models.BookingRequest, idempotencyKey string) (string, error)
	VerifyBooking(ctx context.Context, bookingID, otp string) error
	ResendBookingOTP(ctx context.Context, bookingID string) error
}

// Presenter shows blocking alerts. The inline banner is part of View.
type Presenter interface {
	Alert(message string)
}

// Banner is the inline message area; at most one of the fields is set.
type Banner struct {
	Error   string
	Success string
}

// Options tunes a Workflow. Zero values pick the defaults.
type Options struct {
	EnforceCapacity bool
	ResendAfter     time.Duration
	Clock           clock.Clock
	// OnCountdownTick receives the remaining resend seconds once per second.
	OnCountdownTick func(remaining int)
	Publisher       events.Publisher
	Logger          *zerolog.Logger
}

// View is a consistent copy of the workflow for rendering.
type View struct {
	State           State
	Rooms           []models.Room
	Room            *models.Room
	Draft           Draft
	Derived         Derived
	BookingID       string
	Banner          Banner
	ResendIn        int
	CapacityWarning string
}

// Workflow is one booking attempt. It is safe for concurrent use; network
// calls run without holding the lock.
type Workflow struct {
	api             API
	presenter       Presenter
	fsm             *FSM
	countdown       *otp.Countdown
	publisher       events.Publisher
	logger          zerolog.Logger
	enforceCapacity bool

	life   context.Context
	cancel context.CancelFunc

	mu             sync.Mutex
	state          State
	rooms          []models.Room
	room           *models.Room
	draft          Draft
	derived        Derived
	bookingID      string
	idempotencyKey string
	busy           bool
	banner         Banner
}

// New starts a booking attempt in SelectingRoom. presenter may be nil.
func New(client API, presenter Presenter, opts Options) *Workflow {
	resend := opts.ResendAfter
	if resend <= 0 {
		resend = otp.BookingResend
	}
	l := zerolog.Nop()
	if opts.Logger != nil {
		l = opts.Logger.With().Str("component", "booking").Logger()
	}
	life, cancel := context.WithCancel(context.Background())
	w := &Workflow{
		api:             client,
		presenter:       presenter,
		fsm:             NewFSM(),
		countdown:       otp.NewCountdown(opts.Clock, resend, opts.OnCountdownTick),
		publisher:       opts.Publisher,
		logger:          l,
		enforceCapacity: opts.EnforceCapacity,
		life:            life,
		cancel:          cancel,
		state:           StateSelectingRoom,
		draft:           NewDraft(),
	}
	w.derived = Recompute(w.draft, nil)
	return w
}

// State returns the current workflow state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// View returns a snapshot for rendering.
func (w *Workflow) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	v := View{
		State:     w.state,
		Rooms:     append([]models.Room(nil), w.rooms...),
		Draft:     w.draft.Clone(),
		Derived:   w.derived,
		BookingID: w.bookingID,
		Banner:    w.banner,
		ResendIn:  w.countdown.RemainingSeconds(),
	}
	if w.room != nil {
		room := *w.room
		v.Room = &room
	}
	if w.room != nil && !w.derived.IsValidGuests {
		v.CapacityWarning = MsgCapacityExceeded
	}
	return v
}

func (w *Workflow) setStateLocked(to State) error {
	if !w.fsm.CanTransition(w.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrWrongState, w.state, to)
	}
	w.logger.Debug().Str("from", string(w.state)).Str("to", string(to)).Msg("workflow transition")
	w.state = to
	metrics.IncTransition(string(to))
	return nil
}

func (w *Workflow) alert(msg string) {
	if w.presenter != nil {
		w.presenter.Alert(msg)
	}
}

// LoadRooms fetches the hotel's rooms and keeps the available ones. An empty
// result is distinguished from a failure: ErrNoAvailableRooms and
// api.ErrNoRoomsConfigured mean the request worked.
func (w *Workflow) LoadRooms(ctx context.Context) ([]models.Room, error) {
	w.mu.Lock()
	w.banner = Banner{}
	w.mu.Unlock()

	all, err := w.api.Rooms(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case errors.Is(err, api.ErrNoRoomsConfigured):
		w.rooms = nil
		w.banner.Error = MsgNoRoomsConfigured
		return nil, err
	case err != nil:
		w.banner.Error = api.MessageOf(err, MsgRoomsFailed)
		w.logger.Warn().Err(err).Msg("room fetch failed")
		return nil, err
	}

	w.rooms = models.FilterAvailable(all)
	if len(w.rooms) == 0 {
		w.banner.Error = MsgNoAvailableRooms
		return nil, ErrNoAvailableRooms
	}
	return append([]models.Room(nil), w.rooms...), nil
}

// SelectRoom chooses one of the loaded rooms and prefills the per-day price.
func (w *Workflow) SelectRoom(roomID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateSelectingRoom && w.state != StateFillingDetails {
		return ErrNotEditable
	}
	var picked *models.Room
	for i := range w.rooms {
		if w.rooms[i].ID == roomID {
			room := w.rooms[i]
			picked = &room
			break
		}
	}
	if picked == nil {
		return ErrUnknownRoom
	}

	w.room = picked
	w.draft.ListingID = picked.ID
	w.draft.BookingAmount = picked.BookPrice
	w.changedLocked()
	if w.state == StateSelectingRoom {
		return w.setStateLocked(StateFillingDetails)
	}
	return nil
}

// Edit applies fn to the draft and recomputes derived values. The draft is
// editable before submission and after a failed submission only.
func (w *Workflow) Edit(fn func(d *Draft) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateSelectingRoom && w.state != StateFillingDetails {
		return ErrNotEditable
	}
	next := w.draft.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	w.draft = next
	w.changedLocked()
	return nil
}

// changedLocked recomputes derived values and forgets the idempotency key,
// since the next submission carries different content.
func (w *Workflow) changedLocked() {
	w.derived = Recompute(w.draft, w.room)
	w.idempotencyKey = ""
}

func (w *Workflow) SetCheckIn(t time.Time) error {
	return w.Edit(func(d *Draft) error { d.CheckIn = NormalizeDate(t); return nil })
}

func (w *Workflow) SetCheckOut(t time.Time) error {
	return w.Edit(func(d *Draft) error { d.CheckOut = NormalizeDate(t); return nil })
}

func (w *Workflow) SetRoomCount(n int) error {
	return w.Edit(func(d *Draft) error {
		if n < 1 {
			return fmt.Errorf("%w: room count must be at least 1", ErrInvalidInput)
		}
		d.NoOfRoomsBook = n
		return nil
	})
}

func (w *Workflow) SetGuestCounts(male, females, child int) error {
	return w.Edit(func(d *Draft) error {
		if male < 0 || females < 0 || child < 0 {
			return fmt.Errorf("%w: guest counts cannot be negative", ErrInvalidInput)
		}
		d.Male, d.Females, d.Child = male, females, child
		return nil
	})
}

func (w *Workflow) AddGuest() error {
	return w.Edit(func(d *Draft) error {
		d.Guests = append(d.Guests, models.GuestInfo{})
		return nil
	})
}

func (w *Workflow) UpdateGuest(i int, name, phone string) error {
	return w.Edit(func(d *Draft) error {
		if i < 0 || i >= len(d.Guests) {
			return fmt.Errorf("%w: no guest %d", ErrInvalidInput, i+1)
		}
		d.Guests[i] = models.GuestInfo{GuestName: name, GuestPhone: phone}
		return nil
	})
}

// RemoveGuest refuses to drop the last guest.
func (w *Workflow) RemoveGuest(i int) error {
	err := w.Edit(func(d *Draft) error {
		if len(d.Guests) <= 1 {
			return &ValidationError{Rule: RuleGuestsComplete, Message: MsgGuestRequired}
		}
		if i < 0 || i >= len(d.Guests) {
			return fmt.Errorf("%w: no guest %d", ErrInvalidInput, i+1)
		}
		d.Guests = append(d.Guests[:i], d.Guests[i+1:]...)
		return nil
	})
	var verr *ValidationError
	if errors.As(err, &verr) {
		w.mu.Lock()
		w.banner = Banner{Error: verr.Message}
		w.mu.Unlock()
	}
	return err
}

func (w *Workflow) SetBookingAmount(amount float64) error {
	return w.Edit(func(d *Draft) error {
		if amount < 0 {
			return fmt.Errorf("%w: amount cannot be negative", ErrInvalidInput)
		}
		d.BookingAmount = amount
		return nil
	})
}

// SetDiscount sets or clears (nil) the hotel discount.
func (w *Workflow) SetDiscount(discount *float64) error {
	return w.Edit(func(d *Draft) error {
		d.Discount = discount
		return nil
	})
}

func (w *Workflow) SetPaymentMode(mode models.PaymentMode) error {
	return w.Edit(func(d *Draft) error {
		if !mode.Valid() {
			return fmt.Errorf("%w: payment mode %q", ErrInvalidInput, mode)
		}
		d.PaymentMode = mode
		return nil
	})
}

func (w *Workflow) SetPaymentDone(done bool) error {
	return w.Edit(func(d *Draft) error { d.PaymentDone = done; return nil })
}

// Submit validates the draft and creates the booking. Validation failures
// leave the state alone; a failed request returns to FillingDetails with the
// draft untouched. On success the workflow awaits the OTP and the resend
// countdown starts.
func (w *Workflow) Submit(ctx context.Context) (string, error) {
	w.mu.Lock()
	if w.state == StateSubmitting {
		w.mu.Unlock()
		return "", ErrSubmitInFlight
	}
	if w.state != StateSelectingRoom && w.state != StateFillingDetails {
		w.mu.Unlock()
		return "", ErrWrongState
	}
	w.banner = Banner{}
	if err := Validate(w.draft, w.derived, w.enforceCapacity); err != nil {
		w.banner.Error = err.Error()
		w.mu.Unlock()
		w.alert(err.Error())
		return "", err
	}
	if err := w.setStateLocked(StateSubmitting); err != nil {
		w.mu.Unlock()
		return "", err
	}
	if w.idempotencyKey == "" {
		w.idempotencyKey = uuid.NewString()
	}
	req := Request(w.draft, w.derived)
	key := w.idempotencyKey
	w.mu.Unlock()

	bookingID, err := w.api.CreateBooking(ctx, req, key)

	w.mu.Lock()
	if w.state != StateSubmitting {
		w.mu.Unlock()
		return "", ErrAbandoned
	}
	if err != nil {
		msg := api.MessageOf(err, MsgCreateFailed)
		w.banner.Error = msg
		_ = w.setStateLocked(StateFillingDetails)
		w.mu.Unlock()
		w.logger.Warn().Err(err).Msg("create booking failed")
		w.alert(msg)
		return "", err
	}

	w.bookingID = bookingID
	w.banner.Success = MsgCreated
	_ = w.setStateLocked(StateAwaitingOtp)
	payload := w.payloadLocked()
	w.mu.Unlock()

	w.countdown.Start(w.life)
	w.logger.Info().Str("booking_id", bookingID).Msg("booking created, awaiting otp")
	if w.publisher != nil {
		w.publisher.PublishJSON(events.TypeBookingCreated, payload)
	}
	w.alert(MsgCreated)
	return bookingID, nil
}

func (w *Workflow) payloadLocked() events.BookingPayload {
	p := events.BookingPayload{
		BookingID:    w.bookingID,
		ListingID:    w.draft.ListingID,
		CheckInDate:  formatDate(w.draft.CheckIn),
		CheckOutDate: formatDate(w.draft.CheckOut),
		BookingDays:  w.derived.BookingDays,
		PriceTotal:   w.derived.PriceTotal,
	}
	if w.room != nil {
		p.RoomType = w.room.RoomType
	}
	if len(w.draft.Guests) > 0 {
		p.GuestName = w.draft.Guests[0].GuestName
	}
	return p
}

// beginOTPCall checks preconditions shared by Verify and Resend and marks
// the workflow busy. It returns the booking id.
func (w *Workflow) beginOTPCall(missingMsg string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.bookingID == "" {
		w.banner = Banner{Error: missingMsg}
		return "", ErrNoBookingID
	}
	if w.state != StateAwaitingOtp {
		return "", ErrWrongState
	}
	if w.busy {
		return "", ErrRequestInFlight
	}
	w.busy = true
	w.banner = Banner{}
	return w.bookingID, nil
}

// Verify confirms the booking with code. Failure keeps the workflow in
// AwaitingOtp so the user can retry or resend.
func (w *Workflow) Verify(ctx context.Context, code string) error {
	if code == "" {
		w.mu.Lock()
		w.banner = Banner{Error: MsgEnterOTP}
		w.mu.Unlock()
		return ErrOTPRequired
	}
	bookingID, err := w.beginOTPCall(MsgBookingIDMissing)
	if err != nil {
		return err
	}

	err = w.api.VerifyBooking(ctx, bookingID, code)

	w.mu.Lock()
	w.busy = false
	if w.state != StateAwaitingOtp {
		w.mu.Unlock()
		return ErrAbandoned
	}
	if err != nil {
		msg := api.MessageOf(err, MsgVerifyFailed)
		w.banner.Error = msg
		w.mu.Unlock()
		w.logger.Warn().Err(err).Str("booking_id", bookingID).Msg("booking otp verification failed")
		w.alert(msg)
		return err
	}
	w.banner.Success = MsgVerified
	_ = w.setStateLocked(StateCompleted)
	payload := w.payloadLocked()
	w.mu.Unlock()

	w.countdown.Stop()
	w.logger.Info().Str("booking_id", bookingID).Msg("booking verified")
	if w.publisher != nil {
		w.publisher.PublishJSON(events.TypeBookingVerified, payload)
	}
	return nil
}

// Resend asks for a new OTP once the countdown has elapsed and restarts it.
func (w *Workflow) Resend(ctx context.Context) error {
	if !w.countdown.CanResend() {
		w.mu.Lock()
		if w.bookingID != "" {
			w.banner = Banner{Error: fmt.Sprintf("Please wait %ds before requesting a new OTP", w.countdown.RemainingSeconds())}
			w.mu.Unlock()
			return ErrResendTooSoon
		}
		w.mu.Unlock()
	}
	bookingID, err := w.beginOTPCall(MsgNoBookingToResend)
	if err != nil {
		return err
	}

	err = w.api.ResendBookingOTP(ctx, bookingID)

	w.mu.Lock()
	w.busy = false
	if w.state != StateAwaitingOtp {
		w.mu.Unlock()
		return ErrAbandoned
	}
	if err != nil {
		msg := api.MessageOf(err, MsgResendFailed)
		w.banner.Error = msg
		w.mu.Unlock()
		w.alert(msg)
		return err
	}
	w.banner.Success = MsgResent
	w.mu.Unlock()

	metrics.IncOTPResend(string(otp.FlowBooking))
	w.countdown.Start(w.life)
	return nil
}

// Close abandons the attempt unless it already completed and stops the
// countdown. Safe to call more than once.
func (w *Workflow) Close() {
	w.mu.Lock()
	if !w.state.Terminal() {
		_ = w.setStateLocked(StateAbandoned)
	}
	w.mu.Unlock()

	w.countdown.Stop()
	w.cancel()
}
