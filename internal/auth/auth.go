// Package auth runs the OTP flows that end in a session token: login with a
// BH id and hotel registration verification.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hotelpartner/internal/api"
	"hotelpartner/internal/clock"
	"hotelpartner/internal/metrics"
	"hotelpartner/internal/models"
	"hotelpartner/internal/otp"
	"hotelpartner/internal/validation"
)

const (
	MsgInvalidBH       = "Invalid BH ID. Format: BH followed by 6 digits."
	MsgEnterOTP        = "Please enter the OTP"
	MsgLoginFailed     = "Something went wrong."
	MsgLoginOTPFailed  = "OTP verification failed"
	MsgSomethingWrong  = "Something went wrong"
	MsgLoginNotStarted = "Request an OTP first"
)

var (
	ErrInvalidBH              = errors.New("auth: invalid BH id")
	ErrOTPRequired            = errors.New("auth: otp required")
	ErrLoginNotStarted        = errors.New("auth: login not started")
	ErrResendTooSoon          = errors.New("auth: resend not yet allowed")
	ErrBHVerificationRequired = errors.New("auth: BH account needs verification")
)

// ListingRequiredError means the BH account exists but has no hotel listing
// yet; the caller should send the user to create one for BhID.
type ListingRequiredError struct {
	BhID string
}

func (e *ListingRequiredError) Error() string {
	return fmt.Sprintf("auth: hotel listing required for %s", e.BhID)
}

// API is the slice of the backend used by the OTP flows.
type API interface {
	StartLogin(ctx context.Context, bh string, channel models.LoginChannel) error
	VerifyOTP(ctx context.Context, phone, otp, purpose string) (string, error)
	ResendOTP(ctx context.Context, phone string) (string, error)
}

// TokenSink receives the token issued after a successful verification.
type TokenSink interface {
	UpdateToken(ctx context.Context, token string) error
}

// Options tunes a flow. Zero values pick the per-flow defaults.
type Options struct {
	Clock  clock.Clock
	Resend time.Duration
	OnTick func(remaining int)
	Logger *zerolog.Logger
}

func (o Options) logger(component string) zerolog.Logger {
	if o.Logger == nil {
		return zerolog.Nop()
	}
	return o.Logger.With().Str("component", component).Logger()
}

func (o Options) countdown(flow otp.Flow) *otp.Countdown {
	d := o.Resend
	if d <= 0 {
		d = otp.DefaultDuration(flow)
	}
	return otp.NewCountdown(o.Clock, d, o.OnTick)
}

var validate = validation.New()

// UserMessage turns a flow error into the text shown to the user.
func UserMessage(err error, fallback string) string {
	var listing *ListingRequiredError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidBH):
		return MsgInvalidBH
	case errors.Is(err, ErrOTPRequired):
		return MsgEnterOTP
	case errors.Is(err, ErrLoginNotStarted):
		return MsgLoginNotStarted
	case errors.As(err, &listing):
		return fmt.Sprintf("No hotel listing found for %s. Please add your hotel listing first.", listing.BhID)
	case errors.Is(err, ErrBHVerificationRequired):
		return "Your BH account is not verified yet. Please complete BH verification."
	}
	return api.MessageOf(err, fallback)
}

// Login is the BH id + OTP login screen.
type Login struct {
	api       API
	sink      TokenSink
	countdown *otp.Countdown
	logger    zerolog.Logger

	mu      sync.Mutex
	bh      string
	channel models.LoginChannel
	sent    bool
}

func NewLogin(client API, sink TokenSink, opts Options) *Login {
	return &Login{
		api:       client,
		sink:      sink,
		countdown: opts.countdown(otp.FlowLogin),
		logger:    opts.logger("auth.login"),
	}
}

// Start validates bh and asks the backend to send a login OTP over channel.
// While the countdown from a previous send is running the request is refused.
func (l *Login) Start(ctx context.Context, bh string, channel models.LoginChannel) error {
	bh = strings.TrimSpace(bh)
	if !validate.OK(bh, "required,bhid") {
		return ErrInvalidBH
	}
	if channel == "" {
		channel = models.ChannelText
	}

	l.mu.Lock()
	if l.sent && l.bh == bh && !l.countdown.CanResend() {
		l.mu.Unlock()
		return ErrResendTooSoon
	}
	l.mu.Unlock()

	if err := l.api.StartLogin(ctx, bh, channel); err != nil {
		if apiErr, ok := api.AsError(err); ok {
			switch apiErr.Status {
			case http.StatusForbidden:
				id := apiErr.BhID
				if id == "" {
					id = bh
				}
				return &ListingRequiredError{BhID: id}
			case http.StatusPaymentRequired:
				return ErrBHVerificationRequired
			}
		}
		l.logger.Warn().Err(err).Str("bh", bh).Msg("login start failed")
		return err
	}

	l.mu.Lock()
	l.bh, l.channel, l.sent = bh, channel, true
	l.mu.Unlock()
	l.countdown.Start(context.Background())
	l.logger.Info().Str("bh", bh).Str("channel", string(channel)).Msg("login otp sent")
	return nil
}

// Resend repeats Start with the same BH id and channel.
func (l *Login) Resend(ctx context.Context) error {
	l.mu.Lock()
	bh, channel, sent := l.bh, l.channel, l.sent
	l.mu.Unlock()
	if !sent {
		return ErrLoginNotStarted
	}
	if err := l.Start(ctx, bh, channel); err != nil {
		return err
	}
	metrics.IncOTPResend(string(otp.FlowLogin))
	return nil
}

// Verify exchanges code for a token and stores it in the session. A failed
// session write is logged and does not fail the login.
func (l *Login) Verify(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrOTPRequired
	}
	l.mu.Lock()
	bh, sent := l.bh, l.sent
	l.mu.Unlock()
	if !sent {
		return ErrLoginNotStarted
	}

	token, err := l.api.VerifyOTP(ctx, bh, code, api.OTPPurposeLogin)
	if err != nil {
		return err
	}
	if err := l.sink.UpdateToken(ctx, token); err != nil {
		l.logger.Error().Err(err).Msg("token not persisted; session lasts until exit")
	}
	l.countdown.Stop()
	l.logger.Info().Str("bh", bh).Msg("logged in")
	return nil
}

// ResendIn is the number of seconds until Resend is allowed.
func (l *Login) ResendIn() int { return l.countdown.RemainingSeconds() }

// Close stops the countdown.
func (l *Login) Close() { l.countdown.Stop() }

// Registration verifies the OTP sent to a newly registered hotel's phone.
type Registration struct {
	api       API
	sink      TokenSink
	phone     string
	countdown *otp.Countdown
	logger    zerolog.Logger
}

// NewRegistration prepares verification for phone. Call Begin once the
// registration OTP has been dispatched.
func NewRegistration(client API, sink TokenSink, phone string, opts Options) *Registration {
	return &Registration{
		api:       client,
		sink:      sink,
		phone:     phone,
		countdown: opts.countdown(otp.FlowRegistration),
		logger:    opts.logger("auth.registration"),
	}
}

// Begin starts the resend countdown.
func (r *Registration) Begin() { r.countdown.Start(context.Background()) }

// Verify exchanges code for a token and stores it in the session.
func (r *Registration) Verify(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrOTPRequired
	}
	token, err := r.api.VerifyOTP(ctx, r.phone, code, "")
	if err != nil {
		return err
	}
	if err := r.sink.UpdateToken(ctx, token); err != nil {
		r.logger.Error().Err(err).Msg("token not persisted; session lasts until exit")
	}
	r.countdown.Stop()
	return nil
}

// Resend asks for a new registration OTP once the countdown elapsed and
// returns the server's message.
func (r *Registration) Resend(ctx context.Context) (string, error) {
	if !r.countdown.CanResend() {
		return "", ErrResendTooSoon
	}
	msg, err := r.api.ResendOTP(ctx, r.phone)
	if err != nil {
		return "", err
	}
	metrics.IncOTPResend(string(otp.FlowRegistration))
	r.countdown.Start(context.Background())
	return msg, nil
}

func (r *Registration) ResendIn() int { return r.countdown.RemainingSeconds() }

func (r *Registration) Close() { r.countdown.Stop() }
