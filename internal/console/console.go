// Package console is the line-oriented terminal front end. Each Run* method
// plays one screen: it prints prompts, reads answers and drives a flow until
// it finishes or input ends.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"hotelpartner/internal/auth"
	"hotelpartner/internal/booking"
	"hotelpartner/internal/models"
	"hotelpartner/internal/profile"
	"hotelpartner/internal/session"
)

// ErrInputClosed is returned when input ends before a screen finished.
var ErrInputClosed = errors.New("console: input closed")

// ErrCanceled is returned when the user abandons a screen.
var ErrCanceled = errors.New("console: canceled")

type Console struct {
	in     *bufio.Scanner
	out    io.Writer
	logger zerolog.Logger
}

func New(in io.Reader, out io.Writer, logger *zerolog.Logger) *Console {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "console").Logger()
	}
	return &Console{in: bufio.NewScanner(in), out: out, logger: l}
}

// Alert shows a blocking message. It satisfies booking.Presenter.
func (c *Console) Alert(message string) {
	c.println("! " + message)
}

func (c *Console) println(s string) {
	if s == "" {
		return
	}
	fmt.Fprintln(c.out, s)
}

func (c *Console) ask(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(c.out, prompt+" ")
	}
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", ErrInputClosed
	}
	return strings.TrimSpace(c.in.Text()), nil
}

// Gate waits for the session to finish loading and returns the screen to
// show first.
func (c *Console) Gate(ctx context.Context, s *session.Store) (session.Route, error) {
	if session.InitialRoute(s) == session.RouteLoading {
		c.println("Loading...")
	}
	select {
	case <-s.Ready():
	case <-ctx.Done():
		return session.RouteLoading, ctx.Err()
	}
	return session.InitialRoute(s), nil
}

// RunLogin asks for a BH id (unless bh is set), sends the OTP and reads codes
// until one verifies. "resend" asks for a new code.
func (c *Console) RunLogin(ctx context.Context, login *auth.Login, bh string, channel models.LoginChannel) error {
	defer login.Close()

	for {
		if bh == "" {
			var err error
			if bh, err = c.ask("BH ID:"); err != nil {
				return err
			}
		}
		err := login.Start(ctx, bh, channel)
		if err == nil {
			break
		}
		c.Alert(auth.UserMessage(err, auth.MsgLoginFailed))
		if !errors.Is(err, auth.ErrInvalidBH) {
			return err
		}
		bh = ""
	}
	c.println(fmt.Sprintf("OTP sent. You can request a new one in %ds.", login.ResendIn()))

	for {
		code, err := c.ask(auth.MsgEnterOTP + " (or \"resend\"):")
		if err != nil {
			return err
		}
		switch strings.ToLower(code) {
		case "/cancel":
			return ErrCanceled
		case "resend":
			if err := login.Resend(ctx); err != nil {
				c.resendRefused(err, login.ResendIn(), auth.MsgLoginFailed)
				continue
			}
			c.println("OTP resent.")
			continue
		}
		if err := login.Verify(ctx, code); err != nil {
			c.Alert(auth.UserMessage(err, auth.MsgLoginOTPFailed))
			continue
		}
		c.println("Logged in.")
		return nil
	}
}

// RunRegistration reads codes for a hotel registration OTP until one
// verifies.
func (c *Console) RunRegistration(ctx context.Context, reg *auth.Registration) error {
	defer reg.Close()
	reg.Begin()

	for {
		code, err := c.ask(auth.MsgEnterOTP + " (or \"resend\"):")
		if err != nil {
			return err
		}
		switch strings.ToLower(code) {
		case "/cancel":
			return ErrCanceled
		case "resend":
			msg, err := reg.Resend(ctx)
			if err != nil {
				c.resendRefused(err, reg.ResendIn(), auth.MsgSomethingWrong)
				continue
			}
			c.println(msg)
			continue
		}
		if err := reg.Verify(ctx, code); err != nil {
			c.Alert(auth.UserMessage(err, auth.MsgSomethingWrong))
			continue
		}
		c.println("Hotel verified.")
		return nil
	}
}

func (c *Console) resendRefused(err error, in int, fallback string) {
	if errors.Is(err, auth.ErrResendTooSoon) {
		c.println(fmt.Sprintf("Resend available in %ds.", in))
		return
	}
	c.Alert(auth.UserMessage(err, fallback))
}

// RunBooking walks a booking dialog to completion. It returns nil once the
// OTP is verified and ErrCanceled when the user cancels.
func (c *Console) RunBooking(ctx context.Context, d *booking.Dialog) error {
	res := d.Start(ctx)
	c.println(res.Message)
	if res.Step == booking.StepCanceled {
		return res.Error
	}

	for {
		line, err := c.ask(">")
		if err != nil {
			d.HandleInput(ctx, "/cancel")
			return err
		}
		res = d.HandleInput(ctx, line)
		if res.Error != nil {
			c.logger.Debug().Err(res.Error).Str("step", string(res.Step)).Msg("booking input rejected")
		}
		c.println(res.Message)

		switch res.Step {
		case booking.StepDone:
			return nil
		case booking.StepCanceled:
			return ErrCanceled
		}
	}
}

// PrintRooms lists rooms with their availability.
func (c *Console) PrintRooms(rooms []models.Room) {
	if len(rooms) == 0 {
		c.println("No rooms.")
		return
	}
	for i, r := range rooms {
		state := "available"
		if !r.IsRoomAvailable {
			state = "unavailable"
		}
		c.println(fmt.Sprintf("%d. %s [%s] %s - %.2f/day, up to %d guests", i+1, r.ID, state, r.Label(), r.BookPrice, r.AllowedPerson))
	}
}

// PrintBookings lists bookings, newest first as returned by the backend.
func (c *Console) PrintBookings(bookings []models.Booking) {
	if len(bookings) == 0 {
		c.println("No bookings yet.")
		return
	}
	for _, b := range bookings {
		guest := "-"
		if g, ok := b.PrimaryGuest(); ok {
			guest = g.GuestName
		}
		c.println(fmt.Sprintf("%s  %-9s %s -> %s  %s  %.2f %s",
			b.BookingID, b.Status, b.CheckInDate, b.CheckOutDate, guest, b.BookingAmount, b.PaymentMode))
	}
}

func (c *Console) PrintProfile(p *profile.Profile) {
	online := "offline"
	if p.Hotel.IsOnline {
		online = "online"
	}
	c.println(fmt.Sprintf("%s (%s) - %s", p.Hotel.HotelName, p.Hotel.BH, online))
	if p.Hotel.HotelAddress != "" {
		c.println(p.Hotel.HotelAddress)
	}
	c.println(fmt.Sprintf("Owner: %s, phone %s", p.Hotel.HotelOwner, p.Hotel.HotelPhone))
	c.println(fmt.Sprintf("Provider: %s <%s>, wallet %.2f", p.Provider.Name, p.Provider.Email, p.Provider.Wallet))
}
