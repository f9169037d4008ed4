package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"hotelpartner/internal/api"
	"hotelpartner/internal/auth"
	"hotelpartner/internal/booking"
	"hotelpartner/internal/bookings"
	"hotelpartner/internal/export"
	"hotelpartner/internal/models"
	"hotelpartner/internal/profile"
	"hotelpartner/internal/rooms"
)

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":    {"log in with a BH id and OTP", cmdLogin},
	"verify":   {"verify a hotel registration OTP", cmdVerify},
	"logout":   {"forget the stored session", cmdLogout},
	"status":   {"show session state", cmdStatus},
	"rooms":    {"list rooms, or toggle one: rooms toggle <room-id>", cmdRooms},
	"book":     {"create a booking interactively", cmdBook},
	"bookings": {"list bookings, or act on one: bookings accept|checkin|checkout|cancel <id>", cmdBookings},
	"profile":  {"show the hotel profile", cmdProfile},
	"hotel":    {"switch the hotel online or offline: hotel online|offline", cmdHotel},
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		a.printf("unknown command %q\n", args[0])
		a.usage()
		return errUsage
	}
	return cmd.run(ctx, a, args[1:])
}

func (a *app) usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	a.printf("usage: partner <command> [flags]\n\n")
	for _, name := range names {
		a.printf("  %-9s %s\n", name, commands[name].summary)
	}
}

func newFlagSet(a *app, name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errUsage
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "login")
	bh := fs.String("bh", "", "BH id (BH followed by 6 digits)")
	whatsapp := fs.Bool("whatsapp", false, "deliver the OTP over WhatsApp instead of text")
	if err := parse(fs, args); err != nil {
		return err
	}

	if _, err := a.console.Gate(ctx, a.session); err != nil {
		return err
	}
	channel := models.ChannelText
	if *whatsapp {
		channel = models.ChannelWhatsApp
	}
	login := auth.NewLogin(a.client, a.session, auth.Options{Resend: a.cfg.LoginResend(), Logger: a.logger})
	return a.console.RunLogin(ctx, login, *bh, channel)
}

func cmdVerify(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "verify")
	phone := fs.String("phone", "", "hotel phone number the registration OTP was sent to")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *phone == "" {
		a.printf("--phone is required\n")
		return errUsage
	}

	if _, err := a.console.Gate(ctx, a.session); err != nil {
		return err
	}
	reg := auth.NewRegistration(a.client, a.session, *phone, auth.Options{Resend: a.cfg.RegistrationResend(), Logger: a.logger})
	return a.console.RunRegistration(ctx, reg)
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	if _, err := a.console.Gate(ctx, a.session); err != nil {
		return err
	}
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	a.printf("Logged out.\n")
	return nil
}

func cmdStatus(ctx context.Context, a *app, _ []string) error {
	route, err := a.console.Gate(ctx, a.session)
	if err != nil {
		return err
	}
	a.printf("session: %s\nscreen: %s\n", a.session.State(), route)
	if token, ok := a.session.Token(); ok {
		a.printf("token expires: %s\n", formatExpiry(token, time.Now()))
	}
	return nil
}

func cmdRooms(ctx context.Context, a *app, args []string) error {
	if err := a.requireLogin(ctx); err != nil {
		return err
	}
	inv := rooms.NewInventory(a.client, a.bus, a.logger)
	list, err := inv.Refresh(ctx)
	switch {
	case errors.Is(err, api.ErrNoRoomsConfigured):
		a.printf("%s\n", booking.MsgNoRoomsConfigured)
		return nil
	case err != nil:
		return err
	}

	if len(args) == 0 || args[0] == "list" {
		a.console.PrintRooms(list)
		return nil
	}
	if args[0] != "toggle" || len(args) != 2 {
		a.printf("usage: partner rooms [list | toggle <room-id>]\n")
		return errUsage
	}

	available, err := inv.ToggleAvailability(ctx, args[1])
	if err != nil {
		a.console.Alert(api.MessageOf(err, "Failed to update room availability"))
		return err
	}
	state := "unavailable"
	if available {
		state = "available"
	}
	a.printf("Room %s is now %s.\n", args[1], state)
	return nil
}

func cmdBook(ctx context.Context, a *app, _ []string) error {
	if err := a.requireLogin(ctx); err != nil {
		return err
	}
	wf := booking.New(a.client, a.console, booking.Options{
		EnforceCapacity: a.cfg.EnforceCapacity(),
		ResendAfter:     a.cfg.BookingResend(),
		Publisher:       a.bus,
		Logger:          a.logger,
	})
	defer wf.Close()
	return a.console.RunBooking(ctx, booking.NewDialog(wf))
}

func cmdBookings(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "bookings")
	out := fs.String("export", "", "write the list to this .xlsx file")
	reason := fs.String("reason", "", "cancellation reason (cancel only)")
	status := fs.String("status", "", "only bookings with this status")
	mode := fs.String("payment-mode", "", "only Cash or Online bookings")
	id := fs.String("id", "", "only this Booking_id")
	phone := fs.String("phone", "", "only bookings of this guest phone")
	checkedIn := fs.String("checked-in", "", "true or false")
	checkedOut := fs.String("checked-out", "", "true or false")
	paid := fs.String("paid", "", "true or false")
	if err := parse(fs, args); err != nil {
		return err
	}

	filter := api.BookingFilter{
		Status:      *status,
		PaymentMode: models.PaymentMode(*mode),
		BookingID:   *id,
		GuestPhone:  *phone,
	}
	for _, f := range []struct {
		name string
		raw  string
		dst  **bool
	}{
		{"checked-in", *checkedIn, &filter.CheckedIn},
		{"checked-out", *checkedOut, &filter.CheckedOut},
		{"paid", *paid, &filter.PaymentDone},
	} {
		if f.raw == "" {
			continue
		}
		v, err := strconv.ParseBool(f.raw)
		if err != nil {
			return fmt.Errorf("%w: --%s wants true or false", errUsage, f.name)
		}
		*f.dst = &v
	}
	if filter.PaymentMode != "" && !filter.PaymentMode.Valid() {
		return fmt.Errorf("%w: --payment-mode wants Cash or Online", errUsage)
	}

	rest := fs.Args()
	action := "list"
	if len(rest) > 0 {
		action = rest[0]
	}
	if action == "list" {
		if len(rest) > 1 {
			return bookingsUsage(a)
		}
	} else if len(rest) != 2 {
		return bookingsUsage(a)
	}
	if err := a.requireLogin(ctx); err != nil {
		return err
	}

	mgr := bookings.NewManager(a.client, a.bus, a.logger)
	var res bookings.Result
	var err error
	switch action {
	case "list":
		list, err := mgr.List(ctx, filter)
		if err != nil {
			a.console.Alert(bookings.MsgFetchFailed)
			return err
		}
		if *out != "" {
			return a.exportBookings(*out, list)
		}
		a.console.PrintBookings(list)
		return nil
	case "accept":
		res, err = mgr.Accept(ctx, rest[1])
	case "checkin":
		res, err = mgr.CheckIn(ctx, rest[1])
	case "checkout":
		res, err = mgr.CheckOut(ctx, rest[1])
	case "cancel":
		res, err = mgr.Cancel(ctx, rest[1], *reason)
	default:
		return bookingsUsage(a)
	}
	if err != nil {
		a.console.Alert(res.Message)
		return err
	}
	a.printf("%s\n", res.Message)
	if res.RefreshErr != nil {
		a.console.Alert(bookings.MsgFetchFailed)
		return nil
	}
	a.console.PrintBookings(res.List)
	return nil
}

func bookingsUsage(a *app) error {
	a.printf("usage: partner bookings [list [filters] [--export file.xlsx] | accept|checkin|checkout <id> | cancel <id> --reason text]\n")
	return errUsage
}

func (a *app) exportBookings(path string, list []models.Booking) error {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.Bookings(f, list); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	a.printf("Exported %d bookings to %s.\n", len(list), path)
	return nil
}

func cmdProfile(ctx context.Context, a *app, _ []string) error {
	if err := a.requireLogin(ctx); err != nil {
		return err
	}
	p, err := profile.NewLoader(a.client, a.retryPolicy(), a.logger).Load(ctx)
	if err != nil {
		a.console.Alert(api.MessageOf(err, "Failed to load hotel details"))
		return err
	}
	a.console.PrintProfile(p)
	return nil
}

func cmdHotel(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 || (args[0] != "online" && args[0] != "offline") {
		a.printf("usage: partner hotel online|offline\n")
		return errUsage
	}
	if err := a.requireLogin(ctx); err != nil {
		return err
	}

	loader := profile.NewLoader(a.client, a.retryPolicy(), a.logger)
	if _, err := loader.Load(ctx); err != nil {
		return err
	}
	online := args[0] == "online"
	if err := loader.SetOnline(ctx, online); err != nil {
		a.console.Alert(api.MessageOf(err, "Failed to update hotel status"))
		return err
	}
	a.printf("Hotel is now %s.\n", args[0])
	return nil
}

