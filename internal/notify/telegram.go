// Package notify forwards confirmed bookings to Telegram chats.
package notify

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"hotelpartner/internal/events"
)

// Sender is the part of the Telegram bot API the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Subscriber is the part of the event bus the notifier needs.
type Subscriber interface {
	Subscribe(eventType string, handler events.EventHandler)
}

type Notifier struct {
	sender  Sender
	chatIDs []int64
	logger  zerolog.Logger
}

// NewBotSender connects to the Bot API with token.
func NewBotSender(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, errors.New("notify: empty bot token")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return bot, nil
}

func NewNotifier(sender Sender, chatIDs []int64, logger *zerolog.Logger) *Notifier {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "notify").Logger()
	}
	return &Notifier{sender: sender, chatIDs: append([]int64(nil), chatIDs...), logger: l}
}

// Attach subscribes the notifier to booking confirmations.
func (n *Notifier) Attach(bus Subscriber) {
	bus.Subscribe(events.TypeBookingVerified, n.HandleBookingVerified)
}

// HandleBookingVerified sends one message per configured chat. Every chat is
// attempted; the returned error joins the failures.
func (n *Notifier) HandleBookingVerified(ev events.Event) error {
	var p events.BookingPayload
	if err := ev.Decode(&p); err != nil {
		return fmt.Errorf("decode booking payload: %w", err)
	}
	text := FormatBooking(p)

	var errs []error
	for _, chatID := range n.chatIDs {
		if _, err := n.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			errs = append(errs, fmt.Errorf("send to %d: %w", chatID, err))
			continue
		}
		n.logger.Debug().Int64("chat_id", chatID).Str("booking_id", p.BookingID).Msg("booking notification sent")
	}
	return errors.Join(errs...)
}

func FormatBooking(p events.BookingPayload) string {
	var sb strings.Builder
	sb.WriteString("Booking confirmed: " + p.BookingID + "\n")
	if p.RoomType != "" {
		sb.WriteString("Room: " + p.RoomType + "\n")
	}
	if p.GuestName != "" {
		sb.WriteString("Guest: " + p.GuestName + "\n")
	}
	fmt.Fprintf(&sb, "Stay: %s to %s (%d days)\n", p.CheckInDate, p.CheckOutDate, p.BookingDays)
	fmt.Fprintf(&sb, "Total: %.2f", p.PriceTotal)
	return sb.String()
}
