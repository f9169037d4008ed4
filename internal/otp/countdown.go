// Package otp holds the resend countdowns shared by the login, registration
// and booking OTP flows.
package otp

import (
	"context"
	"sync"
	"time"

	"hotelpartner/internal/clock"
)

// Flow identifies which screen owns a countdown.
type Flow string

const (
	FlowLogin        Flow = "login"
	FlowRegistration Flow = "registration"
	FlowBooking      Flow = "booking"
)

// Default resend windows per flow.
const (
	LoginResend        = 90 * time.Second
	RegistrationResend = 120 * time.Second
	BookingResend      = 60 * time.Second
)

// DefaultDuration returns the resend window for flow.
func DefaultDuration(flow Flow) time.Duration {
	switch flow {
	case FlowLogin:
		return LoginResend
	case FlowRegistration:
		return RegistrationResend
	default:
		return BookingResend
	}
}

// Countdown gates OTP resend. It is idle until Start; while running, resend
// is refused. An optional tick callback receives the remaining whole seconds
// once per second until the countdown reaches zero or is stopped.
type Countdown struct {
	clock  clock.Clock
	total  time.Duration
	onTick func(remaining int)

	mu       sync.Mutex
	deadline time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCountdown builds a countdown of length total. onTick may be nil.
func NewCountdown(c clock.Clock, total time.Duration, onTick func(remaining int)) *Countdown {
	if c == nil {
		c = clock.Real()
	}
	return &Countdown{clock: c, total: total, onTick: onTick}
}

// Total returns the full countdown length.
func (c *Countdown) Total() time.Duration { return c.total }

// Start (re)starts the countdown from its full length, cancelling any
// previous tick goroutine.
func (c *Countdown) Start(ctx context.Context) {
	c.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = c.clock.Now().Add(c.total)
	if c.onTick == nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	ticker := c.clock.NewTicker(time.Second)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	go c.run(runCtx, ticker, done)
}

func (c *Countdown) run(ctx context.Context, ticker *clock.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			remaining := c.RemainingSeconds()
			c.onTick(remaining)
			if remaining == 0 {
				return
			}
		}
	}
}

// Stop cancels the tick goroutine and waits for it to exit. The countdown
// becomes idle and resend is allowed again.
func (c *Countdown) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.deadline = time.Time{}
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Remaining returns the time left, zero when idle or elapsed.
func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deadline.IsZero() {
		return 0
	}
	left := c.deadline.Sub(c.clock.Now())
	if left < 0 {
		return 0
	}
	return left
}

// RemainingSeconds rounds Remaining up to whole seconds.
func (c *Countdown) RemainingSeconds() int {
	left := c.Remaining()
	return int((left + time.Second - 1) / time.Second)
}

// CanResend reports whether the countdown has elapsed.
func (c *Countdown) CanResend() bool {
	return c.Remaining() == 0
}
