package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"hotelpartner/internal/api"
	"hotelpartner/internal/config"
	"hotelpartner/internal/console"
	"hotelpartner/internal/events"
	"hotelpartner/internal/notify"
	"hotelpartner/internal/retry"
	"hotelpartner/internal/securestore"
	"hotelpartner/internal/session"
)

var (
	errUsage       = errors.New("usage")
	errNotLoggedIn = errors.New("not logged in, run \"partner login\" first")
)

// app holds the process-wide objects every sub-command shares.
type app struct {
	cfg     *config.Config
	logger  *zerolog.Logger
	out     io.Writer
	console *console.Console

	closeStore func() error
	session    *session.Store
	bus        *events.EventBus
	client     *api.Client
	rdb        *redis.Client
}

func newApp(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, logger *zerolog.Logger) (*app, error) {
	store, closeStore, err := securestore.Open(securestore.Options{
		Backend:      cfg.Session.Backend,
		Path:         cfg.Session.Path,
		Encrypt:      cfg.Session.Encrypt,
		IdentityPath: cfg.Session.IdentityPath,
	})
	if err != nil {
		return nil, fmt.Errorf("open session storage: %w", err)
	}

	a := &app{
		cfg:        cfg,
		logger:     logger,
		out:        out,
		console:    console.New(in, out, logger),
		closeStore: closeStore,
		bus:        events.NewEventBus(logger),
	}
	a.session = session.New(store, a.bus, logger)
	go a.session.Initialize(ctx)

	a.client = api.NewClient(api.Options{
		BaseURL:         cfg.API.BaseURL,
		ProviderBaseURL: cfg.API.ProviderBaseURL,
		Timeout:         cfg.APITimeout(),
		RatePerSecond:   cfg.API.RatePerSecond,
		Burst:           cfg.API.Burst,
	}, a.session, logger)
	if cfg.Redis.Address != "" && cfg.CacheTTL() > 0 {
		a.rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		a.client.UseRedisCache(a.rdb, cfg.CacheTTL())
	}

	if cfg.Telegram.BotToken != "" && len(cfg.Telegram.NotifyChatIDs) > 0 {
		bot, err := notify.NewBotSender(cfg.Telegram.BotToken)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram notifications disabled")
		} else {
			notify.NewNotifier(bot, cfg.Telegram.NotifyChatIDs, logger).Attach(a.bus)
		}
	}

	return a, nil
}

func (a *app) Close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if err := a.closeStore(); err != nil {
		a.logger.Warn().Err(err).Msg("close session storage")
	}
}

func (a *app) retryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: a.cfg.RetryMaxAttempts(),
		Delay:       a.cfg.RetryDelay(),
		Multiplier:  a.cfg.Retry.Multiplier,
	}
}

// requireLogin waits for the session gate and refuses unauthenticated use.
func (a *app) requireLogin(ctx context.Context) error {
	route, err := a.console.Gate(ctx, a.session)
	if err != nil {
		return err
	}
	if route != session.RouteHome {
		return errNotLoggedIn
	}
	return nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func formatExpiry(token string, now time.Time) string {
	exp, ok := session.TokenExpiry(token)
	if !ok {
		return "unknown"
	}
	if exp.Before(now) {
		return "expired " + exp.Format(time.RFC3339)
	}
	return exp.Format(time.RFC3339) + " (in " + exp.Sub(now).Round(time.Minute).String() + ")"
}
