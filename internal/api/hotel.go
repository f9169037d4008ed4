package api

import (
	"context"
	"errors"
	"net/http"

	"hotelpartner/internal/models"
)

const (
	pathHotel        = "/find-Me-Hotel"
	pathToggleHotel  = "/toggle-hotel"
	pathProviderByBh = "/getProviderDetailsByBhId"
)

var errNoProviderURL = errors.New("api: provider base url not configured")

// Hotel fetches the authenticated hotel's profile. A profile still waiting
// for its BH id is never cached, so callers polling for it see fresh data.
func (c *Client) Hotel(ctx context.Context) (*models.Hotel, error) {
	var wrap struct {
		Data models.Hotel `json:"data"`
	}
	if err := c.cachedGet(ctx, pathHotel, &wrap, func() bool { return wrap.Data.HasBH() }); err != nil {
		return nil, err
	}
	return &wrap.Data, nil
}

// SetHotelOnline toggles whether the hotel accepts bookings.
func (c *Client) SetHotelOnline(ctx context.Context, online bool) error {
	if err := c.authPost(ctx, pathToggleHotel, map[string]bool{"status": online}, nil); err != nil {
		return err
	}
	c.invalidate(ctx, pathHotel)
	return nil
}

// ProviderByBH looks up the partner account behind a BH id on the provider
// service.
func (c *Client) ProviderByBH(ctx context.Context, bh string) (*models.Provider, error) {
	if c.providerBaseURL == "" {
		return nil, errNoProviderURL
	}
	token, _ := c.token(ctx)
	var wrap struct {
		Data models.Provider `json:"data"`
	}
	body := map[string]string{"BhId": bh}
	if err := c.doJSON(ctx, http.MethodPost, c.providerBaseURL+pathProviderByBh, pathProviderByBh, token, nil, body, &wrap); err != nil {
		return nil, err
	}
	return &wrap.Data, nil
}
