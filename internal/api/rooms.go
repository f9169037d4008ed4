package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"hotelpartner/internal/models"
)

const (
	pathRooms      = "/find-My-Rooms"
	pathRoomToggle = "/hotel-Room-toggle"
)

// Rooms returns every room of the hotel, available or not. A hotel with no
// rooms configured yields ErrNoRoomsConfigured rather than an empty list.
func (c *Client) Rooms(ctx context.Context) ([]models.Room, error) {
	var wrap struct {
		Rooms   []models.Room `json:"rooms"`
		Message string        `json:"message,omitempty"`
	}
	if err := c.cachedGet(ctx, pathRooms, &wrap, nil); err != nil {
		if MessageOf(err, "") == NoRoomsMessage {
			return nil, ErrNoRoomsConfigured
		}
		return nil, err
	}
	if wrap.Message == NoRoomsMessage {
		return nil, ErrNoRoomsConfigured
	}
	return wrap.Rooms, nil
}

// ToggleRoom sets a room's availability flag on the server.
func (c *Client) ToggleRoom(ctx context.Context, roomID string, available bool) error {
	path := withQuery(pathRoomToggle, url.Values{"roomId": {roomID}})
	body := map[string]bool{"isRoomAvailable": available}
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+path, pathRoomToggle, token, nil, body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		if resp.Message != "" {
			return &Error{Status: http.StatusOK, Message: resp.Message}
		}
		return errors.New("api: room toggle rejected")
	}
	c.invalidate(ctx, pathRooms)
	return nil
}
