// Package rooms keeps the hotel's room list and flips room availability
// optimistically.
package rooms

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"hotelpartner/internal/api"
	"hotelpartner/internal/events"
	"hotelpartner/internal/models"
	"hotelpartner/internal/optimistic"
)

var ErrUnknownRoom = errors.New("rooms: unknown room")

type API interface {
	Rooms(ctx context.Context) ([]models.Room, error)
	ToggleRoom(ctx context.Context, roomID string, available bool) error
}

// Inventory is the locally held room list.
type Inventory struct {
	api       API
	publisher events.Publisher
	logger    zerolog.Logger

	mu    sync.RWMutex
	rooms []models.Room
}

func NewInventory(client API, publisher events.Publisher, logger *zerolog.Logger) *Inventory {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "rooms").Logger()
	}
	return &Inventory{api: client, publisher: publisher, logger: l}
}

// Refresh reloads every room. A hotel without rooms ends up with an empty
// list and api.ErrNoRoomsConfigured; other errors keep the previous list.
func (i *Inventory) Refresh(ctx context.Context) ([]models.Room, error) {
	list, err := i.api.Rooms(ctx)
	if errors.Is(err, api.ErrNoRoomsConfigured) {
		i.mu.Lock()
		i.rooms = nil
		i.mu.Unlock()
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	i.mu.Lock()
	i.rooms = append([]models.Room(nil), list...)
	i.mu.Unlock()
	return i.Rooms(), nil
}

// Rooms returns a copy of the current list.
func (i *Inventory) Rooms() []models.Room {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return append([]models.Room(nil), i.rooms...)
}

func (i *Inventory) indexLocked(roomID string) int {
	for idx := range i.rooms {
		if i.rooms[idx].ID == roomID {
			return idx
		}
	}
	return -1
}

func (i *Inventory) flag(roomID string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if idx := i.indexLocked(roomID); idx >= 0 {
		return i.rooms[idx].IsRoomAvailable
	}
	return false
}

func (i *Inventory) setFlag(roomID string, v bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if idx := i.indexLocked(roomID); idx >= 0 {
		i.rooms[idx].IsRoomAvailable = v
	}
}

// ToggleAvailability flips the room's flag locally, then on the server. If
// the server refuses, the local flag is restored. It returns the flag now in
// effect.
func (i *Inventory) ToggleAvailability(ctx context.Context, roomID string) (bool, error) {
	i.mu.RLock()
	idx := i.indexLocked(roomID)
	i.mu.RUnlock()
	if idx < 0 {
		return false, ErrUnknownRoom
	}

	next := !i.flag(roomID)
	err := optimistic.Do(ctx, optimistic.Mutation[bool]{
		Get: func() bool { return i.flag(roomID) },
		Set: func(v bool) { i.setFlag(roomID, v) },
		Commit: func(ctx context.Context, v bool) error {
			return i.api.ToggleRoom(ctx, roomID, v)
		},
	}, next)
	if err != nil {
		i.logger.Warn().Err(err).Str("room_id", roomID).Msg("room toggle reverted")
		return i.flag(roomID), fmt.Errorf("toggle room %s: %w", roomID, err)
	}

	if i.publisher != nil {
		i.publisher.PublishJSON(events.TypeRoomToggled, map[string]any{"roomId": roomID, "isRoomAvailable": next})
	}
	return next, nil
}
