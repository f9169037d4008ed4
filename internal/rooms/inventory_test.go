package rooms

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hotelpartner/internal/api"
	"hotelpartner/internal/models"
)

type mockAPI struct {
	mock.Mock
	inv *Inventory
	// seen records the local flag at the moment the server is called.
	seen []bool
}

func (m *mockAPI) Rooms(ctx context.Context) ([]models.Room, error) {
	args := m.Called(ctx)
	rooms, _ := args.Get(0).([]models.Room)
	return rooms, args.Error(1)
}

func (m *mockAPI) ToggleRoom(ctx context.Context, roomID string, available bool) error {
	if m.inv != nil {
		m.seen = append(m.seen, m.inv.flag(roomID))
	}
	return m.Called(ctx, roomID, available).Error(0)
}

func newInventory(t *testing.T) (*Inventory, *mockAPI) {
	t.Helper()
	client := new(mockAPI)
	client.On("Rooms", mock.Anything).Return([]models.Room{
		{ID: "r1", IsRoomAvailable: true},
		{ID: "r2", IsRoomAvailable: false},
	}, nil)
	inv := NewInventory(client, nil, nil)
	client.inv = inv
	_, err := inv.Refresh(context.Background())
	require.NoError(t, err)
	return inv, client
}

func TestToggleAvailability_Success(t *testing.T) {
	inv, client := newInventory(t)
	client.On("ToggleRoom", mock.Anything, "r1", false).Return(nil)

	got, err := inv.ToggleAvailability(context.Background(), "r1")
	require.NoError(t, err)
	assert.False(t, got)
	assert.False(t, inv.Rooms()[0].IsRoomAvailable)
	assert.Equal(t, []bool{false}, client.seen, "flag flipped before the server answered")
}

func TestToggleAvailability_RevertsOnFailure(t *testing.T) {
	inv, client := newInventory(t)
	client.On("ToggleRoom", mock.Anything, "r2", true).Return(&api.Error{Status: 500})

	got, err := inv.ToggleAvailability(context.Background(), "r2")
	require.Error(t, err)
	assert.False(t, got)
	assert.False(t, inv.Rooms()[1].IsRoomAvailable)
	assert.Equal(t, []bool{true}, client.seen)
}

func TestToggleAvailability_UnknownRoom(t *testing.T) {
	inv, _ := newInventory(t)
	_, err := inv.ToggleAvailability(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownRoom)
}

func TestRefresh(t *testing.T) {
	client := new(mockAPI)
	client.On("Rooms", mock.Anything).Return(nil, api.ErrNoRoomsConfigured).Once()
	client.On("Rooms", mock.Anything).Return(nil, errors.New("offline")).Once()
	inv := NewInventory(client, nil, nil)

	_, err := inv.Refresh(context.Background())
	assert.ErrorIs(t, err, api.ErrNoRoomsConfigured)
	assert.Empty(t, inv.Rooms())

	_, err = inv.Refresh(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, api.ErrNoRoomsConfigured)
}
