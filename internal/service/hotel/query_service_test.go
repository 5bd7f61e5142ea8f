package hotel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romsreu/hotel-premier/internal/common/errors"
	"github.com/romsreu/hotel-premier/internal/common/utils"
	"github.com/romsreu/hotel-premier/internal/models"
	"github.com/romsreu/hotel-premier/internal/repository"
)

func TestQueryService_RoomStatesByDay(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	r := env.reserve(t, 7, 101, 1, 2)
	_, err := env.reservations.CheckIn(ctx, r.ID)
	require.NoError(t, err)
	env.reserve(t, 9, 102, 2, 3)

	grid, err := env.queries.RoomStatesByDay(ctx, []int{101, 102, 201}, day(0), day(3))
	require.NoError(t, err)
	assert.Len(t, grid, 12)
	assert.Equal(t, models.RoomStateOccupied, grid.At(101, day(1)))
	assert.Equal(t, models.RoomStateReserved, grid.At(102, day(3)))
	assert.Equal(t, models.RoomStateAvailable, grid.At(201, day(2)))

	state, err := env.queries.CurrentState(ctx, 102, day(2))
	require.NoError(t, err)
	assert.Equal(t, models.RoomStateReserved, state)

	t.Run("日期倒置", func(t *testing.T) {
		_, err := env.queries.RoomStatesByDay(ctx, []int{101}, day(3), day(0))
		assert.ErrorIs(t, err, errors.ErrInvalidParams)
	})

	t.Run("超过最大天数", func(t *testing.T) {
		short := NewQueryService(env.ledger, repository.NewRoomRepository(env.db), 7)
		_, err := short.RoomStatesByDay(ctx, []int{101}, day(0), day(7))
		assert.ErrorIs(t, err, errors.ErrInvalidParams)

		_, err = short.RoomStatesByDay(ctx, []int{101}, day(0), day(6))
		assert.NoError(t, err)
	})
}

func TestQueryService_IsFreeForRange(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.reserve(t, 7, 101, 3, 4)

	free, err := env.queries.IsFreeForRange(ctx, []int{101, 102}, day(0), day(3))
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{101: false, 102: true}, free)

	free, err = env.queries.IsFreeForRange(ctx, []int{101}, day(5), day(9))
	require.NoError(t, err)
	assert.True(t, free[101])
}

func TestQueryService_AvailableRooms(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.reserve(t, 7, 101, 1, 2)
	require.NoError(t, env.rooms.TakeOutOfService(ctx, 201, models.RoomStateMaintenance, day(2), utils.TimePtr(day(2))))

	rooms, err := env.queries.AvailableRooms(ctx, day(0), day(3), 0)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, 102, rooms[0].Number)

	rooms, err = env.queries.AvailableRooms(ctx, day(3), day(5), 0)
	require.NoError(t, err)
	assert.Len(t, rooms, 3)

	t.Run("按房型", func(t *testing.T) {
		typeID, err := env.rooms.RoomTypeOf(ctx, 201)
		require.NoError(t, err)
		rooms, err := env.queries.AvailableRooms(ctx, day(3), day(5), typeID)
		require.NoError(t, err)
		require.Len(t, rooms, 1)
		assert.Equal(t, 201, rooms[0].Number)
	})

	t.Run("排除隔离房间", func(t *testing.T) {
		require.NoError(t, env.rooms.Quarantine(ctx, 102, "audit"))
		rooms, err := env.queries.AvailableRooms(ctx, day(3), day(5), 0)
		require.NoError(t, err)
		assert.Len(t, rooms, 2)
	})

	t.Run("启用日之前不可预订", func(t *testing.T) {
		rooms, err := env.queries.AvailableRooms(ctx, day(-2), day(0), 0)
		require.NoError(t, err)
		assert.Empty(t, rooms)
	})
}
