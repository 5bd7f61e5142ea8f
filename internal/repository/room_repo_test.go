// Package repository 房间仓储单元测试
package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/romsreu/hotel-premier/internal/common/utils"
	"github.com/romsreu/hotel-premier/internal/models"
	"github.com/romsreu/hotel-premier/internal/testutil"
)

var day0 = utils.MustParseDate("2024-06-01")

func TestRoomRepository_CreateAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	roomType := &models.RoomType{Name: "Doble Estándar", Capacity: 2, NightlyCost: 120}
	require.NoError(t, repo.CreateType(ctx, roomType))
	assert.NotZero(t, roomType.ID)

	room := &models.Room{Number: 101, RoomTypeID: roomType.ID, Floor: 1, InServiceFrom: day0}
	require.NoError(t, repo.Create(ctx, room))

	found, err := repo.GetByNumber(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, 101, found.Number)
	require.NotNil(t, found.RoomType)
	assert.Equal(t, "Doble Estándar", found.RoomType.Name)
	assert.True(t, found.InServiceFrom.Equal(day0))

	_, err = repo.GetByNumber(ctx, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRoomRepository_Exists(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	roomType := testutil.SeedRoomType(t, db, 2)
	testutil.SeedRoom(t, db, 101, roomType.ID, day0)

	exists, err := repo.Exists(ctx, 101)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, 102)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRoomRepository_List(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	single := testutil.SeedRoomType(t, db, 1)
	double := testutil.SeedRoomType(t, db, 2)
	testutil.SeedRoom(t, db, 201, double.ID, day0)
	testutil.SeedRoom(t, db, 101, single.ID, day0)
	testutil.SeedRoom(t, db, 102, double.ID, day0)
	require.NoError(t, repo.Quarantine(ctx, 102, "overlap", day0))

	t.Run("全部按房间号排序", func(t *testing.T) {
		rooms, err := repo.List(ctx, RoomFilter{})
		require.NoError(t, err)
		require.Len(t, rooms, 3)
		assert.Equal(t, []int{101, 102, 201}, []int{rooms[0].Number, rooms[1].Number, rooms[2].Number})
	})

	t.Run("按楼层", func(t *testing.T) {
		floor := 1
		rooms, err := repo.List(ctx, RoomFilter{Floor: &floor})
		require.NoError(t, err)
		assert.Len(t, rooms, 2)
	})

	t.Run("按房型", func(t *testing.T) {
		rooms, err := repo.List(ctx, RoomFilter{RoomTypeID: double.ID})
		require.NoError(t, err)
		assert.Len(t, rooms, 2)
	})

	t.Run("排除隔离房间", func(t *testing.T) {
		rooms, err := repo.List(ctx, RoomFilter{RoomTypeID: double.ID, ExcludeQuarantined: true})
		require.NoError(t, err)
		require.Len(t, rooms, 1)
		assert.Equal(t, 201, rooms[0].Number)
	})

	numbers, err := repo.ListNumbers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{101, 102, 201}, numbers)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestRoomRepository_Quarantine(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	roomType := testutil.SeedRoomType(t, db, 2)
	testutil.SeedRoom(t, db, 101, roomType.ID, day0)

	require.NoError(t, repo.Quarantine(ctx, 101, "gap detected", day0))

	room, err := repo.GetByNumber(ctx, 101)
	require.NoError(t, err)
	assert.True(t, room.Quarantined)
	require.NotNil(t, room.QuarantineReason)
	assert.Equal(t, "gap detected", *room.QuarantineReason)
	assert.NotNil(t, room.QuarantinedAt)

	count, err := repo.CountQuarantined(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.ReleaseQuarantine(ctx, 101))
	room, err = repo.GetByNumber(ctx, 101)
	require.NoError(t, err)
	assert.False(t, room.Quarantined)
	assert.Nil(t, room.QuarantineReason)
	assert.Nil(t, room.QuarantinedAt)
}

func TestRoomRepository_LockForUpdate(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	roomType := testutil.SeedRoomType(t, db, 2)
	testutil.SeedRoom(t, db, 101, roomType.ID, day0)

	err := db.Transaction(func(tx *gorm.DB) error {
		room, err := NewRoomRepository(db).WithTx(tx).LockForUpdate(ctx, 101)
		if err != nil {
			return err
		}
		assert.Equal(t, 101, room.Number)
		return nil
	})
	assert.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := NewRoomRepository(tx).LockForUpdate(ctx, 404)
		return err
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRoomRepository_Types(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	suite := &models.RoomType{Name: "Suite Doble", Capacity: 4, NightlyCost: 300}
	require.NoError(t, repo.CreateType(ctx, suite))

	byName, err := repo.GetTypeByName(ctx, "Suite Doble")
	require.NoError(t, err)
	assert.Equal(t, suite.ID, byName.ID)

	byID, err := repo.GetTypeByID(ctx, suite.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, byID.Capacity)

	_, err = repo.GetTypeByName(ctx, "Penthouse")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	types, err := repo.ListTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 1)
}

func TestGuestRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewGuestRepository(db)
	ctx := context.Background()

	testutil.SeedGuest(t, db, 7)

	guest, err := repo.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "住客7", guest.Name)

	exists, err := repo.Exists(ctx, 7)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, 9)
	require.NoError(t, err)
	assert.False(t, exists)
}
