package hotel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romsreu/hotel-premier/internal/common/utils"
	"github.com/romsreu/hotel-premier/internal/models"
	"github.com/romsreu/hotel-premier/internal/repository"
	"github.com/romsreu/hotel-premier/internal/service/ledger"
	"github.com/romsreu/hotel-premier/internal/testutil"
)

func TestRoomNumber(t *testing.T) {
	assert.Equal(t, 101, RoomNumber(1, 1))
	assert.Equal(t, 124, RoomNumber(1, 24))
	assert.Equal(t, 302, RoomNumber(3, 2))
}

func TestSeeder_Seed(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	clock := utils.FixedClock{Day: today}
	l := ledger.NewLedger(db, clock, nil)
	seeder := NewSeeder(db, l, clock, nil)

	result, err := seeder.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultCatalog), result.RoomTypesCreated)
	assert.Equal(t, 48, result.RoomsCreated)
	assert.Equal(t, DemoGuests, result.GuestsCreated)

	roomRepo := repository.NewRoomRepository(db)
	numbers, err := roomRepo.ListNumbers(ctx)
	require.NoError(t, err)
	require.Len(t, numbers, 48)
	assert.Equal(t, 101, numbers[0])
	assert.Equal(t, 124, numbers[23])
	assert.Equal(t, 201, numbers[24])
	assert.Equal(t, 224, numbers[47])

	t.Run("房型按目录顺序分配", func(t *testing.T) {
		suite, err := roomRepo.GetByNumber(ctx, 224)
		require.NoError(t, err)
		assert.Equal(t, "Suite Doble", suite.RoomType.Name)
		assert.Equal(t, 2, suite.Floor)

		single, err := roomRepo.GetByNumber(ctx, 110)
		require.NoError(t, err)
		assert.Equal(t, "Individual Estándar", single.RoomType.Name)
	})

	t.Run("新房间台账自今天起可用", func(t *testing.T) {
		intervals, err := l.Intervals(ctx, 213)
		require.NoError(t, err)
		require.Len(t, intervals, 1)
		assert.Equal(t, models.RoomStateAvailable, intervals[0].State)
		assert.True(t, intervals[0].StartDate.Equal(today))
		assert.True(t, intervals[0].IsOpen())
	})

	t.Run("重复执行不重复创建", func(t *testing.T) {
		again, err := seeder.Seed(ctx)
		require.NoError(t, err)
		assert.Equal(t, &SeedResult{}, again)

		violations, err := l.AuditAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, violations)
	})
}

func TestSeeder_CustomCatalog(t *testing.T) {
	db := testutil.NewTestDB(t)
	clock := utils.FixedClock{Day: today}
	seeder := NewSeeder(db, ledger.NewLedger(db, clock, nil), clock, []RoomTypeSeed{
		{Name: "Loft", Capacity: 3, NightlyCost: 180, Count: 26},
	})

	result, err := seeder.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 26, result.RoomsCreated)

	exists, err := repository.NewRoomRepository(db).Exists(context.Background(), 202)
	require.NoError(t, err)
	assert.True(t, exists)
}
