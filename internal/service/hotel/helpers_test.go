package hotel

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/romsreu/hotel-premier/internal/common/lock"
	"github.com/romsreu/hotel-premier/internal/common/metrics"
	"github.com/romsreu/hotel-premier/internal/common/utils"
	"github.com/romsreu/hotel-premier/internal/repository"
	"github.com/romsreu/hotel-premier/internal/service/ledger"
	"github.com/romsreu/hotel-premier/internal/testutil"
)

var today = utils.MustParseDate("2024-06-01")

func day(n int) time.Time { return utils.AddDays(today, n) }

func ds(n int) string { return utils.FormatDate(day(n)) }

// testEnv 测试用服务集合：房间 101、102（双人）、201（四人），住客 7、9
type testEnv struct {
	db           *gorm.DB
	ledger       *ledger.Ledger
	rooms        *RoomService
	reservations *ReservationService
	queries      *QueryService
	metrics      *metrics.Metrics
	registry     *prometheus.Registry
}

func setupTestEnv(t *testing.T) *testEnv {
	return setupTestEnvWithLocker(t, lock.NewMemoryLocker(5*time.Second))
}

func setupTestEnvWithLocker(t *testing.T, locker lock.RoomLocker) *testEnv {
	db := testutil.NewTestDB(t)

	double := testutil.SeedRoomType(t, db, 2)
	family := testutil.SeedRoomType(t, db, 4)
	testutil.SeedRoom(t, db, 101, double.ID, today)
	testutil.SeedRoom(t, db, 102, double.ID, today)
	testutil.SeedRoom(t, db, 201, family.ID, today)
	testutil.SeedGuest(t, db, 7)
	testutil.SeedGuest(t, db, 9)

	clock := utils.FixedClock{Day: today}
	registry := prometheus.NewRegistry()
	m := metrics.New("hotel_test", registry)
	l := ledger.NewLedger(db, clock, nil)
	roomRepo := repository.NewRoomRepository(db)
	guestRepo := repository.NewGuestRepository(db)

	rooms := NewRoomService(db, roomRepo, l, locker, clock, m)
	reservations := NewReservationService(db, l, rooms, rooms, GuestDirectoryFunc(guestRepo.Exists), locker, clock, m, nil)

	return &testEnv{
		db:           db,
		ledger:       l,
		rooms:        rooms,
		reservations: reservations,
		queries:      NewQueryService(l, roomRepo, 366),
		metrics:      m,
		registry:     registry,
	}
}

func (e *testEnv) reserve(t *testing.T, guest int64, room, from, to int) *ReservationInfo {
	t.Helper()
	info, err := e.reservations.CreateReservation(context.Background(), newRequest(guest, room, from, to))
	require.NoError(t, err)
	return info
}

func newRequest(guest int64, room, from, to int) *CreateReservationRequest {
	return &CreateReservationRequest{
		GuestID:       guest,
		RoomNumber:    room,
		StartDate:     ds(from),
		EndDate:       ds(to),
		OccupantCount: 1,
	}
}
