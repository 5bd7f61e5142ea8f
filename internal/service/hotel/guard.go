package hotel

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/romsreu/hotel-premier/internal/common/errors"
	"github.com/romsreu/hotel-premier/internal/common/lock"
	"github.com/romsreu/hotel-premier/internal/common/logger"
	"github.com/romsreu/hotel-premier/internal/common/metrics"
	"github.com/romsreu/hotel-premier/internal/common/tracing"
	"github.com/romsreu/hotel-premier/internal/common/utils"
	"github.com/romsreu/hotel-premier/internal/models"
	"github.com/romsreu/hotel-premier/internal/service/ledger"
)

const logModule = "hotel"

// StateLedger 变更房态所需的台账能力
type StateLedger interface {
	LockRoom(ctx context.Context, tx *gorm.DB, room int) (*models.Room, error)
	Bootstrap(ctx context.Context, tx *gorm.DB, room int, since time.Time) (*models.StateInterval, error)
	LockedStates(ctx context.Context, tx *gorm.DB, room int, from, to time.Time) (ledger.Grid, error)
	LockedIntervals(ctx context.Context, tx *gorm.DB, room int) ([]*models.StateInterval, error)
	CloseAndOpen(ctx context.Context, tx *gorm.DB, m ledger.Mutation) (*models.StateInterval, error)
	Audit(ctx context.Context, room int) error
}

// RoomQuarantiner 台账异常时隔离房间
type RoomQuarantiner interface {
	Quarantine(ctx context.Context, number int, reason string) error
}

// roomGuard 串行执行单个房间的变更：房间锁、事务与行锁，台账异常时隔离房间
type roomGuard struct {
	db          *gorm.DB
	ledger      StateLedger
	locker      lock.RoomLocker
	quarantiner RoomQuarantiner
	metrics     *metrics.Metrics
}

// run 在房间锁与事务内执行 fn，任一错误都会回滚全部写入
func (g *roomGuard) run(ctx context.Context, room int, fn func(tx *gorm.DB) error) error {
	waitStart := time.Now()
	unlock, err := g.locker.Lock(ctx, room)
	g.metrics.ObserveLockWait(time.Since(waitStart), err)
	if err != nil {
		logger.Warn("获取房间锁失败", logger.Module(logModule), logger.RoomNumber(room), logger.Err(err))
		return err
	}
	defer unlock()

	err = g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := g.ledger.LockRoom(ctx, tx, room)
		if err != nil {
			return err
		}
		// 等锁期间房间可能已被隔离
		if locked.Quarantined {
			return errors.ErrRoomQuarantined.WithMessagef("房间 %d 已隔离：%s", room, utils.SafeString(locked.QuarantineReason))
		}
		return fn(tx)
	})

	if errors.Is(err, errors.ErrInvariantViolation) {
		g.quarantine(ctx, room, err)
	}
	return err
}

// quarantine 事务回滚后隔离房间，等待人工核对
func (g *roomGuard) quarantine(ctx context.Context, room int, cause error) {
	g.metrics.RecordInvariantViolation()
	tracing.AddEvent(ctx, "room.quarantined", tracing.AttrRoomNumber.Int(room))
	logger.Error("房态台账不变量被破坏，隔离房间", logger.Module(logModule), logger.RoomNumber(room), logger.Err(cause))

	if g.quarantiner == nil {
		return
	}
	if err := g.quarantiner.Quarantine(ctx, room, cause.Error()); err != nil {
		logger.Error("隔离房间失败", logger.Module(logModule), logger.RoomNumber(room), logger.Err(err))
	}
}
