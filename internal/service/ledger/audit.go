package ledger

import (
	"context"

	"github.com/romsreu/hotel-premier/internal/common/errors"
	"github.com/romsreu/hotel-premier/internal/common/logger"
	"github.com/romsreu/hotel-premier/internal/common/utils"
	"github.com/romsreu/hotel-premier/internal/models"
)

// verify 检查按开始日期排序的区间：不重叠、开放区间唯一且在最后、无空档
func verify(room int, intervals []*models.StateInterval) error {
	for i, iv := range intervals {
		if iv.EndDate != nil && iv.EndDate.Before(iv.StartDate) {
			return errors.ErrInvariantViolation.WithMessagef("房间 %d 区间 %s 结束早于开始", room, describe(iv))
		}
		if i == 0 {
			continue
		}

		prev := intervals[i-1]
		if prev.EndDate == nil {
			if iv.EndDate == nil {
				return errors.ErrInvariantViolation.WithMessagef("房间 %d 存在多个开放区间：%s 与 %s",
					room, describe(prev), describe(iv))
			}
			return overlapError(room, prev, iv)
		}
		if !iv.StartDate.After(*prev.EndDate) {
			return overlapError(room, prev, iv)
		}
		if !utils.AddDays(*prev.EndDate, 1).Equal(iv.StartDate) {
			return errors.ErrInvariantViolation.WithMessagef("房间 %d 区间 %s 与 %s 之间存在空档",
				room, describe(prev), describe(iv))
		}
	}
	return nil
}

// Audit 校验房间台账的全部不变量，并要求台账覆盖到今天
func (l *Ledger) Audit(ctx context.Context, room int) error {
	intervals, err := l.Intervals(ctx, room)
	if err != nil {
		return err
	}
	if err := verify(room, intervals); err != nil {
		return err
	}
	if len(intervals) == 0 {
		return nil
	}

	last := intervals[len(intervals)-1]
	if today := l.clock.Today(); last.EndDate != nil && last.EndDate.Before(today) {
		return errors.ErrInvariantViolation.WithMessagef("房间 %d 台账止于 %s，未覆盖今天",
			room, utils.FormatDate(*last.EndDate))
	}
	return nil
}

// AuditAll 巡检所有已建立台账的房间，返回违反不变量的房间及原因
func (l *Ledger) AuditAll(ctx context.Context) (map[int]error, error) {
	rooms, err := l.intervals.ListRoomNumbers(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	violations := make(map[int]error)
	for _, room := range rooms {
		if err := ctx.Err(); err != nil {
			return violations, err
		}
		err := l.Audit(ctx, room)
		if err == nil {
			continue
		}
		if !errors.Is(err, errors.ErrInvariantViolation) {
			return violations, err
		}
		violations[room] = err
	}

	logger.Info("台账巡检完成", logger.Module(logModule), logger.Int("rooms", len(rooms)), logger.Int("violations", len(violations)))
	return violations, nil
}
