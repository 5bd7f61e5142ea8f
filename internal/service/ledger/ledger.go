// Package ledger 房态台账：按房间记录互不重叠、首尾相接的房态区间
//
// 台账保证三条不变量：
//   - 同一房间的有效区间互不重叠
//   - 至多一个开放区间，且必须是最后一个
//   - 自第一个区间起没有空档
//
// 区间从不物理删除：部分被覆盖时截断结束日期，整体被覆盖时作废。
package ledger

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/romsreu/hotel-premier/internal/common/errors"
	"github.com/romsreu/hotel-premier/internal/common/logger"
	"github.com/romsreu/hotel-premier/internal/common/tracing"
	"github.com/romsreu/hotel-premier/internal/common/utils"
	"github.com/romsreu/hotel-premier/internal/models"
	"github.com/romsreu/hotel-premier/internal/repository"
)

// DefaultState 房间没有任何区间时的房态
const DefaultState = models.RoomStateAvailable

const logModule = "ledger"

// Replaceable 判断区间能否被新区间覆盖
type Replaceable func(iv *models.StateInterval) bool

// Mutation 一次台账变更：将 [From, To] 设为 State，To 为空表示开放区间
type Mutation struct {
	Room          int
	CloseAt       *time.Time
	State         models.RoomState
	From          time.Time
	To            *time.Time
	ReservationID *int64
	Replaceable   Replaceable
}

// InStates 可覆盖处于指定房态的区间
func InStates(states ...models.RoomState) Replaceable {
	return func(iv *models.StateInterval) bool {
		return containsState(states, iv.State)
	}
}

// ForReservation 仅可覆盖由指定预订产生、处于指定房态的区间
func ForReservation(reservationID int64, state models.RoomState) Replaceable {
	return func(iv *models.StateInterval) bool {
		return iv.State == state && iv.ReservationID != nil && *iv.ReservationID == reservationID
	}
}

// Ledger 房态台账
type Ledger struct {
	db        *gorm.DB
	intervals *repository.IntervalRepository
	rooms     *repository.RoomRepository
	clock     utils.Clock
	tracer    *tracing.Tracer
}

// NewLedger 创建房态台账
func NewLedger(db *gorm.DB, clock utils.Clock, tracer *tracing.Tracer) *Ledger {
	return &Ledger{
		db:        db,
		intervals: repository.NewIntervalRepository(db),
		rooms:     repository.NewRoomRepository(db),
		clock:     clock,
		tracer:    tracer,
	}
}

// CurrentState 房间某天的房态
func (l *Ledger) CurrentState(ctx context.Context, room int, day time.Time) (models.RoomState, error) {
	covering, err := l.intervals.ListCovering(ctx, room, utils.Date(day))
	if err != nil {
		return "", errors.ErrDatabaseError.WithError(err)
	}

	switch len(covering) {
	case 0:
		return DefaultState, nil
	case 1:
		return covering[0].State, nil
	default:
		// 按开始日期倒序，第一个即最近开始的区间
		return covering[0].State, overlapError(room, covering[1], covering[0])
	}
}

// StatesInRange 批量查询多个房间在 [from, to] 每天的房态
func (l *Ledger) StatesInRange(ctx context.Context, rooms []int, from, to time.Time) (Grid, error) {
	from, to = utils.Date(from), utils.Date(to)
	ctx, span := l.tracer.Start(ctx, "ledger.states_in_range",
		append(tracing.WithDateRange(utils.FormatDate(from), utils.FormatDate(to)), tracing.WithRoomCount(len(rooms)))...)

	grid, err := l.statesInRange(ctx, l.intervals, rooms, from, to)
	tracing.End(span, err)
	return grid, err
}

// LockedStates 在事务内读取单个房间的权威房态
func (l *Ledger) LockedStates(ctx context.Context, tx *gorm.DB, room int, from, to time.Time) (Grid, error) {
	return l.statesInRange(ctx, l.intervals.WithTx(tx), []int{room}, utils.Date(from), utils.Date(to))
}

func (l *Ledger) statesInRange(ctx context.Context, repo *repository.IntervalRepository, rooms []int, from, to time.Time) (Grid, error) {
	if to.Before(from) {
		return nil, errors.ErrInvalidParams.WithMessage("开始日期不能晚于结束日期")
	}
	rooms = utils.SortedUniqueInts(rooms)
	if len(rooms) == 0 {
		return Grid{}, nil
	}

	intervals, err := repo.ListOverlapping(ctx, rooms, from, to)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return sweep(rooms, intervals, from, to)
}

// LockedIntervals 在事务内读取房间的有效区间
func (l *Ledger) LockedIntervals(ctx context.Context, tx *gorm.DB, room int) ([]*models.StateInterval, error) {
	intervals, err := l.intervals.WithTx(tx).ListByRoom(ctx, room)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if err := verify(room, intervals); err != nil {
		return nil, err
	}
	return intervals, nil
}

// LockRoom 在事务内锁定房间行，返回锁定时读到的房间
func (l *Ledger) LockRoom(ctx context.Context, tx *gorm.DB, room int) (*models.Room, error) {
	locked, err := l.rooms.WithTx(tx).LockForUpdate(ctx, room)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrRoomNotFound.WithMessagef("房间 %d 不存在", room)
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return locked, nil
}

// Bootstrap 为尚无区间的房间写入开放的可用区间 [since, ∞)
func (l *Ledger) Bootstrap(ctx context.Context, tx *gorm.DB, room int, since time.Time) (*models.StateInterval, error) {
	repo := l.intervals.WithTx(tx)

	count, err := repo.CountByRoom(ctx, room)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if count > 0 {
		return nil, nil
	}

	interval := &models.StateInterval{
		RoomNumber: room,
		State:      DefaultState,
		StartDate:  utils.Date(since),
	}
	if err := repo.Create(ctx, interval); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	logger.Info("房间台账初始化", logger.Module(logModule), logger.RoomNumber(room), logger.String("since", utils.FormatDate(since)))
	return interval, nil
}

// CloseAndOpen 在调用方事务内执行一次台账拼接
//
// 与 [From, To] 相交的区间必须全部可替换，否则返回 ErrLedgerConflict 且不写入任何数据。
// 早于 From 开始的区间截断到 From 前一天，其余的作废；越过 To 的部分以原房态补写余留区间。
func (l *Ledger) CloseAndOpen(ctx context.Context, tx *gorm.DB, m Mutation) (*models.StateInterval, error) {
	from := utils.Date(m.From)
	var to *time.Time
	if m.To != nil {
		end := utils.Date(*m.To)
		if end.Before(from) {
			return nil, errors.ErrInvalidParams.WithMessage("开始日期不能晚于结束日期")
		}
		to = &end
	}
	if !m.State.Valid() {
		return nil, errors.ErrInvalidParams.WithMessagef("未知房态 %s", m.State)
	}

	repo := l.intervals.WithTx(tx)
	intervals, err := repo.ListByRoom(ctx, m.Room)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if err := verify(m.Room, intervals); err != nil {
		return nil, err
	}

	if err := l.checkBounds(ctx, tx, m.Room, intervals, from); err != nil {
		return nil, err
	}

	dayBefore := utils.AddDays(from, -1)
	var affected []*models.StateInterval
	for _, iv := range intervals {
		if !iv.Overlaps(from, to) {
			continue
		}
		if m.Replaceable == nil || !m.Replaceable(iv) {
			return nil, errors.ErrLedgerConflict.WithMessagef("房间 %d 的区间 %s 不可覆盖", m.Room, describe(iv))
		}
		if iv.StartDate.Before(from) && m.CloseAt != nil && !utils.Date(*m.CloseAt).Equal(dayBefore) {
			return nil, errors.ErrLedgerConflict.WithMessagef("房间 %d 的区间 %s 只能截断到 %s",
				m.Room, describe(iv), utils.FormatDate(dayBefore))
		}
		affected = append(affected, iv)
	}

	now := time.Now()
	for _, iv := range affected {
		if iv.StartDate.Before(from) {
			err = repo.Close(ctx, iv.ID, dayBefore)
		} else {
			err = repo.Void(ctx, iv.ID, now)
		}
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}

		if to != nil && (iv.EndDate == nil || iv.EndDate.After(*to)) {
			remainder := &models.StateInterval{
				RoomNumber:    m.Room,
				State:         iv.State,
				StartDate:     utils.AddDays(*to, 1),
				EndDate:       iv.EndDate,
				ReservationID: iv.ReservationID,
			}
			if err := repo.Create(ctx, remainder); err != nil {
				return nil, errors.ErrDatabaseError.WithError(err)
			}
		}
	}

	interval := &models.StateInterval{
		RoomNumber:    m.Room,
		State:         m.State,
		StartDate:     from,
		EndDate:       to,
		ReservationID: m.ReservationID,
	}
	if err := repo.Create(ctx, interval); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	logger.Debug("台账拼接完成", logger.Module(logModule),
		logger.RoomNumber(m.Room),
		logger.State(string(m.State)),
		logger.String("interval", describe(interval)),
		logger.Int("affected", len(affected)),
	)
	return interval, nil
}

// checkBounds 新区间不能早于台账起点，也不能在最后一个区间之后留下空档
func (l *Ledger) checkBounds(ctx context.Context, tx *gorm.DB, room int, intervals []*models.StateInterval, from time.Time) error {
	if len(intervals) == 0 {
		r, err := l.rooms.WithTx(tx).GetByNumber(ctx, room)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrRoomNotFound.WithMessagef("房间 %d 不存在", room)
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if !utils.Date(r.InServiceFrom).Equal(from) {
			return errors.ErrLedgerConflict.WithMessagef("房间 %d 台账为空，首个区间必须从 %s 开始",
				room, utils.FormatDate(r.InServiceFrom))
		}
		return nil
	}

	first, last := intervals[0], intervals[len(intervals)-1]
	if from.Before(first.StartDate) {
		return errors.ErrLedgerConflict.WithMessagef("房间 %d 台账始于 %s，不能写入更早的区间",
			room, utils.FormatDate(first.StartDate))
	}
	if last.EndDate != nil && from.After(utils.AddDays(*last.EndDate, 1)) {
		return errors.ErrLedgerConflict.WithMessagef("房间 %d 台账止于 %s，写入 %s 会留下空档",
			room, utils.FormatDate(*last.EndDate), utils.FormatDate(from))
	}
	return nil
}

// Intervals 房间的有效区间，按开始日期升序
func (l *Ledger) Intervals(ctx context.Context, room int) ([]*models.StateInterval, error) {
	intervals, err := l.intervals.ListByRoom(ctx, room)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return intervals, nil
}

// RoomsInState 某天处于指定房态的房间号，仅包含已建立台账的房间
func (l *Ledger) RoomsInState(ctx context.Context, state models.RoomState, day time.Time) ([]int, error) {
	intervals, err := l.intervals.ListCoveringDayInState(ctx, state, utils.Date(day))
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	rooms := make([]int, 0, len(intervals))
	for _, iv := range intervals {
		rooms = append(rooms, iv.RoomNumber)
	}
	return utils.SortedUniqueInts(rooms), nil
}
