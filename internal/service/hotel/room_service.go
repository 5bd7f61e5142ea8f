package hotel

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/romsreu/hotel-premier/internal/common/errors"
	"github.com/romsreu/hotel-premier/internal/common/lock"
	"github.com/romsreu/hotel-premier/internal/common/logger"
	"github.com/romsreu/hotel-premier/internal/common/metrics"
	"github.com/romsreu/hotel-premier/internal/common/utils"
	"github.com/romsreu/hotel-premier/internal/models"
	"github.com/romsreu/hotel-premier/internal/repository"
	"github.com/romsreu/hotel-premier/internal/service/ledger"
)

// RoomRegistry 房间登记簿，核心只读
type RoomRegistry interface {
	RoomExists(ctx context.Context, number int) (bool, error)
	RoomTypeOf(ctx context.Context, number int) (int64, error)
	GetRoom(ctx context.Context, number int) (*models.Room, error)
}

// RoomService 房间服务：登记簿查询、维护与隔离
type RoomService struct {
	roomRepo *repository.RoomRepository
	ledger   StateLedger
	clock    utils.Clock
	metrics  *metrics.Metrics
	guard    *roomGuard
}

// NewRoomService 创建房间服务
func NewRoomService(
	db *gorm.DB,
	roomRepo *repository.RoomRepository,
	stateLedger StateLedger,
	locker lock.RoomLocker,
	clock utils.Clock,
	m *metrics.Metrics,
) *RoomService {
	s := &RoomService{
		roomRepo: roomRepo,
		ledger:   stateLedger,
		clock:    clock,
		metrics:  m,
	}
	s.guard = &roomGuard{db: db, ledger: stateLedger, locker: locker, quarantiner: s, metrics: m}
	return s
}

// RoomInfo 房间信息
type RoomInfo struct {
	Number           int        `json:"number"`
	Floor            int        `json:"floor"`
	RoomTypeID       int64      `json:"room_type_id"`
	RoomTypeName     string     `json:"room_type_name,omitempty"`
	Capacity         int        `json:"capacity,omitempty"`
	InServiceFrom    string     `json:"in_service_from"`
	Quarantined      bool       `json:"quarantined"`
	QuarantineReason string     `json:"quarantine_reason,omitempty"`
	QuarantinedAt    *time.Time `json:"quarantined_at,omitempty"`
}

// RoomTypeInfo 房型信息
type RoomTypeInfo struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Capacity    int     `json:"capacity"`
	NightlyCost float64 `json:"nightly_cost"`
}

// RoomExists 房间是否存在
func (s *RoomService) RoomExists(ctx context.Context, number int) (bool, error) {
	exists, err := s.roomRepo.Exists(ctx, number)
	if err != nil {
		return false, errors.ErrDatabaseError.WithError(err)
	}
	return exists, nil
}

// RoomTypeOf 房间所属房型
func (s *RoomService) RoomTypeOf(ctx context.Context, number int) (int64, error) {
	room, err := s.GetRoom(ctx, number)
	if err != nil {
		return 0, err
	}
	return room.RoomTypeID, nil
}

// GetRoom 获取房间（包含房型）
func (s *RoomService) GetRoom(ctx context.Context, number int) (*models.Room, error) {
	room, err := s.roomRepo.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrRoomNotFound.WithMessagef("房间 %d 不存在", number)
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return room, nil
}

// GetRoomInfo 获取房间信息
func (s *RoomService) GetRoomInfo(ctx context.Context, number int) (*RoomInfo, error) {
	room, err := s.GetRoom(ctx, number)
	if err != nil {
		return nil, err
	}
	return toRoomInfo(room), nil
}

// ListRooms 房间列表，floor 为空、roomTypeID 为 0 表示不过滤
func (s *RoomService) ListRooms(ctx context.Context, floor *int, roomTypeID int64) ([]*RoomInfo, error) {
	rooms, err := s.roomRepo.List(ctx, repository.RoomFilter{Floor: floor, RoomTypeID: roomTypeID})
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	list := make([]*RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		list = append(list, toRoomInfo(room))
	}
	return list, nil
}

// ListRoomTypes 房型目录
func (s *RoomService) ListRoomTypes(ctx context.Context) ([]*RoomTypeInfo, error) {
	types, err := s.roomRepo.ListTypes(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	list := make([]*RoomTypeInfo, 0, len(types))
	for _, t := range types {
		list = append(list, &RoomTypeInfo{
			ID:          t.ID,
			Name:        t.Name,
			Description: utils.SafeString(t.Description),
			Capacity:    t.Capacity,
			NightlyCost: t.NightlyCost,
		})
	}
	return list, nil
}

// TakeOutOfService 将房间在 [from, to] 标记为维护类房态，to 为空表示无限期
func (s *RoomService) TakeOutOfService(ctx context.Context, number int, state models.RoomState, from time.Time, to *time.Time) error {
	from = utils.Date(from)
	if !state.IsMaintenance() {
		return errors.ErrInvalidParams.WithMessagef("%s 不是维护类房态", state)
	}
	if from.Before(s.clock.Today()) {
		return errors.ErrInvalidParams.WithMessage("开始日期不能早于今天")
	}
	if to != nil {
		end := utils.Date(*to)
		if end.Before(from) {
			return errors.ErrInvalidParams.WithMessage("开始日期不能晚于结束日期")
		}
		to = &end
	}

	room, err := s.mutableRoom(ctx, number)
	if err != nil {
		return err
	}

	err = s.guard.run(ctx, number, func(tx *gorm.DB) error {
		if _, err := s.ledger.Bootstrap(ctx, tx, number, room.InServiceFrom); err != nil {
			return err
		}

		intervals, err := s.ledger.LockedIntervals(ctx, tx, number)
		if err != nil {
			return err
		}
		for _, iv := range intervals {
			if iv.Overlaps(from, to) && (iv.State == models.RoomStateReserved || iv.State == models.RoomStateOccupied) {
				return errors.ErrRoomNotAvailable.WithMessagef("房间 %d 在 %s 为 %s",
					number, utils.FormatDate(utils.MaxDate(iv.StartDate, from)), models.RoomStateNames[iv.State])
			}
		}

		_, err = s.ledger.CloseAndOpen(ctx, tx, ledger.Mutation{
			Room:  number,
			State: state,
			From:  from,
			To:    to,
			Replaceable: ledger.InStates(
				models.RoomStateAvailable, models.RoomStateMaintenance, models.RoomStateOutOfOrder,
			),
		})
		return err
	})
	if err != nil {
		return err
	}

	logger.Info("房间停用", logger.Module(logModule), logger.RoomNumber(number), logger.State(string(state)),
		logger.String("from", utils.FormatDate(from)))
	return nil
}

// ReturnToService 自 from 起恢复可用，直到连续维护期结束
func (s *RoomService) ReturnToService(ctx context.Context, number int, from time.Time) error {
	from = utils.Date(from)
	if from.Before(s.clock.Today()) {
		return errors.ErrInvalidParams.WithMessage("开始日期不能早于今天")
	}
	if _, err := s.mutableRoom(ctx, number); err != nil {
		return err
	}

	err := s.guard.run(ctx, number, func(tx *gorm.DB) error {
		intervals, err := s.ledger.LockedIntervals(ctx, tx, number)
		if err != nil {
			return err
		}

		to, ok := maintenanceRunEnd(intervals, from)
		if !ok {
			return errors.ErrInvalidParams.WithMessagef("房间 %d 在 %s 不处于维护中", number, utils.FormatDate(from))
		}

		_, err = s.ledger.CloseAndOpen(ctx, tx, ledger.Mutation{
			Room:        number,
			State:       models.RoomStateAvailable,
			From:        from,
			To:          to,
			Replaceable: ledger.InStates(models.RoomStateMaintenance, models.RoomStateOutOfOrder),
		})
		return err
	})
	if err != nil {
		return err
	}

	logger.Info("房间恢复可用", logger.Module(logModule), logger.RoomNumber(number), logger.String("from", utils.FormatDate(from)))
	return nil
}

// maintenanceRunEnd 找到覆盖 from 的连续维护期的结束日期，nil 表示无限期
func maintenanceRunEnd(intervals []*models.StateInterval, from time.Time) (*time.Time, bool) {
	start := -1
	for i, iv := range intervals {
		if iv.Covers(from) {
			start = i
			break
		}
	}
	if start < 0 || !intervals[start].State.IsMaintenance() {
		return nil, false
	}

	end := intervals[start].EndDate
	for _, iv := range intervals[start+1:] {
		if !iv.State.IsMaintenance() {
			break
		}
		end = iv.EndDate
	}
	return end, true
}

// Quarantine 隔离房间，之后的变更全部拒绝，直到人工解除
func (s *RoomService) Quarantine(ctx context.Context, number int, reason string) error {
	if err := s.roomRepo.Quarantine(ctx, number, reason, time.Now()); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	logger.Warn("房间已隔离", logger.Module(logModule), logger.RoomNumber(number), logger.String("reason", reason))
	s.refreshQuarantineGauge(ctx)
	return nil
}

// ReleaseQuarantine 人工核对后解除隔离，台账仍不满足不变量时拒绝
func (s *RoomService) ReleaseQuarantine(ctx context.Context, number int) error {
	room, err := s.GetRoom(ctx, number)
	if err != nil {
		return err
	}
	if !room.Quarantined {
		return nil
	}
	if err := s.ledger.Audit(ctx, number); err != nil {
		return err
	}

	if err := s.roomRepo.ReleaseQuarantine(ctx, number); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	logger.Info("房间解除隔离", logger.Module(logModule), logger.RoomNumber(number))
	s.refreshQuarantineGauge(ctx)
	return nil
}

func (s *RoomService) refreshQuarantineGauge(ctx context.Context) {
	count, err := s.roomRepo.CountQuarantined(ctx)
	if err != nil {
		logger.Warn("统计隔离房间失败", logger.Module(logModule), logger.Err(err))
		return
	}
	s.metrics.SetQuarantinedRooms(int(count))
}

// mutableRoom 获取允许变更房态的房间
func (s *RoomService) mutableRoom(ctx context.Context, number int) (*models.Room, error) {
	room, err := s.GetRoom(ctx, number)
	if err != nil {
		return nil, err
	}
	if room.Quarantined {
		return nil, errors.ErrRoomQuarantined.WithMessagef("房间 %d 已隔离：%s", number, utils.SafeString(room.QuarantineReason))
	}
	return room, nil
}

func toRoomInfo(room *models.Room) *RoomInfo {
	info := &RoomInfo{
		Number:           room.Number,
		Floor:            room.Floor,
		RoomTypeID:       room.RoomTypeID,
		InServiceFrom:    utils.FormatDate(room.InServiceFrom),
		Quarantined:      room.Quarantined,
		QuarantineReason: utils.SafeString(room.QuarantineReason),
		QuarantinedAt:    room.QuarantinedAt,
	}
	if room.RoomType != nil {
		info.RoomTypeName = room.RoomType.Name
		info.Capacity = room.RoomType.Capacity
	}
	return info
}
