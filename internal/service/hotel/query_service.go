package hotel

import (
	"context"
	"time"

	"github.com/romsreu/hotel-premier/internal/common/errors"
	"github.com/romsreu/hotel-premier/internal/common/utils"
	"github.com/romsreu/hotel-premier/internal/models"
	"github.com/romsreu/hotel-premier/internal/repository"
	"github.com/romsreu/hotel-premier/internal/service/ledger"
)

// RangeReader 读取已提交的房态，不加锁
type RangeReader interface {
	CurrentState(ctx context.Context, room int, day time.Time) (models.RoomState, error)
	StatesInRange(ctx context.Context, rooms []int, from, to time.Time) (ledger.Grid, error)
}

// QueryService 房态区间查询服务
type QueryService struct {
	reader       RangeReader
	roomRepo     *repository.RoomRepository
	maxQueryDays int
}

// NewQueryService 创建房态查询服务，maxQueryDays 为单次查询最多天数
func NewQueryService(reader RangeReader, roomRepo *repository.RoomRepository, maxQueryDays int) *QueryService {
	return &QueryService{reader: reader, roomRepo: roomRepo, maxQueryDays: maxQueryDays}
}

// RoomStatesByDay 多个房间在 [from, to] 每天的房态
func (s *QueryService) RoomStatesByDay(ctx context.Context, rooms []int, from, to time.Time) (ledger.Grid, error) {
	from, to = utils.Date(from), utils.Date(to)
	if err := s.checkRange(from, to); err != nil {
		return nil, err
	}
	return s.reader.StatesInRange(ctx, rooms, from, to)
}

// CurrentState 房间某天的房态
func (s *QueryService) CurrentState(ctx context.Context, room int, day time.Time) (models.RoomState, error) {
	return s.reader.CurrentState(ctx, room, utils.Date(day))
}

// IsFreeForRange 每个房间在 [from, to] 是否全部可用
func (s *QueryService) IsFreeForRange(ctx context.Context, rooms []int, from, to time.Time) (map[int]bool, error) {
	grid, err := s.RoomStatesByDay(ctx, rooms, from, to)
	if err != nil {
		return nil, err
	}

	free := make(map[int]bool, len(rooms))
	for _, room := range rooms {
		free[room] = grid.FreeForRange(room, from, to)
	}
	return free, nil
}

// AvailableRooms 指定房型（0 表示全部）在 [from, to] 全部可用且未隔离的房间
func (s *QueryService) AvailableRooms(ctx context.Context, from, to time.Time, roomTypeID int64) ([]*RoomInfo, error) {
	rooms, err := s.roomRepo.List(ctx, repository.RoomFilter{RoomTypeID: roomTypeID, ExcludeQuarantined: true})
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	numbers := make([]int, 0, len(rooms))
	for _, room := range rooms {
		numbers = append(numbers, room.Number)
	}
	grid, err := s.RoomStatesByDay(ctx, numbers, from, to)
	if err != nil {
		return nil, err
	}

	available := make([]*RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		// 启用前的日期不可预订
		if utils.Date(from).Before(utils.Date(room.InServiceFrom)) {
			continue
		}
		if grid.FreeForRange(room.Number, from, to) {
			available = append(available, toRoomInfo(room))
		}
	}
	return available, nil
}

func (s *QueryService) checkRange(from, to time.Time) error {
	if to.Before(from) {
		return errors.ErrInvalidParams.WithMessage("开始日期不能晚于结束日期")
	}
	if s.maxQueryDays > 0 && utils.DaysInclusive(from, to) > s.maxQueryDays {
		return errors.ErrInvalidParams.WithMessagef("查询区间不能超过 %d 天", s.maxQueryDays)
	}
	return nil
}
