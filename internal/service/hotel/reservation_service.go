// Package hotel 提供酒店房态与预订生命周期服务
package hotel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/romsreu/hotel-premier/internal/common/errors"
	"github.com/romsreu/hotel-premier/internal/common/lock"
	"github.com/romsreu/hotel-premier/internal/common/logger"
	"github.com/romsreu/hotel-premier/internal/common/metrics"
	"github.com/romsreu/hotel-premier/internal/common/tracing"
	"github.com/romsreu/hotel-premier/internal/common/utils"
	"github.com/romsreu/hotel-premier/internal/models"
	"github.com/romsreu/hotel-premier/internal/repository"
	"github.com/romsreu/hotel-premier/internal/service/ledger"
)

// 预订操作名称，用于指标与日志
const (
	OpCreate  = "create"
	OpCheckIn = "check_in"
	OpCancel  = "cancel"
)

// GuestDirectory 住客目录，核心只检查住客是否存在
type GuestDirectory interface {
	GuestExists(ctx context.Context, id int64) (bool, error)
}

// GuestDirectoryFunc 函数形式的住客目录
type GuestDirectoryFunc func(ctx context.Context, id int64) (bool, error)

// GuestExists 实现 GuestDirectory
func (f GuestDirectoryFunc) GuestExists(ctx context.Context, id int64) (bool, error) {
	return f(ctx, id)
}

// ReservationService 预订生命周期服务
type ReservationService struct {
	reservationRepo *repository.ReservationRepository
	stayRepo        *repository.StayRepository
	ledger          StateLedger
	rooms           RoomRegistry
	guests          GuestDirectory
	clock           utils.Clock
	metrics         *metrics.Metrics
	tracer          *tracing.Tracer
	validate        *validator.Validate
	guard           *roomGuard
}

// NewReservationService 创建预订服务
func NewReservationService(
	db *gorm.DB,
	stateLedger StateLedger,
	rooms RoomRegistry,
	quarantiner RoomQuarantiner,
	guests GuestDirectory,
	locker lock.RoomLocker,
	clock utils.Clock,
	m *metrics.Metrics,
	tracer *tracing.Tracer,
) *ReservationService {
	return &ReservationService{
		reservationRepo: repository.NewReservationRepository(db),
		stayRepo:        repository.NewStayRepository(db),
		ledger:          stateLedger,
		rooms:           rooms,
		guests:          guests,
		clock:           clock,
		metrics:         m,
		tracer:          tracer,
		validate:        validator.New(),
		guard:           &roomGuard{db: db, ledger: stateLedger, locker: locker, quarantiner: quarantiner, metrics: m},
	}
}

// CreateReservationRequest 创建预订请求，日期格式 YYYY-MM-DD，结束日期包含在内
type CreateReservationRequest struct {
	GuestID       int64   `json:"guest_id" validate:"required,gt=0"`
	RoomNumber    int     `json:"room_number" validate:"required,gt=0"`
	StartDate     string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate       string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	OccupantCount int     `json:"occupant_count" validate:"required,min=1"`
	Discount      float64 `json:"discount" validate:"gte=0,lte=1"`
}

// ReservationInfo 预订信息
type ReservationInfo struct {
	ID            int64      `json:"id"`
	ReservationNo string     `json:"reservation_no"`
	GuestID       int64      `json:"guest_id"`
	RoomNumber    int        `json:"room_number"`
	StartDate     string     `json:"start_date"`
	EndDate       string     `json:"end_date"`
	OccupantCount int        `json:"occupant_count"`
	Discount      float64    `json:"discount"`
	Status        string     `json:"status"`
	StatusName    string     `json:"status_name"`
	CheckedIn     bool       `json:"checked_in"`
	Stay          *StayInfo  `json:"stay,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// StayInfo 入住信息
type StayInfo struct {
	ID            int64     `json:"id"`
	ReservationID int64     `json:"reservation_id"`
	RoomNumber    int       `json:"room_number"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	CheckedInAt   time.Time `json:"checked_in_at"`
}

// BatchResult 批量预订中单项的结果
type BatchResult struct {
	Index       int              `json:"index"`
	Reservation *ReservationInfo `json:"reservation,omitempty"`
	Err         error            `json:"-"`
}

// CreateReservation 创建预订
func (s *ReservationService) CreateReservation(ctx context.Context, req *CreateReservationRequest) (*ReservationInfo, error) {
	start := time.Now()
	if req == nil {
		err := errors.ErrInvalidParams.WithMessage("预订请求不能为空")
		s.metrics.RecordReservationOp(OpCreate, err, time.Since(start))
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "reservation.create",
		tracing.WithGuestID(req.GuestID), tracing.WithRoomNumber(req.RoomNumber))

	info, err := s.create(ctx, req)

	tracing.End(span, err)
	s.metrics.RecordReservationOp(OpCreate, err, time.Since(start))
	return info, err
}

func (s *ReservationService) create(ctx context.Context, req *CreateReservationRequest) (*ReservationInfo, error) {
	// 1. 校验请求，不持有任何锁
	from, to, err := s.validateCreate(req)
	if err != nil {
		return nil, err
	}

	// 2. 检查住客与房间
	exists, err := s.guests.GuestExists(ctx, req.GuestID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !exists {
		return nil, errors.ErrGuestNotFound.WithMessagef("住客 %d 不存在", req.GuestID)
	}

	room, err := s.mutableRoom(ctx, req.RoomNumber)
	if err != nil {
		return nil, err
	}
	if room.RoomType != nil && req.OccupantCount > room.RoomType.Capacity {
		return nil, errors.ErrInvalidParams.WithMessagef("入住人数 %d 超过房型容量 %d", req.OccupantCount, room.RoomType.Capacity)
	}
	if from.Before(utils.Date(room.InServiceFrom)) {
		return nil, errors.ErrInvalidParams.WithMessagef("房间 %d 于 %s 启用", room.Number, utils.FormatDate(room.InServiceFrom))
	}

	// 3. 房间锁 + 事务内确认房态并写入
	reservation := &models.Reservation{
		ReservationNo: utils.GenerateReservationNo("R"),
		GuestID:       req.GuestID,
		RoomNumber:    req.RoomNumber,
		StartDate:     from,
		EndDate:       to,
		OccupantCount: req.OccupantCount,
		Discount:      req.Discount,
		Status:        models.ReservationStatusReserved,
	}

	err = s.guard.run(ctx, room.Number, func(tx *gorm.DB) error {
		if _, err := s.ledger.Bootstrap(ctx, tx, room.Number, room.InServiceFrom); err != nil {
			return err
		}

		grid, err := s.ledger.LockedStates(ctx, tx, room.Number, from, to)
		if err != nil {
			return err
		}
		if day, state, found := grid.FirstNotIn(room.Number, from, to, models.RoomStateAvailable); found {
			return unavailable(room.Number, day, state)
		}

		if err := s.reservationRepo.WithTx(tx).Create(ctx, reservation); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		_, err = s.ledger.CloseAndOpen(ctx, tx, ledger.Mutation{
			Room:          room.Number,
			State:         models.RoomStateReserved,
			From:          from,
			To:            &to,
			ReservationID: &reservation.ID,
			Replaceable:   ledger.InStates(models.RoomStateAvailable),
		})
		return err
	})
	if err != nil {
		s.logRejection(OpCreate, room.Number, err)
		return nil, err
	}

	logger.Info("预订创建成功", logger.Module(logModule),
		logger.ReservationID(reservation.ID),
		logger.ReservationNo(reservation.ReservationNo),
		logger.GuestID(reservation.GuestID),
		logger.RoomNumber(reservation.RoomNumber),
		logger.DateRange(from, to),
	)
	return toReservationInfo(reservation), nil
}

// validateCreate 校验请求字段与日期规则
func (s *ReservationService) validateCreate(req *CreateReservationRequest) (time.Time, time.Time, error) {
	if err := s.validate.Struct(req); err != nil {
		return time.Time{}, time.Time{}, errors.ErrInvalidParams.WithMessage(validationMessage(err))
	}

	from, err := utils.ParseDate(req.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, errors.ErrInvalidParams.WithMessage("开始日期格式错误")
	}
	to, err := utils.ParseDate(req.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, errors.ErrInvalidParams.WithMessage("结束日期格式错误")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.ErrInvalidParams.WithMessage("开始日期不能晚于结束日期")
	}
	if from.Before(s.clock.Today()) {
		return time.Time{}, time.Time{}, errors.ErrInvalidParams.WithMessage("开始日期不能早于今天")
	}
	return from, to, nil
}

// CreateMultiple 按顺序逐个创建预订，每项独立提交，失败项不影响已成功的项
func (s *ReservationService) CreateMultiple(ctx context.Context, reqs []*CreateReservationRequest) []BatchResult {
	results := make([]BatchResult, 0, len(reqs))
	for i, req := range reqs {
		info, err := s.CreateReservation(ctx, req)
		results = append(results, BatchResult{Index: i, Reservation: info, Err: err})
	}
	return results
}

// CheckIn 办理入住
func (s *ReservationService) CheckIn(ctx context.Context, reservationID int64) (*StayInfo, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "reservation.check_in", tracing.WithReservationID(reservationID))

	info, err := s.checkIn(ctx, reservationID)

	tracing.End(span, err)
	s.metrics.RecordReservationOp(OpCheckIn, err, time.Since(start))
	return info, err
}

func (s *ReservationService) checkIn(ctx context.Context, reservationID int64) (*StayInfo, error) {
	reservation, err := s.getReservation(ctx, s.reservationRepo, reservationID)
	if err != nil {
		return nil, err
	}
	if err := checkInAllowed(reservation); err != nil {
		return nil, err
	}
	if _, err := s.mutableRoom(ctx, reservation.RoomNumber); err != nil {
		return nil, err
	}

	var stay *models.Stay
	err = s.guard.run(ctx, reservation.RoomNumber, func(tx *gorm.DB) error {
		// 等锁期间预订可能已变化，以事务内读取为准
		current, err := s.getReservation(ctx, s.reservationRepo.WithTx(tx), reservationID)
		if err != nil {
			return err
		}
		if err := checkInAllowed(current); err != nil {
			return err
		}

		to := current.EndDate
		_, err = s.ledger.CloseAndOpen(ctx, tx, ledger.Mutation{
			Room:          current.RoomNumber,
			State:         models.RoomStateOccupied,
			From:          current.StartDate,
			To:            &to,
			ReservationID: &current.ID,
			Replaceable:   ledger.ForReservation(current.ID, models.RoomStateReserved),
		})
		if err != nil {
			return err
		}

		stay = &models.Stay{
			ReservationID: current.ID,
			RoomNumber:    current.RoomNumber,
			StartDate:     current.StartDate,
			EndDate:       current.EndDate,
			CheckedInAt:   time.Now(),
		}
		if err := s.stayRepo.WithTx(tx).Create(ctx, stay); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if err := s.reservationRepo.WithTx(tx).UpdateStatus(ctx, current.ID, models.ReservationStatusOccupied); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		s.logRejection(OpCheckIn, reservation.RoomNumber, err)
		return nil, err
	}

	logger.Info("入住成功", logger.Module(logModule),
		logger.ReservationID(reservationID),
		logger.RoomNumber(reservation.RoomNumber),
		logger.DateRange(reservation.StartDate, reservation.EndDate),
	)
	return toStayInfo(stay), nil
}

func checkInAllowed(r *models.Reservation) error {
	if r.Stay != nil {
		return errors.ErrAlreadyCheckedIn.WithMessagef("预订 %d 已入住", r.ID)
	}
	if r.Status != models.ReservationStatusReserved {
		return errors.ErrReservationStatus.WithMessagef("预订 %d 当前状态为%s，无法入住", r.ID, models.ReservationStatusNames[r.Status])
	}
	return nil
}

// CancelReservation 取消预订：自 max(开始日期, 今天) 起释放房间，已过去的日期保留为历史
func (s *ReservationService) CancelReservation(ctx context.Context, reservationID int64) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "reservation.cancel", tracing.WithReservationID(reservationID))

	err := s.cancel(ctx, reservationID)

	tracing.End(span, err)
	s.metrics.RecordReservationOp(OpCancel, err, time.Since(start))
	return err
}

func (s *ReservationService) cancel(ctx context.Context, reservationID int64) error {
	reservation, err := s.getReservation(ctx, s.reservationRepo, reservationID)
	if err != nil {
		return err
	}
	if err := cancelAllowed(reservation); err != nil {
		return err
	}
	if _, err := s.mutableRoom(ctx, reservation.RoomNumber); err != nil {
		return err
	}

	err = s.guard.run(ctx, reservation.RoomNumber, func(tx *gorm.DB) error {
		current, err := s.getReservation(ctx, s.reservationRepo.WithTx(tx), reservationID)
		if err != nil {
			return err
		}
		if err := cancelAllowed(current); err != nil {
			return err
		}

		from, to := utils.Date(current.StartDate), utils.Date(current.EndDate)
		release := utils.MaxDate(from, s.clock.Today())
		if !release.After(to) {
			m := ledger.Mutation{
				Room:        current.RoomNumber,
				State:       models.RoomStateAvailable,
				From:        release,
				To:          &to,
				Replaceable: ledger.ForReservation(current.ID, models.RoomStateReserved),
			}
			if release.After(from) {
				closeAt := utils.AddDays(release, -1)
				m.CloseAt = &closeAt
			}
			if _, err := s.ledger.CloseAndOpen(ctx, tx, m); err != nil {
				return err
			}
		}

		if err := s.reservationRepo.WithTx(tx).Cancel(ctx, current.ID, time.Now()); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		s.logRejection(OpCancel, reservation.RoomNumber, err)
		return err
	}

	logger.Info("预订已取消", logger.Module(logModule),
		logger.ReservationID(reservationID),
		logger.RoomNumber(reservation.RoomNumber),
		logger.DateRange(reservation.StartDate, reservation.EndDate),
	)
	return nil
}

func cancelAllowed(r *models.Reservation) error {
	if r.Stay != nil {
		return errors.ErrHasActiveStay.WithMessagef("预订 %d 已入住，无法取消", r.ID)
	}
	if r.Status != models.ReservationStatusReserved {
		return errors.ErrReservationStatus.WithMessagef("预订 %d 当前状态为%s，无法取消", r.ID, models.ReservationStatusNames[r.Status])
	}
	return nil
}

// GetReservation 获取预订详情
func (s *ReservationService) GetReservation(ctx context.Context, reservationID int64) (*ReservationInfo, error) {
	reservation, err := s.getReservation(ctx, s.reservationRepo, reservationID)
	if err != nil {
		return nil, err
	}
	return toReservationInfo(reservation), nil
}

// ListByGuest 住客的预订
func (s *ReservationService) ListByGuest(ctx context.Context, guestID int64) ([]*ReservationInfo, error) {
	return s.list(s.reservationRepo.ListByGuest(ctx, guestID))
}

// ListByRoom 房间的预订
func (s *ReservationService) ListByRoom(ctx context.Context, room int) ([]*ReservationInfo, error) {
	return s.list(s.reservationRepo.ListByRoom(ctx, room))
}

// ListByDateRange 与 [from, to] 相交的预订
func (s *ReservationService) ListByDateRange(ctx context.Context, from, to time.Time) ([]*ReservationInfo, error) {
	from, to = utils.Date(from), utils.Date(to)
	if to.Before(from) {
		return nil, errors.ErrInvalidParams.WithMessage("开始日期不能晚于结束日期")
	}
	return s.list(s.reservationRepo.ListOverlapping(ctx, from, to))
}

// ListActiveByRoom 房间尚未入住的有效预订
func (s *ReservationService) ListActiveByRoom(ctx context.Context, room int) ([]*ReservationInfo, error) {
	return s.list(s.reservationRepo.ListActiveByRoom(ctx, room))
}

// FindByRoomAndDate 覆盖某天的房间预订
func (s *ReservationService) FindByRoomAndDate(ctx context.Context, room int, day time.Time) (*ReservationInfo, error) {
	reservation, err := s.reservationRepo.FindByRoomAndDate(ctx, room, utils.Date(day))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrReservationNotFound.WithMessagef("房间 %d 在 %s 没有预订", room, utils.FormatDate(day))
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return toReservationInfo(reservation), nil
}

func (s *ReservationService) list(reservations []*models.Reservation, err error) ([]*ReservationInfo, error) {
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	list := make([]*ReservationInfo, 0, len(reservations))
	for _, r := range reservations {
		list = append(list, toReservationInfo(r))
	}
	return list, nil
}

func (s *ReservationService) getReservation(ctx context.Context, repo *repository.ReservationRepository, id int64) (*models.Reservation, error) {
	reservation, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrReservationNotFound.WithMessagef("预订 %d 不存在", id)
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return reservation, nil
}

// mutableRoom 获取允许变更房态的房间
func (s *ReservationService) mutableRoom(ctx context.Context, number int) (*models.Room, error) {
	room, err := s.rooms.GetRoom(ctx, number)
	if err != nil {
		return nil, err
	}
	if room.Quarantined {
		return nil, errors.ErrRoomQuarantined.WithMessagef("房间 %d 已隔离：%s", number, utils.SafeString(room.QuarantineReason))
	}
	return room, nil
}

// logRejection 业务拒绝记 warn，台账异常已在隔离时记 error
func (s *ReservationService) logRejection(op string, room int, err error) {
	if errors.Is(err, errors.ErrInvariantViolation) {
		return
	}
	logger.Warn("预订操作被拒绝", logger.Module(logModule), logger.Action(op), logger.RoomNumber(room), logger.Err(err))
}

func unavailable(room int, day time.Time, state models.RoomState) error {
	return errors.ErrRoomNotAvailable.WithMessagef("房间 %d 在 %s 为%s", room, utils.FormatDate(day), models.RoomStateNames[state])
}

// validationMessage 将校验错误转为可读信息
func validationMessage(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("%s 不满足 %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

func toReservationInfo(r *models.Reservation) *ReservationInfo {
	info := &ReservationInfo{
		ID:            r.ID,
		ReservationNo: r.ReservationNo,
		GuestID:       r.GuestID,
		RoomNumber:    r.RoomNumber,
		StartDate:     utils.FormatDate(r.StartDate),
		EndDate:       utils.FormatDate(r.EndDate),
		OccupantCount: r.OccupantCount,
		Discount:      r.Discount,
		Status:        r.Status,
		StatusName:    models.ReservationStatusNames[r.Status],
		CheckedIn:     r.Stay != nil,
		CancelledAt:   r.CancelledAt,
		CreatedAt:     r.CreatedAt,
	}
	if r.Stay != nil {
		info.Stay = toStayInfo(r.Stay)
	}
	return info
}

func toStayInfo(stay *models.Stay) *StayInfo {
	return &StayInfo{
		ID:            stay.ID,
		ReservationID: stay.ReservationID,
		RoomNumber:    stay.RoomNumber,
		StartDate:     utils.FormatDate(stay.StartDate),
		EndDate:       utils.FormatDate(stay.EndDate),
		CheckedInAt:   stay.CheckedInAt,
	}
}
