package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/romsreu/hotel-premier/internal/models"
)

// IntervalRepository 房态区间仓储，所有查询只返回未作废的区间
type IntervalRepository struct {
	db *gorm.DB
}

// NewIntervalRepository 创建房态区间仓储
func NewIntervalRepository(db *gorm.DB) *IntervalRepository {
	return &IntervalRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *IntervalRepository) WithTx(tx *gorm.DB) *IntervalRepository {
	return &IntervalRepository{db: tx}
}

func (r *IntervalRepository) active(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.StateInterval{}).Where("voided_at IS NULL")
}

// Create 写入区间
func (r *IntervalRepository) Create(ctx context.Context, interval *models.StateInterval) error {
	return r.db.WithContext(ctx).Create(interval).Error
}

// ListByRoom 房间全部有效区间，按开始日期升序
func (r *IntervalRepository) ListByRoom(ctx context.Context, room int) ([]*models.StateInterval, error) {
	var intervals []*models.StateInterval
	err := r.active(ctx).
		Where("room_number = ?", room).
		Order("start_date ASC, id ASC").
		Find(&intervals).Error
	return intervals, err
}

// ListCovering 覆盖某天的有效区间，最近开始的在前
func (r *IntervalRepository) ListCovering(ctx context.Context, room int, day time.Time) ([]*models.StateInterval, error) {
	var intervals []*models.StateInterval
	err := r.active(ctx).
		Where("room_number = ?", room).
		Where("start_date <= ?", day).
		Where("end_date IS NULL OR end_date >= ?", day).
		Order("start_date DESC, id DESC").
		Find(&intervals).Error
	return intervals, err
}

// ListOverlapping 与 [from, to] 相交的有效区间，按房间号、开始日期排序
func (r *IntervalRepository) ListOverlapping(ctx context.Context, rooms []int, from, to time.Time) ([]*models.StateInterval, error) {
	var intervals []*models.StateInterval
	err := r.active(ctx).
		Where("room_number IN ?", rooms).
		Where("start_date <= ?", to).
		Where("end_date IS NULL OR end_date >= ?", from).
		Order("room_number ASC, start_date ASC, id ASC").
		Find(&intervals).Error
	return intervals, err
}

// ListCoveringDayInState 某天处于指定房态的区间
func (r *IntervalRepository) ListCoveringDayInState(ctx context.Context, state models.RoomState, day time.Time) ([]*models.StateInterval, error) {
	var intervals []*models.StateInterval
	err := r.active(ctx).
		Where("state = ?", state).
		Where("start_date <= ?", day).
		Where("end_date IS NULL OR end_date >= ?", day).
		Order("room_number ASC").
		Find(&intervals).Error
	return intervals, err
}

// ListByReservation 由某预订产生的有效区间
func (r *IntervalRepository) ListByReservation(ctx context.Context, reservationID int64) ([]*models.StateInterval, error) {
	var intervals []*models.StateInterval
	err := r.active(ctx).
		Where("reservation_id = ?", reservationID).
		Order("start_date ASC").
		Find(&intervals).Error
	return intervals, err
}

// ListRoomNumbers 拥有有效区间的房间号
func (r *IntervalRepository) ListRoomNumbers(ctx context.Context) ([]int, error) {
	var numbers []int
	err := r.active(ctx).Distinct("room_number").Order("room_number ASC").Pluck("room_number", &numbers).Error
	return numbers, err
}

// CountByRoom 房间有效区间数
func (r *IntervalRepository) CountByRoom(ctx context.Context, room int) (int64, error) {
	var count int64
	err := r.active(ctx).Where("room_number = ?", room).Count(&count).Error
	return count, err
}

// Close 设置区间结束日期
func (r *IntervalRepository) Close(ctx context.Context, id int64, end time.Time) error {
	return r.db.WithContext(ctx).Model(&models.StateInterval{}).
		Where("id = ? AND voided_at IS NULL", id).
		Update("end_date", end).Error
}

// Void 作废区间，保留用于审计
func (r *IntervalRepository) Void(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.StateInterval{}).
		Where("id = ? AND voided_at IS NULL", id).
		Update("voided_at", at).Error
}
