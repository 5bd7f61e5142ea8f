package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/romsreu/hotel-premier/internal/models"
)

// ReservationRepository 预订仓储
type ReservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository 创建预订仓储
func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *ReservationRepository) WithTx(tx *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: tx}
}

// notCancelled 排除已取消的预订
func (r *ReservationRepository) notCancelled(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("status <> ?", models.ReservationStatusCancelled)
}

// Create 创建预订
func (r *ReservationRepository) Create(ctx context.Context, reservation *models.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

// GetByID 根据 ID 获取预订（包含入住记录）
func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).Preload("Stay").First(&reservation, id).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// GetByReservationNo 根据预订号获取预订
func (r *ReservationRepository) GetByReservationNo(ctx context.Context, reservationNo string) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).Preload("Stay").Where("reservation_no = ?", reservationNo).First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// UpdateStatus 更新预订状态
func (r *ReservationRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// Cancel 取消预订，保留记录
func (r *ReservationRepository) Cancel(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.ReservationStatusCancelled,
			"cancelled_at": at,
		}).Error
}

// ListByGuest 住客的预订
func (r *ReservationRepository) ListByGuest(ctx context.Context, guestID int64) ([]*models.Reservation, error) {
	var reservations []*models.Reservation
	err := r.notCancelled(ctx).
		Preload("Stay").
		Where("guest_id = ?", guestID).
		Order("start_date ASC, id ASC").
		Find(&reservations).Error
	return reservations, err
}

// ListByRoom 房间的预订
func (r *ReservationRepository) ListByRoom(ctx context.Context, room int) ([]*models.Reservation, error) {
	var reservations []*models.Reservation
	err := r.notCancelled(ctx).
		Preload("Stay").
		Where("room_number = ?", room).
		Order("start_date ASC, id ASC").
		Find(&reservations).Error
	return reservations, err
}

// ListOverlapping 与 [from, to] 相交的预订
func (r *ReservationRepository) ListOverlapping(ctx context.Context, from, to time.Time) ([]*models.Reservation, error) {
	var reservations []*models.Reservation
	err := r.notCancelled(ctx).
		Preload("Stay").
		Where("start_date <= ? AND end_date >= ?", to, from).
		Order("room_number ASC, start_date ASC").
		Find(&reservations).Error
	return reservations, err
}

// ListActiveByRoom 房间尚未入住的有效预订
func (r *ReservationRepository) ListActiveByRoom(ctx context.Context, room int) ([]*models.Reservation, error) {
	var reservations []*models.Reservation
	err := r.db.WithContext(ctx).
		Where("room_number = ? AND status = ?", room, models.ReservationStatusReserved).
		Where("NOT EXISTS (SELECT 1 FROM stays WHERE stays.reservation_id = reservations.id)").
		Order("start_date ASC").
		Find(&reservations).Error
	return reservations, err
}

// FindByRoomAndDate 覆盖某天的房间预订
func (r *ReservationRepository) FindByRoomAndDate(ctx context.Context, room int, day time.Time) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.notCancelled(ctx).
		Preload("Stay").
		Where("room_number = ? AND start_date <= ? AND end_date >= ?", room, day, day).
		Order("start_date DESC").
		First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}
