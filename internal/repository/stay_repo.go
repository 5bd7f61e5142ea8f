package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/romsreu/hotel-premier/internal/models"
)

// StayRepository 入住记录仓储
type StayRepository struct {
	db *gorm.DB
}

// NewStayRepository 创建入住记录仓储
func NewStayRepository(db *gorm.DB) *StayRepository {
	return &StayRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *StayRepository) WithTx(tx *gorm.DB) *StayRepository {
	return &StayRepository{db: tx}
}

// Create 创建入住记录
func (r *StayRepository) Create(ctx context.Context, stay *models.Stay) error {
	return r.db.WithContext(ctx).Create(stay).Error
}

// GetByReservationID 根据预订 ID 获取入住记录
func (r *StayRepository) GetByReservationID(ctx context.Context, reservationID int64) (*models.Stay, error) {
	var stay models.Stay
	if err := r.db.WithContext(ctx).Where("reservation_id = ?", reservationID).First(&stay).Error; err != nil {
		return nil, err
	}
	return &stay, nil
}

// ExistsByReservationID 预订是否已入住
func (r *StayRepository) ExistsByReservationID(ctx context.Context, reservationID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Stay{}).Where("reservation_id = ?", reservationID).Count(&count).Error
	return count > 0, err
}
