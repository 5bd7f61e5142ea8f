package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/romsreu/hotel-premier/internal/models"
)

// GuestRepository 住客仓储，核心只读
type GuestRepository struct {
	db *gorm.DB
}

// NewGuestRepository 创建住客仓储
func NewGuestRepository(db *gorm.DB) *GuestRepository {
	return &GuestRepository{db: db}
}

// GetByID 根据 ID 获取住客
func (r *GuestRepository) GetByID(ctx context.Context, id int64) (*models.Guest, error) {
	var guest models.Guest
	if err := r.db.WithContext(ctx).First(&guest, id).Error; err != nil {
		return nil, err
	}
	return &guest, nil
}

// Exists 住客是否存在
func (r *GuestRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Guest{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
