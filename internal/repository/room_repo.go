// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/romsreu/hotel-premier/internal/models"
)

// RoomRepository 房间仓储
type RoomRepository struct {
	db *gorm.DB
}

// NewRoomRepository 创建房间仓储
func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *RoomRepository) WithTx(tx *gorm.DB) *RoomRepository {
	return &RoomRepository{db: tx}
}

// RoomFilter 房间列表过滤条件
type RoomFilter struct {
	Floor              *int
	RoomTypeID         int64
	ExcludeQuarantined bool
}

// Create 创建房间
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

// GetByNumber 根据房间号获取房间（包含房型）
func (r *RoomRepository) GetByNumber(ctx context.Context, number int) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).
		Preload("RoomType").
		Where("number = ?", number).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// Exists 房间是否存在
func (r *RoomRepository) Exists(ctx context.Context, number int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Room{}).Where("number = ?", number).Count(&count).Error
	return count > 0, err
}

// List 获取房间列表，按房间号升序
func (r *RoomRepository) List(ctx context.Context, filter RoomFilter) ([]*models.Room, error) {
	var rooms []*models.Room
	query := r.db.WithContext(ctx).Model(&models.Room{}).Preload("RoomType")

	if filter.Floor != nil {
		query = query.Where("floor = ?", *filter.Floor)
	}
	if filter.RoomTypeID > 0 {
		query = query.Where("room_type_id = ?", filter.RoomTypeID)
	}
	if filter.ExcludeQuarantined {
		query = query.Where("quarantined = ?", false)
	}

	err := query.Order("number ASC").Find(&rooms).Error
	return rooms, err
}

// ListNumbers 获取全部房间号
func (r *RoomRepository) ListNumbers(ctx context.Context) ([]int, error) {
	var numbers []int
	err := r.db.WithContext(ctx).Model(&models.Room{}).Order("number ASC").Pluck("number", &numbers).Error
	return numbers, err
}

// Count 房间总数
func (r *RoomRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Room{}).Count(&count).Error
	return count, err
}

// CountQuarantined 隔离中的房间数
func (r *RoomRepository) CountQuarantined(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Room{}).Where("quarantined = ?", true).Count(&count).Error
	return count, err
}

// LockForUpdate 在事务内锁定并返回房间行，行锁仅 Postgres 生效
func (r *RoomRepository) LockForUpdate(ctx context.Context, number int) (*models.Room, error) {
	query := r.db.WithContext(ctx).Model(&models.Room{}).Where("number = ?", number)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var room models.Room
	if err := query.First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// Quarantine 隔离房间
func (r *RoomRepository) Quarantine(ctx context.Context, number int, reason string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Room{}).
		Where("number = ?", number).
		Updates(map[string]interface{}{
			"quarantined":       true,
			"quarantine_reason": reason,
			"quarantined_at":    at,
		}).Error
}

// ReleaseQuarantine 解除隔离
func (r *RoomRepository) ReleaseQuarantine(ctx context.Context, number int) error {
	return r.db.WithContext(ctx).Model(&models.Room{}).
		Where("number = ?", number).
		Updates(map[string]interface{}{
			"quarantined":       false,
			"quarantine_reason": nil,
			"quarantined_at":    nil,
		}).Error
}

// CreateType 创建房型
func (r *RoomRepository) CreateType(ctx context.Context, roomType *models.RoomType) error {
	return r.db.WithContext(ctx).Create(roomType).Error
}

// GetTypeByID 根据 ID 获取房型
func (r *RoomRepository) GetTypeByID(ctx context.Context, id int64) (*models.RoomType, error) {
	var roomType models.RoomType
	if err := r.db.WithContext(ctx).First(&roomType, id).Error; err != nil {
		return nil, err
	}
	return &roomType, nil
}

// GetTypeByName 根据名称获取房型
func (r *RoomRepository) GetTypeByName(ctx context.Context, name string) (*models.RoomType, error) {
	var roomType models.RoomType
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&roomType).Error; err != nil {
		return nil, err
	}
	return &roomType, nil
}

// ListTypes 获取全部房型
func (r *RoomRepository) ListTypes(ctx context.Context) ([]*models.RoomType, error) {
	var types []*models.RoomType
	err := r.db.WithContext(ctx).Order("id ASC").Find(&types).Error
	return types, err
}
