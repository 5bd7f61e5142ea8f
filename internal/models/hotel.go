package models

import (
	"time"
)

// RoomType 房型
type RoomType struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	Capacity    int       `gorm:"not null;default:1" json:"capacity"`
	NightlyCost float64   `gorm:"type:decimal(10,2);not null;default:0" json:"nightly_cost"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (RoomType) TableName() string {
	return "room_types"
}

// Room 房间模型，房间号即主键
type Room struct {
	Number           int        `gorm:"primaryKey;autoIncrement:false" json:"number"`
	RoomTypeID       int64      `gorm:"index;not null" json:"room_type_id"`
	Floor            int        `gorm:"not null" json:"floor"`
	InServiceFrom    time.Time  `gorm:"type:date;not null" json:"in_service_from"`
	Quarantined      bool       `gorm:"not null;default:false" json:"quarantined"`
	QuarantineReason *string    `gorm:"type:text" json:"quarantine_reason,omitempty"`
	QuarantinedAt    *time.Time `json:"quarantined_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	RoomType *RoomType `gorm:"foreignKey:RoomTypeID" json:"room_type,omitempty"`
}

// TableName 表名
func (Room) TableName() string {
	return "rooms"
}

// Guest 住客（核心只读，仅校验存在性）
type Guest struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (Guest) TableName() string {
	return "guests"
}
