package models

import (
	"time"
)

// Reservation 预订
type Reservation struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ReservationNo string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"reservation_no"`
	GuestID       int64      `gorm:"index;not null" json:"guest_id"`
	RoomNumber    int        `gorm:"index;not null" json:"room_number"`
	StartDate     time.Time  `gorm:"type:date;not null" json:"start_date"`
	EndDate       time.Time  `gorm:"type:date;not null" json:"end_date"`
	OccupantCount int        `gorm:"not null;default:1" json:"occupant_count"`
	Discount      float64    `gorm:"type:decimal(4,3);not null;default:0" json:"discount"`
	Status        string     `gorm:"type:varchar(20);not null" json:"status"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Stay *Stay `gorm:"foreignKey:ReservationID" json:"stay,omitempty"`
}

// TableName 表名
func (Reservation) TableName() string {
	return "reservations"
}

// ReservationStatus 预订状态
const (
	ReservationStatusRequested = "REQUESTED" // 已提交（仅存在于内存）
	ReservationStatusReserved  = "RESERVED"  // 已预订
	ReservationStatusOccupied  = "OCCUPIED"  // 已入住
	ReservationStatusClosed    = "CLOSED"    // 已结束
	ReservationStatusCancelled = "CANCELLED" // 已取消
)

// ReservationStatusNames 预订状态名称
var ReservationStatusNames = map[string]string{
	ReservationStatusRequested: "已提交",
	ReservationStatusReserved:  "已预订",
	ReservationStatusOccupied:  "已入住",
	ReservationStatusClosed:    "已结束",
	ReservationStatusCancelled: "已取消",
}

// Stay 入住记录，存在即表示预订已入住
type Stay struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ReservationID int64     `gorm:"uniqueIndex;not null" json:"reservation_id"`
	RoomNumber    int       `gorm:"index;not null" json:"room_number"`
	StartDate     time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate       time.Time `gorm:"type:date;not null" json:"end_date"`
	CheckedInAt   time.Time `gorm:"not null" json:"checked_in_at"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (Stay) TableName() string {
	return "stays"
}
