package models

import (
	"time"
)

// RoomState 房态
type RoomState string

// 房态取值
const (
	RoomStateAvailable   RoomState = "AVAILABLE"    // 可用
	RoomStateReserved    RoomState = "RESERVED"     // 已预订
	RoomStateOccupied    RoomState = "OCCUPIED"     // 已入住
	RoomStateMaintenance RoomState = "MAINTENANCE"  // 维护中
	RoomStateOutOfOrder  RoomState = "OUT_OF_ORDER" // 停用
)

// RoomStateNames 房态名称
var RoomStateNames = map[RoomState]string{
	RoomStateAvailable:   "可用",
	RoomStateReserved:    "已预订",
	RoomStateOccupied:    "已入住",
	RoomStateMaintenance: "维护中",
	RoomStateOutOfOrder:  "停用",
}

// IsMaintenance 是否为维护类房态
func (s RoomState) IsMaintenance() bool {
	return s == RoomStateMaintenance || s == RoomStateOutOfOrder
}

// Valid 是否为已知房态
func (s RoomState) Valid() bool {
	_, ok := RoomStateNames[s]
	return ok
}

// StateInterval 房态区间，StartDate 与 EndDate 均为闭区间，EndDate 为空表示持续至今后
type StateInterval struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomNumber    int        `gorm:"index:idx_interval_room_start,priority:1;not null" json:"room_number"`
	State         RoomState  `gorm:"type:varchar(20);not null" json:"state"`
	StartDate     time.Time  `gorm:"type:date;index:idx_interval_room_start,priority:2;not null" json:"start_date"`
	EndDate       *time.Time `gorm:"type:date" json:"end_date,omitempty"`
	ReservationID *int64     `gorm:"index" json:"reservation_id,omitempty"`
	VoidedAt      *time.Time `gorm:"index" json:"voided_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (StateInterval) TableName() string {
	return "room_state_intervals"
}

// IsOpen 是否为开放区间
func (i *StateInterval) IsOpen() bool {
	return i.EndDate == nil
}

// Covers 区间是否覆盖某天
func (i *StateInterval) Covers(day time.Time) bool {
	if day.Before(i.StartDate) {
		return false
	}
	return i.EndDate == nil || !day.After(*i.EndDate)
}

// Overlaps 区间是否与 [from, to] 相交，to 为空表示无上界
func (i *StateInterval) Overlaps(from time.Time, to *time.Time) bool {
	if to != nil && i.StartDate.After(*to) {
		return false
	}
	return i.EndDate == nil || !i.EndDate.Before(from)
}
