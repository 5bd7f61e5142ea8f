// Package testutil 提供测试辅助工具：内存数据库与种子数据
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/romsreu/hotel-premier/internal/common/database"
	"github.com/romsreu/hotel-premier/internal/models"
)

var typeSeq atomic.Int64

// NewTestDB 创建 SQLite 内存数据库并迁移酒店表
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// 内存库按连接隔离，必须固定为单连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// SeedRoomType 创建房型
func SeedRoomType(t testing.TB, db *gorm.DB, capacity int) *models.RoomType {
	t.Helper()

	roomType := &models.RoomType{
		Name:        fmt.Sprintf("测试房型%d", typeSeq.Add(1)),
		Capacity:    capacity,
		NightlyCost: 100,
	}
	require.NoError(t, db.Create(roomType).Error)
	return roomType
}

// SeedRoom 创建房间，inService 为首个台账日期
func SeedRoom(t testing.TB, db *gorm.DB, number int, roomTypeID int64, inService time.Time) *models.Room {
	t.Helper()

	room := &models.Room{
		Number:        number,
		RoomTypeID:    roomTypeID,
		Floor:         number / 100,
		InServiceFrom: inService,
	}
	require.NoError(t, db.Create(room).Error)
	return room
}

// SeedGuest 创建指定 ID 的住客
func SeedGuest(t testing.TB, db *gorm.DB, id int64) *models.Guest {
	t.Helper()

	guest := &models.Guest{ID: id, Name: fmt.Sprintf("住客%d", id)}
	require.NoError(t, db.Create(guest).Error)
	return guest
}

// SeedInterval 直接写入区间，绕过台账校验，用于构造异常数据
func SeedInterval(t testing.TB, db *gorm.DB, room int, state models.RoomState, from time.Time, to *time.Time) *models.StateInterval {
	t.Helper()

	interval := &models.StateInterval{
		RoomNumber: room,
		State:      state,
		StartDate:  from,
		EndDate:    to,
	}
	require.NoError(t, db.Create(interval).Error)
	return interval
}
