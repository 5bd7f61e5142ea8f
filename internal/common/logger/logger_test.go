// Package logger 日志模块单元测试
package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/romsreu/hotel-premier/internal/common/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// ==================== Init 函数测试 ====================

func TestInit_Formats(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		t.Run(format, func(t *testing.T) {
			err := Init(&config.LoggerConfig{Level: "debug", Format: format, Output: "stdout", Caller: true})
			assert.NoError(t, err)
			assert.NotNil(t, log)
			assert.NotNil(t, sugar)
		})
	}
}

func TestInit_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "hotel.log")

	err := Init(&config.LoggerConfig{
		Level:      "debug",
		Format:     "json",
		Output:     "file",
		FilePath:   logFile,
		MaxSize:    1,
		MaxBackups: 3,
		MaxAge:     7,
	})
	require.NoError(t, err)

	Info("预订创建成功", RoomNumber(101))
	_ = Sync()

	_, err = os.Stat(logFile)
	assert.NoError(t, err)
}

func TestNew_DoesNotReplaceGlobal(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	global := zap.New(core)
	SetLogger(global)

	l, err := New(&config.LoggerConfig{Level: "warn", Format: "json", Output: "stdout"})
	require.NoError(t, err)
	assert.NotNil(t, l)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
	assert.Same(t, global, GetLogger())
}

func TestGetLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"invalid", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, getLogLevel(tt.level))
		})
	}
}

// ==================== GetLogger / SetLogger 测试 ====================

func TestGetLogger_LazyInit(t *testing.T) {
	log = nil
	sugar = nil

	first := GetLogger()
	assert.NotNil(t, first)
	assert.Equal(t, first, GetLogger())
	assert.NotNil(t, GetSugar())
}

func TestSetLogger_CapturesEntries(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))

	Info("预订创建成功", RoomNumber(101), ReservationID(5), GuestID(7))
	Debug("被过滤")
	Warn("房间正忙", Module("hotel"), RoomNumber(101))

	entries := recorded.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "预订创建成功", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, int64(101), ctx["room_number"])
	assert.Equal(t, int64(5), ctx["reservation_id"])
	assert.Equal(t, int64(7), ctx["guest_id"])
	assert.Equal(t, "房间正忙", entries[1].Message)
	assert.Equal(t, "hotel", entries[1].ContextMap()["module"])
}

func TestSync_WithNilLogger(t *testing.T) {
	log = nil
	assert.NoError(t, Sync())
}

// ==================== 字段构造函数测试 ====================

func TestFieldConstructorValues(t *testing.T) {
	t.Run("RoomNumber", func(t *testing.T) {
		field := RoomNumber(101)
		assert.Equal(t, "room_number", field.Key)
		assert.Equal(t, int64(101), field.Integer)
	})

	t.Run("ReservationNo", func(t *testing.T) {
		field := ReservationNo("R20240601")
		assert.Equal(t, "reservation_no", field.Key)
		assert.Equal(t, "R20240601", field.String)
	})

	t.Run("DateRange", func(t *testing.T) {
		from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
		field := DateRange(from, to)
		assert.Equal(t, "date_range", field.Key)
		assert.Equal(t, "2024-06-01~2024-06-03", field.String)
	})

	t.Run("State", func(t *testing.T) {
		field := State("RESERVED")
		assert.Equal(t, "state", field.Key)
		assert.Equal(t, "RESERVED", field.String)
	})

	t.Run("Module", func(t *testing.T) {
		field := Module("ledger")
		assert.Equal(t, "module", field.Key)
		assert.Equal(t, "ledger", field.String)
	})

	t.Run("RequestID", func(t *testing.T) {
		field := RequestID("req-1")
		assert.Equal(t, "request_id", field.Key)
		assert.Equal(t, "req-1", field.String)
	})

	t.Run("HTTP字段", func(t *testing.T) {
		assert.Equal(t, "GET", Method("GET").String)
		assert.Equal(t, "/api/v1/rooms/101/state", Path("/api/v1/rooms/101/state").String)
		assert.Equal(t, "/api/v1/rooms/:number/state", Route("/api/v1/rooms/:number/state").String)
		assert.Equal(t, int64(200), StatusCode(200).Integer)
		assert.Equal(t, "status", StatusCode(200).Key)
		assert.Equal(t, int64(time.Second), Latency(time.Second).Integer)
		assert.Equal(t, "127.0.0.1", IP("127.0.0.1").String)
	})
}

func TestZapFieldAliases(t *testing.T) {
	assert.Equal(t, zap.String("k", "v"), String("k", "v"))
	assert.Equal(t, zap.Int("k", 1), Int("k", 1))
	assert.Equal(t, zap.Any("k", 1.5), Any("k", 1.5))
	assert.Equal(t, zap.Duration("k", time.Second), Duration("k", time.Second))
}

// ==================== JSON 日志格式与级别过滤 ====================

func TestJSONLogFormat(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "json.log")

	err := Init(&config.LoggerConfig{Level: "info", Format: "json", Output: "file", FilePath: logFile})
	require.NoError(t, err)

	Info("room state changed", RoomNumber(204), State("OCCUPIED"))
	_ = Sync()

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.NotEmpty(t, lines)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "room state changed", entry["msg"])
	assert.Equal(t, float64(204), entry["room_number"])
	assert.Equal(t, "OCCUPIED", entry["state"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "time")
}

func TestLogLevelFiltering(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "level.log")

	err := Init(&config.LoggerConfig{Level: "warn", Format: "json", Output: "file", FilePath: logFile})
	require.NoError(t, err)

	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")
	_ = Sync()

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	logContent := string(content)
	assert.NotContains(t, logContent, "debug message")
	assert.NotContains(t, logContent, "info message")
	assert.Contains(t, logContent, "warn message")
	assert.Contains(t, logContent, "error message")
}
