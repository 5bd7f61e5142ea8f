// Package logger 提供结构化日志功能
package logger

import (
	"os"
	"time"

	"github.com/romsreu/hotel-premier/internal/common/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	log   *zap.Logger
	sugar *zap.SugaredLogger
)

// Init 按配置创建日志器并设为全局日志器
func Init(cfg *config.LoggerConfig) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	SetLogger(l)
	return nil
}

// New 按配置创建日志器：console 或 json 编码，输出到 stdout 或 lumberjack 轮转文件
func New(cfg *config.LoggerConfig) (*zap.Logger, error) {
	core := zapcore.NewCore(newEncoder(cfg.Format), newWriteSyncer(cfg), getLogLevel(cfg.Level))

	options := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Caller {
		// 跳过本包的 Info/Warn 等包装函数
		options = append(options, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	return zap.New(core, options...), nil
}

func newEncoder(format string) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000"),
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if format == "json" {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func newWriteSyncer(cfg *config.LoggerConfig) zapcore.WriteSyncer {
	var writers []zapcore.WriteSyncer
	if cfg.Output == "stdout" || cfg.Output == "" {
		writers = append(writers, zapcore.AddSync(os.Stdout))
	}
	if cfg.FilePath != "" && cfg.Output != "stdout" {
		writers = append(writers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}))
	}
	return zapcore.NewMultiWriteSyncer(writers...)
}

// getLogLevel 获取日志级别，无法识别时使用 info
func getLogLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil || level == "" {
		return zapcore.InfoLevel
	}
	return l
}

// GetLogger 获取全局日志器，未初始化时使用开发配置
func GetLogger() *zap.Logger {
	if log == nil {
		l, _ := zap.NewDevelopment()
		SetLogger(l)
	}
	return log
}

// GetSugar 获取 Sugar 日志器，供需要 key-value 接口的组件使用
func GetSugar() *zap.SugaredLogger {
	GetLogger()
	return sugar
}

// SetLogger 替换全局日志器
func SetLogger(l *zap.Logger) {
	log = l
	sugar = l.Sugar()
}

// Sync 同步日志
func Sync() error {
	if log != nil {
		return log.Sync()
	}
	return nil
}

// Debug 调试日志
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Info 信息日志
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Warn 警告日志
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error 错误日志
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// 常用字段构造函数
var (
	String   = zap.String
	Int      = zap.Int
	Any      = zap.Any
	Err      = zap.Error
	Duration = zap.Duration
)

// RoomNumber 房间号字段
func RoomNumber(number int) zap.Field {
	return zap.Int("room_number", number)
}

// ReservationID 预订ID字段
func ReservationID(id int64) zap.Field {
	return zap.Int64("reservation_id", id)
}

// ReservationNo 预订号字段
func ReservationNo(no string) zap.Field {
	return zap.String("reservation_no", no)
}

// GuestID 住客ID字段
func GuestID(id int64) zap.Field {
	return zap.Int64("guest_id", id)
}

// DateRange 日期区间字段，闭区间
func DateRange(from, to time.Time) zap.Field {
	return zap.String("date_range", from.Format("2006-01-02")+"~"+to.Format("2006-01-02"))
}

// State 房态字段
func State(state string) zap.Field {
	return zap.String("state", state)
}

// Module 模块字段：ledger、hotel、scheduler
func Module(name string) zap.Field {
	return zap.String("module", name)
}

// Action 操作字段
func Action(name string) zap.Field {
	return zap.String("action", name)
}

// HTTP 访问日志字段

// RequestID 请求ID字段
func RequestID(id string) zap.Field {
	return zap.String("request_id", id)
}

// Method HTTP方法字段
func Method(method string) zap.Field {
	return zap.String("method", method)
}

// Path 路径字段
func Path(path string) zap.Field {
	return zap.String("path", path)
}

// Route 路由模板字段，如 /api/v1/rooms/:number/state
func Route(route string) zap.Field {
	return zap.String("route", route)
}

// StatusCode HTTP状态码字段
func StatusCode(code int) zap.Field {
	return zap.Int("status", code)
}

// Latency 延迟字段
func Latency(d time.Duration) zap.Field {
	return zap.Duration("latency", d)
}

// IP IP地址字段
func IP(ip string) zap.Field {
	return zap.String("ip", ip)
}
