// Package errors 定义业务错误码和错误处理
package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，WithMessage/WithError 派生的错误与原错误视为同一类
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// WithMessagef 格式化修改错误消息
func (e *AppError) WithMessagef(format string, args ...interface{}) *AppError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown            = New(1000, "未知错误")
	ErrInvalidParams      = New(1001, "参数错误")
	ErrNotFound           = New(1002, "资源不存在")
	ErrAlreadyExists      = New(1003, "资源已存在")
	ErrDatabaseError      = New(1004, "数据库错误")
	ErrCacheError         = New(1005, "缓存错误")
	ErrInternalError      = New(1006, "内部错误")
	ErrOperationFailed    = New(1009, "操作失败")
	ErrBusy               = New(1011, "房间正忙，请稍后重试")
	ErrInvariantViolation = New(1012, "房态台账异常")
)

// 住客错误码 (3000-3999)
var (
	ErrGuestNotFound = New(3000, "住客不存在")
)

// 预订错误码 (8000-8999)
var (
	ErrReservationNotFound = New(8000, "预订不存在")
	ErrReservationStatus   = New(8001, "预订状态异常")
	ErrLedgerConflict      = New(8002, "房态区间冲突")
	ErrRoomNotAvailable    = New(8004, "房间不可用")
	ErrRoomNotFound        = New(8006, "房间不存在")
	ErrAlreadyCheckedIn    = New(8007, "预订已入住")
	ErrHasActiveStay       = New(8008, "预订已入住，无法取消")
	ErrRoomQuarantined     = New(8009, "房间已隔离，待人工核对")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrUnknown.WithError(err)
}

// IsRetryable 调用方是否可以退避后重试
func IsRetryable(err error) bool {
	return stderrors.Is(err, ErrBusy)
}

// Is 透传标准库 errors.Is
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}
