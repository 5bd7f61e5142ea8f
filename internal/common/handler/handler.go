// Package handler 提供 API Handler 的通用辅助函数
// 用于减少 Handler 层的代码重复，统一错误处理、参数解析等操作
package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/romsreu/hotel-premier/internal/common/errors"
	"github.com/romsreu/hotel-premier/internal/common/logger"
	"github.com/romsreu/hotel-premier/internal/common/response"
	"github.com/romsreu/hotel-premier/internal/common/utils"
)

// ============================================================================
// 统一错误处理
// ============================================================================

// HandleError 处理错误并发送适当的响应
// 如果 err 为 nil，返回 false（表示无错误需要处理）
// 如果 err 不为 nil，发送错误响应并返回 true（表示已处理错误，调用方应该 return）
//
// 使用示例:
//
//	info, err := service.CreateReservation(ctx, req)
//	if HandleError(c, err) {
//	    return
//	}
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.IsAppError(err) {
		appErr := errors.GetAppError(err)
		response.Error(c, appErr.Code, appErr.Message)
		return true
	}
	logger.Error("请求处理失败", logger.String("path", c.FullPath()), logger.Err(err))
	response.InternalError(c, "服务器内部错误")
	return true
}

// MustSucceed 便捷封装：如果有错误则返回错误响应，否则返回成功响应
//
// 使用示例:
//
//	result, err := service.GetReservation(ctx, id)
//	MustSucceed(c, err, result)
//	return  // 注意：调用 MustSucceed 后必须 return
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Success(c, data)
}

// MustSucceedWithMessage 便捷封装：带自定义成功消息
func MustSucceedWithMessage(c *gin.Context, err error, message string, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.SuccessWithMessage(c, message, data)
}

// ============================================================================
// 路径与查询参数解析
// ============================================================================

// ParseID 解析路径参数 "id" 为 int64
// 返回 (0, false) 表示解析失败（已发送400响应，调用方应该 return）
func ParseID(c *gin.Context, resourceName string) (int64, bool) {
	return ParseParamID(c, "id", resourceName)
}

// ParseParamID 解析指定路径参数为 int64
func ParseParamID(c *gin.Context, paramName, resourceName string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的"+resourceName+"ID")
		return 0, false
	}
	return id, true
}

// ParseRoomNumber 解析路径参数 "number" 为房间号
func ParseRoomNumber(c *gin.Context) (int, bool) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number <= 0 {
		response.BadRequest(c, "无效的房间号")
		return 0, false
	}
	return number, true
}

// ParseQueryID 解析查询参数中的可选 ID
// 如果参数为空返回 (nil, true)
// 如果解析失败返回 (nil, false)（已发送400响应）
func ParseQueryID(c *gin.Context, paramName, resourceName string) (*int64, bool) {
	idStr := c.Query(paramName)
	if idStr == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		response.BadRequest(c, "无效的"+resourceName+"ID")
		return nil, false
	}
	return &id, true
}

// ParseQueryInt 解析查询参数中的可选整数
func ParseQueryInt(c *gin.Context, paramName, errorMsg string) (*int, bool) {
	s := c.Query(paramName)
	if s == "" {
		return nil, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		response.BadRequest(c, errorMsg)
		return nil, false
	}
	return &n, true
}

// ParseQueryIntList 解析逗号分隔的整数列表，如 rooms=101,102
func ParseQueryIntList(c *gin.Context, paramName, errorMsg string) ([]int, bool) {
	list, err := utils.ParseIntList(c.Query(paramName))
	if err != nil {
		response.BadRequest(c, errorMsg)
		return nil, false
	}
	return list, true
}

// ============================================================================
// 日期解析
// ============================================================================

// ParseDate 解析日期字符串 (YYYY-MM-DD)，结果为 UTC 零点
func ParseDate(s string) (time.Time, error) {
	t, err := utils.ParseDate(s)
	if err != nil {
		return time.Time{}, errors.ErrInvalidParams.WithMessagef("日期格式错误：%s", s)
	}
	return t, nil
}

// ParseQueryDate 从查询参数解析日期
// 返回 (nil, true) 如果参数为空
// 返回 (nil, false) 如果解析失败（已发送400响应）
func ParseQueryDate(c *gin.Context, paramName, errorMsg string) (*time.Time, bool) {
	dateStr := c.Query(paramName)
	if dateStr == "" {
		return nil, true
	}
	t, err := ParseDate(dateStr)
	if err != nil {
		response.BadRequest(c, errorMsg)
		return nil, false
	}
	return &t, true
}

// ParseRequiredQueryDateRange 从查询参数解析必填的闭区间 [from, to]
// 返回 (zero, zero, false) 如果任一参数为空或解析失败（已发送400响应）
func ParseRequiredQueryDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	fromStr := c.Query("from")
	toStr := c.Query("to")

	if fromStr == "" || toStr == "" {
		response.BadRequest(c, "请指定开始和结束日期")
		return time.Time{}, time.Time{}, false
	}

	from, err := ParseDate(fromStr)
	if err != nil {
		response.BadRequest(c, "无效的开始日期格式")
		return time.Time{}, time.Time{}, false
	}

	to, err := ParseDate(toStr)
	if err != nil {
		response.BadRequest(c, "无效的结束日期格式")
		return time.Time{}, time.Time{}, false
	}

	return from, to, true
}
