// Package response 提供统一的 API 响应格式
//
// 业务错误（房间不可用、已入住、房间隔离等）HTTP 状态码为 200，错误码写在 code 中；
// 只有请求本身无法解析时才返回 4xx。
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CodeSuccess 成功码
const CodeSuccess = 0

// ContextKeyCode 本次响应的业务码，供访问日志与追踪读取
const ContextKeyCode = "response_code"

// Response API 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListData 列表数据结构
type ListData struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
}

// write 记录业务码并输出响应
func write(c *gin.Context, status int, resp Response) {
	c.Set(ContextKeyCode, resp.Code)
	c.JSON(status, resp)
}

// CodeOf 返回已写出的业务码，尚未写出响应时 ok 为 false
func CodeOf(c *gin.Context) (code int, ok bool) {
	v, exists := c.Get(ContextKeyCode)
	if !exists {
		return 0, false
	}
	code, ok = v.(int)
	return code, ok
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	SuccessWithMessage(c, "success", data)
}

// SuccessWithMessage 成功响应，如 "入住成功"、"预订已取消"
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	write(c, http.StatusOK, Response{Code: CodeSuccess, Message: message, Data: data})
}

// SuccessList 列表成功响应
func SuccessList(c *gin.Context, list interface{}, total int64) {
	Success(c, ListData{List: list, Total: total})
}

// Error 业务错误响应，HTTP 状态码为 200，错误码在 code 中
func Error(c *gin.Context, code int, message string) {
	write(c, http.StatusOK, Response{Code: code, Message: message})
}

// BadRequest 请求参数无法解析
func BadRequest(c *gin.Context, message string) {
	write(c, http.StatusBadRequest, Response{Code: http.StatusBadRequest, Message: message})
}

// NotFound 路由不存在
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "not found"
	}
	write(c, http.StatusNotFound, Response{Code: http.StatusNotFound, Message: message})
}

// InternalError 服务器内部错误
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "internal server error"
	}
	write(c, http.StatusInternalServerError, Response{Code: http.StatusInternalServerError, Message: message})
}
