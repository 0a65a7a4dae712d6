// Package response 统一 HTTP JSON 响应格式
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/tradelifecycle/pkg/contextx"
)

// Body 响应体
type Body struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Success 返回 200 与数据
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Body{
		Code:      0,
		Message:   "success",
		Data:      data,
		RequestID: contextx.GetRequestID(c.Request.Context()),
	})
}

// Created 返回 201 与数据
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Body{
		Code:      0,
		Message:   "success",
		Data:      data,
		RequestID: contextx.GetRequestID(c.Request.Context()),
	})
}

// ErrorWithStatus 以指定状态码返回错误，details 为空时省略
func ErrorWithStatus(c *gin.Context, status int, message string, details any) {
	if s, ok := details.(string); ok && s == "" {
		details = nil
	}
	c.AbortWithStatusJSON(status, Body{
		Code:      status,
		Message:   message,
		Details:   details,
		RequestID: contextx.GetRequestID(c.Request.Context()),
	})
}

// Error 以 500 返回错误
func Error(c *gin.Context, err error) {
	ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
}
