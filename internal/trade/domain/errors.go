package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrorKind 领域错误类别
type ErrorKind string

const (
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindInactiveReference   ErrorKind = "INACTIVE_REFERENCE"
	KindValidation          ErrorKind = "VALIDATION_FAILED"
	KindUnauthorized        ErrorKind = "UNAUTHORIZED"
	KindConcurrencyConflict ErrorKind = "CONCURRENCY_CONFLICT"
)

// Error 领域错误，Messages 保存全部违规信息
type Error struct {
	Kind     ErrorKind `json:"kind"`
	Field    string    `json:"field,omitempty"`
	Value    string    `json:"value,omitempty"`
	Messages []string  `json:"messages"`
}

func (e *Error) Error() string {
	if len(e.Messages) == 0 {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, strings.Join(e.Messages, "; "))
}

// Retryable 并发冲突可以重试
func (e *Error) Retryable() bool {
	return e.Kind == KindConcurrencyConflict
}

// NotFound 引用的实体不存在
func NotFound(field, value string) *Error {
	return &Error{
		Kind:     KindNotFound,
		Field:    field,
		Value:    value,
		Messages: []string{fmt.Sprintf("%s not found: %s", field, value)},
	}
}

// TradeNotFound 不存在活跃版本
func TradeNotFound(tradeID int64) *Error {
	return NotFound("tradeId", strconv.FormatInt(tradeID, 10))
}

// InactiveReference 实体存在但已停用
func InactiveReference(field, value string) *Error {
	return &Error{
		Kind:     KindInactiveReference,
		Field:    field,
		Value:    value,
		Messages: []string{fmt.Sprintf("%s is not active: %s", field, value)},
	}
}

// ValidationFailed 业务规则校验失败
func ValidationFailed(messages ...string) *Error {
	return &Error{Kind: KindValidation, Messages: messages}
}

// Unauthorized 调用者无权执行操作
func Unauthorized(userID string, op Operation) *Error {
	if userID == "" {
		userID = "anonymous"
	}
	return &Error{
		Kind:     KindUnauthorized,
		Field:    "userId",
		Value:    userID,
		Messages: []string{fmt.Sprintf("user %s is not authorized to %s", userID, op)},
	}
}

// ConcurrencyConflict 活跃版本被并发修改
func ConcurrencyConflict(tradeID int64, reason string) *Error {
	return &Error{
		Kind:     KindConcurrencyConflict,
		Field:    "tradeId",
		Value:    strconv.FormatInt(tradeID, 10),
		Messages: []string{fmt.Sprintf("trade %d was modified concurrently: %s", tradeID, reason)},
	}
}

// KindOf 提取错误类别
func KindOf(err error) (ErrorKind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

func isKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsNotFound 是否为 NotFound
func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

// IsInactiveReference 是否为 InactiveReference
func IsInactiveReference(err error) bool { return isKind(err, KindInactiveReference) }

// IsValidation 是否为校验失败
func IsValidation(err error) bool { return isKind(err, KindValidation) }

// IsUnauthorized 是否为未授权
func IsUnauthorized(err error) bool { return isKind(err, KindUnauthorized) }

// IsConcurrencyConflict 是否为并发冲突
func IsConcurrencyConflict(err error) bool { return isKind(err, KindConcurrencyConflict) }
