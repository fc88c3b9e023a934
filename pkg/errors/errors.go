package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误类别，封闭集合
type Kind int

// 错误类别常量
const (
	KindInternal         Kind = iota // 持久化、缓存或其他意外失败
	KindUnauthenticated              // 凭证缺失/无效/不匹配/过期
	KindValidation                   // 请求格式错误
	KindNotFound                     // 路由级：资源不存在
	KindMethodNotAllowed             // 路由级：方法不允许
	KindBusiness                     // 业务规则失败，传输层成功
)

// String 类别名称
func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindMethodNotAllowed:
		return "method_not_allowed"
	case KindBusiness:
		return "business"
	default:
		return "internal"
	}
}

// HTTPStatus 类别到HTTP状态码的映射
// 业务错误映射到200：传输成功，逻辑失败通过非零code表达
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindBusiness:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// AppError 应用错误
type AppError struct {
	Kind    Kind   `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap 解包错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 同类别且同消息视为相同错误，支持与预定义错误比较
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Message == "" || e.Message == t.Message)
}

// New 创建新错误
func New(kind Kind, code int, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

// Unauthenticated 创建认证错误
func Unauthenticated(message string) *AppError {
	if message == "" {
		message = "unauthenticated"
	}
	return &AppError{Kind: KindUnauthenticated, Code: 401, Message: message}
}

// Validation 创建验证错误
func Validation(message string) *AppError {
	return &AppError{Kind: KindValidation, Code: 400, Message: message}
}

// NotFound 创建未找到错误
func NotFound(message string) *AppError {
	if message == "" {
		message = "not found"
	}
	return &AppError{Kind: KindNotFound, Code: 404, Message: message}
}

// MethodNotAllowed 创建方法不允许错误
func MethodNotAllowed() *AppError {
	return &AppError{Kind: KindMethodNotAllowed, Code: 405, Message: "method not allowed"}
}

// Biz 创建业务错误
func Biz(message string) *AppError {
	return &AppError{Kind: KindBusiness, Code: 1, Message: message}
}

// Internal 包装内部错误
func Internal(err error) *AppError {
	return &AppError{Kind: KindInternal, Code: 500, Message: "internal error", Err: err}
}

// Internalf 创建带消息的内部错误
func Internalf(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindInternal, Code: 500, Message: fmt.Sprintf(format, args...)}
}

// Wrap 用消息包装错误，保留已有的类别
func Wrap(err error, message string) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{Kind: appErr.Kind, Code: appErr.Code, Message: message, Err: err}
	}
	return &AppError{Kind: KindInternal, Code: 500, Message: message, Err: err}
}

// From 任意错误转换为AppError，非AppError按内部错误处理
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// IsKind 检查错误类别
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// Is 检查是否为指定错误
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As 类型转换错误
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
