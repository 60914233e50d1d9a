// Package errors 提供统一的错误定义
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeNotFound           ErrorCode = "1004"
	CodeConflict           ErrorCode = "1005"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"

	// 文档与索引错误 (2xxx)
	CodeDocumentNotFound   ErrorCode = "2001"
	CodeContentMissing     ErrorCode = "2002"
	CodeIndexInconsistency ErrorCode = "2003"
	CodeIndexingFailed     ErrorCode = "2004"

	// 检索与生成错误 (3xxx)
	CodeNoRelevantResults ErrorCode = "3001"
	CodeGenerationEmpty   ErrorCode = "3002"
	CodeEmbeddingFailed   ErrorCode = "3003"
	CodeRetrievalFailed   ErrorCode = "3004"

	// 外部服务错误 (5xxx)
	CodeProviderUnavailable ErrorCode = "5001"
	CodeDatabaseError       ErrorCode = "5002"
	CodeCacheError          ErrorCode = "5003"
	CodeVectorDBError       ErrorCode = "5004"
	CodeDocumentSourceError ErrorCode = "5005"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail 添加详细信息
func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail
	return e
}

// WithError 添加底层错误
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeContentMissing:
		return http.StatusBadRequest
	case CodeNotFound, CodeDocumentNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeServiceUnavailable, CodeProviderUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrConflict           = New(CodeConflict, "resource conflict")
	ErrTooManyRequests    = New(CodeTooManyRequests, "too many requests")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")

	ErrDocumentNotFound   = New(CodeDocumentNotFound, "document not found")
	ErrContentMissing     = New(CodeContentMissing, "document has no text content")
	ErrIndexInconsistency = New(CodeIndexInconsistency, "index inconsistency detected")

	ErrNoRelevantResults   = New(CodeNoRelevantResults, "no relevant documents found")
	ErrGenerationEmpty     = New(CodeGenerationEmpty, "generation returned empty answer")
	ErrEmbeddingFailed     = New(CodeEmbeddingFailed, "embedding failed")
	ErrProviderUnavailable = New(CodeProviderUnavailable, "provider unavailable")
)

// IsAppError 检查是否为 AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}
