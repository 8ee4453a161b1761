// Package errors 定义应用程序统一的错误码与错误类型
// 错误码按子系统分段，错误消息通过i18n包解析
package errors

import (
	"errors"
	"fmt"

	"github.com/weiwangfds/fieldtax/internal/i18n"
)

// ErrorCode 错误码类型
type ErrorCode int

// 定义错误码常量
const (
	// 通用错误码 (1000-1999)
	ErrSuccess            ErrorCode = 0    // 成功
	ErrInternalServer     ErrorCode = 1000 // 服务器内部错误
	ErrInvalidParams      ErrorCode = 1001 // 参数错误
	ErrUnauthorized       ErrorCode = 1002 // 未授权
	ErrNotFound           ErrorCode = 1004 // 资源未找到
	ErrServiceUnavailable ErrorCode = 1007 // 服务不可用

	// 本地存储错误码 (4000-4999)
	ErrDatabaseConnection  ErrorCode = 4000 // 数据库连接错误
	ErrDatabaseQuery       ErrorCode = 4001 // 数据库查询错误
	ErrDatabaseInsert      ErrorCode = 4002 // 数据库插入错误
	ErrDatabaseUpdate      ErrorCode = 4003 // 数据库更新错误
	ErrDatabaseDelete      ErrorCode = 4004 // 数据库删除错误
	ErrDatabaseTransaction ErrorCode = 4005 // 数据库事务错误
	ErrRecordNotFound      ErrorCode = 4006 // 记录未找到

	// 认证错误码 (5000-5999) - 会话级致命错误
	ErrAuthLoginFailed  ErrorCode = 5000 // 登录认证失败
	ErrAuthTokenExpired ErrorCode = 5001 // 会话凭证过期

	// 传输错误码 (6000-6999) - 分块级错误，记录到状态账并等待下次会话重试
	ErrTransferConnection ErrorCode = 6000 // 传输连接失败
	ErrTransferTimeout    ErrorCode = 6001 // 传输超时
	ErrTransferRejected   ErrorCode = 6002 // 后端拒绝分块
	ErrTransferPayload    ErrorCode = 6003 // 分块序列化失败

	// 同步流程错误码 (7000-7999)
	ErrExportInProgress  ErrorCode = 7000 // 同步会话进行中
	ErrExportAborted     ErrorCode = 7001 // 同步会话中止
	ErrAttachmentCleanup ErrorCode = 7002 // 附件清理失败（仅记录日志，不影响流程）
	ErrReferenceFetch    ErrorCode = 7003 // 参照数据获取失败
	ErrReferenceSync     ErrorCode = 7004 // 参照数据同步失败
)

// AppError 应用错误结构体
// @Description 应用程序统一错误格式
type AppError struct {
	// 错误码
	Code ErrorCode `json:"code"`
	// 错误消息
	Message string `json:"message"`
	// 详细错误信息
	Details string `json:"details,omitempty"`
	// 原始错误
	OriginalError error `json:"-"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 返回原始错误，支持errors.Is/As链式判断
func (e *AppError) Unwrap() error {
	return e.OriginalError
}

// WithDetails 添加详细错误信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// New 创建新的应用错误
// 参数:
//   - code: 错误码
//   - message: 错误消息
// 返回值:
//   - *AppError: 应用错误实例
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewByCode 创建应用错误，消息由错误码通过i18n解析
func NewByCode(code ErrorCode) *AppError {
	return &AppError{
		Code:    code,
		Message: GetErrorMessage(code),
	}
}

// Wrap 包装原始错误
// 参数:
//   - code: 错误码
//   - message: 错误消息
//   - err: 原始错误
// 返回值:
//   - *AppError: 应用错误实例
func Wrap(code ErrorCode, message string, err error) *AppError {
	appErr := &AppError{
		Code:          code,
		Message:       message,
		OriginalError: err,
	}
	if err != nil {
		appErr.Details = err.Error()
	}
	return appErr
}

// WrapByCode 包装原始错误，消息由错误码通过i18n解析
func WrapByCode(code ErrorCode, err error) *AppError {
	return Wrap(code, GetErrorMessage(code), err)
}

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 从错误中提取应用错误
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// IsAuthenticationError 判断是否为认证类错误
// 认证错误对整个同步会话是致命的，协调器据此中止会话
func IsAuthenticationError(err error) bool {
	appErr, ok := GetAppError(err)
	return ok && appErr.Code >= 5000 && appErr.Code < 6000
}

// IsTransferError 判断是否为传输类错误
// 传输错误只影响单个分块，记入状态账后继续下一个分块
func IsTransferError(err error) bool {
	appErr, ok := GetAppError(err)
	return ok && appErr.Code >= 6000 && appErr.Code < 7000
}

// 预定义的常用错误
var (
	// 通用错误
	ErrInternalServerError = New(ErrInternalServer, GetErrorMessage(ErrInternalServer))
	ErrInvalidParameters   = New(ErrInvalidParams, GetErrorMessage(ErrInvalidParams))
	ErrResourceNotFound    = New(ErrNotFound, GetErrorMessage(ErrNotFound))

	// 数据库相关错误
	ErrDatabaseQueryError       = New(ErrDatabaseQuery, GetErrorMessage(ErrDatabaseQuery))
	ErrDatabaseTransactionError = New(ErrDatabaseTransaction, GetErrorMessage(ErrDatabaseTransaction))
	ErrRecordNotFoundError      = New(ErrRecordNotFound, GetErrorMessage(ErrRecordNotFound))

	// 同步相关错误
	ErrExportInProgressError = New(ErrExportInProgress, GetErrorMessage(ErrExportInProgress))
)

// 错误码到i18n键的映射
var errorCodeToKeyMap = map[ErrorCode]string{
	ErrSuccess:            "success",
	ErrInternalServer:     "internal_server_error",
	ErrInvalidParams:      "invalid_params",
	ErrUnauthorized:       "unauthorized",
	ErrNotFound:           "not_found",
	ErrServiceUnavailable: "service_unavailable",

	ErrDatabaseConnection:  "database_connection",
	ErrDatabaseQuery:       "database_query",
	ErrDatabaseInsert:      "database_insert",
	ErrDatabaseUpdate:      "database_update",
	ErrDatabaseDelete:      "database_delete",
	ErrDatabaseTransaction: "database_transaction",
	ErrRecordNotFound:      "record_not_found",

	ErrAuthLoginFailed:  "auth_login_failed",
	ErrAuthTokenExpired: "auth_token_expired",

	ErrTransferConnection: "transfer_connection_failed",
	ErrTransferTimeout:    "transfer_timeout",
	ErrTransferRejected:   "transfer_rejected",
	ErrTransferPayload:    "transfer_payload_invalid",

	ErrExportInProgress:  "export_in_progress",
	ErrExportAborted:     "export_aborted",
	ErrAttachmentCleanup: "attachment_cleanup_failed",
	ErrReferenceFetch:    "reference_fetch_failed",
	ErrReferenceSync:     "reference_sync_failed",
}

// GetErrorMessage 根据错误码获取错误消息（使用默认语言）
func GetErrorMessage(code ErrorCode) string {
	return GetErrorMessageWithLang(code, i18n.GetInstance().GetDefaultLanguage())
}

// GetErrorMessageWithLang 根据错误码和语言获取错误消息
func GetErrorMessageWithLang(code ErrorCode, lang string) string {
	key, exists := errorCodeToKeyMap[code]
	if !exists {
		key = "unknown_error"
	}
	return i18n.GetInstance().Translate(key, lang)
}
