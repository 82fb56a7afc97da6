// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// HTTPレスポンスでは {"detail": Detail} として返却される。
type APIError struct {
	Code   string // エラーコード
	Detail string // 呼び出し元に返すメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Detail)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthenticated     = "UNAUTHENTICATED"
	ErrCodeInvalidToken        = "INVALID_TOKEN"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeFileTooLarge        = "FILE_TOO_LARGE"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeInternal            = "INTERNAL_ERROR"
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeNotFound            = "NOT_FOUND"
)

// NewUnauthenticatedError はトークン未指定エラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:   ErrCodeUnauthenticated,
		Detail: "No authentication token provided",
	}
}

// NewInvalidTokenError はトークン検証失敗エラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:   ErrCodeInvalidToken,
		Detail: "Invalid or expired token",
	}
}

// NewValidationError は必須項目の欠落などの入力エラーを生成する。
func NewValidationError(detail string) *APIError {
	return &APIError{
		Code:   ErrCodeValidation,
		Detail: detail,
	}
}

// NewFileTooLargeError はアップロードサイズ超過エラーを生成する。
func NewFileTooLargeError(maxBytes int64) *APIError {
	return &APIError{
		Code:   ErrCodeFileTooLarge,
		Detail: fmt.Sprintf("File too large. Maximum allowed size is %dMB.", maxBytes/(1024*1024)),
	}
}

// NewUpstreamUnavailableError はデータストアや認証基盤に到達できない場合のエラーを生成する。
// context はどの処理で失敗したかを示す（例: "getting interaction history"）。
func NewUpstreamUnavailableError(context string, err error) *APIError {
	return &APIError{
		Code:   ErrCodeUpstreamUnavailable,
		Detail: fmt.Sprintf("Error %s: %s", context, err.Error()),
	}
}

// NewInternalError は想定外のエラーを生成する。
func NewInternalError(context string, err error) *APIError {
	return &APIError{
		Code:   ErrCodeInternal,
		Detail: fmt.Sprintf("Error %s: %s", context, err.Error()),
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:   ErrCodeRateLimited,
		Detail: "Too many requests. Please try again later.",
	}
}

// NewNotFoundError はルート未定義などのエラーを生成する。
func NewNotFoundError() *APIError {
	return &APIError{
		Code:   ErrCodeNotFound,
		Detail: "Not Found",
	}
}
