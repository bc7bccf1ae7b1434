// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"
)

// APIError は統一エラーフォーマットを表す。
// クライアントに返す原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string            // エラーコード
	Message  string            // エラーメッセージ
	Category string            // カテゴリ: validation, auth, not_found, conflict, rate_limit, dispatch, store, system
	Action   string            // 利用者向け対処方法
	Fields   map[string]string // フィールド単位のバリデーションメッセージ
	ResetAt  time.Time         // レート制限ウィンドウのリセット時刻
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// エラーカテゴリ
const (
	CategoryValidation = "validation"
	CategoryAuth       = "auth"
	CategoryNotFound   = "not_found"
	CategoryConflict   = "conflict"
	CategoryRateLimit  = "rate_limit"
	CategoryDispatch   = "dispatch"
	CategoryStore      = "store"
	CategorySystem     = "system"
)

// 定義済みエラーコード
const (
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
	ErrCodeInvalidCategory      = "INVALID_CATEGORY"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeMissingSignature     = "MISSING_SIGNATURE"
	ErrCodeInvalidSignature     = "INVALID_SIGNATURE"
	ErrCodeWebhookNotConfigured = "WEBHOOK_NOT_CONFIGURED"
	ErrCodeSubscriberNotFound   = "SUBSCRIBER_NOT_FOUND"
	ErrCodeContentNotFound      = "CONTENT_NOT_FOUND"
	ErrCodeAlreadySubscribed    = "ALREADY_SUBSCRIBED"
	ErrCodeAlreadyUnsubscribed  = "ALREADY_UNSUBSCRIBED"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeDispatchFailed       = "DISPATCH_FAILED"
	ErrCodeStoreFailed          = "STORE_FAILED"
	ErrCodeMethodNotAllowed     = "METHOD_NOT_ALLOWED"
	ErrCodeInternal             = "INTERNAL_ERROR"
)

// NewValidationError はフィールド単位のバリデーションエラーを生成する。
// Messageには最初のフィールドエラーを使用する。
func NewValidationError(fields map[string]string) *APIError {
	msg := "Validation failed"
	for _, key := range []string{"email", "name", "message", "title", "slug", "excerpt", "apiKey"} {
		if m, ok := fields[key]; ok {
			msg = m
			break
		}
	}
	if msg == "Validation failed" {
		for _, m := range fields {
			msg = m
			break
		}
	}
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  msg,
		Category: CategoryValidation,
		Action:   "Correct the highlighted fields and try again.",
		Fields:   fields,
	}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "Request body must be valid JSON.",
		Category: CategoryValidation,
		Action:   "Send a JSON object with the documented fields.",
	}
}

// NewInvalidCategoryError は未知のプロジェクトカテゴリ指定エラーを生成する。
func NewInvalidCategoryError(category string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCategory,
		Message:  fmt.Sprintf("Unknown project category: %s", category),
		Category: CategoryValidation,
		Action:   "Use one of: hackathons, personal.",
	}
}

// NewUnauthorizedError はAPIキー不一致エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Invalid API key",
		Category: CategoryAuth,
		Action:   "Check the notification API key.",
	}
}

// NewMissingSignatureError は署名ヘッダー欠落エラーを生成する。
func NewMissingSignatureError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingSignature,
		Message:  "No signature header",
		Category: CategoryAuth,
	}
}

// NewInvalidSignatureError は署名不一致エラーを生成する。
func NewInvalidSignatureError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSignature,
		Message:  "Invalid signature",
		Category: CategoryAuth,
	}
}

// NewWebhookNotConfiguredError はWebhookシークレット未設定エラーを生成する。
func NewWebhookNotConfiguredError() *APIError {
	return &APIError{
		Code:     ErrCodeWebhookNotConfigured,
		Message:  "Webhook secret not configured",
		Category: CategorySystem,
	}
}

// NewSubscriberNotFoundError は購読者未登録エラーを生成する。
func NewSubscriberNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeSubscriberNotFound,
		Message:  "This email is not subscribed.",
		Category: CategoryNotFound,
		Action:   "Check the email address.",
	}
}

// NewContentNotFoundError はslugに対応するコンテンツが存在しないエラーを生成する。
func NewContentNotFoundError(kind, slug string) *APIError {
	return &APIError{
		Code:     ErrCodeContentNotFound,
		Message:  fmt.Sprintf("No %s found for slug: %s", kind, slug),
		Category: CategoryNotFound,
	}
}

// NewAlreadySubscribedError は購読済みエラーを生成する。
func NewAlreadySubscribedError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadySubscribed,
		Message:  "This email is already subscribed!",
		Category: CategoryConflict,
	}
}

// NewAlreadyUnsubscribedError は購読解除済みエラーを生成する。
func NewAlreadyUnsubscribedError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyUnsubscribed,
		Message:  "This email is already unsubscribed.",
		Category: CategoryConflict,
	}
}

// NewRateLimitError はレート制限超過エラーを生成する。
func NewRateLimitError(resetAt time.Time) *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Too many requests. Please try again later.",
		Category: CategoryRateLimit,
		Action:   "Wait until the reset time and retry.",
		ResetAt:  resetAt,
	}
}

// NewDispatchError はメール送信失敗エラーを生成する。
// 詳細はサーバーログにのみ記録し、メッセージは汎用とする。
func NewDispatchError() *APIError {
	return &APIError{
		Code:     ErrCodeDispatchFailed,
		Message:  "Failed to send email. Please try again later.",
		Category: CategoryDispatch,
	}
}

// NewStoreError は永続化失敗エラーを生成する。
func NewStoreError() *APIError {
	return &APIError{
		Code:     ErrCodeStoreFailed,
		Message:  "Something went wrong. Please try again.",
		Category: CategoryStore,
	}
}

// NewMethodNotAllowedError は未対応のHTTPメソッドエラーを生成する。
func NewMethodNotAllowedError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeMethodNotAllowed,
		Message:  message,
		Category: CategoryValidation,
	}
}

// NewInternalError は内部エラーを生成する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Something went wrong. Please try again.",
		Category: CategorySystem,
		Action:   "Retry later. If the problem persists, contact the site owner.",
	}
}

// WrapStoreError は永続化層のエラーをStoreErrorと併せてラップする。
// errors.AsでAPIErrorを、errors.Isで元のエラーを取り出せる。
func WrapStoreError(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, NewStoreError(), err)
}

// WrapDispatchError はメール送信のエラーをDispatchErrorと併せてラップする。
func WrapDispatchError(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, NewDispatchError(), err)
}
