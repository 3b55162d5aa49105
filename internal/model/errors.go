// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string            // エラーコード
	Message  string            // エラーメッセージ
	Category string            // カテゴリ: auth, validation, booking, activity, system
	Action   string            // ユーザー向け対処方法
	Fields   map[string]string // 入力検証エラー時のフィールド別メッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeUnauthenticated    = "UNAUTHENTICATED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeBookingNotFound    = "BOOKING_NOT_FOUND"
	ErrCodeActivityNotFound   = "ACTIVITY_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeDuplicateBooking   = "DUPLICATE_BOOKING"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewValidationError は入力検証エラーを生成する。
// fields はフィールド名からエラーメッセージへのマップ。
func NewValidationError(fields map[string]string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  "Validation failed",
		Category: "validation",
		Action:   "Fix the listed fields and resend the request.",
		Fields:   fields,
	}
}

// NewInvalidRequestError はリクエストボディが解釈できない場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("Invalid request: %s", reason),
		Category: "validation",
		Action:   "Send a well-formed JSON body.",
	}
}

// NewUnauthenticatedError は認証トークンが無効な場合のエラーを生成する。
// 失敗理由（欠落・改ざん・期限切れ）はレスポンスで区別しない。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "Not authorized, token failed",
		Category: "auth",
		Action:   "Log in again to obtain a new token.",
	}
}

// NewInvalidCredentialsError はログイン失敗時のエラーを生成する。
// 未登録メールとパスワード不一致は同じエラーになる。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid email or password",
		Category: "auth",
		Action:   "Check your email and password.",
	}
}

// NewForbiddenError は他ユーザーのリソースにアクセスした場合のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "Not authorized to access this booking",
		Category: "auth",
		Action:   "You can only access your own bookings.",
	}
}

// NewBookingNotFoundError は予約が見つからない場合のエラーを生成する。
func NewBookingNotFoundError(bookingID string) *APIError {
	return &APIError{
		Code:     ErrCodeBookingNotFound,
		Message:  fmt.Sprintf("Booking not found: %s", bookingID),
		Category: "booking",
		Action:   "Check the booking id.",
	}
}

// NewActivityNotFoundError はアクティビティが見つからない場合のエラーを生成する。
func NewActivityNotFoundError(activityID string) *APIError {
	return &APIError{
		Code:     ErrCodeActivityNotFound,
		Message:  fmt.Sprintf("Activity not found: %s", activityID),
		Category: "activity",
		Action:   "Check the activity id.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found",
		Category: "auth",
		Action:   "Log in again.",
	}
}

// NewDuplicateBookingError は同一アクティビティを再度予約しようとした場合のエラーを生成する。
func NewDuplicateBookingError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateBooking,
		Message:  "You have already booked this activity",
		Category: "booking",
		Action:   "Check your bookings list.",
	}
}

// NewEmailTakenError は登録済みメールアドレスで登録しようとした場合のエラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "User already exists",
		Category: "auth",
		Action:   "Log in with the existing account or use another email.",
	}
}

// NewInternalError は内部エラーを生成する。詳細はサーバーログにのみ出力する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Internal server error",
		Category: "system",
		Action:   "Try again later.",
	}
}
