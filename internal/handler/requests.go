package handler

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/hitoshi/meetx/internal/model"
)

const dateLayout = "2006-01-02"

var (
	alphanumericPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	clockPattern        = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	phonePattern        = regexp.MustCompile(`^[0-9]{7,15}$`)
)

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Validate は登録内容を検証する。
func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.RuneLength(3, 50)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Phone,
			validation.Required,
			validation.Match(phonePattern).Error("must be 7 to 15 digits"),
		),
		validation.Field(&r.Password,
			validation.Required,
			validation.Length(8, 72),
			validation.Match(alphanumericPattern).Error("must contain only letters and digits"),
			validation.By(letterAndDigit),
		),
	)
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate はログイン内容を検証する。
func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// createActivityRequest はアクティビティ作成リクエストのボディ。
type createActivityRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Capacity    *int   `json:"capacity"`
}

// Validate は作成内容を検証する。capacityは省略可能。
func (r createActivityRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.RuneLength(3, 100)),
		validation.Field(&r.Description, validation.Required, validation.RuneLength(10, 0)),
		validation.Field(&r.Location, validation.Required, validation.RuneLength(3, 0)),
		validation.Field(&r.Date, validation.Required, validation.Date(dateLayout).Error("must be a date in YYYY-MM-DD format")),
		validation.Field(&r.Time, validation.Required, validation.Match(clockPattern).Error("must be a time in HH:MM format")),
		validation.Field(&r.Capacity, validation.By(positiveInt)),
	)
}

// updateActivityRequest はアクティビティ更新リクエストのボディ。
// 指定されたフィールドのみ更新する。
type updateActivityRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	Capacity    *int    `json:"capacity"`
}

// Validate は更新内容を検証する。nilのフィールドは検証しない。
func (r updateActivityRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.RuneLength(3, 100)),
		validation.Field(&r.Description, validation.NilOrNotEmpty, validation.RuneLength(10, 0)),
		validation.Field(&r.Location, validation.NilOrNotEmpty, validation.RuneLength(3, 0)),
		validation.Field(&r.Date, validation.NilOrNotEmpty, validation.Date(dateLayout).Error("must be a date in YYYY-MM-DD format")),
		validation.Field(&r.Time, validation.NilOrNotEmpty, validation.Match(clockPattern).Error("must be a time in HH:MM format")),
		validation.Field(&r.Capacity, validation.By(positiveInt)),
	)
}

// patch はリクエストをドメインの部分更新に変換する。
func (r updateActivityRequest) patch() model.ActivityPatch {
	return model.ActivityPatch{
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		Date:        r.Date,
		Time:        r.Time,
		Capacity:    r.Capacity,
	}
}

// createBookingRequest は予約作成リクエストのボディ。
type createBookingRequest struct {
	ActivityID string `json:"activityId"`
}

// Validate は予約対象のアクティビティIDを検証する。
func (r createBookingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ActivityID, validation.Required, is.UUID),
	)
}

// updateBookingStatusRequest は予約状態更新リクエストのボディ。
type updateBookingStatusRequest struct {
	Status string `json:"status"`
}

// Validate は状態が定義済みの値かどうかを検証する。
func (r updateBookingStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status,
			validation.Required,
			validation.In(
				string(model.BookingStatusPending),
				string(model.BookingStatusConfirmed),
				string(model.BookingStatusCancelled),
			).Error("must be one of pending, confirmed, cancelled"),
		),
	)
}

// letterAndDigit はパスワードに英字と数字がそれぞれ1文字以上含まれることを検証する。
func letterAndDigit(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	hasLetter := strings.IndexFunc(s, unicode.IsLetter) >= 0
	hasDigit := strings.IndexFunc(s, unicode.IsDigit) >= 0
	if !hasLetter || !hasDigit {
		return errors.New("must contain at least one letter and one digit")
	}
	return nil
}

// positiveInt は指定された整数が1以上であることを検証する。nilは省略扱い。
func positiveInt(value any) error {
	p, _ := value.(*int)
	if p != nil && *p <= 0 {
		return errors.New("must be greater than 0")
	}
	return nil
}

// validationFailure はozzo-validationのエラーをVALIDATION_FAILEDのAPIErrorに変換する。
// フィールド別エラーでない場合はそのまま返す。
func validationFailure(err error) error {
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	fields := make(map[string]string, len(fieldErrs))
	for name, fieldErr := range fieldErrs {
		fields[name] = fieldErr.Error()
	}
	return model.NewValidationError(fields)
}
