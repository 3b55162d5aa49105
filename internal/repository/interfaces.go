// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/meetx/internal/model"
)

// ストレージ制約違反を表すセンチネルエラー。
// 呼び出し側は errors.Is で判別する。
var (
	// ErrDuplicateBooking は (user_id, activity_id) の一意制約違反。
	ErrDuplicateBooking = errors.New("booking already exists for user and activity")
	// ErrDuplicateEmail は users.email の一意制約違反。
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrActivityMissing は参照先アクティビティが存在しない場合の外部キー違反。
	ErrActivityMissing = errors.New("referenced activity does not exist")
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// メールアドレスが既に登録されている場合は ErrDuplicateEmail を返す。
	Create(ctx context.Context, user *model.User) error
}

// ActivityRepository はアクティビティデータの永続化インターフェース。
type ActivityRepository interface {
	// FindByID は指定IDのアクティビティを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Activity, error)

	// List は全アクティビティを日付・時刻の昇順で返す。
	List(ctx context.Context) ([]*model.Activity, error)

	// Create はアクティビティを作成する。
	Create(ctx context.Context, activity *model.Activity) error

	// Update はアクティビティの全項目を上書き更新する。
	Update(ctx context.Context, activity *model.Activity) error

	// Delete は指定IDのアクティビティを削除する。関連する予約はCASCADE削除される。
	// 削除対象が存在しない場合は false を返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// BookingRepository は予約データの永続化インターフェース。
type BookingRepository interface {
	// FindByID は指定IDの予約を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Booking, error)

	// FindByUserAndActivity はユーザーIDとアクティビティIDで予約を検索する。
	// 見つからない場合はnilを返す。
	FindByUserAndActivity(ctx context.Context, userID, activityID string) (*model.Booking, error)

	// Create は予約を作成する。
	// (user_id, activity_id) が既に存在する場合は ErrDuplicateBooking、
	// アクティビティが存在しない場合は ErrActivityMissing を返す。
	Create(ctx context.Context, booking *model.Booking) error

	// ListByUserIDWithActivity はユーザーの予約一覧をアクティビティの表示項目付きで
	// 作成日時の降順に返す。
	ListByUserIDWithActivity(ctx context.Context, userID string) ([]model.BookingWithActivity, error)

	// UpdateStatus は予約の状態を更新し、更新後の予約を返す。
	// 対象が存在しない場合はnilを返す。
	UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error)

	// Delete は指定IDの予約を削除する。削除対象が存在しない場合は false を返す。
	Delete(ctx context.Context, id string) (bool, error)
}
