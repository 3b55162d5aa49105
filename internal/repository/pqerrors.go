package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgreSQLのSQLSTATEコード
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// 一意制約名。マイグレーションで定義した名前と一致させること。
const (
	constraintBookingUserActivity = "bookings_user_activity_key"
	constraintUserEmail           = "users_email_key"
)

// translatePQError はドライバのエラーをリポジトリのセンチネルエラーに変換する。
// 対応しないエラーはそのまま返す。
func translatePQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case pqUniqueViolation:
		switch pqErr.Constraint {
		case constraintBookingUserActivity:
			return ErrDuplicateBooking
		case constraintUserEmail:
			return ErrDuplicateEmail
		}
	case pqForeignKeyViolation:
		if pqErr.Table == "bookings" && pqErr.Constraint == "bookings_activity_id_fkey" {
			return ErrActivityMissing
		}
	}
	return err
}

// isUUID はidがUUID形式かどうかを返す。
// UUID以外のIDはuuid型カラムへのキャストで失敗するため、問い合わせ前に未検出として扱う。
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
