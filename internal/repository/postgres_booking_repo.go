package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/meetx/internal/model"
)

// PostgresBookingRepo はPostgreSQLを使用した予約リポジトリ。
// (user_id, activity_id) の一意性は bookings_user_activity_key 制約で保証する。
type PostgresBookingRepo struct {
	db *sql.DB
}

// NewPostgresBookingRepo はPostgresBookingRepoを生成する。
func NewPostgresBookingRepo(db *sql.DB) *PostgresBookingRepo {
	return &PostgresBookingRepo{db: db}
}

const bookingColumns = `id, user_id, activity_id, status, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	b := &model.Booking{}
	err := row.Scan(&b.ID, &b.UserID, &b.ActivityID, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// FindByID は指定IDの予約を取得する。見つからない場合はnilを返す。
func (r *PostgresBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if !isUUID(id) {
		return nil, nil
	}
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("予約の取得に失敗しました: %w", err)
	}
	return b, nil
}

// FindByUserAndActivity はユーザーIDとアクティビティIDで予約を検索する。
// 見つからない場合はnilを返す。
func (r *PostgresBookingRepo) FindByUserAndActivity(ctx context.Context, userID, activityID string) (*model.Booking, error) {
	if !isUUID(userID) || !isUUID(activityID) {
		return nil, nil
	}
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 AND activity_id = $2`,
		userID, activityID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーとアクティビティによる予約の検索に失敗しました: %w", err)
	}
	return b, nil
}

// Create は予約を作成する。
// 一意制約違反は ErrDuplicateBooking、アクティビティの外部キー違反は ErrActivityMissing に変換する。
func (r *PostgresBookingRepo) Create(ctx context.Context, b *model.Booking) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (id, user_id, activity_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		b.ID, b.UserID, b.ActivityID, b.Status, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		translated := translatePQError(err)
		if errors.Is(translated, ErrDuplicateBooking) || errors.Is(translated, ErrActivityMissing) {
			return translated
		}
		return fmt.Errorf("予約の作成に失敗しました: %w", err)
	}
	return nil
}

// ListByUserIDWithActivity はユーザーの予約一覧をアクティビティの表示項目付きで
// 作成日時の降順に返す。
func (r *PostgresBookingRepo) ListByUserIDWithActivity(ctx context.Context, userID string) ([]model.BookingWithActivity, error) {
	if !isUUID(userID) {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id, b.user_id, b.activity_id, b.status, b.created_at, b.updated_at,
		        a.id, a.title, a.description, a.location, to_char(a.date, 'YYYY-MM-DD'), a.time
		 FROM bookings b
		 JOIN activities a ON a.id = b.activity_id
		 WHERE b.user_id = $1
		 ORDER BY b.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var bookings []model.BookingWithActivity
	for rows.Next() {
		var bw model.BookingWithActivity
		if err := rows.Scan(
			&bw.ID, &bw.UserID, &bw.ActivityID, &bw.Status, &bw.CreatedAt, &bw.UpdatedAt,
			&bw.Activity.ID, &bw.Activity.Title, &bw.Activity.Description, &bw.Activity.Location,
			&bw.Activity.Date, &bw.Activity.Time,
		); err != nil {
			return nil, fmt.Errorf("予約行の読み取りに失敗しました: %w", err)
		}
		bookings = append(bookings, bw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("予約一覧の走査に失敗しました: %w", err)
	}
	return bookings, nil
}

// UpdateStatus は予約の状態を更新し、更新後の予約を返す。対象が存在しない場合はnilを返す。
func (r *PostgresBookingRepo) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
	if !isUUID(id) {
		return nil, nil
	}
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1
		 RETURNING `+bookingColumns,
		id, status, time.Now().UTC(),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("予約状態の更新に失敗しました: %w", err)
	}
	return b, nil
}

// Delete は指定IDの予約を削除する。削除対象が存在しない場合は false を返す。
func (r *PostgresBookingRepo) Delete(ctx context.Context, id string) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("予約の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ BookingRepository = (*PostgresBookingRepo)(nil)
