package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/meetx/internal/model"
)

// PostgresActivityRepo はPostgreSQLを使用したアクティビティリポジトリ。
type PostgresActivityRepo struct {
	db *sql.DB
}

// NewPostgresActivityRepo はPostgresActivityRepoを生成する。
func NewPostgresActivityRepo(db *sql.DB) *PostgresActivityRepo {
	return &PostgresActivityRepo{db: db}
}

// dateはDATE型のため、文字列として扱うためにto_charで整形する。
const activityColumns = `id, title, description, location, to_char(date, 'YYYY-MM-DD'), time,
	capacity, created_by, created_at, updated_at`

func scanActivity(row interface{ Scan(...any) error }) (*model.Activity, error) {
	a := &model.Activity{}
	var createdBy sql.NullString
	err := row.Scan(&a.ID, &a.Title, &a.Description, &a.Location, &a.Date, &a.Time,
		&a.Capacity, &createdBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if createdBy.Valid {
		a.CreatedBy = &createdBy.String
	}
	return a, nil
}

// FindByID は指定IDのアクティビティを取得する。見つからない場合はnilを返す。
func (r *PostgresActivityRepo) FindByID(ctx context.Context, id string) (*model.Activity, error) {
	if !isUUID(id) {
		return nil, nil
	}
	a, err := scanActivity(r.db.QueryRowContext(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE id = $1`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("アクティビティの取得に失敗しました: %w", err)
	}
	return a, nil
}

// List は全アクティビティを日付・時刻の昇順で返す。
func (r *PostgresActivityRepo) List(ctx context.Context) ([]*model.Activity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+activityColumns+` FROM activities ORDER BY date ASC, time ASC, created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("アクティビティ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var activities []*model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("アクティビティ行の読み取りに失敗しました: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("アクティビティ一覧の走査に失敗しました: %w", err)
	}
	return activities, nil
}

// Create はアクティビティを作成する。
func (r *PostgresActivityRepo) Create(ctx context.Context, a *model.Activity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activities (id, title, description, location, date, time, capacity, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.Title, a.Description, a.Location, a.Date, a.Time, a.Capacity, a.CreatedBy, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("アクティビティの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はアクティビティの全項目を上書き更新する。
func (r *PostgresActivityRepo) Update(ctx context.Context, a *model.Activity) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE activities
		 SET title = $2, description = $3, location = $4, date = $5, time = $6, capacity = $7, updated_at = $8
		 WHERE id = $1`,
		a.ID, a.Title, a.Description, a.Location, a.Date, a.Time, a.Capacity, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("アクティビティの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDのアクティビティを削除する。削除対象が存在しない場合は false を返す。
func (r *PostgresActivityRepo) Delete(ctx context.Context, id string) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("アクティビティの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ ActivityRepository = (*PostgresActivityRepo)(nil)
