// Package activity はアクティビティカタログのドメインロジックを提供する。
package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/meetx/internal/model"
	"github.com/hitoshi/meetx/internal/repository"
	"github.com/hitoshi/meetx/internal/security"
)

// CreateInput はアクティビティ作成の入力。入力検証はハンドラー層で済んでいる前提。
type CreateInput struct {
	Title       string
	Description string
	Location    string
	Date        string
	Time        string
	Capacity    int // 0の場合は既定値
}

// Service はアクティビティのCRUDを提供するサービス層。
// 認証済みユーザーであれば誰でも作成・更新・削除できる。
type Service struct {
	repo      repository.ActivityRepository
	sanitizer security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.ActivityRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{repo: repo, sanitizer: sanitizer}
}

// List は全アクティビティを日付・時刻の昇順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Activity, error) {
	activities, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("アクティビティ一覧の取得に失敗しました: %w", err)
	}
	if activities == nil {
		activities = []*model.Activity{}
	}
	return activities, nil
}

// Get は指定IDのアクティビティを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Activity, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("アクティビティの取得に失敗しました: %w", err)
	}
	if a == nil {
		return nil, model.NewActivityNotFoundError(id)
	}
	return a, nil
}

// Create はアクティビティを作成する。作成者は creatorID になる。
func (s *Service) Create(ctx context.Context, creatorID string, in CreateInput) (*model.Activity, error) {
	capacity := in.Capacity
	if capacity <= 0 {
		capacity = model.DefaultActivityCapacity
	}

	now := time.Now().UTC()
	a := &model.Activity{
		ID:          uuid.New().String(),
		Title:       s.sanitizer.Sanitize(in.Title),
		Description: s.sanitizer.Sanitize(in.Description),
		Location:    s.sanitizer.Sanitize(in.Location),
		Date:        in.Date,
		Time:        in.Time,
		Capacity:    capacity,
		CreatedBy:   &creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("アクティビティの作成に失敗しました: %w", err)
	}

	slog.Info("activity created",
		slog.String("activity_id", a.ID),
		slog.String("user_id", creatorID),
	)
	return a, nil
}

// Update は指定されたフィールドのみを更新する。
func (s *Service) Update(ctx context.Context, id string, patch model.ActivityPatch) (*model.Activity, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Title = s.sanitizePtr(patch.Title)
	patch.Description = s.sanitizePtr(patch.Description)
	patch.Location = s.sanitizePtr(patch.Location)
	patch.Apply(a)
	a.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("アクティビティの更新に失敗しました: %w", err)
	}

	slog.Info("activity updated", slog.String("activity_id", id))
	return a, nil
}

// Delete はアクティビティを削除する。関連する予約もCASCADE削除される。
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("アクティビティの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewActivityNotFoundError(id)
	}

	slog.Info("activity deleted", slog.String("activity_id", id))
	return nil
}

func (s *Service) sanitizePtr(v *string) *string {
	if v == nil {
		return nil
	}
	clean := s.sanitizer.Sanitize(*v)
	return &clean
}
