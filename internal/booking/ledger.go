// Package booking は予約台帳のドメインロジックを提供する。
//
// (ユーザー, アクティビティ) の組につき予約は1件までとし、その保証はストレージの一意制約が担う。
// 作成前の重複確認は不要な書き込みを避けるためだけのもので、正しさは制約に依存する。
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/meetx/internal/events"
	"github.com/hitoshi/meetx/internal/metrics"
	"github.com/hitoshi/meetx/internal/model"
	"github.com/hitoshi/meetx/internal/repository"
)

// publishTimeout はイベント送信1件あたりの待ち時間の上限。
const publishTimeout = 3 * time.Second

// Ledger は予約の作成・参照・状態変更・削除を行うサービス層。
// 作成以外の操作はすべて呼び出しユーザーが予約の所有者であることを要求する。
type Ledger struct {
	bookings   repository.BookingRepository
	activities repository.ActivityRepository
	publisher  events.Publisher
	metrics    metrics.MetricsCollector
	now        func() time.Time
}

// NewLedger はLedgerを生成する。publisher、collectorがnilの場合は何も送信・記録しない。
func NewLedger(
	bookings repository.BookingRepository,
	activities repository.ActivityRepository,
	publisher events.Publisher,
	collector metrics.MetricsCollector,
) *Ledger {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Ledger{
		bookings:   bookings,
		activities: activities,
		publisher:  publisher,
		metrics:    collector,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create はユーザーのアクティビティ予約を作成する。初期状態は confirmed。
// アクティビティが存在しない場合は ACTIVITY_NOT_FOUND、既に予約がある場合は DUPLICATE_BOOKING を返す。
func (l *Ledger) Create(ctx context.Context, userID, activityID string) (*model.Booking, error) {
	activity, err := l.activities.FindByID(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("アクティビティの取得に失敗しました: %w", err)
	}
	if activity == nil {
		return nil, model.NewActivityNotFoundError(activityID)
	}

	existing, err := l.bookings.FindByUserAndActivity(ctx, userID, activityID)
	if err != nil {
		return nil, fmt.Errorf("既存予約の確認に失敗しました: %w", err)
	}
	if existing != nil {
		l.metrics.RecordBookingConflict()
		return nil, model.NewDuplicateBookingError()
	}

	now := l.now()
	b := &model.Booking{
		ID:         uuid.New().String(),
		UserID:     userID,
		ActivityID: activityID,
		Status:     model.BookingStatusConfirmed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := l.bookings.Create(ctx, b); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateBooking):
			l.metrics.RecordBookingConflict()
			return nil, model.NewDuplicateBookingError()
		case errors.Is(err, repository.ErrActivityMissing):
			return nil, model.NewActivityNotFoundError(activityID)
		}
		return nil, fmt.Errorf("予約の作成に失敗しました: %w", err)
	}

	l.metrics.RecordBookingCreated()
	slog.Info("booking created",
		slog.String("booking_id", b.ID),
		slog.String("user_id", userID),
		slog.String("activity_id", activityID),
	)
	l.publish(ctx, events.TypeBookingCreated, b)

	return b, nil
}

// ListForUser はユーザーの予約一覧をアクティビティの表示項目付きで新しい順に返す。
func (l *Ledger) ListForUser(ctx context.Context, userID string) ([]model.BookingWithActivity, error) {
	rows, err := l.bookings.ListByUserIDWithActivity(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}
	if rows == nil {
		rows = []model.BookingWithActivity{}
	}
	return rows, nil
}

// GetByID は呼び出しユーザーが所有する予約をアクティビティの表示項目付きで返す。
func (l *Ledger) GetByID(ctx context.Context, callerID, bookingID string) (*model.BookingWithActivity, error) {
	b, err := l.owned(ctx, callerID, bookingID)
	if err != nil {
		return nil, err
	}
	return l.withActivity(ctx, b)
}

// UpdateStatus は予約の状態を変更する。
// 状態間の遷移制約はなく、定義済みの3状態であればどの状態からでも設定できる。
func (l *Ledger) UpdateStatus(ctx context.Context, callerID, bookingID string, status model.BookingStatus) (*model.BookingWithActivity, error) {
	if !status.Valid() {
		return nil, model.NewValidationError(map[string]string{
			"status": "must be one of pending, confirmed, cancelled",
		})
	}

	if _, err := l.owned(ctx, callerID, bookingID); err != nil {
		return nil, err
	}

	updated, err := l.bookings.UpdateStatus(ctx, bookingID, status)
	if err != nil {
		return nil, fmt.Errorf("予約状態の更新に失敗しました: %w", err)
	}
	if updated == nil {
		// 所有者確認の後に削除された
		return nil, model.NewBookingNotFoundError(bookingID)
	}

	l.metrics.RecordBookingStatusChange(string(status))
	slog.Info("booking status changed",
		slog.String("booking_id", bookingID),
		slog.String("status", string(status)),
	)
	l.publish(ctx, events.TypeBookingStatusChanged, updated)

	return l.withActivity(ctx, updated)
}

// Delete は予約を削除する。
func (l *Ledger) Delete(ctx context.Context, callerID, bookingID string) error {
	b, err := l.owned(ctx, callerID, bookingID)
	if err != nil {
		return err
	}

	deleted, err := l.bookings.Delete(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("予約の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewBookingNotFoundError(bookingID)
	}

	slog.Info("booking deleted", slog.String("booking_id", bookingID))
	l.publish(ctx, events.TypeBookingDeleted, b)

	return nil
}

// owned は予約を取得し、呼び出しユーザーの所有であることを確認する。
// 存在確認を所有者確認より先に行うため、他人の予約は BOOKING_NOT_FOUND ではなく FORBIDDEN になる。
func (l *Ledger) owned(ctx context.Context, callerID, bookingID string) (*model.Booking, error) {
	b, err := l.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("予約の取得に失敗しました: %w", err)
	}
	if b == nil {
		return nil, model.NewBookingNotFoundError(bookingID)
	}
	if b.UserID != callerID {
		slog.Warn("booking access denied",
			slog.String("booking_id", bookingID),
			slog.String("caller_id", callerID),
		)
		return nil, model.NewForbiddenError()
	}
	return b, nil
}

func (l *Ledger) withActivity(ctx context.Context, b *model.Booking) (*model.BookingWithActivity, error) {
	a, err := l.activities.FindByID(ctx, b.ActivityID)
	if err != nil {
		return nil, fmt.Errorf("アクティビティの取得に失敗しました: %w", err)
	}
	if a == nil {
		// アクティビティ削除時は予約もCASCADE削除される
		return nil, model.NewBookingNotFoundError(b.ID)
	}
	return &model.BookingWithActivity{
		Booking: *b,
		Activity: model.ActivitySummary{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			Location:    a.Location,
			Date:        a.Date,
			Time:        a.Time,
		},
	}, nil
}

// publish はイベントを送信する。失敗してもリクエストは失敗させず、ログとメトリクスに残す。
func (l *Ledger) publish(ctx context.Context, eventType string, b *model.Booking) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := l.publisher.Publish(ctx, events.BookingEvent{
		Type:       eventType,
		BookingID:  b.ID,
		UserID:     b.UserID,
		ActivityID: b.ActivityID,
		Status:     string(b.Status),
		OccurredAt: l.now(),
	})
	if err != nil {
		l.metrics.RecordEventPublishFailure(eventType)
		slog.Warn("failed to publish booking event",
			slog.String("type", eventType),
			slog.String("booking_id", b.ID),
			slog.String("error", err.Error()),
		)
	}
}
