// Package events は予約ライフサイクルイベントの外部送信を提供する。
package events

import (
	"context"
	"time"
)

// イベント種別
const (
	TypeBookingCreated       = "booking.created"
	TypeBookingStatusChanged = "booking.status_changed"
	TypeBookingDeleted       = "booking.deleted"
)

// BookingEvent は予約の状態変化を表すイベント。
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"bookingId"`
	UserID     string    `json:"userId"`
	ActivityID string    `json:"activityId"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher は予約イベントの送信インターフェース。
type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
	Close() error
}

// NopPublisher はイベントを破棄するPublisher。ブローカー未設定時に使う。
type NopPublisher struct{}

// Publish は何もしない。
func (NopPublisher) Publish(context.Context, BookingEvent) error { return nil }

// Close は何もしない。
func (NopPublisher) Close() error { return nil }

// compile-time interface check
var _ Publisher = NopPublisher{}
