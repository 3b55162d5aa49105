package model

import "time"

// BookingStatus は予約の状態を表す。
type BookingStatus string

const (
	// BookingStatusPending は仮予約。
	BookingStatusPending BookingStatus = "pending"
	// BookingStatusConfirmed は確定済み。予約作成時の初期状態。
	BookingStatusConfirmed BookingStatus = "confirmed"
	// BookingStatusCancelled はキャンセル済み。
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Valid は s が定義済みの状態かどうかを返す。
// 状態間の遷移制約は設けない。
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

// Booking はユーザーとアクティビティの予約関係を表す。
// (UserID, ActivityID) の組はストレージ上で一意。
type Booking struct {
	ID         string
	UserID     string
	ActivityID string
	Status     BookingStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BookingWithActivity は予約一覧表示用に、予約とアクティビティの表示項目を結合したモデル。
type BookingWithActivity struct {
	Booking
	Activity ActivitySummary
}

// ActivitySummary はアクティビティの表示用サブセット。
type ActivitySummary struct {
	ID          string
	Title       string
	Description string
	Location    string
	Date        string
	Time        string
}
