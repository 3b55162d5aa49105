// Package memory はリポジトリインターフェースのインメモリ実装を提供する。
// PostgreSQLと同じ一意制約・外部キー・CASCADE削除を再現し、サービス層とHTTP層のテストで使う。
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/meetx/internal/model"
	"github.com/hitoshi/meetx/internal/repository"
)

// Store は全リポジトリが共有するインメモリのデータストア。
// 書き込みはmuで直列化され、一意制約の確認と挿入は不可分に行われる。
type Store struct {
	mu         sync.Mutex
	users      map[string]model.User
	activities map[string]model.Activity
	bookings   map[string]model.Booking
}

// NewStore は空のStoreを生成する。
func NewStore() *Store {
	return &Store{
		users:      make(map[string]model.User),
		activities: make(map[string]model.Activity),
		bookings:   make(map[string]model.Booking),
	}
}

// Users はユーザーリポジトリを返す。
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Activities はアクティビティリポジトリを返す。
func (s *Store) Activities() *ActivityRepo { return &ActivityRepo{s: s} }

// Bookings は予約リポジトリを返す。
func (s *Store) Bookings() *BookingRepo { return &BookingRepo{s: s} }

// DeleteUser はユーザーを削除し、その予約をCASCADE削除する。
func (s *Store) DeleteUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	for bid, b := range s.bookings {
		if b.UserID == id {
			delete(s.bookings, bid)
		}
	}
}

// UserRepo はインメモリのユーザーリポジトリ。
type UserRepo struct{ s *Store }

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *UserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *UserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

// Create はユーザーを作成する。
func (r *UserRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

// ActivityRepo はインメモリのアクティビティリポジトリ。
type ActivityRepo struct{ s *Store }

// FindByID は指定IDのアクティビティを取得する。見つからない場合はnilを返す。
func (r *ActivityRepo) FindByID(_ context.Context, id string) (*model.Activity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.activities[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// List は全アクティビティを日付・時刻の昇順で返す。
func (r *ActivityRepo) List(_ context.Context) ([]*model.Activity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*model.Activity, 0, len(r.s.activities))
	for _, a := range r.s.activities {
		out = append(out, &a)
	}
	slices.SortFunc(out, func(a, b *model.Activity) int {
		if c := strings.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		if c := strings.Compare(a.Time, b.Time); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

// Create はアクティビティを作成する。
func (r *ActivityRepo) Create(_ context.Context, a *model.Activity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.activities[a.ID] = *a
	return nil
}

// Update はアクティビティを上書き更新する。
func (r *ActivityRepo) Update(_ context.Context, a *model.Activity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.activities[a.ID]; ok {
		r.s.activities[a.ID] = *a
	}
	return nil
}

// Delete はアクティビティを削除し、関連する予約をCASCADE削除する。
func (r *ActivityRepo) Delete(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.activities[id]; !ok {
		return false, nil
	}
	delete(r.s.activities, id)
	for bid, b := range r.s.bookings {
		if b.ActivityID == id {
			delete(r.s.bookings, bid)
		}
	}
	return true, nil
}

// BookingRepo はインメモリの予約リポジトリ。
type BookingRepo struct{ s *Store }

// FindByID は指定IDの予約を取得する。見つからない場合はnilを返す。
func (r *BookingRepo) FindByID(_ context.Context, id string) (*model.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

// FindByUserAndActivity はユーザーIDとアクティビティIDで予約を検索する。
func (r *BookingRepo) FindByUserAndActivity(_ context.Context, userID, activityID string) (*model.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.UserID == userID && b.ActivityID == activityID {
			return &b, nil
		}
	}
	return nil, nil
}

// Create は予約を作成する。一意制約と外部キーを確認する。
func (r *BookingRepo) Create(_ context.Context, booking *model.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.activities[booking.ActivityID]; !ok {
		return repository.ErrActivityMissing
	}
	for _, b := range r.s.bookings {
		if b.UserID == booking.UserID && b.ActivityID == booking.ActivityID {
			return repository.ErrDuplicateBooking
		}
	}
	r.s.bookings[booking.ID] = *booking
	return nil
}

// ListByUserIDWithActivity はユーザーの予約一覧を作成日時の降順で返す。
func (r *BookingRepo) ListByUserIDWithActivity(_ context.Context, userID string) ([]model.BookingWithActivity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.BookingWithActivity
	for _, b := range r.s.bookings {
		if b.UserID != userID {
			continue
		}
		a := r.s.activities[b.ActivityID]
		out = append(out, model.BookingWithActivity{
			Booking: b,
			Activity: model.ActivitySummary{
				ID: a.ID, Title: a.Title, Description: a.Description,
				Location: a.Location, Date: a.Date, Time: a.Time,
			},
		})
	}
	slices.SortFunc(out, func(a, b model.BookingWithActivity) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

// UpdateStatus は予約の状態を更新する。対象が存在しない場合はnilを返す。
func (r *BookingRepo) UpdateStatus(_ context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, nil
	}
	b.Status = status
	b.UpdatedAt = time.Now().UTC()
	r.s.bookings[id] = b
	return &b, nil
}

// Delete は予約を削除する。
func (r *BookingRepo) Delete(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.bookings[id]; !ok {
		return false, nil
	}
	delete(r.s.bookings, id)
	return true, nil
}

// compile-time interface check
var (
	_ repository.UserRepository     = (*UserRepo)(nil)
	_ repository.ActivityRepository = (*ActivityRepo)(nil)
	_ repository.BookingRepository  = (*BookingRepo)(nil)
)
