package repository

import "testing"

// 各Postgresリポジトリがインターフェースを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
	var _ ActivityRepository = (*PostgresActivityRepo)(nil)
	var _ BookingRepository = (*PostgresBookingRepo)(nil)
}

// NewPostgresXxxRepoが正しく初期化されることを検証
func TestNewPostgresRepos_Initialize(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Fatal("expected non-nil user repo")
	}
	if NewPostgresActivityRepo(nil) == nil {
		t.Fatal("expected non-nil activity repo")
	}
	if NewPostgresBookingRepo(nil) == nil {
		t.Fatal("expected non-nil booking repo")
	}
}

// UUID形式でないIDはDBに問い合わせず未検出として扱われることを検証する。
// db が nil のため、問い合わせが発生すればパニックになる。
func TestPostgresRepos_MalformedIDIsNotFound(t *testing.T) {
	ctx := t.Context()

	user, err := NewPostgresUserRepo(nil).FindByID(ctx, "not-a-uuid")
	if err != nil || user != nil {
		t.Errorf("user FindByID = (%v, %v), want (nil, nil)", user, err)
	}

	activity, err := NewPostgresActivityRepo(nil).FindByID(ctx, "123")
	if err != nil || activity != nil {
		t.Errorf("activity FindByID = (%v, %v), want (nil, nil)", activity, err)
	}

	bookings := NewPostgresBookingRepo(nil)
	booking, err := bookings.FindByID(ctx, "../etc")
	if err != nil || booking != nil {
		t.Errorf("booking FindByID = (%v, %v), want (nil, nil)", booking, err)
	}
	deleted, err := bookings.Delete(ctx, "")
	if err != nil || deleted {
		t.Errorf("booking Delete = (%v, %v), want (false, nil)", deleted, err)
	}
}
