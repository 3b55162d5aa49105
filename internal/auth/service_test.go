package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/meetx/internal/metrics"
	"github.com/hitoshi/meetx/internal/model"
	"github.com/hitoshi/meetx/internal/repository"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn    func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
	createFn      func(ctx context.Context, user *model.User) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

type mockHasher struct {
	verifyCalls int
	verifyFn    func(plaintext, digest string) (bool, error)
}

func (m *mockHasher) Hash(plaintext string) (string, error) {
	return "digest:" + plaintext, nil
}

func (m *mockHasher) Verify(plaintext, digest string) (bool, error) {
	m.verifyCalls++
	if m.verifyFn != nil {
		return m.verifyFn(plaintext, digest)
	}
	return digest == "digest:"+plaintext, nil
}

type stubTokens struct{}

func (stubTokens) Issue(userID string) (string, time.Time, error) {
	return "token-for-" + userID, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

// recordingCollector はログイン結果のみ記録するメトリクスのスタブ。
type recordingCollector struct {
	metrics.NopCollector
	logins []string
}

func (r *recordingCollector) RecordLogin(result string) { r.logins = append(r.logins, result) }

// --- テスト ---

func TestService_Register_NormalizesEmailAndIssuesToken(t *testing.T) {
	var created *model.User
	repo := &mockUserRepo{
		createFn: func(_ context.Context, user *model.User) error {
			created = user
			return nil
		},
	}
	svc := NewService(repo, &mockHasher{}, stubTokens{}, nil)

	session, err := svc.Register(context.Background(), RegisterInput{
		Name: " Ann ", Email: "  Ann@Example.COM ", Phone: "5551234567", Password: "secret12",
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, "ann@example.com", created.Email)
	assert.Equal(t, "Ann", created.Name)
	assert.Equal(t, "digest:secret12", created.PasswordHash)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "token-for-"+created.ID, session.Token)
	assert.Same(t, created, session.User)
}

func TestService_Register_EmailTakenByPreCheck(t *testing.T) {
	repo := &mockUserRepo{
		findByEmailFn: func(_ context.Context, email string) (*model.User, error) {
			return &model.User{ID: "existing", Email: email}, nil
		},
		createFn: func(context.Context, *model.User) error {
			t.Fatal("Create should not be called")
			return nil
		},
	}
	svc := NewService(repo, &mockHasher{}, stubTokens{}, nil)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "ann@example.com", Password: "secret12"})

	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, model.ErrCodeEmailTaken, apiErr.Code)
}

// 事前確認をすり抜けた同時登録は一意制約エラーから EMAIL_TAKEN になる
func TestService_Register_EmailTakenByConstraint(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(context.Context, *model.User) error {
			return repository.ErrDuplicateEmail
		},
	}
	svc := NewService(repo, &mockHasher{}, stubTokens{}, nil)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "ann@example.com", Password: "secret12"})

	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, model.ErrCodeEmailTaken, apiErr.Code)
}

func TestService_Register_RepositoryFailureIsInternal(t *testing.T) {
	repo := &mockUserRepo{
		findByEmailFn: func(context.Context, string) (*model.User, error) {
			return nil, errors.New("db down")
		},
	}
	svc := NewService(repo, &mockHasher{}, stubTokens{}, nil)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "ann@example.com", Password: "secret12"})

	var apiErr *model.APIError
	assert.Error(t, err)
	assert.False(t, errors.As(err, &apiErr), "internal failures must not be APIErrors")
}

func TestService_Login(t *testing.T) {
	stored := &model.User{ID: "user-1", Email: "ann@example.com", PasswordHash: "digest:secret12"}
	repo := &mockUserRepo{
		findByEmailFn: func(_ context.Context, email string) (*model.User, error) {
			if email == stored.Email {
				return stored, nil
			}
			return nil, nil
		},
	}

	t.Run("成功", func(t *testing.T) {
		collector := &recordingCollector{}
		svc := NewService(repo, &mockHasher{}, stubTokens{}, collector)

		session, err := svc.Login(context.Background(), "ANN@example.com ", "secret12")
		require.NoError(t, err)
		assert.Equal(t, "token-for-user-1", session.Token)
		assert.Equal(t, []string{"success"}, collector.logins)
	})

	t.Run("パスワード不一致と未登録メールは同じエラー", func(t *testing.T) {
		collector := &recordingCollector{}
		hasher := &mockHasher{}
		svc := NewService(repo, hasher, stubTokens{}, collector)

		_, wrongPassword := svc.Login(context.Background(), "ann@example.com", "wrong123")
		_, unknownEmail := svc.Login(context.Background(), "nobody@example.com", "secret12")

		var a, b *model.APIError
		require.ErrorAs(t, wrongPassword, &a)
		require.ErrorAs(t, unknownEmail, &b)
		assert.Equal(t, model.ErrCodeInvalidCredentials, a.Code)
		assert.Equal(t, a.Code, b.Code)
		assert.Equal(t, "Invalid email or password", a.Message)
		assert.Equal(t, a.Message, b.Message)
		assert.Equal(t, []string{"failure", "failure"}, collector.logins)

		// 未登録メールでもパスワード照合が行われる
		assert.Equal(t, 2, hasher.verifyCalls)
	})

	t.Run("ダイジェスト破損は内部エラー", func(t *testing.T) {
		hasher := &mockHasher{verifyFn: func(string, string) (bool, error) {
			return false, ErrMalformedDigest
		}}
		svc := NewService(repo, hasher, stubTokens{}, nil)

		_, err := svc.Login(context.Background(), "ann@example.com", "secret12")
		assert.ErrorIs(t, err, ErrMalformedDigest)
	})
}

// 実際のbcryptとトークンを使った登録からログインまでの流れ
func TestService_RegisterThenLogin_RealCrypto(t *testing.T) {
	users := map[string]*model.User{}
	repo := &mockUserRepo{
		findByEmailFn: func(_ context.Context, email string) (*model.User, error) {
			return users[email], nil
		},
		createFn: func(_ context.Context, user *model.User) error {
			users[user.Email] = user
			return nil
		},
	}
	issuer, err := NewTokenIssuer(TokenConfig{Secret: []byte("k"), Issuer: "meetx"})
	require.NoError(t, err)
	svc := NewService(repo, NewBcryptHasher(bcrypt.MinCost), issuer, nil)

	registered, err := svc.Register(context.Background(), RegisterInput{
		Name: "Ann", Email: "ann@example.com", Phone: "5551234567", Password: "secret12",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "secret12", registered.User.PasswordHash)

	session, err := svc.Login(context.Background(), "ann@example.com", "secret12")
	require.NoError(t, err)

	userID, err := issuer.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, userID)
}
