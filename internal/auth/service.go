// Package auth はパスワード認証とセッショントークンの発行・検証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/meetx/internal/metrics"
	"github.com/hitoshi/meetx/internal/model"
	"github.com/hitoshi/meetx/internal/repository"
)

// RegisterInput はユーザー登録の入力。入力検証はハンドラー層で済んでいる前提。
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// Session は登録・ログイン成功時に返すユーザーとトークン。
type Session struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// Tokens はトークン発行のインターフェース。
type Tokens interface {
	Issue(userID string) (string, time.Time, error)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	tokens   Tokens
	metrics  metrics.MetricsCollector

	// 未登録メールでのログイン時にも照合を行うためのダミーダイジェスト
	dummyOnce   sync.Once
	dummyDigest string
}

// NewService はServiceを生成する。collectorがnilの場合は記録しない。
func NewService(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	tokens Tokens,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		metrics:  collector,
	}
}

// NormalizeEmail はメールアドレスを比較用に正規化する。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register はユーザーを登録し、セッショントークンを発行する。
// 登録済みメールアドレスの場合は EMAIL_TAKEN エラーを返す。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := NormalizeEmail(in.Email)

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: digest,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 事前確認と作成の間に同じメールで登録された場合は一意制約で検出する
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", slog.String("user_id", user.ID))

	return s.issueSession(user)
}

// Login はメールアドレスとパスワードで認証し、セッショントークンを発行する。
// 未登録メールとパスワード不一致は同じ INVALID_CREDENTIALS エラーになる。
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if user == nil {
		// 応答時間で登録有無が判別されないよう、ダミーダイジェストと照合する
		_, _ = s.hasher.Verify(password, s.dummy())
		s.metrics.RecordLogin(metrics.LoginFailure)
		return nil, model.NewInvalidCredentialsError()
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password for user %s: %w", user.ID, err)
	}
	if !ok {
		s.metrics.RecordLogin(metrics.LoginFailure)
		return nil, model.NewInvalidCredentialsError()
	}

	s.metrics.RecordLogin(metrics.LoginSuccess)
	slog.Info("user logged in", slog.String("user_id", user.ID))

	return s.issueSession(user)
}

func (s *Service) issueSession(user *model.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(uuid.New().String())
		if err != nil {
			slog.Warn("failed to prepare dummy digest", slog.String("error", err.Error()))
			return
		}
		s.dummyDigest = digest
	})
	return s.dummyDigest
}
