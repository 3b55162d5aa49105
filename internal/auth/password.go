package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptは先頭72バイトしか使わないため、それを超えるパスワードは拒否する。
const maxPasswordBytes = 72

var (
	// ErrMalformedDigest は保存済みダイジェストがbcrypt形式として解釈できない場合のエラー。
	ErrMalformedDigest = errors.New("malformed password digest")
	// ErrEmptyPassword は空のパスワードをハッシュ化しようとした場合のエラー。
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrPasswordTooLong はパスワードが72バイトを超える場合のエラー。
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// PasswordHasher はパスワードの一方向ハッシュ化と照合を行うインターフェース。
type PasswordHasher interface {
	// Hash は平文パスワードからソルト付きダイジェストを生成する。
	Hash(plaintext string) (string, error)
	// Verify は平文とダイジェストを照合する。
	// 不一致の場合は (false, nil) を返し、エラーはダイジェスト自体が不正な場合のみ返す。
	Verify(plaintext, digest string) (bool, error)
}

// BcryptHasher はbcryptによるPasswordHasher実装。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher はBcryptHasherを生成する。
// costが範囲外の場合はbcrypt.DefaultCostを使用する。
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash は平文パスワードからbcryptダイジェストを生成する。
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if len(plaintext) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify は平文とbcryptダイジェストを照合する。
func (h *BcryptHasher) Verify(plaintext, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", ErrMalformedDigest, err)
}

// compile-time interface check
var _ PasswordHasher = (*BcryptHasher)(nil)
