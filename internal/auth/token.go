package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL はトークン有効期間の既定値。
const DefaultTokenTTL = time.Hour

// トークン検証失敗の種別。errors.Is で判別する。
var (
	// ErrMalformedToken は構造・エンコード・クレームが不正なトークン。
	ErrMalformedToken = errors.New("malformed token")
	// ErrTamperedToken は署名が一致しないトークン。
	ErrTamperedToken = errors.New("token signature mismatch")
	// ErrExpiredToken は有効期限を過ぎたトークン。
	ErrExpiredToken = errors.New("token expired")
)

// ErrEmptySecret は署名鍵が空の場合のエラー。
var ErrEmptySecret = errors.New("token signing secret must not be empty")

// Claims はトークンに格納するクレーム。ユーザーIDは id クレームに入る。
type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenConfig はTokenIssuerの設定。
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
}

// TokenOption はTokenIssuerの任意設定。
type TokenOption func(*TokenIssuer)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) TokenOption {
	return func(t *TokenIssuer) {
		t.now = now
	}
}

// TokenIssuer はHS256署名付きの期限付きセッショントークンを発行・検証する。
// 状態を持たないため複数goroutineから同時に利用できる。
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenIssuer はTokenIssuerを生成する。
// TTLが0以下の場合はDefaultTokenTTLを使用する。
func NewTokenIssuer(cfg TokenConfig, opts ...TokenOption) (*TokenIssuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrEmptySecret
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTokenTTL
	}

	t := &TokenIssuer{
		secret: cfg.Secret,
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
		// 署名の余りビットが異なる別表記を受け付けない
		jwt.WithStrictDecoding(),
		// jwt は now == exp を期限切れとするため1秒猶予し、境界はVerifyで判定する
		jwt.WithLeeway(time.Second),
	}
	if cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.Issuer))
	}
	t.parser = jwt.NewParser(parserOpts...)

	return t, nil
}

// TTL はトークンの有効期間を返す。
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue はユーザーIDを格納したトークンを発行し、その有効期限とともに返す。
func (t *TokenIssuer) Issue(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, fmt.Errorf("user ID is required")
	}

	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := Claims{
		ID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify はトークンを検証し、格納されたユーザーIDを返す。
// 署名は有効期限より先に検証されるため、改ざんされた期限切れトークンは ErrTamperedToken になる。
func (t *TokenIssuer) Verify(token string) (string, error) {
	claims := &Claims{}
	_, err := t.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), t.signatureUndecodable(token):
			return "", fmt.Errorf("%w: %v", ErrTamperedToken, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", fmt.Errorf("%w: %v", ErrExpiredToken, err)
		default:
			return "", fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	}

	if t.now().After(claims.ExpiresAt.Time) {
		return "", fmt.Errorf("%w: expired at %s", ErrExpiredToken, claims.ExpiresAt.Time.Format(time.RFC3339))
	}
	if claims.ID == "" {
		return "", fmt.Errorf("%w: missing id claim", ErrMalformedToken)
	}
	return claims.ID, nil
}

// signatureUndecodable はヘッダとクレームは正しく復号でき、署名部だけが復号できないかを返す。
// 署名部の書き換えは改ざんとして扱う。
func (t *TokenIssuer) signatureUndecodable(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, seg := range parts[:2] {
		if _, err := t.parser.DecodeSegment(seg); err != nil {
			return false
		}
	}
	_, err := t.parser.DecodeSegment(parts[2])
	return err != nil
}

// FailureReason は検証エラーをメトリクスやログ用の理由ラベルに変換する。
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrExpiredToken):
		return "expired"
	case errors.Is(err, ErrTamperedToken):
		return "tampered"
	default:
		return "malformed"
	}
}
