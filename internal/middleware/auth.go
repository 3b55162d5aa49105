// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/meetx/internal/auth"
	"github.com/hitoshi/meetx/internal/metrics"
	"github.com/hitoshi/meetx/internal/model"
)

const bearerScheme = "bearer"

// reasonMissing はAuthorizationヘッダーにトークンがない場合の拒否理由。
const reasonMissing = "missing"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// TokenVerifier はセッショントークンの検証に必要なインターフェース。
// auth.TokenIssuerの部分集合として定義する。
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証するミドルウェアを返す。
// 検証に成功したユーザーIDをリクエストコンテキストに注入する。
// 欠落・改ざん・期限切れのいずれも同じ401レスポンスになり、理由はログとメトリクスにのみ残る。
func NewAuthMiddleware(verifier TokenVerifier, collector metrics.MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				reject(w, r, collector, reasonMissing)
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				reject(w, r, collector, auth.FailureReason(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}

// bearerToken は "Bearer <token>" 形式のヘッダー値からトークンを取り出す。
// スキーム名の大文字小文字は区別しない。
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// reject は認証失敗を記録して401を返す。トークン本体はログに出さない。
func reject(w http.ResponseWriter, r *http.Request, collector metrics.MetricsCollector, reason string) {
	slog.Warn("request rejected by auth guard",
		slog.String("reason", reason),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
	collector.RecordAuthRejection(reason)
	WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// ロギングミドルウェアの内側で呼ばれた場合はアクセスログにもユーザーIDを残す。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if entry, ok := ctx.Value(accessLogContextKey).(*accessLogEntry); ok {
		entry.userID = userID
	}
	return context.WithValue(ctx, userIDContextKey, userID)
}
