package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/meetx/internal/metrics"
	"github.com/hitoshi/meetx/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	TokenVerifier     middleware.TokenVerifier
	Metrics           metrics.MetricsCollector
	MetricsHandler    http.Handler
	CORSAllowedOrigin string

	// ヘルスチェック
	HealthChecker Pinger

	// サービス
	AuthService     AuthServiceInterface
	UserService     UserServiceInterface
	ActivityService ActivityServiceInterface
	BookingService  BookingServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → CORS → (保護ルートのみ) Auth
//
// アクティビティの参照系とヘルスチェック、メトリクス、登録・ログインは認証不要。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.NopCollector{}
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(collector))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authMW := middleware.NewAuthMiddleware(deps.TokenVerifier, collector)

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.UserService)
	activityHandler := NewActivityHandler(deps.ActivityService)
	bookingHandler := NewBookingHandler(deps.BookingService)

	// --- 認証不要のルート ---

	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker).Health)
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.With(authMW).Get("/me", userHandler.Me)
	})

	r.Route("/api/activities", func(r chi.Router) {
		r.Get("/", activityHandler.ListActivities)
		r.Get("/{id}", activityHandler.GetActivity)

		// 作成・更新・削除は認証が必要
		r.Group(func(r chi.Router) {
			r.Use(authMW)
			r.Post("/", activityHandler.CreateActivity)
			r.Put("/{id}", activityHandler.UpdateActivity)
			r.Delete("/{id}", activityHandler.DeleteActivity)
		})
	})

	// --- 認証が必要なルート ---
	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(authMW)
		r.Post("/", bookingHandler.CreateBooking)
		r.Get("/me", bookingHandler.ListMyBookings)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", bookingHandler.GetBooking)
			r.Patch("/", bookingHandler.UpdateBookingStatus)
			r.Delete("/", bookingHandler.DeleteBooking)
		})
	})

	return r
}
