// Package app はプロセスの起動、依存関係のワイヤリング、終了処理を担う。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/meetx/internal/activity"
	"github.com/hitoshi/meetx/internal/auth"
	"github.com/hitoshi/meetx/internal/booking"
	"github.com/hitoshi/meetx/internal/config"
	"github.com/hitoshi/meetx/internal/database"
	"github.com/hitoshi/meetx/internal/events"
	"github.com/hitoshi/meetx/internal/handler"
	"github.com/hitoshi/meetx/internal/logger"
	"github.com/hitoshi/meetx/internal/metrics"
	"github.com/hitoshi/meetx/internal/repository"
	"github.com/hitoshi/meetx/internal/security"
	"github.com/hitoshi/meetx/internal/user"
)

const (
	defaultPort     = "5000"
	shutdownTimeout = 30 * time.Second
	dbPingTimeout   = 5 * time.Second
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップしてから環境変数を読み込み、ログレベルを反映する。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	level := new(slog.LevelVar)
	logger.SetupDefault(w, level)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	level.Set(cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = defaultPort
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.Bool("events_enabled", cfg.EventsEnabled()),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg)
	}
}

// server はワイヤリング済みのHTTPハンドラーと、終了時に閉じる資源をまとめたもの。
type server struct {
	handler   http.Handler
	publisher events.Publisher
}

// wire はリポジトリ、ドメインサービス、ルーターを組み立てる。
// DBへの問い合わせは行わないため、接続前のdbでも呼び出せる。
func wire(cfg *config.Config, db *sql.DB, reg *prometheus.Registry) (*server, error) {
	collector := metrics.NewCollector(reg)

	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	activityRepo := repository.NewPostgresActivityRepo(db)
	bookingRepo := repository.NewPostgresBookingRepo(db)

	// 2. 認証部品の初期化（署名鍵は設定から明示的に渡す）
	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		TTL:    cfg.JWTExpiresIn,
		Issuer: cfg.JWTIssuer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)

	// 3. イベント送信
	publisher := newPublisher(cfg, collector)

	// 4. ドメインサービスの初期化
	authService := auth.NewService(userRepo, hasher, tokens, collector)
	userService := user.NewService(userRepo)
	activityService := activity.NewService(activityRepo, security.NewTextSanitizer())
	ledger := booking.NewLedger(bookingRepo, activityRepo, publisher, collector)

	// 5. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		TokenVerifier:     tokens,
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(reg),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		HealthChecker:     db,
		AuthService:       authService,
		UserService:       userService,
		ActivityService:   activityService,
		BookingService:    ledger,
	})

	return &server{handler: router, publisher: publisher}, nil
}

// newPublisher はブローカー設定があればKafka、なければ破棄用のPublisherを返す。
// Kafkaへの配送失敗はログとメトリクスに記録する。
func newPublisher(cfg *config.Config, collector metrics.MetricsCollector) events.Publisher {
	if !cfg.EventsEnabled() {
		slog.Info("booking events disabled: KAFKA_BROKERS is not set")
		return events.NopPublisher{}
	}
	slog.Info("booking events enabled",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.String("topic", cfg.BookingEventsTopic),
	)
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.BookingEventsTopic,
		func(eventType, bookingID string, err error) {
			collector.RecordEventPublishFailure(eventType)
			slog.Warn("failed to deliver booking event",
				slog.String("type", eventType),
				slog.String("booking_id", bookingID),
				slog.String("error", err.Error()),
			)
		},
	)
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pingCtx, cancelPing := context.WithTimeout(ctx, dbPingTimeout)
	err = db.PingContext(pingCtx)
	cancelPing()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	// 2. ワイヤリング
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "meetx"),
	)
	srv, err := wire(cfg, db, reg)
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.publisher.Close(); err != nil {
			slog.Error("failed to close event publisher", slog.String("error", err.Error()))
		}
	}()

	// 3. HTTPサーバーの起動
	httpServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードを伏せる。
// 解析できない場合は全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
