package app

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/enrique7mc/MvcCms/internal/auth"
	"github.com/enrique7mc/MvcCms/internal/config"
	"github.com/enrique7mc/MvcCms/internal/database"
	"github.com/enrique7mc/MvcCms/internal/handler"
	"github.com/enrique7mc/MvcCms/internal/logger"
	"github.com/enrique7mc/MvcCms/internal/metrics"
	"github.com/enrique7mc/MvcCms/internal/middleware"
	"github.com/enrique7mc/MvcCms/internal/post"
	"github.com/enrique7mc/MvcCms/internal/repository"
	"github.com/enrique7mc/MvcCms/internal/security"
	"github.com/enrique7mc/MvcCms/internal/user"
	"github.com/enrique7mc/MvcCms/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

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
			port = "8080"
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
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandAddUser:
		return runAddUser(cfg, args[1:])
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	postRepo := repository.NewPostgresPostRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. ドメインサービスの初期化
	sanitizer := security.NewContentSanitizer()

	authService := auth.NewService(
		userRepo, sessionRepo,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
		collector,
	)
	postService := post.NewService(postRepo, sanitizer, collector)

	// 5. セッションクリーンアップジョブをバックグラウンドで起動
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanupJob := cleanup.NewCleanupJob(sessionRepo, slog.Default())
	go cleanupJob.RunPeriodically(ctx, cfg.SessionCleanupInterval)

	// 6. ルーターの構築
	// configはreq/min単位なのでreq/secに変換する
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rateLimitPerSecond(cfg.RateLimitGeneral)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.MutationRate = rateLimitPerSecond(cfg.RateLimitMutation)
	rateLimiterCfg.MutationBurst = cfg.RateLimitMutation

	deps := &handler.RouterDeps{
		SessionFinder:     sessionRepo,
		UserFinder:        userRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       middleware.NewRateLimiter(rateLimiterCfg),
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},

		HealthChecker:  db,
		MetricsHandler: metrics.Handler(registry),
		HTTPMetrics:    collector,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			BaseURL:       cfg.BaseURL,
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		PostService:       postService,
		PublicPostService: postService,
		DefaultPageSize:   cfg.DefaultPageSize,
		MaxPageSize:       cfg.MaxPageSize,
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
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

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runAddUser はCLIからユーザーを作成する。
// 登録エンドポイントは公開しないため、ユーザーは運用者がこのサブコマンドで作成する。
//
//	mvccms adduser -name alice -password secret123 -roles admin,author
func runAddUser(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	name := fs.String("name", "", "ユーザー名")
	password := fs.String("password", "", "パスワード（8文字以上）")
	rolesFlag := fs.String("roles", "", "カンマ区切りのロール（admin, editor, author）")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse adduser flags: %w", err)
	}

	var roles []string
	for _, r := range strings.Split(*rolesFlag, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	userRepo := repository.NewPostgresUserRepo(db)
	userService := user.NewService(userRepo)

	created, err := userService.Create(context.Background(), *name, *password, roles)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user created",
		slog.String("user_id", created.ID),
		slog.String("name", created.Name),
		slog.Any("roles", created.Roles),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// rateLimitPerSecond はreq/min設定値をtoken bucketのreq/secレートに変換する。
func rateLimitPerSecond(perMinute int) rate.Limit {
	return rate.Limit(float64(perMinute) / 60.0)
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
