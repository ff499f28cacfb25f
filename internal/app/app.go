// Package app はサブコマンドの解析と依存関係のワイヤリングを行う。
package app

import (
	"context"
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

	"github.com/hitoshi/empdesk/internal/account"
	"github.com/hitoshi/empdesk/internal/config"
	"github.com/hitoshi/empdesk/internal/credential"
	"github.com/hitoshi/empdesk/internal/database"
	"github.com/hitoshi/empdesk/internal/employee"
	"github.com/hitoshi/empdesk/internal/handler"
	"github.com/hitoshi/empdesk/internal/logger"
	"github.com/hitoshi/empdesk/internal/metrics"
	"github.com/hitoshi/empdesk/internal/middleware"
	"github.com/hitoshi/empdesk/internal/repository"
	"github.com/hitoshi/empdesk/internal/session"
	"github.com/hitoshi/empdesk/internal/worker/cleanup"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// shutdownTimeout はグレースフルシャットダウンで処理中のリクエストを待つ上限時間。
const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再構成する
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		return runHealthcheck(healthcheckPort())
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandProvision:
		return runProvision(cfg)
	default:
		return runServe(cfg)
	}
}

// application はserveモードで組み立てた依存関係一式を保持する。
type application struct {
	db          *database.DB
	handler     http.Handler
	sessions    *session.Registry
	rateLimiter *middleware.RateLimiter
}

// Close は保持しているリソースを解放する。
func (a *application) Close() {
	a.rateLimiter.Stop()
	a.db.Close()
}

// newApplication はDB接続からルーター構築までを行う。
// 起動手順: 接続 → 疎通確認 → マイグレーション → サンプル投入 → 管理者プロビジョニング → ワイヤリング。
func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	// 1. DB接続
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	// 2. マイグレーション
	if err := database.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	// 3. リポジトリとドメインサービスの初期化
	employeeRepo := repository.NewSQLEmployeeRepo(db)
	userRepo := repository.NewSQLUserRepo(db)

	employeeService := employee.NewService(employeeRepo)

	sessions := session.NewRegistry(cfg.SessionTTL)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)
	collector.WatchActiveSessions(sessions.Len)

	accountService := account.NewService(
		userRepo,
		credential.NewHasher(cfg.PasswordHashRounds),
		sessions,
		collector,
	)

	// 4. 初回起動時のデータ投入
	if cfg.SeedSampleData {
		n, err := employeeService.SeedSamples(ctx)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to seed sample employees: %w", err)
		}
		if n > 0 {
			slog.Info("sample employees inserted", slog.Int("count", n))
		}
	}

	if cfg.HasAdminCredentials() {
		if _, err := accountService.ProvisionAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to provision admin user: %w", err)
		}
	}

	// 5. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitAuth))

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:             slog.Default(),
		CORSAllowedOrigin:  cfg.CORSAllowedOrigin,
		RateLimiter:        rateLimiter,
		Metrics:            collector,
		Gatherer:           reg,
		HealthChecker:      db,
		EmployeeService:    employeeService,
		AccountService:     accountService,
		ExposeErrorDetails: cfg.ExposeErrorDetails,
	})

	return &application{
		db:          db,
		handler:     router,
		sessions:    sessions,
		rateLimiter: rateLimiter,
	}, nil
}

// runServe はAPIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	// 期限切れセッションの定期削除（設定時のみ）
	if cfg.SessionSweepInterval > 0 {
		job := cleanup.NewSessionSweepJob(app.sessions, slog.Default())
		go job.Start(ctx, cfg.SessionSweepInterval)
	}

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      app.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("running database migrations",
		slog.String("dialect", string(db.Dialect)),
	)

	if err := database.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runProvision はマイグレーションを適用したうえで管理者ユーザーを作成する。
// ユーザーが既に存在する場合は何もしない。
func runProvision(cfg *config.Config) error {
	if !cfg.HasAdminCredentials() {
		return errors.New("provision requires ADMIN_USERNAME, ADMIN_EMAIL and ADMIN_PASSWORD")
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	accountService := account.NewService(
		repository.NewSQLUserRepo(db),
		credential.NewHasher(cfg.PasswordHashRounds),
		session.NewRegistry(cfg.SessionTTL),
		nil,
	)

	created, err := accountService.ProvisionAdmin(context.Background(), cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to provision admin user: %w", err)
	}
	if !created {
		slog.Info("users already exist, skipping admin provisioning")
	}
	return nil
}

// openDatabase はDB接続を開き、疎通確認まで行う。
func openDatabase(cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established",
		slog.String("dialect", string(db.Dialect)),
	)
	return db, nil
}

// healthcheckPort はヘルスチェック先のポートを環境変数から決める。
// configの読み込みを避けるため、SERVER_PORTとPORTを直接参照する。
func healthcheckPort() string {
	for _, key := range []string{"SERVER_PORT", "PORT"} {
		if port := os.Getenv(key); port != "" {
			return port
		}
	}
	return "8000"
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	endpoint := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
// SQLiteのファイルパスのように認証情報を含まない値はそのまま返す。
func maskDatabaseURL(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "***"
	}
	if u.User == nil {
		return databaseURL
	}
	return u.Redacted()
}
