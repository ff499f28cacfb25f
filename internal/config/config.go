// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Server
	ServerPort        string
	CORSAllowedOrigin string

	// Session
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration // 0の場合は期限切れセッションの定期削除を行わない

	// Credential
	PasswordHashRounds int

	// Admin provisioning（3項目すべて指定された場合のみ有効）
	AdminUsername string
	AdminEmail    string
	AdminPassword string

	// Sample data
	SeedSampleData bool

	// Rate Limit
	RateLimitAuth int // /login, /register のクライアントIPごとの上限（req/min）

	// Error reporting
	ExposeErrorDetails bool

	// Logging
	LogLevel string
}

// HasAdminCredentials は管理者プロビジョニング用の認証情報が設定されているかを返す。
func (c *Config) HasAdminCredentials() bool {
	return c.AdminUsername != "" && c.AdminEmail != "" && c.AdminPassword != ""
}

// Load は環境変数からConfigを読み込む。
// 必須項目はないが、ADMIN_* が一部だけ設定されている場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = getEnvString("DB_PATH", "sample.db")
	}

	cfg.ServerPort = getEnvString("SERVER_PORT", getEnvString("PORT", "8000"))
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")
	cfg.SessionTTL = getEnvDuration("SESSION_TTL", 24*time.Hour)
	cfg.SessionSweepInterval = getEnvDuration("SESSION_SWEEP_INTERVAL", 0)
	cfg.PasswordHashRounds = getEnvInt("PASSWORD_HASH_ROUNDS", 29000)
	cfg.SeedSampleData = getEnvBool("SEED_SAMPLE_DATA", true)
	cfg.RateLimitAuth = getEnvInt("RATE_LIMIT_AUTH", 20)
	cfg.ExposeErrorDetails = getEnvBool("EXPOSE_ERROR_DETAILS", false)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	cfg.AdminUsername = strings.TrimSpace(os.Getenv("ADMIN_USERNAME"))
	cfg.AdminEmail = strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")

	var missing []string
	if cfg.AdminUsername != "" || cfg.AdminEmail != "" || cfg.AdminPassword != "" {
		if cfg.AdminUsername == "" {
			missing = append(missing, "ADMIN_USERNAME")
		}
		if cfg.AdminEmail == "" {
			missing = append(missing, "ADMIN_EMAIL")
		}
		if cfg.AdminPassword == "" {
			missing = append(missing, "ADMIN_PASSWORD")
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("admin provisioning requires all of ADMIN_USERNAME, ADMIN_EMAIL, ADMIN_PASSWORD; missing: %v", missing)
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.PasswordHashRounds <= 0 {
		cfg.PasswordHashRounds = 29000
	}
	if cfg.RateLimitAuth <= 0 {
		cfg.RateLimitAuth = 20
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
