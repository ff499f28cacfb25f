// Package dbtest はテスト用のマイグレーション済みデータベースを提供する。
package dbtest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hitoshi/empdesk/internal/database"
)

// NewSQLite はt.TempDir()上にSQLiteファイルを作成し、マイグレーションを適用して返す。
// テスト終了時に自動でクローズされる。
func NewSQLite(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("データベースのオープンに失敗: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Ping(); err != nil {
		t.Fatalf("データベースへの接続に失敗: %v", err)
	}

	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("マイグレーション実行に失敗: %v", err)
	}

	return db
}

// NewPostgres はTEST_DATABASE_URLで指定されたPostgreSQLに接続し、
// 既存テーブルを削除してからマイグレーションを適用して返す。
// TEST_DATABASE_URLが未設定または接続できない場合はテストをスキップする。
func NewPostgres(t *testing.T) *database.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL が未設定のためスキップ")
	}

	db, err := database.Open(url)
	if err != nil {
		t.Fatalf("データベースのオープンに失敗: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Ping(); err != nil {
		t.Skipf("テスト用データベースに接続できません（スキップ）: %v", err)
	}

	cleanupSQL := `
		DROP TABLE IF EXISTS users CASCADE;
		DROP SEQUENCE IF EXISTS user_id_seq CASCADE;
		DROP TABLE IF EXISTS employees CASCADE;
		DROP TABLE IF EXISTS schema_migrations CASCADE;
	`
	if _, err := db.Exec(cleanupSQL); err != nil {
		t.Fatalf("クリーンアップに失敗: %v", err)
	}

	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("マイグレーション実行に失敗: %v", err)
	}

	return db
}
