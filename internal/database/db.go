// Package database はデータベース接続とマイグレーション管理を提供する。
//
// DATABASE_URLが postgres:// または postgresql:// で始まる場合はPostgreSQL（lib/pq）、
// それ以外はSQLiteファイル（modernc.org/sqlite、cgo不要）として扱う。
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect はSQL方言を表す。
type Dialect string

const (
	// DialectSQLite は組み込みSQLiteを表す。
	DialectSQLite Dialect = "sqlite"
	// DialectPostgres はPostgreSQLを表す。
	DialectPostgres Dialect = "postgres"
)

// DB は*sql.DBに方言情報を付加したもの。
// リポジトリはクエリを ? プレースホルダで記述し、Rebindで方言に合わせて変換する。
type DB struct {
	*sql.DB
	Dialect Dialect

	url string
}

// DetectDialect は接続URLから方言を判定する。
func DetectDialect(databaseURL string) Dialect {
	lower := strings.ToLower(databaseURL)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// Open はデータベース接続を開く。
// sql.Openは接続を試行しないため、実際の接続確認にはdb.Ping()を使用すること。
// SQLiteの場合は単一コネクションに制限し、全クエリを直列化する。
func Open(databaseURL string) (*DB, error) {
	dialect := DetectDialect(databaseURL)

	switch dialect {
	case DialectPostgres:
		db, err := sql.Open("postgres", databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return &DB{DB: db, Dialect: dialect, url: databaseURL}, nil
	default:
		db, err := sql.Open("sqlite", sqliteDSN(databaseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		db.SetMaxOpenConns(1)
		return &DB{DB: db, Dialect: dialect, url: databaseURL}, nil
	}
}

// sqliteDSN はファイルパスにmodernc.org/sqlite用の接続パラメータを付与する。
// 時刻はSQLite標準のテキスト形式で保存し、読み出し時にtime.Timeへ復元させる。
func sqliteDSN(databaseURL string) string {
	path := strings.TrimPrefix(databaseURL, "sqlite://")
	params := "_time_format=sqlite" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)"
	if strings.Contains(path, "?") {
		return path + "&" + params
	}
	return path + "?" + params
}

// Rebind は ? プレースホルダを方言に合わせて変換する。
// PostgreSQLでは $1, $2, ... に置き換える。クエリ中の文字列リテラルに ? を含めないこと。
func (db *DB) Rebind(query string) string {
	if db.Dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// IsUniqueViolation は一意制約違反のエラーかどうかを判定する。
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		// 拡張エラーコードが無効な接続では基本コードしか得られないためメッセージで判定する
		return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT &&
			strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")
	}

	return false
}
