// Package model はドメインモデルを定義する。
package model

import "time"

// User はログイン可能なユーザーを表す。
// HashedPasswordはクライアントへ返却してはならない。
type User struct {
	ID             int64
	Username       string
	Email          string
	HashedPassword string
	CreatedAt      time.Time
}

// Session はユーザーのログインセッションを表す。
// プロセスメモリ上にのみ存在し、再起動で全て無効になる。
type Session struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired は指定時刻の時点でセッションが期限切れかを返す。
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
