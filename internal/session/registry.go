// Package session はプロセス内メモリで管理するログインセッションを提供する。
// セッションは永続化されず、プロセス再起動で全て失効する。
package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/hitoshi/empdesk/internal/model"
)

// DefaultTTL はセッションの標準有効期間。
const DefaultTTL = 24 * time.Hour

// tokenBytes はトークン生成に使うランダムバイト数（URLセーフBase64で43文字）。
const tokenBytes = 32

// Registry はセッショントークンとユーザーIDの対応を保持する。
// 全操作はmutexで保護され、複数のリクエストから並行に呼び出せる。
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	ttl      time.Duration

	// Now は現在時刻を返す。テストで時刻を固定する場合に差し替える。
	Now func() time.Time
}

// NewRegistry は新しいRegistryを生成する。
// ttlが0以下の場合はDefaultTTLを使用する。
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		sessions: make(map[string]*model.Session),
		ttl:      ttl,
		Now:      time.Now,
	}
}

// TTL はセッションの有効期間を返す。
func (r *Registry) TTL() time.Duration {
	return r.ttl
}

// Create は指定ユーザーの新しいセッションを発行し、トークンを返す。
// 同じユーザーが複数のセッションを同時に持つことができる。
func (r *Registry) Create(userID int64) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	now := r.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[token] = &model.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
	}
	return token, nil
}

// Resolve はトークンに対応するユーザーIDを返す。
// 未知のトークンや期限切れのセッションにはfalseを返し、期限切れの場合はその場で削除する。
func (r *Registry) Resolve(token string) (int64, bool) {
	if token == "" {
		return 0, false
	}

	now := r.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[token]
	if !ok {
		return 0, false
	}
	if s.Expired(now) {
		delete(r.sessions, token)
		return 0, false
	}
	return s.UserID, true
}

// Revoke はセッションを削除する。存在しないトークンに対しては何もしない。
func (r *Registry) Revoke(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
}

// Len は保持しているセッション数を返す（期限切れで未削除のものを含む）。
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// PurgeExpired は期限切れのセッションをまとめて削除し、削除件数を返す。
func (r *Registry) PurgeExpired() int {
	now := r.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	purged := 0
	for token, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, token)
			purged++
		}
	}
	return purged
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
