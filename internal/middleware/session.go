// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
)

// bearerPrefix はAuthorizationヘッダーのトークン種別プレフィックス。
const bearerPrefix = "Bearer "

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストに認証済みユーザーIDの格納先を保持するためのキー。
var userIDContextKey = contextKey("user_id")

// userIDHolder はリクエスト処理中に判明したユーザーIDを外側のミドルウェアへ伝える。
// ロギングミドルウェアが生成し、ハンドラーがSetUserIDで書き込む。
type userIDHolder struct {
	id atomic.Int64
}

// BearerToken はAuthorizationヘッダーからセッショントークンを取り出す。
// "Bearer "プレフィックスがあれば除去し、ヘッダーがない場合は空文字列を返す。
func BearerToken(r *http.Request) string {
	return strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), bearerPrefix))
}

// SetUserID はリクエストを処理したユーザーのIDを記録する。
// ロギングミドルウェアを通過していないコンテキストでは何もしない。
func SetUserID(ctx context.Context, userID int64) {
	if h, ok := ctx.Value(userIDContextKey).(*userIDHolder); ok {
		h.id.Store(userID)
	}
}

// UserIDFromContext はSetUserIDで記録されたユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (int64, bool) {
	h, ok := ctx.Value(userIDContextKey).(*userIDHolder)
	if !ok {
		return 0, false
	}
	id := h.id.Load()
	return id, id != 0
}

// withUserIDHolder はユーザーIDの記録先をコンテキストに追加する。
func withUserIDHolder(ctx context.Context) context.Context {
	if _, ok := ctx.Value(userIDContextKey).(*userIDHolder); ok {
		return ctx
	}
	return context.WithValue(ctx, userIDContextKey, &userIDHolder{})
}
