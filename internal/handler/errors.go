package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/empdesk/internal/middleware"
	"github.com/hitoshi/empdesk/internal/model"
)

// messageResponse はメッセージのみを返す成功レスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON はステータスコードとともにJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
// パニック時の500と同じフォーマットにするため、ミドルウェアの実装を使う。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// decodeJSONBody はリクエストボディをJSONとしてvにデコードする。
// ボディが空の場合はエラーにせず、vをゼロ値のまま返す。
func decodeJSONBody(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// errorResponder はサービス層のエラーをHTTPレスポンスに変換する。
type errorResponder struct {
	// exposeDetails がtrueの場合、500レスポンスに内部エラーの文言を含める
	exposeDetails bool
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func (e errorResponder) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーはストアエラーとして扱う
	slog.Error("store error",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
	)

	detail := ""
	if e.exposeDetails {
		detail = err.Error()
	}
	writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewStoreError(detail))
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidInput, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeUsernameTaken, model.ErrCodeEmailTaken:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeRecordNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// notFoundRouteError は未定義のルートへのリクエストに返すエラー。
func notFoundRouteError() *model.APIError {
	return &model.APIError{
		Code:     "ROUTE_NOT_FOUND",
		Message:  "Not Found",
		Category: "validation",
		Action:   "リクエストURLを確認してください。",
	}
}

// methodNotAllowedError は許可されていないHTTPメソッドへのリクエストに返すエラー。
func methodNotAllowedError() *model.APIError {
	return &model.APIError{
		Code:     "METHOD_NOT_ALLOWED",
		Message:  "Method Not Allowed",
		Category: "validation",
		Action:   "HTTPメソッドを確認してください。",
	}
}
