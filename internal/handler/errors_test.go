package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/hitoshi/empdesk/internal/model"
)

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{model.ErrCodeInvalidInput, http.StatusBadRequest},
		{model.ErrCodeInvalidRequest, http.StatusBadRequest},
		{model.ErrCodeUsernameTaken, http.StatusBadRequest},
		{model.ErrCodeEmailTaken, http.StatusBadRequest},
		{model.ErrCodeUnauthorized, http.StatusUnauthorized},
		{model.ErrCodeInvalidCredentials, http.StatusUnauthorized},
		{model.ErrCodeRecordNotFound, http.StatusNotFound},
		{model.ErrCodeUserNotFound, http.StatusNotFound},
		{model.ErrCodeRateLimited, http.StatusTooManyRequests},
		{model.ErrCodeStoreError, http.StatusInternalServerError},
		{model.ErrCodeInternal, http.StatusInternalServerError},
		{"UNKNOWN", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := mapAPIErrorToHTTPStatus(&model.APIError{Code: tt.code}); got != tt.want {
				t.Errorf("mapAPIErrorToHTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

// TestHandleServiceError_WrappedAPIError はラップされたAPIErrorも正しく変換されることを検証する。
func TestHandleServiceError_WrappedAPIError(t *testing.T) {
	w := newRecorder()
	req := newGetRequest("/data")

	errorResponder{}.handleServiceError(w, req, fmt.Errorf("更新に失敗: %w", model.NewRecordNotFoundError(5)))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	body := parseAPIErrorResponse(t, w)
	if body["category"] != "record" || body["action"] == "" {
		t.Errorf("body = %v", body)
	}
}
