package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/empdesk/internal/account"
	"github.com/hitoshi/empdesk/internal/model"
)

func TestRegister_Success(t *testing.T) {
	var received account.RegisterInput
	svc := &mockAccountService{
		registerFn: func(ctx context.Context, in account.RegisterInput) (int64, error) {
			received = in
			return 2, nil
		},
	}
	h := NewAuthHandler(svc, false)

	req := jsonRequest(t, http.MethodPost, "/register", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "pw123456",
	})
	w := httptest.NewRecorder()
	h.Register(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := parseJSONObject(t, w)
	if body["message"] != "User registered successfully" || body["user_id"] != float64(2) {
		t.Errorf("body = %v", body)
	}
	if received.Username != "alice" || received.Email != "alice@example.com" || received.Password != "pw123456" {
		t.Errorf("service received %+v", received)
	}
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"必須項目なし", model.NewInvalidInputError("Username, email, and password are required"), http.StatusBadRequest, model.ErrCodeInvalidInput},
		{"ユーザー名重複", model.NewUsernameTakenError(), http.StatusBadRequest, model.ErrCodeUsernameTaken},
		{"メール重複", model.NewEmailTakenError(), http.StatusBadRequest, model.ErrCodeEmailTaken},
		{"ストアエラー", errors.New("disk full"), http.StatusInternalServerError, model.ErrCodeStoreError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAccountService{
				registerFn: func(ctx context.Context, in account.RegisterInput) (int64, error) {
					return 0, tt.err
				},
			}
			h := NewAuthHandler(svc, false)

			w := httptest.NewRecorder()
			h.Register(w, jsonRequest(t, http.MethodPost, "/register", map[string]string{"username": "alice"}))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if body := parseAPIErrorResponse(t, w); body["code"] != tt.wantCode {
				t.Errorf("code = %q, want %q", body["code"], tt.wantCode)
			}
		})
	}
}

func TestLogin_Success(t *testing.T) {
	svc := &mockAccountService{
		loginFn: func(ctx context.Context, username, password string) (*account.LoginResult, error) {
			if username != "alice" || password != "pw123456" {
				t.Errorf("Login(%q, %q)", username, password)
			}
			return &account.LoginResult{
				SessionToken: "token-abc",
				User: &model.User{
					ID:             2,
					Username:       "alice",
					Email:          "alice@example.com",
					HashedPassword: "$pbkdf2-sha256$29000$salt$checksum",
				},
			}, nil
		},
	}
	h := NewAuthHandler(svc, false)

	w := httptest.NewRecorder()
	h.Login(w, jsonRequest(t, http.MethodPost, "/login", map[string]string{"username": "alice", "password": "pw123456"}))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	raw := w.Body.String()
	if strings.Contains(raw, "pbkdf2") {
		t.Error("response must not contain hashed password")
	}

	body := parseJSONObject(t, w)
	if body["message"] != "Login successful" || body["session_token"] != "token-abc" {
		t.Errorf("body = %v", body)
	}
	user, ok := body["user"].(map[string]interface{})
	if !ok {
		t.Fatalf("user = %v", body["user"])
	}
	if user["id"] != float64(2) || user["username"] != "alice" || user["email"] != "alice@example.com" {
		t.Errorf("user = %v", user)
	}
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"必須項目なし", model.NewInvalidInputError("Username and password are required"), http.StatusBadRequest},
		{"認証失敗", model.NewInvalidCredentialsError(), http.StatusUnauthorized},
		{"ストアエラー", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAccountService{
				loginFn: func(ctx context.Context, username, password string) (*account.LoginResult, error) {
					return nil, tt.err
				},
			}
			h := NewAuthHandler(svc, false)

			w := httptest.NewRecorder()
			h.Login(w, jsonRequest(t, http.MethodPost, "/login", map[string]string{"username": "alice"}))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	var revoked string
	svc := &mockAccountService{
		logoutFn: func(ctx context.Context, token string) error {
			if strings.TrimSpace(token) == "" {
				return model.NewInvalidInputError("Session token is required")
			}
			revoked = token
			return nil
		},
	}
	h := NewAuthHandler(svc, false)

	t.Run("ログアウト成功", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Logout(w, jsonRequest(t, http.MethodPost, "/logout", map[string]string{"session_token": "token-abc"}))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		if body := parseJSONObject(t, w); body["message"] != "Logout successful" {
			t.Errorf("message = %v", body["message"])
		}
		if revoked != "token-abc" {
			t.Errorf("revoked = %q, want token-abc", revoked)
		}
	})

	t.Run("トークンなし", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Logout(w, httptest.NewRequest(http.MethodPost, "/logout", strings.NewReader(`{}`)))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
		if body := parseAPIErrorResponse(t, w); body["code"] != model.ErrCodeInvalidInput {
			t.Errorf("code = %q, want %q", body["code"], model.ErrCodeInvalidInput)
		}
	})
}

func TestMe_Success(t *testing.T) {
	createdAt := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	svc := &mockAccountService{
		currentUserFn: func(ctx context.Context, token string) (*model.User, error) {
			if token != "token-abc" {
				t.Errorf("token = %q, want token-abc", token)
			}
			return &model.User{ID: 2, Username: "alice", Email: "alice@example.com", HashedPassword: "secret-hash", CreatedAt: createdAt}, nil
		},
	}
	h := NewAuthHandler(svc, false)

	req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
	req.Header.Set("Authorization", "Bearer token-abc")
	w := httptest.NewRecorder()
	h.Me(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if strings.Contains(w.Body.String(), "secret-hash") {
		t.Error("response must not contain hashed password")
	}
	body := parseJSONObject(t, w)
	if body["id"] != float64(2) || body["username"] != "alice" || body["email"] != "alice@example.com" {
		t.Errorf("body = %v", body)
	}
	if body["created_at"] != "2024-05-01T09:30:00Z" {
		t.Errorf("created_at = %v", body["created_at"])
	}
}

func TestMe_Errors(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"ヘッダーなし", "", model.NewUnauthorizedError("Session token is required"), http.StatusUnauthorized, model.ErrCodeUnauthorized},
		{"無効なトークン", "Bearer unknown", model.NewUnauthorizedError("Invalid or expired session"), http.StatusUnauthorized, model.ErrCodeUnauthorized},
		{"ユーザー削除済み", "Bearer orphan", model.NewUserNotFoundError(), http.StatusNotFound, model.ErrCodeUserNotFound},
		{"ストアエラー", "Bearer token", errors.New("timeout"), http.StatusInternalServerError, model.ErrCodeStoreError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAccountService{
				currentUserFn: func(ctx context.Context, token string) (*model.User, error) {
					return nil, tt.err
				},
			}
			h := NewAuthHandler(svc, false)

			req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.Me(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if body := parseAPIErrorResponse(t, w); body["code"] != tt.wantCode {
				t.Errorf("code = %q, want %q", body["code"], tt.wantCode)
			}
		})
	}
}
