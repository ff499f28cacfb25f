// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/empdesk/internal/account"
	"github.com/hitoshi/empdesk/internal/middleware"
	"github.com/hitoshi/empdesk/internal/model"
)

// AccountServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AccountServiceInterface interface {
	Register(ctx context.Context, in account.RegisterInput) (int64, error)
	Login(ctx context.Context, username, password string) (*account.LoginResult, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*model.User, error)
}

// AuthHandler はユーザー登録とセッション管理のHTTPハンドラー。
type AuthHandler struct {
	service AccountServiceInterface
	errs    errorResponder
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AccountServiceInterface, exposeErrorDetails bool) *AuthHandler {
	return &AuthHandler{
		service: service,
		errs:    errorResponder{exposeDetails: exposeErrorDetails},
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"user_id"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// userSummary はログインレスポンスに含めるユーザー情報。
type userSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type loginResponse struct {
	Message      string      `json:"message"`
	SessionToken string      `json:"session_token"`
	User         userSummary `json:"user"`
}

type logoutRequest struct {
	SessionToken string `json:"session_token"`
}

// meResponse は現在のユーザー情報のレスポンス。ハッシュ化パスワードは含めない。
type meResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Register はユーザーを登録する。
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Invalid request body"))
		return
	}

	userID, err := h.service.Register(r.Context(), account.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.errs.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{Message: "User registered successfully", UserID: userID})
}

// Login はユーザー名とパスワードを検証し、セッショントークンを発行する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Invalid request body"))
		return
	}

	result, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.errs.handleServiceError(w, r, err)
		return
	}

	middleware.SetUserID(r.Context(), result.User.ID)

	writeJSON(w, http.StatusOK, loginResponse{
		Message:      "Login successful",
		SessionToken: result.SessionToken,
		User: userSummary{
			ID:       result.User.ID,
			Username: result.User.Username,
			Email:    result.User.Email,
		},
	})
}

// Logout はリクエストボディで指定されたセッションを破棄する。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Invalid request body"))
		return
	}

	if err := h.service.Logout(r.Context(), req.SessionToken); err != nil {
		h.errs.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Logout successful"})
}

// Me はBearerトークンに対応するユーザー情報を返す。
// GET /user/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.CurrentUser(r.Context(), middleware.BearerToken(r))
	if err != nil {
		h.errs.handleServiceError(w, r, err)
		return
	}

	middleware.SetUserID(r.Context(), user.ID)

	writeJSON(w, http.StatusOK, meResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}
