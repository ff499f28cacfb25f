package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/empdesk/internal/account"
	"github.com/hitoshi/empdesk/internal/model"
)

// --- モック定義 ---

// mockEmployeeService はEmployeeServiceInterfaceのモック実装。
type mockEmployeeService struct {
	listFn   func(ctx context.Context) ([]*model.Employee, error)
	createFn func(ctx context.Context, in model.EmployeeInput) (int64, error)
	updateFn func(ctx context.Context, id int64, in model.EmployeeInput) error
	deleteFn func(ctx context.Context, id int64) error
}

func (m *mockEmployeeService) List(ctx context.Context) ([]*model.Employee, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockEmployeeService) Create(ctx context.Context, in model.EmployeeInput) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return 0, nil
}

func (m *mockEmployeeService) Update(ctx context.Context, id int64, in model.EmployeeInput) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return nil
}

func (m *mockEmployeeService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// mockAccountService はAccountServiceInterfaceのモック実装。
type mockAccountService struct {
	registerFn    func(ctx context.Context, in account.RegisterInput) (int64, error)
	loginFn       func(ctx context.Context, username, password string) (*account.LoginResult, error)
	logoutFn      func(ctx context.Context, token string) error
	currentUserFn func(ctx context.Context, token string) (*model.User, error)
}

func (m *mockAccountService) Register(ctx context.Context, in account.RegisterInput) (int64, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return 0, nil
}

func (m *mockAccountService) Login(ctx context.Context, username, password string) (*account.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, username, password)
	}
	return nil, nil
}

func (m *mockAccountService) Logout(ctx context.Context, token string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, token)
	}
	return nil
}

func (m *mockAccountService) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, token)
	}
	return nil, nil
}

// --- テストヘルパー ---

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// jsonRequest はJSONボディ付きのリクエストを生成するヘルパー。
func jsonRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// parseJSONObject はレスポンスボディをJSONオブジェクトとしてパースするヘルパー。
func parseJSONObject(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return result
}

func intPtr(v int) *int { return &v }

func newRecorder() *httptest.ResponseRecorder { return httptest.NewRecorder() }

func newGetRequest(path string) *http.Request {
	return httptest.NewRequest(http.MethodGet, path, nil)
}
