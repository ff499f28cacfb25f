package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/empdesk/internal/model"
)

func TestListEmployees_ReturnsArray(t *testing.T) {
	svc := &mockEmployeeService{
		listFn: func(ctx context.Context) ([]*model.Employee, error) {
			return []*model.Employee{
				{ID: 1, Name: "Paul Smith", Age: intPtr(32), Email: "paul@example.com", Department: "Engineering"},
				{ID: 2, Name: "No Age"},
			}, nil
		},
	}
	h := NewEmployeeHandler(svc, false)

	w := httptest.NewRecorder()
	h.ListEmployees(w, httptest.NewRequest(http.MethodGet, "/data", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var got []map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0]["name"] != "Paul Smith" || got[0]["age"] != float64(32) {
		t.Errorf("first employee = %v", got[0])
	}
	if got[1]["age"] != nil {
		t.Errorf("age should be null, got %v", got[1]["age"])
	}
}

// TestListEmployees_EmptyIsArray は0件の場合もnullではなく空配列を返すことを検証する。
func TestListEmployees_EmptyIsArray(t *testing.T) {
	h := NewEmployeeHandler(&mockEmployeeService{}, false)

	w := httptest.NewRecorder()
	h.ListEmployees(w, httptest.NewRequest(http.MethodGet, "/data", nil))

	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("body = %s, want []", body)
	}
}

func TestListEmployees_StoreError(t *testing.T) {
	tests := []struct {
		name          string
		expose        bool
		wantInMessage string
	}{
		{"詳細を隠す", false, "A database error occurred"},
		{"詳細を公開", true, "no such table: employees"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockEmployeeService{
				listFn: func(ctx context.Context) ([]*model.Employee, error) {
					return nil, errors.New("no such table: employees")
				},
			}
			h := NewEmployeeHandler(svc, tt.expose)

			w := httptest.NewRecorder()
			h.ListEmployees(w, httptest.NewRequest(http.MethodGet, "/data", nil))

			if w.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
			}
			body := parseAPIErrorResponse(t, w)
			if body["code"] != model.ErrCodeStoreError {
				t.Errorf("code = %q, want %q", body["code"], model.ErrCodeStoreError)
			}
			if !strings.Contains(body["message"], tt.wantInMessage) {
				t.Errorf("message = %q, want to contain %q", body["message"], tt.wantInMessage)
			}
		})
	}
}

func TestCreateEmployee_Success(t *testing.T) {
	var received model.EmployeeInput
	svc := &mockEmployeeService{
		createFn: func(ctx context.Context, in model.EmployeeInput) (int64, error) {
			received = in
			return 6, nil
		},
	}
	h := NewEmployeeHandler(svc, false)

	req := jsonRequest(t, http.MethodPost, "/data", map[string]interface{}{
		"name": "Mia Park", "age": 27, "email": "mia@example.com", "department": "Support",
	})
	w := httptest.NewRecorder()
	h.CreateEmployee(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := parseJSONObject(t, w)
	if body["message"] != "Record added" || body["id"] != float64(6) {
		t.Errorf("body = %v", body)
	}
	if received.Name != "Mia Park" || received.Age == nil || *received.Age != 27 || received.Department != "Support" {
		t.Errorf("service received %+v", received)
	}
}

func TestCreateEmployee_EmptyRecord(t *testing.T) {
	svc := &mockEmployeeService{
		createFn: func(ctx context.Context, in model.EmployeeInput) (int64, error) {
			if !in.IsEmpty() {
				t.Errorf("expected empty input, got %+v", in)
			}
			return 0, model.NewEmptyRecordError()
		},
	}
	h := NewEmployeeHandler(svc, false)

	tests := []struct {
		name string
		body string
	}{
		{"空オブジェクト", `{}`},
		{"ボディなし", ``},
		{"全項目が空文字", `{"name":"","email":"","department":"","age":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/data", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.CreateEmployee(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			body := parseAPIErrorResponse(t, w)
			if body["code"] != model.ErrCodeInvalidInput {
				t.Errorf("code = %q, want %q", body["code"], model.ErrCodeInvalidInput)
			}
		})
	}
}

func TestCreateEmployee_InvalidJSON(t *testing.T) {
	called := false
	svc := &mockEmployeeService{
		createFn: func(ctx context.Context, in model.EmployeeInput) (int64, error) {
			called = true
			return 1, nil
		},
	}
	h := NewEmployeeHandler(svc, false)

	tests := []struct {
		name string
		body string
	}{
		{"壊れたJSON", `{"name":`},
		{"年齢が文字列", `{"name":"Paul","age":"thirty"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/data", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.CreateEmployee(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if body := parseAPIErrorResponse(t, w); body["code"] != model.ErrCodeInvalidRequest {
				t.Errorf("code = %q, want %q", body["code"], model.ErrCodeInvalidRequest)
			}
		})
	}

	if called {
		t.Error("service should not be called for malformed body")
	}
}

func TestUpdateEmployee_Success(t *testing.T) {
	var gotID int64
	var gotIn model.EmployeeInput
	svc := &mockEmployeeService{
		updateFn: func(ctx context.Context, id int64, in model.EmployeeInput) error {
			gotID, gotIn = id, in
			return nil
		},
	}
	h := NewEmployeeHandler(svc, false)

	req := jsonRequest(t, http.MethodPut, "/data/1", map[string]interface{}{
		"name": "Paul S.", "age": 33, "email": "", "department": "",
	})
	req = withChiURLParam(req, "id", "1")
	w := httptest.NewRecorder()
	h.UpdateEmployee(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body := parseJSONObject(t, w); body["message"] != "Updated successfully" {
		t.Errorf("message = %v", body["message"])
	}
	if gotID != 1 || gotIn.Name != "Paul S." || *gotIn.Age != 33 || gotIn.Email != "" {
		t.Errorf("service received id=%d in=%+v", gotID, gotIn)
	}
}

func TestUpdateEmployee_NotFound(t *testing.T) {
	svc := &mockEmployeeService{
		updateFn: func(ctx context.Context, id int64, in model.EmployeeInput) error {
			return model.NewRecordNotFoundError(id)
		},
	}
	h := NewEmployeeHandler(svc, false)

	req := withChiURLParam(jsonRequest(t, http.MethodPut, "/data/99", map[string]string{"name": "x"}), "id", "99")
	w := httptest.NewRecorder()
	h.UpdateEmployee(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	body := parseAPIErrorResponse(t, w)
	if body["code"] != model.ErrCodeRecordNotFound || body["message"] != "Record not found: 99" {
		t.Errorf("body = %v", body)
	}
}

func TestEmployeeHandler_InvalidID(t *testing.T) {
	h := NewEmployeeHandler(&mockEmployeeService{
		updateFn: func(ctx context.Context, id int64, in model.EmployeeInput) error {
			t.Error("service should not be called")
			return nil
		},
		deleteFn: func(ctx context.Context, id int64) error {
			t.Error("service should not be called")
			return nil
		},
	}, false)

	for _, raw := range []string{"abc", "1.5", ""} {
		t.Run("ID_"+raw, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.DeleteEmployee(w, withChiURLParam(httptest.NewRequest(http.MethodDelete, "/data/x", nil), "id", raw))
			if w.Code != http.StatusBadRequest {
				t.Errorf("DELETE status = %d, want %d", w.Code, http.StatusBadRequest)
			}

			w = httptest.NewRecorder()
			h.UpdateEmployee(w, withChiURLParam(jsonRequest(t, http.MethodPut, "/data/x", map[string]string{}), "id", raw))
			if w.Code != http.StatusBadRequest {
				t.Errorf("PUT status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestDeleteEmployee(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"削除成功", nil, http.StatusOK},
		{"存在しない", model.NewRecordNotFoundError(3), http.StatusNotFound},
		{"ストアエラー", errors.New("database is locked"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockEmployeeService{
				deleteFn: func(ctx context.Context, id int64) error {
					if id != 3 {
						t.Errorf("id = %d, want 3", id)
					}
					return tt.err
				},
			}
			h := NewEmployeeHandler(svc, false)

			w := httptest.NewRecorder()
			h.DeleteEmployee(w, withChiURLParam(httptest.NewRequest(http.MethodDelete, "/data/3", nil), "id", "3"))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.err == nil {
				if body := parseJSONObject(t, w); body["message"] != "Deleted successfully" {
					t.Errorf("message = %v", body["message"])
				}
			}
		})
	}
}
