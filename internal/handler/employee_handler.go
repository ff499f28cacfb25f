package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/empdesk/internal/model"
)

// EmployeeServiceInterface は従業員ハンドラーが必要とするサービスインターフェース。
type EmployeeServiceInterface interface {
	List(ctx context.Context) ([]*model.Employee, error)
	Create(ctx context.Context, in model.EmployeeInput) (int64, error)
	Update(ctx context.Context, id int64, in model.EmployeeInput) error
	Delete(ctx context.Context, id int64) error
}

// EmployeeHandler は従業員レコードのCRUDを扱うHTTPハンドラー。
type EmployeeHandler struct {
	service EmployeeServiceInterface
	errs    errorResponder
}

// NewEmployeeHandler はEmployeeHandlerを生成する。
func NewEmployeeHandler(service EmployeeServiceInterface, exposeErrorDetails bool) *EmployeeHandler {
	return &EmployeeHandler{
		service: service,
		errs:    errorResponder{exposeDetails: exposeErrorDetails},
	}
}

// employeeRequest は従業員の作成・更新リクエストのボディ。
type employeeRequest struct {
	Name       string `json:"name"`
	Age        *int   `json:"age"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

func (req employeeRequest) toInput() model.EmployeeInput {
	return model.EmployeeInput{
		Name:       req.Name,
		Age:        req.Age,
		Email:      req.Email,
		Department: req.Department,
	}
}

// createEmployeeResponse は従業員作成のレスポンス。
type createEmployeeResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// ListEmployees は全従業員を返す。
// GET /data
func (h *EmployeeHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.List(r.Context())
	if err != nil {
		h.errs.handleServiceError(w, r, err)
		return
	}
	if employees == nil {
		employees = []*model.Employee{}
	}

	writeJSON(w, http.StatusOK, employees)
}

// CreateEmployee は従業員レコードを追加する。
// POST /data
func (h *EmployeeHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Invalid request body"))
		return
	}

	id, err := h.service.Create(r.Context(), req.toInput())
	if err != nil {
		h.errs.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, createEmployeeResponse{Message: "Record added", ID: id})
}

// UpdateEmployee は従業員レコードの全項目を上書きする。
// PUT /data/{id}
func (h *EmployeeHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := parseEmployeeID(w, r)
	if !ok {
		return
	}

	var req employeeRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Invalid request body"))
		return
	}

	if err := h.service.Update(r.Context(), id, req.toInput()); err != nil {
		h.errs.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Updated successfully"})
}

// DeleteEmployee は従業員レコードを削除する。
// DELETE /data/{id}
func (h *EmployeeHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := parseEmployeeID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.errs.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Deleted successfully"})
}

// parseEmployeeID はパスパラメータ{id}を整数として取り出す。
// 解析できない場合は400レスポンスを書き込み、falseを返す。
func parseEmployeeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Invalid record id: "+raw))
		return 0, false
	}
	return id, true
}
