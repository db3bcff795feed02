/*
handlers.go - HTTP API handlers for the equipment withdrawal ledger

PURPOSE:
  Exposes the withdrawal ledger, the equipment catalog and the employee
  directory via REST API. Handles HTTP request/response, JSON serialization,
  and delegates to the withdrawal package.

ENDPOINTS:
  Employees:
    GET    /api/employees               List all employees
    GET    /api/employees/lookup?code=  Find one employee by code
    POST   /api/employees               Create employee (admin)
    PUT    /api/employees/{id}          Update employee (admin)
    DELETE /api/employees/{id}          Delete employee (admin)

  Items:
    GET    /api/items                   List catalog items
    POST   /api/items                   Create item (admin)
    PUT    /api/items/{id}              Update item (admin)
    DELETE /api/items/{id}              Delete unused item (admin)

  Ledger:
    POST   /api/withdrawals             Record a withdrawal
    GET    /api/withdrawals             Withdrawals grouped by transaction
    GET    /api/stock                   Remaining stock per item
    GET    /api/summary/employees       Per-employee, per-item totals

REQUEST FLOW:
  1. Parse HTTP request
  2. Call the withdrawal package (it validates)
  3. Serialize response
  4. Map domain errors to HTTP status (writeDomainError)

ERROR HANDLING:
  - 400: Validation errors, invalid input (with "field"), unknown item
  - 404: Resource not found
  - 409: Duplicate submission, duplicate employee code, item in use
  - 503: Persistence failure, nothing was written, retry is safe
  - 500: Anything else

SEE ALSO:
  - dto.go: Request/response data structures
  - admin.go: Admin gate for master data and scenarios
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/warp/equipment-ledger/store/sqlite"
	"github.com/warp/equipment-ledger/withdrawal"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Ledger *withdrawal.Ledger
	Logger *zap.Logger

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler. The ledger must be backed by the same store.
func NewHandler(store *sqlite.Store, ledger *withdrawal.Ledger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:  store,
		Ledger: ledger,
		Logger: logger,
	}
}

// Health reports database reachability and row counts.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	stats, err := h.Store.Stats(ctx)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, HealthDTO{
		Status:      "ok",
		Employees:   stats.Employees,
		Items:       stats.Items,
		Withdrawals: stats.Withdrawals,
		Lines:       stats.Lines,
	})
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees ordered by code.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LookupEmployee finds an employee by code.
// GET /api/employees/lookup?code=E001
func (h *Handler) LookupEmployee(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "code query parameter is required", Field: "code"})
		return
	}

	emp, err := h.Store.FindEmployeeByCode(r.Context(), code)
	if err != nil {
		h.writeDomainError(w, "Employee not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// CreateEmployee adds an employee to the directory.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	emp, err := h.Store.CreateEmployee(r.Context(), withdrawal.Employee{
		Code:       req.EmployeeCode,
		Name:       req.EmployeeName,
		Department: req.Department,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// UpdateEmployee replaces an employee's code, name and department.
// Withdrawals already recorded keep the old values.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req EmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	emp, err := h.Store.UpdateEmployee(r.Context(), withdrawal.Employee{
		ID:         withdrawal.EmployeeID(id),
		Code:       req.EmployeeCode,
		Name:       req.EmployeeName,
		Department: req.Department,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to update employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// DeleteEmployee removes an employee from the directory.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteEmployee(r.Context(), withdrawal.EmployeeID(id)); err != nil {
		h.writeDomainError(w, "Failed to delete employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ITEM HANDLERS
// =============================================================================

// ListItems returns the catalog ordered by name.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListItems(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list items", err)
		return
	}

	dtos := make([]ItemDTO, len(items))
	for i, it := range items {
		dtos[i] = toItemDTO(it)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateItem adds an item to the catalog.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	item, err := h.Store.CreateItem(r.Context(), withdrawal.EquipmentItem{
		Name:          req.Name,
		Unit:          req.Unit,
		StockQuantity: req.StockQuantity,
		Notes:         req.Notes,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to create item", err)
		return
	}
	h.Ledger.InvalidateStock(r.Context())
	writeJSON(w, http.StatusCreated, toItemDTO(item))
}

// UpdateItem replaces an item's name, unit, stock quantity and notes.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	item, err := h.Store.UpdateItem(r.Context(), withdrawal.EquipmentItem{
		ID:            withdrawal.ItemID(id),
		Name:          req.Name,
		Unit:          req.Unit,
		StockQuantity: req.StockQuantity,
		Notes:         req.Notes,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to update item", err)
		return
	}
	h.Ledger.InvalidateStock(r.Context())
	writeJSON(w, http.StatusOK, toItemDTO(item))
}

// DeleteItem removes a catalog item. Items with withdrawals are kept (409).
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteItem(r.Context(), withdrawal.ItemID(id)); err != nil {
		h.writeDomainError(w, "Failed to delete item", err)
		return
	}
	h.Ledger.InvalidateStock(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// RecordWithdrawal commits one withdrawal.
// POST /api/withdrawals
//
// The employee code is resolved against the directory first. An unknown code
// is not an error: the typed name and department are recorded instead.
func (h *Handler) RecordWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req RecordWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	snap, resolved, err := withdrawal.ResolveEmployee(ctx, h.Store, req.EmployeeCode, withdrawal.EmployeeSnapshot{
		Name:       req.EmployeeName,
		Department: req.Department,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to resolve employee", err)
		return
	}
	if !resolved {
		h.Logger.Debug("employee code not in directory, using typed values",
			zap.String("employee_code", snap.Code))
	}

	lines := make([]withdrawal.LineInput, len(req.Items))
	for i, it := range req.Items {
		lines[i] = withdrawal.LineInput{
			ItemID:   withdrawal.ItemID(it.EquipmentItemID),
			Quantity: it.Quantity,
		}
	}

	header, err := h.Ledger.Record(ctx, withdrawal.NewWithdrawal{
		Employee:  snap,
		Lines:     lines,
		Notes:     req.Notes,
		Reference: req.Reference,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to record withdrawal", err)
		return
	}
	writeJSON(w, http.StatusCreated, toWithdrawalDTO(header))
}

// ListWithdrawals returns every withdrawal with its lines, newest first.
func (h *Handler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Ledger.GroupByTransaction(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to load withdrawals", err)
		return
	}

	dtos := make([]TransactionGroupDTO, len(groups))
	for i, g := range groups {
		dtos[i] = toTransactionGroupDTO(g)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetStock returns remaining stock per item. Negative remaining quantities
// are reported as-is.
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Ledger.RemainingStock(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to compute stock", err)
		return
	}

	dtos := make([]StockRowDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toStockRowDTO(row)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployeeSummary returns per-employee, per-item totals.
func (h *Handler) GetEmployeeSummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.Ledger.SummarizeByEmployee(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to summarize withdrawals", err)
		return
	}

	dtos := make([]EmployeeSummaryDTO, len(summaries))
	for i, s := range summaries {
		dtos[i] = toEmployeeSummaryDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid id", Details: raw, Field: "id"})
		return 0, false
	}
	return id, true
}

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, withdrawal.ErrValidation), errors.Is(err, withdrawal.ErrUnknownItem):
		return http.StatusBadRequest
	case errors.Is(err, withdrawal.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, withdrawal.ErrDuplicateSubmission),
		errors.Is(err, withdrawal.ErrDuplicateEmployeeCode),
		errors.Is(err, withdrawal.ErrItemInUse):
		return http.StatusConflict
	case errors.Is(err, withdrawal.ErrPersistence):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: message, Details: err.Error()}

	var verr *withdrawal.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	if status >= http.StatusInternalServerError {
		h.Logger.Error(message, zap.Error(err), zap.Int("status", status))
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
