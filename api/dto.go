/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the withdrawal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Master data:
    EmployeeDTO, EmployeeRequest, ItemDTO, ItemRequest

  Ledger:
    RecordWithdrawalRequest, WithdrawalDTO, TransactionGroupDTO

  Reports:
    StockRowDTO, EmployeeSummaryDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done by the withdrawal package, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - withdrawal/types.go: Domain types
*/
package api

import (
	"time"

	"github.com/warp/equipment-ledger/withdrawal"
)

// =============================================================================
// MASTER DATA
// =============================================================================

// EmployeeDTO represents a directory entry in API responses.
type EmployeeDTO struct {
	ID           int64  `json:"id"`
	EmployeeCode string `json:"employee_code"`
	EmployeeName string `json:"employee_name"`
	Department   string `json:"department"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// EmployeeRequest creates or replaces a directory entry.
type EmployeeRequest struct {
	EmployeeCode string `json:"employee_code"`
	EmployeeName string `json:"employee_name"`
	Department   string `json:"department"`
}

// ItemDTO represents a catalog entry in API responses.
type ItemDTO struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Unit          string `json:"unit"`
	StockQuantity int64  `json:"stock_quantity"`
	Notes         string `json:"notes,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

// ItemRequest creates or replaces a catalog entry.
type ItemRequest struct {
	Name          string `json:"name"`
	Unit          string `json:"unit"`
	StockQuantity int64  `json:"stock_quantity"`
	Notes         string `json:"notes"`
}

// =============================================================================
// LEDGER
// =============================================================================

// LineRequest is one requested item and quantity.
type LineRequest struct {
	EquipmentItemID int64 `json:"equipment_item_id"`
	Quantity        int64 `json:"quantity"`
}

// RecordWithdrawalRequest is the body of POST /api/withdrawals.
//
// EmployeeName and Department are only used when EmployeeCode is not in the
// directory.
type RecordWithdrawalRequest struct {
	EmployeeCode string        `json:"employee_code"`
	EmployeeName string        `json:"employee_name"`
	Department   string        `json:"department"`
	Notes        *string       `json:"notes,omitempty"`
	Reference    string        `json:"reference,omitempty"`
	Items        []LineRequest `json:"items"`
}

// WithdrawalDTO represents a withdrawal header in API responses.
type WithdrawalDTO struct {
	ID           int64   `json:"id"`
	EmployeeID   *int64  `json:"employee_id"`
	EmployeeCode string  `json:"employee_code"`
	EmployeeName string  `json:"employee_name"`
	Department   string  `json:"department"`
	Notes        *string `json:"notes"`
	Reference    string  `json:"reference"`
	CreatedAt    string  `json:"created_at"`
}

// GroupItemDTO is one line of a grouped withdrawal.
type GroupItemDTO struct {
	EquipmentItemID int64  `json:"equipment_item_id"`
	Name            string `json:"name"`
	Unit            string `json:"unit"`
	Quantity        int64  `json:"quantity"`
}

// TransactionGroupDTO is a withdrawal header with its lines.
type TransactionGroupDTO struct {
	WithdrawalDTO
	Items []GroupItemDTO `json:"items"`
}

// =============================================================================
// REPORTS
// =============================================================================

// StockRowDTO is one row of the remaining-stock report.
type StockRowDTO struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Unit              string `json:"unit"`
	Notes             string `json:"notes,omitempty"`
	StockQuantity     int64  `json:"stock_quantity"`
	WithdrawnQuantity int64  `json:"withdrawn_quantity"`
	RemainingQuantity int64  `json:"remaining_quantity"`
	OverIssued        bool   `json:"over_issued"`
}

// EmployeeSummaryDTO is one (employee, item) total.
type EmployeeSummaryDTO struct {
	EmployeeCode       string `json:"employee_code"`
	EmployeeName       string `json:"employee_name"`
	Department         string `json:"department"`
	EquipmentItemID    int64  `json:"equipment_item_id"`
	EquipmentName      string `json:"equipment_name"`
	Unit               string `json:"unit"`
	TotalQuantity      int64  `json:"total_quantity"`
	WithdrawalCount    int    `json:"withdrawal_count"`
	LastWithdrawalDate string `json:"last_withdrawal_date"`
}

// =============================================================================
// SCENARIOS / HEALTH / ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// HealthDTO reports storage reachability and row counts.
type HealthDTO struct {
	Status      string `json:"status"`
	Employees   int    `json:"employees"`
	Items       int    `json:"items"`
	Withdrawals int    `json:"withdrawals"`
	Lines       int    `json:"lines"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Field   string `json:"field,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toEmployeeDTO(e withdrawal.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:           int64(e.ID),
		EmployeeCode: e.Code,
		EmployeeName: e.Name,
		Department:   e.Department,
		CreatedAt:    formatTimestamp(e.CreatedAt),
		UpdatedAt:    formatTimestamp(e.UpdatedAt),
	}
}

func toItemDTO(it withdrawal.EquipmentItem) ItemDTO {
	return ItemDTO{
		ID:            int64(it.ID),
		Name:          it.Name,
		Unit:          it.Unit,
		StockQuantity: it.StockQuantity,
		Notes:         it.Notes,
		CreatedAt:     formatTimestamp(it.CreatedAt),
		UpdatedAt:     formatTimestamp(it.UpdatedAt),
	}
}

func toWithdrawalDTO(h withdrawal.Header) WithdrawalDTO {
	dto := WithdrawalDTO{
		ID:           int64(h.ID),
		EmployeeCode: h.Employee.Code,
		EmployeeName: h.Employee.Name,
		Department:   h.Employee.Department,
		Notes:        h.Notes,
		Reference:    h.Reference,
		CreatedAt:    formatTimestamp(h.CreatedAt),
	}
	if h.Employee.EmployeeID != nil {
		id := int64(*h.Employee.EmployeeID)
		dto.EmployeeID = &id
	}
	return dto
}

func toTransactionGroupDTO(g withdrawal.TransactionGroup) TransactionGroupDTO {
	items := make([]GroupItemDTO, len(g.Items))
	for i, it := range g.Items {
		items[i] = GroupItemDTO{
			EquipmentItemID: int64(it.ItemID),
			Name:            it.Name,
			Unit:            it.Unit,
			Quantity:        it.Quantity,
		}
	}
	return TransactionGroupDTO{WithdrawalDTO: toWithdrawalDTO(g.Header), Items: items}
}

func toStockRowDTO(r withdrawal.StockRow) StockRowDTO {
	return StockRowDTO{
		ID:                int64(r.Item.ID),
		Name:              r.Item.Name,
		Unit:              r.Item.Unit,
		Notes:             r.Item.Notes,
		StockQuantity:     r.StockQuantity,
		WithdrawnQuantity: r.WithdrawnQuantity,
		RemainingQuantity: r.RemainingQuantity,
		OverIssued:        r.OverIssued(),
	}
}

func toEmployeeSummaryDTO(s withdrawal.EmployeeSummary) EmployeeSummaryDTO {
	return EmployeeSummaryDTO{
		EmployeeCode:       s.EmployeeCode,
		EmployeeName:       s.EmployeeName,
		Department:         s.Department,
		EquipmentItemID:    int64(s.ItemID),
		EquipmentName:      s.EquipmentName,
		Unit:               s.Unit,
		TotalQuantity:      s.TotalQuantity,
		WithdrawalCount:    s.WithdrawalCount,
		LastWithdrawalDate: formatTimestamp(s.LastWithdrawalDate),
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
