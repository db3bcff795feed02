/*
Package withdrawal provides the equipment withdrawal ledger engine.

PURPOSE:
  Tracks issuance of finite-stock equipment to employees. A withdrawal is one
  transaction naming one employee and one or more equipment lines. From the
  full history of withdrawals the engine answers two questions:
    - How much of item X remains?
    - What has employee Y taken, in total and per visit?

KEY CONCEPTS IN THIS FILE (types.go):
  - EquipmentItem: catalog master data (initial stock, never decremented)
  - Employee: directory master data
  - EmployeeSnapshot: point-in-time copy of employee fields on a header
  - Header / Line: the two ledger record kinds
  - StockRow, TransactionGroup, EmployeeSummary: read-side projections

DESIGN PRINCIPLES:
  1. Append-only: headers and lines are never updated or deleted
  2. Derived stock: remaining = stock_quantity - sum(lines), recomputed on read
  3. Snapshots: employee fields are copied at commit time, never re-synced
  4. Atomicity: a header and its lines become visible together or not at all

SEE ALSO:
  - ledger.go: Record and the read-side operations
  - stock.go: Stock reconciliation
  - summary.go: Transaction grouping and employee totals
  - store.go: Persistence ports
*/
package withdrawal

import "time"

// =============================================================================
// IDENTITIES
// =============================================================================

type (
	ItemID       int64
	EmployeeID   int64
	WithdrawalID int64
	LineID       int64
)

// =============================================================================
// MASTER DATA - Owned by the Catalog and Directory services
// =============================================================================

// EquipmentItem is a catalog entry. StockQuantity is the initial stock; the
// ledger never decrements it.
type EquipmentItem struct {
	ID            ItemID
	Name          string
	Unit          string
	StockQuantity int64
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Employee is a directory entry, looked up by Code.
type Employee struct {
	ID         EmployeeID
	Code       string
	Name       string
	Department string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Snapshot copies the employee fields a header needs.
func (e Employee) Snapshot() EmployeeSnapshot {
	id := e.ID
	return EmployeeSnapshot{
		EmployeeID: &id,
		Code:       e.Code,
		Name:       e.Name,
		Department: e.Department,
	}
}

// EmployeeSnapshot is the employee as known at withdrawal time.
// EmployeeID is nil when the code was typed freely and never resolved.
type EmployeeSnapshot struct {
	EmployeeID *EmployeeID
	Code       string
	Name       string
	Department string
}

// =============================================================================
// LEDGER RECORDS
// =============================================================================

// Header is the transaction-level record of a withdrawal. Immutable.
type Header struct {
	ID        WithdrawalID
	Employee  EmployeeSnapshot
	Notes     *string
	Reference string
	CreatedAt time.Time
}

// Line is one item+quantity entry belonging to exactly one header.
type Line struct {
	ID           LineID
	WithdrawalID WithdrawalID
	ItemID       ItemID
	Quantity     int64
	CreatedAt    time.Time
}

// LineInput is a caller-supplied line before it is committed.
type LineInput struct {
	ItemID   ItemID
	Quantity int64
}

// NewWithdrawal is the input to Ledger.Record.
type NewWithdrawal struct {
	Employee EmployeeSnapshot
	Lines    []LineInput
	Notes    *string

	// Reference identifies the submission. Empty means the ledger generates one.
	Reference string
}

// =============================================================================
// PROJECTIONS - Read-side views, recomputed on every read
// =============================================================================

// StockRow is one line of the remaining-stock table.
// RemainingQuantity may be negative: that is over-issuance, not an error.
type StockRow struct {
	Item              EquipmentItem
	StockQuantity     int64
	WithdrawnQuantity int64
	RemainingQuantity int64
}

// OverIssued reports whether more was withdrawn than was ever stocked.
func (r StockRow) OverIssued() bool { return r.RemainingQuantity < 0 }

// GroupItem is a line joined to its catalog item.
type GroupItem struct {
	ItemID   ItemID
	Name     string
	Unit     string
	Quantity int64
}

// TransactionGroup is a header with all of its lines.
type TransactionGroup struct {
	Header Header
	Items  []GroupItem
}

// EmployeeSummary totals one employee's withdrawals of one equipment item.
type EmployeeSummary struct {
	EmployeeCode       string
	EmployeeName       string
	Department         string
	ItemID             ItemID
	EquipmentName      string
	Unit               string
	TotalQuantity      int64
	WithdrawalCount    int
	LastWithdrawalDate time.Time
}
