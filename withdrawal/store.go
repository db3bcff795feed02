/*
store.go - Persistence ports for the withdrawal engine

KEY INTERFACES:
  Store:      Ledger persistence (atomic append, full loads)
  Catalog:    Equipment item master data
  Directory:  Employee master data
  StockCache: Optional cache of the remaining-stock report

APPEND-ONLY CONTRACT:
  Store has exactly one write: AppendWithdrawal. It takes the header and all
  of its lines in one call so the engine can never issue them separately.
  There is no Update or Delete.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite
  - withdrawal/store: in-memory for tests and development, plus a StockCache
  - store/rediscache: Redis StockCache shared across server instances
*/
package withdrawal

import "context"

// Store persists withdrawal headers and lines.
type Store interface {
	// AppendWithdrawal writes header and lines atomically and returns the
	// header with its assigned ID. On error nothing was written.
	// The Line.WithdrawalID fields are ignored and set by the store.
	AppendWithdrawal(ctx context.Context, header Header, lines []Line) (Header, error)

	// LoadHeaders returns every header in insertion order.
	LoadHeaders(ctx context.Context) ([]Header, error)

	// LoadLines returns every line in insertion order.
	LoadLines(ctx context.Context) ([]Line, error)

	// LoadLedger returns headers and lines read from one snapshot, so every
	// returned line's header is among the returned headers.
	LoadLedger(ctx context.Context) ([]Header, []Line, error)

	// FindByReference returns the header holding ref, or nil.
	FindByReference(ctx context.Context, ref string) (*Header, error)
}

// Catalog owns equipment items.
type Catalog interface {
	ListItems(ctx context.Context) ([]EquipmentItem, error)
	GetItem(ctx context.Context, id ItemID) (EquipmentItem, error)
	CreateItem(ctx context.Context, item EquipmentItem) (EquipmentItem, error)
	UpdateItem(ctx context.Context, item EquipmentItem) (EquipmentItem, error)
	DeleteItem(ctx context.Context, id ItemID) error
}

// Directory owns employees. FindEmployeeByCode returns a *NotFoundError on miss.
type Directory interface {
	FindEmployeeByCode(ctx context.Context, code string) (Employee, error)
	GetEmployee(ctx context.Context, id EmployeeID) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	CreateEmployee(ctx context.Context, emp Employee) (Employee, error)
	UpdateEmployee(ctx context.Context, emp Employee) (Employee, error)
	DeleteEmployee(ctx context.Context, id EmployeeID) error
}

// StockCache holds stock reports keyed by a write generation.
//
// Invalidate advances the generation and must run after every committed
// withdrawal. A reader takes Generation before loading the ledger and passes
// it to Get and Set. Set stores the report only while that generation is
// still current; a report computed across a commit is dropped, not an error.
type StockCache interface {
	Generation(ctx context.Context) (uint64, error)
	Get(ctx context.Context, gen uint64) ([]StockRow, bool, error)
	Set(ctx context.Context, gen uint64, rows []StockRow) error
	Invalidate(ctx context.Context) error
}

// NopCache never hits.
type NopCache struct{}

func (NopCache) Generation(context.Context) (uint64, error)            { return 0, nil }
func (NopCache) Get(context.Context, uint64) ([]StockRow, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, uint64, []StockRow) error         { return nil }
func (NopCache) Invalidate(context.Context) error                      { return nil }
