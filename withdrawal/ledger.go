/*
ledger.go - The withdrawal ledger: atomic writes, derived reads

PURPOSE:
  The Ledger is the only entry point that writes withdrawals. Reads are pure
  projections over the full ledger plus the current catalog.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete.
  2. ATOMIC: a header and its N lines are committed as one unit. A failed
     Record leaves zero rows, so the caller may retry the same input.
  3. VALIDATE FIRST: malformed input is rejected before any storage call.
  4. NO WRITE-TIME STOCK CHECK: over-issuance is allowed and surfaces only in
     RemainingStock as a negative remaining quantity.

RETRIES:
  Retrying a successful Record creates a second transaction unless the
  caller pins a Reference. With a Reference, the second attempt fails with
  DuplicateSubmissionError and writes nothing.

SEE ALSO:
  - stock.go: ComputeStock
  - summary.go: GroupTransactions, SummarizeEmployees
  - store.go: Store / Catalog ports
*/
package withdrawal

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ledger records withdrawals and serves the read-side projections.
type Ledger struct {
	Store   Store
	Catalog Catalog
	Cache   StockCache
	Logger  *zap.Logger

	// Now is the commit clock. Defaults to time.Now.
	Now func() time.Time
}

// NewLedger creates a ledger without a stock cache.
func NewLedger(store Store, catalog Catalog, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		Store:   store,
		Catalog: catalog,
		Cache:   NopCache{},
		Logger:  logger,
		Now:     time.Now,
	}
}

// =============================================================================
// WRITE SIDE
// =============================================================================

// Record commits one withdrawal: one header plus one line per input line.
func (l *Ledger) Record(ctx context.Context, w NewWithdrawal) (Header, error) {
	if err := w.Validate(); err != nil {
		return Header{}, err
	}

	ref := strings.TrimSpace(w.Reference)
	if ref == "" {
		ref = uuid.NewString()
	} else {
		existing, err := l.Store.FindByReference(ctx, ref)
		if err != nil {
			return Header{}, persistence("find_by_reference", err)
		}
		if existing != nil {
			return Header{}, &DuplicateSubmissionError{Reference: ref, ExistingID: existing.ID}
		}
	}

	now := l.Now().UTC()
	header := Header{
		Employee:  w.Employee.normalized(),
		Notes:     normalizeNotes(w.Notes),
		Reference: ref,
		CreatedAt: now,
	}
	lines := make([]Line, len(w.Lines))
	for i, in := range w.Lines {
		lines[i] = Line{ItemID: in.ItemID, Quantity: in.Quantity, CreatedAt: now}
	}

	saved, err := l.Store.AppendWithdrawal(ctx, header, lines)
	if err != nil {
		var dup *DuplicateSubmissionError
		if errors.As(err, &dup) {
			return Header{}, err
		}
		return Header{}, persistence("record_withdrawal", err)
	}

	l.InvalidateStock(ctx)

	l.Logger.Info("withdrawal recorded",
		zap.Int64("withdrawal_id", int64(saved.ID)),
		zap.String("reference", saved.Reference),
		zap.String("employee_code", saved.Employee.Code),
		zap.Bool("employee_resolved", saved.Employee.EmployeeID != nil),
		zap.Int("lines", len(lines)),
	)
	return saved, nil
}

// InvalidateStock advances the stock cache generation. Record calls it after
// every commit; catalog writers must call it after changing an item.
func (l *Ledger) InvalidateStock(ctx context.Context) {
	if err := l.Cache.Invalidate(ctx); err != nil {
		l.Logger.Warn("stock cache invalidation failed", zap.Error(err))
	}
}

func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	n := strings.TrimSpace(*notes)
	if n == "" {
		return nil
	}
	return &n
}

// =============================================================================
// READ SIDE
// =============================================================================

// RemainingStock returns stock, withdrawn and remaining quantities for every
// catalog item.
func (l *Ledger) RemainingStock(ctx context.Context) ([]StockRow, error) {
	gen, err := l.Cache.Generation(ctx)
	cacheable := err == nil
	if err != nil {
		l.Logger.Warn("stock cache unavailable, recomputing", zap.Error(err))
	} else {
		rows, hit, err := l.Cache.Get(ctx, gen)
		if err != nil {
			l.Logger.Warn("stock cache read failed, recomputing", zap.Error(err))
		} else if hit {
			return rows, nil
		}
	}

	// Lines before items: an item with lines cannot be deleted.
	lines, err := l.Store.LoadLines(ctx)
	if err != nil {
		return nil, persistence("load_lines", err)
	}
	items, err := l.Catalog.ListItems(ctx)
	if err != nil {
		return nil, persistence("list_items", err)
	}

	rows := ComputeStock(items, lines)
	if cacheable {
		if err := l.Cache.Set(ctx, gen, rows); err != nil {
			l.Logger.Warn("stock cache write failed", zap.Error(err))
		}
	}
	return rows, nil
}

// GroupByTransaction returns every withdrawal with its lines, newest first.
func (l *Ledger) GroupByTransaction(ctx context.Context) ([]TransactionGroup, error) {
	headers, lines, items, err := l.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return GroupTransactions(headers, lines, items)
}

// SummarizeByEmployee returns per employee, per item totals.
func (l *Ledger) SummarizeByEmployee(ctx context.Context) ([]EmployeeSummary, error) {
	headers, lines, items, err := l.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return SummarizeEmployees(headers, lines, items)
}

func (l *Ledger) loadAll(ctx context.Context) ([]Header, []Line, []EquipmentItem, error) {
	headers, lines, err := l.Store.LoadLedger(ctx)
	if err != nil {
		return nil, nil, nil, persistence("load_ledger", err)
	}
	// Items referenced by a line cannot be deleted, so listing them after
	// the ledger covers every loaded line.
	items, err := l.Catalog.ListItems(ctx)
	if err != nil {
		return nil, nil, nil, persistence("list_items", err)
	}
	return headers, lines, items, nil
}

func persistence(op string, err error) error {
	var perr *PersistenceError
	if errors.As(err, &perr) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
