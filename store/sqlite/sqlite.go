/*
Package sqlite provides a SQLite-backed implementation of the withdrawal ports.

PURPOSE:
  Implements withdrawal.Store, withdrawal.Catalog and withdrawal.Directory
  with SQLite.

KEY TABLES:
  employees:              Directory master data (employee_code UNIQUE)
  equipment_items:        Catalog master data (stock_quantity = initial stock)
  equipment_withdrawals:  Withdrawal headers with the employee snapshot
  withdrawal_items:       Withdrawal lines (FK to header and to item)

APPEND-ONLY ENFORCEMENT:
  - No UPDATE or DELETE statements on equipment_withdrawals/withdrawal_items
  - Header and lines are inserted in one SQL transaction
  - equipment_withdrawals.employee_id has no foreign key, so deleting an
    employee never touches history
  - withdrawal_items.equipment_item_id is ON DELETE RESTRICT, so a catalog
    item with withdrawals cannot be deleted

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite is opened in WAL mode.
  ":memory:" databases are pinned to a single connection so every query sees
  the same database.

USAGE:
  store, err := sqlite.New("./data/equipment.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := withdrawal.NewLedger(store, store, logger)
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/warp/equipment-ledger/withdrawal"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Stats counts rows per table.
type Stats struct {
	Employees   int
	Items       int
	Withdrawals int
	Lines       int
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_code TEXT NOT NULL UNIQUE,
		employee_name TEXT NOT NULL,
		department TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS equipment_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		unit TEXT NOT NULL,
		stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_equipment_items_name
		ON equipment_items(name COLLATE NOCASE);

	-- Withdrawal headers (append-only). Employee fields are a snapshot.
	CREATE TABLE IF NOT EXISTS equipment_withdrawals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER,
		employee_code TEXT NOT NULL,
		employee_name TEXT NOT NULL,
		department TEXT NOT NULL,
		notes TEXT,
		reference TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_withdrawals_employee_code
		ON equipment_withdrawals(employee_code);
	CREATE INDEX IF NOT EXISTS idx_withdrawals_created_at
		ON equipment_withdrawals(created_at DESC);

	-- Withdrawal lines (append-only)
	CREATE TABLE IF NOT EXISTS withdrawal_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		withdrawal_id INTEGER NOT NULL
			REFERENCES equipment_withdrawals(id) ON DELETE CASCADE,
		equipment_item_id INTEGER NOT NULL
			REFERENCES equipment_items(id) ON DELETE RESTRICT,
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_withdrawal_items_withdrawal
		ON withdrawal_items(withdrawal_id);
	CREATE INDEX IF NOT EXISTS idx_withdrawal_items_item
		ON withdrawal_items(equipment_item_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// LEDGER (withdrawal.Store interface)
// =============================================================================

// AppendWithdrawal inserts the header and all lines in one transaction.
func (s *Store) AppendWithdrawal(ctx context.Context, header withdrawal.Header, lines []withdrawal.Line) (withdrawal.Header, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return withdrawal.Header{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	id, err := s.insertHeader(ctx, sqlTx, header)
	if err != nil {
		return withdrawal.Header{}, err
	}
	header.ID = id

	for i, line := range lines {
		line.WithdrawalID = id
		if err := s.insertLine(ctx, sqlTx, line); err != nil {
			return withdrawal.Header{}, fmt.Errorf("line %d: %w", i, err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return withdrawal.Header{}, fmt.Errorf("failed to commit withdrawal: %w", err)
	}
	return header, nil
}

func (s *Store) insertHeader(ctx context.Context, tx *sql.Tx, h withdrawal.Header) (withdrawal.WithdrawalID, error) {
	var employeeID sql.NullInt64
	if h.Employee.EmployeeID != nil {
		employeeID = sql.NullInt64{Int64: int64(*h.Employee.EmployeeID), Valid: true}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO equipment_withdrawals
		(employee_id, employee_code, employee_name, department, notes, reference, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		employeeID,
		h.Employee.Code,
		h.Employee.Name,
		h.Employee.Department,
		nullStringPtr(h.Notes),
		h.Reference,
		formatTime(h.CreatedAt),
	)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintUnique) {
			dup := &withdrawal.DuplicateSubmissionError{Reference: h.Reference}
			err := tx.QueryRowContext(ctx, "SELECT id FROM equipment_withdrawals WHERE reference = ?", h.Reference).Scan(&dup.ExistingID)
			if err != nil {
				return 0, fmt.Errorf("failed to look up duplicate reference %q: %w", h.Reference, err)
			}
			return 0, dup
		}
		return 0, fmt.Errorf("failed to insert withdrawal: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read withdrawal id: %w", err)
	}
	return withdrawal.WithdrawalID(id), nil
}

func (s *Store) insertLine(ctx context.Context, db execer, l withdrawal.Line) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO withdrawal_items (withdrawal_id, equipment_item_id, quantity, created_at)
		VALUES (?, ?, ?, ?)`,
		l.WithdrawalID, l.ItemID, l.Quantity, formatTime(l.CreatedAt),
	)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
			return fmt.Errorf("%w %d", withdrawal.ErrUnknownItem, l.ItemID)
		}
		return fmt.Errorf("failed to insert withdrawal line: %w", err)
	}
	return nil
}

const headerColumns = `id, employee_id, employee_code, employee_name, department, notes, reference, created_at`

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// LoadHeaders returns every header ordered by id.
func (s *Store) LoadHeaders(ctx context.Context) ([]withdrawal.Header, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryHeaders(ctx, s.db)
}

// LoadLedger reads headers and lines inside one read-only transaction.
func (s *Store) LoadLedger(ctx context.Context) ([]withdrawal.Header, []withdrawal.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer sqlTx.Rollback()

	headers, err := queryHeaders(ctx, sqlTx)
	if err != nil {
		return nil, nil, err
	}
	lines, err := queryLines(ctx, sqlTx)
	if err != nil {
		return nil, nil, err
	}
	if err := sqlTx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to end read transaction: %w", err)
	}
	return headers, lines, nil
}

func queryHeaders(ctx context.Context, q queryer) ([]withdrawal.Header, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+headerColumns+` FROM equipment_withdrawals ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawals: %w", err)
	}
	defer rows.Close()

	var headers []withdrawal.Header
	for rows.Next() {
		h, err := scanHeader(rows)
		if err != nil {
			return nil, err
		}
		headers = append(headers, h)
	}
	return headers, rows.Err()
}

// FindByReference returns the header with the given reference, or nil.
func (s *Store) FindByReference(ctx context.Context, ref string) (*withdrawal.Header, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+headerColumns+` FROM equipment_withdrawals WHERE reference = ?`, ref)
	h, err := scanHeader(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHeader(row scanner) (withdrawal.Header, error) {
	var (
		h          withdrawal.Header
		employeeID sql.NullInt64
		notes      sql.NullString
		createdAt  string
	)
	err := row.Scan(&h.ID, &employeeID, &h.Employee.Code, &h.Employee.Name,
		&h.Employee.Department, &notes, &h.Reference, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return h, err
	}
	if err != nil {
		return h, fmt.Errorf("failed to scan withdrawal: %w", err)
	}

	if employeeID.Valid {
		id := withdrawal.EmployeeID(employeeID.Int64)
		h.Employee.EmployeeID = &id
	}
	if notes.Valid {
		n := notes.String
		h.Notes = &n
	}
	if h.CreatedAt, err = parseTime(createdAt); err != nil {
		return h, fmt.Errorf("withdrawal %d: %w", h.ID, err)
	}
	return h, nil
}

// LoadLines returns every line ordered by id, which is insertion order.
func (s *Store) LoadLines(ctx context.Context) ([]withdrawal.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryLines(ctx, s.db)
}

func queryLines(ctx context.Context, q queryer) ([]withdrawal.Line, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, withdrawal_id, equipment_item_id, quantity, created_at
		FROM withdrawal_items
		ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawal lines: %w", err)
	}
	defer rows.Close()

	var lines []withdrawal.Line
	for rows.Next() {
		var (
			l         withdrawal.Line
			createdAt string
		)
		if err := rows.Scan(&l.ID, &l.WithdrawalID, &l.ItemID, &l.Quantity, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal line: %w", err)
		}
		if l.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("withdrawal line %d: %w", l.ID, err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// =============================================================================
// CATALOG (withdrawal.Catalog interface)
// =============================================================================

const itemColumns = `id, name, unit, stock_quantity, notes, created_at, updated_at`

// ListItems returns all items in withdrawal.SortItems order. NOCASE only
// folds ASCII, so the final order is applied in Go.
func (s *Store) ListItems(ctx context.Context) ([]withdrawal.EquipmentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM equipment_items ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query equipment items: %w", err)
	}
	defer rows.Close()

	var items []withdrawal.EquipmentItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	withdrawal.SortItems(items)
	return items, nil
}

// GetItem retrieves an item by ID.
func (s *Store) GetItem(ctx context.Context, id withdrawal.ItemID) (withdrawal.EquipmentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getItem(ctx, id)
}

func (s *Store) getItem(ctx context.Context, id withdrawal.ItemID) (withdrawal.EquipmentItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM equipment_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return item, &withdrawal.NotFoundError{Kind: "item", Key: strconv.FormatInt(int64(id), 10)}
	}
	return item, err
}

func scanItem(row scanner) (withdrawal.EquipmentItem, error) {
	var (
		item                 withdrawal.EquipmentItem
		notes                sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&item.ID, &item.Name, &item.Unit, &item.StockQuantity, &notes, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return item, err
	}
	if err != nil {
		return item, fmt.Errorf("failed to scan equipment item: %w", err)
	}
	item.Notes = notes.String
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return item, err
	}
	if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return item, err
	}
	return item, nil
}

// CreateItem inserts a catalog item.
func (s *Store) CreateItem(ctx context.Context, item withdrawal.EquipmentItem) (withdrawal.EquipmentItem, error) {
	if err := withdrawal.ValidateItem(item); err != nil {
		return withdrawal.EquipmentItem{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO equipment_items (name, unit, stock_quantity, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(item.Name), strings.TrimSpace(item.Unit), item.StockQuantity,
		nullString(item.Notes), formatTime(now), formatTime(now),
	)
	if err != nil {
		return withdrawal.EquipmentItem{}, fmt.Errorf("failed to insert equipment item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return withdrawal.EquipmentItem{}, err
	}
	return s.getItem(ctx, withdrawal.ItemID(id))
}

// UpdateItem changes name, unit, stock quantity and notes.
func (s *Store) UpdateItem(ctx context.Context, item withdrawal.EquipmentItem) (withdrawal.EquipmentItem, error) {
	if err := withdrawal.ValidateItem(item); err != nil {
		return withdrawal.EquipmentItem{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE equipment_items
		SET name = ?, unit = ?, stock_quantity = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		strings.TrimSpace(item.Name), strings.TrimSpace(item.Unit), item.StockQuantity,
		nullString(item.Notes), formatTime(time.Now().UTC()), item.ID,
	)
	if err != nil {
		return withdrawal.EquipmentItem{}, fmt.Errorf("failed to update equipment item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return withdrawal.EquipmentItem{}, &withdrawal.NotFoundError{Kind: "item", Key: strconv.FormatInt(int64(item.ID), 10)}
	}
	return s.getItem(ctx, item.ID)
}

// DeleteItem removes an item that no withdrawal references.
func (s *Store) DeleteItem(ctx context.Context, id withdrawal.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM equipment_items WHERE id = ?", id)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
			return withdrawal.ErrItemInUse
		}
		return fmt.Errorf("failed to delete equipment item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &withdrawal.NotFoundError{Kind: "item", Key: strconv.FormatInt(int64(id), 10)}
	}
	return nil
}

// =============================================================================
// DIRECTORY (withdrawal.Directory interface)
// =============================================================================

const employeeColumns = `id, employee_code, employee_name, department, created_at, updated_at`

// FindEmployeeByCode looks an employee up by exact code.
func (s *Store) FindEmployeeByCode(ctx context.Context, code string) (withdrawal.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	code = strings.TrimSpace(code)
	row := s.db.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE employee_code = ?`, code)
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return emp, &withdrawal.NotFoundError{Kind: "employee", Key: code}
	}
	return emp, err
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id withdrawal.EmployeeID) (withdrawal.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getEmployee(ctx, id)
}

func (s *Store) getEmployee(ctx context.Context, id withdrawal.EmployeeID) (withdrawal.Employee, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return emp, &withdrawal.NotFoundError{Kind: "employee", Key: strconv.FormatInt(int64(id), 10)}
	}
	return emp, err
}

// ListEmployees returns all employees ordered by code.
func (s *Store) ListEmployees(ctx context.Context) ([]withdrawal.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY employee_code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []withdrawal.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func scanEmployee(row scanner) (withdrawal.Employee, error) {
	var (
		emp                  withdrawal.Employee
		createdAt, updatedAt string
	)
	err := row.Scan(&emp.ID, &emp.Code, &emp.Name, &emp.Department, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return emp, err
	}
	if err != nil {
		return emp, fmt.Errorf("failed to scan employee: %w", err)
	}
	if emp.CreatedAt, err = parseTime(createdAt); err != nil {
		return emp, err
	}
	if emp.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return emp, err
	}
	return emp, nil
}

// CreateEmployee inserts an employee. The code must be unused.
func (s *Store) CreateEmployee(ctx context.Context, emp withdrawal.Employee) (withdrawal.Employee, error) {
	if err := withdrawal.ValidateEmployee(emp); err != nil {
		return withdrawal.Employee{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (employee_code, employee_name, department, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		strings.TrimSpace(emp.Code), strings.TrimSpace(emp.Name), strings.TrimSpace(emp.Department),
		formatTime(now), formatTime(now),
	)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintUnique) {
			return withdrawal.Employee{}, withdrawal.ErrDuplicateEmployeeCode
		}
		return withdrawal.Employee{}, fmt.Errorf("failed to insert employee: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return withdrawal.Employee{}, err
	}
	return s.getEmployee(ctx, withdrawal.EmployeeID(id))
}

// UpdateEmployee changes code, name and department. Existing withdrawal
// headers keep their snapshot.
func (s *Store) UpdateEmployee(ctx context.Context, emp withdrawal.Employee) (withdrawal.Employee, error) {
	if err := withdrawal.ValidateEmployee(emp); err != nil {
		return withdrawal.Employee{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE employees
		SET employee_code = ?, employee_name = ?, department = ?, updated_at = ?
		WHERE id = ?`,
		strings.TrimSpace(emp.Code), strings.TrimSpace(emp.Name), strings.TrimSpace(emp.Department),
		formatTime(time.Now().UTC()), emp.ID,
	)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintUnique) {
			return withdrawal.Employee{}, withdrawal.ErrDuplicateEmployeeCode
		}
		return withdrawal.Employee{}, fmt.Errorf("failed to update employee: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return withdrawal.Employee{}, &withdrawal.NotFoundError{Kind: "employee", Key: strconv.FormatInt(int64(emp.ID), 10)}
	}
	return s.getEmployee(ctx, emp.ID)
}

// DeleteEmployee removes an employee. Withdrawal history is untouched.
func (s *Store) DeleteEmployee(ctx context.Context, id withdrawal.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &withdrawal.NotFoundError{Kind: "employee", Key: strconv.FormatInt(int64(id), 10)}
	}
	return nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"withdrawal_items", "equipment_withdrawals", "equipment_items", "employees"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Stats counts rows in every table.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM employees),
			(SELECT COUNT(*) FROM equipment_items),
			(SELECT COUNT(*) FROM equipment_withdrawals),
			(SELECT COUNT(*) FROM withdrawal_items)`,
	).Scan(&st.Employees, &st.Items, &st.Withdrawals, &st.Lines)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count rows: %w", err)
	}
	return st, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return nullString(*s)
}

func isConstraint(err error, code sqlite3.ErrNoExtended) bool {
	var sqlErr sqlite3.Error
	return errors.As(err, &sqlErr) && sqlErr.ExtendedCode == code
}
