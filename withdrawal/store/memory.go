// Package store provides an in-memory implementation of the withdrawal ports.
package store

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/warp/equipment-ledger/withdrawal"
)

// =============================================================================
// MEMORY STORE - In-memory Store + Catalog + Directory (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex

	headers      []withdrawal.Header
	lines        []withdrawal.Line
	references   map[string]withdrawal.WithdrawalID
	items        map[withdrawal.ItemID]withdrawal.EquipmentItem
	employees    map[withdrawal.EmployeeID]withdrawal.Employee
	nextHeader   withdrawal.WithdrawalID
	nextLine     withdrawal.LineID
	nextItem     withdrawal.ItemID
	nextEmployee withdrawal.EmployeeID

	// failNext, when set, fails the next AppendWithdrawal after the header
	// has been written, to exercise rollback.
	failNext error
}

func NewMemory() *Memory {
	return &Memory{
		references: make(map[string]withdrawal.WithdrawalID),
		items:      make(map[withdrawal.ItemID]withdrawal.EquipmentItem),
		employees:  make(map[withdrawal.EmployeeID]withdrawal.Employee),
	}
}

// FailNextAppend makes the next AppendWithdrawal fail with err midway.
func (m *Memory) FailNextAppend(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

// =============================================================================
// LEDGER (withdrawal.Store)
// =============================================================================

// AppendWithdrawal writes the header then each line. Any failure restores
// the state captured before the header was written.
func (m *Memory) AppendWithdrawal(_ context.Context, header withdrawal.Header, lines []withdrawal.Line) (withdrawal.Header, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.references[header.Reference]; ok {
		return withdrawal.Header{}, &withdrawal.DuplicateSubmissionError{Reference: header.Reference, ExistingID: id}
	}

	snap := m.snapshot()

	m.nextHeader++
	header.ID = m.nextHeader
	m.headers = append(m.headers, header)
	m.references[header.Reference] = header.ID

	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		m.restore(snap)
		return withdrawal.Header{}, &withdrawal.PersistenceError{Op: "append_withdrawal", Err: err}
	}

	for _, line := range lines {
		if _, ok := m.items[line.ItemID]; !ok {
			m.restore(snap)
			return withdrawal.Header{}, &withdrawal.PersistenceError{Op: "append_withdrawal", Err: withdrawal.ErrUnknownItem}
		}
		m.nextLine++
		line.ID = m.nextLine
		line.WithdrawalID = header.ID
		m.lines = append(m.lines, line)
	}
	return header, nil
}

func (m *Memory) LoadHeaders(_ context.Context) ([]withdrawal.Header, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]withdrawal.Header(nil), m.headers...), nil
}

func (m *Memory) LoadLines(_ context.Context) ([]withdrawal.Line, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]withdrawal.Line(nil), m.lines...), nil
}

// LoadLedger copies headers and lines under one read lock.
func (m *Memory) LoadLedger(_ context.Context) ([]withdrawal.Header, []withdrawal.Line, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]withdrawal.Header(nil), m.headers...), append([]withdrawal.Line(nil), m.lines...), nil
}

func (m *Memory) FindByReference(_ context.Context, ref string) (*withdrawal.Header, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.references[ref]
	if !ok {
		return nil, nil
	}
	for _, h := range m.headers {
		if h.ID == id {
			h := h
			return &h, nil
		}
	}
	return nil, nil
}

type memorySnapshot struct {
	headers    int
	lines      int
	nextHeader withdrawal.WithdrawalID
	nextLine   withdrawal.LineID
	references map[string]withdrawal.WithdrawalID
}

// snapshot relies on the ledger being append-only: truncating back to the
// recorded lengths undoes any write made since.
func (m *Memory) snapshot() memorySnapshot {
	refs := make(map[string]withdrawal.WithdrawalID, len(m.references))
	for k, v := range m.references {
		refs[k] = v
	}
	return memorySnapshot{
		headers:    len(m.headers),
		lines:      len(m.lines),
		nextHeader: m.nextHeader,
		nextLine:   m.nextLine,
		references: refs,
	}
}

func (m *Memory) restore(s memorySnapshot) {
	m.headers = m.headers[:s.headers]
	m.lines = m.lines[:s.lines]
	m.nextHeader = s.nextHeader
	m.nextLine = s.nextLine
	m.references = s.references
}

// =============================================================================
// CATALOG (withdrawal.Catalog)
// =============================================================================

func (m *Memory) ListItems(_ context.Context) ([]withdrawal.EquipmentItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]withdrawal.EquipmentItem, 0, len(m.items))
	for _, item := range m.items {
		items = append(items, item)
	}
	withdrawal.SortItems(items)
	return items, nil
}

func (m *Memory) GetItem(_ context.Context, id withdrawal.ItemID) (withdrawal.EquipmentItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[id]
	if !ok {
		return withdrawal.EquipmentItem{}, &withdrawal.NotFoundError{Kind: "item", Key: strconv.FormatInt(int64(id), 10)}
	}
	return item, nil
}

func (m *Memory) CreateItem(_ context.Context, item withdrawal.EquipmentItem) (withdrawal.EquipmentItem, error) {
	if err := withdrawal.ValidateItem(item); err != nil {
		return withdrawal.EquipmentItem{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextItem++
	now := time.Now().UTC()
	item.ID = m.nextItem
	item.CreatedAt, item.UpdatedAt = now, now
	m.items[item.ID] = item
	return item, nil
}

func (m *Memory) UpdateItem(_ context.Context, item withdrawal.EquipmentItem) (withdrawal.EquipmentItem, error) {
	if err := withdrawal.ValidateItem(item); err != nil {
		return withdrawal.EquipmentItem{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.items[item.ID]
	if !ok {
		return withdrawal.EquipmentItem{}, &withdrawal.NotFoundError{Kind: "item", Key: strconv.FormatInt(int64(item.ID), 10)}
	}
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = time.Now().UTC()
	m.items[item.ID] = item
	return item, nil
}

func (m *Memory) DeleteItem(_ context.Context, id withdrawal.ItemID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return &withdrawal.NotFoundError{Kind: "item", Key: strconv.FormatInt(int64(id), 10)}
	}
	for _, line := range m.lines {
		if line.ItemID == id {
			return withdrawal.ErrItemInUse
		}
	}
	delete(m.items, id)
	return nil
}

// =============================================================================
// DIRECTORY (withdrawal.Directory)
// =============================================================================

func (m *Memory) FindEmployeeByCode(_ context.Context, code string) (withdrawal.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	code = strings.TrimSpace(code)
	for _, e := range m.employees {
		if e.Code == code {
			return e, nil
		}
	}
	return withdrawal.Employee{}, &withdrawal.NotFoundError{Kind: "employee", Key: code}
}

func (m *Memory) GetEmployee(_ context.Context, id withdrawal.EmployeeID) (withdrawal.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.employees[id]
	if !ok {
		return withdrawal.Employee{}, &withdrawal.NotFoundError{Kind: "employee", Key: strconv.FormatInt(int64(id), 10)}
	}
	return e, nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]withdrawal.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	emps := make([]withdrawal.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		emps = append(emps, e)
	}
	sort.Slice(emps, func(i, j int) bool { return emps[i].Code < emps[j].Code })
	return emps, nil
}

func (m *Memory) CreateEmployee(_ context.Context, emp withdrawal.Employee) (withdrawal.Employee, error) {
	if err := withdrawal.ValidateEmployee(emp); err != nil {
		return withdrawal.Employee{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	emp.Code = strings.TrimSpace(emp.Code)
	if m.codeTakenLocked(emp.Code, 0) {
		return withdrawal.Employee{}, withdrawal.ErrDuplicateEmployeeCode
	}
	m.nextEmployee++
	now := time.Now().UTC()
	emp.ID = m.nextEmployee
	emp.CreatedAt, emp.UpdatedAt = now, now
	m.employees[emp.ID] = emp
	return emp, nil
}

func (m *Memory) UpdateEmployee(_ context.Context, emp withdrawal.Employee) (withdrawal.Employee, error) {
	if err := withdrawal.ValidateEmployee(emp); err != nil {
		return withdrawal.Employee{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.employees[emp.ID]
	if !ok {
		return withdrawal.Employee{}, &withdrawal.NotFoundError{Kind: "employee", Key: strconv.FormatInt(int64(emp.ID), 10)}
	}
	emp.Code = strings.TrimSpace(emp.Code)
	if m.codeTakenLocked(emp.Code, emp.ID) {
		return withdrawal.Employee{}, withdrawal.ErrDuplicateEmployeeCode
	}
	emp.CreatedAt = existing.CreatedAt
	emp.UpdatedAt = time.Now().UTC()
	m.employees[emp.ID] = emp
	return emp, nil
}

func (m *Memory) DeleteEmployee(_ context.Context, id withdrawal.EmployeeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.employees[id]; !ok {
		return &withdrawal.NotFoundError{Kind: "employee", Key: strconv.FormatInt(int64(id), 10)}
	}
	delete(m.employees, id)
	return nil
}

func (m *Memory) codeTakenLocked(code string, except withdrawal.EmployeeID) bool {
	for id, e := range m.employees {
		if id != except && e.Code == code {
			return true
		}
	}
	return false
}
