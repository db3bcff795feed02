/*
summary.go - Read-side aggregation over the ledger

TWO PROJECTIONS:
  GroupTransactions:  header + its lines, newest transaction first
  SummarizeEmployees: one row per (employee_code, equipment item)

Both are recomputed from scratch on every read. Employee fields always come
from the header snapshots, never from a live directory lookup, so editing or
deleting an employee does not rewrite history.
*/
package withdrawal

import (
	"fmt"
	"sort"

	"golang.org/x/text/cases"
)

// GroupTransactions joins lines to their headers and catalog items.
//
// Each group keeps its lines in insertion order. Groups are ordered by
// CreatedAt descending, ties broken by header ID descending. A line pointing
// at a missing header or item is reported as an error.
func GroupTransactions(headers []Header, lines []Line, items []EquipmentItem) ([]TransactionGroup, error) {
	itemByID := indexItems(items)

	groups := make([]TransactionGroup, len(headers))
	pos := make(map[WithdrawalID]int, len(headers))
	for i, h := range headers {
		groups[i] = TransactionGroup{Header: h, Items: []GroupItem{}}
		pos[h.ID] = i
	}

	for _, line := range lines {
		i, ok := pos[line.WithdrawalID]
		if !ok {
			return nil, &PersistenceError{
				Op:  "group_by_transaction",
				Err: fmt.Errorf("line %d references missing withdrawal %d", line.ID, line.WithdrawalID),
			}
		}
		item, ok := itemByID[line.ItemID]
		if !ok {
			return nil, &PersistenceError{
				Op:  "group_by_transaction",
				Err: fmt.Errorf("line %d: %w %d", line.ID, ErrUnknownItem, line.ItemID),
			}
		}
		groups[i].Items = append(groups[i].Items, GroupItem{
			ItemID:   item.ID,
			Name:     item.Name,
			Unit:     item.Unit,
			Quantity: line.Quantity,
		})
	}

	sort.SliceStable(groups, func(a, b int) bool {
		ha, hb := groups[a].Header, groups[b].Header
		if !ha.CreatedAt.Equal(hb.CreatedAt) {
			return ha.CreatedAt.After(hb.CreatedAt)
		}
		return ha.ID > hb.ID
	})
	return groups, nil
}

type summaryKey struct {
	code string
	item ItemID
}

type summaryAcc struct {
	row     EmployeeSummary
	headers map[WithdrawalID]struct{}
}

// SummarizeEmployees totals lines per (employee_code, item).
//
// WithdrawalCount counts distinct headers, not lines. Name and department
// come from the most recent contributing header. Rows are ordered by
// employee name (case-insensitive), then code, then equipment name, then
// item ID.
func SummarizeEmployees(headers []Header, lines []Line, items []EquipmentItem) ([]EmployeeSummary, error) {
	itemByID := indexItems(items)
	headerByID := make(map[WithdrawalID]Header, len(headers))
	for _, h := range headers {
		headerByID[h.ID] = h
	}

	accs := make(map[summaryKey]*summaryAcc)
	var order []summaryKey
	for _, line := range lines {
		h, ok := headerByID[line.WithdrawalID]
		if !ok {
			return nil, &PersistenceError{
				Op:  "summarize_by_employee",
				Err: fmt.Errorf("line %d references missing withdrawal %d", line.ID, line.WithdrawalID),
			}
		}
		item, ok := itemByID[line.ItemID]
		if !ok {
			return nil, &PersistenceError{
				Op:  "summarize_by_employee",
				Err: fmt.Errorf("line %d: %w %d", line.ID, ErrUnknownItem, line.ItemID),
			}
		}

		k := summaryKey{code: h.Employee.Code, item: item.ID}
		acc, ok := accs[k]
		if !ok {
			acc = &summaryAcc{
				row: EmployeeSummary{
					EmployeeCode:  h.Employee.Code,
					ItemID:        item.ID,
					EquipmentName: item.Name,
					Unit:          item.Unit,
				},
				headers: make(map[WithdrawalID]struct{}),
			}
			accs[k] = acc
			order = append(order, k)
		}

		acc.row.TotalQuantity += line.Quantity
		acc.headers[h.ID] = struct{}{}
		if acc.row.LastWithdrawalDate.IsZero() || h.CreatedAt.After(acc.row.LastWithdrawalDate) {
			acc.row.LastWithdrawalDate = h.CreatedAt
			acc.row.EmployeeName = h.Employee.Name
			acc.row.Department = h.Employee.Department
		}
	}

	rows := make([]EmployeeSummary, 0, len(order))
	for _, k := range order {
		acc := accs[k]
		acc.row.WithdrawalCount = len(acc.headers)
		rows = append(rows, acc.row)
	}

	fold := cases.Fold()
	sort.SliceStable(rows, func(a, b int) bool {
		ra, rb := rows[a], rows[b]
		if na, nb := fold.String(ra.EmployeeName), fold.String(rb.EmployeeName); na != nb {
			return na < nb
		}
		if ra.EmployeeCode != rb.EmployeeCode {
			return ra.EmployeeCode < rb.EmployeeCode
		}
		if ea, eb := fold.String(ra.EquipmentName), fold.String(rb.EquipmentName); ea != eb {
			return ea < eb
		}
		return ra.ItemID < rb.ItemID
	})
	return rows, nil
}

func indexItems(items []EquipmentItem) map[ItemID]EquipmentItem {
	m := make(map[ItemID]EquipmentItem, len(items))
	for _, item := range items {
		m[item.ID] = item
	}
	return m
}
