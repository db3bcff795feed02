/*
stock.go - Stock reconciliation

  remaining(i) = stock_quantity(i) - sum(quantity of every line for i)

The sum runs over the entire ledger. There is no running counter to drift,
no retention window and no clamping: a negative remaining is the visible
over-issuance signal.
*/
package withdrawal

import (
	"sort"

	"golang.org/x/text/cases"
)

// ComputeStock derives the stock table from the catalog and every ledger line.
// Rows are ordered by item name, case-insensitively, then by ID.
func ComputeStock(items []EquipmentItem, lines []Line) []StockRow {
	withdrawn := make(map[ItemID]int64, len(items))
	for _, line := range lines {
		withdrawn[line.ItemID] += line.Quantity
	}

	rows := make([]StockRow, len(items))
	for i, item := range items {
		w := withdrawn[item.ID]
		rows[i] = StockRow{
			Item:              item,
			StockQuantity:     item.StockQuantity,
			WithdrawnQuantity: w,
			RemainingQuantity: item.StockQuantity - w,
		}
	}

	keys := nameKeys(items)
	sort.SliceStable(rows, func(a, b int) bool {
		ka, kb := keys[rows[a].Item.ID], keys[rows[b].Item.ID]
		if ka != kb {
			return ka < kb
		}
		return rows[a].Item.ID < rows[b].Item.ID
	})
	return rows
}

// SortItems orders a catalog listing by case-folded name, then ID. Every
// Catalog implementation lists items in this order.
func SortItems(items []EquipmentItem) {
	keys := nameKeys(items)
	sort.SliceStable(items, func(a, b int) bool {
		ka, kb := keys[items[a].ID], keys[items[b].ID]
		if ka != kb {
			return ka < kb
		}
		return items[a].ID < items[b].ID
	})
}

// nameKeys case-folds item names for ordering. A Caser is stateful, so each
// call gets its own.
func nameKeys(items []EquipmentItem) map[ItemID]string {
	fold := cases.Fold()
	keys := make(map[ItemID]string, len(items))
	for _, item := range items {
		keys[item.ID] = fold.String(item.Name)
	}
	return keys
}
