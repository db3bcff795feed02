package withdrawal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/equipment-ledger/withdrawal"
)

func TestComputeStock_SumsWholeLedger(t *testing.T) {
	items := []withdrawal.EquipmentItem{
		{ID: 1, Name: "Pen", StockQuantity: 50},
		{ID: 2, Name: "Glove", StockQuantity: 2},
		{ID: 3, Name: "Helmet", StockQuantity: 10},
	}
	lines := []withdrawal.Line{
		{ID: 1, WithdrawalID: 1, ItemID: 1, Quantity: 5},
		{ID: 2, WithdrawalID: 2, ItemID: 1, Quantity: 3},
		{ID: 3, WithdrawalID: 3, ItemID: 2, Quantity: 5},
	}

	rows := withdrawal.ComputeStock(items, lines)

	require.Len(t, rows, 3)
	got := map[withdrawal.ItemID]int64{}
	for _, r := range rows {
		got[r.Item.ID] = r.RemainingQuantity
		assert.Equal(t, r.StockQuantity-r.WithdrawnQuantity, r.RemainingQuantity)
	}
	assert.Equal(t, int64(42), got[1])
	assert.Equal(t, int64(-3), got[2], "remaining is never clamped")
	assert.Equal(t, int64(10), got[3], "items without lines keep their full stock")
}

func TestComputeStock_OrdersByNameIgnoringCase(t *testing.T) {
	items := []withdrawal.EquipmentItem{
		{ID: 1, Name: "bolt"},
		{ID: 2, Name: "Anchor"},
		{ID: 3, Name: "apple"},
		{ID: 4, Name: "Bolt"},
	}

	rows := withdrawal.ComputeStock(items, nil)

	ids := make([]withdrawal.ItemID, len(rows))
	for i, r := range rows {
		ids[i] = r.Item.ID
	}
	assert.Equal(t, []withdrawal.ItemID{2, 3, 1, 4}, ids)
}

func TestComputeStock_IgnoresLinesForUnlistedItems(t *testing.T) {
	items := []withdrawal.EquipmentItem{{ID: 1, Name: "Pen", StockQuantity: 5}}
	lines := []withdrawal.Line{{ID: 1, WithdrawalID: 1, ItemID: 9, Quantity: 4}}

	rows := withdrawal.ComputeStock(items, lines)

	require.Len(t, rows, 1)
	assert.Equal(t, int64(5), rows[0].RemainingQuantity)
}

func TestComputeStock_EmptyCatalog(t *testing.T) {
	rows := withdrawal.ComputeStock(nil, nil)
	assert.Empty(t, rows)
}
