package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/equipment-ledger/withdrawal"
	"github.com/warp/equipment-ledger/withdrawal/store"
)

func header(ref string) withdrawal.Header {
	return withdrawal.Header{
		Employee:  withdrawal.EmployeeSnapshot{Code: "E001", Name: "Ana", Department: "Ops"},
		Reference: ref,
		CreatedAt: time.Date(2025, time.May, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestMemory_AppendAssignsIDs(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	item, err := mem.CreateItem(ctx, withdrawal.EquipmentItem{Name: "Pen", Unit: "piece", StockQuantity: 5})
	require.NoError(t, err)

	h, err := mem.AppendWithdrawal(ctx, header("r1"), []withdrawal.Line{
		{ItemID: item.ID, Quantity: 1},
		{ItemID: item.ID, Quantity: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, withdrawal.WithdrawalID(1), h.ID)

	lines, err := mem.LoadLines(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, withdrawal.LineID(1), lines[0].ID)
	assert.Equal(t, withdrawal.LineID(2), lines[1].ID)
	assert.Equal(t, h.ID, lines[1].WithdrawalID)

	found, err := mem.FindByReference(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, h.ID, found.ID)

	missing, err := mem.FindByReference(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemory_FailedAppendRestoresState(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	item, err := mem.CreateItem(ctx, withdrawal.EquipmentItem{Name: "Pen", Unit: "piece", StockQuantity: 5})
	require.NoError(t, err)

	_, err = mem.AppendWithdrawal(ctx, header("r1"), []withdrawal.Line{{ItemID: item.ID, Quantity: 1}, {ItemID: 42, Quantity: 1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, withdrawal.ErrUnknownItem))

	headers, _ := mem.LoadHeaders(ctx)
	lines, _ := mem.LoadLines(ctx)
	assert.Empty(t, headers)
	assert.Empty(t, lines)

	// The reference is free again and IDs restart where they were.
	h, err := mem.AppendWithdrawal(ctx, header("r1"), []withdrawal.Line{{ItemID: item.ID, Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, withdrawal.WithdrawalID(1), h.ID)
}

func TestMemory_DuplicateReference(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	item, err := mem.CreateItem(ctx, withdrawal.EquipmentItem{Name: "Pen", Unit: "piece"})
	require.NoError(t, err)

	first, err := mem.AppendWithdrawal(ctx, header("r1"), []withdrawal.Line{{ItemID: item.ID, Quantity: 1}})
	require.NoError(t, err)

	_, err = mem.AppendWithdrawal(ctx, header("r1"), []withdrawal.Line{{ItemID: item.ID, Quantity: 1}})
	var dup *withdrawal.DuplicateSubmissionError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.ID, dup.ExistingID)
}

func TestMemory_Catalog(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	_, err := mem.CreateItem(ctx, withdrawal.EquipmentItem{Name: "", Unit: "piece"})
	assert.True(t, errors.Is(err, withdrawal.ErrValidation))

	pen, err := mem.CreateItem(ctx, withdrawal.EquipmentItem{Name: "Pen", Unit: "piece", StockQuantity: 5})
	require.NoError(t, err)
	_, err = mem.CreateItem(ctx, withdrawal.EquipmentItem{Name: "Glove", Unit: "pair", StockQuantity: 2})
	require.NoError(t, err)

	items, err := mem.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Glove", items[0].Name)

	pen.StockQuantity = 60
	updated, err := mem.UpdateItem(ctx, pen)
	require.NoError(t, err)
	assert.Equal(t, int64(60), updated.StockQuantity)

	_, err = mem.AppendWithdrawal(ctx, header("r1"), []withdrawal.Line{{ItemID: pen.ID, Quantity: 1}})
	require.NoError(t, err)
	assert.ErrorIs(t, mem.DeleteItem(ctx, pen.ID), withdrawal.ErrItemInUse)

	_, err = mem.GetItem(ctx, 99)
	assert.True(t, withdrawal.IsNotFound(err))
}

func TestMemory_Directory(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	ana, err := mem.CreateEmployee(ctx, withdrawal.Employee{Code: "E001", Name: "Ana", Department: "Ops"})
	require.NoError(t, err)
	ben, err := mem.CreateEmployee(ctx, withdrawal.Employee{Code: "E002", Name: "Ben", Department: "Ops"})
	require.NoError(t, err)

	_, err = mem.CreateEmployee(ctx, withdrawal.Employee{Code: "E001", Name: "Other", Department: "Ops"})
	assert.ErrorIs(t, err, withdrawal.ErrDuplicateEmployeeCode)

	ben.Code = ana.Code
	_, err = mem.UpdateEmployee(ctx, ben)
	assert.ErrorIs(t, err, withdrawal.ErrDuplicateEmployeeCode)

	found, err := mem.FindEmployeeByCode(ctx, "E001")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, found.ID)

	require.NoError(t, mem.DeleteEmployee(ctx, ana.ID))
	_, err = mem.FindEmployeeByCode(ctx, "E001")
	assert.True(t, withdrawal.IsNotFound(err))
}

func TestMemory_LoadLedger(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	item, err := mem.CreateItem(ctx, withdrawal.EquipmentItem{Name: "Pen", Unit: "piece", StockQuantity: 5})
	require.NoError(t, err)
	h, err := mem.AppendWithdrawal(ctx, header("r1"), []withdrawal.Line{{ItemID: item.ID, Quantity: 1}, {ItemID: item.ID, Quantity: 3}})
	require.NoError(t, err)

	headers, lines, err := mem.LoadLedger(ctx)
	require.NoError(t, err)
	require.Len(t, headers, 1)
	require.Len(t, lines, 2)
	assert.Equal(t, h.ID, lines[0].WithdrawalID)

	// The returned slices are copies.
	headers[0].Reference = "changed"
	again, _, err := mem.LoadLedger(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r1", again[0].Reference)
}

func TestMemory_ListItemsIgnoresCase(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	for _, name := range []string{"glove", "Helmet", "apron", "Glove"} {
		_, err := mem.CreateItem(ctx, withdrawal.EquipmentItem{Name: name, Unit: "piece"})
		require.NoError(t, err)
	}

	items, err := mem.ListItems(ctx)
	require.NoError(t, err)

	var names []string
	for _, item := range items {
		names = append(names, item.Name)
	}
	assert.Equal(t, []string{"apron", "glove", "Glove", "Helmet"}, names)
}

func TestStockCache_Generations(t *testing.T) {
	cache := store.NewStockCache()
	ctx := context.Background()
	rows := []withdrawal.StockRow{{Item: withdrawal.EquipmentItem{ID: 1, Name: "Pen"}, StockQuantity: 5, RemainingQuantity: 5}}

	gen, err := cache.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, cache.Set(ctx, gen, rows))

	got, hit, err := cache.Get(ctx, gen)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, rows, got)

	require.NoError(t, cache.Invalidate(ctx))
	_, hit, err = cache.Get(ctx, gen)
	require.NoError(t, err)
	assert.False(t, hit)

	// A report computed before the invalidation is dropped.
	require.NoError(t, cache.Set(ctx, gen, rows))
	current, err := cache.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, gen+1, current)
	_, hit, err = cache.Get(ctx, current)
	require.NoError(t, err)
	assert.False(t, hit)
}
