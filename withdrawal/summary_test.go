package withdrawal_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/equipment-ledger/withdrawal"
)

var (
	t0 = time.Date(2025, time.April, 1, 8, 0, 0, 0, time.UTC)

	catalog = []withdrawal.EquipmentItem{
		{ID: 1, Name: "Pen", Unit: "piece", StockQuantity: 50},
		{ID: 2, Name: "glove", Unit: "pair", StockQuantity: 2},
	}
)

func header(id withdrawal.WithdrawalID, code, name, dept string, at time.Time) withdrawal.Header {
	return withdrawal.Header{
		ID:        id,
		Employee:  withdrawal.EmployeeSnapshot{Code: code, Name: name, Department: dept},
		Reference: "ref",
		CreatedAt: at,
	}
}

// =============================================================================
// GroupTransactions
// =============================================================================

func TestGroupTransactions_NewestFirst(t *testing.T) {
	headers := []withdrawal.Header{
		header(1, "E001", "Ana", "Ops", t0),
		header(2, "E002", "Ben", "Ops", t0.Add(time.Hour)),
		header(3, "E001", "Ana", "Ops", t0.Add(time.Hour)),
	}
	lines := []withdrawal.Line{
		{ID: 1, WithdrawalID: 1, ItemID: 1, Quantity: 5},
		{ID: 2, WithdrawalID: 2, ItemID: 2, Quantity: 1},
		{ID: 3, WithdrawalID: 3, ItemID: 1, Quantity: 2},
		{ID: 4, WithdrawalID: 3, ItemID: 2, Quantity: 3},
	}

	groups, err := withdrawal.GroupTransactions(headers, lines, catalog)

	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, withdrawal.WithdrawalID(3), groups[0].Header.ID, "same timestamp: higher id first")
	assert.Equal(t, withdrawal.WithdrawalID(2), groups[1].Header.ID)
	assert.Equal(t, withdrawal.WithdrawalID(1), groups[2].Header.ID)

	require.Len(t, groups[0].Items, 2)
	assert.Equal(t, withdrawal.GroupItem{ItemID: 1, Name: "Pen", Unit: "piece", Quantity: 2}, groups[0].Items[0])
	assert.Equal(t, withdrawal.GroupItem{ItemID: 2, Name: "glove", Unit: "pair", Quantity: 3}, groups[0].Items[1])
}

func TestGroupTransactions_HeaderWithoutLines(t *testing.T) {
	headers := []withdrawal.Header{header(1, "E001", "Ana", "Ops", t0)}

	groups, err := withdrawal.GroupTransactions(headers, nil, catalog)

	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.NotNil(t, groups[0].Items)
	assert.Empty(t, groups[0].Items)
}

func TestGroupTransactions_InconsistentLedger(t *testing.T) {
	headers := []withdrawal.Header{header(1, "E001", "Ana", "Ops", t0)}

	t.Run("orphan line", func(t *testing.T) {
		lines := []withdrawal.Line{{ID: 1, WithdrawalID: 7, ItemID: 1, Quantity: 1}}
		_, err := withdrawal.GroupTransactions(headers, lines, catalog)

		require.Error(t, err)
		var perr *withdrawal.PersistenceError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "group_by_transaction", perr.Op)
	})

	t.Run("unknown item", func(t *testing.T) {
		lines := []withdrawal.Line{{ID: 1, WithdrawalID: 1, ItemID: 9, Quantity: 1}}
		_, err := withdrawal.GroupTransactions(headers, lines, catalog)

		require.Error(t, err)
		assert.True(t, errors.Is(err, withdrawal.ErrUnknownItem))
		assert.True(t, errors.Is(err, withdrawal.ErrPersistence))
	})
}

// =============================================================================
// SummarizeEmployees
// =============================================================================

func TestSummarizeEmployees_TotalsAndCounts(t *testing.T) {
	headers := []withdrawal.Header{
		header(1, "E001", "Ana", "Ops", t0),
		header(2, "E001", "Ana", "Ops", t0.Add(24*time.Hour)),
	}
	lines := []withdrawal.Line{
		{ID: 1, WithdrawalID: 1, ItemID: 1, Quantity: 5},
		{ID: 2, WithdrawalID: 2, ItemID: 1, Quantity: 3},
		{ID: 3, WithdrawalID: 2, ItemID: 1, Quantity: 1},
	}

	rows, err := withdrawal.SummarizeEmployees(headers, lines, catalog)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(9), rows[0].TotalQuantity)
	assert.Equal(t, 2, rows[0].WithdrawalCount, "counts distinct withdrawals, not lines")
	assert.Equal(t, t0.Add(24*time.Hour), rows[0].LastWithdrawalDate)
	assert.Equal(t, "Pen", rows[0].EquipmentName)
	assert.Equal(t, "piece", rows[0].Unit)
}

func TestSummarizeEmployees_UsesLatestSnapshot(t *testing.T) {
	// GIVEN: E001 changed department between two withdrawals
	// WHEN: Summarizing
	// THEN: the row shows the most recent name and department

	headers := []withdrawal.Header{
		header(2, "E001", "Ana Souza", "Logistics", t0.Add(time.Hour)),
		header(1, "E001", "Ana", "Ops", t0),
	}
	lines := []withdrawal.Line{
		{ID: 1, WithdrawalID: 1, ItemID: 1, Quantity: 1},
		{ID: 2, WithdrawalID: 2, ItemID: 1, Quantity: 1},
	}

	rows, err := withdrawal.SummarizeEmployees(headers, lines, catalog)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana Souza", rows[0].EmployeeName)
	assert.Equal(t, "Logistics", rows[0].Department)
}

func TestSummarizeEmployees_Ordering(t *testing.T) {
	headers := []withdrawal.Header{
		header(1, "E003", "carla", "Ops", t0),
		header(2, "E002", "Ben", "Ops", t0),
		header(3, "E001", "Ben", "Ops", t0),
	}
	lines := []withdrawal.Line{
		{ID: 1, WithdrawalID: 1, ItemID: 1, Quantity: 1},
		{ID: 2, WithdrawalID: 2, ItemID: 1, Quantity: 1},
		{ID: 3, WithdrawalID: 2, ItemID: 2, Quantity: 1},
		{ID: 4, WithdrawalID: 3, ItemID: 1, Quantity: 1},
	}

	rows, err := withdrawal.SummarizeEmployees(headers, lines, catalog)

	require.NoError(t, err)
	type key struct {
		code string
		item string
	}
	got := make([]key, len(rows))
	for i, r := range rows {
		got[i] = key{r.EmployeeCode, r.EquipmentName}
	}
	assert.Equal(t, []key{
		{"E001", "Pen"},
		{"E002", "glove"},
		{"E002", "Pen"},
		{"E003", "Pen"},
	}, got)
}

func TestSummarizeEmployees_OrphanLine(t *testing.T) {
	lines := []withdrawal.Line{{ID: 1, WithdrawalID: 4, ItemID: 1, Quantity: 1}}

	_, err := withdrawal.SummarizeEmployees(nil, lines, catalog)

	var perr *withdrawal.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "summarize_by_employee", perr.Op)
}
