package withdrawal_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/equipment-ledger/withdrawal"
	"github.com/warp/equipment-ledger/withdrawal/store"
)

// commitMidRead records one more withdrawal right after the next ledger load
// returns, before the ledger has listed the catalog.
type commitMidRead struct {
	*store.Memory
	afterLoad func()
}

func (s *commitMidRead) fire() {
	if hook := s.afterLoad; hook != nil {
		s.afterLoad = nil
		hook()
	}
}

func (s *commitMidRead) LoadLedger(ctx context.Context) ([]withdrawal.Header, []withdrawal.Line, error) {
	headers, lines, err := s.Memory.LoadLedger(ctx)
	s.fire()
	return headers, lines, err
}

func (s *commitMidRead) LoadLines(ctx context.Context) ([]withdrawal.Line, error) {
	lines, err := s.Memory.LoadLines(ctx)
	s.fire()
	return lines, err
}

func TestLedger_CommitDuringRead(t *testing.T) {
	// GIVEN: One recorded withdrawal
	// WHEN: A second withdrawal commits while each projection is reading
	// THEN: the read succeeds with the earlier state and the next read sees both

	mem := store.NewMemory()
	racing := &commitMidRead{Memory: mem}
	ledger := withdrawal.NewLedger(racing, mem, nil)
	ctx := context.Background()
	pen := mustItem(t, mem, "Pen", 50)
	emp := withdrawal.EmployeeSnapshot{Code: "E001", Name: "Ana", Department: "Ops"}

	_, err := ledger.Record(ctx, issue(emp, line(pen.ID, 1)))
	require.NoError(t, err)

	commit := func() {
		_, err := ledger.Record(ctx, issue(emp, line(pen.ID, 1)))
		require.NoError(t, err)
	}

	racing.afterLoad = commit
	groups, err := ledger.GroupByTransaction(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	racing.afterLoad = commit
	summary, err := ledger.SummarizeByEmployee(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, int64(2), summary[0].TotalQuantity)

	racing.afterLoad = commit
	rows, err := ledger.RemainingStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(47), stockFor(t, rows, pen.ID).RemainingQuantity)

	groups, err = ledger.GroupByTransaction(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 4)
	rows, err = ledger.RemainingStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(46), stockFor(t, rows, pen.ID).RemainingQuantity)
}

func TestLedger_ReadsDuringConcurrentRecord(t *testing.T) {
	// GIVEN: A cached ledger and several writers recording one unit each
	// WHEN: Readers call every projection while the writers run
	// THEN: no read fails, every snapshot conserves stock, and the final
	//       reports account for every withdrawal

	const (
		writers   = 4
		perWriter = 25
		stock     = 1000
	)

	mem := store.NewMemory()
	ledger := withdrawal.NewLedger(mem, mem, nil)
	ledger.Cache = store.NewStockCache()
	ctx := context.Background()
	pen := mustItem(t, mem, "Pen", stock)

	var wg sync.WaitGroup
	done := make(chan struct{})

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_, err := ledger.Record(ctx, issue(withdrawal.EmployeeSnapshot{Code: "E001", Name: "Ana", Department: "Ops"}, line(pen.ID, 1)))
				assert.NoError(t, err)
			}
		}()
	}

	var readers sync.WaitGroup
	for r := 0; r < 3; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-done:
					return
				default:
				}

				rows, err := ledger.RemainingStock(ctx)
				if assert.NoError(t, err) && assert.Len(t, rows, 1) {
					assert.Equal(t, int64(stock), rows[0].RemainingQuantity+rows[0].WithdrawnQuantity)
				}

				groups, err := ledger.GroupByTransaction(ctx)
				assert.NoError(t, err)
				for _, g := range groups {
					assert.NotEmpty(t, g.Items)
				}

				_, err = ledger.SummarizeByEmployee(ctx)
				assert.NoError(t, err)
			}
		}()
	}

	wg.Wait()
	close(done)
	readers.Wait()

	rows, err := ledger.RemainingStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(stock-writers*perWriter), stockFor(t, rows, pen.ID).RemainingQuantity)

	groups, err := ledger.GroupByTransaction(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, writers*perWriter)

	summary, err := ledger.SummarizeByEmployee(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, int64(writers*perWriter), summary[0].TotalQuantity)
	assert.Equal(t, writers*perWriter, summary[0].WithdrawalCount)
}
