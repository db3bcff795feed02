package store

import (
	"context"
	"sync"

	"github.com/warp/equipment-ledger/withdrawal"
)

// StockCache is an in-process withdrawal.StockCache. It keeps only the report
// for the current generation.
type StockCache struct {
	mu   sync.Mutex
	gen  uint64
	rows []withdrawal.StockRow
	ok   bool
}

func NewStockCache() *StockCache {
	return &StockCache{}
}

func (c *StockCache) Generation(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

func (c *StockCache) Get(_ context.Context, gen uint64) ([]withdrawal.StockRow, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ok || gen != c.gen {
		return nil, false, nil
	}
	return append([]withdrawal.StockRow(nil), c.rows...), true, nil
}

// Set stores rows if gen is still the current generation.
func (c *StockCache) Set(_ context.Context, gen uint64, rows []withdrawal.StockRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	c.rows, c.ok = append([]withdrawal.StockRow(nil), rows...), true
	return nil
}

func (c *StockCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.rows, c.ok = nil, false
	return nil
}
