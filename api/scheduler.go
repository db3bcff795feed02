/*
scheduler.go - Periodic stock audit

PURPOSE:
  Recomputes the remaining-stock report on a cron schedule and logs a
  warning for every item with a negative remaining quantity. Over-issuance
  is allowed at write time, so this is where it gets noticed.

DESIGN:
  - robfig/cron/v3 with the standard 5-field parser
  - Read-only: never blocks or alters withdrawals
  - Each run has its own timeout

USAGE:
  audit := NewStockAudit(ledger, "0 * * * *", logger)
  if err := audit.Start(); err != nil { ... }
  // ... later
  audit.Stop()

SEE ALSO:
  - withdrawal/ledger.go: RemainingStock
*/
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/warp/equipment-ledger/withdrawal"
	"go.uber.org/zap"
)

// StockReporter is the part of the ledger the audit reads.
type StockReporter interface {
	RemainingStock(ctx context.Context) ([]withdrawal.StockRow, error)
}

// StockAudit logs over-issued items on a schedule.
type StockAudit struct {
	Reporter StockReporter
	Schedule string
	Timeout  time.Duration

	cron   *cron.Cron
	logger *zap.Logger
}

// NewStockAudit creates an audit. An empty schedule disables it.
func NewStockAudit(reporter StockReporter, schedule string, logger *zap.Logger) *StockAudit {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockAudit{
		Reporter: reporter,
		Schedule: schedule,
		Timeout:  time.Minute,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start registers the job and starts the cron runner.
func (a *StockAudit) Start() error {
	if a.Schedule == "" {
		a.logger.Info("stock audit disabled")
		return nil
	}

	if _, err := a.cron.AddFunc(a.Schedule, a.run); err != nil {
		return fmt.Errorf("invalid stock audit schedule %q: %w", a.Schedule, err)
	}
	a.cron.Start()
	a.logger.Info("stock audit scheduled", zap.String("schedule", a.Schedule))
	return nil
}

// Stop stops the runner and waits for a running audit to finish.
func (a *StockAudit) Stop() {
	<-a.cron.Stop().Done()
	a.logger.Info("stock audit stopped")
}

func (a *StockAudit) run() {
	ctx, cancel := context.WithTimeout(context.Background(), a.Timeout)
	defer cancel()

	if _, err := a.RunOnce(ctx); err != nil {
		a.logger.Error("stock audit failed", zap.Error(err))
	}
}

// RunOnce computes the report and returns the over-issued rows.
func (a *StockAudit) RunOnce(ctx context.Context) ([]withdrawal.StockRow, error) {
	rows, err := a.Reporter.RemainingStock(ctx)
	if err != nil {
		return nil, err
	}

	var over []withdrawal.StockRow
	for _, row := range rows {
		if !row.OverIssued() {
			continue
		}
		over = append(over, row)
		a.logger.Warn("item over-issued",
			zap.Int64("item_id", int64(row.Item.ID)),
			zap.String("name", row.Item.Name),
			zap.Int64("stock_quantity", row.StockQuantity),
			zap.Int64("withdrawn_quantity", row.WithdrawnQuantity),
			zap.Int64("remaining_quantity", row.RemainingQuantity))
	}

	a.logger.Info("stock audit completed",
		zap.Int("items", len(rows)),
		zap.Int("over_issued", len(over)))
	return over, nil
}
