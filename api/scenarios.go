/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates employees and catalog
	items, then records withdrawals through the ledger.

AVAILABLE SCENARIOS:

	basic-issue:     Pen stock 50, E001 takes 5 then 3 (remaining 42)
	over-issue:      Glove stock 2, one withdrawal of 5 (remaining -3)
	walk-in:         Withdrawal by a code that is not in the directory

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create employees
 3. Create catalog items
 4. Record withdrawals via the ledger

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "basic-issue"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Register it in scenarioLoaders

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler
  - withdrawal/ledger.go: Record
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/equipment-ledger/withdrawal"
	"go.uber.org/zap"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "basic-issue",
		Name:        "Basic Issue",
		Description: "Pen stock 50, employee E001 withdraws 5 then 3",
	},
	{
		ID:          "over-issue",
		Name:        "Over-Issue",
		Description: "Glove stock 2, one withdrawal of 5 leaves remaining at -3",
	},
	{
		ID:          "walk-in",
		Name:        "Walk-In Employee",
		Description: "Withdrawal by an employee code missing from the directory",
	},
}

func (h *Handler) scenarioLoader(id string) func(context.Context) error {
	switch id {
	case "basic-issue":
		return h.loadBasicIssueScenario
	case "over-issue":
		return h.loadOverIssueScenario
	case "walk-in":
		return h.loadWalkInScenario
	default:
		return nil
	}
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	load := h.scenarioLoader(req.ScenarioID)
	if load == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Unknown scenario", Details: req.ScenarioID, Field: "scenario_id"})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if err := h.reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	if err := load(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID
	h.Logger.Info("scenario loaded", zap.String("scenario_id", req.ScenarioID))

	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"scenario_id": req.ScenarioID,
	})
}

// ResetDatabase clears every table.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.Logger.Warn("database reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// reset must be called with h.mu held.
func (h *Handler) reset(ctx context.Context) error {
	h.currentScenario = ""
	if err := h.Store.Reset(ctx); err != nil {
		return err
	}
	h.Ledger.InvalidateStock(ctx)
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadBasicIssueScenario(ctx context.Context) error {
	emp, err := h.Store.CreateEmployee(ctx, withdrawal.Employee{
		Code:       "E001",
		Name:       "Ana Souza",
		Department: "Maintenance",
	})
	if err != nil {
		return err
	}
	pen, err := h.Store.CreateItem(ctx, withdrawal.EquipmentItem{
		Name:          "Pen",
		Unit:          "piece",
		StockQuantity: 50,
	})
	if err != nil {
		return err
	}
	if _, err := h.Store.CreateItem(ctx, withdrawal.EquipmentItem{
		Name:          "Safety Helmet",
		Unit:          "piece",
		StockQuantity: 10,
		Notes:         "Shelf B2",
	}); err != nil {
		return err
	}

	for _, qty := range []int64{5, 3} {
		if _, err := h.Ledger.Record(ctx, withdrawal.NewWithdrawal{
			Employee: emp.Snapshot(),
			Lines:    []withdrawal.LineInput{{ItemID: pen.ID, Quantity: qty}},
		}); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadOverIssueScenario(ctx context.Context) error {
	emp, err := h.Store.CreateEmployee(ctx, withdrawal.Employee{
		Code:       "E002",
		Name:       "Ben Okafor",
		Department: "Production",
	})
	if err != nil {
		return err
	}
	glove, err := h.Store.CreateItem(ctx, withdrawal.EquipmentItem{
		Name:          "Glove",
		Unit:          "pair",
		StockQuantity: 2,
	})
	if err != nil {
		return err
	}

	notes := "Line shutdown, urgent"
	_, err = h.Ledger.Record(ctx, withdrawal.NewWithdrawal{
		Employee: emp.Snapshot(),
		Lines:    []withdrawal.LineInput{{ItemID: glove.ID, Quantity: 5}},
		Notes:    &notes,
	})
	return err
}

func (h *Handler) loadWalkInScenario(ctx context.Context) error {
	tape, err := h.Store.CreateItem(ctx, withdrawal.EquipmentItem{
		Name:          "Duct Tape",
		Unit:          "roll",
		StockQuantity: 12,
	})
	if err != nil {
		return err
	}

	snap, _, err := withdrawal.ResolveEmployee(ctx, h.Store, "C100", withdrawal.EmployeeSnapshot{
		Name:       "Contractor Crew",
		Department: "External",
	})
	if err != nil {
		return err
	}
	_, err = h.Ledger.Record(ctx, withdrawal.NewWithdrawal{
		Employee: snap,
		Lines:    []withdrawal.LineInput{{ItemID: tape.ID, Quantity: 2}},
	})
	return err
}
