package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/equipment-ledger/api"
)

func loadScenario(t *testing.T, s *testServer, id string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: id}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func stockByName(t *testing.T, s *testServer) map[string]api.StockRowDTO {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/api/stock", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := map[string]api.StockRowDTO{}
	for _, row := range decode[[]api.StockRowDTO](t, rec) {
		out[row.Name] = row
	}
	return out
}

func TestScenarios_List(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodGet, "/api/scenarios", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]api.ScenarioDTO](t, rec)
	require.Len(t, list, 3)
	assert.Equal(t, "basic-issue", list[0].ID)
}

func TestScenarios_BasicIssue(t *testing.T) {
	s := newTestServer(t, "")

	loadScenario(t, s, "basic-issue")

	pen := stockByName(t, s)["Pen"]
	assert.Equal(t, int64(50), pen.StockQuantity)
	assert.Equal(t, int64(42), pen.RemainingQuantity)

	rec := s.do(t, http.MethodGet, "/api/summary/employees", nil, nil)
	summary := decode[[]api.EmployeeSummaryDTO](t, rec)
	require.Len(t, summary, 1)
	assert.Equal(t, "E001", summary[0].EmployeeCode)
	assert.Equal(t, int64(8), summary[0].TotalQuantity)
	assert.Equal(t, 2, summary[0].WithdrawalCount)

	rec = s.do(t, http.MethodGet, "/api/scenarios/current", nil, nil)
	assert.Equal(t, "basic-issue", decode[api.ScenarioDTO](t, rec).ID)
}

func TestScenarios_OverIssue(t *testing.T) {
	s := newTestServer(t, "")

	loadScenario(t, s, "over-issue")

	glove := stockByName(t, s)["Glove"]
	assert.Equal(t, int64(-3), glove.RemainingQuantity)
	assert.True(t, glove.OverIssued)
}

func TestScenarios_WalkIn(t *testing.T) {
	s := newTestServer(t, "")

	loadScenario(t, s, "walk-in")

	rec := s.do(t, http.MethodGet, "/api/withdrawals", nil, nil)
	groups := decode[[]api.TransactionGroupDTO](t, rec)
	require.Len(t, groups, 1)
	assert.Nil(t, groups[0].EmployeeID)
	assert.Equal(t, "C100", groups[0].EmployeeCode)
}

func TestScenarios_LoadReplacesPreviousData(t *testing.T) {
	s := newTestServer(t, "")

	loadScenario(t, s, "basic-issue")
	loadScenario(t, s, "over-issue")

	stock := stockByName(t, s)
	assert.NotContains(t, stock, "Pen")
	assert.Contains(t, stock, "Glove")
}

func TestScenarios_UnknownAndReset(t *testing.T) {
	s := newTestServer(t, "")
	loadScenario(t, s, "basic-issue")

	rec := s.do(t, http.MethodPost, "/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: "nope"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, stockByName(t, s), "Pen", "an unknown scenario leaves data alone")

	rec = s.do(t, http.MethodPost, "/api/scenarios/reset", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, stockByName(t, s))

	rec = s.do(t, http.MethodGet, "/api/scenarios/current", nil, nil)
	assert.JSONEq(t, "null", rec.Body.String())
}
