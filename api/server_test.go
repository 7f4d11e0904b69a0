package api

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	qt "github.com/frankban/quicktest"

	"voting-kiosk/election"
	"voting-kiosk/models"
	"voting-kiosk/registry"
	"voting-kiosk/service"
	"voting-kiosk/storage"
)

type staticLedger struct{}

func (staticLedger) TotalConstituencies(ctx context.Context) (uint64, error) { return 4, nil }

func (staticLedger) ResultsFor(ctx context.Context, constituencyIndex uint64) ([]*big.Int, error) {
	return []*big.Int{big.NewInt(5), big.NewInt(2), big.NewInt(1)}, nil
}

func (staticLedger) SubmitBallot(ctx context.Context, ballot models.Ballot, voterID string) error {
	return nil
}

func newTestServer(t *testing.T) (*Server, *service.Coordinator) {
	t.Helper()
	mock := registry.NewMockClient()
	table := election.DefaultTable()
	journal, err := storage.NewJournal(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	metrics := service.NewMetrics()

	coord := service.NewCoordinator(mock, table, nil, service.Options{
		Journal: journal,
		Metrics: metrics,
	})
	return NewServer(coord, table, journal, metrics), coord
}

func TestHandleGetStatus(t *testing.T) {
	c := qt.New(t)
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.handleGetStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	c.Assert(rec.Code, qt.Equals, http.StatusOK)

	var resp StatusResponse
	c.Assert(json.Unmarshal(rec.Body.Bytes(), &resp), qt.IsNil)
	c.Assert(resp.Step, qt.Equals, "voter_id")
	c.Assert(resp.HasVoted, qt.IsFalse)

	// Writes are rejected.
	rec = httptest.NewRecorder()
	server.handleGetStatus(rec, httptest.NewRequest(http.MethodPost, "/api/status", nil))
	c.Assert(rec.Code, qt.Equals, http.StatusMethodNotAllowed)
}

func TestHandleGetCandidates(t *testing.T) {
	c := qt.New(t)
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.handleGetCandidates(rec, httptest.NewRequest(http.MethodGet, "/api/candidates", nil))
	c.Assert(rec.Code, qt.Equals, http.StatusOK)

	var resp CandidatesResponse
	c.Assert(json.Unmarshal(rec.Body.Bytes(), &resp), qt.IsNil)
	c.Assert(resp.Count, qt.Equals, 4)
	c.Assert(resp.Constituencies["jalna"], qt.HasLen, 3)
}

func TestHandleGetResults(t *testing.T) {
	c := qt.New(t)
	server, coord := newTestServer(t)

	// No ledger yet.
	rec := httptest.NewRecorder()
	server.handleGetResults(rec, httptest.NewRequest(http.MethodGet, "/api/results", nil))
	c.Assert(rec.Code, qt.Equals, http.StatusServiceUnavailable)

	coord.SetLedger(staticLedger{})
	rec = httptest.NewRecorder()
	server.handleGetResults(rec, httptest.NewRequest(http.MethodGet, "/api/results", nil))
	c.Assert(rec.Code, qt.Equals, http.StatusOK)

	var resp ResultsResponse
	c.Assert(json.Unmarshal(rec.Body.Bytes(), &resp), qt.IsNil)
	c.Assert(resp.Results, qt.HasLen, 4)
	c.Assert(resp.TotalVotes, qt.Equals, uint64(32))
}

func TestHandleGetJournal(t *testing.T) {
	c := qt.New(t)
	server, _ := newTestServer(t)

	c.Assert(server.journal.Append(&storage.Record{ID: "r1", Outcome: storage.OutcomeVoted}), qt.IsNil)

	rec := httptest.NewRecorder()
	server.handleGetJournal(rec, httptest.NewRequest(http.MethodGet, "/api/journal", nil))
	c.Assert(rec.Code, qt.Equals, http.StatusOK)

	var resp JournalResponse
	c.Assert(json.Unmarshal(rec.Body.Bytes(), &resp), qt.IsNil)
	c.Assert(resp.Count, qt.Equals, 1)
	c.Assert(resp.Records[0].ID, qt.Equals, "r1")
}
