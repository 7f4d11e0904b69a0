// Package api serves the kiosk's read-only status surface: session state,
// operation counters, candidate lists, tallies and the session journal. The
// voter-facing flow never goes through HTTP; this exists for poll-station
// dashboards.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/cors"

	"voting-kiosk/election"
	"voting-kiosk/log"
	"voting-kiosk/service"
	"voting-kiosk/storage"
)

type Server struct {
	coordinator *service.Coordinator
	table       *election.CandidateTable
	journal     *storage.Journal
	metrics     *service.Metrics

	httpServer *http.Server
}

type StatusResponse struct {
	Step       string                  `json:"step"`
	AuthMethod string                  `json:"auth_method"`
	HasVoted   bool                    `json:"has_voted"`
	Metrics    service.MetricsSnapshot `json:"metrics"`
}

type CandidatesResponse struct {
	Constituencies map[string][]string `json:"constituencies"`
	Count          int                 `json:"total_constituencies"`
}

type ResultsResponse struct {
	Results    map[string][]uint64 `json:"results"`
	TotalVotes uint64              `json:"total_votes"`
}

type JournalResponse struct {
	Records []*storage.Record `json:"records"`
	Count   int               `json:"total_records"`
}

func NewServer(coordinator *service.Coordinator, table *election.CandidateTable, journal *storage.Journal, metrics *service.Metrics) *Server {
	return &Server{
		coordinator: coordinator,
		table:       table,
		journal:     journal,
		metrics:     metrics,
	}
}

// Start serves the status API on addr until Shutdown is called. The dashboard
// runs on a different origin, hence the CORS wrapper.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleGetStatus)
	mux.HandleFunc("/api/candidates", s.handleGetCandidates)
	mux.HandleFunc("/api/results", s.handleGetResults)
	mux.HandleFunc("/api/journal", s.handleGetJournal)

	handler := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet},
	}).Handler(mux)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Infof("status API listening on %s", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session := s.coordinator.Session()
	response := StatusResponse{
		Step:       session.Step.String(),
		AuthMethod: session.AuthMethod.String(),
		HasVoted:   session.HasVoted,
		Metrics:    s.metrics.Snapshot(),
	}

	writeJSON(w, response)
}

func (s *Server) handleGetCandidates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	constituencies := make(map[string][]string)
	for _, c := range s.table.Constituencies() {
		constituencies[c] = s.table.Candidates(c)
	}

	writeJSON(w, CandidatesResponse{
		Constituencies: constituencies,
		Count:          s.table.Len(),
	})
}

func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	results, err := s.coordinator.Results(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	var total uint64
	for _, tallies := range results {
		for _, n := range tallies {
			total += n
		}
	}

	writeJSON(w, ResultsResponse{Results: results, TotalVotes: total})
}

func (s *Server) handleGetJournal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.journal == nil {
		writeJSON(w, JournalResponse{Records: []*storage.Record{}})
		return
	}

	records := s.journal.Records()
	writeJSON(w, JournalResponse{Records: records, Count: len(records)})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("failed to encode response: %v", err)
	}
}
