package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/ledger"
)

func (s *Server) registerAPI(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.getHealth)

	// Runs
	mux.HandleFunc("GET /api/runs", s.listRuns)
	mux.HandleFunc("POST /api/runs", s.createRun)
	mux.HandleFunc("GET /api/runs/{id}", s.getRun)
	mux.HandleFunc("GET /api/runs/{id}/items", s.getRunItems)
	mux.HandleFunc("GET /api/runs/{id}/report", s.getRunReport)

	// Scheduled batches
	mux.HandleFunc("GET /api/batches", s.listBatches)
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]string{
		"status":  "ok",
		"version": s.version,
		"uptime":  formatUptime(time.Since(s.startedAt)),
	})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.ledger.ListRuns(50)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []ledger.Run{}
	}
	jsonResponse(w, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.ledger.GetRun(r.PathValue("id"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, run)
}

func (s *Server) getRunItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.ledger.GetRunItems(r.PathValue("id"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []ledger.RunItem{}
	}
	jsonResponse(w, items)
}

func (s *Server) getRunReport(w http.ResponseWriter, r *http.Request) {
	run, err := s.ledger.GetRun(r.PathValue("id"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	if run.Report == "" {
		jsonError(w, "run has no report yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, run.Report)
}

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	if s.launcher == nil {
		jsonError(w, "batch launching disabled", http.StatusServiceUnavailable)
		return
	}

	var body struct {
		Adsorbates []string `json:"adsorbates"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(body.Adsorbates) == 0 {
		jsonError(w, "adsorbates list is empty", http.StatusBadRequest)
		return
	}

	// The batch outlives the request; watch progress over the websocket
	// feed or poll the run.
	go func() {
		runID, err := s.launcher.RunBatch(context.Background(), body.Adsorbates)
		if err != nil {
			slog.Error("batch launched from API failed", "run", runID, "error", err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	jsonResponse(w, map[string]any{
		"status": "accepted",
		"items":  len(body.Adsorbates),
	})
}

func (s *Server) listBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.ledger.ListBatches()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if batches == nil {
		batches = []ledger.Batch{}
	}
	jsonResponse(w, batches)
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

func jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
