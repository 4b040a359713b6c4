package mockapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/screener/internal/models"
	"github.com/desertthunder/screener/internal/server"
	"github.com/desertthunder/screener/internal/shared"
)

// Register wires the mock backend's endpoints onto a router.
func Register(r server.Router, store *Store) {
	r.Use(failureMiddleware(store))

	r.Handle("GET /assets", http.HandlerFunc(store.handleList))
	r.Handle("GET /assets/{id}", http.HandlerFunc(store.handleGet))
	r.Handle("PATCH /assets/{id}", http.HandlerFunc(store.handlePatch))
	r.Handle("POST /assets/{id}/decision", http.HandlerFunc(store.handleDecision))
	r.Handle("POST /assets/{id}/purge/preview", http.HandlerFunc(store.handlePurgePreview))
	r.Handle("POST /assets/{id}/purge", http.HandlerFunc(store.handlePurge))
	r.Handle("POST /batches/moves/preview", http.HandlerFunc(store.handleBatchPreview))
	r.Handle("POST /batches/moves", http.HandlerFunc(store.handleBatchExecute))
	r.Handle("GET /batches/moves/{id}", http.HandlerFunc(store.handleBatchReport))
	r.Handle("GET /app/policy", http.HandlerFunc(store.handlePolicy))
}

// NewServer builds a ready-to-serve handler over the store, with request
// logging when a logger is supplied.
func NewServer(store *Store, logger *log.Logger) http.Handler {
	router := server.NewBasicRouter()
	if logger != nil {
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				logger.Debug("mock request", "method", r.Method, "path", r.URL.Path)
				next.ServeHTTP(w, r)
			})
		})
	}
	Register(router, store)
	return router
}

// failureMiddleware serves the scripted failure queue ahead of real
// handling, one failure per request.
func failureMiddleware(store *Store) server.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if f, ok := store.nextFailure(); ok {
				writeError(w, f.Status, f.Code, "scripted failure", f.Retry)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, retryable bool) {
	writeJSON(w, status, map[string]any{
		"code":           code,
		"message":        message,
		"retryable":      retryable,
		"correlation_id": shared.GenerateID(),
	})
}

func (s *Store) handleList(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	cursor, _ := strconv.Atoi(r.URL.Query().Get("cursor"))

	s.mu.Lock()
	var filtered []models.AssetSummary
	for _, id := range s.order {
		a := s.assets[id]
		if state != "" && string(a.Summary.State) != state {
			continue
		}
		filtered = append(filtered, a.Summary)
	}
	s.mu.Unlock()

	if cursor > len(filtered) {
		cursor = len(filtered)
	}
	end := cursor + limit
	next := ""
	if end < len(filtered) {
		next = strconv.Itoa(end)
	} else {
		end = len(filtered)
	}

	items := make([]models.AssetSummary, 0, end-cursor)
	items = append(items, filtered[cursor:end]...)
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "next_cursor": next})
}

func (s *Store) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	asset, ok := s.Asset(id)
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such asset", false)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (s *Store) handlePatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var patch models.MetadataPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid patch body", false)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	asset, ok := s.assets[id]
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such asset", false)
		return
	}
	if patch.Tags != nil {
		asset.Tags = patch.Tags
	}
	if patch.Notes != nil {
		asset.Notes = *patch.Notes
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Store) handleDecision(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	key := r.Header.Get("Idempotency-Key")

	var body struct {
		Action models.DecisionAction `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid decision body", false)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	asset, ok := s.assets[id]
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such asset", false)
		return
	}

	// Replays of an already applied key acknowledge without reapplying.
	if key != "" {
		if _, seen := s.idempotency[key]; seen {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.idempotency[key] = id
	}

	target := models.NextState(body.Action, asset.Summary.State)
	if target != asset.Summary.State {
		asset.Summary.State = target
		s.decisionsMade++
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Store) handlePurgePreview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.Asset(id); !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such asset", false)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Store) handlePurge(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	key := r.Header.Get("Idempotency-Key")

	s.mu.Lock()
	defer s.mu.Unlock()

	if key != "" {
		if _, seen := s.idempotency[key]; seen {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.idempotency[key] = id
	}

	if _, ok := s.assets[id]; !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such asset", false)
		return
	}

	delete(s.assets, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveRequest struct {
	Mode      string   `json:"mode"`
	Selection []string `json:"selection"`
}

func (s *Store) handleBatchPreview(w http.ResponseWriter, r *http.Request) {
	var body moveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Selection) == 0 {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "empty selection", false)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.previewCount++
	w.WriteHeader(http.StatusNoContent)
}

func (s *Store) handleBatchExecute(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")

	var body moveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Selection) == 0 {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "empty selection", false)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if key != "" {
		if batchID, seen := s.idempotency[key]; seen {
			writeJSON(w, http.StatusOK, map[string]string{"batch_id": batchID})
			return
		}
	}

	batchID := shared.GenerateID()
	report := &models.BatchReport{BatchID: batchID}
	for _, id := range body.Selection {
		if _, ok := s.assets[id]; ok {
			report.MovedCount++
		} else {
			report.FailedCount++
			report.Errors = append(report.Errors, models.ReportError{
				AssetID: id,
				Reason:  "unknown asset",
			})
		}
	}

	s.batches[batchID] = report
	s.executeCount++
	if key != "" {
		s.idempotency[key] = batchID
	}

	writeJSON(w, http.StatusOK, map[string]string{"batch_id": batchID})
}

func (s *Store) handleBatchReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.batches[id]
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such batch", false)
		return
	}

	s.batchPolls[id]++
	status := models.ReportRunning
	if s.batchPolls[id] > s.reportPolls {
		if report.FailedCount == 0 {
			status = models.ReportDone
		} else if report.MovedCount > 0 {
			status = models.ReportPartial
		} else {
			status = models.ReportFailed
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       status,
		"moved_count":  report.MovedCount,
		"failed_count": report.FailedCount,
		"errors":       report.Errors,
	})
}

func (s *Store) handlePolicy(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"server_policy": map[string]any{
			"feature_flags":             s.flags,
			"min_poll_interval_seconds": s.pollInterval,
		},
	})
}
