package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/savegress/vitalstat/internal/storage"
	"github.com/savegress/vitalstat/pkg/models"
)

// RunFunc executes a full derivation run and returns its record.
type RunFunc func(ctx context.Context) (*storage.Run, error)

// Handlers contains all HTTP handlers
type Handlers struct {
	store  storage.RunStore
	runner RunFunc
}

// NewHandlers creates new handlers
func NewHandlers(store storage.RunStore, runner RunFunc) *Handlers {
	return &Handlers{store: store, runner: runner}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "vitalstat",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Derive runs the derivation pipeline against the configured inputs and
// records the run.
func (h *Handlers) Derive(w http.ResponseWriter, r *http.Request) {
	run, err := h.runner(r.Context())
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respond(w, http.StatusCreated, run)
}

// ListRuns lists recorded derivation runs, newest first.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	runs, err := h.store.ListRuns(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []*storage.Run{}
	}
	respond(w, http.StatusOK, runs)
}

// GetRun returns one run by ID.
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := h.store.GetRun(r.Context(), id)
	if errors.Is(err, storage.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, run)
}

// GetRunStatuses returns the derived rows of one run.
func (h *Handlers) GetRunStatuses(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	statuses, err := h.store.Statuses(r.Context(), id)
	if errors.Is(err, storage.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if statuses == nil {
		statuses = []models.PatientStatus{}
	}
	respond(w, http.StatusOK, statuses)
}

// ListStatuses returns the derived rows of the most recent run.
func (h *Handlers) ListStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.latestStatuses(r.Context())
	if errors.Is(err, storage.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "No derivation run recorded yet")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, statuses)
}

// GetPatientStatus returns one patient's row from the most recent run.
func (h *Handlers) GetPatientStatus(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")

	statuses, err := h.latestStatuses(r.Context())
	if errors.Is(err, storage.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "No derivation run recorded yet")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	for _, st := range statuses {
		if st.PatientID == patientID {
			respond(w, http.StatusOK, st)
			return
		}
	}
	respondError(w, http.StatusNotFound, "Patient not found")
}

func (h *Handlers) latestStatuses(ctx context.Context) ([]models.PatientStatus, error) {
	run, err := h.store.LatestRun(ctx)
	if err != nil {
		return nil, err
	}
	statuses, err := h.store.Statuses(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	if statuses == nil {
		statuses = []models.PatientStatus{}
	}
	return statuses, nil
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}
